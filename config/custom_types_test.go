/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTimeDuration(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		yaml    string
		want    TimeDuration
		wantErr bool
	}{
		{name: "human-readable", json: `"1m30s"`, yaml: `1m30s`, want: TimeDuration(90 * time.Second)},
		{name: "nanoseconds", json: `1000`, yaml: `1000`, want: TimeDuration(time.Microsecond)},
		{name: "negative", json: `-1`, yaml: `-1`, wantErr: true},
		{name: "garbage", json: `"later"`, yaml: `later`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromJSON, fromYAML TimeDuration
			jsonErr := json.Unmarshal([]byte(tt.json), &fromJSON)
			yamlErr := yaml.Unmarshal([]byte(tt.yaml), &fromYAML)
			if tt.wantErr {
				require.Error(t, jsonErr)
				require.Error(t, yamlErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			require.Equal(t, tt.want, fromJSON)
			require.Equal(t, tt.want, fromYAML)
		})
	}

	data, err := json.Marshal(TimeDuration(30 * time.Second))
	require.NoError(t, err)
	require.Equal(t, `"30s"`, string(data))
}

func TestByteSize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ByteSize
		wantErr bool
	}{
		{name: "bytes", raw: `1024`, want: 1024},
		{name: "megabytes", raw: `"250M"`, want: 250 * 1024 * 1024},
		{name: "k8s suffix", raw: `"1Gi"`, want: 1024 * 1024 * 1024},
		{name: "negative", raw: `-5`, wantErr: true},
		{name: "garbage", raw: `"lots"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ByteSize
			err := json.Unmarshal([]byte(tt.raw), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	var fromYAML ByteSize
	require.NoError(t, yaml.Unmarshal([]byte(`100M`), &fromYAML))
	require.Equal(t, ByteSize(100*1024*1024), fromYAML)
	require.Equal(t, "100M", fromYAML.String())
}

func TestCustomTypes_InStruct(t *testing.T) {
	var cfg struct {
		TTL  TimeDuration `json:"ttl" yaml:"ttl"`
		Size ByteSize     `json:"size" yaml:"size"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("ttl: 2m\nsize: 512Ki\n"), &cfg))
	require.Equal(t, TimeDuration(2*time.Minute), cfg.TTL)
	require.Equal(t, ByteSize(512*1024), cfg.Size)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.JSONEq(t, `{"ttl":"2m0s","size":"512K"}`, string(data))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.Equal(t, "ttl: 2m0s\nsize: 512K\n", string(out))
}
