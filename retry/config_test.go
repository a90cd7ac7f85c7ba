/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfgData    string
		wantPolicy Policy
		wantErr    string
	}{
		{
			name:    "defaults",
			cfgData: "{}",
			wantPolicy: ExponentialBackoffPolicy{
				InitialInterval: DefaultInitialInterval,
				MaxInterval:     DefaultMaxInterval,
				MaxRetries:      DefaultMaxRetries,
			},
		},
		{
			name:       "constant",
			cfgData:    "retry:\n  policy: constant\n  maxRetries: 5\n  initialInterval: 50ms\n",
			wantPolicy: ConstantBackoffPolicy{Interval: 50 * time.Millisecond, MaxRetries: 5},
		},
		{
			name:    "unknown policy",
			cfgData: "retry:\n  policy: linear\n",
			wantErr: `retry.policy: unknown value "linear", should be one of [exponential constant]`,
		},
		{
			name:    "max interval less than initial",
			cfgData: "retry:\n  initialInterval: 5s\n  maxInterval: 1s\n",
			wantErr: "retry.maxInterval: should be >= initialInterval",
		},
		{
			name:    "zero interval",
			cfgData: "retry:\n  initialInterval: 0s\n",
			wantErr: "retry.initialInterval: must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantPolicy, cfg.NewPolicy())
		})
	}
}
