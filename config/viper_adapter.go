/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is the DataProvider backed by spf13/viper.
// Conversions of raw values are done by spf13/cast, so "true", "1" and true are all a valid bool.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter returns an empty ViperAdapter.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper: viper.New()}
}

// UseEnvVars makes every key readable from the <PREFIX>_<KEY> variable,
// e.g. "cache.capacity" from CACHEDEMO_CACHE_CAPACITY for the "cachedemo" prefix.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.SetEnvPrefix(prefix)
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.AutomaticEnv()
}

func (va *ViperAdapter) Set(key string, value interface{})        { va.viper.Set(key, value) }
func (va *ViperAdapter) SetDefault(key string, value interface{}) { va.viper.SetDefault(key, value) }

func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.viper.SetConfigFile(path)
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadInConfig()
}

func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

func (va *ViperAdapter) IsSet(key string) bool          { return va.viper.IsSet(key) }
func (va *ViperAdapter) Get(key string) interface{}     { return va.viper.Get(key) }
func (va *ViperAdapter) GetBool(key string) (bool, error) { return castKey(va, key, cast.ToBoolE) }
func (va *ViperAdapter) GetInt(key string) (int, error)   { return castKey(va, key, cast.ToIntE) }

func (va *ViperAdapter) GetString(key string) (string, error) {
	return castKey(va, key, cast.ToStringE)
}

// GetStringFromSet returns the value as is (case preserved) if it matches one of set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	val, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for i := range set {
		if val == set[i] || ignoreCase && strings.EqualFold(val, set[i]) {
			return val, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", val, set))
}

// GetStringSlice accepts both lists and comma-separated strings. Absent key gives nil.
func (va *ViperAdapter) GetStringSlice(key string) ([]string, error) {
	return castKey(va, key, func(val interface{}) ([]string, error) {
		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			parts := strings.Split(s, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts, nil
		}
		return cast.ToStringSliceE(val)
	})
}

// GetDuration accepts Go duration strings ("30s") and integers (nanoseconds). Absent key gives 0.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	return castKey(va, key, cast.ToDurationE)
}

// GetByteSize accepts sizes with units ("250M", "1Gi") and non-negative integers. Absent key gives 0.
func (va *ViperAdapter) GetByteSize(key string) (ByteSize, error) {
	return castKey(va, key, func(val interface{}) (ByteSize, error) {
		var bs ByteSize
		s, err := cast.ToStringE(val)
		if err != nil {
			return 0, err
		}
		return bs, bs.UnmarshalText([]byte(s))
	})
}

// UnmarshalKey decodes the subtree under key into rawVal with mapstructure.
// Strings are decoded into encoding.TextUnmarshaler fields (TimeDuration, ByteSize)
// and into slices (split by comma).
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}) error {
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	return WrapKeyErrIfNeeded(key, va.viper.UnmarshalKey(key, rawVal, viper.DecodeHook(hook)))
}

func (va *ViperAdapter) WrapKeyErr(key string, err error) error { return WrapKeyErr(key, err) }

// castKey converts the raw value of key. Nil values (absent keys) give the zero value without error.
func castKey[T any](va *ViperAdapter, key string, conv func(interface{}) (T, error)) (T, error) {
	raw := va.viper.Get(key)
	if raw == nil {
		var zero T
		return zero, nil
	}
	val, err := conv(raw)
	return val, WrapKeyErrIfNeeded(key, err)
}
