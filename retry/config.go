/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/config"
)

const cfgDefaultKeyPrefix = "retry"

const (
	cfgKeyPolicy          = "policy"
	cfgKeyMaxRetries      = "maxRetries"
	cfgKeyInitialInterval = "initialInterval"
	cfgKeyMaxInterval     = "maxInterval"
)

// Backoff policy kinds.
const (
	PolicyExponential = "exponential"
	PolicyConstant    = "constant"
)

// Default configuration values.
const (
	DefaultMaxRetries      = 3
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 2 * time.Second
)

// Config represents a set of configuration parameters for retrying the backing store calls.
type Config struct {
	Policy          string              `mapstructure:"policy" yaml:"policy" json:"policy"`
	MaxRetries      int                 `mapstructure:"maxRetries" yaml:"maxRetries" json:"maxRetries"`
	InitialInterval config.TimeDuration `mapstructure:"initialInterval" yaml:"initialInterval" json:"initialInterval"`
	MaxInterval     config.TimeDuration `mapstructure:"maxInterval" yaml:"maxInterval" json:"maxInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyPolicy, PolicyExponential)
	dp.SetDefault(cfgKeyMaxRetries, DefaultMaxRetries)
	dp.SetDefault(cfgKeyInitialInterval, DefaultInitialInterval.String())
	dp.SetDefault(cfgKeyMaxInterval, DefaultMaxInterval.String())
}

// Set sets retry configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Policy, err = dp.GetStringFromSet(cfgKeyPolicy, []string{PolicyExponential, PolicyConstant}, false); err != nil {
		return err
	}

	if c.MaxRetries, err = dp.GetInt(cfgKeyMaxRetries); err != nil {
		return err
	}
	if c.MaxRetries < 0 {
		return dp.WrapKeyErr(cfgKeyMaxRetries, fmt.Errorf("cannot be negative"))
	}

	var interval time.Duration
	if interval, err = dp.GetDuration(cfgKeyInitialInterval); err != nil {
		return err
	}
	if interval <= 0 {
		return dp.WrapKeyErr(cfgKeyInitialInterval, fmt.Errorf("must be positive"))
	}
	c.InitialInterval = config.TimeDuration(interval)

	if interval, err = dp.GetDuration(cfgKeyMaxInterval); err != nil {
		return err
	}
	if interval < time.Duration(c.InitialInterval) {
		return dp.WrapKeyErr(cfgKeyMaxInterval, fmt.Errorf("should be >= %s", cfgKeyInitialInterval))
	}
	c.MaxInterval = config.TimeDuration(interval)

	return nil
}

// NewPolicy creates a backoff policy described by the config.
func (c *Config) NewPolicy() Policy {
	if c.Policy == PolicyConstant {
		return ConstantBackoffPolicy{Interval: time.Duration(c.InitialInterval), MaxRetries: c.MaxRetries}
	}
	return ExponentialBackoffPolicy{
		InitialInterval: time.Duration(c.InitialInterval),
		MaxInterval:     time.Duration(c.MaxInterval),
		MaxRetries:      c.MaxRetries,
	}
}
