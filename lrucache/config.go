/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/config"
)

const cfgDefaultKeyPrefix = "cache"

const (
	cfgKeyCapacity         = "capacity"
	cfgKeyDefaultTTL       = "defaultTTL"
	cfgKeyExpiredHitPolicy = "expiredHitPolicy"
	cfgKeySweepInterval    = "sweepInterval"
)

// Default configuration values.
const (
	DefaultCapacity      = 100
	DefaultSweepInterval = time.Minute
)

// Config represents a set of configuration parameters for the cache.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	Capacity         int                 `mapstructure:"capacity" yaml:"capacity" json:"capacity"`
	DefaultTTL       config.TimeDuration `mapstructure:"defaultTTL" yaml:"defaultTTL" json:"defaultTTL"`
	ExpiredHitPolicy ExpiredHitPolicy    `mapstructure:"expiredHitPolicy" yaml:"expiredHitPolicy" json:"expiredHitPolicy"`

	// SweepInterval is an interval of the periodic expiry sweep. Zero disables it.
	SweepInterval config.TimeDuration `mapstructure:"sweepInterval" yaml:"sweepInterval" json:"sweepInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the default key prefix ("cache").
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:        cfgDefaultKeyPrefix,
		Capacity:         DefaultCapacity,
		DefaultTTL:       config.TimeDuration(DefaultTTL),
		ExpiredHitPolicy: ExpiredHitPolicyReturn,
		SweepInterval:    config.TimeDuration(DefaultSweepInterval),
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the cache in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCapacity, DefaultCapacity)
	dp.SetDefault(cfgKeyDefaultTTL, DefaultTTL.String())
	dp.SetDefault(cfgKeyExpiredHitPolicy, string(ExpiredHitPolicyReturn))
	dp.SetDefault(cfgKeySweepInterval, DefaultSweepInterval.String())
}

var availableExpiredHitPolicies = []string{string(ExpiredHitPolicyReturn), string(ExpiredHitPolicyMiss)}

// Set sets cache configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Capacity, err = dp.GetInt(cfgKeyCapacity); err != nil {
		return err
	}
	if c.Capacity <= 0 {
		return dp.WrapKeyErr(cfgKeyCapacity, fmt.Errorf("must be positive"))
	}

	var ttl time.Duration
	if ttl, err = dp.GetDuration(cfgKeyDefaultTTL); err != nil {
		return err
	}
	if ttl < 0 {
		return dp.WrapKeyErr(cfgKeyDefaultTTL, fmt.Errorf("cannot be negative"))
	}
	c.DefaultTTL = config.TimeDuration(ttl)

	var policy string
	if policy, err = dp.GetStringFromSet(cfgKeyExpiredHitPolicy, availableExpiredHitPolicies, false); err != nil {
		return err
	}
	c.ExpiredHitPolicy = ExpiredHitPolicy(policy)

	var sweepInterval time.Duration
	if sweepInterval, err = dp.GetDuration(cfgKeySweepInterval); err != nil {
		return err
	}
	if sweepInterval < 0 {
		return dp.WrapKeyErr(cfgKeySweepInterval, fmt.Errorf("cannot be negative"))
	}
	c.SweepInterval = config.TimeDuration(sweepInterval)

	return nil
}

// NewFromConfig creates a new LRUCache configured by cfg.
// Zero DefaultTTL in cfg falls back to DefaultTTL.
func NewFromConfig[K comparable, V any](
	cfg *Config, metricsCollector MetricsCollector, observer Observer[K],
) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](cfg.Capacity, metricsCollector, Options[K]{
		DefaultTTL:       time.Duration(cfg.DefaultTTL),
		ExpiredHitPolicy: cfg.ExpiredHitPolicy,
		Observer:         observer,
	})
}
