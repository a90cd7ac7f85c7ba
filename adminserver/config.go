/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/config"
	"github.com/acronis/go-cachekit/internal/ratelimit"
)

const cfgDefaultKeyPrefix = "admin"

const (
	cfgKeyEnabled          = "enabled"
	cfgKeyAddress          = "address"
	cfgKeyTimeoutsWrite    = "timeouts.write"
	cfgKeyTimeoutsRead     = "timeouts.read"
	cfgKeyTimeoutsIdle     = "timeouts.idle"
	cfgKeyTimeoutsShutdown = "timeouts.shutdown"
	cfgKeyRecentLimit      = "recentLimit"
	cfgKeyProfiling        = "profiling"

	cfgKeyRateLimitEnabled = "rateLimit.enabled"
	cfgKeyRateLimitAlg     = "rateLimit.alg"
	cfgKeyRateLimitRate    = "rateLimit.rate"
	cfgKeyRateLimitBurst   = "rateLimit.burst"
	cfgKeyRateLimitMaxKeys = "rateLimit.maxKeys"
	cfgKeyRateLimitExclude = "rateLimit.excludedPaths"
)

// Default configuration values.
const (
	DefaultAddress          = "127.0.0.1:9090"
	DefaultTimeoutsWrite    = 30 * time.Second
	DefaultTimeoutsRead     = 15 * time.Second
	DefaultTimeoutsIdle     = time.Minute
	DefaultTimeoutsShutdown = 5 * time.Second
	DefaultRecentLimit      = 10

	DefaultRateLimitRate    = "10/s"
	DefaultRateLimitBurst   = 20
	DefaultRateLimitMaxKeys = 10000
)

var availableRateLimitAlgs = []string{ratelimit.AlgLeakyBucket, ratelimit.AlgSlidingWindow, ratelimit.AlgTokenBucket}

// Config represents a set of configuration parameters for the admin HTTP server.
type Config struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`

	// RecentLimit is used by GET /cache/recent when the n query parameter is omitted.
	RecentLimit int `mapstructure:"recentLimit" yaml:"recentLimit" json:"recentLimit"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	// Profiling exposes net/http/pprof handlers under /debug.
	Profiling bool `mapstructure:"profiling" yaml:"profiling" json:"profiling"`

	keyPrefix string
}

// RateLimitConfig configures per-client rate limiting of the admin API.
// Clients are identified by the remote IP address.
type RateLimitConfig struct {
	Enabled bool           `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Alg     string         `mapstructure:"alg" yaml:"alg" json:"alg"`
	Rate    ratelimit.Rate `mapstructure:"rate" yaml:"rate" json:"rate"`
	Burst   int            `mapstructure:"burst" yaml:"burst" json:"burst"`
	MaxKeys int            `mapstructure:"maxKeys" yaml:"maxKeys" json:"maxKeys"`

	// ExcludedPaths are glob patterns (e.g. "/cache/entries/*") of request paths that are never limited.
	ExcludedPaths []string `mapstructure:"excludedPaths" yaml:"excludedPaths" json:"excludedPaths"`
}

// TimeoutsConfig represents a set of configuration parameters for server timeouts.
type TimeoutsConfig struct {
	Write    config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read     config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	Idle     config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
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

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix: cfgDefaultKeyPrefix,
		Address:   DefaultAddress,
		Timeouts: TimeoutsConfig{
			Write:    config.TimeDuration(DefaultTimeoutsWrite),
			Read:     config.TimeDuration(DefaultTimeoutsRead),
			Idle:     config.TimeDuration(DefaultTimeoutsIdle),
			Shutdown: config.TimeDuration(DefaultTimeoutsShutdown),
		},
		RecentLimit: DefaultRecentLimit,
		RateLimit: RateLimitConfig{
			Alg:     ratelimit.AlgLeakyBucket,
			Rate:    ratelimit.Rate{Count: 10, Duration: time.Second},
			Burst:   DefaultRateLimitBurst,
			MaxKeys: DefaultRateLimitMaxKeys,
		},
	}
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
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyTimeoutsWrite, DefaultTimeoutsWrite.String())
	dp.SetDefault(cfgKeyTimeoutsRead, DefaultTimeoutsRead.String())
	dp.SetDefault(cfgKeyTimeoutsIdle, DefaultTimeoutsIdle.String())
	dp.SetDefault(cfgKeyTimeoutsShutdown, DefaultTimeoutsShutdown.String())
	dp.SetDefault(cfgKeyRecentLimit, DefaultRecentLimit)
	dp.SetDefault(cfgKeyRateLimitAlg, ratelimit.AlgLeakyBucket)
	dp.SetDefault(cfgKeyRateLimitRate, DefaultRateLimitRate)
	dp.SetDefault(cfgKeyRateLimitBurst, DefaultRateLimitBurst)
	dp.SetDefault(cfgKeyRateLimitMaxKeys, DefaultRateLimitMaxKeys)
}

// Set sets admin server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}

	for _, t := range []struct {
		key string
		dst *config.TimeDuration
	}{
		{cfgKeyTimeoutsWrite, &c.Timeouts.Write},
		{cfgKeyTimeoutsRead, &c.Timeouts.Read},
		{cfgKeyTimeoutsIdle, &c.Timeouts.Idle},
		{cfgKeyTimeoutsShutdown, &c.Timeouts.Shutdown},
	} {
		var d time.Duration
		if d, err = dp.GetDuration(t.key); err != nil {
			return err
		}
		if d < 0 {
			return dp.WrapKeyErr(t.key, fmt.Errorf("cannot be negative"))
		}
		*t.dst = config.TimeDuration(d)
	}

	if c.RecentLimit, err = dp.GetInt(cfgKeyRecentLimit); err != nil {
		return err
	}
	if c.RecentLimit <= 0 {
		return dp.WrapKeyErr(cfgKeyRecentLimit, fmt.Errorf("must be positive"))
	}

	if c.Profiling, err = dp.GetBool(cfgKeyProfiling); err != nil {
		return err
	}

	return c.setRateLimitConfig(dp)
}

func (c *Config) setRateLimitConfig(dp config.DataProvider) error {
	var err error

	if c.RateLimit.Enabled, err = dp.GetBool(cfgKeyRateLimitEnabled); err != nil {
		return err
	}
	if c.RateLimit.Alg, err = dp.GetStringFromSet(cfgKeyRateLimitAlg, availableRateLimitAlgs, false); err != nil {
		return err
	}

	var rateStr string
	if rateStr, err = dp.GetString(cfgKeyRateLimitRate); err != nil {
		return err
	}
	if c.RateLimit.Rate, err = ratelimit.ParseRate(rateStr); err != nil {
		return dp.WrapKeyErr(cfgKeyRateLimitRate, err)
	}

	if c.RateLimit.Burst, err = dp.GetInt(cfgKeyRateLimitBurst); err != nil {
		return err
	}
	if c.RateLimit.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitBurst, fmt.Errorf("cannot be negative"))
	}

	if c.RateLimit.MaxKeys, err = dp.GetInt(cfgKeyRateLimitMaxKeys); err != nil {
		return err
	}
	if c.RateLimit.MaxKeys <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitMaxKeys, fmt.Errorf("must be positive"))
	}

	if c.RateLimit.ExcludedPaths, err = dp.GetStringSlice(cfgKeyRateLimitExclude); err != nil {
		return err
	}

	return nil
}
