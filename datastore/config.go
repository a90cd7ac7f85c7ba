/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package datastore

import (
	"context"
	"fmt"

	"github.com/acronis/go-cachekit/config"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/retry"
)

const cfgDefaultKeyPrefix = "store"

const (
	cfgKeyDriver = "driver"
	cfgKeyDSN    = "dsn"
	cfgKeySeed   = "seed"
	cfgKeyData   = "data"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultSQLiteDSN is used when the sqlite driver is configured without dsn.
const DefaultSQLiteDSN = "cachedemo.db"

// Config represents a set of configuration parameters for the backing store.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`

	// Seed fills the store with SampleData on open.
	Seed bool `mapstructure:"seed" yaml:"seed" json:"seed"`

	// Data holds extra records put into the store on open, after SampleData.
	// Keys are lowercased by the config loader.
	Data map[string]string `mapstructure:"data" yaml:"data" json:"data"`

	Retry *retry.Config `mapstructure:"retry" yaml:"retry" json:"retry"`

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
	return &Config{keyPrefix: keyPrefix, Retry: retry.NewConfig()}
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
	dp.SetDefault(cfgKeyDriver, DriverMemory)
	dp.SetDefault(cfgKeySeed, true)
	c.Retry.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, c.Retry.KeyPrefix()))
}

// Set sets store configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Driver, err = dp.GetStringFromSet(cfgKeyDriver, []string{DriverMemory, DriverSQLite}, false); err != nil {
		return err
	}
	if c.DSN, err = dp.GetString(cfgKeyDSN); err != nil {
		return err
	}
	if c.DSN == "" && c.Driver == DriverSQLite {
		c.DSN = DefaultSQLiteDSN
	}
	if c.Seed, err = dp.GetBool(cfgKeySeed); err != nil {
		return err
	}
	c.Data = nil
	if dp.IsSet(cfgKeyData) {
		if err = dp.UnmarshalKey(cfgKeyData, &c.Data); err != nil {
			return err
		}
	}
	return c.Retry.Set(config.NewKeyPrefixedDataProvider(dp, c.Retry.KeyPrefix()))
}

// Open creates the store described by cfg wrapped with retries.
// The returned close function releases the underlying resources.
func Open(ctx context.Context, cfg *Config, logger log.FieldLogger) (*RetryingStore, func() error, error) {
	var store Store
	closeFn := func() error { return nil }
	switch cfg.Driver {
	case DriverSQLite:
		sqlStore, err := OpenSQLStore(cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		if err = sqlStore.Seed(ctx, cfg.initialData()); err != nil {
			_ = sqlStore.Close()
			return nil, nil, err
		}
		store, closeFn = sqlStore, sqlStore.Close
	case DriverMemory, "":
		store = NewMemoryStore(cfg.initialData())
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	return NewRetryingStore(store, cfg.Retry.NewPolicy(), logger), closeFn, nil
}

func (c *Config) initialData() map[string]string {
	data := make(map[string]string, len(SampleData)+len(c.Data))
	if c.Seed {
		for k, v := range SampleData {
			data[k] = v
		}
	}
	for k, v := range c.Data {
		data[k] = v
	}
	return data
}
