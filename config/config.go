/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of cache applications from YAML/JSON files,
// readers and environment variables using viper under the hood.
//
// Each component describes its own section by implementing Config
// (and usually KeyPrefixProvider), and a Loader fills several components at once:
//
//	logCfg, cacheCfg := log.NewConfig(), lrucache.NewConfig()
//	err := config.NewDefaultLoader("CACHEDEMO").LoadFromPath("config.yml", logCfg, cacheCfg)
package config

// Config is implemented by every loadable configuration section.
// SetProviderDefaults must not fail. Set reads and validates values.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by sections living under a key (e.g. "cache").
// Their Config methods receive a provider scoped to that key.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

func dataProviderFor(dp DataProvider, cfg Config) DataProvider {
	kp, ok := cfg.(KeyPrefixProvider)
	if !ok || kp.KeyPrefix() == "" {
		return dp
	}
	return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
}
