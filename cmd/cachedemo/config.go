/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"github.com/acronis/go-cachekit/adminserver"
	"github.com/acronis/go-cachekit/config"
	"github.com/acronis/go-cachekit/datastore"
	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/lrucache"
)

const envVarsPrefix = "CACHEDEMO"

// AppConfig aggregates configurations of all application components.
type AppConfig struct {
	Log   *log.Config
	Cache *lrucache.Config
	Store *datastore.Config
	Admin *adminserver.Config
}

// NewAppConfig creates AppConfig with default key prefixes (log, cache, store, admin).
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:   log.NewConfig(),
		Cache: lrucache.NewConfig(),
		Store: datastore.NewConfig(),
		Admin: adminserver.NewConfig(),
	}
}

func (c *AppConfig) all() []config.Config {
	return []config.Config{c.Log, c.Cache, c.Store, c.Admin}
}

// loadAppConfig reads the configuration from the YAML or JSON file (if path is set) and CACHEDEMO_* environment variables.
func loadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	if path == "" {
		return cfg, loader.Load(cfg.all()...)
	}
	return cfg, loader.LoadFromPath(path, cfg.all()...)
}
