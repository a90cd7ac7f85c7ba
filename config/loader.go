/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import "io"

// Loader fills Config objects from a DataProvider.
// For every load, defaults of all objects are registered first, and only then
// the objects are set, so one object may rely on defaults registered by another.
type Loader struct {
	DataProvider DataProvider
}

// NewLoader returns a Loader over dp.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{DataProvider: dp}
}

// NewDefaultLoader returns a Loader over a viper-based provider that also reads
// environment variables named <envVarsPrefix>_<KEY> (dots replaced with underscores).
func NewDefaultLoader(envVarsPrefix string) *Loader {
	dp := NewViperAdapter()
	dp.UseEnvVars(envVarsPrefix)
	return NewLoader(dp)
}

// LoadFromPath is LoadFromFile with the data type taken from the file extension.
func (l *Loader) LoadFromPath(path string, cfgs ...Config) error {
	dataType, err := DataTypeFromPath(path)
	if err != nil {
		return err
	}
	return l.LoadFromFile(path, dataType, cfgs...)
}

// LoadFromFile reads the file into the provider and loads cfgs.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return err
	}
	return l.Load(cfgs...)
}

// LoadFromReader reads data from reader into the provider and loads cfgs.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.Load(cfgs...)
}

// Load sets cfgs from whatever the provider already holds.
// The first failing Set stops loading and its error is returned.
func (l *Loader) Load(cfgs ...Config) error {
	providers := make([]DataProvider, len(cfgs))
	for i, cfg := range cfgs {
		providers[i] = dataProviderFor(l.DataProvider, cfg)
		cfg.SetProviderDefaults(providers[i])
	}
	for i, cfg := range cfgs {
		if err := cfg.Set(providers[i]); err != nil {
			return err
		}
	}
	return nil
}
