/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"strings"

	"github.com/acronis/go-cachekit/config"
)

const cfgDefaultKeyPrefix = "log"

const (
	cfgKeyLevel     = "level"
	cfgKeyFormat    = "format"
	cfgKeyOutput    = "output"
	cfgKeyNoColor   = "nocolor"
	cfgKeyAddCaller = "addCaller"

	cfgKeyFilePath               = "file.path"
	cfgKeyFileRotationCompress   = "file.rotation.compress"
	cfgKeyFileRotationMaxSize    = "file.rotation.maxSize"
	cfgKeyFileRotationMaxBackups = "file.rotation.maxBackups"
	cfgKeyFileRotationMaxAgeDays = "file.rotation.maxAgeDays"
)

// Rotation limits. A file is rotated when it grows beyond MaxSize, and at most MaxBackups old files are kept.
const (
	DefaultFileRotationMaxSizeBytes = 250 * 1024 * 1024
	MinFileRotationMaxSizeBytes     = 1024 * 1024
	DefaultFileRotationMaxBackups   = 10
	MinFileRotationMaxBackups       = 1
)

// Level is a logging level. Messages below the configured level are dropped.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

// Format is an encoding of log entries.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output is a destination of log entries.
type Output string

const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

var (
	knownLevels  = []Level{LevelError, LevelWarn, LevelInfo, LevelDebug}
	knownFormats = []Format{FormatJSON, FormatText}
	knownOutputs = []Output{OutputStdout, OutputStderr, OutputFile}
)

// Config is the logging configuration (log.* keys by default).
//
//	log:
//	  level: info        # error, warn, info, debug
//	  format: json       # json, text
//	  output: file       # stdout, stderr, file
//	  nocolor: false     # text format only
//	  addCaller: false
//	  file:
//	    path: /var/log/app-{{pid}}.log
//	    rotation: {maxSize: 250M, maxBackups: 10, maxAgeDays: 0, compress: false}
type Config struct {
	Level     Level            `mapstructure:"level" yaml:"level" json:"level"`
	Format    Format           `mapstructure:"format" yaml:"format" json:"format"`
	Output    Output           `mapstructure:"output" yaml:"output" json:"output"`
	NoColor   bool             `mapstructure:"nocolor" yaml:"nocolor" json:"nocolor"`
	AddCaller bool             `mapstructure:"addCaller" yaml:"addCaller" json:"addCaller"`
	File      FileOutputConfig `mapstructure:"file" yaml:"file" json:"file"`

	keyPrefix string
}

// FileOutputConfig configures the "file" output.
// Path may contain {{starttime}} and {{pid}} placeholders.
type FileOutputConfig struct {
	Path     string             `mapstructure:"path" yaml:"path" json:"path"`
	Rotation FileRotationConfig `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
}

// FileRotationConfig configures rotation of the log file. Zero MaxAgeDays keeps old files forever.
type FileRotationConfig struct {
	Compress   bool            `mapstructure:"compress" yaml:"compress" json:"compress"`
	MaxSize    config.ByteSize `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`
	MaxBackups int             `mapstructure:"maxBackups" yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int             `mapstructure:"maxAgeDays" yaml:"maxAgeDays" json:"maxAgeDays"`
}

var (
	_ config.Config            = (*Config)(nil)
	_ config.KeyPrefixProvider = (*Config)(nil)
)

// NewConfig returns an empty Config read from the "log" section.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix returns an empty Config read from the given section.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig returns a Config filled with the same values a load from empty data produces.
func NewDefaultConfig() *Config {
	cfg := NewConfig()
	cfg.Level = LevelInfo
	cfg.Format = FormatJSON
	cfg.Output = OutputStdout
	cfg.File.Rotation.MaxSize = DefaultFileRotationMaxSizeBytes
	cfg.File.Rotation.MaxBackups = DefaultFileRotationMaxBackups
	return cfg
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix != "" {
		return c.keyPrefix
	}
	return cfgDefaultKeyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	defaults := NewDefaultConfig()
	dp.SetDefault(cfgKeyLevel, string(defaults.Level))
	dp.SetDefault(cfgKeyFormat, string(defaults.Format))
	dp.SetDefault(cfgKeyOutput, string(defaults.Output))
	dp.SetDefault(cfgKeyFileRotationMaxSize, defaults.File.Rotation.MaxSize.String())
	dp.SetDefault(cfgKeyFileRotationMaxBackups, defaults.File.Rotation.MaxBackups)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.Level, err = getEnum(dp, cfgKeyLevel, knownLevels); err != nil {
		return err
	}
	if c.Format, err = getEnum(dp, cfgKeyFormat, knownFormats); err != nil {
		return err
	}
	if c.Output, err = getEnum(dp, cfgKeyOutput, knownOutputs); err != nil {
		return err
	}
	if c.NoColor, err = dp.GetBool(cfgKeyNoColor); err != nil {
		return err
	}
	if c.AddCaller, err = dp.GetBool(cfgKeyAddCaller); err != nil {
		return err
	}
	if c.File, err = readFileOutputConfig(dp, c.Output == OutputFile); err != nil {
		return err
	}
	return nil
}

// getEnum reads a case-insensitive value that must be one of known and returns it lowercased.
func getEnum[T ~string](dp config.DataProvider, key string, known []T) (T, error) {
	set := make([]string, len(known))
	for i := range known {
		set[i] = string(known[i])
	}
	val, err := dp.GetStringFromSet(key, set, true)
	if err != nil {
		return "", err
	}
	return T(strings.ToLower(val)), nil
}

func readFileOutputConfig(dp config.DataProvider, pathRequired bool) (FileOutputConfig, error) {
	var fc FileOutputConfig
	var err error

	if fc.Path, err = dp.GetString(cfgKeyFilePath); err != nil {
		return fc, err
	}
	if pathRequired && fc.Path == "" {
		return fc, dp.WrapKeyErr(cfgKeyFilePath, fmt.Errorf("cannot be empty when %q output is used", OutputFile))
	}

	rot := &fc.Rotation
	if rot.Compress, err = dp.GetBool(cfgKeyFileRotationCompress); err != nil {
		return fc, err
	}
	if rot.MaxSize, err = dp.GetByteSize(cfgKeyFileRotationMaxSize); err != nil {
		return fc, err
	}
	if rot.MaxBackups, err = dp.GetInt(cfgKeyFileRotationMaxBackups); err != nil {
		return fc, err
	}
	if rot.MaxAgeDays, err = dp.GetInt(cfgKeyFileRotationMaxAgeDays); err != nil {
		return fc, err
	}

	switch {
	case rot.MaxSize < MinFileRotationMaxSizeBytes:
		return fc, dp.WrapKeyErr(cfgKeyFileRotationMaxSize,
			fmt.Errorf("should be >= %s", config.ByteSize(MinFileRotationMaxSizeBytes)))
	case rot.MaxBackups < MinFileRotationMaxBackups:
		return fc, dp.WrapKeyErr(cfgKeyFileRotationMaxBackups, fmt.Errorf("should be >= %d", MinFileRotationMaxBackups))
	case rot.MaxAgeDays < 0:
		return fc, dp.WrapKeyErr(cfgKeyFileRotationMaxAgeDays, fmt.Errorf("should be >= 0"))
	}
	return fc, nil
}
