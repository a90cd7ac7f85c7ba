/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// DataType names the format of a configuration source.
type DataType string

const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataTypeFromPath picks the data type by the file extension (.yml, .yaml or .json).
func DataTypeFromPath(path string) (DataType, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		return DataTypeYAML, nil
	case ".json":
		return DataTypeJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q, should be one of .yml, .yaml, .json", ext)
	}
}

// DataProvider is the source of configuration values used by Config implementations.
// Values are looked up by dotted keys. Explicit overrides win over environment
// variables, which win over file/reader data, which wins over defaults.
type DataProvider interface {
	// Sources.
	UseEnvVars(prefix string)
	SetFromFile(path string, dataType DataType) error
	SetFromReader(reader io.Reader, dataType DataType) error
	Set(key string, value interface{})
	SetDefault(key string, value interface{})

	// Typed getters. Returned errors are already prefixed with the key.
	IsSet(key string) bool
	Get(key string) interface{}
	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetString(key string) (string, error)
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetStringSlice(key string) ([]string, error)
	GetDuration(key string) (time.Duration, error)
	GetByteSize(key string) (ByteSize, error)
	UnmarshalKey(key string, rawVal interface{}) error

	// WrapKeyErr prefixes err with the full key, so validation errors point to the exact parameter.
	WrapKeyErr(key string, err error) error
}

// WrapKeyErrIfNeeded is WrapKeyErr that passes nil through.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err != nil {
		return WrapKeyErr(key, err)
	}
	return nil
}

// WrapKeyErr returns err as "<key>: <err>".
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
