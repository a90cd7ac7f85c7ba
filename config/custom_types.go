/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// TimeDuration is a time.Duration readable from config files and environment variables
// either as a Go duration string ("1h30m") or as a plain number of nanoseconds.
// It is always written back as a duration string.
type TimeDuration time.Duration

func (d TimeDuration) String() string { return time.Duration(d).String() }

func (d *TimeDuration) UnmarshalText(text []byte) error {
	return parseScalar(string(text), (*time.Duration)(d), time.ParseDuration)
}

func (d *TimeDuration) UnmarshalJSON(data []byte) error { return d.UnmarshalText(unquote(data)) }

func (d *TimeDuration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

func (d TimeDuration) MarshalJSON() ([]byte, error)        { return json.Marshal(d.String()) }
func (d TimeDuration) MarshalYAML() (interface{}, error) { return d.String(), nil }

// ByteSize is an amount of bytes readable either as a plain number or with a unit suffix.
// Units are powers of two, "250M" and "250Mi" are the same size.
type ByteSize uint64

func (b ByteSize) String() string { return bytefmt.ByteSize(uint64(b)) }

func (b *ByteSize) UnmarshalText(text []byte) error {
	return parseScalar(string(text), (*uint64)(b), parseBytes)
}

func (b *ByteSize) UnmarshalJSON(data []byte) error { return b.UnmarshalText(unquote(data)) }

func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	return b.UnmarshalText([]byte(node.Value))
}

func (b ByteSize) MarshalJSON() ([]byte, error)        { return json.Marshal(b.String()) }
func (b ByteSize) MarshalYAML() (interface{}, error) { return b.String(), nil }

func parseBytes(s string) (uint64, error) {
	return bytefmt.ToBytes(strings.TrimSuffix(s, "i"))
}

// parseScalar stores a non-negative integer from s into dst as is,
// otherwise it uses parseHuman for strings like "30s" or "10M".
func parseScalar[T int64 | uint64 | time.Duration](s string, dst *T, parseHuman func(string) (T, error)) error {
	s = strings.TrimSpace(s)
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		if num < 0 {
			return fmt.Errorf("negative value is not allowed: %d", num)
		}
		*dst = T(num)
		return nil
	}
	val, err := parseHuman(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", s, err)
	}
	*dst = val
	return nil
}

func unquote(data []byte) []byte {
	return []byte(strings.Trim(string(data), `"`))
}
