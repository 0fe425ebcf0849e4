package utils

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DecodeTOMLFile decodes path into v and returns the keys v had no field for.
func DecodeTOMLFile(path string, v any) ([]string, error) {
	meta, err := toml.DecodeFile(path, v)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}

// DecodeTOMLMap decodes path into untyped tables, for recovering the
// well-typed values of a file a struct decode rejected.
func DecodeTOMLMap(path string) (map[string]any, error) {
	tables := make(map[string]any)
	if _, err := toml.DecodeFile(path, &tables); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tables, nil
}

// ExtractSection returns the named table of decoded TOML data.
func ExtractSection(data map[string]any, name string) (map[string]any, bool) {
	section, ok := data[name].(map[string]any)
	return section, ok
}

// Extract returns data[key] when it holds a T.
func Extract[T any](data map[string]any, key string) (T, bool) {
	val, ok := data[key].(T)
	return val, ok
}

// ExtractInt returns an integer value; TOML integers decode as int64.
func ExtractInt(data map[string]any, key string) (int, bool) {
	val, ok := Extract[int64](data, key)
	return int(val), ok
}
