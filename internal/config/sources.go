package config

import (
	"os"
	"strings"
)

// Source yields a configuration value, or "" when it has none
type Source interface {
	Lookup(key string) string
}

// SourceFunc adapts a function to a Source
type SourceFunc func(key string) string

func (f SourceFunc) Lookup(key string) string { return f(key) }

// MapSource serves values from a map
type MapSource map[string]string

func (m MapSource) Lookup(key string) string { return m[key] }

// EnvSource reads PREFIX_KEY environment variables
type EnvSource struct {
	Prefix string
}

func (e EnvSource) Lookup(key string) string {
	name := key
	if e.Prefix != "" {
		name = e.Prefix + "_" + key
	}
	return os.Getenv(envName(name))
}

// Value is a fixed value, typically a command line flag
type Value string

func (v Value) Lookup(string) string { return string(v) }

// Resolve returns the value of key from the first source that has a
// non-empty one. Sources are consulted in order.
func Resolve(key string, sources ...Source) string {
	for _, s := range sources {
		if s == nil {
			continue
		}
		if v := s.Lookup(key); v != "" {
			return v
		}
	}
	return ""
}

func envName(s string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToUpper(s))
}
