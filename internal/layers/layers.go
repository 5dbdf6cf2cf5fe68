// Package layers assembles free-form key/value configuration (report
// metadata, upload and webhook settings) from several sources, later
// sources overriding earlier ones: environment < file < JSON < key=value.
package layers

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment prefixes of the layered sections.
const (
	MetaPrefix    = "GRADER_META"
	UploadPrefix  = "GRADER_UPLOAD"
	WebhookPrefix = "GRADER_WEBHOOK"
)

// Source lists where one section is read from. Empty fields are skipped.
type Source struct {
	EnvPrefix string
	File      string // decoded by extension: .toml, .yaml/.yml, else JSON
	JSON      string
	KV        []string
}

// ParseKV splits key=value and infers int, float and bool values; anything
// else stays a string. Integers win over bools so "1" is 1, not true.
func ParseKV(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", pair)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}
	return key, inferValue(strings.TrimSpace(raw)), nil
}

func inferValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}

// ParseJSON decodes any JSON value.
func ParseJSON(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// ParseFile decodes a JSON, TOML or YAML file, chosen by extension.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
		return m, nil
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
		return v, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return v, nil
}

// ParseEnv reads PREFIX (a JSON object) and PREFIX_<KEY> variables. Keys
// are lowercased; invalid JSON in PREFIX is ignored.
func ParseEnv(prefix string) map[string]any {
	out := make(map[string]any)

	if raw := os.Getenv(prefix); raw != "" {
		if v, err := ParseJSON(raw); err == nil {
			if m, ok := v.(map[string]any); ok {
				maps.Copy(out, m)
			}
		}
	}

	for _, env := range os.Environ() {
		name, value, _ := strings.Cut(env, "=")
		key, ok := strings.CutPrefix(name, prefix+"_")
		if !ok || key == "" {
			continue
		}
		out[strings.ToLower(key)] = inferValue(strings.TrimSpace(value))
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge shallow-merges objects left to right. A non-object layer is only
// returned as-is when nothing was merged before it.
func Merge(layers ...any) any {
	out := make(map[string]any)
	for _, layer := range layers {
		switch v := layer.(type) {
		case nil:
		case map[string]any:
			maps.Copy(out, v)
		default:
			if len(out) == 0 {
				return v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Build merges every configured source of s.
func (s Source) Build() (any, error) {
	var layers []any

	if s.EnvPrefix != "" {
		if env := ParseEnv(s.EnvPrefix); env != nil {
			layers = append(layers, env)
		}
	}

	if s.File != "" {
		v, err := ParseFile(s.File)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}

	if s.JSON != "" {
		v, err := ParseJSON(s.JSON)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}

	if len(s.KV) > 0 {
		kv := make(map[string]any, len(s.KV))
		for _, pair := range s.KV {
			k, v, err := ParseKV(pair)
			if err != nil {
				return nil, err
			}
			kv[k] = v
		}
		layers = append(layers, kv)
	}

	return Merge(layers...), nil
}

// BuildMap is Build for sections that must be objects. It never returns a
// nil map without an error.
func (s Source) BuildMap() (map[string]any, error) {
	v, err := s.Build()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return make(map[string]any), nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("configuration must be an object, got %T", v)
	}
	return m, nil
}

// String returns the string value of key, if present and a string.
func String(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// StringOr returns the string value of key or def.
func StringOr(m map[string]any, key, def string) string {
	if s, ok := String(m, key); ok {
		return s
	}
	return def
}

// Bool accepts bool values and strconv.ParseBool strings.
func Bool(m map[string]any, key string, def bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int accepts the numeric types produced by ParseKV, JSON and TOML.
func Int(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
