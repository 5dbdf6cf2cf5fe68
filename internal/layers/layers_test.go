package layers

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testPrefix = "GRADER_LAYERS_TEST"

func TestParseKV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue any
		wantErr   bool
	}{
		{name: "string", input: "student=alice", wantKey: "student", wantValue: "alice"},
		{name: "integer", input: "attempt=3", wantKey: "attempt", wantValue: 3},
		{name: "one is an integer, not a bool", input: "flag=1", wantKey: "flag", wantValue: 1},
		{name: "float", input: "weight=0.25", wantKey: "weight", wantValue: 0.25},
		{name: "bool", input: "late=false", wantKey: "late", wantValue: false},
		{name: "spaces trimmed", input: "  course = COMP 2012 ", wantKey: "course", wantValue: "COMP 2012"},
		{name: "value with equals", input: "expr=a=b", wantKey: "expr", wantValue: "a=b"},
		{name: "empty value", input: "note=", wantKey: "note", wantValue: ""},
		{name: "missing equals", input: "invalid", wantErr: true},
		{name: "empty key", input: "=value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := ParseKV(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if key != tt.wantKey || !reflect.DeepEqual(value, tt.wantValue) {
				t.Errorf("ParseKV() = (%q, %#v), want (%q, %#v)", key, value, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr bool
	}{
		{
			name: "json object",
			path: write("meta.json", `{"assignment": "lab1", "attempt": 2}`),
			want: map[string]any{"assignment": "lab1", "attempt": float64(2)},
		},
		{
			name: "json array",
			path: write("list.json", `["a", "b"]`),
			want: []any{"a", "b"},
		},
		{
			name: "toml table",
			path: write("upload.toml", "endpoint = \"localhost:9000\"\nsecure = false\nretries = 2\n"),
			want: map[string]any{"endpoint": "localhost:9000", "secure": false, "retries": int64(2)},
		},
		{
			name: "yaml mapping",
			path: write("meta.yaml", "course: COMP2012\nlab: 3\ntags: [a, b]\n"),
			want: map[string]any{"course": "COMP2012", "lab": 3, "tags": []any{"a", "b"}},
		},
		{
			name:    "invalid yaml",
			path:    write("bad.yml", "a: [unclosed\n"),
			wantErr: true,
		},
		{
			name:    "invalid json",
			path:    write("bad.json", `{oops}`),
			wantErr: true,
		},
		{
			name:    "invalid toml",
			path:    write("bad.toml", "= nope"),
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.json"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFile() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    map[string]any
	}{
		{
			name:    "nothing set",
			envVars: nil,
			want:    nil,
		},
		{
			name:    "json object",
			envVars: map[string]string{testPrefix: `{"bucket": "grades"}`},
			want:    map[string]any{"bucket": "grades"},
		},
		{
			name: "suffixed variables are lowercased and typed",
			envVars: map[string]string{
				testPrefix + "_ACCESS_KEY": "minio",
				testPrefix + "_SECURE":     "false",
				testPrefix + "_RETRIES":    "5",
			},
			want: map[string]any{"access_key": "minio", "secure": false, "retries": 5},
		},
		{
			name: "suffixed variables override the json object",
			envVars: map[string]string{
				testPrefix:             `{"bucket": "a", "region": "x"}`,
				testPrefix + "_BUCKET": "b",
			},
			want: map[string]any{"bucket": "b", "region": "x"},
		},
		{
			name: "invalid json ignored",
			envVars: map[string]string{
				testPrefix:            `{broken`,
				testPrefix + "_VALID": "yes",
			},
			want: map[string]any{"valid": "yes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			if got := ParseEnv(testPrefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEnv() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		layers []any
		want   any
	}{
		{name: "empty", layers: nil, want: nil},
		{name: "all nil", layers: []any{nil, nil}, want: nil},
		{
			name:   "later wins",
			layers: []any{map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2}},
			want:   map[string]any{"a": 1, "b": 2},
		},
		{
			name:   "non-object first is returned",
			layers: []any{[]any{1, 2}, map[string]any{"a": 1}},
			want:   []any{1, 2},
		},
		{
			name:   "non-object after an object is ignored",
			layers: []any{map[string]any{"a": 1}, "scalar"},
			want:   map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.layers...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSourceBuild(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(file, []byte(`{"file": "data", "override": "file"}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(testPrefix, `{"env": "value", "override": "env"}`)

	tests := []struct {
		name    string
		source  Source
		want    any
		wantErr bool
	}{
		{
			name:   "env only",
			source: Source{EnvPrefix: testPrefix},
			want:   map[string]any{"env": "value", "override": "env"},
		},
		{
			name:   "no env prefix ignores environment",
			source: Source{KV: []string{"a=1"}},
			want:   map[string]any{"a": 1},
		},
		{
			name: "precedence env < file < json < kv",
			source: Source{
				EnvPrefix: testPrefix,
				File:      file,
				JSON:      `{"json": "value", "override": "json"}`,
				KV:        []string{"kv=pair", "override=kv"},
			},
			want: map[string]any{
				"env":      "value",
				"file":     "data",
				"json":     "value",
				"kv":       "pair",
				"override": "kv",
			},
		},
		{
			name:   "json beats file",
			source: Source{File: file, JSON: `{"override": "json"}`},
			want:   map[string]any{"file": "data", "override": "json"},
		},
		{name: "invalid kv", source: Source{KV: []string{"oops"}}, wantErr: true},
		{name: "invalid json", source: Source{JSON: "{"}, wantErr: true},
		{name: "missing file", source: Source{File: filepath.Join(dir, "nope.json")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.source.Build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Build() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSourceBuildMap(t *testing.T) {
	m, err := Source{}.BuildMap()
	if err != nil || m == nil || len(m) != 0 {
		t.Errorf("BuildMap() on empty source = %v, %v; want empty map", m, err)
	}

	if _, err := (Source{JSON: `[1, 2]`}).BuildMap(); err == nil {
		t.Error("BuildMap() should reject non-object configuration")
	}
}

func TestAccessors(t *testing.T) {
	m := map[string]any{
		"name":    "grades",
		"secure":  "false",
		"flag":    true,
		"count":   3,
		"count64": int64(4),
		"countf":  float64(5),
	}

	if s, ok := String(m, "name"); !ok || s != "grades" {
		t.Errorf("String(name) = %q, %v", s, ok)
	}
	if _, ok := String(m, "count"); ok {
		t.Error("String(count) should not report a string")
	}
	if got := StringOr(m, "region", "us-east-1"); got != "us-east-1" {
		t.Errorf("StringOr() = %q", got)
	}
	if Bool(m, "secure", true) {
		t.Error(`Bool("false") should be false`)
	}
	if !Bool(m, "flag", false) || !Bool(m, "missing", true) {
		t.Error("Bool() mismatch")
	}
	for key, want := range map[string]int{"count": 3, "count64": 4, "countf": 5, "missing": 9} {
		if got := Int(m, key, 9); got != want {
			t.Errorf("Int(%s) = %d, want %d", key, got, want)
		}
	}
}
