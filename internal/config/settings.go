// Package config holds grader settings: built-in defaults, an optional TOML
// file, then GRADER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const EnvPrefix = "GRADER_"

// Settings is the full grader configuration.
type Settings struct {
	Compiler CompilerSettings `toml:"compiler"`
	Compare  CompareSettings  `toml:"compare"`
	Fixtures FixtureSettings  `toml:"fixtures"`
	Log      LogSettings      `toml:"log"`
}

type CompilerSettings struct {
	// Command is tokenized shell-style; {src} and {bin} are substituted per token.
	Command          string `toml:"command"`
	WarningMarker    string `toml:"warning_marker"`
	ErrorMarker      string `toml:"error_marker"`
	DiagnosticSuffix string `toml:"diagnostic_suffix"`
}

type CompareSettings struct {
	ChunkSize int `toml:"chunk_size"`
}

type FixtureSettings struct {
	MaxArgsBytes int64 `toml:"max_args_bytes"`
	MaxArgs      int   `toml:"max_args"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Compiler: CompilerSettings{
			Command:          "gcc -Wall {src} -o {bin}",
			WarningMarker:    "warning:",
			ErrorMarker:      "error:",
			DiagnosticSuffix: ".err",
		},
		Compare: CompareSettings{
			ChunkSize: 64,
		},
		Fixtures: FixtureSettings{
			MaxArgsBytes: 1 << 20,
			MaxArgs:      10000,
		},
		Log: LogSettings{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load builds settings from defaults, the TOML file at path (optional) and
// the environment. A .env file in the working directory is loaded first if
// one exists.
func Load(path string) (Settings, error) {
	s := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return s, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("COMPILER", &s.Compiler.Command)
	str("WARNING_MARKER", &s.Compiler.WarningMarker)
	str("ERROR_MARKER", &s.Compiler.ErrorMarker)
	str("DIAGNOSTIC_SUFFIX", &s.Compiler.DiagnosticSuffix)
	str("LOG_LEVEL", &s.Log.Level)
	str("LOG_FORMAT", &s.Log.Format)

	if v, ok := lookup(EnvPrefix + "CHUNK_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sCHUNK_SIZE: %w", EnvPrefix, err)
		}
		s.Compare.ChunkSize = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_ARGS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_ARGS: %w", EnvPrefix, err)
		}
		s.Fixtures.MaxArgs = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_ARGS_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_ARGS_BYTES: %w", EnvPrefix, err)
		}
		s.Fixtures.MaxArgsBytes = n
	}
	return nil
}

// Validate reports settings that would make grading impossible.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Compiler.Command) == "" {
		return fmt.Errorf("compiler command is required")
	}
	if !strings.Contains(s.Compiler.Command, "{src}") || !strings.Contains(s.Compiler.Command, "{bin}") {
		return fmt.Errorf("compiler command must reference {src} and {bin}")
	}
	if s.Compiler.WarningMarker == "" || s.Compiler.ErrorMarker == "" {
		return fmt.Errorf("diagnostic markers must not be empty")
	}
	if s.Compiler.DiagnosticSuffix == "" {
		return fmt.Errorf("diagnostic suffix must not be empty")
	}
	if s.Compare.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", s.Compare.ChunkSize)
	}
	if s.Fixtures.MaxArgs <= 0 || s.Fixtures.MaxArgsBytes <= 0 {
		return fmt.Errorf("argument fixture limits must be positive")
	}
	return nil
}
