// Package helpers holds the flag wiring and report plumbing shared by the
// grader commands.
package helpers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/internal/compare"
	"github.com/zinc-sig/grader/internal/compiler"
	settings "github.com/zinc-sig/grader/internal/config"
	"github.com/zinc-sig/grader/internal/fixture"
	"github.com/zinc-sig/grader/internal/layers"
)

// ParseDeadline accepts whole seconds ("2") or a Go duration ("1500ms").
func ParseDeadline(s string) (time.Duration, error) {
	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("deadline %s seconds is too large", s)
		}
		d = time.Duration(n) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid deadline %q: want whole seconds or a duration such as 500ms", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("deadline must be positive, got %s", s)
	}
	return d, nil
}

// NewStage builds the compiler stage described by s.
func NewStage(s settings.Settings) (*compiler.Stage, error) {
	return compiler.New(compiler.Config{
		Command:          s.Compiler.Command,
		DiagnosticSuffix: s.Compiler.DiagnosticSuffix,
		Parser: compiler.MarkerParser{
			WarningMarker: s.Compiler.WarningMarker,
			ErrorMarker:   s.Compiler.ErrorMarker,
		},
	})
}

func NewComparator(s settings.Settings) *compare.Comparator {
	return compare.New(s.Compare.ChunkSize)
}

func ArgLimits(s settings.Settings) fixture.Limits {
	return fixture.Limits{MaxBytes: s.Fixtures.MaxArgsBytes, MaxArgs: s.Fixtures.MaxArgs}
}

// BuildMetadata merges report metadata from GRADER_META*, --meta-file,
// --meta and --meta-kv.
func BuildMetadata(cfg *config.MetaFlags) (any, error) {
	meta, err := layers.Source{
		EnvPrefix: layers.MetaPrefix,
		File:      cfg.File,
		JSON:      cfg.JSON,
		KV:        cfg.KV,
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata: %w", err)
	}
	return meta, nil
}
