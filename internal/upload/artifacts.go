package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/zinc-sig/grader/internal/layers"
	"github.com/zinc-sig/grader/internal/logger"
)

// CompressedExt is appended to keys of zstd-compressed artifacts.
const CompressedExt = ".zst"

// Artifacts uploads the files of one grading run under "<run id>/".
type Artifacts struct {
	provider Provider
	runID    string
	compress bool
}

// NewArtifacts binds provider to a run. The "compress" key of config
// enables zstd compression.
func NewArtifacts(provider Provider, runID string, config map[string]any) *Artifacts {
	return &Artifacts{
		provider: provider,
		runID:    runID,
		compress: layers.Bool(config, "compress", false),
	}
}

// Key is the object key name is stored under.
func (a *Artifacts) Key(name string) string {
	key := path.Join(a.runID, name)
	if a.compress {
		key += CompressedExt
	}
	return key
}

// PutFile uploads the local file at localPath as name and returns its key.
func (a *Artifacts) PutFile(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()
	return a.Put(ctx, f, name)
}

// Put uploads r as name and returns its key.
func (a *Artifacts) Put(ctx context.Context, r io.Reader, name string) (string, error) {
	key := a.Key(name)
	var encoded *io.PipeReader
	if a.compress {
		encoded = compress(r)
		defer func() { _ = encoded.Close() }()
		r = encoded
	}

	if err := a.provider.Upload(ctx, r, key); err != nil {
		if encoded != nil {
			_ = encoded.CloseWithError(err)
		}
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	logger.Debug(ctx, "artifact uploaded",
		zap.String("provider", a.provider.Name()),
		zap.String("key", key))
	return key, nil
}

// compress returns a reader yielding the zstd encoding of src. The encoder
// goroutine exits once the reader is drained or closed.
func compress(src io.Reader) *io.PipeReader {
	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(enc, src); err != nil {
			_ = enc.Close()
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(enc.Close())
	}()
	return pr
}
