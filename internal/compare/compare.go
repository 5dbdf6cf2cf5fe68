// Package compare scores a live output stream against a reference output by
// fixed-offset byte comparison.
//
// Both sources are consumed in lockstep chunks and only equal positions within
// each chunk pair are compared. There is no alignment: one inserted or missing
// byte shifts every later comparison.
package compare

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the number of bytes pulled from each side per iteration.
const DefaultChunkSize = 64

// Result is the outcome of one comparison.
type Result struct {
	Percent        int   // floor(100 * Matched / max(StreamBytes, ReferenceBytes)), in [0,100]
	Matched        int64 // equal bytes at equal chunk offsets
	StreamBytes    int64
	ReferenceBytes int64
}

// Comparator compares streams with a fixed chunk size.
type Comparator struct {
	chunkSize int
}

// New returns a Comparator. A non-positive chunkSize selects DefaultChunkSize.
func New(chunkSize int) *Comparator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Comparator{chunkSize: chunkSize}
}

// CompareFile opens the reference file at path and compares stream against it.
func (c *Comparator) CompareFile(stream io.Reader, path string) (Result, error) {
	ref, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open reference output %s: %w", path, err)
	}
	defer func() { _ = ref.Close() }()

	return c.Compare(stream, ref)
}

// Compare reads stream and reference until both are exhausted in the same
// iteration.
func (c *Comparator) Compare(stream, reference io.Reader) (Result, error) {
	streamBuf := make([]byte, c.chunkSize)
	refBuf := make([]byte, c.chunkSize)

	var res Result
	for {
		ns, err := fill(stream, streamBuf)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read program output: %w", err)
		}
		nr, err := fill(reference, refBuf)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read reference output: %w", err)
		}

		if ns == 0 && nr == 0 {
			break
		}

		res.StreamBytes += int64(ns)
		res.ReferenceBytes += int64(nr)

		for i := 0; i < min(ns, nr); i++ {
			if streamBuf[i] == refBuf[i] {
				res.Matched++
			}
		}
	}

	res.Percent = Percentage(res.Matched, res.StreamBytes, res.ReferenceBytes)
	return res, nil
}

// Percentage applies the scoring rule: 100 when both sides are empty,
// otherwise the truncated share of matched bytes over the longer side.
func Percentage(matched, streamBytes, referenceBytes int64) int {
	total := max(streamBytes, referenceBytes)
	if total == 0 {
		return 100
	}
	return int(matched * 100 / total)
}

// fill reads until buf is full or the source is exhausted. A short read at
// end of input is not an error.
func fill(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}
