// Package fixture loads grading fixtures supplied alongside a submission.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrArgsTooLarge  = errors.New("arguments fixture too large")
	ErrTooManyArgs   = errors.New("too many arguments in fixture")
	ErrMalformedArgs = errors.New("malformed arguments fixture")
)

// Limits bounds the size of an arguments fixture.
type Limits struct {
	MaxBytes int64
	MaxArgs  int
}

// LoadArgs reads the arguments fixture at path and splits it into argv
// tokens. Tokens are separated by spaces or newlines only; tabs and other
// whitespace stay inside a token.
func LoadArgs(path string, limits Limits) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open arguments fixture %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := io.Reader(f)
	if limits.MaxBytes > 0 {
		r = io.LimitReader(f, limits.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read arguments fixture %s: %w", path, err)
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrArgsTooLarge, path, limits.MaxBytes)
	}

	return SplitArgs(data, limits.MaxArgs)
}

// SplitArgs tokenizes raw fixture content. maxArgs <= 0 disables the count limit.
func SplitArgs(data []byte, maxArgs int) ([]string, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return nil, fmt.Errorf("%w: NUL byte at offset %d", ErrMalformedArgs, i)
	}

	tokens := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\n'
	})
	if maxArgs > 0 && len(tokens) > maxArgs {
		return nil, fmt.Errorf("%w: %d tokens, limit is %d", ErrTooManyArgs, len(tokens), maxArgs)
	}
	return tokens, nil
}
