package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileSource reads a JSON report document from disk. Path "-" reads Stdin.
type FileSource struct {
	Path   string
	Fields Fields
	Stdin  io.Reader
}

// Load decodes the whole document. A missing file is an *InputError
// wrapping ErrInputMissing.
func (s *FileSource) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return nil, &InputError{Reason: "no file path", Err: ErrInputMissing}
	}

	if s.Path == "-" {
		in := s.Stdin
		if in == nil {
			in = os.Stdin
		}
		return s.decode(in, "stdin")
	}

	f, err := os.Open(s.Path) // #nosec G304 -- path is the operator's own report file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &InputError{Source: s.Path, Reason: "file not found", Err: ErrInputMissing}
		}
		return nil, fmt.Errorf("open actions file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.decode(f, s.Path)
}

func (s *FileSource) decode(r io.Reader, name string) ([]Record, error) {
	records, err := DecodeFields(r, s.Fields)
	if err != nil {
		var inErr *InputError
		if errors.As(err, &inErr) && inErr.Source == "" {
			inErr.Source = name
		}
		return nil, err
	}
	return records, nil
}
