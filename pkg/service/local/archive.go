package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specbot/kickbot/pkg/perception"
)

// ErrNotEncodable is returned for images that cannot write themselves out.
var ErrNotEncodable = errors.New("image cannot be encoded")

// Encoder is an image that can serialize itself.
type Encoder interface {
	// Extension is the file extension including the dot.
	Extension() string
	Encode(w io.Writer) error
}

// DirArchiver saves screenshots into a directory.
type DirArchiver struct {
	dir string
}

// NewDirArchiver creates dir if needed.
func NewDirArchiver(dir string) (*DirArchiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory %s: %w", dir, err)
	}
	return &DirArchiver{dir: dir}, nil
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "-", " ", "_")

// Save writes img under a file name derived from name.
func (a *DirArchiver) Save(ctx context.Context, name string, img perception.Image) error {
	enc, ok := img.(Encoder)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotEncodable, img)
	}

	path := filepath.Join(a.dir, unsafeChars.Replace(name)+enc.Extension())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := enc.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
