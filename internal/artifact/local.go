package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where Local writes when no directory is configured.
const DefaultDir = "uploads"

// Local stores artifacts as files under a directory.
type Local struct {
	dir string
}

// NewLocal returns a store rooted at dir (DefaultDir when empty). The
// directory is created on first Put.
func NewLocal(dir string) *Local {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDir
	}
	return &Local{dir: dir}
}

// Dir returns the root directory.
func (s *Local) Dir() string {
	return s.dir
}

// Path returns the file path an artifact name maps to, whether or not it exists.
func (s *Local) Path(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

func (s *Local) Put(_ context.Context, name string, content []byte) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	// Write-then-rename so readers never observe a partial file.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

func (s *Local) Get(_ context.Context, name string) ([]byte, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return b, nil
}
