// Package artifact persists named pipeline outputs (synthetic CSV/JSON).
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no artifact has the given name.
var ErrNotFound = errors.New("artifact not found")

// Well-known artifact names written after training.
const (
	SyntheticCSV  = "synthetic_data.csv"
	SyntheticJSON = "synthetic_data.json"
)

// Store holds artifacts by name. Put overwrites.
type Store interface {
	Put(ctx context.Context, name string, content []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

func cleanName(name string) (string, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return "", fmt.Errorf("artifact name is required")
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("artifact name %q escapes the store", name)
		}
	}
	return name, nil
}
