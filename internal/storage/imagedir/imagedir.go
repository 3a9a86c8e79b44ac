// Package imagedir manages a directory of reference-numbered preview PNGs.
package imagedir

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Dir is one managed image root. Files inside it are named {NNN}.png
// where NNN is a zero-padded shape reference.
type Dir struct {
	root string
}

// New ensures root exists, is a directory, and is writable.
func New(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("image root is required")
	}

	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("image root %s is not a directory", root)
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(root, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create image root: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat image root: %w", err)
	}

	probe := filepath.Join(root, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("image root %s is not writable: %w", root, err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}

	return &Dir{root: root}, nil
}

// Root returns the managed directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the file path for a shape reference.
func (d *Dir) Path(ref string) string {
	return filepath.Join(d.root, ref+".png")
}

// LastRef returns the highest numeric reference among existing PNG files,
// or 0 when none exist.
func (d *Dir) LastRef() (int, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan image root: %w", err)
	}
	max := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".png"))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// Clear removes every PNG file from the root. Other files are left alone.
func (d *Dir) Clear() error {
	matches, err := filepath.Glob(filepath.Join(d.root, "*.png"))
	if err != nil {
		return fmt.Errorf("glob image root: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("remove %s: %w", m, err)
		}
	}
	return nil
}
