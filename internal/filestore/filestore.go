// Package filestore implements the write-once, read-many archive store
// (spec §4.3), keyed by (normalized package name, stripped version).
// Grounded on original_source/src/crate_file.rs's create_crate_file /
// get_crate_file, translating tokio::fs's OpenOptions exclusive-create
// semantics to os.OpenFile's O_EXCL.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom215/cargoindex/internal/registry"
)

// ErrAlreadyExists is returned by Create when the target (name, version)
// file already exists — the file store's only serialization point (spec
// §4.3: "Exclusive-create is how the file store enforces at-most-one
// successful publish per (name, version); no internal locking is
// required.").
var ErrAlreadyExists = errors.New("archive already exists")

// ErrNotFound is returned by Read when the target archive does not exist.
var ErrNotFound = errors.New("archive not found")

// Store is the archive file store rooted at a single directory.
type Store struct {
	root string
}

// New returns a Store rooted at root. The root is not created here; Create
// creates it, along with the per-package directory, on the first write.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(name registry.PackageName, version registry.Version) string {
	return filepath.Join(s.root, name.Normalized(), version.StrippedString())
}

// Create writes bytes to the archive file for (name, version), creating the
// parent directory idempotently first. It fails with ErrAlreadyExists if
// the file is already present — it never overwrites.
func (s *Store) Create(name registry.PackageName, version registry.Version, data []byte) error {
	dir := filepath.Join(s.root, name.Normalized())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating archive directory %s: %w", dir, err)
	}

	path := s.path(name, version)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("creating archive file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		// The O_EXCL create already succeeded, leaving a truncated file on
		// disk; remove it so a retried publish doesn't see a permanent,
		// spurious ErrAlreadyExists for a version that never actually wrote.
		_ = os.Remove(path)
		return fmt.Errorf("writing archive file %s: %w", path, err)
	}
	return nil
}

// Read returns the full contents of the archive file for (name, version),
// or ErrNotFound if it does not exist.
func (s *Store) Read(name registry.PackageName, version registry.Version) ([]byte, error) {
	path := s.path(name, version)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening archive file %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive file %s: %w", path, err)
	}
	return data, nil
}
