package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage keeps uploaded documents in a single flat directory. Stored names
// are generated by the caller, so Path only needs to guard against separators
// sneaking into a name.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(strings.TrimSpace(name)))
}

// Save writes the reader's contents under the given name and returns the
// number of bytes written. A partial file is removed on error.
func (s *Storage) Save(name string, r io.Reader) (int64, error) {
	path := s.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

func (s *Storage) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
