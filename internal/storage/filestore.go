// Package storage keeps attachment bytes on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("file exceeds upload limit")

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Object describes a stored file.
type Object struct {
	Key  string
	Size int64
}

// FileStore writes objects under a root directory.
type FileStore struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// NewFileStore creates root if needed. maxBytes <= 0 disables the size limit.
func NewFileStore(root string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", root, err)
	}
	return &FileStore{root: root, maxBytes: maxBytes, now: time.Now}, nil
}

// Put streams r into a new object keyed <owner>/<unix-millis>-<filename>.
// The write goes to a temp file that is renamed into place once complete.
func (s *FileStore) Put(owner, fileName string, r io.Reader) (*Object, error) {
	key := s.objectKey(owner, fileName)
	fullPath := filepath.Join(s.root, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("write object: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		cleanup()
		return nil, ErrTooLarge
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename object: %w", err)
	}
	return &Object{Key: key, Size: size}, nil
}

// Open returns a reader for key. The caller closes it.
func (s *FileStore) Open(key string) (*os.File, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	return f, nil
}

// Delete removes key. A missing object is not an error.
func (s *FileStore) Delete(key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) resolve(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", ErrNotFound
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FileStore) objectKey(owner, fileName string) string {
	return fmt.Sprintf("%s/%d-%s", sanitize(owner), s.now().UnixMilli(), sanitize(filepath.Base(fileName)))
}

// sanitize keeps letters, digits, dot, dash and underscore.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
