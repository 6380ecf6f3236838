package grouping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Store persists the global group set.
type Store interface {
	Load(ctx context.Context) ([]Group, error)
	Save(ctx context.Context, groups []Group) error
	// Update runs fn under an exclusive lock held across read and write, so
	// concurrent workers never lose each other's group assignments.
	Update(ctx context.Context, fn func(groups []Group) ([]Group, error)) ([]Group, error)
}

const lockRetryDelay = 100 * time.Millisecond

// FileStore keeps groups in a JSON file guarded by a sibling lock file.
// Writes go through a temp file and rename so readers never observe a
// partial file.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore builds a store at path. The parent directory is created on
// first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *FileStore) Load(ctx context.Context) ([]Group, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, groups []Group) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return s.write(groups)
}

func (s *FileStore) Update(ctx context.Context, fn func(groups []Group) ([]Group, error)) ([]Group, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	groups, err := s.read()
	if err != nil {
		return nil, err
	}
	updated, err := fn(groups)
	if err != nil {
		return nil, err
	}
	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *FileStore) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create group directory: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire group lock: %w", err)
	}
	if !ok {
		return errors.New("group lock unavailable")
	}
	return nil
}

func (s *FileStore) release() {
	_ = s.lock.Unlock()
}

func (s *FileStore) read() ([]Group, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read groups %s: %w", s.path, err)
	}
	var groups []Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse groups %s: %w", s.path, err)
	}
	return groups, nil
}

func (s *FileStore) write(groups []Group) error {
	if groups == nil {
		groups = []Group{}
	}
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	return atomicWrite(s.path, data)
}

// atomicWrite replaces path contents via a temp file and rename.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
