package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const maxRotatingBackups = 10

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("key must be a plain file name")

// FileStore keeps each key in <dir>/<key>.json.
//
// Writes go to a temp file that is synced and renamed over the target, after
// the previous value is copied to <file>.bak and to a rotating timestamped
// backup. Access from several processes is serialized with a lock file.
type FileStore struct {
	dir string
}

// NewFileStore returns a file slot rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file store dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, false, err
	}
	unlock, err := lockFor(path)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	unlock, err := lockFor(path)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.keepPrevious(key, path); err != nil {
		return err
	}
	return writeAtomic(path, value)
}

func (s *FileStore) Delete(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	unlock, err := lockFor(path)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Quarantine moves the current file for key to <key>.corrupt-<timestamp>.json
// and returns the new path. A missing file yields "" and no error.
func (s *FileStore) Quarantine(key string) (string, error) {
	path, err := s.Path(key)
	if err != nil {
		return "", err
	}
	unlock, err := lockFor(path)
	if err != nil {
		return "", err
	}
	defer unlock()

	target := filepath.Join(s.dir, fmt.Sprintf("%s.corrupt-%s.json", key, time.Now().UTC().Format("20060102-150405")))
	if err := os.Rename(path, target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("quarantine %s: %w", key, err)
	}
	return target, nil
}

// Backups returns the rotating backups for key, oldest first.
func (s *FileStore) Backups(key string) ([]string, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func lockFor(path string) (func(), error) {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", filepath.Base(path), err)
	}
	return func() { _ = fl.Unlock() }, nil
}

func writeAtomic(path string, value []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// keepPrevious copies the current value of key, if any, to <file>.bak and to
// a new rotating backup, then drops rotating backups beyond the limit.
func (s *FileStore) keepPrevious(key, path string) error {
	prev, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read previous %s: %w", key, err)
	}

	rotating := path + ".bak." + time.Now().UTC().Format("20060102-150405.000000000")
	for _, dst := range []string{path + ".bak", rotating} {
		if err := os.WriteFile(dst, prev, 0o644); err != nil {
			return fmt.Errorf("backup %s: %w", key, err)
		}
	}

	backups, err := s.Backups(key)
	if err != nil {
		return err
	}
	for len(backups) > maxRotatingBackups {
		if err := os.Remove(backups[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune backup: %w", err)
		}
		backups = backups[1:]
	}
	return nil
}
