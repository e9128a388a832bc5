// Package counter persists how many times each source video has been
// processed. The count seeds start-point variation, so repeated runs on the
// same source select different windows.
package counter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Store maps a source identity to its processing count. Each operation is
// atomic, but the count is read at the start of a run and incremented only
// after a successful one, so concurrent runs on the same source may observe
// the same count and plan identical windows. The deliberate upside is that
// a failed run replans identically on retry.
type Store interface {
	Get(key string) (int, error)
	Increment(key string) (int, error)
}

// Key identifies a source video by basename and byte size, so re-uploads
// of the same file share a count while renamed or re-encoded files do not.
func Key(path string, byteSize int64) string {
	return fmt.Sprintf("%s_%d", filepath.Base(path), byteSize)
}

// FileStore keeps counters in a JSON file. A sibling flock file makes the
// read-increment-persist cycle a single-writer transaction across
// processes.
type FileStore struct {
	path string
	lock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

func (s *FileStore) Get(key string) (int, error) {
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock counter store: %w", err)
	}
	defer s.lock.Unlock()

	counters, err := s.read()
	if err != nil {
		return 0, err
	}
	return counters[key], nil
}

func (s *FileStore) Increment(key string) (int, error) {
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock counter store: %w", err)
	}
	defer s.lock.Unlock()

	counters, err := s.read()
	if err != nil {
		return 0, err
	}
	counters[key]++
	if err := s.write(counters); err != nil {
		return 0, err
	}
	return counters[key], nil
}

func (s *FileStore) read() (map[string]int, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read counter store: %w", err)
	}
	counters := map[string]int{}
	if err := json.Unmarshal(b, &counters); err != nil {
		return nil, fmt.Errorf("decode counter store: %w", err)
	}
	return counters, nil
}

func (s *FileStore) write(counters map[string]int) error {
	b, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return fmt.Errorf("encode counter store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write counter store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace counter store: %w", err)
	}
	return nil
}
