package api

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/mims/pkg/mims"
)

type fileRecord struct {
	ID       string
	Name     string
	File     *mims.File
	OpenedAt time.Time
	SizeErr  error
}

// FileStore keeps files opened through the API until they are deleted.
type FileStore struct {
	mu    sync.Mutex
	files map[string]*fileRecord
}

func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]*fileRecord),
	}
}

// Add stores f and records the result of its size check in SizeErr, so
// compressed streams are not decompressed again on later requests.
func (s *FileStore) Add(name string, f *mims.File, now time.Time) *fileRecord {
	rec := &fileRecord{
		ID:       newFileID(),
		Name:     name,
		File:     f,
		OpenedAt: now,
		SizeErr:  f.Check(),
	}
	s.mu.Lock()
	s.files[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

func (s *FileStore) Get(id string) (*fileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.files[id]
	return rec, ok
}

// List returns records oldest first.
func (s *FileStore) List() []*fileRecord {
	s.mu.Lock()
	out := make([]*fileRecord, 0, len(s.files))
	for _, rec := range s.files {
		out = append(out, rec)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b *fileRecord) int {
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Delete removes and closes the file. In-flight reads on the record may fail
// after this returns.
func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	rec, ok := s.files[id]
	delete(s.files, id)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, rec.File.Close()
}

// Close closes every stored file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	files := s.files
	s.files = make(map[string]*fileRecord)
	s.mu.Unlock()

	var errs []error
	for _, rec := range files {
		errs = append(errs, rec.File.Close())
	}
	return errors.Join(errs...)
}

func newFileID() string {
	return "file_" + uuid.NewString()
}
