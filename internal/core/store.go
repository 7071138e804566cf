package core

// store.go keeps parsed uploads between requests.
//
// Each uploaded file is parsed once and kept as a base table. Actions run
// against a clone of that table and their results are cached per action, so
// re-rendering the same choices does not repeat the pipeline. Entries idle
// longer than the TTL are removed by a janitor goroutine.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle upload is kept.
const DefaultSessionTTL = 30 * time.Minute

// maxCachedResults bounds the per-file result cache.
const maxCachedResults = 16

// StoredFile is a parsed upload and its cached action results.
type StoredFile struct {
	ID       string
	Name     string
	Format   Format
	Size     int
	Base     *Table
	Uploaded time.Time

	lastUsed time.Time
	last     Action
	results  map[string]FileResult
	order    []string
}

// FileInfo describes a stored file for listings.
type FileInfo struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Format   Format       `json:"format"`
	Size     int          `json:"size"`
	Rows     int          `json:"rows"`
	Columns  []ColumnInfo `json:"columns"`
	Uploaded time.Time    `json:"uploaded"`
}

func (f *StoredFile) Info() FileInfo {
	return FileInfo{
		ID:       f.ID,
		Name:     f.Name,
		Format:   f.Format,
		Size:     f.Size,
		Rows:     f.Base.NumRows(),
		Columns:  f.Base.ColumnInfos(),
		Uploaded: f.Uploaded,
	}
}

// Store is a TTL-bounded, mutex-protected map of uploads.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	files map[string]*StoredFile
}

// NewStore returns an empty store. ttl <= 0 means DefaultSessionTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		files: make(map[string]*StoredFile),
	}
}

// Put stores a parsed table and returns its id.
func (s *Store) Put(name string, format Format, size int, base *Table) *StoredFile {
	now := s.now()
	f := &StoredFile{
		ID:       uuid.NewString(),
		Name:     name,
		Format:   format,
		Size:     size,
		Base:     base,
		Uploaded: now,
		lastUsed: now,
		results:  make(map[string]FileResult),
	}

	s.mu.Lock()
	s.files[f.ID] = f
	s.mu.Unlock()
	return f
}

// Get returns the stored file and marks it used. Missing or expired ids
// return ErrFileNotFound.
func (s *Store) Get(id string) (*StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok || s.expired(f) {
		return nil, ErrFileNotFound
	}
	f.lastUsed = s.now()
	return f, nil
}

// Remove drops a file. Removing an unknown id returns ErrFileNotFound.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, id)
	return nil
}

// List returns every live file, oldest upload first.
func (s *Store) List() []FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FileInfo, 0, len(s.files))
	for _, f := range s.files {
		if !s.expired(f) {
			out = append(out, f.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Uploaded.Equal(out[j].Uploaded) {
			return out[i].ID < out[j].ID
		}
		return out[i].Uploaded.Before(out[j].Uploaded)
	})
	return out
}

// Len returns the number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Cached returns the result previously stored for act.
func (s *Store) Cached(id string, act Action) (FileResult, bool) {
	key := actionKey(act)

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return FileResult{}, false
	}
	res, ok := f.results[key]
	return res, ok
}

// Remember caches res as the outcome of act and records act as the file's
// latest choice. The oldest cached result is dropped once a file holds
// maxCachedResults.
func (s *Store) Remember(id string, act Action, res FileResult) {
	key := actionKey(act)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return
	}
	if _, exists := f.results[key]; !exists {
		f.order = append(f.order, key)
		if len(f.order) > maxCachedResults {
			delete(f.results, f.order[0])
			f.order = f.order[1:]
		}
	}
	f.results[key] = res
	f.last = act
}

// LastAction returns the most recently remembered action for id, or the
// zero Action when none ran yet.
func (s *Store) LastAction(id string) (Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok || s.expired(f) {
		return Action{}, ErrFileNotFound
	}
	return f.last, nil
}

// Sweep removes expired files and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, f := range s.files {
		if s.expired(f) {
			delete(s.files, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps every interval until ctx ends. It blocks; run it in
// its own goroutine.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	slog.Info("session janitor started", "ttl", s.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired uploads removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *Store) expired(f *StoredFile) bool {
	return s.now().Sub(f.lastUsed) > s.ttl
}

// actionKey identifies an action for caching. Columns nil and empty marshal
// differently, which keeps "all columns" and "no columns" apart.
func actionKey(act Action) string {
	act.Cleaning.Order = act.Cleaning.steps()
	b, err := json.Marshal(act)
	if err != nil {
		return ""
	}
	return string(b)
}
