// Package planstore holds the catalog of plan documents in memory for the
// process lifetime. The catalog is read from disk exactly once and never
// mutated afterwards, so reads need no locking.
package planstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store loads a fixed set of plan files and serves their contents.
type Store struct {
	dir   string
	files []string

	once  sync.Once
	plans map[string]string
	names []string
	err   error
}

// New creates a Store for the given directory and file list. Nothing is read
// until Load is called.
func New(dir string, files []string) *Store {
	return &Store{dir: dir, files: files}
}

// Load reads every configured file into memory. It runs the read exactly once
// per process; repeated calls return the cached outcome, including a cached
// failure. A single missing or unreadable file fails the whole load — the
// file set ships with the deployment, so a partial catalog means a broken
// deployment.
func (s *Store) Load() error {
	s.once.Do(func() {
		if len(s.files) == 0 {
			s.err = fmt.Errorf("planstore: no plan files configured")
			return
		}
		plans := make(map[string]string, len(s.files))
		names := make([]string, 0, len(s.files))
		for _, file := range s.files {
			name := strings.TrimSuffix(file, filepath.Ext(file))
			data, err := os.ReadFile(filepath.Join(s.dir, file))
			if err != nil {
				s.err = fmt.Errorf("planstore: load %q: %w", file, err)
				return
			}
			plans[name] = string(data)
			names = append(names, name)
		}
		s.plans = plans
		s.names = names
	})
	return s.err
}

// Names returns the plan names in catalog order. Empty until Load succeeds.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Text returns the full document text for a plan name.
func (s *Store) Text(name string) (string, bool) {
	text, ok := s.plans[name]
	return text, ok
}
