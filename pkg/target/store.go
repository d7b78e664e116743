package target

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps registered targets in memory, in registration order.
type Store struct {
	mu      sync.RWMutex
	targets []Target
	byURL   map[string]int
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{byURL: make(map[string]int), now: time.Now}
}

// Add records url and returns its target. Registering a URL again returns the target
// created the first time.
func (s *Store) Add(url string) Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byURL[url]; ok {
		return s.targets[i]
	}
	t := Target{ID: uuid.NewString(), URL: url, RegisteredAt: s.now()}
	s.byURL[url] = len(s.targets)
	s.targets = append(s.targets, t)
	return t
}

// List returns a copy of all targets.
func (s *Store) List() []Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Target, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.targets)
}
