package foodspot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps listings in process memory. It backs the service when no
// database is configured and gives tests a store with real locking.
type MemoryStore struct {
	mu       sync.Mutex
	listings map[string]Listing
	now      func() time.Time
}

func NewMemoryStore(seed ...Listing) *MemoryStore {
	s := &MemoryStore{
		listings: make(map[string]Listing, len(seed)),
		now:      time.Now,
	}
	for _, l := range seed {
		s.listings[l.ID] = l
	}
	return s
}

// WithClock overrides the creation timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Insert(_ context.Context, l Listing) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = uuid.NewString()
	l.CreatedAt = s.now().UTC()
	s.listings[l.ID] = l
	return l, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return Listing{}, ErrNotFound
	}
	return l, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, l Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(l)
}

func (s *MemoryStore) Mutate(_ context.Context, id string, fn func(*Listing) error) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return Listing{}, ErrNotFound
	}
	if err := fn(&l); err != nil {
		return Listing{}, err
	}
	if err := s.updateLocked(l); err != nil {
		return Listing{}, err
	}
	return l, nil
}

func (s *MemoryStore) FindByStatusCreatedBefore(_ context.Context, status Status, before time.Time) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Listing
	for _, l := range s.listings {
		if l.Status == status && l.CreatedAt.Before(before) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) BatchUpdate(_ context.Context, listings []Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range listings {
		if _, ok := s.listings[l.ID]; !ok {
			return ErrNotFound
		}
	}
	for _, l := range listings {
		current := s.listings[l.ID]
		current.Status = l.Status
		s.listings[l.ID] = current
	}
	return nil
}

// updateLocked keeps the stored creation time; it is never rewritten.
func (s *MemoryStore) updateLocked(l Listing) error {
	current, ok := s.listings[l.ID]
	if !ok {
		return ErrNotFound
	}
	l.CreatedAt = current.CreatedAt
	s.listings[l.ID] = l
	return nil
}
