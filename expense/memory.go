package expense

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Expense
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]*Expense), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := &Expense{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	in.apply(e)

	s.mu.Lock()
	s.items[e.ID] = e
	s.mu.Unlock()

	cp := *e
	return &cp, nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *e
	return &cp, nil
}

// List returns every expense, most recent date first.
func (s *MemoryStore) List(_ context.Context) ([]*Expense, error) {
	s.mu.RLock()
	out := make([]*Expense, 0, len(s.items))
	for _, e := range s.items {
		cp := *e
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return nil, notFound(id)
	}
	in.apply(e)
	e.UpdatedAt = s.now().UTC()

	cp := *e
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return notFound(id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Close() {}
