// Package store persists cooperatives. Both implementations enforce name and
// email uniqueness at write time and report violations as
// *sentinel.UniqueViolation.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"coopreg/internal/cooperative/models"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded cooperative store.
type InMemory struct {
	mu           sync.RWMutex
	cooperatives map[id.CooperativeID]*models.Cooperative
}

func NewInMemory() *InMemory {
	return &InMemory{cooperatives: make(map[id.CooperativeID]*models.Cooperative)}
}

func (s *InMemory) Create(_ context.Context, c *models.Cooperative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUniqueLocked(c); err != nil {
		return err
	}
	cp := *c
	s.cooperatives[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, cooperativeID id.CooperativeID) (*models.Cooperative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cooperatives[cooperativeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Cooperative, error) {
	return s.filter(func(*models.Cooperative) bool { return true }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.Cooperative, error) {
	return s.filter(func(c *models.Cooperative) bool { return c.Status == status }), nil
}

// Execute runs validate then mutate on a copy under the write lock and
// stores the result only if it keeps name and email unique.
func (s *InMemory) Execute(_ context.Context, cooperativeID id.CooperativeID, validate func(*models.Cooperative) error, mutate func(*models.Cooperative)) (*models.Cooperative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cooperatives[cooperativeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := *current
	if err := validate(&next); err != nil {
		return nil, err
	}
	mutate(&next)
	if err := s.checkUniqueLocked(&next); err != nil {
		return nil, err
	}
	s.cooperatives[cooperativeID] = &next
	out := next
	return &out, nil
}

// Delete runs beforeDelete against the current record while holding the
// store lock; an error from it leaves the record in place.
func (s *InMemory) Delete(_ context.Context, cooperativeID id.CooperativeID, beforeDelete func(*models.Cooperative) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cooperatives[cooperativeID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if beforeDelete != nil {
		cp := *c
		if err := beforeDelete(&cp); err != nil {
			return err
		}
	}
	delete(s.cooperatives, cooperativeID)
	return nil
}

func (s *InMemory) checkUniqueLocked(c *models.Cooperative) error {
	name := strings.ToLower(c.Name)
	email := strings.ToLower(c.Email)
	for otherID, other := range s.cooperatives {
		if otherID == c.ID {
			continue
		}
		if strings.ToLower(other.Name) == name {
			return sentinel.AlreadyUsed("name")
		}
		if email != "" && strings.ToLower(other.Email) == email {
			return sentinel.AlreadyUsed("email")
		}
	}
	return nil
}

func (s *InMemory) filter(keep func(*models.Cooperative) bool) []*models.Cooperative {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Cooperative, 0, len(s.cooperatives))
	for _, c := range s.cooperatives {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return out
}

func sortByName(list []*models.Cooperative) {
	sort.Slice(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
