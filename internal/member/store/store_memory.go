// Package store persists members with case-insensitive email uniqueness.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"coopreg/internal/member/models"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.MemberID]*models.Member)}
}

func (s *InMemory) Create(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEmailLocked(m); err != nil {
		return err
	}
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// FindByEmail returns every member whose email matches case-insensitively.
func (s *InMemory) FindByEmail(_ context.Context, email string) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	var out []*models.Member
	for _, m := range s.members {
		if strings.ToLower(m.Email) == email {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		cp := *m
		out = append(out, &cp)
	}
	sortByName(out)
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := *current
	if err := validate(&next); err != nil {
		return nil, err
	}
	mutate(&next)
	if err := s.checkEmailLocked(&next); err != nil {
		return nil, err
	}
	s.members[memberID] = &next
	out := next
	return &out, nil
}

func (s *InMemory) Delete(_ context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[memberID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, memberID)
	return nil
}

func (s *InMemory) checkEmailLocked(m *models.Member) error {
	email := strings.ToLower(m.Email)
	for otherID, other := range s.members {
		if otherID != m.ID && strings.ToLower(other.Email) == email {
			return sentinel.AlreadyUsed("email")
		}
	}
	return nil
}

func sortByName(list []*models.Member) {
	sort.Slice(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
