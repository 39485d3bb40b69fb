// Package store persists registrations with case-insensitive email
// uniqueness.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"coopreg/internal/registration/models"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
)

type InMemory struct {
	mu            sync.RWMutex
	registrations map[id.RegistrationID]*models.Registration
}

func NewInMemory() *InMemory {
	return &InMemory{registrations: make(map[id.RegistrationID]*models.Registration)}
}

// Create inserts r. The email check and the insert share one lock, so two
// concurrent submissions with the same email cannot both land.
func (s *InMemory) Create(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEmailLocked(r); err != nil {
		return err
	}
	cp := *r
	s.registrations[r.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registration, 0, len(s.registrations))
	for _, r := range s.registrations {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, registrationID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.registrations[registrationID]
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
	s.registrations[registrationID] = &next
	out := next
	return &out, nil
}

// Delete runs beforeDelete against the current record while holding the
// store lock; an error from it leaves the record in place.
func (s *InMemory) Delete(_ context.Context, registrationID id.RegistrationID, beforeDelete func(*models.Registration) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[registrationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if beforeDelete != nil {
		cp := *r
		if err := beforeDelete(&cp); err != nil {
			return err
		}
	}
	delete(s.registrations, registrationID)
	return nil
}

func (s *InMemory) checkEmailLocked(r *models.Registration) error {
	email := strings.ToLower(r.Email)
	for otherID, other := range s.registrations {
		if otherID != r.ID && strings.ToLower(other.Email) == email {
			return sentinel.AlreadyUsed("email")
		}
	}
	return nil
}
