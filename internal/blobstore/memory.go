package blobstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/requestcontext"
)

// InMemory keeps blobs in process memory.
type InMemory struct {
	mu      sync.RWMutex
	blobs   map[string]*Blob
	baseURL string
}

func NewInMemory(baseURL string) *InMemory {
	return &InMemory{blobs: make(map[string]*Blob), baseURL: baseURL}
}

func (s *InMemory) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = &Blob{
		Reference:   ref,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
		CreatedAt:   requestcontext.Now(ctx),
	}
	return ref, nil
}

func (s *InMemory) Resolve(_ context.Context, ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[ref]; !ok {
		return "", sentinel.ErrNotFound
	}
	return publicURL(s.baseURL, ref), nil
}

func (s *InMemory) Open(_ context.Context, ref string) (*Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// Delete removes ref. Deleting a missing reference is not an error.
func (s *InMemory) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)
	return nil
}
