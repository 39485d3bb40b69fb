package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/platform/validation"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory("https://files.example.org/")
	s.ctx = context.Background()
}

func (s *InMemorySuite) TestUploadResolveDelete() {
	ref, err := s.store.Upload(s.ctx, []byte("%PDF-1.7"), "application/pdf")
	s.Require().NoError(err)
	s.NoError(validation.ValidateReference("reference", ref), "minted references pass the kernel")

	url, err := s.store.Resolve(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal("https://files.example.org/blobs/"+ref, url)

	blob, err := s.store.Open(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal("application/pdf", blob.ContentType)

	s.Require().NoError(s.store.Delete(s.ctx, ref))
	_, err = s.store.Resolve(s.ctx, ref)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Delete(s.ctx, ref), "deleting twice is not an error")
}

func (s *InMemorySuite) TestOpenReturnsCopy() {
	ref, err := s.store.Upload(s.ctx, []byte("abc"), "image/png")
	s.Require().NoError(err)

	blob, err := s.store.Open(s.ctx, ref)
	s.Require().NoError(err)
	blob.ContentType = "text/html"

	again, err := s.store.Open(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal("image/png", again.ContentType)
}
