package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/requestcontext"
)

const keyPrefix = "coopreg:blob:"

// RedisStore keeps each blob in a hash under coopreg:blob:<ref>.
type RedisStore struct {
	client  redis.Cmdable
	baseURL string
}

func NewRedis(client redis.Cmdable, baseURL string) *RedisStore {
	return &RedisStore{client: client, baseURL: baseURL}
}

func key(ref string) string {
	return keyPrefix + ref
}

func (s *RedisStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := uuid.NewString()
	err := s.client.HSet(ctx, key(ref),
		"content_type", contentType,
		"data", data,
		"created_at", requestcontext.Now(ctx).UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return ref, nil
}

func (s *RedisStore) Resolve(ctx context.Context, ref string) (string, error) {
	n, err := s.client.Exists(ctx, key(ref)).Result()
	if err != nil {
		return "", fmt.Errorf("check blob: %w", err)
	}
	if n == 0 {
		return "", sentinel.ErrNotFound
	}
	return publicURL(s.baseURL, ref), nil
}

func (s *RedisStore) Open(ctx context.Context, ref string) (*Blob, error) {
	fields, err := s.client.HGetAll(ctx, key(ref)).Result()
	if err != nil {
		return nil, fmt.Errorf("load blob: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	created, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return &Blob{
		Reference:   ref,
		ContentType: fields["content_type"],
		Data:        []byte(fields["data"]),
		CreatedAt:   created,
	}, nil
}

// Delete removes ref. Deleting a missing reference is not an error.
func (s *RedisStore) Delete(ctx context.Context, ref string) error {
	if err := s.client.Del(ctx, key(ref)).Err(); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
