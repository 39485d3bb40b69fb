package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopreg/internal/platform/config"
)

func TestNewWithoutURLReturnsNil(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{URL: "not-a-redis-url"})
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "parse redis URL")
}
