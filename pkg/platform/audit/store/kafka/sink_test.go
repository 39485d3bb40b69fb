package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresBrokers(t *testing.T) {
	sink, err := New(nil, "coopreg.audit")
	assert.Nil(t, sink)
	assert.ErrorContains(t, err, "at least one broker")
}
