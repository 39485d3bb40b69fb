package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingStore struct {
	events []Event
	err    error
}

func (r *recordingStore) Append(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	failing := &recordingStore{err: errors.New("broker down")}
	healthy := &recordingStore{}

	err := Fanout{failing, nil, healthy}.Append(context.Background(), Event{Action: "member_created"})

	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}
