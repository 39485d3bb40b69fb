package audit

import (
	"context"
	"errors"
)

// Fanout appends every event to each store in order and joins failures.
// A failing sink does not stop later sinks from receiving the event.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
