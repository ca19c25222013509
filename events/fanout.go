package events

import (
	"context"
	"errors"

	"github.com/warp/hydration-engine/generic"
)

// Fanout publishes to every publisher, even if some fail.
type Fanout []generic.Publisher

var _ generic.Publisher = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, evts []generic.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
