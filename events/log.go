package events

import (
	"context"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/logging"
)

// LogPublisher writes one structured log line per event.
type LogPublisher struct {
	logger *logging.Logger
}

var _ generic.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithComponent("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, evts []generic.Event) error {
	for _, e := range evts {
		p.logger.InfoContext(ctx, "event",
			"type", e.Name(),
			"account", e.Subject(),
			"payload", e)
	}
	return nil
}
