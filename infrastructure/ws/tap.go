package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/entity"
)

const tapPublishTimeout = 5 * time.Second

// tapForwarder keeps tap I/O off the hub loop.
type tapForwarder struct {
	name  string
	tap   Tap
	queue chan entity.OutboundEvent
	log   zerolog.Logger
}

func newTapForwarder(name string, tap Tap, buffer int) *tapForwarder {
	if buffer <= 0 {
		buffer = 64
	}
	return &tapForwarder{
		name:  name,
		tap:   tap,
		queue: make(chan entity.OutboundEvent, buffer),
		log:   zerolog.Nop(),
	}
}

func (f *tapForwarder) offer(evt entity.OutboundEvent) {
	select {
	case f.queue <- evt:
	default:
		f.log.Warn().Str("event", evt.Event).Msg("tap queue full, event dropped")
	}
}

func (f *tapForwarder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-f.queue:
			pubCtx, cancel := context.WithTimeout(ctx, tapPublishTimeout)
			if err := f.tap.Publish(pubCtx, evt); err != nil {
				f.log.Error().Err(err).Str("event", evt.Event).Msg("tap publish")
			}
			cancel()
		}
	}
}
