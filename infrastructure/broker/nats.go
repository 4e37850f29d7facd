package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"roomchat/internal/entity"
)

// Connect dials NATS with reconnects enabled for the lifetime of the process.
func Connect(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info().Msg("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// EventTap publishes every outbound hub event on <subject>.<event>.
type EventTap struct {
	conn    publisher
	subject string
}

func NewEventTap(nc *nats.Conn, subject string) *EventTap {
	return &EventTap{conn: nc, subject: subject}
}

func (t *EventTap) SubjectFor(event string) string {
	return t.subject + "." + event
}

func (t *EventTap) Publish(ctx context.Context, evt entity.OutboundEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Event, err)
	}
	if err := t.conn.Publish(t.SubjectFor(evt.Event), payload); err != nil {
		return fmt.Errorf("publish %s: %w", t.SubjectFor(evt.Event), err)
	}
	return nil
}
