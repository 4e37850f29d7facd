package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/entity"
	"roomchat/internal/presence"
)

var ErrHubStopped = errors.New("hub stopped")

type eventKind int

const (
	kindConnect eventKind = iota
	kindJoin
	kindRejectJoin
	kindMessage
	kindDisconnect
	kindOnline
)

type inbound struct {
	kind    eventKind
	conn    Conn
	connID  string
	payload string
	reply   chan []string
}

// Hub owns the registry and every attached connection. All state is touched
// only from the Run goroutine, so a mutation and the presence snapshot built
// for its broadcast can never interleave with another event.
type Hub struct {
	registry *presence.Registry
	tracker  *presence.Tracker
	conns    map[string]Conn
	overflow []string

	events chan inbound
	done   chan struct{}
	count  atomic.Int64

	taps []*tapForwarder
	now  func() time.Time
	log  zerolog.Logger
}

type Option func(*Hub)

func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// WithTap forwards outbound events to t through a queue of the given size.
// Events are dropped when the queue is full.
func WithTap(name string, t Tap, buffer int) Option {
	return func(h *Hub) {
		h.taps = append(h.taps, newTapForwarder(name, t, buffer))
	}
}

func NewHub(registry *presence.Registry, opts ...Option) *Hub {
	h := &Hub{
		registry: registry,
		tracker:  presence.NewTracker(registry),
		conns:    make(map[string]Conn),
		events:   make(chan inbound, 256),
		done:     make(chan struct{}),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, t := range h.taps {
		t.log = h.log.With().Str("tap", t.name).Logger()
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for _, t := range h.taps {
		go t.run(ctx)
	}
	h.log.Info().Int("taps", len(h.taps)).Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Connect(conn Conn) {
	h.submit(inbound{kind: kindConnect, conn: conn, connID: conn.ID()})
}

func (h *Hub) Join(connID, username string) {
	h.submit(inbound{kind: kindJoin, connID: connID, payload: username})
}

// RejectJoin handles a join whose identity could not be accepted. It is
// processed exactly like a join with an empty username.
func (h *Hub) RejectJoin(connID string) {
	h.submit(inbound{kind: kindRejectJoin, connID: connID})
}

func (h *Hub) Message(connID, text string) {
	h.submit(inbound{kind: kindMessage, connID: connID, payload: text})
}

func (h *Hub) Disconnect(connID string) {
	h.submit(inbound{kind: kindDisconnect, connID: connID})
}

// Online returns the local presence set. It is answered in order with the
// events submitted before it.
func (h *Hub) Online(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	select {
	case h.events <- inbound{kind: kindOnline, reply: reply}:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case users := <-reply:
		return users, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) ConnectionCount() int {
	return int(h.count.Load())
}

func (h *Hub) submit(ev inbound) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

func (h *Hub) handle(ev inbound) {
	switch ev.kind {
	case kindConnect:
		h.attach(ev.conn)
	case kindJoin:
		h.join(ev.connID, ev.payload)
	case kindRejectJoin:
		h.rejectJoin(ev.connID)
	case kindMessage:
		h.message(ev.connID, ev.payload)
	case kindDisconnect:
		h.disconnect(ev.connID)
	case kindOnline:
		ev.reply <- h.tracker.Snapshot()
	}
	h.drainOverflow()
}

func (h *Hub) attach(conn Conn) {
	id := conn.ID()
	if _, exists := h.conns[id]; exists {
		h.log.Warn().Str("conn", id).Msg("connection already attached")
		return
	}
	h.conns[id] = conn
	h.count.Store(int64(len(h.conns)))
	h.log.Debug().Str("conn", id).Int("connections", len(h.conns)).Msg("connection attached")
}

func (h *Hub) join(connID, raw string) {
	if _, ok := h.conns[connID]; !ok {
		h.log.Debug().Str("conn", connID).Msg("join from unattached connection ignored")
		return
	}

	// A re-join overwrites the session and is announced again.
	username, err := h.registry.Register(connID, raw)
	if err != nil {
		h.rejectJoin(connID)
		return
	}

	h.log.Info().Str("conn", connID).Str("user", username).Msg("joined")
	h.broadcast(entity.UsersEvent(h.tracker.Snapshot()))
	h.broadcast(entity.SystemEvent(username + " joined"))
}

func (h *Hub) rejectJoin(connID string) {
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	h.log.Info().Str("conn", connID).Err(presence.ErrInvalidJoin).Msg("closing connection")
	h.detach(connID)
	conn.Close()
}

func (h *Hub) message(connID, raw string) {
	if _, ok := h.conns[connID]; !ok {
		return
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}

	username, ok := h.registry.Lookup(connID)
	if !ok {
		username = presence.UnknownSender
	}

	h.broadcast(entity.MessageEvent(entity.ChatMessage{
		Username: username,
		Msg:      text,
		Ts:       h.now().UnixMilli(),
	}))
}

func (h *Hub) disconnect(connID string) {
	conn, ok := h.conns[connID]
	if !ok {
		// Sessions never outlive their attachment, so nothing to announce.
		h.registry.Unregister(connID)
		return
	}
	h.detach(connID)
	conn.Close()
}

// detach removes the connection and announces the departure if it had joined.
func (h *Hub) detach(connID string) {
	delete(h.conns, connID)
	h.count.Store(int64(len(h.conns)))

	username, hadSession := h.registry.Unregister(connID)
	if !hadSession {
		h.log.Debug().Str("conn", connID).Msg("connection detached")
		return
	}

	h.log.Info().Str("conn", connID).Str("user", username).Msg("left")
	h.broadcast(entity.UsersEvent(h.tracker.Snapshot()))
	h.broadcast(entity.SystemEvent(username + " left"))
}

func (h *Hub) broadcast(evt entity.OutboundEvent) {
	frame, err := json.Marshal(evt)
	if err != nil {
		h.log.Error().Err(err).Str("event", evt.Event).Msg("encode outbound event")
		return
	}

	for id, conn := range h.conns {
		if !conn.Send(frame) {
			h.overflow = append(h.overflow, id)
		}
	}

	for _, t := range h.taps {
		t.offer(evt)
	}
}

// drainOverflow disconnects connections whose queue rejected a frame. The
// resulting leave broadcasts may overflow further connections, so it loops.
func (h *Hub) drainOverflow() {
	for len(h.overflow) > 0 {
		id := h.overflow[0]
		h.overflow = h.overflow[1:]

		conn, ok := h.conns[id]
		if !ok {
			continue
		}
		h.log.Warn().Str("conn", id).Msg("send queue full, disconnecting")
		h.detach(id)
		conn.Close()
	}
}

func (h *Hub) shutdown() {
	for id, conn := range h.conns {
		conn.Close()
		delete(h.conns, id)
		h.registry.Unregister(id)
	}
	h.count.Store(0)
	h.log.Info().Msg("hub stopped")
}
