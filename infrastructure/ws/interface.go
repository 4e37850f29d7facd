package ws

import (
	"context"

	"roomchat/internal/entity"
)

// Conn is the hub's view of one live transport connection.
type Conn interface {
	ID() string
	// Send enqueues an encoded frame without blocking. It returns false when
	// the connection is closed or its queue is full.
	Send(frame []byte) bool
	// Close is idempotent.
	Close()
}

type IHub interface {
	Run(ctx context.Context)
	Connect(conn Conn)
	Join(connID, username string)
	RejectJoin(connID string)
	Message(connID, text string)
	Disconnect(connID string)
	Online(ctx context.Context) ([]string, error)
	ConnectionCount() int
}

// Tap receives every outbound event after it has been delivered locally.
type Tap interface {
	Publish(ctx context.Context, evt entity.OutboundEvent) error
}
