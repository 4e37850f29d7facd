package entity

// Event names shared by the websocket protocol and the event taps.
const (
	EventJoin    = "join"
	EventMessage = "message"
	EventUsers   = "users"
	EventSystem  = "system"
)

// OutboundEvent is one frame broadcast by the hub to every connection.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChatMessage is the payload of an outbound "message" event. Ts is epoch milliseconds.
type ChatMessage struct {
	Username string `json:"username"`
	Msg      string `json:"msg"`
	Ts       int64  `json:"ts"`
}

func UsersEvent(users []string) OutboundEvent {
	return OutboundEvent{Event: EventUsers, Data: users}
}

func SystemEvent(text string) OutboundEvent {
	return OutboundEvent{Event: EventSystem, Data: text}
}

func MessageEvent(msg ChatMessage) OutboundEvent {
	return OutboundEvent{Event: EventMessage, Data: msg}
}
