package websocket

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomchat/infrastructure/ws"
	"roomchat/internal/entity"
	"roomchat/pkg/origin"
)

type TokenValidator interface {
	ValidateAccessToken(token string) (*entity.TokenClaims, error)
}

type Options struct {
	// RequireJoinToken makes a join valid only when its token was issued
	// for the username being joined.
	RequireJoinToken bool
	Origins          *origin.Policy
	Client           ws.ClientOptions
}

type WebsocketHandler struct {
	hub      ws.IHub
	tokens   TokenValidator
	opts     Options
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWebsocketHandler(hub ws.IHub, tokens TokenValidator, opts Options, log zerolog.Logger) *WebsocketHandler {
	h := &WebsocketHandler{
		hub:    hub,
		tokens: tokens,
		opts:   opts,
		log:    log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebsocketHandler) checkOrigin(r *http.Request) bool {
	if h.opts.Origins == nil || h.opts.Origins.CheckRequest(r) {
		return true
	}
	h.log.Warn().Str("origin", r.Header.Get("Origin")).Msg("blocked websocket from disallowed origin")
	return false
}

func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade failed")
		return
	}

	clientOpts := h.opts.Client
	clientOpts.Logger = h.log
	client := ws.NewClient(uuid.NewString(), h.hub, conn, clientOpts)
	h.hub.Connect(client)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.handleFrame(client.ID(), data)
	})
}

func (h *WebsocketHandler) handleFrame(connID string, data []byte) {
	var frame IncomingFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.log.Debug().Err(err).Str("conn", connID).Msg("undecodable frame")
		return
	}

	switch frame.Event {
	case entity.EventJoin:
		h.handleJoin(connID, frame)

	case entity.EventMessage:
		text, ok := frame.text()
		if !ok {
			h.log.Debug().Str("conn", connID).Msg("message without text payload")
			return
		}
		h.hub.Message(connID, text)

	default:
		h.log.Debug().Str("conn", connID).Str("event", frame.Event).Msg("unknown event")
	}
}

func (h *WebsocketHandler) handleJoin(connID string, frame IncomingFrame) {
	username, ok := frame.text()
	if !ok {
		h.hub.RejectJoin(connID)
		return
	}

	if h.opts.RequireJoinToken {
		claims, err := h.tokens.ValidateAccessToken(frame.Token)
		if err != nil || claims.Username != strings.TrimSpace(username) {
			h.log.Info().Str("conn", connID).Str("user", username).Msg("join token rejected")
			h.hub.RejectJoin(connID)
			return
		}
	}

	h.hub.Join(connID, username)
}
