package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// PresenceReader is the hub surface the HTTP layer reads from.
type PresenceReader interface {
	Online(ctx context.Context) ([]string, error)
	ConnectionCount() int
}

type ClusterPresence interface {
	ClusterOnline(ctx context.Context) ([]string, error)
}

type HttpHandler struct {
	presence PresenceReader
	cluster  ClusterPresence
	log      zerolog.Logger
}

// NewHttpHandler builds the presence handlers. cluster may be nil when no
// Redis mirror is configured.
func NewHttpHandler(presence PresenceReader, cluster ClusterPresence, log zerolog.Logger) *HttpHandler {
	return &HttpHandler{
		presence: presence,
		cluster:  cluster,
		log:      log,
	}
}

func writeJSON(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// Method Get /
func (h *HttpHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Message: "ok",
		Data: map[string]any{
			"status":      "ok",
			"connections": h.presence.ConnectionCount(),
		},
	})
}

// Method Get /online
func (h *HttpHandler) Online(w http.ResponseWriter, r *http.Request) {
	users, err := h.presence.Online(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("read presence")
		writeJSON(w, http.StatusServiceUnavailable, Response{Message: "presence unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "success", Data: users})
}

// Method Get /online/cluster
func (h *HttpHandler) ClusterOnline(w http.ResponseWriter, r *http.Request) {
	if h.cluster == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Message: "cluster presence disabled"})
		return
	}

	users, err := h.cluster.ClusterOnline(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("read cluster presence")
		writeJSON(w, http.StatusServiceUnavailable, Response{Message: "cluster presence unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "success", Data: users})
}
