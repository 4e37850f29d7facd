package websocket

import "encoding/json"

// IncomingFrame is one client frame. Data is decoded per event.
type IncomingFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Token string          `json:"token,omitempty"`
}

// text decodes Data as a JSON string. Non-string payloads report false.
func (f IncomingFrame) text() (string, bool) {
	if len(f.Data) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(f.Data, &s); err != nil {
		return "", false
	}
	return s, true
}
