// Package origin normalizes configured origins and checks request Origin
// headers against them for CORS and websocket upgrades.
package origin

import (
	"net/http"
	"net/url"
	"strings"
)

type Policy struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewPolicy builds a policy from entries such as "https://chat.example.com".
// A "*" entry allows every origin. Invalid entries are returned so the
// caller can log them.
func NewPolicy(origins []string) (*Policy, []string) {
	p := &Policy{allowed: make(map[string]struct{})}
	var invalid []string

	for _, o := range origins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := Normalize(trimmed)
		if !ok {
			invalid = append(invalid, o)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p, invalid
}

// Normalize lowercases scheme and host and drops any path.
func Normalize(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (p *Policy) AllowAll() bool {
	return p.allowAll
}

func (p *Policy) Allowed(origin string) bool {
	if p.allowAll {
		return true
	}
	normalized, ok := Normalize(origin)
	if !ok {
		return false
	}
	_, exists := p.allowed[normalized]
	return exists
}

// CheckRequest reports whether r may proceed. Requests without an Origin
// header come from non-browser clients and are allowed.
func (p *Policy) CheckRequest(r *http.Request) bool {
	o := r.Header.Get("Origin")
	if o == "" {
		return true
	}
	return p.Allowed(o)
}
