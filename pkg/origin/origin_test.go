package origin

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	p, invalid := NewPolicy([]string{" https://Chat.Example.com ", "", "not a url", "http://localhost:5173/app"})

	require.Equal(t, []string{"not a url"}, invalid)
	assert.False(t, p.AllowAll())
	assert.True(t, p.Allowed("https://chat.example.com"))
	assert.True(t, p.Allowed("HTTP://LOCALHOST:5173"))
	assert.False(t, p.Allowed("https://evil.example.com"))
	assert.False(t, p.Allowed("garbage"))
}

func TestNewPolicy_Wildcard(t *testing.T) {
	p, invalid := NewPolicy([]string{"*"})

	require.Empty(t, invalid)
	assert.True(t, p.AllowAll())
	assert.True(t, p.Allowed("https://anything.example"))
}

func TestCheckRequest(t *testing.T) {
	p, _ := NewPolicy([]string{"https://chat.example.com"})

	r := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, p.CheckRequest(r), "no Origin header")

	r.Header.Set("Origin", "https://chat.example.com")
	assert.True(t, p.CheckRequest(r))

	r.Header.Set("Origin", "https://other.example.com")
	assert.False(t, p.CheckRequest(r))
}
