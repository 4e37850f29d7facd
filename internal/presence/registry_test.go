package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	username, err := r.Register("c1", "  alice ")
	req.NoError(err)
	req.Equal("alice", username)

	got, ok := r.Lookup("c1")
	req.True(ok)
	req.Equal("alice", got)
	req.Equal(1, r.Len())
}

func TestRegistry_RegisterRejectsBlankUsername(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n"} {
		r := NewRegistry()
		_, err := r.Register("c1", name)
		require.ErrorIs(t, err, ErrInvalidJoin)

		_, ok := r.Lookup("c1")
		require.False(t, ok, "no session for %q", name)
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	_, err := r.Register("c1", "alice")
	req.NoError(err)
	_, err = r.Register("c1", "bob")
	req.NoError(err)

	got, _ := r.Lookup("c1")
	req.Equal("bob", got)
	req.Equal(1, r.Len())
}

func TestRegistry_Unregister(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	_, _ = r.Register("c1", "alice")

	username, ok := r.Unregister("c1")
	req.True(ok)
	req.Equal("alice", username)

	// Second removal is a no-op.
	username, ok = r.Unregister("c1")
	req.False(ok)
	req.Empty(username)
	req.Zero(r.Len())
}

func TestRegistry_LookupMissing(t *testing.T) {
	_, ok := NewRegistry().Lookup("nope")
	require.False(t, ok)
}
