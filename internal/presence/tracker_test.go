package presence

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_SnapshotDeduplicates(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	tr := NewTracker(r)

	req.NotNil(tr.Snapshot())
	req.Empty(tr.Snapshot())

	_, _ = r.Register("c1", "bob")
	_, _ = r.Register("c2", "alice")
	_, _ = r.Register("c3", "alice")

	req.Equal([]string{"alice", "bob"}, tr.Snapshot())
	req.Equal(2, tr.Count())

	_, _ = r.Unregister("c2")
	req.Equal([]string{"alice", "bob"}, tr.Snapshot())

	_, _ = r.Unregister("c3")
	req.Equal([]string{"bob"}, tr.Snapshot())
}

func TestTracker_SnapshotMatchesJoinedSessions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{"alice", "bob", "carol", "dave"}

	r := NewRegistry()
	tr := NewTracker(r)
	model := map[string]string{}

	for i := 0; i < 2000; i++ {
		connID := fmt.Sprintf("c%d", rng.Intn(12))
		if rng.Intn(3) == 0 {
			_, _ = r.Unregister(connID)
			delete(model, connID)
		} else {
			name := names[rng.Intn(len(names))]
			_, err := r.Register(connID, name)
			require.NoError(t, err)
			model[connID] = name
		}

		want := map[string]struct{}{}
		for _, n := range model {
			want[n] = struct{}{}
		}
		expected := make([]string, 0, len(want))
		for n := range want {
			expected = append(expected, n)
		}
		sort.Strings(expected)

		require.Equal(t, expected, tr.Snapshot(), "step %d", i)
	}
}
