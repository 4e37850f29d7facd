package presence

import "sort"

// Tracker is a read-only view of the distinct usernames in a Registry.
type Tracker struct {
	registry *Registry
}

func NewTracker(registry *Registry) *Tracker {
	return &Tracker{registry: registry}
}

// Snapshot returns the distinct online usernames in ascending order.
func (t *Tracker) Snapshot() []string {
	seen := make(map[string]struct{}, len(t.registry.sessions))
	users := make([]string, 0, len(t.registry.sessions))
	for _, username := range t.registry.sessions {
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

func (t *Tracker) Count() int {
	return len(t.Snapshot())
}

