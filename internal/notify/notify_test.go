package notify

import (
	"testing"
)

func TestSubscribeReceivesAllChanges(t *testing.T) {
	n := New()

	var got []Change
	sub := n.Subscribe(func(c Change) { got = append(got, c) })
	defer sub.Unsubscribe()

	n.NotifySet("db/host", nil, "localhost", "test")
	n.NotifyRemove("db/host", "localhost", "test")
	n.NotifyReload("file")

	if len(got) != 3 {
		t.Fatalf("received %d changes, want 3", len(got))
	}
	if got[0].Type != ChangeSet || got[0].NewValue != "localhost" {
		t.Errorf("first change = %+v, want set of localhost", got[0])
	}
	if got[1].Type != ChangeRemove || got[1].OldValue != "localhost" {
		t.Errorf("second change = %+v, want remove", got[1])
	}
	if got[2].Type != ChangeReload || got[2].Source != "file" {
		t.Errorf("third change = %+v, want reload from file", got[2])
	}
}

func TestSubscribePath(t *testing.T) {
	n := New()

	var dbChanges, uiChanges int
	n.SubscribePath("db", func(Change) { dbChanges++ })
	n.SubscribePath("ui/theme", func(Change) { uiChanges++ })

	n.NotifySet("db/host", nil, "x", "test")     // descendant of db
	n.NotifySet("db", nil, "y", "test")          // exact match
	n.NotifySet("ui/theme", nil, "dark", "test") // exact match
	n.NotifySet("ui/fontSize", nil, 12, "test")  // unrelated

	if dbChanges != 2 {
		t.Errorf("db observer called %d times, want 2", dbChanges)
	}
	if uiChanges != 1 {
		t.Errorf("ui/theme observer called %d times, want 1", uiChanges)
	}
}

func TestSubscribePathNoPrefixConfusion(t *testing.T) {
	n := New()

	var calls int
	n.SubscribePath("db", func(Change) { calls++ })

	// "database" shares a prefix with "db" but is a different key.
	n.NotifySet("database/host", nil, "x", "test")
	if calls != 0 {
		t.Errorf("observer for db called for database/host")
	}
}

func TestReloadNotifiesPathObservers(t *testing.T) {
	n := New()

	var calls int
	n.SubscribePath("db", func(Change) { calls++ })

	n.NotifyReload("file")
	if calls != 1 {
		t.Errorf("path observer called %d times on reload, want 1", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()

	var calls int
	sub := n.Subscribe(func(Change) { calls++ })

	n.NotifySet("a", nil, 1, "test")
	sub.Unsubscribe()
	n.NotifySet("a", 1, 2, "test")

	if calls != 1 {
		t.Errorf("observer called %d times after unsubscribe, want 1", calls)
	}

	// Unsubscribing a path observer prunes the empty path bucket.
	pathSub := n.SubscribePath("x", func(Change) {})
	pathSub.Unsubscribe()
	if len(n.pathObservers) != 0 {
		t.Errorf("path observer bucket not pruned: %v", n.pathObservers)
	}
}

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ct: ChangeSet, want: "set"},
		{ct: ChangeRemove, want: "remove"},
		{ct: ChangeReload, want: "reload"},
		{ct: ChangeType(99), want: "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestEmptyPathSetStaysGlobal(t *testing.T) {
	n := New()

	var pathCalls, globalCalls int
	n.SubscribePath("db", func(Change) { pathCalls++ })
	n.Subscribe(func(Change) { globalCalls++ })

	// A set or remove at the root is not a reload; subtree observers
	// whose values did not change must not fire.
	n.NotifySet("", nil, map[string]any{"ui": "dark"}, "test")
	n.NotifyRemove("", map[string]any{"ui": "dark"}, "test")

	if pathCalls != 0 {
		t.Errorf("path observer called %d times for root set/remove, want 0", pathCalls)
	}
	if globalCalls != 2 {
		t.Errorf("global observer called %d times, want 2", globalCalls)
	}
}
