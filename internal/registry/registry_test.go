package registry

import (
	"testing"

	"github.com/dshills/uritree/internal/store"
	"github.com/dshills/uritree/internal/tree"
)

func TestObtainReturnsSameInstance(t *testing.T) {
	r := New()
	defer r.Close()

	first, err := r.Obtain("app")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	second, err := r.Obtain("app")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}

	if first != second {
		t.Error("Obtain returned distinct instances for the same name")
	}

	if err := first.Set("db/host", "localhost"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if got := second.Get("db/host"); got != "localhost" {
		t.Errorf("Get through second handle = %v, want localhost", got)
	}
}

func TestFirstCallOptionsWin(t *testing.T) {
	r := New()
	defer r.Close()

	seed := tree.New()
	if err := seed.Set("app/name", "first"); err != nil {
		t.Fatalf("seed Set error = %v", err)
	}
	other := tree.New()
	if err := other.Set("app/name", "second"); err != nil {
		t.Fatalf("seed Set error = %v", err)
	}

	if _, err := r.Obtain("app", store.WithTree(seed)); err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	s, err := r.Obtain("app", store.WithTree(other))
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}

	if got := s.Get("app/name"); got != "first" {
		t.Errorf("Get(app/name) = %v, want first (later options must be ignored)", got)
	}
}

func TestNamesAreIndependent(t *testing.T) {
	r := New()
	defer r.Close()

	a, err := r.Obtain("a")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	b, err := r.Obtain("b")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}

	if a == b {
		t.Error("distinct names returned the same instance")
	}
	if err := a.Set("k", 1); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if b.Exists("k") {
		t.Error("value set in one store leaked into another")
	}
}

func TestLookup(t *testing.T) {
	r := New()
	defer r.Close()

	if _, ok := r.Lookup("app"); ok {
		t.Error("Lookup on empty registry reported a hit")
	}

	created, err := r.Obtain("app")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	found, ok := r.Lookup("app")
	if !ok || found != created {
		t.Errorf("Lookup = (%v, %v), want the obtained instance", found, ok)
	}
}

func TestEntriesSortedWithIDs(t *testing.T) {
	r := New()
	defer r.Close()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := r.Obtain(name); err != nil {
			t.Fatalf("Obtain(%s) error = %v", name, err)
		}
	}

	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries length = %d, want 3", len(entries))
	}
	want := []string{"alpha", "mid", "zeta"}
	seen := make(map[string]bool)
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Errorf("entries[%d].Name = %s, want %s", i, entry.Name, want[i])
		}
		if entry.ID == "" {
			t.Errorf("entries[%d].ID is empty", i)
		}
		if seen[entry.ID] {
			t.Errorf("duplicate entry ID %s", entry.ID)
		}
		seen[entry.ID] = true
	}
}

func TestReleaseAllowsRecreation(t *testing.T) {
	r := New()
	defer r.Close()

	first, err := r.Obtain("app")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	if err := first.Set("k", 1); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	if err := r.Release("app"); err != nil {
		t.Fatalf("Release error = %v", err)
	}
	if err := r.Release("app"); err != nil {
		t.Fatalf("Release of absent name error = %v", err)
	}

	second, err := r.Obtain("app")
	if err != nil {
		t.Fatalf("Obtain error = %v", err)
	}
	if second == first {
		t.Error("Obtain after Release returned the released instance")
	}
	if second.Exists("k") {
		t.Error("recreated store inherited released state")
	}
}

func TestSharedUsesDefaultRegistry(t *testing.T) {
	t.Cleanup(func() {
		_ = Default.Release(DefaultName)
	})

	first, err := Shared()
	if err != nil {
		t.Fatalf("Shared error = %v", err)
	}
	second, err := Shared()
	if err != nil {
		t.Fatalf("Shared error = %v", err)
	}
	if first != second {
		t.Error("Shared returned distinct instances")
	}

	found, ok := Default.Lookup(DefaultName)
	if !ok || found != first {
		t.Error("Shared instance not registered in Default under DefaultName")
	}
}
