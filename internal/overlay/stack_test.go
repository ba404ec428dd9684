package overlay

import (
	"errors"
	"testing"

	"github.com/dshills/uritree/internal/tree"
)

func defaultsLayer() *Layer {
	return NewLayerWithTree("defaults", SourceBuiltin, PriorityBuiltin, tree.FromMapping(map[string]any{
		"editor": map[string]any{"tabSize": 4, "wrap": false},
	}))
}

func userLayer() *Layer {
	return NewLayerWithTree("user", SourceUser, PriorityUser, tree.FromMapping(map[string]any{
		"editor": map[string]any{"tabSize": 2},
	}))
}

func TestStackMergePriority(t *testing.T) {
	s := NewStack()
	s.Add(userLayer()) // added out of order on purpose
	s.Add(defaultsLayer())

	merged := s.Merged()

	// User layer overrides the default tabSize but keeps wrap.
	if got := merged.Get("editor/tabSize"); got != 2 {
		t.Errorf("editor/tabSize = %v, want 2", got)
	}
	if got := merged.Get("editor/wrap"); got != false {
		t.Errorf("editor/wrap = %v, want false", got)
	}
}

func TestStackEffective(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())
	s.Add(userLayer())

	v, ok := s.Effective("editor/tabSize")
	if !ok || v != 2 {
		t.Errorf("Effective(editor/tabSize) = %v, %v; want 2, true", v, ok)
	}

	if _, ok := s.Effective("missing"); ok {
		t.Error("Effective(missing) reported found")
	}
}

func TestStackWhichLayer(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())
	s.Add(userLayer())

	if got := s.WhichLayer("editor/tabSize"); got != "user" {
		t.Errorf("WhichLayer(editor/tabSize) = %q, want user", got)
	}
	if got := s.WhichLayer("editor/wrap"); got != "defaults" {
		t.Errorf("WhichLayer(editor/wrap) = %q, want defaults", got)
	}
	if got := s.WhichLayer("missing"); got != "" {
		t.Errorf("WhichLayer(missing) = %q, want empty", got)
	}
}

func TestStackSet(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())

	if err := s.Set("defaults", "editor/tabSize", 8); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, _ := s.Effective("editor/tabSize"); v != 8 {
		t.Errorf("editor/tabSize = %v after Set, want 8", v)
	}

	err := s.Set("nope", "a", 1)
	if !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("Set on missing layer error = %v, want ErrLayerNotFound", err)
	}

	ro := NewLayer("locked", SourceBuiltin, PriorityBuiltin)
	ro.ReadOnly = true
	s.Add(ro)
	err = s.Set("locked", "a", 1)
	if !errors.Is(err, ErrLayerReadOnly) {
		t.Errorf("Set on read-only layer error = %v, want ErrLayerReadOnly", err)
	}
}

func TestStackSetInSession(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())

	if err := s.SetInSession("editor/tabSize", 3); err != nil {
		t.Fatalf("SetInSession error: %v", err)
	}

	// Session outranks everything.
	if v, _ := s.Effective("editor/tabSize"); v != 3 {
		t.Errorf("editor/tabSize = %v, want session override 3", v)
	}

	if s.BySource(SourceSession) == nil {
		t.Error("session layer not created")
	}

	// Second call reuses the same layer.
	if err := s.SetInSession("other", 1); err != nil {
		t.Fatalf("SetInSession error: %v", err)
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}
}

func TestStackRemoveAndDelete(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())
	s.Add(userLayer())

	if !s.Remove("user") {
		t.Fatal("Remove(user) = false")
	}
	if v, _ := s.Effective("editor/tabSize"); v != 4 {
		t.Errorf("editor/tabSize = %v after layer removal, want default 4", v)
	}
	if s.Remove("user") {
		t.Error("Remove(user) succeeded twice")
	}

	if err := s.Delete("defaults", "editor/wrap"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := s.Effective("editor/wrap"); ok {
		t.Error("editor/wrap still effective after Delete")
	}
}

func TestStackReplace(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())

	fresh := tree.FromMapping(map[string]any{"editor": map[string]any{"tabSize": 6}})
	if err := s.Replace("defaults", fresh); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if v, _ := s.Effective("editor/tabSize"); v != 6 {
		t.Errorf("editor/tabSize = %v after Replace, want 6", v)
	}

	// Replace copies: mutating the argument afterwards changes nothing.
	if err := fresh.Set("editor/tabSize", 99); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Effective("editor/tabSize"); v != 6 {
		t.Errorf("stack shares state with replacement tree: %v", v)
	}
}

func TestMergedIsACopy(t *testing.T) {
	s := NewStack()
	s.Add(defaultsLayer())

	merged := s.Merged()
	if err := merged.Set("editor/tabSize", 99); err != nil {
		t.Fatal(err)
	}

	if v, _ := s.Effective("editor/tabSize"); v != 4 {
		t.Errorf("mutating the merged copy leaked into the stack: %v", v)
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{src: SourceBuiltin, want: "builtin"},
		{src: SourceUser, want: "user"},
		{src: SourceWorkspace, want: "workspace"},
		{src: SourceEnv, want: "environment"},
		{src: SourceSession, want: "session"},
		{src: Source(99), want: "unknown"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.src, got, tt.want)
		}
	}
}
