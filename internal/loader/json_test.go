package loader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestJSONLoaderLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	content := `{"db": {"host": "localhost", "port": 5432}, "debug": true}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	nodes, err := NewJSONLoader(path).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := map[string]any{
		"db": map[string]any{
			"host": "localhost",
			"port": float64(5432),
		},
		"debug": true,
	}
	if !reflect.DeepEqual(nodes, want) {
		t.Errorf("Load = %v, want %v", nodes, want)
	}
}

func TestJSONLoaderMissingFile(t *testing.T) {
	nodes, err := NewJSONLoader(filepath.Join(t.TempDir(), "absent.json")).Load()
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if nodes != nil {
		t.Errorf("missing file should yield nil nodes, got %v", nodes)
	}
}

func TestJSONLoaderInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `{"a": {`},
		{name: "trailing garbage", content: `{"a": 1} trailing`},
		{name: "not json", content: `hello world`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONLoader("bad.json").LoadFromReader(strings.NewReader(tt.content))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error = %v, want *ParseError", err)
			}
		})
	}
}

func TestSaveJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "tree.json")

	nodes := map[string]any{
		"db": map[string]any{"host": "localhost"},
	}
	if err := SaveJSON(path, nodes); err != nil {
		t.Fatalf("SaveJSON error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}

	// Three-space indent.
	if !strings.Contains(string(raw), "\n   \"db\"") {
		t.Errorf("saved JSON not indented with three spaces:\n%s", raw)
	}

	reloaded, err := NewJSONLoader(path).Load()
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if !reflect.DeepEqual(reloaded, nodes) {
		t.Errorf("round trip = %v, want %v", reloaded, nodes)
	}
}

func TestSaveJSONUnwritable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission bits are not enforced")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := SaveJSON(filepath.Join(dir, "tree.json"), map[string]any{"a": 1})
	if err == nil {
		t.Error("SaveJSON to unwritable directory succeeded, want error")
	}
}
