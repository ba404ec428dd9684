package tree

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "empty", path: "", want: nil},
		{name: "root slash", path: "/", want: nil},
		{name: "single segment", path: "a", want: []string{"a"}},
		{name: "multi segment", path: "a/b/c", want: []string{"a", "b", "c"}},
		{name: "leading slash", path: "/a/b", want: []string{"a", "b"}},
		{name: "trailing slash", path: "a/b/", want: []string{"a", "b"}},
		{name: "surrounding slashes", path: "/a/b/", want: []string{"a", "b"}},
		{name: "empty interior segment", path: "a//b", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Split(tt.path); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"a", "b", "c"}); got != "a/b/c" {
		t.Errorf("Join = %q, want a/b/c", got)
	}
	if got := Join(nil); got != "" {
		t.Errorf("Join(nil) = %q, want empty", got)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
		want  any
	}{
		{
			name:  "single segment",
			path:  "a",
			value: 1,
			want:  map[string]any{"a": 1},
		},
		{
			name:  "nested chain",
			path:  "a/b/c",
			value: "v",
			want: map[string]any{
				"a": map[string]any{
					"b": map[string]any{"c": "v"},
				},
			},
		},
		{
			name:  "mapping value",
			path:  "db",
			value: map[string]any{"host": "localhost"},
			want: map[string]any{
				"db": map[string]any{"host": "localhost"},
			},
		},
		{
			name:  "empty path is the value itself",
			path:  "",
			value: 42,
			want:  42,
		},
		{
			name:  "slashes stripped",
			path:  "/a/b/",
			value: true,
			want: map[string]any{
				"a": map[string]any{"b": true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.path, tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expand(%q, %v) = %v, want %v", tt.path, tt.value, got, tt.want)
			}
		})
	}
}
