// Package overlay provides priority-ordered layering of trees.
//
// A stack holds named layers, each wrapping its own tree, and merges them
// into a single effective tree. Higher priority layers override values from
// lower priority layers.
package overlay

import (
	"time"

	"github.com/dshills/uritree/internal/tree"
)

// Standard layer priorities, lowest to highest.
const (
	PriorityBuiltin   = 0
	PriorityUser      = 100
	PriorityWorkspace = 200
	PriorityEnv       = 300
	PrioritySession   = 400
)

// Layer represents a single tree layer.
type Layer struct {
	// Name identifies the layer (e.g., "defaults", "user", "session").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Tree holds the layer's nodes.
	Tree *tree.Tree

	// ModTime is when the source was last modified.
	ModTime time.Time

	// ReadOnly prevents modifications to this layer.
	ReadOnly bool
}

// NewLayer creates a new empty layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Tree:     tree.New(),
		ModTime:  time.Now(),
	}
}

// NewLayerWithTree creates a new layer around an existing tree.
func NewLayerWithTree(name string, source Source, priority int, t *tree.Tree) *Layer {
	if t == nil {
		t = tree.New()
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Tree:     t,
		ModTime:  time.Now(),
	}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Tree:     l.Tree.Copy(),
		ModTime:  l.ModTime,
		ReadOnly: l.ReadOnly,
	}
}

// Source indicates where a layer came from.
type Source uint8

const (
	// SourceBuiltin represents built-in default values.
	SourceBuiltin Source = iota
	// SourceUser represents user-level files.
	SourceUser
	// SourceWorkspace represents workspace/project files.
	SourceWorkspace
	// SourceEnv represents environment variables.
	SourceEnv
	// SourceSession represents in-memory session overrides.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceUser:
		return "user"
	case SourceWorkspace:
		return "workspace"
	case SourceEnv:
		return "environment"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}
