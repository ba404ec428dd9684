// Package tree implements a hierarchical key/value store addressed by
// slash-delimited path strings.
//
// A tree is a nested map from string keys to child nodes. A node is either
// an interior node (another map) or a leaf (any other value). Paths such as
// "db/host" navigate the nesting one segment at a time, and the set
// operation creates intermediate interior nodes as needed.
package tree

import (
	"sort"
	"strings"
)

// Tree is a mutable nested-map structure with path-based accessors.
// It is not safe for concurrent mutation; callers needing concurrent
// access must serialize externally.
type Tree struct {
	nodes map[string]any
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[string]any)}
}

// FromPath creates a tree seeded from a single path/value pair. The value
// is deep-copied, so later mutation of the argument does not affect the tree.
// The empty path denotes the root: a mapping value becomes the root content,
// while a non-mapping value cannot be stored there and yields an empty tree.
func FromPath(path string, value any) *Tree {
	t := New()
	_ = t.Set(path, cloneValue(value))
	return t
}

// FromMapping creates a tree from a mapping. A single-key mapping whose key
// contains a slash is treated as a path/value pair and expanded; any other
// mapping becomes the root directly. The mapping is deep-copied in both cases.
func FromMapping(m map[string]any) *Tree {
	if len(m) == 1 {
		for key, value := range m {
			if strings.Contains(key, "/") {
				return FromPath(key, value)
			}
		}
	}

	nodes := cloneMap(m)
	if nodes == nil {
		nodes = make(map[string]any)
	}
	return &Tree{nodes: nodes}
}

// FromRoot creates a tree whose root is a deep copy of m, with no path
// interpretation of the keys. Used when adopting deserialized content
// verbatim, where a key containing a slash is just a key.
func FromRoot(m map[string]any) *Tree {
	nodes := cloneMap(m)
	if nodes == nil {
		nodes = make(map[string]any)
	}
	return &Tree{nodes: nodes}
}

// Root returns the root mapping by reference. Callers may mutate it,
// bypassing the tree's own methods; this is an intentional escape hatch.
// Use Copy for an independent snapshot.
func (t *Tree) Root() map[string]any {
	return t.nodes
}

// Get returns the node at path, or nil if the path does not resolve.
// The empty path returns the root mapping (see Root).
func (t *Tree) Get(path string) any {
	return t.GetDefault(path, nil)
}

// GetDefault returns the node at path, or def if any segment is absent or
// the descent passes through a leaf. The returned node may be a leaf value
// or an interior node mapping.
func (t *Tree) GetDefault(path string, def any) any {
	segs := Split(path)
	if len(segs) == 0 {
		return t.nodes
	}

	var cur any = t.nodes
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		cur, ok = m[seg]
		if !ok {
			return def
		}
	}
	return cur
}

// Set stores value at path, creating intermediate interior nodes as needed.
//
// Collision policy: a leaf encountered at any segment is overwritten, and the
// remaining path segments are rebuilt beneath the overwritten point as a
// fresh sub-chain (destroying whatever the leaf held). When every segment
// resolves through existing interior nodes, a mapping value shallow-merges
// into the resolved subtree, while a non-mapping value replaces the subtree
// at the final segment.
//
// Setting a non-mapping value at the empty path returns ErrInvalidPath;
// a mapping value at the empty path shallow-merges into the root.
func (t *Tree) Set(path string, value any) error {
	segs := Split(path)
	nodes := t.nodes

	for i, seg := range segs {
		existing, ok := nodes[seg]
		if ok {
			if child, isMap := existing.(map[string]any); isMap {
				nodes = child
				continue
			}

			// Leaf in the way: overwrite it, rebuilding any unconsumed
			// path suffix beneath the new value.
			nodes[seg] = Expand(Join(segs[i+1:]), value)
			return nil
		}

		// Absent key: expand the remaining suffix under it.
		nodes[seg] = Expand(Join(segs[i+1:]), value)
		return nil
	}

	// Every segment resolved through an existing interior node (or the
	// path was empty): nodes is the mapping at the full path.
	if m, isMap := value.(map[string]any); isMap {
		for k, v := range m {
			nodes[k] = v
		}
		return nil
	}

	if len(segs) == 0 {
		return &PathError{Op: "set", Path: path, Err: ErrInvalidPath}
	}

	// Non-mapping value at a path occupied by an interior node: re-walk
	// from the root and overwrite at the final segment.
	parent := t.nodes
	for _, seg := range segs[:len(segs)-1] {
		parent = parent[seg].(map[string]any)
	}
	parent[segs[len(segs)-1]] = value
	return nil
}

// SetMapping stores a value given as a single-key mapping whose key is the
// path and whose value is the node to store. Any other mapping shape
// returns ErrInvalidArgument.
func (t *Tree) SetMapping(m map[string]any) error {
	if len(m) != 1 {
		return &PathError{Op: "set", Err: ErrInvalidArgument}
	}
	for path, value := range m {
		return t.Set(path, value)
	}
	return nil
}

// Remove deletes the node at path. Missing paths, including paths that
// descend through a leaf, are a no-op; removing twice never fails.
func (t *Tree) Remove(path string) {
	segs := Split(path)
	if len(segs) == 0 || !t.Exists(path) {
		return
	}

	if len(segs) == 1 {
		delete(t.nodes, segs[0])
		return
	}

	parent := t.Get(Join(segs[:len(segs)-1]))
	if m, ok := parent.(map[string]any); ok {
		delete(m, segs[len(segs)-1])
	}
}

// Exists reports whether path resolves to a node. Probing through a leaf
// is not an error; it simply reports false.
func (t *Tree) Exists(path string) bool {
	var cur any = t.nodes
	for _, seg := range Split(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		cur, ok = m[seg]
		if !ok {
			return false
		}
	}
	return true
}

// Keys returns the top-level key names of the root in sorted order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.nodes))
	for k := range t.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a new tree holding a deep copy of this tree's root.
// The copy and the original share no mutable state.
func (t *Tree) Copy() *Tree {
	return &Tree{nodes: cloneMap(t.nodes)}
}

// Merge recursively merges other's root into this tree. Where a key holds
// interior nodes on both sides the merge recurses; in every other case
// other's value overwrites this tree's value at that key. Merged values are
// deep-copied so the trees stay independent.
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	mergeNodes(t.nodes, other.nodes)
}

func mergeNodes(dst, src map[string]any) {
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeNodes(dstMap, srcMap)
			continue
		}
		dst[key] = cloneValue(srcVal)
	}
}

// GetNodes returns the immediate children of the node at path that are
// themselves interior nodes; leaf-valued children are excluded. A path that
// does not resolve yields an empty result, while a path resolving to a leaf
// returns ErrNotAMapping.
func (t *Tree) GetNodes(path string) (map[string]any, error) {
	if !t.Exists(path) {
		return map[string]any{}, nil
	}

	node, ok := t.Get(path).(map[string]any)
	if !ok {
		return nil, &PathError{Op: "nodes", Path: path, Err: ErrNotAMapping}
	}

	nodes := make(map[string]any)
	for k, v := range node {
		if m, ok := v.(map[string]any); ok {
			nodes[k] = m
		}
	}
	return nodes, nil
}

// HasNodes reports whether the node at path has at least one interior-node
// child. Paths that do not resolve, or resolve to a leaf, report false.
func (t *Tree) HasNodes(path string) bool {
	nodes, err := t.GetNodes(path)
	return err == nil && len(nodes) > 0
}

// Destroy resets the tree to an empty root, preserving the tree's identity.
func (t *Tree) Destroy() {
	t.nodes = make(map[string]any)
}

// Equal reports whether both trees hold deeply equal roots: same keys, same
// nested structure, same leaf values. A nil other is never equal. Inequality
// is strictly the negation of Equal.
func (t *Tree) Equal(other *Tree) bool {
	if other == nil {
		return false
	}
	return mapsEqual(t.nodes, other.nodes)
}

// Len returns the number of top-level keys in the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}
