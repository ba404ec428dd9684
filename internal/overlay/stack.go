package overlay

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/uritree/internal/tree"
)

// Errors returned by stack operations.
var (
	// ErrLayerNotFound indicates the named layer doesn't exist.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrLayerReadOnly indicates modification was attempted on a read-only layer.
	ErrLayerReadOnly = errors.New("layer is read-only")
)

// Stack manages tree layers and provides merged access.
type Stack struct {
	mu     sync.RWMutex
	layers []*Layer   // Sorted by priority (ascending)
	merged *tree.Tree // Cached merged result
	dirty  bool       // Whether merged cache needs refresh
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{
		layers: make([]*Layer, 0),
		merged: tree.New(),
		dirty:  true,
	}
}

// Add adds a layer to the stack. Layers are kept sorted by priority.
func (s *Stack) Add(layer *Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = append(s.layers, layer)
	s.sortLayers()
	s.dirty = true
}

// Remove removes a layer by name.
// Returns true if the layer was found and removed.
func (s *Stack) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, layer := range s.layers {
		if layer.Name == name {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// Get returns a layer by name.
func (s *Stack) Get(name string) *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLayer(name)
}

// BySource returns the first layer with the given source.
func (s *Stack) BySource(source Source) *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, layer := range s.layers {
		if layer.Source == source {
			return layer
		}
	}
	return nil
}

// Layers returns a copy of the layer list sorted by priority.
func (s *Stack) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Layer, len(s.layers))
	copy(result, s.layers)
	return result
}

// Count returns the number of layers.
func (s *Stack) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Merged combines all layers into a single tree, lowest priority first.
// The result is cached until a layer is added, removed, or updated, and
// returned as an independent copy.
func (s *Stack) Merged() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergedLocked().Copy()
}

// mergedLocked refreshes the cache if dirty and returns the internal tree.
func (s *Stack) mergedLocked() *tree.Tree {
	if !s.dirty && s.merged != nil {
		return s.merged
	}

	result := tree.New()
	for _, layer := range s.layers {
		result.Merge(layer.Tree)
	}

	s.merged = result
	s.dirty = false
	return result
}

// Effective returns the merged value for a path.
func (s *Stack) Effective(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.mergedLocked()
	if !merged.Exists(path) {
		return nil, false
	}
	return merged.Get(path), true
}

// WhichLayer returns the name of the highest-priority layer that provides
// a value at path, or "" when no layer does.
func (s *Stack) WhichLayer(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.layers) - 1; i >= 0; i-- {
		if s.layers[i].Tree.Exists(path) {
			return s.layers[i].Name
		}
	}
	return ""
}

// Set sets a value in a specific layer.
func (s *Stack) Set(layerName, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.findLayer(layerName)
	if layer == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerName)
	}
	if layer.ReadOnly {
		return fmt.Errorf("%w: %s", ErrLayerReadOnly, layerName)
	}

	if err := layer.Tree.Set(path, value); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// SetInSession sets a value in the session layer, creating the layer on
// first use.
func (s *Stack) SetInSession(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var session *Layer
	for _, layer := range s.layers {
		if layer.Source == SourceSession {
			session = layer
			break
		}
	}

	if session == nil {
		session = NewLayer("session", SourceSession, PrioritySession)
		s.layers = append(s.layers, session)
		s.sortLayers()
	}

	if err := session.Tree.Set(path, value); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// Delete removes a value from a specific layer.
func (s *Stack) Delete(layerName, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.findLayer(layerName)
	if layer == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerName)
	}
	if layer.ReadOnly {
		return fmt.Errorf("%w: %s", ErrLayerReadOnly, layerName)
	}

	layer.Tree.Remove(path)
	s.dirty = true
	return nil
}

// Replace swaps a layer's tree entirely.
func (s *Stack) Replace(name string, t *tree.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.findLayer(name)
	if layer == nil {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if layer.ReadOnly {
		return fmt.Errorf("%w: %s", ErrLayerReadOnly, name)
	}

	layer.Tree = t.Copy()
	s.dirty = true
	return nil
}

// Invalidate marks the merged cache as dirty.
// Call this after modifying a layer's tree directly.
func (s *Stack) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Clear removes all layers and releases memory.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = nil
	s.merged = nil
	s.dirty = true
}

// sortLayers sorts layers by priority (ascending).
func (s *Stack) sortLayers() {
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Priority < s.layers[j].Priority
	})
}

// findLayer finds a layer by name (must be called with lock held).
func (s *Stack) findLayer(name string) *Layer {
	for _, layer := range s.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}
