// Package registry manages named, shared store instances. Rather than a
// hidden package-level singleton, the registry itself is the one
// intentionally process-scoped object: callers that want isolation construct
// their own Registry, callers that want sharing use Default.
package registry

import (
	"sort"
	"sync"

	"github.com/dshills/uritree/internal/store"
	"github.com/google/uuid"
)

// Entry is a registered store together with its diagnostic identity.
type Entry struct {
	// ID uniquely identifies this instance for diagnostics and logging.
	ID string

	// Name is the registration key the instance was obtained under.
	Name string

	Store *store.Store
}

// Registry holds named store instances. The first Obtain for a name creates
// the store with the given options; later calls return the existing instance
// and ignore their options.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Obtain returns the store registered under name, creating it with opts on
// first call. Options passed on subsequent calls for the same name have no
// effect: the first caller's configuration wins.
func (r *Registry) Obtain(name string, opts ...store.Option) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[name]; ok {
		return entry.Store, nil
	}

	s, err := store.New(opts...)
	if err != nil {
		return nil, err
	}
	r.entries[name] = &Entry{
		ID:    uuid.New().String(),
		Name:  name,
		Store: s,
	}
	return s, nil
}

// Lookup returns the store registered under name without creating one.
func (r *Registry) Lookup(name string) (*store.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Store, true
}

// Entries returns the registered entries sorted by name.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Release removes the store registered under name and closes it. Releasing
// an unregistered name is a no-op.
func (r *Registry) Release(name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return entry.Store.Close()
}

// Close releases every registered store. The first close error is returned;
// all stores are closed regardless.
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	var firstErr error
	for _, entry := range entries {
		if err := entry.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DefaultName is the registration key used by Shared.
const DefaultName = "shared"

// Default is the process-scoped registry used by Shared.
var Default = New()

// Shared returns the process-wide shared store, creating it with opts on
// first call. Like Obtain, later calls ignore their options.
func Shared(opts ...store.Option) (*store.Store, error) {
	return Default.Obtain(DefaultName, opts...)
}
