// Package store wires the tree core to persistence, file watching, and
// change notification. It is the main entry point for consumers that want
// a path-addressed tree backed by a file on disk.
//
// A store reads through a layered view: seeded defaults, the loaded file,
// environment overrides, and in-memory session writes, in ascending
// priority. Set writes the session layer, so explicit writes survive a
// file reload; Save persists the merged view.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/uritree/internal/loader"
	"github.com/dshills/uritree/internal/notify"
	"github.com/dshills/uritree/internal/overlay"
	"github.com/dshills/uritree/internal/tree"
	"github.com/dshills/uritree/internal/watcher"
)

// Errors returned by store operations.
var (
	// ErrUnknownFormat indicates a file extension no loader handles.
	ErrUnknownFormat = errors.New("unknown tree file format")

	// ErrExecDisabled indicates a Lua config file was given to a store
	// that was not built with WithExecutableConfig(true).
	ErrExecDisabled = errors.New("executable config loading is disabled")
)

// DefaultEnvPrefix scopes the environment variables MergeEnv consumes.
const DefaultEnvPrefix = "URITREE_"

// Layer names inside the store's stack.
const (
	layerDefaults = "defaults"
	layerFile     = "file"
	layerEnv      = "env"
)

// Store provides file-backed access to a path-addressed tree.
// Unlike the bare tree, a store is safe for concurrent use: the watcher
// delivers reloads on its own goroutine.
type Store struct {
	mu sync.Mutex

	layers   *overlay.Stack
	notifier *notify.Notifier
	watcher  *watcher.Watcher

	// Backing file, set by the last successful Load
	path string

	envPrefix     string
	allowExec     bool
	enableWatcher bool
}

// Option configures a Store.
type Option func(*Store)

// WithTree seeds the store's defaults layer with a copy of an existing
// tree. Loaded files, environment overrides, and session writes all take
// precedence over the seed.
func WithTree(t *tree.Tree) Option {
	return func(s *Store) {
		if t != nil {
			s.layers.Add(overlay.NewLayerWithTree(
				layerDefaults, overlay.SourceBuiltin, overlay.PriorityBuiltin, t.Copy()))
		}
	}
}

// WithWatcher enables live reload of the backing file.
func WithWatcher(enable bool) Option {
	return func(s *Store) {
		s.enableWatcher = enable
	}
}

// WithExecutableConfig allows Load to run .lua configuration files.
// This is a trust boundary: only enable it for files the process already
// trusts (see loader.LuaLoader).
func WithExecutableConfig(enable bool) Option {
	return func(s *Store) {
		s.allowExec = enable
	}
}

// WithEnvPrefix overrides the environment variable prefix used by MergeEnv.
func WithEnvPrefix(prefix string) Option {
	return func(s *Store) {
		s.envPrefix = prefix
	}
}

// New creates a store with an empty layer stack.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		layers:    overlay.NewStack(),
		notifier:  notify.New(),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.enableWatcher {
		w, err := watcher.New()
		if err != nil {
			return nil, fmt.Errorf("starting file watcher: %w", err)
		}
		s.watcher = w
		s.watcher.OnChange(s.handleFileChange)
	}

	return s, nil
}

// Close shuts down the store's watcher, if any.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Load reads the file at path into the store's file layer. The format is
// chosen by extension: .json, .toml, .yaml/.yml, or .lua when executable
// config is enabled. A missing file is an error. Session writes and
// environment overrides are kept; only the file layer is replaced.
// Returns the store itself for chained use.
func (s *Store) Load(path string) (*Store, error) {
	nodes, err := s.loadFile(path)
	if err != nil {
		return s, err
	}
	if nodes == nil {
		return s, fmt.Errorf("tree file %s: %w", path, fs.ErrNotExist)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return s, err
	}

	s.mu.Lock()
	previous := s.path
	s.setFileLayer(tree.FromRoot(nodes))
	s.path = absPath
	s.mu.Unlock()

	if s.watcher != nil {
		if previous != "" && previous != absPath {
			_ = s.watcher.Unwatch(previous)
		}
		if err := s.watcher.Watch(absPath); err != nil && !errors.Is(err, watcher.ErrAlreadyWatching) {
			return s, fmt.Errorf("watching %s: %w", absPath, err)
		}
	}

	s.notifier.NotifyReload(absPath)
	return s, nil
}

// setFileLayer swaps the file layer's content, creating the layer on the
// first load. Callers hold s.mu.
func (s *Store) setFileLayer(t *tree.Tree) {
	if s.layers.Get(layerFile) != nil {
		_ = s.layers.Replace(layerFile, t)
		return
	}
	s.layers.Add(overlay.NewLayerWithTree(
		layerFile, overlay.SourceWorkspace, overlay.PriorityWorkspace, t))
}

// Save writes the merged view to the file at path, creating parent
// directories as needed. An empty path saves to the file last loaded.
// JSON output uses a three-space indent.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	if path == "" {
		path = s.path
	}
	s.mu.Unlock()

	if path == "" {
		return fmt.Errorf("save: no path given and no file loaded")
	}

	// Merged returns an independent copy, so a concurrent reload can't
	// mutate mid-marshal.
	nodes := s.layers.Merged().Root()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loader.SaveJSON(path, nodes)
	case ".toml":
		return loader.SaveTOML(path, nodes)
	case ".yaml", ".yml":
		return loader.SaveYAML(path, nodes)
	default:
		return fmt.Errorf("save %s: %w", path, ErrUnknownFormat)
	}
}

// loadFile parses the file at path according to its extension.
func (s *Store) loadFile(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loader.NewJSONLoader(path).Load()
	case ".toml":
		return loader.NewTOMLLoader(path).Load()
	case ".yaml", ".yml":
		return loader.NewYAMLLoader(path).Load()
	case ".lua":
		if !s.allowExec {
			return nil, fmt.Errorf("load %s: %w", path, ErrExecDisabled)
		}
		return loader.NewLuaLoader(path).Load()
	default:
		return nil, fmt.Errorf("load %s: %w", path, ErrUnknownFormat)
	}
}

// Get returns the merged node at path, or nil if it does not resolve.
// The empty path returns an independent copy of the merged root.
func (s *Store) Get(path string) any {
	if len(tree.Split(path)) == 0 {
		return s.layers.Merged().Root()
	}
	value, _ := s.layers.Effective(path)
	return value
}

// GetDefault returns the merged node at path, or def if it does not resolve.
func (s *Store) GetDefault(path string, def any) any {
	value, ok := s.layers.Effective(path)
	if !ok {
		return def
	}
	return value
}

// Set stores value at path in the session layer and notifies observers
// with the old and new merged values. Setting a mapping at the empty path
// merges it into the root and notifies each merged top-level key.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tree.Split(path)) == 0 {
		return s.setRoot(path, value)
	}

	oldValue := tree.CloneValue(s.Get(path))
	if err := s.layers.SetInSession(path, value); err != nil {
		return err
	}

	s.notifier.NotifySet(path, oldValue, s.Get(path), "store")
	return nil
}

// setRoot merges a mapping into the session root, notifying per key so
// subtree observers only fire for keys that actually changed. Callers
// hold s.mu.
func (s *Store) setRoot(path string, value any) error {
	m, isMap := value.(map[string]any)
	if !isMap {
		// Delegated for the uniform ErrInvalidPath error.
		return s.layers.SetInSession(path, value)
	}

	keys := make([]string, 0, len(m))
	oldValues := make(map[string]any, len(m))
	for key := range m {
		keys = append(keys, key)
		oldValues[key] = tree.CloneValue(s.Get(key))
	}
	sort.Strings(keys)

	if err := s.layers.SetInSession(path, value); err != nil {
		return err
	}

	for _, key := range keys {
		s.notifier.NotifySet(key, oldValues[key], s.Get(key), "store")
	}
	return nil
}

// Remove deletes the node at path from every layer; missing paths are a
// no-op and produce no notification.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tree.Split(path)) == 0 {
		return
	}

	oldValue, existed := s.layers.Effective(path)
	if existed {
		oldValue = tree.CloneValue(oldValue)
	}

	for _, layer := range s.layers.Layers() {
		_ = s.layers.Delete(layer.Name, path)
	}

	if existed {
		s.notifier.NotifyRemove(path, oldValue, "store")
	}
}

// Exists reports whether path resolves in the merged view.
func (s *Store) Exists(path string) bool {
	_, ok := s.layers.Effective(path)
	return ok
}

// Keys returns the sorted top-level keys of the merged view.
func (s *Store) Keys() []string {
	return s.layers.Merged().Keys()
}

// WhichLayer returns the name of the layer providing the merged value at
// path, or "" when no layer does.
func (s *Store) WhichLayer(path string) string {
	return s.layers.WhichLayer(path)
}

// Merge merges other into the session layer and notifies a reload.
func (s *Store) Merge(other *tree.Tree) {
	s.mu.Lock()
	s.mergeLayer(overlay.SourceSession, "session", overlay.PrioritySession, other)
	s.mu.Unlock()
	s.notifier.NotifyReload("merge")
}

// MergeEnv overlays environment variables with the store's prefix onto the
// env layer. Variables like URITREE_DB_HOST become paths like db/host,
// overriding defaults and file content but not session writes.
func (s *Store) MergeEnv() error {
	nodes, err := loader.NewEnvLoader(s.envPrefix).Load()
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	s.mu.Lock()
	s.mergeLayer(overlay.SourceEnv, layerEnv, overlay.PriorityEnv, tree.FromRoot(nodes))
	s.mu.Unlock()
	s.notifier.NotifyReload("env")
	return nil
}

// mergeLayer merges other into the layer with the given source, creating
// the layer when absent. Callers hold s.mu.
func (s *Store) mergeLayer(source overlay.Source, name string, priority int, other *tree.Tree) {
	layer := s.layers.BySource(source)
	if layer == nil {
		layer = overlay.NewLayer(name, source, priority)
		s.layers.Add(layer)
	}
	layer.Tree.Merge(other)
	s.layers.Invalidate()
}

// Tree returns a deep copy of the merged view.
func (s *Store) Tree() *tree.Tree {
	return s.layers.Merged()
}

// Dump writes a diagnostic rendering of the merged view to w.
func (s *Store) Dump(w io.Writer) {
	s.layers.Merged().Dump(w)
}

// Destroy drops every layer, leaving an empty store, and notifies
// observers. The store stays usable afterwards.
func (s *Store) Destroy() {
	s.mu.Lock()
	s.layers.Clear()
	s.mu.Unlock()
	s.notifier.NotifyReload("destroy")
}

// Path returns the backing file path set by the last successful Load.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Subscribe registers an observer for all tree changes.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (s *Store) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return s.notifier.SubscribePath(path, observer)
}

// handleFileChange reloads the file layer when the watcher reports a
// write or create. Removals keep the in-memory layers as-is.
func (s *Store) handleFileChange(event watcher.Event) {
	s.mu.Lock()
	current := s.path
	s.mu.Unlock()

	if event.Path != current {
		return
	}
	if event.Op != watcher.OpWrite && event.Op != watcher.OpCreate {
		return
	}

	nodes, err := s.loadFile(event.Path)
	if err != nil || nodes == nil {
		// A malformed intermediate write keeps the last good tree.
		return
	}

	s.mu.Lock()
	s.setFileLayer(tree.FromRoot(nodes))
	s.mu.Unlock()

	s.notifier.NotifyReload(event.Path)
}
