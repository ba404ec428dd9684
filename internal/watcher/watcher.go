// Package watcher provides file watching for tree live reload.
//
// The watcher monitors persisted tree files for changes and triggers
// reload callbacks when modifications are detected. Rapid successive
// writes to the same path are coalesced by a debounce window.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by watcher operations.
var (
	// ErrWatcherClosed indicates use of a watcher after Close.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyWatching indicates the path is already being watched.
	ErrAlreadyWatching = errors.New("path is already being watched")
)

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event occurred.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors files for changes using fsnotify.
type Watcher struct {
	mu sync.RWMutex

	fsw      *fsnotify.Watcher
	paths    map[string]bool
	handlers []Handler

	// Debounce window for coalescing rapid changes
	debounce time.Duration

	pendingMu sync.Mutex
	pending   map[string]*pendingEvent

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// pendingEvent holds a debounced event and its flush timer.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for rapid changes.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a new file watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		paths:    make(map[string]bool),
		debounce: 100 * time.Millisecond,
		pending:  make(map[string]*pendingEvent),
		closeCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching a path. The path must exist.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if w.paths[absPath] {
		return ErrAlreadyWatching
	}

	if err := w.fsw.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = true
	return nil
}

// Unwatch stops watching a path.
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if !w.paths[absPath] {
		return nil
	}
	delete(w.paths, absPath)
	return w.fsw.Remove(absPath)
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Close shuts down the watcher. It is safe to call Close multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()

	// Stop any timers still pending.
	w.pendingMu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	return err
}

// processLoop consumes fsnotify events until the watcher is closed.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// fsnotify errors are transient (e.g., overflow); the next
			// event for the path still triggers a reload.
		case <-w.closeCh:
			return
		}
	}
}

// handleFsEvent translates and debounces a raw fsnotify event.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpWrite
	case ev.Op.Has(fsnotify.Remove):
		op = OpRemove
	case ev.Op.Has(fsnotify.Rename):
		op = OpRename
	default:
		return // chmod and friends are not interesting
	}

	event := Event{Path: ev.Name, Op: op, Time: time.Now()}

	if w.debounce == 0 {
		w.deliver(event)
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if p, ok := w.pending[event.Path]; ok {
		// Coalesce: keep the newest event, restart the window.
		p.event = event
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingEvent{event: event}
	p.timer = time.AfterFunc(w.debounce, func() { w.flush(event.Path) })
	w.pending[event.Path] = p
}

// flush delivers the pending event for path after its debounce window.
func (w *Watcher) flush(path string) {
	w.pendingMu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	if ok {
		w.deliver(p.event)
	}
}

// deliver calls every registered handler with event.
func (w *Watcher) deliver(event Event) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
