// Package watcher reports debounced file changes so featureguard can
// regenerate checks when directives or the manifest change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/featureguard/internal/logging"
)

// FileWatcher watches for file changes with debouncing
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of change events
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewFileWatcher creates a new file watcher. A nil logger discards output.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	debouncer := &Debouncer{
		delay:   debounceDelay,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	return &FileWatcher{
		watcher:   watcher,
		debouncer: debouncer,
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter. An event must pass every filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath adds a single directory or file to watch
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return fw.watcher.Add(cleanPath)
}

// AddRecursive adds a directory and all subdirectories not rejected by skip.
func (fw *FileWatcher) AddRecursive(root string, skip func(name string) bool) error {
	cleanRoot, err := cleanPath(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}

	return filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != cleanRoot && skip != nil && skip(d.Name()) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// WatchList returns the watched paths in sorted order.
func (fw *FileWatcher) WatchList() []string {
	list := fw.watcher.WatchList()
	sort.Strings(list)
	return list
}

func cleanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}

// Start starts the file watcher goroutines; they stop when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)

	return nil
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	fw.debouncer.mutex.Lock()
	if fw.debouncer.timer != nil {
		fw.debouncer.timer.Stop()
	}
	fw.debouncer.mutex.Unlock()

	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// chmod only
		return
	}

	select {
	case fw.debouncer.events <- ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime}:
	default:
		// Channel full, skip this event
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Error(ctx, err, "change handler failed", "events", len(events))
				}
			}
		}
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Keep the last event per path, in first-seen order
	index := make(map[string]int)
	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		if i, ok := index[event.Path]; ok {
			events[i] = event
			continue
		}
		index[event.Path] = len(events)
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
		// Channel full, skip
	}

	d.pending = d.pending[:0]
}

// Common file filters

// GoFilter accepts .go files.
func GoFilter(path string) bool {
	return filepath.Ext(path) == ".go"
}

// NoTestFilter rejects _test.go files.
func NoTestFilter(path string) bool {
	return !strings.HasSuffix(filepath.Base(path), "_test.go")
}

// NoVendorFilter rejects anything below a vendor directory.
func NoVendorFilter(path string) bool {
	slashed := filepath.ToSlash(path)
	return !strings.HasPrefix(slashed, "vendor/") && !strings.Contains(slashed, "/vendor/")
}

// NoGitFilter rejects anything below a .git directory.
func NoGitFilter(path string) bool {
	slashed := filepath.ToSlash(path)
	return !strings.HasPrefix(slashed, ".git/") && !strings.Contains(slashed, "/.git/")
}

// NoPrefixFilter rejects files whose base name starts with prefix followed
// by '_', which keeps generated checks from retriggering a regeneration.
func NoPrefixFilter(prefix string) FileFilter {
	return func(path string) bool {
		return !strings.HasPrefix(filepath.Base(path), prefix+"_")
	}
}

// NameFilter accepts files with the given base name.
func NameFilter(name string) FileFilter {
	return func(path string) bool {
		return filepath.Base(path) == name
	}
}

// AllOf accepts a path accepted by every filter.
func AllOf(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if !f(path) {
				return false
			}
		}
		return true
	}
}

// AnyOf accepts a path accepted by at least one filter.
func AnyOf(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}
