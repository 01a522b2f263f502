package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	assert.Error(t, watcher.AddPath(""))
	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal", "db"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor", "x"), 0o755))

	require.NoError(t, watcher.AddRecursive(root, func(name string) bool { return name == "vendor" }))

	list := watcher.WatchList()
	assert.Contains(t, list, filepath.Join(root, "internal", "db"))
	assert.NotContains(t, list, filepath.Join(root, "vendor"))
}

func TestFileWatcherStartStop(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(GoFilter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []ChangeEvent
	)
	watcher.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, events...)
		return nil
	})

	require.NoError(t, watcher.Start(ctx))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, ev := range received {
		assert.Equal(t, ".go", filepath.Ext(ev.Path))
	}
	mu.Unlock()

	cancel()
	assert.NoError(t, watcher.Stop())
}

func TestDebouncerFlushKeepsLastEventPerPath(t *testing.T) {
	d := &Debouncer{
		delay:  time.Hour,
		events: make(chan ChangeEvent, 10),
		output: make(chan []ChangeEvent, 1),
	}

	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "a.go"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "b.go"})
	d.addEvent(ChangeEvent{Type: EventTypeDeleted, Path: "a.go"})
	d.timer.Stop()
	d.flush()

	events := <-d.output
	require.Len(t, events, 2)
	assert.Equal(t, "a.go", events[0].Path)
	assert.Equal(t, EventTypeDeleted, events[0].Type)
	assert.Equal(t, "b.go", events[1].Path)

	// nothing pending, nothing sent
	d.flush()
	assert.Len(t, d.output, 0)
}

func TestFilters(t *testing.T) {
	testCases := []struct {
		name     string
		filter   FileFilter
		path     string
		expected bool
	}{
		{"go file", GoFilter, "main.go", true},
		{"non go file", GoFilter, "README.md", false},
		{"test file", NoTestFilter, "main_test.go", false},
		{"non test file", NoTestFilter, "main.go", true},
		{"vendor", NoVendorFilter, "vendor/x/x.go", false},
		{"nested vendor", NoVendorFilter, "a/vendor/x.go", false},
		{"not vendor", NoVendorFilter, "vendors.go", true},
		{"git", NoGitFilter, "repo/.git/HEAD", false},
		{"generated", NoPrefixFilter("featureguard"), "pkg/featureguard_tls_01.go", false},
		{"not generated", NoPrefixFilter("featureguard"), "pkg/featureguard.go", true},
		{"manifest", NameFilter(".featureguard.yml"), "/repo/.featureguard.yml", true},
		{"all of", AllOf(GoFilter, NoTestFilter), "x_test.go", false},
		{"any of", AnyOf(GoFilter, NameFilter("m.yml")), "m.yml", true},
		{"any of none", AnyOf(GoFilter, NameFilter("m.yml")), "m.yaml", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter(tc.path))
		})
	}
}
