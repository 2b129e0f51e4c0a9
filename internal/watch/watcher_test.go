package watch

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

// Test Plan for Watcher:
// - New rejects unparseable glob patterns
// - Zero debounce falls back to the default quiet period
// - Single file change fires callback after debounce
// - Multiple changes are batched, deduplicated and sorted
// - Only paths matching an include pattern enter the batch
// - Root-level files match patterns written with a leading "**/"
// - Ignored directories are never watched
// - Explicitly tracked files bypass the include patterns
// - Directory created under a root is watched from then on
// - File deletion triggers the callback
// - Stop is idempotent and safe to call concurrently
// - Context cancellation stops the event loop

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
	fired   chan struct{}
}

func newBatchRecorder() *batchRecorder {
	return &batchRecorder{fired: make(chan struct{}, 10)}
}

func (r *batchRecorder) record(paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *batchRecorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called after timeout")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func (r *batchRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for _, b := range r.batches {
		paths = append(paths, b...)
	}
	return paths
}

func startWatcher(t *testing.T, opts Options, rec *batchRecorder) *Watcher {
	t.Helper()
	w, err := New(opts, rec.record)
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	return w
}

// Test: New rejects unparseable glob patterns
func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	w, err := New(Options{Patterns: []string{"["}}, func([]string) {})
	assert.Error(t, err)
	assert.Nil(t, w)

	w, err = New(Options{Ignore: []string{"["}}, func([]string) {})
	assert.Error(t, err)
	assert.Nil(t, w)
}

// Test: Zero debounce falls back to the default quiet period
func TestNew_DefaultDebounce(t *testing.T) {
	t.Parallel()

	w, err := New(Options{}, func([]string) {})
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, defaultDebounce, w.debounce)

	w2, err := New(Options{Debounce: 50 * time.Millisecond}, func([]string) {})
	require.NoError(t, err)
	defer w2.Stop()
	assert.Equal(t, 50*time.Millisecond, w2.debounce)
}

// Test: Single file change fires callback after debounce
func TestWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Debounce: 100 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tempDir, "app.py")
	require.NoError(t, os.WriteFile(testFile, []byte("x = 1\n"), 0644))

	batch := rec.wait(t)
	assert.Equal(t, []string{testFile}, batch)
}

// Test: Multiple changes are batched, deduplicated and sorted
func TestWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Debounce: 200 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	fileB := filepath.Join(tempDir, "b.py")
	fileA := filepath.Join(tempDir, "a.py")

	require.NoError(t, os.WriteFile(fileB, []byte("x = 1\n"), 0644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(fileA, []byte("x = 2\n"), 0644))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(fileB, []byte("x = 3\n"), 0644))

	batch := rec.wait(t)
	assert.Equal(t, []string{fileA, fileB}, batch, "batch must be sorted and contain each path once")
}

// Test: Only paths matching an include pattern enter the batch
// Test: Root-level files match patterns written with a leading "**/"
func TestWatcher_PatternFiltering(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Debounce: 150 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	pyFile := filepath.Join(tempDir, "main.py")
	txtFile := filepath.Join(tempDir, "notes.txt")
	require.NoError(t, os.WriteFile(pyFile, []byte("x = 1\n"), 0644))
	require.NoError(t, os.WriteFile(txtFile, []byte("notes"), 0644))

	batch := rec.wait(t)
	assert.Contains(t, batch, pyFile, "a root-level file must match the **/ prefixed pattern")
	assert.NotContains(t, batch, txtFile)
}

// Test: Ignored directories are never watched
func TestWatcher_IgnorePatterns(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	srcDir := filepath.Join(tempDir, "src")
	ignoredDir := filepath.Join(tempDir, "ignored")
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	require.NoError(t, os.MkdirAll(ignoredDir, 0755))

	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Ignore:   []string{"ignored/**"},
		Debounce: 150 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	kept := filepath.Join(srcDir, "a.py")
	skipped := filepath.Join(ignoredDir, "b.py")
	require.NoError(t, os.WriteFile(kept, []byte("x = 1\n"), 0644))
	require.NoError(t, os.WriteFile(skipped, []byte("x = 2\n"), 0644))

	batch := rec.wait(t)
	assert.Contains(t, batch, kept)
	assert.NotContains(t, batch, skipped)
}

// Test: Explicitly tracked files bypass the include patterns
func TestWatcher_AddFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	tracked := filepath.Join(tempDir, "tracked.txt")
	sibling := filepath.Join(tempDir, "sibling.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("v1"), 0644))
	require.NoError(t, os.WriteFile(sibling, []byte("v1"), 0644))

	rec := newBatchRecorder()
	w := startWatcher(t, Options{Debounce: 100 * time.Millisecond}, rec)

	require.NoError(t, w.AddFile(tracked))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(tracked, []byte("v2"), 0644))
	require.NoError(t, os.WriteFile(sibling, []byte("v2"), 0644))

	batch := rec.wait(t)
	assert.Contains(t, batch, tracked)
	assert.NotContains(t, batch, sibling, "untracked siblings match no pattern and stay out")
}

// Test: Directory created under a root is watched from then on
func TestWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Debounce: 100 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	newDir := filepath.Join(tempDir, "pkg")
	require.NoError(t, os.Mkdir(newDir, 0755))

	// Wait for the create event to register the new watch
	time.Sleep(300 * time.Millisecond)

	nested := filepath.Join(newDir, "util.py")
	require.NoError(t, os.WriteFile(nested, []byte("x = 1\n"), 0644))

	rec.wait(t)
	assert.Contains(t, rec.all(), nested)
}

// Test: File deletion triggers the callback
func TestWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "gone.py")
	require.NoError(t, os.WriteFile(testFile, []byte("x = 1\n"), 0644))

	rec := newBatchRecorder()
	w := startWatcher(t, Options{
		Patterns: []string{"**/*.py"},
		Debounce: 100 * time.Millisecond,
	}, rec)

	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(testFile))

	batch := rec.wait(t)
	assert.Contains(t, batch, testFile)
}

// Test: Stop is idempotent and safe to call concurrently
func TestWatcher_Stop(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w, err := New(Options{Patterns: []string{"**/*.py"}}, func([]string) {})
	require.NoError(t, err)
	require.NoError(t, w.AddRoot(tempDir))
	w.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	w.Stop()
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// Calling Stop() again should be safe
	w.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}

// Test: Context cancellation stops the event loop
func TestWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w, err := New(Options{Patterns: []string{"**/*.py"}}, func([]string) {})
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.AddRoot(tempDir))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not stop after cancellation")
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
