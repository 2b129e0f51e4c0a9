// Package watch provides a debounced filesystem watcher with glob-based
// include and ignore filtering. Changes are batched: after a quiet period,
// the accumulated set of changed file paths is delivered to a callback in
// one call.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

const defaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Patterns []string      // include globs, matched against root-relative paths
	Ignore   []string      // ignore globs, checked before includes
	Debounce time.Duration // quiet period before a batch is delivered; zero means 500ms
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var out []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Watcher watches directories and files and delivers debounced batches of
// changed paths. Start it once; Stop is idempotent.
type Watcher struct {
	watcher  *fsnotify.Watcher
	patterns []compiledPattern
	ignore   []compiledPattern
	debounce time.Duration
	onChange func(paths []string)

	mu      sync.Mutex
	dirRoot map[string]string // watched dir -> the root it belongs to
	files   map[string]bool   // explicitly tracked files
	started bool

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher delivering change batches to onChange. The watcher
// owns no goroutine until Start.
func New(opts Options, onChange func(paths []string)) (*Watcher, error) {
	patterns, err := compilePatterns(opts.Patterns)
	if err != nil {
		return nil, err
	}
	ignore, err := compilePatterns(opts.Ignore)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		watcher:  fsw,
		patterns: patterns,
		ignore:   ignore,
		debounce: debounce,
		onChange: onChange,
		dirRoot:  make(map[string]string),
		files:    make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// AddRoot registers a directory tree. Every current subdirectory is watched;
// directories created later under the root are picked up from their create
// events.
func (w *Watcher) AddRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return w.walkAndAdd(abs, abs)
}

// walkAndAdd watches dir and every subdirectory below it, pruning subtrees
// whose root-relative path matches an ignore pattern.
func (w *Watcher) walkAndAdd(dir, root string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && w.shouldIgnore(filepath.ToSlash(rel)+"/**") {
			return filepath.SkipDir
		}
		return w.addDir(path, root)
	})
}

// AddFile watches a single file by registering its directory and tracking
// the file path, so events for it bypass the include patterns.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.addDir(dir, dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	return nil
}

func (w *Watcher) addDir(dir, root string) error {
	w.mu.Lock()
	_, known := w.dirRoot[dir]
	if !known {
		w.dirRoot[dir] = root
	}
	w.mu.Unlock()
	if known {
		return nil
	}
	return w.watcher.Add(dir)
}

// Start begins the event loop. Call it at most once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop(ctx)
}

// Stop terminates the event loop and waits for it to drain. Safe to call
// more than once and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.doneCh
		}
		w.watcher.Close()
	})
}

// loop is the event loop with debouncing. The changed set is owned by this
// goroutine; the debounce timer only signals the flush channel.
func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	flushCh := make(chan struct{}, 1)
	changed := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.registerCreatedDir(event.Name)
					continue
				}
			}
			if !w.shouldProcess(event.Name) {
				continue
			}
			changed[event.Name] = true

			// Reset debounce timer - properly stop and drain
			if debounceTimer != nil {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case flushCh <- struct{}{}:
				default:
				}
			})

		case <-flushCh:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for path := range changed {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			changed = make(map[string]bool)
			w.onChange(batch)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// registerCreatedDir starts watching a directory created under a known
// root. The new directory is walked recursively: when a whole tree is
// copied in, its subdirectories exist before this watch starts, so their
// create events never arrive.
func (w *Watcher) registerCreatedDir(dir string) {
	w.mu.Lock()
	root, ok := w.dirRoot[filepath.Dir(dir)]
	w.mu.Unlock()
	if !ok {
		return
	}
	if err := w.walkAndAdd(dir, root); err != nil {
		log.Printf("File watcher error: failed to watch %s: %v", dir, err)
	}
}

// shouldProcess decides whether an event path enters the change batch:
// explicitly tracked files always do, everything else must clear the
// ignore patterns and match an include pattern on its root-relative path.
func (w *Watcher) shouldProcess(path string) bool {
	w.mu.Lock()
	tracked := w.files[path]
	root, known := w.dirRoot[filepath.Dir(path)]
	w.mu.Unlock()

	if tracked {
		return true
	}
	if !known {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if w.shouldIgnore(rel) {
		return false
	}
	return matchesAnyPattern(rel, w.patterns)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (w *Watcher) shouldIgnore(relPath string) bool {
	return matchesAnyPattern(relPath, w.ignore)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
// A path in the root (no slash) also matches patterns written with a
// leading "**/", so "**/*.py" covers both "main.py" and "pkg/util.py".
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}
