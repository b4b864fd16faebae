// Package watch demystifies trace dumps as they are written into a directory.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/demystify/internal/config"
	"github.com/standardbeagle/demystify/internal/debug"
	"github.com/standardbeagle/demystify/internal/dump"
	"github.com/standardbeagle/demystify/internal/trace"
	"github.com/standardbeagle/demystify/pkg/pathutil"
)

// Result describes one rendered dump
type Result struct {
	Source     string
	Output     string
	Exceptions int
	Err        error
}

// Watcher monitors a directory tree and writes a demystified text file next
// to every dump matching the configured pattern
type Watcher struct {
	watcher   *fsnotify.Watcher
	config    config.Watch
	trace     trace.Config
	root      string
	debouncer *eventDebouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	onRendered func(Result)

	// Watch statistics
	rendered      int64
	errorCount    int64
	lastEventTime time.Time
	statsMu       sync.RWMutex
}

// New creates a watcher for root. Nothing is watched until Start.
func New(root string, cfg *config.Config) (*Watcher, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher: watcher,
		config:  cfg.Watch,
		trace:   cfg.Demystifier(),
		root:    abs,
		ctx:     ctx,
		cancel:  cancel,
	}
	w.debouncer = newEventDebouncer(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, w.renderBatch)
	return w, nil
}

// OnRendered registers a callback invoked after each dump is processed.
// Must be called before Start.
func (w *Watcher) OnRendered(fn func(Result)) {
	w.onRendered = fn
}

// Root returns the absolute watched directory
func (w *Watcher) Root() string {
	return w.root
}

// Start begins watching the root directory and its subdirectories
func (w *Watcher) Start() error {
	debug.LogWatch("Starting watcher for %s (pattern %s)\n", w.root, w.config.Pattern)

	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()

	log.Printf("Watching %s for %s", w.root, w.config.Pattern)
	return nil
}

// Stop stops watching. Batches already being rendered complete first;
// pending events are dropped.
func (w *Watcher) Stop() error {
	w.cancel()

	if err := w.watcher.Close(); err != nil {
		log.Printf("Error closing fsnotify watcher: %v", err)
	}

	w.wg.Wait()
	w.debouncer.stop()

	log.Printf("Watcher stopped")
	return nil
}

// addWatches recursively adds watches to every directory under root
func (w *Watcher) addWatches(root string) error {
	// Symlinked directories may form cycles
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

// processEvents processes file system events from fsnotify
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// handleEvent queues matching dumps that were created or written
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	debug.LogWatch("event %v for %s\n", event.Op, path)

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			// Files may land before the watch is added, so the new tree is scanned too
			if err := w.addWatches(path); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", path, err)
			}
			w.queueExisting(path)
		}
		return
	}

	if !w.Matches(path) {
		debug.LogWatch("ignoring %s (doesn't match %s)\n", path, w.config.Pattern)
		return
	}
	w.debouncer.addEvent(path)
}

// queueExisting queues matching dumps already present under dir
func (w *Watcher) queueExisting(dir string) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if w.Matches(path) {
			w.debouncer.addEvent(path)
		}
		return nil
	})
}

// Matches reports whether path is a dump the watcher renders. Paths are
// matched relative to the root; the watcher's own outputs never match.
func (w *Watcher) Matches(path string) bool {
	if pathutil.IsOutputPath(path, w.config.OutputSuffix) {
		return false
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	matched, err := doublestar.Match(w.config.Pattern, filepath.ToSlash(rel))
	return err == nil && matched
}

func (w *Watcher) renderBatch(paths []string) {
	log.Printf("Rendering %d dump(s)", len(paths))
	for _, path := range paths {
		result := w.Render(path)
		if result.Err != nil {
			log.Printf("Failed to render %s: %v", pathutil.ToRelative(path, w.root), result.Err)
			w.incrementStats(0, 1)
		} else {
			w.incrementStats(1, 0)
		}
		if w.onRendered != nil {
			w.onRendered(result)
		}
	}
}

// Render loads one dump and writes its demystified exceptions next to it
func (w *Watcher) Render(path string) Result {
	result := Result{Source: path}

	d, err := dump.Load(path)
	if err != nil {
		result.Err = err
		return result
	}

	result.Exceptions = len(d.Exceptions)
	result.Output = pathutil.OutputPath(path, w.config.OutputSuffix)
	if err := os.WriteFile(result.Output, []byte(RenderDump(d, w.trace)), 0o644); err != nil {
		result.Err = fmt.Errorf("failed to write %s: %w", result.Output, err)
	}
	return result
}

// RenderDump demystifies every exception of a dump, separated by blank lines
func RenderDump(d *dump.Dump, cfg trace.Config) string {
	dm := trace.New(d.Store, cfg)

	var sb strings.Builder
	for i, ex := range d.Exceptions {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(dm.Demystify(ex))
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// incrementStats updates watch statistics
func (w *Watcher) incrementStats(rendered, errors int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.rendered += rendered
	w.errorCount += errors
	w.lastEventTime = time.Now()
}

// Stats returns current watch statistics
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	return Stats{
		Rendered:      w.rendered,
		ErrorCount:    w.errorCount,
		LastEventTime: w.lastEventTime,
		IsActive:      w.ctx.Err() == nil,
	}
}

// Stats contains statistics about watch operations
type Stats struct {
	Rendered      int64
	ErrorCount    int64
	LastEventTime time.Time
	IsActive      bool
}

// eventDebouncer batches paths so a dump written in several chunks renders once
type eventDebouncer struct {
	mutex    sync.Mutex
	paths    map[string]struct{}
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	inflight sync.WaitGroup
	process  func([]string)
}

func newEventDebouncer(debounce time.Duration, process func([]string)) *eventDebouncer {
	return &eventDebouncer{
		paths:    make(map[string]struct{}),
		debounce: debounce,
		process:  process,
	}
}

// addEvent queues a path and restarts the quiet period
func (d *eventDebouncer) addEvent(path string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.paths[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// flush processes every queued path in sorted order
func (d *eventDebouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.paths) == 0 {
		d.mutex.Unlock()
		return
	}
	d.inflight.Add(1)
	paths := make([]string, 0, len(d.paths))
	for p := range d.paths {
		paths = append(paths, p)
	}
	d.paths = make(map[string]struct{})
	d.mutex.Unlock()

	defer d.inflight.Done()
	sort.Strings(paths)
	d.process(paths)
}

// stop drops pending paths and waits for a running batch
func (d *eventDebouncer) stop() {
	d.mutex.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.paths = make(map[string]struct{})
	d.mutex.Unlock()

	d.inflight.Wait()
}
