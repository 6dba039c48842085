// Package watch uploads files dropped into a local folder. A filesystem
// watcher notices new or rewritten files, waits for writes to settle, and
// hands each file to a bounded upload pool.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/logger"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

// DefaultSettle is how long a file must go without writes before upload.
const DefaultSettle = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	// Dir is the folder to watch. Subfolders are not watched.
	Dir string

	// Pool receives upload jobs.
	Pool *Pool

	// DefaultType is the content type for files that are not recognized
	// videos.
	DefaultType string

	// Tags and Category are applied to every uploaded file.
	Tags     []string
	Category string

	// Existing also uploads files already present when Run starts.
	Existing bool

	// Settle overrides DefaultSettle.
	Settle time.Duration

	Logger *slog.Logger
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// Watcher turns filesystem events into upload jobs.
type Watcher struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	queued  map[string]fileStamp
	ready   chan string
	done    chan struct{}
	skipped int
}

// New validates cfg and returns a Watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Pool == nil {
		return nil, errors.New("upload pool is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch folder %s is not a directory", cfg.Dir)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.DefaultType == "" {
		cfg.DefaultType = client.TypeDocument
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Watcher{
		config: cfg,
		logger: cfg.Logger,
		timers: map[string]*time.Timer{},
		queued: map[string]fileStamp{},
		ready:  make(chan string, 64),
		done:   make(chan struct{}),
	}, nil
}

// Run watches until ctx is done. It does not close the pool. A Watcher
// runs once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating folder watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.config.Dir, err)
	}
	defer w.stopTimers()

	if w.config.Existing {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	w.logger.Info("watching folder", "dir", w.config.Dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule(event.Name)
		case path := <-w.ready:
			w.submit(ctx, path, false)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("folder watcher error: %w", err)
		}
	}
}

// Skipped returns the number of files that were not queued.
func (w *Watcher) Skipped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipped
}

// scan queues every file already in the folder, waiting for queue space
// rather than dropping files.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.config.Dir, err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !e.IsDir() {
			w.submit(ctx, filepath.Join(w.config.Dir, e.Name()), true)
		}
	}
	return nil
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	if ignored(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.config.Settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.config.Settle, func() { w.fire(path) })
}

// fire hands a settled path to Run, or drops it once Run has returned.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	w.mu.Unlock()

	select {
	case w.ready <- path:
	case <-w.done:
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// submit queues path for upload. With wait set it blocks for queue space.
func (w *Watcher) submit(ctx context.Context, path string, wait bool) {
	if ignored(path) {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	prev, seen := w.queued[path]
	w.mu.Unlock()
	if seen && prev == stamp {
		return
	}

	if err := upload.ValidateSize(info.Name(), info.Size()); err != nil {
		w.skip("skipping file", path, err)
		return
	}

	job := Job{Path: path, Metadata: w.metadata(path)}
	if wait {
		if !w.config.Pool.EnqueueWait(ctx, job) {
			return
		}
	} else if !w.config.Pool.Enqueue(job) {
		w.skip("upload queue full", path, nil)
		return
	}

	w.mu.Lock()
	w.queued[path] = stamp
	w.mu.Unlock()
}

func (w *Watcher) skip(msg, path string, err error) {
	w.mu.Lock()
	w.skipped++
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn(msg, "path", path, "error", err)
		return
	}
	w.logger.Warn(msg, "path", path)
}

// metadata derives upload metadata from a file name.
func (w *Watcher) metadata(path string) client.Metadata {
	m := client.MetadataFromFilename(path, w.config.DefaultType)
	m.Category = w.config.Category
	m.Tags = w.config.Tags
	return m
}

// ignored filters hidden files and editor or download temp files.
func ignored(path string) bool {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "."):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
