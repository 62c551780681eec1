// Package watch reports changes to a fixed set of files.
//
// Bursts of file system events are debounced:
// a file is reported once things have been quiet for the debounce period.
package watch

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the debounce period used if [Config.Debounce] is unset.
const DefaultDebounce = 100 * time.Millisecond

// Config configures a [Watcher].
type Config struct {
	// Paths of files to watch.
	// The files need not exist yet but their directories must.
	Paths []string

	// Debounce is how long to wait after the last event for a file
	// before reporting it.
	Debounce time.Duration

	// Log receives watch errors. Defaults to discarding them.
	Log *log.Logger
}

// Watcher watches files for changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	paths    map[string]struct{} // absolute paths
	dirs     []string
	debounce time.Duration
	log      *log.Logger

	startOnce sync.Once
	closeOnce sync.Once
	changes   chan string
	done      chan struct{}
	stopped   chan struct{}
}

// New builds a Watcher for the files in cfg.
// Call Start to begin watching, and Close when done.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, errtrace.New("no files to watch")
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	dirSet := make(map[string]struct{})
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		paths[abs] = struct{}{}
		dirSet[filepath.Dir(abs)] = struct{}{}
	}
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errtrace.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		fsw:      fsw,
		paths:    paths,
		dirs:     dirs,
		debounce: debounce,
		log:      logger,
		changes:  make(chan string, len(paths)),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins watching.
// It returns a channel that receives the absolute path of each file
// that changed.
// The channel is closed when ctx ends or the Watcher is closed.
//
// Start may only be called once.
func (w *Watcher) Start(ctx context.Context) (<-chan string, error) {
	started := false
	w.startOnce.Do(func() { started = true })
	if !started {
		return nil, errtrace.New("watcher already started")
	}

	// Directories are watched instead of the files
	// so that files replaced by a rename are still seen.
	for _, dir := range w.dirs {
		if err := w.fsw.Add(dir); err != nil {
			close(w.stopped)
			return nil, errtrace.Errorf("watch %v: %w", dir, err)
		}
	}

	go w.loop(ctx)
	return w.changes, nil
}

// Close stops the Watcher and releases its resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		// Don't return until the loop has exited if it was started.
		w.startOnce.Do(func() { close(w.stopped) })
		<-w.stopped
	})
	return errtrace.Wrap(err)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)
	defer close(w.changes)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			path, ok := w.relevant(ev)
			if !ok {
				continue
			}
			pending[path] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			for _, path := range sortedKeys(pending) {
				select {
				case w.changes <- path:
				case <-ctx.Done():
					return
				case <-w.done:
					return
				}
			}
			clear(pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Printf("watch: %v", err)

		case <-ctx.Done():
			return

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	path := filepath.Clean(ev.Name)
	if _, ok := w.paths[path]; !ok {
		return "", false
	}
	return path, true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
