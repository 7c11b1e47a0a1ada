// Package watch signals repository changes so the UI can refresh its diffs.
//
// A Watcher observes the worktree recursively plus the .git directory itself (for index, HEAD,
// and merge-state changes made by other tools). Bursts of filesystem events are coalesced into
// single notifications on Events.
package watch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a change notification fires.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration // Coalescing window. <= 0 means DefaultDebounce.
	Logger   *slog.Logger  // Optional debug logger.
}

// Watcher emits a notification on Events after repository files change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	gitDir   string
	debounce time.Duration
	logger   *slog.Logger
	events   chan struct{}
	done     chan struct{}
}

// New starts watching the repository rooted at root. Callers must Close the returned Watcher.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		gitDir:   filepath.Join(root, ".git"),
		debounce: debounce,
		logger:   logger,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	// The .git directory is watched non-recursively: index, HEAD, and MERGE_HEAD
	// live at its top level, and watching the object store would be pure noise.
	if info, err := os.Stat(w.gitDir); err == nil && info.IsDir() {
		if err := fsw.Add(w.gitDir); err != nil {
			w.logger.Warn("watch .git", "err", err)
		}
	}

	go w.run()
	return w, nil
}

// Events delivers one value per coalesced burst of changes. The channel has capacity 1;
// notifications that arrive while one is pending are dropped, not queued. It is closed
// when the watcher shuts down.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != dir {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch dir", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.events)

	var timer *time.Timer
	var firing <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				firing = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-firing:
			timer = nil
			firing = nil
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch", "err", err)

		case <-w.done:
			return
		}
	}
}

// relevant reports whether ev should trigger a refresh. Lock files are git's own write
// staging and never represent a settled state; inside .git only index, HEAD, and
// MERGE_HEAD matter.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasSuffix(ev.Name, ".lock") {
		return false
	}

	rel, err := filepath.Rel(w.gitDir, ev.Name)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		switch rel {
		case "index", "HEAD", "MERGE_HEAD":
			return true
		}
		return false
	}
	return true
}
