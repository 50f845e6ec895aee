// Package watcher reports changes to definition files so the picker can
// reload them in place.
//
// It watches the parent directory of each target with fsnotify (atomic
// saves replace the file, which would drop a watch on the file itself) and
// falls back to stat polling on network filesystems or when forced.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/checktree/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no paths to watch")
)

// sidecarSuffixes are files written next to a SQLite database whose changes
// mean the database changed.
var sidecarSuffixes = []string{"-wal", "-journal"}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked after a burst of changes settles.
// It receives the sorted target paths that changed during the burst.
func WithOnChange(fn func(changed []string)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithAdditionalPaths adds more targets, e.g. every source of a workspace.
func WithAdditionalPaths(paths ...string) Option {
	return func(w *Watcher) { w.extra = append(w.extra, paths...) }
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher monitors one or more files.
type Watcher struct {
	targets          []string
	extra            []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func([]string)
	onError          func(error)
	forcePoll        bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	last        map[string]fileState
	pending     map[string]struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan []string
}

// NewWatcher creates a watcher for path and any WithAdditionalPaths targets.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func([]string) {},
		onError:          func(error) {},
		changeCh:         make(chan []string, 1),
		pending:          make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	seen := make(map[string]bool)
	for _, p := range append([]string{path}, w.extra...) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !seen[abs] {
			seen[abs] = true
			w.targets = append(w.targets, abs)
		}
	}
	if len(w.targets) == 0 {
		return nil, ErrNoPaths
	}

	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.useFallback = w.forcePoll || envBool("CT_FORCE_POLL")

	w.fsType = DetectFilesystemType(w.targets[0])
	for _, t := range w.targets {
		if isRemoteFilesystem(DetectFilesystemType(t)) {
			w.useFallback = true
		}
	}

	w.last = make(map[string]fileState, len(w.targets))
	for _, t := range w.targets {
		info, err := os.Stat(t)
		if err != nil {
			if os.IsPermission(err) {
				return ErrPermission
			}
			// Not created yet; a later Create counts as a change.
			continue
		}
		w.last[t] = fileState{mtime: info.ModTime(), size: info.Size()}
	}

	if !w.useFallback {
		if err := w.startFsnotify(); err != nil {
			debug.Log("watcher: fsnotify unavailable (%v), polling", err)
			w.useFallback = true
		}
	}
	if w.useFallback {
		go w.watchPolling()
	}

	debug.Log("watcher: watching %d file(s), polling=%v fs=%s", len(w.targets), w.useFallback, w.fsType)
	w.started = true
	return nil
}

func (w *Watcher) startFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	for _, t := range w.targets {
		dir := filepath.Dir(t)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return err
		}
		dirs[dir] = true
	}
	w.fsWatcher = fsw
	go w.watchFsnotify(fsw.Events, fsw.Errors)
	return nil
}

// Stop stops watching. The change channel is left open so a receiver blocked
// on Changed is not woken with a zero value.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	clear(w.pending)
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives the changed paths after each
// settled burst. Bursts that arrive while a previous value is unread are
// merged into the next one.
func (w *Watcher) Changed() <-chan []string {
	return w.changeCh
}

// Path returns the primary watched path.
func (w *Watcher) Path() string {
	return w.targets[0]
}

// Paths returns every watched path.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.targets...)
}

// FilesystemType returns the classification of the primary path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// targetFor maps an event path to the target it affects, including SQLite
// sidecar files. Returns "" for unrelated files.
func (w *Watcher) targetFor(name string) string {
	name = filepath.Clean(name)
	for _, t := range w.targets {
		if name == t {
			return t
		}
		for _, s := range sidecarSuffixes {
			if name == t+s {
				return t
			}
		}
	}
	return ""
}

func (w *Watcher) watchFsnotify(events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			target := w.targetFor(event.Name)
			if target == "" {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0 && event.Name == target:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.markChanged(target)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			for _, t := range w.targets {
				w.pollOne(t)
			}
		}
	}
}

func (w *Watcher) pollOne(target string) {
	info, err := os.Stat(target)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			w.mu.Lock()
			_, had := w.last[target]
			delete(w.last, target)
			w.mu.Unlock()
			if had {
				w.onError(ErrFileRemoved)
			}
		case os.IsPermission(err):
			w.onError(ErrPermission)
		default:
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	prev, had := w.last[target]
	changed := !had || info.ModTime().After(prev.mtime) || info.Size() != prev.size
	if changed {
		w.last[target] = fileState{mtime: info.ModTime(), size: info.Size()}
	}
	w.mu.Unlock()

	if changed {
		w.markChanged(target)
	}
}

func (w *Watcher) markChanged(target string) {
	w.mu.Lock()
	w.pending[target] = struct{}{}
	w.mu.Unlock()
	w.debouncer.Trigger(w.notifyChange)
}

func (w *Watcher) notifyChange() {
	w.mu.Lock()
	if !w.started || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	sort.Strings(changed)
	debug.Log("watcher: changed %v", changed)
	w.onChange(changed)

	select {
	case w.changeCh <- changed:
		return
	default:
	}
	// Receiver is behind; merge into the unread value.
	select {
	case prev := <-w.changeCh:
		changed = mergeSorted(prev, changed)
	default:
	}
	select {
	case w.changeCh <- changed:
	default:
	}
}

func mergeSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
