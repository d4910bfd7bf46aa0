// Package watch re-runs a function whenever files under a directory change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last event before a run starts.
const DefaultDebounce = 500 * time.Millisecond

// SkipFunc reports whether a change to rel, a slash separated path relative to
// the watched root, should be ignored.
type SkipFunc func(rel string) bool

// Watcher watches a directory tree. Runs are serialized: at most one is in
// flight and changes arriving meanwhile collapse into a single pending run.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	log      logrus.FieldLogger
	skip     SkipFunc
}

// New starts watching root and every directory below it.
func New(root string, debounce time.Duration, log logrus.FieldLogger, skip SkipFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if skip == nil {
		skip = func(string) bool { return false }
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	w := &Watcher{fs: fw, root: root, debounce: debounce, log: log, skip: skip}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}

// Run calls fn after each burst of relevant changes until ctx is done. Errors
// from fn are logged and do not stop the loop. Run waits for an in-flight call
// before returning.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	trigger := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				w.log.Info("change detected, re-running import")
				if err := fn(ctx); err != nil {
					w.log.WithError(err).Error("re-run failed")
				}
			}
		}
	}()
	defer wg.Wait()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case trigger <- struct{}{}:
			default:
				// a run is already pending
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	if w.skip(filepath.ToSlash(rel)) {
		return false
	}

	log := w.log.WithFields(logrus.Fields{"file": rel, "op": event.Op.String()})
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			log.WithError(err).Warn("failed to watch new directory")
		}
	}
	log.Debug("change")
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
