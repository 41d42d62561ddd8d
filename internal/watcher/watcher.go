// Package watcher provides recursive file system watching for the
// service registry directory.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const defaultChannelBuffer = 64

// Watcher monitors a directory tree and delivers per-file change
// notifications on three independent channels: creates, modifies and
// deletes. Subdirectories created while watching are picked up
// automatically.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string

	creates  chan string
	modifies chan string
	deletes  chan string

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a watcher for the given root directory.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      root,
		creates:   make(chan string, defaultChannelBuffer),
		modifies:  make(chan string, defaultChannelBuffer),
		deletes:   make(chan string, defaultChannelBuffer),
		done:      make(chan struct{}),
	}, nil
}

// Start registers the root directory tree with the OS watch handle and
// begins dispatching events.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsWatcher.Add(path); addErr != nil {
			return fmt.Errorf("watching directory %s: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		// Release the OS watch handle so a failed start does not leak
		// a descriptor.
		_ = w.fsWatcher.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop()

	return nil
}

// Creates returns the channel delivering created file paths.
func (w *Watcher) Creates() <-chan string { return w.creates }

// Modifies returns the channel delivering modified file paths.
func (w *Watcher) Modifies() <-chan string { return w.modifies }

// Deletes returns the channel delivering deleted file paths.
func (w *Watcher) Deletes() <-chan string { return w.deletes }

// Stop terminates the watcher and releases the OS watch handle.
// When Stop returns, no further notifications will be delivered.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
		close(w.creates)
		close(w.modifies)
		close(w.deletes)
	})
	return err
}

// loop dispatches fsnotify events onto the typed channels.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.dispatch(event)

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// Keep watching; transient errors are not fatal.

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) dispatch(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		// New directories join the watch so the tree stays covered.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fsWatcher.Add(event.Name)
			return
		}
		w.send(w.creates, event.Name)

	case event.Op.Has(fsnotify.Write):
		w.send(w.modifies, event.Name)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.send(w.deletes, event.Name)
	}
}

// send blocks until the consumer accepts the path or the watcher is
// stopped. Delivery is at-least-once; nothing is dropped under bursts.
func (w *Watcher) send(ch chan string, path string) {
	select {
	case ch <- path:
	case <-w.done:
	}
}
