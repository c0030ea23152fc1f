package codebase

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher keeps a Codebase in sync with the files on disk.
type FileWatcher struct {
	codebase *Codebase
	watcher  *fsnotify.Watcher
	done     chan struct{}

	// OnChange is called after a changed path has been reloaded.
	OnChange func(path string)
}

func NewFileWatcher(c *Codebase) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &FileWatcher{
		codebase: c,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start watches every directory of the project and processes events in the
// background until Stop is called.
func (w *FileWatcher) Start() error {
	if err := w.addTree(w.codebase.RootDir()); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *FileWatcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// scanTree loads every file below root that is already on disk.
func (w *FileWatcher) scanTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && w.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if err := w.codebase.ScanFile(path); err != nil {
			log.Warningf("watcher: %s", err)
		}
		return nil
	})
}

func (w *FileWatcher) skipDir(path string) bool {
	name := filepath.Base(path)
	switch name {
	case "build", "out", "target", "bin", "node_modules":
		return true
	}
	return strings.HasPrefix(name, ".") || w.codebase.project.Ignored(path)
}

func (w *FileWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warningf("watcher: %s", err)
		}
	}
}

func (w *FileWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	log.Debugf("watcher: %s", event)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.codebase.RemoveFile(path)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.skipDir(path) {
				return
			}
			if err := w.addTree(path); err != nil {
				log.Warningf("watcher: %s", err)
			}
			// The directory may arrive with content, e.g. from a checkout.
			w.scanTree(path)
		} else if err := w.codebase.ScanFile(path); err != nil {
			log.Warningf("watcher: %s", err)
			return
		}
	default:
		return
	}

	if w.OnChange != nil {
		w.OnChange(path)
	}
}
