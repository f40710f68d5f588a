// Package watch reports when a log file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of write events a writer produces
// while it re-aligns a table.
const DefaultDebounce = 100 * time.Millisecond

// Follow calls onChange once immediately and again after every change to
// the file at path, until ctx is cancelled or onChange fails. The parent
// directory is watched so the file may be created or replaced while
// Follow runs.
func Follow(ctx context.Context, path string, debounce time.Duration, onChange func() error) error {
	path = filepath.Clean(path)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	if err := onChange(); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch %s: %v", path, err)

		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}
