package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pkgz/fileutils"
)

// ReloadPhrases loads extra spam phrases from the phrases file. A missing file clears them.
func (f *Filter) ReloadPhrases() error {
	if f.params.PhrasesFile == "" {
		return nil
	}
	var rd io.Reader = bytes.NewReader(nil)
	if fileutils.IsFile(f.params.PhrasesFile) {
		data, err := os.ReadFile(f.params.PhrasesFile)
		if err != nil {
			return fmt.Errorf("failed to read phrases file %q: %w", f.params.PhrasesFile, err)
		}
		rd = bytes.NewReader(data)
	} else {
		log.Printf("[DEBUG] phrases file %q not found", f.params.PhrasesFile)
	}

	count, err := f.LoadPhrases(rd)
	if err != nil {
		return fmt.Errorf("failed to load phrases: %w", err)
	}
	log.Printf("[INFO] loaded %d extra spam phrases from %s", count, f.params.PhrasesFile)
	return nil
}

// watch reloads phrases on file change.
// delay is a time to wait after the last change before reloading, editors often write in a few steps.
func (f *Filter) watch(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		delay = time.Second
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.params.PhrasesFile); err != nil {
		return fmt.Errorf("failed to add %q to watcher: %w", f.params.PhrasesFile, err)
	}
	log.Printf("[DEBUG] watching phrases file %q", f.params.PhrasesFile)

	reloadTimer := time.NewTimer(delay)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for phrases: %v", ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.Printf("[DEBUG] file %q updated, op: %v", event.Name, event.Op)
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// file replaced by rename, watch the new one
				if e := watcher.Add(f.params.PhrasesFile); e != nil {
					log.Printf("[WARN] can't re-add %q to watcher: %v", f.params.PhrasesFile, e)
				}
			}
			reloadTimer.Reset(delay)
		case <-reloadTimer.C:
			if err := f.ReloadPhrases(); err != nil {
				log.Printf("[WARN] %v", err)
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		}
	}
}
