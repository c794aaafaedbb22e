package ops

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/logger"
)

// watchDebounce is how long a file must stay quiet before it is imported.
const watchDebounce = 250 * time.Millisecond

// WatchInput contains parameters for the Watch operation.
type WatchInput struct {
	Dir string // optional, default: ~/.focusflow/exports

	// OnImport, if set, is called after every import attempt.
	OnImport func(path string, out *ImportOutput, err error)
}

// Watch imports any export document created or rewritten in Dir until ctx
// is cancelled. Files are imported once writes to them have settled.
func Watch(ctx context.Context, database *sql.DB, cfg *config.Config, log *logger.Logger, input WatchInput) error {
	if log == nil {
		log = logger.Nop()
	}
	dir := input.Dir
	if dir == "" {
		d, err := DefaultExportsDir()
		if err != nil {
			return err
		}
		dir = d
	}
	if err := ValidateDir(dir, cfg); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info("watching for exports", "dir", dir)

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !importCandidate(event) {
				continue
			}
			path := event.Name
			if t, found := timers[path]; found {
				t.Reset(watchDebounce)
				continue
			}
			timers[path] = time.AfterFunc(watchDebounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			out, err := Import(ctx, database, cfg, ImportInput{Path: path})
			if err != nil {
				log.Warn("import failed", "path", path, "error", err)
			} else {
				log.Info("imported", "path", path, "notes", out.Imported, "replaced", out.Replaced)
			}
			if input.OnImport != nil {
				input.OnImport(path, out, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func importCandidate(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ExtJSON)
}
