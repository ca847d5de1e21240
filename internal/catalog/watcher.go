package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads the store when a catalog file changes on disk.
type Watcher struct {
	store    *Store
	onReload func(*Catalog)
	debounce time.Duration
	logger   zerolog.Logger
}

func NewWatcher(store *Store, onReload func(*Catalog), logger zerolog.Logger) *Watcher {
	return &Watcher{
		store:    store,
		onReload: onReload,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

func isCatalogFile(name string) bool {
	base := filepath.Base(name)
	return base == QuestionsFile || base == CharactersFile
}

// Run blocks until ctx is cancelled. Editors often write a file in several
// steps, so bursts of events collapse into one reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.store.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.store.dir, err)
	}

	timer := time.NewTimer(w.debounce)
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
			if !isCatalogFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("catalog file changed")
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("catalog watcher error")
		case <-timer.C:
			c := w.store.Reload()
			if w.onReload != nil {
				w.onReload(c)
			}
		}
	}
}
