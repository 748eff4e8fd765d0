package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch event kinds.
const (
	ChangeCreated    = "created"
	ChangeUpdated    = "updated"
	ChangeDeleted    = "deleted"
	ChangeReconciled = "reconciled"
)

const reconcileDelay = 200 * time.Millisecond

// ChangeCallback is called after a note file in the vault changes on disk.
// id is empty for ChangeReconciled.
type ChangeCallback func(kind, id string)

// Watch observes the vault root with fsnotify until ctx is cancelled and
// reports note file changes to cb. Temp files written by FS are ignored.
//
// fsnotify reports a rename only for the old name, so renames are reported
// as deletions followed by a debounced ChangeReconciled once the burst of
// events settles.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	emit := func(kind, id string) {
		if cb != nil {
			cb(kind, id)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			logger.Debug("watcher: reconcile")
			emit(ChangeReconciled, "")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if !isNoteFile(name) {
				continue
			}
			id := idFromPath(name)

			switch {
			case ev.Op&fsnotify.Create != 0:
				logger.Debug("watcher: created", slog.String("id", id))
				emit(ChangeCreated, id)
			case ev.Op&fsnotify.Write != 0:
				logger.Debug("watcher: updated", slog.String("id", id))
				emit(ChangeUpdated, id)
			case ev.Op&fsnotify.Remove != 0:
				logger.Debug("watcher: deleted", slog.String("id", id))
				emit(ChangeDeleted, id)
			case ev.Op&fsnotify.Rename != 0:
				logger.Debug("watcher: renamed away", slog.String("id", id))
				emit(ChangeDeleted, id)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
