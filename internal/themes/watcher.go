package themes

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Invalidator drops cached theme files.
type Invalidator interface {
	Invalidate(storeID, themeID string)
	InvalidatePath(storeID, themeID, name string)
}

// ChangeCallback is called after the files of a theme change, either on
// disk or through an import.
type ChangeCallback func(storeID, themeID, path string)

// Watcher invalidates cached theme files when the directory tree under root
// changes.
type Watcher struct {
	root     string
	target   Invalidator
	logger   interfaces.Logger
	onChange ChangeCallback
}

// NewWatcher builds a watcher over root.
func NewWatcher(root string, target Invalidator, logger interfaces.Logger, onChange ChangeCallback) *Watcher {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Watcher{root: root, target: target, logger: logger, onChange: onChange}
}

// Run watches until ctx is cancelled. New directories are added to the
// watch list as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("themes.watcher.started", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("themes.watcher.stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("themes.watcher.add_dir_failed", "path", ev.Name, "error", addErr)
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handle(ev.Name)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("themes.watcher.error", "error", watchErr)
		}
	}
}

func (w *Watcher) handle(absPath string) {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return
	}
	storeID, themeID, rest, ok := splitThemePath(filepath.ToSlash(rel))
	if !ok {
		return
	}
	if rest == "" {
		w.target.Invalidate(storeID, themeID)
	} else {
		w.target.InvalidatePath(storeID, themeID, rest)
	}
	w.logger.Debug("themes.watcher.invalidated", "store_id", storeID, "theme_id", themeID, "path", rest)
	if w.onChange != nil {
		w.onChange(storeID, themeID, rest)
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
