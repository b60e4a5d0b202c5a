package themescmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-storefront/internal/commands"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/themes"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var (
	ErrImporterRequired = errors.New("themescmd: theme importer required")
	ErrEmptyTheme       = errors.New("themescmd: theme directory holds no files")
)

// Importer stores a theme record and its files.
type Importer interface {
	Import(ctx context.Context, theme *themes.Theme, files map[string][]byte) error
}

// ImportThemeHandler imports theme directories through the shared command handler.
type ImportThemeHandler struct {
	inner *commands.Handler[ImportThemeCommand]
}

// NewImportThemeHandler constructs a handler wired to importer.
func NewImportThemeHandler(importer Importer, logger interfaces.Logger, opts ...commands.HandlerOption[ImportThemeCommand]) *ImportThemeHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportThemeCommand) error {
		if importer == nil {
			return ErrImporterRequired
		}
		files, err := ReadThemeDir(os.DirFS(msg.Dir))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyTheme, msg.Dir)
		}
		if err := importer.Import(ctx, msg.theme(), files); err != nil {
			return err
		}
		baseLogger.Info("themes.import.complete", "store_id", msg.StoreID, "theme_id", msg.ThemeID, "files", len(files))
		if msg.Imported != nil {
			msg.Imported(len(files))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportThemeCommand]{
		commands.WithLogger[ImportThemeCommand](baseLogger),
		commands.WithOperation[ImportThemeCommand]("themes.import"),
		commands.WithTimeout[ImportThemeCommand](0),
		commands.WithMessageFields(func(msg ImportThemeCommand) map[string]any {
			return map[string]any{"store_id": msg.StoreID, "theme_id": msg.ThemeID, "dir": msg.Dir}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportThemeHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ImportThemeCommand].Execute.
func (h *ImportThemeHandler) Execute(ctx context.Context, msg ImportThemeCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ReadThemeDir collects the files of a theme tree. Hidden entries are skipped.
func ReadThemeDir(fsys fs.FS) (map[string][]byte, error) {
	files := map[string][]byte{}
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name != "." && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		files[name] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("themescmd: read theme: %w", err)
	}
	return files, nil
}
