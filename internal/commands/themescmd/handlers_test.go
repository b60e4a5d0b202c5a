package themescmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/internal/themes"
)

type recordingImporter struct {
	theme *themes.Theme
	files map[string][]byte
}

func (r *recordingImporter) Import(_ context.Context, theme *themes.Theme, files map[string][]byte) error {
	r.theme = theme
	r.files = files
	return nil
}

func TestReadThemeDirSkipsHiddenEntries(t *testing.T) {
	files, err := ReadThemeDir(fstest.MapFS{
		"layout/theme.tmpl":    {Data: []byte("layout")},
		"templates/index.json": {Data: []byte("{}")},
		".git/config":          {Data: []byte("x")},
		"sections/.DS_Store":   {Data: []byte("x")},
		"sections/header.tmpl": {Data: []byte("header")},
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(files) != 3 || string(files["sections/header.tmpl"]) != "header" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestImportThemeHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "templates", "index.tmpl"), []byte("home"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	importer := &recordingImporter{}
	count := 0
	err := NewImportThemeHandler(importer, nil).Execute(context.Background(), ImportThemeCommand{
		StoreID:  "acme",
		ThemeID:  "dawn",
		Role:     themes.RoleMain,
		Dir:      dir,
		Imported: func(n int) { count = n },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if count != 1 || string(importer.files["templates/index.tmpl"]) != "home" {
		t.Fatalf("unexpected import %d %v", count, importer.files)
	}
	if importer.theme.Handle != "dawn" || importer.theme.Name != "dawn" || importer.theme.Role != themes.RoleMain {
		t.Fatalf("unexpected theme %+v", importer.theme)
	}
}

func TestImportThemeValidation(t *testing.T) {
	err := NewImportThemeHandler(&recordingImporter{}, nil).Execute(context.Background(), ImportThemeCommand{
		StoreID: "acme",
		ThemeID: "dawn",
		Dir:     t.TempDir(),
		Role:    "archived",
	})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}

	err = NewImportThemeHandler(&recordingImporter{}, nil).Execute(context.Background(), ImportThemeCommand{
		StoreID: "acme",
		ThemeID: "dawn",
		Dir:     t.TempDir(),
	})
	if !errors.Is(err, ErrEmptyTheme) {
		t.Fatalf("expected empty theme error, got %v", err)
	}
}
