package themes

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestMemoryProviderReadAndList(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	if err := p.PutAll("store-1", "dawn", map[string]string{
		"sections/header.tmpl":  "<header></header>",
		"/sections/footer.tmpl": "<footer></footer>",
		"layout/theme.tmpl":     "{{ content_for_layout }}",
	}); err != nil {
		t.Fatalf("PutAll() error: %v", err)
	}

	data, err := p.Read(ctx, "store-1", "dawn", "sections/footer.tmpl")
	if err != nil || string(data) != "<footer></footer>" {
		t.Fatalf("unexpected read %q (%v)", data, err)
	}

	if _, err := p.Read(ctx, "store-1", "dawn", "sections/missing.tmpl"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := p.Read(ctx, "store-2", "dawn", "sections/header.tmpl"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected other stores to be isolated, got %v", err)
	}

	names, err := p.List(ctx, "store-1", "dawn", "sections/")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if strings.Join(names, ",") != "sections/footer.tmpl,sections/header.tmpl" {
		t.Fatalf("unexpected listing %v", names)
	}

	p.Delete("store-1", "dawn", "sections/footer.tmpl")
	if _, err := p.Read(ctx, "store-1", "dawn", "sections/footer.tmpl"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected deleted file to be missing, got %v", err)
	}
}

func TestCleanPathRejectsTraversal(t *testing.T) {
	cases := map[string]error{
		"../secrets.json":       ErrTraversalDetected,
		"sections/../../x.tmpl": ErrTraversalDetected,
		" ":                     ErrPathRequired,
		"/":                     ErrPathRequired,
	}
	for input, want := range cases {
		if _, err := CleanPath(input); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", input, want, err)
		}
	}
	if got, err := CleanPath(`sections\header.tmpl`); err != nil || got != "sections/header.tmpl" {
		t.Fatalf("unexpected clean path %q (%v)", got, err)
	}
}

func TestFSProviderReadsStoreThemeTree(t *testing.T) {
	ctx := context.Background()
	p := FSProvider{FS: fstest.MapFS{
		"store-1/dawn/templates/index.json":    {Data: []byte(`{"sections":{},"order":[]}`)},
		"store-1/dawn/sections/header.tmpl":    {Data: []byte("<header></header>")},
		"store-1/dawn/sections/hero.tmpl":      {Data: []byte("<section></section>")},
		"store-1/other/sections/header.tmpl":   {Data: []byte("other")},
		"store-1/dawn/assets/base.css":         {Data: []byte("body{}")},
		"store-1/dawn/locales/en.default.json": {Data: []byte(`{}`)},
	}}

	data, err := p.Read(ctx, "store-1", "dawn", "sections/header.tmpl")
	if err != nil || string(data) != "<header></header>" {
		t.Fatalf("unexpected read %q (%v)", data, err)
	}
	if _, err := p.Read(ctx, "store-1", "dawn", "templates/product.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := p.Read(ctx, "store-1", "..", "x"); !errors.Is(err, ErrTraversalDetected) {
		t.Fatalf("expected traversal error, got %v", err)
	}

	names, err := p.List(ctx, "store-1", "dawn", "sections/")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if strings.Join(names, ",") != "sections/header.tmpl,sections/hero.tmpl" {
		t.Fatalf("unexpected listing %v", names)
	}

	names, err = p.List(ctx, "store-9", "dawn", "")
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty listing for unknown store, got %v (%v)", names, err)
	}
}

type countingProvider struct {
	*MemoryProvider
	reads int
}

func (c *countingProvider) Read(ctx context.Context, storeID, themeID, name string) ([]byte, error) {
	c.reads++
	return c.MemoryProvider.Read(ctx, storeID, themeID, name)
}

func TestCachedProviderMemoizesHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingProvider{MemoryProvider: NewMemoryProvider()}
	_ = inner.Put("s", "t", "sections/a.tmpl", []byte("a"))

	cached := NewCachedProvider(inner, 0)
	for i := 0; i < 3; i++ {
		if data, err := cached.Read(ctx, "s", "t", "sections/a.tmpl"); err != nil || string(data) != "a" {
			t.Fatalf("unexpected read %q (%v)", data, err)
		}
		if _, err := cached.Read(ctx, "s", "t", "sections/missing.tmpl"); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected cached miss, got %v", err)
		}
	}
	if inner.reads != 2 {
		t.Fatalf("expected 2 underlying reads, got %d", inner.reads)
	}

	_ = inner.Put("s", "t", "sections/a.tmpl", []byte("b"))
	cached.InvalidatePath("s", "t", "sections/a.tmpl")
	if data, _ := cached.Read(ctx, "s", "t", "sections/a.tmpl"); string(data) != "b" {
		t.Fatalf("expected fresh content after invalidation, got %q", data)
	}

	cached.Invalidate("s", "t")
	if cached.Len() != 0 {
		t.Fatalf("expected empty cache after theme invalidation, got %d", cached.Len())
	}
}

func TestCachedProviderExpiresEntries(t *testing.T) {
	ctx := context.Background()
	inner := &countingProvider{MemoryProvider: NewMemoryProvider()}
	_ = inner.Put("s", "t", "a.tmpl", []byte("a"))

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cached := NewCachedProvider(inner, time.Minute)
	cached.now = func() time.Time { return now }

	_, _ = cached.Read(ctx, "s", "t", "a.tmpl")
	_, _ = cached.Read(ctx, "s", "t", "a.tmpl")
	now = now.Add(2 * time.Minute)
	_, _ = cached.Read(ctx, "s", "t", "a.tmpl")

	if inner.reads != 2 {
		t.Fatalf("expected expiry to trigger a second read, got %d", inner.reads)
	}
}

type recordingInvalidator struct {
	themes []string
	paths  []string
}

func (r *recordingInvalidator) Invalidate(storeID, themeID string) {
	r.themes = append(r.themes, storeID+"/"+themeID)
}

func (r *recordingInvalidator) InvalidatePath(storeID, themeID, name string) {
	r.paths = append(r.paths, storeID+"/"+themeID+"/"+name)
}

func TestWatcherMapsPathsToThemes(t *testing.T) {
	root := t.TempDir()
	target := &recordingInvalidator{}
	var changed []string
	w := NewWatcher(root, target, nil, func(storeID, themeID, path string) {
		changed = append(changed, storeID+":"+themeID+":"+path)
	})

	w.handle(filepath.Join(root, "store-1", "dawn", "sections", "header.tmpl"))
	w.handle(filepath.Join(root, "store-1", "dawn"))
	w.handle(filepath.Join(root, "store-1"))

	if len(target.paths) != 1 || target.paths[0] != "store-1/dawn/sections/header.tmpl" {
		t.Fatalf("unexpected path invalidations %v", target.paths)
	}
	if len(target.themes) != 1 || target.themes[0] != "store-1/dawn" {
		t.Fatalf("unexpected theme invalidations %v", target.themes)
	}
	if len(changed) != 2 {
		t.Fatalf("expected two change callbacks, got %v", changed)
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWatcher(t.TempDir(), &recordingInvalidator{}, nil, nil)
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestProviderFSExposesThemeTree(t *testing.T) {
	p := NewMemoryProvider()
	_ = p.PutAll("s", "t", map[string]string{
		"theme.json":            `{"name":"dawn"}`,
		"sections/header.tmpl":  "h",
		"sections/footer.tmpl":  "f",
		"snippets/icons/a.tmpl": "a",
	})
	fsys := NewProviderFS(context.Background(), p, "s", "t")

	data, err := fs.ReadFile(fsys, "theme.json")
	if err != nil || string(data) != `{"name":"dawn"}` {
		t.Fatalf("unexpected read %q (%v)", data, err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if strings.Join(names, ",") != "sections,snippets,theme.json" {
		t.Fatalf("unexpected root entries %v", names)
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %v", files)
	}

	if _, err := fsys.Open("missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestDescriptorSelectorWithoutManifest(t *testing.T) {
	var nilSelector *DescriptorSelector
	if d, err := nilSelector.Select(context.Background(), &Theme{}, ""); d != nil || err != nil {
		t.Fatalf("expected nil descriptor from nil selector")
	}

	selector := NewDescriptorSelector(NewMemoryProvider(), "light")
	d, err := selector.Select(context.Background(), &Theme{StoreID: "s", Handle: "t"}, "")
	if err != nil || d != nil {
		t.Fatalf("expected no descriptor for theme without manifest, got %v (%v)", d, err)
	}
	if d, err := selector.Select(context.Background(), nil, ""); d != nil || err != nil {
		t.Fatalf("expected nil descriptor for nil theme")
	}
}
