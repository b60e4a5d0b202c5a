package themes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// ProviderFS exposes one theme of a FileProvider as an fs.FS. Directory
// listings need the provider to implement interfaces.FileLister.
type ProviderFS struct {
	ctx      context.Context
	provider interfaces.FileProvider
	storeID  string
	themeID  string
}

var (
	_ fs.FS         = ProviderFS{}
	_ fs.ReadFileFS = ProviderFS{}
)

// NewProviderFS scopes provider to a single theme.
func NewProviderFS(ctx context.Context, provider interfaces.FileProvider, storeID, themeID string) ProviderFS {
	if ctx == nil {
		ctx = context.Background()
	}
	return ProviderFS{ctx: ctx, provider: provider, storeID: storeID, themeID: themeID}
}

func (p ProviderFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, err := p.provider.Read(p.ctx, p.storeID, p.themeID, name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (p ProviderFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name != "." {
		data, err := p.provider.Read(p.ctx, p.storeID, p.themeID, name)
		if err == nil {
			return &memFile{name: path.Base(name), reader: bytes.NewReader(data), size: int64(len(data))}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}

	entries, err := p.dirEntries(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if len(entries) == 0 && name != "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memDir{name: path.Base(name), entries: entries}, nil
}

func (p ProviderFS) dirEntries(dir string) ([]fs.DirEntry, error) {
	lister, ok := p.provider.(interfaces.FileLister)
	if !ok {
		return nil, nil
	}
	prefix := ""
	if dir != "." {
		prefix = dir + "/"
	}
	names, err := lister.List(p.ctx, p.storeID, p.themeID, prefix)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var entries []fs.DirEntry
	for _, name := range names {
		rest := strings.TrimPrefix(name, prefix)
		if rest == "" {
			continue
		}
		child, _, isDir := strings.Cut(rest, "/")
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = isDir
		entries = append(entries, memEntry{name: child, dir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

type memFile struct {
	name   string
	reader *bytes.Reader
	size   int64
}

func (f *memFile) Stat() (fs.FileInfo, error) { return memInfo{name: f.name, size: f.size}, nil }
func (f *memFile) Read(b []byte) (int, error) { return f.reader.Read(b) }
func (f *memFile) Close() error               { return nil }

type memDir struct {
	name    string
	entries []fs.DirEntry
	offset  int
}

func (d *memDir) Stat() (fs.FileInfo, error) { return memInfo{name: d.name, dir: true}, nil }
func (d *memDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}
func (d *memDir) Close() error { return nil }

func (d *memDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.offset += n
	return remaining[:n], nil
}

type memEntry struct {
	name string
	dir  bool
}

func (e memEntry) Name() string               { return e.name }
func (e memEntry) IsDir() bool                { return e.dir }
func (e memEntry) Type() fs.FileMode          { return memInfo{dir: e.dir}.Mode().Type() }
func (e memEntry) Info() (fs.FileInfo, error) { return memInfo{name: e.name, dir: e.dir}, nil }

type memInfo struct {
	name string
	size int64
	dir  bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
