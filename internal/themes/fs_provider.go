package themes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// FSProvider reads theme trees laid out as <store>/<theme>/<path> from an
// fs.FS.
type FSProvider struct {
	FS fs.FS
	// Root is the on-disk directory backing FS, when there is one. The
	// watcher uses it.
	Root string
}

var (
	_ interfaces.FileProvider = FSProvider{}
	_ interfaces.FileLister   = FSProvider{}
)

// NewFSProvider returns a provider rooted at dir on disk.
func NewFSProvider(dir string) FSProvider {
	return FSProvider{FS: os.DirFS(dir), Root: dir}
}

func (p FSProvider) Read(ctx context.Context, storeID, themeID, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := p.resolve(storeID, themeID, name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(p.FS, full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Resource: "theme file", Key: full}
		}
		return nil, fmt.Errorf("themes: read %s: %w", full, err)
	}
	return data, nil
}

func (p FSProvider) List(ctx context.Context, storeID, themeID, prefix string) ([]string, error) {
	if p.FS == nil {
		return nil, fmt.Errorf("themes: filesystem provider not configured")
	}
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	base := path.Join(storeID, themeID)
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")

	var out []string
	err := fs.WalkDir(p.FS, base, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(name, base+"/")
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (p FSProvider) resolve(storeID, themeID, name string) (string, error) {
	if p.FS == nil {
		return "", fmt.Errorf("themes: filesystem provider not configured")
	}
	if err := validateTheme(storeID, themeID); err != nil {
		return "", err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return "", err
	}
	return path.Join(strings.TrimSpace(storeID), strings.TrimSpace(themeID), clean), nil
}
