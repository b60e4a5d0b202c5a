package themes

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// MemoryProvider keeps theme trees in memory. Used by tests and the
// "memory" provider setting.
type MemoryProvider struct {
	mu    sync.RWMutex
	files map[string]map[string][]byte
}

var (
	_ interfaces.FileProvider = (*MemoryProvider)(nil)
	_ interfaces.FileLister   = (*MemoryProvider)(nil)
)

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{files: map[string]map[string][]byte{}}
}

// Put stores content at path, replacing any previous value.
func (p *MemoryProvider) Put(storeID, themeID, name string, content []byte) error {
	if err := validateTheme(storeID, themeID); err != nil {
		return err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := cacheKey(storeID, themeID)
	tree, ok := p.files[key]
	if !ok {
		tree = map[string][]byte{}
		p.files[key] = tree
	}
	tree[clean] = append([]byte(nil), content...)
	return nil
}

// PutAll stores every entry of files.
func (p *MemoryProvider) PutAll(storeID, themeID string, files map[string]string) error {
	for name, content := range files {
		if err := p.Put(storeID, themeID, name, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a file.
func (p *MemoryProvider) Delete(storeID, themeID, name string) {
	clean, err := CleanPath(name)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tree, ok := p.files[cacheKey(storeID, themeID)]; ok {
		delete(tree, clean)
	}
}

func (p *MemoryProvider) Read(_ context.Context, storeID, themeID, name string) ([]byte, error) {
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	clean, err := CleanPath(name)
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	content, ok := p.files[cacheKey(storeID, themeID)][clean]
	if !ok {
		return nil, &NotFoundError{Resource: "theme file", Key: clean}
	}
	return append([]byte(nil), content...), nil
}

func (p *MemoryProvider) List(_ context.Context, storeID, themeID, prefix string) ([]string, error) {
	if err := validateTheme(storeID, themeID); err != nil {
		return nil, err
	}
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for name := range p.files[cacheKey(storeID, themeID)] {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
