package themes

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// CachedProvider memoizes reads of another provider, including misses.
// Entries expire after ttl (zero keeps them until invalidated).
type CachedProvider struct {
	next interfaces.FileProvider
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]map[string]cacheEntry
}

type cacheEntry struct {
	data    []byte
	missing bool
	expires time.Time
}

var _ interfaces.FileProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps next.
func NewCachedProvider(next interfaces.FileProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]map[string]cacheEntry{},
	}
}

func (c *CachedProvider) Read(ctx context.Context, storeID, themeID, name string) ([]byte, error) {
	key := cacheKey(storeID, themeID)
	clean, err := CleanPath(name)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.entries[key][clean]
	c.mu.RUnlock()
	if ok && (entry.expires.IsZero() || c.now().Before(entry.expires)) {
		if entry.missing {
			return nil, &NotFoundError{Resource: "theme file", Key: clean}
		}
		return entry.data, nil
	}

	data, err := c.next.Read(ctx, storeID, themeID, clean)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	entry = cacheEntry{data: data, missing: err != nil}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	tree, ok := c.entries[key]
	if !ok {
		tree = map[string]cacheEntry{}
		c.entries[key] = tree
	}
	tree[clean] = entry
	c.mu.Unlock()

	return data, err
}

// List passes through to the wrapped provider when it can list.
func (c *CachedProvider) List(ctx context.Context, storeID, themeID, prefix string) ([]string, error) {
	lister, ok := c.next.(interfaces.FileLister)
	if !ok {
		return nil, nil
	}
	return lister.List(ctx, storeID, themeID, prefix)
}

// Invalidate drops every cached file of a theme.
func (c *CachedProvider) Invalidate(storeID, themeID string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(storeID, themeID))
	c.mu.Unlock()
}

// InvalidatePath drops a single cached file.
func (c *CachedProvider) InvalidatePath(storeID, themeID, name string) {
	clean, err := CleanPath(name)
	if err != nil {
		return
	}
	c.mu.Lock()
	if tree, ok := c.entries[cacheKey(storeID, themeID)]; ok {
		delete(tree, clean)
	}
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *CachedProvider) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[string]map[string]cacheEntry{}
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *CachedProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, tree := range c.entries {
		total += len(tree)
	}
	return total
}

// splitThemePath maps "<store>/<theme>/<rest>" onto its parts.
func splitThemePath(rel string) (storeID, themeID, rest string, ok bool) {
	parts := strings.SplitN(strings.Trim(rel, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		rest = parts[2]
	}
	return parts[0], parts[1], rest, true
}
