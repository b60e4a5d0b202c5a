package interfaces

import "context"

// FileProvider resolves a logical theme path (for example
// "sections/hero.tmpl") inside a store and theme scope. Implementations must
// return an error matching fs.ErrNotExist when the file does not exist.
type FileProvider interface {
	Read(ctx context.Context, storeID, themeID, path string) ([]byte, error)
}

// FileLister is an optional FileProvider extension used by tooling that needs
// to enumerate a theme tree.
type FileLister interface {
	List(ctx context.Context, storeID, themeID, prefix string) ([]string, error)
}
