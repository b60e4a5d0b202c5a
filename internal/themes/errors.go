package themes

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

var (
	ErrPathRequired      = errors.New("themes: file path required")
	ErrTraversalDetected = errors.New("themes: path traversal detected")
	ErrThemeRequired     = errors.New("themes: store id and theme id are required")
)

// NotFoundError is returned when a theme resource cannot be located. It
// matches fs.ErrNotExist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// CleanPath normalizes a theme relative file path and rejects traversal.
func CleanPath(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", ErrPathRequired
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", ErrTraversalDetected
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", ErrPathRequired
	}
	return clean, nil
}

func validateTheme(storeID, themeID string) error {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(themeID) == "" {
		return ErrThemeRequired
	}
	if strings.ContainsAny(storeID+themeID, "/\\") || storeID == ".." || themeID == ".." {
		return ErrTraversalDetected
	}
	return nil
}
