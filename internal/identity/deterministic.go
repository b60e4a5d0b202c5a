package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ThemeUUID identifies a theme of a store.
func ThemeUUID(storeID, themeID string) uuid.UUID {
	return UUID("storefront:theme:" + strings.TrimSpace(storeID) + ":" + strings.TrimSpace(themeID))
}

// ThemeFileUUID identifies a single file inside a theme tree.
func ThemeFileUUID(storeID, themeID, path string) uuid.UUID {
	return UUID("storefront:theme_file:" + ThemeUUID(storeID, themeID).String() + ":" + strings.Trim(strings.TrimSpace(path), "/"))
}

// BlockKey returns the stable editor key for a block rendered inside a
// section. It only depends on the section id, block id and block type so the
// key survives reordering.
func BlockKey(sectionID, blockID, blockType string) string {
	id := UUID("storefront:block:" + strings.TrimSpace(sectionID) + ":" + strings.TrimSpace(blockID) + ":" + strings.ToLower(strings.TrimSpace(blockType)))
	if id == uuid.Nil {
		return ""
	}
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}
