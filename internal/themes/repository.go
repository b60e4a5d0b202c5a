package themes

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewThemeRepository creates a repository for theme records.
func NewThemeRepository(db *bun.DB) repository.Repository[*Theme] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Theme]{
		NewRecord:          func() *Theme { return &Theme{} },
		GetID:              func(theme *Theme) uuid.UUID { return theme.ID },
		SetID:              func(theme *Theme, id uuid.UUID) { theme.ID = id },
		GetIdentifier:      func() string { return "handle" },
		GetIdentifierValue: func(theme *Theme) string { return theme.Handle },
	})
}

// NewThemeFileRepository creates a repository for theme files.
func NewThemeFileRepository(db *bun.DB) repository.Repository[*ThemeFile] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ThemeFile]{
		NewRecord:          func() *ThemeFile { return &ThemeFile{} },
		GetID:              func(file *ThemeFile) uuid.UUID { return file.ID },
		SetID:              func(file *ThemeFile, id uuid.UUID) { file.ID = id },
		GetIdentifier:      func() string { return "path" },
		GetIdentifierValue: func(file *ThemeFile) string { return file.Path },
	})
}
