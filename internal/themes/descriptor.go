package themes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Descriptor is the design token view of a theme manifest.
type Descriptor struct {
	Name         string
	Variant      string
	Tokens       map[string]string
	CSSVariables map[string]string
	Assets       map[string]string
}

// Template projects the descriptor into the "theme" variable.
func (d Descriptor) Template() map[string]any {
	return map[string]any{
		"variant":       d.Variant,
		"tokens":        stringMap(d.Tokens),
		"css_variables": stringMap(d.CSSVariables),
		"assets":        stringMap(d.Assets),
	}
}

// DescriptorSelector loads go-theme manifests from the theme tree and
// resolves the active variant. Manifests are registered once per theme.
type DescriptorSelector struct {
	provider       interfaces.FileProvider
	registry       *gotheme.MemoryRegistry
	defaultVariant string
	cssPrefix      string

	mu        sync.Mutex
	manifests map[string]*gotheme.Manifest
}

// NewDescriptorSelector builds a selector reading manifests through provider.
func NewDescriptorSelector(provider interfaces.FileProvider, defaultVariant string) *DescriptorSelector {
	return &DescriptorSelector{
		provider:       provider,
		registry:       gotheme.NewRegistry(),
		defaultVariant: strings.TrimSpace(defaultVariant),
		cssPrefix:      "theme",
		manifests:      map[string]*gotheme.Manifest{},
	}
}

// Select returns the descriptor for theme, or nil when the theme carries no
// manifest.
func (s *DescriptorSelector) Select(ctx context.Context, theme *Theme, variant string) (*Descriptor, error) {
	if s == nil || theme == nil {
		return nil, nil
	}
	name, registry, err := s.ensureManifest(ctx, theme)
	if err != nil || name == "" {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:       registry,
		DefaultTheme:   name,
		DefaultVariant: s.defaultVariant,
	}
	resolved := strings.TrimSpace(variant)
	if resolved == "" {
		resolved = s.defaultVariant
	}
	selection, err := selector.Select(name, resolved)
	if err != nil {
		return nil, fmt.Errorf("themes: select %s: %w", name, err)
	}
	if selection == nil {
		return nil, nil
	}

	assets := map[string]string{}
	if selection.Manifest != nil {
		for key := range selection.Manifest.Assets.Files {
			if url, _ := selection.Asset(key); url != "" {
				assets[key] = url
			}
		}
	}

	return &Descriptor{
		Name:         selection.Theme,
		Variant:      selection.Variant,
		Tokens:       selection.Tokens(),
		CSSVariables: selection.CSSVariables(s.cssPrefix),
		Assets:       assets,
	}, nil
}

// ensureManifest returns the registered manifest name, or "" when the theme
// has no manifest.
func (s *DescriptorSelector) ensureManifest(ctx context.Context, theme *Theme) (string, *gotheme.MemoryRegistry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := theme.Key()
	if manifest, ok := s.manifests[key]; ok {
		if manifest == nil {
			return "", s.registry, nil
		}
		return manifest.Name, s.registry, nil
	}

	manifest, err := gotheme.LoadDir(NewProviderFS(ctx, s.provider, theme.StoreID, theme.Handle), ".")
	if err != nil || manifest == nil || emptyManifest(manifest) {
		s.manifests[key] = nil
		return "", s.registry, nil
	}

	normalized := *manifest
	normalized.Name = key
	if strings.TrimSpace(normalized.Version) == "" {
		normalized.Version = strings.TrimSpace(theme.Version)
	}
	if err := s.registry.Register(&normalized); err != nil {
		return "", nil, fmt.Errorf("themes: register manifest %s: %w", key, err)
	}
	s.manifests[key] = &normalized
	return normalized.Name, s.registry, nil
}

// Reset drops every registered manifest so they are reloaded on the next
// selection.
func (s *DescriptorSelector) Reset() {
	s.mu.Lock()
	s.registry = gotheme.NewRegistry()
	s.manifests = map[string]*gotheme.Manifest{}
	s.mu.Unlock()
}

func emptyManifest(m *gotheme.Manifest) bool {
	return strings.TrimSpace(m.Name) == "" && len(m.Assets.Files) == 0 && len(m.Variants) == 0
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
