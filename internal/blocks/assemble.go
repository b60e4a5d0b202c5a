package blocks

import (
	"strings"

	"github.com/goliatone/go-storefront/internal/identity"
	"github.com/goliatone/go-storefront/internal/schema"
	"github.com/goliatone/go-storefront/internal/settings"
)

// Assemble builds the block collection of a section following order.
// Ids missing from instances, repeated ids and disabled blocks are skipped.
// The schema's max_blocks and per type limits cap the result; block settings
// are resolved through merger against the schema's block defaults.
func Assemble(sectionID string, order []string, instances map[string]Instance, sch *schema.Schema, merger settings.Merger) Collection {
	var out Collection
	if len(order) == 0 || len(instances) == 0 {
		return out
	}

	limits := sch.BlockLimits()
	maxBlocks := 0
	if sch != nil {
		maxBlocks = sch.MaxBlocks
	}
	perType := map[string]int{}
	seen := map[string]struct{}{}

	for _, rawID := range order {
		id := strings.TrimSpace(rawID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		instance, ok := instances[id]
		if !ok || instance.Disabled {
			continue
		}
		seen[id] = struct{}{}

		if maxBlocks > 0 && out.Size() >= maxBlocks {
			break
		}
		if limit, ok := limits[instance.Type]; ok && perType[instance.Type] >= limit {
			continue
		}
		perType[instance.Type]++

		out.append(Block{
			ID:       id,
			Type:     instance.Type,
			Settings: merger.Block(sch.BlockDeclarations(instance.Type), instance.Settings),
			Key:      identity.BlockKey(sectionID, id, instance.Type),
		})
	}
	return out
}
