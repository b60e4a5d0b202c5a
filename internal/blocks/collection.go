package blocks

import (
	"fmt"

	"github.com/goliatone/go-storefront/internal/settings"
)

// Instance is a block as stored in a page definition.
type Instance struct {
	Type     string       `json:"type"`
	Settings settings.Map `json:"settings,omitempty"`
	Disabled bool         `json:"disabled,omitempty"`
}

// Block is an assembled block ready for rendering.
type Block struct {
	ID       string
	Type     string
	Settings settings.Map
	// Key is a stable editor key derived from the section and block ids.
	Key string
}

// EditorAttributes returns the attribute marker editors use to locate the block.
func (b Block) EditorAttributes() string {
	return fmt.Sprintf(`data-block-id="%s" data-block-key="%s"`, b.ID, b.Key)
}

// Template projects the block into template variables.
func (b Block) Template() map[string]any {
	return map[string]any{
		"id":                b.ID,
		"type":              b.Type,
		"key":               b.Key,
		"settings":          b.Settings.Template(),
		"editor_attributes": b.EditorAttributes(),
	}
}

// Collection is an ordered, id-addressable list of blocks.
type Collection struct {
	items []Block
	index map[string]int
}

// Size returns the number of blocks.
func (c Collection) Size() int { return len(c.items) }

// First returns the first block.
func (c Collection) First() (Block, bool) { return c.At(0) }

// Last returns the last block.
func (c Collection) Last() (Block, bool) { return c.At(len(c.items) - 1) }

// At returns the block at position i.
func (c Collection) At(i int) (Block, bool) {
	if i < 0 || i >= len(c.items) {
		return Block{}, false
	}
	return c.items[i], true
}

// Get returns the block with the given id.
func (c Collection) Get(id string) (Block, bool) {
	i, ok := c.index[id]
	if !ok {
		return Block{}, false
	}
	return c.items[i], true
}

// List projects the blocks in order. Templates index it by position
// (section.blocks.0) and iterate it.
func (c Collection) List() []any {
	out := make([]any, len(c.items))
	for i, block := range c.items {
		out[i] = block.Template()
	}
	return out
}

// Lookup projects the named accessors of the collection: size, first, last
// and every block id. The reserved names win over colliding block ids.
func (c Collection) Lookup() map[string]any {
	out := make(map[string]any, len(c.items)+3)
	for _, block := range c.items {
		out[block.ID] = block.Template()
	}
	out["size"] = len(c.items)
	if first, ok := c.First(); ok {
		out["first"] = first.Template()
	}
	if last, ok := c.Last(); ok {
		out["last"] = last.Template()
	}
	return out
}

func (c *Collection) append(block Block) {
	if c.index == nil {
		c.index = map[string]int{}
	}
	c.index[block.ID] = len(c.items)
	c.items = append(c.items, block)
}
