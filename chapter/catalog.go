package chapter

import (
	"fmt"
	"sort"

	"github.com/lixenwraith/unveil/policy"
)

// Factory creates a fresh chapter instance
type Factory func() Chapter

type entry struct {
	title   string
	factory Factory
}

// Catalog maps chapter ids to their factories
type Catalog struct {
	entries map[policy.ChapterID]entry
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[policy.ChapterID]entry)}
}

// DefaultCatalog returns the built-in chapters 1..7
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register(1, "Growth", func() Chapter { return NewGrowth(1, "Growth") })
	c.Register(2, "Home", func() Chapter { return NewHome(2, "Home") })
	titles := map[policy.ChapterID]string{
		3: "Patience",
		4: "Honesty",
		5: "Adventure",
		6: "Support",
		7: "Forever",
	}
	for id := policy.ChapterID(3); id <= 7; id++ {
		id, title := id, titles[id]
		table := fmt.Sprintf("chapter%d", id)
		c.Register(id, title, func() Chapter { return NewReveal(id, title, table) })
	}
	return c
}

// Register adds or replaces a chapter
func (c *Catalog) Register(id policy.ChapterID, title string, f Factory) {
	c.entries[id] = entry{title: title, factory: f}
}

// New creates an unmounted instance of a chapter
func (c *Catalog) New(id policy.ChapterID) (Chapter, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.factory(), true
}

// Title returns a chapter's title
func (c *Catalog) Title(id policy.ChapterID) string {
	return c.entries[id].title
}

// Has reports whether a chapter is registered
func (c *Catalog) Has(id policy.ChapterID) bool {
	_, ok := c.entries[id]
	return ok
}

// IDs returns the registered ids in ascending order
func (c *Catalog) IDs() []policy.ChapterID {
	ids := make([]policy.ChapterID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
