package memory

import (
	"github.com/aretw0/qret/pkg/domain"
)

// Catalog implements ports.Catalog over a fixed set of entries.
type Catalog struct {
	entries map[string]domain.CatalogEntry
	sorted  []domain.CatalogEntry
	version string
}

// NewCatalog creates a catalog. Later entries win over earlier ones with the same id.
func NewCatalog(entries ...domain.CatalogEntry) *Catalog {
	byID := make(map[string]domain.CatalogEntry, len(entries))
	for _, e := range entries {
		if e.ItemID == "" {
			continue
		}
		byID[e.ItemID] = e
	}
	sorted := make([]domain.CatalogEntry, 0, len(byID))
	for _, e := range byID {
		sorted = append(sorted, e)
	}
	domain.SortEntries(sorted)
	return &Catalog{
		entries: byID,
		sorted:  sorted,
		version: domain.CatalogVersion(sorted),
	}
}

// Lookup returns the entry for itemID or a zero-valued placeholder.
func (c *Catalog) Lookup(itemID string) domain.CatalogEntry {
	if e, ok := c.entries[itemID]; ok {
		return e
	}
	return domain.Placeholder(itemID)
}

// Version identifies the catalog content.
func (c *Catalog) Version() string {
	return c.version
}

// List returns every entry, sorted by item id.
func (c *Catalog) List() []domain.CatalogEntry {
	return append([]domain.CatalogEntry(nil), c.sorted...)
}
