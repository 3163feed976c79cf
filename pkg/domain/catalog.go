package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CatalogEntry is the price authority for one item.
type CatalogEntry struct {
	ItemID         string `json:"item_id" yaml:"item_id" mapstructure:"item_id"`
	Description    string `json:"description" yaml:"description" mapstructure:"description"`
	UnitValueCents int64  `json:"unit_value_cents" yaml:"unit_value_cents" mapstructure:"unit_value_cents"`
}

// PriceLookup resolves item ids to catalog entries. Implementations return
// Placeholder(itemID) for unknown ids instead of failing.
type PriceLookup interface {
	Lookup(itemID string) CatalogEntry
}

// PriceLookupFunc adapts a function to PriceLookup.
type PriceLookupFunc func(itemID string) CatalogEntry

func (f PriceLookupFunc) Lookup(itemID string) CatalogEntry {
	return f(itemID)
}

// Placeholder is the zero-valued entry used for ids missing from a catalog.
func Placeholder(itemID string) CatalogEntry {
	return CatalogEntry{
		ItemID:      itemID,
		Description: "Unknown item " + itemID,
	}
}

// SortEntries orders entries by item id in place.
func SortEntries(entries []CatalogEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemID < entries[j].ItemID })
}

// CatalogVersion hashes a set of entries. Order does not matter.
func CatalogVersion(entries []CatalogEntry) string {
	sorted := append([]CatalogEntry(nil), entries...)
	SortEntries(sorted)
	data, _ := json.Marshal(sorted)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
