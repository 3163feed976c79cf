package loam

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aretw0/loam"
	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Catalog adapts a Loam repository of item documents to ports.Catalog.
// Each document (markdown frontmatter, JSON or YAML) describes one item.
// The catalog is read into memory by Reload; lookups never touch disk.
type Catalog struct {
	Repo *loam.TypedRepository[ItemMetadata]

	current atomic.Pointer[memory.Catalog]
}

// New creates the adapter and performs the first load.
func New(ctx context.Context, repo *loam.TypedRepository[ItemMetadata]) (*Catalog, error) {
	c := &Catalog{Repo: repo}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Open initializes a Loam repository at dir and loads it as a catalog.
func Open(ctx context.Context, dir string, opts ...loam.Option) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam catalog: %w", err)
	}
	return New(ctx, loam.NewTypedRepository[ItemMetadata](repo))
}

// Reload re-reads every document. On error the previous content stays active.
func (c *Catalog) Reload(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	entries := make([]domain.CatalogEntry, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ItemID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return fmt.Errorf("collision detected: item '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		cents, err := unitCents(doc.Data)
		if err != nil {
			return fmt.Errorf("item %s: %w", id, err)
		}

		desc := doc.Data.Description
		if desc == "" {
			desc = firstLine(doc.Content)
		}

		entries = append(entries, domain.CatalogEntry{
			ItemID:         id,
			Description:    desc,
			UnitValueCents: cents,
		})
	}

	c.current.Store(memory.NewCatalog(entries...))
	return nil
}

// Lookup returns the entry for itemID or a zero-valued placeholder.
func (c *Catalog) Lookup(itemID string) domain.CatalogEntry {
	return c.current.Load().Lookup(itemID)
}

// Version changes whenever a reload yields different content.
func (c *Catalog) Version() string {
	return c.current.Load().Version()
}

// List returns every entry, sorted by item id.
func (c *Catalog) List() []domain.CatalogEntry {
	return c.current.Load().List()
}

func unitCents(meta ItemMetadata) (int64, error) {
	if meta.UnitValueCents != nil {
		if *meta.UnitValueCents < 0 {
			return 0, fmt.Errorf("negative unit_value_cents %d", *meta.UnitValueCents)
		}
		return *meta.UnitValueCents, nil
	}
	if meta.Price == nil {
		return 0, nil
	}

	// Frontmatter may carry "12.99" as a string or a number.
	var amount float64
	if err := mapstructure.WeakDecode(meta.Price, &amount); err != nil {
		return 0, fmt.Errorf("invalid price %v: %w", meta.Price, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative price %v", meta.Price)
	}
	return int64(math.Round(amount * 100)), nil
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
