package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
)

// CatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.Catalog.
// expected holds the entries the adapter was seeded with.
func CatalogContractTest(t *testing.T, catalog ports.Catalog, expected []domain.CatalogEntry) {
	t.Helper()

	// 1. Lookup (Success)
	t.Run("Lookup_Success", func(t *testing.T) {
		for _, want := range expected {
			got := catalog.Lookup(want.ItemID)
			if got != want {
				t.Errorf("entry mismatch for %s. got %+v, want %+v", want.ItemID, got, want)
			}
		}
	})

	// 2. Lookup (Unknown) falls back to the placeholder
	t.Run("Lookup_Unknown", func(t *testing.T) {
		got := catalog.Lookup("non-existent-item")
		if got != domain.Placeholder("non-existent-item") {
			t.Errorf("expected placeholder, got %+v", got)
		}
	})

	// 3. List
	t.Run("List", func(t *testing.T) {
		entries := catalog.List()
		if len(entries) != len(expected) {
			t.Fatalf("expected %d entries, got %d", len(expected), len(entries))
		}
		for i := 1; i < len(entries); i++ {
			if entries[i-1].ItemID > entries[i].ItemID {
				t.Errorf("entries not sorted: %s before %s", entries[i-1].ItemID, entries[i].ItemID)
			}
		}
	})

	// 4. Version is stable for unchanged content
	t.Run("Version", func(t *testing.T) {
		v := catalog.Version()
		if v == "" {
			t.Error("expected non-empty version")
		}
		if catalog.Version() != v {
			t.Error("version changed without content change")
		}
	})
}

// InvoiceSourceContractTest verifies an adapter against ports.InvoiceSource.
func InvoiceSourceContractTest(t *testing.T, source ports.InvoiceSource, expected []domain.Invoice) {
	t.Helper()
	ctx := context.Background()

	t.Run("Find_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := source.Find(ctx, want.ID)
			if err != nil {
				t.Fatalf("unexpected error finding %s: %v", want.ID, err)
			}
			if got.ID != want.ID || len(got.Lines) != len(want.Lines) {
				t.Errorf("invoice mismatch for %s. got %+v", want.ID, got)
			}
		}
	})

	t.Run("Find_NotFound", func(t *testing.T) {
		_, err := source.Find(ctx, "non-existent-invoice")
		if err == nil {
			t.Error("expected error for non-existent invoice, got nil")
		}
	})

	t.Run("Search_All", func(t *testing.T) {
		all, err := source.Search(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error searching: %v", err)
		}
		if len(all) != len(expected) {
			t.Errorf("expected %d invoices, got %d", len(expected), len(all))
		}
	})

	if len(expected) == 0 {
		return
	}

	t.Run("Search_CaseInsensitive", func(t *testing.T) {
		id := expected[0].ID
		found, err := source.Search(ctx, strings.ToLower(id))
		if err != nil {
			t.Fatalf("unexpected error searching: %v", err)
		}
		hit := false
		for _, inv := range found {
			if inv.ID == id {
				hit = true
			}
		}
		if !hit {
			t.Errorf("invoice %s missing from search results", id)
		}
	})
}
