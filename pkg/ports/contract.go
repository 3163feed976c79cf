package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a snapshot with every collection populated
		snap := domain.NewSnapshot(sessionID)
		snap.Transient = domain.StateOf(domain.NewSetting("item-1122", "refund-details-1122"))
		snap.Transaction.Phase = domain.PhaseItems
		snap.Transaction.Receipts = domain.NewReceipts(
			domain.Invoice{ID: "INV-2", Lines: []domain.InvoiceLine{{ItemID: "1122", Qty: 2, UnitValueCents: 1299}}},
			domain.Invoice{ID: "INV-1"},
		)
		snap.Transaction.ReturnItems = domain.NewReturnItems(domain.ReturnItem{ItemID: "1122", Qty: 3})

		// 2. Save
		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.PhaseItems, loaded.Transaction.Phase)
		assert.Equal(t, snap.Transient.Keys(), loaded.Transient.Keys())
		assert.Equal(t, []string{"INV-2", "INV-1"}, loaded.Transaction.Receipts.IDs(), "receipt order survives")
		assert.Equal(t, 3, loaded.Transaction.ReturnItems.Qty("1122"))
		assert.Equal(t, "INV-2", loaded.Transaction.Receipts.LinesFor("1122")[0].InvoiceID)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, snap))

		// Mutating the saved pointer must not change what is stored.
		snap.Transaction.Phase = domain.PhaseComplete

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseReceipts, loaded.Transaction.Phase)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, sessionID, domain.NewSnapshot(sessionID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(id1))
		_ = store.Save(ctx, id2, domain.NewSnapshot(id2))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
