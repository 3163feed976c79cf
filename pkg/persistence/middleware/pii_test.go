package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/persistence/middleware"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masked(t *testing.T, next ports.SnapshotStore, patterns ...string) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewPIIMiddleware(patterns)
	require.NoError(t, err)
	return mw(next)
}

func TestPIIMiddleware_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, masked(t, memory.NewStore(), middleware.DefaultPIIPatterns...))
}

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	secure := masked(t, underlying, `customer\.(email|phone)`, `last4`)
	ctx := context.Background()

	snap := customerSnapshot("pii")
	snap.Transaction.Receipts = snap.Transaction.Receipts.With(domain.Invoice{ID: "INV-2", Customer: domain.Customer{Name: "Alan"}})
	require.NoError(t, secure.Save(ctx, "pii", snap))

	// The caller's snapshot is not modified.
	original, _ := snap.Transaction.Receipts.Get("INV-1")
	assert.Equal(t, "ada@example.com", original.Customer.Email)

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-1", "INV-2"}, stored.Transaction.Receipts.IDs(), "order survives")

	inv, _ := stored.Transaction.Receipts.Get("INV-1")
	assert.Equal(t, "Ada Lovelace", inv.Customer.Name, "name is not matched")
	assert.Equal(t, middleware.Masked, inv.Customer.Email)
	assert.Equal(t, middleware.Masked, inv.Customer.Phone)
	assert.Equal(t, middleware.Masked, inv.Payment.Last4)
	assert.Equal(t, "INV-1", inv.Lines[0].InvoiceID)

	other, _ := stored.Transaction.Receipts.Get("INV-2")
	assert.Empty(t, other.Customer.Email, "empty values stay empty")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_MasksThenSeals(t *testing.T) {
	underlying := memory.NewStore()
	mask, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, mask, seal)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "c", customerSnapshot("c")))

	stored, err := underlying.Load(ctx, "c")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	inv, _ := loaded.Transaction.Receipts.Get("INV-1")
	assert.Equal(t, middleware.Masked, inv.Customer.Name)
	assert.Equal(t, 1, inv.Lines[0].Qty)
}
