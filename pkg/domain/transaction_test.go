package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceipts_ImmutableSnapshots(t *testing.T) {
	src := invoice("INV-1", line("1122", 2))
	r := NewReceipts(src)

	// Mutating the caller's copy does not leak into the collection.
	src.Lines[0].Qty = 99
	got, ok := r.Get("INV-1")
	require.True(t, ok)
	assert.Equal(t, 2, got.Lines[0].Qty)
	assert.Equal(t, "INV-1", got.Lines[0].InvoiceID, "lines are owned by their invoice")

	// Nor does mutating a value read back out.
	got.Lines[0].Qty = 50
	again, _ := r.Get("INV-1")
	assert.Equal(t, 2, again.Lines[0].Qty)
}

func TestReceipts_OrderAndReplace(t *testing.T) {
	r := NewReceipts(invoice("A"), invoice("B"), invoice("C"))
	r2 := r.With(invoice("A", line("1122", 1)))

	assert.Equal(t, []string{"A", "B", "C"}, r2.IDs(), "re-adding keeps position")
	assert.Len(t, r2.LinesFor("1122"), 1)
	assert.Empty(t, r.LinesFor("1122"), "original untouched")

	r3 := r2.Without("B")
	assert.Equal(t, []string{"A", "C"}, r3.IDs())
	assert.Equal(t, 3, r2.Len())
	assert.False(t, r3.Has("B"))
	assert.Equal(t, r3, r3.Without("missing"))
}

func TestReturnItems_KeyedByItem(t *testing.T) {
	items := NewReturnItems().Set("1122", 1).Set("3344", 2).Set("1122", 5)

	assert.Equal(t, []ReturnItem{{"1122", 5}, {"3344", 2}}, items.List())
	assert.Equal(t, 0, items.Qty("missing"))

	removed := items.Remove("1122")
	assert.Equal(t, []ReturnItem{{"3344", 2}}, removed.List())
	assert.True(t, items.Has("1122"))
}

func TestSetInput(t *testing.T) {
	tx := NewTransaction()
	next := SetInput(tx, SlotReturnItems, NewReturnItems(ReturnItem{"1122", 1}))

	assert.Equal(t, 0, tx.ReturnItems.Len())
	assert.Equal(t, 1, next.ReturnItems.Len())
	assert.Equal(t, "returnItems", SlotReturnItems.Name())

	assert.Panics(t, func() {
		SetInput(tx, Slot[Receipts]{}, NewReceipts())
	})
}

func TestSetInputByName(t *testing.T) {
	tx := NewTransaction()

	tx, err := SetInputByName(tx, "returnItems", json.RawMessage(`[{"item_id":"1122","qty":3}]`))
	require.NoError(t, err)
	assert.Equal(t, 3, tx.ReturnItems.Qty("1122"))

	tx, err = SetInputByName(tx, "receipts", json.RawMessage(`[{"id":"INV-1","lines":[{"item_id":"1122","qty":2}]}]`))
	require.NoError(t, err)
	assert.Equal(t, "INV-1", tx.Receipts.LinesFor("1122")[0].InvoiceID)

	_, err = SetInputByName(tx, "customers", json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, err = SetInputByName(tx, "receipts", json.RawMessage(`{"bad":1}`))
	assert.Error(t, err)
}

func TestPhases(t *testing.T) {
	assert.Equal(t, PhaseReceipts, NewTransaction().Phase)
	assert.True(t, PhaseReview.Valid())
	assert.False(t, Phase("checkout").Valid())

	next, ok := PhaseItems.Next()
	assert.True(t, ok)
	assert.Equal(t, PhaseReview, next)

	_, ok = PhaseComplete.Next()
	assert.False(t, ok)
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	tx := NewTransaction()
	tx.Receipts = NewReceipts(invoice("B"), invoice("A", line("1122", 1)))
	tx.ReturnItems = NewReturnItems(ReturnItem{"3344", 1}, ReturnItem{"1122", 2})

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"B", "A"}, back.Receipts.IDs())
	assert.Equal(t, tx.ReturnItems.List(), back.ReturnItems.List())
	assert.Equal(t, Derive(tx, testCatalog), Derive(back, testCatalog))
}
