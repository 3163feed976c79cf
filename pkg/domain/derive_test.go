package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[string]CatalogEntry

func (m mapCatalog) Lookup(id string) CatalogEntry {
	if e, ok := m[id]; ok {
		return e
	}
	return Placeholder(id)
}

var testCatalog = mapCatalog{
	"1122": {ItemID: "1122", Description: "Trail runner", UnitValueCents: 1299},
	"3344": {ItemID: "3344", Description: "Rain shell", UnitValueCents: 4500},
}

func invoice(id string, lines ...InvoiceLine) Invoice {
	return Invoice{ID: id, Customer: Customer{ID: "c1", Name: "Ada"}, Lines: lines}
}

func line(item string, qty int) InvoiceLine {
	// Invoice values are deliberately different from the catalog.
	return InvoiceLine{ItemID: item, Qty: qty, UnitValueCents: 1}
}

func TestDerive_PartiallyReceipted(t *testing.T) {
	tx := NewTransaction()
	tx = SetInput(tx, SlotReceipts, NewReceipts(invoice("INV-1", line("1122", 2))))
	tx = SetInput(tx, SlotReturnItems, NewReturnItems(ReturnItem{ItemID: "1122", Qty: 3}))

	atoms := Derive(tx, testCatalog)

	require.Len(t, atoms, 2)
	assert.Equal(t, Atom{ItemID: "1122", Qty: 2, InvoiceID: "INV-1", UnitValueCents: 1299, ValueCents: 2598}, atoms[0])
	assert.Equal(t, Atom{ItemID: "1122", Qty: 1, UnitValueCents: 1299, ValueCents: 1299}, atoms[1])
	assert.Equal(t, int64(3897), Aggregate(atoms, FieldValueCents))
	assert.Equal(t, int64(3), Aggregate(atoms, FieldQty))
}

func TestDerive_ZeroQuantityProducesNothing(t *testing.T) {
	tx := NewTransaction()
	tx.ReturnItems = NewReturnItems(ReturnItem{ItemID: "9999", Qty: 0})

	atoms := Derive(tx, testCatalog)

	assert.Empty(t, atoms)
	assert.Equal(t, int64(0), Aggregate(atoms, FieldValueCents))
}

func TestDerive_UnknownItemIsZeroValued(t *testing.T) {
	tx := NewTransaction()
	tx.ReturnItems = NewReturnItems(ReturnItem{ItemID: "nope", Qty: 2})

	var atoms []Atom
	require.NotPanics(t, func() { atoms = Derive(tx, testCatalog) })

	require.Len(t, atoms, 1)
	assert.Equal(t, int64(0), atoms[0].UnitValueCents)
	assert.False(t, atoms[0].Receipted())
	assert.Equal(t, "Unknown item nope", Summarize(tx, testCatalog).Items[0].Description)
}

func TestDerive_GreedyAcrossInvoicesInInsertionOrder(t *testing.T) {
	tx := NewTransaction()
	tx.Receipts = NewReceipts(
		invoice("B", line("1122", 1), line("3344", 5)),
		invoice("A", line("1122", 2)),
	)
	tx.ReturnItems = NewReturnItems(
		ReturnItem{ItemID: "3344", Qty: 1},
		ReturnItem{ItemID: "1122", Qty: 2},
	)

	atoms := Derive(tx, testCatalog)

	require.Len(t, atoms, 3)
	assert.Equal(t, "3344", atoms[0].ItemID)
	assert.Equal(t, "B", atoms[0].InvoiceID)
	assert.Equal(t, Atom{ItemID: "1122", Qty: 1, InvoiceID: "B", UnitValueCents: 1299, ValueCents: 1299}, atoms[1])
	assert.Equal(t, Atom{ItemID: "1122", Qty: 1, InvoiceID: "A", UnitValueCents: 1299, ValueCents: 1299}, atoms[2])
	assert.Empty(t, Unreceipted(atoms))
}

func TestDerive_Idempotent(t *testing.T) {
	tx := NewTransaction()
	tx.Receipts = NewReceipts(invoice("A", line("1122", 1)), invoice("B", line("3344", 2)))
	tx.ReturnItems = NewReturnItems(ReturnItem{"1122", 4}, ReturnItem{"3344", 1}, ReturnItem{"5566", 2})

	first := Derive(tx, testCatalog)
	second := Derive(tx, testCatalog)

	assert.Equal(t, first, second)
	assert.Equal(t, Summarize(tx, testCatalog), Summarize(tx, testCatalog))
}

func TestDerive_AttributionConservation(t *testing.T) {
	receipts := NewReceipts(
		invoice("A", line("1122", 2), line("3344", 1)),
		invoice("B", line("1122", 1)),
		invoice("C", line("3344", 0), line("1122", 4)),
	)
	for qty := 0; qty <= 10; qty++ {
		for _, item := range []string{"1122", "3344", "7788"} {
			tx := NewTransaction()
			tx.Receipts = receipts
			tx.ReturnItems = NewReturnItems(ReturnItem{ItemID: item, Qty: qty})

			mine := ForItem(Derive(tx, testCatalog), item)
			got := Aggregate(Receipted(mine), FieldQty) + Aggregate(Unreceipted(mine), FieldQty)
			assert.Equal(t, int64(qty), got, "item %s qty %d", item, qty)

			for _, a := range mine {
				assert.Positive(t, a.Qty)
			}
		}
	}
}

func TestDerive_RemovingInvoiceReattributes(t *testing.T) {
	tx := NewTransaction()
	tx.Receipts = NewReceipts(invoice("A", line("1122", 1)), invoice("B", line("1122", 1)))
	tx.ReturnItems = NewReturnItems(ReturnItem{"1122", 1})

	atoms := Derive(tx, testCatalog)
	require.Len(t, atoms, 1)
	assert.Equal(t, "A", atoms[0].InvoiceID)

	tx.Receipts = tx.Receipts.Without("A")
	atoms = Derive(tx, testCatalog)
	require.Len(t, atoms, 1)
	assert.Equal(t, "B", atoms[0].InvoiceID)

	tx.Receipts = tx.Receipts.Without("B")
	atoms = Derive(tx, testCatalog)
	require.Len(t, atoms, 1)
	assert.False(t, atoms[0].Receipted())
}

func TestSummarize(t *testing.T) {
	tx := NewTransaction()
	tx.Receipts = NewReceipts(invoice("INV-1", line("1122", 2)), invoice("INV-2", line("3344", 1)))
	tx.ReturnItems = NewReturnItems(ReturnItem{"1122", 3}, ReturnItem{"3344", 1})

	s := Summarize(tx, testCatalog)

	require.Len(t, s.Items, 2)
	assert.Equal(t, ItemRefund{
		ItemID: "1122", Description: "Trail runner", Qty: 3, ReceiptedQty: 2, UnreceiptedQty: 1,
		UnitValueCents: 1299, ValueCents: 3897,
	}, s.Items[0])
	assert.Equal(t, []InvoiceRefund{
		{InvoiceID: "INV-1", Qty: 2, ValueCents: 2598},
		{InvoiceID: "INV-2", Qty: 1, ValueCents: 4500},
	}, s.Invoices)
	assert.Equal(t, 4, s.TotalQty)
	assert.Equal(t, int64(8397), s.TotalValueCents)
	assert.Equal(t, 1, s.UnreceiptedQty)
	assert.Equal(t, int64(1299), s.UnreceiptedCents)
}

func TestReceipts_LinesOwnedByInvoice(t *testing.T) {
	foreign := line("1122", 2)
	foreign.InvoiceID = "Z"
	tx := NewTransaction()
	tx.Receipts = NewReceipts(invoice("A", foreign))
	tx.ReturnItems = NewReturnItems(ReturnItem{"1122", 2})

	inv, ok := tx.Receipts.Get("A")
	require.True(t, ok)
	assert.Equal(t, "A", inv.Lines[0].InvoiceID)

	s := Summarize(tx, testCatalog)
	require.Len(t, s.Atoms, 1)
	assert.Equal(t, "A", s.Atoms[0].InvoiceID)
	assert.Equal(t, []InvoiceRefund{{InvoiceID: "A", Qty: 2, ValueCents: 2598}}, s.Invoices)
	assert.Equal(t, s.TotalValueCents-s.UnreceiptedCents, s.Invoices[0].ValueCents)
}

func TestMemo(t *testing.T) {
	tx := NewTransaction()
	tx.ReturnItems = NewReturnItems(ReturnItem{"1122", 1})

	var m Memo
	first := m.Derive(tx, testCatalog, "v1")
	second := m.Derive(tx, testCatalog, "v1")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Hits())

	// Catalog version change invalidates.
	m.Derive(tx, testCatalog, "v2")
	assert.Equal(t, 1, m.Hits())

	// Quantity change invalidates.
	tx.ReturnItems = tx.ReturnItems.Set("1122", 2)
	atoms := m.Derive(tx, testCatalog, "v2")
	assert.Equal(t, 1, m.Hits())
	assert.Equal(t, int64(2), Aggregate(atoms, FieldQty))
}
