package domain

import (
	"encoding/json"
	"fmt"
)

// Phase is a named step of the return workflow.
type Phase string

const (
	PhaseReceipts Phase = "receipts" // attach invoices
	PhaseItems    Phase = "items"    // pick items and quantities
	PhaseReview   Phase = "review"   // check the computed refund
	PhaseTender   Phase = "tender"   // pay the refund out
	PhaseComplete Phase = "complete"
)

var phaseOrder = []Phase{PhaseReceipts, PhaseItems, PhaseReview, PhaseTender, PhaseComplete}

// Phases returns the workflow steps in order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Index returns the position of p in the workflow, or -1.
func (p Phase) Index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Next returns the phase after p. The last phase has no successor.
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i+1 >= len(phaseOrder) {
		return "", false
	}
	return phaseOrder[i+1], true
}

// Transaction is the durable, business-relevant data of a return.
type Transaction struct {
	Phase       Phase       `json:"phase"`
	Receipts    Receipts    `json:"receipts"`
	ReturnItems ReturnItems `json:"return_items"`
}

// NewTransaction starts a transaction at the first phase.
func NewTransaction() Transaction {
	return Transaction{Phase: PhaseReceipts}
}

// Slot names one replaceable collection of a Transaction. Only the slots
// declared in this package exist, so an unknown slot cannot be dispatched.
type Slot[T any] struct {
	name string
	set  func(*Transaction, T)
}

// Name returns the wire name of the slot.
func (s Slot[T]) Name() string {
	return s.name
}

var (
	SlotReceipts = Slot[Receipts]{
		name: "receipts",
		set:  func(tx *Transaction, v Receipts) { tx.Receipts = v },
	}
	SlotReturnItems = Slot[ReturnItems]{
		name: "returnItems",
		set:  func(tx *Transaction, v ReturnItems) { tx.ReturnItems = v },
	}
)

// SetInput returns a copy of tx with slot replaced by value.
// A zero Slot is a programming error and panics.
func SetInput[T any](tx Transaction, slot Slot[T], value T) Transaction {
	if slot.set == nil {
		panic("domain: SetInput called with an undeclared slot")
	}
	slot.set(&tx, value)
	return tx
}

// SetInputByName decodes raw into the slot called name. Wire adapters use it;
// unknown names return ErrUnknownSlot.
func SetInputByName(tx Transaction, name string, raw json.RawMessage) (Transaction, error) {
	switch name {
	case SlotReceipts.name:
		var v Receipts
		if err := json.Unmarshal(raw, &v); err != nil {
			return tx, fmt.Errorf("decode %s: %w", name, err)
		}
		return SetInput(tx, SlotReceipts, v), nil
	case SlotReturnItems.name:
		var v ReturnItems
		if err := json.Unmarshal(raw, &v); err != nil {
			return tx, fmt.Errorf("decode %s: %w", name, err)
		}
		return SetInput(tx, SlotReturnItems, v), nil
	}
	return tx, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}
