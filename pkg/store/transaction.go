package store

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/qret/pkg/domain"
)

// TransactionStore owns the durable data of a return. It is coupled to the
// screen's TransientStore: any phase change clears it.
type TransactionStore struct {
	tx        domain.Transaction
	transient *TransientStore
}

// NewTransactionStore creates a store at the first phase.
func NewTransactionStore(transient *TransientStore) *TransactionStore {
	return &TransactionStore{tx: domain.NewTransaction(), transient: transient}
}

// Transaction returns the current value.
func (s *TransactionStore) Transaction() domain.Transaction {
	return s.tx
}

// SetInput replaces one slot of the store's transaction.
func SetInput[T any](s *TransactionStore, slot domain.Slot[T], value T) {
	s.tx = domain.SetInput(s.tx, slot, value)
}

// SetInputByName replaces the slot called name with the JSON value raw.
func (s *TransactionStore) SetInputByName(name string, raw json.RawMessage) error {
	tx, err := domain.SetInputByName(s.tx, name, raw)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// CurrentPhase returns the active phase.
func (s *TransactionStore) CurrentPhase() domain.Phase {
	return s.tx.Phase
}

// AdvancePhase moves to next and resets the transient state.
func (s *TransactionStore) AdvancePhase(next domain.Phase) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPhase, next)
	}
	s.tx.Phase = next
	if s.transient != nil {
		s.transient.ResetAll()
	}
	return nil
}

// AddInvoice attaches a snapshot of inv to the receipts.
func (s *TransactionStore) AddInvoice(inv domain.Invoice) {
	SetInput(s, domain.SlotReceipts, s.tx.Receipts.With(inv))
}

// RemoveInvoice detaches an invoice. Unknown ids are ignored.
func (s *TransactionStore) RemoveInvoice(id string) {
	SetInput(s, domain.SlotReceipts, s.tx.Receipts.Without(id))
}

// SetQuantity adds or overwrites the return quantity of itemID.
func (s *TransactionStore) SetQuantity(itemID string, qty int) {
	SetInput(s, domain.SlotReturnItems, s.tx.ReturnItems.Set(itemID, qty))
}

// RemoveItem drops itemID from the return.
func (s *TransactionStore) RemoveItem(itemID string) {
	SetInput(s, domain.SlotReturnItems, s.tx.ReturnItems.Remove(itemID))
}

// FastFill replaces both collections with demo data in one step.
func (s *TransactionStore) FastFill(invoices []domain.Invoice, items []domain.ReturnItem) {
	SetInput(s, domain.SlotReceipts, domain.NewReceipts(invoices...))
	SetInput(s, domain.SlotReturnItems, domain.NewReturnItems(items...))
}
