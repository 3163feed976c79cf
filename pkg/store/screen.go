package store

import (
	"time"

	"github.com/aretw0/qret/pkg/domain"
)

// Screen is the application controller for one return screen: both stores,
// the price catalog and, optionally, the interaction tree of the screen.
type Screen struct {
	Transient   *TransientStore
	Transaction *TransactionStore

	catalog domain.PriceLookup
	tree    *domain.Tree
}

// NewScreen creates an empty screen. tree may be nil when the host sends
// bubbling paths itself.
func NewScreen(catalog domain.PriceLookup, tree *domain.Tree) *Screen {
	transient := NewTransientStore()
	return &Screen{
		Transient:   transient,
		Transaction: NewTransactionStore(transient),
		catalog:     catalog,
		tree:        tree,
	}
}

// FromSnapshot rebuilds a screen from persisted session state.
func FromSnapshot(snap *domain.Snapshot, catalog domain.PriceLookup, tree *domain.Tree) *Screen {
	s := NewScreen(catalog, tree)
	s.Transient.state = snap.Transient
	s.Transaction.tx = snap.Transaction
	if !s.Transaction.tx.Phase.Valid() {
		s.Transaction.tx.Phase = domain.PhaseReceipts
	}
	return s
}

// Snapshot captures the screen for persistence.
func (s *Screen) Snapshot(sessionID string, now time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		SessionID:   sessionID,
		Transient:   s.Transient.State(),
		Transaction: s.Transaction.Transaction(),
		UpdatedAt:   now,
	}
}

// Tree returns the interaction tree, if any.
func (s *Screen) Tree() *domain.Tree {
	return s.tree
}

// Click resolves targetID through the screen's tree and applies it.
func (s *Screen) Click(targetID string) (domain.Effect, error) {
	if s.tree == nil {
		return domain.Effect{Op: domain.OpNone}, domain.ErrUnknownNode
	}
	path, err := s.tree.Path(targetID)
	if err != nil {
		return domain.Effect{Op: domain.OpNone}, err
	}
	return s.Transient.Dispatch(domain.Click{TargetID: targetID}, path...), nil
}

// ClickPath applies a click whose bubbling path was supplied by the host.
func (s *Screen) ClickPath(click domain.Click, path ...domain.Node) domain.Effect {
	return s.Transient.Dispatch(click, path...)
}

// Visible reports whether the vignette id is shown. Unknown ids are hidden.
func (s *Screen) Visible(id string) bool {
	if s.tree == nil {
		return false
	}
	n, ok := s.tree.Node(id)
	if !ok {
		return false
	}
	return domain.Visible(n, s.Transient.State())
}

// Derive recomputes the atoms from the current transaction.
func (s *Screen) Derive() []domain.Atom {
	return domain.Derive(s.Transaction.Transaction(), s.catalog)
}

// Summary recomputes the refund summary from the current transaction.
func (s *Screen) Summary() domain.Summary {
	return domain.Summarize(s.Transaction.Transaction(), s.catalog)
}
