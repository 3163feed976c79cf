package session

import (
	"errors"
	"fmt"

	"github.com/aretw0/qret/pkg/domain"
)

// PhaseGuard validates a phase change before it happens. A non-nil error
// rejects the change; the Manager reports it as domain.ErrPhaseRejected.
type PhaseGuard func(from, to domain.Phase, tx domain.Transaction) error

// Guards combines guards; the first rejection wins.
func Guards(guards ...PhaseGuard) PhaseGuard {
	return func(from, to domain.Phase, tx domain.Transaction) error {
		for _, g := range guards {
			if g == nil {
				continue
			}
			if err := g(from, to, tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// NoSkipping allows moving back to any earlier phase but forward only one
// step at a time.
func NoSkipping() PhaseGuard {
	return func(from, to domain.Phase, _ domain.Transaction) error {
		if to.Index() > from.Index()+1 {
			return fmt.Errorf("cannot skip from %s to %s", from, to)
		}
		return nil
	}
}

// RequireReturnItems refuses to go past the items phase with nothing to return.
func RequireReturnItems() PhaseGuard {
	return func(from, to domain.Phase, tx domain.Transaction) error {
		if to.Index() <= domain.PhaseItems.Index() {
			return nil
		}
		for _, it := range tx.ReturnItems.List() {
			if it.Qty > 0 {
				return nil
			}
		}
		return errors.New("no items to return")
	}
}
