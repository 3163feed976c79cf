package runner

import (
	"log/slog"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID resumes (or starts) the named session. Without it the
// runner starts a fresh session with a random id.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithInvoices enables the invoice and search commands.
func WithInvoices(src ports.InvoiceSource) Option {
	return func(r *Runner) {
		r.Invoices = src
	}
}

// WithFastFill enables the fast-fill command.
func WithFastFill(fn func() ([]domain.Invoice, []domain.ReturnItem)) Option {
	return func(r *Runner) {
		r.FastFill = fn
	}
}
