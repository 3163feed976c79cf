package runner

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aretw0/qret/pkg/domain"
)

// Op names a console command.
type Op string

const (
	OpShow          Op = "show"
	OpClick         Op = "click"
	OpNextPhase     Op = "next_phase"
	OpAdvancePhase  Op = "advance_phase"
	OpAddInvoice    Op = "add_invoice"
	OpRemoveInvoice Op = "remove_invoice"
	OpSetQuantity   Op = "set_quantity"
	OpRemoveItem    Op = "remove_item"
	OpSetInput      Op = "set_input"
	OpSearch        Op = "search"
	OpFastFill      Op = "fast_fill"
	OpRefund        Op = "refund"
	OpHelp          Op = "help"
	OpQuit          Op = "quit"
)

// ErrBadCommand is returned by handlers for lines that are not a valid
// command. The runner reports it and keeps reading.
var ErrBadCommand = errors.New("bad command")

// Command is one cashier action against the running session.
type Command struct {
	Op        Op              `json:"op"`
	TargetID  string          `json:"target_id,omitempty"`
	InvoiceID string          `json:"invoice_id,omitempty"`
	ItemID    string          `json:"item_id,omitempty"`
	Qty       int             `json:"qty,omitempty"`
	Phase     string          `json:"phase,omitempty"`
	Slot      string          `json:"slot,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Query     string          `json:"query,omitempty"`
}

// Reply is the outcome of one command. Only the fields the command
// produced are set.
type Reply struct {
	Op       Op               `json:"op,omitempty"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Visible  []string         `json:"visible,omitempty"`
	Effect   *domain.Effect   `json:"effect,omitempty"`
	Summary  *domain.Summary  `json:"summary,omitempty"`
	Invoices []domain.Invoice `json:"invoices,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// IOHandler defines the strategy for talking to the cashier.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Read blocks for the next command. It returns io.EOF when input ends
	// and wraps ErrBadCommand for unparseable lines.
	Read(ctx context.Context) (Command, error)

	// Write presents a reply.
	Write(ctx context.Context, reply Reply) error
}

// ContentRenderer transforms markdown before it is written, e.g. into
// ANSI styled text for a terminal.
type ContentRenderer func(string) (string, error)
