package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/aretw0/qret/pkg/session"
	"github.com/google/uuid"
)

// Runner drives one return session from a stream of cashier commands.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Sessions  *session.Manager
	Handler   IOHandler
	SessionID string
	Invoices  ports.InvoiceSource
	FastFill  func() ([]domain.Invoice, []domain.ReturnItem)

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// NewRunner creates a Runner on sessions. The default handler is text on
// Stdin/Stdout.
func NewRunner(sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{Sessions: sessions}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// errQuit ends the loop without error.
var errQuit = errors.New("quit")

// Run starts the session, shows it, and executes commands until input ends,
// the cashier quits or ctx is cancelled. Command failures are reported to
// the handler and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	snap, err := r.Sessions.Start(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.Logger.Debug("console attached", "session_id", r.SessionID)

	if err := r.Handler.Write(ctx, r.snapshotReply(OpShow, snap)); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	for {
		cmd, err := r.Handler.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, ErrBadCommand) {
				if werr := r.Handler.Write(ctx, Reply{Error: err.Error()}); werr != nil {
					return fmt.Errorf("output error: %w", werr)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		reply, err := r.Execute(ctx, cmd)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.Logger.Debug("command failed", "session_id", r.SessionID, "op", cmd.Op, "err", err)
			reply = Reply{Op: cmd.Op, Error: err.Error()}
		}
		if err := r.Handler.Write(ctx, reply); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// Execute applies one command to the runner's session.
func (r *Runner) Execute(ctx context.Context, cmd Command) (Reply, error) {
	id := r.SessionID
	var (
		snap *domain.Snapshot
		err  error
	)

	switch cmd.Op {
	case OpShow:
		snap, err = r.Sessions.Load(ctx, id)
	case OpClick:
		var eff domain.Effect
		snap, eff, err = r.Sessions.Click(ctx, id, cmd.TargetID)
		if err != nil {
			return Reply{}, err
		}
		reply := r.snapshotReply(cmd.Op, snap)
		reply.Effect = &eff
		return reply, nil
	case OpNextPhase:
		snap, err = r.Sessions.NextPhase(ctx, id)
	case OpAdvancePhase:
		snap, err = r.Sessions.AdvancePhase(ctx, id, domain.Phase(cmd.Phase))
	case OpAddInvoice:
		if r.Invoices == nil {
			return Reply{}, fmt.Errorf("%w: %q", domain.ErrInvoiceNotFound, cmd.InvoiceID)
		}
		inv, ferr := r.Invoices.Find(ctx, cmd.InvoiceID)
		if ferr != nil {
			return Reply{}, ferr
		}
		snap, err = r.Sessions.AddInvoice(ctx, id, inv)
	case OpRemoveInvoice:
		snap, err = r.Sessions.RemoveInvoice(ctx, id, cmd.InvoiceID)
	case OpSetQuantity:
		switch {
		case cmd.Qty < 0:
			return Reply{}, fmt.Errorf("qty must not be negative, got %d", cmd.Qty)
		case cmd.Qty == 0:
			snap, err = r.Sessions.RemoveItem(ctx, id, cmd.ItemID)
		default:
			snap, err = r.Sessions.SetQuantity(ctx, id, cmd.ItemID, cmd.Qty)
		}
	case OpRemoveItem:
		snap, err = r.Sessions.RemoveItem(ctx, id, cmd.ItemID)
	case OpSetInput:
		snap, err = r.Sessions.SetInput(ctx, id, cmd.Slot, cmd.Value)
	case OpSearch:
		if r.Invoices == nil {
			return Reply{Op: cmd.Op, Invoices: []domain.Invoice{}}, nil
		}
		found, serr := r.Invoices.Search(ctx, cmd.Query)
		if serr != nil {
			return Reply{}, serr
		}
		return Reply{Op: cmd.Op, Invoices: found}, nil
	case OpFastFill:
		if r.FastFill == nil {
			return Reply{}, errors.New("fast fill is not configured")
		}
		invoices, items := r.FastFill()
		snap, err = r.Sessions.FastFill(ctx, id, invoices, items)
	case OpRefund:
		sum, derr := r.Sessions.Refund(ctx, id)
		if derr != nil {
			return Reply{}, derr
		}
		return Reply{Op: cmd.Op, Summary: &sum}, nil
	case OpHelp:
		return Reply{Op: cmd.Op, Message: Usage}, nil
	case OpQuit:
		return Reply{}, errQuit
	default:
		return Reply{}, fmt.Errorf("%w: unknown op %q", ErrBadCommand, cmd.Op)
	}

	if err != nil {
		return Reply{}, err
	}
	return r.snapshotReply(cmd.Op, snap), nil
}

func (r *Runner) snapshotReply(op Op, snap *domain.Snapshot) Reply {
	reply := Reply{Op: op, Snapshot: snap}
	if tree := r.Sessions.Tree(); tree != nil {
		reply.Visible = tree.VisibleIDs(snap.Transient)
	}
	return reply
}
