package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/qret/internal/logging"
	"github.com/aretw0/qret/pkg/adapters/fixture"
	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, handler IOHandler) *Runner {
	t.Helper()
	demo := fixture.Demo()
	tree, err := demo.Tree()
	require.NoError(t, err)

	sessions := session.NewManager(memory.NewStore(), demo.PriceCatalog(),
		session.WithTree(tree),
		session.WithLogger(logging.NewNop()),
	)
	return NewRunner(sessions,
		WithInputHandler(handler),
		WithSessionID("register-1"),
		WithInvoices(demo.InvoiceSource()),
		WithFastFill(demo.Selection),
		WithLogger(logging.NewNop()),
	)
}

func TestRun_TextSession(t *testing.T) {
	input := strings.Join([]string{
		"invoice INV-2001",
		"next",
		"click item-1122",
		"qty 1122 2",
		"bogus",
		"refund",
		"quit",
		"show",
	}, "\n")
	var out bytes.Buffer
	r := newRunner(t, NewTextHandler(strings.NewReader(input), &out))

	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "receipts: INV-2001")
	assert.Contains(t, text, "phase:    items")
	assert.Contains(t, text, "effect:   merge by item-1122 (actor)")
	assert.Contains(t, text, "visible:  keypad-1122")
	assert.Contains(t, text, "items:    1122 x2")
	assert.Contains(t, text, `error: bad command: unknown command "bogus"`)
	assert.Contains(t, text, "**Total:** 25.98 for 2 unit(s), of which 1 unreceipted (12.99)")

	snap, err := r.Sessions.Load(context.Background(), "register-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseItems, snap.Transaction.Phase, "commands after quit are not run")
}

func TestRun_JSONSession(t *testing.T) {
	input := strings.Join([]string{
		`{"op":"fast_fill"}`,
		``,
		`{"op":"set_quantity","item_id":"5566","qty":0}`,
		`{"op":"refund"}`,
		`{"op":"set_quantity","item_id":"5566","qty":-1}`,
		`not json`,
	}, "\n")
	var out bytes.Buffer
	r := newRunner(t, NewJSONHandler(strings.NewReader(input), &out))

	require.NoError(t, r.Run(context.Background()), "EOF ends the session")

	var replies []Reply
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var reply Reply
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &reply))
		replies = append(replies, reply)
	}
	require.Len(t, replies, 6)

	assert.Equal(t, OpShow, replies[0].Op)
	assert.Equal(t, 2, replies[1].Snapshot.Transaction.ReturnItems.Len())
	assert.False(t, replies[2].Snapshot.Transaction.ReturnItems.Has("5566"))
	require.NotNil(t, replies[3].Summary)
	assert.Equal(t, int64(3*1299), replies[3].Summary.TotalValueCents)
	assert.Contains(t, replies[4].Error, "must not be negative")
	assert.Contains(t, replies[5].Error, "bad command")
}

func TestExecute_Errors(t *testing.T) {
	r := newRunner(t, NewTextHandler(strings.NewReader(""), &bytes.Buffer{}))
	ctx := context.Background()
	_, err := r.Sessions.Start(ctx, r.SessionID)
	require.NoError(t, err)

	_, err = r.Execute(ctx, Command{Op: OpClick, TargetID: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrUnknownNode)

	_, err = r.Execute(ctx, Command{Op: OpAddInvoice, InvoiceID: "INV-404"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	_, err = r.Execute(ctx, Command{Op: OpAdvancePhase, Phase: "checkout"})
	assert.ErrorIs(t, err, domain.ErrUnknownPhase)

	_, err = r.Execute(ctx, Command{Op: OpSetInput, Slot: "basket", Value: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, domain.ErrUnknownSlot)

	_, err = r.Execute(ctx, Command{Op: "dance"})
	assert.ErrorIs(t, err, ErrBadCommand)
}

func TestExecute_SearchAndHelp(t *testing.T) {
	r := newRunner(t, NewTextHandler(strings.NewReader(""), &bytes.Buffer{}))
	ctx := context.Background()

	reply, err := r.Execute(ctx, Command{Op: OpSearch, Query: "ada"})
	require.NoError(t, err)
	assert.Len(t, reply.Invoices, 2)

	reply, err = r.Execute(ctx, Command{Op: OpHelp})
	require.NoError(t, err)
	assert.Equal(t, Usage, reply.Message)
}

func TestRun_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	r := newRunner(t, NewTextHandler(strings.NewReader("show\nshow\n"), &out))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 1, strings.Count(out.String(), "phase:"), "only the initial screen is shown")
}
