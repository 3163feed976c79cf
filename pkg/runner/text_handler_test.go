package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"show", Command{Op: OpShow}},
		{"click refund-1122", Command{Op: OpClick, TargetID: "refund-1122"}},
		{"NEXT", Command{Op: OpNextPhase}},
		{"phase review", Command{Op: OpAdvancePhase, Phase: "review"}},
		{"invoice INV-1001", Command{Op: OpAddInvoice, InvoiceID: "INV-1001"}},
		{"drop INV-1001", Command{Op: OpRemoveInvoice, InvoiceID: "INV-1001"}},
		{"qty 1122  3", Command{Op: OpSetQuantity, ItemID: "1122", Qty: 3}},
		{"rm 1122", Command{Op: OpRemoveItem, ItemID: "1122"}},
		{`input returnItems {"1122": 1}`, Command{Op: OpSetInput, Slot: "returnItems", Value: json.RawMessage(`{"1122": 1}`)}},
		{"search ada lovelace", Command{Op: OpSearch, Query: "ada lovelace"}},
		{"search", Command{Op: OpSearch}},
		{"fast-fill", Command{Op: OpFastFill}},
		{"refund", Command{Op: OpRefund}},
		{"?", Command{Op: OpHelp}},
		{"exit", Command{Op: OpQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	for _, line := range []string{
		"click",
		"qty 1122",
		"qty 1122 many",
		"input receipts",
		"input receipts {nope",
		"teleport",
	} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrBadCommand, line)
	}
}

func TestTextHandler_Write(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(nil, &out)
	h.Renderer = func(md string) (string, error) { return "RENDERED\n", nil }
	ctx := context.Background()

	snap := domain.NewSnapshot("s")
	require.NoError(t, h.Write(ctx, Reply{Op: OpShow, Snapshot: snap}))
	assert.Contains(t, out.String(), "phase:    receipts")
	assert.Contains(t, out.String(), "receipts: -")

	out.Reset()
	require.NoError(t, h.Write(ctx, Reply{Op: OpRefund, Summary: &domain.Summary{}}))
	assert.Equal(t, "RENDERED\n", out.String())

	out.Reset()
	require.NoError(t, h.Write(ctx, Reply{Op: OpSearch}))
	assert.Equal(t, "no invoices found\n", out.String())

	out.Reset()
	require.NoError(t, h.Write(ctx, Reply{Error: "boom"}))
	assert.Equal(t, "error: boom\n", out.String())
}

func TestTextHandler_Prompt(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(bytes.NewBufferString("\n\nshow\n"), &out)
	h.Prompt = "> "

	cmd, err := h.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OpShow, cmd.Op)
	assert.Equal(t, "> > > ", out.String(), "blank lines prompt again")
}
