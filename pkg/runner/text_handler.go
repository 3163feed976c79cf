package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/qret/internal/presentation/tui"
	"github.com/aretw0/qret/pkg/domain"
)

// Usage lists the text commands.
const Usage = `Commands:
  show                    current screen and transaction
  click <node-id>         click a node of the screen
  next                    advance to the next phase
  phase <phase>           go to a phase (receipts, items, review, tender, complete)
  invoice <invoice-id>    attach a receipt
  drop <invoice-id>       detach a receipt
  qty <item-id> <n>       set returned units (0 removes)
  rm <item-id>            stop returning an item
  input <slot> <json>     replace a transaction slot (receipts, returnItems)
  search [text]           find invoices
  fast-fill               load the demo selection
  refund                  derive the refund
  help                    this text
  quit                    leave`

// TextHandler implements the interactive terminal interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// Prompt is printed before each read when set.
	Prompt string
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
}

func (h *TextHandler) Read(ctx context.Context) (Command, error) {
	for {
		if h.Prompt != "" {
			fmt.Fprint(h.Writer, h.Prompt)
		}
		line, err := readLine(ctx, h.Reader)
		if err != nil {
			return Command{}, err
		}
		if line == "" {
			continue
		}
		return ParseCommand(line)
	}
}

// ParseCommand turns one text line into a Command.
func ParseCommand(line string) (Command, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	need := func(n int, usage string) error {
		if len(args) != n {
			return fmt.Errorf("%w: usage: %s", ErrBadCommand, usage)
		}
		return nil
	}

	switch strings.ToLower(word) {
	case "show", "ls":
		return Command{Op: OpShow}, nil
	case "click":
		if err := need(1, "click <node-id>"); err != nil {
			return Command{}, err
		}
		return Command{Op: OpClick, TargetID: args[0]}, nil
	case "next":
		return Command{Op: OpNextPhase}, nil
	case "phase":
		if err := need(1, "phase <phase>"); err != nil {
			return Command{}, err
		}
		return Command{Op: OpAdvancePhase, Phase: args[0]}, nil
	case "invoice", "receipt":
		if err := need(1, "invoice <invoice-id>"); err != nil {
			return Command{}, err
		}
		return Command{Op: OpAddInvoice, InvoiceID: args[0]}, nil
	case "drop":
		if err := need(1, "drop <invoice-id>"); err != nil {
			return Command{}, err
		}
		return Command{Op: OpRemoveInvoice, InvoiceID: args[0]}, nil
	case "qty":
		if err := need(2, "qty <item-id> <n>"); err != nil {
			return Command{}, err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("%w: quantity %q is not a number", ErrBadCommand, args[1])
		}
		return Command{Op: OpSetQuantity, ItemID: args[0], Qty: qty}, nil
	case "rm":
		if err := need(1, "rm <item-id>"); err != nil {
			return Command{}, err
		}
		return Command{Op: OpRemoveItem, ItemID: args[0]}, nil
	case "input":
		slot, value, _ := strings.Cut(rest, " ")
		value = strings.TrimSpace(value)
		if slot == "" || value == "" {
			return Command{}, fmt.Errorf("%w: usage: input <slot> <json>", ErrBadCommand)
		}
		if !json.Valid([]byte(value)) {
			return Command{}, fmt.Errorf("%w: value is not valid JSON", ErrBadCommand)
		}
		return Command{Op: OpSetInput, Slot: slot, Value: json.RawMessage(value)}, nil
	case "search", "find":
		return Command{Op: OpSearch, Query: rest}, nil
	case "fast-fill", "fastfill":
		return Command{Op: OpFastFill}, nil
	case "refund", "derive":
		return Command{Op: OpRefund}, nil
	case "help", "?":
		return Command{Op: OpHelp}, nil
	case "quit", "exit":
		return Command{Op: OpQuit}, nil
	}
	return Command{}, fmt.Errorf("%w: unknown command %q (try help)", ErrBadCommand, word)
}

func (h *TextHandler) Write(ctx context.Context, reply Reply) error {
	var sb strings.Builder
	switch {
	case reply.Error != "":
		sb.WriteString("error: " + reply.Error + "\n")
	case reply.Summary != nil:
		sb.WriteString(h.render(tui.SummaryMarkdown(*reply.Summary)))
	case reply.Invoices != nil || reply.Op == OpSearch:
		writeInvoices(&sb, reply.Invoices)
	case reply.Message != "":
		sb.WriteString(reply.Message + "\n")
	}

	if reply.Snapshot != nil {
		writeSnapshot(&sb, reply)
	}
	_, err := io.WriteString(h.Writer, sb.String())
	return err
}

func (h *TextHandler) render(markdown string) string {
	if h.Renderer == nil {
		return markdown
	}
	out, err := h.Renderer(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func writeSnapshot(sb *strings.Builder, reply Reply) {
	snap := reply.Snapshot
	tx := snap.Transaction

	if reply.Effect != nil {
		fmt.Fprintf(sb, "effect:   %s", reply.Effect.Op)
		if reply.Effect.NodeID != "" {
			fmt.Fprintf(sb, " by %s (%s)", reply.Effect.NodeID, reply.Effect.Role)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "phase:    %s\n", tx.Phase)
	fmt.Fprintf(sb, "keys:     %s\n", listOrDash(snap.Transient.Keys()))
	fmt.Fprintf(sb, "visible:  %s\n", listOrDash(reply.Visible))
	fmt.Fprintf(sb, "receipts: %s\n", listOrDash(tx.Receipts.IDs()))

	items := make([]string, 0, tx.ReturnItems.Len())
	for _, it := range tx.ReturnItems.List() {
		items = append(items, fmt.Sprintf("%s x%d", it.ItemID, it.Qty))
	}
	fmt.Fprintf(sb, "items:    %s\n", listOrDash(items))
}

func writeInvoices(sb *strings.Builder, invoices []domain.Invoice) {
	if len(invoices) == 0 {
		sb.WriteString("no invoices found\n")
		return
	}
	for _, inv := range invoices {
		fmt.Fprintf(sb, "%-10s %-20s %d line(s)\n", inv.ID, inv.Customer.Name, len(inv.Lines))
	}
}

func listOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
