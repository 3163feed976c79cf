package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Print writes markdown to w, styled when w is a terminal and raw otherwise.
func Print(w io.Writer, markdown string) error {
	if IsTerminal(w) {
		rendered, err := NewRenderer()(markdown)
		if err == nil {
			markdown = rendered
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}

// Money formats minor units as a decimal amount.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SummaryMarkdown renders a refund summary as markdown tables.
func SummaryMarkdown(sum domain.Summary) string {
	var sb strings.Builder

	sb.WriteString("# Refund\n\n")
	if len(sum.Items) == 0 {
		sb.WriteString("_No items to return._\n")
		return sb.String()
	}

	sb.WriteString("| Item | Description | Qty | Receipted | Unreceipted | Unit | Total |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
	for _, it := range sum.Items {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %s | %s |\n",
			it.ItemID, cellText(it.Description), it.Qty, it.ReceiptedQty, it.UnreceiptedQty,
			Money(it.UnitValueCents), Money(it.ValueCents)))
	}

	if len(sum.Invoices) > 0 {
		sb.WriteString("\n## By invoice\n\n")
		sb.WriteString("| Invoice | Qty | Total |\n")
		sb.WriteString("|---|---:|---:|\n")
		for _, inv := range sum.Invoices {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", inv.InvoiceID, inv.Qty, Money(inv.ValueCents)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n**Total:** %s for %d unit(s)", Money(sum.TotalValueCents), sum.TotalQty))
	if sum.UnreceiptedQty > 0 {
		sb.WriteString(fmt.Sprintf(", of which %d unreceipted (%s)", sum.UnreceiptedQty, Money(sum.UnreceiptedCents)))
	}
	sb.WriteString("\n")
	return sb.String()
}

func cellText(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
