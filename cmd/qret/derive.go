package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/qret"
	"github.com/aretw0/qret/internal/presentation/tui"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deriveCmd = &cobra.Command{
	Use:   "derive [session-id]",
	Short: "Derive the refund for a return",
	Long: `Prints the refund summary of a stored session, or of a one-off return
described by --invoice and --item flags (or the demo --fast-fill selection).`,
	Example: `  qret derive --invoice INV-2001 --item 1122=2
  qret derive --fast-fill --json
  qret derive register-1 --config qret.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var sum domain.Summary
		if len(args) == 1 {
			sum, err = app.Sessions.Refund(cmd.Context(), args[0])
		} else {
			sum, err = deriveOneOff(cmd, app)
		}
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		return tui.Print(cmd.OutOrStdout(), tui.SummaryMarkdown(sum))
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().StringSlice("invoice", nil, "Invoice id presented as receipt (repeatable)")
	deriveCmd.Flags().StringSlice("item", nil, "Item to return as id=qty (repeatable)")
	deriveCmd.Flags().Bool("fast-fill", false, "Use the demo selection")
	deriveCmd.Flags().Bool("json", false, "Print the summary as JSON")
}

// deriveOneOff runs the return in a throwaway session.
func deriveOneOff(cmd *cobra.Command, app *qret.App) (domain.Summary, error) {
	ctx := cmd.Context()
	invoices, _ := cmd.Flags().GetStringSlice("invoice")
	items, _ := cmd.Flags().GetStringSlice("item")
	fastFill, _ := cmd.Flags().GetBool("fast-fill")

	id := "cli-" + uuid.NewString()
	if _, err := app.Sessions.Start(ctx, id); err != nil {
		return domain.Summary{}, err
	}
	defer func() {
		if err := app.Sessions.Delete(ctx, id); err != nil {
			app.Logger.Warn("failed to remove throwaway session", "session_id", id, "err", err)
		}
	}()

	if fastFill {
		invs, sel := app.Fixture.Selection()
		if _, err := app.Sessions.FastFill(ctx, id, invs, sel); err != nil {
			return domain.Summary{}, err
		}
	}
	for _, invoiceID := range invoices {
		inv, err := app.Invoices.Find(ctx, invoiceID)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("%s: %w", invoiceID, err)
		}
		if _, err := app.Sessions.AddInvoice(ctx, id, inv); err != nil {
			return domain.Summary{}, err
		}
	}
	for _, raw := range items {
		itemID, qty, err := parseItem(raw)
		if err != nil {
			return domain.Summary{}, err
		}
		if _, err := app.Sessions.SetQuantity(ctx, id, itemID, qty); err != nil {
			return domain.Summary{}, err
		}
	}
	return app.Sessions.Refund(ctx, id)
}

// parseItem reads "id=qty". A bare id means one unit.
func parseItem(raw string) (string, int, error) {
	itemID, qtyText, found := strings.Cut(raw, "=")
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", 0, fmt.Errorf("invalid item %q: missing id", raw)
	}
	if !found {
		return itemID, 1, nil
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
	if err != nil || qty < 1 {
		return "", 0, fmt.Errorf("invalid item %q: quantity must be a positive integer", raw)
	}
	return itemID, qty, nil
}
