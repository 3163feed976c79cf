package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/qret/internal/presentation/tui"
	"github.com/aretw0/qret/pkg/adapters/xlsx"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the configured price catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		catalog := app.Sessions.Catalog()
		return tui.Print(cmd.OutOrStdout(), catalogMarkdown(catalog.Version(), catalog.List()))
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the price catalog to a spreadsheet",
	Long:  `Writes every catalog entry to an xlsx workbook that the xlsx catalog source can read back.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		entries := app.Sessions.Catalog().List()
		if err := xlsx.Write(args[0], entries); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d item(s) to %s\n", len(entries), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogExportCmd)
}

func catalogMarkdown(version string, entries []domain.CatalogEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Catalog `%s`\n\n", version))
	if len(entries) == 0 {
		sb.WriteString("_Empty._\n")
		return sb.String()
	}
	sb.WriteString("| Item | Description | Unit |\n")
	sb.WriteString("|---|---|---:|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			e.ItemID, strings.ReplaceAll(e.Description, "|", "\\|"), tui.Money(e.UnitValueCents)))
	}
	return sb.String()
}
