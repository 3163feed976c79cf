package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/qret/internal/presentation/tui"
	"github.com/aretw0/qret/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a return from the terminal",
	Long: `Opens a cashier console on one session. Type help for the commands.
With --json the console reads and writes JSON Lines instead, for scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var handler runner.IOHandler
		if asJSON {
			handler = runner.NewJSONHandler(cmd.InOrStdin(), cmd.OutOrStdout())
		} else {
			text := runner.NewTextHandler(cmd.InOrStdin(), cmd.OutOrStdout())
			if tui.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout)
				text.Prompt = "> "
				text.Renderer = tui.NewRenderer()
			}
			handler = text
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := runner.NewRunner(app.Sessions,
			runner.WithInputHandler(handler),
			runner.WithSessionID(sessionID),
			runner.WithInvoices(app.Invoices),
			runner.WithFastFill(app.Fixture.Selection),
			runner.WithLogger(app.Logger),
		)
		return r.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Read and write JSON Lines")
	runCmd.Flags().String("session", "", "Session id to resume (default: a new one)")
}
