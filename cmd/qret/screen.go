package main

import (
	"fmt"

	"github.com/aretw0/qret/internal/presentation/graph"
	"github.com/aretw0/qret/internal/validator"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Export the screen tree visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the configured screen. With
--session the diagram highlights what that session currently shows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.Overlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			snap, err := app.Sessions.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{State: snap.Transient}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Sessions.Tree(), overlay))
		return nil
	},
}

var screenValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the screen for consistency",
	Long:  `Reports vignettes that wait for keys no stage or actor can activate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := validator.ValidateTree(app.Sessions.Tree()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Screen is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)
	screenCmd.AddCommand(screenValidateCmd)
	screenCmd.Flags().String("session", "", "Session whose transient state to overlay")
}
