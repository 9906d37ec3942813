package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "darkroom",
		Short: "AI photo retouch tool with undo history and batch processing",
		Long: `Darkroom applies AI-generated edits to photos: localized retouches,
stylistic filters, global adjustments, and crops, with full undo/redo history.

It can edit one image interactively or process a whole batch, and lets you
drop into focused editing of a single batch item and fold the result back.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}
