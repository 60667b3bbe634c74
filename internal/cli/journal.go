package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/journal"
)

// addJournalCommand adds the command-journal viewer.
func addJournalCommand(rootCmd *cobra.Command, app *App) {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "View recently dispatched commands",
		Long:  "List the commands dispatched from this machine and their outcomes, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				output.Warning("Command journal is disabled")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			entries, err := app.Journal.Recent(ctx, limit)
			if err != nil {
				output.Error("Failed to read journal: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}
			if len(entries) == 0 {
				output.Info("No commands recorded")
				return nil
			}

			table := NewTable(output, "Time", "Command", "Symbol", "Qty", "Outcome", "Detail")
			for _, e := range entries {
				table.AddRow(
					e.Timestamp.Local().Format("Jan 02 15:04:05"),
					e.Operation,
					e.Symbol,
					quantityCell(e),
					outcomeCell(output, e.Outcome),
					e.Detail,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries to show")
	rootCmd.AddCommand(cmd)
}

func quantityCell(e journal.Entry) string {
	if e.Quantity == 0 {
		return ""
	}
	return fmt.Sprintf("%d", e.Quantity)
}

func outcomeCell(output *Output, outcome string) string {
	switch outcome {
	case journal.OutcomeAccepted:
		return output.ColoredString(ColorGreen, outcome)
	case journal.OutcomeRejected:
		return output.ColoredString(ColorYellow, outcome)
	default:
		return output.ColoredString(ColorRed, outcome)
	}
}
