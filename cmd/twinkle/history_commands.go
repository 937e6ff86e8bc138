package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"twinkle/internal/ipc"
	"twinkle/internal/organizer"
)

const timeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded organize actions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Actions)
				}
				out := cmd.OutOrStdout()
				if len(resp.Actions) == 0 {
					fmt.Fprintln(out, "No actions recorded")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"#", "When", "Action", "From", "To"},
					historyRows(resp.Actions),
					0,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of actions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(actions []ipc.Action) [][]string {
	rows := make([][]string, 0, len(actions))
	for i, a := range actions {
		from := a.From
		if from == "" {
			from = "-"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), formatTime(a.Time), a.Kind, from, a.To})
	}
	return rows
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent organize action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Undo()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch organizer.UndoStatus(resp.Status) {
				case organizer.Undone, organizer.NothingToUndo, organizer.NotReversible:
					fmt.Fprintln(out, resp.Message)
				default:
					return fmt.Errorf("undo failed: %s", resp.Message)
				}
				return nil
			})
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
