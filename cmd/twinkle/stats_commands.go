package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"twinkle/internal/ipc"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime organize counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Stats)
				}
				out := cmd.OutOrStdout()
				for _, line := range statsLines(resp.Stats, -1, false) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// statsLines renders counters as status lines. historyLen < 0 omits the
// history row.
func statsLines(stats ipc.Stats, historyLen int, colorize bool) []string {
	lines := []string{
		renderStatusLine("Files organized", statusInfo, fmt.Sprintf("%d", stats.FilesOrganized), colorize),
		renderStatusLine("Folders created", statusInfo, fmt.Sprintf("%d", stats.FoldersCreated), colorize),
		renderStatusLine("Time saved", statusInfo, formatHours(stats.TimeSavedHours), colorize),
	}
	if historyLen >= 0 {
		lines = append(lines, renderStatusLine("Undo history", statusInfo, fmt.Sprintf("%d action(s)", historyLen), colorize))
	}
	return lines
}

func formatHours(hours float64) string {
	minutes := hours * 60
	if minutes < 60 {
		return fmt.Sprintf("%.0f min", minutes)
	}
	return fmt.Sprintf("%.1f h", hours)
}

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent daemon events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Activity(limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Entries)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No recent activity")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{formatTime(entry.Time), string(entry.Event), activityDetail(entry)})
				}
				fmt.Fprint(out, renderTable([]string{"When", "Event", "Detail"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func activityDetail(entry ipc.ActivityEntry) string {
	if msg := strings.TrimSpace(entry.Message); msg != "" {
		return msg
	}
	if len(entry.Payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(entry.Payload))
	for k := range entry.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Payload[k]))
	}
	return strings.Join(parts, " ")
}
