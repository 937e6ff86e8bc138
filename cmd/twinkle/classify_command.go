package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"twinkle/internal/ipc"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Show how a file would be organized without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveCLIPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Classify(path)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatusLine("Category", statusInfo, resp.Category, false))
				fmt.Fprintln(out, renderStatusLine("Folder", statusInfo, resp.SuggestedFolder, false))
				fmt.Fprintln(out, renderStatusLine("Confidence", statusInfo, fmt.Sprintf("%.0f%%", resp.Confidence*100), false))
				fmt.Fprintln(out, renderStatusLine("Source", statusInfo, resp.Source, false))
				if resp.Reasoning != "" {
					fmt.Fprintln(out, renderStatusLine("Reasoning", statusInfo, resp.Reasoning, false))
				}
				fmt.Fprintln(out, renderStatusLine("Destination", statusInfo, resp.Destination, false))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
