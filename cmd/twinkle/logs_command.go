package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"twinkle/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				runCtx := cmd.Context()
				out := cmd.OutOrStdout()
				req := ipc.LogsRequest{Tail: lines}
				printed := false
				for {
					resp, err := client.Logs(req)
					if err != nil {
						return fmt.Errorf("fetch logs: %w", err)
					}
					for _, evt := range resp.Events {
						fmt.Fprintln(out, formatLogEvent(evt))
						printed = true
					}
					if !follow {
						if !printed {
							fmt.Fprintln(out, "No log entries available")
						}
						return nil
					}
					if err := runCtx.Err(); err != nil {
						if errors.Is(err, context.Canceled) {
							return nil
						}
						return err
					}
					req = ipc.LogsRequest{Since: resp.Next, Follow: true, WaitMillis: 1000}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of recent lines to show (0 for all buffered)")
	return cmd
}


func formatLogEvent(evt ipc.LogEvent) string {
	ts := evt.Timestamp.Local().Format(timeLayout)
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if folder := strings.TrimSpace(evt.Folder); folder != "" {
		line += " " + folder
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " - " + message
	}
	if len(evt.Fields) == 0 {
		return line
	}
	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var builder strings.Builder
	builder.WriteString(line)
	for _, k := range keys {
		value := strings.TrimSpace(evt.Fields[k])
		if value == "" {
			continue
		}
		builder.WriteString("\n    - ")
		builder.WriteString(k)
		builder.WriteString(": ")
		builder.WriteString(value)
	}
	return builder.String()
}
