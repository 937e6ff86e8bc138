package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "twinkle",
		Short:         "Watch folders and file new arrivals into category folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.socketFlag, "socket", "", "Daemon socket path (default: paths.socket_path)")
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Path to config.toml")

	root.AddCommand(newDaemonCommands(ctx)...)
	root.AddCommand(
		newDaemonRunCommand(ctx),
		newFoldersCommand(ctx),
		newRescanCommand(ctx),
		newHistoryCommand(ctx),
		newUndoCommand(ctx),
		newStatsCommand(ctx),
		newActivityCommand(ctx),
		newLogsCommand(ctx),
		newClassifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
