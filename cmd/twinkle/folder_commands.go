package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"twinkle/internal/config"
	"twinkle/internal/ipc"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Manage watched folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFolders(cmd, ctx, false)
		},
	}

	foldersCmd.AddCommand(newFoldersListCommand(ctx))
	foldersCmd.AddCommand(newFoldersAddCommand(ctx))
	foldersCmd.AddCommand(newFoldersRemoveCommand(ctx))

	return foldersCmd
}

func newFoldersListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFolders(cmd, ctx, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func listFolders(cmd *cobra.Command, ctx *commandContext, jsonOutput bool) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.ListFolders()
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd, resp.Folders)
		}
		out := cmd.OutOrStdout()
		if len(resp.Folders) == 0 {
			fmt.Fprintln(out, "No folders watched")
			return nil
		}
		fmt.Fprint(out, renderFolderTable(resp.Folders, true))
		return nil
	})
}

func newFoldersAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Start watching one or more folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					path, err := resolveCLIPath(arg)
					if err != nil {
						return err
					}
					resp, err := client.AddFolder(path)
					if err != nil {
						return fmt.Errorf("add %s: %w", path, err)
					}
					if resp.Added {
						fmt.Fprintf(out, "Watching %s\n", resp.Path)
					} else {
						fmt.Fprintf(out, "Already watching %s\n", resp.Path)
					}
				}
				return nil
			})
		},
	}
}

func newFoldersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <path>...",
		Aliases: []string{"rm"},
		Short:   "Stop watching one or more folders",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					path, err := resolveCLIPath(arg)
					if err != nil {
						return err
					}
					resp, err := client.RemoveFolder(path)
					if err != nil {
						return fmt.Errorf("remove %s: %w", path, err)
					}
					if resp.Removed {
						fmt.Fprintf(out, "Stopped watching %s\n", resp.Path)
					} else {
						fmt.Fprintf(out, "Not watching %s\n", resp.Path)
					}
				}
				return nil
			})
		},
	}
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan [path]",
		Short: "Re-check existing files in watched folders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				path, err := resolveCLIPath(args[0])
				if err != nil {
					return err
				}
				target = path
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rescan(target)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Folders) == 0 {
					fmt.Fprintln(out, "No folders watched")
					return nil
				}
				fmt.Fprintf(out, "Rescanning %d folder(s)\n", len(resp.Folders))
				for _, folder := range resp.Folders {
					fmt.Fprintf(out, "  %s\n", folder)
				}
				return nil
			})
		},
	}
}

// resolveCLIPath expands ~ and makes path absolute relative to the caller's
// working directory, which the daemon does not share.
func resolveCLIPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}
