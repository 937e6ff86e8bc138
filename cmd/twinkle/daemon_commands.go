package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"twinkle/internal/config"
	"twinkle/internal/daemonctl"
	"twinkle/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the twinkle daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateIdle:
				fmt.Fprintln(stdout, "Daemon is reachable but not organizing; check `twinkle logs` for the start failure")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the twinkle daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.loadedConfig(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var checkOracle bool
	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, classifier, and watched folder status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.loadedConfig()
			socket := ctx.socketPath()
			statusResp, live, err := daemonctl.BuildStatusSnapshot(cmd.Context(), socket, cfg, checkOracle)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, statusResp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			printStatus(stdout, statusResp, live, socket, cfg, colorize)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&checkOracle, "check-oracle", false, "Probe the classification oracle")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the twinkle daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.loadedConfig(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateIdle:
				fmt.Fprintln(stdout, "Daemon is reachable but not organizing; check `twinkle logs` for the start failure")
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func printStatus(out io.Writer, resp *ipc.StatusResponse, live bool, socket string, cfg *config.Config, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, daemonStatusLine(resp, live, colorize))
	fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, socket, colorize))
	fmt.Fprintln(out, renderStatusLine("Store", statusInfo, fmt.Sprintf("%s (%s)", resp.StorePath, resp.StoreBackend), colorize))
	if resp.LogPath != "" {
		fmt.Fprintln(out, renderStatusLine("Log", statusInfo, resp.LogPath, colorize))
	}
	fmt.Fprintln(out, oracleStatusLine(resp.Oracle, cfg, colorize))
	fmt.Fprintln(out, rescanStatusLine(resp, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Stats", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range statsLines(resp.Stats, resp.HistoryLen, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Watched Folders", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(resp.Folders) == 0 {
		fmt.Fprintln(out, "No folders watched")
		return
	}
	fmt.Fprint(out, renderFolderTable(resp.Folders, live))
}

func daemonStatusLine(resp *ipc.StatusResponse, live, colorize bool) string {
	switch {
	case !live:
		return renderStatusLine("Twinkle", statusError, "Not running", colorize)
	case resp.Running:
		detail := fmt.Sprintf("Running (pid %d)", resp.PID)
		if !resp.StartedAt.IsZero() {
			detail = fmt.Sprintf("Running (pid %d, since %s)", resp.PID, resp.StartedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return renderStatusLine("Twinkle", statusOK, detail, colorize)
	default:
		return renderStatusLine("Twinkle", statusWarn, "Reachable but idle", colorize)
	}
}

func oracleStatusLine(oracle ipc.OracleStatus, cfg *config.Config, colorize bool) string {
	provider := oracle.Provider
	if provider == "" && cfg != nil {
		provider = cfg.Classifier.Provider
	}
	if provider == "" || provider == config.ProviderNone {
		return renderStatusLine("Classifier", statusInfo, "Extension table only", colorize)
	}
	label := provider
	if oracle.Model != "" {
		label = fmt.Sprintf("%s (%s)", provider, oracle.Model)
	}
	if !oracle.Checked {
		return renderStatusLine("Classifier", statusInfo, label, colorize)
	}
	if oracle.Ready {
		return renderStatusLine("Classifier", statusOK, label+" ready", colorize)
	}
	detail := strings.TrimSpace(oracle.Detail)
	if detail == "" {
		detail = "unreachable"
	}
	return renderStatusLine("Classifier", statusError, fmt.Sprintf("%s: %s", label, detail), colorize)
}

func rescanStatusLine(resp *ipc.StatusResponse, colorize bool) string {
	if strings.TrimSpace(resp.RescanSchedule) == "" {
		return renderStatusLine("Rescan", statusInfo, "Disabled", colorize)
	}
	detail := resp.RescanSchedule
	if !resp.NextRescan.IsZero() {
		detail = fmt.Sprintf("%s (next %s)", resp.RescanSchedule, resp.NextRescan.Local().Format("2006-01-02 15:04:05"))
	}
	return renderStatusLine("Rescan", statusInfo, detail, colorize)
}

func renderFolderTable(folders []ipc.FolderStatus, live bool) string {
	rows := make([][]string, 0, len(folders))
	for _, f := range folders {
		watching := "unknown"
		if live {
			watching = yesNo(f.Watching)
		}
		rows = append(rows, []string{f.Path, watching, f.Subfolder})
	}
	return renderTable([]string{"Folder", "Watching", "Organized Into"}, rows)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		SocketPath: ctx.socketOverride(),
		ConfigPath: ctx.configOverride(),
	}
}
