package daemonctl

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"twinkle/internal/ipc"
)

const pollInterval = 200 * time.Millisecond

// LaunchOptions are forwarded to the detached `twinkle daemon` process.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

func (o LaunchOptions) args() []string {
	args := []string{"daemon"}
	if socket := strings.TrimSpace(o.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(o.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	return args
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateIdle           StartState = "idle"
)

// StartResult reports what EnsureStarted found or did.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// launch starts executablePath in its own session so it outlives the CLI.
func launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	proc := exec.Command(executablePath, opts.args()...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// EnsureStarted launches the daemon when its socket is unreachable and
// reports whether it is organizing. A daemon that answers but is idle usually
// lost the single-instance lock or failed to open its state.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, dialErr := ipc.Dial(socketPath)
	launched := dialErr != nil
	if launched {
		if err := launch(executablePath, opts); err != nil {
			return StartResult{}, err
		}
		ok := pollUntil(waitTimeout, func() bool {
			client, dialErr = ipc.Dial(socketPath)
			return dialErr == nil
		})
		if !ok {
			return StartResult{}, fmt.Errorf("daemon did not open %s within %s: %w", socketPath, waitTimeout, dialErr)
		}
	}
	defer client.Close()

	status, err := client.Status(false)
	if err != nil {
		return StartResult{}, err
	}
	result := StartResult{State: StartStateIdle, Launched: launched, PID: status.PID}
	if status.Running {
		result.State = StartStateAlreadyRunning
		if launched {
			result.State = StartStateStarted
		}
	}
	return result, nil
}

// pollUntil calls done every pollInterval until it returns true or timeout
// elapses. done always runs at least once.
func pollUntil(timeout time.Duration, done func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if done() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}
