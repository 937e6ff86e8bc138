package daemonctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"twinkle/internal/config"
	"twinkle/internal/ipc"
)

// ErrDaemonNotRunning means nothing answers on the daemon socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult reports how the daemon went away.
type StopResult struct {
	Signaled   bool
	ForcedKill bool
	PID        int
}

// RestartResult captures the stop and start halves of a restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// PIDPath returns where the daemon records its pid.
func PIDPath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return filepath.Join(cfg.Paths.StateDir, "twinkled.pid")
}

// ReadPID parses a pid file. A missing or blank file yields zero.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %s: %w", pidPath, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds %q, not a pid", pidPath, text)
	}
	return pid, nil
}

// ProcessInfo reports whether the daemon socket answers and the pid the
// daemon claims.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if unreachable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, err := client.Status(false)
	if err != nil {
		return true, 0, err
	}
	return true, status.PID, nil
}

// StopAndTerminate sends SIGTERM and waits gracePeriod for the socket to go
// away. A daemon still answering after that is killed and its pid, lock, and
// socket files are removed.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	alive, pid, err := ProcessInfo(socketPath)
	if !alive {
		if err != nil {
			return StopResult{}, err
		}
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid == 0 {
		if pid, err = ReadPID(PIDPath(cfg)); err != nil {
			return StopResult{}, err
		}
	}
	if pid <= 0 || pid == os.Getpid() {
		return StopResult{}, errors.New("unable to determine daemon pid")
	}

	result := StopResult{PID: pid}
	if proc, err := os.FindProcess(pid); err == nil && proc.Signal(syscall.SIGTERM) == nil {
		result.Signaled = true
	}
	gone := pollUntil(gracePeriod, func() bool {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return unreachable(err)
		}
		_ = client.Close()
		return false
	})
	if gone {
		return result, nil
	}

	if err := kill(pid); err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	for _, path := range []string{PIDPath(cfg), lockPath(cfg), socketPath} {
		if path != "" {
			_ = os.Remove(path)
		}
	}
	result.ForcedKill = true
	return result, nil
}

// Restart stops a running daemon, if any, and launches a fresh one.
func Restart(socketPath string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGrace, startTimeout time.Duration) (RestartResult, error) {
	var result RestartResult
	stop, err := StopAndTerminate(socketPath, cfg, stopGrace)
	switch {
	case errors.Is(err, ErrDaemonNotRunning):
	case err != nil:
		return result, err
	default:
		result.WasRunning = true
		result.Stop = stop
	}
	start, err := EnsureStarted(socketPath, executablePath, opts, startTimeout)
	if err != nil {
		return result, err
	}
	result.Start = start
	return result, nil
}

func kill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}

func lockPath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.LockPath()
}

func unreachable(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
