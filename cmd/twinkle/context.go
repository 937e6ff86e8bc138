package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"twinkle/internal/config"
	"twinkle/internal/ipc"
)

// skipConfigAnnotation marks commands that must run even when config.toml
// is missing or invalid.
const skipConfigAnnotation = "skipConfigLoad"

// commandContext carries the persistent flags and the lazily loaded config
// shared by every subcommand.
type commandContext struct {
	socketFlag string
	configFlag string

	load       sync.Once
	cfg        *config.Config
	configPath string
	loadErr    error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.load.Do(func() {
		cfg, path, _, err := config.Load(c.configOverride())
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		if err != nil {
			c.loadErr = err
			return
		}
		c.cfg, c.configPath = cfg, path
	})
	return c.cfg, c.loadErr
}

// loadedConfig returns the config, or nil when it could not be loaded.
func (c *commandContext) loadedConfig() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configOverride() string { return strings.TrimSpace(c.configFlag) }

func (c *commandContext) socketOverride() string { return strings.TrimSpace(c.socketFlag) }

// socketPath resolves the daemon socket: --socket, then paths.socket_path,
// then the default state directory.
func (c *commandContext) socketPath() string {
	if socket := c.socketOverride(); socket != "" {
		return socket
	}
	if cfg := c.loadedConfig(); cfg != nil && cfg.Paths.SocketPath != "" {
		return cfg.Paths.SocketPath
	}
	if dir, err := config.ExpandPath("~/.local/share/twinkle"); err == nil {
		return filepath.Join(dir, "twinkle.sock")
	}
	return filepath.Join(os.TempDir(), "twinkle.sock")
}

// withClient dials the daemon, runs fn, and hangs up.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return describeDialError(socket, err)
	}
	defer client.Close()
	return fn(client)
}

func describeDialError(socket string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOENT) {
		return fmt.Errorf("daemon not reachable at %s; start it with `twinkle start`", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("daemon at %s refused the connection; check `twinkle status` or run `twinkle start`", socket)
	}
	return fmt.Errorf("connect to daemon at %s: %w", socket, err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
