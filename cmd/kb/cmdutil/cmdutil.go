// Package cmdutil holds the setup shared by kb subcommands: resolving the
// layered configuration, building the logger, and constructing the API
// client.
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/dotdir"
	"github.com/papercomputeco/kbconsole/pkg/history"
	"github.com/papercomputeco/kbconsole/pkg/logger"
)

// Persistent flag names registered on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagLogFile   = "log-file"
)

// Env is the resolved runtime environment of a command.
type Env struct {
	Config    *config.Config
	ConfigDir string
	Logger    *slog.Logger

	closers []io.Closer
}

// Load resolves configuration for cmd with precedence flag > KB_* env >
// config.toml > defaults, binding only the registry flags named in keys.
func Load(cmd *cobra.Command, keys ...string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	env := &Env{
		Config:    cfg,
		ConfigDir: configDir,
	}

	debug, _ := cmd.Flags().GetBool(FlagDebug)
	logFile, _ := cmd.Flags().GetString(FlagLogFile)
	if err := env.initLogger(cmd.ErrOrStderr(), debug, logFile); err != nil {
		return nil, err
	}
	return env, nil
}

// initLogger logs to the terminal, colorized when it is a TTY. With
// --log-file, JSON logs go to the file as well.
func (e *Env) initLogger(w io.Writer, debug bool, logFile string) error {
	term := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(cliui.IsTerminal(w)),
		logger.WithWriter(w),
	)
	if logFile == "" {
		e.Logger = term
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	e.closers = append(e.closers, f)

	file := logger.New(
		logger.WithDebug(true),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	e.Logger = logger.Multi(term, file)
	return nil
}

// Client returns an API client for the configured target.
func (e *Env) Client() (*client.Client, error) {
	c, err := client.New(e.Config.Client.APITarget,
		client.WithTimeout(e.Config.Client.TimeoutDuration()),
		client.WithLogger(e.Logger),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// HistoryPath returns the history database path: the configured path, or
// history.db in the resolved .kbconsole directory.
func (e *Env) HistoryPath() (string, error) {
	if p := e.Config.History.SQLitePath; p != "" {
		return p, nil
	}

	path, err := dotdir.File(e.ConfigDir, dotdir.HistoryFile)
	if err != nil {
		return "", fmt.Errorf("resolving history path: %w", err)
	}
	return path, nil
}

// OpenHistory opens the local history store. The store is closed by Close.
func (e *Env) OpenHistory() (*history.Store, error) {
	path, err := e.HistoryPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	store, err := history.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	e.closers = append(e.closers, store)
	return store, nil
}

// Close releases files and databases opened by the Env.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
	e.closers = nil
}
