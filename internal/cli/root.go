// Package cli implements the taskpilot commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/gateway"
	"github.com/nhle/taskpilot/internal/model"
)

var (
	configPath string
	formatFlag string
	logLevel   string
)

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in, run `taskpilot login` first")

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "taskpilot",
	Short:         "Tasks, messages and linked accounts from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $TASKPILOT_CONFIG or ~/.config/taskpilot/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("TASKPILOT_CONFIG"); env != "" {
		return env
	}
	return model.DefaultConfigPath()
}

// newLogger returns a text logger on w at the named level. Unknown levels
// fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// resultErr turns a failed gateway result into an error for cobra.
func resultErr[T any](op string, r gateway.Result[T]) error {
	if r.OK() {
		return nil
	}
	if r.Kind == gateway.KindTransport {
		return fmt.Errorf("%s: %s: %w", op, r.Message(), r.Err)
	}
	return fmt.Errorf("%s: %s", op, r.Message())
}

func jsonOutput() bool { return strings.EqualFold(formatFlag, "json") }

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
