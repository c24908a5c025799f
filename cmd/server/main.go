// Package main implements the tasktalk command: the HTTP chat server, a
// token issuer for local use and an MCP stdio server exposing the task tools.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
)

const version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "tasktalk",
		Short: "Manage tasks through conversation",
		Long: `tasktalk turns chat messages into task operations. A language model
decides which task tools to call, the server runs them against the store and
the model phrases the reply.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(newServeCommand())
	root.AddCommand(newTokenCommand())
	root.AddCommand(newMCPCommand())
	return root
}

// loadEnvFile loads path into the environment. A missing file is not an
// error; variables already set are never overridden.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// initializeApp loads configuration and sets up the logger. Logs go to w so
// the mcp command can keep stdout for the protocol.
func initializeApp(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var l *slog.Logger
	if w == nil {
		l, err = logger.Setup(cfg.Server)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
		}
	} else {
		level, _ := logger.ParseLevel(cfg.Server.LogLevel)
		l = logger.New(w, level)
	}

	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_provider", cfg.LLM.Provider)
	l.Debug("database configuration", "url_present", cfg.Database.URL != "")
	return cfg, l, nil
}
