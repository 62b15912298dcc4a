package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ticketkit/ticketkit/internal/config"
	"github.com/ticketkit/ticketkit/internal/engine"
	"github.com/ticketkit/ticketkit/internal/storage"
)

var (
	eng    *engine.Engine
	logger *zap.Logger

	cfgPath string
	actor   string
)

var rootCmd = &cobra.Command{
	Use:   "ticketkit",
	Short: "Workflow-governed ticket and task engine",
	Long: `TicketKit manages tickets on boards governed by workflow state
machines, records an immutable audit trail of every mutation, and
derives kanban views, search results, and cumulative flow diagram
snapshots from it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; missing files are fine.
		_ = godotenv.Load()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		logger = buildLogger(cfg.LogLevel)

		store, err := storage.NewStorage(cmd.Context(), cfg.StorageConfig())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		eng = engine.New(store, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if eng != nil {
			if err := eng.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".ticketkit/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "cli", "Acting user recorded in the audit trail")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
