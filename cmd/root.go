package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/engine"
	"github.com/mentorloop/sage/internal/knowledge"
	"github.com/mentorloop/sage/internal/llm"
	"github.com/mentorloop/sage/internal/logger"
	"github.com/mentorloop/sage/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Adaptive Socratic tutor",
	Long:  "Sage is a one-on-one Socratic tutoring engine that remembers what each learner knows and guides them by questioning, never lecturing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SAGE_DB env var)")
	rootCmd.PersistentFlags().String("learner", "default", "Learner identifier")
	rootCmd.PersistentFlags().String("log", "", "Path to JSON log file (default: console only)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(optoutCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then SAGE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	logPath, _ := cmd.Flags().GetString("log")
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(logger.Options{FilePath: logPath, Debug: debug})
}

// app bundles the wired engine with everything a command needs to tear
// it down again.
type app struct {
	engine    *engine.Engine
	provider  llm.Provider
	knowledge *knowledge.Service
	kv        *store.SQLite
	log       *zap.Logger
}

func (a *app) close() {
	a.engine.Close()
	if err := a.kv.Close(); err != nil {
		a.log.Warn("store close failed", zap.Error(err))
	}
	_ = a.log.Sync()
}

// newApp opens the store, configures the provider, and wires the engine.
func newApp(cmd *cobra.Command) (*app, error) {
	log := newLogger(cmd)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	kv, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			kv.Close()
			return nil, fmt.Errorf("LLM provider not configured: %w", err)
		}
		cfg = discovered
	}

	provider, err := llm.NewProvider(cmd.Context(), cfg, log)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("build LLM provider: %w", err)
	}

	ksvc := knowledge.NewService(kv, log)
	eng := engine.New(engine.Options{
		Provider:  provider,
		Knowledge: ksvc,
		KV:        kv,
		Logger:    log,
	})

	return &app{engine: eng, provider: provider, knowledge: ksvc, kv: kv, log: log}, nil
}

func learnerID(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("learner")
	if id == "" {
		return "default"
	}
	return id
}
