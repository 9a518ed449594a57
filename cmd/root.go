package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/config"
	"github.com/happylearn/buddy/internal/logging"
	"github.com/happylearn/buddy/internal/store"
)

// tuiAnnotation marks commands that own the terminal. They log to
// --log-file only.
const tuiAnnotation = "tui"

var (
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "buddy",
	Short: "Happy, an AI tutor for the Kenyan CBC",
	Long: `buddy runs Happy, a friendly AI tutor for learners following the Kenyan
Competency-Based Curriculum (Grades 1-9).

  buddy serve   start the tutor stream proxy
  buddy chat    chat with Happy in the terminal

Run without arguments to start a chat.`,
	Annotations:       map[string]string{tuiAnnotation: "true"},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/buddy/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides BUDDY_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: json or console")
	pf.String("log-file", "", "Write logs to this file instead of stderr")

	addChatFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	path, optional, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}
	cfg, err = config.Load(path, optional)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if v, _ := flags.GetString("log-file"); v != "" {
		cfg.Log.File = v
	}
	if v, _ := flags.GetString("db"); v != "" {
		cfg.Store.Path = v
	}

	out := cfg.Log.File
	if out == "" && cmd.Annotations[tuiAnnotation] == "true" {
		out = logging.Discard
	}
	logger, err = logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: out,
	})
	return err
}

// resolveConfigPath returns the --config path, or the default location
// which may be absent.
func resolveConfigPath(cmd *cobra.Command) (string, bool, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, false, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", true, nil
	}
	return filepath.Join(dir, "buddy", "config.yaml"), true, nil
}

// resolveDBPath returns the database path using --db / config (highest
// priority), then BUDDY_DB env var, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := cfg.Store.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
