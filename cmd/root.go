package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zate/searchbar/internal/builder"
	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/profile"
	"github.com/zate/searchbar/internal/search"
)

var (
	dbPath      string
	format      string
	profilePath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "searchbar",
	Short: "Parse and edit monitoring search queries",
	Long: `A CLI for the search bar query language: tokenize queries, validate
filter values, edit queries with builder actions and keep saved searches.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".searchbar", "searches.db")
	if envDB := os.Getenv("SEARCHBAR_DB"); envDB != "" {
		defaultDB = envDB
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Database file path")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text, json, markdown, table")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", os.Getenv("SEARCHBAR_PROFILE"), "Search profile YAML (keys and disallowed syntax)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func Execute() error {
	return rootCmd.Execute()
}

// setupLogger installs the global zap logger. Logs go to stderr so they
// never mix with command output or the MCP stdio stream.
func setupLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func openDB() (*db.DB, error) {
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return d, nil
}

// loadProfile returns the --profile file, or the built-in profile.
func loadProfile() (*profile.Profile, error) {
	if profilePath == "" {
		return profile.Default(), nil
	}
	p, err := profile.Load(profilePath)
	if err != nil {
		return nil, err
	}
	zap.S().Debugw("loaded search profile", "name", p.Name, "keys", len(p.Keys))
	return p, nil
}

func parserConfig() (search.Config, error) {
	p, err := loadProfile()
	if err != nil {
		return search.Config{}, err
	}
	return p.Config(), nil
}

func newReducer() (builder.Reducer, error) {
	cfg, err := parserConfig()
	if err != nil {
		return builder.Reducer{}, err
	}
	return builder.Reducer{Config: cfg}, nil
}

// resolveSearch resolves an ID, unique ID prefix or name to a saved search.
func resolveSearch(d db.Store, ref string) (*db.SavedSearch, error) {
	id, err := d.ResolveID(ref)
	if errors.Is(err, db.ErrNotFound) {
		s, err := d.FindSearchByName(ref)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve saved search %q: %w", ref, err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot resolve saved search %q: %w", ref, err)
	}
	return d.GetSearch(id)
}
