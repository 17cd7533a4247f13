// Package cli implements the meterimport CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/meterimport/internal/config"
	"github.com/jwulff/meterimport/internal/ingest"
	"github.com/jwulff/meterimport/internal/logging"
	"github.com/jwulff/meterimport/internal/storage/sqlite"
)

var (
	configPath string
	dbPath     string
	jsonLog    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "meterimport",
	Short: "Import glucose meter exports",
	Long: "Reads CSV and text exports from glucose meters and CGM apps " +
		"(AgaMatrix, FreeStyle Libre, OneTouch, Dexcom, Contour, or anything similar) " +
		"and stores the readings in a local SQLite database.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./meterimport.{yaml,toml,json} if present)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (overrides database.path)")
	RootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log as JSON")
}

// loadConfig reads the config and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if jsonLog {
		cfg.Log.JSON = true
	}
	return cfg, nil
}

func setup() (*config.Config, *zap.Logger) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		exitErr("init logging", err)
	}
	return cfg, logger
}

func openStore(cfg *config.Config) (*sqlite.Store, error) {
	s, err := sqlite.NewFileStore(cfg.Database.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Database.Path)
	}
	return s, nil
}

func newEngine(cfg *config.Config, logger *zap.Logger) (*ingest.Engine, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	return ingest.New(append(opts, ingest.WithLogger(logger))...), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
	os.Exit(1)
}
