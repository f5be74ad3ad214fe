package main

import (
	"github.com/UKHO/kluster/internal/config"
	"github.com/UKHO/kluster/internal/drivers"
	"github.com/UKHO/kluster/internal/intel"
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/project"
	"github.com/UKHO/kluster/internal/storage"
	"github.com/UKHO/kluster/internal/version"

	"github.com/spf13/cobra"
)

var (
	// rootFlag is the CLI --root flag value, the directory holding .kluster/
	rootFlag string
	// logLevelFlag and logFormatFlag override the configured logging
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "kluster",
	Short: "kluster - survey data intelligence",
	Long: `kluster watches survey data folders, identifies multibeam, navigation
and sound velocity files by content, associates them with each other and with
project instances, and maintains the prioritized queue of conversion, import
and processing actions needed to bring the project up to date.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("kluster version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Project root directory (holds the .kluster state folder)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human or json (default from config)")
}

// engine bundles the wired-up orchestrator and its resources for one
// command invocation
type engine struct {
	cfg     *config.Config
	logger  *logging.Logger
	db      *storage.DB
	journal *storage.Journal
	intel   *intel.Intel
}

// newEngine loads config, opens the journal database, and wires the
// orchestrator with the standard format readers, an in-memory project, and
// the dry-run executor.
func newEngine() (*engine, error) {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})

	db, err := storage.Open(rootFlag, logger)
	if err != nil {
		return nil, err
	}

	journal := storage.NewJournal(db)
	in := intel.New(cfg, project.NewMemoryProject(), &dryRunExecutor{logger: logger}, drivers.New(), logger)
	if err := in.AttachJournal(journal); err != nil {
		db.Close()
		return nil, err
	}

	return &engine{cfg: cfg, logger: logger, db: db, journal: journal, intel: in}, nil
}

// Close releases the engine's resources
func (e *engine) Close() {
	e.intel.StopAllMonitors()
	if err := e.db.Close(); err != nil {
		e.logger.Error("Failed to close database", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
