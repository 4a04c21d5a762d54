package main

import (
	"os"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	verbose bool

	cfg    *config.Config
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	dimStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

var rootCmd = &cobra.Command{
	Use:   "ytctl",
	Short: "Maintenance tooling for the ytpulse backend",
	Long:  `ytctl migrates the database, inspects and repairs the yt_* schema, checks deployment health, manages anonymous trials and verifies locale catalogs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(migrateCmd, schemaCmd, healthCmd, trialCmd, i18nCmd)
}

// openDB connects through gorm with the server's settings.
func openDB() (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	return database.DB, nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		logger.Warn("failed to close database", "err", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
