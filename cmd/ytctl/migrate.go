package main

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every yt_* table",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		if missing := database.MissingTables(db); len(missing) > 0 {
			logger.Warn("tables still missing after migrate", "tables", missing)
		}
		logger.Info("migration complete")
		return nil
	},
}
