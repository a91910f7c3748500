package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dangerclosesec/pathway"
	"github.com/dangerclosesec/pathway/internal/migration"
	"github.com/spf13/cobra"
)

var migrateStatus bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show applied and pending migrations without applying")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()

		db := openSQL(cfg)
		defer db.Close()

		migrator := migration.NewMigrator(db, pathway.MigrationFS)

		if migrateStatus {
			if err := migrator.InitializeSchema(ctx); err != nil {
				log.Fatalf("Error initializing migration history: %v", err)
			}
			current, err := migrator.GetCurrentVersion(ctx)
			if err != nil {
				log.Fatalf("Error reading current version: %v", err)
			}
			all, err := migration.Load(pathway.MigrationFS)
			if err != nil {
				log.Fatalf("Error loading migrations: %v", err)
			}
			fmt.Printf("Current version: %d\n", current)
			pending := migration.Pending(all, current)
			if len(pending) == 0 {
				fmt.Println("No pending migrations")
				return
			}
			for _, mig := range pending {
				fmt.Printf("pending  %04d  %s\n", mig.Version, mig.Name)
			}
			return
		}

		applied, err := migrator.Apply(ctx)
		for _, mig := range applied {
			fmt.Printf("applied  %04d  %s\n", mig.Version, mig.Name)
		}
		if err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}
		if len(applied) == 0 {
			fmt.Println("Database is up to date")
		}
	},
}
