// cmd/pathwayctl/main.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	envFile string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "Environment file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(closeExpiredCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(authzCmd)
	rootCmd.AddCommand(eventsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "pathwayctl",
	Short: "Operational commands for the pathway admissions backend",
	Long:  `pathwayctl migrates and seeds the database, closes expired offerings, prints reports and manages the authorization schema.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads --env before the process environment. Variables that
// are already set win over the file.
func loadConfig() *config.Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			slog.Warn("Could not load env file", "path", envFile, "error", err)
		}
	}
	return config.Load()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)
}

func openSQL(cfg *config.Config) *sql.DB {
	db, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}
	return db
}

func openGorm(cfg *config.Config) *gorm.DB {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	return db
}
