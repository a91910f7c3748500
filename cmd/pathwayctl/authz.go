package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dangerclosesec/pathway"
	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/spf13/cobra"
)

var schemaFile string

func init() {
	authzSchemaCmd.Flags().StringVarP(&schemaFile, "file", "f", "", "Write this .perm file instead of the embedded schema")
	authzCmd.AddCommand(authzSchemaCmd)
}

var authzCmd = &cobra.Command{
	Use:   "authz",
	Short: "Manage the Permify authorization service",
}

var authzSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write the permission schema to Permify",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		schema := pathway.PermifySchema
		if schemaFile != "" {
			body, err := os.ReadFile(schemaFile)
			if err != nil {
				log.Fatalf("Error reading schema file: %v", err)
			}
			schema = string(body)
		}

		permify, err := auth.NewPermifyService(cfg.Permify.Host, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			log.Fatalf("Error connecting to Permify at %s: %v", cfg.Permify.Host, err)
		}

		version, err := permify.WriteSchema(context.Background(), schema)
		if err != nil {
			log.Fatalf("Error writing schema: %v", err)
		}
		fmt.Printf("Schema written to tenant %s, version %s\n", cfg.Permify.Tenant, version)
	},
}
