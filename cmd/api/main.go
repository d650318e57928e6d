package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/triade/core/cmd/api/commands"
)

// @title Triade API
// @version 1.0
// @description Personal task planner built around daily energy levels

// @contact.name Triade
// @contact.url https://github.com/triade/core

// @license.name MIT
// @license.url https://github.com/triade/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "triade",
		Short: "Triade API Server",
		Long:  `Triade is a personal task planner that organizes each day around high energy, renewal and low energy work inside a fixed daily hour budget.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewBackupCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
