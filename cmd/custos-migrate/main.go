// Package main is the entry point for the Custos database migration tool.
// It applies pending schema migrations for the configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/custos-id/custos/internal/bootstrap"
	"github.com/custos-id/custos/internal/config"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("Custos Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		if err := runUp(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runUp applies all pending migrations.
func runUp(args []string) error {
	fs := flag.NewFlagSet("up", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := bootstrap.SetupLogger(cfg.Logging)

	// OpenRepositories runs pending migrations as part of opening the
	// backend.
	_, db, err := bootstrap.OpenRepositories(context.Background(), cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Migrations applied.")
	return nil
}

func printUsage() {
	fmt.Println(`Custos Migration Tool

Usage:
  custos-migrate <command> [arguments]

Commands:
  up          Run all pending migrations
  version     Print version information
  help        Show this help message

Configuration:
  The database backend is taken from the standard Custos configuration
  (config file or CUSTOS_-prefixed environment variables).

Examples:
  custos-migrate up
  custos-migrate up --config /etc/custos/config.yaml`)
}
