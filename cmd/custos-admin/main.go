// Package main is the entry point for the Custos admin CLI.
// This tool provides administrative commands for seeding the rights
// catalog, bootstrapping the first root user and managing accounts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/bootstrap"
	"github.com/custos-id/custos/internal/config"
	"github.com/custos-id/custos/internal/repository"
	"github.com/custos-id/custos/internal/service"
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

	var err error
	switch command {
	case "version":
		fmt.Printf("Custos Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "seed":
		err = runSeed(args)

	case "bootstrap":
		err = runBootstrap(args)

	case "create-user":
		err = runCreateUser(args)

	case "set-password":
		err = runSetPassword(args)

	case "activate":
		err = runActivate(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	repos  *repository.Repositories
	db     repository.DatabaseHealth
	logger zerolog.Logger
}

// setup loads config and opens the database for a subcommand.
func setup(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := bootstrap.SetupLogger(cfg.Logging)

	repos, db, err := bootstrap.OpenRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, repos: repos, db: db, logger: logger}, nil
}

func (e *env) close() {
	_ = e.db.Close()
}

func (e *env) rbac() *service.RBACService {
	return service.NewRBACService(e.repos.Role, e.repos.Right, e.repos.Audit, e.logger)
}

func (e *env) users() *service.UserService {
	hasher := auth.NewHasher(e.cfg.Auth.HashIterations)
	return service.NewUserService(e.repos.User, e.repos.Role, e.repos.Audit, hasher, e.logger)
}

// runSeed applies the built-in rights catalog and role seed table.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.rbac().Seed(ctx); err != nil {
		return err
	}

	fmt.Println("Rights catalog and role seeds applied.")
	return nil
}

// runBootstrap seeds the catalog and creates an active root user.
func runBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "root", "root username")
	password := fs.String("password", "", "root password (required)")
	email := fs.String("email", "", "root email")
	_ = fs.Parse(args)

	if *password == "" {
		return fmt.Errorf("--password is required")
	}

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	rbac := e.rbac()
	if err := rbac.Seed(ctx); err != nil {
		return err
	}

	users := e.users()
	user, err := users.Create(ctx, service.CreateUserInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	if err := users.SetActive(ctx, user.ID, true); err != nil {
		return err
	}
	if err := users.SetVerified(ctx, user.ID, true); err != nil {
		return err
	}

	rootRole, err := rbac.GetRoleByName(ctx, "root")
	if err != nil {
		return err
	}
	if err := users.AttachRole(ctx, user.ID, rootRole.ID); err != nil {
		return err
	}

	fmt.Printf("Root user %q created with id %d.\n", user.Username, user.ID)
	return nil
}

// runCreateUser creates a user account.
func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "password (required)")
	email := fs.String("email", "", "email")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	activate := fs.Bool("activate", false, "activate and verify the account immediately")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	users := e.users()
	user, err := users.Create(ctx, service.CreateUserInput{
		Username:  *username,
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		Password:  *password,
	})
	if err != nil {
		return err
	}

	if *activate {
		if err := users.SetActive(ctx, user.ID, true); err != nil {
			return err
		}
		if err := users.SetVerified(ctx, user.ID, true); err != nil {
			return err
		}
	}

	fmt.Printf("User %q created with id %d.\n", user.Username, user.ID)
	return nil
}

// runSetPassword replaces a user's password.
func runSetPassword(args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username (required)")
	password := fs.String("password", "", "new password (required)")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	users := e.users()
	user, err := users.GetByUsername(ctx, *username)
	if err != nil {
		return err
	}
	if err := users.SetPassword(ctx, user.ID, *password); err != nil {
		return err
	}

	fmt.Printf("Password updated for user %q.\n", user.Username)
	return nil
}

// runActivate activates and verifies a user account.
func runActivate(args []string) error {
	fs := flag.NewFlagSet("activate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username (required)")
	_ = fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("--username is required")
	}

	ctx := context.Background()
	e, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()

	users := e.users()
	user, err := users.GetByUsername(ctx, *username)
	if err != nil {
		return err
	}
	if err := users.SetActive(ctx, user.ID, true); err != nil {
		return err
	}
	if err := users.SetVerified(ctx, user.ID, true); err != nil {
		return err
	}

	fmt.Printf("User %q activated.\n", user.Username)
	return nil
}

func printUsage() {
	fmt.Println(`Custos Admin CLI

Usage:
  custos-admin <command> [arguments]

Commands:
  bootstrap     Seed the catalog and create the first root user
  seed          Apply the built-in rights catalog and role seeds
  create-user   Create a user account
  set-password  Replace a user's password
  activate      Activate and verify a user account
  version       Print version information
  help          Show this help message

Examples:
  custos-admin bootstrap --password changeme
  custos-admin create-user --username alice --password secret123 --activate
  custos-admin set-password --username alice --password newsecret
  custos-admin activate --username alice

Use "custos-admin <command> --help" for more information about a command.`)
}
