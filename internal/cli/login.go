package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/shelfsync/internal/authn"
	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/database/credentials"
)

// LoginCommand stores sync server credentials and verifies them.
type LoginCommand struct {
	ServerURL    string
	Username     string
	Password     string
	DatabasePath string
}

// NewLoginCommand creates a new LoginCommand
func NewLoginCommand() *LoginCommand {
	return &LoginCommand{}
}

// ParseFlags parses command line flags
func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	fs.StringVar(&cmd.ServerURL, "server", "", "Base URL of the sync server (e.g. https://books.example.com)")
	fs.StringVar(&cmd.Username, "username", "", "Sync server username")
	fs.StringVar(&cmd.Password, "password", "", "Sync server password")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s login [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Store sync server credentials and verify them by logging in.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s login -server https://books.example.com -username alice -password secret\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ServerURL == "" || cmd.Username == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("-server, -username and -password are required")
	}

	return nil
}

// Run executes the login command
func (cmd *LoginCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := credentials.NewRepository(db.DB)
	if err := repo.SetServer(cmd.ServerURL, cmd.Username, cmd.Password); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Stored credentials for %s\n", cmd.ServerURL)
	fmt.Println("Verifying login...")

	manager := authn.NewManager(repo, 30*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := manager.ValidToken(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("Login succeeded, tokens stored.")
	return nil
}
