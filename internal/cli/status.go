package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/database/credentials"
	sessionstore "github.com/mrlokans/shelfsync/internal/database/sessions"
	"github.com/mrlokans/shelfsync/internal/database/settings"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
)

// StatusCommand prints the agent's local state.
type StatusCommand struct {
	DatabasePath string
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand() *StatusCommand {
	return &StatusCommand{}
}

// ParseFlags parses command line flags
func (cmd *StatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s status [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show device id, server configuration, pending sessions and the last sync outcome.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the status command
func (cmd *StatusCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	store := settingsstore.New(settings.NewRepository(db.DB))

	deviceID, err := store.DeviceID()
	if err != nil {
		return fmt.Errorf("failed to resolve device id: %w", err)
	}
	fmt.Printf("Device id:        %s\n", deviceID)

	creds, err := credentials.NewRepository(db.DB).Get()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.IsConfigured() {
		fmt.Printf("Server:           %s (user %s)\n", creds.BaseURL, creds.Username)
	} else {
		fmt.Println("Server:           not configured")
	}

	pending, err := sessionstore.NewRepository(db.DB).CountUnsynced()
	if err != nil {
		return fmt.Errorf("failed to count pending sessions: %w", err)
	}
	fmt.Printf("Pending sessions: %d\n", pending)

	schedule := store.GetSyncScheduleInfo()
	fmt.Printf("Auto sync:        enabled=%t schedule=%q (%s)\n",
		store.AutoSyncEnabled(), schedule.Schedule, schedule.Source)

	last := store.LastSync()
	if last.At == nil {
		fmt.Println("Last sync:        never")
		return nil
	}
	fmt.Printf("Last sync:        %s %s", last.At.Local().Format(time.RFC3339), last.Status)
	if last.Message != "" {
		fmt.Printf(" (%s)", last.Message)
	}
	fmt.Println()
	return nil
}
