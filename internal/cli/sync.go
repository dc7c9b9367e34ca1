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
	sessionstore "github.com/mrlokans/shelfsync/internal/database/sessions"
	"github.com/mrlokans/shelfsync/internal/hostreader"
	"github.com/mrlokans/shelfsync/internal/remote"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

// SyncCommand uploads all pending reading sessions in one shot.
type SyncCommand struct {
	DatabasePath string
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Upload every pending reading session to the sync server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the sync command
func (cmd *SyncCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	credentialRepo := credentials.NewRepository(db.DB)
	creds, err := credentialRepo.Get()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if !creds.IsConfigured() {
		return fmt.Errorf("sync server is not configured, run '%s login' first", os.Args[0])
	}

	sessionRepo := sessionstore.NewRepository(db.DB)
	pending, err := sessionRepo.CountUnsynced()
	if err != nil {
		return fmt.Errorf("failed to count pending sessions: %w", err)
	}
	if pending == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}

	fmt.Printf("Uploading %d pending sessions to %s...\n", pending, creds.BaseURL)

	manager := authn.NewManager(credentialRepo, 30*time.Second)
	client := remote.NewClient(creds.BaseURL, manager, 30*time.Second)
	state := hostreader.NewState()
	orchestrator := booksync.NewOrchestrator(client, sessionRepo, state, state, state)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	synced, err := orchestrator.SyncPendingSessions(ctx)
	if err != nil {
		return fmt.Errorf("%s (synced %d before failing)", booksync.ErrorMessage(err), synced)
	}

	fmt.Printf("Synced %d sessions.\n", synced)
	return nil
}
