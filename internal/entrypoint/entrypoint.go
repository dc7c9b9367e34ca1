package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/authn"
	"github.com/mrlokans/shelfsync/internal/config"
	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/database/credentials"
	sessionstore "github.com/mrlokans/shelfsync/internal/database/sessions"
	"github.com/mrlokans/shelfsync/internal/database/settings"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/hostreader"
	controlapi "github.com/mrlokans/shelfsync/internal/http"
	"github.com/mrlokans/shelfsync/internal/remote"
	"github.com/mrlokans/shelfsync/internal/scheduler"
	"github.com/mrlokans/shelfsync/internal/sessions"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting control API at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: end the active session and checkpoint the
	// database before the process dies, so nothing recorded is lost.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown requested, waiting up to %v\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Agent exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting shelfsync agent v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	credentialRepo := credentials.NewRepository(db.DB)
	sessionRepo := sessionstore.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	settingsStore := settingsstore.New(settingsRepo)

	if err := seedCredentials(credentialRepo, cfg.Server); err != nil {
		log.Fatalf("Failed to store server credentials: %v", err)
	}

	// Seed the auto sync toggle from the environment only when nothing
	// is stored yet; a saved setting always wins.
	if _, err := settingsRepo.GetSetting(entities.SettingKeyAutoSyncEnabled); err != nil && cfg.AutoSync.Enabled {
		if err := settingsStore.SetAutoSyncEnabled(true); err != nil {
			log.Printf("Failed to enable auto sync from environment: %v", err)
		}
	}

	deviceID, err := settingsStore.DeviceID()
	if err != nil {
		log.Fatalf("Failed to resolve device id: %v", err)
	}
	log.Printf("Device id: %s", deviceID)

	creds, err := credentialRepo.Get()
	if err != nil {
		log.Fatalf("Failed to load credentials: %v", err)
	}
	if !creds.IsConfigured() {
		log.Printf("WARNING: sync server is not configured. Set SERVER_BASE_URL, SERVER_USERNAME and SERVER_PASSWORD, or run the 'login' command.")
	}

	authManager := authn.NewManager(credentialRepo, cfg.Server.Timeout)
	remoteClient := remote.NewClient(creds.BaseURL, authManager, cfg.Server.Timeout)

	state := hostreader.NewState()
	orchestrator := booksync.NewOrchestrator(remoteClient, sessionRepo, state, state, state)
	tracker := sessions.NewTracker(sessionRepo, cfg.Sessions.MinDuration, deviceID)
	gate := connectivity.NewGate(connectivity.AlwaysOnline{})

	autoSync := scheduler.NewAutoSyncScheduler(settingsStore, orchestrator, gate)
	if err := autoSync.Start(context.Background()); err != nil {
		log.Printf("Failed to start auto sync scheduler: %v", err)
	}

	router := controlapi.NewRouter(controlapi.RouterConfig{
		Database:      db,
		Tracker:       tracker,
		State:         state,
		Syncer:        orchestrator,
		Gate:          gate,
		Pending:       sessionRepo,
		SettingsStore: settingsStore,
		Scheduler:     autoSync,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		autoSync.Stop()
		if err := tracker.End("exit"); err != nil {
			log.Printf("Failed to end active session on shutdown: %v", err)
		}
	}

	Serve(router, cfg, onShutdown)
}

// seedCredentials stores the server coordinates from the environment.
// Changing the server invalidates stored tokens, so the repository is
// only touched when something actually changed.
func seedCredentials(repo *credentials.Repository, server config.Server) error {
	if server.BaseURL == "" {
		return nil
	}

	creds, err := repo.Get()
	if err != nil {
		return err
	}
	if creds.BaseURL == server.BaseURL &&
		creds.Username == server.Username &&
		creds.Password == server.Password {
		return nil
	}
	return repo.SetServer(server.BaseURL, server.Username, server.Password)
}
