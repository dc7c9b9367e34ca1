// Package http exposes the agent's local control API. The host reading
// application delivers lifecycle events here and queries sync status;
// the API binds to loopback only and is not meant to be reachable from
// other machines.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/database"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/hostreader"
	"github.com/mrlokans/shelfsync/internal/sessions"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

// Syncer runs sync operations on behalf of the control API.
type Syncer interface {
	SyncBook(ctx context.Context, mode booksync.Mode) entities.SyncResult
	SyncPendingSessions(ctx context.Context) (int, error)
}

// PendingCounter reports how many sessions still await upload.
type PendingCounter interface {
	CountUnsynced() (int64, error)
}

// Scheduler is the subset of the auto sync scheduler the API needs.
type Scheduler interface {
	Reschedule() error
	IsRunning() bool
	IsSyncing() bool
}

// RouterConfig carries the dependencies for the control API.
type RouterConfig struct {
	Database      *database.Database
	Tracker       *sessions.Tracker
	State         *hostreader.State
	Syncer        Syncer
	Gate          *connectivity.Gate
	Pending       PendingCounter
	SettingsStore *settingsstore.SettingsStore
	Scheduler     Scheduler
	Version       string
}

// NewRouter creates and configures the control API router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	events := NewEventsController(cfg.Tracker, cfg.State, cfg.Syncer, cfg.Gate)
	status := NewStatusController(cfg.Tracker, cfg.Pending, cfg.SettingsStore, cfg.Scheduler)
	syncController := NewSyncController(cfg.Syncer, cfg.Gate)
	settingsController := NewSettingsController(cfg.SettingsStore, cfg.Scheduler)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	router.POST("/api/events", events.HandleEvent)
	router.GET("/api/status", status.GetStatus)
	router.POST("/api/sync", syncController.SyncNow)

	router.GET("/api/settings/sync", settingsController.GetSyncSettings)
	router.POST("/api/settings/sync", settingsController.UpdateSyncSettings)

	return router
}
