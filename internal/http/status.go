package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/sessions"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
)

type StatusResponse struct {
	SessionActive    bool                       `json:"session_active"`
	PendingSessions  int64                      `json:"pending_sessions"`
	LastSync         settingsstore.LastSyncInfo `json:"last_sync"`
	AutoSyncEnabled  bool                       `json:"auto_sync_enabled"`
	SchedulerRunning bool                       `json:"scheduler_running"`
	SyncInProgress   bool                       `json:"sync_in_progress"`
}

type StatusController struct {
	tracker       *sessions.Tracker
	pending       PendingCounter
	settingsStore *settingsstore.SettingsStore
	scheduler     Scheduler
}

func NewStatusController(tracker *sessions.Tracker, pending PendingCounter, settingsStore *settingsstore.SettingsStore, scheduler Scheduler) *StatusController {
	return &StatusController{
		tracker:       tracker,
		pending:       pending,
		settingsStore: settingsStore,
		scheduler:     scheduler,
	}
}

func (s *StatusController) GetStatus(c *gin.Context) {
	pending, err := s.pending.CountUnsynced()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count pending sessions: " + err.Error()})
		return
	}

	resp := StatusResponse{
		SessionActive:   s.tracker.Active(),
		PendingSessions: pending,
		LastSync:        s.settingsStore.LastSync(),
		AutoSyncEnabled: s.settingsStore.AutoSyncEnabled(),
	}
	if s.scheduler != nil {
		resp.SchedulerRunning = s.scheduler.IsRunning()
		resp.SyncInProgress = s.scheduler.IsSyncing()
	}

	c.JSON(http.StatusOK, resp)
}
