package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/settingsstore"
)

type SyncSettingsResponse struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	Source   string `json:"source"`
}

type SyncSettingsRequest struct {
	Enabled  *bool  `json:"enabled,omitempty"`
	Schedule string `json:"schedule,omitempty"`
}

type SettingsController struct {
	settingsStore *settingsstore.SettingsStore
	scheduler     Scheduler
}

func NewSettingsController(settingsStore *settingsstore.SettingsStore, scheduler Scheduler) *SettingsController {
	return &SettingsController{
		settingsStore: settingsStore,
		scheduler:     scheduler,
	}
}

func (s *SettingsController) GetSyncSettings(c *gin.Context) {
	info := s.settingsStore.GetSyncScheduleInfo()
	c.JSON(http.StatusOK, SyncSettingsResponse{
		Enabled:  s.settingsStore.AutoSyncEnabled(),
		Schedule: info.Schedule,
		Source:   info.Source,
	})
}

// UpdateSyncSettings changes the auto sync toggle and schedule, then
// reschedules the background job so changes apply without a restart.
func (s *SettingsController) UpdateSyncSettings(c *gin.Context) {
	var req SyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload: " + err.Error()})
		return
	}

	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cron schedule: " + err.Error()})
			return
		}
		if err := s.settingsStore.SetSyncSchedule(req.Schedule); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save schedule: " + err.Error()})
			return
		}
	}

	if req.Enabled != nil {
		if err := s.settingsStore.SetAutoSyncEnabled(*req.Enabled); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save auto sync toggle: " + err.Error()})
			return
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.Reschedule(); err != nil {
			log.Printf("Settings: reschedule failed: %v", err)
		}
	}

	info := s.settingsStore.GetSyncScheduleInfo()
	c.JSON(http.StatusOK, SyncSettingsResponse{
		Enabled:  s.settingsStore.AutoSyncEnabled(),
		Schedule: info.Schedule,
		Source:   info.Source,
	})
}
