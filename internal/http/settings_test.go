package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/settingsstore"
)

func settingsRouter(store *settingsstore.SettingsStore, scheduler Scheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewSettingsController(store, scheduler)
	router.GET("/api/settings/sync", controller.GetSyncSettings)
	router.POST("/api/settings/sync", controller.UpdateSyncSettings)
	return router
}

func TestSettingsController_GetSyncSettings(t *testing.T) {
	store, cleanup := newTestSettingsStore(t)
	defer cleanup()

	require.NoError(t, store.SetSyncSchedule("0 * * * *"))
	require.NoError(t, store.SetAutoSyncEnabled(true))

	router := settingsRouter(store, &stubScheduler{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/settings/sync", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp SyncSettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Enabled)
	assert.Equal(t, "0 * * * *", resp.Schedule)
	assert.Equal(t, "database", resp.Source)
}

func TestSettingsController_UpdateSyncSettings(t *testing.T) {
	t.Run("saves and reschedules", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		scheduler := &stubScheduler{}
		router := settingsRouter(store, scheduler)

		enabled := true
		payload, _ := json.Marshal(SyncSettingsRequest{Enabled: &enabled, Schedule: "*/15 * * * *"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/settings/sync", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, store.AutoSyncEnabled())
		assert.Equal(t, "*/15 * * * *", store.GetSyncSchedule())
		assert.Equal(t, 1, scheduler.rescheduled)
	})

	t.Run("rejects an invalid schedule", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		scheduler := &stubScheduler{}
		router := settingsRouter(store, scheduler)

		payload, _ := json.Marshal(SyncSettingsRequest{Schedule: "every full moon"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/settings/sync", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, scheduler.rescheduled)
		assert.Equal(t, "default", store.GetSyncScheduleSource())
	})

	t.Run("toggle only leaves schedule untouched", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		require.NoError(t, store.SetSyncSchedule("0 0 * * *"))

		router := settingsRouter(store, &stubScheduler{})

		enabled := false
		payload, _ := json.Marshal(SyncSettingsRequest{Enabled: &enabled})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/settings/sync", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, store.AutoSyncEnabled())
		assert.Equal(t, "0 0 * * *", store.GetSyncSchedule())
	})
}
