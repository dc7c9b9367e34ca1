package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusController_GetStatus(t *testing.T) {
	t.Run("reports pending sessions and last sync", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		at := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
		require.NoError(t, store.RecordSyncOutcome(at, true, "synced 5 sessions"))
		require.NoError(t, store.SetAutoSyncEnabled(true))

		controller := NewStatusController(newTestTracker(), fixedCounter{count: 7},
			store, &stubScheduler{running: true})

		router := gin.New()
		router.GET("/api/status", controller.GetStatus)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/status", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.PendingSessions)
		assert.False(t, resp.SessionActive)
		assert.True(t, resp.AutoSyncEnabled)
		assert.True(t, resp.SchedulerRunning)
		assert.Equal(t, "success", resp.LastSync.Status)
		require.NotNil(t, resp.LastSync.At)
		assert.True(t, resp.LastSync.At.Equal(at))
	})

	t.Run("fails when the counter fails", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		controller := NewStatusController(newTestTracker(),
			fixedCounter{err: errors.New("database is locked")}, store, nil)

		router := gin.New()
		router.GET("/api/status", controller.GetStatus)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/status", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("works without a scheduler", func(t *testing.T) {
		store, cleanup := newTestSettingsStore(t)
		defer cleanup()

		controller := NewStatusController(newTestTracker(), fixedCounter{}, store, nil)

		router := gin.New()
		router.GET("/api/status", controller.GetStatus)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/status", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.SchedulerRunning)
		assert.Empty(t, resp.LastSync.Status)
	})
}
