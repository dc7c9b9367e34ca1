package settingsstore

import (
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/database/settings"
	"github.com/mrlokans/shelfsync/internal/entities"
)

const (
	scheduleEnvVar  = "SHELFSYNC_SYNC_SCHEDULE"
	defaultSchedule = "*/30 * * * *"
)

// Priority: database > environment > default
type SettingsStore struct {
	settings *settings.Repository
}

func New(settings *settings.Repository) *SettingsStore {
	return &SettingsStore{settings: settings}
}

// DeviceID returns the persisted device identifier, generating and
// storing one on first use. The id survives restarts so that sessions
// recorded before and after a restart attribute to the same device.
func (s *SettingsStore) DeviceID() (string, error) {
	if id := s.settings.GetValue(entities.SettingKeyDeviceID); id != "" {
		return id, nil
	}

	id := uuid.New().String()
	if err := s.settings.SetSetting(entities.SettingKeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SettingsStore) GetSyncSchedule() string {
	// Try database first
	setting, err := s.settings.GetSetting(entities.SettingKeyAutoSyncSchedule)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	// Try environment variable
	if envSchedule := os.Getenv(scheduleEnvVar); envSchedule != "" {
		return envSchedule
	}

	return defaultSchedule
}

func (s *SettingsStore) SetSyncSchedule(schedule string) error {
	return s.settings.SetSetting(entities.SettingKeyAutoSyncSchedule, schedule)
}

func (s *SettingsStore) GetSyncScheduleSource() string {
	setting, err := s.settings.GetSetting(entities.SettingKeyAutoSyncSchedule)
	if err == nil && setting.Value != "" {
		return "database"
	}

	if envSchedule := os.Getenv(scheduleEnvVar); envSchedule != "" {
		return "environment"
	}

	return "default"
}

type ScheduleInfo struct {
	Schedule string `json:"schedule"`
	Source   string `json:"source"` // "database", "environment", or "default"
}

func (s *SettingsStore) GetSyncScheduleInfo() ScheduleInfo {
	return ScheduleInfo{
		Schedule: s.GetSyncSchedule(),
		Source:   s.GetSyncScheduleSource(),
	}
}

func (s *SettingsStore) ClearSyncSchedule() error {
	err := s.settings.DeleteSetting(entities.SettingKeyAutoSyncSchedule)
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	return err
}

func (s *SettingsStore) AutoSyncEnabled() bool {
	return s.settings.GetValue(entities.SettingKeyAutoSyncEnabled) == "true"
}

func (s *SettingsStore) SetAutoSyncEnabled(enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.settings.SetSetting(entities.SettingKeyAutoSyncEnabled, value)
}

// RecordSyncOutcome persists the result of a sync run for the status
// endpoint. A failed write here never fails the sync itself, so errors
// are returned for logging only.
func (s *SettingsStore) RecordSyncOutcome(at time.Time, success bool, message string) error {
	status := "failed"
	if success {
		status = "success"
	}

	if err := s.settings.SetSetting(entities.SettingKeyLastSyncAt, at.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.settings.SetSetting(entities.SettingKeyLastSyncStatus, status); err != nil {
		return err
	}
	return s.settings.SetSetting(entities.SettingKeyLastSyncMessage, message)
}

type LastSyncInfo struct {
	At      *time.Time `json:"at,omitempty"`
	Status  string     `json:"status,omitempty"`
	Message string     `json:"message,omitempty"`
}

// LastSync returns the outcome of the most recent sync run, or a zero
// value when no run has been recorded yet.
func (s *SettingsStore) LastSync() LastSyncInfo {
	info := LastSyncInfo{
		Status:  s.settings.GetValue(entities.SettingKeyLastSyncStatus),
		Message: s.settings.GetValue(entities.SettingKeyLastSyncMessage),
	}

	if raw := s.settings.GetValue(entities.SettingKeyLastSyncAt); raw != "" {
		if at, err := time.Parse(time.RFC3339, raw); err == nil {
			info.At = &at
		}
	}
	return info
}
