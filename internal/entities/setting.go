package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Device identity
	SettingKeyDeviceID = "device_id"

	// Autonomous sync settings
	SettingKeyAutoSyncEnabled  = "auto_sync_enabled"
	SettingKeyAutoSyncSchedule = "auto_sync_schedule"

	// Last sync outcome
	SettingKeyLastSyncAt      = "last_sync_at"
	SettingKeyLastSyncStatus  = "last_sync_status"
	SettingKeyLastSyncMessage = "last_sync_message"
)
