package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelfsync/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_settings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting(entities.SettingKeyDeviceID, "device-1")
	require.NoError(t, err)

	setting, err := repo.GetSetting(entities.SettingKeyDeviceID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettingKeyDeviceID, setting.Key)
	assert.Equal(t, "device-1", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting(entities.SettingKeyLastSyncStatus, "failed")
	require.NoError(t, err)

	err = repo.SetSetting(entities.SettingKeyLastSyncStatus, "success")
	require.NoError(t, err)

	setting, err := repo.GetSetting(entities.SettingKeyLastSyncStatus)
	require.NoError(t, err)
	assert.Equal(t, "success", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetSetting("nonexistent")

	assert.Error(t, err)
}

func TestRepository_GetValue_Missing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Equal(t, "", repo.GetValue("nonexistent"))
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting(entities.SettingKeyLastSyncMessage, "done")
	require.NoError(t, err)

	err = repo.DeleteSetting(entities.SettingKeyLastSyncMessage)
	require.NoError(t, err)

	_, err = repo.GetSetting(entities.SettingKeyLastSyncMessage)
	assert.Error(t, err)
}
