package http

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/database/settings"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/sessions"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

type fakeSyncer struct {
	mu           sync.Mutex
	bookCalls    int
	bookModes    []booksync.Mode
	pendingCalls int
	result       entities.SyncResult
	pendingCount int
	pendingErr   error
}

func (f *fakeSyncer) SyncBook(ctx context.Context, mode booksync.Mode) entities.SyncResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	f.bookModes = append(f.bookModes, mode)
	return f.result
}

func (f *fakeSyncer) SyncPendingSessions(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingCalls++
	return f.pendingCount, f.pendingErr
}

func (f *fakeSyncer) BookCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookCalls
}

func (f *fakeSyncer) PendingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingCalls
}

type stubNetwork struct {
	online    bool
	requested bool
	released  bool
}

func (n *stubNetwork) IsOnline() bool { return n.online }
func (n *stubNetwork) RequestOnline(callback func()) {
	n.requested = true
	callback()
}
func (n *stubNetwork) ReleaseOnline() { n.released = true }

type memInserter struct {
	mu   sync.Mutex
	rows []entities.ReadingSession
}

func (m *memInserter) Insert(session *entities.ReadingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *session)
	return nil
}

type fixedCounter struct {
	count int64
	err   error
}

func (f fixedCounter) CountUnsynced() (int64, error) { return f.count, f.err }

type stubScheduler struct {
	running      bool
	syncing      bool
	rescheduled  int
	rescheduleMu sync.Mutex
}

func (s *stubScheduler) Reschedule() error {
	s.rescheduleMu.Lock()
	defer s.rescheduleMu.Unlock()
	s.rescheduled++
	return nil
}
func (s *stubScheduler) IsRunning() bool { return s.running }
func (s *stubScheduler) IsSyncing() bool { return s.syncing }

func newTestTracker() *sessions.Tracker {
	return sessions.NewTracker(&memInserter{}, time.Second, "test-device")
}

func newTestSettingsStore(t *testing.T) (*settingsstore.SettingsStore, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Setting{}))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return settingsstore.New(settings.NewRepository(db)), cleanup
}

func onlineGate() *connectivity.Gate {
	return connectivity.NewGate(&stubNetwork{online: true})
}
