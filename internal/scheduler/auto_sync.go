package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/settingsstore"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

const syncTimeout = 10 * time.Minute

// SessionSyncer uploads every pending reading session.
type SessionSyncer interface {
	SyncPendingSessions(ctx context.Context) (int, error)
}

// AutoSyncScheduler runs periodic background uploads of pending
// sessions. Timer-driven runs are opportunistic: they never bring the
// network up, they only use connectivity that is already there.
type AutoSyncScheduler struct {
	settingsStore *settingsstore.SettingsStore
	syncer        SessionSyncer
	gate          *connectivity.Gate

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewAutoSyncScheduler creates a new scheduler instance
func NewAutoSyncScheduler(settingsStore *settingsstore.SettingsStore, syncer SessionSyncer, gate *connectivity.Gate) *AutoSyncScheduler {
	return &AutoSyncScheduler{
		settingsStore: settingsStore,
		syncer:        syncer,
		gate:          gate,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if auto sync is enabled
func (s *AutoSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.settingsStore.AutoSyncEnabled() {
		log.Printf("Auto sync scheduler: disabled")
		return nil
	}

	schedule := s.settingsStore.GetSyncSchedule()
	if err := settingsstore.ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(schedule)
	log.Printf("Auto sync scheduler: started with schedule '%s' (%s). Next run: %v",
		schedule,
		settingsstore.GetCronDescription(schedule),
		nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *AutoSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Auto sync scheduler: stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *AutoSyncScheduler) Reschedule() error {
	s.mu.Lock()
	wasRunning := s.isRunning
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	return s.Start(context.Background())
}

// RunNow triggers an immediate sync
func (s *AutoSyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *AutoSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress
func (s *AutoSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sync will occur
func (s *AutoSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	for _, entry := range entries {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs one background upload pass
func (s *AutoSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Auto sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	if !s.settingsStore.AutoSyncEnabled() {
		log.Printf("Auto sync: skipped (disabled)")
		return
	}

	ran := s.gate.RunOpportunistic(func() {
		log.Printf("Auto sync: uploading pending sessions")
		startTime := time.Now()

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		count, err := s.syncer.SyncPendingSessions(ctx)
		if err != nil {
			errMsg := booksync.ErrorMessage(err)
			log.Printf("Auto sync: %s", errMsg)
			if err := s.settingsStore.RecordSyncOutcome(time.Now(), false, errMsg); err != nil {
				log.Printf("Auto sync: failed to record outcome: %v", err)
			}
			return
		}

		successMsg := fmt.Sprintf("Synced %d sessions in %v",
			count, time.Since(startTime).Round(time.Millisecond))
		log.Printf("Auto sync: %s", successMsg)
		if err := s.settingsStore.RecordSyncOutcome(time.Now(), true, successMsg); err != nil {
			log.Printf("Auto sync: failed to record outcome: %v", err)
		}
	})
	if !ran {
		log.Printf("Auto sync: skipped (offline)")
	}
}
