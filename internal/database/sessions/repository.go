// Package sessions provides the durable reading-session queue.
//
// Rows are inserted once when a session ends and mutated only through
// MarkSynced and IncrementSyncAttempts. The orchestrator never touches
// rows directly.
package sessions

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// Repository handles all reading-session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists one finished session and assigns its ID.
func (r *Repository) Insert(session *entities.ReadingSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// UnsyncedForBook returns all unsynced sessions for the given book-path
// hash, oldest first, so uploads happen in a deterministic order.
func (r *Repository) UnsyncedForBook(bookHash string) ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	err := r.db.
		Where("book_hash = ? AND synced = ?", bookHash, false).
		Order("start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced sessions: %w", err)
	}
	return sessions, nil
}

// MarkSynced flags the given sessions as synced in a single transaction.
// Either every id is marked or none is; partial marking would re-upload
// sessions the server already acknowledged.
func (r *Repository) MarkSynced(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.ReadingSession{}).
			Where("id IN ?", ids).
			Update("synced", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("expected to mark %d sessions synced, matched %d", len(ids), result.RowsAffected)
		}
		return nil
	})
}

// IncrementSyncAttempts bumps the attempt counter after a failed upload.
func (r *Repository) IncrementSyncAttempts(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&entities.ReadingSession{}).
		Where("id IN ?", ids).
		Update("sync_attempts", gorm.Expr("sync_attempts + 1")).Error
}

// CountUnsynced returns how many sessions still wait for upload.
func (r *Repository) CountUnsynced() (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingSession{}).
		Where("synced = ?", false).
		Count(&count).Error
	return count, err
}

// PendingBookHashes returns the distinct book hashes that still have
// unsynced sessions, for the opportunistic session-only sync path.
func (r *Repository) PendingBookHashes() ([]string, error) {
	var hashes []string
	err := r.db.Model(&entities.ReadingSession{}).
		Where("synced = ?", false).
		Distinct("book_hash").
		Pluck("book_hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending book hashes: %w", err)
	}
	return hashes, nil
}

// ForBook returns every session recorded for a book, newest first.
func (r *Repository) ForBook(bookHash string) ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	err := r.db.
		Where("book_hash = ?", bookHash).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}
