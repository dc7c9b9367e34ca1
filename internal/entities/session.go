package entities

import (
	"time"
)

type PositionType string

const (
	// PositionTypePage is used for fixed-layout documents where the
	// current position is a page number.
	PositionTypePage PositionType = "page"
	// PositionTypeAnchor is used for reflowable documents where the
	// current position is a format-specific locator string.
	PositionTypeAnchor PositionType = "anchor"
)

// ReadingSession is one finished reading session for a book. Rows are
// owned by the sessions repository; the orchestrator only reads unsynced
// rows and asks for them to be marked synced.
type ReadingSession struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// BookFile is the absolute path of the document on this device.
	// It is not portable across devices.
	BookFile string `gorm:"size:1024" json:"book_file"`
	// BookHash partitions the local session store. It is a hash of the
	// file path and must never be used to address the server-side book.
	BookHash   string `gorm:"index:idx_sessions_book_synced;size:64" json:"book_hash"`
	BookTitle  string `gorm:"size:512" json:"book_title"`
	BookAuthor string `gorm:"size:256" json:"book_author"`

	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int       `json:"duration_seconds"`

	PositionType  PositionType `gorm:"size:10" json:"position_type"`
	StartPosition string       `gorm:"size:512" json:"start_position"`
	EndPosition   string       `gorm:"size:512" json:"end_position"`
	StartPage     int          `json:"start_page"`
	EndPage       int          `json:"end_page"`
	TotalPages    int          `json:"total_pages"`

	DeviceID string `gorm:"size:128" json:"device_id"`

	Synced       bool `gorm:"index:idx_sessions_book_synced;default:false" json:"synced"`
	SyncAttempts int  `gorm:"default:0" json:"sync_attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}
