package sync

import (
	"context"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/remote"
)

// BookDataSource supplies the currently open book. Implemented by the
// host reading application, outside the agent.
type BookDataSource interface {
	// ExtractBookData returns bibliographic data for the open document,
	// including its absolute file path.
	ExtractBookData() (*entities.BookContext, error)
}

// HighlightSource extracts the highlights of a document. Implemented by
// the host reading application.
type HighlightSource interface {
	Highlights(path string) ([]entities.HighlightRecord, error)
}

// CoverSource renders the cover image of a book. Implemented by the
// host reading application. A nil slice with nil error means the book
// has no cover.
type CoverSource interface {
	ExtractCover(clientBookID string) ([]byte, error)
}

// RemoteClient is the slice of the server API the orchestrator uses.
type RemoteClient interface {
	GetBookMetadata(ctx context.Context, clientBookID string) (*remote.BookMetadata, error)
	CreateBook(ctx context.Context, book remote.BookPayload) error
	UploadHighlights(ctx context.Context, book remote.BookPayload, highlights []remote.HighlightPayload) (*remote.HighlightUploadResult, error)
	UploadCover(ctx context.Context, clientBookID string, data []byte) error
	UploadEpub(ctx context.Context, clientBookID string, data []byte, filename string) error
	UploadReadingSessions(ctx context.Context, book remote.BookPayload, sessions []remote.SessionPayload) (*remote.SessionUploadResult, error)
}

// SessionStore is the slice of the session repository the orchestrator
// uses. It only ever reads unsynced rows and flags outcomes; rows are
// owned by the repository.
type SessionStore interface {
	UnsyncedForBook(bookHash string) ([]entities.ReadingSession, error)
	MarkSynced(ids []uint) error
	IncrementSyncAttempts(ids []uint) error
	PendingBookHashes() ([]string, error)
}
