// Package sync sequences one synchronization run: resolve the server
// book record, best-effort file uploads, highlights, then pending
// reading sessions with all-or-nothing acknowledgement.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/shelfsync/internal/authn"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/identity"
	"github.com/mrlokans/shelfsync/internal/remote"
)

// Mode distinguishes user-requested syncs from lifecycle-triggered ones.
// Both run the same steps; autonomous runs only log their failures.
type Mode string

const (
	ModeManual     Mode = "manual"
	ModeAutonomous Mode = "autonomous"
)

// Orchestrator composes the remote client, the session store and the
// host-supplied extractors into one sync run.
type Orchestrator struct {
	client     RemoteClient
	store      SessionStore
	books      BookDataSource
	highlights HighlightSource
	covers     CoverSource
}

// NewOrchestrator wires a sync orchestrator.
func NewOrchestrator(client RemoteClient, store SessionStore, books BookDataSource, highlights HighlightSource, covers CoverSource) *Orchestrator {
	return &Orchestrator{
		client:     client,
		store:      store,
		books:      books,
		highlights: highlights,
		covers:     covers,
	}
}

// SyncBook runs one full sync for the currently open book. Re-running
// after partial success is safe: highlights are server-deduplicated,
// files are skipped when the server already has them, and only sessions
// still marked unsynced are sent.
func (o *Orchestrator) SyncBook(ctx context.Context, mode Mode) entities.SyncResult {
	result := o.syncBook(ctx)
	if !result.Success && mode == ModeAutonomous {
		// Autonomous runs stay quiet; the next successful run catches up.
		log.Printf("Sync: autonomous run failed: %s", result.Error)
	}
	return result
}

func (o *Orchestrator) syncBook(ctx context.Context) entities.SyncResult {
	book, err := o.books.ExtractBookData()
	if err != nil {
		return failure(fmt.Errorf("failed to extract book data: %w", err))
	}

	clientBookID := identity.ClientBookID(book.Title, book.Author)
	payload := bookPayload(*book, clientBookID)

	// Step 1: resolve the server-side book record. Nothing is uploaded
	// without it.
	meta, err := o.client.GetBookMetadata(ctx, clientBookID)
	if err != nil {
		return failure(fmt.Errorf("failed to fetch book metadata: %w", err))
	}
	if meta == nil {
		log.Printf("Sync: book %q not on server yet, creating", book.Title)
		if err := o.client.CreateBook(ctx, payload); err != nil {
			return failure(fmt.Errorf("failed to create book: %w", err))
		}
		meta = &remote.BookMetadata{}
	}

	// Step 2: best-effort file uploads. Failures are logged and never
	// abort the run.
	o.uploadFiles(ctx, *book, clientBookID, meta)

	// Step 3: highlights are primary content; failure aborts the run.
	created, skipped, err := o.uploadHighlights(ctx, payload, book.FilePath)
	if err != nil {
		return failure(fmt.Errorf("failed to upload highlights: %w", err))
	}

	// Step 4: pending sessions, acknowledged all-or-nothing.
	synced, err := o.syncSessionsForBook(ctx, payload, identity.BookPathHash(book.FilePath))
	if err != nil {
		return failure(fmt.Errorf("failed to upload sessions: %w", err))
	}

	return entities.SyncResult{
		Success:           true,
		HighlightsCreated: created,
		HighlightsSkipped: skipped,
		SessionsSynced:    synced,
	}
}

// SyncPendingSessions uploads unsynced sessions for every book that has
// any, without touching metadata, highlights or files. Used by the
// opportunistic path and the autonomous scheduler.
func (o *Orchestrator) SyncPendingSessions(ctx context.Context) (int, error) {
	hashes, err := o.store.PendingBookHashes()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, hash := range hashes {
		rows, err := o.store.UnsyncedForBook(hash)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			continue
		}

		// Sessions carry denormalized title/author precisely so that a
		// session-only sync can address the server book record.
		clientBookID := identity.ClientBookID(rows[0].BookTitle, rows[0].BookAuthor)
		payload := remote.BookPayload{
			ClientBookID: clientBookID,
			Title:        rows[0].BookTitle,
			Author:       rows[0].BookAuthor,
		}

		synced, err := o.uploadSessionBatch(ctx, payload, rows)
		if err != nil {
			return total, err
		}
		total += synced
	}
	return total, nil
}

func (o *Orchestrator) uploadFiles(ctx context.Context, book entities.BookContext, clientBookID string, meta *remote.BookMetadata) {
	if !meta.HasCover {
		cover, err := o.covers.ExtractCover(clientBookID)
		switch {
		case err != nil:
			log.Printf("Sync: cover extraction failed for %q: %v", book.Title, err)
		case cover == nil:
			// No cover available locally; nothing to upload.
		default:
			if err := o.client.UploadCover(ctx, clientBookID, cover); err != nil {
				log.Printf("Sync: cover upload failed for %q: %v", book.Title, err)
			}
		}
	}

	if !meta.HasEpub && book.FilePath != "" {
		data, err := os.ReadFile(book.FilePath)
		if err != nil {
			log.Printf("Sync: cannot read document %s: %v", book.FilePath, err)
			return
		}
		filename := filepath.Base(book.FilePath)
		if err := o.client.UploadEpub(ctx, clientBookID, data, filename); err != nil {
			log.Printf("Sync: document upload failed for %q: %v", book.Title, err)
		}
	}
}

func (o *Orchestrator) uploadHighlights(ctx context.Context, payload remote.BookPayload, path string) (created, skipped int, err error) {
	records, err := o.highlights.Highlights(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to extract highlights: %w", err)
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	highlights := make([]remote.HighlightPayload, 0, len(records))
	for _, record := range records {
		highlights = append(highlights, remote.NewHighlightPayload(record))
	}

	result, err := o.client.UploadHighlights(ctx, payload, highlights)
	if err != nil {
		return 0, 0, err
	}
	return result.HighlightsCreated, result.HighlightsSkipped, nil
}

func (o *Orchestrator) syncSessionsForBook(ctx context.Context, payload remote.BookPayload, bookHash string) (int, error) {
	rows, err := o.store.UnsyncedForBook(bookHash)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return o.uploadSessionBatch(ctx, payload, rows)
}

func (o *Orchestrator) uploadSessionBatch(ctx context.Context, payload remote.BookPayload, rows []entities.ReadingSession) (int, error) {
	sessions := make([]remote.SessionPayload, 0, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, remote.NewSessionPayload(row))
		ids = append(ids, row.ID)
	}

	if _, err := o.client.UploadReadingSessions(ctx, payload, sessions); err != nil {
		// The batch was not acknowledged: every session stays unsynced
		// and retryable in full.
		if attemptErr := o.store.IncrementSyncAttempts(ids); attemptErr != nil {
			log.Printf("Sync: failed to record sync attempt: %v", attemptErr)
		}
		return 0, err
	}

	// The server accepted the whole batch; mark exactly the submitted
	// set, atomically.
	if err := o.store.MarkSynced(ids); err != nil {
		return 0, fmt.Errorf("server acknowledged batch but marking synced failed: %w", err)
	}
	return len(ids), nil
}

func bookPayload(book entities.BookContext, clientBookID string) remote.BookPayload {
	return remote.BookPayload{
		ClientBookID: clientBookID,
		Title:        book.Title,
		Author:       book.Author,
		ISBN:         book.ISBN,
		Description:  book.Description,
		Language:     book.Language,
		PageCount:    book.PageCount,
		Keywords:     book.Keywords,
	}
}

func failure(err error) entities.SyncResult {
	return entities.SyncResult{Success: false, Error: ErrorMessage(err)}
}

// ErrorMessage maps an error to the user-facing failure string,
// distinguishing authentication problems from everything else.
func ErrorMessage(err error) string {
	var authErr *authn.AuthError
	if errors.Is(err, authn.ErrNotConfigured) || errors.As(err, &authErr) {
		return "Authentication failed"
	}
	return fmt.Sprintf("Sync failed: %v", err)
}
