// Package sessions tracks the lifecycle of the current reading session:
// at most one session is active at a time, page turns update it in
// memory only, and ending it persists a row unless the session was too
// short to matter.
package sessions

import (
	"log"
	"sync"
	"time"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/identity"
)

// Trigger is a host-application lifecycle event delivered to the agent.
type Trigger string

const (
	TriggerReady      Trigger = "ready"
	TriggerPageUpdate Trigger = "page_update"
	TriggerSuspend    Trigger = "suspend"
	TriggerResume     Trigger = "resume"
	TriggerClose      Trigger = "close"
	TriggerExit       Trigger = "exit"
)

// Inserter is the durable half of the session store.
type Inserter interface {
	Insert(session *entities.ReadingSession) error
}

// Position is the reader's current location in the document. Fixed-layout
// documents carry a page number, reflowable ones an anchor string.
type Position struct {
	Type       entities.PositionType
	Value      string
	Page       int
	TotalPages int
}

type activeSession struct {
	book       entities.BookContext
	bookHash   string
	startTime  time.Time
	startPos   Position
	currentPos Position
}

// Tracker owns the in-memory active session.
type Tracker struct {
	mu          sync.Mutex
	repo        Inserter
	minDuration time.Duration
	deviceID    string
	now         func() time.Time

	active *activeSession
}

// NewTracker creates a session tracker. Sessions shorter than
// minDuration are discarded on end, never persisted.
func NewTracker(repo Inserter, minDuration time.Duration, deviceID string) *Tracker {
	return &Tracker{
		repo:        repo,
		minDuration: minDuration,
		deviceID:    deviceID,
		now:         time.Now,
	}
}

// Start begins a session for the given book. An already-active session
// is ended first; sessions never overlap.
func (t *Tracker) Start(book entities.BookContext, pos Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.endLocked("new_session")
	}

	t.active = &activeSession{
		book:       book,
		bookHash:   identity.BookPathHash(book.FilePath),
		startTime:  t.now(),
		startPos:   pos,
		currentPos: pos,
	}
}

// UpdatePosition records a page turn. In-memory only: called on every
// page turn, so it never touches storage.
func (t *Tracker) UpdatePosition(pos Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return
	}
	t.active.currentPos = pos
}

// End finishes the active session. Whatever happens, the active session
// is cleared so the tracker cannot get stuck.
func (t *Tracker) End(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endLocked(reason)
}

func (t *Tracker) endLocked(reason string) error {
	if t.active == nil {
		return nil
	}
	active := t.active
	t.active = nil

	endTime := t.now()
	duration := endTime.Sub(active.startTime)
	if duration < t.minDuration {
		log.Printf("Sessions: discarding %s session of %v (below minimum %v)",
			reason, duration.Round(time.Second), t.minDuration)
		return nil
	}

	session := &entities.ReadingSession{
		BookFile:        active.book.FilePath,
		BookHash:        active.bookHash,
		BookTitle:       active.book.Title,
		BookAuthor:      active.book.Author,
		StartTime:       active.startTime,
		EndTime:         endTime,
		DurationSeconds: int(duration.Seconds()),
		PositionType:    active.startPos.Type,
		StartPosition:   active.startPos.Value,
		EndPosition:     active.currentPos.Value,
		StartPage:       active.startPos.Page,
		EndPage:         active.currentPos.Page,
		TotalPages:      active.currentPos.TotalPages,
		DeviceID:        t.deviceID,
	}

	if err := t.repo.Insert(session); err != nil {
		log.Printf("Sessions: failed to persist session (%s): %v", reason, err)
		return err
	}
	return nil
}

// HandleTrigger processes a lifecycle event. Suspend, close and exit end
// the session with that reason; ready and resume are no-ops here.
func (t *Tracker) HandleTrigger(trigger Trigger) error {
	switch trigger {
	case TriggerSuspend, TriggerClose, TriggerExit:
		return t.End(string(trigger))
	default:
		return nil
	}
}

// Active reports whether a session is currently being tracked.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}
