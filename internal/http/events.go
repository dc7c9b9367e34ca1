package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/hostreader"
	"github.com/mrlokans/shelfsync/internal/sessions"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

const autonomousSyncTimeout = 10 * time.Minute

// EventRequest is one lifecycle event from the host reading application.
type EventRequest struct {
	Trigger    string           `json:"trigger" binding:"required"`
	Book       *EventBook       `json:"book,omitempty"`
	Position   *EventPosition   `json:"position,omitempty"`
	Highlights []EventHighlight `json:"highlights,omitempty"`
}

type EventBook struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Language  string `json:"language,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	FilePath  string `json:"file_path"`
	CoverPath string `json:"cover_path,omitempty"`
}

// EventHighlight is one highlight extracted by the host reader.
type EventHighlight struct {
	Text     string    `json:"text"`
	Note     string    `json:"note,omitempty"`
	Datetime time.Time `json:"datetime,omitempty"`
	Page     int       `json:"page,omitempty"`
	Chapter  string    `json:"chapter,omitempty"`
}

type EventPosition struct {
	Type       string `json:"type,omitempty"`
	Value      string `json:"value,omitempty"`
	Page       int    `json:"page,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

type EventsController struct {
	tracker *sessions.Tracker
	state   *hostreader.State
	syncer  Syncer
	gate    *connectivity.Gate
}

func NewEventsController(tracker *sessions.Tracker, state *hostreader.State, syncer Syncer, gate *connectivity.Gate) *EventsController {
	return &EventsController{
		tracker: tracker,
		state:   state,
		syncer:  syncer,
		gate:    gate,
	}
}

// HandleEvent dispatches one lifecycle trigger. Ready and resume start a
// session, page updates stay in memory, suspend ends the session and
// opportunistically uploads pending sessions, close and exit end the
// session and run a full autonomous sync.
func (e *EventsController) HandleEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload: " + err.Error()})
		return
	}

	switch sessions.Trigger(req.Trigger) {
	case sessions.TriggerReady, sessions.TriggerResume:
		if req.Book == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "trigger '" + req.Trigger + "' requires a book"})
			return
		}
		book := bookFromEvent(req.Book)
		e.state.SetBook(book)
		if req.Book.CoverPath != "" {
			e.state.SetCoverPath(req.Book.CoverPath)
		}
		if len(req.Highlights) > 0 {
			e.state.SetHighlights(highlightsFromEvent(req.Highlights))
		}
		e.tracker.Start(book, positionFromEvent(req.Position))

	case sessions.TriggerPageUpdate:
		e.tracker.UpdatePosition(positionFromEvent(req.Position))

	case sessions.TriggerSuspend:
		if len(req.Highlights) > 0 {
			e.state.SetHighlights(highlightsFromEvent(req.Highlights))
		}
		if err := e.tracker.HandleTrigger(sessions.TriggerSuspend); err != nil {
			log.Printf("Events: failed to end session on suspend: %v", err)
		}
		go e.gate.RunOpportunistic(func() {
			ctx, cancel := context.WithTimeout(context.Background(), autonomousSyncTimeout)
			defer cancel()
			if _, err := e.syncer.SyncPendingSessions(ctx); err != nil {
				log.Printf("Events: opportunistic session upload failed: %v", err)
			}
		})

	case sessions.TriggerClose, sessions.TriggerExit:
		if len(req.Highlights) > 0 {
			e.state.SetHighlights(highlightsFromEvent(req.Highlights))
		}
		if err := e.tracker.HandleTrigger(sessions.Trigger(req.Trigger)); err != nil {
			log.Printf("Events: failed to end session on %s: %v", req.Trigger, err)
		}
		go e.gate.Run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), autonomousSyncTimeout)
			defer cancel()
			e.syncer.SyncBook(ctx, booksync.ModeAutonomous)
		})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trigger: " + req.Trigger})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"trigger": req.Trigger})
}

func bookFromEvent(b *EventBook) entities.BookContext {
	return entities.BookContext{
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Language:  b.Language,
		PageCount: b.PageCount,
		FilePath:  b.FilePath,
	}
}

func highlightsFromEvent(highlights []EventHighlight) []entities.HighlightRecord {
	records := make([]entities.HighlightRecord, 0, len(highlights))
	for _, h := range highlights {
		records = append(records, entities.HighlightRecord{
			Text:     h.Text,
			Note:     h.Note,
			Datetime: h.Datetime,
			Page:     h.Page,
			Chapter:  h.Chapter,
		})
	}
	return records
}

func positionFromEvent(p *EventPosition) sessions.Position {
	if p == nil {
		return sessions.Position{Type: entities.PositionTypePage}
	}

	posType := entities.PositionType(p.Type)
	if posType == "" {
		if p.Value != "" {
			posType = entities.PositionTypeAnchor
		} else {
			posType = entities.PositionTypePage
		}
	}

	return sessions.Position{
		Type:       posType,
		Value:      p.Value,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}
