// Package hostreader holds the agent's snapshot of what the host
// reading application last reported: the open book, its extracted
// highlights and the path of a rendered cover image. The control API
// updates it on lifecycle events; the sync orchestrator reads from it.
package hostreader

import (
	"errors"
	"os"
	"sync"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// ErrNoBook is returned when no book has been reported yet.
var ErrNoBook = errors.New("no book reported by the host reader")

// State is safe for concurrent use.
type State struct {
	mu         sync.Mutex
	book       *entities.BookContext
	highlights []entities.HighlightRecord
	coverPath  string
}

func NewState() *State {
	return &State{}
}

// SetBook replaces the current book. Highlights and the cover path
// from the previous book are dropped; they belong to that book only.
func (s *State) SetBook(book entities.BookContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book = &book
	s.highlights = nil
	s.coverPath = ""
}

// SetHighlights records the highlights the host reader extracted from
// the current book.
func (s *State) SetHighlights(highlights []entities.HighlightRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights = highlights
}

// SetCoverPath records where the host reader rendered the current
// book's cover image.
func (s *State) SetCoverPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coverPath = path
}

// ExtractBookData returns the current book, or ErrNoBook when the host
// reader has not reported one yet.
func (s *State) ExtractBookData() (*entities.BookContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil {
		return nil, ErrNoBook
	}
	book := *s.book
	return &book, nil
}

// Highlights returns the highlights reported for the given document
// path. A path mismatch means the host reader moved on to another
// book, so there is nothing to upload.
func (s *State) Highlights(path string) ([]entities.HighlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil || s.book.FilePath != path {
		return nil, nil
	}
	out := make([]entities.HighlightRecord, len(s.highlights))
	copy(out, s.highlights)
	return out, nil
}

// ExtractCover reads the rendered cover image. Absent cover is not an
// error: (nil, nil) tells the caller to skip the upload.
func (s *State) ExtractCover(clientBookID string) ([]byte, error) {
	s.mu.Lock()
	path := s.coverPath
	s.mu.Unlock()

	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
