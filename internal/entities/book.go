package entities

import "time"

// BookContext describes the book currently being synced. It is supplied
// per run by the host reading application and never persisted.
type BookContext struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ISBN        string   `json:"isbn,omitempty"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	PageCount   int      `json:"page_count,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	// FilePath is the absolute path of the open document on this device.
	FilePath string `json:"-"`
}

// HighlightRecord is a single highlight extracted from the document by
// the host reading application.
type HighlightRecord struct {
	Text     string    `json:"text"`
	Note     string    `json:"note,omitempty"`
	Datetime time.Time `json:"datetime"`
	Page     int       `json:"page"`
	Chapter  string    `json:"chapter,omitempty"`
}

// SyncResult is the outcome of one orchestration run. Ephemeral, never
// persisted.
type SyncResult struct {
	Success           bool   `json:"success"`
	HighlightsCreated int    `json:"highlights_created"`
	HighlightsSkipped int    `json:"highlights_skipped"`
	SessionsSynced    int    `json:"sessions_synced"`
	Error             string `json:"error,omitempty"`
}
