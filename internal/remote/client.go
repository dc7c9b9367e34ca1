// Package remote is the typed client for the sync server API. Every
// call authenticates through the auth manager first; a call with no
// obtainable token fails before any network I/O.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/shelfsync/internal/entities"
)

const (
	defaultTimeout = 30 * time.Second

	highlightsUploadPath = "/api/v1/highlights/upload"
	booksPath            = "/api/v1/ereader/books"
	sessionsUploadPath   = "/api/v1/reading_sessions/upload"
)

// TokenSource yields a currently-valid bearer token.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// Client interfaces with the sync server API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new sync server client.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BookPayload is the book record sent with highlight and session uploads.
type BookPayload struct {
	ClientBookID string   `json:"client_book_id"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	ISBN         string   `json:"isbn,omitempty"`
	Description  string   `json:"description,omitempty"`
	Language     string   `json:"language,omitempty"`
	PageCount    int      `json:"page_count,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// HighlightPayload is one highlight in an upload request.
type HighlightPayload struct {
	Text     string `json:"text"`
	Note     string `json:"note,omitempty"`
	Datetime string `json:"datetime"`
	Page     int    `json:"page"`
	Chapter  string `json:"chapter,omitempty"`
}

// SessionPayload is one reading session in an upload request.
// Timestamps are UTC ISO-8601.
type SessionPayload struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationSeconds int    `json:"duration_seconds"`
	PositionType    string `json:"position_type"`
	StartPosition   string `json:"start_position"`
	EndPosition     string `json:"end_position"`
	StartPage       int    `json:"start_page"`
	EndPage         int    `json:"end_page"`
	TotalPages      int    `json:"total_pages"`
	DeviceID        string `json:"device_id"`
}

// NewSessionPayload converts a stored session to its wire form.
func NewSessionPayload(s entities.ReadingSession) SessionPayload {
	return SessionPayload{
		StartTime:       s.StartTime.UTC().Format(time.RFC3339),
		EndTime:         s.EndTime.UTC().Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		PositionType:    string(s.PositionType),
		StartPosition:   s.StartPosition,
		EndPosition:     s.EndPosition,
		StartPage:       s.StartPage,
		EndPage:         s.EndPage,
		TotalPages:      s.TotalPages,
		DeviceID:        s.DeviceID,
	}
}

// NewHighlightPayload converts an extracted highlight to its wire form.
func NewHighlightPayload(h entities.HighlightRecord) HighlightPayload {
	return HighlightPayload{
		Text:     h.Text,
		Note:     h.Note,
		Datetime: h.Datetime.UTC().Format(time.RFC3339),
		Page:     h.Page,
		Chapter:  h.Chapter,
	}
}

// HighlightUploadResult is the server's answer to a highlight upload.
type HighlightUploadResult struct {
	BookID            int `json:"book_id"`
	HighlightsCreated int `json:"highlights_created"`
	HighlightsSkipped int `json:"highlights_skipped"`
}

// SessionUploadResult is the server's answer to a session upload.
type SessionUploadResult struct {
	BookID int `json:"book_id"`
}

// BookMetadata describes what the server already holds for a book.
type BookMetadata struct {
	HasCover bool `json:"has_cover"`
	HasEpub  bool `json:"has_epub"`
}

// UploadHighlights sends a book's highlights. The server deduplicates,
// so re-uploading is safe.
func (c *Client) UploadHighlights(ctx context.Context, book BookPayload, highlights []HighlightPayload) (*HighlightUploadResult, error) {
	if highlights == nil {
		highlights = []HighlightPayload{}
	}
	body := map[string]any{
		"book":       book,
		"highlights": highlights,
	}

	var result HighlightUploadResult
	if err := c.postJSON(ctx, highlightsUploadPath, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBookMetadata fetches the server-side record for a book. A 404 is a
// normal outcome meaning the book does not exist yet: it returns
// (nil, nil), not an error.
func (c *Client) GetBookMetadata(ctx context.Context, clientBookID string) (*BookMetadata, error) {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+booksPath+"/"+clientBookID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{Status: resp.StatusCode}
	}

	var meta BookMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode book metadata: %w", err)
	}
	return &meta, nil
}

// CreateBook registers a book the metadata lookup reported absent.
func (c *Client) CreateBook(ctx context.Context, book BookPayload) error {
	return c.postJSON(ctx, booksPath, book, nil)
}

// UploadCover sends the rendered cover image for a book.
func (c *Client) UploadCover(ctx context.Context, clientBookID string, data []byte) error {
	path := booksPath + "/" + clientBookID + "/cover"
	return c.postFile(ctx, path, "cover", "cover.jpg", data)
}

// UploadEpub sends the source document for a book.
func (c *Client) UploadEpub(ctx context.Context, clientBookID string, data []byte, filename string) error {
	path := booksPath + "/" + clientBookID + "/epub"
	return c.postFile(ctx, path, "epub", filename, data)
}

// UploadReadingSessions sends a batch of sessions for one book. An empty
// batch still serializes as an empty array; the server schema rejects
// null.
func (c *Client) UploadReadingSessions(ctx context.Context, book BookPayload, sessions []SessionPayload) (*SessionUploadResult, error) {
	if sessions == nil {
		sessions = []SessionPayload{}
	}
	body := map[string]any{
		"book":     book,
		"sessions": sessions,
	}

	var result SessionUploadResult
	if err := c.postJSON(ctx, sessionsUploadPath, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ServerError{Status: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) postFile(ctx context.Context, path, field, filename string, data []byte) error {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ServerError{Status: resp.StatusCode}
	}
	return nil
}
