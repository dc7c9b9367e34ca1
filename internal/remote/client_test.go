package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/entities"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) ValidToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func testBook() BookPayload {
	return BookPayload{
		ClientBookID: "abc123",
		Title:        "Example",
		Author:       "Author",
	}
}

func TestClient_UploadHighlights_SendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, highlightsUploadPath, r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req struct {
			Book       BookPayload        `json:"book"`
			Highlights []HighlightPayload `json:"highlights"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Example", req.Book.Title)
		require.Len(t, req.Highlights, 1)

		_ = json.NewEncoder(w).Encode(HighlightUploadResult{
			BookID:            7,
			HighlightsCreated: 1,
			HighlightsSkipped: 0,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "test-token"}, time.Second)
	result, err := client.UploadHighlights(context.Background(), testBook(), []HighlightPayload{
		{Text: "a highlight", Page: 12, Datetime: "2024-05-01T10:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result.BookID)
	assert.Equal(t, 1, result.HighlightsCreated)
}

func TestClient_GetBookMetadata_NotFoundIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	meta, err := client.GetBookMetadata(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestClient_GetBookMetadata_ParsesFlags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, booksPath+"/abc123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(BookMetadata{HasCover: true, HasEpub: false})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	meta, err := client.GetBookMetadata(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.True(t, meta.HasCover)
	assert.False(t, meta.HasEpub)
}

func TestClient_GetBookMetadata_ServerErrorIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	_, err := client.GetBookMetadata(context.Background(), "abc123")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.Status)
}

func TestClient_NoTokenShortCircuitsWithoutNetworkIO(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	authErr := errors.New("no token available")
	client := NewClient(server.URL, staticTokens{err: authErr}, time.Second)

	_, err := client.UploadHighlights(context.Background(), testBook(), nil)
	assert.ErrorIs(t, err, authErr)

	_, err = client.GetBookMetadata(context.Background(), "abc123")
	assert.ErrorIs(t, err, authErr)

	err = client.UploadCover(context.Background(), "abc123", []byte("img"))
	assert.ErrorIs(t, err, authErr)
}

func TestClient_UploadCover_SendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, booksPath+"/abc123/cover", r.URL.Path)

		file, header, err := r.FormFile("cover")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "cover.jpg", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "jpeg-bytes", string(data))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	err := client.UploadCover(context.Background(), "abc123", []byte("jpeg-bytes"))
	require.NoError(t, err)
}

func TestClient_UploadEpub_SendsFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, booksPath+"/abc123/epub", r.URL.Path)

		_, header, err := r.FormFile("epub")
		require.NoError(t, err)
		require.Equal(t, "example.epub", header.Filename)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	err := client.UploadEpub(context.Background(), "abc123", []byte("epub-bytes"), "example.epub")
	require.NoError(t, err)
}

func TestClient_UploadReadingSessions_EmptyBatchSerializesAsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"sessions":[]`)
		assert.NotContains(t, string(body), `"sessions":null`)

		_ = json.NewEncoder(w).Encode(SessionUploadResult{BookID: 7})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	result, err := client.UploadReadingSessions(context.Background(), testBook(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, result.BookID)
}

func TestNewSessionPayload_UTCTimestamps(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	start := time.Date(2024, 5, 1, 13, 0, 0, 0, loc)

	payload := NewSessionPayload(entities.ReadingSession{
		StartTime:       start,
		EndTime:         start.Add(10 * time.Minute),
		DurationSeconds: 600,
		PositionType:    entities.PositionTypeAnchor,
		StartPosition:   "/body/DocFragment[12]/p[3]",
	})

	assert.Equal(t, "2024-05-01T10:00:00Z", payload.StartTime)
	assert.Equal(t, "2024-05-01T10:10:00Z", payload.EndTime)
	assert.Equal(t, "anchor", payload.PositionType)
}

func TestClient_UploadReadingSessions_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "tok"}, time.Second)
	_, err := client.UploadReadingSessions(context.Background(), testBook(), []SessionPayload{{DeviceID: "d"}})
	assert.True(t, IsServerError(err))
}
