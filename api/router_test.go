package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/storage"
	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

type recorder struct {
	updates []tg.Update
	err     error
}

func (r *recorder) HandleUpdate(ctx context.Context, upd tg.Update) error {
	r.updates = append(r.updates, upd)
	return r.err
}

func setup(t *testing.T, secret string) (*gin.Engine, *recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewFile(filepath.Join(t.TempDir(), "db.json"))
	doc := &catalog.Document{
		Genres: []string{"Драма", "Комедия"},
		Movies: []catalog.Movie{
			{Title: "Heat", Genre: "Драма", Year: "1995", Link: "https://l/1", Views: 4},
			{Title: "Up", Genre: "Комедия", Year: "2009", Link: "https://l/2"},
			{Title: "Solaris", Genre: "Драма", Year: "1972", Link: "https://l/3", Poster: "https://p/3"},
		},
	}
	require.NoError(t, store.Save(context.Background(), doc))

	rec := &recorder{}
	r := NewRouter(Deps{
		Catalog:       catalog.New(store),
		Updates:       rec,
		WebhookSecret: secret,
		Log:           logger.Nop(),
	})
	return r, rec
}

func do(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setup(t, "")
	w := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _ := setup(t, "")
	w := do(r, http.MethodGet, "/health", "", map[string]string{requestIDHeader: "abc"})
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestWebhookDispatches(t *testing.T) {
	r, rec := setup(t, "")
	body := `{"update_id":7,"message":{"message_id":1,"chat":{"id":5},"from":{"id":5},"text":"/start"}}`

	w := do(r, http.MethodPost, "/api/webhook", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.updates, 1)
	assert.Equal(t, 7, rec.updates[0].UpdateID)
	assert.Equal(t, "/start", rec.updates[0].Message.Text)
}

func TestWebhookHandlerErrorStillOK(t *testing.T) {
	r, rec := setup(t, "")
	rec.err = errors.New("storage down")
	w := do(r, http.MethodPost, "/api/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookBadJSON(t *testing.T) {
	r, rec := setup(t, "")
	w := do(r, http.MethodPost, "/api/webhook", `{"update_id":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.updates)
}

func TestWebhookSecret(t *testing.T) {
	r, rec := setup(t, "s3cret")

	w := do(r, http.MethodPost, "/api/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/webhook", `{"update_id":1}`, map[string]string{secretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rec.updates)

	w = do(r, http.MethodPost, "/api/webhook", `{"update_id":1}`, map[string]string{secretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rec.updates, 1)
}

func TestWebhookNotMountedWithoutHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewFile(filepath.Join(t.TempDir(), "db.json"))
	r := NewRouter(Deps{Catalog: catalog.New(store), Log: logger.Nop()})
	w := do(r, http.MethodPost, "/api/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibrary(t *testing.T) {
	r, _ := setup(t, "")

	tests := []struct {
		name   string
		target string
		code   int
		titles []string
	}{
		{"all", "/api/library", http.StatusOK, []string{"Heat", "Up", "Solaris"}},
		{"limit", "/api/library?limit=2", http.StatusOK, []string{"Heat", "Up"}},
		{"genre", "/api/library?genre=%D0%94%D1%80%D0%B0%D0%BC%D0%B0", http.StatusOK, []string{"Heat", "Solaris"}},
		{"genre with limit", "/api/library?genre=%D0%94%D1%80%D0%B0%D0%BC%D0%B0&limit=1", http.StatusOK, []string{"Heat"}},
		{"unknown genre", "/api/library?genre=x", http.StatusOK, []string{}},
		{"bad limit", "/api/library?limit=zero", http.StatusBadRequest, nil},
		{"negative limit", "/api/library?limit=-1", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.target, "", nil)
			require.Equal(t, tt.code, w.Code)
			if tt.titles == nil {
				return
			}
			var items []libraryItem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
			titles := make([]string, 0, len(items))
			for _, it := range items {
				titles = append(titles, it.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestLibraryStorageError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewFile(filepath.Join(t.TempDir(), "missing.json"))
	r := NewRouter(Deps{Catalog: catalog.New(store), Log: logger.Nop()})
	w := do(r, http.MethodGet, "/api/library", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
