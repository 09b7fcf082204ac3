package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

const (
	secretHeader        = "X-Telegram-Bot-Api-Secret-Token"
	defaultLibraryLimit = 50
	maxLibraryLimit     = 200
)

// UpdateHandler consumes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tg.Update) error
}

type Deps struct {
	Catalog *catalog.Catalog
	// Updates may be nil in polling mode; the webhook route is then not mounted.
	Updates       UpdateHandler
	WebhookSecret string
	Production    bool
	Log           *logger.Logger
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func NewRouter(d Deps) *gin.Engine {
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(d.Log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "kinotut-bot"})
	})

	api := router.Group("/api")
	if d.Updates != nil {
		api.POST("/webhook", webhook(d))
	}
	api.GET("/library", library(d))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "endpoint not found", Code: http.StatusNotFound})
	})
	return router
}

// webhook answers 200 for every well-formed update, even when handling
// fails, because Telegram redelivers anything else.
func webhook(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.WebhookSecret != "" {
			got := c.GetHeader(secretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(d.WebhookSecret)) != 1 {
				c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "bad secret token", Code: http.StatusUnauthorized})
				return
			}
		}

		var upd tg.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			d.Log.Warnw("bad webhook payload", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "invalid update body", Code: http.StatusBadRequest})
			return
		}

		if err := d.Updates.HandleUpdate(c.Request.Context(), upd); err != nil {
			d.Log.Errorw("update handling failed", "update_id", upd.UpdateID, "error", err)
			_ = c.Error(err)
		}
		c.Status(http.StatusOK)
	}
}

type libraryItem struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	Year        string `json:"year"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Poster      string `json:"poster,omitempty"`
	Views       int    `json:"views"`
}

func library(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLibraryLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_limit", Message: "limit must be a positive integer", Code: http.StatusBadRequest})
				return
			}
			limit = min(n, maxLibraryLimit)
		}

		ctx := c.Request.Context()
		var (
			movies []catalog.Movie
			err    error
		)
		if genre := c.Query("genre"); genre != "" {
			movies, err = d.Catalog.MoviesByGenre(ctx, genre, limit)
		} else {
			var doc *catalog.Document
			doc, err = d.Catalog.Load(ctx)
			if err == nil {
				movies = doc.Movies[:min(limit, len(doc.Movies))]
			}
		}
		if err != nil {
			d.Log.Errorw("library load failed", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error", Message: "catalog unavailable", Code: http.StatusInternalServerError})
			return
		}

		out := make([]libraryItem, 0, len(movies))
		for _, m := range movies {
			out = append(out, libraryItem{
				Title:       m.Title,
				Genre:       m.Genre,
				Year:        m.Year,
				Link:        m.Link,
				Description: m.Description,
				Poster:      m.Poster,
				Views:       m.Views,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}
