// Package api exposes the timer engine and the entry repository over HTTP
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayoisaiah/workstate/internal/entries"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/tracker"
)

// Timers is the part of the timer controller served over HTTP.
type Timers interface {
	Active(ctx context.Context, userID string) (*models.ActiveTimer, error)
	Start(ctx context.Context, userID string, req tracker.StartRequest) (*tracker.StartResult, error)
	Preview(ctx context.Context, userID string) (*tracker.StopPreview, error)
	Stop(ctx context.Context, userID string, req tracker.StopRequest) (*tracker.StopResult, error)
	Discard(ctx context.Context, userID string, confirmed bool) (*tracker.DiscardResult, error)
	UpdateDescription(ctx context.Context, userID, text string) (*models.ActiveTimer, error)
	Touch(ctx context.Context, userID string) error
	PendingIdle(ctx context.Context, userID string) (*models.IdleEvent, error)
	ResolveIdle(ctx context.Context, userID string, action models.IdleResolution) (*tracker.IdleResult, error)
}

// Entries is the part of the entry repository served over HTTP.
type Entries interface {
	Create(ctx context.Context, in entries.NewEntry) (*models.TimeEntry, error)
	Update(ctx context.Context, userID, id string, c entries.Changes) (*models.TimeEntry, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, f entries.Filter) ([]models.TimeEntry, error)
}

// Server handles API requests.
type Server struct {
	timers  Timers
	entries Entries
	log     *slog.Logger
	secret  string
}

// New returns a Server. Tokens are verified with secret.
func New(timers Timers, repo Entries, secret string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		timers:  timers,
		entries: repo,
		secret:  secret,
		log:     log,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api")
	protected.Use(Authenticate(s.secret))

	timer := protected.Group("/timer")
	timer.GET("", s.getTimer)
	timer.PATCH("", s.describeTimer)
	timer.POST("/start", s.startTimer)
	timer.POST("/stop", s.stopTimer)
	timer.GET("/preview", s.previewTimer)
	timer.POST("/discard", s.discardTimer)
	timer.POST("/heartbeat", s.heartbeat)
	timer.GET("/idle", s.pendingIdle)
	timer.POST("/idle/resolve", s.resolveIdle)

	list := protected.Group("/entries")
	list.POST("", s.createEntry)
	list.GET("", s.listEntries)
	list.PATCH("/:id", s.updateEntry)
	list.DELETE("/:id", s.deleteEntry)

	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.DebugContext(c.Request.Context(), "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.InfoContext(ctx, "api listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
