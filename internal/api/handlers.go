package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayoisaiah/workstate/internal/apperr"
	"github.com/ayoisaiah/workstate/internal/entries"
	"github.com/ayoisaiah/workstate/internal/models"
	"github.com/ayoisaiah/workstate/internal/timeutil"
	"github.com/ayoisaiah/workstate/internal/tracker"
)

type stopBody struct {
	Override string `json:"override"`
}

type discardBody struct {
	Confirm bool `json:"confirm"`
}

type describeBody struct {
	Description string `json:"description" binding:"max=1000"`
}

type resolveBody struct {
	Action models.IdleResolution `json:"action" binding:"required"`
}

type entryBody struct {
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	Billable     *bool      `json:"billable"`
	TaskID       string     `json:"task_id"`
	Description  string     `json:"description"`
	Currency     string     `json:"currency"`
	Duration     string     `json:"duration"`
	Tags         []string   `json:"tags"`
	BillableRate float64    `json:"billable_rate"`
}

type changesBody struct {
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	TaskID       *string    `json:"task_id"`
	Description  *string    `json:"description"`
	Currency     *string    `json:"currency"`
	Duration     *string    `json:"duration"`
	Tags         *[]string  `json:"tags"`
	Billable     *bool      `json:"billable"`
	BillableRate *float64   `json:"billable_rate"`
}

type listResponse struct {
	Entries []models.TimeEntry `json:"entries"`
	Summary entries.Summary    `json:"summary"`
}

func (s *Server) getTimer(c *gin.Context) {
	t, err := s.timers.Active(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (s *Server) startTimer(c *gin.Context) {
	var req tracker.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.timers.Start(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (s *Server) stopTimer(c *gin.Context) {
	var body stopBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var req tracker.StopRequest

	if body.Override != "" {
		d, err := timeutil.ParseDuration(body.Override)
		if err != nil {
			s.fail(c, tracker.ErrInvalidDuration.Wrap(err))
			return
		}

		req.Override = &d
	}

	res, err := s.timers.Stop(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) previewTimer(c *gin.Context) {
	res, err := s.timers.Preview(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) discardTimer(c *gin.Context) {
	var body discardBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := s.timers.Discard(c.Request.Context(), userID(c), body.Confirm)
	if err != nil {
		s.fail(c, err)
		return
	}

	if res.ConfirmationRequired {
		c.JSON(http.StatusConflict, res)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) describeTimer(c *gin.Context) {
	var body describeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := s.timers.UpdateDescription(c.Request.Context(), userID(c), body.Description)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (s *Server) heartbeat(c *gin.Context) {
	if err := s.timers.Touch(c.Request.Context(), userID(c)); err != nil {
		s.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) pendingIdle(c *gin.Context) {
	ev, err := s.timers.PendingIdle(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	if ev == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, ev)
}

func (s *Server) resolveIdle(c *gin.Context) {
	var body resolveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.timers.ResolveIdle(c.Request.Context(), userID(c), body.Action)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) createEntry(c *gin.Context) {
	var body entryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dur *time.Duration

	if body.Duration != "" {
		d, err := timeutil.ParseDuration(body.Duration)
		if err != nil {
			s.fail(c, entries.ErrInvalidTimeEntry.Wrap(err))
			return
		}

		dur = &d
	}

	span, err := entries.ParseSpan(body.Start, body.End, dur)
	if err != nil {
		s.fail(c, err)
		return
	}

	e, err := s.entries.Create(c.Request.Context(), entries.NewEntry{
		Span:         span,
		UserID:       userID(c),
		TaskID:       body.TaskID,
		Description:  body.Description,
		Currency:     body.Currency,
		Tags:         body.Tags,
		Billable:     body.Billable,
		BillableRate: body.BillableRate,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

func (s *Server) updateEntry(c *gin.Context) {
	var body changesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changes := entries.Changes{
		TaskID:       body.TaskID,
		Description:  body.Description,
		Currency:     body.Currency,
		Tags:         body.Tags,
		Billable:     body.Billable,
		BillableRate: body.BillableRate,
	}

	if body.Start != nil || body.End != nil || body.Duration != nil {
		var dur *time.Duration

		if body.Duration != nil {
			d, err := timeutil.ParseDuration(*body.Duration)
			if err != nil {
				s.fail(c, entries.ErrInvalidTimeEntry.Wrap(err))
				return
			}

			dur = &d
		}

		span, err := entries.ParseSpan(body.Start, body.End, dur)
		if err != nil {
			s.fail(c, err)
			return
		}

		changes.Span = span
	}

	e, err := s.entries.Update(c.Request.Context(), userID(c), c.Param("id"), changes)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEntry(c *gin.Context) {
	if err := s.entries.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) listEntries(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.Message(err)})
		return
	}

	list, err := s.entries.List(c.Request.Context(), userID(c), f)
	if err != nil {
		s.fail(c, err)
		return
	}

	if list == nil {
		list = []models.TimeEntry{}
	}

	c.JSON(http.StatusOK, listResponse{
		Entries: list,
		Summary: entries.Revenue(list),
	})
}

func filterFromQuery(c *gin.Context) (entries.Filter, error) {
	f := entries.Filter{
		TaskID:    c.Query("task"),
		ProjectID: c.Query("project"),
	}

	var err error

	if v := c.Query("period"); v != "" {
		f.From, f.To, err = timeutil.PeriodBounds(timeutil.Period(v), time.Now())
		if err != nil {
			return f, err
		}
	}

	if v := c.Query("from"); v != "" {
		if f.From, err = timeutil.FromStr(v); err != nil {
			return f, err
		}
	}

	if v := c.Query("to"); v != "" {
		if f.To, err = timeutil.FromStr(v); err != nil {
			return f, err
		}
	}

	if v := c.Query("billable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}

		f.Billable = &b
	}

	return f, nil
}

// fail writes err with the status it maps to.
func (s *Server) fail(c *gin.Context, err error) {
	var confirm *tracker.ConfirmationRequiredError

	switch {
	case errors.As(err, &confirm):
		c.JSON(http.StatusConflict, gin.H{
			"error":   err.Error(),
			"running": confirm.Running,
			"elapsed": confirm.Elapsed,
		})
	case errors.Is(err, entries.ErrInvalidTimeEntry),
		errors.Is(err, tracker.ErrInvalidDuration),
		errors.Is(err, tracker.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrTaskNotFound),
		errors.Is(err, entries.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrTimerAlreadyActive),
		errors.Is(err, tracker.ErrNoActiveTimer),
		errors.Is(err, entries.ErrEntryRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrPersistence):
		s.log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": apperr.Message(err)})
	default:
		s.log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
