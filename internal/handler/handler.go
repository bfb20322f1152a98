// Package handler exposes the attendance repository and statistics over a
// JSON API.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/queue"
	"attendtrack/internal/settings"
	"attendtrack/internal/stats"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Handler holds the collaborators every route needs.
type Handler struct {
	repo   *attendance.Repository
	prefs  *settings.Preferences
	queue  queue.Queue
	checks map[string]HealthCheck

	issuer     string
	signingKey string
	accessTTL  time.Duration

	now    func() time.Time
	logger *log.Logger
}

// Config carries the token settings used by client registration.
type Config struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
}

// New creates a Handler. q and checks may be nil. It fails when the custom
// binding tags cannot be registered.
func New(repo *attendance.Repository, prefs *settings.Preferences, q queue.Queue, cfg Config, checks map[string]HealthCheck) (*Handler, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}
	return &Handler{
		repo:       repo,
		prefs:      prefs,
		queue:      q,
		checks:     checks,
		issuer:     cfg.Issuer,
		signingKey: cfg.SigningKey,
		accessTTL:  cfg.AccessTTL,
		now:        time.Now,
		logger:     log.Default(),
	}, nil
}

// Register mounts the routes on r. mw guards the /v1 group, except for client
// registration which has to be reachable without a token.
func (h *Handler) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.POST("/v1/clients/register", h.RegisterClient)

	v1 := r.Group("/v1", mw...)
	v1.GET("/courses", h.ListCourses)
	v1.POST("/courses", h.CreateCourse)
	v1.PUT("/courses/:id", h.UpdateCourse)
	v1.DELETE("/courses/:id", h.DeleteCourse)

	v1.GET("/records", h.ListRecords)
	v1.PUT("/records/:id", h.UpdateRecord)
	v1.DELETE("/records/:id", h.DeleteRecord)
	v1.POST("/attendance", h.MarkAttendance)

	v1.GET("/stats", h.Stats)
	v1.GET("/export", h.Export)
	v1.POST("/refresh", h.Refresh)

	v1.GET("/settings/theme", h.GetTheme)
	v1.PUT("/settings/theme", h.PutTheme)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"loading": h.repo.Loading(),
		"ready":   h.repo.Ready(),
	}
	if err := h.repo.Err(); err != nil {
		body["error"] = err.Error()
	}
	if !h.repo.Ready() {
		status = http.StatusServiceUnavailable
	}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// ---------- Clients ----------

type registerRequest struct {
	ClientID string `json:"client_id" binding:"required,max=64"`
}

// RegisterClient issues an access token for a named client.
func (h *Handler) RegisterClient(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := auth.Issue(req.ClientID, h.issuer, h.signingKey, h.accessTTL, h.now())
	if err != nil {
		h.logger.Printf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt.Unix(),
	})
}

// ---------- Stats ----------

type courseStatsView struct {
	stats.CourseStats
	Standing string `json:"standing"`
}

// Stats returns overall figures, per-course figures and insights.
func (h *Handler) Stats(c *gin.Context) {
	if !h.repo.Ready() {
		h.abort(c, attendance.ErrNotReady)
		return
	}
	courses, records := h.repo.Snapshot()
	per := stats.ForCourses(courses, records)
	views := make([]courseStatsView, len(per))
	for i, cs := range per {
		views[i] = courseStatsView{CourseStats: cs, Standing: stats.Standing(cs.AttendanceRate)}
	}
	overall := stats.Overall(courses, records)
	c.JSON(http.StatusOK, gin.H{
		"overall":         overall,
		"overallStanding": stats.Standing(overall.OverallRate),
		"courses":         views,
		"insights":        stats.Summarize(courses, records),
	})
}

// Export returns the export snapshot as a downloadable file.
func (h *Handler) Export(c *gin.Context) {
	if !h.repo.Ready() {
		h.abort(c, attendance.ErrNotReady)
		return
	}
	courses, records := h.repo.Snapshot()
	data, err := stats.BuildExport(courses, records).JSON()
	if err != nil {
		h.logger.Printf("export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+stats.ExportFileName+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Refresh reloads both collections from the store.
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.repo.Refresh(c.Request.Context()); err != nil {
		h.abort(c, err)
		return
	}
	courses, records := h.repo.Snapshot()
	c.JSON(http.StatusOK, gin.H{"courses": len(courses), "records": len(records)})
}

// ---------- Settings ----------

type themeRequest struct {
	DarkMode *bool `json:"darkMode" binding:"required"`
}

func (h *Handler) GetTheme(c *gin.Context) {
	on, err := h.prefs.DarkMode(c.Request.Context(), false)
	if err != nil {
		h.logger.Printf("read theme failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"darkMode": on})
}

func (h *Handler) PutTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.prefs.SetDarkMode(c.Request.Context(), *req.DarkMode); err != nil {
		h.logger.Printf("save theme failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save theme"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"darkMode": *req.DarkMode})
}

// ---------- helpers ----------

// abort maps repository errors to HTTP statuses.
func (h *Handler) abort(c *gin.Context, err error) {
	var verr *attendance.ValidationError
	var lerr *attendance.LoadError
	var werr *attendance.WriteError
	switch {
	case errors.Is(err, attendance.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &verr), errors.Is(err, attendance.ErrMissingID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrUnknownCourse):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &lerr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load data"})
	case errors.As(err, &werr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save data"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// publish announces a committed change. Failures are logged only; the write
// has already succeeded.
func (h *Handler) publish(ctx context.Context, collection, op, id string) {
	if h.queue == nil {
		return
	}
	msg, err := queue.NewChange(queue.Change{Collection: collection, Op: op, ID: id, At: h.now().UTC()})
	if err == nil {
		err = h.queue.Publish(ctx, msg)
	}
	if err != nil {
		h.logger.Printf("queue publish failed: %v", err)
	}
}
