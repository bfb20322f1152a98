package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/stats"
)

type recordRequest struct {
	CourseID string            `json:"courseId" binding:"required"`
	Date     string            `json:"date" binding:"required,isodate"`
	Status   attendance.Status `json:"status" binding:"required,attstatus"`
}

type markRequest struct {
	CourseID string            `json:"courseId" binding:"required"`
	Date     string            `json:"date" binding:"omitempty,isodate"`
	Status   attendance.Status `json:"status" binding:"required,attstatus"`
}

// ListRecords returns records joined with their course, filtered by course_id
// ("all" or empty for every course) and sorted by date (order=asc|desc).
func (h *Handler) ListRecords(c *gin.Context) {
	order, err := stats.ParseOrder(c.Query("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	courses, records := h.repo.Snapshot()
	views := stats.Browse(courses, records, stats.Query{CourseID: c.Query("course_id"), Order: order})
	c.JSON(http.StatusOK, gin.H{"records": views})
}

// MarkAttendance records a status for a course on a date, today when no date
// is given. Marking the same course and date again updates the status.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = attendance.Today(h.now())
	}
	rec, inserted, err := h.repo.MarkAttendance(c.Request.Context(), req.CourseID, req.Date, req.Status)
	if err != nil {
		h.abort(c, err)
		return
	}
	status, op := http.StatusOK, "update"
	if inserted {
		status, op = http.StatusCreated, "create"
	}
	h.publish(c.Request.Context(), attendance.RecordsKey, op, rec.ID)
	c.JSON(status, rec)
}

// UpdateRecord replaces course, date and status of an existing record.
func (h *Handler) UpdateRecord(c *gin.Context) {
	id := c.Param("id")
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !slices.ContainsFunc(h.repo.Records(), func(r attendance.Record) bool { return r.ID == id }) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if _, ok := h.repo.Course(req.CourseID); !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown course"})
		return
	}
	rec := attendance.Record{ID: id, CourseID: req.CourseID, Date: req.Date, Status: req.Status}
	found, err := h.repo.UpdateRecord(c.Request.Context(), rec)
	if err != nil {
		h.abort(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	h.publish(c.Request.Context(), attendance.RecordsKey, "update", id)
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord removes one record.
func (h *Handler) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	found, err := h.repo.DeleteRecord(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	h.publish(c.Request.Context(), attendance.RecordsKey, "delete", id)
	c.Status(http.StatusNoContent)
}
