package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
)

type courseRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Code       string `json:"code" binding:"required,max=50"`
	Instructor string `json:"instructor" binding:"max=200"`
}

// ListCourses returns every course in insertion order.
func (h *Handler) ListCourses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"courses": h.repo.Courses(),
		"loading": h.repo.Loading(),
	})
}

// CreateCourse adds a course with a generated id.
func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course := h.repo.NewCourse(req.Name, req.Code, req.Instructor)
	if err := attendance.ValidateCourse(course); err != nil {
		h.abort(c, err)
		return
	}
	if err := h.repo.AddCourse(c.Request.Context(), course); err != nil {
		h.abort(c, err)
		return
	}
	h.publish(c.Request.Context(), attendance.CoursesKey, "create", course.ID)
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse edits name, code and instructor; id and createdAt are kept.
func (h *Handler) UpdateCourse(c *gin.Context) {
	id := c.Param("id")
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cur, ok := h.repo.Course(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	edited := h.repo.NewCourse(req.Name, req.Code, req.Instructor)
	edited.ID, edited.CreatedAt = cur.ID, cur.CreatedAt
	if err := attendance.ValidateCourse(edited); err != nil {
		h.abort(c, err)
		return
	}
	found, err := h.repo.UpdateCourse(c.Request.Context(), edited)
	if err != nil {
		h.abort(c, err)
		return
	}
	if !found {
		// deleted since the lookup above
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	h.publish(c.Request.Context(), attendance.CoursesKey, "update", id)
	c.JSON(http.StatusOK, edited)
}

// DeleteCourse removes a course and its records.
func (h *Handler) DeleteCourse(c *gin.Context) {
	id := c.Param("id")
	found, err := h.repo.DeleteCourse(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	h.publish(c.Request.Context(), attendance.CoursesKey, "delete", id)
	c.Status(http.StatusNoContent)
}
