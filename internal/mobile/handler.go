package mobile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse/internal/coordinator"
	"warehouse/internal/sessions"
	"warehouse/internal/tasks"
	custom_error "warehouse/pkg/errors"
)

// SessionHandler is the thin transport for handheld devices: start a
// session, start a task, push step input, end the session. All workflow
// logic lives behind the coordinator.
type SessionHandler struct {
	Sessions    *sessions.Manager
	Coordinator *coordinator.Coordinator
}

func NewSessionHandler(manager *sessions.Manager, coord *coordinator.Coordinator) *SessionHandler {
	return &SessionHandler{Sessions: manager, Coordinator: coord}
}

func (h *SessionHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/mobile/sessions", h.StartSession)
	router.GET("/mobile/sessions/:id/task", h.GetActiveTask)
	router.POST("/mobile/sessions/:id/task", h.StartTask)
	router.POST("/mobile/sessions/:id/step", h.Step)
	router.DELETE("/mobile/sessions/:id/task", h.CancelTask)
	router.DELETE("/mobile/sessions/:id", h.EndSession)
}

type startSessionRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
	WarehouseID string `json:"warehouse_id" binding:"required"`
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	session, err := h.Sessions.Start(c.Request.Context(), req.UserID, req.DeviceID, req.WarehouseID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to start session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID, "started_at": session.StartedAt})
}

func (h *SessionHandler) GetActiveTask(c *gin.Context) {
	task, err := h.Sessions.ActiveTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": task.ID(),
		"kind":    task.Kind(),
		"step":    task.Step(),
		"task":    task,
	})
}

func (h *SessionHandler) StartTask(c *gin.Context) {
	var spec tasks.Spec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	task, err := h.Coordinator.StartTask(c.Request.Context(), c.Param("id"), spec)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task_id": task.ID(),
		"kind":    task.Kind(),
		"step":    task.Step(),
	})
}

func (h *SessionHandler) Step(c *gin.Context) {
	var input tasks.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	result, err := h.Coordinator.Advance(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) CancelTask(c *gin.Context) {
	if err := h.Coordinator.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *SessionHandler) EndSession(c *gin.Context) {
	if err := h.Sessions.End(c.Request.Context(), c.Param("id")); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// abortWithDomainError maps the error taxonomy onto HTTP statuses and keeps
// the bilingual message + machine code visible to the device.
func abortWithDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch custom_error.ClassOf(err) {
	case custom_error.ClassNotFound:
		status = http.StatusNotFound
	case custom_error.ClassResourceConflict:
		status = http.StatusConflict
	case custom_error.ClassValidationMismatch:
		status = http.StatusUnprocessableEntity
	case custom_error.ClassSessionExpired:
		status = http.StatusGone
	case custom_error.ClassIntegrityViolation:
		status = http.StatusConflict
	}

	var domainErr *custom_error.Error
	if ok := custom_error.AsError(err, &domainErr); ok {
		c.AbortWithStatusJSON(status, gin.H{
			"error":         domainErr.Message,
			"message_local": domainErr.MessageLocal,
			"code":          domainErr.Code,
		})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
