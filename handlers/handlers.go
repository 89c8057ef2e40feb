package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"report-logger/database"
	"report-logger/middleware"
	"report-logger/models"
	"report-logger/uploads"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// EventPublisher receives report lifecycle events. Implementations must not
// block the request on delivery problems.
type EventPublisher interface {
	PublishReportEvent(eventType string, reportID int64)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service *database.Service
	uploads *uploads.Store
	events  EventPublisher
	tokens  *middleware.Tokens
	now     func() time.Time
}

// NewHandlers creates a new handlers instance. events may be nil.
func NewHandlers(service *database.Service, store *uploads.Store, events EventPublisher, tokens *middleware.Tokens) *Handlers {
	return &Handlers{
		service: service,
		uploads: store,
		events:  events,
		tokens:  tokens,
		now:     time.Now,
	}
}

func (h *Handlers) publish(eventType string, reportID int64) {
	if h.events != nil {
		h.events.PublishReportEvent(eventType, reportID)
	}
}

// respondError maps store errors onto status codes. Unexpected errors are
// logged and answered with a fixed message for the failed action.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	default:
		log.Errorf("%s: %v", action, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to " + action})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}

// pathID reads a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		log.Warnf("Health check: database unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Database: "ok"})
}

// ListUsers handles GET /users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Login handles POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "log in")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Name)
	if err != nil {
		respondError(c, err, "issue token")
		return
	}

	log.Infof("User %d logged in", user.ID)
	c.JSON(http.StatusOK, models.LoginResponse{ID: user.ID, Username: user.Name, Token: token})
}
