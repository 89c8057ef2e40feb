package handlers

import (
	"net/http"

	"report-logger/models"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListMessages(c *gin.Context) {
	messages, err := h.service.ListMessages(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handlers) CreateMessage(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	message, err := h.service.CreateMessage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create message")
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *Handlers) UpdateMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	message, err := h.service.UpdateMessage(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "update message")
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteMessage(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete message")
		return
	}
	c.Status(http.StatusNoContent)
}
