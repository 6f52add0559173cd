// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sequor/internal/core/apperror"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/http/v1/dto"
	"sequor/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Broadcaster pushes outbound messages to attached event-stream clients.
type Broadcaster interface {
	Broadcast(msg any)
}

// Notifier recomputes the selection state after every mutating message and
// pushes it to event-stream clients, so the UI never renders stale state.
type Notifier struct {
	analyzer *stamping.Analyzer
	events   Broadcaster
}

// NewNotifier wires a Notifier.
func NewNotifier(analyzer *stamping.Analyzer, events Broadcaster) *Notifier {
	return &Notifier{analyzer: analyzer, events: events}
}

// Push broadcasts msg to event-stream clients.
func (n *Notifier) Push(msg any) {
	if n.events != nil {
		n.events.Broadcast(msg)
	}
}

// PushSelectionState re-derives and broadcasts the selection state.
func (n *Notifier) PushSelectionState(ctx context.Context) {
	state, err := n.analyzer.Analyze(ctx)
	if err != nil {
		logger.Warn(ctx, "selection analysis failed", "error", err)
		return
	}
	n.Push(dto.NewSelectionState(state))
}
