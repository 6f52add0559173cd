package handlers

import (
	"github.com/gin-gonic/gin"

	"sequor/internal/core/apperror"
	"sequor/internal/domain/journal"
	"sequor/internal/infrastructure/http/v1/dto"
)

// JournalHandler serves the stamp journal.
type JournalHandler struct {
	*BaseHandler
	journal *journal.Service
}

// NewJournalHandler creates a journal handler.
func NewJournalHandler(svc *journal.Service) *JournalHandler {
	return &JournalHandler{BaseHandler: NewBaseHandler(), journal: svc}
}

// List handles GET /journal with optional filters.
func (h *JournalHandler) List(c *gin.Context) {
	var query dto.JournalQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid time filter").WithDetail("error", err.Error()))
		return
	}

	entries, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
