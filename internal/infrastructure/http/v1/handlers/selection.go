package handlers

import (
	"github.com/gin-gonic/gin"

	"sequor/internal/domain/document"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/http/v1/dto"
)

// SelectionHandler serves the host's selection channel: the host notifies
// selection changes, the analyzer answers with the derived state.
type SelectionHandler struct {
	*BaseHandler
	tree     *document.MemoryTree
	analyzer *stamping.Analyzer
	notifier *Notifier
}

// NewSelectionHandler creates a selection handler.
func NewSelectionHandler(tree *document.MemoryTree, analyzer *stamping.Analyzer, notifier *Notifier) *SelectionHandler {
	return &SelectionHandler{
		BaseHandler: NewBaseHandler(),
		tree:        tree,
		analyzer:    analyzer,
		notifier:    notifier,
	}
}

// Get handles GET /selection: the current derived selection state.
func (h *SelectionHandler) Get(c *gin.Context) {
	state, err := h.analyzer.Analyze(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewSelectionState(state))
}

// Set handles PUT /selection: the host's selection-change notification.
// Responds with (and broadcasts) the freshly derived state.
func (h *SelectionHandler) Set(c *gin.Context) {
	var req dto.SelectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	h.tree.SetSelection(req.ElementIDs)

	state, err := h.analyzer.Analyze(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	msg := dto.NewSelectionState(state)
	h.notifier.Push(msg)
	h.OK(c, msg)
}
