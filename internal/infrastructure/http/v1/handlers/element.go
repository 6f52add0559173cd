package handlers

import (
	"github.com/gin-gonic/gin"

	"sequor/internal/core/apperror"
	"sequor/internal/domain/document"
	"sequor/internal/domain/link"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/http/v1/dto"
)

// ElementHandler serves document element messages: stamping, link repair
// and tree scaffolding.
type ElementHandler struct {
	*BaseHandler
	tree     *document.MemoryTree
	links    *link.Registry
	stamper  *stamping.Service
	notifier *Notifier
}

// NewElementHandler creates an element handler.
func NewElementHandler(tree *document.MemoryTree, links *link.Registry, stamper *stamping.Service, notifier *Notifier) *ElementHandler {
	return &ElementHandler{
		BaseHandler: NewBaseHandler(),
		tree:        tree,
		links:       links,
		stamper:     stamper,
		notifier:    notifier,
	}
}

// Get handles GET /elements/:id.
func (h *ElementHandler) Get(c *gin.Context) {
	node, ok := h.tree.NodeByID(c.Param("id"))
	if !ok {
		h.Error(c, apperror.NewNotFound("element", c.Param("id")))
		return
	}
	h.OK(c, dto.FromElement(node, h.links.Get(node)))
}

// Create handles POST /elements.
func (h *ElementHandler) Create(c *gin.Context) {
	var req dto.CreateElementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var (
		node document.Node
		err  error
	)
	switch req.Kind {
	case "text":
		node, err = h.tree.AddText(req.ParentID, req.Text)
	case "container":
		node, err = h.tree.AddContainer(req.ParentID, document.TypeFrame)
	default:
		h.Error(c, apperror.NewValidation("kind must be text or container").WithDetail("kind", req.Kind))
		return
	}
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}
	h.Created(c, dto.FromElement(node, nil))
}

// Duplicate handles POST /elements/duplicate. The clone carries the source's
// link metadata verbatim, like host copy/paste does.
func (h *ElementHandler) Duplicate(c *gin.Context) {
	var req dto.DuplicateElementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	clone, err := h.tree.Duplicate(req.ElementID)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	h.notifier.PushSelectionState(c.Request.Context())
	h.Created(c, dto.FromElement(clone, h.links.Get(clone)))
}

// Stamp handles POST /elements/:id/stamp. It serves both first stamp and
// needs-stamp repair; re-stamping a sound element runs the guard first.
func (h *ElementHandler) Stamp(c *gin.Context) {
	var req dto.StampRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	res, err := h.stamper.StampOrLink(ctx, c.Param("id"), req.SequenceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := dto.FromStampResult(res)
	h.notifier.Push(msg)
	h.notifier.PushSelectionState(ctx)
	h.OK(c, msg)
}

// Unlink handles POST /elements/:id/unlink.
func (h *ElementHandler) Unlink(c *gin.Context) {
	ctx := c.Request.Context()

	prior, err := h.stamper.Unlink(ctx, c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := &dto.LinkMessage{Type: dto.TypeUnlinked, ElementID: c.Param("id"), Link: prior}
	h.notifier.Push(msg)
	h.notifier.PushSelectionState(ctx)
	h.OK(c, msg)
}

// Relink handles POST /elements/:id/relink. Repairs a broken link without
// touching the element text.
func (h *ElementHandler) Relink(c *gin.Context) {
	var req dto.RelinkRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	repaired, err := h.stamper.Relink(ctx, c.Param("id"), req.SequenceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := &dto.LinkMessage{Type: dto.TypeRelinked, ElementID: c.Param("id"), Link: repaired}
	h.notifier.Push(msg)
	h.notifier.PushSelectionState(ctx)
	h.OK(c, msg)
}
