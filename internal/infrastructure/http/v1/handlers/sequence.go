package handlers

import (
	"github.com/gin-gonic/gin"

	"sequor/internal/domain/sequence"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/http/v1/dto"
)

// SequenceHandler serves sequence lifecycle messages.
type SequenceHandler struct {
	*BaseHandler
	store    *sequence.Store
	stamper  *stamping.Service
	notifier *Notifier
}

// NewSequenceHandler creates a sequence handler.
func NewSequenceHandler(store *sequence.Store, stamper *stamping.Service, notifier *Notifier) *SequenceHandler {
	return &SequenceHandler{
		BaseHandler: NewBaseHandler(),
		store:       store,
		stamper:     stamper,
		notifier:    notifier,
	}
}

// List handles GET /sequences. The response doubles as the init payload a
// freshly attached client needs: full collection plus the selected id.
func (h *SequenceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	seqs, err := h.store.List(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	selected, err := h.store.Selected(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, &dto.InitMessage{
		Type:       dto.TypeInit,
		Sequences:  dto.FromSequences(seqs),
		SelectedID: selected,
	})
}

// GetByID handles GET /sequences/:id.
func (h *SequenceHandler) GetByID(c *gin.Context) {
	seq, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSequence(seq))
}

// Create handles POST /sequences.
func (h *SequenceHandler) Create(c *gin.Context) {
	var req dto.CreateSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	created, err := h.stamper.CreateSequence(ctx, req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := &dto.SequenceMessage{Type: dto.TypeSequenceCreated, Sequence: dto.FromSequence(created)}
	h.notifier.Push(msg)
	h.Created(c, msg)
}

// Update handles PATCH /sequences/:id (rename, prefix, policy rule).
func (h *SequenceHandler) Update(c *gin.Context) {
	var req dto.UpdateSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	updated, err := h.stamper.UpdateSequenceMeta(ctx, c.Param("id"), req.Name, req.Prefix, req.PolicyRule)
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := &dto.SequenceMessage{Type: dto.TypeSequenceUpdated, Sequence: dto.FromSequence(updated)}
	h.notifier.Push(msg)
	h.notifier.PushSelectionState(ctx)
	h.OK(c, msg)
}

// Delete handles DELETE /sequences/:id. The compliance guard may refuse.
func (h *SequenceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	sequenceID := c.Param("id")

	if err := h.stamper.DeleteSequence(ctx, sequenceID); err != nil {
		h.Error(c, err)
		return
	}

	h.notifier.Push(&dto.SequenceMessage{Type: dto.TypeSequenceDeleted, ID: sequenceID})
	h.notifier.PushSelectionState(ctx)
	h.NoContent(c)
}

// Reset handles POST /sequences/:id/reset.
func (h *SequenceHandler) Reset(c *gin.Context) {
	var req dto.ResetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	updated, err := h.stamper.Reset(ctx, c.Param("id"), req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}

	msg := &dto.ResetMessage{Type: dto.TypeResetDone, Sequence: dto.FromSequence(updated)}
	h.notifier.Push(msg)
	h.OK(c, msg)
}

// Select handles PUT /sequences/selected. An empty id clears the selection.
func (h *SequenceHandler) Select(c *gin.Context) {
	var req dto.SelectSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if err := h.store.SetSelected(ctx, req.SequenceID); err != nil {
		h.Error(c, err)
		return
	}

	h.notifier.Push(&dto.SequenceMessage{Type: dto.TypeSequenceSelected, ID: req.SequenceID})
	h.OK(c, dto.SuccessResponse{Success: true})
}

// GetSelected handles GET /sequences/selected.
func (h *SequenceHandler) GetSelected(c *gin.Context) {
	ctx := c.Request.Context()

	selected, err := h.store.Selected(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	if selected == "" {
		h.OK(c, &dto.SequenceMessage{Type: dto.TypeSequenceSelected})
		return
	}
	seq, err := h.store.Get(ctx, selected)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, &dto.SequenceMessage{Type: dto.TypeSequenceSelected, ID: selected, Sequence: dto.FromSequence(seq)})
}
