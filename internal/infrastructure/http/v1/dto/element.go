package dto

import (
	"sequor/internal/domain/document"
	"sequor/internal/domain/link"
)

// --- Request DTOs ---

// StampRequest is the stamp / link-and-stamp message payload.
type StampRequest struct {
	SequenceID string `json:"sequenceId" binding:"required"`
}

// RelinkRequest is the relink message payload.
type RelinkRequest struct {
	SequenceID string `json:"sequenceId" binding:"required"`
}

// CreateElementRequest scaffolds a node in the document tree.
type CreateElementRequest struct {
	Kind     string `json:"kind" binding:"required"` // text or container
	ParentID string `json:"parentId"`
	Text     string `json:"text"`
}

// DuplicateElementRequest clones a text element, metadata included.
type DuplicateElementRequest struct {
	ElementID string `json:"elementId" binding:"required"`
}

// SelectionRequest is the host's selection-change notification.
type SelectionRequest struct {
	ElementIDs []string `json:"elementIds"`
}

// --- Response DTOs ---

// ElementResponse is the wire shape of a document element.
type ElementResponse struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Text string     `json:"text,omitempty"`
	Link *link.Link `json:"link,omitempty"`
}

// FromElement creates response DTO from a node plus its link.
func FromElement(node document.Node, l *link.Link) *ElementResponse {
	resp := &ElementResponse{
		ID:   node.ID(),
		Type: string(node.Type()),
		Link: l,
	}
	if text, ok := node.(document.TextNode); ok {
		resp.Text = text.Characters()
	}
	return resp
}
