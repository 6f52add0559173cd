// Package link records which sequence stamped which document element, as
// per-element plugin metadata. The document tree is the source of truth:
// lookups are full-tree scans, never a maintained index, so copy/paste and
// deletions can never leave the registry out of sync. Documents are small;
// the O(tree) cost is accepted.
package link

import (
	"time"

	"sequor/internal/domain/document"
)

// Metadata keys on the element. A cleared link is represented by empty
// strings, not by key removal; both read back as no link.
const (
	dataKeySequenceID   = "sequenceId"
	dataKeyStampedValue = "stampedValue"
	dataKeyStampedAt    = "stampedAt"
)

// Link ties an element to the sequence that stamped it. SequenceID is a
// non-owning reference: deleting the sequence leaves the link in place,
// broken.
type Link struct {
	SequenceID   string    `json:"sequenceId"`
	StampedValue string    `json:"stampedValue"`
	StampedAt    time.Time `json:"stampedAt"`
}

// Registry reads and writes link metadata over a document tree.
type Registry struct {
	tree document.Tree
}

// NewRegistry creates a Registry for the given tree.
func NewRegistry(tree document.Tree) *Registry {
	return &Registry{tree: tree}
}

// Get returns the element's link, or nil when unlinked.
func (r *Registry) Get(node document.Node) *Link {
	sequenceID := node.PluginData(dataKeySequenceID)
	if sequenceID == "" {
		return nil
	}
	l := &Link{
		SequenceID:   sequenceID,
		StampedValue: node.PluginData(dataKeyStampedValue),
	}
	if raw := node.PluginData(dataKeyStampedAt); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			l.StampedAt = t
		}
	}
	return l
}

// Set records a stamp: sequence id, the exact formatted value written into
// the element, and the stamp time.
func (r *Registry) Set(node document.Node, sequenceID, stampedValue string) {
	node.SetPluginData(dataKeySequenceID, sequenceID)
	node.SetPluginData(dataKeyStampedValue, stampedValue)
	node.SetPluginData(dataKeyStampedAt, time.Now().UTC().Format(time.RFC3339Nano))
}

// Clear removes the link. Empty-string sentinel, same semantics as deletion.
func (r *Registry) Clear(node document.Node) {
	node.SetPluginData(dataKeySequenceID, "")
	node.SetPluginData(dataKeyStampedValue, "")
	node.SetPluginData(dataKeyStampedAt, "")
}

// Relink rewrites only the sequence reference, preserving the stamped value
// and timestamp. This repairs a broken link without re-stamping content.
func (r *Registry) Relink(node document.Node, newSequenceID string) {
	node.SetPluginData(dataKeySequenceID, newSequenceID)
}

// FindLinkedElements returns every text element whose link points at
// sequenceID, in depth-first traversal order. Order is not stable across
// tree edits.
func (r *Registry) FindLinkedElements(sequenceID string) []document.TextNode {
	var linked []document.TextNode
	document.Walk(r.tree.Root(), func(n document.Node) bool {
		text, ok := n.(document.TextNode)
		if !ok {
			return true
		}
		if n.PluginData(dataKeySequenceID) == sequenceID {
			linked = append(linked, text)
		}
		return true
	})
	return linked
}

// CountDuplicateStampedValue counts text elements other than excludeID
// whose stamped value equals value exactly. Duplication copies metadata
// verbatim, so this distinguishes a legitimately stamped element from a
// copy without tracking object identity.
func (r *Registry) CountDuplicateStampedValue(value, excludeID string) int {
	if value == "" {
		return 0
	}
	count := 0
	document.Walk(r.tree.Root(), func(n document.Node) bool {
		if _, ok := n.(document.TextNode); !ok {
			return true
		}
		if n.ID() == excludeID {
			return true
		}
		if n.PluginData(dataKeyStampedValue) == value {
			count++
		}
		return true
	})
	return count
}
