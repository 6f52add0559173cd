// Package document defines the contracts for the mutable document element
// tree the stamping engine operates on: typed nodes, per-element plugin
// metadata, the selection, and typeface readiness. The host environment is
// one implementation; the in-memory tree in this package is another.
package document

import "context"

// NodeType tags the kind of a document element.
type NodeType string

const (
	TypePage  NodeType = "page"
	TypeFrame NodeType = "frame"
	TypeGroup NodeType = "group"
	TypeText  NodeType = "text"
	TypeShape NodeType = "shape"
)

// Node is any element of the document tree. Every node carries per-element
// plugin metadata, independent from document content.
type Node interface {
	ID() string
	Type() NodeType

	// PluginData reads per-element metadata. Absent keys read as "".
	PluginData(key string) string

	// SetPluginData writes per-element metadata. Setting "" is the
	// cleared-state sentinel, equivalent to removal.
	SetPluginData(key, value string)
}

// TextNode is a text leaf with readable/writable character content and a
// typeface reference.
type TextNode interface {
	Node

	Characters() string

	// SetCharacters replaces the text content. The caller must have
	// ensured the node's typeface is loaded first.
	SetCharacters(ctx context.Context, text string) error

	// Font returns the node's typeface. It fails when the typeface cannot
	// be determined, e.g. mixed runs.
	Font() (FontRef, error)
}

// ContainerNode is an element with an ordered list of children.
type ContainerNode interface {
	Node
	Children() []Node
}

// Tree is the current page's element tree plus the user's selection.
type Tree interface {
	// Root returns the page root.
	Root() Node

	// NodeByID resolves a node anywhere under the root.
	NodeByID(id string) (Node, bool)

	// Selection returns the currently selected nodes, possibly empty.
	Selection() []Node
}

// FontRef identifies a typeface by family and style.
type FontRef struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// DefaultFont is the fallback typeface used when an element's typeface
// cannot be determined.
var DefaultFont = FontRef{Family: "Inter", Style: "Regular"}

// FontLoader makes a typeface ready for text mutation. Loading is the only
// asynchronous wait in the whole message flow.
type FontLoader interface {
	EnsureFont(ctx context.Context, font FontRef) error
}

// Walk visits node and every descendant depth-first in child order.
// The visit function returning false stops the walk.
func Walk(node Node, visit func(Node) bool) bool {
	if node == nil {
		return true
	}
	if !visit(node) {
		return false
	}
	if container, ok := node.(ContainerNode); ok {
		for _, child := range container.Children() {
			if !Walk(child, visit) {
				return false
			}
		}
	}
	return true
}
