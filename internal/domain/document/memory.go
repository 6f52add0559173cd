package document

import (
	"context"
	"errors"
	"sync"

	"sequor/internal/core/id"
)

// MemoryTree is the in-process document model. The API layer mutates it on
// behalf of the host UI; tests build fixtures on it directly.
type MemoryTree struct {
	mu        sync.RWMutex
	root      *MemoryContainer
	selection []string
}

// NewMemoryTree creates a tree with an empty page root.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{
		root: &MemoryContainer{
			memoryNode: memoryNode{id: id.NewString(), nodeType: TypePage},
		},
	}
}

// Root implements Tree.
func (t *MemoryTree) Root() Node {
	return t.root
}

// NodeByID implements Tree.
func (t *MemoryTree) NodeByID(nodeID string) (Node, bool) {
	var found Node
	Walk(t.root, func(n Node) bool {
		if n.ID() == nodeID {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Selection implements Tree.
func (t *MemoryTree) Selection() []Node {
	t.mu.RLock()
	ids := make([]string, len(t.selection))
	copy(ids, t.selection)
	t.mu.RUnlock()

	nodes := make([]Node, 0, len(ids))
	for _, nodeID := range ids {
		if n, ok := t.NodeByID(nodeID); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// SetSelection replaces the selection with the given node ids. Unresolvable
// ids are dropped silently, matching a host that prunes deleted elements.
func (t *MemoryTree) SetSelection(nodeIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection = append([]string(nil), nodeIDs...)
}

// AddText creates a text leaf under parent (page root when parentID is "").
func (t *MemoryTree) AddText(parentID, text string) (*MemoryText, error) {
	parent, err := t.container(parentID)
	if err != nil {
		return nil, err
	}
	node := &MemoryText{
		memoryNode: memoryNode{id: id.NewString(), nodeType: TypeText},
		characters: text,
		font:       DefaultFont,
	}
	parent.children = append(parent.children, node)
	return node, nil
}

// AddContainer creates a frame under parent (page root when parentID is "").
func (t *MemoryTree) AddContainer(parentID string, nodeType NodeType) (*MemoryContainer, error) {
	parent, err := t.container(parentID)
	if err != nil {
		return nil, err
	}
	if nodeType == "" {
		nodeType = TypeFrame
	}
	node := &MemoryContainer{
		memoryNode: memoryNode{id: id.NewString(), nodeType: nodeType},
	}
	parent.children = append(parent.children, node)
	return node, nil
}

// Duplicate clones a text node, metadata included, under the same parent.
// This mirrors host copy/paste, which copies plugin data verbatim.
func (t *MemoryTree) Duplicate(nodeID string) (*MemoryText, error) {
	node, ok := t.NodeByID(nodeID)
	if !ok {
		return nil, errors.New("document: node not found")
	}
	text, ok := node.(*MemoryText)
	if !ok {
		return nil, errors.New("document: only text nodes can be duplicated")
	}

	clone := &MemoryText{
		memoryNode: memoryNode{
			id:       id.NewString(),
			nodeType: TypeText,
			data:     text.copyData(),
		},
		characters: text.Characters(),
		font:       text.font,
	}

	parent := t.parentOf(nodeID)
	if parent == nil {
		parent = t.root
	}
	parent.children = append(parent.children, clone)
	return clone, nil
}

func (t *MemoryTree) container(parentID string) (*MemoryContainer, error) {
	if parentID == "" {
		return t.root, nil
	}
	node, ok := t.NodeByID(parentID)
	if !ok {
		return nil, errors.New("document: parent not found")
	}
	container, ok := node.(*MemoryContainer)
	if !ok {
		return nil, errors.New("document: parent is not a container")
	}
	return container, nil
}

func (t *MemoryTree) parentOf(nodeID string) *MemoryContainer {
	var parent *MemoryContainer
	var find func(c *MemoryContainer) bool
	find = func(c *MemoryContainer) bool {
		for _, child := range c.children {
			if child.ID() == nodeID {
				parent = c
				return true
			}
			if sub, ok := child.(*MemoryContainer); ok && find(sub) {
				return true
			}
		}
		return false
	}
	find(t.root)
	return parent
}

// --- nodes ---

type memoryNode struct {
	id       string
	nodeType NodeType

	mu   sync.RWMutex
	data map[string]string
}

func (n *memoryNode) ID() string {
	return n.id
}

func (n *memoryNode) Type() NodeType {
	return n.nodeType
}

func (n *memoryNode) PluginData(key string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.data[key]
}

func (n *memoryNode) SetPluginData(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.data == nil {
		n.data = make(map[string]string)
	}
	n.data[key] = value
}

func (n *memoryNode) copyData() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.data == nil {
		return nil
	}
	clone := make(map[string]string, len(n.data))
	for k, v := range n.data {
		clone[k] = v
	}
	return clone
}

// MemoryText is the in-memory text leaf.
type MemoryText struct {
	memoryNode
	characters string
	font       FontRef
	fontErr    error

	// SetCharactersErr, when set, makes the next SetCharacters fail.
	// Used to exercise write-failure paths.
	SetCharactersErr error
}

// Characters implements TextNode.
func (n *MemoryText) Characters() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.characters
}

// SetCharacters implements TextNode.
func (n *MemoryText) SetCharacters(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.SetCharactersErr != nil {
		return n.SetCharactersErr
	}
	n.characters = text
	return nil
}

// Font implements TextNode.
func (n *MemoryText) Font() (FontRef, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.fontErr != nil {
		return FontRef{}, n.fontErr
	}
	return n.font, nil
}

// SetFont assigns the typeface; err simulates a mixed-run node whose
// typeface cannot be read.
func (n *MemoryText) SetFont(font FontRef, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.font = font
	n.fontErr = err
}

// MemoryContainer is the in-memory container node.
type MemoryContainer struct {
	memoryNode
	children []Node
}

// Children implements ContainerNode.
func (n *MemoryContainer) Children() []Node {
	return append([]Node(nil), n.children...)
}

// --- fonts ---

// NoopFontLoader treats every typeface as ready. The in-memory tree needs
// no real font resolution.
type NoopFontLoader struct{}

// EnsureFont implements FontLoader.
func (NoopFontLoader) EnsureFont(context.Context, FontRef) error {
	return nil
}
