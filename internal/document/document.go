package document

import "fmt"

// Kind discriminates the node variants of a document tree.
type Kind int

const (
	// KindInvalid marks a node that carries no usable value.
	KindInvalid Kind = iota
	// KindMapping is a set of unique key -> node pairs in document order.
	KindMapping
	// KindSequence is an ordered list of nodes.
	KindSequence
	// KindScalar is a single literal value, held as text.
	KindScalar
)

// String returns the human-readable name of the kind, as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// Position locates a node in its source document.
type Position struct {
	Source string
	Line   int
	Column int
}

// String renders the position as "source:line:column".
func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
}

// Node is one vertex of a document tree. The zero value is an invalid node.
type Node struct {
	kind   Kind
	pos    Position
	text   string
	quoted bool
	keys   []string
	pairs  map[string]*Node
	items  []*Node
}

// NewScalar creates a scalar node. quoted records whether the source spelled
// the value as an explicit string, which the adapters preserve so that a
// quoted "true" is not confused with a boolean by callers that care.
func NewScalar(pos Position, text string, quoted bool) *Node {
	return &Node{kind: KindScalar, pos: pos, text: text, quoted: quoted}
}

// NewMapping creates an empty mapping node.
func NewMapping(pos Position) *Node {
	return &Node{kind: KindMapping, pos: pos, pairs: make(map[string]*Node)}
}

// NewSequence creates an empty sequence node.
func NewSequence(pos Position) *Node {
	return &Node{kind: KindSequence, pos: pos}
}

// Kind returns the node's variant.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindInvalid
	}
	return n.kind
}

// Pos returns the node's source position.
func (n *Node) Pos() Position {
	if n == nil {
		return Position{}
	}
	return n.pos
}

// Text returns the literal text of a scalar node, and "" for other kinds.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

// Quoted reports whether a scalar node was explicitly quoted in the source.
func (n *Node) Quoted() bool {
	return n != nil && n.quoted
}

// Put appends a key/value pair to a mapping node. Keys must be unique; the
// adapters surface the returned error with the offending position attached.
func (n *Node) Put(key string, value *Node) error {
	if n.kind != KindMapping {
		return fmt.Errorf("cannot add key %q to a %s node", key, n.kind)
	}
	if _, exists := n.pairs[key]; exists {
		return fmt.Errorf("duplicate key %q", key)
	}
	n.keys = append(n.keys, key)
	n.pairs[key] = value
	return nil
}

// Set inserts or replaces a key in a mapping node, keeping the key's
// original position in the order on replacement. Like Append, it assumes
// the node is of the right kind.
func (n *Node) Set(key string, value *Node) {
	if _, exists := n.pairs[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.pairs[key] = value
}

// Get looks up a key in a mapping node.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != KindMapping {
		return nil, false
	}
	v, ok := n.pairs[key]
	return v, ok
}

// Keys returns a mapping node's keys in document order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return n.keys
}

// Append adds an element to a sequence node.
func (n *Node) Append(item *Node) {
	n.items = append(n.items, item)
}

// Items returns a sequence node's elements in document order.
func (n *Node) Items() []*Node {
	if n == nil {
		return nil
	}
	return n.items
}

// Len returns the number of keys of a mapping or elements of a sequence.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	if n.kind == KindMapping {
		return len(n.keys)
	}
	return len(n.items)
}
