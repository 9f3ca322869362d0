package pathkey

import (
	"fmt"
	"strings"
)

// Segment is a single component of a path, e.g. `name` or `name[1]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// HasIndex returns true if the segment carries an explicit sequence index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Path is the structured representation of a dotted field path. The zero
// value is the root path. Paths are immutable; Child and Elem return copies.
type Path struct {
	segs []Segment
}

// Root returns the empty path identifying the top-level mapping.
func Root() Path {
	return Path{}
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool {
	return len(p.segs) == 0
}

// Child returns a new path descending into the named field.
func (p Path) Child(name string) Path {
	segs := make([]Segment, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return Path{segs: append(segs, Segment{Name: name, Index: -1})}
}

// Elem returns a new path addressing element i of the sequence the path
// currently identifies. Calling Elem on the root path is a programmer error.
func (p Path) Elem(i int) Path {
	if len(p.segs) == 0 {
		panic("pathkey: Elem on root path")
	}
	segs := make([]Segment, len(p.segs))
	copy(segs, p.segs)
	segs[len(segs)-1].Index = i
	return Path{segs: segs}
}

// Segments returns the path's components in order.
func (p Path) Segments() []Segment {
	return p.segs
}

// String serializes the path into its canonical dotted representation.
// The root path renders as the empty string.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p.segs {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(seg.Name)
		if seg.Index != -1 {
			fmt.Fprintf(&sb, "[%d]", seg.Index)
		}
	}
	return sb.String()
}

// Equal checks for deep equality between two paths.
func (p Path) Equal(other Path) bool {
	if len(p.segs) != len(other.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != other.segs[i] {
			return false
		}
	}
	return true
}
