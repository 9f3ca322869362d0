// Package yamldoc adapts YAML sources into the binder's document tree,
// preserving line/column positions, key order, and scalar quoting. JSON
// documents load through the same path since YAML is a superset.
package yamldoc

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/strictconf/internal/document"
)

// Load reads and parses a document file.
func Load(path string) (*document.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse turns YAML source into a document tree. name labels positions in
// diagnostics. An empty document yields an empty mapping.
func Parse(name string, src []byte) (*document.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	if root.Kind == 0 || len(root.Content) == 0 {
		return document.NewMapping(document.Position{Source: name, Line: 1, Column: 1}), nil
	}
	return convert(name, root.Content[0])
}

func convert(name string, n *yaml.Node) (*document.Node, error) {
	pos := document.Position{Source: name, Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.MappingNode:
		m := document.NewMapping(pos)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			child, err := convert(name, valNode)
			if err != nil {
				return nil, err
			}
			if err := m.Put(keyNode.Value, child); err != nil {
				return nil, fmt.Errorf("%s:%d:%d: %w", name, keyNode.Line, keyNode.Column, err)
			}
		}
		return m, nil

	case yaml.SequenceNode:
		s := document.NewSequence(pos)
		for _, item := range n.Content {
			child, err := convert(name, item)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil

	case yaml.ScalarNode:
		quoted := n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0
		text := n.Value
		// An untagged empty value (`key:`) is a YAML null; it surfaces as an
		// empty scalar and lets the field's own conversion decide.
		return document.NewScalar(pos, text, quoted), nil

	case yaml.AliasNode:
		// Aliases resolve through their anchor; positions point at the
		// anchored value, which is where a bad value actually lives.
		return convert(name, n.Alias)

	default:
		return nil, fmt.Errorf("%s:%d:%d: unsupported YAML node kind %d", name, n.Line, n.Column, n.Kind)
	}
}
