// Package hcldoc adapts HCL (native or JSON syntax) sources into the
// binder's document tree. Top-level attributes and blocks become mapping
// entries; attribute expressions must be static values. Positions inside a
// single expression all report the enclosing expression's range.
package hcldoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/strictconf/internal/document"
)

// Load reads and parses an HCL document file. Files ending in .json parse
// as HCL JSON syntax.
func Load(path string) (*document.Node, error) {
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(path, ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}
	return fromFile(file)
}

// Parse turns HCL source into a document tree. name labels positions and
// selects the syntax by its extension, as Load does.
func Parse(name string, src []byte) (*document.Node, error) {
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(name, ".json") {
		file, diags = parser.ParseJSON(src, name)
	} else {
		file, diags = parser.ParseHCL(src, name)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", name, diags)
	}
	return fromFile(file)
}

func fromFile(file *hcl.File) (*document.Node, error) {
	if body, ok := file.Body.(*hclsyntax.Body); ok {
		return fromSyntaxBody(body)
	}
	return fromJustAttributes(file.Body)
}

// entry orders mapping members by their position in the source.
type entry struct {
	key  string
	node *document.Node
	byte int
}

// fromSyntaxBody converts a native-syntax body: attributes become leaf or
// composite entries, blocks become nested mappings under their type name.
func fromSyntaxBody(body *hclsyntax.Body) (*document.Node, error) {
	pos := document.Position{
		Source: body.SrcRange.Filename,
		Line:   body.SrcRange.Start.Line,
		Column: body.SrcRange.Start.Column,
	}

	entries := make([]entry, 0, len(body.Attributes)+len(body.Blocks))

	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluate %s at %s: %w", name, attr.SrcRange, diags)
		}
		node, err := ctyToNode(val, attr.Expr.Range())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: name, node: node, byte: attr.SrcRange.Start.Byte})
	}

	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			return nil, fmt.Errorf("%s: labeled blocks are not supported in configuration documents", block.TypeRange)
		}
		node, err := fromSyntaxBody(block.Body)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: block.Type, node: node, byte: block.TypeRange.Start.Byte})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].byte < entries[j].byte })

	m := document.NewMapping(pos)
	for _, e := range entries {
		if err := m.Put(e.key, e.node); err != nil {
			return nil, fmt.Errorf("%s: %w", pos, err)
		}
	}
	return m, nil
}

// fromJustAttributes converts a JSON-syntax body, where nested objects
// arrive as cty object values under each top-level attribute.
func fromJustAttributes(body hcl.Body) (*document.Node, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("read attributes: %w", diags)
	}

	entries := make([]entry, 0, len(attrs))
	var pos document.Position
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("evaluate %s at %s: %w", name, attr.Range, valDiags)
		}
		node, err := ctyToNode(val, attr.Expr.Range())
		if err != nil {
			return nil, err
		}
		if pos.Source == "" {
			pos = document.Position{Source: attr.Range.Filename, Line: 1, Column: 1}
		}
		entries = append(entries, entry{key: name, node: node, byte: attr.Range.Start.Byte})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].byte < entries[j].byte })

	m := document.NewMapping(pos)
	for _, e := range entries {
		if err := m.Put(e.key, e.node); err != nil {
			return nil, fmt.Errorf("%s: %w", pos, err)
		}
	}
	return m, nil
}

// ctyToNode converts a static cty value into document nodes. Objects and
// maps become mappings (cty iterates keys in sorted order), tuples and
// lists become sequences, primitives become scalar text.
func ctyToNode(val cty.Value, rng hcl.Range) (*document.Node, error) {
	pos := document.Position{Source: rng.Filename, Line: rng.Start.Line, Column: rng.Start.Column}

	if val.IsNull() {
		return document.NewScalar(pos, "", false), nil
	}

	ty := val.Type()
	switch {
	case ty.IsObjectType() || ty.IsMapType():
		m := document.NewMapping(pos)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			child, err := ctyToNode(v, rng)
			if err != nil {
				return nil, err
			}
			if err := m.Put(k.AsString(), child); err != nil {
				return nil, fmt.Errorf("%s: %w", pos, err)
			}
		}
		return m, nil

	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		s := document.NewSequence(pos)
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			child, err := ctyToNode(v, rng)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil

	case ty == cty.String:
		return document.NewScalar(pos, val.AsString(), true), nil

	case ty == cty.Number:
		return document.NewScalar(pos, val.AsBigFloat().Text('f', -1), false), nil

	case ty == cty.Bool:
		if val.True() {
			return document.NewScalar(pos, "true", false), nil
		}
		return document.NewScalar(pos, "false", false), nil

	default:
		return nil, fmt.Errorf("%s: unsupported value type %s", pos, ty.FriendlyName())
	}
}
