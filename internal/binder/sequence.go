package binder

import (
	"fmt"
	"reflect"

	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/schema"
)

// bindSequence binds an array field. Fields declaring a key attribute take
// the named-mapping form; all others take the ordinary sequence form with
// document order preserved.
func (b *binder) bindSequence(fd *schema.FieldDescriptor, node *document.Node, dst reflect.Value, path pathkey.Path) error {
	if fd.KeyAttribute != "" {
		return b.bindKeyedSequence(fd, node, dst, path)
	}

	if node.Kind() != document.KindSequence {
		return &diag.TypeMismatchError{
			Site:     diag.Site{Path: path.String(), Pos: node.Pos()},
			Expected: document.KindSequence,
			Actual:   node.Kind(),
		}
	}

	items := node.Items()
	out := reflect.MakeSlice(fd.Type, len(items), len(items))
	for i, item := range items {
		if err := b.bindElem(fd, item, out.Index(i), path.Elem(i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

// bindElem binds one sequence element according to the element
// classification fixed at schema build time.
func (b *binder) bindElem(fd *schema.FieldDescriptor, node *document.Node, dst reflect.Value, path pathkey.Path) error {
	switch fd.ElemTag {
	case schema.TagRecord:
		return b.bindRecord(node, dst, path)
	case schema.TagDuration:
		return b.bindDuration(node, dst, path, fd.DurationUnit, false, reflect.Zero(fd.Elem))
	default:
		return b.bindLeaf(node, dst, fd.ElemStrategy, fd.Converter, path)
	}
}

// bindKeyedSequence implements the named-mapping-to-array transform: each
// document key becomes one element's key-attribute field, injected into the
// element's mapping bind, and the corresponding value mapping supplies the
// remaining fields. Element order is the document's key order.
func (b *binder) bindKeyedSequence(fd *schema.FieldDescriptor, node *document.Node, dst reflect.Value, path pathkey.Path) error {
	if node.Kind() != document.KindMapping {
		return &diag.TypeMismatchError{
			Site:     diag.Site{Path: path.String(), Pos: node.Pos()},
			Expected: document.KindMapping,
			Actual:   node.Kind(),
		}
	}

	elemType := fd.Elem
	isPtr := elemType.Kind() == reflect.Pointer
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}

	elemSchema, err := schema.For(structType)
	if err != nil {
		return err
	}
	if _, ok := elemSchema.Lookup(fd.KeyAttribute); !ok {
		return fmt.Errorf("schema for %s: key attribute %q is not a field of %s", fd.Type, fd.KeyAttribute, structType)
	}

	out := reflect.MakeSlice(fd.Type, 0, node.Len())
	for i, key := range node.Keys() {
		valNode, _ := node.Get(key)
		elemPath := path.Elem(i)

		injected := map[string]*document.Node{
			fd.KeyAttribute: document.NewScalar(valNode.Pos(), key, true),
		}

		ev := reflect.New(structType).Elem()
		if err := b.bindMapping(valNode, ev, elemSchema, elemPath, injected, "the element name"); err != nil {
			return err
		}

		if isPtr {
			p := reflect.New(structType)
			p.Elem().Set(ev)
			out = reflect.Append(out, p)
		} else {
			out = reflect.Append(out, ev)
		}
	}
	dst.Set(out)
	return nil
}
