package binder

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/strictconf/internal/ctxlog"
	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/schema"
)

// Options configures a single top-level bind call.
type Options struct {
	// Strict rejects unknown document keys and document/override collisions.
	Strict bool
	// Overrides maps dotted field paths to raw string values. For scalar
	// fields the last entry wins; for sequence fields entries are additive.
	Overrides map[string][]string
}

// Bind populates the struct pointed to by out from the document tree rooted
// at root. out's type defines the schema; the first failure aborts the bind
// and is returned as a diag.Diagnostic.
func Bind(ctx context.Context, root *document.Node, out any, opts Options) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("binder: out must be a non-nil pointer to a struct, got %T", out)
	}
	dst := rv.Elem()
	if dst.Kind() != reflect.Struct {
		return fmt.Errorf("binder: out must point to a struct, got %T", out)
	}

	sch, err := schema.For(dst.Type())
	if err != nil {
		return err
	}

	b := &binder{ctx: ctx, strict: opts.Strict, overrides: opts.Overrides}
	return b.bindMapping(root, dst, sch, pathkey.Root(), nil, "")
}

// binder threads the read-only per-call state through the recursion.
type binder struct {
	ctx       context.Context
	strict    bool
	overrides map[string][]string
}

// bindMapping is the core algorithm: bind one mapping node to one record.
// injected carries pre-resolved values keyed by source name (the named-array
// transform uses it to supply the key attribute); injectedBy names that
// supplier for duplicate diagnostics.
func (b *binder) bindMapping(node *document.Node, dst reflect.Value, sch *schema.Schema, path pathkey.Path, injected map[string]*document.Node, injectedBy string) error {
	if node.Kind() != document.KindMapping {
		return &diag.TypeMismatchError{
			Site:     diag.Site{Path: path.String(), Pos: node.Pos()},
			Expected: document.KindMapping,
			Actual:   node.Kind(),
		}
	}

	// Strict-key check: every document key must match a schema source name.
	for _, key := range node.Keys() {
		if _, ok := sch.Lookup(key); ok {
			continue
		}
		child, _ := node.Get(key)
		if b.strict {
			known := sch.SourceNames()
			return &diag.UnknownKeyError{
				Site:       diag.Site{Path: path.String(), Key: key, Pos: child.Pos()},
				Known:      known,
				Suggestion: diag.Suggest(key, known),
			}
		}
		ctxlog.FromContext(b.ctx).Warn("ignoring unknown key",
			"path", path.String(), "key", key, "pos", child.Pos().String())
	}

	// Enable gating, computed once before any field is bound.
	gateOpen := true
	var gateValue bool
	if sch.Gate != nil {
		if gateNode, ok := node.Get(sch.Gate.SourceName); ok {
			tmp := reflect.New(sch.Gate.Type).Elem()
			if err := b.bindField(sch.Gate, gateNode, tmp, path.Child(sch.Gate.SourceName)); err != nil {
				return err
			}
			gateValue = tmp.Bool()
		} else {
			gateValue = sch.Gate.Default.Bool()
		}
		gateOpen = gateValue != sch.GateInverted
	}

	for _, fd := range sch.Fields {
		fv := dst.Field(fd.Index)
		fieldPath := path.Child(fd.SourceName)

		// The gate was resolved before the loop, from the document or its
		// default only. It never binds from the override table: a section
		// cannot change state after its fields were decided.
		if fd == sch.Gate {
			fv.SetBool(gateValue)
			continue
		}

		// A disabled mapping binds nothing from the document: every field
		// gets its default.
		if !gateOpen {
			fv.Set(cloneDefault(fd.Default))
			continue
		}

		if inj, ok := injected[fd.SourceName]; ok {
			if docNode, inDoc := node.Get(fd.SourceName); inDoc && b.strict {
				return &diag.DuplicateKeyError{
					Site:   diag.Site{Path: path.String(), Key: fd.SourceName, Pos: docNode.Pos()},
					Source: injectedBy,
				}
			}
			if err := b.bindField(fd, inj, fv, fieldPath); err != nil {
				return err
			}
			continue
		}

		if ovNode, ok := b.overrideNode(fd, fieldPath); ok {
			// Non-strict mode lets the override win silently.
			if docNode, inDoc := node.Get(fd.SourceName); inDoc && b.strict {
				return &diag.DuplicateKeyError{
					Site:   diag.Site{Path: path.String(), Key: fd.SourceName, Pos: docNode.Pos()},
					Source: "a command-line override",
				}
			}
			if err := b.bindField(fd, ovNode, fv, fieldPath); err != nil {
				return err
			}
			continue
		}

		if child, ok := node.Get(fd.SourceName); ok {
			if err := b.bindField(fd, child, fv, fieldPath); err != nil {
				return err
			}
			continue
		}

		// Absent from document and overrides. A field with overrides
		// addressed beneath it still gets bound so they take effect; that
		// covers record sections and mapping-form durations, the two kinds
		// whose children are addressable by override paths.
		if b.hasOverrideUnder(fieldPath) &&
			(fd.Tag == schema.TagRecord || (fd.Tag == schema.TagDuration && fd.DurationUnit == "")) {
			if err := b.bindField(fd, document.NewMapping(node.Pos()), fv, fieldPath); err != nil {
				return err
			}
			continue
		}
		if fd.Optional {
			fv.Set(cloneDefault(fd.Default))
			continue
		}
		if fd.Tag == schema.TagRecord {
			// The record may be transitively optional: bind an empty mapping
			// and let a genuinely required leaf below raise MissingKey with
			// its full path.
			if err := b.bindField(fd, document.NewMapping(node.Pos()), fv, fieldPath); err != nil {
				return err
			}
			continue
		}
		return &diag.MissingKeyError{
			Site: diag.Site{Path: path.String(), Key: fd.SourceName, Pos: node.Pos()},
		}
	}

	// Disabled mappings skip validation entirely; nested hooks have already
	// run by this point, so inner fires before outer.
	if gateOpen {
		if v, ok := dst.Addr().Interface().(schema.Validator); ok {
			if err := v.Validate(); err != nil {
				return &diag.ValidationError{
					Site:  diag.Site{Path: path.String(), Pos: node.Pos()},
					Cause: err,
				}
			}
		}
	}
	return nil
}

// bindField dispatches one resolved node to the binder matching the field's
// type tag.
func (b *binder) bindField(fd *schema.FieldDescriptor, node *document.Node, dst reflect.Value, path pathkey.Path) error {
	switch fd.Tag {
	case schema.TagRecord:
		return b.bindRecord(node, dst, path)
	case schema.TagSequence:
		return b.bindSequence(fd, node, dst, path)
	case schema.TagDuration:
		return b.bindDuration(node, dst, path, fd.DurationUnit, fd.Optional, fd.Default)
	case schema.TagOpt:
		return b.bindOpt(fd, node, dst, path)
	default:
		return b.bindLeaf(node, dst, fd.Strategy, fd.Converter, path)
	}
}

// bindRecord recurses into a nested record, allocating pointer fields.
func (b *binder) bindRecord(node *document.Node, dst reflect.Value, path pathkey.Path) error {
	if dst.Kind() == reflect.Pointer {
		inner := reflect.New(dst.Type().Elem())
		if err := b.bindRecord(node, inner.Elem(), path); err != nil {
			return err
		}
		dst.Set(inner)
		return nil
	}

	sch, err := schema.For(dst.Type())
	if err != nil {
		return err
	}
	return b.bindMapping(node, dst, sch, path, nil, "")
}

// cloneDefault copies a default value deeply enough that records bound from
// the same schema never share backing storage: slices are reallocated,
// pointers re-pointed, and struct fields visited recursively. Scalars come
// back as-is.
func cloneDefault(def reflect.Value) reflect.Value {
	switch def.Kind() {
	case reflect.Slice:
		if def.IsNil() {
			return def
		}
		cp := reflect.MakeSlice(def.Type(), def.Len(), def.Len())
		for i := 0; i < def.Len(); i++ {
			cp.Index(i).Set(cloneDefault(def.Index(i)))
		}
		return cp

	case reflect.Pointer:
		if def.IsNil() {
			return def
		}
		cp := reflect.New(def.Type().Elem())
		cp.Elem().Set(cloneDefault(def.Elem()))
		return cp

	case reflect.Struct:
		cp := reflect.New(def.Type()).Elem()
		cp.Set(def)
		for i := 0; i < cp.NumField(); i++ {
			f := cp.Field(i)
			if !f.CanSet() {
				continue
			}
			switch f.Kind() {
			case reflect.Slice, reflect.Pointer, reflect.Struct:
				f.Set(cloneDefault(f))
			}
		}
		return cp

	default:
		return def
	}
}

// bindOpt binds the wrapped value and raises the explicit-set flag. The flag
// goes up whenever a value was supplied, regardless of whether it equals the
// default.
func (b *binder) bindOpt(fd *schema.FieldDescriptor, node *document.Node, dst reflect.Value, path pathkey.Path) error {
	elemVal := reflect.New(fd.Elem).Elem()

	var err error
	switch fd.ElemTag {
	case schema.TagRecord:
		err = b.bindRecord(node, elemVal, path)
	case schema.TagDuration:
		err = b.bindDuration(node, elemVal, path, fd.DurationUnit, true, reflect.Zero(fd.Elem))
	default:
		err = b.bindLeaf(node, elemVal, fd.ElemStrategy, fd.Converter, path)
	}
	if err != nil {
		return err
	}

	dst.FieldByName("Value").Set(elemVal)
	dst.FieldByName("Set").SetBool(true)
	return nil
}
