package binder

import (
	"strings"

	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/schema"
)

// overrideSource is the position source synthetic override nodes carry, so
// diagnostics distinguish them from document values.
const overrideSource = "override"

// overrideNode resolves the override entry for a field, synthesizing the
// document node it binds from: a sequence of scalars for array fields
// (entries are additive), the last entry for everything else.
func (b *binder) overrideNode(fd *schema.FieldDescriptor, fieldPath pathkey.Path) (*document.Node, bool) {
	if len(b.overrides) == 0 {
		return nil, false
	}
	vals, ok := b.overrides[fieldPath.String()]
	if !ok || len(vals) == 0 {
		return nil, false
	}

	pos := document.Position{Source: overrideSource}
	if fd.Tag == schema.TagSequence {
		seq := document.NewSequence(pos)
		for _, v := range vals {
			seq.Append(document.NewScalar(pos, v, true))
		}
		return seq, true
	}
	return document.NewScalar(pos, vals[len(vals)-1], true), true
}

// hasOverrideUnder reports whether any override key addresses a field at or
// beneath the given path, which forces an absent record section to bind
// anyway so the override can take effect.
func (b *binder) hasOverrideUnder(fieldPath pathkey.Path) bool {
	if len(b.overrides) == 0 {
		return false
	}
	prefix := fieldPath.String() + "."
	for key := range b.overrides {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
