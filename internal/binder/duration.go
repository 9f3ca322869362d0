package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/schema"
	"github.com/vk/strictconf/optional"
)

// durationParts is the synthetic record the mapping form binds against.
// Each part is explicitly-set-tracked so absent units contribute zero
// without being mistaken for a supplied zero.
type durationParts struct {
	Weeks        optional.Opt[int64] `conf:"weeks"`
	Days         optional.Opt[int64] `conf:"days"`
	Hours        optional.Opt[int64] `conf:"hours"`
	Minutes      optional.Opt[int64] `conf:"minutes"`
	Seconds      optional.Opt[int64] `conf:"seconds"`
	Milliseconds optional.Opt[int64] `conf:"milliseconds"`
	Microseconds optional.Opt[int64] `conf:"microseconds"`
	Nanoseconds  optional.Opt[int64] `conf:"nanoseconds"`
}

// total sums the explicitly set parts; any reports whether at least one
// part was set.
func (p *durationParts) total() (sum time.Duration, any bool) {
	add := func(o optional.Opt[int64], unit time.Duration) {
		if o.Set {
			sum += time.Duration(o.Value) * unit
			any = true
		}
	}
	add(p.Weeks, 7*24*time.Hour)
	add(p.Days, 24*time.Hour)
	add(p.Hours, time.Hour)
	add(p.Minutes, time.Minute)
	add(p.Seconds, time.Second)
	add(p.Milliseconds, time.Millisecond)
	add(p.Microseconds, time.Microsecond)
	add(p.Nanoseconds, time.Nanosecond)
	return sum, any
}

// bindDuration binds the dual-form duration composite. unit is non-empty for
// fields whose source name carries a unit suffix; such fields take only the
// scalar form, all others take only the mapping form. The two forms never
// overlap, so ambiguous input cannot bind silently.
func (b *binder) bindDuration(node *document.Node, dst reflect.Value, path pathkey.Path, unit string, isOptional bool, def reflect.Value) error {
	site := diag.Site{Path: path.String(), Pos: node.Pos()}

	if unit != "" {
		if node.Kind() != document.KindScalar {
			return &diag.TypeMismatchError{
				Site:     site,
				Expected: document.KindScalar,
				Actual:   node.Kind(),
			}
		}
		count, err := strconv.ParseInt(node.Text(), 10, 64)
		if err != nil {
			return &diag.ConstructionError{
				Site:  site,
				Cause: fmt.Errorf("%q is not a whole number of %s", node.Text(), unit),
			}
		}
		ud, _ := schema.UnitFor(unit)
		dst.SetInt(count * int64(ud))
		return nil
	}

	switch node.Kind() {
	case document.KindMapping:
		var parts durationParts
		sch, err := schema.For(reflect.TypeOf(parts))
		if err != nil {
			return err
		}
		if err := b.bindMapping(node, reflect.ValueOf(&parts).Elem(), sch, path, nil, ""); err != nil {
			return err
		}
		sum, any := parts.total()
		if !any {
			if isOptional {
				dst.Set(def)
				return nil
			}
			return &diag.DurationShapeError{
				Site:   site,
				Units:  schema.UnitNames(),
				Reason: "expected at least one duration unit to be set",
			}
		}
		dst.SetInt(int64(sum))
		return nil

	case document.KindScalar:
		return &diag.DurationShapeError{
			Site:   site,
			Units:  schema.UnitNames(),
			Reason: "a scalar duration requires a unit-suffixed key",
		}

	default:
		return &diag.DurationShapeError{Site: site, Units: schema.UnitNames()}
	}
}
