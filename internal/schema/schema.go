package schema

import (
	"reflect"
	"time"
)

// TypeTag classifies how a field binds.
type TypeTag int

const (
	// TagScalar binds from a single scalar node.
	TagScalar TypeTag = iota
	// TagRecord binds fieldwise from a mapping node.
	TagRecord
	// TagSequence binds from a sequence node (or, with a key attribute,
	// from a mapping of named elements).
	TagSequence
	// TagDuration binds the dual-form time.Duration composite.
	TagDuration
	// TagOpt binds an optional.Opt wrapper, recording explicit presence.
	TagOpt
)

// Strategy selects how scalar text becomes a value. Chosen once at schema
// build time, never re-derived per bind.
type Strategy int

const (
	// StrategyNative converts via strconv for the builtin scalar kinds.
	StrategyNative Strategy = iota
	// StrategyConverter applies a registered named converter function.
	StrategyConverter
	// StrategyText calls the type's encoding.TextUnmarshaler.
	StrategyText
	// StrategyRecord means the type is not scalar-expressible and binds
	// fieldwise instead.
	StrategyRecord
)

// ConverterFunc turns raw scalar text into a value assignable to the field.
type ConverterFunc func(text string) (any, error)

// Defaulter lets a record type declare non-zero defaults. SetDefaults is
// invoked once on a fresh instance at schema build time; the resulting field
// values become the per-field defaults.
type Defaulter interface {
	SetDefaults()
}

// Validator is the optional post-construction hook a record type may
// declare. It must be side-effect-free except for reporting failure.
type Validator interface {
	Validate() error
}

// FieldDescriptor is one field's binding metadata within a Schema.
type FieldDescriptor struct {
	Name       string // Go field name
	SourceName string // document key
	Index      int    // struct field index
	Type       reflect.Type

	Tag      TypeTag
	Strategy Strategy

	Optional bool
	Default  reflect.Value

	Converter     ConverterFunc
	ConverterName string

	// KeyAttribute, when non-empty, names the element field that receives
	// the document key in the named-mapping-to-array transform.
	KeyAttribute string

	// Elem describes the element type of a sequence field or the wrapped
	// type of an Opt field.
	Elem         reflect.Type
	ElemTag      TypeTag
	ElemStrategy Strategy

	// DurationUnit is the unit implied by the source name's suffix for the
	// scalar duration form; empty means the field takes the mapping form.
	DurationUnit string
}

// Schema is the ordered, immutable field description for a record type.
type Schema struct {
	Type   reflect.Type
	Fields []*FieldDescriptor

	// Gate is the "enabled"/"disabled" field when the record is gated.
	// GateInverted is true for "disabled" (true means the section is off).
	Gate         *FieldDescriptor
	GateInverted bool

	bySource map[string]*FieldDescriptor
}

// Lookup finds a descriptor by document key.
func (s *Schema) Lookup(sourceName string) (*FieldDescriptor, bool) {
	fd, ok := s.bySource[sourceName]
	return fd, ok
}

// SourceNames returns all document keys in schema declaration order, as
// listed by unknown-key diagnostics.
func (s *Schema) SourceNames() []string {
	names := make([]string, len(s.Fields))
	for i, fd := range s.Fields {
		names[i] = fd.SourceName
	}
	return names
}

// durationType is the one Go type the duration binder recognizes.
var durationType = reflect.TypeOf(time.Duration(0))

// Unit is one duration unit accepted by both duration forms.
type Unit struct {
	Name string
	Dur  time.Duration
}

// Units lists the accepted duration units, coarsest first. The order is part
// of the error-message contract.
var Units = []Unit{
	{"weeks", 7 * 24 * time.Hour},
	{"days", 24 * time.Hour},
	{"hours", time.Hour},
	{"minutes", time.Minute},
	{"seconds", time.Second},
	{"milliseconds", time.Millisecond},
	{"microseconds", time.Microsecond},
	{"nanoseconds", time.Nanosecond},
}

// UnitNames returns the unit names in canonical order.
func UnitNames() []string {
	names := make([]string, len(Units))
	for i, u := range Units {
		names[i] = u.Name
	}
	return names
}

// UnitFor resolves a unit name to its duration, with ok=false for unknown names.
func UnitFor(name string) (time.Duration, bool) {
	for _, u := range Units {
		if u.Name == name {
			return u.Dur, true
		}
	}
	return 0, false
}
