package schema

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[reflect.Type]*Schema)
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// optPkgPath identifies the optional.Opt wrapper by package, since reflect
// cannot name a generic type's origin directly.
const optPkgPath = "github.com/vk/strictconf/optional"

// For returns the cached schema for a record type, building it on first use.
// The type must be a struct; pass the element type, not a pointer to it.
func For(t reflect.Type) (*Schema, error) {
	cacheMu.RLock()
	s, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := build(t)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if existing, ok := cache[t]; ok {
		return existing, nil
	}
	cache[t] = s
	return s, nil
}

func build(t reflect.Type) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema for %s: record types must be structs", t)
	}

	// Capture per-field defaults from a fresh instance, applying the type's
	// SetDefaults hook when it declares one.
	inst := reflect.New(t)
	if d, ok := inst.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	defaults := inst.Elem()

	s := &Schema{
		Type:     t,
		bySource: make(map[string]*FieldDescriptor),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, err := parseTag(field.Tag.Get("conf"))
		if err != nil {
			return nil, fmt.Errorf("schema for %s: field %s: %w", t, field.Name, err)
		}
		if tag.skip {
			continue
		}

		fd := &FieldDescriptor{
			Name:          field.Name,
			SourceName:    tag.name,
			Index:         i,
			Type:          field.Type,
			ConverterName: tag.converter,
			KeyAttribute:  tag.keyAttr,
			Default:       defaults.Field(i),
		}
		if fd.SourceName == "" {
			fd.SourceName = snakeCase(field.Name)
		}

		if tag.converter != "" {
			fn, ok := lookupConverter(tag.converter)
			if !ok {
				return nil, fmt.Errorf("schema for %s: field %s: unknown converter %q", t, field.Name, tag.converter)
			}
			fd.Converter = fn
		}

		if err := classifyField(fd); err != nil {
			return nil, fmt.Errorf("schema for %s: field %s: %w", t, field.Name, err)
		}

		fd.Optional = tag.optional ||
			fd.Tag == TagOpt ||
			field.Type.Kind() == reflect.Bool ||
			field.Type.Kind() == reflect.Pointer ||
			!fd.Default.IsZero()

		if fd.Tag == TagScalar && field.Type.Kind() == reflect.Bool &&
			(fd.SourceName == "enabled" || fd.SourceName == "disabled") {
			if s.Gate != nil {
				return nil, fmt.Errorf("schema for %s: both %q and %q declared as gate fields", t, s.Gate.SourceName, fd.SourceName)
			}
			s.Gate = fd
			s.GateInverted = fd.SourceName == "disabled"
		}

		if _, exists := s.bySource[fd.SourceName]; exists {
			return nil, fmt.Errorf("schema for %s: duplicate source name %q", t, fd.SourceName)
		}
		s.bySource[fd.SourceName] = fd
		s.Fields = append(s.Fields, fd)
	}

	return s, nil
}

// classifyField determines the field's type tag, resolution strategy, and
// (for sequences and Opt wrappers) element classification.
func classifyField(fd *FieldDescriptor) error {
	t := fd.Type

	switch {
	case t == durationType:
		if fd.Converter != nil {
			return fmt.Errorf("converter cannot apply to a duration field")
		}
		fd.Tag = TagDuration
		fd.DurationUnit = unitSuffix(fd.SourceName)
		return nil

	case isOpt(t):
		fd.Tag = TagOpt
		fd.Elem = t.Field(0).Type
		tag, strat, err := classifyElem(fd.Elem, fd.Converter)
		if err != nil {
			return err
		}
		fd.ElemTag, fd.ElemStrategy = tag, strat
		if fd.Elem == durationType {
			fd.DurationUnit = unitSuffix(fd.SourceName)
		}
		return nil

	case t.Kind() == reflect.Slice:
		fd.Tag = TagSequence
		fd.Elem = t.Elem()
		tag, strat, err := classifyElem(fd.Elem, fd.Converter)
		if err != nil {
			return err
		}
		fd.ElemTag, fd.ElemStrategy = tag, strat
		if fd.Elem == durationType {
			fd.DurationUnit = unitSuffix(fd.SourceName)
		}
		if fd.KeyAttribute != "" && tag != TagRecord {
			return fmt.Errorf("key=%s requires a sequence of records, not %s elements", fd.KeyAttribute, fd.Elem)
		}
		return nil
	}

	if fd.KeyAttribute != "" {
		return fmt.Errorf("key=%s is only valid on sequence fields", fd.KeyAttribute)
	}

	tag, strat, err := classifyElem(t, fd.Converter)
	if err != nil {
		return err
	}
	fd.Tag, fd.Strategy = tag, strat
	return nil
}

// classifyElem classifies a non-sequence, non-Opt type: scalar-expressible
// types get a strategy by the fixed precedence converter > text
// unmarshaler > native conversion; structs without a scalar strategy bind
// fieldwise as records.
func classifyElem(t reflect.Type, conv ConverterFunc) (TypeTag, Strategy, error) {
	if t == durationType {
		return TagDuration, StrategyRecord, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() != reflect.Struct {
			return 0, 0, fmt.Errorf("unsupported pointer type %s", t)
		}
		return TagRecord, StrategyRecord, nil

	case reflect.Struct:
		if isOpt(t) {
			return 0, 0, fmt.Errorf("nested optional wrappers are not supported")
		}
		if conv != nil {
			return TagScalar, StrategyConverter, nil
		}
		if reflect.PointerTo(t).Implements(textUnmarshalerType) {
			return TagScalar, StrategyText, nil
		}
		return TagRecord, StrategyRecord, nil

	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if conv != nil {
			return TagScalar, StrategyConverter, nil
		}
		if reflect.PointerTo(t).Implements(textUnmarshalerType) {
			return TagScalar, StrategyText, nil
		}
		return TagScalar, StrategyNative, nil

	default:
		return 0, 0, fmt.Errorf("unsupported field type %s", t)
	}
}

// isOpt reports whether t is an instantiation of optional.Opt.
func isOpt(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == optPkgPath &&
		strings.HasPrefix(t.Name(), "Opt[")
}

// unitSuffix returns the duration unit implied by a source name, or "" when
// the name matches no unit and the field takes the mapping form instead.
func unitSuffix(sourceName string) string {
	for _, u := range Units {
		if sourceName == u.Name || strings.HasSuffix(sourceName, "_"+u.Name) {
			return u.Name
		}
	}
	return ""
}

type parsedTag struct {
	name      string
	optional  bool
	keyAttr   string
	converter string
	skip      bool
}

func parseTag(raw string) (parsedTag, error) {
	var tag parsedTag
	if raw == "" {
		return tag, nil
	}
	if raw == "-" {
		tag.skip = true
		return tag, nil
	}

	parts := strings.Split(raw, ",")
	tag.name = parts[0]

	for _, opt := range parts[1:] {
		switch {
		case opt == "optional":
			tag.optional = true
		case strings.HasPrefix(opt, "key="):
			if tag.keyAttr != "" {
				return tag, fmt.Errorf("key attribute declared twice")
			}
			tag.keyAttr = strings.TrimPrefix(opt, "key=")
			if tag.keyAttr == "" {
				return tag, fmt.Errorf("key attribute cannot be empty")
			}
		case strings.HasPrefix(opt, "converter="):
			if tag.converter != "" {
				return tag, fmt.Errorf("converter declared twice")
			}
			tag.converter = strings.TrimPrefix(opt, "converter=")
			if tag.converter == "" {
				return tag, fmt.Errorf("converter name cannot be empty")
			}
		case opt == "":
			return tag, fmt.Errorf("empty tag option")
		default:
			return tag, fmt.Errorf("unknown tag option %q", opt)
		}
	}
	return tag, nil
}

// snakeCase converts a Go field name to its default document key, e.g.
// ListenAddr -> listen_addr, HTTPPort -> http_port.
func snakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				sb.WriteRune('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
