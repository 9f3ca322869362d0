package binder

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"

	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/schema"
)

// bindLeaf binds a single scalar node using the field's resolution strategy.
// Failures inside converters and unmarshalers are always re-wrapped as
// ConstructionError; nothing escapes as an untyped failure.
func (b *binder) bindLeaf(node *document.Node, dst reflect.Value, strategy schema.Strategy, conv schema.ConverterFunc, path pathkey.Path) error {
	if node.Kind() != document.KindScalar {
		return &diag.TypeMismatchError{
			Site:     diag.Site{Path: path.String(), Pos: node.Pos()},
			Expected: document.KindScalar,
			Actual:   node.Kind(),
		}
	}

	text := node.Text()
	site := diag.Site{Path: path.String(), Pos: node.Pos()}

	switch strategy {
	case schema.StrategyConverter:
		v, err := runConverter(conv, text)
		if err != nil {
			return &diag.ConstructionError{Site: site, Cause: err}
		}
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			return &diag.ConstructionError{Site: site, Cause: fmt.Errorf("converter returned nil")}
		}
		if !rv.Type().AssignableTo(dst.Type()) {
			if !rv.Type().ConvertibleTo(dst.Type()) {
				return &diag.ConstructionError{Site: site, Cause: fmt.Errorf("converter returned %s, field needs %s", rv.Type(), dst.Type())}
			}
			rv = rv.Convert(dst.Type())
		}
		dst.Set(rv)
		return nil

	case schema.StrategyText:
		ptr := reflect.New(dst.Type())
		if err := runUnmarshalText(ptr.Interface().(encoding.TextUnmarshaler), text); err != nil {
			return &diag.ConstructionError{Site: site, Cause: err}
		}
		dst.Set(ptr.Elem())
		return nil

	default:
		if err := setNative(dst, text); err != nil {
			return &diag.ConstructionError{Site: site, Cause: err}
		}
		return nil
	}
}

// setNative converts scalar text into the builtin kinds via strconv.
func setNative(dst reflect.Value, text string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(text)
	case reflect.Bool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%q is not a valid %s", text, dst.Type())
		}
		dst.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(text, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%q is not a valid %s", text, dst.Type())
		}
		dst.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(text, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%q is not a valid %s", text, dst.Type())
		}
		dst.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(text, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%q is not a valid %s", text, dst.Type())
		}
		dst.SetFloat(v)
	default:
		return fmt.Errorf("cannot bind a scalar into %s", dst.Type())
	}
	return nil
}

// runConverter invokes a converter, turning a panic into an ordinary error
// so it can be wrapped as a ConstructionError by the caller.
func runConverter(conv schema.ConverterFunc, text string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("converter panicked: %v", r)
		}
	}()
	return conv(text)
}

// runUnmarshalText invokes a TextUnmarshaler with the same panic guard.
func runUnmarshalText(um encoding.TextUnmarshaler, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unmarshal panicked: %v", r)
		}
	}()
	return um.UnmarshalText([]byte(text))
}
