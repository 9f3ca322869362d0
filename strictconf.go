// Package strictconf binds YAML, JSON, and HCL configuration documents onto
// statically-typed Go structs, producing either a fully populated value or a
// precisely located error.
//
// A target type describes its own schema through `conf:` struct tags
// (name overrides, optional markers, key attributes, named converters),
// optional SetDefaults and Validate hooks, and optional.Opt fields for
// explicit-presence tracking. Binding is strict by default: unknown document
// keys, missing required fields, and document/override collisions are
// errors that carry the dotted field path and the source position.
package strictconf

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vk/strictconf/internal/binder"
	"github.com/vk/strictconf/internal/ctxlog"
	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/hcldoc"
	"github.com/vk/strictconf/internal/holder"
	"github.com/vk/strictconf/internal/schema"
	"github.com/vk/strictconf/internal/yamldoc"
)

// Record-level extension points, re-exported for callers.
type (
	// Defaulter lets a record type declare non-zero defaults.
	Defaulter = schema.Defaulter
	// Validator is the optional post-construction validation hook.
	Validator = schema.Validator
	// ConverterFunc turns raw scalar text into a field value.
	ConverterFunc = schema.ConverterFunc
)

// Diagnostic types, re-exported so callers can errors.As against them.
type (
	Diagnostic         = diag.Diagnostic
	Site               = diag.Site
	Position           = document.Position
	UnknownKeyError    = diag.UnknownKeyError
	MissingKeyError    = diag.MissingKeyError
	TypeMismatchError  = diag.TypeMismatchError
	DurationShapeError = diag.DurationShapeError
	ConstructionError  = diag.ConstructionError
	ValidationError    = diag.ValidationError
	DuplicateKeyError  = diag.DuplicateKeyError
)

// RegisterConverter registers a named converter that `converter=` tags can
// refer to. Call it before the first bind of any type using the name.
func RegisterConverter(name string, fn ConverterFunc) {
	schema.RegisterConverter(name, fn)
}

// Render formats a binding error for terminal output, optionally colored.
func Render(err error, colorize bool) string {
	return diag.Render(err, colorize)
}

// Option configures a bind call.
type Option func(*options)

type options struct {
	strict    bool
	overrides map[string][]string
	logger    *slog.Logger
}

// NonStrict downgrades unknown document keys from errors to logged warnings
// and lets overrides silently win over document values.
func NonStrict() Option {
	return func(o *options) { o.strict = false }
}

// WithOverrides merges a table of dotted-path overrides into the bind. For
// scalar fields the last value for a path wins; for sequence fields the
// values are additive.
func WithOverrides(table map[string][]string) Option {
	return func(o *options) {
		for k, v := range table {
			o.overrides[k] = append(o.overrides[k], v...)
		}
	}
}

// WithOverride appends a single dotted-path override.
func WithOverride(path, value string) Option {
	return func(o *options) { o.overrides[path] = append(o.overrides[path], value) }
}

// WithLogger routes non-strict warnings and reload logging to the given
// logger instead of slog's default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{strict: true, overrides: make(map[string][]string)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BindYAML binds a YAML (or JSON) document held in memory. name labels
// source positions in diagnostics.
func BindYAML[T any](ctx context.Context, name string, src []byte, opts ...Option) (*T, error) {
	root, err := yamldoc.Parse(name, src)
	if err != nil {
		return nil, err
	}
	return bindRoot[T](ctx, root, buildOptions(opts))
}

// BindHCL binds an HCL document held in memory; names ending in .json parse
// as HCL JSON syntax.
func BindHCL[T any](ctx context.Context, name string, src []byte, opts ...Option) (*T, error) {
	root, err := hcldoc.Parse(name, src)
	if err != nil {
		return nil, err
	}
	return bindRoot[T](ctx, root, buildOptions(opts))
}

// BindFile loads a document from disk and binds it, selecting the parser by
// extension: .hcl binds as HCL, everything else (.yaml, .yml, .json) as YAML.
func BindFile[T any](ctx context.Context, path string, opts ...Option) (*T, error) {
	var root *document.Node
	var err error
	if filepath.Ext(path) == ".hcl" {
		root, err = hcldoc.Load(path)
	} else {
		root, err = yamldoc.Load(path)
	}
	if err != nil {
		return nil, err
	}
	return bindRoot[T](ctx, root, buildOptions(opts))
}

func bindRoot[T any](ctx context.Context, root *document.Node, o options) (*T, error) {
	if o.logger != nil {
		ctx = ctxlog.WithLogger(ctx, o.logger)
	}
	out := new(T)
	err := binder.Bind(ctx, root, out, binder.Options{
		Strict:    o.strict,
		Overrides: o.overrides,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Holder provides thread-safe access to a bound record with hot reload.
type Holder[T any] struct {
	inner *holder.Holder[T]
}

// NewHolder binds path once and returns a holder that can re-bind it on
// file changes or SIGHUP. Bind options apply to every reload.
func NewHolder[T any](ctx context.Context, path string, opts ...Option) (*Holder[T], error) {
	h, err := holder.New(ctx, path, func(ctx context.Context, p string) (*T, error) {
		return BindFile[T](ctx, p, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("strictconf: %w", err)
	}
	return &Holder[T]{inner: h}, nil
}

// Get returns the current record.
func (h *Holder[T]) Get() *T { return h.inner.Get() }

// Reload re-binds the document now, keeping the old record on failure.
func (h *Holder[T]) Reload(ctx context.Context) error { return h.inner.Reload(ctx) }

// OnChange registers a callback invoked after each successful reload.
func (h *Holder[T]) OnChange(fn func(*T)) { h.inner.OnChange(fn) }

// Watch starts reloading on changes to the document file.
func (h *Holder[T]) Watch(ctx context.Context) error { return h.inner.Watch(ctx) }

// WatchSignals starts reloading on SIGHUP.
func (h *Holder[T]) WatchSignals(ctx context.Context) { h.inner.WatchSignals(ctx) }

// Close stops watching.
func (h *Holder[T]) Close() error { return h.inner.Close() }
