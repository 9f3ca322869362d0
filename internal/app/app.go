package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/vk/strictconf/internal/ctxlog"
	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/hcldoc"
	"github.com/vk/strictconf/internal/pathkey"
	"github.com/vk/strictconf/internal/yamldoc"
)

// App is one run of the inspection tool.
type App struct {
	out    io.Writer
	cfg    *Config
	logger *slog.Logger
}

// New constructs an App writing its report to out.
func New(out io.Writer, cfg *Config) *App {
	return &App{
		out:    out,
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, out),
	}
}

// Logger exposes the app's configured logger so callers can embed it in a
// context via ctxlog for downstream bind calls.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run loads the document, folds the override table into it, and reports
// what it found. It returns an error for exit-code handling; everything
// user-facing is already written to the output by then.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("inspection started", "path", a.cfg.DocPath)

	root, err := a.loadDocument()
	if err != nil {
		fmt.Fprintln(a.out, diag.Render(err, !a.cfg.NoColor))
		return err
	}

	logger.Debug("document parsed", "keys", len(root.Keys()))

	if err := a.applyOverrides(ctx, root); err != nil {
		fmt.Fprintln(a.out, diag.Render(err, !a.cfg.NoColor))
		return err
	}

	if a.cfg.Print {
		fmt.Fprint(a.out, spew.Sdump(root))
	}

	fmt.Fprintf(a.out, "%s: ok (%d top-level keys)\n", a.cfg.DocPath, len(root.Keys()))
	return nil
}

// applyOverrides folds the --set table into the parsed tree, so the report
// and --print show the document a bind call would see. Strict mode rejects
// overrides that collide with document values, matching the binder; in
// non-strict mode the override replaces the value with a logged warning.
func (a *App) applyOverrides(ctx context.Context, root *document.Node) error {
	logger := ctxlog.FromContext(ctx)
	pos := document.Position{Source: "override"}

	keys := make([]string, 0, len(a.cfg.Overrides))
	for key := range a.cfg.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(a.cfg.Overrides[key]) == 0 {
			continue
		}
		p, err := pathkey.Parse(key)
		if err != nil {
			return fmt.Errorf("invalid override key %q: %w", key, err)
		}

		segs := p.Segments()
		cur := root
		parent := pathkey.Root()
		for _, seg := range segs[:len(segs)-1] {
			if seg.HasIndex() {
				return fmt.Errorf("invalid override key %q: sequence elements cannot be addressed", key)
			}
			child, ok := cur.Get(seg.Name)
			if !ok {
				child = document.NewMapping(pos)
				cur.Set(seg.Name, child)
			}
			if child.Kind() != document.KindMapping {
				return &diag.TypeMismatchError{
					Site:     diag.Site{Path: parent.Child(seg.Name).String(), Pos: child.Pos()},
					Expected: document.KindMapping,
					Actual:   child.Kind(),
				}
			}
			parent = parent.Child(seg.Name)
			cur = child
		}

		last := segs[len(segs)-1]
		if last.HasIndex() {
			return fmt.Errorf("invalid override key %q: sequence elements cannot be addressed", key)
		}

		if existing, ok := cur.Get(last.Name); ok {
			if a.cfg.Strict {
				return &diag.DuplicateKeyError{
					Site:   diag.Site{Path: parent.String(), Key: last.Name, Pos: existing.Pos()},
					Source: "a command-line override",
				}
			}
			logger.Warn("override replaces document value",
				"path", key, "pos", existing.Pos().String())
		}
		cur.Set(last.Name, a.overrideValue(key))
	}
	return nil
}

// overrideValue synthesizes the node for one override key: a sequence when
// the key was set more than once, the single value otherwise.
func (a *App) overrideValue(key string) *document.Node {
	pos := document.Position{Source: "override"}
	vals := a.cfg.Overrides[key]
	if len(vals) > 1 {
		seq := document.NewSequence(pos)
		for _, v := range vals {
			seq.Append(document.NewScalar(pos, v, true))
		}
		return seq
	}
	return document.NewScalar(pos, vals[0], true)
}

func (a *App) loadDocument() (*document.Node, error) {
	if filepath.Ext(a.cfg.DocPath) == ".hcl" {
		return hcldoc.Load(a.cfg.DocPath)
	}
	return yamldoc.Load(a.cfg.DocPath)
}
