/*
Package binder implements the recursive, type-directed bind of a document
tree onto a schema-described record.

The walk is depth-first over the schema, not the document: per mapping it
checks unknown keys (strict mode), evaluates enable/disable gating, resolves
each field in schema order from injected values, command-line overrides, the
document, or the field's default, then constructs the record fieldwise and
runs its validation hook. The first error aborts the whole bind; every error
is a diag.Diagnostic carrying the dotted field path and source position.

Binding is a pure function of its inputs: no I/O, no shared mutable state
beyond the process-wide schema cache, safe to run concurrently for
independent top-level calls.
*/
package binder
