/*
Package pathkey provides a structured representation for dotted field paths,
e.g. `server.plans[2].name`.

Paths identify fields across the binder: they key the command-line override
table and qualify every diagnostic. The package centralizes parsing and
formatting so the two uses cannot drift apart.
*/
package pathkey
