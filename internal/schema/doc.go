/*
Package schema derives the binding metadata for a record type: an ordered
list of field descriptors with source names, optionality, defaults, and the
resolution strategy each field uses to turn document nodes into values.

A schema is built once per type by reflection over `conf:` struct tags and
cached for the life of the process; everything that can be rejected early
(source-name collisions, unknown converters, unsupported field types) is
rejected here rather than during a bind.

Tag grammar:

	Field string `conf:"source_name"`          // name override
	Field string `conf:",optional"`            // explicit optional marker
	Field []X    `conf:"ifaces,key=name"`      // named-mapping-to-array transform
	Field Size   `conf:"max_size,converter=bytesize"`
	Field string `conf:"-"`                    // skipped

An omitted source name defaults to the snake_case of the Go field name.
*/
package schema
