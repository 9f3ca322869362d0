/*
Package document defines the parser-independent document tree the binder
walks: mapping, sequence, and scalar nodes, each carrying the position it
came from in the source.

Trees are produced by an adapter (yamldoc, hcldoc) and are read-only once
built. Mappings preserve the key order of the source document and reject
duplicate keys at construction time.
*/
package document
