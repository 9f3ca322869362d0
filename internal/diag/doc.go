/*
Package diag defines the typed, positioned diagnostics every binder
operation reports. Each diagnostic carries the dotted field path accumulated
by the recursion and the originating node's source position, so a caller
never has to guess where in the document a failure occurred.

Rendering (including optional color) is a presentation concern layered on
top via Render; the binding contract is the error types themselves.
*/
package diag
