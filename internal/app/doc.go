// Package app wires the CLI configuration to the document adapters for the
// strictconf inspection tool: it loads a document, reports parse problems
// with positions, checks override keys, and optionally dumps the parsed
// tree.
package app
