// Package testutil holds shared helpers for the binder test suites.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/strictconf/internal/document"
	"github.com/vk/strictconf/internal/yamldoc"
)

// YAML parses inline YAML into a document tree, failing the test on a parse
// error. Positions carry the source name "test.yaml".
func YAML(t *testing.T, src string) *document.Node {
	t.Helper()
	node, err := yamldoc.Parse("test.yaml", []byte(src))
	require.NoError(t, err)
	return node
}
