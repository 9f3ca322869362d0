package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/strictconf/internal/cli"
)

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunInspectsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"--log-level", "error", path}))
	assert.Contains(t, out.String(), "ok (1 top-level keys)")
}

func TestRunBadFlagReturnsExitError(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--log-level", "loud", "conf.yaml"})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunMissingDocumentFails(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--no-color", "--log-level", "error", filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}
