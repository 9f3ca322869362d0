package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		expectErr  bool
		expectExit bool
		check      func(t *testing.T, out string)
	}{
		{
			name: "no arguments prints usage",
			args: []string{},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Usage:")
				assert.Contains(t, out, "CONFIG_PATH")
			},
			expectExit: true,
		},
		{
			name:       "help flag",
			args:       []string{"--help"},
			expectExit: true,
		},
		{
			name:      "unknown flag",
			args:      []string{"--bogus", "conf.yaml"},
			expectErr: true,
		},
		{
			name:      "invalid log format",
			args:      []string{"--log-format", "xml", "conf.yaml"},
			expectErr: true,
		},
		{
			name:      "invalid log level",
			args:      []string{"--log-level", "loud", "conf.yaml"},
			expectErr: true,
		},
		{
			name:      "malformed set",
			args:      []string{"--set", "no-equals", "conf.yaml"},
			expectErr: true,
		},
		{
			name:      "set with empty key",
			args:      []string{"--set", "=value", "conf.yaml"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, exit, err := Parse(tc.args, &out)

			if tc.expectErr {
				require.Error(t, err)
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr))
				assert.Equal(t, 2, exitErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, exit)
			if tc.check != nil {
				tc.check(t, out.String())
			}
			_ = cfg
		})
	}
}

func TestParseDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"conf.yaml"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "conf.yaml", cfg.DocPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Strict)
	assert.False(t, cfg.Print)
	assert.False(t, cfg.NoColor)
	assert.Empty(t, cfg.Overrides)
}

func TestParseAllFlags(t *testing.T) {
	var out bytes.Buffer
	args := []string{
		"--no-strict", "--print", "--no-color",
		"--log-format", "JSON", "--log-level", "DEBUG",
		"--set", "server.port=9090",
		"--set", "peers=a:1",
		"--set", "peers=b:2",
		"conf.hcl",
	}
	cfg, exit, err := Parse(args, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "conf.hcl", cfg.DocPath)
	assert.False(t, cfg.Strict)
	assert.True(t, cfg.Print)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "json", cfg.LogFormat, "formats are case-insensitive")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"9090"}, cfg.Overrides["server.port"])
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Overrides["peers"], "repeated sets accumulate")
}

func TestSetValueMayContainEquals(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"--set", "query=a=b", "conf.yaml"}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a=b"}, cfg.Overrides["query"])
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Code: 2, Message: "bad flag"}
	assert.Equal(t, "bad flag", err.Error())
}
