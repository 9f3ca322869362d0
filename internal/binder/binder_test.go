package binder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/strictconf/internal/diag"
	"github.com/vk/strictconf/internal/schema"
	"github.com/vk/strictconf/internal/testutil"
	"github.com/vk/strictconf/optional"
)

func init() {
	schema.RegisterConverter("bind_test_bytesize", func(text string) (any, error) {
		n, ok := strings.CutSuffix(text, "KB")
		if !ok {
			return nil, fmt.Errorf("%q has no KB suffix", text)
		}
		var v int64
		if _, err := fmt.Sscanf(n, "%d", &v); err != nil {
			return nil, err
		}
		return v * 1024, nil
	})
	schema.RegisterConverter("bind_test_panics", func(text string) (any, error) {
		panic("boom")
	})
}

type listenSection struct {
	Host string
	Port int
}

type serverSection struct {
	Listen  listenSection
	Workers int `conf:",optional"`
}

type rootConfig struct {
	Name   string
	Server serverSection
}

func bind(t *testing.T, src string, out any, opts Options) error {
	t.Helper()
	return Bind(context.Background(), testutil.YAML(t, src), out, opts)
}

func TestBindNestedScalars(t *testing.T) {
	src := `
name: edge
server:
  listen:
    host: 0.0.0.0
    port: 8443
  workers: 4
`
	var cfg rootConfig
	require.NoError(t, bind(t, src, &cfg, Options{Strict: true}))
	assert.Equal(t, "edge", cfg.Name)
	assert.Equal(t, "0.0.0.0", cfg.Server.Listen.Host)
	assert.Equal(t, 8443, cfg.Server.Listen.Port)
	assert.Equal(t, 4, cfg.Server.Workers)
}

func TestBindRequiresStructPointer(t *testing.T) {
	node := testutil.YAML(t, "a: 1")

	var cfg rootConfig
	require.Error(t, Bind(context.Background(), node, cfg, Options{}))

	var n int
	require.Error(t, Bind(context.Background(), node, &n, Options{}))
}

func TestMissingKeyCarriesFullPath(t *testing.T) {
	src := `
name: edge
server:
  listen:
    host: 0.0.0.0
`
	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	var missing *diag.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "server.listen.port", missing.Where().Subject())
}

func TestAbsentRequiredSectionReportsLeafPath(t *testing.T) {
	src := `name: edge`

	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	// The section itself is required but binds transitively, so the
	// diagnostic names the first required leaf beneath it.
	var missing *diag.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "server.listen.host", missing.Where().Subject())
}

func TestUnknownKeyStrict(t *testing.T) {
	src := `
name: edge
server:
  listen:
    hots: 0.0.0.0
    port: 1
`
	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	var unknown *diag.UnknownKeyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "server.listen.hots", unknown.Where().Subject())
	assert.Equal(t, "host", unknown.Suggestion)
	assert.Equal(t, []string{"host", "port"}, unknown.Known)
}

func TestUnknownKeyIgnoredWhenNotStrict(t *testing.T) {
	src := `
name: edge
extra: stuff
server:
  listen:
    host: h
    port: 1
`
	var cfg rootConfig
	require.NoError(t, bind(t, src, &cfg, Options{}))
	assert.Equal(t, "edge", cfg.Name)
}

func TestTypeMismatchScalarForMapping(t *testing.T) {
	src := `
name: edge
server: nope
`
	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	var mismatch *diag.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "server", mismatch.Where().Subject())
	assert.Contains(t, mismatch.Error(), "expected a mapping")
}

func TestTypeMismatchMappingForScalar(t *testing.T) {
	src := `
name:
  nested: true
server:
  listen: {host: h, port: 1}
`
	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	var mismatch *diag.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "name", mismatch.Where().Subject())
}

type tunedConfig struct {
	Level   string
	Retries int
}

func (c *tunedConfig) SetDefaults() {
	c.Retries = 3
}

func TestOptionalFieldTakesDefault(t *testing.T) {
	var cfg tunedConfig
	require.NoError(t, bind(t, `level: info`, &cfg, Options{Strict: true}))
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 3, cfg.Retries)
}

func TestExplicitValueBeatsDefault(t *testing.T) {
	var cfg tunedConfig
	require.NoError(t, bind(t, "level: info\nretries: 9", &cfg, Options{Strict: true}))
	assert.Equal(t, 9, cfg.Retries)
}

type allOptionalSection struct {
	Retries int `conf:",optional"`
	Verbose bool
}

type transitiveConfig struct {
	Name    string
	Tuning  allOptionalSection
	Backend *listenSection
}

func TestTransitiveRecordDefaulting(t *testing.T) {
	var cfg transitiveConfig
	require.NoError(t, bind(t, `name: x`, &cfg, Options{Strict: true}))
	assert.Equal(t, allOptionalSection{}, cfg.Tuning)
	assert.Nil(t, cfg.Backend, "absent pointer sections stay nil")
}

func TestPointerSectionAllocatedWhenPresent(t *testing.T) {
	src := `
name: x
backend:
  host: b
  port: 7
`
	var cfg transitiveConfig
	require.NoError(t, bind(t, src, &cfg, Options{Strict: true}))
	require.NotNil(t, cfg.Backend)
	assert.Equal(t, listenSection{Host: "b", Port: 7}, *cfg.Backend)
}

type seededConfig struct {
	Name  string
	Hosts []string `conf:",optional"`
}

func (c *seededConfig) SetDefaults() {
	c.Hosts = []string{"localhost"}
}

func TestDefaultedSlicesAreNotShared(t *testing.T) {
	var first, second seededConfig
	require.NoError(t, bind(t, `name: a`, &first, Options{Strict: true}))
	require.NoError(t, bind(t, `name: b`, &second, Options{Strict: true}))

	first.Hosts[0] = "mutated"
	assert.Equal(t, []string{"localhost"}, second.Hosts)

	var third seededConfig
	require.NoError(t, bind(t, `name: c`, &third, Options{Strict: true}))
	assert.Equal(t, []string{"localhost"}, third.Hosts, "the schema's stored default must stay pristine")
}

type trackedConfig struct {
	Limit optional.Opt[int]
	Label optional.Opt[string]
}

func TestOptTracksExplicitSet(t *testing.T) {
	var cfg trackedConfig
	require.NoError(t, bind(t, `limit: 0`, &cfg, Options{Strict: true}))

	v, ok := cfg.Limit.Get()
	assert.True(t, ok, "explicit zero still counts as set")
	assert.Equal(t, 0, v)

	_, ok = cfg.Label.Get()
	assert.False(t, ok)
}

type sizedConfig struct {
	MaxBody int64 `conf:"max_body,converter=bind_test_bytesize"`
}

func TestConverterStrategy(t *testing.T) {
	var cfg sizedConfig
	require.NoError(t, bind(t, `max_body: 4KB`, &cfg, Options{Strict: true}))
	assert.Equal(t, int64(4096), cfg.MaxBody)
}

func TestConverterFailureIsConstructionError(t *testing.T) {
	var cfg sizedConfig
	err := bind(t, `max_body: four`, &cfg, Options{Strict: true})
	require.Error(t, err)

	var ce *diag.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "max_body", ce.Where().Subject())
	assert.Contains(t, ce.Error(), "no KB suffix")
}

type panickyConfig struct {
	Field string `conf:"field,converter=bind_test_panics"`
}

func TestConverterPanicBecomesConstructionError(t *testing.T) {
	var cfg panickyConfig
	err := bind(t, `field: x`, &cfg, Options{Strict: true})
	require.Error(t, err)

	var ce *diag.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "panicked")
}

type logLevel int

func (l *logLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "debug":
		*l = 0
	case "info":
		*l = 1
	case "warn":
		*l = 2
	default:
		return fmt.Errorf("unknown level %q", text)
	}
	return nil
}

type leveledConfig struct {
	Level logLevel
}

func TestTextUnmarshalerStrategy(t *testing.T) {
	var cfg leveledConfig
	require.NoError(t, bind(t, `level: warn`, &cfg, Options{Strict: true}))
	assert.Equal(t, logLevel(2), cfg.Level)
}

func TestTextUnmarshalerFailureIsConstructionError(t *testing.T) {
	var cfg leveledConfig
	err := bind(t, `level: shout`, &cfg, Options{Strict: true})
	require.Error(t, err)

	var ce *diag.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), `unknown level "shout"`)
}

func TestNativeParseFailure(t *testing.T) {
	src := `
name: edge
server:
  listen:
    host: h
    port: eighty
`
	var cfg rootConfig
	err := bind(t, src, &cfg, Options{Strict: true})
	require.Error(t, err)

	var ce *diag.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "server.listen.port", ce.Where().Subject())
	assert.Contains(t, ce.Error(), `"eighty" is not a valid int`)
}

// validationLog records hook firing order across a single bind.
var validationLog []string

type innerChecked struct {
	Port int
}

func (c *innerChecked) Validate() error {
	validationLog = append(validationLog, "inner")
	if c.Port == 0 {
		return errors.New("port must be set")
	}
	return nil
}

type outerChecked struct {
	Inner innerChecked
}

func (c *outerChecked) Validate() error {
	validationLog = append(validationLog, "outer")
	return nil
}

func TestValidationRunsInnerBeforeOuter(t *testing.T) {
	validationLog = nil

	var cfg outerChecked
	require.NoError(t, bind(t, "inner:\n  port: 5", &cfg, Options{Strict: true}))
	assert.Equal(t, []string{"inner", "outer"}, validationLog)
}

func TestInnerValidationFailureStopsBind(t *testing.T) {
	validationLog = nil

	var cfg outerChecked
	err := bind(t, "inner:\n  port: 0", &cfg, Options{Strict: true})
	require.Error(t, err)

	var ve *diag.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "inner", ve.Where().Subject())
	assert.Contains(t, ve.Error(), "port must be set")
	assert.Equal(t, []string{"inner"}, validationLog, "outer hook must not run")
}
