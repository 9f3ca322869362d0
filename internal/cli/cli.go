package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/strictconf/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// setFlags collects repeated --set path=value arguments.
type setFlags []string

func (s *setFlags) String() string {
	return strings.Join(*s, ",")
}

func (s *setFlags) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("strictconf", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
strictconf - inspect a configuration document and its overrides.

Usage:
  strictconf [options] CONFIG_PATH

Arguments:
  CONFIG_PATH
    Path to a .yaml, .yml, .json, or .hcl configuration document.

Options:
`)
		flagSet.PrintDefaults()
	}

	var sets setFlags
	flagSet.Var(&sets, "set", "Override a field as path=value. Repeatable; later values win for scalars and accumulate for lists.")
	noStrictFlag := flagSet.Bool("no-strict", false, "Let overrides replace document values instead of failing on the collision.")
	printFlag := flagSet.Bool("print", false, "Dump the parsed document tree.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable color in error output.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	path := flagSet.Arg(0)

	overrides := make(map[string][]string)
	for _, raw := range sets {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid --set %q: expected path=value", raw)}
		}
		overrides[key] = append(overrides[key], value)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		DocPath:   path,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Strict:    !*noStrictFlag,
		Print:     *printFlag,
		NoColor:   *noColorFlag,
		Overrides: overrides,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
