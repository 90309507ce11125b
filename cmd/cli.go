package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// version is reported by --version.
const version = "1.0.0"

const commandStart = "start"

// Flag names.
const (
	flagController = "controller"
	flagTxID       = "txid"
	flagConfig     = "config"
	flagStatusAddr = "status-addr"
	flagHelp       = "help"
	flagVersion    = "version"
)

// errUsage is returned when the command line is not "start [options]", "--help" or "--version".
var errUsage = errors.New("usage error")

// cliArgs is the parsed command line. Only flags present in changed override lower configuration layers.
type cliArgs struct {
	Command    string
	Controller string
	TxID       string
	ConfigPath string
	StatusAddr string
	Help       bool
	Version    bool
	changed    map[string]bool
}

// set reports whether name was given explicitly on the command line.
func (a *cliArgs) set(name string) bool {
	return a.changed[name]
}

func newFlagSet(out *cliArgs) *pflag.FlagSet {
	fs := pflag.NewFlagSet("isotpgateway", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVarP(&out.Controller, flagController, "c", defaultControllerURL, "controller base URL")
	fs.StringVar(&out.TxID, flagTxID, defaultTxID, "CAN arbitration ID for transmission")
	fs.StringVar(&out.ConfigPath, flagConfig, "", "YAML configuration file (overrides "+envConfigPath+")")
	fs.StringVar(&out.StatusAddr, flagStatusAddr, "", "listen address of the worker status API, disabled when empty")
	fs.BoolVarP(&out.Help, flagHelp, "h", false, "show this screen")
	fs.BoolVar(&out.Version, flagVersion, false, "show version")
	return fs
}

// parseArgs parses the command line (without the program name).
//
// Returns: (*cliArgs, nil) for "start [options]", "--help" or "--version"; (nil, error wrapping errUsage)
// for a missing or unknown command, stray arguments or an unknown flag.
//
// Called only from main.
func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	out := &cliArgs{changed: map[string]bool{}}
	fs := newFlagSet(out)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	fs.Visit(func(f *pflag.Flag) {
		out.changed[f.Name] = true
	})
	if out.Help || out.Version {
		return out, nil
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: missing command", errUsage)
	}
	if rest[0] != commandStart {
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}
	if len(rest) > 1 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, rest[1:])
	}
	out.Command = commandStart
	return out, nil
}

// printUsage writes the help screen.
func printUsage(w io.Writer) {
	fs := newFlagSet(&cliArgs{})
	fmt.Fprintf(w, "ISO-TP to HTTP UDS gateway.\n\nUsage:\n  isotpgateway %s [options]\n  isotpgateway -h | --help\n  isotpgateway --version\n\nOptions:\n", commandStart)
	fmt.Fprint(w, fs.FlagUsages())
}
