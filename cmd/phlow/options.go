package main

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// Options holds phlow run's command-line arguments, grounded on the
// teacher's options.go Bind idiom (a struct of fields plus a Bind method
// wiring each to a flag), adapted from github.com/titpetric/cli's FlagSet
// to the standard spf13/pflag the rest of the pack uses.
type Options struct {
	Script    string
	VarMain   string
	Workers   int
	Debug     bool
	DebugPort int
	NATSUrl   string
	Watch     bool

	flags *pflag.FlagSet
}

// NewOptions returns an Options with the teacher's defaults: no debug
// server, a single worker, no NATS bridge.
func NewOptions() *Options {
	return &Options{Workers: 1, DebugPort: 31400}
}

// Bind wires every field to a flag, matching the surface described in
// SPEC_FULL.md §6.
func (o *Options) Bind() {
	fs := pflag.NewFlagSet("phlow", pflag.ContinueOnError)
	fs.StringVar(&o.Script, "script", "", "Path to the phlow workflow script")
	fs.StringVar(&o.VarMain, "var-main", "", "JSON value used as the main input when the script has no main module")
	fs.IntVar(&o.Workers, "workers", o.Workers, "Number of worker goroutines draining the inbound package queue")
	fs.BoolVar(&o.Debug, "debug", false, "Start the step-by-step debug controller and TCP server")
	fs.IntVar(&o.DebugPort, "debug-port", o.DebugPort, "TCP port the debug server listens on")
	fs.StringVar(&o.NATSUrl, "nats", "", "NATS server URL; when set, modules are dispatched over NATS instead of in-process")
	fs.BoolVar(&o.Watch, "watch", false, "Recompile the script whenever the script file changes (included files are not watched)")
	o.flags = fs
}

// Parse parses args against the bound flag set.
func (o *Options) Parse(args []string) error {
	return o.flags.Parse(args)
}

// ApplyEnv fills in any flag left at its zero value from phlow's
// environment variables, per SPEC_FULL.md §6: PHLOW_DEBUG, PHLOW_DEBUG_PORT.
// PHLOW_LOG/PHLOW_SPAN/PHLOW_OTEL/PHLOW_TRUNCATE_SPAN_VALUE are read
// directly by the logging setup in logging.go rather than through Options.
func (o *Options) ApplyEnv() {
	if !o.Debug {
		if v := os.Getenv("PHLOW_DEBUG"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				o.Debug = b
			}
		}
	}
	if !o.flags.Changed("debug-port") {
		if v := os.Getenv("PHLOW_DEBUG_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				o.DebugPort = p
			}
		}
	}
}
