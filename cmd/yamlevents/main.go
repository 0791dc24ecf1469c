// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command yamlevents streams the events of a YAML document in
// yaml-test-suite shorthand, one per line. It is the repository's debugging
// and conformance tool: feed it a document and diff the output against a
// reference event log.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/yamlstream/yamlstream"
)

type options struct {
	marks bool
	tags  bool
	quiet bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "yamlevents: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "yamlevents [file]",
		Short: "Print the event stream of a YAML document",
		Long: `Parses a YAML document (a file, or stdin when no file is given) and prints
one event per line in yaml-test-suite shorthand:

  +STR / -STR    stream start and end
  +DOC / -DOC    document boundaries ("---" and "..." mark explicit ones)
  +MAP / +SEQ    collection start ("{}" / "[]" for flow style)
  =VAL           scalar, prefixed with anchor, tag and style indicator
  =ALI           alias`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.marks, "marks", false, "append start/end source positions to each event")
	cmd.Flags().BoolVar(&opts.tags, "tags", true, "resolve tag identifiers to URIs")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "suppress parser warnings")
	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	in := cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()
		in = f
		name = args[0]
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	warn := logr.Discard()
	if !opts.quiet {
		warn = funcr.New(func(prefix, args string) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", args)
		}, funcr.Options{})
	}

	p := yamlstream.NewParser(in, yamlstream.WithWarningLogger(warn))
	out := cmd.OutOrStdout()
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "parsing %s", name)
		}
		var lib *yamlstream.TagLibrary
		if opts.tags {
			lib = p.TagLibrary()
		}
		line := eventColor(ev).Sprint(ev.Shorthand(lib))
		if opts.marks {
			line += fmt.Sprintf("  [%s..%s]", ev.Start, ev.End)
		}
		fmt.Fprintln(out, line)
	}
}

func eventColor(ev yamlstream.Event) *color.Color {
	switch ev.Kind {
	case yamlstream.Scalar:
		return color.New(color.FgGreen)
	case yamlstream.Alias:
		return color.New(color.FgYellow)
	case yamlstream.StartMap, yamlstream.EndMap, yamlstream.StartSeq, yamlstream.EndSeq:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
