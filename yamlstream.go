// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"bytes"
	"io"
)

// Parse returns a parser for the stream read from r. It is shorthand for
// NewParser.
func Parse(r io.Reader, opts ...Option) *Parser {
	return NewParser(r, opts...)
}

// EventStrings parses in to completion and renders every event in
// yaml-test-suite shorthand, one string per event. On a parse error the
// events emitted so far are returned along with the error.
func EventStrings(in []byte, opts ...Option) ([]string, error) {
	p := NewParser(bytes.NewReader(in), opts...)
	var out []string
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev.Shorthand(p.TagLibrary()))
	}
}

// Events parses in to completion and returns the raw event sequence.
func Events(in []byte, opts ...Option) ([]Event, error) {
	p := NewParser(bytes.NewReader(in), opts...)
	var out []Event
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
