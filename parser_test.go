// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventTests drive full documents through the parser and compare the event
// stream in yaml-test-suite shorthand.
var eventTests = []struct {
	name   string
	input  string
	events []string
}{
	{
		name:   "empty stream",
		input:  "",
		events: []string{"+STR", "-STR"},
	},
	{
		name:   "blank lines only",
		input:  "\n\n",
		events: []string{"+STR", "-STR"},
	},
	{
		name:   "comment only",
		input:  "# nothing here\n",
		events: []string{"+STR", "-STR"},
	},
	{
		name:   "empty explicit document",
		input:  "---\n",
		events: []string{"+STR", "+DOC ---", "=VAL :", "-DOC", "-STR"},
	},
	{
		name:   "explicit document without trailing break",
		input:  "---",
		events: []string{"+STR", "+DOC ---", "=VAL :", "-DOC", "-STR"},
	},
	{
		name:   "plain scalar document",
		input:  "plain scalar\n",
		events: []string{"+STR", "+DOC", "=VAL :plain scalar", "-DOC", "-STR"},
	},
	{
		name:   "multiline plain scalar folds",
		input:  "a\nb\n",
		events: []string{"+STR", "+DOC", "=VAL :a b", "-DOC", "-STR"},
	},
	{
		name:   "plain scalar with colon inside",
		input:  "a:b\n",
		events: []string{"+STR", "+DOC", "=VAL :a:b", "-DOC", "-STR"},
	},
	{
		name:  "simple block mapping",
		input: "a: b\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :b", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "two block mapping entries",
		input: "a: b\nc: d\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :b", "=VAL :c", "=VAL :d",
			"-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "block sequence",
		input: "- 1\n- 2\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "=VAL :1", "=VAL :2", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "nested block sequence compact",
		input: "- - a\n  - b\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "+SEQ", "=VAL :a", "=VAL :b", "-SEQ", "-SEQ",
			"-DOC", "-STR",
		},
	},
	{
		name:  "sequence item empty",
		input: "- \n- b\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "=VAL :", "=VAL :b", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "mapping with nested mapping",
		input: "a:\n  b: c\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "+MAP", "=VAL :b", "=VAL :c",
			"-MAP", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "mapping with empty value",
		input: "a: \nb: c\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :", "=VAL :b", "=VAL :c",
			"-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "sequence as mapping value at same column",
		input: "a:\n- x\n- y\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "+SEQ", "=VAL :x", "=VAL :y",
			"-SEQ", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "sequence as mapping value indented",
		input: "key:\n  - a\n  - b\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :key", "+SEQ", "=VAL :a", "=VAL :b",
			"-SEQ", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "mapping inside sequence item",
		input: "- a: b\n  c: d\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "+MAP", "=VAL :a", "=VAL :b", "=VAL :c",
			"=VAL :d", "-MAP", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "sequence of mappings",
		input: "- a: b\n- c: d\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "+MAP", "=VAL :a", "=VAL :b", "-MAP",
			"+MAP", "=VAL :c", "=VAL :d", "-MAP", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "explicit block mapping",
		input: "? key\n: value\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :key", "=VAL :value", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "explicit keys without values",
		input: "? a\n? b\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :", "=VAL :b", "=VAL :",
			"-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "empty key mapping",
		input: ": v\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :", "=VAL :v", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:   "flow mapping with flow sequence",
		input:  "{a: [1, 2]}\n",
		events: []string{"+STR", "+DOC", "+MAP {}", "=VAL :a", "+SEQ []", "=VAL :1", "=VAL :2", "-SEQ", "-MAP", "-DOC", "-STR"},
	},
	{
		name:   "empty flow sequence",
		input:  "[]\n",
		events: []string{"+STR", "+DOC", "+SEQ []", "-SEQ", "-DOC", "-STR"},
	},
	{
		name:   "empty flow mapping",
		input:  "{}\n",
		events: []string{"+STR", "+DOC", "+MAP {}", "-MAP", "-DOC", "-STR"},
	},
	{
		name:  "flow mapping key only",
		input: "{a}\n",
		events: []string{
			"+STR", "+DOC", "+MAP {}", "=VAL :a", "=VAL :", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "nested flow mappings",
		input: "{a: {b: c}}\n",
		events: []string{
			"+STR", "+DOC", "+MAP {}", "=VAL :a", "+MAP {}", "=VAL :b",
			"=VAL :c", "-MAP", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "flow sequence over multiple lines",
		input: "[a,\n b]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "=VAL :a", "=VAL :b", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "flow sequence with empty item",
		input: "[a, , b]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "=VAL :a", "=VAL :", "=VAL :b", "-SEQ",
			"-DOC", "-STR",
		},
	},
	{
		name:  "single pair mapping in flow sequence",
		input: "[a: b]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "+MAP {}", "=VAL :a", "=VAL :b", "-MAP",
			"-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "key only pair in flow sequence",
		input: "[? x]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "+MAP {}", "=VAL :x", "=VAL :", "-MAP",
			"-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "value only pair in flow sequence",
		input: "[: x]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "+MAP {}", "=VAL :", "=VAL :x", "-MAP",
			"-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "json style adjacent colon",
		input: "{\"a\":1}\n",
		events: []string{
			"+STR", "+DOC", "+MAP {}", "=VAL \"a", "=VAL :1", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:   "anchored scalar",
		input:  "&x a\n",
		events: []string{"+STR", "+DOC", "=VAL &x :a", "-DOC", "-STR"},
	},
	{
		name:  "anchor and alias in flow sequence",
		input: "[&a 1, *a]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "=VAL &a :1", "=ALI *a", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "anchor and alias in block sequence",
		input: "- &a b\n- *a\n",
		events: []string{
			"+STR", "+DOC", "+SEQ", "=VAL &a :b", "=ALI *a", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "anchored empty scalar in flow sequence",
		input: "[&a]\n",
		events: []string{
			"+STR", "+DOC", "+SEQ []", "=VAL &a :", "-SEQ", "-DOC", "-STR",
		},
	},
	{
		name:  "anchor on implicit mapping key",
		input: "&a x: y\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL &a :x", "=VAL :y", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "anchor on mapping from header line",
		input: "&m\na: b\n",
		events: []string{
			"+STR", "+DOC", "+MAP &m", "=VAL :a", "=VAL :b", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:   "anchor on sequence from header line",
		input:  "&seq\n- a\n",
		events: []string{"+STR", "+DOC", "+SEQ &seq", "=VAL :a", "-SEQ", "-DOC", "-STR"},
	},
	{
		name:   "secondary handle tag",
		input:  "!!str a\n",
		events: []string{"+STR", "+DOC", "=VAL <tag:yaml.org,2002:str> :a", "-DOC", "-STR"},
	},
	{
		name:   "non-specific tag",
		input:  "! a\n",
		events: []string{"+STR", "+DOC", "=VAL <!> :a", "-DOC", "-STR"},
	},
	{
		name:   "primary handle local tag",
		input:  "!local a\n",
		events: []string{"+STR", "+DOC", "=VAL <!local> :a", "-DOC", "-STR"},
	},
	{
		name:   "verbatim tag",
		input:  "!<tag:example.com,2000:x> a\n",
		events: []string{"+STR", "+DOC", "=VAL <tag:example.com,2000:x> :a", "-DOC", "-STR"},
	},
	{
		name:  "tag on mapping from header line",
		input: "!!map\na: b\n",
		events: []string{
			"+STR", "+DOC", "+MAP <tag:yaml.org,2002:map>", "=VAL :a", "=VAL :b",
			"-MAP", "-DOC", "-STR",
		},
	},
	{
		name:   "yaml directive",
		input:  "%YAML 1.2\n---\na\n",
		events: []string{"+STR", "+DOC ---", "=VAL :a", "-DOC", "-STR"},
	},
	{
		name:  "tag directive with named handle",
		input: "%TAG !e! tag:example.com,2000:app/\n---\n!e!foo bar\n",
		events: []string{
			"+STR", "+DOC ---", "=VAL <tag:example.com,2000:app/foo> :bar",
			"-DOC", "-STR",
		},
	},
	{
		name:  "multiple documents",
		input: "a\n---\nb\n...\n",
		events: []string{
			"+STR", "+DOC", "=VAL :a", "-DOC", "+DOC ---", "=VAL :b", "-DOC ...",
			"-STR",
		},
	},
	{
		name:  "document end then new directives",
		input: "---\na\n...\n%YAML 1.2\n---\nb\n",
		events: []string{
			"+STR", "+DOC ---", "=VAL :a", "-DOC ...", "+DOC ---", "=VAL :b",
			"-DOC", "-STR",
		},
	},
	{
		name:   "single quoted with escaped quote",
		input:  "'it''s'\n",
		events: []string{"+STR", "+DOC", "=VAL 'it's", "-DOC", "-STR"},
	},
	{
		name:   "single quoted multiline folds",
		input:  "'a\n b'\n",
		events: []string{"+STR", "+DOC", "=VAL 'a b", "-DOC", "-STR"},
	},
	{
		name:   "double quoted escapes",
		input:  "\"a\\tb\\u0041\"\n",
		events: []string{"+STR", "+DOC", "=VAL \"a\\tbA", "-DOC", "-STR"},
	},
	{
		name:   "double quoted empty",
		input:  "\"\"\n",
		events: []string{"+STR", "+DOC", "=VAL \"", "-DOC", "-STR"},
	},
	{
		name:  "literal block scalar",
		input: "a: |\n  text\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL |text\\n", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:   "literal block scalar at root",
		input:  "|\n  line1\n  line2\n",
		events: []string{"+STR", "+DOC", "=VAL |line1\\nline2\\n", "-DOC", "-STR"},
	},
	{
		name:   "folded block scalar",
		input:  ">\n a\n b\n",
		events: []string{"+STR", "+DOC", "=VAL >a b\\n", "-DOC", "-STR"},
	},
	{
		name:   "folded block scalar stripped",
		input:  ">-\n a\n b\n",
		events: []string{"+STR", "+DOC", "=VAL >a b", "-DOC", "-STR"},
	},
	{
		name:   "literal block scalar kept",
		input:  "|+\n a\n\n",
		events: []string{"+STR", "+DOC", "=VAL |a\\n\\n", "-DOC", "-STR"},
	},
	{
		name:   "folded with blank line",
		input:  ">\n a\n\n b\n",
		events: []string{"+STR", "+DOC", "=VAL >a\\nb\\n", "-DOC", "-STR"},
	},
	{
		name:  "comment after value",
		input: "a: b # trailing comment\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :b", "-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "comment between entries",
		input: "a: b\n# note\nc: d\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "=VAL :b", "=VAL :c", "=VAL :d",
			"-MAP", "-DOC", "-STR",
		},
	},
	{
		name:  "dedent closes nested mappings",
		input: "a:\n  b:\n    c: 1\nd: 2\n",
		events: []string{
			"+STR", "+DOC", "+MAP", "=VAL :a", "+MAP", "=VAL :b", "+MAP",
			"=VAL :c", "=VAL :1", "-MAP", "-MAP", "=VAL :d", "=VAL :2", "-MAP",
			"-DOC", "-STR",
		},
	},
}

func TestParserEvents(t *testing.T) {
	for _, tc := range eventTests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EventStrings([]byte(tc.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.events, got); diff != "" {
				t.Fatalf("event stream mismatch (-want +got):\n%s\nparsed stream:\n%s",
					diff, spew.Sdump(got))
			}
		})
	}
}

var errorTests = []struct {
	name     string
	input    string
	contains string
	line     int // 0 means unchecked
	column   int
}{
	{
		name:     "sequence item inside implicit mapping",
		input:    "a: b\n - c\n",
		contains: "Unexpected token",
		line:     2,
		column:   2,
	},
	{
		name:     "multiline implicit key",
		input:    "a\nb: c\n",
		contains: "implicit mapping key",
		line:     1,
		column:   1,
	},
	{
		name:     "duplicate yaml directive",
		input:    "%YAML 1.2\n%YAML 1.2\n---\n",
		contains: "duplicate %YAML directive",
	},
	{
		name:     "content after directives without marker",
		input:    "%YAML 1.2\na\n",
		contains: "Unexpected token",
	},
	{
		name:     "unknown tag handle",
		input:    "!x!foo a\n",
		contains: "unknown tag handle !x!",
	},
	{
		name:     "two anchors on one node",
		input:    "&a &b x\n",
		contains: "only one anchor",
	},
	{
		name:     "two tags on one node",
		input:    "!!str !!int x\n",
		contains: "only one tag",
	},
	{
		name:     "alias with properties",
		input:    "&b *a\n",
		contains: "alias node may not have any node properties",
	},
	{
		name:     "unclosed flow sequence",
		input:    "[a\n",
		contains: "end of stream",
	},
	{
		name:     "unclosed flow mapping",
		input:    "{a: b\n",
		contains: "end of stream",
	},
	{
		name:     "mismatched flow brackets",
		input:    "[a}\n",
		contains: "Unexpected token",
	},
	{
		name:     "unterminated single quoted scalar",
		input:    "'abc\n",
		contains: "unterminated single-quoted scalar",
	},
	{
		name:     "unterminated double quoted scalar",
		input:    "\"abc\n",
		contains: "unterminated double-quoted scalar",
	},
	{
		name:     "invalid escape",
		input:    "\"a\\qb\"\n",
		contains: "invalid escape character",
	},
	{
		name:     "tab indentation",
		input:    "a:\n\tb: c\n",
		contains: "tab character may not be used for indentation",
	},
	{
		name:     "mapping key without value indicator",
		input:    "a: b\nc\n",
		contains: "Unexpected token (expected ':')",
	},
	{
		name:     "content after flow collection",
		input:    "{a: b} c\n",
		contains: "Unexpected token",
	},
	{
		name:     "reserved indicator",
		input:    "@foo\n",
		contains: "reserved indicator",
	},
	{
		name:     "block scalar in flow",
		input:    "[|\n a\n]\n",
		contains: "block scalar is not allowed",
	},
}

func TestParserErrors(t *testing.T) {
	for _, tc := range errorTests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EventStrings([]byte(tc.input))
			require.Error(t, err)
			perr, ok := err.(*ParserError)
			require.True(t, ok, "expected *ParserError, got %T: %v", err, err)
			assert.Contains(t, perr.Msg, tc.contains)
			if tc.line > 0 {
				assert.Equal(t, tc.line, perr.Mark.Line)
			}
			if tc.column > 0 {
				assert.Equal(t, tc.column, perr.Mark.Column)
			}
		})
	}
}

func TestParserErrorSnippet(t *testing.T) {
	_, err := EventStrings([]byte("a: b\n - c\n"))
	require.Error(t, err)
	perr, ok := err.(*ParserError)
	require.True(t, ok)
	require.NotEmpty(t, perr.Snippet)
	lines := strings.Split(perr.Snippet, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, " - c", lines[0])
	assert.Equal(t, " ^", lines[1])
}

func TestParserErrorIsSticky(t *testing.T) {
	p := NewParser(strings.NewReader("[a\n"))
	var firstErr error
	for i := 0; i < 20; i++ {
		_, err := p.Next()
		if err != nil {
			firstErr = err
			break
		}
	}
	require.Error(t, firstErr)
	_, err := p.Next()
	assert.Equal(t, firstErr, err)
}

func TestPeekMatchesNext(t *testing.T) {
	p := NewParser(strings.NewReader("a: [1, 2]\n"))
	for {
		peeked, perr := p.Peek()
		next, nerr := p.Next()
		require.Equal(t, perr, nerr)
		if perr != nil {
			break
		}
		assert.Equal(t, peeked, next)
		if next.Kind == EndStream {
			break
		}
	}
}

func TestParserVersionAndWarnings(t *testing.T) {
	var warnings []string
	log := funcr.New(func(prefix, args string) {
		warnings = append(warnings, args)
	}, funcr.Options{})

	events, err := EventStrings(
		[]byte("%YAML 1.1\n---\nx\n"),
		WithWarningLogger(log),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"+STR", "+DOC ---", "=VAL :x", "-DOC", "-STR"}, events)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unsupported YAML version")
}

func TestParserUnknownDirectiveWarns(t *testing.T) {
	var warnings []string
	log := funcr.New(func(prefix, args string) {
		warnings = append(warnings, args)
	}, funcr.Options{})

	events, err := EventStrings([]byte("%FOO bar baz\n---\nx\n"), WithWarningLogger(log))
	require.NoError(t, err)
	assert.Equal(t, []string{"+STR", "+DOC ---", "=VAL :x", "-DOC", "-STR"}, events)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unknown directive")
}

func TestParserStartDocVersion(t *testing.T) {
	events, err := Events([]byte("%YAML 1.2\n---\na\n"))
	require.NoError(t, err)
	var start *Event
	for i := range events {
		if events[i].Kind == StartDoc {
			start = &events[i]
			break
		}
	}
	require.NotNil(t, start)
	assert.True(t, start.Explicit)
	assert.Equal(t, "1.2", start.Version)
}

func TestParserKnownAnchor(t *testing.T) {
	p := NewParser(strings.NewReader("&x a\n"))
	for {
		ev, err := p.Next()
		require.NoError(t, err)
		if ev.Kind == Scalar {
			break
		}
	}
	assert.True(t, p.KnownAnchor("x"))
	assert.False(t, p.KnownAnchor("y"))
}

func TestParserScalarStyles(t *testing.T) {
	events, err := Events([]byte("- plain\n- 'single'\n- \"double\"\n- |\n  lit\n- >\n  fold\n"))
	require.NoError(t, err)
	var styles []ScalarStyle
	for _, ev := range events {
		if ev.Kind == Scalar {
			styles = append(styles, ev.ScalarStyle)
		}
	}
	assert.Equal(t, []ScalarStyle{
		PlainScalar, SingleQuotedScalar, DoubleQuotedScalar, LiteralScalar, FoldedScalar,
	}, styles)
}

func TestTagHandleResetBetweenDocuments(t *testing.T) {
	// The %TAG registration is scoped to its document; the second document
	// must not see the handle.
	_, err := EventStrings([]byte("%TAG !e! tag:x/\n---\n!e!a v\n...\n---\n!e!a w\n"))
	require.Error(t, err)
	assert.Contains(t, err.(*ParserError).Msg, "unknown tag handle !e!")
}
