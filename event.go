// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"fmt"
	"strings"
)

// EventKind discriminates the events a Parser produces.
type EventKind int8

const (
	StartStream EventKind = iota
	EndStream
	StartDoc
	EndDoc
	StartMap
	EndMap
	StartSeq
	EndSeq
	Scalar
	Alias
)

var eventKindNames = []string{
	StartStream: "stream start",
	EndStream:   "stream end",
	StartDoc:    "document start",
	EndDoc:      "document end",
	StartMap:    "mapping start",
	EndMap:      "mapping end",
	StartSeq:    "sequence start",
	EndSeq:      "sequence end",
	Scalar:      "scalar",
	Alias:       "alias",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("event kind %d", int(k))
	}
	return eventKindNames[k]
}

// CollectionStyle tells whether a mapping or sequence was written in block
// or flow notation.
type CollectionStyle int8

const (
	BlockStyle CollectionStyle = iota
	FlowStyle
)

// ScalarStyle is the presentation style of a scalar.
type ScalarStyle int8

const (
	AnyScalarStyle ScalarStyle = iota
	PlainScalar
	SingleQuotedScalar
	DoubleQuotedScalar
	LiteralScalar
	FoldedScalar
)

func (s ScalarStyle) indicator() byte {
	switch s {
	case SingleQuotedScalar:
		return '\''
	case DoubleQuotedScalar:
		return '"'
	case LiteralScalar:
		return '|'
	case FoldedScalar:
		return '>'
	default:
		return ':'
	}
}

// Properties is the (anchor, tag) pair attached to a node. A zero Properties
// carries no anchor and the implicit tag.
type Properties struct {
	Anchor string
	Tag    TagID
}

// IsSet reports whether any property is present.
func (p Properties) IsSet() bool {
	return p.Anchor != "" || p.Tag != TagQuestionMark
}

// Event is one element of the parser's output stream. Which fields are
// meaningful depends on Kind:
//
//   - StartDoc: Explicit (a "---" line was present) and Version (the %YAML
//     directive, "" if none).
//   - EndDoc: Explicit (a "..." line was present).
//   - StartMap, StartSeq: Style and Props.
//   - Scalar: Value, ScalarStyle and Props.
//   - Alias: Target, the anchor name being referenced.
//
// Start and End delimit the event's source extent on every kind.
type Event struct {
	Kind        EventKind
	Start, End  Mark
	Props       Properties
	Style       CollectionStyle
	ScalarStyle ScalarStyle
	Value       string
	Target      string
	Explicit    bool
	Version     string
}

var shorthandEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\n", "\\n",
	"\t", "\\t",
	"\r", "\\r",
	"\b", "\\b",
)

// Shorthand renders the event in yaml-test-suite notation ("+STR",
// "+DOC ---", "=VAL &a :value", ...). Tags are printed as URIs resolved
// through lib; pass nil to print bare identifiers instead.
func (e Event) Shorthand(lib *TagLibrary) string {
	var b strings.Builder
	switch e.Kind {
	case StartStream:
		return "+STR"
	case EndStream:
		return "-STR"
	case StartDoc:
		if e.Explicit {
			return "+DOC ---"
		}
		return "+DOC"
	case EndDoc:
		if e.Explicit {
			return "-DOC ..."
		}
		return "-DOC"
	case StartMap:
		b.WriteString("+MAP")
		if e.Style == FlowStyle {
			b.WriteString(" {}")
		}
		writeShorthandProps(&b, e.Props, lib)
	case EndMap:
		return "-MAP"
	case StartSeq:
		b.WriteString("+SEQ")
		if e.Style == FlowStyle {
			b.WriteString(" []")
		}
		writeShorthandProps(&b, e.Props, lib)
	case EndSeq:
		return "-SEQ"
	case Scalar:
		b.WriteString("=VAL")
		writeShorthandProps(&b, e.Props, lib)
		b.WriteByte(' ')
		b.WriteByte(e.ScalarStyle.indicator())
		b.WriteString(shorthandEscaper.Replace(e.Value))
	case Alias:
		b.WriteString("=ALI *")
		b.WriteString(e.Target)
	}
	return b.String()
}

func writeShorthandProps(b *strings.Builder, p Properties, lib *TagLibrary) {
	if p.Anchor != "" {
		b.WriteString(" &")
		b.WriteString(p.Anchor)
	}
	switch p.Tag {
	case TagQuestionMark:
	case TagExclamationMark:
		b.WriteString(" <!>")
	default:
		if lib != nil {
			if uri, ok := lib.URI(p.Tag); ok {
				fmt.Fprintf(b, " <%s>", uri)
				return
			}
		}
		fmt.Fprintf(b, " <tag#%d>", int(p.Tag))
	}
}
