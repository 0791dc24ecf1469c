// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

// tokenKind classifies the lexer's output alphabet.
type tokenKind int8

const (
	// An empty token; never emitted.
	tkNone tokenKind = iota

	tkStreamEnd     // end of input; emitted indefinitely once reached
	tkIndentation   // start of a content line in block context
	tkDirectivesEnd // "---" at column zero
	tkDocumentEnd   // "..." at column zero

	tkYamlDirective    // "%YAML"
	tkTagDirective     // "%TAG"
	tkUnknownDirective // any other "%..." directive
	tkDirectiveParam   // one whitespace-separated directive parameter

	tkTagHandle   // "!", "!!" or "!name!"; always followed by tkSuffix
	tkSuffix      // the tag suffix after a handle, or a %TAG prefix
	tkVerbatimTag // "!<uri>"

	tkAnchor // "&name"
	tkAlias  // "*name"

	tkSeqItemInd  // "- " in block context
	tkMapKeyInd   // "? "
	tkMapValueInd // ": "

	tkMapStart // "{"
	tkMapEnd   // "}"
	tkSeqStart // "["
	tkSeqEnd   // "]"
	tkSeqSep   // "," inside a flow collection

	tkPlain
	tkSingleQuoted
	tkDoubleQuoted
	tkLiteral // "|" block scalar
	tkFolded  // ">" block scalar
)

var tokenKindNames = []string{
	tkNone:             "none",
	tkStreamEnd:        "end of stream",
	tkIndentation:      "indentation",
	tkDirectivesEnd:    "'---'",
	tkDocumentEnd:      "'...'",
	tkYamlDirective:    "%YAML",
	tkTagDirective:     "%TAG",
	tkUnknownDirective: "directive",
	tkDirectiveParam:   "directive parameter",
	tkTagHandle:        "tag handle",
	tkSuffix:           "tag suffix",
	tkVerbatimTag:      "verbatim tag",
	tkAnchor:           "anchor",
	tkAlias:            "alias",
	tkSeqItemInd:       "'-'",
	tkMapKeyInd:        "'?'",
	tkMapValueInd:      "':'",
	tkMapStart:         "'{'",
	tkMapEnd:           "'}'",
	tkSeqStart:         "'['",
	tkSeqEnd:           "']'",
	tkSeqSep:           "','",
	tkPlain:            "scalar",
	tkSingleQuoted:     "single-quoted scalar",
	tkDoubleQuoted:     "double-quoted scalar",
	tkLiteral:          "block scalar",
	tkFolded:           "block scalar",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "unknown token"
	}
	return tokenKindNames[k]
}

// token is one lexical unit. value holds the evaluated content for scalars
// (escapes resolved, folding applied), the name for anchors and aliases, the
// handle or suffix text for tags, and the word for directive parameters.
type token struct {
	kind       tokenKind
	start, end Mark
	value      string
	indent     int  // tkIndentation: column of the first non-blank
	multiline  bool // scalar spanned more than one source line
}

// indentCol is the token's 0-based start column, the unit the parser's
// indentation algebra works in.
func (t token) indentCol() int { return t.start.Column - 1 }

func isNodePropertyToken(k tokenKind) bool {
	return k == tkTagHandle || k == tkVerbatimTag || k == tkAnchor
}

func isScalarToken(k tokenKind) bool {
	switch k {
	case tkPlain, tkSingleQuoted, tkDoubleQuoted, tkLiteral, tkFolded:
		return true
	}
	return false
}

// isFlowScalarToken reports the scalar kinds that may serve as implicit
// mapping keys; block scalars never can.
func isFlowScalarToken(k tokenKind) bool {
	return k == tkPlain || k == tkSingleQuoted || k == tkDoubleQuoted
}

func scalarStyleOf(k tokenKind) ScalarStyle {
	switch k {
	case tkSingleQuoted:
		return SingleQuotedScalar
	case tkDoubleQuoted:
		return DoubleQuotedScalar
	case tkLiteral:
		return LiteralScalar
	case tkFolded:
		return FoldedScalar
	default:
		return PlainScalar
	}
}
