// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

// parserState is one transition of the push-down automaton. It either emits
// an event (returns true), rearranges the level stack without emitting
// (returns false; the driver re-enters the new top state), or fails.
type parserState func(p *Parser, e *Event) (bool, error)

type levelKind int8

const (
	lvRoot levelKind = iota
	lvDoc
	lvNode
	lvProps
	lvSeq
	lvMap      // block mapping cycling through its keys
	lvMapValue // block mapping waiting for an explicit key's value
	lvFlowSeq
	lvFlowMap
	lvFlowNode
	lvPair // single-pair mapping synthesized inside a flow sequence
)

// level is one frame of the parser's configuration: the state to run and the
// column owning the structural context (-1 while undecided). Indentation of
// undecided frames is never compared; collection frames fix it on creation.
type level struct {
	state       parserState
	kind        levelKind
	indentation int
}

// Parser produces the event stream for one YAML character stream. It owns
// its lexer and level stack and borrows the tag library, which may be shared
// across sequential parses.
type Parser struct {
	lex    *lexer
	tok    token
	levels []level

	// cached backs Peek; pending is the one-slot buffer a transition uses to
	// emit a second event, which is how an implicit block mapping opens
	// around an already-produced key scalar.
	cached  *Event
	pending *Event

	// Properties waiting for their node. Header properties stand on an
	// earlier line than the node they describe; inline properties share its
	// line.
	headerProps Properties
	headerStart Mark
	inlineProps Properties
	inlineStart Mark

	// blockIndentation is the column of the most recent indentation token.
	blockIndentation int

	tags           *TagLibrary
	defaultHandles map[string]string
	warn           logr.Logger

	version        string
	seenYamlDir    bool
	haveDirectives bool
	docStart       Mark

	anchors map[string]struct{}

	done   bool
	failed error
}

// Option configures a Parser.
type Option func(*Parser)

// WithTagLibrary makes the parser resolve tags through lib instead of a
// fresh CoreTagLibrary.
func WithTagLibrary(lib *TagLibrary) Option {
	return func(p *Parser) { p.tags = lib }
}

// WithWarningLogger directs parser warnings (unsupported %YAML versions,
// unknown directives) to log. Warnings never stop the parse.
func WithWarningLogger(log logr.Logger) Option {
	return func(p *Parser) { p.warn = log }
}

// NewParser returns a parser reading from r. The input must be UTF-8; a
// leading byte order mark is tolerated.
func NewParser(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		lex:     newLexer(r),
		warn:    logr.Discard(),
		anchors: map[string]struct{}{},
	}
	for _, o := range opts {
		o(p)
	}
	if p.tags == nil {
		p.tags = CoreTagLibrary()
	}
	p.defaultHandles = p.tags.Handles()
	p.levels = []level{{state: atStreamStart, kind: lvRoot, indentation: -1}}
	return p
}

// TagLibrary returns the library the parser resolves tags through.
func (p *Parser) TagLibrary() *TagLibrary { return p.tags }

// Version reports the %YAML directive of the document currently being
// parsed, or "" if it has none.
func (p *Parser) Version() string { return p.version }

// KnownAnchor reports whether an anchor of that name has been declared in
// the current document. The parser never resolves aliases itself; callers
// implementing resolution can use this to reject unknown targets.
func (p *Parser) KnownAnchor(name string) bool {
	_, ok := p.anchors[name]
	return ok
}

// Next returns the next event. After the EndStream event it returns io.EOF;
// after a parse error it keeps returning that error.
func (p *Parser) Next() (Event, error) {
	if p.failed != nil {
		return Event{}, p.failed
	}
	if p.cached != nil {
		e := *p.cached
		p.cached = nil
		return e, nil
	}
	return p.produce()
}

// Peek returns the next event without consuming it.
func (p *Parser) Peek() (Event, error) {
	if p.failed != nil {
		return Event{}, p.failed
	}
	if p.cached == nil {
		e, err := p.produce()
		if err != nil {
			return Event{}, err
		}
		p.cached = &e
	}
	return *p.cached, nil
}

func (p *Parser) produce() (Event, error) {
	if p.pending != nil {
		e := *p.pending
		p.pending = nil
		return e, nil
	}
	if p.done {
		return Event{}, io.EOF
	}
	for {
		if len(p.levels) == 0 {
			err := p.internalError("level stack underflow")
			p.failed = err
			return Event{}, err
		}
		st := p.levels[len(p.levels)-1].state
		var e Event
		produced, err := st(p, &e)
		if err != nil {
			p.failed = err
			return Event{}, err
		}
		if produced {
			return e, nil
		}
	}
}

func (p *Parser) top() *level { return &p.levels[len(p.levels)-1] }

func (p *Parser) push(s parserState, kind levelKind, indent int) {
	p.levels = append(p.levels, level{state: s, kind: kind, indentation: indent})
}

func (p *Parser) popLevel() { p.levels = p.levels[:len(p.levels)-1] }

// removeBelow drops the frame directly beneath the top one; the way
// beforeBlockIndentation closes the contexts a dedent ends.
func (p *Parser) removeBelow() {
	n := len(p.levels)
	p.levels[n-2] = p.levels[n-1]
	p.levels = p.levels[:n-1]
}

// innermostBlockIndent is the indentation threshold signaled to the lexer:
// the column of the innermost open block collection, -1 outside any.
func (p *Parser) innermostBlockIndent() int {
	for i := len(p.levels) - 1; i >= 0; i-- {
		switch p.levels[i].kind {
		case lvSeq, lvMap, lvMapValue:
			return p.levels[i].indentation
		}
	}
	return -1
}

// advance fetches the next token.
func (p *Parser) advance() error {
	p.lex.setBlockIndent(p.innermostBlockIndent())
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	if t.kind == tkIndentation {
		p.blockIndentation = t.indent
	}
	return nil
}

func (p *Parser) parseErrorAt(m Mark, format string, args ...interface{}) error {
	return &ParserError{
		Msg:     fmt.Sprintf(format, args...),
		Mark:    m,
		Snippet: p.lex.snippet(m),
	}
}

func (p *Parser) unexpected(expected string) error {
	return p.parseErrorAt(p.tok.start, "Unexpected token (expected %s): %s", expected, p.tok.kind)
}

func (p *Parser) internalError(msg string) error {
	return p.parseErrorAt(p.tok.start, "internal: %s, please report this bug", msg)
}

func (p *Parser) warnAt(m Mark, msg string, kv ...interface{}) {
	p.warn.Info(msg, append([]interface{}{"line", m.Line, "column", m.Column}, kv...)...)
}

// nodeStart is the start mark of the node about to be emitted: the position
// of its first property if any, otherwise def.
func (p *Parser) nodeStart(def Mark) Mark {
	if p.headerProps.IsSet() {
		return p.headerStart
	}
	if p.inlineProps.IsSet() {
		return p.inlineStart
	}
	return def
}

func (p *Parser) takeHeader() Properties {
	pr := p.headerProps
	p.headerProps = Properties{}
	return pr
}

func (p *Parser) takeInline() Properties {
	pr := p.inlineProps
	p.inlineProps = Properties{}
	return pr
}

// takeMergedProps combines header and inline properties for a node that
// consumes both, enforcing the one-anchor-one-tag invariant.
func (p *Parser) takeMergedProps(at Mark) (Properties, error) {
	h := p.takeHeader()
	i := p.takeInline()
	if h.Anchor != "" && i.Anchor != "" {
		return Properties{}, p.parseErrorAt(at, "only one anchor is allowed per node")
	}
	if h.Tag != TagQuestionMark && i.Tag != TagQuestionMark {
		return Properties{}, p.parseErrorAt(at, "only one tag is allowed per node")
	}
	if i.Anchor != "" {
		h.Anchor = i.Anchor
	}
	if i.Tag != TagQuestionMark {
		h.Tag = i.Tag
	}
	return h, nil
}

func (p *Parser) checkAliasProps(at Mark) error {
	if p.headerProps.IsSet() || p.inlineProps.IsSet() {
		return p.parseErrorAt(at, "an alias node may not have any node properties")
	}
	return nil
}

func scalarEvent(t token, props Properties) Event {
	return Event{
		Kind:        Scalar,
		Start:       t.start,
		End:         t.end,
		Value:       t.value,
		ScalarStyle: scalarStyleOf(t.kind),
		Props:       props,
	}
}

func emptyScalarAt(m Mark, props Properties) Event {
	return Event{Kind: Scalar, Start: m, End: m, ScalarStyle: PlainScalar, Props: props}
}

// resolveTag expands handle+suffix through the tag library. A lone "!" is
// the explicit non-specific tag.
func (p *Parser) resolveTag(at Mark, handle, suffix string) (TagID, error) {
	if handle == "!" && suffix == "" {
		return TagExclamationMark, nil
	}
	prefix := p.tags.Resolve(handle)
	if prefix == "" {
		return 0, p.parseErrorAt(at, "unknown tag handle %s", handle)
	}
	return p.tags.RegisterURI(prefix + suffix), nil
}

func (p *Parser) resetDocState() {
	p.version = ""
	p.seenYamlDir = false
	p.haveDirectives = false
	p.tags.setHandles(p.defaultHandles)
}

// --- stream and document states ---

func atStreamStart(p *Parser, e *Event) (bool, error) {
	if err := p.advance(); err != nil {
		return false, err
	}
	p.top().state = atStreamEnd
	p.push(beforeDoc, lvDoc, -1)
	origin := Mark{Line: 1, Column: 1}
	*e = Event{Kind: StartStream, Start: origin, End: origin}
	return true, nil
}

func atStreamEnd(p *Parser, e *Event) (bool, error) {
	if p.tok.kind != tkStreamEnd {
		return false, p.internalError("expected end of stream")
	}
	*e = Event{Kind: EndStream, Start: p.tok.start, End: p.tok.end}
	p.done = true
	return true, nil
}

// beforeDoc consumes the directives of the next document and emits its
// StartDoc, or pops at the end of the stream.
func beforeDoc(p *Parser, e *Event) (bool, error) {
	for {
		t := p.tok
		switch t.kind {
		case tkStreamEnd:
			p.popLevel()
			return false, nil

		case tkDocumentEnd:
			// A stray "..." before any document content; nothing to end.
			if err := p.advance(); err != nil {
				return false, err
			}

		case tkDirectivesEnd:
			start := t.start
			if p.haveDirectives {
				start = p.docStart
			}
			p.anchors = map[string]struct{}{}
			p.top().state = beforeDocEnd
			p.push(afterDirectivesEnd, lvNode, -1)
			if err := p.advance(); err != nil {
				return false, err
			}
			*e = Event{Kind: StartDoc, Explicit: true, Version: p.version, Start: start, End: t.end}
			return true, nil

		case tkYamlDirective:
			if p.seenYamlDir {
				return false, p.parseErrorAt(t.start, "duplicate %%YAML directive")
			}
			p.seenYamlDir = true
			p.noteDirective(t.start)
			if err := p.advance(); err != nil {
				return false, err
			}
			if p.tok.kind != tkDirectiveParam {
				return false, p.unexpected("version parameter")
			}
			v := p.tok.value
			if !validYamlVersion(v) {
				return false, p.parseErrorAt(p.tok.start, "invalid YAML version: %q", v)
			}
			if v != "1.2" {
				p.warnAt(p.tok.start, "unsupported YAML version, parsing with 1.2 semantics", "version", v)
			}
			p.version = v
			if err := p.advance(); err != nil {
				return false, err
			}

		case tkTagDirective:
			p.noteDirective(t.start)
			if err := p.advance(); err != nil {
				return false, err
			}
			if p.tok.kind != tkTagHandle {
				return false, p.unexpected("tag handle")
			}
			handle := p.tok.value
			if err := p.advance(); err != nil {
				return false, err
			}
			if p.tok.kind != tkSuffix {
				return false, p.unexpected("tag prefix")
			}
			p.tags.RegisterHandle(handle, p.tok.value)
			if err := p.advance(); err != nil {
				return false, err
			}

		case tkUnknownDirective:
			p.noteDirective(t.start)
			p.warnAt(t.start, "ignoring unknown directive", "directive", t.value)
			if err := p.advance(); err != nil {
				return false, err
			}
			for p.tok.kind == tkDirectiveParam {
				if err := p.advance(); err != nil {
					return false, err
				}
			}

		case tkIndentation:
			if p.haveDirectives {
				return false, p.unexpected("'---' after directives")
			}
			p.anchors = map[string]struct{}{}
			p.top().state = beforeDocEnd
			p.push(beforeImplicitRoot, lvNode, -1)
			if err := p.advance(); err != nil {
				return false, err
			}
			*e = Event{Kind: StartDoc, Version: p.version, Start: t.start, End: t.start}
			return true, nil

		default:
			return false, p.unexpected("'---', directive or document content")
		}
	}
}

func (p *Parser) noteDirective(at Mark) {
	if !p.haveDirectives {
		p.haveDirectives = true
		p.docStart = at
	}
}

func validYamlVersion(v string) bool {
	dot := -1
	for i, c := range v {
		if c == '.' {
			if dot >= 0 {
				return false
			}
			dot = i
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return dot > 0 && dot < len(v)-1
}

// beforeDocEnd closes the current document: explicitly on "...", implicitly
// at the end of the stream or before the next "---".
func beforeDocEnd(p *Parser, e *Event) (bool, error) {
	t := p.tok
	switch t.kind {
	case tkDocumentEnd:
		p.resetDocState()
		p.top().state = beforeDoc
		if err := p.advance(); err != nil {
			return false, err
		}
		*e = Event{Kind: EndDoc, Explicit: true, Start: t.start, End: t.end}
		return true, nil
	case tkStreamEnd:
		p.resetDocState()
		p.popLevel()
		*e = Event{Kind: EndDoc, Start: t.start, End: t.start}
		return true, nil
	case tkDirectivesEnd:
		p.resetDocState()
		p.top().state = beforeDoc
		*e = Event{Kind: EndDoc, Start: t.start, End: t.start}
		return true, nil
	default:
		return false, p.unexpected("end of document")
	}
}

// --- block context states ---

// afterDirectivesEnd parses the root node of an explicit document,
// which may sit on the "---" line itself or on the following lines.
func afterDirectivesEnd(p *Parser, e *Event) (bool, error) {
	if isNodePropertyToken(p.tok.kind) {
		ind := p.top().indentation
		p.top().state = requireInlineBlockItem
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	}
	return compactItemDispatch(p, e)
}

// beforeImplicitRoot dispatches on the first content token of a document
// that has no "---" line.
func beforeImplicitRoot(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	switch {
	case p.tok.kind == tkSeqItemInd || p.tok.kind == tkMapKeyInd || p.tok.kind == tkMapValueInd:
		lvl.state = atBlockIndentation
		return false, nil
	case isNodePropertyToken(p.tok.kind):
		ind := lvl.indentation
		lvl.state = requireImplicitMapStart
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	default:
		lvl.state = requireImplicitMapStart
		return false, nil
	}
}

// requireImplicitMapStart handles root content that begins with a scalar or
// with properties: a following ": " retroactively opens a mapping around it.
func requireImplicitMapStart(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch {
	case t.kind == tkIndentation:
		if err := p.advance(); err != nil {
			return false, err
		}
		lvl.state = atBlockIndentation
		return false, nil
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, lvl.indentation)
		return false, nil
	case isScalarToken(t.kind):
		return p.scalarOrImplicitMap(e)
	case t.kind == tkAlias:
		return p.aliasOrImplicitMap(e)
	case t.kind == tkSeqItemInd || t.kind == tkMapKeyInd || t.kind == tkMapValueInd:
		lvl.state = atBlockIndentation
		return false, nil
	case t.kind == tkSeqStart:
		return p.startFlowSeq(e)
	case t.kind == tkMapStart:
		return p.startFlowMap(e)
	case t.kind == tkStreamEnd || t.kind == tkDocumentEnd || t.kind == tkDirectivesEnd:
		return p.emitEmptyNode(e)
	default:
		return false, p.unexpected("node content")
	}
}

// atBlockIndentation handles a line at the indentation of a block node yet
// to be decided: a sequence item, an explicit or implicit mapping key, a
// flow collection, or a scalar.
func atBlockIndentation(p *Parser, e *Event) (bool, error) {
	if isNodePropertyToken(p.tok.kind) {
		ind := p.top().indentation
		p.top().state = atBlockIndentationProps
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	}
	return blockIndentationDispatch(p, e)
}

func atBlockIndentationProps(p *Parser, e *Event) (bool, error) {
	return blockIndentationDispatch(p, e)
}

func blockIndentationDispatch(p *Parser, e *Event) (bool, error) {
	t := p.tok
	switch {
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, p.top().indentation)
		return false, nil
	case t.kind == tkSeqItemInd:
		return p.startBlockSeq(e)
	case t.kind == tkMapKeyInd:
		return p.startExplicitMap(e)
	case t.kind == tkMapValueInd:
		return p.startEmptyKeyMap(e)
	case isScalarToken(t.kind):
		return p.scalarOrImplicitMap(e)
	case t.kind == tkAlias:
		return p.aliasOrImplicitMap(e)
	case t.kind == tkSeqStart:
		return p.startFlowSeq(e)
	case t.kind == tkMapStart:
		return p.startFlowMap(e)
	case t.kind == tkIndentation:
		if err := p.advance(); err != nil {
			return false, err
		}
		return false, nil
	case t.kind == tkStreamEnd || t.kind == tkDocumentEnd || t.kind == tkDirectivesEnd:
		return p.emitEmptyNode(e)
	default:
		return false, p.unexpected("node content")
	}
}

// afterCompactParent parses a nested block node that shares a line with its
// parent indicator ("- ", "? ", ": ").
func afterCompactParent(p *Parser, e *Event) (bool, error) {
	if isNodePropertyToken(p.tok.kind) {
		ind := p.top().indentation
		p.top().state = afterCompactParentProps
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	}
	return compactItemDispatch(p, e)
}

func afterCompactParentProps(p *Parser, e *Event) (bool, error) {
	return compactItemDispatch(p, e)
}

// requireInlineBlockItem parses the node expected after properties on a
// document start line.
func requireInlineBlockItem(p *Parser, e *Event) (bool, error) {
	return compactItemDispatch(p, e)
}

func compactItemDispatch(p *Parser, e *Event) (bool, error) {
	t := p.tok
	switch {
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, p.top().indentation)
		return false, nil
	case t.kind == tkSeqItemInd:
		return p.startBlockSeq(e)
	case t.kind == tkMapKeyInd:
		return p.startExplicitMap(e)
	case t.kind == tkMapValueInd:
		return p.startEmptyKeyMap(e)
	case isScalarToken(t.kind):
		return p.scalarOrImplicitMap(e)
	case t.kind == tkAlias:
		return p.aliasOrImplicitMap(e)
	case t.kind == tkSeqStart:
		return p.startFlowSeq(e)
	case t.kind == tkMapStart:
		return p.startFlowMap(e)
	case t.kind == tkIndentation:
		return p.nodeOnNextLine(e)
	case t.kind == tkStreamEnd || t.kind == tkDocumentEnd || t.kind == tkDirectivesEnd:
		return p.emitEmptyNode(e)
	default:
		return false, p.unexpected("node content")
	}
}

// nodeOnNextLine decides what a line break after a parent indicator means:
// a node on the deeper line, a compact sequence sharing the mapping's
// column, or no node at all.
func (p *Parser) nodeOnNextLine(e *Event) (bool, error) {
	lvl := p.top()
	parent := lvl.indentation
	if err := p.advance(); err != nil {
		return false, err
	}
	if parent < 0 || p.blockIndentation > parent {
		lvl.state = atBlockIndentation
		return false, nil
	}
	if p.blockIndentation == parent && p.tok.kind == tkSeqItemInd && len(p.levels) >= 2 {
		below := p.levels[len(p.levels)-2]
		if (below.kind == lvMap || below.kind == lvMapValue) && below.indentation == parent {
			// A block sequence may share its column with the mapping it is
			// the value of.
			lvl.state = atBlockIndentation
			return false, nil
		}
	}
	return p.emitEmptyNode(e)
}

// emitEmptyNode produces the empty scalar a missing node stands for.
func (p *Parser) emitEmptyNode(e *Event) (bool, error) {
	at := p.tok.start
	start := p.nodeStart(at)
	props, err := p.takeMergedProps(at)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = beforeBlockIndentation
	lvl.kind = lvNode
	*e = emptyScalarAt(start, props)
	return true, nil
}

func (p *Parser) startBlockSeq(e *Event) (bool, error) {
	t := p.tok
	start := p.nodeStart(t.start)
	props, err := p.takeMergedProps(t.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = inBlockSeq
	lvl.kind = lvSeq
	lvl.indentation = t.indentCol()
	p.push(afterCompactParent, lvNode, t.indentCol())
	if err := p.advance(); err != nil {
		return false, err
	}
	*e = Event{Kind: StartSeq, Style: BlockStyle, Props: props, Start: start, End: t.end}
	return true, nil
}

func (p *Parser) startExplicitMap(e *Event) (bool, error) {
	t := p.tok
	start := p.nodeStart(t.start)
	props, err := p.takeMergedProps(t.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = beforeBlockMapValue
	lvl.kind = lvMapValue
	lvl.indentation = t.indentCol()
	p.push(afterCompactParent, lvNode, t.indentCol())
	if err := p.advance(); err != nil {
		return false, err
	}
	*e = Event{Kind: StartMap, Style: BlockStyle, Props: props, Start: start, End: t.end}
	return true, nil
}

// startEmptyKeyMap opens a block mapping at a lone ": ", synthesizing the
// empty key through the peek buffer.
func (p *Parser) startEmptyKeyMap(e *Event) (bool, error) {
	t := p.tok
	start := p.nodeStart(t.start)
	mapProps := p.takeHeader()
	keyProps := p.takeInline()
	lvl := p.top()
	lvl.state = afterImplicitKey
	lvl.kind = lvMap
	lvl.indentation = t.indentCol()
	pend := emptyScalarAt(t.start, keyProps)
	p.pending = &pend
	*e = Event{Kind: StartMap, Style: BlockStyle, Props: mapProps, Start: start, End: start}
	return true, nil
}

// scalarOrImplicitMap emits a scalar node, or retroactively opens a block
// mapping around it when a ": " follows on the same line.
func (p *Parser) scalarOrImplicitMap(e *Event) (bool, error) {
	st := p.tok
	start := p.nodeStart(st.start)
	if err := p.advance(); err != nil {
		return false, err
	}
	if p.tok.kind == tkMapValueInd && isFlowScalarToken(st.kind) {
		if st.multiline {
			return false, p.parseErrorAt(st.start, "an implicit mapping key may not span multiple lines")
		}
		keyProps := p.takeInline()
		mapProps := p.takeHeader()
		lvl := p.top()
		lvl.state = afterImplicitKey
		lvl.kind = lvMap
		lvl.indentation = start.Column - 1
		pend := scalarEvent(st, keyProps)
		p.pending = &pend
		*e = Event{Kind: StartMap, Style: BlockStyle, Props: mapProps, Start: start, End: start}
		return true, nil
	}
	props, err := p.takeMergedProps(st.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = beforeBlockIndentation
	lvl.kind = lvNode
	*e = scalarEvent(st, props)
	return true, nil
}

func (p *Parser) aliasOrImplicitMap(e *Event) (bool, error) {
	st := p.tok
	if err := p.checkAliasProps(st.start); err != nil {
		return false, err
	}
	if err := p.advance(); err != nil {
		return false, err
	}
	alias := Event{Kind: Alias, Target: st.value, Start: st.start, End: st.end}
	lvl := p.top()
	if p.tok.kind == tkMapValueInd {
		lvl.state = afterImplicitKey
		lvl.kind = lvMap
		lvl.indentation = st.indentCol()
		p.pending = &alias
		*e = Event{Kind: StartMap, Style: BlockStyle, Start: st.start, End: st.start}
		return true, nil
	}
	lvl.state = beforeBlockIndentation
	lvl.kind = lvNode
	*e = alias
	return true, nil
}

// beforeNodeProperties accumulates one tag and/or one anchor, popping on the
// first token that is not a property. Properties followed by a line break
// become header properties for a node on a later line.
func beforeNodeProperties(p *Parser, e *Event) (bool, error) {
	t := p.tok
	switch t.kind {
	case tkTagHandle:
		if p.inlineProps.Tag != TagQuestionMark {
			return false, p.parseErrorAt(t.start, "only one tag is allowed per node")
		}
		handle := t.value
		if err := p.advance(); err != nil {
			return false, err
		}
		if p.tok.kind != tkSuffix {
			return false, p.internalError("tag handle without suffix")
		}
		id, err := p.resolveTag(t.start, handle, p.tok.value)
		if err != nil {
			return false, err
		}
		if !p.inlineProps.IsSet() {
			p.inlineStart = t.start
		}
		p.inlineProps.Tag = id
		return false, p.advance()
	case tkVerbatimTag:
		if p.inlineProps.Tag != TagQuestionMark {
			return false, p.parseErrorAt(t.start, "only one tag is allowed per node")
		}
		if !p.inlineProps.IsSet() {
			p.inlineStart = t.start
		}
		p.inlineProps.Tag = p.tags.RegisterURI(t.value)
		return false, p.advance()
	case tkAnchor:
		if p.inlineProps.Anchor != "" {
			return false, p.parseErrorAt(t.start, "only one anchor is allowed per node")
		}
		if !p.inlineProps.IsSet() {
			p.inlineStart = t.start
		}
		p.inlineProps.Anchor = t.value
		p.anchors[t.value] = struct{}{}
		return false, p.advance()
	case tkIndentation:
		if err := p.shiftInlineToHeader(t.start); err != nil {
			return false, err
		}
		p.popLevel()
		return false, nil
	default:
		p.popLevel()
		return false, nil
	}
}

func (p *Parser) shiftInlineToHeader(at Mark) error {
	if !p.inlineProps.IsSet() {
		return nil
	}
	if !p.headerProps.IsSet() {
		p.headerProps = p.takeInline()
		p.headerStart = p.inlineStart
		return nil
	}
	if p.headerProps.Anchor != "" && p.inlineProps.Anchor != "" {
		return p.parseErrorAt(at, "only one anchor is allowed per node")
	}
	if p.headerProps.Tag != TagQuestionMark && p.inlineProps.Tag != TagQuestionMark {
		return p.parseErrorAt(at, "only one tag is allowed per node")
	}
	i := p.takeInline()
	if i.Anchor != "" {
		p.headerProps.Anchor = i.Anchor
	}
	if i.Tag != TagQuestionMark {
		p.headerProps.Tag = i.Tag
	}
	return nil
}

// inBlockSeq continues a block sequence at its own indentation or closes it.
func inBlockSeq(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	if p.tok.kind != tkSeqItemInd {
		*e = Event{Kind: EndSeq, Start: p.tok.start, End: p.tok.start}
		p.popLevel()
		return true, nil
	}
	if p.tok.indentCol() != lvl.indentation {
		return false, p.unexpected(fmt.Sprintf("sequence item at column %d", lvl.indentation+1))
	}
	ind := lvl.indentation
	p.push(afterCompactParent, lvNode, ind)
	return false, p.advance()
}

// beforeBlockMapKey handles the key position of a block mapping.
func beforeBlockMapKey(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch {
	case t.kind == tkMapKeyInd:
		lvl.state = beforeBlockMapValue
		lvl.kind = lvMapValue
		ind := lvl.indentation
		p.push(afterCompactParent, lvNode, ind)
		return false, p.advance()
	case isNodePropertyToken(t.kind):
		ind := lvl.indentation
		lvl.state = atBlockMapKeyProps
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	case isFlowScalarToken(t.kind):
		return p.implicitKeyScalar(e)
	case t.kind == tkAlias:
		return p.implicitKeyAlias(e)
	case t.kind == tkMapValueInd:
		lvl.state = afterImplicitKey
		*e = emptyScalarAt(t.start, Properties{})
		return true, nil
	default:
		return false, p.unexpected("mapping key")
	}
}

// atBlockMapKeyProps continues a mapping key line whose properties have been
// read.
func atBlockMapKeyProps(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch {
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, lvl.indentation)
		return false, nil
	case isFlowScalarToken(t.kind):
		return p.implicitKeyScalar(e)
	case t.kind == tkAlias:
		return p.implicitKeyAlias(e)
	case t.kind == tkMapValueInd:
		start := p.nodeStart(t.start)
		props, err := p.takeMergedProps(t.start)
		if err != nil {
			return false, err
		}
		lvl.state = afterImplicitKey
		*e = emptyScalarAt(start, props)
		return true, nil
	case t.kind == tkIndentation:
		if err := p.advance(); err != nil {
			return false, err
		}
		if p.blockIndentation == lvl.indentation {
			lvl.state = beforeBlockMapKey
			return false, nil
		}
		return false, p.parseErrorAt(p.tok.start, "expected a mapping key after node properties")
	default:
		return false, p.unexpected("mapping key")
	}
}

// implicitKeyScalar emits a scalar mapping key, which must be followed by
// ": " on the same line.
func (p *Parser) implicitKeyScalar(e *Event) (bool, error) {
	st := p.tok
	start := p.nodeStart(st.start)
	if err := p.advance(); err != nil {
		return false, err
	}
	if p.tok.kind != tkMapValueInd {
		return false, p.unexpected("':'")
	}
	if st.multiline {
		return false, p.parseErrorAt(st.start, "an implicit mapping key may not span multiple lines")
	}
	props, err := p.takeMergedProps(st.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = afterImplicitKey
	ev := scalarEvent(st, props)
	ev.Start = start
	*e = ev
	return true, nil
}

func (p *Parser) implicitKeyAlias(e *Event) (bool, error) {
	st := p.tok
	if err := p.checkAliasProps(st.start); err != nil {
		return false, err
	}
	if err := p.advance(); err != nil {
		return false, err
	}
	if p.tok.kind != tkMapValueInd {
		return false, p.unexpected("':'")
	}
	p.top().state = afterImplicitKey
	*e = Event{Kind: Alias, Target: st.value, Start: st.start, End: st.end}
	return true, nil
}

// beforeBlockMapValue handles the value position of an explicit block
// mapping entry.
func beforeBlockMapValue(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch t.kind {
	case tkMapValueInd:
		lvl.state = beforeBlockMapKey
		lvl.kind = lvMap
		ind := lvl.indentation
		p.push(afterCompactParent, lvNode, ind)
		return false, p.advance()
	case tkMapKeyInd:
		// The pending explicit key has no value.
		ind := lvl.indentation
		lvl.kind = lvMapValue
		p.push(afterCompactParent, lvNode, ind)
		if err := p.advance(); err != nil {
			return false, err
		}
		*e = emptyScalarAt(t.start, Properties{})
		return true, nil
	default:
		*e = emptyScalarAt(t.start, Properties{})
		lvl.state = beforeBlockMapKey
		lvl.kind = lvMap
		return true, nil
	}
}

// afterImplicitKey crosses the ": " after a just-emitted mapping key.
func afterImplicitKey(p *Parser, e *Event) (bool, error) {
	if p.tok.kind != tkMapValueInd {
		return false, p.internalError("mapping value indicator expected")
	}
	lvl := p.top()
	lvl.state = beforeBlockMapKey
	lvl.kind = lvMap
	ind := lvl.indentation
	p.push(afterCompactParent, lvNode, ind)
	return false, p.advance()
}

// beforeBlockIndentation consumes the indentation of the next line and
// closes every block context the new column no longer belongs to. Closing a
// mapping that still waits for an explicit key's value first synthesizes the
// empty value scalar.
func beforeBlockIndentation(p *Parser, e *Event) (bool, error) {
	if p.tok.kind == tkIndentation {
		if err := p.advance(); err != nil {
			return false, err
		}
	}
	if len(p.levels) < 2 {
		return false, p.internalError("dangling indentation frame")
	}
	below := &p.levels[len(p.levels)-2]
	endOfInput := p.tok.kind == tkStreamEnd || p.tok.kind == tkDocumentEnd || p.tok.kind == tkDirectivesEnd
	switch below.kind {
	case lvSeq:
		if endOfInput || p.blockIndentation < below.indentation {
			*e = Event{Kind: EndSeq, Start: p.tok.start, End: p.tok.start}
			p.removeBelow()
			return true, nil
		}
	case lvMap:
		if endOfInput || p.blockIndentation < below.indentation {
			*e = Event{Kind: EndMap, Start: p.tok.start, End: p.tok.start}
			p.removeBelow()
			return true, nil
		}
	case lvMapValue:
		if endOfInput || p.blockIndentation < below.indentation {
			*e = emptyScalarAt(p.tok.start, Properties{})
			below.state = beforeBlockMapKey
			below.kind = lvMap
			return true, nil
		}
	}
	p.popLevel()
	return false, nil
}
