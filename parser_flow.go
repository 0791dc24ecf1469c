// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

// The flow sub-automaton. Flow collections replace the node frame they
// start in; when the outermost one closes, the frame turns back into block
// line handling. Single-pair mappings inside flow sequences ("[a: b]") get
// their own pair frames because YAML admits them without braces.

func (p *Parser) startFlowSeq(e *Event) (bool, error) {
	t := p.tok
	start := p.nodeStart(t.start)
	props, err := p.takeMergedProps(t.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = afterFlowSeqSep
	lvl.kind = lvFlowSeq
	if err := p.advance(); err != nil {
		return false, err
	}
	*e = Event{Kind: StartSeq, Style: FlowStyle, Props: props, Start: start, End: t.end}
	return true, nil
}

func (p *Parser) startFlowMap(e *Event) (bool, error) {
	t := p.tok
	start := p.nodeStart(t.start)
	props, err := p.takeMergedProps(t.start)
	if err != nil {
		return false, err
	}
	lvl := p.top()
	lvl.state = afterFlowMapSep
	lvl.kind = lvFlowMap
	if err := p.advance(); err != nil {
		return false, err
	}
	*e = Event{Kind: StartMap, Style: FlowStyle, Props: props, Start: start, End: t.end}
	return true, nil
}

// closeFlowFrame ends the top flow collection frame: inside an enclosing
// flow construct it pops, at the outermost level it resumes block line
// handling in place.
func (p *Parser) closeFlowFrame() {
	if len(p.levels) >= 2 {
		switch p.levels[len(p.levels)-2].kind {
		case lvFlowSeq, lvFlowMap, lvFlowNode, lvPair:
			p.popLevel()
			return
		}
	}
	lvl := p.top()
	lvl.state = beforeBlockIndentation
	lvl.kind = lvNode
}

// afterFlowSeqSep stands right after "[" or ",": an item, an empty item, or
// the end of the sequence.
func afterFlowSeqSep(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	switch p.tok.kind {
	case tkSeqEnd:
		t := p.tok
		if err := p.advance(); err != nil {
			return false, err
		}
		p.closeFlowFrame()
		*e = Event{Kind: EndSeq, Start: t.start, End: t.end}
		return true, nil
	case tkSeqSep:
		*e = emptyScalarAt(p.tok.start, Properties{})
		lvl.state = afterFlowSeqItem
		return true, nil
	default:
		lvl.state = possibleNextSequenceItem
		return false, nil
	}
}

func afterFlowSeqSepProps(p *Parser, e *Event) (bool, error) {
	return possibleNextSequenceItem(p, e)
}

// possibleNextSequenceItem handles the legal continuations of a flow
// sequence item position: a regular node, a nested key-only or value-only
// pair, or an empty item. Pairs synthesize a flow mapping on the fly.
func possibleNextSequenceItem(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch {
	case isNodePropertyToken(t.kind):
		ind := lvl.indentation
		lvl.state = afterFlowSeqSepProps
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	case t.kind == tkMapValueInd:
		ind := lvl.indentation
		lvl.state = afterFlowSeqItem
		p.push(atEmptyPairKey, lvPair, ind)
		*e = Event{Kind: StartMap, Style: FlowStyle, Start: t.start, End: t.start}
		return true, nil
	case t.kind == tkMapKeyInd:
		ind := lvl.indentation
		lvl.state = afterFlowSeqItem
		p.push(beforePairValue, lvPair, ind)
		p.push(beforeFlowItem, lvFlowNode, ind)
		if err := p.advance(); err != nil {
			return false, err
		}
		*e = Event{Kind: StartMap, Style: FlowStyle, Start: t.start, End: t.end}
		return true, nil
	case isFlowScalarToken(t.kind):
		return p.flowSeqItemScalar(e)
	case t.kind == tkAlias:
		return p.flowSeqItemAlias(e)
	case t.kind == tkSeqStart || t.kind == tkMapStart:
		ind := lvl.indentation
		lvl.state = afterFlowSeqItem
		p.push(beforeFlowItem, lvFlowNode, ind)
		return false, nil
	case t.kind == tkSeqEnd || t.kind == tkSeqSep:
		// Reached with pending properties: "[&a]" is a sequence holding an
		// anchored empty scalar.
		start := p.nodeStart(t.start)
		props, err := p.takeMergedProps(t.start)
		if err != nil {
			return false, err
		}
		lvl.state = afterFlowSeqItem
		*e = emptyScalarAt(start, props)
		return true, nil
	case t.kind == tkStreamEnd:
		return false, p.parseErrorAt(t.start, "unexpected end of stream inside flow collection")
	default:
		return false, p.unexpected("flow sequence item")
	}
}

// flowSeqItemScalar emits a scalar sequence item, or turns it into the key
// of a synthesized single-pair mapping when ": " follows.
func (p *Parser) flowSeqItemScalar(e *Event) (bool, error) {
	st := p.tok
	start := p.nodeStart(st.start)
	if err := p.advance(); err != nil {
		return false, err
	}
	lvl := p.top()
	if p.tok.kind == tkMapValueInd {
		keyProps := p.takeInline()
		ind := lvl.indentation
		lvl.state = afterFlowSeqItem
		p.push(afterImplicitPairStart, lvPair, ind)
		pend := scalarEvent(st, keyProps)
		p.pending = &pend
		*e = Event{Kind: StartMap, Style: FlowStyle, Start: start, End: start}
		return true, nil
	}
	props, err := p.takeMergedProps(st.start)
	if err != nil {
		return false, err
	}
	lvl.state = afterFlowSeqItem
	ev := scalarEvent(st, props)
	ev.Start = start
	*e = ev
	return true, nil
}

func (p *Parser) flowSeqItemAlias(e *Event) (bool, error) {
	st := p.tok
	if err := p.checkAliasProps(st.start); err != nil {
		return false, err
	}
	if err := p.advance(); err != nil {
		return false, err
	}
	lvl := p.top()
	alias := Event{Kind: Alias, Target: st.value, Start: st.start, End: st.end}
	if p.tok.kind == tkMapValueInd {
		ind := lvl.indentation
		lvl.state = afterFlowSeqItem
		p.push(afterImplicitPairStart, lvPair, ind)
		p.pending = &alias
		*e = Event{Kind: StartMap, Style: FlowStyle, Start: st.start, End: st.start}
		return true, nil
	}
	lvl.state = afterFlowSeqItem
	*e = alias
	return true, nil
}

// afterFlowSeqItem expects "," or "]" after a sequence item.
func afterFlowSeqItem(p *Parser, e *Event) (bool, error) {
	switch p.tok.kind {
	case tkSeqSep:
		p.top().state = afterFlowSeqSep
		return false, p.advance()
	case tkSeqEnd:
		t := p.tok
		if err := p.advance(); err != nil {
			return false, err
		}
		p.closeFlowFrame()
		*e = Event{Kind: EndSeq, Start: t.start, End: t.end}
		return true, nil
	case tkStreamEnd:
		return false, p.parseErrorAt(p.tok.start, "unexpected end of stream inside flow collection")
	default:
		return false, p.unexpected("',' or ']'")
	}
}

// afterFlowMapSep stands after "{" or ",": a key, an empty key, or the end
// of the mapping.
func afterFlowMapSep(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	t := p.tok
	switch {
	case t.kind == tkMapEnd:
		if err := p.advance(); err != nil {
			return false, err
		}
		p.closeFlowFrame()
		*e = Event{Kind: EndMap, Start: t.start, End: t.end}
		return true, nil
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, lvl.indentation)
		return false, nil
	case isFlowScalarToken(t.kind):
		st := t
		start := p.nodeStart(st.start)
		if err := p.advance(); err != nil {
			return false, err
		}
		props, err := p.takeMergedProps(st.start)
		if err != nil {
			return false, err
		}
		lvl.state = afterFlowMapKey
		ev := scalarEvent(st, props)
		ev.Start = start
		*e = ev
		return true, nil
	case t.kind == tkAlias:
		if err := p.checkAliasProps(t.start); err != nil {
			return false, err
		}
		if err := p.advance(); err != nil {
			return false, err
		}
		lvl.state = afterFlowMapKey
		*e = Event{Kind: Alias, Target: t.value, Start: t.start, End: t.end}
		return true, nil
	case t.kind == tkMapValueInd:
		start := p.nodeStart(t.start)
		props, err := p.takeMergedProps(t.start)
		if err != nil {
			return false, err
		}
		lvl.state = afterFlowMapKey
		*e = emptyScalarAt(start, props)
		return true, nil
	case t.kind == tkMapKeyInd:
		ind := lvl.indentation
		lvl.state = afterFlowMapKey
		p.push(beforeFlowItem, lvFlowNode, ind)
		return false, p.advance()
	case t.kind == tkSeqStart || t.kind == tkMapStart:
		ind := lvl.indentation
		lvl.state = afterFlowMapKey
		p.push(beforeFlowItem, lvFlowNode, ind)
		return false, nil
	case t.kind == tkStreamEnd:
		return false, p.parseErrorAt(t.start, "unexpected end of stream inside flow collection")
	default:
		return false, p.unexpected("mapping key or '}'")
	}
}

// afterFlowMapKey expects the ": " after a key; "," and "}" leave the value
// empty.
func afterFlowMapKey(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	switch p.tok.kind {
	case tkMapValueInd:
		ind := lvl.indentation
		lvl.state = afterFlowMapValue
		p.push(beforeFlowItem, lvFlowNode, ind)
		return false, p.advance()
	case tkSeqSep, tkMapEnd:
		lvl.state = afterFlowMapValue
		*e = emptyScalarAt(p.tok.start, Properties{})
		return true, nil
	default:
		return false, p.unexpected("':'")
	}
}

// afterFlowMapValue expects "," or "}" after a value.
func afterFlowMapValue(p *Parser, e *Event) (bool, error) {
	switch p.tok.kind {
	case tkSeqSep:
		p.top().state = afterFlowMapSep
		return false, p.advance()
	case tkMapEnd:
		t := p.tok
		if err := p.advance(); err != nil {
			return false, err
		}
		p.closeFlowFrame()
		*e = Event{Kind: EndMap, Start: t.start, End: t.end}
		return true, nil
	case tkStreamEnd:
		return false, p.parseErrorAt(p.tok.start, "unexpected end of stream inside flow collection")
	default:
		return false, p.unexpected("',' or '}'")
	}
}

// beforeFlowItem parses one flow node in a pushed frame.
func beforeFlowItem(p *Parser, e *Event) (bool, error) {
	if isNodePropertyToken(p.tok.kind) {
		ind := p.top().indentation
		p.top().state = beforeFlowItemProps
		p.push(beforeNodeProperties, lvProps, ind)
		return false, nil
	}
	return flowItemDispatch(p, e)
}

func beforeFlowItemProps(p *Parser, e *Event) (bool, error) {
	return flowItemDispatch(p, e)
}

func flowItemDispatch(p *Parser, e *Event) (bool, error) {
	t := p.tok
	switch {
	case isNodePropertyToken(t.kind):
		p.push(beforeNodeProperties, lvProps, p.top().indentation)
		return false, nil
	case isFlowScalarToken(t.kind):
		st := t
		start := p.nodeStart(st.start)
		if err := p.advance(); err != nil {
			return false, err
		}
		props, err := p.takeMergedProps(st.start)
		if err != nil {
			return false, err
		}
		p.popLevel()
		ev := scalarEvent(st, props)
		ev.Start = start
		*e = ev
		return true, nil
	case t.kind == tkAlias:
		if err := p.checkAliasProps(t.start); err != nil {
			return false, err
		}
		if err := p.advance(); err != nil {
			return false, err
		}
		p.popLevel()
		*e = Event{Kind: Alias, Target: t.value, Start: t.start, End: t.end}
		return true, nil
	case t.kind == tkSeqStart:
		return p.startFlowSeq(e)
	case t.kind == tkMapStart:
		return p.startFlowMap(e)
	case t.kind == tkSeqSep || t.kind == tkSeqEnd || t.kind == tkMapEnd || t.kind == tkMapValueInd:
		start := p.nodeStart(t.start)
		props, err := p.takeMergedProps(t.start)
		if err != nil {
			return false, err
		}
		p.popLevel()
		*e = emptyScalarAt(start, props)
		return true, nil
	case t.kind == tkStreamEnd:
		return false, p.parseErrorAt(t.start, "unexpected end of stream inside flow collection")
	default:
		return false, p.unexpected("flow node")
	}
}

// atEmptyPairKey synthesizes the empty key of a value-only pair ("[: x]").
func atEmptyPairKey(p *Parser, e *Event) (bool, error) {
	p.top().state = beforePairValue
	*e = emptyScalarAt(p.tok.start, Properties{})
	return true, nil
}

// beforePairValue expects the ": " of a single-pair mapping; a key-only
// pair ("[? x]") leaves the value empty.
func beforePairValue(p *Parser, e *Event) (bool, error) {
	lvl := p.top()
	switch p.tok.kind {
	case tkMapValueInd:
		ind := lvl.indentation
		lvl.state = afterPairValue
		p.push(beforeFlowItem, lvFlowNode, ind)
		return false, p.advance()
	case tkSeqSep, tkSeqEnd:
		lvl.state = afterPairValue
		*e = emptyScalarAt(p.tok.start, Properties{})
		return true, nil
	default:
		return false, p.unexpected("':'")
	}
}

// afterImplicitPairStart crosses the ": " after a scalar that turned out to
// be a pair key.
func afterImplicitPairStart(p *Parser, e *Event) (bool, error) {
	if p.tok.kind != tkMapValueInd {
		return false, p.internalError("mapping value indicator expected")
	}
	lvl := p.top()
	lvl.state = afterPairValue
	ind := lvl.indentation
	p.push(beforeFlowItem, lvFlowNode, ind)
	return false, p.advance()
}

// afterPairValue closes the synthesized single-pair mapping.
func afterPairValue(p *Parser, e *Event) (bool, error) {
	*e = Event{Kind: EndMap, Start: p.tok.start, End: p.tok.start}
	p.popLevel()
	return true, nil
}
