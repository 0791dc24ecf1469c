// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"unicode/utf8"
)

func trimTrailingBlanks(buf []byte) []byte {
	for len(buf) > 0 && (buf[len(buf)-1] == ' ' || buf[len(buf)-1] == '\t') {
		buf = buf[:len(buf)-1]
	}
	return buf
}

func appendBreaks(buf []byte, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, '\n')
	}
	return buf
}

// stopAtLine records that scalar lexing has already consumed the indentation
// of the line that terminated it, so the next line-start token can still be
// synthesized correctly.
func (l *lexer) stopAtLine(n int) {
	if l.flowDepth == 0 {
		l.atLineStart = true
		l.pendingIndent = n
		l.havePendingIndent = true
	}
}

// lexPlain lexes a plain scalar. The scalar runs to the first disallowed
// character in the current context and may continue over line breaks when
// the following line is indented past the block indentation threshold.
func (l *lexer) lexPlain() (token, bool, error) {
	start := l.r.mark
	end := l.r.mark
	var buf []byte
	multiline := false
	lastWasBlank := false

	for {
		c := l.r.peek()
		switch {
		case isBreakOrEnd(c):
			buf = trimTrailingBlanks(buf)
			cont, err := l.plainContinues(&buf)
			if err != nil {
				return token{}, false, err
			}
			if !cont {
				l.lastJSONLike = false
				return token{
					kind: tkPlain, start: start, end: end,
					value: string(buf), multiline: multiline,
				}, true, nil
			}
			multiline = true
			lastWasBlank = false
			continue
		case c == ':' && l.indicatorAt(1):
			buf = trimTrailingBlanks(buf)
			l.lastJSONLike = false
			return token{
				kind: tkPlain, start: start, end: end,
				value: string(buf), multiline: multiline,
			}, true, nil
		case l.flowDepth > 0 && (c == ',' || c == '[' || c == ']' || c == '{' || c == '}'):
			buf = trimTrailingBlanks(buf)
			l.lastJSONLike = false
			return token{
				kind: tkPlain, start: start, end: end,
				value: string(buf), multiline: multiline,
			}, true, nil
		case c == '#' && lastWasBlank:
			buf = trimTrailingBlanks(buf)
			l.lastJSONLike = false
			return token{
				kind: tkPlain, start: start, end: end,
				value: string(buf), multiline: multiline,
			}, true, nil
		}
		l.r.next()
		buf = utf8.AppendRune(buf, c)
		lastWasBlank = isBlank(c)
		if !lastWasBlank {
			end = l.r.mark
		}
	}
}

// plainContinues decides whether the plain scalar being lexed continues on a
// following line, applying line folding if it does. The reader stands on the
// break (or at the end of input) when called.
func (l *lexer) plainContinues(buf *[]byte) (bool, error) {
	if l.r.peek() == runeEOF {
		return false, nil
	}
	l.r.next() // the break
	breaks := 0
	for {
		n := 0
		for l.r.peek() == ' ' {
			l.r.next()
			n++
		}
		c := l.r.peek()
		if c == '\n' {
			l.r.next()
			breaks++
			continue
		}
		if c == runeEOF {
			l.stopAtLine(n)
			return false, nil
		}
		stop := c == '#' ||
			(n == 0 && (l.docMarker('-') || l.docMarker('.'))) ||
			(l.flowDepth == 0 && n <= l.blockIndent)
		if stop {
			l.stopAtLine(n)
			return false, nil
		}
		if breaks == 0 {
			*buf = append(*buf, ' ')
		} else {
			*buf = appendBreaks(*buf, breaks)
		}
		return true, nil
	}
}

// foldQuoted folds a line break inside a quoted scalar: the break becomes a
// space, empty lines become newlines, and surrounding whitespace is dropped.
func (l *lexer) foldQuoted(buf []byte) []byte {
	buf = trimTrailingBlanks(buf)
	l.r.next() // the break
	breaks := 0
	for {
		for isBlank(l.r.peek()) {
			l.r.next()
		}
		if l.r.peek() != '\n' {
			break
		}
		l.r.next()
		breaks++
	}
	if breaks == 0 {
		return append(buf, ' ')
	}
	return appendBreaks(buf, breaks)
}

func (l *lexer) lexSingleQuoted() (token, bool, error) {
	start := l.r.mark
	l.r.next() // opening quote
	var buf []byte
	multiline := false
	for {
		c := l.r.peek()
		switch {
		case c == runeEOF:
			return token{}, false, l.errorf(start, "unterminated single-quoted scalar")
		case c == '\'':
			l.r.next()
			if l.r.peek() == '\'' {
				l.r.next()
				buf = append(buf, '\'')
				continue
			}
			l.lastJSONLike = true
			return token{
				kind: tkSingleQuoted, start: start, end: l.r.mark,
				value: string(buf), multiline: multiline,
			}, true, nil
		case c == '\n':
			buf = l.foldQuoted(buf)
			multiline = true
		default:
			l.r.next()
			buf = utf8.AppendRune(buf, c)
		}
	}
}

var simpleEscapes = map[rune]rune{
	'0':  0x00,
	'a':  0x07,
	'b':  0x08,
	't':  0x09,
	'\t': 0x09,
	'n':  0x0a,
	'v':  0x0b,
	'f':  0x0c,
	'r':  0x0d,
	'e':  0x1b,
	' ':  0x20,
	'"':  0x22,
	'/':  0x2f,
	'\\': 0x5c,
	'N':  0x85,
	'_':  0xa0,
	'L':  0x2028,
	'P':  0x2029,
}

func (l *lexer) lexDoubleQuoted() (token, bool, error) {
	start := l.r.mark
	l.r.next() // opening quote
	var buf []byte
	multiline := false
	for {
		c := l.r.peek()
		switch {
		case c == runeEOF:
			return token{}, false, l.errorf(start, "unterminated double-quoted scalar")
		case c == '"':
			l.r.next()
			l.lastJSONLike = true
			return token{
				kind: tkDoubleQuoted, start: start, end: l.r.mark,
				value: string(buf), multiline: multiline,
			}, true, nil
		case c == '\n':
			buf = l.foldQuoted(buf)
			multiline = true
		case c == '\\':
			escStart := l.r.mark
			l.r.next()
			e := l.r.peek()
			if e == '\n' {
				// An escaped break joins the lines without inserting a
				// space.
				l.r.next()
				for isBlank(l.r.peek()) {
					l.r.next()
				}
				multiline = true
				continue
			}
			if e == runeEOF {
				return token{}, false, l.errorf(start, "unterminated double-quoted scalar")
			}
			l.r.next()
			switch e {
			case 'x':
				r, err := l.hexEscape(escStart, 2)
				if err != nil {
					return token{}, false, err
				}
				buf = utf8.AppendRune(buf, r)
			case 'u':
				r, err := l.hexEscape(escStart, 4)
				if err != nil {
					return token{}, false, err
				}
				buf = utf8.AppendRune(buf, r)
			case 'U':
				r, err := l.hexEscape(escStart, 8)
				if err != nil {
					return token{}, false, err
				}
				buf = utf8.AppendRune(buf, r)
			default:
				r, ok := simpleEscapes[e]
				if !ok {
					return token{}, false, l.errorf(escStart, "invalid escape character %q", e)
				}
				buf = utf8.AppendRune(buf, r)
			}
		default:
			l.r.next()
			buf = utf8.AppendRune(buf, c)
		}
	}
}

func (l *lexer) hexEscape(at Mark, digits int) (rune, error) {
	var v rune
	for i := 0; i < digits; i++ {
		c := l.r.peek()
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | (c - '0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | (c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | (c - 'A' + 10)
		default:
			return 0, l.errorf(at, "invalid escape sequence: expected %d hex digits", digits)
		}
		l.r.next()
	}
	if v > utf8.MaxRune {
		return 0, l.errorf(at, "escape sequence is not a Unicode scalar value")
	}
	return v, nil
}

// lexBlockScalar lexes a literal ('|') or folded ('>') block scalar: header
// with optional chomping and indentation indicators, then the indented
// content with folding applied for '>'.
func (l *lexer) lexBlockScalar(folded bool) (token, bool, error) {
	start := l.r.mark
	l.r.next() // '|' or '>'

	const (
		clip = iota
		strip
		keep
	)
	chomp := clip
	explicit := 0
	for {
		c := l.r.peek()
		switch {
		case c == '+':
			chomp = keep
		case c == '-':
			chomp = strip
		case c >= '1' && c <= '9' && explicit == 0:
			explicit = int(c - '0')
		default:
			goto headerDone
		}
		l.r.next()
	}
headerDone:
	l.skipBlanks()
	if l.r.peek() == '#' {
		l.skipComment()
	}
	kind := tkLiteral
	if folded {
		kind = tkFolded
	}
	if l.r.peek() == runeEOF {
		return token{kind: kind, start: start, end: l.r.mark, multiline: true}, true, nil
	}
	if l.r.peek() != '\n' {
		return token{}, false, l.errorf(l.r.mark, "invalid block scalar header")
	}
	l.r.next()

	contentIndent := -1
	if explicit > 0 {
		base := l.blockIndent
		if base < 0 {
			base = 0
		}
		contentIndent = base + explicit
	}

	var buf []byte
	blanks := 0
	first := true
	prevMore := false
	lastHadBreak := false
	endMark := l.r.mark

	for {
		m := 0
		for l.r.peek() == ' ' {
			l.r.next()
			m++
		}
		c := l.r.peek()
		if c == '\n' {
			l.r.next()
			blanks++
			continue
		}
		if c == runeEOF {
			break
		}
		if m == 0 && (l.docMarker('-') || l.docMarker('.')) {
			l.stopAtLine(0)
			break
		}
		if contentIndent < 0 {
			if m <= l.blockIndent {
				l.stopAtLine(m)
				break
			}
			contentIndent = m
		}
		if m < contentIndent {
			l.stopAtLine(m)
			break
		}

		// Indentation beyond the content indent is content.
		line := make([]byte, 0, 16)
		for i := contentIndent; i < m; i++ {
			line = append(line, ' ')
		}
		moreIndented := m > contentIndent || l.r.peek() == '\t'
		for !isBreakOrEnd(l.r.peek()) {
			line = utf8.AppendRune(line, l.r.next())
		}
		endMark = l.r.mark
		hadBreak := l.r.peek() == '\n'
		if hadBreak {
			l.r.next()
		}

		switch {
		case first:
			buf = appendBreaks(buf, blanks)
			first = false
		case !folded:
			buf = appendBreaks(buf, 1+blanks)
		default:
			seps := 1 + blanks
			if seps == 1 && !prevMore && !moreIndented {
				buf = append(buf, ' ')
			} else {
				if !prevMore && !moreIndented {
					seps--
				}
				buf = appendBreaks(buf, seps)
			}
		}
		blanks = 0
		prevMore = moreIndented
		buf = append(buf, line...)
		lastHadBreak = hadBreak
		if !hadBreak {
			break
		}
	}

	trailing := blanks
	if !first && lastHadBreak {
		trailing++
	}
	switch chomp {
	case strip:
	case clip:
		if len(buf) > 0 && trailing > 0 {
			buf = append(buf, '\n')
		}
	case keep:
		buf = appendBreaks(buf, trailing)
	}
	return token{
		kind: kind, start: start, end: endMark,
		value: string(buf), multiline: true,
	}, true, nil
}
