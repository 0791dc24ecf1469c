// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"fmt"
	"strings"
)

// A ParserError is the single failure value produced by this package. Msg
// describes the problem, Mark is where it happened, and Snippet holds the
// source line containing Mark followed by a caret line pointing at the
// offending column. Errors are fatal: a parser that returned one produces no
// further events.
type ParserError struct {
	Msg     string
	Mark    Mark
	Snippet string
}

func (e *ParserError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s: %s", e.Mark, e.Msg)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Mark, e.Msg, e.Snippet)
}

// annotate renders line with a caret under the given 1-based column.
func annotate(line string, column int) string {
	line = strings.TrimRight(line, "\r\n")
	if column < 1 {
		column = 1
	}
	// Tabs in the line would misalign the caret; expand them to one space so
	// the column count stays truthful.
	display := strings.ReplaceAll(line, "\t", " ")
	var b strings.Builder
	b.WriteString(display)
	b.WriteByte('\n')
	for i := 1; i < column; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')
	return b.String()
}
