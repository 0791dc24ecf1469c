// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import "fmt"

// Mark is a position in the input stream. Line and Column are 1-based,
// Offset counts bytes from the start of the stream.
type Mark struct {
	Line   int
	Column int
	Offset int
}

func (m Mark) String() string {
	return fmt.Sprintf("%d:%d", m.Line, m.Column)
}

// before reports whether m is positioned at or before o in the stream.
func (m Mark) before(o Mark) bool {
	return m.Offset <= o.Offset
}
