// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package yamlstream is a pull-based YAML 1.2 parser. It turns a character
// stream into a flat sequence of structural events (stream, document, mapping
// and sequence boundaries, scalars and aliases) without building a document
// tree. The caller drives parsing one event at a time:
//
//	p := yamlstream.NewParser(strings.NewReader("a: b\n"))
//	for {
//		ev, err := p.Next()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			// *ParserError with position and annotated source line
//		}
//		// consume ev
//	}
//
// Events carry source marks, node properties (anchor and tag) and the scalar
// or collection style. Tags are resolved through a TagLibrary into stable
// small integer identifiers; aliases are emitted as textual names and never
// dereferenced here.
package yamlstream
