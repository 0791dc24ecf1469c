// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

// TagID is a stable small integer identifying a tag URI within a TagLibrary.
// The reserved values below never change; identifiers for other URIs are
// assigned in registration order starting at TagFirstCustom.
type TagID int

const (
	// TagQuestionMark marks a node with no explicit tag; the consumer is
	// expected to infer one.
	TagQuestionMark TagID = iota
	// TagExclamationMark is the explicit non-specific tag "!".
	TagExclamationMark
	TagString
	TagSequence
	TagMapping
	TagNull
	TagBool
	TagInt
	TagFloat
	TagBinary
	TagTimestamp

	// TagFirstCustom is the first identifier handed out by RegisterURI.
	TagFirstCustom
)

const yamlTagPrefix = "tag:yaml.org,2002:"

// Core schema tag URIs.
const (
	URIString    = yamlTagPrefix + "str"
	URISequence  = yamlTagPrefix + "seq"
	URIMapping   = yamlTagPrefix + "map"
	URINull      = yamlTagPrefix + "null"
	URIBool      = yamlTagPrefix + "bool"
	URIInt       = yamlTagPrefix + "int"
	URIFloat     = yamlTagPrefix + "float"
	URIBinary    = yamlTagPrefix + "binary"
	URITimestamp = yamlTagPrefix + "timestamp"
)

// A TagLibrary maps tag URIs to identifiers and tag handles to URI prefixes.
// It may be shared across sequential parses; a parse mutates it when a %TAG
// directive registers a handle or a new URI is first seen. Concurrent use
// from multiple parsers needs external locking.
type TagLibrary struct {
	tags    map[string]TagID
	uris    map[TagID]string
	handles map[string]string
	next    TagID
}

// NewTagLibrary returns a library with only the two primary handles bound:
// "!" to "!" and "!!" to the YAML tag prefix.
func NewTagLibrary() *TagLibrary {
	return &TagLibrary{
		tags: map[string]TagID{},
		uris: map[TagID]string{},
		handles: map[string]string{
			"!":  "!",
			"!!": yamlTagPrefix,
		},
		next: TagFirstCustom,
	}
}

// CoreTagLibrary returns a library that additionally pre-registers the YAML
// 1.2 core schema tags (str, seq, map, null, bool, int, float) together with
// binary and timestamp, under their reserved identifiers.
func CoreTagLibrary() *TagLibrary {
	lib := NewTagLibrary()
	for uri, id := range map[string]TagID{
		URIString:    TagString,
		URISequence:  TagSequence,
		URIMapping:   TagMapping,
		URINull:      TagNull,
		URIBool:      TagBool,
		URIInt:       TagInt,
		URIFloat:     TagFloat,
		URIBinary:    TagBinary,
		URITimestamp: TagTimestamp,
	} {
		lib.tags[uri] = id
		lib.uris[id] = uri
	}
	return lib
}

// Resolve returns the URI prefix a handle is bound to, or "" if the handle
// is unknown.
func (l *TagLibrary) Resolve(handle string) string {
	return l.handles[handle]
}

// RegisterHandle binds handle to a URI prefix, overriding any prior binding.
func (l *TagLibrary) RegisterHandle(handle, prefix string) {
	l.handles[handle] = prefix
}

// RegisterURI returns the identifier for uri, assigning a fresh one on first
// sight. Registering the same URI twice yields the same identifier.
func (l *TagLibrary) RegisterURI(uri string) TagID {
	if id, ok := l.tags[uri]; ok {
		return id
	}
	id := l.next
	l.next++
	l.tags[uri] = id
	l.uris[id] = uri
	return id
}

// URI returns the URI registered for id. The reserved identifiers
// TagQuestionMark and TagExclamationMark have no URI.
func (l *TagLibrary) URI(id TagID) (string, bool) {
	uri, ok := l.uris[id]
	return uri, ok
}

// Handles returns a copy of the current handle bindings.
func (l *TagLibrary) Handles() map[string]string {
	out := make(map[string]string, len(l.handles))
	for h, p := range l.handles {
		out[h] = p
	}
	return out
}

// setHandles replaces the handle bindings wholesale. The parser uses this to
// drop %TAG registrations at the end of each document.
func (l *TagLibrary) setHandles(h map[string]string) {
	l.handles = make(map[string]string, len(h))
	for k, v := range h {
		l.handles[k] = v
	}
}
