// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The structural invariants every event stream honors, checked over the
// whole end-to-end corpus.

func TestEventStreamInvariants(t *testing.T) {
	for _, tc := range eventTests {
		t.Run(tc.name, func(t *testing.T) {
			events, err := Events([]byte(tc.input))
			require.NoError(t, err)
			require.NotEmpty(t, events)

			// Exactly one stream start at the front and one stream end at
			// the back, nothing outside them.
			assert.Equal(t, StartStream, events[0].Kind)
			assert.Equal(t, EndStream, events[len(events)-1].Kind)
			for _, ev := range events[1 : len(events)-1] {
				assert.NotEqual(t, StartStream, ev.Kind)
				assert.NotEqual(t, EndStream, ev.Kind)
			}

			// Balanced nesting: starts never outnumbered by ends, equal at
			// the stream end.
			depth := 0
			for _, ev := range events {
				switch ev.Kind {
				case StartStream, StartDoc, StartMap, StartSeq:
					depth++
				case EndStream, EndDoc, EndMap, EndSeq:
					depth--
				}
				assert.GreaterOrEqual(t, depth, 0)
			}
			assert.Equal(t, 0, depth)

			// Start marks never move backwards.
			for i := 1; i < len(events); i++ {
				assert.True(t, events[i-1].Start.before(events[i].Start),
					"event %d start %v precedes event %d start %v",
					i, events[i].Start, i-1, events[i-1].Start)
			}
		})
	}
}

func TestNoEventsAfterEndStream(t *testing.T) {
	p := NewParser(strings.NewReader("a: b\n"))
	sawEnd := false
	for i := 0; i < 100; i++ {
		ev, err := p.Next()
		if err != nil {
			require.True(t, sawEnd, "error before stream end: %v", err)
			assert.Equal(t, io.EOF, err)
			return
		}
		require.False(t, sawEnd, "event %v after stream end", ev.Kind)
		if ev.Kind == EndStream {
			sawEnd = true
		}
	}
	t.Fatal("parser did not terminate")
}

func TestPropertyPlacement(t *testing.T) {
	// The event following a property position carries the properties.
	events, err := Events([]byte("- &a x\n- !!str y\n- &b !!int 7\n"))
	require.NoError(t, err)
	var scalars []Event
	for _, ev := range events {
		if ev.Kind == Scalar {
			scalars = append(scalars, ev)
		}
	}
	require.Len(t, scalars, 3)
	assert.Equal(t, "a", scalars[0].Props.Anchor)
	assert.Equal(t, TagQuestionMark, scalars[0].Props.Tag)
	assert.Equal(t, "", scalars[1].Props.Anchor)
	assert.Equal(t, TagString, scalars[1].Props.Tag)
	assert.Equal(t, "b", scalars[2].Props.Anchor)
	assert.Equal(t, TagInt, scalars[2].Props.Tag)
}
