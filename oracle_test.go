// Copyright (c) 2025 the yamlstream authors.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package yamlstream

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The differential oracle: the same document parsed here and by yaml.v3
// must describe the same tree. Comparison happens at the yaml.Node level so
// scalar content is compared as written, before any type resolution.

type oraclePair struct {
	key, value interface{}
}

// composeEvents rebuilds a plain tree (string scalars, []interface{}
// sequences, []oraclePair mappings) from the event stream.
func composeEvents(t *testing.T, events []Event) interface{} {
	t.Helper()
	i := 0
	var node func() interface{}
	node = func() interface{} {
		require.Less(t, i, len(events), "event stream ended mid-node")
		ev := events[i]
		i++
		switch ev.Kind {
		case Scalar:
			return ev.Value
		case StartSeq:
			var out []interface{}
			for events[i].Kind != EndSeq {
				out = append(out, node())
			}
			i++
			return out
		case StartMap:
			var out []oraclePair
			for events[i].Kind != EndMap {
				k := node()
				v := node()
				out = append(out, oraclePair{key: k, value: v})
			}
			i++
			return out
		default:
			t.Fatalf("unexpected event %v in node position", ev.Kind)
			return nil
		}
	}

	var root interface{}
	for i < len(events) {
		switch events[i].Kind {
		case StartStream, EndStream, EndDoc:
			i++
		case StartDoc:
			i++
			root = node()
		default:
			t.Fatalf("unexpected top-level event %v", events[i].Kind)
		}
	}
	return root
}

// composeYAMLNode rebuilds the same tree shape from a yaml.v3 node.
func composeYAMLNode(t *testing.T, n *yaml.Node) interface{} {
	t.Helper()
	switch n.Kind {
	case yaml.DocumentNode:
		require.Len(t, n.Content, 1)
		return composeYAMLNode(t, n.Content[0])
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		var out []interface{}
		for _, c := range n.Content {
			out = append(out, composeYAMLNode(t, c))
		}
		return out
	case yaml.MappingNode:
		var out []oraclePair
		for i := 0; i < len(n.Content); i += 2 {
			out = append(out, oraclePair{
				key:   composeYAMLNode(t, n.Content[i]),
				value: composeYAMLNode(t, n.Content[i+1]),
			})
		}
		return out
	default:
		t.Fatalf("unexpected yaml.v3 node kind %d", n.Kind)
		return nil
	}
}

var oracleCorpus = []string{
	"a: b\n",
	"a: b\nc: d\n",
	"- 1\n- 2\n- 3\n",
	"a: b\nc:\n  - 1\n  - 2\n",
	"- x\n- y: z\n- [1, 2, {k: v}]\n",
	"key: 'single quoted'\nother: \"double\\n\"\n",
	"lit: |\n  line1\n  line2\n",
	"fold: >\n  a\n  b\n",
	"a:\n- 1\n- 2\n",
	"{x: 1, y: [a, b]}\n",
	"m:\n  n:\n    o: deep\n",
	"- a: b\n  c: d\n- e: f\n",
	"? explicit\n: value\n",
	"empty:\nnext: x\n",
	"dotted.key: v\n",
	"num: -12.5\n",
}

func TestAgainstYAMLv3(t *testing.T) {
	for _, input := range oracleCorpus {
		t.Run(input, func(t *testing.T) {
			events, err := Events([]byte(input))
			require.NoError(t, err, "parsing %q", input)
			mine := composeEvents(t, events)

			var doc yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(input), &doc), "yaml.v3 on %q", input)
			theirs := composeYAMLNode(t, &doc)

			require.Equal(t, theirs, mine, "tree mismatch for %q", input)
		})
	}
}
