package tree

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// DefaultIndent is the marker repeated once per nesting level in dump output.
const DefaultIndent = "."

// Dump writes a diagnostic rendering of the tree to w using DefaultIndent.
func (t *Tree) Dump(w io.Writer) {
	t.DumpIndent(w, DefaultIndent)
}

// DumpIndent writes a diagnostic rendering of the tree to w. Each nesting
// level is prefixed by one more repetition of marker. Empty interior nodes
// are annotated with "{}", leaf values are shown with a "value=" marker, and
// string leaves are quoted. Keys are emitted in sorted order.
func (t *Tree) DumpIndent(w io.Writer, marker string) {
	if marker == "" {
		marker = DefaultIndent
	}

	if len(t.nodes) == 0 {
		fmt.Fprintln(w, " (No Data)")
		return
	}
	dumpNodes(w, t.nodes, marker, 1)
}

func dumpNodes(w io.Writer, nodes map[string]any, marker string, depth int) {
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	prefix := strings.Repeat(marker, depth)
	for _, key := range keys {
		switch v := nodes[key].(type) {
		case map[string]any:
			if len(v) == 0 {
				fmt.Fprintf(w, "%s %s {}\n", prefix, key)
				continue
			}
			fmt.Fprintf(w, "%s %s\n", prefix, key)
			dumpNodes(w, v, marker, depth+1)
		case string:
			fmt.Fprintf(w, "%s %s value=%q\n", prefix, key, v)
		default:
			fmt.Fprintf(w, "%s %s value=%v\n", prefix, key, v)
		}
	}
}
