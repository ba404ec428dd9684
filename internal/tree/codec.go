package tree

import "strings"

// Split parses a slash-delimited path into its segments.
// Leading and trailing slashes are stripped; empty segments are dropped,
// so "/a//b/" and "a/b" address the same node. An empty path yields no
// segments and denotes the root.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Join composes path segments back into a slash-delimited path.
func Join(segs []string) string {
	return strings.Join(segs, "/")
}

// Expand converts a path and a value into the equivalent chain of nested
// single-key maps terminating in that value. For example, Expand("a/b", 5)
// yields map{a: map{b: 5}}. The empty path denotes the root, so
// Expand("", v) is v itself.
func Expand(path string, value any) any {
	segs := Split(path)

	out := value
	for i := len(segs) - 1; i >= 0; i-- {
		out = map[string]any{segs[i]: out}
	}
	return out
}
