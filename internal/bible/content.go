package bible

import "strings"

// FlattenContent reduces a sequence of content nodes to plain text via a
// depth-first, left-to-right walk. Text leaves contribute their literal
// text, composites the concatenation of their children; nodes matching
// neither shape contribute nothing. The result is trimmed of surrounding
// whitespace.
func FlattenContent(nodes []ContentNode) string {
	var b strings.Builder
	for _, n := range nodes {
		flattenNode(&b, n)
	}
	return strings.TrimSpace(b.String())
}

func flattenNode(b *strings.Builder, n ContentNode) {
	if n.Type == "text" {
		b.WriteString(n.Text)
		return
	}
	for _, child := range n.Items {
		flattenNode(b, child)
	}
}
