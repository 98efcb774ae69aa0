package latex

// Trim removes whitespace and paragraph breaks at both ends of nodes
func Trim(nodes []*Node) []*Node {
	return TrimEnd(TrimStart(nodes))
}

// TrimStart removes leading whitespace and paragraph breaks. A comment which becomes first loses its leading
// whitespace, same line flag is kept so trailing comment stays on the line it was written.
func TrimStart(nodes []*Node) []*Node {
	i := 0
	for i < len(nodes) && nodes[i].IsSpace() {
		i++
	}

	nodes = nodes[i:]

	if len(nodes) > 0 && nodes[0].Kind == CommentKind {
		nodes[0].LeadingWhitespace = false
	}

	return nodes
}

// TrimEnd removes trailing whitespace and paragraph breaks, a comment which becomes last is not followed by a
// paragraph break anymore.
func TrimEnd(nodes []*Node) []*Node {
	i := len(nodes)
	for i > 0 && nodes[i-1].IsSpace() {
		i--
	}

	nodes = nodes[:i]

	if i > 0 && nodes[i-1].Kind == CommentKind {
		nodes[i-1].SuffixParbreak = false
	}

	return nodes
}

// trimContent trims content of root, environments and math in the whole tree
func trimContent(root *Node, max int) error {
	trim := func(node *Node) {
		switch node.Kind {
		case RootKind, EnvironmentKind, MathEnvironmentKind, InlineMathKind, DisplayMathKind:
			node.Children = nonNil(Trim(node.Children))
		}
	}

	v := &Visitor{
		MaxDepth: max,
		Leave: func(node *Node, info *VisitInfo) (Action, error) {
			trim(node)
			return Continue, nil
		},
	}

	_, err := v.Walk(root)
	return err
}
