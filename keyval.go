package latex

import "strings"

// KeyValues parses key-value parameters of an argument in this format: key=value, key=value, for example as used in
// \includegraphics option parameter. Commas and equal signs inside groups do not split, a value given as a single
// group loses its braces. Keys without a value map to an empty string.
func KeyValues(arg *Argument) map[string]string {
	kv := map[string]string{}
	if arg.IsAbsent() {
		return kv
	}

	var part []*Node

	add := func() {
		if key, value := keyValue(part); key != "" {
			kv[key] = value
		}

		part = nil
	}

	for _, node := range arg.Children {
		if node.IsString(",") {
			add()
			continue
		}

		part = append(part, node)
	}

	add()

	return kv
}

func keyValue(nodes []*Node) (string, string) {
	for i, node := range nodes {
		if !node.IsString("=") {
			continue
		}

		value := spaceless(nodes[i+1:])
		if len(value) == 1 && value[0].Kind == GroupKind {
			value = value[0].Children
		}

		return strings.TrimSpace(String(nodes[:i]...)), String(value...)
	}

	return strings.TrimSpace(String(nodes...)), ""
}

// spaceless returns nodes without whitespace, paragraph breaks and comments at both ends, nodes are not changed
func spaceless(nodes []*Node) []*Node {
	blank := func(n *Node) bool {
		return n.IsSpace() || n.Kind == CommentKind
	}

	for len(nodes) > 0 && blank(nodes[0]) {
		nodes = nodes[1:]
	}

	for len(nodes) > 0 && blank(nodes[len(nodes)-1]) {
		nodes = nodes[:len(nodes)-1]
	}

	return nodes
}
