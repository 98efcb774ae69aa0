package latex

import "errors"

// stringify extracts text from array of nodes or returns error if there are non-text nodes
func stringify(children []*Node) (str string, err error) {
	for _, child := range children {
		switch child.Kind {
		case StringKind:
			str += child.Data
		case WhitespaceKind:
			str += " "
		default:
			return "", errors.New("only text is allowed here")
		}
	}

	return
}

// splice replaces n nodes at position i with replacement
func splice(nodes *[]*Node, i, n int, replacement ...*Node) {
	tail := append([]*Node{}, (*nodes)[i+n:]...)
	*nodes = append(append((*nodes)[:i], replacement...), tail...)
}
