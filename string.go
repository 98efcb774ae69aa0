package latex

import "strings"

// Text extracts plain text from nodes: strings, whitespace and content of groups and arguments, markup is dropped.
// Ligatures such as "---" or "``" are replaced with characters they stand for, verbatim content is kept as is.
func Text(nodes ...*Node) string {
	w := &textWriter{}
	w.nodes(nodes)
	w.flush()

	return w.b.String()
}

type textWriter struct {
	b   strings.Builder
	run strings.Builder // adjacent strings, a ligature may span several string nodes
}

func (w *textWriter) flush() {
	if w.run.Len() == 0 {
		return
	}

	_, _ = ligatures.WriteString(&w.b, w.run.String())
	w.run.Reset()
}

func (w *textWriter) nodes(nodes []*Node) {
	for _, node := range nodes {
		switch node.Kind {
		case StringKind:
			w.run.WriteString(node.Data)
		case CommentKind:
		case WhitespaceKind:
			w.flush()
			w.b.WriteString(" ")
		case ParbreakKind:
			w.flush()
			w.b.WriteString("\n\n")
		case VerbatimKind, VerbKind:
			w.flush()
			w.b.WriteString(node.Data)
		case MacroKind:
			if node.Escape == "\\" && escapedSymbols[node.Name] {
				w.run.WriteString(node.Name)
				continue
			}

			w.flush()
			for _, arg := range node.Args {
				w.nodes(arg.Children)
				w.flush()
			}
		default:
			w.flush()
			for _, arg := range node.Args {
				w.nodes(arg.Children)
				w.flush()
			}

			w.nodes(node.Children)
			w.flush()
		}
	}
}
