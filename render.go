package latex

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// Render prints nodes back as LaTeX source. Printing a tree and tokenizing the output again gives an equivalent tree.
func Render(w io.Writer, nodes ...*Node) error {
	bw := bufio.NewWriter(w)

	p := &printer{w: bw}
	for _, node := range nodes {
		p.node(node)
	}

	if p.err != nil {
		return p.err
	}

	return bw.Flush()
}

type printer struct {
	w   *bufio.Writer
	err error

	last rune // last printed rune, 0 at the beginning

	// previous output was a letter macro name, a letter must not follow it directly
	letterMacro bool
}

func (p *printer) write(s string) {
	if p.err != nil || s == "" {
		return
	}

	if p.letterMacro {
		p.letterMacro = false

		if r, _ := utf8.DecodeRuneInString(s); isLetter(r) {
			p.raw(" ")
		}
	}

	p.raw(s)
}

func (p *printer) raw(s string) {
	if _, err := p.w.WriteString(s); err != nil {
		p.err = err
		return
	}

	p.last, _ = utf8.DecodeLastRuneInString(s)
}

func (p *printer) nodes(nodes []*Node) {
	for _, node := range nodes {
		p.node(node)
	}
}

func (p *printer) node(node *Node) {
	switch node.Kind {
	case RootKind:
		p.nodes(node.Children)
	case StringKind:
		p.write(node.Data)
	case WhitespaceKind:
		p.write(" ")
	case ParbreakKind:
		p.write("\n\n")
	case CommentKind:
		p.comment(node)
	case GroupKind:
		p.write("{")
		p.nodes(node.Children)
		p.write("}")
	case MacroKind:
		p.macro(node)
	case EnvironmentKind, MathEnvironmentKind:
		p.write("\\begin{" + node.Name + "}")
		p.args(node.Args)
		p.nodes(node.Children)
		p.write("\\end{" + node.Name + "}")
	case InlineMathKind:
		p.write("$")
		p.nodes(node.Children)
		p.write("$")
	case DisplayMathKind:
		p.write("\\[")
		p.nodes(node.Children)
		p.write("\\]")
	case VerbatimKind:
		p.write("\\begin{" + node.Name + "}" + node.Data + "\\end{" + node.Name + "}")
	case VerbKind:
		p.write("\\" + node.Name + node.Escape + node.Data + node.Escape)
	}
}

func (p *printer) comment(node *Node) {
	p.letterMacro = false

	switch {
	case !node.Sameline && p.last != 0 && p.last != '\n':
		p.write("\n")
	case node.Sameline && node.LeadingWhitespace:
		p.write(" ")
	}

	p.write("%" + node.Data + "\n")
	if node.SuffixParbreak {
		p.write("\n")
	}
}

func (p *printer) macro(node *Node) {
	p.write(node.Escape + node.Name)
	p.letterMacro = node.Escape == "\\" && isLetters(node.Name)
	p.args(node.Args)
}

func (p *printer) args(args []*Argument) {
	for _, arg := range args {
		if arg.IsAbsent() {
			continue
		}

		p.write(arg.OpenMark)
		p.nodes(arg.Children)
		p.write(arg.CloseMark)
	}
}

// String prints nodes as LaTeX source
func String(nodes ...*Node) string {
	var b strings.Builder
	_ = Render(&b, nodes...)
	return b.String()
}
