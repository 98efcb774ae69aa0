package latex

import (
	"strings"
	"unicode/utf8"
)

// letterState tells which extra characters are letters, \makeatletter makes "@" a letter, \ExplSyntaxOn makes
// "_" and ":" letters
type letterState struct {
	atLetter bool
	expl3    bool
}

func (s letterState) isLetter(r rune) bool {
	switch {
	case isLetter(r):
		return true
	case r == '@':
		return s.atLetter
	case r == '_' || r == ':':
		return s.expl3
	}

	return false
}

func (s letterState) active() bool {
	return s.atLetter || s.expl3
}

// prefix returns length in bytes of the leading run of letters in str
func (s letterState) prefix(str string) int {
	n := 0
	for n < len(str) {
		r, size := utf8.DecodeRuneInString(str[n:])
		if !s.isLetter(r) {
			break
		}

		n += size
	}

	return n
}

func (s letterState) isName(name string) bool {
	return name != "" && s.prefix(name) == len(name)
}

// mergeLetters re-reads macro names in regions where "@" or "_" and ":" are letters. Catcode changes are local to
// groups and environments, so state changes made inside do not leak out.
func mergeLetters(nodes *[]*Node, state letterState) {
	for i := 0; i < len(*nodes); i++ {
		node := (*nodes)[i]

		switch {
		case node.IsMacro("makeatletter"):
			state.atLetter = true
		case node.IsMacro("makeatother"):
			state.atLetter = false
		case node.IsMacro("ExplSyntaxOn"):
			state.expl3 = true
		case node.IsMacro("ExplSyntaxOff"):
			state.expl3 = false
		case node.Kind == MacroKind && node.Escape == "\\" && state.active() && state.isName(node.Name):
			absorbLetters(nodes, i, state)
		case node.HasContent():
			mergeLetters(&node.Children, state)
		}
	}
}

// absorbLetters extends name of the macro at position i with letters from strings that follow it
func absorbLetters(nodes *[]*Node, i int, state letterState) {
	macro := (*nodes)[i]
	name := macro.Name

	for i+1 < len(*nodes) {
		next := (*nodes)[i+1]
		if next.Kind != StringKind {
			break
		}

		n := state.prefix(next.Data)
		if n == 0 {
			break
		}

		name += next.Data[:n]

		if n == len(next.Data) {
			splice(nodes, i+1, 1)
			continue
		}

		(*nodes)[i+1] = Str(next.Data[n:])
		break
	}

	if name != macro.Name {
		macro.Name = name
		macro.Span = nil
	}
}

// detectLetters guesses whether document uses "@" or expl3 names without switching catcodes explicitly, as
// package sources and snippets copied from them do
func detectLetters(nodes []*Node) (state letterState) {
	for i, node := range nodes {
		if node.HasContent() {
			inner := detectLetters(node.Children)
			state.atLetter = state.atLetter || inner.atLetter
			state.expl3 = state.expl3 || inner.expl3
		}

		if node.Kind != MacroKind || node.Escape != "\\" || i+1 >= len(nodes) {
			continue
		}

		next := nodes[i+1]
		if next.Kind != StringKind {
			continue
		}

		switch {
		case strings.HasPrefix(next.Data, "@"):
			state.atLetter = true
		case next.Data == "_" || next.Data == ":":
			if i+2 < len(nodes) && nodes[i+2].Kind == StringKind && isLetters(nodes[i+2].Data) {
				state.expl3 = true
			}
		}
	}

	return
}
