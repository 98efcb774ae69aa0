package latex

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultMaxDepth is the default limit for group, environment and argument nesting
const DefaultMaxDepth = 512

// Tokenizer turns LaTeX source into a minimal tree: strings, whitespace, comments, groups, macros, environments
// and math, but no macro arguments attached. Arguments are attached later by Parser.
type Tokenizer struct {
	r        io.RuneScanner
	pos      Position
	mode     Mode
	depth    int
	maxDepth int

	back   []scanned // runes pushed back by unread
	recent []scanned // recently read runes, so they can be pushed back

	// content was emitted since the last line break, used to detect same line comments
	lineHasContent bool
}

type scanned struct {
	r     rune
	start Position
}

// TokenizerOption changes tokenizer configuration
type TokenizerOption func(*Tokenizer)

// InMode sets initial lexical mode
func InMode(m Mode) TokenizerOption {
	return func(t *Tokenizer) {
		t.mode = m
	}
}

// StartingAt sets position of the first rune, used when tokenizing slice of a bigger source
func StartingAt(p Position) TokenizerOption {
	return func(t *Tokenizer) {
		t.pos = p
	}
}

// WithTokenizerDepth limits nesting of groups, environments and math
func WithTokenizerDepth(n int) TokenizerOption {
	return func(t *Tokenizer) {
		t.maxDepth = n
	}
}

func NewTokenizer(r io.RuneScanner, opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{r: r, pos: Position{Line: 1, Column: 1}, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize reads the whole input into a root node
func Tokenize(r io.RuneScanner, opts ...TokenizerOption) (*Node, error) {
	return NewTokenizer(r, opts...).Document()
}

// ParseFragment tokenizes a piece of LaTeX source, positions are relative to the fragment
func ParseFragment(src string, mode Mode) ([]*Node, error) {
	root, err := Tokenize(strings.NewReader(src), InMode(mode))
	if err != nil {
		return nil, err
	}

	return root.Children, nil
}

// Document reads all tokens until the end of input
func (t *Tokenizer) Document() (*Node, error) {
	start := t.pos

	children, err := t.content(terminator{kind: untilEOF})
	if err != nil {
		return nil, err
	}

	return &Node{Kind: RootKind, Children: children, Span: &Span{Start: start, End: t.pos}}, nil
}

type terminatorKind int

const (
	untilEOF terminatorKind = iota
	untilBrace
	untilDollar
	untilDoubleDollar
	untilParen
	untilBracket
	untilEnd
)

type terminator struct {
	kind terminatorKind
	name string // environment name for untilEnd
}

// errTerminated is a signal used internally to report that terminator was reached
var errTerminated = errors.New("terminated")

func (t *Tokenizer) content(term terminator) ([]*Node, error) {
	children := []*Node{}

	for {
		start := t.pos

		r, err := t.read()
		if err == io.EOF {
			// unterminated groups and environments are closed at the end of input
			return children, nil
		}

		if err != nil {
			return nil, err
		}

		var node *Node

		switch {
		case r == '%':
			node, err = t.comment(&children, start)
		case isWhitespace(r):
			node, err = t.whitespace(start)
		case r == '{':
			t.lineHasContent = true
			node, err = t.nested(GroupKind, terminator{kind: untilBrace}, t.mode, start)
		case r == '}':
			if term.kind == untilBrace {
				return children, nil
			}

			node = t.str("}", start)
		case r == '$':
			node, err = t.dollar(term, start)
		case r == '\\':
			node, err = t.backslash(term, start)
		case r == '#':
			node, err = t.hash(start)
		case (r == '^' || r == '_') && t.mode == MathMode:
			node = &Node{Kind: MacroKind, Name: string(r), Span: t.span(start)}
		case t.mode == MathMode || isSpecial(r) || isPunctuation(r):
			node = t.str(string(r), start)
		default:
			if err := t.unread(); err != nil {
				return nil, err
			}

			node, err = t.word(start)
		}

		if err == errTerminated {
			return children, nil
		}

		if err != nil {
			return nil, err
		}

		if node == nil {
			continue
		}

		if node.Kind != WhitespaceKind && node.Kind != ParbreakKind && node.Kind != CommentKind {
			t.lineHasContent = true
		}

		children = append(children, node)
	}
}

// nested reads group, math or environment content
func (t *Tokenizer) nested(kind Kind, term terminator, mode Mode, start Position) (*Node, error) {
	if t.depth >= t.maxDepth {
		return nil, fmt.Errorf("line %d: %w", start.Line, ErrTooDeep)
	}

	prev := t.mode
	t.mode = mode
	t.depth++

	children, err := t.content(term)

	t.depth--
	t.mode = prev

	if err != nil {
		return nil, err
	}

	return &Node{Kind: kind, Name: term.name, Children: children, Span: t.span(start)}, nil
}

func (t *Tokenizer) str(data string, start Position) *Node {
	return &Node{Kind: StringKind, Data: data, Span: t.span(start)}
}

func (t *Tokenizer) span(start Position) *Span {
	return &Span{Start: start, End: t.pos}
}

// word reads sequence of non-special runes
func (t *Tokenizer) word(start Position) (*Node, error) {
	var b strings.Builder
	for {
		r, err := t.read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if isSpecial(r) || isPunctuation(r) || isWhitespace(r) {
			if err := t.unread(); err != nil {
				return nil, err
			}

			break
		}

		b.WriteRune(r)
	}

	return t.str(b.String(), start), nil
}

// whitespace reads run of whitespace, two or more line breaks make a paragraph break
func (t *Tokenizer) whitespace(start Position) (*Node, error) {
	if err := t.unread(); err != nil {
		return nil, err
	}

	newlines := 0
	for {
		r, err := t.read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if !isWhitespace(r) {
			if err := t.unread(); err != nil {
				return nil, err
			}

			break
		}

		if r == '\n' {
			newlines++
		}
	}

	if newlines > 0 {
		t.lineHasContent = false
	}

	if newlines > 1 {
		return &Node{Kind: ParbreakKind, Span: t.span(start)}, nil
	}

	return &Node{Kind: WhitespaceKind, Span: t.span(start)}, nil
}

// comment reads one line comment after %
//
// When LATEX encounters a % character while processing an input file, it ignores the
// rest of the present line, the line break, and all whitespace at the
// beginning of the next line. Whitespace right before the comment is folded into the comment.
func (t *Tokenizer) comment(children *[]*Node, start Position) (*Node, error) {
	node := &Node{Kind: CommentKind, Sameline: t.lineHasContent}

	if n := len(*children); n > 0 && (*children)[n-1].Kind == WhitespaceKind {
		node.LeadingWhitespace = true
		if (*children)[n-1].Span != nil {
			start = (*children)[n-1].Span.Start
		}

		*children = (*children)[:n-1]
	}

	var b strings.Builder
	for {
		r, err := t.read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if r == '\n' {
			break
		}

		b.WriteRune(r)
	}

	node.Data = b.String()

	// skip indentation of the next line, an empty line after comment is a paragraph break
	newlines := 0
	for {
		r, err := t.read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if !isWhitespace(r) {
			if err := t.unread(); err != nil {
				return nil, err
			}

			break
		}

		if r == '\n' {
			newlines++
		}
	}

	node.SuffixParbreak = newlines > 0
	node.Span = t.span(start)
	t.lineHasContent = false

	return node, nil
}

func (t *Tokenizer) dollar(term terminator, start Position) (*Node, error) {
	if term.kind == untilDollar {
		return nil, errTerminated
	}

	next, err := t.read()
	if err != nil && err != io.EOF {
		return nil, err
	}

	double := err == nil && next == '$'
	if err == nil && !double {
		if err := t.unread(); err != nil {
			return nil, err
		}
	}

	if term.kind == untilDoubleDollar {
		if double {
			return nil, errTerminated
		}

		return t.str("$", start), nil
	}

	if double {
		return t.nested(DisplayMathKind, terminator{kind: untilDoubleDollar}, MathMode, start)
	}

	return t.nested(InlineMathKind, terminator{kind: untilDollar}, MathMode, start)
}

func (t *Tokenizer) hash(start Position) (*Node, error) {
	r, err := t.read()
	if err == io.EOF {
		return t.str("#", start), nil
	}

	if err != nil {
		return nil, err
	}

	if r >= '1' && r <= '9' {
		return &Node{Kind: MacroKind, Name: string(r), Escape: "#", Span: t.span(start)}, nil
	}

	if r == '#' {
		return t.str("##", start), nil
	}

	if err := t.unread(); err != nil {
		return nil, err
	}

	return t.str("#", start), nil
}

func (t *Tokenizer) backslash(term terminator, start Position) (*Node, error) {
	r, err := t.read()
	if err == io.EOF {
		return t.str("\\", start), nil
	}

	if err != nil {
		return nil, err
	}

	// special character escaped by \\ is a one symbol macro
	if !isLetter(r) {
		switch {
		case r == ')' && term.kind == untilParen, r == ']' && term.kind == untilBracket:
			return nil, errTerminated
		case r == '(':
			return t.nested(InlineMathKind, terminator{kind: untilParen}, MathMode, start)
		case r == '[':
			return t.nested(DisplayMathKind, terminator{kind: untilBracket}, MathMode, start)
		}

		return &Node{Kind: MacroKind, Name: string(r), Escape: "\\", Span: t.span(start)}, nil
	}

	name := []rune{r}
	for {
		r, err := t.read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if !isLetter(r) {
			if err := t.unread(); err != nil {
				return nil, err
			}

			break
		}

		name = append(name, r)
	}

	switch string(name) {
	case "begin":
		return t.begin(start)
	case "end":
		return t.end(term, start)
	case "verb":
		return t.verb(start)
	default:
		return &Node{Kind: MacroKind, Name: string(name), Escape: "\\", Span: t.span(start)}, nil
	}
}

// envName reads {name} after \begin or \end, ok is false if there is no such group
func (t *Tokenizer) envName() (string, bool, error) {
	r, err := t.read()
	if err == io.EOF {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	if r != '{' {
		return "", false, t.unread()
	}

	var b strings.Builder
	for {
		r, err := t.read()
		if err == io.EOF {
			return b.String(), true, nil
		}

		if err != nil {
			return "", false, err
		}

		if r == '}' {
			return b.String(), true, nil
		}

		b.WriteRune(r)
	}
}

func (t *Tokenizer) begin(start Position) (*Node, error) {
	name, ok, err := t.envName()
	if err != nil {
		return nil, err
	}

	if !ok {
		return &Node{Kind: MacroKind, Name: "begin", Escape: "\\", Span: t.span(start)}, nil
	}

	if verbatimEnvironments[name] {
		return t.verbatimBlock(name, start)
	}

	if mathEnvironments[name] {
		return t.nested(MathEnvironmentKind, terminator{kind: untilEnd, name: name}, MathMode, start)
	}

	return t.nested(EnvironmentKind, terminator{kind: untilEnd, name: name}, TextMode, start)
}

func (t *Tokenizer) end(term terminator, start Position) (*Node, error) {
	name, ok, err := t.envName()
	if err != nil {
		return nil, err
	}

	if ok && term.kind == untilEnd && term.name == name {
		return nil, errTerminated
	}

	node := &Node{Kind: MacroKind, Name: "end", Escape: "\\", Span: t.span(start)}
	if !ok {
		return node, nil
	}

	// a stray \end{...} is kept as a macro followed by a group, so nothing is lost
	inner, err := ParseFragment(name, TextMode)
	if err != nil {
		return nil, err
	}

	for _, n := range inner {
		clearSpans(n)
	}

	node.Args = []*Argument{{OpenMark: "{", CloseMark: "}", Children: inner}}
	node.Span = nil

	return node, nil
}

// verbatimBlock reads verbatim block (ie. block where all markup is ignored) of a given type (eg. comment, verbatim etc)
// until it finds closing \\end command.
func (t *Tokenizer) verbatimBlock(name string, start Position) (*Node, error) {
	closing := "\\end{" + name + "}"

	var b strings.Builder
	for {
		r, err := t.read()
		if err == io.EOF {
			return &Node{Kind: VerbatimKind, Name: name, Data: b.String(), Span: t.span(start)}, nil
		}

		if err != nil {
			return nil, err
		}

		b.WriteRune(r)

		if strings.HasSuffix(b.String(), closing) {
			data := strings.TrimSuffix(b.String(), closing)
			return &Node{Kind: VerbatimKind, Name: name, Data: data, Span: t.span(start)}, nil
		}
	}
}

func (t *Tokenizer) verb(start Position) (*Node, error) {
	name := "verb"

	delimiter, err := t.read()
	if err == io.EOF {
		return &Node{Kind: MacroKind, Name: name, Escape: "\\", Span: t.span(start)}, nil
	}

	if err != nil {
		return nil, err
	}

	if delimiter == '*' {
		name = "verb*"

		if delimiter, err = t.read(); err == io.EOF {
			return &Node{Kind: VerbKind, Name: name, Span: t.span(start)}, nil
		}

		if err != nil {
			return nil, err
		}
	}

	// not a verb after all, keep it as a plain macro
	if isWhitespace(delimiter) || isLetter(delimiter) {
		if err := t.unread(); err != nil {
			return nil, err
		}

		return &Node{Kind: MacroKind, Name: name, Escape: "\\", Span: t.span(start)}, nil
	}

	var b strings.Builder
	for {
		r, err := t.read()
		if err != nil && err != io.EOF {
			return nil, err
		}

		if err == io.EOF || r == delimiter {
			break
		}

		b.WriteRune(r)
	}

	return &Node{Kind: VerbKind, Name: name, Escape: string(delimiter), Data: b.String(), Span: t.span(start)}, nil
}

func (t *Tokenizer) read() (rune, error) {
	var s scanned

	if n := len(t.back); n > 0 {
		s = t.back[n-1]
		t.back = t.back[:n-1]
	} else {
		r, _, err := t.r.ReadRune()
		if err != nil {
			return 0, err
		}

		s = scanned{r: r, start: t.pos}
	}

	t.pos = advance(s.start, s.r)

	t.recent = append(t.recent, s)
	if len(t.recent) > 16 {
		t.recent = t.recent[1:]
	}

	return s.r, nil
}

func (t *Tokenizer) unread() error {
	n := len(t.recent)
	if n == 0 {
		return fmt.Errorf("nothing to unread at line %d", t.pos.Line)
	}

	s := t.recent[n-1]
	t.recent = t.recent[:n-1]
	t.back = append(t.back, s)
	t.pos = s.start

	return nil
}

func advance(p Position, r rune) Position {
	p.Offset += utf8.RuneLen(r)
	if r == '\n' {
		p.Line++
		p.Column = 1
	} else {
		p.Column++
	}

	return p
}

func clearSpans(n *Node) {
	n.Span = nil
	for _, c := range n.Children {
		clearSpans(c)
	}

	for _, a := range n.Args {
		for _, c := range a.Children {
			clearSpans(c)
		}
	}
}
