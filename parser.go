package latex

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"
)

// Option changes parser configuration
type Option func(*Parser)

// WithCatalog replaces default catalog of macros and environments
func WithCatalog(c *Catalog) Option {
	return func(p *Parser) {
		p.catalog = c
	}
}

// WithAtLetter treats "@" as a letter in the whole document, as if it started with \makeatletter
func WithAtLetter() Option {
	return func(p *Parser) {
		p.letters.atLetter = true
	}
}

// WithExpl3 treats "_" and ":" as letters in the whole document, as if it started with \ExplSyntaxOn
func WithExpl3() Option {
	return func(p *Parser) {
		p.letters.expl3 = true
	}
}

// WithAutodetectRegions guesses whether "@" and expl3 names are used without explicit catcode switches
func WithAutodetectRegions() Option {
	return func(p *Parser) {
		p.autodetect = true
	}
}

// WithLogger sets logger for parse anomalies
func WithLogger(l commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// WithMaxDepth limits nesting of the document
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		p.maxDepth = n
	}
}

// Parser turns LaTeX source into a tree with macro and environment arguments attached
type Parser struct {
	catalog    *Catalog
	math       *Catalog // math only entries of catalog
	sigs       *SignatureCache
	letters    letterState
	autodetect bool
	maxDepth   int
	log        commonlog.Logger

	source   string // source of the document being parsed, spans refer to it
	warnings []*Warning
	invalid  map[string]bool // malformed signatures already reported
}

// Parse reads document with default configuration
func Parse(r io.RuneScanner) (*Node, error) {
	return NewParser().Parse(r)
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		catalog:  DefaultCatalog(),
		sigs:     NewSignatureCache(),
		maxDepth: DefaultMaxDepth,
		invalid:  map[string]bool{},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.catalog == nil {
		p.catalog = NewCatalog()
	}

	if p.log == nil {
		p.log = commonlog.GetLogger("latex.parser")
	}

	return p
}

// Define adds macro with given signature to the catalog of the parser
func (p *Parser) Define(name, signature string) {
	p.catalog.DefineMacro(name, &MacroInfo{Signature: signature})
}

// Catalog returns catalog used by the parser
func (p *Parser) Catalog() *Catalog {
	return p.catalog
}

// Warnings returns anomalies found by the last Parse or Reparse call
func (p *Parser) Warnings() []*Warning {
	return p.warnings
}

// Parse reads the whole input, tokenizes it and attaches arguments
func (p *Parser) Parse(r io.RuneScanner) (*Node, error) {
	var b strings.Builder
	for {
		c, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}

		b.WriteRune(c)
	}

	root, err := Tokenize(strings.NewReader(b.String()), WithTokenizerDepth(p.maxDepth))
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	return p.reparse(root, b.String())
}

// Reparse attaches arguments to a minimal tree, for example one returned by Tokenize. Math content is re-read from
// its printed form, since original source is not known.
func (p *Parser) Reparse(root *Node) (*Node, error) {
	return p.reparse(root, "")
}

func (p *Parser) reparse(root *Node, source string) (*Node, error) {
	p.source = source
	p.warnings = nil
	p.math = p.catalog.mathOnly()

	letters := p.letters
	if p.autodetect {
		detected := detectLetters(root.Children)
		letters.atLetter = letters.atLetter || detected.atLetter
		letters.expl3 = letters.expl3 || detected.expl3
	}

	if root.HasContent() {
		mergeLetters(&root.Children, letters)
	}

	root, err := p.attach(root, p.math, true)
	if err != nil {
		return nil, fmt.Errorf("attach math arguments: %w", err)
	}

	root, err = p.attach(root, p.catalog, false)
	if err != nil {
		return nil, fmt.Errorf("attach arguments: %w", err)
	}

	if err := trimContent(root, p.maxDepth); err != nil {
		return nil, fmt.Errorf("trim: %w", err)
	}

	p.log.Debugf("parsed document with %d warnings", len(p.warnings))

	return root, nil
}

// attach walks the tree and attaches arguments of macros and environments known to catalog. In math pass, content
// of math environments which was read as text is re-read in math mode.
func (p *Parser) attach(root *Node, catalog *Catalog, math bool) (*Node, error) {
	v := &Visitor{Catalog: p.catalog, MaxDepth: p.maxDepth}

	v.EnterArray = func(nodes *[]*Node, info *VisitInfo) error {
		p.attachMacros(nodes, catalog)
		return nil
	}

	v.Enter = func(node *Node, info *VisitInfo) (Action, error) {
		if node.Kind != EnvironmentKind && node.Kind != MathEnvironmentKind || node.Args != nil {
			return Continue, nil
		}

		env := catalog.Environment(node.Name)
		if env == nil {
			return Continue, nil
		}

		node.Args = p.gobble(&node.Children, 0, node.Name, env.Signature, env.ArgumentParser, node.Span)
		return Continue, nil
	}

	v.Leave = func(node *Node, info *VisitInfo) (Action, error) {
		if math {
			return Continue, p.reparseMath(node, info)
		}

		if node.Kind == EnvironmentKind || node.Kind == MathEnvironmentKind {
			if env := catalog.Environment(node.Name); env != nil && env.ProcessContent != nil {
				node.Children = nonNil(env.ProcessContent(node.Children))
			}
		}

		return Continue, nil
	}

	return v.Walk(root)
}

// attachMacros gobbles arguments for every known macro in the array which has none yet
func (p *Parser) attachMacros(nodes *[]*Node, catalog *Catalog) {
	for i := 0; i < len(*nodes); i++ {
		node := (*nodes)[i]
		if node.Kind != MacroKind || node.Args != nil {
			continue
		}

		info := macroInfo(catalog, node)
		if info == nil {
			continue
		}

		node.Args = p.gobble(nodes, i+1, node.Name, info.Signature, info.ArgumentParser, node.Span)

		if isDefinition(node) {
			protectName(node)
		}
	}
}

// macroInfo looks macro up in catalog, "^" and "_" entries only describe active characters of math mode and not
// \^ or \_ control symbols
func macroInfo(c *Catalog, node *Node) *MacroInfo {
	if (node.Name == "^" || node.Name == "_") != (node.Escape == "") {
		return nil
	}

	return c.Macro(node.Name)
}

func (p *Parser) gobble(nodes *[]*Node, start int, name, signature string, parser ArgumentParser, span *Span) []*Argument {
	sig, err := p.sigs.Get(signature)
	if err != nil {
		// malformed catalog entry, the macro is read as one taking no arguments
		p.warn(&Warning{Err: err, Name: name, Span: span})
		sig = Signature{}
	}

	res := GobbleWith(nodes, start, sig, parser)

	for _, e := range res.Errors {
		p.warn(&Warning{Err: fmt.Errorf("argument %d: %w", e.Slot+1, e.Err), Name: name, Span: span})
	}

	if res.Args == nil {
		return []*Argument{}
	}

	return res.Args
}

func (p *Parser) warn(w *Warning) {
	p.warnings = append(p.warnings, w)

	if _, ok := w.Err.(*SignatureError); ok {
		if p.invalid[w.Name] {
			return
		}

		p.invalid[w.Name] = true
	}

	p.log.Warningf("%s", w.Error())
}

// reparseMath re-reads content of math environments and arguments of math macros which were tokenized as text
func (p *Parser) reparseMath(node *Node, info *VisitInfo) error {
	switch node.Kind {
	case EnvironmentKind, MathEnvironmentKind:
		env := p.catalog.Environment(node.Name)
		if node.Kind == EnvironmentKind && (env == nil || !env.InMathMode) {
			return nil
		}

		if looksMath(node.Children) {
			return nil
		}

		children, err := p.retokenize(node.Children)
		if err != nil {
			return err
		}

		node.Kind = MathEnvironmentKind
		node.Children = children
	case MacroKind:
		m := macroInfo(p.catalog, node)
		if m == nil || !m.InMathMode || info.Context.InMathMode {
			return nil
		}

		for _, arg := range node.Args {
			if looksMath(arg.Children) {
				continue
			}

			children, err := p.retokenize(arg.Children)
			if err != nil {
				return err
			}

			arg.Children = children
		}
	}

	return nil
}

// looksMath guesses whether nodes were tokenized in math mode: math mode produces single character strings and turns
// "^" and "_" into macros
func looksMath(nodes []*Node) bool {
	for _, node := range nodes {
		if node.Kind != StringKind {
			continue
		}

		if utf8.RuneCountInString(node.Data) > 1 || node.Data == "^" || node.Data == "_" {
			return false
		}
	}

	return true
}

// retokenize reads nodes again in math mode and attaches math arguments to the result. Original source is used when
// nodes were not edited, so spans stay valid.
func (p *Parser) retokenize(nodes []*Node) ([]*Node, error) {
	if len(nodes) == 0 {
		return nodes, nil
	}

	var children []*Node

	if start, end, ok := p.sourceRange(nodes); ok {
		root, err := Tokenize(strings.NewReader(p.source[start.Offset:end.Offset]),
			InMode(MathMode), StartingAt(start), WithTokenizerDepth(p.maxDepth))
		if err != nil {
			return nil, err
		}

		children = root.Children
	} else {
		fragment, err := ParseFragment(String(nodes...), MathMode)
		if err != nil {
			return nil, err
		}

		for _, node := range fragment {
			clearSpans(node)
		}

		children = fragment
	}

	group := &Node{Kind: MathEnvironmentKind, Children: children}
	if _, err := p.attach(group, p.math, true); err != nil {
		return nil, err
	}

	return group.Children, nil
}

func (p *Parser) sourceRange(nodes []*Node) (Position, Position, bool) {
	if p.source == "" {
		return Position{}, Position{}, false
	}

	if !hasSpans(nodes) {
		return Position{}, Position{}, false
	}

	// span of a macro covers its name only, arguments attached to the last node would be cut off
	if last := nodes[len(nodes)-1]; last.Kind == MacroKind && len(last.Args) > 0 {
		return Position{}, Position{}, false
	}

	start, end := nodes[0].Span.Start, nodes[len(nodes)-1].Span.End
	if start.Offset > end.Offset || end.Offset > len(p.source) {
		return Position{}, Position{}, false
	}

	return start, end, true
}

// hasSpans reports whether all nodes and their descendants still refer to the source
func hasSpans(nodes []*Node) bool {
	for _, node := range nodes {
		if node.Span == nil || !hasSpans(node.Children) {
			return false
		}

		for _, arg := range node.Args {
			if !hasSpans(arg.Children) {
				return false
			}
		}
	}

	return true
}
