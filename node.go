package latex

// Kind identifies node variant
type Kind int

const (
	RootKind Kind = iota
	StringKind
	WhitespaceKind
	ParbreakKind
	CommentKind
	GroupKind
	MacroKind
	EnvironmentKind
	MathEnvironmentKind
	InlineMathKind
	DisplayMathKind
	VerbatimKind
	VerbKind
)

var kindNames = map[Kind]string{
	RootKind:            "root",
	StringKind:          "string",
	WhitespaceKind:      "whitespace",
	ParbreakKind:        "parbreak",
	CommentKind:         "comment",
	GroupKind:           "group",
	MacroKind:           "macro",
	EnvironmentKind:     "environment",
	MathEnvironmentKind: "mathenv",
	InlineMathKind:      "inlinemath",
	DisplayMathKind:     "displaymath",
	VerbatimKind:        "verbatim",
	VerbKind:            "verb",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Position is a location in the original source, Offset is in bytes, Line and Column start at 1
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is a range in the original source text
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Node is an element of LaTeX document tree.
//
// Which fields are meaningful depends on Kind:
//   - StringKind, CommentKind: Data
//   - MacroKind: Name, Escape, Args
//   - EnvironmentKind, MathEnvironmentKind: Name, Args, Children
//   - GroupKind, InlineMathKind, DisplayMathKind, RootKind: Children
//   - VerbatimKind: Name (environment name) and Data (raw content)
//   - VerbKind: Name (verb or verb*), Escape (delimiter) and Data
type Node struct {
	Kind     Kind        `json:"kind"`
	Name     string      `json:"name,omitempty"`
	Data     string      `json:"data,omitempty"`
	Escape   string      `json:"escape,omitempty"`
	Children []*Node     `json:"children,omitempty"`
	Args     []*Argument `json:"args,omitempty"`

	// comment flags
	LeadingWhitespace bool `json:"leadingWhitespace,omitempty"`
	Sameline          bool `json:"sameline,omitempty"`
	SuffixParbreak    bool `json:"suffixParbreak,omitempty"`

	Span *Span `json:"span,omitempty"`
}

// Argument is an argument attached to a macro or an environment. An argument with empty marks and no
// children is the absent-argument marker: the slot exists in the signature, but no value was given.
type Argument struct {
	OpenMark  string  `json:"openMark"`
	CloseMark string  `json:"closeMark"`
	Children  []*Node `json:"children"`
}

// Absent creates the absent-argument marker
func Absent() *Argument {
	return &Argument{}
}

// IsAbsent returns true if argument marks that no value was supplied
func (a *Argument) IsAbsent() bool {
	return a == nil || (a.OpenMark == "" && a.CloseMark == "" && len(a.Children) == 0)
}

// Clone makes a deep copy of the argument
func (a *Argument) Clone() *Argument {
	if a == nil {
		return nil
	}

	return &Argument{OpenMark: a.OpenMark, CloseMark: a.CloseMark, Children: CloneNodes(a.Children)}
}

// Clone makes a deep copy of node, the copy shares nothing with the original
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Children = CloneNodes(n.Children)

	if n.Args != nil {
		c.Args = make([]*Argument, len(n.Args))
		for i, arg := range n.Args {
			c.Args[i] = arg.Clone()
		}
	}

	if n.Span != nil {
		span := *n.Span
		c.Span = &span
	}

	return &c
}

// CloneNodes makes a deep copy of each node
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}

	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}

	return out
}

// HasContent returns true if node kind owns a Children array
func (n *Node) HasContent() bool {
	switch n.Kind {
	case RootKind, GroupKind, EnvironmentKind, MathEnvironmentKind, InlineMathKind, DisplayMathKind:
		return true
	default:
		return false
	}
}

// IsMath returns true for nodes whose content is always in math mode
func (n *Node) IsMath() bool {
	return n.Kind == MathEnvironmentKind || n.Kind == InlineMathKind || n.Kind == DisplayMathKind
}

// IsMacro checks if node is a macro with one of the given names (any name if none given)
func (n *Node) IsMacro(names ...string) bool {
	if n == nil || n.Kind != MacroKind {
		return false
	}

	if len(names) == 0 {
		return true
	}

	for _, name := range names {
		if n.Name == name {
			return true
		}
	}

	return false
}

// IsString checks if node is a string with exactly given content
func (n *Node) IsString(data string) bool {
	return n != nil && n.Kind == StringKind && n.Data == data
}

// IsSpace returns true for whitespace and parbreak nodes
func (n *Node) IsSpace() bool {
	return n != nil && (n.Kind == WhitespaceKind || n.Kind == ParbreakKind)
}

// Str creates string node
func Str(data string) *Node {
	return &Node{Kind: StringKind, Data: data}
}

// Space creates whitespace node
func Space() *Node {
	return &Node{Kind: WhitespaceKind}
}

// Par creates parbreak node
func Par() *Node {
	return &Node{Kind: ParbreakKind}
}

// Comment creates comment node
func Comment(data string) *Node {
	return &Node{Kind: CommentKind, Data: data}
}

// Group creates {...} group node
func Group(children ...*Node) *Node {
	return &Node{Kind: GroupKind, Children: nonNil(children)}
}

// Macro creates macro node with "\" escape token
func Macro(name string, args ...*Argument) *Node {
	return &Node{Kind: MacroKind, Name: name, Escape: "\\", Args: args}
}

// Env creates environment node
func Env(name string, children ...*Node) *Node {
	return &Node{Kind: EnvironmentKind, Name: name, Children: nonNil(children)}
}

// Root creates document root node
func Root(children ...*Node) *Node {
	return &Node{Kind: RootKind, Children: nonNil(children)}
}

// Arg creates argument with given marks
func Arg(open, close string, children ...*Node) *Argument {
	return &Argument{OpenMark: open, CloseMark: close, Children: nonNil(children)}
}

// Placeholder creates #k parameter token
func Placeholder(k int) *Node {
	return &Node{Kind: MacroKind, Name: string(rune('0' + k)), Escape: "#"}
}

// placeholderIndex returns k for #k parameter token, or 0 if node is not one
func placeholderIndex(n *Node) int {
	if n == nil || n.Kind != MacroKind || n.Escape != "#" || len(n.Name) != 1 {
		return 0
	}

	if n.Name[0] < '1' || n.Name[0] > '9' {
		return 0
	}

	return int(n.Name[0] - '0')
}

func nonNil(children []*Node) []*Node {
	if children == nil {
		return []*Node{}
	}

	return children
}
