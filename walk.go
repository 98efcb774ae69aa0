package latex

// Context describes mode of the position being visited
type Context struct {
	InMathMode          bool // content is typeset in math mode
	HasMathModeAncestor bool // some ancestor is math or math-like, even if current position is text (eg. \text{...})
	InParMode           bool // content may contain paragraphs
}

// VisitInfo describes where the visited node or array is located
type VisitInfo struct {
	Parents []*Node  // innermost parent first
	Key     string   // "args" or "children", empty for root
	Index   int      // index of the node in containing array, -1 for root and for arrays themselves
	Nodes   *[]*Node // containing array, nil for root
	Context Context
}

type action int

const (
	continueAction action = iota
	skipAction
	replaceAction
)

// Action tells walker what to do after visiting a node
type Action struct {
	kind  action
	nodes []*Node
}

var (
	// Continue descends into the node
	Continue = Action{}

	// Skip does not descend into node's arguments and children
	Skip = Action{kind: skipAction}
)

// Replace splices nodes in place of visited node, inserted nodes are not visited
func Replace(nodes ...*Node) Action {
	return Action{kind: replaceAction, nodes: nodes}
}

// Remove deletes visited node from its array
func Remove() Action {
	return Action{kind: replaceAction}
}

// Visitor walks tree depth first, calling Enter before descending into a node and Leave after. Arguments of a node are
// visited before its children. Any callback may be nil, any error returned from a callback aborts the walk.
type Visitor struct {
	Enter      func(node *Node, info *VisitInfo) (Action, error)
	Leave      func(node *Node, info *VisitInfo) (Action, error)
	EnterArray func(nodes *[]*Node, info *VisitInfo) error
	LeaveArray func(nodes *[]*Node, info *VisitInfo) error

	// Catalog is used to derive math and paragraph mode of macro arguments and environment bodies
	Catalog *Catalog

	// MaxDepth limits nesting, DefaultMaxDepth is used when zero
	MaxDepth int
}

// Walk visits root and everything below it. When root gets replaced, the replacement is returned.
func (v *Visitor) Walk(root *Node) (*Node, error) {
	w := &walker{Visitor: v, max: v.MaxDepth}
	if w.max <= 0 {
		w.max = DefaultMaxDepth
	}

	info := &VisitInfo{Index: -1, Context: Context{InParMode: true}}

	act, err := w.enter(root, info)
	if err != nil {
		return nil, err
	}

	if act.kind == replaceAction {
		return replaceRoot(act)
	}

	if act.kind != skipAction {
		if err := w.descend(root, nil, info.Context); err != nil {
			return nil, err
		}
	}

	act, err = w.leave(root, info)
	if err != nil {
		return nil, err
	}

	if act.kind == replaceAction {
		return replaceRoot(act)
	}

	return root, nil
}

func replaceRoot(act Action) (*Node, error) {
	if len(act.nodes) != 1 {
		return nil, ErrReplaceRoot
	}

	return act.nodes[0], nil
}

type walker struct {
	*Visitor
	depth int
	max   int
}

func (w *walker) enter(node *Node, info *VisitInfo) (Action, error) {
	if w.Enter == nil {
		return Continue, nil
	}

	return w.Enter(node, info)
}

func (w *walker) leave(node *Node, info *VisitInfo) (Action, error) {
	if w.Leave == nil {
		return Continue, nil
	}

	return w.Leave(node, info)
}

func (w *walker) descend(node *Node, parents []*Node, ctx Context) error {
	w.depth++
	defer func() { w.depth-- }()

	if w.depth > w.max {
		return ErrTooDeep
	}

	parents = append([]*Node{node}, parents...)

	for _, arg := range node.Args {
		if arg == nil {
			continue
		}

		if err := w.array(&arg.Children, "args", parents, w.argContext(node, ctx)); err != nil {
			return err
		}
	}

	if node.HasContent() {
		if err := w.array(&node.Children, "children", parents, w.contentContext(node, ctx)); err != nil {
			return err
		}
	}

	return nil
}

func (w *walker) array(nodes *[]*Node, key string, parents []*Node, ctx Context) error {
	info := &VisitInfo{Parents: parents, Key: key, Index: -1, Nodes: nodes, Context: ctx}

	if w.EnterArray != nil {
		if err := w.EnterArray(nodes, info); err != nil {
			return err
		}
	}

	for i := 0; i < len(*nodes); {
		node := (*nodes)[i]
		info := &VisitInfo{Parents: parents, Key: key, Index: i, Nodes: nodes, Context: ctx}

		act, err := w.enter(node, info)
		if err != nil {
			return err
		}

		if act.kind == replaceAction {
			splice(nodes, i, 1, act.nodes...)
			i += len(act.nodes)
			continue
		}

		if act.kind != skipAction {
			if err := w.descend(node, parents, ctx); err != nil {
				return err
			}
		}

		act, err = w.leave(node, info)
		if err != nil {
			return err
		}

		i = position(*nodes, node, i)

		if act.kind == replaceAction {
			splice(nodes, i, 1, act.nodes...)
			i += len(act.nodes)
			continue
		}

		i++
	}

	if w.LeaveArray != nil {
		return w.LeaveArray(nodes, info)
	}

	return nil
}

// position finds node in array, starting from expected index, since callbacks may reshape the array
func position(nodes []*Node, node *Node, expected int) int {
	if expected < len(nodes) && nodes[expected] == node {
		return expected
	}

	for i, n := range nodes {
		if n == node {
			return i
		}
	}

	return expected
}

func (w *walker) argContext(node *Node, ctx Context) Context {
	ctx.InParMode = false

	if node.Kind != MacroKind {
		return ctx
	}

	info := w.Catalog.Macro(node.Name)
	if info == nil {
		return ctx
	}

	switch {
	case info.TextArgs:
		ctx.InMathMode = false
	case info.InMathMode:
		ctx.HasMathModeAncestor = true
	case info.InParMode:
		ctx.InParMode = !ctx.InMathMode
	}

	return ctx
}

func (w *walker) contentContext(node *Node, ctx Context) Context {
	switch node.Kind {
	case RootKind:
		return Context{InParMode: true}
	case InlineMathKind, DisplayMathKind, MathEnvironmentKind:
		return Context{InMathMode: true, HasMathModeAncestor: true}
	case EnvironmentKind:
		if info := w.Catalog.Environment(node.Name); info != nil && info.InMathMode {
			ctx.HasMathModeAncestor = true
		}

		ctx.InParMode = !ctx.InMathMode
		return ctx
	default:
		return ctx
	}
}
