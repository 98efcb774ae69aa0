package latex

import (
	"fmt"
	"sort"
)

// Template is a compiled macro body, it substitutes #1..#9 placeholders with arguments of an invocation
type Template struct {
	body     []*Node
	sig      Signature
	defaults []*DefaultValue
	used     []int
}

// CompileTemplate prepares body for expansion. Body is copied, later changes to it do not affect the template.
func CompileTemplate(body []*Node, sig Signature) *Template {
	t := &Template{sig: sig, defaults: sig.slotDefaults()}

	seen := map[int]bool{}
	t.body = normalizePlaceholders(CloneNodes(body), seen)

	for k := range seen {
		t.used = append(t.used, k)
	}

	sort.Ints(t.used)

	return t
}

// Placeholders returns distinct placeholder indexes used in the body, in ascending order
func (t *Template) Placeholders() []int {
	return append([]int{}, t.used...)
}

// Signature returns signature the template was compiled with
func (t *Template) Signature() Signature {
	return t.sig
}

// Expand substitutes arguments of macro m into the template. Absent arguments are replaced with defaults parsed in
// the given mode, placeholders which can't be filled stay in the output as is. Neither template nor macro are changed.
func (t *Template) Expand(m *Node, mode Mode) ([]*Node, []*Warning) {
	if len(t.used) == 0 {
		return CloneNodes(t.body), nil
	}

	r := newResolver(t.defaults, m.Args, mode)
	out := r.substitute(CloneNodes(t.body))

	for _, w := range r.warnings {
		w.Name, w.Span = m.Name, m.Span
	}

	return out, r.warnings
}

// ResolveDefaults returns copy of args where omitted arguments are replaced with defaults from signature. Defaults may
// refer to other arguments with #k placeholders.
func ResolveDefaults(sig Signature, args []*Argument, mode Mode) ([]*Argument, []*Warning) {
	r := newResolver(sig.slotDefaults(), args, mode)
	specs := slotSpecs(sig)

	out := make([]*Argument, len(specs))
	for i, spec := range specs {
		var arg *Argument
		if i < len(args) && args[i] != nil {
			arg = args[i].Clone()
		} else {
			arg = Absent()
		}

		if arg.IsAbsent() && r.hasDefault(i+1) {
			if value := r.value(i + 1); value != nil {
				arg = &Argument{OpenMark: spec.OpenMark, CloseMark: spec.CloseMark, Children: value}
				if spec.Kind == EmbellishmentArg {
					arg.OpenMark, arg.CloseMark = spec.Tokens[i-slotOffset(specs, spec)]+"{", "}"
				}
			}
		}

		out[i] = arg
	}

	return out, r.warnings
}

// slotSpecs returns entry of signature for every argument slot
func slotSpecs(sig Signature) []*ArgSpec {
	var specs []*ArgSpec
	for _, spec := range sig {
		for i := 0; i < spec.Slots(); i++ {
			specs = append(specs, spec)
		}
	}

	return specs
}

func slotOffset(specs []*ArgSpec, spec *ArgSpec) int {
	for i, s := range specs {
		if s == spec {
			return i
		}
	}

	return 0
}

type resolver struct {
	defaults []*DefaultValue
	args     []*Argument
	mode     Mode

	// slots whose default is being expanded, and placeholders produced for them meanwhile
	progress    []int
	provisional map[*Node]int

	warnings []*Warning
}

func newResolver(defaults []*DefaultValue, args []*Argument, mode Mode) *resolver {
	return &resolver{defaults: defaults, args: args, mode: mode, provisional: map[*Node]int{}}
}

func (r *resolver) hasDefault(k int) bool {
	return k-1 < len(r.defaults) && r.defaults[k-1] != nil
}

func (r *resolver) busy(k int) bool {
	for _, p := range r.progress {
		if p == k {
			return true
		}
	}

	return false
}

// substitute replaces placeholders in already copied nodes
func (r *resolver) substitute(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))

	for _, node := range nodes {
		if _, ok := r.provisional[node]; ok {
			out = append(out, node)
			continue
		}

		if k := placeholderIndex(node); k > 0 {
			out = append(out, r.value(k)...)
			continue
		}

		for _, arg := range node.Args {
			if arg != nil {
				arg.Children = r.substitute(arg.Children)
			}
		}

		if node.HasContent() {
			node.Children = r.substitute(node.Children)
		}

		out = append(out, node)
	}

	return out
}

// value returns content for #k, nil means the argument is empty
func (r *resolver) value(k int) []*Node {
	if r.busy(k) {
		p := Placeholder(k)
		r.provisional[p] = k
		return []*Node{p}
	}

	if k-1 < len(r.args) && r.args[k-1] != nil && !r.args[k-1].IsAbsent() {
		return CloneNodes(r.args[k-1].Children)
	}

	if !r.hasDefault(k) {
		return []*Node{Placeholder(k)}
	}

	parsed, err := r.defaults[k-1].Parse(r.mode)
	if err != nil {
		return []*Node{Str(r.defaults[k-1].Raw)}
	}

	r.progress = append(r.progress, k)
	res := r.substitute(normalizePlaceholders(parsed, map[int]bool{}))
	r.progress = r.progress[:len(r.progress)-1]

	// default of #k is just #k, nothing to expand to
	if len(res) == 1 && r.provisional[res[0]] == k {
		delete(r.provisional, res[0])
		return nil
	}

	if r.refers(res, k) {
		r.warnings = append(r.warnings, &Warning{Err: fmt.Errorf("#%d: %w", k, ErrSelfReference)})
		return []*Node{Str(fmt.Sprintf("?#%d", k))}
	}

	return res
}

// refers reports whether nodes contain a provisional placeholder of slot k
func (r *resolver) refers(nodes []*Node, k int) bool {
	for _, node := range nodes {
		if j, ok := r.provisional[node]; ok && j == k {
			return true
		}

		for _, arg := range node.Args {
			if arg != nil && r.refers(arg.Children, k) {
				return true
			}
		}

		if r.refers(node.Children, k) {
			return true
		}
	}

	return false
}

// normalizePlaceholders turns "##" into literal "#" and "#" followed by digit into placeholder, used placeholder
// indexes are stored in seen
func normalizePlaceholders(nodes []*Node, seen map[int]bool) []*Node {
	out := make([]*Node, 0, len(nodes))

	for i := 0; i < len(nodes); i++ {
		node := nodes[i]

		switch {
		case node.IsString("##"):
			out = append(out, Str("#"))
			continue
		case node.IsString("#") && i+1 < len(nodes) && nodes[i+1].Kind == StringKind && nodes[i+1].Data != "" &&
			nodes[i+1].Data[0] >= '1' && nodes[i+1].Data[0] <= '9':
			next := nodes[i+1]
			k := int(next.Data[0] - '0')

			seen[k] = true
			out = append(out, Placeholder(k))

			if len(next.Data) > 1 {
				out = append(out, Str(next.Data[1:]))
			}

			i++
			continue
		}

		if k := placeholderIndex(node); k > 0 {
			seen[k] = true
		}

		for _, arg := range node.Args {
			if arg != nil {
				arg.Children = normalizePlaceholders(arg.Children, seen)
			}
		}

		if node.HasContent() {
			node.Children = normalizePlaceholders(node.Children, seen)
		}

		out = append(out, node)
	}

	return out
}

// ExpandMacros replaces invocations of macros having a template with their expansion. Arguments are expanded before
// the invocation itself, text produced by templates is not expanded again.
func ExpandMacros(root *Node, templates map[string]*Template) (*Node, []*Warning, error) {
	var warnings []*Warning

	v := &Visitor{
		Enter: func(node *Node, info *VisitInfo) (Action, error) {
			// bodies of definitions are templates themselves
			if isDefinition(node) {
				return Skip, nil
			}

			return Continue, nil
		},
		Leave: func(node *Node, info *VisitInfo) (Action, error) {
			if node.Kind != MacroKind || node.Escape != "\\" {
				return Continue, nil
			}

			t, ok := templates[node.Name]
			if !ok {
				return Continue, nil
			}

			mode := TextMode
			if info.Context.InMathMode {
				mode = MathMode
			}

			out, warns := t.Expand(node, mode)
			warnings = append(warnings, warns...)

			return Replace(out...), nil
		},
	}

	root, err := v.Walk(root)
	if err != nil {
		return nil, warnings, err
	}

	return root, warnings, nil
}
