package latex

import (
	"fmt"
	"strconv"
	"strings"
)

// Definition is a macro defined in a document
type Definition struct {
	Name      string  // name of the defined macro, without escape
	Signature string  // argument signature in xparse form
	Body      []*Node // replacement text
	Command   string  // defining command, eg. newcommand or def
	Starred   bool    // starred form, arguments can't contain paragraph breaks
}

var latexDefinitionSignature = MustParseSignature("s m o +o +m")

// nameArgs tells which argument of a defining command holds the name of the defined macro
var nameArgs = map[string]int{
	"newcommand":             1,
	"renewcommand":           1,
	"providecommand":         1,
	"DeclareRobustCommand":   1,
	"NewDocumentCommand":     0,
	"RenewDocumentCommand":   0,
	"ProvideDocumentCommand": 0,
	"DeclareDocumentCommand": 0,
	"def":                    0,
	"gdef":                   0,
	"edef":                   0,
	"xdef":                   0,
}

// isDefinition reports whether node is a command defining a new macro
func isDefinition(node *Node) bool {
	_, ok := nameArgs[node.Name]
	return ok && node.Kind == MacroKind && node.Escape == "\\"
}

// protectName marks the name of a macro being defined as having no arguments, it is not an invocation
func protectName(node *Node) {
	i, ok := nameArgs[node.Name]
	if !ok || i >= len(node.Args) {
		return
	}

	for _, child := range node.Args[i].Children {
		if child.Kind == MacroKind && child.Args == nil {
			child.Args = []*Argument{}
		}
	}
}

// ListNewcommands returns macro definitions found in a tree with attached arguments, in document order. Trees nested
// deeper than DefaultMaxDepth are rejected with ErrTooDeep.
func ListNewcommands(root *Node) ([]Definition, error) {
	var defs []Definition

	v := &Visitor{
		Enter: func(node *Node, info *VisitInfo) (Action, error) {
			if node.Kind != MacroKind {
				return Continue, nil
			}

			if def, ok := definition(node); ok {
				defs = append(defs, def)
				return Skip, nil
			}

			return Continue, nil
		},
	}

	if _, err := v.Walk(root); err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}

	return defs, nil
}

func definition(node *Node) (Definition, bool) {
	switch {
	case node.IsMacro("newcommand", "renewcommand", "providecommand", "DeclareRobustCommand"):
		return latexDefinition(node)
	case node.IsMacro("NewDocumentCommand", "RenewDocumentCommand", "ProvideDocumentCommand", "DeclareDocumentCommand"):
		return documentDefinition(node)
	case node.IsMacro("def", "gdef", "edef", "xdef"):
		return plainDefinition(node)
	}

	return Definition{}, false
}

// latexDefinition reads \newcommand*{\name}[n][default]{body}
func latexDefinition(node *Node) (Definition, bool) {
	if len(node.Args) != 5 {
		return Definition{}, false
	}

	name, ok := definedName(node.Args[1])
	if !ok {
		return Definition{}, false
	}

	n := 0
	if count := node.Args[2]; !count.IsAbsent() {
		raw, err := stringify(count.Children)
		if err != nil {
			return Definition{}, false
		}

		if n, err = strconv.Atoi(strings.TrimSpace(raw)); err != nil || n < 0 || n > 9 {
			return Definition{}, false
		}
	}

	var sig []string
	for i := 0; i < n; i++ {
		sig = append(sig, "m")
	}

	if def := node.Args[3]; n > 0 && !def.IsAbsent() {
		sig[0] = "O{" + String(def.Children...) + "}"
	}

	return Definition{
		Name:      name,
		Signature: strings.Join(sig, " "),
		Body:      node.Args[4].Children,
		Command:   node.Name,
		Starred:   latexDefinitionSignature.Starred(node.Args, 0),
	}, true
}

// documentDefinition reads \NewDocumentCommand{\name}{signature}{body}
func documentDefinition(node *Node) (Definition, bool) {
	if len(node.Args) != 3 {
		return Definition{}, false
	}

	name, ok := definedName(node.Args[0])
	if !ok {
		return Definition{}, false
	}

	return Definition{
		Name:      name,
		Signature: strings.TrimSpace(String(node.Args[1].Children...)),
		Body:      node.Args[2].Children,
		Command:   node.Name,
	}, true
}

// plainDefinition reads \def\name#1#2{body}, delimited parameters are read as plain mandatory ones
func plainDefinition(node *Node) (Definition, bool) {
	if len(node.Args) != 3 {
		return Definition{}, false
	}

	name, ok := definedName(node.Args[0])
	if !ok {
		return Definition{}, false
	}

	n := 0
	for _, param := range node.Args[1].Children {
		if k := placeholderIndex(param); k > n {
			n = k
		}
	}

	sig := strings.TrimSpace(strings.Repeat("m ", n))

	return Definition{Name: name, Signature: sig, Body: node.Args[2].Children, Command: node.Name}, true
}

func definedName(arg *Argument) (string, bool) {
	for _, node := range arg.Children {
		switch node.Kind {
		case WhitespaceKind, CommentKind:
			continue
		case MacroKind:
			return node.Name, true
		}

		return "", false
	}

	return "", false
}

// Templates compiles definitions, later definitions override earlier ones unless they are "provide" commands.
// Definitions with malformed signatures are skipped and reported.
func Templates(defs []Definition) (map[string]*Template, []*Warning) {
	cache := NewSignatureCache()
	templates := map[string]*Template{}

	var warnings []*Warning

	for _, def := range defs {
		provide := def.Command == "providecommand" || def.Command == "ProvideDocumentCommand"
		if _, ok := templates[def.Name]; ok && provide {
			continue
		}

		sig, err := cache.Get(def.Signature)
		if err != nil {
			warnings = append(warnings, &Warning{Err: fmt.Errorf("definition of %s: %w", def.Name, err), Name: def.Command})
			continue
		}

		templates[def.Name] = CompileTemplate(def.Body, sig)
	}

	return templates, warnings
}
