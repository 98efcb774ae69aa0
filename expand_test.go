package latex_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/eolymp/go-latex-ast"
	"github.com/google/go-cmp/cmp"
)

func TestTemplateExpand(t *testing.T) {
	str := latex.Str

	tt := []struct {
		name      string
		body      string
		signature string
		args      []*latex.Argument
		output    string
		warnings  []error
	}{
		{
			name:      "placeholder and escaped hash",
			body:      "a b #1 c ##2",
			signature: "m",
			args:      []*latex.Argument{latex.Arg("{", "}", str("Z"))},
			output:    "a b Z c #2",
		},
		{
			name:      "argument which is not given stays a placeholder",
			body:      "x#1y",
			signature: "",
			output:    "x#1y",
		},
		{
			name:      "body without placeholders",
			body:      "\\textbf{x}",
			signature: "m",
			args:      []*latex.Argument{latex.Arg("{", "}", str("ignored"))},
			output:    "\\textbf{x}",
		},
		{
			name:      "default of an absent optional argument",
			body:      "[#1|#2]",
			signature: "O{def} m",
			args:      []*latex.Argument{latex.Absent(), latex.Arg("{", "}", str("b"))},
			output:    "[def|b]",
		},
		{
			name:      "given optional argument wins over default",
			body:      "[#1|#2]",
			signature: "O{def} m",
			args:      []*latex.Argument{latex.Arg("[", "]", str("given")), latex.Arg("{", "}", str("b"))},
			output:    "[given|b]",
		},
		{
			name:      "default referring to another argument",
			body:      "#1-#2",
			signature: "m O{#1}",
			args:      []*latex.Argument{latex.Arg("{", "}", str("x")), latex.Absent()},
			output:    "x-x",
		},
		{
			name:      "default which is exactly itself is empty",
			body:      "<#1>",
			signature: "O{#1}",
			args:      []*latex.Argument{latex.Absent()},
			output:    "<>",
		},
		{
			name:      "default containing itself",
			body:      "<#1>",
			signature: "O{a#1}",
			args:      []*latex.Argument{latex.Absent()},
			output:    "<?#1>",
			warnings:  []error{latex.ErrSelfReference},
		},
		{
			name:      "mutually referring defaults",
			body:      "<#1|#2>",
			signature: "O{#2} O{#1}",
			args:      []*latex.Argument{latex.Absent(), latex.Absent()},
			output:    "<|>",
		},
		{
			name:      "embellishment default",
			body:      "x^#1",
			signature: "E{^}{{2}}",
			args:      []*latex.Argument{latex.Absent()},
			output:    "x^2",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			body, err := latex.ParseFragment(tc.body, latex.TextMode)
			if err != nil {
				t.Fatalf("Unable to parse body: %v", err)
			}

			tpl := latex.CompileTemplate(body, latex.MustParseSignature(tc.signature))

			out, warnings := tpl.Expand(latex.Macro("foo", tc.args...), latex.TextMode)

			if got := latex.String(out...); got != tc.output {
				t.Errorf("Expansion does not match: want %q, got %q", tc.output, got)
			}

			if len(warnings) != len(tc.warnings) {
				t.Fatalf("Expected %d warnings, got %v", len(tc.warnings), warnings)
			}

			for i, want := range tc.warnings {
				if !errors.Is(warnings[i], want) {
					t.Errorf("Warning %d must be %v, got %v", i, want, warnings[i])
				}

				if warnings[i].Name != "foo" {
					t.Errorf("Warning %d must name the macro, got %q", i, warnings[i].Name)
				}
			}
		})
	}
}

func TestTemplateIsImmutable(t *testing.T) {
	body, err := latex.ParseFragment("(#1)", latex.TextMode)
	if err != nil {
		t.Fatalf("Unable to parse body: %v", err)
	}

	tpl := latex.CompileTemplate(body, latex.MustParseSignature("m"))

	// changes to the source body do not affect the template
	body[0].Data = "["

	macro := latex.Macro("foo", latex.Arg("{", "}", latex.Str("a")))

	first, _ := tpl.Expand(macro, latex.TextMode)
	first[1].Data = "changed"

	second, _ := tpl.Expand(macro, latex.TextMode)

	if got := latex.String(second...); got != "(a)" {
		t.Errorf("Template output changed between expansions: %q", got)
	}

	if got := latex.String(macro); got != "\\foo{a}" {
		t.Errorf("Expansion must not change the macro, got %q", got)
	}
}

func TestTemplatePlaceholders(t *testing.T) {
	body, err := latex.ParseFragment("#2 {#1} ##3 #2", latex.TextMode)
	if err != nil {
		t.Fatalf("Unable to parse body: %v", err)
	}

	tpl := latex.CompileTemplate(body, latex.MustParseSignature("m m m"))

	if diff := cmp.Diff([]int{1, 2}, tpl.Placeholders()); diff != "" {
		t.Errorf("Placeholders do not match (-want +got):\n%s", diff)
	}

	if got := tpl.Signature().String(); got != "m m m" {
		t.Errorf("Unexpected signature %q", got)
	}
}

func TestResolveDefaults(t *testing.T) {
	str := latex.Str

	tt := []struct {
		name      string
		signature string
		args      []*latex.Argument
		output    []*latex.Argument
	}{
		{
			name:      "optional default",
			signature: "O{def} m",
			args:      []*latex.Argument{latex.Absent(), latex.Arg("{", "}", str("b"))},
			output:    []*latex.Argument{latex.Arg("[", "]", str("def")), latex.Arg("{", "}", str("b"))},
		},
		{
			name:      "default referring to given argument",
			signature: "m D<>{#1}",
			args:      []*latex.Argument{latex.Arg("{", "}", str("x")), latex.Absent()},
			output:    []*latex.Argument{latex.Arg("{", "}", str("x")), latex.Arg("<", ">", str("x"))},
		},
		{
			name:      "embellishment default",
			signature: "E{^_}{{1}}",
			args:      []*latex.Argument{latex.Absent(), latex.Absent()},
			output:    []*latex.Argument{latex.Arg("^{", "}", str("1")), latex.Absent()},
		},
		{
			name:      "argument without default stays absent",
			signature: "s o",
			args:      []*latex.Argument{latex.Absent(), latex.Absent()},
			output:    []*latex.Argument{latex.Absent(), latex.Absent()},
		},
		{
			name:      "missing tail of arguments",
			signature: "m O{z}",
			args:      []*latex.Argument{latex.Arg("{", "}", str("a"))},
			output:    []*latex.Argument{latex.Arg("{", "}", str("a")), latex.Arg("[", "]", str("z"))},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, warnings := latex.ResolveDefaults(latex.MustParseSignature(tc.signature), tc.args, latex.TextMode)
			if len(warnings) != 0 {
				t.Errorf("Unexpected warnings: %v", warnings)
			}

			if diff := cmp.Diff(tc.output, got, ignoreSpans...); diff != "" {
				t.Errorf("Arguments do not match (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandMacros(t *testing.T) {
	p := latex.NewParser()

	root, err := p.Parse(strings.NewReader("\\newcommand{\\hi}[1]{Hello #1!}\n\\hi{World}"))
	if err != nil {
		t.Fatalf("Unable to parse: %v", err)
	}

	defs, err := latex.ListNewcommands(root)
	if err != nil {
		t.Fatalf("Unable to list definitions: %v", err)
	}

	templates, warnings := latex.Templates(defs)
	if len(warnings) != 0 {
		t.Fatalf("Unexpected warnings: %v", warnings)
	}

	for name, tpl := range templates {
		p.Define(name, tpl.Signature().String())
	}

	if root, err = p.Reparse(root); err != nil {
		t.Fatalf("Unable to reparse: %v", err)
	}

	root, warnings, err = latex.ExpandMacros(root, templates)
	if err != nil {
		t.Fatalf("Unable to expand: %v", err)
	}

	if len(warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", warnings)
	}

	if got, want := latex.String(root), "\\newcommand{\\hi}[1]{Hello #1!} Hello World!"; got != want {
		t.Errorf("Expanded document does not match: want %q, got %q", want, got)
	}
}

func TestExpandMacrosInMath(t *testing.T) {
	body, err := latex.ParseFragment("#1^{#1}", latex.MathMode)
	if err != nil {
		t.Fatalf("Unable to parse body: %v", err)
	}

	templates := map[string]*latex.Template{
		"sq": latex.CompileTemplate(body, latex.MustParseSignature("O{x}")),
	}

	p := latex.NewParser()
	p.Define("sq", "O{x}")

	root, err := p.Parse(strings.NewReader("$\\sq + \\sq[y]$"))
	if err != nil {
		t.Fatalf("Unable to parse: %v", err)
	}

	root, _, err = latex.ExpandMacros(root, templates)
	if err != nil {
		t.Fatalf("Unable to expand: %v", err)
	}

	if got, want := latex.String(root), "$x^{x} + y^{y}$"; got != want {
		t.Errorf("Expanded document does not match: want %q, got %q", want, got)
	}
}
