package latex_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/eolymp/go-latex-ast"
	"github.com/google/go-cmp/cmp"
)

func TestParser(t *testing.T) {
	str := latex.Str
	ws := latex.Space
	doc := latex.Root

	macro := func(name string, args ...*latex.Argument) *latex.Node {
		return &latex.Node{Kind: latex.MacroKind, Name: name, Escape: "\\", Args: args}
	}

	active := func(name string, args ...*latex.Argument) *latex.Node {
		return &latex.Node{Kind: latex.MacroKind, Name: name, Args: args}
	}

	env := func(kind latex.Kind, name string, args []*latex.Argument, children ...*latex.Node) *latex.Node {
		return &latex.Node{Kind: kind, Name: name, Args: args, Children: children}
	}

	inline := func(children ...*latex.Node) *latex.Node {
		return &latex.Node{Kind: latex.InlineMathKind, Children: children}
	}

	arg := latex.Arg
	absent := latex.Absent

	tt := []struct {
		name   string
		input  string
		output *latex.Node
	}{
		{
			name:   "simple paragraph",
			input:  "one two\nthree",
			output: doc(str("one"), ws(), str("two"), ws(), str("three")),
		},
		{
			name:   "simple formatting",
			input:  "odd \\textbf{foo bar} baz",
			output: doc(str("odd"), ws(), macro("textbf", arg("{", "}", str("foo"), ws(), str("bar"))), ws(), str("baz")),
		},
		{
			name:  "nested formatting",
			input: "\\textbf{foo \\textit{bar}}",
			output: doc(macro("textbf", arg("{", "}",
				str("foo"), ws(), macro("textit", arg("{", "}", str("bar"))),
			))),
		},
		{
			name:   "starred section",
			input:  "\\section*{Intro}",
			output: doc(macro("section", arg("", "", str("*")), absent(), arg("{", "}", str("Intro")))),
		},
		{
			name:   "section with short title",
			input:  "\\section[Short] {Long}",
			output: doc(macro("section", absent(), arg("[", "]", str("Short")), arg("{", "}", str("Long")))),
		},
		{
			name:   "unknown macro keeps following group",
			input:  "\\foo{x}",
			output: doc(&latex.Node{Kind: latex.MacroKind, Name: "foo", Escape: "\\"}, latex.Group(str("x"))),
		},
		{
			name:   "superscript in inline math",
			input:  "$x^2$",
			output: doc(inline(str("x"), active("^", arg("", "", str("2"))))),
		},
		{
			name:   "fraction",
			input:  "$\\frac{a}{b}$",
			output: doc(inline(macro("frac", arg("{", "}", str("a")), arg("{", "}", str("b"))))),
		},
		{
			name:  "tabular arguments",
			input: "\\begin{tabular}{cc}a&b\\end{tabular}",
			output: doc(env(latex.EnvironmentKind, "tabular",
				[]*latex.Argument{absent(), arg("{", "}", str("cc"))},
				str("a"), str("&"), str("b"),
			)),
		},
		{
			name:  "math environment",
			input: "\\begin{equation} x_i \\end{equation}",
			output: doc(env(latex.MathEnvironmentKind, "equation", []*latex.Argument{},
				str("x"), active("_", arg("", "", str("i"))),
			)),
		},
		{
			name:  "list items",
			input: "\\begin{itemize}\n  \\item a\n  \\item[-] b\n\\end{itemize}",
			output: doc(env(latex.EnvironmentKind, "itemize", []*latex.Argument{absent()},
				macro("item", absent()), ws(), str("a"),
				macro("item", arg("[", "]", str("-"))), ws(), str("b"),
			)),
		},
		{
			name:   "text inside math",
			input:  "$a \\text{b}$",
			output: doc(inline(str("a"), ws(), macro("text", arg("{", "}", str("b"))))),
		},
		{
			name:   "inline listing",
			input:  "\\lstinline[C]|a b|",
			output: doc(macro("lstinline", arg("[", "]", str("C")), arg("|", "|", str("a b")))),
		},
		{
			name:   "inline listing after whitespace",
			input:  "\\lstinline |a b|",
			output: doc(macro("lstinline", absent(), arg("|", "|", str("a b")))),
		},
		{
			name:   "inline listing in braces",
			input:  "\\mintinline{go}{x := 1}",
			output: doc(macro("mintinline", absent(), arg("{", "}", str("go")), arg("{", "}", str("x := 1")))),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			parser := latex.NewParser()

			got, err := parser.Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Unable to parse document: %v", err)
			}

			if diff := cmp.Diff(tc.output, got, ignoreSpans...); diff != "" {
				t.Errorf("Tree does not match (-want +got):\n%s", diff)
			}

			if w := parser.Warnings(); len(w) != 0 {
				t.Errorf("Unexpected warnings: %v", w)
			}
		})
	}
}

func TestParserMathEnvironment(t *testing.T) {
	catalog := latex.DefaultCatalog()
	catalog.DefineEnvironment("mymath", &latex.EnvironmentInfo{InMathMode: true})

	got, err := latex.NewParser(latex.WithCatalog(catalog)).Parse(strings.NewReader("\\begin{mymath}x^2\\end{mymath}"))
	if err != nil {
		t.Fatalf("Unable to parse document: %v", err)
	}

	want := latex.Root(&latex.Node{
		Kind: latex.MathEnvironmentKind,
		Name: "mymath",
		Children: []*latex.Node{
			latex.Str("x"),
			{Kind: latex.MacroKind, Name: "^", Args: []*latex.Argument{latex.Arg("", "", latex.Str("2"))}},
		},
	})

	if diff := cmp.Diff(want, got, ignoreSpans...); diff != "" {
		t.Errorf("Tree does not match (-want +got):\n%s", diff)
	}

	// math content re-read from the source keeps positions
	if span := got.Children[0].Children[0].Span; span == nil || span.Start.Offset != 14 {
		t.Errorf("Re-read math content must refer to the source, got span %v", span)
	}

	for _, input := range []string{
		"\\begin{mymath}x^2 \\frac{a}{b}\\end{mymath}",
		"\\begin{mymath}\\sqrt[3]{x}^2 \\hat a\\end{mymath}",
		"\\ensuremath{x^2 \\hat{a}}",
	} {
		t.Run(input, func(t *testing.T) {
			got, err := latex.NewParser(latex.WithCatalog(catalog)).Parse(strings.NewReader(input))
			if err != nil {
				t.Fatalf("Unable to parse document: %v", err)
			}

			// arguments of the last macro are kept when math content is re-read
			if s := latex.String(got); s != input {
				t.Errorf("Document prints as %q", s)
			}
		})
	}
}

func TestParserReparse(t *testing.T) {
	root, err := latex.Tokenize(strings.NewReader("\\begin{mymath}a_1\\end{mymath}"))
	if err != nil {
		t.Fatalf("Unable to tokenize: %v", err)
	}

	catalog := latex.DefaultCatalog()
	catalog.DefineEnvironment("mymath", &latex.EnvironmentInfo{InMathMode: true})

	got, err := latex.NewParser(latex.WithCatalog(catalog)).Reparse(root)
	if err != nil {
		t.Fatalf("Unable to reparse: %v", err)
	}

	if s := latex.String(got); s != "\\begin{mymath}a_1\\end{mymath}" {
		t.Errorf("Reparsed tree prints as %q", s)
	}

	children := got.Children[0].Children
	if len(children) != 2 || !children[1].IsMacro("_") || len(children[1].Args) != 1 {
		t.Errorf("Subscript must be attached to reparsed math content")
	}
}

func TestParserDefine(t *testing.T) {
	p := latex.NewParser()
	p.Define("pair", "o m m")

	got, err := p.Parse(strings.NewReader("\\pair{a}{b}"))
	if err != nil {
		t.Fatalf("Unable to parse document: %v", err)
	}

	want := latex.Root(latex.Macro("pair", latex.Absent(), latex.Arg("{", "}", latex.Str("a")), latex.Arg("{", "}", latex.Str("b"))))

	if diff := cmp.Diff(want, got, ignoreSpans...); diff != "" {
		t.Errorf("Tree does not match (-want +got):\n%s", diff)
	}

	if p.Catalog().Macro("pair") == nil {
		t.Errorf("Defined macro must be in the catalog")
	}
}

func TestParserWarnings(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		p := latex.NewParser()

		got, err := p.Parse(strings.NewReader("\\textbf"))
		if err != nil {
			t.Fatalf("Unable to parse document: %v", err)
		}

		if diff := cmp.Diff(latex.Root(latex.Macro("textbf", latex.Absent())), got, ignoreSpans...); diff != "" {
			t.Errorf("Tree does not match (-want +got):\n%s", diff)
		}

		warnings := p.Warnings()
		if len(warnings) != 1 {
			t.Fatalf("Expected one warning, got %v", warnings)
		}

		if !errors.Is(warnings[0], latex.ErrMissingArgument) {
			t.Errorf("Expected missing argument, got %v", warnings[0])
		}

		if warnings[0].Name != "textbf" || warnings[0].Span == nil {
			t.Errorf("Warning must point at the macro, got %v", warnings[0])
		}
	})

	t.Run("malformed signature", func(t *testing.T) {
		catalog := latex.NewCatalog()
		catalog.DefineMacro("bad", &latex.MacroInfo{Signature: "m O{"})

		p := latex.NewParser(latex.WithCatalog(catalog))

		got, err := p.Parse(strings.NewReader("\\bad{x}\\bad"))
		if err != nil {
			t.Fatalf("Unable to parse document: %v", err)
		}

		// macro with malformed signature takes no arguments
		want := latex.Root(latex.Macro("bad"), latex.Group(latex.Str("x")), latex.Macro("bad"))
		if diff := cmp.Diff(want, got, ignoreSpans...); diff != "" {
			t.Errorf("Tree does not match (-want +got):\n%s", diff)
		}

		warnings := p.Warnings()
		if len(warnings) != 2 {
			t.Fatalf("Expected a warning for each use, got %v", warnings)
		}

		for _, w := range warnings {
			var serr *latex.SignatureError
			if !errors.As(w, &serr) {
				t.Errorf("Expected SignatureError, got %v", w)
			}
		}
	})
}

func TestParserRegions(t *testing.T) {
	str := latex.Str
	ws := latex.Space
	m := func(name string) *latex.Node {
		return &latex.Node{Kind: latex.MacroKind, Name: name, Escape: "\\"}
	}

	tt := []struct {
		name    string
		options []latex.Option
		input   string
		output  *latex.Node
	}{
		{
			name:   "at is not a letter by default",
			input:  "\\a@b",
			output: latex.Root(m("a"), str("@"), str("b")),
		},
		{
			name:   "makeatletter",
			input:  "\\makeatletter\\a@b x\\makeatother \\a@b",
			output: latex.Root(m("makeatletter"), m("a@b"), ws(), str("x"), m("makeatother"), ws(), m("a"), str("@"), str("b")),
		},
		{
			name:   "catcode change is local to group",
			input:  "{\\makeatletter\\a@b}\\a@b",
			output: latex.Root(latex.Group(m("makeatletter"), m("a@b")), m("a"), str("@"), str("b")),
		},
		{
			name:    "at letter option",
			options: []latex.Option{latex.WithAtLetter()},
			input:   "\\a@b@ c",
			output:  latex.Root(m("a@b@"), ws(), str("c")),
		},
		{
			name:    "autodetect at letter",
			options: []latex.Option{latex.WithAutodetectRegions()},
			input:   "\\let\\a@b",
			output:  latex.Root(m("let"), m("a@b")),
		},
		{
			name:   "expl3 syntax",
			input:  "\\ExplSyntaxOn\\cs_new:Npn\\ExplSyntaxOff\\cs_new",
			output: latex.Root(m("ExplSyntaxOn"), m("cs_new:Npn"), m("ExplSyntaxOff"), m("cs"), str("_"), str("new")),
		},
		{
			name:    "autodetect expl3",
			options: []latex.Option{latex.WithAutodetectRegions()},
			input:   "\\tl_set:Nn",
			output:  latex.Root(m("tl_set:Nn")),
		},
		{
			name:    "expl3 option",
			options: []latex.Option{latex.WithExpl3()},
			input:   "\\int_eval:n",
			output:  latex.Root(m("int_eval:n")),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := latex.NewParser(tc.options...).Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Unable to parse document: %v", err)
			}

			if diff := cmp.Diff(tc.output, got, ignoreSpans...); diff != "" {
				t.Errorf("Tree does not match (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParserMaxDepth(t *testing.T) {
	_, err := latex.NewParser(latex.WithMaxDepth(3)).Parse(strings.NewReader("{{{{{a}}}}}"))
	if !errors.Is(err, latex.ErrTooDeep) {
		t.Errorf("Expected ErrTooDeep, got %v", err)
	}
}
