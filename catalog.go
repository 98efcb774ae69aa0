package latex

// ArgumentParser replaces signature based argument gobbling. It receives the array which holds the macro (or the
// environment content) and the index of the first node after the macro. It removes consumed nodes from the array and
// returns attached arguments together with the number of removed nodes. When signature is given too, the parser is
// only used if the signature leaves an argument unterminated.
type ArgumentParser func(nodes *[]*Node, start int) ([]*Argument, int)

// MacroInfo describes how arguments of a macro are parsed
type MacroInfo struct {
	Signature      string
	ArgumentParser ArgumentParser

	InMathMode bool // macro only appears in math, its arguments are math too
	TextArgs   bool // arguments are text even inside math, eg. \text or \mbox
	InParMode  bool // arguments are paragraphs, eg. \footnote or \parbox
}

// EnvironmentInfo describes how arguments and content of an environment are parsed
type EnvironmentInfo struct {
	Signature      string
	ArgumentParser ArgumentParser

	InMathMode bool // content is math

	// ProcessContent is called once arguments are attached to the whole environment content
	ProcessContent func(nodes []*Node) []*Node
}

// Catalog holds known macros and environments by name
type Catalog struct {
	Macros       map[string]*MacroInfo
	Environments map[string]*EnvironmentInfo
}

func NewCatalog() *Catalog {
	return &Catalog{Macros: map[string]*MacroInfo{}, Environments: map[string]*EnvironmentInfo{}}
}

// Macro returns macro info or nil
func (c *Catalog) Macro(name string) *MacroInfo {
	if c == nil {
		return nil
	}

	return c.Macros[name]
}

// Environment returns environment info or nil
func (c *Catalog) Environment(name string) *EnvironmentInfo {
	if c == nil {
		return nil
	}

	return c.Environments[name]
}

// DefineMacro adds or overrides macro
func (c *Catalog) DefineMacro(name string, info *MacroInfo) {
	c.Macros[name] = info
}

// DefineEnvironment adds or overrides environment
func (c *Catalog) DefineEnvironment(name string, info *EnvironmentInfo) {
	c.Environments[name] = info
}

// Merge copies entries from others into c, later entries override earlier ones by name
func (c *Catalog) Merge(others ...*Catalog) *Catalog {
	for _, other := range others {
		if other == nil {
			continue
		}

		for name, info := range other.Macros {
			c.Macros[name] = info
		}

		for name, info := range other.Environments {
			c.Environments[name] = info
		}
	}

	return c
}

// mathOnly returns subset of catalog which always appear in math
func (c *Catalog) mathOnly() *Catalog {
	subset := NewCatalog()

	for name, info := range c.Macros {
		if info.InMathMode {
			subset.Macros[name] = info
		}
	}

	for name, info := range c.Environments {
		if info.InMathMode {
			subset.Environments[name] = info
		}
	}

	return subset
}

// DefaultCatalog returns a fresh catalog with LaTeX core, amsmath, xparse, graphicx, hyperref and listings entries
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	for name, sig := range map[string]string{
		"documentclass":          "o m",
		"usepackage":             "o m",
		"RequirePackage":         "o m",
		"input":                  "m",
		"include":                "m",
		"part":                   "s o m",
		"chapter":                "s o m",
		"section":                "s o m",
		"subsection":             "s o m",
		"subsubsection":          "s o m",
		"paragraph":              "s o m",
		"subparagraph":           "s o m",
		"title":                  "o m",
		"author":                 "o m",
		"date":                   "m",
		"textbf":                 "m",
		"textit":                 "m",
		"textsl":                 "m",
		"textsc":                 "m",
		"textsf":                 "m",
		"textrm":                 "m",
		"texttt":                 "m",
		"textup":                 "m",
		"textmd":                 "m",
		"emph":                   "m",
		"underline":              "m",
		"label":                  "m",
		"ref":                    "m",
		"eqref":                  "m",
		"pageref":                "m",
		"cite":                   "o o m",
		"caption":                "o m",
		"item":                   "o",
		"includegraphics":        "s o o m",
		"href":                   "o m m",
		"url":                    "m",
		"hspace":                 "s m",
		"vspace":                 "s m",
		"\\":                     "s o",
		"color":                  "o m",
		"textcolor":              "o m m",
		"colorbox":               "o m m",
		"setlength":              "m m",
		"addtolength":            "m m",
		"newtheorem":             "s m o m o",
		"newcommand":             "s m o +o +m",
		"renewcommand":           "s m o +o +m",
		"providecommand":         "s m o +o +m",
		"DeclareRobustCommand":   "s m o +o +m",
		"newenvironment":         "s m o o +m +m",
		"renewenvironment":       "s m o o +m +m",
		"NewDocumentCommand":     "m m +m",
		"RenewDocumentCommand":   "m m +m",
		"ProvideDocumentCommand": "m m +m",
		"DeclareDocumentCommand": "m m +m",
		"NewDocumentEnvironment": "m m +m +m",
		"DeclareMathOperator":    "s m m",
	} {
		c.DefineMacro(name, &MacroInfo{Signature: sig})
	}

	for _, name := range []string{"def", "gdef", "edef", "xdef"} {
		c.DefineMacro(name, &MacroInfo{ArgumentParser: parseDefArguments})
	}

	// unlike v arguments, inline code may be separated from the macro by whitespace
	c.DefineMacro("lstinline", &MacroInfo{ArgumentParser: parseInlineVerbatim})
	c.DefineMacro("mintinline", &MacroInfo{ArgumentParser: parseMintedVerbatim})

	for _, name := range []string{"text", "mbox", "textnormal", "intertext"} {
		c.DefineMacro(name, &MacroInfo{Signature: "m", TextArgs: true})
	}

	c.DefineMacro("footnote", &MacroInfo{Signature: "o +m", InParMode: true})
	c.DefineMacro("parbox", &MacroInfo{Signature: "o o o m +m", InParMode: true})
	c.DefineMacro("ensuremath", &MacroInfo{Signature: "m", InMathMode: true})

	for name, sig := range map[string]string{
		"^":            "m",
		"_":            "m",
		"frac":         "m m",
		"dfrac":        "m m",
		"tfrac":        "m m",
		"binom":        "m m",
		"sqrt":         "o m",
		"operatorname": "s m",
		"overset":      "m m",
		"underset":     "m m",
		"stackrel":     "m m",
		"overbrace":    "m",
		"underbrace":   "m",
		"overline":     "m",
		"boldsymbol":   "m",
		"mathbf":       "m",
		"mathrm":       "m",
		"mathit":       "m",
		"mathsf":       "m",
		"mathtt":       "m",
		"mathcal":      "m",
		"mathbb":       "m",
		"mathfrak":     "m",
		"hat":          "m",
		"widehat":      "m",
		"bar":          "m",
		"vec":          "m",
		"dot":          "m",
		"ddot":         "m",
		"tilde":        "m",
		"widetilde":    "m",
	} {
		c.DefineMacro(name, &MacroInfo{Signature: sig, InMathMode: true})
	}

	for name, sig := range map[string]string{
		"document":        "",
		"center":          "",
		"flushleft":       "",
		"flushright":      "",
		"abstract":        "",
		"quote":           "",
		"quotation":       "",
		"figure":          "o",
		"figure*":         "o",
		"table":           "o",
		"table*":          "o",
		"tabular":         "o m",
		"tabular*":        "m o m",
		"tabularx":        "m o m",
		"minipage":        "o o o m",
		"thebibliography": "m",
		"proof":           "o",
		"theorem":         "o",
		"lemma":           "o",
	} {
		c.DefineEnvironment(name, &EnvironmentInfo{Signature: sig})
	}

	for _, name := range []string{"itemize", "enumerate", "description"} {
		c.DefineEnvironment(name, &EnvironmentInfo{Signature: "o", ProcessContent: trimBeforeItems})
	}

	for name, sig := range map[string]string{
		"array":       "o m",
		"subarray":    "m",
		"alignat":     "m",
		"alignat*":    "m",
		"matrix":      "",
		"pmatrix":     "",
		"bmatrix":     "",
		"Bmatrix":     "",
		"vmatrix":     "",
		"Vmatrix":     "",
		"smallmatrix": "",
		"cases":       "",
		"equation":    "",
		"equation*":   "",
		"align":       "",
		"align*":      "",
		"gather":      "",
		"gather*":     "",
		"multline":    "",
		"multline*":   "",
		"split":       "",
		"aligned":     "o",
		"gathered":    "o",
	} {
		c.DefineEnvironment(name, &EnvironmentInfo{Signature: sig, InMathMode: true})
	}

	return c
}

// trimBeforeItems drops whitespace right in front of \item, it has no meaning in list environments
func trimBeforeItems(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for i, node := range nodes {
		if node.Kind == WhitespaceKind && i+1 < len(nodes) && nodes[i+1].IsMacro("item") {
			continue
		}

		out = append(out, node)
	}

	return out
}
