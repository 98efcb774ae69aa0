package latex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ArgKind is a type of argument in a signature
type ArgKind int

const (
	MandatoryArg     ArgKind = iota // m, r<open><close>, R<open><close>{default}
	OptionalArg                     // o, O{default}
	StarArg                         // s, t<token>
	DelimitedArg                    // d<open><close>, D<open><close>{default}
	VerbatimArg                     // v
	EmbellishmentArg                // e{tokens}, E{tokens}{defaults}
	UntilArg                        // u{tokens}
	BodyArg                         // b, environment body marker
)

// DefaultValue is a default for an argument, kept as source and parsed when it's needed
type DefaultValue struct {
	Raw string
}

// Parse tokenizes default value in a given mode
func (d *DefaultValue) Parse(mode Mode) ([]*Node, error) {
	nodes, err := ParseFragment(d.Raw, mode)
	if err != nil {
		return nil, err
	}

	for _, node := range nodes {
		clearSpans(node)
	}

	return nodes, nil
}

// ArgSpec is a single compiled entry of a signature
type ArgSpec struct {
	Kind ArgKind
	Type rune // signature letter the entry was compiled from

	OpenMark  string
	CloseMark string

	Token    string          // star token for StarArg
	Tokens   []string        // tokens for EmbellishmentArg and stop tokens for UntilArg
	Default  *DefaultValue   // default for optional and mandatory arguments
	Defaults []*DefaultValue // defaults for each embellishment token, entries may be nil

	Long           bool     // + modifier, argument may contain paragraph breaks
	KeepWhitespace bool     // ! modifier, whitespace in front of argument is not skipped
	Processors     []string // >{...} argument processors, recorded as is
}

// Slots returns how many positional arguments the entry produces
func (a *ArgSpec) Slots() int {
	switch a.Kind {
	case EmbellishmentArg:
		return len(a.Tokens)
	case BodyArg:
		return 0
	default:
		return 1
	}
}

// Signature is compiled argument signature, for example "s o m"
type Signature []*ArgSpec

// Slots returns number of arguments gobbled with this signature
func (s Signature) Slots() (n int) {
	for _, spec := range s {
		n += spec.Slots()
	}

	return
}

// Starred reports whether star (or t<token>) slot of args, gobbled with this signature, was given. It's false for
// slots of any other kind.
func (s Signature) Starred(args []*Argument, slot int) bool {
	specs := slotSpecs(s)
	if slot < 0 || slot >= len(specs) || slot >= len(args) || specs[slot].Kind != StarArg {
		return false
	}

	arg := args[slot]

	return !arg.IsAbsent() && len(arg.Children) == 1 && arg.Children[0].IsString(specs[slot].Token)
}

// slotDefaults returns default value of each argument slot, nil if slot has no default
func (s Signature) slotDefaults() []*DefaultValue {
	var defaults []*DefaultValue
	for _, spec := range s {
		switch spec.Kind {
		case EmbellishmentArg:
			for i := range spec.Tokens {
				var d *DefaultValue
				if i < len(spec.Defaults) {
					d = spec.Defaults[i]
				}

				defaults = append(defaults, d)
			}
		case BodyArg:
		default:
			defaults = append(defaults, spec.Default)
		}
	}

	return defaults
}

func (s Signature) String() string {
	parts := make([]string, 0, len(s))
	for _, spec := range s {
		parts = append(parts, spec.String())
	}

	return strings.Join(parts, " ")
}

func (a *ArgSpec) String() string {
	var b strings.Builder

	for _, p := range a.Processors {
		b.WriteString(">{" + p + "}")
	}

	if a.Long {
		b.WriteByte('+')
	}

	if a.KeepWhitespace {
		b.WriteByte('!')
	}

	b.WriteRune(a.Type)

	switch a.Type {
	case 'd', 'D', 'r', 'R':
		b.WriteString(a.OpenMark + a.CloseMark)
	case 't':
		b.WriteString(a.Token)
	case 'e', 'E', 'u':
		b.WriteString("{" + strings.Join(a.Tokens, "") + "}")
	}

	if a.Default != nil {
		b.WriteString("{" + a.Default.Raw + "}")
	}

	if a.Type == 'E' {
		b.WriteByte('{')
		for _, d := range a.Defaults {
			if d == nil {
				b.WriteString("{}")
				continue
			}

			b.WriteString("{" + d.Raw + "}")
		}
		b.WriteByte('}')
	}

	return b.String()
}

// ParseSignature compiles argument signature string, it never panics and points at the offending character on error
func ParseSignature(s string) (Signature, error) {
	p := &sigParser{src: s}

	sig := Signature{}
	for {
		p.spaces()
		if p.eof() {
			return sig, nil
		}

		spec, err := p.spec()
		if err != nil {
			return nil, err
		}

		sig = append(sig, spec)
	}
}

// MustParseSignature is like ParseSignature but panics on error, meant for signatures known at compile time
func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}

	return sig
}

type sigParser struct {
	src string
	pos int
}

func (p *sigParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *sigParser) peek() rune {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *sigParser) next() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *sigParser) spaces() {
	for !p.eof() && isWhitespace(p.peek()) {
		p.next()
	}
}

func (p *sigParser) fail(offset int, format string, args ...any) error {
	return &SignatureError{Signature: p.src, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func (p *sigParser) spec() (*ArgSpec, error) {
	spec := &ArgSpec{}

	// modifiers
	for !p.eof() {
		switch p.peek() {
		case '+':
			p.next()
			spec.Long = true
			continue
		case '!':
			p.next()
			spec.KeepWhitespace = true
			continue
		case '>':
			p.next()
			processor, err := p.braced()
			if err != nil {
				return nil, err
			}

			spec.Processors = append(spec.Processors, processor)
			p.spaces()
			continue
		}

		break
	}

	if p.eof() {
		return nil, p.fail(p.pos, "modifier is not followed by argument type")
	}

	offset := p.pos
	spec.Type = p.next()

	var err error

	switch spec.Type {
	case 'm':
		spec.Kind, spec.OpenMark, spec.CloseMark = MandatoryArg, "{", "}"
	case 'o':
		spec.Kind, spec.OpenMark, spec.CloseMark = OptionalArg, "[", "]"
	case 'O':
		spec.Kind, spec.OpenMark, spec.CloseMark = OptionalArg, "[", "]"
		spec.Default, err = p.defaultValue()
	case 'd', 'D':
		spec.Kind = DelimitedArg
		if spec.OpenMark, spec.CloseMark, err = p.delimiters(); err == nil && spec.Type == 'D' {
			spec.Default, err = p.defaultValue()
		}
	case 'r', 'R':
		spec.Kind = MandatoryArg
		if spec.OpenMark, spec.CloseMark, err = p.delimiters(); err == nil && spec.Type == 'R' {
			spec.Default, err = p.defaultValue()
		}
	case 's':
		spec.Kind, spec.Token = StarArg, "*"
	case 't':
		spec.Kind = StarArg
		spec.Token, err = p.token()
	case 'v':
		spec.Kind = VerbatimArg
	case 'b':
		spec.Kind = BodyArg
	case 'e', 'E':
		spec.Kind = EmbellishmentArg
		if spec.Tokens, err = p.tokens(); err == nil && spec.Type == 'E' {
			spec.Defaults, err = p.defaultList(len(spec.Tokens))
		}
	case 'u':
		spec.Kind = UntilArg
		if !p.eof() && p.peek() == '{' {
			spec.Tokens, err = p.tokens()
		} else {
			var token string
			token, err = p.token()
			spec.Tokens = []string{token}
		}
	default:
		return nil, p.fail(offset, "unknown argument type %q", spec.Type)
	}

	if err != nil {
		return nil, err
	}

	return spec, nil
}

// braced reads {...} with balanced braces and returns content
func (p *sigParser) braced() (string, error) {
	p.spaces()

	start := p.pos
	if p.eof() || p.peek() != '{' {
		return "", p.fail(p.pos, "expected \"{\"")
	}

	p.next()

	depth := 1
	for !p.eof() {
		switch p.next() {
		case '\\':
			if !p.eof() {
				p.next()
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return p.src[start+1 : p.pos-1], nil
			}
		}
	}

	return "", p.fail(start, "unbalanced braces")
}

func (p *sigParser) defaultValue() (*DefaultValue, error) {
	raw, err := p.braced()
	if err != nil {
		return nil, err
	}

	return &DefaultValue{Raw: raw}, nil
}

// defaultList reads {{a}{b}} list of embellishment defaults
func (p *sigParser) defaultList(n int) ([]*DefaultValue, error) {
	start := p.pos

	raw, err := p.braced()
	if err != nil {
		return nil, err
	}

	list := &sigParser{src: raw}
	defaults := make([]*DefaultValue, 0, n)

	for {
		list.spaces()
		if list.eof() {
			break
		}

		value, err := list.braced()
		if err != nil {
			return nil, p.fail(start+1+list.pos, "malformed default list")
		}

		defaults = append(defaults, &DefaultValue{Raw: value})
	}

	if len(defaults) > n {
		return nil, p.fail(start, "%d defaults given for %d tokens", len(defaults), n)
	}

	return defaults, nil
}

func (p *sigParser) delimiters() (string, string, error) {
	open, err := p.delimiter()
	if err != nil {
		return "", "", err
	}

	closing, err := p.delimiter()
	if err != nil {
		return "", "", err
	}

	return open, closing, nil
}

func (p *sigParser) delimiter() (string, error) {
	if p.eof() {
		return "", p.fail(p.pos, "missing delimiter")
	}

	offset := p.pos
	r := p.next()
	if r == '{' || r == '}' || isWhitespace(r) {
		return "", p.fail(offset, "%q can't be used as delimiter", r)
	}

	return string(r), nil
}

// token reads single character or \name control sequence
func (p *sigParser) token() (string, error) {
	if p.eof() {
		return "", p.fail(p.pos, "missing token")
	}

	start := p.pos
	r := p.next()

	switch {
	case r == '{':
		p.pos = start
		return p.braced()
	case r != '\\':
		return string(r), nil
	}

	if p.eof() {
		return "", p.fail(start, "incomplete control sequence")
	}

	if !isLetter(p.peek()) {
		p.next()
		return p.src[start:p.pos], nil
	}

	for !p.eof() && isLetter(p.peek()) {
		p.next()
	}

	return p.src[start:p.pos], nil
}

// tokens reads {...} list of tokens
func (p *sigParser) tokens() ([]string, error) {
	start := p.pos

	raw, err := p.braced()
	if err != nil {
		return nil, err
	}

	list := &sigParser{src: raw}

	var tokens []string
	for {
		list.spaces()
		if list.eof() {
			break
		}

		token, err := list.token()
		if err != nil {
			return nil, p.fail(start+1+list.pos, "malformed token list")
		}

		tokens = append(tokens, token)
	}

	if len(tokens) == 0 {
		return nil, p.fail(start, "empty token list")
	}

	return tokens, nil
}

// SignatureCache memoizes compiled signatures by source string
type SignatureCache struct {
	entries map[string]cachedSignature
}

type cachedSignature struct {
	sig Signature
	err error
}

func NewSignatureCache() *SignatureCache {
	return &SignatureCache{entries: map[string]cachedSignature{}}
}

// Get returns compiled signature, it compiles each distinct string only once
func (c *SignatureCache) Get(s string) (Signature, error) {
	if e, ok := c.entries[s]; ok {
		return e.sig, e.err
	}

	sig, err := ParseSignature(s)
	c.entries[s] = cachedSignature{sig: sig, err: err}

	return sig, err
}
