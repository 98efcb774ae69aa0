package latex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SlotError tells which argument slot could not be filled and why
type SlotError struct {
	Slot int   // zero based index of argument
	Err  error // ErrMissingArgument or ErrUnterminated
}

// GobbleResult is the outcome of gobbling arguments after a macro
type GobbleResult struct {
	Args []*Argument

	// Consumed is how many positions the array shrank by
	Consumed int

	// Errors lists slots which were required, but could not be filled; gobbling never fails as a whole
	Errors []SlotError
}

// Gobble consumes nodes starting at position start according to signature and returns attached arguments.
// Matched nodes are removed from the array. The number of returned arguments always equals sig.Slots().
func Gobble(nodes *[]*Node, start int, sig Signature) GobbleResult {
	if start < 0 || start > len(*nodes) {
		panic(fmt.Sprintf("latex: gobble start %d is out of range [0, %d]", start, len(*nodes)))
	}

	res := GobbleResult{Args: make([]*Argument, 0, sig.Slots())}
	exhausted := false

	for _, spec := range sig {
		if exhausted {
			for i := 0; i < spec.Slots(); i++ {
				res.Args = append(res.Args, Absent())
			}

			continue
		}

		slot := len(res.Args)
		before := len(*nodes)

		args, err := gobbleSpec(nodes, start, spec)

		res.Consumed += before - len(*nodes)
		res.Args = append(res.Args, args...)

		if err != nil {
			res.Errors = append(res.Errors, SlotError{Slot: slot, Err: err})
		}

		// nothing left to read, remaining slots are empty
		if err == ErrMissingArgument && skip(*nodes, start, &ArgSpec{Long: true}) >= len(*nodes) {
			exhausted = true
		}
	}

	return res
}

// GobbleWith gobbles by signature, but lets custom parser take over. When sig is empty, parser fully replaces the
// signature. Otherwise parser is a fallback used when signature gobbling runs into unterminated argument.
func GobbleWith(nodes *[]*Node, start int, sig Signature, parser ArgumentParser) GobbleResult {
	if parser == nil {
		return Gobble(nodes, start, sig)
	}

	if start < 0 || start > len(*nodes) {
		panic(fmt.Sprintf("latex: gobble start %d is out of range [0, %d]", start, len(*nodes)))
	}

	if len(sig) > 0 {
		// gobbling never changes existing nodes, so trying it on a copy of the array is enough to roll back
		trial := append([]*Node{}, *nodes...)

		res := Gobble(&trial, start, sig)
		if !hasError(res.Errors, ErrUnterminated) {
			*nodes = trial
			return res
		}
	}

	args, consumed := parser(nodes, start)
	return GobbleResult{Args: args, Consumed: consumed}
}

func hasError(errs []SlotError, target error) bool {
	for _, e := range errs {
		if e.Err == target {
			return true
		}
	}

	return false
}

func gobbleSpec(nodes *[]*Node, start int, spec *ArgSpec) ([]*Argument, error) {
	switch spec.Kind {
	case MandatoryArg:
		return one(gobbleMandatory(nodes, start, spec))
	case OptionalArg, DelimitedArg:
		arg, err := gobbleDelimited(nodes, start, spec)
		if err == ErrMissingArgument {
			// optional arguments may be omitted
			err = nil
		}

		return []*Argument{arg}, err
	case StarArg:
		return []*Argument{gobbleStar(nodes, start, spec)}, nil
	case VerbatimArg:
		return one(gobbleVerbatim(nodes, start, start))
	case EmbellishmentArg:
		return gobbleEmbellishments(nodes, start, spec), nil
	case UntilArg:
		return one(gobbleUntil(nodes, start, spec))
	default:
		return nil, nil
	}
}

func one(arg *Argument, err error) ([]*Argument, error) {
	return []*Argument{arg}, err
}

// skip returns position of the next significant node, whitespace and comments are skipped
func skip(nodes []*Node, pos int, spec *ArgSpec) int {
	if spec.KeepWhitespace {
		return pos
	}

	for pos < len(nodes) {
		switch nodes[pos].Kind {
		case WhitespaceKind, CommentKind:
			pos++
		case ParbreakKind:
			if !spec.Long {
				return pos
			}

			pos++
		default:
			return pos
		}
	}

	return pos
}

// take removes nodes from..to (inclusive) and whitespace between start and from, comments and paragraph breaks
// in front of the argument stay where they are. Remainder is put in place of removed nodes.
func take(nodes *[]*Node, start, from, to int, remainder ...*Node) {
	out := make([]*Node, 0, len(*nodes))
	out = append(out, (*nodes)[:start]...)

	for _, node := range (*nodes)[start:from] {
		if node.Kind != WhitespaceKind {
			out = append(out, node)
		}
	}

	out = append(out, remainder...)
	out = append(out, (*nodes)[to+1:]...)

	*nodes = out
}

func gobbleMandatory(nodes *[]*Node, start int, spec *ArgSpec) (*Argument, error) {
	if spec.OpenMark != "{" {
		return gobbleDelimited(nodes, start, spec)
	}

	pos := skip(*nodes, start, spec)
	if pos >= len(*nodes) {
		return Absent(), ErrMissingArgument
	}

	node := (*nodes)[pos]

	if node.Kind == GroupKind {
		take(nodes, start, pos, pos)
		return &Argument{OpenMark: "{", CloseMark: "}", Children: node.Children}, nil
	}

	// long arguments are only taken in braces, single tokens can't stand in for a paragraph
	if spec.Long || node.Kind == ParbreakKind || node.Kind == WhitespaceKind || node.Kind == CommentKind {
		return Absent(), ErrMissingArgument
	}

	take(nodes, start, pos, pos)
	return &Argument{Children: []*Node{node}}, nil
}

// gobbleDelimited reads argument enclosed in open and close marks given as plain strings, for example [...] or (...)
func gobbleDelimited(nodes *[]*Node, start int, spec *ArgSpec) (*Argument, error) {
	pos := skip(*nodes, start, spec)
	if pos >= len(*nodes) {
		return Absent(), ErrMissingArgument
	}

	first := (*nodes)[pos]
	if first.Kind != StringKind || !strings.HasPrefix(first.Data, spec.OpenMark) {
		return Absent(), ErrMissingArgument
	}

	end, offset, ok := findClosing(*nodes, pos, len(spec.OpenMark), spec)
	if !ok {
		// abandoned, the opening mark stays as literal text
		return Absent(), ErrUnterminated
	}

	var content []*Node

	last := (*nodes)[end]
	if end == pos {
		if inner := first.Data[len(spec.OpenMark):offset]; inner != "" {
			content = append(content, Str(inner))
		}
	} else {
		if rest := first.Data[len(spec.OpenMark):]; rest != "" {
			content = append(content, Str(rest))
		}

		content = append(content, (*nodes)[pos+1:end]...)

		if inner := last.Data[:offset]; inner != "" {
			content = append(content, Str(inner))
		}
	}

	var remainder []*Node
	if rest := last.Data[offset+len(spec.CloseMark):]; rest != "" {
		remainder = append(remainder, Str(rest))
	}

	take(nodes, start, pos, end, remainder...)

	if content == nil {
		content = []*Node{}
	}

	return &Argument{OpenMark: spec.OpenMark, CloseMark: spec.CloseMark, Children: content}, nil
}

// findClosing looks for matching close mark, nesting of the same kind of marks is respected, other nodes are opaque
func findClosing(nodes []*Node, pos, skipBytes int, spec *ArgSpec) (int, int, bool) {
	depth := 1
	nests := spec.OpenMark != spec.CloseMark

	for i := pos; i < len(nodes); i++ {
		node := nodes[i]

		if node.Kind == ParbreakKind && !spec.Long {
			return 0, 0, false
		}

		if node.Kind != StringKind {
			continue
		}

		offset := 0
		if i == pos {
			offset = skipBytes
		}

		for offset < len(node.Data) {
			rest := node.Data[offset:]

			switch {
			case strings.HasPrefix(rest, spec.CloseMark):
				depth--
				if depth == 0 {
					return i, offset, true
				}

				offset += len(spec.CloseMark)
				continue
			case nests && strings.HasPrefix(rest, spec.OpenMark):
				depth++
				offset += len(spec.OpenMark)
				continue
			}

			_, size := utf8.DecodeRuneInString(rest)
			offset += size
		}
	}

	return 0, 0, false
}

func gobbleStar(nodes *[]*Node, start int, spec *ArgSpec) *Argument {
	pos := skip(*nodes, start, spec)
	if pos >= len(*nodes) {
		return Absent()
	}

	node := (*nodes)[pos]

	if strings.HasPrefix(spec.Token, "\\") {
		if node.Kind == MacroKind && node.Escape == "\\" && node.Name == spec.Token[1:] {
			take(nodes, start, pos, pos)
			return &Argument{Children: []*Node{node}}
		}

		return Absent()
	}

	if node.Kind != StringKind || !strings.HasPrefix(node.Data, spec.Token) {
		return Absent()
	}

	if node.Data == spec.Token {
		take(nodes, start, pos, pos)
		return &Argument{Children: []*Node{node}}
	}

	take(nodes, start, pos, pos, Str(node.Data[len(spec.Token):]))
	return &Argument{Children: []*Node{Str(spec.Token)}}
}

// gobbleVerbatim captures raw text between a delimiter chosen by the first character at pos and its next
// occurrence. A group is taken as is. Verbatim arguments are whitespace sensitive, whitespace in [start, pos) is only
// removed for the lenient inline parsers.
func gobbleVerbatim(nodes *[]*Node, start, pos int) (*Argument, error) {
	if pos >= len(*nodes) {
		return Absent(), ErrMissingArgument
	}

	first := (*nodes)[pos]

	if first.Kind == GroupKind {
		take(nodes, start, pos, pos)
		return &Argument{OpenMark: "{", CloseMark: "}", Children: []*Node{Str(String(first.Children...))}}, nil
	}

	if first.Kind != StringKind || first.Data == "" {
		return Absent(), ErrMissingArgument
	}

	delimiter, size := utf8.DecodeRuneInString(first.Data)
	mark := string(delimiter)

	var b strings.Builder

	for i := pos; i < len(*nodes); i++ {
		node := (*nodes)[i]

		// verbatim argument can't span lines
		if node.Kind == ParbreakKind || node.Kind == CommentKind {
			break
		}

		text := String(node)
		if i == pos {
			text = node.Data[size:]
		}

		if node.Kind == StringKind {
			if offset := strings.Index(text, mark); offset >= 0 {
				b.WriteString(text[:offset])

				var remainder []*Node
				if rest := text[offset+len(mark):]; rest != "" {
					remainder = append(remainder, Str(rest))
				}

				take(nodes, start, pos, i, remainder...)
				return &Argument{OpenMark: mark, CloseMark: mark, Children: []*Node{Str(b.String())}}, nil
			}
		}

		b.WriteString(text)
	}

	return Absent(), ErrUnterminated
}

// gobbleEmbellishments reads tokens like ^ and _ followed by an argument, in any order. Each token produces one
// slot in the order of the signature, regardless of the order of appearance.
func gobbleEmbellishments(nodes *[]*Node, start int, spec *ArgSpec) []*Argument {
	args := make([]*Argument, len(spec.Tokens))

	for {
		pos := skip(*nodes, start, spec)
		if pos >= len(*nodes) {
			break
		}

		slot, remainder := matchEmbellishment((*nodes)[pos], spec.Tokens, args)
		if slot < 0 {
			break
		}

		token := spec.Tokens[slot]

		var value *Node
		var end int

		if remainder != nil {
			// rest of the string right after the token is the argument, its first character to be precise
			r, size := utf8.DecodeRuneInString(remainder.Data)
			value, end = Str(string(r)), pos

			if rest := remainder.Data[size:]; rest != "" {
				take(nodes, start, pos, end, Str(rest))
			} else {
				take(nodes, start, pos, end)
			}
		} else {
			end = skip(*nodes, pos+1, spec)
			if end >= len(*nodes) || (*nodes)[end].Kind == ParbreakKind {
				break
			}

			value = (*nodes)[end]

			// whitespace between token and its value goes away with them
			take(nodes, start, pos, end)
		}

		if value.Kind == GroupKind {
			args[slot] = &Argument{OpenMark: token + "{", CloseMark: "}", Children: value.Children}
		} else {
			args[slot] = &Argument{OpenMark: token, Children: []*Node{value}}
		}
	}

	for i := range args {
		if args[i] == nil {
			args[i] = Absent()
		}
	}

	return args
}

// matchEmbellishment finds unclaimed token matching node. For strings longer than the token, rest of the string is
// returned as remainder.
func matchEmbellishment(node *Node, tokens []string, claimed []*Argument) (int, *Node) {
	for i, token := range tokens {
		if claimed[i] != nil {
			continue
		}

		switch {
		case node.Kind == MacroKind && node.Escape == "" && node.Name == token:
			return i, nil
		case node.Kind == MacroKind && node.Escape == "\\" && "\\"+node.Name == token:
			return i, nil
		case node.Kind == StringKind && node.Data == token:
			return i, nil
		case node.Kind == StringKind && strings.HasPrefix(node.Data, token):
			return i, Str(node.Data[len(token):])
		}
	}

	return -1, nil
}

// gobbleUntil takes everything up to the stop token, the stop token is consumed as well
func gobbleUntil(nodes *[]*Node, start int, spec *ArgSpec) (*Argument, error) {
	for i := start; i < len(*nodes); i++ {
		node := (*nodes)[i]

		if node.Kind == ParbreakKind && !spec.Long {
			break
		}

		for _, token := range spec.Tokens {
			if node.IsString(token) || (strings.HasPrefix(token, "\\") && node.IsMacro(token[1:])) {
				content := append([]*Node{}, (*nodes)[start:i]...)
				splice(nodes, start, i-start+1)
				return &Argument{CloseMark: token, Children: content}, nil
			}
		}
	}

	return Absent(), ErrUnterminated
}

// inlineVerbatim returns parser for \lstinline like macros: arguments given by prefix signature followed by code in
// braces or between caller chosen delimiters. Unlike v arguments, unterminated code runs to the end of the paragraph.
func inlineVerbatim(prefix string) ArgumentParser {
	sig := MustParseSignature(prefix)

	return func(nodes *[]*Node, start int) ([]*Argument, int) {
		before := len(*nodes)
		args := Gobble(nodes, start, sig).Args

		pos := start
		for pos < len(*nodes) && (*nodes)[pos].Kind == WhitespaceKind {
			pos++
		}

		arg, err := gobbleVerbatim(nodes, start, pos)
		if err == ErrUnterminated {
			arg = lenientVerbatim(nodes, start)
		}

		return append(args, arg), before - len(*nodes)
	}
}

func lenientVerbatim(nodes *[]*Node, start int) *Argument {
	pos := start
	for pos < len(*nodes) && (*nodes)[pos].Kind == WhitespaceKind {
		pos++
	}

	if pos >= len(*nodes) || (*nodes)[pos].Kind != StringKind {
		return Absent()
	}

	first := (*nodes)[pos]
	delimiter, size := utf8.DecodeRuneInString(first.Data)

	var b strings.Builder
	b.WriteString(first.Data[size:])

	end := pos
	for end+1 < len(*nodes) {
		next := (*nodes)[end+1]
		if next.Kind == ParbreakKind || next.Kind == CommentKind {
			break
		}

		b.WriteString(String(next))
		end++
	}

	take(nodes, start, pos, end)
	return &Argument{OpenMark: string(delimiter), Children: []*Node{Str(b.String())}}
}

var (
	parseInlineVerbatim = inlineVerbatim("o")
	parseMintedVerbatim = inlineVerbatim("o m")
)

// parseDefArguments reads arguments of \def\name#1#2{body}: the name, the parameter text and the body
func parseDefArguments(nodes *[]*Node, start int) ([]*Argument, int) {
	spec := &ArgSpec{}

	pos := skip(*nodes, start, spec)
	if pos >= len(*nodes) || (*nodes)[pos].Kind != MacroKind {
		return nil, 0
	}

	body := -1
	for i := pos + 1; i < len(*nodes); i++ {
		node := (*nodes)[i]
		if node.Kind == GroupKind {
			body = i
			break
		}

		if node.Kind == ParbreakKind {
			break
		}
	}

	if body < 0 {
		return nil, 0
	}

	name := (*nodes)[pos]
	params := append([]*Node{}, (*nodes)[pos+1:body]...)
	group := (*nodes)[body]

	paramArg := Absent()
	if len(params) > 0 {
		paramArg = &Argument{Children: params}
	}

	before := len(*nodes)
	take(nodes, start, pos, body)

	args := []*Argument{
		{Children: []*Node{name}},
		paramArg,
		{OpenMark: "{", CloseMark: "}", Children: group.Children},
	}

	return args, before - len(*nodes)
}
