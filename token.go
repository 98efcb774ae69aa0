package latex

// Mode is a lexical mode of LaTeX source, text and math are tokenized differently
type Mode int

const (
	TextMode Mode = iota
	MathMode
)

func (m Mode) String() string {
	if m == MathMode {
		return "math"
	}

	return "text"
}

// mathEnvironments are tokenized in math mode right away
var mathEnvironments = map[string]bool{
	"math":        true,
	"displaymath": true,
	"equation":    true,
	"equation*":   true,
	"align":       true,
	"align*":      true,
	"alignat":     true,
	"alignat*":    true,
	"flalign":     true,
	"flalign*":    true,
	"gather":      true,
	"gather*":     true,
	"multline":    true,
	"multline*":   true,
	"eqnarray":    true,
	"eqnarray*":   true,
	"split":       true,
	"aligned":     true,
	"gathered":    true,
}

// verbatimEnvironments keep their content as raw text
var verbatimEnvironments = map[string]bool{
	"verbatim":   true,
	"verbatim*":  true,
	"lstlisting": true,
	"comment":    true,
	"minted":     true,
}

// isLetter returns true for a letter
func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isSpecial returns true if a symbol has a special meaning and should interrupt text reading
func isSpecial(r rune) bool {
	switch r {
	case '#', '$', '%', '^', '&', '_', '{', '}', '~', '\\':
		return true
	default:
		return false
	}
}

// isPunctuation returns true for symbols which always make a string of their own in text mode
func isPunctuation(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '-', '*', '/', '(', ')', '!', '?', '=', '+', '<', '>', '[', ']', '`', '\'', '"', '|', '@':
		return true
	default:
		return false
	}
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\n', '\t', '\r':
		return true
	default:
		return false
	}
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !isLetter(r) {
			return false
		}
	}

	return true
}
