package latex

import "strings"

// ligatures replaces input ligatures with characters they are typeset as, longer ligatures go first
var ligatures = strings.NewReplacer(
	"---", "—",
	"--", "–",
	"<<", "«",
	">>", "»",
	"``", "\"",
	"''", "\"",
	"`", "'",
	"~", " ",
)

// escapedSymbols are control symbols which print the character itself
var escapedSymbols = map[string]bool{
	"%": true, "&": true, "$": true, "#": true, "_": true, "{": true, "}": true,
}
