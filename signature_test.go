package latex_test

import (
	"errors"
	"testing"

	"github.com/eolymp/go-latex-ast"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseSignature(t *testing.T) {
	mandatory := func() *latex.ArgSpec {
		return &latex.ArgSpec{Kind: latex.MandatoryArg, Type: 'm', OpenMark: "{", CloseMark: "}"}
	}

	optional := func() *latex.ArgSpec {
		return &latex.ArgSpec{Kind: latex.OptionalArg, Type: 'o', OpenMark: "[", CloseMark: "]"}
	}

	tt := []struct {
		name  string
		input string
		want  latex.Signature
	}{
		{
			name:  "empty",
			input: "",
			want:  latex.Signature{},
		},
		{
			name:  "mandatory",
			input: "m",
			want:  latex.Signature{mandatory()},
		},
		{
			name:  "star, optional and mandatory",
			input: "s o m",
			want: latex.Signature{
				{Kind: latex.StarArg, Type: 's', Token: "*"},
				optional(),
				mandatory(),
			},
		},
		{
			name:  "whitespace between entries is optional",
			input: "om",
			want:  latex.Signature{optional(), mandatory()},
		},
		{
			name:  "optional with default",
			input: "O{A} m",
			want: latex.Signature{
				{Kind: latex.OptionalArg, Type: 'O', OpenMark: "[", CloseMark: "]", Default: &latex.DefaultValue{Raw: "A"}},
				mandatory(),
			},
		},
		{
			name:  "default with nested braces",
			input: "O{\\textbf{x}}",
			want: latex.Signature{
				{Kind: latex.OptionalArg, Type: 'O', OpenMark: "[", CloseMark: "]", Default: &latex.DefaultValue{Raw: "\\textbf{x}"}},
			},
		},
		{
			name:  "long",
			input: "+m",
			want:  latex.Signature{{Kind: latex.MandatoryArg, Type: 'm', OpenMark: "{", CloseMark: "}", Long: true}},
		},
		{
			name:  "keep whitespace",
			input: "!o",
			want:  latex.Signature{{Kind: latex.OptionalArg, Type: 'o', OpenMark: "[", CloseMark: "]", KeepWhitespace: true}},
		},
		{
			name:  "delimited",
			input: "d()",
			want:  latex.Signature{{Kind: latex.DelimitedArg, Type: 'd', OpenMark: "(", CloseMark: ")"}},
		},
		{
			name:  "delimited with default",
			input: "D<>{x}",
			want: latex.Signature{
				{Kind: latex.DelimitedArg, Type: 'D', OpenMark: "<", CloseMark: ">", Default: &latex.DefaultValue{Raw: "x"}},
			},
		},
		{
			name:  "required delimited",
			input: "r()",
			want:  latex.Signature{{Kind: latex.MandatoryArg, Type: 'r', OpenMark: "(", CloseMark: ")"}},
		},
		{
			name:  "embellishments",
			input: "e{^_}",
			want:  latex.Signature{{Kind: latex.EmbellishmentArg, Type: 'e', Tokens: []string{"^", "_"}}},
		},
		{
			name:  "embellishments with defaults",
			input: "E{^_}{{1}{2}}",
			want: latex.Signature{{
				Kind:     latex.EmbellishmentArg,
				Type:     'E',
				Tokens:   []string{"^", "_"},
				Defaults: []*latex.DefaultValue{{Raw: "1"}, {Raw: "2"}},
			}},
		},
		{
			name:  "custom star",
			input: "t+",
			want:  latex.Signature{{Kind: latex.StarArg, Type: 't', Token: "+"}},
		},
		{
			name:  "until control sequence",
			input: "u{\\stop}",
			want:  latex.Signature{{Kind: latex.UntilArg, Type: 'u', Tokens: []string{"\\stop"}}},
		},
		{
			name:  "until character",
			input: "u;",
			want:  latex.Signature{{Kind: latex.UntilArg, Type: 'u', Tokens: []string{";"}}},
		},
		{
			name:  "verbatim and body",
			input: "v b",
			want: latex.Signature{
				{Kind: latex.VerbatimArg, Type: 'v'},
				{Kind: latex.BodyArg, Type: 'b'},
			},
		},
		{
			name:  "processor",
			input: ">{\\SplitList{;}}m",
			want: latex.Signature{
				{Kind: latex.MandatoryArg, Type: 'm', OpenMark: "{", CloseMark: "}", Processors: []string{"\\SplitList{;}"}},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := latex.ParseSignature(tc.input)
			if err != nil {
				t.Fatalf("Unable to parse signature %q: %v", tc.input, err)
			}

			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Signature does not match (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSignatureError(t *testing.T) {
	tt := []struct {
		input  string
		offset int
		reason string
	}{
		{input: "x", offset: 0, reason: "unknown argument type 'x'"},
		{input: "m O{a", offset: 3, reason: "unbalanced braces"},
		{input: "m +", offset: 3, reason: "modifier is not followed by argument type"},
		{input: "d{}", offset: 1, reason: "'{' can't be used as delimiter"},
		{input: "d(", offset: 2, reason: "missing delimiter"},
		{input: "e{}", offset: 1, reason: "empty token list"},
		{input: "E{^}{{a}{b}}", offset: 4, reason: "2 defaults given for 1 tokens"},
		{input: "O", offset: 1, reason: "expected \"{\""},
	}

	for _, tc := range tt {
		t.Run(tc.input, func(t *testing.T) {
			_, err := latex.ParseSignature(tc.input)

			var serr *latex.SignatureError
			if !errors.As(err, &serr) {
				t.Fatalf("Expected SignatureError, got %v", err)
			}

			want := &latex.SignatureError{Signature: tc.input, Offset: tc.offset, Reason: tc.reason}
			if diff := cmp.Diff(want, serr); diff != "" {
				t.Errorf("Error does not match (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSignatureString(t *testing.T) {
	for _, input := range []string{
		"s o m",
		"O{A} m",
		"+!m",
		"D<>{x} r()",
		"e{^_} E{^_}{{1}{2}}",
		"t+ u{\\stop}",
		">{\\SplitList{;}}m",
		"v b",
	} {
		t.Run(input, func(t *testing.T) {
			sig := latex.MustParseSignature(input)

			if got := sig.String(); got != input {
				t.Errorf("Signature %q is printed as %q", input, got)
			}
		})
	}
}

func TestSignatureSlots(t *testing.T) {
	tt := map[string]int{
		"":          0,
		"s o m":     3,
		"e{^_} m":   3,
		"m b":       1,
		"O{x} u{;}": 2,
	}

	for input, want := range tt {
		if got := latex.MustParseSignature(input).Slots(); got != want {
			t.Errorf("Signature %q has %d slots, expected %d", input, got, want)
		}
	}
}

func TestSignatureCache(t *testing.T) {
	cache := latex.NewSignatureCache()

	first, err := cache.Get("o m")
	if err != nil {
		t.Fatalf("Unable to parse signature: %v", err)
	}

	second, _ := cache.Get("o m")
	if len(first) != 2 || len(second) != 2 || first[0] != second[0] {
		t.Errorf("Signature must be compiled only once")
	}

	if _, err := cache.Get("m O{"); err == nil {
		t.Errorf("Expected error for malformed signature")
	}

	var serr *latex.SignatureError
	if _, err := cache.Get("m O{"); !errors.As(err, &serr) {
		t.Errorf("Error must be cached too, got %v", err)
	}
}

func TestSignatureStarred(t *testing.T) {
	str := latex.Str

	tt := []struct {
		name      string
		signature string
		args      []*latex.Argument
		slot      int
		want      bool
	}{
		{name: "star given", signature: "s m", args: []*latex.Argument{latex.Arg("", "", str("*")), latex.Arg("{", "}", str("x"))}, slot: 0, want: true},
		{name: "star absent", signature: "s m", args: []*latex.Argument{latex.Absent(), latex.Arg("{", "}", str("x"))}, slot: 0},
		{name: "custom token", signature: "o t+", args: []*latex.Argument{latex.Absent(), latex.Arg("", "", str("+"))}, slot: 1, want: true},
		{name: "single token mandatory argument", signature: "m", args: []*latex.Argument{latex.Arg("", "", str("x"))}, slot: 0},
		{name: "slot out of range", signature: "s", args: []*latex.Argument{latex.Arg("", "", str("*"))}, slot: 1},
		{name: "missing arguments", signature: "s", slot: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := latex.MustParseSignature(tc.signature).Starred(tc.args, tc.slot); got != tc.want {
				t.Errorf("Starred returned %v, expected %v", got, tc.want)
			}
		})
	}
}
