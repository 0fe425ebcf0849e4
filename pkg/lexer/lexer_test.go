package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize("int x = 1; System.out.println(x);")
	require.NoError(t, err)

	want := []Token{
		{KindKeyword, "int", 1, 1},
		{KindIdentifier, "x", 1, 5},
		{KindOperator, "=", 1, 7},
		{KindLiteral, "1", 1, 9},
		{KindSeparator, ";", 1, 10},
		{KindIdentifier, "System", 1, 12},
		{KindSeparator, ".", 1, 18},
		{KindIdentifier, "out", 1, 19},
		{KindSeparator, ".", 1, 22},
		{KindIdentifier, "println", 1, 23},
		{KindSeparator, "(", 1, 30},
		{KindIdentifier, "x", 1, 31},
		{KindSeparator, ")", 1, 32},
		{KindSeparator, ";", 1, 33},
	}
	assert.Equal(t, want, toks)
}

func TestTokenizeMultiline(t *testing.T) {
	src := "class A {\r\n  // note x\n  String s = \"a // b\"; /* x\n y */ char c = '\\'';\n}"
	toks, err := Tokenize(src)
	require.NoError(t, err)

	var got []string
	for _, tok := range toks {
		got = append(got, tok.Value)
	}
	assert.Equal(t, []string{
		"class", "A", "{",
		"String", "s", "=", `"a // b"`, ";",
		"char", "c", "=", `'\''`, ";",
		"}",
	}, got)

	assert.Equal(t, Token{KindIdentifier, "s", 3, 10}, toks[4])
	assert.Equal(t, Token{KindIdentifier, "c", 4, 12}, toks[9])
	assert.Equal(t, Token{KindSeparator, "}", 5, 1}, toks[13])
}

func TestTokenizeOperatorsAndNumbers(t *testing.T) {
	toks, err := Tokenize("a >>>= 0x1p-3; b -> c::d; e = 1.5e+10f; f(int... g)")
	require.NoError(t, err)

	values := map[string]Kind{}
	for _, tok := range toks {
		values[tok.Value] = tok.Kind
	}
	assert.Equal(t, KindOperator, values[">>>="])
	assert.Equal(t, KindLiteral, values["0x1p-3"])
	assert.Equal(t, KindOperator, values["->"])
	assert.Equal(t, KindOperator, values["::"])
	assert.Equal(t, KindLiteral, values["1.5e+10f"])
	assert.Equal(t, KindSeparator, values["..."])
}

func TestTokenizeMemberAccessOnNumber(t *testing.T) {
	toks, err := Tokenize("n = arr[0].length;")
	require.NoError(t, err)
	assert.Equal(t, Token{KindLiteral, "0", 1, 9}, toks[4])
	assert.Equal(t, Token{KindIdentifier, "length", 1, 12}, toks[7])
}

func TestTokenizeLiteralsAreNotIdentifiers(t *testing.T) {
	toks, err := Tokenize("boolean ok = true; Object o = null;")
	require.NoError(t, err)

	kinds := map[string]Kind{}
	for _, tok := range toks {
		kinds[tok.Value] = tok.Kind
	}
	assert.Equal(t, KindKeyword, kinds["boolean"])
	assert.Equal(t, KindLiteral, kinds["true"])
	assert.Equal(t, KindLiteral, kinds["null"])
	assert.Equal(t, KindIdentifier, kinds["Object"])
}

func TestTokenizeTextBlock(t *testing.T) {
	toks, err := Tokenize("String q = \"\"\"\n  select x\n  \"\"\";\nq.trim();")
	require.NoError(t, err)
	last := toks[len(toks)-6]
	assert.Equal(t, Token{KindIdentifier, "q", 4, 1}, last)
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
		col  int
	}{
		{"unterminated string", "String s = \"abc;\nint y;", 1, 12},
		{"unterminated comment", "int x; /* never closed", 1, 8},
		{"illegal character", "int x = 1;\nx # 2;", 2, 3},
		{"unterminated char", "char c = 'a", 1, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(tc.src)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.line, se.Line)
			assert.Equal(t, tc.col, se.Column)
		})
	}
}

func TestTokenCovers(t *testing.T) {
	tok := Token{KindIdentifier, "count", 2, 5}
	assert.Equal(t, 9, tok.EndColumn())
	assert.True(t, tok.Covers(2, 5))
	assert.True(t, tok.Covers(2, 9))
	assert.False(t, tok.Covers(2, 10))
	assert.False(t, tok.Covers(1, 6))
}
