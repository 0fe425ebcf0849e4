// Package lexer turns Java source into a flat token stream with 1-based
// line/column positions. It never builds a tree, so it accepts snippets that
// are not complete compilation units.
package lexer

import "fmt"

// Kind is the lexical class of a token.
type Kind int

const (
	KindIdentifier Kind = iota
	KindKeyword
	KindLiteral
	KindOperator
	KindSeparator
)

var kindNames = map[Kind]string{
	KindIdentifier: "identifier",
	KindKeyword:    "keyword",
	KindLiteral:    "literal",
	KindOperator:   "operator",
	KindSeparator:  "separator",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexeme. Column is counted in runes, starting at 1.
type Token struct {
	Kind   Kind
	Value  string
	Line   int
	Column int
}

// EndColumn is the column of the token's last rune.
func (t Token) EndColumn() int {
	return t.Column + len([]rune(t.Value)) - 1
}

// Covers reports whether the token starts on line and spans column.
func (t Token) Covers(line, column int) bool {
	return t.Line == line && t.Column <= column && column <= t.EndColumn()
}

// keywords includes the primitive type names and modifiers; the literals
// true, false and null are classified separately.
var keywords = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {},
	"case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extends": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "goto": {}, "if": {}, "implements": {}, "import": {},
	"instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {},
	"return": {}, "short": {}, "static": {}, "strictfp": {}, "super": {},
	"switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {},
}

var wordLiterals = map[string]struct{}{
	"true": {}, "false": {}, "null": {},
}

// IsKeyword reports whether word is a reserved Java keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}
