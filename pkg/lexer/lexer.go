package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports input the lexer cannot split into tokens.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// operators is ordered longest first so the scan is a longest match.
var operators = []string{
	">>>=",
	"<<=", ">>=", ">>>", "...",
	"->", "::", "++", "--", "&&", "||", "==", "!=", "<=", ">=",
	"+=", "-=", "*=", "/=", "&=", "|=", "^=", "%=", "<<", ">>",
	"=", ">", "<", "!", "~", "?", ":", "+", "-", "*", "/", "&", "|", "^", "%",
}

const separators = "(){}[];,.@"

type scanner struct {
	src  []rune
	pos  int
	line int
	col  int
	toks []Token
}

// Tokenize lexes src. Comments and whitespace are dropped.
func Tokenize(src string) ([]Token, error) {
	s := &scanner{src: []rune(src), line: 1, col: 1}
	for s.pos < len(s.src) {
		if err := s.next(); err != nil {
			return nil, err
		}
	}
	return s.toks, nil
}

func (s *scanner) peek(off int) rune {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

// advance consumes n runes. Only \n breaks a line, so a \r before it is an
// ordinary column.
func (s *scanner) advance(n int) {
	for i := 0; i < n && s.pos < len(s.src); i++ {
		r := s.src[s.pos]
		s.pos++
		if r == '\n' {
			s.line++
			s.col = 1
			continue
		}
		s.col++
	}
}

func (s *scanner) fail(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) emit(kind Kind, start, line, col int) {
	s.toks = append(s.toks, Token{
		Kind:   kind,
		Value:  string(s.src[start:s.pos]),
		Line:   line,
		Column: col,
	})
}

func (s *scanner) next() error {
	r := s.peek(0)
	line, col, start := s.line, s.col, s.pos

	switch {
	case unicode.IsSpace(r):
		s.advance(1)
		return nil
	case r == '/' && s.peek(1) == '/':
		for s.pos < len(s.src) && s.peek(0) != '\n' && s.peek(0) != '\r' {
			s.advance(1)
		}
		return nil
	case r == '/' && s.peek(1) == '*':
		s.advance(2)
		for {
			if s.pos >= len(s.src) {
				return s.fail(line, col, "unterminated block comment")
			}
			if s.peek(0) == '*' && s.peek(1) == '/' {
				s.advance(2)
				return nil
			}
			s.advance(1)
		}
	case isIdentStart(r):
		for s.pos < len(s.src) && isIdentPart(s.peek(0)) {
			s.advance(1)
		}
		word := string(s.src[start:s.pos])
		kind := KindIdentifier
		if IsKeyword(word) {
			kind = KindKeyword
		} else if _, ok := wordLiterals[word]; ok {
			kind = KindLiteral
		}
		s.emit(kind, start, line, col)
		return nil
	case isDigit(r) || (r == '.' && isDigit(s.peek(1))):
		s.scanNumber()
		s.emit(KindLiteral, start, line, col)
		return nil
	case r == '"':
		if err := s.scanString(line, col); err != nil {
			return err
		}
		s.emit(KindLiteral, start, line, col)
		return nil
	case r == '\'':
		if err := s.scanQuoted('\'', line, col, "character literal"); err != nil {
			return err
		}
		s.emit(KindLiteral, start, line, col)
		return nil
	}

	for _, op := range operators {
		if s.hasPrefix(op) {
			s.advance(len(op))
			kind := KindOperator
			if op == "..." {
				kind = KindSeparator
			}
			s.emit(kind, start, line, col)
			return nil
		}
	}
	if strings.ContainsRune(separators, r) {
		s.advance(1)
		s.emit(KindSeparator, start, line, col)
		return nil
	}
	return s.fail(line, col, "illegal character %q", r)
}

func (s *scanner) hasPrefix(lit string) bool {
	i := 0
	for _, r := range lit {
		if s.peek(i) != r {
			return false
		}
		i++
	}
	return true
}

// scanNumber consumes a numeric literal loosely: digits, letters, underscores,
// dots, and a sign directly after an exponent marker.
func (s *scanner) scanNumber() {
	hex := s.peek(0) == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X')
	for s.pos < len(s.src) {
		r := s.peek(0)
		if r == '+' || r == '-' {
			prev := s.src[s.pos-1]
			if (!hex && (prev == 'e' || prev == 'E')) || (hex && (prev == 'p' || prev == 'P')) {
				s.advance(1)
				continue
			}
			return
		}
		if r == '.' {
			// 0.length is a member access, not part of the literal
			if next := s.peek(1); isIdentStart(next) {
				return
			}
			s.advance(1)
			continue
		}
		if r == '_' || isDigit(r) || unicode.IsLetter(r) {
			s.advance(1)
			continue
		}
		return
	}
}

func (s *scanner) scanString(line, col int) error {
	if s.hasPrefix(`"""`) {
		s.advance(3)
		for s.pos < len(s.src) {
			if s.peek(0) == '\\' {
				s.advance(2)
				continue
			}
			if s.hasPrefix(`"""`) {
				s.advance(3)
				return nil
			}
			s.advance(1)
		}
		return s.fail(line, col, "unterminated text block")
	}
	return s.scanQuoted('"', line, col, "string literal")
}

func (s *scanner) scanQuoted(quote rune, line, col int, what string) error {
	s.advance(1)
	for s.pos < len(s.src) {
		r := s.peek(0)
		switch r {
		case '\\':
			s.advance(2)
			continue
		case '\n', '\r':
			return s.fail(line, col, "unterminated %s", what)
		case quote:
			s.advance(1)
			return nil
		}
		s.advance(1)
	}
	return s.fail(line, col, "unterminated %s", what)
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
