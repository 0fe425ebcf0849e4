// Package resolve finds the identifier under a cursor position and every place
// the same name occurs in the snippet.
//
// Two strategies exist and a Resolver is bound to exactly one of them:
//
//   - Lexical scans the token stream. Every identifier token with the same
//     spelling is an occurrence, regardless of scope. It accepts fragments that
//     do not parse.
//   - Structural parses the snippet with tree-sitter and keeps only variable
//     declarators, parameters and variable or member references. Method and
//     type names are never occurrences, and source with syntax errors fails.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bastiangx/nameserve/internal/logger"
	"github.com/bastiangx/nameserve/pkg/lexer"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/syntax"
	"github.com/charmbracelet/log"
)

// Strategy selects how occurrences are collected.
type Strategy string

const (
	Lexical    Strategy = "lexical"
	Structural Strategy = "structural"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case Lexical, Structural:
		return s, nil
	case "":
		return Lexical, nil
	default:
		return "", fmt.Errorf("unknown resolve strategy %q", name)
	}
}

// Resolver is stateless apart from its strategy and safe for concurrent use.
type Resolver struct {
	strategy Strategy
	log      *log.Logger
}

// New returns a resolver bound to strategy.
func New(strategy Strategy) *Resolver {
	return &Resolver{strategy: strategy, log: logger.New("resolve")}
}

// Strategy reports the strategy the resolver was built with.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Resolve returns the identifier at (line, column) and its occurrences.
func (r *Resolver) Resolve(src string, line, column int) (rename.Resolution, error) {
	const op = "resolve"

	if lines := countLines(src); line < 1 || line > lines {
		return rename.Resolution{}, rename.Errorf(rename.KindLineOutOfRange, op,
			"line %d is outside the snippet (1-%d)", line, lines)
	}

	toks, err := lexer.Tokenize(src)
	if err != nil {
		return rename.Resolution{}, rename.Wrap(rename.KindParse, op, err)
	}

	target, ok := tokenAt(toks, line, column)
	if !ok {
		return rename.Resolution{}, rename.Errorf(rename.KindPositionNotFound, op,
			"no token found at %d:%d", line, column)
	}
	if target.Kind != lexer.KindIdentifier {
		return rename.Resolution{}, rename.Errorf(rename.KindNotAnIdentifier, op,
			"token %q at %d:%d is a %s, not an identifier", target.Value, line, column, target.Kind)
	}

	origin := rename.Position{Line: target.Line, Column: target.Column}
	var occurrences []rename.Position
	switch r.strategy {
	case Structural:
		occurrences, err = structuralOccurrences(src, target.Value)
		if err != nil {
			return rename.Resolution{}, rename.Wrap(rename.KindParse, op, err)
		}
		// the same spelling may name a method, type or label elsewhere
		if len(occurrences) > 0 && !slices.Contains(occurrences, origin) {
			return rename.Resolution{}, rename.Errorf(rename.KindNotAnIdentifier, op,
				"%q at %s is not a variable under the structural strategy", target.Value, origin)
		}
	default:
		occurrences = lexicalOccurrences(toks, target.Value)
	}

	if len(occurrences) == 0 {
		return rename.Resolution{}, rename.Errorf(rename.KindNoOccurrences, op,
			"variable %q not found in the code", target.Value)
	}

	r.log.Debug("resolved", "name", target.Value, "strategy", r.strategy, "occurrences", len(occurrences))
	return rename.Resolution{
		Name:        target.Value,
		Origin:      origin,
		Occurrences: occurrences,
	}, nil
}

// tokenAt returns the first token on line whose span contains column.
func tokenAt(toks []lexer.Token, line, column int) (lexer.Token, bool) {
	for _, tok := range toks {
		if tok.Covers(line, column) {
			return tok, true
		}
	}
	return lexer.Token{}, false
}

func lexicalOccurrences(toks []lexer.Token, name string) []rename.Position {
	var out []rename.Position
	for _, tok := range toks {
		if tok.Kind == lexer.KindIdentifier && tok.Value == name {
			out = append(out, rename.Position{Line: tok.Line, Column: tok.Column})
		}
	}
	return out
}

func structuralOccurrences(src, name string) ([]rename.Position, error) {
	tree, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return tree.VariableReferences(name), nil
}

// countLines counts lines the way the masking step splits them.
func countLines(src string) int {
	return strings.Count(src, "\n") + 1
}
