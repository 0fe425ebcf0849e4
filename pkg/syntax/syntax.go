// Package syntax wraps the tree-sitter Java grammar for scope-aware identifier
// lookups. Unlike the lexer it rejects source with syntax errors.
package syntax

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/nameserve/pkg/rename"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

var javaLanguage = tree_sitter.NewLanguage(tree_sitter_java.Language())

// SyntaxError points at the first ERROR or MISSING node of a parse.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// Tree is a parsed snippet. Close must be called to release the C tree.
type Tree struct {
	tree *tree_sitter.Tree
	src  []byte
}

// Parse builds a syntax tree for src. A tree containing error nodes is closed
// and reported as a *SyntaxError.
func Parse(src string) (*Tree, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(javaLanguage); err != nil {
		return nil, fmt.Errorf("set java language: %w", err)
	}

	// the C side may hold on to the buffer, so it gets its own copy
	buf := []byte(src)
	tree := parser.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree")
	}
	t := &Tree{tree: tree, src: buf}

	root := tree.RootNode()
	if root.HasError() {
		defer t.Close()
		if bad := firstError(root); bad != nil {
			return nil, t.syntaxError(bad)
		}
		return nil, &SyntaxError{Line: 1, Column: 1}
	}
	return t, nil
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// RootKind is the grammar name of the root node, "program" for Java.
func (t *Tree) RootKind() string {
	return t.tree.RootNode().Kind()
}

func (t *Tree) syntaxError(n *tree_sitter.Node) *SyntaxError {
	pos := t.position(n)
	near := n.Utf8Text(t.src)
	if n.IsMissing() {
		near = n.Kind()
	}
	if len(near) > 24 {
		near = near[:24]
	}
	return &SyntaxError{Line: pos.Line, Column: pos.Column, Near: near}
}

// position converts a node start into 1-based line and rune column.
func (t *Tree) position(n *tree_sitter.Node) rename.Position {
	start := int(n.StartByte())
	lineStart := bytes.LastIndexByte(t.src[:start], '\n') + 1
	return rename.Position{
		Line:   int(n.StartPosition().Row) + 1,
		Column: utf8.RuneCount(t.src[lineStart:start]) + 1,
	}
}

func firstError(n *tree_sitter.Node) *tree_sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
