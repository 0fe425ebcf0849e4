package syntax

import (
	"github.com/bastiangx/nameserve/pkg/rename"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Declarations whose name field is a declared type or method rather than a
// variable.
var namedDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
	"method_declaration":          true,
	"constructor_declaration":     true,
	"method_invocation":           true,
	"annotation":                  true,
	"marker_annotation":           true,
}

// Subtrees that only ever hold qualified names or labels.
var skippedSubtrees = map[string]bool{
	"package_declaration": true,
	"import_declaration":  true,
	"scoped_identifier":   true,
	"break_statement":     true,
	"continue_statement":  true,
}

// VariableReferences returns the start of every identifier named name that
// declares or reads a variable: local and field declarators, parameters,
// plain references and member accesses. Method names, type names, labels and
// import paths are left out. Positions come back in source order.
func (t *Tree) VariableReferences(name string) []rename.Position {
	var out []rename.Position
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		kind := n.Kind()
		if skippedSubtrees[kind] {
			return
		}
		if kind == "identifier" {
			if n.Utf8Text(t.src) == name && t.isVariable(n) {
				out = append(out, t.position(n))
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(t.tree.RootNode())
	return out
}

func (t *Tree) isVariable(n *tree_sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	switch parent.Kind() {
	case "labeled_statement":
		return false
	case "method_reference":
		// String::valueOf names a method; the receiver before :: may be a variable
		return parent.Child(0) != nil && sameNode(parent.Child(0), n)
	}
	if namedDeclarations[parent.Kind()] {
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil && sameNode(nameNode, n) {
			return false
		}
	}
	return true
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
