// Package tree implements the mutable game-tree model that the search
// engine evaluates.
//
// A tree holds nodes (integer ID, declared MAX/MIN/LEAF type, optional
// leaf value) and directed parent→child edges. The model is deliberately
// forgiving: the editing operations an interactive builder performs are
// no-ops rather than errors when they don't make sense (duplicate edges,
// self-loops, removing a node twice). Structural queries are strict and
// deterministic - children are reported in edge-insertion order, and the
// evaluation root is the parentless node with the smallest ID.
//
// Building a tree by hand:
//
//	t := tree.New()
//	root := t.AddNode(tree.Max)
//	a := t.AddNode(tree.Min)
//	leaf := t.AddNode(tree.Leaf)
//	t.SetValue(leaf, 3)
//	t.AddEdge(root, a)
//	t.AddEdge(a, leaf)
//
// The model permits arbitrary directed graphs; [Tree.Validate] reports
// cycles for callers that want to reject them before evaluation.
package tree
