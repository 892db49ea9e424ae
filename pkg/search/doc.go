// Package search implements minimax evaluation with alpha-beta pruning
// over a [tree.Tree].
//
// One call to [Evaluate] performs a single synchronous depth-first
// traversal and produces a [Result]: the optimal value, the root-to-leaf
// path that realizes it, the set of edges cut off by pruning, and a
// chronological trace of every node visit with the alpha/beta window
// active at that moment. The traversal never yields and holds no state
// between runs, so re-evaluating an unchanged tree is deterministic down
// to the ordering of the pruned-edge list.
//
// The engine reads the tree but never mutates it. Callers own exclusion:
// mutating the tree while an evaluation is in flight is undefined.
//
// Acyclic DAGs evaluate fine (shared subtrees are visited once per
// arrival); cyclic structures trip the recursion guard and fail with
// [ErrDepthExceeded] instead of overflowing the stack.
package search
