package search

import (
	"errors"
	"math"
	"slices"

	"github.com/gametree-tools/gametree/pkg/tree"
)

var (
	// ErrDepthExceeded is returned when the traversal descends past
	// [Options.MaxDepth] levels. Trees built interactively never get that
	// deep; hitting the guard almost always means the edge set contains a
	// cycle reachable from the root.
	ErrDepthExceeded = errors.New("maximum recursion depth exceeded")

	// ErrUnknownRoot is returned by [EvaluateFrom] when the requested
	// root node does not exist.
	ErrUnknownRoot = errors.New("unknown root node")
)

// DefaultMaxDepth is the recursion guard applied when Options.MaxDepth
// is zero.
const DefaultMaxDepth = 10000

// Visit records one node visit, taken pre-order before any child is
// examined. Alpha and Beta are the pruning window in effect at that
// moment, so a visit after a sibling has been evaluated shows the
// tightened window.
type Visit struct {
	NodeID     int     `json:"node_id"`
	Depth      int     `json:"depth"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Maximizing bool    `json:"maximizing"`
}

// Result is the complete outcome of one evaluation run. It is recomputed
// from scratch on every run; evaluating an unchanged tree twice yields
// identical results.
type Result struct {
	// Value is the minimax value of the root under alpha-beta pruning.
	Value float64 `json:"value"`
	// Path lists node IDs from the root down to the leaf that realizes
	// Value. It always ends at a structural leaf.
	Path []int `json:"path"`
	// Pruned lists the parent→child edges cut off by the pruning rule,
	// in the order the cutoffs fired. Subtrees behind these edges were
	// never visited.
	Pruned []tree.EdgeKey `json:"pruned"`
	// Trace lists every node visit in visitation order.
	Trace []Visit `json:"trace"`
}

// OnPath reports whether from→to is a consecutive pair of the optimal
// path.
func (r *Result) OnPath(from, to int) bool {
	for i := 0; i+1 < len(r.Path); i++ {
		if r.Path[i] == from && r.Path[i+1] == to {
			return true
		}
	}
	return false
}

// IsPruned reports whether the edge from→to was cut off.
func (r *Result) IsPruned(from, to int) bool {
	return slices.Contains(r.Pruned, tree.EdgeKey{From: from, To: to})
}

// Options tunes an evaluation run.
type Options struct {
	// MaxDepth bounds the recursion depth. Zero means DefaultMaxDepth.
	// Exceeding the bound aborts the run with ErrDepthExceeded instead
	// of exhausting the call stack on a cyclic structure.
	MaxDepth int
}

// Evaluate runs alpha-beta over the tree starting at the detected root.
// It returns tree.ErrNoRoot before any traversal when no parentless node
// exists. The tree must not be mutated while Evaluate runs.
func Evaluate(t *tree.Tree) (*Result, error) {
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	return EvaluateFrom(t, root, Options{})
}

// EvaluateFrom runs alpha-beta from an explicit root node. Use this when
// the caller already knows the root or wants to evaluate a subtree.
func EvaluateFrom(t *tree.Tree, root int, opts Options) (*Result, error) {
	if _, ok := t.Node(root); !ok {
		return nil, ErrUnknownRoot
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	e := &evaluator{tree: t, maxDepth: maxDepth}
	value, path, err := e.walk(root, 0, math.Inf(-1), math.Inf(1), nil)
	if err != nil {
		return nil, err
	}
	return &Result{Value: value, Path: path, Pruned: e.pruned, Trace: e.trace}, nil
}

// evaluator accumulates the trace and pruned-edge list across one run.
type evaluator struct {
	tree     *tree.Tree
	maxDepth int
	trace    []Visit
	pruned   []tree.EdgeKey
}

// walk evaluates one node. prefix holds the IDs of the node's ancestors;
// walk appends the node's own ID and hands the extended path to each
// child. Sibling calls share the prefix's backing array, which is safe
// because a call only ever appends at its own depth and the final path is
// cloned at the leaf.
func (e *evaluator) walk(id, depth int, alpha, beta float64, prefix []int) (float64, []int, error) {
	if depth > e.maxDepth {
		return 0, nil, ErrDepthExceeded
	}

	n, _ := e.tree.Node(id)
	// The declared type decides the layer mode; nodes not marked Min
	// (including leaves that grew children) maximize.
	maximizing := n.Type != tree.Min

	e.trace = append(e.trace, Visit{NodeID: id, Depth: depth, Alpha: alpha, Beta: beta, Maximizing: maximizing})

	children := e.tree.Children(id)
	path := append(prefix, id)

	// Leaf detection is structural: a childless node contributes its
	// stored value no matter what type it declares.
	if len(children) == 0 {
		return n.Value, slices.Clone(path), nil
	}

	if maximizing {
		best := math.Inf(-1)
		var bestPath []int
		for i, child := range children {
			v, p, err := e.walk(child, depth+1, alpha, beta, path)
			if err != nil {
				return 0, nil, err
			}
			// Strict comparison: the first child reaching the best
			// value keeps the path; later ties don't overwrite it.
			if v > best {
				best, bestPath = v, p
			}
			alpha = math.Max(alpha, v)
			if beta <= alpha {
				e.prune(id, children[i+1:])
				break
			}
		}
		return best, bestPath, nil
	}

	best := math.Inf(1)
	var bestPath []int
	for i, child := range children {
		v, p, err := e.walk(child, depth+1, alpha, beta, path)
		if err != nil {
			return 0, nil, err
		}
		if v < best {
			best, bestPath = v, p
		}
		beta = math.Min(beta, v)
		if beta <= alpha {
			e.prune(id, children[i+1:])
			break
		}
	}
	return best, bestPath, nil
}

// prune marks the not-yet-visited children of id as cut off. Only the
// direct parent→child edges at the node where the cutoff fired are
// recorded; descendants of a pruned child are not marked.
func (e *evaluator) prune(id int, rest []int) {
	for _, child := range rest {
		e.pruned = append(e.pruned, tree.EdgeKey{From: id, To: child})
	}
}
