package search

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/gametree-tools/gametree/pkg/tree"
)

// textbook builds the classic pruning example: a MAX root over two MIN
// nodes A and B, A over leaves [3, 5], B over leaves [2, 9]. Evaluating
// B's first leaf (2) closes the window (beta=2 <= alpha=3) and prunes
// the 9-leaf.
func textbook(t *testing.T) (*tree.Tree, map[string]int) {
	t.Helper()
	tr := tree.New()
	ids := map[string]int{
		"root":  tr.AddNode(tree.Max),
		"a":     tr.AddNode(tree.Min),
		"b":     tr.AddNode(tree.Min),
		"leaf3": tr.AddNode(tree.Leaf),
		"leaf5": tr.AddNode(tree.Leaf),
		"leaf2": tr.AddNode(tree.Leaf),
		"leaf9": tr.AddNode(tree.Leaf),
	}
	tr.SetValue(ids["leaf3"], 3)
	tr.SetValue(ids["leaf5"], 5)
	tr.SetValue(ids["leaf2"], 2)
	tr.SetValue(ids["leaf9"], 9)
	tr.AddEdge(ids["root"], ids["a"])
	tr.AddEdge(ids["root"], ids["b"])
	tr.AddEdge(ids["a"], ids["leaf3"])
	tr.AddEdge(ids["a"], ids["leaf5"])
	tr.AddEdge(ids["b"], ids["leaf2"])
	tr.AddEdge(ids["b"], ids["leaf9"])
	return tr, ids
}

func TestEvaluateTextbookCase(t *testing.T) {
	tr, ids := textbook(t)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if res.Value != 3 {
		t.Errorf("value = %g, want 3", res.Value)
	}

	wantPath := []int{ids["root"], ids["a"], ids["leaf3"]}
	if !slices.Equal(res.Path, wantPath) {
		t.Errorf("path = %v, want %v", res.Path, wantPath)
	}

	wantPruned := []tree.EdgeKey{{From: ids["b"], To: ids["leaf9"]}}
	if !slices.Equal(res.Pruned, wantPruned) {
		t.Errorf("pruned = %v, want %v", res.Pruned, wantPruned)
	}

	// The 9-leaf was cut off, so it must not appear in the trace.
	for _, v := range res.Trace {
		if v.NodeID == ids["leaf9"] {
			t.Errorf("pruned leaf %d was visited", ids["leaf9"])
		}
	}
}

func TestEvaluateTextbookTrace(t *testing.T) {
	tr, ids := textbook(t)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	inf := math.Inf(1)
	want := []Visit{
		{NodeID: ids["root"], Depth: 0, Alpha: -inf, Beta: inf, Maximizing: true},
		{NodeID: ids["a"], Depth: 1, Alpha: -inf, Beta: inf, Maximizing: false},
		{NodeID: ids["leaf3"], Depth: 2, Alpha: -inf, Beta: inf, Maximizing: true},
		// After the 3-leaf, A's window has tightened to beta=3.
		{NodeID: ids["leaf5"], Depth: 2, Alpha: -inf, Beta: 3, Maximizing: true},
		// After A returns 3, the root's alpha is 3.
		{NodeID: ids["b"], Depth: 1, Alpha: 3, Beta: inf, Maximizing: false},
		{NodeID: ids["leaf2"], Depth: 2, Alpha: 3, Beta: inf, Maximizing: true},
	}
	if !reflect.DeepEqual(res.Trace, want) {
		t.Errorf("trace = %v, want %v", res.Trace, want)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	tr, _ := textbook(t)

	first, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate (rerun): %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-evaluation differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestLeafByStructure(t *testing.T) {
	// A node declared MIN with no children must evaluate as a leaf using
	// its stored value.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	minLeaf := tr.AddNode(tree.Min)
	tr.SetValue(minLeaf, 7)
	tr.AddEdge(root, minLeaf)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Value != 7 {
		t.Errorf("value = %g, want 7", res.Value)
	}
	if want := []int{root, minLeaf}; !slices.Equal(res.Path, want) {
		t.Errorf("path = %v, want %v", res.Path, want)
	}
}

func TestSingleNodeTree(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		set   bool
		want  float64
	}{
		{name: "StoredValue", value: 4.5, set: true, want: 4.5},
		{name: "UnsetDefaultsToZero", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.New()
			id := tr.AddNode(tree.Leaf)
			if tt.set {
				tr.SetValue(id, tt.value)
			}

			res, err := Evaluate(tr)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if res.Value != tt.want {
				t.Errorf("value = %g, want %g", res.Value, tt.want)
			}
			if want := []int{id}; !slices.Equal(res.Path, want) {
				t.Errorf("path = %v, want %v", res.Path, want)
			}
			if len(res.Trace) != 1 {
				t.Errorf("trace length = %d, want 1", len(res.Trace))
			}
		})
	}
}

func TestNoRoot(t *testing.T) {
	// Two nodes in a 2-cycle: both have incoming edges.
	tr := tree.New()
	a := tr.AddNode(tree.Max)
	b := tr.AddNode(tree.Min)
	tr.AddEdge(a, b)
	tr.AddEdge(b, a)

	res, err := Evaluate(tr)
	if !errors.Is(err, tree.ErrNoRoot) {
		t.Fatalf("err = %v, want ErrNoRoot", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil (no partial result)", res)
	}
}

func TestUnknownRoot(t *testing.T) {
	tr := tree.New()
	tr.AddNode(tree.Leaf)

	if _, err := EvaluateFrom(tr, 42, Options{}); !errors.Is(err, ErrUnknownRoot) {
		t.Errorf("err = %v, want ErrUnknownRoot", err)
	}
}

func TestDepthGuard(t *testing.T) {
	// A cycle reachable from a valid root: without the guard this would
	// recurse forever.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	a := tr.AddNode(tree.Min)
	b := tr.AddNode(tree.Max)
	tr.AddEdge(root, a)
	tr.AddEdge(a, b)
	tr.AddEdge(b, a)

	_, err := EvaluateFrom(tr, root, Options{MaxDepth: 50})
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("err = %v, want ErrDepthExceeded", err)
	}
}

func TestTieBreakFirstChildWins(t *testing.T) {
	// Two children with equal values: the first one keeps the path.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	first := tr.AddNode(tree.Leaf)
	second := tr.AddNode(tree.Leaf)
	tr.SetValue(first, 5)
	tr.SetValue(second, 5)
	tr.AddEdge(root, first)
	tr.AddEdge(root, second)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if want := []int{root, first}; !slices.Equal(res.Path, want) {
		t.Errorf("path = %v, want %v", res.Path, want)
	}
}

func TestModeFollowsDeclaredType(t *testing.T) {
	// Two MAX layers stacked: the child layer maximizes too, so the
	// parent sees each child's highest leaf.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	child := tr.AddNode(tree.Max)
	lo := tr.AddNode(tree.Leaf)
	hi := tr.AddNode(tree.Leaf)
	tr.SetValue(lo, 1)
	tr.SetValue(hi, 8)
	tr.AddEdge(root, child)
	tr.AddEdge(child, lo)
	tr.AddEdge(child, hi)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Value != 8 {
		t.Errorf("value = %g, want 8 (both layers maximize)", res.Value)
	}
	if !res.Trace[1].Maximizing {
		t.Error("child layer recorded as minimizing, want maximizing")
	}
}

func TestMinimizingRootPrunes(t *testing.T) {
	// Mirror of the textbook case with a MIN root over MAX layers.
	tr := tree.New()
	root := tr.AddNode(tree.Min)
	a := tr.AddNode(tree.Max)
	b := tr.AddNode(tree.Max)
	la1 := tr.AddNode(tree.Leaf)
	la2 := tr.AddNode(tree.Leaf)
	lb1 := tr.AddNode(tree.Leaf)
	lb2 := tr.AddNode(tree.Leaf)
	tr.SetValue(la1, 3)
	tr.SetValue(la2, 2)
	tr.SetValue(lb1, 9)
	tr.SetValue(lb2, 1)
	tr.AddEdge(root, a)
	tr.AddEdge(root, b)
	tr.AddEdge(a, la1)
	tr.AddEdge(a, la2)
	tr.AddEdge(b, lb1)
	tr.AddEdge(b, lb2)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Value != 3 {
		t.Errorf("value = %g, want 3", res.Value)
	}
	// B's first leaf (9) raises alpha to 9 >= beta 3; lb2 is pruned.
	wantPruned := []tree.EdgeKey{{From: b, To: lb2}}
	if !slices.Equal(res.Pruned, wantPruned) {
		t.Errorf("pruned = %v, want %v", res.Pruned, wantPruned)
	}
}

func TestPrunedDisjointFromPath(t *testing.T) {
	tr, _ := textbook(t)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	for _, e := range res.Pruned {
		if res.OnPath(e.From, e.To) {
			t.Errorf("edge %d->%d both pruned and on the optimal path", e.From, e.To)
		}
	}
}

func TestPruningCutsAllRemainingSiblings(t *testing.T) {
	// B has three leaves [2, 9, 8]; the cutoff after 2 must prune both
	// remaining siblings, in order.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	a := tr.AddNode(tree.Min)
	b := tr.AddNode(tree.Min)
	leafA := tr.AddNode(tree.Leaf)
	l2 := tr.AddNode(tree.Leaf)
	l9 := tr.AddNode(tree.Leaf)
	l8 := tr.AddNode(tree.Leaf)
	tr.SetValue(leafA, 3)
	tr.SetValue(l2, 2)
	tr.SetValue(l9, 9)
	tr.SetValue(l8, 8)
	tr.AddEdge(root, a)
	tr.AddEdge(root, b)
	tr.AddEdge(a, leafA)
	tr.AddEdge(b, l2)
	tr.AddEdge(b, l9)
	tr.AddEdge(b, l8)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	wantPruned := []tree.EdgeKey{{From: b, To: l9}, {From: b, To: l8}}
	if !slices.Equal(res.Pruned, wantPruned) {
		t.Errorf("pruned = %v, want %v", res.Pruned, wantPruned)
	}
}

func TestDAGSharedSubtreeVisitedPerArrival(t *testing.T) {
	// Two parents share one leaf; each arrival produces a trace entry.
	tr := tree.New()
	root := tr.AddNode(tree.Max)
	a := tr.AddNode(tree.Min)
	b := tr.AddNode(tree.Min)
	shared := tr.AddNode(tree.Leaf)
	tr.SetValue(shared, 4)
	tr.AddEdge(root, a)
	tr.AddEdge(root, b)
	tr.AddEdge(a, shared)
	tr.AddEdge(b, shared)

	res, err := Evaluate(tr)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	visits := 0
	for _, v := range res.Trace {
		if v.NodeID == shared {
			visits++
		}
	}
	if visits != 2 {
		t.Errorf("shared leaf visited %d times, want 2", visits)
	}
	if res.Value != 4 {
		t.Errorf("value = %g, want 4", res.Value)
	}
}

func TestResultHelpers(t *testing.T) {
	res := &Result{
		Path:   []int{0, 1, 3},
		Pruned: []tree.EdgeKey{{From: 2, To: 6}},
	}

	if !res.OnPath(0, 1) || !res.OnPath(1, 3) {
		t.Error("OnPath missed consecutive path pairs")
	}
	if res.OnPath(0, 3) {
		t.Error("OnPath matched a non-consecutive pair")
	}
	if !res.IsPruned(2, 6) {
		t.Error("IsPruned missed a pruned edge")
	}
	if res.IsPruned(6, 2) {
		t.Error("IsPruned matched the reversed edge")
	}
}
