package tree

import (
	"errors"
	"slices"
)

var (
	// ErrNoRoot is returned by [Tree.Root] when no node is parentless.
	// A graph where every node has an incoming edge (e.g. a 2-cycle)
	// cannot be evaluated.
	ErrNoRoot = errors.New("tree has no root")

	// ErrInvalidNodeID is returned by [Tree.Insert] when the node ID is
	// negative. Imported trees must use the same non-negative ID space
	// that [Tree.AddNode] allocates from.
	ErrInvalidNodeID = errors.New("node ID must not be negative")

	// ErrDuplicateNodeID is returned by [Tree.Insert] when a node with
	// the same ID already exists. Node IDs are unique and stable for the
	// node's lifetime.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrCycle is returned by [Tree.Validate] when a directed cycle is
	// detected. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrCycle = errors.New("tree contains a cycle")
)

// NodeType declares how an interior node chooses among its children.
// The type is advisory for leaves: any node without children is evaluated
// as a leaf regardless of its declared type.
type NodeType int

const (
	// Max nodes pick the child with the highest value.
	Max NodeType = iota
	// Min nodes pick the child with the lowest value.
	Min
	// Leaf nodes carry a terminal value.
	Leaf
)

// String returns the lowercase name of the node type.
func (t NodeType) String() string {
	switch t {
	case Min:
		return "min"
	case Leaf:
		return "leaf"
	default:
		return "max"
	}
}

// Node is a vertex of the game tree. Value is meaningful when the node is
// evaluated as a leaf; it defaults to 0.
type Node struct {
	ID    int
	Type  NodeType
	Value float64
}

// EdgeKey identifies a directed parent→child edge.
type EdgeKey struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Tree is a mutable game tree (or forest) with integer node IDs and
// directed parent→child edges. Edges are kept in insertion order, which
// fixes the left-to-right sibling order seen by the search engine.
//
// The zero value is not usable - use New. Tree is not safe for concurrent
// use without external synchronization; in particular it must not be
// mutated while an evaluation is running.
type Tree struct {
	nodes    map[int]*Node
	edges    []EdgeKey
	outgoing map[int][]int // parent ID -> child IDs, insertion order
	incoming map[int][]int // child ID -> parent IDs, insertion order
	nextID   int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		nodes:    make(map[int]*Node),
		outgoing: make(map[int][]int),
		incoming: make(map[int][]int),
	}
}

// AddNode adds a node of the given type and returns its freshly allocated
// ID. IDs increase monotonically and are never reused, even after the node
// is removed.
func (t *Tree) AddNode(typ NodeType) int {
	id := t.nextID
	t.nextID++
	t.nodes[id] = &Node{ID: id, Type: typ}
	return id
}

// Insert adds a node with an explicit ID, as read from a serialized tree.
// Returns ErrInvalidNodeID for negative IDs or ErrDuplicateNodeID if the
// ID is taken. The internal ID counter is advanced past the inserted ID so
// later AddNode calls stay collision-free.
func (t *Tree) Insert(n Node) error {
	if n.ID < 0 {
		return ErrInvalidNodeID
	}
	if _, exists := t.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	t.nodes[n.ID] = &node
	if n.ID >= t.nextID {
		t.nextID = n.ID + 1
	}
	return nil
}

// AddEdge adds a directed edge from parent to child and reports whether
// the edge was added. Self-loops, duplicate ordered pairs, and edges with
// a missing endpoint are silent no-ops (added == false), matching the
// behavior interactive editors rely on when users mis-click.
func (t *Tree) AddEdge(from, to int) bool {
	if from == to {
		return false
	}
	if _, ok := t.nodes[from]; !ok {
		return false
	}
	if _, ok := t.nodes[to]; !ok {
		return false
	}
	if slices.Contains(t.outgoing[from], to) {
		return false
	}
	t.edges = append(t.edges, EdgeKey{From: from, To: to})
	t.outgoing[from] = append(t.outgoing[from], to)
	t.incoming[to] = append(t.incoming[to], from)
	return true
}

// RemoveEdge removes the edge from→to if it exists. Removing a missing
// edge is a no-op.
func (t *Tree) RemoveEdge(from, to int) {
	t.edges = slices.DeleteFunc(t.edges, func(e EdgeKey) bool { return e.From == from && e.To == to })
	t.outgoing[from] = slices.DeleteFunc(t.outgoing[from], func(id int) bool { return id == to })
	t.incoming[to] = slices.DeleteFunc(t.incoming[to], func(id int) bool { return id == from })
}

// RemoveNode deletes the node and every edge where it appears as parent or
// child. Removing an unknown ID is a no-op.
func (t *Tree) RemoveNode(id int) {
	if _, ok := t.nodes[id]; !ok {
		return
	}
	delete(t.nodes, id)
	t.edges = slices.DeleteFunc(t.edges, func(e EdgeKey) bool { return e.From == id || e.To == id })
	for _, child := range t.outgoing[id] {
		t.incoming[child] = slices.DeleteFunc(t.incoming[child], func(p int) bool { return p == id })
	}
	for _, parent := range t.incoming[id] {
		t.outgoing[parent] = slices.DeleteFunc(t.outgoing[parent], func(c int) bool { return c == id })
	}
	delete(t.outgoing, id)
	delete(t.incoming, id)
}

// SetType changes a node's declared type in place and reports whether the
// node exists.
func (t *Tree) SetType(id int, typ NodeType) bool {
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	n.Type = typ
	return true
}

// SetValue changes a node's stored value in place and reports whether the
// node exists.
func (t *Tree) SetValue(id int, v float64) bool {
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	n.Value = v
	return true
}

// Node returns a copy of the node with the given ID and true, or the zero
// node and false if not found. Returning a copy keeps callers from
// mutating the tree behind the mutation methods' back.
func (t *Tree) Node(id int) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes sorted by ID. Since IDs are allocated in
// increasing order this is also creation order.
func (t *Tree) Nodes() []Node {
	nodes := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		nodes = append(nodes, *n)
	}
	slices.SortFunc(nodes, func(a, b Node) int { return a.ID - b.ID })
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (t *Tree) Edges() []EdgeKey { return slices.Clone(t.edges) }

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// EdgeCount returns the number of edges.
func (t *Tree) EdgeCount() int { return len(t.edges) }

// Children returns the IDs of the node's children in edge-insertion order.
// The returned slice is a read-only view; it must not be modified.
func (t *Tree) Children(id int) []int { return t.outgoing[id] }

// Parents returns the IDs of the node's parents in edge-insertion order.
// The returned slice is a read-only view; it must not be modified.
func (t *Tree) Parents(id int) []int { return t.incoming[id] }

// Roots returns the IDs of all parentless nodes in ascending order.
func (t *Tree) Roots() []int {
	var roots []int
	for id := range t.nodes {
		if len(t.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots
}

// Root returns the ID of the evaluation root: the parentless node with the
// smallest ID. When several parentless nodes exist the smallest ID is a
// deterministic tie-break; the rest are ignored. Returns ErrNoRoot when
// every node has a parent.
func (t *Tree) Root() (int, error) {
	roots := t.Roots()
	if len(roots) == 0 {
		return 0, ErrNoRoot
	}
	return roots[0], nil
}

// Leaves returns the IDs of all structural leaves (nodes without
// children), in ascending order.
func (t *Tree) Leaves() []int {
	var leaves []int
	for id := range t.nodes {
		if len(t.outgoing[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	slices.Sort(leaves)
	return leaves
}

// Validate checks that the edge set is acyclic and returns ErrCycle
// otherwise. Callers that want an explicit failure instead of the search
// engine's recursion-depth guard run this before evaluating.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (t *Tree) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[int]int, len(t.nodes))
	var hasCycle bool

	var dfs func(id int)
	dfs = func(id int) {
		color[id] = gray
		for _, child := range t.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range t.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrCycle
			}
		}
	}
	return nil
}
