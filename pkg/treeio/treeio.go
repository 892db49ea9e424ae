package treeio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/tree"
)

var typeFromString = map[string]tree.NodeType{
	"max":  tree.Max,
	"min":  tree.Min,
	"leaf": tree.Leaf,
}

type treeJSON struct {
	Nodes []nodeJSON     `json:"nodes"`
	Edges []tree.EdgeKey `json:"edges"`
}

type nodeJSON struct {
	ID    int      `json:"id"`
	Type  string   `json:"type,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// ReadJSON decodes a JSON game tree from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [
//	    {"id": 0, "type": "max"},
//	    {"id": 1, "type": "leaf", "value": 3}
//	  ],
//	  "edges": [{"from": 0, "to": 1}]
//	}
//
// Each node needs an "id". "type" is one of "max", "min", "leaf" and
// defaults to "max" when omitted, so hand-written files can skip it on
// interior nodes. "value" defaults to 0.
//
// The model itself swallows bad edges silently, but at the serialization
// boundary a self-loop, duplicate pair, or unknown endpoint in a file is
// a mistake worth surfacing, so ReadJSON reports it as an error.
func ReadJSON(r io.Reader) (*tree.Tree, error) {
	var data treeJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	t := tree.New()
	for _, n := range data.Nodes {
		typ, ok := typeFromString[n.Type]
		if !ok {
			if n.Type != "" {
				return nil, fmt.Errorf("node %d: unknown type %q", n.ID, n.Type)
			}
			typ = tree.Max
		}
		node := tree.Node{ID: n.ID, Type: typ}
		if n.Value != nil {
			node.Value = *n.Value
		}
		if err := t.Insert(node); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if !t.AddEdge(e.From, e.To) {
			return nil, fmt.Errorf("edge %d->%d: self-loop, duplicate, or unknown endpoint", e.From, e.To)
		}
	}
	return t, nil
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
// Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string) (*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes a tree as indented JSON and writes it to w. Nodes are
// emitted in ID order and edges in insertion order, so output for an
// unchanged tree is byte-for-byte stable and re-imports with [ReadJSON].
func WriteJSON(t *tree.Tree, w io.Writer) error {
	nodes := t.Nodes()
	out := treeJSON{
		Nodes: make([]nodeJSON, len(nodes)),
		Edges: t.Edges(),
	}
	for i, n := range nodes {
		nj := nodeJSON{ID: n.ID, Type: n.Type.String()}
		if n.Value != 0 {
			v := n.Value
			nj.Value = &v
		}
		out.Nodes[i] = nj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a tree to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(t *tree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}

// WriteResult encodes an evaluation result as indented JSON. This is the
// payload API responses and `evaluate --format json` emit.
func WriteResult(res *search.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// MarshalResult converts an evaluation result to JSON bytes.
func MarshalResult(res *search.Result) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return data, nil
}
