package treeio

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/tree"
)

const textbookJSON = `{
  "nodes": [
    {"id": 0, "type": "max"},
    {"id": 1, "type": "min"},
    {"id": 2, "type": "min"},
    {"id": 3, "type": "leaf", "value": 3},
    {"id": 4, "type": "leaf", "value": 5},
    {"id": 5, "type": "leaf", "value": 2},
    {"id": 6, "type": "leaf", "value": 9}
  ],
  "edges": [
    {"from": 0, "to": 1},
    {"from": 0, "to": 2},
    {"from": 1, "to": 3},
    {"from": 1, "to": 4},
    {"from": 2, "to": 5},
    {"from": 2, "to": 6}
  ]
}`

func TestReadJSON(t *testing.T) {
	tr, err := ReadJSON(strings.NewReader(textbookJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if got := len(tr.Nodes()); got != 7 {
		t.Errorf("node count = %d, want 7", got)
	}
	if got := len(tr.Edges()); got != 6 {
		t.Errorf("edge count = %d, want 6", got)
	}

	n, ok := tr.Node(3)
	if !ok {
		t.Fatal("node 3 missing after import")
	}
	if n.Type != tree.Leaf || n.Value != 3 {
		t.Errorf("node 3 = %+v, want leaf with value 3", n)
	}

	root, err := tr.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != 0 {
		t.Errorf("root = %d, want 0", root)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "MalformedJSON",
			input:   `{"nodes": [`,
			wantErr: "decode",
		},
		{
			name:    "UnknownNodeType",
			input:   `{"nodes": [{"id": 0, "type": "chance"}], "edges": []}`,
			wantErr: `unknown type "chance"`,
		},
		{
			name:    "DuplicateNodeID",
			input:   `{"nodes": [{"id": 0}, {"id": 0}], "edges": []}`,
			wantErr: "node 0",
		},
		{
			name:    "NegativeNodeID",
			input:   `{"nodes": [{"id": -1}], "edges": []}`,
			wantErr: "node -1",
		},
		{
			name:    "SelfLoopEdge",
			input:   `{"nodes": [{"id": 0}], "edges": [{"from": 0, "to": 0}]}`,
			wantErr: "edge 0->0",
		},
		{
			name:    "UnknownEdgeEndpoint",
			input:   `{"nodes": [{"id": 0}], "edges": [{"from": 0, "to": 9}]}`,
			wantErr: "edge 0->9",
		},
		{
			name:    "DuplicateEdge",
			input:   `{"nodes": [{"id": 0}, {"id": 1}], "edges": [{"from": 0, "to": 1}, {"from": 0, "to": 1}]}`,
			wantErr: "edge 0->1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadJSONDefaultsTypeToMax(t *testing.T) {
	tr, err := ReadJSON(strings.NewReader(`{"nodes": [{"id": 0}], "edges": []}`))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	n, _ := tr.Node(0)
	if n.Type != tree.Max {
		t.Errorf("type = %v, want max", n.Type)
	}
}

func TestRoundTrip(t *testing.T) {
	tr, err := ReadJSON(strings.NewReader(textbookJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(tr, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	again, err := ReadJSON(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadJSON (round trip): %v", err)
	}

	if got, want := len(again.Nodes()), len(tr.Nodes()); got != want {
		t.Errorf("node count after round trip = %d, want %d", got, want)
	}
	if got, want := again.Edges(), tr.Edges(); len(got) != len(want) {
		t.Errorf("edge count after round trip = %d, want %d", len(got), len(want))
	}
	for _, want := range tr.Nodes() {
		got, ok := again.Node(want.ID)
		if !ok {
			t.Errorf("node %d lost in round trip", want.ID)
			continue
		}
		if got != want {
			t.Errorf("node %d = %+v, want %+v", want.ID, got, want)
		}
	}
}

func TestWriteJSONStable(t *testing.T) {
	tr, err := ReadJSON(strings.NewReader(textbookJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	var first, second bytes.Buffer
	if err := WriteJSON(tr, &first); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteJSON(tr, &second); err != nil {
		t.Fatalf("WriteJSON (rerun): %v", err)
	}
	if first.String() != second.String() {
		t.Error("two exports of the same tree differ")
	}
}

func TestWriteJSONOmitsZeroValue(t *testing.T) {
	tr := tree.New()
	tr.AddNode(tree.Leaf)

	var buf bytes.Buffer
	if err := WriteJSON(tr, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.Contains(buf.String(), `"value"`) {
		t.Errorf("zero value serialized: %s", buf.String())
	}
}

func TestMarshalResult(t *testing.T) {
	res := &search.Result{
		Value:  3,
		Path:   []int{0, 1, 3},
		Pruned: []tree.EdgeKey{{From: 2, To: 6}},
	}

	data, err := MarshalResult(res)
	if err != nil {
		t.Fatalf("MarshalResult: %v", err)
	}

	var decoded search.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, *res) {
		t.Errorf("round trip = %+v, want %+v", decoded, *res)
	}
}

func TestImportExportFiles(t *testing.T) {
	tr, err := ReadJSON(strings.NewReader(textbookJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	path := t.TempDir() + "/tree.json"
	if err := ExportJSON(tr, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	again, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got := len(again.Nodes()); got != 7 {
		t.Errorf("node count = %d, want 7", got)
	}

	if _, err := ImportJSON(t.TempDir() + "/missing.json"); err == nil {
		t.Error("ImportJSON on a missing file succeeded")
	}
}
