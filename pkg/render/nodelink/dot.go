package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gametree-tools/gametree/pkg/tree"
)

// Colors for the evaluation overlay.
const (
	colorPath   = "forestgreen"
	colorPruned = "firebrick"
)

// Overlay carries the evaluation outcome a diagram should highlight.
// The zero value renders a neutral diagram. The renderer deliberately
// takes plain path/pruned data instead of the engine's result type so it
// stays usable for partially-built trees.
type Overlay struct {
	// Path is the optimal root-to-leaf node sequence. Nodes on it are
	// drawn bold green; edges between consecutive entries likewise.
	Path []int
	// Pruned lists the cut-off edges, drawn dashed red.
	Pruned []tree.EdgeKey
}

func (o Overlay) onPath(id int) bool {
	for _, p := range o.Path {
		if p == id {
			return true
		}
	}
	return false
}

func (o Overlay) pathEdge(e tree.EdgeKey) bool {
	for i := 0; i+1 < len(o.Path); i++ {
		if o.Path[i] == e.From && o.Path[i+1] == e.To {
			return true
		}
	}
	return false
}

func (o Overlay) prunedEdge(e tree.EdgeKey) bool {
	for _, p := range o.Pruned {
		if p == e {
			return true
		}
	}
	return false
}

// ToDOT converts a game tree to Graphviz DOT format. MAX nodes are drawn
// as boxes, MIN nodes as inverted houses, and structural leaves as
// circles labelled with their value. The resulting DOT string can be
// rendered with [RenderSVG] or [RenderPNG].
func ToDOT(t *tree.Tree, o Overlay) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=16, margin=\"0.15,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range t.Nodes() {
		attrs := nodeAttrs(t, n, o)
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		attrs := edgeAttrs(e, o)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -> %d;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(t *tree.Tree, n tree.Node, o Overlay) []string {
	var attrs []string

	// Leaf determination is structural; the declared type only shapes
	// interior nodes.
	if len(t.Children(n.ID)) == 0 {
		attrs = append(attrs,
			fmt.Sprintf("label=%q", formatValue(n.Value)),
			"shape=circle")
	} else if n.Type == tree.Min {
		attrs = append(attrs, fmt.Sprintf("label=\"MIN %d\"", n.ID), "shape=invhouse")
	} else {
		attrs = append(attrs, fmt.Sprintf("label=\"MAX %d\"", n.ID), "shape=box")
	}

	if o.onPath(n.ID) {
		attrs = append(attrs, fmt.Sprintf("color=%s", colorPath), "penwidth=2.5")
	}
	return attrs
}

func edgeAttrs(e tree.EdgeKey, o Overlay) []string {
	switch {
	case o.prunedEdge(e):
		return []string{fmt.Sprintf("color=%s", colorPruned), "style=dashed"}
	case o.pathEdge(e):
		return []string{fmt.Sprintf("color=%s", colorPath), "penwidth=2.5"}
	default:
		return nil
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(dot string, format graphviz.Format, buf *bytes.Buffer) error {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element so the diagram scales to
// its container instead of using Graphviz's point-based size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
