// Package nodelink renders game trees as node-link diagrams via Graphviz.
//
// The renderer takes a [tree.Tree] plus an optional [Overlay] describing
// an evaluation outcome and produces DOT, which [RenderSVG] and
// [RenderPNG] rasterize. Edge colors follow the overlay: the optimal path
// is green and bold, pruned edges are red and dashed, everything else is
// neutral - the same legend the interactive front end uses.
package nodelink
