package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gametree-tools/gametree/pkg/cache"
	"github.com/gametree-tools/gametree/pkg/render/nodelink"
	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/tree"
	"github.com/gametree-tools/gametree/pkg/treeio"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: "svg", "png", "dot"
	evaluate bool     // run the engine and overlay path/pruned highlighting
	noCache  bool     // disable the artifact cache
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"svg": true, "png": true, "dot": true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', or 'dot')", f)
		}
	}
	return nil
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{evaluate: true}

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Render a game tree to SVG, PNG, or DOT",
		Long: `Render a game tree as a node-link diagram.

By default the tree is evaluated first and the diagram highlights the
optimal path (green, bold) and the pruned edges (red, dashed). Pass
--evaluate=false for a neutral diagram of the bare tree.

Rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.evaluate, "evaluate", opts.evaluate, "overlay the evaluation result")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	t, err := treeio.ImportJSON(input)
	if err != nil {
		return err
	}
	logger.Debugf("loaded %s: %d nodes, %d edges", input, t.NodeCount(), t.EdgeCount())

	var overlay nodelink.Overlay
	if opts.evaluate {
		res, err := search.Evaluate(t)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", input, err)
		}
		overlay = nodelink.Overlay{Path: res.Path, Pruned: res.Pruned}
		logger.Debugf("value %g, %d pruned edges", res.Value, len(res.Pruned))
	}

	artifacts := newCache(opts.noCache)
	defer artifacts.Close()

	treeHash, err := hashTree(t)
	if err != nil {
		return err
	}
	dot := nodelink.ToDOT(t, overlay)

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	type artifact struct {
		path   string
		cached bool
	}
	var written []artifact
	for _, format := range opts.formats {
		data, cached, err := renderFormat(ctx, artifacts, treeHash, dot, format, opts.evaluate)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return err
		}
		path := outputPath(opts.output, input, format, len(opts.formats) > 1)
		if err := os.WriteFile(path, data, 0644); err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, artifact{path: path, cached: cached})
	}
	spinner.Stop()

	printSuccess("Rendered %d nodes, %d edges", t.NodeCount(), t.EdgeCount())
	for _, a := range written {
		if a.cached {
			printFile(a.path + StyleDim.Render(" (cached)"))
		} else {
			printFile(a.path)
		}
	}
	return nil
}

// renderFormat produces one artifact, going through the cache.
func renderFormat(ctx context.Context, artifacts cache.Cache, treeHash, dot, format string, overlay bool) ([]byte, bool, error) {
	key := cache.ArtifactKey(treeHash, format, overlay)
	if data, hit, err := artifacts.Get(ctx, key); err == nil && hit {
		return data, true, nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "svg":
		data, err = nodelink.RenderSVG(dot)
	case "png":
		data, err = nodelink.RenderPNG(dot)
	case "dot":
		data = []byte(dot)
	}
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", format, err)
	}
	_ = artifacts.Set(ctx, key, data, cache.DefaultArtifactTTL)
	return data, false, nil
}

// hashTree hashes the canonical serialization of a tree for cache keys.
func hashTree(t *tree.Tree) (string, error) {
	var b strings.Builder
	if err := treeio.WriteJSON(t, &b); err != nil {
		return "", err
	}
	return cache.Hash([]byte(b.String())), nil
}

// outputPath derives the output file for a format. With multiple formats
// the format becomes the extension of a shared base path.
func outputPath(output, input, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else if ext := filepath.Ext(base); validFormats[strings.TrimPrefix(ext, ".")] {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + format
}
