package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/treeio"
)

// evaluateCommand creates the evaluate command.
func (c *CLI) evaluateCommand() *cobra.Command {
	var (
		format    string
		output    string
		maxDepth  int
		showTrace bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate [tree.json]",
		Short: "Run alpha-beta pruning over a game tree",
		Long: `Run minimax with alpha-beta pruning over a game tree.

The input is a node-link JSON file. The command prints the optimal value,
the root-to-leaf path that realizes it, and the edges cut off by pruning.
With --trace, the full visit history (node, depth, alpha, beta, mode) is
listed in visitation order.

Use --format json to emit the complete evaluation result as JSON, e.g.
for feeding a front end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
			}
			return c.runEvaluate(args[0], format, output, maxDepth, showTrace)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text (default), json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON result to file instead of stdout")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "recursion depth guard (0 = default)")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the full visit history")

	return cmd
}

func (c *CLI) runEvaluate(input, format, output string, maxDepth int, showTrace bool) error {
	t, err := treeio.ImportJSON(input)
	if err != nil {
		return err
	}
	c.Logger.Debugf("loaded %s: %d nodes, %d edges", input, t.NodeCount(), t.EdgeCount())

	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", input, err)
	}

	root, err := t.Root()
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	res, err := search.EvaluateFrom(t, root, search.Options{MaxDepth: maxDepth})
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", input, err)
	}
	p.done(fmt.Sprintf("Evaluated %d nodes, %d visits", t.NodeCount(), len(res.Trace)))

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		if err := treeio.WriteResult(res, f); err != nil {
			return err
		}
		printFile(output)
		return nil
	}

	if format == "json" {
		return treeio.WriteResult(res, os.Stdout)
	}

	printResult(res)
	if showTrace {
		printTrace(res)
	}
	return nil
}

// printResult prints the headline result: value, path, pruned edges.
func printResult(res *search.Result) {
	printKeyValue("value", fmt.Sprintf("%g", res.Value))
	printKeyValue("path", StyleSuccess.Render(formatPath(res.Path)))
	if len(res.Pruned) == 0 {
		printKeyValue("pruned", "none")
		return
	}
	parts := make([]string, len(res.Pruned))
	for i, e := range res.Pruned {
		parts[i] = fmt.Sprintf("%d%s%d", e.From, iconArrow, e.To)
	}
	printKeyValue("pruned", StylePruned.Render(strings.Join(parts, ", ")))
}

// printTrace lists every visit in order with its alpha-beta window.
func printTrace(res *search.Result) {
	fmt.Println()
	fmt.Println(StyleTitle.Render("Trace"))
	for i, v := range res.Trace {
		mode := "max"
		if !v.Maximizing {
			mode = "min"
		}
		indent := strings.Repeat("  ", v.Depth)
		printDetail("%3d  %snode %d  %s  α=%s β=%s",
			i, indent, v.NodeID, mode, formatBound(v.Alpha), formatBound(v.Beta))
	}
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " "+iconArrow+" ")
}

func formatBound(v float64) string {
	switch {
	case v > 1e308:
		return "+∞"
	case v < -1e308:
		return "-∞"
	default:
		return fmt.Sprintf("%g", v)
	}
}
