package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/tree"
	"github.com/gametree-tools/gametree/pkg/treeio"
)

// traceCommand creates the trace command for interactive trace stepping.
func (c *CLI) traceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trace [tree.json]",
		Short: "Step through the alpha-beta visit history interactively",
		Long: `Step through the alpha-beta visit history interactively.

The tree is evaluated once; the TUI then lets you walk the visit trace
record by record, showing the alpha-beta window and mode at each visit,
the optimal path, and the pruned edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTrace(args[0])
		},
	}
}

func (c *CLI) runTrace(input string) error {
	t, err := treeio.ImportJSON(input)
	if err != nil {
		return err
	}
	res, err := search.Evaluate(t)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", input, err)
	}

	model := newTraceModel(t, res)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("trace ui: %w", err)
	}
	return nil
}

// List styles
var (
	traceSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	traceDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// traceModel is the bubbletea model stepping through visit records.
type traceModel struct {
	tree   *tree.Tree
	result *search.Result
	cursor int
	height int
	offset int
}

func newTraceModel(t *tree.Tree, res *search.Result) traceModel {
	return traceModel{tree: t, result: res, height: 15}
}

func (m traceModel) Init() tea.Cmd {
	return nil
}

func (m traceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.result.Trace)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "home", "g":
			m.cursor, m.offset = 0, 0
		case "end", "G":
			m.cursor = len(m.result.Trace) - 1
			if m.cursor >= m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 10
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m traceModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Alpha-Beta Trace"))
	b.WriteString("\n")
	b.WriteString(traceDimStyle.Render("↑/↓ step  g/G first/last  q quit"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("value %s   path %s\n",
		StyleValue.Render(fmt.Sprintf("%g", m.result.Value)),
		StyleSuccess.Render(formatPath(m.result.Path))))
	if len(m.result.Pruned) > 0 {
		parts := make([]string, len(m.result.Pruned))
		for i, e := range m.result.Pruned {
			parts[i] = fmt.Sprintf("%d%s%d", e.From, iconArrow, e.To)
		}
		b.WriteString(fmt.Sprintf("pruned %s\n", StylePruned.Render(strings.Join(parts, ", "))))
	}
	b.WriteString("\n")

	end := m.offset + m.height
	if end > len(m.result.Trace) {
		end = len(m.result.Trace)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		v := m.result.Trace[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mode := "MAX"
		if !v.Maximizing {
			mode = "MIN"
		}
		label := nodeLabel(m.tree, v.NodeID)

		rows = append(rows, []string{
			cursor,
			fmt.Sprintf("%d", i),
			label,
			fmt.Sprintf("%d", v.Depth),
			mode,
			formatBound(v.Alpha),
			formatBound(v.Beta),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Node", "Depth", "Mode", "α", "β").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return traceSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n\n")
	b.WriteString(traceDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.result.Trace))))

	return b.String()
}

// nodeLabel describes a node for display: its id plus the leaf value or
// declared type.
func nodeLabel(t *tree.Tree, id int) string {
	n, ok := t.Node(id)
	if !ok {
		return fmt.Sprintf("%d", id)
	}
	if len(t.Children(id)) == 0 {
		return fmt.Sprintf("%d (=%g)", id, n.Value)
	}
	return fmt.Sprintf("%d (%s)", id, strings.ToUpper(n.Type.String()))
}
