package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/symbols"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// symbolsCommand creates the symbols command for browsing the catalog.
func (c *CLI) symbolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Browse the symbol catalog",
		Long: `Browse the symbols available as icon content.

The catalog is a TOML file set with [symbols] catalog in the configuration
file. Symbols are grouped by the year they were released.`,
	}

	cmd.AddCommand(c.symbolsListCommand())
	cmd.AddCommand(c.symbolsPickCommand())

	return cmd
}

// symbolsListCommand creates the "symbols list" subcommand.
func (c *CLI) symbolsListCommand() *cobra.Command {
	var year, filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog symbols grouped by release year",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.requireCatalog()
			if err != nil {
				return err
			}
			groups := filterGroups(catalog.GroupByYear(), year, filter)
			if len(groups) == 0 {
				printInfo("No matching symbols")
				return nil
			}
			fmt.Println(symbolTable(groups))
			printDetail("%d symbols", len(symbols.Names(groups)))
			return nil
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "only list symbols released in this year")
	cmd.Flags().StringVar(&filter, "filter", "", "only list symbols whose name contains this text")

	return cmd
}

// symbolsPickCommand creates the "symbols pick" subcommand.
func (c *CLI) symbolsPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick a symbol interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.requireCatalog()
			if err != nil {
				return err
			}
			m := newSymbolListModel(catalog.GroupByYear())
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithOutput(os.Stderr)).Run()
			if err != nil {
				return err
			}
			picked := final.(symbolListModel).Selected
			if picked == nil {
				return nil
			}
			fmt.Println(picked.Name)
			printNextStep("Render it", "kiticon render --symbol "+picked.Name)
			return nil
		},
	}
}

// requireCatalog loads the configured catalog and fails when none is set.
func (c *CLI) requireCatalog() (*symbols.Catalog, error) {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("no symbol catalog configured: set [symbols] catalog in %s", path)
	}
	return catalog, nil
}

// filterGroups keeps the symbols matching year and the name filter. Empty
// groups are dropped.
func filterGroups(groups []symbols.Group, year, filter string) []symbols.Group {
	var out []symbols.Group
	for _, g := range groups {
		if year != "" && g.Year != year {
			continue
		}
		var kept []symbols.Symbol
		for _, s := range g.Symbols {
			if strings.Contains(s.Name, filter) {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out = append(out, symbols.Group{Year: g.Year, Symbols: kept})
		}
	}
	return out
}

// symbolTable renders groups as one table row per symbol. The year and
// release columns are only filled on the first row of each group.
func symbolTable(groups []symbols.Group) string {
	var rows [][]string
	for _, g := range groups {
		for i, s := range g.Symbols {
			year, release := "", ""
			if i == 0 {
				year = g.Year
				if s.Release != (symbols.Release{}) {
					release = s.Release.String()
				}
			}
			rows = append(rows, []string{year, s.Name, release})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Year", "Symbol", "Released with").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return listNormalStyle
			}
			return listDimStyle
		}).
		Render()
}

// =============================================================================
// symbolListModel - Interactive symbol selection
// =============================================================================

// symbolListModel is the bubbletea model for picking a symbol. Typing
// narrows the list to names containing the query.
type symbolListModel struct {
	all      []symbols.Symbol
	Visible  []symbols.Symbol
	Query    string
	Cursor   int
	Offset   int
	Height   int
	Selected *symbols.Symbol
}

func newSymbolListModel(groups []symbols.Group) symbolListModel {
	var all []symbols.Symbol
	for _, g := range groups {
		all = append(all, g.Symbols...)
	}
	return symbolListModel{all: all, Visible: all, Height: 15}
}

func (m symbolListModel) Init() tea.Cmd {
	return nil
}

func (m symbolListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.Visible) > 0 {
				s := m.Visible[m.Cursor]
				m.Selected = &s
			}
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Query != "" {
				q := []rune(m.Query)
				m.Query = string(q[:len(q)-1])
				m.refilter()
			}
		case tea.KeyRunes:
			m.Query += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *symbolListModel) move(d int) {
	m.Cursor += d
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor > len(m.Visible)-1 {
		m.Cursor = max(len(m.Visible)-1, 0)
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *symbolListModel) refilter() {
	m.Visible = m.Visible[:0:0]
	for _, s := range m.all {
		if strings.Contains(s.Name, m.Query) {
			m.Visible = append(m.Visible, s)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m symbolListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Symbol"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render("> " + m.Query))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Visible))
	for i := m.Offset; i < end; i++ {
		s := m.Visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-40s %s", cursor, s.Name, listDimStyle.Render(s.Year))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.Visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Visible))))
	}

	return b.String()
}
