// Package tui implements the browse subcommand: an interactive terminal
// list of call-site results, so an analyst can page through hundreds of
// sites instead of scrolling a flat log.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/fatalsec/dalivm/internal/analysis"
	"github.com/fatalsec/dalivm/internal/config"
	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/mock"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	detailStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// callSiteItem adapts one analysis.CallResult to list.Item.
type callSiteItem struct {
	cs analysis.CallResult
}

func (i callSiteItem) FilterValue() string { return i.cs.Caller }
func (i callSiteItem) Title() string       { return fmt.Sprintf("%s @pc=%d", i.cs.Caller, i.cs.CallerPC) }
func (i callSiteItem) Description() string {
	return fmt.Sprintf("(%v) -> %s", i.cs.ArgsFormatted, i.cs.ReturnFormatted)
}

type model struct {
	list   list.Model
	result *analysis.Result
	err    error
}

func newModel(result *analysis.Result) model {
	items := make([]list.Item, len(result.CallSites))
	for i, cs := range result.CallSites {
		items[i] = callSiteItem{cs: cs}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s — %d call sites (run %s)", result.Target, len(result.CallSites), result.RunID)
	return model{list: l, result: result}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := 0, 4
		m.list.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	header := titleStyle.Render(m.result.Target)
	footer := detailStyle.Render("q to quit, / to filter")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), footer)
}

// Run analyzes the first method prog.AllMethods returns, as the target, and
// opens an interactive call-site browser over that run's result. No other
// target is offered; an archive with no methods opens an empty list.
func Run(prog *dex.Program, cfg *config.Config) error {
	var hooks *mock.Script
	if cfg.HooksPath != "" {
		h, err := mock.LoadScript(cfg.HooksPath)
		if err != nil {
			return err
		}
		hooks = h
	}

	methods := prog.AllMethods()
	var result analysis.Result
	if len(methods) > 0 {
		ctx := analysis.New(prog, cfg.ToMockConfig(), hooks, cfg.StepCap, cfg.ClinitStepCap)
		ctx.CallSiteCap = cfg.CallSiteCap
		r := ctx.Run(methods[0])
		result = *r
	}

	_, err := tea.NewProgram(newModel(&result)).Run()
	return err
}

// RunResult starts the browser directly over an already-computed result.
// The browse subcommand does not call it; it always goes through Run.
func RunResult(result *analysis.Result) error {
	_, err := tea.NewProgram(newModel(result)).Run()
	return err
}
