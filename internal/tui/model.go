// Package tui provides the Bubble Tea interactive roller.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/droll/internal/model"
	"github.com/verte-zerg/droll/internal/notation"
	"github.com/verte-zerg/droll/internal/random"
	"github.com/verte-zerg/droll/internal/render"
	"github.com/verte-zerg/droll/internal/roll"
	"github.com/verte-zerg/droll/internal/store"
)

const maxScrollback = 200

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea interactive roller.
type Model struct {
	src   random.Source
	store *store.Store // nil disables history

	input  textinput.Model
	blocks []string

	width  int
	height int
}

// NewModel constructs an interactive roller model. A nil store disables
// history recording.
func NewModel(src random.Source, st *store.Store) *Model {
	input := textinput.New()
	input.Placeholder = "2d6+3"
	input.Prompt = "roll> "
	input.PromptStyle = promptStyle
	input.Focus()
	return &Model{
		src:   src,
		store: st,
		input: input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - len(m.input.Prompt) - 2
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	for _, block := range m.visibleBlocks() {
		b.WriteString(block)
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render(m.footer()))
	return b.String()
}

func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}
	m.input.Reset()

	expr, err := notation.Parse(text)
	if err != nil {
		m.push(render.Error(text, err, true))
		return
	}
	result, err := roll.Evaluate(expr, m.src)
	if err != nil {
		m.push(render.Error(text, err, true))
		return
	}
	m.push(render.Outcome(expr, result, true))
	m.record(expr, result)
}

func (m *Model) push(block string) {
	m.blocks = append(m.blocks, block)
	if len(m.blocks) > maxScrollback {
		m.blocks = m.blocks[len(m.blocks)-maxScrollback:]
	}
}

// visibleBlocks trims scrollback to what fits above the input line.
func (m *Model) visibleBlocks() []string {
	if m.height == 0 {
		return m.blocks
	}
	budget := m.height - 2
	if budget < 1 {
		return nil
	}
	total := 0
	start := len(m.blocks)
	for start > 0 {
		lines := strings.Count(m.blocks[start-1], "\n") + 1
		if total+lines > budget {
			break
		}
		total += lines
		start--
	}
	return m.blocks[start:]
}

func (m *Model) footer() string {
	segments := []string{"enter roll", "ctrl+c quit"}
	segments = append(segments, fmt.Sprintf("seed %d", m.src.Seed()))
	return strings.Join(segments, "  ·  ")
}

func (m *Model) record(expr notation.Expression, result *roll.Result) {
	if m.store == nil {
		return
	}
	kept, dropped := result.KeptDropped()
	rec := model.RollRecord{
		RolledAt:    time.Now(),
		Notation:    expr.String(),
		Seed:        m.src.Seed(),
		Total:       result.Total,
		Breakdown:   render.Breakdown(result, expr),
		DiceKept:    kept,
		DiceDropped: dropped,
	}
	if _, err := m.store.InsertRoll(context.Background(), rec); err != nil {
		logErrf("failed to save roll: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
