// Package render formats roll outcomes for terminal output.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/droll/internal/model"
	"github.com/verte-zerg/droll/internal/notation"
	"github.com/verte-zerg/droll/internal/roll"
)

var (
	keptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	droppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Strikethrough(true)
	explodedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	totalStyle    = lipgloss.NewStyle().Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// ColorEnabled decides whether styled output should be produced: never when
// disabled explicitly, and never when stdout is not a terminal.
func ColorEnabled(noColor bool) bool {
	return !noColor && term.IsTerminal(int(os.Stdout.Fd()))
}

// Outcome renders one evaluated roll as a multi-line breakdown: one line
// per dice term, plus a total line when the total says more than the dice
// themselves.
func Outcome(expr notation.Expression, result *roll.Result, color bool) string {
	var lines []string
	termIdx := 0
	appendDice := func(spec *notation.DiceSpec) {
		if spec == nil || termIdx >= len(result.Terms) {
			return
		}
		term := result.Terms[termIdx]
		termIdx++
		lines = append(lines, fmt.Sprintf("%s  %s  = %d",
			styled(labelStyle, spec.String(), color),
			Dice(term, spec.Fudge(), color),
			term.Subtotal))
	}
	appendDice(expr.Base.Dice)
	for _, op := range expr.Operations {
		appendDice(op.Term.Dice)
	}

	if result.HasModifiers || len(lines) == 0 {
		lines = append(lines, styled(totalStyle, fmt.Sprintf("%s = %d", expr, result.Total), color))
	}
	return strings.Join(lines, "\n")
}

// Dice renders the dice of one term, e.g. "[3 (1) 6!]": dropped dice in
// parentheses, exploded dice suffixed with '!'. Fudge dice are shown in
// their -1/0/+1 display domain.
func Dice(term roll.DiceResult, fudge, color bool) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, die := range term.Dice {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(dieLabel(die, fudge, color))
	}
	b.WriteByte(']')
	return b.String()
}

func dieLabel(die roll.Die, fudge, color bool) string {
	var label string
	if fudge {
		label = fmt.Sprintf("%+d", roll.FudgeValue(die.Value))
	} else {
		label = strconv.Itoa(die.Value)
	}
	if die.Exploded {
		label += "!"
	}
	switch {
	case !die.Kept:
		return styled(droppedStyle, "("+label+")", color)
	case die.Exploded:
		return styled(explodedStyle, label, color)
	default:
		return styled(keptStyle, label, color)
	}
}

// Breakdown renders an uncolored single-line breakdown for persistence,
// e.g. "[3 (1) 6!] = 8; [2] = 2".
func Breakdown(result *roll.Result, expr notation.Expression) string {
	var parts []string
	termIdx := 0
	appendDice := func(spec *notation.DiceSpec) {
		if spec == nil || termIdx >= len(result.Terms) {
			return
		}
		term := result.Terms[termIdx]
		termIdx++
		parts = append(parts, fmt.Sprintf("%s = %d", Dice(term, spec.Fudge(), false), term.Subtotal))
	}
	appendDice(expr.Base.Dice)
	for _, op := range expr.Operations {
		appendDice(op.Term.Dice)
	}
	return strings.Join(parts, "; ")
}

// Error renders a roll or parse failure for one notation string.
func Error(input string, err error, color bool) string {
	return styled(errStyle, fmt.Sprintf("%s: %v", input, err), color)
}

// Seed renders the seed line shown in verbose mode.
func Seed(seed uint64, color bool) string {
	return styled(labelStyle, fmt.Sprintf("seed %d", seed), color)
}

func styled(style lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return style.Render(text)
}

// HistoryTable renders roll records as aligned rows, oldest first.
func HistoryTable(records []model.RollRecord) []string {
	headers := []string{"Rolled at", "Notation", "Total", "Dice"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.RolledAt.Format("2006-01-02 15:04:05"),
			rec.Notation,
			strconv.Itoa(rec.Total),
			rec.Breakdown,
		})
	}
	return formatTable(headers, rows, map[int]bool{2: true})
}

// AggregatesTable renders per-notation aggregates as aligned rows.
func AggregatesTable(aggs []model.RollAggregate) []string {
	headers := []string{"Notation", "Rolls", "Min", "Max", "Mean"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.Notation,
			strconv.Itoa(agg.Count),
			strconv.Itoa(agg.Min),
			strconv.Itoa(agg.Max),
			fmt.Sprintf("%.2f", agg.Mean),
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}
