// Package stats computes aggregates over roll history.
package stats

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	histogramRows       = 16
	minBarWidth         = 10
	terminalWidthBackup = 80
)

// TerminalWidth returns the current terminal width or a default fallback.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// Summary computes count, min, max, and mean over roll totals.
func Summary(totals []int) (count, minTotal, maxTotal int, mean float64) {
	if len(totals) == 0 {
		return 0, 0, 0, 0
	}
	minTotal = totals[0]
	maxTotal = totals[0]
	sum := 0
	for _, total := range totals {
		if total < minTotal {
			minTotal = total
		}
		if total > maxTotal {
			maxTotal = total
		}
		sum += total
	}
	return len(totals), minTotal, maxTotal, float64(sum) / float64(len(totals))
}

// Histogram renders a horizontal bar chart of roll totals, one line per
// bucket, sized to the given total width. Adjacent totals are grouped into
// buckets when the value range exceeds the row budget.
func Histogram(totals []int, width int) []string {
	if len(totals) == 0 {
		return nil
	}
	_, minTotal, maxTotal, _ := Summary(totals)
	span := maxTotal - minTotal + 1
	bucketSize := (span + histogramRows - 1) / histogramRows
	bucketCount := (span + bucketSize - 1) / bucketSize

	counts := make([]int, bucketCount)
	for _, total := range totals {
		counts[(total-minTotal)/bucketSize]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	labels := make([]string, bucketCount)
	labelWidth := 0
	for i := range counts {
		lo := minTotal + i*bucketSize
		hi := lo + bucketSize - 1
		if hi > maxTotal {
			hi = maxTotal
		}
		if bucketSize == 1 {
			labels[i] = fmt.Sprintf("%d", lo)
		} else {
			labels[i] = fmt.Sprintf("%d-%d", lo, hi)
		}
		if len(labels[i]) > labelWidth {
			labelWidth = len(labels[i])
		}
	}

	barWidth := width - labelWidth - len(fmt.Sprintf("%d", maxCount)) - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	lines := make([]string, 0, bucketCount)
	for i, c := range counts {
		bar := 0
		if maxCount > 0 {
			bar = c * barWidth / maxCount
		}
		if c > 0 && bar == 0 {
			bar = 1
		}
		lines = append(lines, fmt.Sprintf("%*s  %s %d", labelWidth, labels[i], strings.Repeat("#", bar), c))
	}
	return lines
}
