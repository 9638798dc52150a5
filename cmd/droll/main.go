// Package main provides the CLI entrypoint for droll.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/droll/internal/config"
	"github.com/verte-zerg/droll/internal/model"
	"github.com/verte-zerg/droll/internal/notation"
	"github.com/verte-zerg/droll/internal/random"
	"github.com/verte-zerg/droll/internal/render"
	"github.com/verte-zerg/droll/internal/roll"
	"github.com/verte-zerg/droll/internal/stats"
	"github.com/verte-zerg/droll/internal/store"
	"github.com/verte-zerg/droll/internal/tui"
)

const defaultTimes = 1

var (
	rollTimes     int
	rollSeed      uint64
	rollVerbose   bool
	rollNoColor   bool
	rollNoHistory bool

	historyNotation string
	historySince    string
	historyLast     int

	statsSince string
	statsLast  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "droll [notation ...]",
		Short: "Dice notation roller",
		Long: `Roll tabletop dice notation, e.g.:

  droll 2d6+3
  droll 4d6k3 4d6k3 --times 6
  droll "1d6!r1" --seed 42

Without arguments droll starts an interactive roller.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.ArbitraryArgs,
		RunE:          runRollCmd,
	}

	rootCmd.Flags().IntVar(&rollTimes, "times", defaultTimes, "evaluate each notation this many times")
	rootCmd.Flags().Uint64Var(&rollSeed, "seed", 0, "seed the random source for reproducible rolls")
	rootCmd.Flags().BoolVar(&rollVerbose, "verbose", false, "print the seed used")
	rootCmd.Flags().BoolVar(&rollNoColor, "no-color", false, "disable styled output")
	rootCmd.Flags().BoolVar(&rollNoHistory, "no-history", false, "do not record rolls in history")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runRollCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "times", &rollTimes, fileCfg.Roll.Times)
	applyBoolConfig(cmd, "verbose", &rollVerbose, fileCfg.Roll.Verbose)
	applyBoolConfig(cmd, "no-color", &rollNoColor, fileCfg.Roll.NoColor)

	historyEnabled := !rollNoHistory
	if fileCfg.History.Enabled != nil && !cmd.Flags().Changed("no-history") {
		historyEnabled = *fileCfg.History.Enabled
	}

	cfg := model.Config{
		Times:     rollTimes,
		Seed:      rollSeed,
		HasSeed:   cmd.Flags().Changed("seed"),
		Verbose:   rollVerbose,
		NoColor:   rollNoColor,
		NoHistory: !historyEnabled,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	var st *store.Store
	if historyEnabled {
		st, err = store.Open(resolveDBPath(fileCfg))
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	if len(args) == 0 {
		program := tea.NewProgram(tui.NewModel(src, st), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	}

	return rollNotations(cmd, args, cfg, src, st)
}

// rollNotations parses and evaluates each argument independently, so one
// bad notation does not block the others.
func rollNotations(cmd *cobra.Command, args []string, cfg model.Config, src random.Source, st *store.Store) error {
	out := cmd.OutOrStdout()
	color := render.ColorEnabled(cfg.NoColor)
	if cfg.Verbose {
		if _, err := fmt.Fprintln(out, render.Seed(src.Seed(), color)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	failed := 0
	for _, input := range args {
		expr, err := notation.Parse(input)
		if err != nil {
			logErrln(render.Error(input, err, false))
			failed++
			continue
		}
		for i := 0; i < cfg.Times; i++ {
			result, err := roll.Evaluate(expr, src)
			if err != nil {
				logErrln(render.Error(input, err, false))
				failed++
				break
			}
			if _, err := fmt.Fprintln(out, render.Outcome(expr, result, color)); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			recordRoll(st, expr, result, src.Seed())
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d notations failed", failed, len(args))
	}
	return nil
}

func newSource(cfg model.Config) (random.Source, error) {
	if cfg.HasSeed {
		return random.NewSeeded(cfg.Seed), nil
	}
	src, err := random.New()
	if err != nil {
		return nil, fmt.Errorf("failed to seed random source: %w", err)
	}
	return src, nil
}

func recordRoll(st *store.Store, expr notation.Expression, result *roll.Result, seed uint64) {
	if st == nil {
		return
	}
	kept, dropped := result.KeptDropped()
	rec := model.RollRecord{
		RolledAt:    time.Now(),
		Notation:    expr.String(),
		Seed:        seed,
		Total:       result.Total,
		Breakdown:   render.Breakdown(result, expr),
		DiceKept:    kept,
		DiceDropped: dropped,
	}
	if _, err := st.InsertRoll(context.Background(), rec); err != nil {
		logErrf("failed to save roll: %v\n", err)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rolls",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyNotation, "notation", "", "filter by notation")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 20, "limit to last N rolls (0 = all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig(historyNotation, historySince, historyLast)
	if err != nil {
		return err
	}

	st, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.ListRolls(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to list rolls: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no rolls recorded yet")
	}
	for _, line := range render.HistoryTable(records) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [notation]",
		Short: "Show roll statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rolls (0 = all)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := historyConfig("", statsSince, statsLast)
	if err != nil {
		return err
	}

	st, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		aggs, err := st.Aggregates(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to aggregate rolls: %w", err)
		}
		if len(aggs) == 0 {
			return fmt.Errorf("no rolls recorded yet")
		}
		for _, line := range render.AggregatesTable(aggs) {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	input := args[0]
	expr, err := notation.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid notation %q: %w", input, err)
	}
	totals, err := st.TotalsForNotation(context.Background(), expr.String(), statsLast)
	if err != nil {
		return fmt.Errorf("failed to load totals: %w", err)
	}
	if len(totals) == 0 {
		return fmt.Errorf("no rolls recorded for %s", expr)
	}

	count, minTotal, maxTotal, mean := stats.Summary(totals)
	if _, err := fmt.Fprintf(out, "%s: %d rolls, min %d, max %d, mean %.2f\n\n", expr, count, minTotal, maxTotal, mean); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, line := range stats.Histogram(totals, stats.TerminalWidth()) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func historyConfig(notationFilter, since string, last int) (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{Notation: notationFilter, Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

func openHistoryStore() (*store.Store, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(resolveDBPath(fileCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func resolveDBPath(fileCfg config.FileConfig) string {
	if fileCfg.History.Path != nil && *fileCfg.History.Path != "" {
		return *fileCfg.History.Path
	}
	return config.DefaultDBPath()
}

func validateConfig(cfg model.Config) error {
	if cfg.Times <= 0 {
		return fmt.Errorf("--times must be > 0")
	}
	return nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# droll configuration
# Uncomment a value to enable it. CLI flags override config values.

[roll]
# times = %d      # Evaluate each notation this many times
# verbose = false # Print the seed used
# no-color = false

[history]
# enabled = true
# path = ""       # Override the default SQLite path
`, defaultTimes)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
