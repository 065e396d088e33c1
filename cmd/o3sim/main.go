// Package main provides the entry point for O3Sim.
// O3Sim is a trace-driven out-of-order-completion CPU backend simulator.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/core"
	"github.com/sarchlab/o3sim/timing/latency"
	"github.com/sarchlab/o3sim/trace"
)

var (
	tracePath  = flag.String("trace", "", "Path to the micro-op trace to simulate")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	saveConfig = flag.String("save-config", "",
		"Write the default timing configuration to this file and exit")
	maxCycles = flag.Uint64("max-cycles", 0, "Stop after this many cycles (0 = no limit)")
	verbose   = flag.Bool("v", false, "Per-cycle pipeline tracing")
	dumpState = flag.Bool("state", false, "Dump the final machine state as tables")
)

func main() {
	flag.Parse()

	if *saveConfig != "" {
		if err := latency.DefaultTimingConfig().SaveConfig(*saveConfig); err != nil {
			fail("Error writing timing config: %v\n", err)
		}
		fmt.Printf("Wrote default timing configuration to %s\n", *saveConfig)
		atexit.Exit(0)
	}

	if *tracePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: o3sim -trace <program.trace> [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: core.LevelTrace,
		})))
	}

	config, err := loadTimingConfig(*configPath)
	if err != nil {
		fail("Error loading timing config: %v\n", err)
	}

	ops, err := trace.Load(*tracePath)
	if err != nil {
		fail("Error loading trace: %v\n", err)
	}
	if len(ops) == 0 {
		fail("Error: trace %s carries no micro-ops\n", *tracePath)
	}

	comp, err := runSimulation(ops, config, *maxCycles)
	if err != nil {
		fail("Error running simulation: %v\n", err)
	}

	backend := comp.Backend()
	printReport(os.Stdout, *tracePath, len(ops), backend)
	if !backend.Done() {
		fmt.Printf("\nNote: stopped at the %d-cycle cap before the trace drained.\n",
			*maxCycles)
	}
	if *dumpState {
		printState(os.Stdout, backend)
	}

	atexit.Exit(0)
}

// fail reports a fatal error and exits through atexit so registered
// cleanups still run.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	atexit.Exit(1)
}

// loadTimingConfig loads the timing configuration from path, or the
// defaults when path is empty, and validates it either way.
func loadTimingConfig(path string) (*latency.TimingConfig, error) {
	config := latency.DefaultTimingConfig()
	if path != "" {
		var err error
		config, err = latency.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// runSimulation executes the trace on a fresh event engine and backend.
func runSimulation(
	ops []*insts.MicroOp,
	config *latency.TimingConfig,
	maxCycles uint64,
) (*core.Comp, error) {
	engine := sim.NewSerialEngine()
	comp := core.NewBuilder().
		WithEngine(engine).
		WithConfig(config).
		WithProgram(ops).
		WithMaxCycles(maxCycles).
		Build("Backend")

	if err := comp.Run(); err != nil {
		return nil, err
	}
	return comp, nil
}

// printReport writes the timing report: totals, then a cycle breakdown of
// where the stalls went, then the predictor and cache summaries.
func printReport(w io.Writer, path string, opCount int, backend *core.Backend) {
	stats := backend.Stats()
	pstats := backend.Predictor().Stats()
	cstats := backend.Cache().Stats()

	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // avoid division by zero
	}
	pct := func(n uint64) float64 { return 100 * float64(n) / float64(totalCycles) }

	var rawStalls uint64
	for _, n := range stats.RAWStalls {
		rawStalls += n
	}
	var structuralStalls uint64
	for _, n := range stats.StructuralStalls {
		structuralStalls += n
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Program: %s\n", path)
	fmt.Fprintf(w, "Micro-ops: %d\n", opCount)
	fmt.Fprintf(w, "Committed: %d\n", stats.Committed)
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Breakdown:\n")
	fmt.Fprintf(w, "  RAW stalls:          %4d cycles (%5.1f%%)\n",
		rawStalls, pct(rawStalls))
	fmt.Fprintf(w, "  WAW stalls:          %4d cycles (%5.1f%%)\n",
		stats.WAWStalls, pct(stats.WAWStalls))
	fmt.Fprintf(w, "  Structural stalls:   %4d cycles (%5.1f%%)\n",
		structuralStalls, pct(structuralStalls))
	fmt.Fprintf(w, "  Full-window stalls:  %4d cycles (%5.1f%%)\n",
		stats.DispatchStallFull, pct(stats.DispatchStallFull))
	fmt.Fprintf(w, "  Redirect cycles:     %4d cycles (%5.1f%%)\n",
		stats.RedirectCycles, pct(stats.RedirectCycles))
	fmt.Fprintf(w, "  Trap cycles:         %4d cycles (%5.1f%%)\n",
		stats.TrapCycles, pct(stats.TrapCycles))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Window Events:\n")
	fmt.Fprintf(w, "  Dispatched: %d\n", stats.Dispatched)
	fmt.Fprintf(w, "  Issued:     %d\n", stats.Issued)
	fmt.Fprintf(w, "  Writebacks: %d\n", stats.Writebacks)
	fmt.Fprintf(w, "  Rollbacks:  %d\n", stats.Rollbacks)
	fmt.Fprintf(w, "  Traps:      %d\n", stats.Traps)

	if pstats.Predictions > 0 {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Branch Predictor:\n")
		fmt.Fprintf(w, "  Accuracy:     %.1f%% (%d/%d)\n",
			pstats.Accuracy(), pstats.Correct, pstats.Predictions)
		fmt.Fprintf(w, "  BTB Hit Rate: %.1f%%\n", pstats.BTBHitRate())
	}
	if cstats.Accesses() > 0 {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "D-Cache:\n")
		fmt.Fprintf(w, "  Hits:     %d\n", cstats.Hits)
		fmt.Fprintf(w, "  Misses:   %d\n", cstats.Misses)
		fmt.Fprintf(w, "  Hit Rate: %.1f%%\n", cstats.HitRate()*100)
	}
}

// printState renders the final scoreboard window and register file. After a
// clean run the window is empty; under a cycle cap it shows whatever was
// still in flight.
func printState(w io.Writer, backend *core.Backend) {
	sb := backend.Scoreboard()
	commit, issue, top := sb.Cursors()

	sbTable := table.NewWriter()
	sbTable.SetTitle(fmt.Sprintf("Scoreboard (commit=%d issue=%d top=%d, %d/%d live)",
		commit, issue, top, sb.Len(), sb.Capacity()))
	sbTable.AppendHeader(table.Row{"TID", "Op", "Dest", "Unit", "Result", "Exc", "Valid"})
	for _, e := range sb.Live() {
		result := "-"
		if e.Valid {
			result = fmt.Sprintf("%d", e.Result)
		}
		sbTable.AppendRow(table.Row{e.TID, e.Op, e.Dest, e.Unit, result, e.Exc, e.Valid})
	}
	fmt.Fprintln(w, sbTable.Render())

	rf := backend.RegFile()
	regTable := table.NewWriter()
	regTable.SetTitle("Register File")
	regTable.AppendHeader(table.Row{"", "+0", "+1", "+2", "+3", "+4", "+5", "+6", "+7"})
	for row := 0; row < insts.NumRegs/8; row++ {
		tr := table.Row{insts.Reg(row * 8).String()}
		for col := 0; col < 8; col++ {
			tr = append(tr, rf.Read(insts.Reg(row*8+col)))
		}
		regTable.AppendRow(tr)
	}
	fmt.Fprintln(w, regTable.Render())
}
