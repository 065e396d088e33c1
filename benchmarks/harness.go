package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/o3sim/timing/core"
	"github.com/sarchlab/o3sim/timing/latency"
)

// Result holds the outcome of a single benchmark run.
type Result struct {
	// Name identifies the benchmark.
	Name string `json:"name"`

	// Description explains what the benchmark measures.
	Description string `json:"description"`

	// Cycles is the simulated cycle count.
	Cycles uint64 `json:"cycles"`

	// Committed is the number of architecturally retired ops.
	Committed uint64 `json:"committed"`

	// Dispatched counts window allocations, re-dispatches included.
	Dispatched uint64 `json:"dispatched"`

	// CPI is cycles per committed instruction.
	CPI float64 `json:"cpi"`

	// IPC is committed instructions per cycle.
	IPC float64 `json:"ipc"`

	// IssueStalls is the total issue-side stall cycle count.
	IssueStalls uint64 `json:"issue_stalls"`

	// DispatchStallFull counts cycles dispatch waited on a full window.
	DispatchStallFull uint64 `json:"dispatch_stall_full"`

	// RedirectCycles counts dead cycles after mispredicted branches.
	RedirectCycles uint64 `json:"redirect_cycles"`

	// TrapCycles counts dead cycles after trap flushes.
	TrapCycles uint64 `json:"trap_cycles"`

	// Rollbacks counts misprediction recoveries.
	Rollbacks uint64 `json:"rollbacks"`

	// Traps counts exception flushes.
	Traps uint64 `json:"traps"`

	// Branch predictor rates, as percentages.
	BranchAccuracy float64 `json:"branch_accuracy_percent,omitempty"`
	BTBHitRate     float64 `json:"btb_hit_rate_percent,omitempty"`

	// Data cache counters.
	CacheHits   uint64  `json:"dcache_hits,omitempty"`
	CacheMisses uint64  `json:"dcache_misses,omitempty"`
	CacheHitPct float64 `json:"dcache_hit_rate_percent,omitempty"`

	// Validated reports whether the final register state matched.
	Validated bool `json:"validated"`

	// Mismatches lists the registers that ended with the wrong value.
	Mismatches []string `json:"mismatches,omitempty"`

	// WallTime is the host time the simulation took.
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Timing overrides the default timing configuration.
	Timing *latency.TimingConfig

	// Output is where reports are written (default os.Stdout).
	Output io.Writer

	// Verbose enables the per-benchmark detail report.
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Timing: latency.DefaultTimingConfig(),
		Output: os.Stdout,
	}
}

// Harness runs benchmarks on the timing backend and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{config: config}
}

// AddBenchmark adds one benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every registered benchmark and returns the results.
func (h *Harness) RunAll() []Result {
	results := make([]Result, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}
	return results
}

// runBenchmark executes one benchmark on a fresh engine and backend.
func (h *Harness) runBenchmark(bench Benchmark) Result {
	engine := sim.NewSerialEngine()
	comp := core.NewBuilder().
		WithEngine(engine).
		WithConfig(h.config.Timing.Clone()).
		WithProgram(bench.Program).
		Build("Backend")

	start := time.Now()
	err := comp.Run()
	wallTime := time.Since(start)

	backend := comp.Backend()
	stats := backend.Stats()
	pstats := backend.Predictor().Stats()
	cstats := backend.Cache().Stats()

	result := Result{
		Name:              bench.Name,
		Description:       bench.Description,
		Cycles:            stats.Cycles,
		Committed:         stats.Committed,
		Dispatched:        stats.Dispatched,
		CPI:               stats.CPI(),
		IPC:               stats.IPC(),
		IssueStalls:       stats.IssueStalls(),
		DispatchStallFull: stats.DispatchStallFull,
		RedirectCycles:    stats.RedirectCycles,
		TrapCycles:        stats.TrapCycles,
		Rollbacks:         stats.Rollbacks,
		Traps:             stats.Traps,
		BranchAccuracy:    pstats.Accuracy(),
		BTBHitRate:        pstats.BTBHitRate(),
		CacheHits:         cstats.Hits,
		CacheMisses:       cstats.Misses,
		CacheHitPct:       cstats.HitRate() * 100,
		WallTime:          wallTime,
	}

	result.Validated = err == nil
	if err != nil {
		result.Mismatches = append(result.Mismatches, fmt.Sprintf("engine: %v", err))
	}
	for reg, want := range bench.ExpectedRegs {
		if got := backend.RegFile().Read(reg); got != want {
			result.Validated = false
			result.Mismatches = append(result.Mismatches,
				fmt.Sprintf("%v = %d, want %d", reg, got, want))
		}
	}

	return result
}

// PrintResults renders the result summary table, plus per-benchmark detail
// when the harness is verbose.
func (h *Harness) PrintResults(results []Result) {
	t := table.NewWriter()
	t.SetTitle("O3Sim Benchmark Results")
	t.AppendHeader(table.Row{
		"Benchmark", "Cycles", "Committed", "CPI", "IPC",
		"Stalls", "Rollbacks", "Traps", "BP Acc", "D$ Hit", "Valid",
	})
	for _, r := range results {
		valid := "ok"
		if !r.Validated {
			valid = "FAIL"
		}
		t.AppendRow(table.Row{
			r.Name,
			r.Cycles,
			r.Committed,
			fmt.Sprintf("%.3f", r.CPI),
			fmt.Sprintf("%.3f", r.IPC),
			r.IssueStalls + r.DispatchStallFull,
			r.Rollbacks,
			r.Traps,
			fmt.Sprintf("%.1f%%", r.BranchAccuracy),
			fmt.Sprintf("%.1f%%", r.CacheHitPct),
			valid,
		})
	}
	fmt.Fprintln(h.config.Output, t.Render())

	if !h.config.Verbose {
		return
	}
	for _, r := range results {
		h.printDetail(r)
	}
}

// printDetail writes the long-form report for one result.
func (h *Harness) printDetail(r Result) {
	w := h.config.Output
	fmt.Fprintf(w, "\nBenchmark: %s\n", r.Name)
	fmt.Fprintf(w, "  Description: %s\n", r.Description)
	fmt.Fprintf(w, "  --- Timing ---\n")
	fmt.Fprintf(w, "  Cycles:             %d\n", r.Cycles)
	fmt.Fprintf(w, "  Committed:          %d\n", r.Committed)
	fmt.Fprintf(w, "  Dispatched:         %d\n", r.Dispatched)
	fmt.Fprintf(w, "  CPI:                %.3f\n", r.CPI)
	fmt.Fprintf(w, "  Issue Stalls:       %d\n", r.IssueStalls)
	fmt.Fprintf(w, "  Full-Window Stalls: %d\n", r.DispatchStallFull)
	fmt.Fprintf(w, "  Redirect Cycles:    %d\n", r.RedirectCycles)
	fmt.Fprintf(w, "  Trap Cycles:        %d\n", r.TrapCycles)
	fmt.Fprintf(w, "  Rollbacks:          %d\n", r.Rollbacks)
	fmt.Fprintf(w, "  Traps:              %d\n", r.Traps)
	fmt.Fprintf(w, "  --- Branch Predictor ---\n")
	fmt.Fprintf(w, "  Accuracy:           %.1f%%\n", r.BranchAccuracy)
	fmt.Fprintf(w, "  BTB Hit Rate:       %.1f%%\n", r.BTBHitRate)
	fmt.Fprintf(w, "  --- D-Cache ---\n")
	fmt.Fprintf(w, "  Hits:               %d\n", r.CacheHits)
	fmt.Fprintf(w, "  Misses:             %d\n", r.CacheMisses)
	fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
	if len(r.Mismatches) > 0 {
		fmt.Fprintf(w, "  --- Validation FAILED ---\n")
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
}

// PrintCSV writes the results as CSV for offline comparison.
func (h *Harness) PrintCSV(results []Result) {
	fmt.Fprintln(h.config.Output,
		"name,cycles,committed,dispatched,cpi,ipc,issue_stalls,full_stalls,"+
			"redirect_cycles,trap_cycles,rollbacks,traps,bp_accuracy,dcache_hits,dcache_misses,validated")
	for _, r := range results {
		fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%.3f,%d,%d,%d,%d,%d,%d,%.1f,%d,%d,%t\n",
			r.Name,
			r.Cycles,
			r.Committed,
			r.Dispatched,
			r.CPI,
			r.IPC,
			r.IssueStalls,
			r.DispatchStallFull,
			r.RedirectCycles,
			r.TrapCycles,
			r.Rollbacks,
			r.Traps,
			r.BranchAccuracy,
			r.CacheHits,
			r.CacheMisses,
			r.Validated,
		)
	}
}

// WriteJSON writes the results as indented JSON.
func (h *Harness) WriteJSON(results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal benchmark results: %w", err)
	}
	_, err = h.config.Output.Write(append(data, '\n'))
	return err
}
