// Command benchmark runs the O3Sim timing workload harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv     Output results in CSV format (default: table)
//	-json    Output results as JSON
//	-quick   Run the three-workload smoke set only
//	-config  Path to timing configuration JSON file
//	-v       Per-workload detail report
//
// Example:
//
//	# Run all workloads with the result table
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Each workload targets one backend characteristic, so the results
// expose the stall mix, misprediction recoveries, and cache behavior
// under known traffic. Every run is validated against the expected
// architectural register values.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/o3sim/benchmarks"
	"github.com/sarchlab/o3sim/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	quick := flag.Bool("quick", false, "Run the quick smoke set only")
	configPath := flag.String("config", "", "Path to timing configuration JSON file")
	verbose := flag.Bool("v", false, "Per-workload detail report")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.Verbose = *verbose
	if *configPath != "" {
		timing, err := latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			atexit.Exit(1)
		}
		if err := timing.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error validating timing config: %v\n", err)
			atexit.Exit(1)
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	if *quick {
		harness.AddBenchmarks(benchmarks.GetQuickSet())
	} else {
		harness.AddBenchmarks(benchmarks.GetWorkloads())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("O3Sim Timing Workload Harness")
		fmt.Println("=============================")
		fmt.Printf("Window: %d entries, mispredict penalty: %d cycles\n",
			config.Timing.ScoreboardCapacity,
			config.Timing.BranchMispredictPenalty)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.WriteJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			atexit.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	failed := 0
	for _, r := range results {
		if !r.Validated {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d workloads failed validation\n",
			failed, len(results))
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
