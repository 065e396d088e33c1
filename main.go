// Package main provides the entry point for O3Sim.
// O3Sim is a trace-driven out-of-order-completion CPU backend simulator
// built on Akita.
//
// For the full CLI, use: go run ./cmd/o3sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("O3Sim - Out-of-Order Backend Timing Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: o3sim -trace <program.trace> [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -trace     Path to the micro-op trace to simulate")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -state     Dump the final machine state as tables")
	fmt.Println("  -v         Verbose per-cycle tracing")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/o3sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/o3sim' instead.")
	}
}
