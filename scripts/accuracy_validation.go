// Package main provides accuracy validation for the timing backend.
// Ensures that out-of-order completion preserves architectural results.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/o3sim/benchmarks"
	"github.com/sarchlab/o3sim/emu"
	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/core"
)

// referenceRegs executes a micro-op stream strictly in program order and
// returns the final register file. Faulting ops are skipped: the backend
// drops them at the trap, so they never commit a result.
func referenceRegs(ops []*insts.MicroOp) *emu.RegFile {
	rf := &emu.RegFile{}
	for _, op := range ops {
		if op.Fault {
			continue
		}
		result := emu.Evaluate(op, rf.Read(op.Src1), rf.Read(op.Src2))
		if op.Dest != 0 {
			rf.Write(op.Dest, result)
		}
	}
	return rf
}

// runBackend executes a micro-op stream on a fresh engine and backend.
func runBackend(ops []*insts.MicroOp) (*core.Backend, error) {
	engine := sim.NewSerialEngine()
	comp := core.NewBuilder().
		WithEngine(engine).
		WithProgram(ops).
		Build("Backend")

	err := comp.Run()
	return comp.Backend(), err
}

// testWorkloadResults validates that the timing backend commits the same
// architectural state as the in-order reference for every workload.
func testWorkloadResults() bool {
	fmt.Println("Testing backend results against the in-order reference...")

	passed := true
	for _, bench := range benchmarks.GetWorkloads() {
		backend, err := runBackend(bench.Program)
		if err != nil {
			fmt.Printf("❌ %s: engine error: %v\n", bench.Name, err)
			passed = false
			continue
		}

		want := referenceRegs(bench.Program)
		mismatches := 0
		for r := insts.Reg(1); r < insts.NumRegs; r++ {
			got := backend.RegFile().Read(r)
			if got != want.Read(r) {
				if mismatches == 0 {
					fmt.Printf("❌ %s: register mismatch\n", bench.Name)
				}
				fmt.Printf("  %v = %d, reference %d\n", r, got, want.Read(r))
				mismatches++
			}
		}
		if mismatches > 0 {
			passed = false
			continue
		}

		fmt.Printf("✅ %s: %d committed ops, registers match reference\n",
			bench.Name, backend.Stats().Committed)
	}

	return passed
}

// testTimingDeterminism validates that two runs of the same workload report
// identical cycle counts and stall breakdowns.
func testTimingDeterminism() bool {
	fmt.Println("\nTesting timing determinism...")

	passed := true
	for _, bench := range benchmarks.GetWorkloads() {
		b1, err1 := runBackend(bench.Program)
		b2, err2 := runBackend(bench.Program)
		if err1 != nil || err2 != nil {
			fmt.Printf("❌ %s: engine error: %v / %v\n", bench.Name, err1, err2)
			passed = false
			continue
		}

		s1, s2 := b1.Stats(), b2.Stats()
		if s1 != s2 {
			fmt.Printf("❌ %s: runs diverged\n", bench.Name)
			fmt.Printf("  run 1: %+v\n", s1)
			fmt.Printf("  run 2: %+v\n", s2)
			passed = false
			continue
		}

		fmt.Printf("✅ %s: %d cycles, identical across runs\n",
			bench.Name, s1.Cycles)
	}

	return passed
}

// testPredictorDeterminism validates that two predictors fed the same
// stream stay in lockstep, through a reset included.
func testPredictorDeterminism() bool {
	fmt.Println("\nTesting branch predictor determinism...")

	p1 := core.NewBranchPredictor(16, 8)
	p2 := core.NewBranchPredictor(16, 8)

	testPCs := []uint64{0x1000, 0x1004, 0x1008, 0x100C}
	testTarget := uint64(0x2000)

	for i, pc := range testPCs {
		pred1 := p1.Predict(pc)
		pred2 := p2.Predict(pc)

		if pred1 != pred2 {
			fmt.Printf("❌ Prediction mismatch at PC 0x%X\n", pc)
			return false
		}

		p1.Update(pc, i%2 == 0, testTarget)
		p2.Update(pc, i%2 == 0, testTarget)

		fmt.Printf("✅ PC 0x%X: prediction consistent (taken=%v)\n",
			pc, pred1.Taken)
	}

	p1.Reset()
	p2.Reset()

	for _, pc := range testPCs {
		if p1.Predict(pc) != p2.Predict(pc) {
			fmt.Printf("❌ Post-reset prediction mismatch at PC 0x%X\n", pc)
			return false
		}
	}

	fmt.Println("✅ Branch predictor reset behavior validated")
	return true
}

func main() {
	fmt.Println("O3Sim Accuracy Validation")
	fmt.Println("=========================")

	allPassed := true

	if !testWorkloadResults() {
		allPassed = false
	}
	if !testTimingDeterminism() {
		allPassed = false
	}
	if !testPredictorDeterminism() {
		allPassed = false
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("❌ Accuracy validation FAILED")
		os.Exit(1)
	}
	fmt.Println("✅ All accuracy validations passed")
}
