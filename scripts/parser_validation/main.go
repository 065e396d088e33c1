// Validate trace parser performance - measures throughput and allocation
// behavior of the micro-op trace parser.
package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sarchlab/o3sim/trace"
)

// traceBlock covers every mnemonic and operand form the parser accepts.
const traceBlock = `# parser validation block
0x1000 addi x1, x0, 10
0x1004 add  x3, x1, x2
0x1008 sub  x4, x1, x2
0x100c mul  x5, x1, x2
0x1010 div  x6, x1, x2
0x1014 and  x7, x1, x2
0x1018 or   x8, x1, x2
0x101c xor  x9, x1, x2
0x1020 sll  x10, x1, x2
0x1024 srl  x11, x1, x2
0x1028 ld   x12, 8(x1)
0x102c ld!  x13, 16(x1)
0x1030 st   x12, 24(x1)
0x1034 b    x1, x2, 0x1000 taken
0x1038 b    0x2000 ntaken
`

func main() {
	// Build a trace large enough that per-parse setup cost disappears.
	text := strings.Repeat(traceBlock, 64)
	opsPerParse := 0

	// Warm up
	for i := 0; i < 100; i++ {
		ops, err := trace.Parse(strings.NewReader(text))
		if err != nil {
			fmt.Printf("❌ Parse failed: %v\n", err)
			return
		}
		opsPerParse = len(ops)
	}

	// Measure allocations across the timed parses
	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 2000

	for i := 0; i < iterations; i++ {
		if _, err := trace.Parse(strings.NewReader(text)); err != nil {
			fmt.Printf("❌ Parse failed: %v\n", err)
			return
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalOps := iterations * opsPerParse
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Trace Parser Validation Results:\n")
	fmt.Printf("================================\n")
	fmt.Printf("Total micro-ops parsed: %d\n", totalOps)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Micro-ops per second: %.0f\n", float64(totalOps)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per op: %.3f\n", float64(allocations)/float64(totalOps))
	fmt.Printf("Bytes per op: %.1f\n", float64(allocatedBytes)/float64(totalOps))

	perOp := float64(allocations) / float64(totalOps)
	switch {
	case perOp <= 6:
		fmt.Printf("\n✅ GOOD: Low allocation rate (<= 6 per op)\n")
	case perOp <= 12:
		fmt.Printf("\n✅ OK: Moderate allocation rate (<= 12 per op)\n")
	default:
		fmt.Printf("\n⚠️  WARNING: High allocation rate detected\n")
	}
}
