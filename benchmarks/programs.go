// Package benchmarks provides micro-op workloads and a harness for
// characterizing the timing backend.
package benchmarks

import "github.com/sarchlab/o3sim/insts"

// Benchmark is one synthetic workload.
type Benchmark struct {
	// Name identifies the benchmark.
	Name string

	// Description explains what the benchmark measures.
	Description string

	// Program is the micro-op trace to execute.
	Program []*insts.MicroOp

	// ExpectedRegs are the architectural register values the run must end
	// with (validation).
	ExpectedRegs map[insts.Reg]uint64
}

// GetWorkloads returns the full benchmark set. Each workload targets one
// backend characteristic.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		arithmeticStream(),
		dependencyChain(),
		multiplyChain(),
		divideChain(),
		loadStride(),
		storeLoadPairs(),
		branchLoop(),
		alternatingBranches(),
		mixedOperations(),
		faultingLoad(),
	}
}

// GetQuickSet returns the three-workload set used for smoke validation.
func GetQuickSet() []Benchmark {
	return []Benchmark{
		dependencyChain(),
		branchLoop(),
		mixedOperations(),
	}
}

func addi(dest, src insts.Reg, imm int64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindADDI, Dest: dest, Src1: src, Imm: imm}
}

func op3(kind insts.Kind, dest, src1, src2 insts.Reg) *insts.MicroOp {
	return &insts.MicroOp{Kind: kind, Dest: dest, Src1: src1, Src2: src2}
}

func load(dest, base insts.Reg, offset int64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindLD, Dest: dest, Src1: base, Imm: offset}
}

func store(value, base insts.Reg, offset int64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindST, Src1: base, Src2: value, Imm: offset}
}

func branch(pc uint64, taken bool, target uint64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindBR, PC: pc, Taken: taken, Target: target}
}

// 1. Arithmetic Stream - independent single-cycle ops, peak throughput
func arithmeticStream() Benchmark {
	const n = 32
	program := make([]*insts.MicroOp, 0, n)
	expected := make(map[insts.Reg]uint64)
	for i := 0; i < n; i++ {
		dest := insts.Reg(1 + i%8)
		program = append(program, addi(dest, 0, int64(i+1)))
		expected[dest] = uint64(i + 1)
	}
	return Benchmark{
		Name:         "arithmetic_stream",
		Description:  "32 independent ADDIs across 8 registers - peak issue throughput",
		Program:      program,
		ExpectedRegs: expected,
	}
}

// 2. Dependency Chain - serial RAW chain, forwarding latency
func dependencyChain() Benchmark {
	const n = 32
	program := make([]*insts.MicroOp, n)
	for i := range program {
		program[i] = addi(1, 1, 1)
	}
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "32 dependent ADDIs (x1 = x1 + 1) - forwarding latency",
		Program:      program,
		ExpectedRegs: map[insts.Reg]uint64{1: n},
	}
}

// 3. Multiply Chain - serial chain through the 3-cycle unit
func multiplyChain() Benchmark {
	program := []*insts.MicroOp{
		addi(1, 0, 2),
		addi(2, 0, 3),
	}
	for i := 0; i < 8; i++ {
		program = append(program, op3(insts.KindMUL, 1, 1, 2))
	}
	return Benchmark{
		Name:        "multiply_chain",
		Description: "8 dependent multiplies - multi-cycle unit latency",
		Program:     program,
		// 2 * 3^8
		ExpectedRegs: map[insts.Reg]uint64{1: 13122, 2: 3},
	}
}

// 4. Divide Chain - serial chain through the 12-cycle unit
func divideChain() Benchmark {
	program := []*insts.MicroOp{
		addi(1, 0, 4096),
		addi(2, 0, 2),
	}
	for i := 0; i < 6; i++ {
		program = append(program, op3(insts.KindDIV, 1, 1, 2))
	}
	return Benchmark{
		Name:        "divide_chain",
		Description: "6 dependent divides - long-latency unit pressure",
		Program:     program,
		// 4096 / 2^6
		ExpectedRegs: map[insts.Reg]uint64{1: 64, 2: 2},
	}
}

// 5. Load Stride - one cold pass over 8 blocks, one warm pass
func loadStride() Benchmark {
	program := []*insts.MicroOp{addi(1, 0, 0x1000)}
	for i := 0; i < 8; i++ {
		program = append(program, load(2, 1, int64(i*64)))
	}
	for i := 0; i < 8; i++ {
		program = append(program, load(3, 1, int64(i*64)))
	}
	return Benchmark{
		Name:        "load_stride",
		Description: "8 block-strided loads, cold then warm - cache hit/miss pricing",
		Program:     program,
		// loads evaluate to their effective address
		ExpectedRegs: map[insts.Reg]uint64{1: 0x1000, 2: 0x11C0, 3: 0x11C0},
	}
}

// 6. Store/Load Pairs - write-allocate plus store-to-load forwarding
func storeLoadPairs() Benchmark {
	program := []*insts.MicroOp{
		addi(1, 0, 0x2000),
		addi(2, 0, 77),
	}
	for i := 0; i < 4; i++ {
		program = append(program,
			store(2, 1, int64(i*8)),
			load(3, 1, int64(i*8)),
		)
	}
	return Benchmark{
		Name:         "store_load_pairs",
		Description:  "4 store/load pairs to the same block - store forwarding",
		Program:      program,
		ExpectedRegs: map[insts.Reg]uint64{2: 77, 3: 0x2018},
	}
}

// 7. Branch Loop - one branch PC re-taken every iteration
func branchLoop() Benchmark {
	const iterations = 8
	program := make([]*insts.MicroOp, 0, 2*iterations)
	for i := 0; i < iterations; i++ {
		program = append(program,
			addi(1, 1, 1),
			branch(0x100, true, 0x40),
		)
	}
	return Benchmark{
		Name:         "branch_loop",
		Description:  "8-iteration counted loop - predictable branch, one cold redirect",
		Program:      program,
		ExpectedRegs: map[insts.Reg]uint64{1: iterations},
	}
}

// 8. Alternating Branches - direction flips every iteration
func alternatingBranches() Benchmark {
	const iterations = 8
	program := make([]*insts.MicroOp, 0, 2*iterations)
	for i := 0; i < iterations; i++ {
		program = append(program,
			addi(1, 1, 1),
			branch(0x180, i%2 == 0, 0x40),
		)
	}
	return Benchmark{
		Name:         "alternating_branches",
		Description:  "branch flipping direction every iteration - misprediction pressure",
		Program:      program,
		ExpectedRegs: map[insts.Reg]uint64{1: iterations},
	}
}

// 9. Mixed Operations - ALU, memory, and branch blend
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "ALU + memory + branch blend - realistic instruction mix",
		Program: []*insts.MicroOp{
			addi(1, 0, 0x3000),          // buffer base
			addi(2, 0, 10),              // x2 = 10
			op3(insts.KindMUL, 3, 2, 2), // x3 = 100
			store(3, 1, 0),              // [base] = x3
			load(4, 1, 0),               // x4 = base address
			op3(insts.KindADD, 5, 4, 2), // x5 = base + 10
			op3(insts.KindDIV, 6, 3, 2), // x6 = 10
			branch(0x200, true, 0x80),
			addi(7, 6, 1),               // x7 = 11
			op3(insts.KindSUB, 8, 5, 4), // x8 = 10
			op3(insts.KindXOR, 9, 7, 8), // x9 = 1
		},
		ExpectedRegs: map[insts.Reg]uint64{
			3: 100,
			4: 0x3000,
			5: 0x300A,
			6: 10,
			7: 11,
			8: 10,
			9: 1,
		},
	}
}

// 10. Faulting Load - exception flush and re-execution
func faultingLoad() Benchmark {
	return Benchmark{
		Name:        "faulting_load",
		Description: "memory fault at the commit head - trap flush and recovery",
		Program: []*insts.MicroOp{
			addi(1, 0, 5),
			{Kind: insts.KindLD, Dest: 2, Src1: 0, Imm: 0x40, Fault: true},
			addi(3, 0, 9),
			addi(4, 3, 1),
		},
		// the faulter is dropped; everything younger re-runs
		ExpectedRegs: map[insts.Reg]uint64{1: 5, 2: 0, 3: 9, 4: 10},
	}
}
