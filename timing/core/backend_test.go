package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/core"
	"github.com/sarchlab/o3sim/timing/latency"
)

func addi(dest, src insts.Reg, imm int64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindADDI, Dest: dest, Src1: src, Imm: imm}
}

func alu(kind insts.Kind, dest, src1, src2 insts.Reg) *insts.MicroOp {
	return &insts.MicroOp{Kind: kind, Dest: dest, Src1: src1, Src2: src2}
}

func mul(dest, src1, src2 insts.Reg) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindMUL, Dest: dest, Src1: src1, Src2: src2}
}

func div(dest, src1, src2 insts.Reg) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindDIV, Dest: dest, Src1: src1, Src2: src2}
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

func branchOn(pc uint64, cond insts.Reg, taken bool, target uint64) *insts.MicroOp {
	return &insts.MicroOp{Kind: insts.KindBR, PC: pc, Src1: cond, Taken: taken, Target: target}
}

func faultLoad(dest, base insts.Reg, offset int64) *insts.MicroOp {
	return &insts.MicroOp{
		Kind: insts.KindLD, Dest: dest, Src1: base, Imm: offset, Fault: true,
	}
}

func runToCompletion(b *core.Backend) {
	GinkgoHelper()
	for i := 0; i < 1_000_000; i++ {
		if !b.Tick() {
			return
		}
	}
	Fail("backend did not drain")
}

var _ = Describe("Backend", func() {
	Describe("construction", func() {
		It("should be done immediately on an empty trace", func() {
			b := core.NewBackend(nil, nil)

			Expect(b.Done()).To(BeTrue())
			Expect(b.Tick()).To(BeFalse())
			Expect(b.Stats().Cycles).To(BeZero())
		})

		It("should fall back to the default configuration", func() {
			b := core.NewBackend(nil, nil)
			Expect(b.Config().ALULatency).To(Equal(uint64(1)))
		})
	})

	Describe("single-op timing", func() {
		It("should run one ALU op in three cycles: issue, write back, commit", func() {
			b := core.NewBackend([]*insts.MicroOp{addi(1, 0, 5)}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(3)))
			Expect(stats.Committed).To(Equal(uint64(1)))
			Expect(b.RegFile().Read(1)).To(Equal(uint64(5)))
		})

		It("should hold a multiply for its full latency", func() {
			b := core.NewBackend([]*insts.MicroOp{mul(1, 0, 0)}, nil)

			runToCompletion(b)

			// latency 3, plus the write-back and commit cycles
			Expect(b.Stats().Cycles).To(Equal(uint64(5)))
		})

		It("should not count cycles after the trace drains", func() {
			b := core.NewBackend([]*insts.MicroOp{addi(1, 0, 5)}, nil)

			runToCompletion(b)
			Expect(b.Tick()).To(BeFalse())
			Expect(b.Tick()).To(BeFalse())

			Expect(b.Stats().Cycles).To(Equal(uint64(3)))
		})
	})

	Describe("dependency chains", func() {
		It("should sustain one op per cycle through forwarding", func() {
			const n = 20
			program := make([]*insts.MicroOp, n)
			for i := range program {
				program[i] = addi(1, 1, 1)
			}
			b := core.NewBackend(program, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(n + 2)))
			Expect(stats.Committed).To(Equal(uint64(n)))
			Expect(b.RegFile().Read(1)).To(Equal(uint64(n)))
		})

		It("should pace a multiply chain at the multiply latency", func() {
			const n = 6
			program := make([]*insts.MicroOp, n)
			for i := range program {
				program[i] = mul(1, 1, 1)
			}
			b := core.NewBackend(program, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(3*n + 2)))
			Expect(stats.StructuralStalls[insts.UnitMUL]).To(Equal(uint64(2 * (n - 1))))
		})

		It("should complete out of order but commit in order", func() {
			b := core.NewBackend([]*insts.MicroOp{
				div(1, 0, 0),
				addi(2, 0, 9),
			}, nil)

			// The addi finishes on cycle 3, long before the divide, but
			// must not become architectural while the divide holds the
			// commit head.
			for i := 0; i < 5; i++ {
				Expect(b.Tick()).To(BeTrue())
			}
			Expect(b.RegFile().Read(2)).To(BeZero())
			Expect(b.Scoreboard().Len()).To(Equal(2))

			runToCompletion(b)

			Expect(b.Stats().Cycles).To(Equal(uint64(15)))
			Expect(b.RegFile().Read(1)).To(Equal(^uint64(0))) // divide by zero
			Expect(b.RegFile().Read(2)).To(Equal(uint64(9)))
		})
	})

	Describe("hazard stalls", func() {
		It("should stall issue on a read-after-write hazard", func() {
			b := core.NewBackend([]*insts.MicroOp{
				mul(1, 1, 1),
				alu(insts.KindADD, 2, 1, 1),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(6)))
			Expect(stats.RAWStalls[insts.UnitMUL]).To(Equal(uint64(2)))
		})

		It("should stall issue on a write-after-write hazard", func() {
			b := core.NewBackend([]*insts.MicroOp{
				mul(1, 2, 3),
				addi(1, 0, 5),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(6)))
			Expect(stats.WAWStalls).To(Equal(uint64(2)))
			// Program order decides the final value.
			Expect(b.RegFile().Read(1)).To(Equal(uint64(5)))
		})

		It("should stall issue when the unit is occupied", func() {
			b := core.NewBackend([]*insts.MicroOp{
				mul(1, 0, 0),
				mul(2, 0, 0),
			}, nil)

			runToCompletion(b)

			Expect(b.Stats().StructuralStalls[insts.UnitMUL]).To(Equal(uint64(2)))
		})

		It("should sustain one op per cycle across independent ops", func() {
			b := core.NewBackend([]*insts.MicroOp{
				addi(1, 0, 1),
				addi(2, 0, 2),
				addi(3, 0, 3),
			}, nil)

			runToCompletion(b)

			Expect(b.Stats().Cycles).To(Equal(uint64(5)))
			Expect(b.RegFile().Read(1)).To(Equal(uint64(1)))
			Expect(b.RegFile().Read(2)).To(Equal(uint64(2)))
			Expect(b.RegFile().Read(3)).To(Equal(uint64(3)))
		})
	})

	Describe("memory timing", func() {
		It("should charge the miss latency on a cold load", func() {
			b := core.NewBackend([]*insts.MicroOp{load(1, 0, 0)}, nil)

			runToCompletion(b)

			Expect(b.Stats().Cycles).To(Equal(uint64(42))) // 40-cycle miss
			Expect(b.Cache().Stats().Misses).To(Equal(uint64(1)))
		})

		It("should charge the hit latency on a warm load", func() {
			b := core.NewBackend([]*insts.MicroOp{
				load(1, 0, 0),
				load(2, 0, 8), // same block
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Cycles).To(Equal(uint64(45)))
			Expect(b.Cache().Stats().Hits).To(Equal(uint64(1)))
			Expect(b.Cache().Stats().Misses).To(Equal(uint64(1)))
		})

		It("should price a store-to-load forward", func() {
			b := core.NewBackend([]*insts.MicroOp{
				store(0, 0, 16),
				load(1, 0, 16),
			}, nil)

			runToCompletion(b)

			// store commits quickly; the load pays hit plus the forward
			Expect(b.Stats().Cycles).To(Equal(uint64(7)))
		})

		It("should make dependent address arithmetic observable", func() {
			b := core.NewBackend([]*insts.MicroOp{
				addi(1, 0, 0x1000),
				load(2, 1, 0x40), // x2 = effective address
			}, nil)

			runToCompletion(b)

			Expect(b.RegFile().Read(2)).To(Equal(uint64(0x1040)))
		})
	})

	Describe("branch handling", func() {
		It("should roll back and pay the redirect on a cold branch", func() {
			b := core.NewBackend([]*insts.MicroOp{
				branch(0x100, true, 0x200),
				addi(1, 0, 7),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Rollbacks).To(Equal(uint64(1)))
			Expect(stats.RedirectCycles).To(Equal(uint64(12)))
			Expect(stats.Cycles).To(Equal(uint64(17)))
			Expect(stats.Committed).To(Equal(uint64(2)))
			Expect(b.RegFile().Read(1)).To(Equal(uint64(7)))
		})

		It("should predict a trained branch and skip the redirect", func() {
			b := core.NewBackend([]*insts.MicroOp{
				branch(0x100, true, 0x200),
				branch(0x100, true, 0x200),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Rollbacks).To(Equal(uint64(1))) // only the cold one
			Expect(stats.Cycles).To(Equal(uint64(17)))

			pstats := b.Predictor().Stats()
			Expect(pstats.Predictions).To(Equal(uint64(2)))
			Expect(pstats.BTBHits).To(Equal(uint64(1)))
		})

		It("should redirect again when the cached target is stale", func() {
			b := core.NewBackend([]*insts.MicroOp{
				branch(0x100, true, 0x200),
				branch(0x100, true, 0x300),
			}, nil)

			runToCompletion(b)

			Expect(b.Stats().Rollbacks).To(Equal(uint64(2)))
		})

		It("should requeue unissued ops discarded by a rollback", func() {
			b := core.NewBackend([]*insts.MicroOp{
				mul(1, 0, 0),
				branchOn(0x100, 1, true, 0x200), // waits on the multiply
				addi(2, 0, 2),
				addi(3, 0, 3),
				addi(4, 0, 4),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Rollbacks).To(Equal(uint64(1)))
			Expect(stats.Committed).To(Equal(uint64(5)))
			// Two unissued ops were thrown away and dispatched twice.
			Expect(stats.Dispatched).To(Equal(uint64(7)))
			Expect(stats.Cycles).To(Equal(uint64(22)))

			Expect(b.RegFile().Read(2)).To(Equal(uint64(2)))
			Expect(b.RegFile().Read(3)).To(Equal(uint64(3)))
			Expect(b.RegFile().Read(4)).To(Equal(uint64(4)))
		})

		It("should train the predictor only at commit", func() {
			b := core.NewBackend([]*insts.MicroOp{
				branch(0x100, true, 0x200),
			}, nil)

			// Resolution happens on cycle 2, commit on cycle 3.
			Expect(b.Tick()).To(BeTrue())
			Expect(b.Tick()).To(BeTrue())
			Expect(b.Predictor().Stats().Correct).To(BeZero())

			Expect(b.Tick()).To(BeTrue())
			Expect(b.Predictor().Stats().Correct).To(Equal(uint64(1)))
		})
	})

	Describe("trap handling", func() {
		It("should flush on a faulting load and re-run the younger op", func() {
			b := core.NewBackend([]*insts.MicroOp{
				faultLoad(1, 0, 0),
				addi(2, 0, 7),
			}, nil)

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Traps).To(Equal(uint64(1)))
			Expect(stats.TrapCycles).To(Equal(uint64(20)))
			Expect(stats.Cycles).To(Equal(uint64(65)))

			// The faulter is dropped; only the re-run addi commits.
			Expect(stats.Committed).To(Equal(uint64(1)))
			Expect(stats.Dispatched).To(Equal(uint64(3)))
			Expect(b.RegFile().Read(1)).To(BeZero())
			Expect(b.RegFile().Read(2)).To(Equal(uint64(7)))
		})

		It("should keep results committed before the trap", func() {
			b := core.NewBackend([]*insts.MicroOp{
				addi(1, 0, 5),
				faultLoad(2, 0, 0),
			}, nil)

			runToCompletion(b)

			Expect(b.Stats().Traps).To(Equal(uint64(1)))
			Expect(b.RegFile().Read(1)).To(Equal(uint64(5)))
			Expect(b.RegFile().Read(2)).To(BeZero())
		})
	})

	Describe("window capacity", func() {
		It("should stall dispatch while the window is full", func() {
			config := latency.DefaultTimingConfig()
			config.ScoreboardCapacity = 4

			program := make([]*insts.MicroOp, 6)
			for i := range program {
				program[i] = div(insts.Reg(i+1), 0, 0)
			}
			b := core.NewBackend(program, config)

			for i := 0; i < 4; i++ {
				Expect(b.Tick()).To(BeTrue())
			}
			Expect(b.Scoreboard().Full()).To(BeTrue())

			runToCompletion(b)

			stats := b.Stats()
			Expect(stats.Committed).To(Equal(uint64(6)))
			Expect(stats.DispatchStallFull).To(Equal(uint64(21)))
			Expect(stats.Cycles).To(Equal(uint64(74)))
		})
	})

	Describe("register zero", func() {
		It("should discard results destined for register zero", func() {
			b := core.NewBackend([]*insts.MicroOp{addi(0, 0, 5)}, nil)

			runToCompletion(b)

			Expect(b.Stats().Cycles).To(Equal(uint64(3)))
			Expect(b.RegFile().Read(0)).To(BeZero())
		})

		It("should never stall a reader of register zero", func() {
			// The first op writes x0; the second reads it and must not
			// wait for the divide.
			b := core.NewBackend([]*insts.MicroOp{
				div(0, 0, 0),
				alu(insts.KindADD, 1, 0, 0),
			}, nil)

			runToCompletion(b)

			Expect(b.Stats().RAWStalls[insts.UnitDIV]).To(BeZero())
			Expect(b.RegFile().Read(1)).To(BeZero())
		})
	})

	Describe("program results", func() {
		It("should compute the architectural values of a mixed program", func() {
			b := core.NewBackend([]*insts.MicroOp{
				addi(1, 0, 10),
				addi(2, 0, 3),
				alu(insts.KindADD, 3, 1, 2),  // 13
				mul(4, 3, 2),                 // 39
				alu(insts.KindSUB, 5, 4, 1),  // 29
				div(6, 4, 2),                 // 13
				alu(insts.KindXOR, 7, 6, 5),  // 16
				alu(insts.KindSLL, 8, 2, 2),  // 24
				alu(insts.KindSRL, 9, 8, 2),  // 3
				alu(insts.KindAND, 10, 8, 9), // 0
				alu(insts.KindOR, 11, 8, 9),  // 27
			}, nil)

			runToCompletion(b)

			rf := b.RegFile()
			Expect(rf.Read(3)).To(Equal(uint64(13)))
			Expect(rf.Read(4)).To(Equal(uint64(39)))
			Expect(rf.Read(5)).To(Equal(uint64(29)))
			Expect(rf.Read(6)).To(Equal(uint64(13)))
			Expect(rf.Read(7)).To(Equal(uint64(16)))
			Expect(rf.Read(8)).To(Equal(uint64(24)))
			Expect(rf.Read(9)).To(Equal(uint64(3)))
			Expect(rf.Read(10)).To(BeZero())
			Expect(rf.Read(11)).To(Equal(uint64(27)))
			Expect(b.Stats().Committed).To(Equal(uint64(11)))
		})

		It("should preserve program order across a late overwrite", func() {
			b := core.NewBackend([]*insts.MicroOp{
				addi(1, 0, 6),
				mul(2, 1, 1),                // reads 6 before x1 changes
				addi(1, 0, 100),             // overwrites x1 afterwards
				alu(insts.KindADD, 3, 2, 1), // 36 + 100
			}, nil)

			runToCompletion(b)

			rf := b.RegFile()
			Expect(rf.Read(1)).To(Equal(uint64(100)))
			Expect(rf.Read(2)).To(Equal(uint64(36)))
			Expect(rf.Read(3)).To(Equal(uint64(136)))
		})
	})

	Describe("statistics", func() {
		It("should derive CPI and IPC from the counters", func() {
			stats := core.Statistics{Cycles: 30, Committed: 10}
			Expect(stats.CPI()).To(BeNumerically("==", 3))
			Expect(stats.IPC()).To(BeNumerically("~", 0.333, 0.001))
		})

		It("should report zero rates before any work", func() {
			var stats core.Statistics
			Expect(stats.CPI()).To(BeZero())
			Expect(stats.IPC()).To(BeZero())
			Expect(stats.IssueStalls()).To(BeZero())
		})
	})
})

var _ = Describe("Comp", func() {
	It("should run a program under the event engine", func() {
		engine := sim.NewSerialEngine()
		comp := core.NewBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithProgram([]*insts.MicroOp{
				addi(1, 0, 4),
				addi(2, 1, 5),
				mul(3, 1, 2),
			}).
			Build("Backend")

		Expect(comp.Run()).To(Succeed())

		backend := comp.Backend()
		Expect(backend.Done()).To(BeTrue())
		Expect(backend.Stats().Committed).To(Equal(uint64(3)))
		Expect(backend.RegFile().Read(3)).To(Equal(uint64(36)))
	})

	It("should honor a custom timing configuration", func() {
		config := latency.DefaultTimingConfig()
		config.MultiplyLatency = 5

		engine := sim.NewSerialEngine()
		comp := core.NewBuilder().
			WithEngine(engine).
			WithConfig(config).
			WithProgram([]*insts.MicroOp{mul(1, 0, 0)}).
			Build("Backend")

		Expect(comp.Run()).To(Succeed())
		Expect(comp.Backend().Stats().Cycles).To(Equal(uint64(7)))
	})
})
