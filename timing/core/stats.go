package core

import "github.com/sarchlab/o3sim/insts"

// Statistics holds the performance counters of one backend run.
type Statistics struct {
	// Cycles is the number of cycles the backend was live.
	Cycles uint64
	// Dispatched counts window allocations, re-dispatches included.
	Dispatched uint64
	// Issued counts ops sent to a functional unit.
	Issued uint64
	// Committed counts architecturally retired ops.
	Committed uint64
	// Writebacks counts executions that ran to completion, whether or not
	// the result survived to commit; ops killed mid-execution by a trap
	// flush never count.
	Writebacks uint64

	// DispatchStallFull counts cycles the front end held an op back
	// because the window was full.
	DispatchStallFull uint64
	// RedirectCycles counts dead front-end cycles after mispredicted
	// branches.
	RedirectCycles uint64
	// TrapCycles counts dead front-end cycles after trap flushes.
	TrapCycles uint64

	// RAWStalls counts issue stalls waiting on an operand, keyed by the
	// unit producing it.
	RAWStalls [insts.NumUnits]uint64
	// WAWStalls counts issue stalls holding back a second in-flight
	// writer of the same register.
	WAWStalls uint64
	// StructuralStalls counts issue stalls on a busy unit, keyed by it.
	StructuralStalls [insts.NumUnits]uint64

	// Rollbacks counts branch-misprediction recoveries.
	Rollbacks uint64
	// Traps counts full-pipeline exception flushes.
	Traps uint64
}

// CPI returns cycles per committed instruction.
func (s Statistics) CPI() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Committed)
}

// IPC returns committed instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Committed) / float64(s.Cycles)
}

// IssueStalls sums the issue-side stall cycles across causes.
func (s Statistics) IssueStalls() uint64 {
	total := s.WAWStalls
	for _, n := range s.RAWStalls {
		total += n
	}
	for _, n := range s.StructuralStalls {
		total += n
	}
	return total
}
