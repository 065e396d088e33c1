// Package core models the execution backend of a small out-of-order
// machine: a scoreboarded instruction window fed in program order from a
// micro-op trace, one functional unit per class, a bimodal branch
// predictor, and a latency-only L1 data cache.
//
// The backend advances one cycle per Tick and drives exactly one
// scoreboard step per cycle. Ops issue in order from the window, complete
// out of order on fixed-latency units, and commit strictly in order. The
// model never fetches a wrong path: a mispredicted branch instead discards
// the unissued tail of the window at resolution and charges a fixed
// redirect penalty before dispatch resumes.
package core

import (
	"github.com/sarchlab/o3sim/emu"
	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/latency"
	"github.com/sarchlab/o3sim/timing/scoreboard"
)

// Backend executes one micro-op trace cycle by cycle.
type Backend struct {
	program []*insts.MicroOp
	next    int // next program index to dispatch

	sb     *scoreboard.Scoreboard
	rf     *emu.RegFile
	pred   *BranchPredictor
	dcache *cache.Cache
	lat    *latency.Table

	units [insts.NumUnits]*execUnit

	// pending maps each register to the unit of its in-flight issued
	// writer. Issue stalls on WAW, so a register never has two writers
	// in flight and one slot per register suffices.
	pending [insts.NumRegs]insts.Unit

	// Per-slot dispatch bookkeeping, indexed by transaction id.
	slotProgram    []int  // program index of the resident op
	slotMispredict []bool // branch marked mispredicted at dispatch

	redirectStall uint64 // dead dispatch cycles left after a mispredict
	trapStall     uint64 // dead dispatch cycles left after a trap flush

	// maxCycles caps the run; zero means unlimited. A cap is a safety
	// valve for malformed traces, not a simulation parameter.
	maxCycles uint64

	stats Statistics
}

// NewBackend builds a backend for the given trace. A nil config selects
// the defaults.
func NewBackend(program []*insts.MicroOp, config *latency.TimingConfig) *Backend {
	if config == nil {
		config = latency.DefaultTimingConfig()
	}

	return &Backend{
		program:        program,
		sb:             scoreboard.New(config.ScoreboardCapacity),
		rf:             &emu.RegFile{},
		pred:           NewBranchPredictor(config.BHTSize, config.BTBSize),
		dcache:         cache.New(cache.FromTiming(config)),
		lat:            latency.NewTableWithConfig(config),
		units:          newExecUnits(),
		slotProgram:    make([]int, config.ScoreboardCapacity),
		slotMispredict: make([]bool, config.ScoreboardCapacity),
	}
}

// Done reports whether the trace is exhausted and every in-flight op has
// drained.
func (b *Backend) Done() bool {
	if b.next < len(b.program) || !b.sb.Empty() {
		return false
	}
	for _, u := range b.units {
		if u != nil && u.Busy() {
			return false
		}
	}
	return true
}

// SetMaxCycles caps the number of cycles Tick will consume; zero removes
// the cap.
func (b *Backend) SetMaxCycles(n uint64) {
	b.maxCycles = n
}

// Tick advances the machine by one cycle. It returns false, without
// consuming a cycle, once the backend is done or the cycle cap is hit.
func (b *Backend) Tick() bool {
	if b.Done() {
		return false
	}
	if b.maxCycles > 0 && b.stats.Cycles >= b.maxCycles {
		return false
	}
	b.stats.Cycles++

	// Functional units advance first: completions free their units this
	// cycle and their results forward into this cycle's operand reads.
	ports, completions := b.advanceUnits()

	// A faulting op reaching the commit head flushes everything,
	// superseding whatever else this cycle carried.
	if offer := b.sb.CommitOffer(); offer.Valid && offer.Exc != insts.ExcNone {
		b.trap(offer)
		return true
	}

	rollback := b.resolveBranches(completions)
	commitAck := b.sb.CommitOffer().Valid
	dispatch := b.pickDispatch(rollback)

	issueOffer, issueOK := b.sb.IssueOffer(dispatch, rollback)
	issueAck := false
	if issueOK {
		issueAck = b.tryIssue(issueOffer, ports)
	}

	var r1, r2 insts.Reg
	if issueOK {
		r1, r2 = issueOffer.Op.Src1, issueOffer.Op.Src2
	}

	_, _, topBefore := b.sb.Cursors()

	out := b.sb.Step(scoreboard.TickInput{
		RollbackUnissued: rollback,
		Dispatch:         dispatch,
		IssueAck:         issueAck,
		CommitAck:        commitAck,
		R1:               r1,
		R2:               r2,
		Writebacks:       ports,
	})

	if out.DispatchAck {
		b.recordDispatch(dispatch, topBefore)
	}
	if commitAck {
		b.commit(out.CommitOffer)
	}

	return true
}

// advanceUnits burns one cycle in every busy unit and collects this
// cycle's write-backs in fixed port order.
func (b *Backend) advanceUnits() ([]scoreboard.WritebackPort, []completion) {
	var ports []scoreboard.WritebackPort
	var completions []completion

	for _, unit := range unitOrder {
		c, done := b.units[unit].Advance()
		if !done {
			continue
		}
		ports = append(ports, c.port)
		completions = append(completions, c)
		if c.op.Dest != 0 {
			b.pending[c.op.Dest] = insts.UnitNone
		}
		b.stats.Writebacks++
		Trace("writeback",
			"op", c.op, "tid", c.port.TID, "data", c.port.Data, "exc", c.port.Exc)
	}

	return ports, completions
}

// resolveBranches fires the misprediction recovery when a branch marked
// wrong at dispatch completes: the unissued tail of the window rolls back,
// the discarded ops requeue for re-dispatch, and the front end goes dead
// for the redirect penalty.
func (b *Backend) resolveBranches(completions []completion) bool {
	rollback := false
	for _, c := range completions {
		if !b.slotMispredict[c.port.TID] {
			continue
		}
		rollback = true
		b.next -= b.sb.Len() - b.sb.Issued()
		b.redirectStall = b.lat.Config().BranchMispredictPenalty
		b.stats.Rollbacks++
		Trace("rollback", "op", c.op, "tid", c.port.TID, "requeued", b.sb.Len()-b.sb.Issued())
	}
	return rollback
}

// trap flushes the whole pipeline for the faulting op at the commit head.
// The faulter is dropped; everything younger re-dispatches once the trap
// penalty has elapsed.
func (b *Backend) trap(offer scoreboard.Entry) {
	b.next = b.slotProgram[offer.TID] + 1
	b.sb.Step(scoreboard.TickInput{FullFlush: true})
	for _, unit := range unitOrder {
		b.units[unit].Reset()
	}
	b.pending = [insts.NumRegs]insts.Unit{}
	b.trapStall = b.lat.Config().TrapFlushPenalty
	b.stats.Traps++
	Trace("trap", "op", offer.Op, "tid", offer.TID, "exc", offer.Exc)
}

// pickDispatch selects what the front end presents this cycle, burning
// redirect and trap penalties first.
func (b *Backend) pickDispatch(rollback bool) *insts.MicroOp {
	switch {
	case rollback:
		// The resolution cycle itself carries no dispatch; the penalty
		// starts next cycle.
	case b.redirectStall > 0:
		b.redirectStall--
		b.stats.RedirectCycles++
	case b.trapStall > 0:
		b.trapStall--
		b.stats.TrapCycles++
	case b.next < len(b.program):
		if b.sb.Full() {
			b.stats.DispatchStallFull++
			return nil
		}
		return b.program[b.next]
	}
	return nil
}

// tryIssue decides whether this cycle's issue offer can start executing,
// charging the blocking cause to the stall counters when it cannot.
func (b *Backend) tryIssue(e scoreboard.Entry, ports []scoreboard.WritebackPort) bool {
	op := e.Op

	unit := b.units[op.Unit()]
	if unit.Busy() {
		b.stats.StructuralStalls[op.Unit()]++
		return false
	}
	if op.Dest != 0 && b.pending[op.Dest] != insts.UnitNone {
		b.stats.WAWStalls++
		return false
	}

	o1, o2 := b.sb.ReadOperands(op.Src1, op.Src2, ports)
	a, ok := b.resolveOperand(op.Src1, o1)
	if !ok {
		b.stats.RAWStalls[b.pending[op.Src1]]++
		return false
	}
	v, ok := b.resolveOperand(op.Src2, o2)
	if !ok {
		b.stats.RAWStalls[b.pending[op.Src2]]++
		return false
	}

	b.startUnit(unit, e, a, v)
	if op.Dest != 0 {
		b.pending[op.Dest] = op.Unit()
	}
	b.stats.Issued++

	return true
}

// resolveOperand turns one scoreboard operand read into a value. Register
// zero is always ready. A window hit wins; otherwise an in-flight issued
// writer means the value does not exist yet anywhere, and with no writer
// in flight the architectural register file is current.
func (b *Backend) resolveOperand(r insts.Reg, o scoreboard.Operand) (uint64, bool) {
	if r == 0 {
		return 0, true
	}
	if o.Valid {
		return o.Value, true
	}
	if b.pending[r] != insts.UnitNone {
		return 0, false
	}
	return b.rf.Read(r), true
}

// startUnit begins execution of the offered op with resolved operands,
// pricing memory ops through the cache.
func (b *Backend) startUnit(unit *execUnit, e scoreboard.Entry, a, v uint64) {
	op := e.Op
	result := emu.Evaluate(op, a, v)
	exc := insts.ExcNone
	lat := b.lat.ExecLatency(op)

	if op.Unit() == insts.UnitMEM {
		addr := result // memory ops evaluate to their effective address
		switch {
		case op.Fault:
			// A faulting access pays the full miss path before the
			// exception surfaces; the cache state is untouched.
			exc = insts.ExcMemFault
			lat = b.lat.Config().CacheMissLatency
		case op.Kind == insts.KindLD:
			lat = b.dcache.Read(addr).Latency
		default:
			b.dcache.Write(addr)
		}
	}

	unit.Start(op, e.TID, result, exc, lat)
	Trace("issue", "op", op, "tid", e.TID, "latency", lat)
}

// recordDispatch books a freshly allocated op under its transaction id and
// predicts its branch outcome.
func (b *Backend) recordDispatch(op *insts.MicroOp, tid int) {
	b.slotProgram[tid] = b.next
	b.slotMispredict[tid] = false
	if op.Kind == insts.KindBR {
		pred := b.pred.Predict(op.PC)
		b.slotMispredict[tid] = pred.Mispredicts(op.Taken, op.Target)
	}
	b.next++
	b.stats.Dispatched++
	Trace("dispatch", "op", op, "tid", tid, "index", b.next-1)
}

// commit retires the head op: its result becomes architectural and a
// branch outcome trains the predictor.
func (b *Backend) commit(e scoreboard.Entry) {
	if e.Dest != 0 {
		b.rf.Write(e.Dest, e.Result)
	}
	if e.Op.Kind == insts.KindBR {
		b.pred.Update(e.Op.PC, e.Op.Taken, e.Op.Target)
	}
	b.stats.Committed++
	Trace("commit", "op", e.Op, "tid", e.TID, "result", e.Result)
}

// Stats returns a copy of the run counters.
func (b *Backend) Stats() Statistics {
	return b.stats
}

// RegFile exposes the architectural register file.
func (b *Backend) RegFile() *emu.RegFile {
	return b.rf
}

// Predictor exposes the branch predictor.
func (b *Backend) Predictor() *BranchPredictor {
	return b.pred
}

// Cache exposes the data cache.
func (b *Backend) Cache() *cache.Cache {
	return b.dcache
}

// Scoreboard exposes the instruction window.
func (b *Backend) Scoreboard() *scoreboard.Scoreboard {
	return b.sb
}

// Config returns the timing configuration the backend runs under.
func (b *Backend) Config() *latency.TimingConfig {
	return b.lat.Config()
}
