package scoreboard

import "github.com/sarchlab/o3sim/insts"

// Clobber returns, for every architectural register, the functional-unit
// class of its youngest live writer. The scan walks the live window in
// program order so later allocations overwrite earlier ones; register 0 is
// never reported clobbered.
func (s *Scoreboard) Clobber() ClobberMap {
	var m ClobberMap
	for i := 0; i < s.count; i++ {
		if e := s.liveSlot(i); e.Dest != 0 {
			m[e.Dest] = e.Unit
		}
	}
	return m
}

// ReadOperands serves the tick's two register reads from the issued window,
// with same-tick write-back forwarding applied on top. The reads are
// independent: each register resolves against the window and the ports on
// its own.
func (s *Scoreboard) ReadOperands(r1, r2 insts.Reg, ports []WritebackPort) (Operand, Operand) {
	return s.readOperand(r1, ports), s.readOperand(r2, ports)
}

// readOperand resolves one register read. The issued window is scanned in
// program order, so the youngest issued writer decides both value and
// validity regardless of whether it has completed; an older completed
// writer must not shadow a younger in-flight one. Forwarding then overrides
// with the first successful, non-exceptional port whose slot writes r.
// Register 0 is hardwired to zero and never served from the scoreboard.
func (s *Scoreboard) readOperand(r insts.Reg, ports []WritebackPort) Operand {
	if r == 0 {
		return Operand{}
	}
	var op Operand
	for i := 0; i < s.issued; i++ {
		if e := s.liveSlot(i); e.Dest == r {
			op = Operand{Value: e.Result, Valid: e.Valid}
		}
	}
	for _, p := range ports {
		if p.Success && p.Exc == insts.ExcNone && s.slots[p.TID&s.mask].Dest == r {
			op = Operand{Value: p.Data, Valid: true}
			break
		}
	}
	return op
}

// CommitOffer returns the entry at the commit cursor, or a zero Entry when
// nothing is live. The offer is advisory: the consumer checks Valid (and,
// for traps, Exc) before acknowledging.
func (s *Scoreboard) CommitOffer() Entry {
	if s.count == 0 {
		return Entry{}
	}
	return s.slots[s.commit]
}

// IssueOffer returns the instruction offered to the issue stage this tick.
// A rollback forces the offer invalid. When allocated-but-unissued entries
// exist, the oldest of them is offered; otherwise a micro-op presented for
// allocation in the same tick is offered combinationally, tagged with the
// slot it is about to occupy, so an empty window costs no dead cycle
// between allocation and issue.
func (s *Scoreboard) IssueOffer(dispatch *insts.MicroOp, rollback bool) (Entry, bool) {
	if rollback {
		return Entry{}, false
	}
	if s.issued < s.count {
		return s.slots[s.issue], true
	}
	if dispatch != nil && !s.Full() {
		return Entry{
			Op:   dispatch,
			Dest: dispatch.Dest,
			Unit: dispatch.Unit(),
			TID:  s.top,
		}, true
	}
	return Entry{}, false
}
