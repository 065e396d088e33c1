package scoreboard

import "github.com/sarchlab/o3sim/insts"

// Entry is one scoreboard slot: an instruction between allocation at decode
// and retirement at commit.
type Entry struct {
	// Op is the decoded micro-op. The scoreboard treats it as an opaque
	// payload; only the snapshotted fields below drive its behavior.
	Op *insts.MicroOp

	// Dest is the destination register; 0 means no destination.
	Dest insts.Reg

	// Unit is the functional-unit class that will produce the result.
	// Reported by the clobber query while the entry is in flight.
	Unit insts.Unit

	// TID is the slot index at allocation time: the stable identity that
	// matches write-backs to slots even after the cursors wrap.
	TID int

	// Result is the write-back value, defined only when Valid is set.
	Result uint64

	// Exc is the exception record carried by the write-back, meaningful
	// only when Valid is set.
	Exc insts.Exception

	// Valid is set once a write-back has landed for this entry.
	Valid bool
}

// WritebackPort is one functional unit's completion report for a tick.
// Ports are presented as a slice in fixed priority order: when several
// ports could forward the same register in one tick, the lowest index wins.
type WritebackPort struct {
	// TID addresses the slot the result belongs to.
	TID int
	// Data is the produced value.
	Data uint64
	// Exc is the exception record; an exceptional write-back still lands
	// in the slot but never forwards its data to a same-tick operand read.
	Exc insts.Exception
	// Success gates the port: a false port is ignored entirely.
	Success bool
}

// Operand is one register read served by the scoreboard. Valid reports
// whether the value could be supplied from an in-flight entry or a same-tick
// write-back; an invalid operand with an in-flight writer means the value is
// still being produced, while an invalid operand with no writer means the
// architectural register file holds the authoritative value.
type Operand struct {
	Value uint64
	Valid bool
}

// ClobberMap maps each architectural register to the functional-unit class
// of its youngest in-flight writer, or UnitNone when no live entry targets
// the register. Register 0 is always UnitNone.
type ClobberMap [insts.NumRegs]insts.Unit

// TickInput gathers every signal the scoreboard samples in one tick.
type TickInput struct {
	// FullFlush resets the whole structure. It supersedes every other
	// input this tick: nothing allocates, no ack is honored, and no
	// write-back lands.
	FullFlush bool

	// RollbackUnissued discards every allocated-but-unissued entry and
	// forces the issue offer invalid. An allocation presented in the same
	// tick is ignored; commit acks and write-backs still land.
	RollbackUnissued bool

	// Dispatch is the decoded instruction presented for allocation this
	// tick, or nil when the decode stage has nothing to offer.
	Dispatch *insts.MicroOp

	// IssueAck acknowledges this tick's issue offer.
	IssueAck bool

	// CommitAck acknowledges this tick's commit offer.
	CommitAck bool

	// R1, R2 are the operand registers read this tick.
	R1, R2 insts.Reg

	// Writebacks are the functional units' completion ports, in fixed
	// priority order.
	Writebacks []WritebackPort
}

// TickOutput gathers every signal the scoreboard produces in one tick. All
// fields are pure functions of the pre-tick state and the tick's inputs.
type TickOutput struct {
	// Full reports that no slot was free at the start of the tick; it
	// gates allocation.
	Full bool

	// DispatchAck reports that the presented instruction was accepted and
	// allocated this tick.
	DispatchAck bool

	// Clobber is the register-to-writer mapping for dependency stalls.
	Clobber ClobberMap

	// R1, R2 are the operand reads, including same-tick write-back
	// forwarding.
	R1, R2 Operand

	// IssueOffer is the instruction offered to the issue stage, valid
	// only when IssueOfferValid is set.
	IssueOffer      Entry
	IssueOfferValid bool

	// CommitOffer is the entry at the commit cursor. Its Valid field
	// tells the consumer whether the result has arrived; acknowledging an
	// invalid offer is a contract violation.
	CommitOffer Entry
}
