// Package scoreboard implements the in-flight instruction tracking structure
// of the backend: a fixed-capacity circular buffer that records every
// instruction between decode and commit, answers register-dependency
// (clobber) queries for the issue stage, serves operand values with
// same-tick write-back forwarding, and retires instructions in program
// order.
//
// The model is deterministic and single-threaded. State only changes inside
// Step, which samples all of a tick's inputs at once; every output is a pure
// function of the pre-tick state and those inputs. The combinational answers
// are also available as query methods (Clobber, ReadOperands, CommitOffer,
// IssueOffer, Full) so the surrounding stages can inspect a tick's offers
// before deciding the acknowledgments they feed back into the same Step
// call, the way combinational hardware handshakes within a cycle.
//
// Three cursors express the buffer's ordering invariant
// (commit ⪯ issue ⪯ top, circularly):
//
//	[commit, issue)  issued entries awaiting results or retirement
//	[issue, top)     allocated entries not yet issued
//	[top, commit)    free slots
//
// Occupancy is tracked with explicit live/issued counts rather than the
// classic delayed-pointer lap trick, so full (count == capacity) and empty
// (count == 0) never alias.
package scoreboard

import "fmt"

// Scoreboard is the in-flight instruction buffer. Construct with New; the
// zero value is unusable.
type Scoreboard struct {
	capacity int
	mask     int
	slots    []Entry

	commit int // oldest not-yet-committed slot
	issue  int // next slot to offer the issue stage
	top    int // next free slot

	count  int // live entries, [commit, top)
	issued int // issued-not-committed entries, [commit, issue)
}

// New creates a scoreboard with the given slot count. Capacity must be a
// power of two; anything else is a configuration error and panics.
func New(capacity int) *Scoreboard {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic(fmt.Sprintf(
			"scoreboard: capacity must be a power of two, got %d", capacity))
	}
	return &Scoreboard{
		capacity: capacity,
		mask:     capacity - 1,
		slots:    make([]Entry, capacity),
	}
}

// Capacity returns the slot count.
func (s *Scoreboard) Capacity() int { return s.capacity }

// Len returns the number of live entries.
func (s *Scoreboard) Len() int { return s.count }

// Issued returns the number of issued-but-not-committed entries.
func (s *Scoreboard) Issued() int { return s.issued }

// Full reports whether no slot is free. Full gates allocation.
func (s *Scoreboard) Full() bool { return s.count == s.capacity }

// Empty reports whether no entry is live.
func (s *Scoreboard) Empty() bool { return s.count == 0 }

// Cursors returns the commit, issue, and top cursors. Useful for invariant
// checks and state dumps; the cursors alone cannot distinguish full from
// empty, which is what Len is for.
func (s *Scoreboard) Cursors() (commit, issue, top int) {
	return s.commit, s.issue, s.top
}

// Live returns copies of the live entries in program order, oldest first.
func (s *Scoreboard) Live() []Entry {
	live := make([]Entry, s.count)
	for i := 0; i < s.count; i++ {
		live[i] = *s.liveSlot(i)
	}
	return live
}

// liveSlot returns the i-th live entry counted from the commit cursor.
func (s *Scoreboard) liveSlot(i int) *Entry {
	return &s.slots[(s.commit+i)&s.mask]
}

// Step advances the scoreboard by one tick: it computes every output from
// the pre-tick state and the given inputs, checks the collaborator
// contracts, and then applies the tick's state transition. Contract
// violations (acknowledging an invalid offer, conflicting write-back ports,
// write-backs to slots not awaiting results) panic rather than being
// silently tolerated.
func (s *Scoreboard) Step(in TickInput) TickOutput {
	if in.FullFlush {
		// Reinitialize the whole structure. Every other input this tick
		// is ignored; the outputs are those of the reset structure.
		s.reset()
		return TickOutput{}
	}

	s.validateWritebacks(in.Writebacks)

	out := TickOutput{
		Full:    s.Full(),
		Clobber: s.Clobber(),
	}
	out.R1, out.R2 = s.ReadOperands(in.R1, in.R2, in.Writebacks)
	out.CommitOffer = s.CommitOffer()
	out.IssueOffer, out.IssueOfferValid = s.IssueOffer(in.Dispatch, in.RollbackUnissued)
	out.DispatchAck = in.Dispatch != nil && !out.Full && !in.RollbackUnissued

	if in.IssueAck && !out.IssueOfferValid {
		panic("scoreboard: issue ack without a valid issue offer")
	}
	if in.CommitAck {
		switch {
		case s.count == 0:
			panic("scoreboard: commit ack on an empty buffer")
		case s.issued == 0:
			panic("scoreboard: commit ack for an entry that was never issued")
		case !s.slots[s.commit].Valid:
			panic("scoreboard: commit ack for an entry that has not written back")
		}
	}

	// Transition. Outputs above are already fixed; mutations below are
	// invisible until the next tick (except through the forwarding paths
	// computed from the inputs themselves).
	for _, p := range in.Writebacks {
		if !p.Success {
			continue
		}
		e := &s.slots[p.TID]
		e.Valid = true
		e.Result = p.Data
		e.Exc = p.Exc
	}

	if in.CommitAck {
		s.commit = (s.commit + 1) & s.mask
		s.count--
		s.issued--
	}
	if in.IssueAck {
		s.issue = (s.issue + 1) & s.mask
		s.issued++
	}

	switch {
	case in.RollbackUnissued:
		// Discard everything allocated but not issued; the rollback wins
		// over a same-tick allocation. Dead slots are not erased, only
		// released.
		s.top = s.issue
		s.count = s.issued
	case out.DispatchAck:
		s.slots[s.top] = Entry{
			Op:   in.Dispatch,
			Dest: in.Dispatch.Dest,
			Unit: in.Dispatch.Unit(),
			TID:  s.top,
		}
		s.top = (s.top + 1) & s.mask
		s.count++
	}

	return out
}

// validateWritebacks flags collaborator bugs on the write-back ports: a
// transaction id outside the buffer, a slot that is not issued and awaiting
// a result, or two successful ports landing on one slot in the same tick
// (no winner is defined for that conflict, so it must not be merged
// silently).
func (s *Scoreboard) validateWritebacks(ports []WritebackPort) {
	for i, p := range ports {
		if !p.Success {
			continue
		}
		if p.TID < 0 || p.TID >= s.capacity {
			panic(fmt.Sprintf(
				"scoreboard: write-back to transaction %d outside capacity %d",
				p.TID, s.capacity))
		}
		if off := (p.TID - s.commit) & s.mask; off >= s.issued {
			panic(fmt.Sprintf(
				"scoreboard: write-back to transaction %d, which is not awaiting a result",
				p.TID))
		}
		for _, q := range ports[i+1:] {
			if q.Success && q.TID == p.TID {
				panic(fmt.Sprintf(
					"scoreboard: multiple write-back ports target transaction %d in one tick",
					p.TID))
			}
		}
	}
}

// reset returns the structure to its construction state.
func (s *Scoreboard) reset() {
	for i := range s.slots {
		s.slots[i] = Entry{}
	}
	s.commit, s.issue, s.top = 0, 0, 0
	s.count, s.issued = 0, 0
}
