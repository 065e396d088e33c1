package core

import (
	"fmt"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/scoreboard"
)

// execUnit is one functional unit: single occupancy, fixed-latency
// countdown. An op started with latency L completes L cycles later and
// surfaces as a write-back port that cycle.
type execUnit struct {
	unit insts.Unit

	busy      bool
	tid       int
	op        *insts.MicroOp
	result    uint64
	exc       insts.Exception
	remaining uint64
}

// completion is one finished op: the write-back port the scoreboard sees
// plus the op itself for branch resolution.
type completion struct {
	port scoreboard.WritebackPort
	op   *insts.MicroOp
}

// Busy reports whether an op is in flight.
func (u *execUnit) Busy() bool { return u.busy }

// Start accepts an op with its precomputed result, exception record, and
// latency. Starting a busy unit is a scheduler bug.
func (u *execUnit) Start(op *insts.MicroOp, tid int, result uint64, exc insts.Exception, lat uint64) {
	if u.busy {
		panic(fmt.Sprintf("%v unit: started while busy", u.unit))
	}
	if lat == 0 {
		// Zero-latency ops still occupy the unit for one cycle.
		lat = 1
	}

	u.busy = true
	u.tid = tid
	u.op = op
	u.result = result
	u.exc = exc
	u.remaining = lat
}

// Advance burns one cycle and reports whether the resident op completed.
func (u *execUnit) Advance() (completion, bool) {
	if !u.busy {
		return completion{}, false
	}

	u.remaining--
	if u.remaining > 0 {
		return completion{}, false
	}

	c := completion{
		port: scoreboard.WritebackPort{
			TID:     u.tid,
			Data:    u.result,
			Exc:     u.exc,
			Success: true,
		},
		op: u.op,
	}
	u.Reset()

	return c, true
}

// Reset drops the resident op, if any.
func (u *execUnit) Reset() {
	*u = execUnit{unit: u.unit}
}

// unitOrder fixes the write-back port order when several units complete in
// the same cycle.
var unitOrder = [...]insts.Unit{
	insts.UnitALU,
	insts.UnitMUL,
	insts.UnitDIV,
	insts.UnitMEM,
	insts.UnitBR,
}

// newExecUnits builds one functional unit per class, indexed by unit.
func newExecUnits() [insts.NumUnits]*execUnit {
	var units [insts.NumUnits]*execUnit
	for _, u := range unitOrder {
		units[u] = &execUnit{unit: u}
	}
	return units
}
