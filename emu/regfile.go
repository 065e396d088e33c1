// Package emu provides the architectural state of the modeled machine.
package emu

import "github.com/sarchlab/o3sim/insts"

// RegFile is the architectural register file: 32 general-purpose registers
// with x0 hardwired to zero. Only committed results land here; in-flight
// values live in the scoreboard until retirement.
type RegFile struct {
	regs [insts.NumRegs]uint64
}

// Read returns a register value. Register 0 always reads as 0.
func (r *RegFile) Read(reg insts.Reg) uint64 {
	if reg == 0 || int(reg) >= insts.NumRegs {
		return 0
	}
	return r.regs[reg]
}

// Write stores a value into a register. Writes to register 0 are dropped.
func (r *RegFile) Write(reg insts.Reg, value uint64) {
	if reg == 0 || int(reg) >= insts.NumRegs {
		return
	}
	r.regs[reg] = value
}

// Reset clears every register.
func (r *RegFile) Reset() {
	r.regs = [insts.NumRegs]uint64{}
}
