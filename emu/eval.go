// Package emu provides the architectural state of the modeled machine.
package emu

import "github.com/sarchlab/o3sim/insts"

// Evaluate computes the committed value of a micro-op from its resolved
// operand values. Arithmetic wraps at 64 bits. Division by zero yields all
// ones without trapping, RISC-V style. Loads return the effective address
// (no memory image is modeled), so dependent address arithmetic is still
// observable downstream. Stores and branches produce no destination value.
func Evaluate(op *insts.MicroOp, a, b uint64) uint64 {
	switch op.Kind {
	case insts.KindADD:
		return a + b
	case insts.KindSUB:
		return a - b
	case insts.KindAND:
		return a & b
	case insts.KindOR:
		return a | b
	case insts.KindXOR:
		return a ^ b
	case insts.KindSLL:
		return a << (b & 63)
	case insts.KindSRL:
		return a >> (b & 63)
	case insts.KindADDI:
		return a + uint64(op.Imm)
	case insts.KindMUL:
		return a * b
	case insts.KindDIV:
		if b == 0 {
			return ^uint64(0)
		}
		return a / b
	case insts.KindLD, insts.KindST:
		return EffectiveAddress(op, a)
	}
	return 0
}

// EffectiveAddress computes the address a memory op touches given its
// resolved base register value.
func EffectiveAddress(op *insts.MicroOp, base uint64) uint64 {
	return base + uint64(op.Imm)
}
