// Package insts defines the micro-op vocabulary shared by the timing model.
//
// O3Sim is trace-driven: micro-ops come from a trace file rather than from a
// machine-code decoder. A micro-op carries what the backend needs to model
// timing (unit class, register operands, branch outcome, fault annotation)
// plus enough arithmetic identity to compute committed register values, so a
// forwarding bug shows up as a wrong number and not only as a wrong cycle
// count.
//
// Usage:
//
//	op := &insts.MicroOp{Kind: insts.KindADD, Dest: 3, Src1: 1, Src2: 2}
//	fmt.Printf("%v executes on %v\n", op, op.Unit())
package insts
