package insts

import "fmt"

// NumRegs is the architectural register count. Register 0 is hardwired to
// zero: it never carries a dependency and never receives a result.
const NumRegs = 32

// Reg identifies an architectural register (x0..x31).
type Reg uint8

func (r Reg) String() string {
	return fmt.Sprintf("x%d", uint8(r))
}

// Unit identifies the functional-unit class that produces a result.
type Unit uint8

// Functional-unit classes.
const (
	UnitNone Unit = iota // no producing unit
	UnitALU
	UnitMUL
	UnitDIV
	UnitMEM
	UnitBR

	// NumUnits counts the real unit classes plus UnitNone.
	NumUnits
)

var unitNames = [NumUnits]string{"none", "ALU", "MUL", "DIV", "MEM", "BR"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unit(%d)", uint8(u))
}

// Exception is the exception record a write-back may carry.
type Exception uint8

// Exception records.
const (
	ExcNone     Exception = iota // no exception
	ExcMemFault                  // memory access fault from the load/store unit
)

func (e Exception) String() string {
	switch e {
	case ExcNone:
		return "none"
	case ExcMemFault:
		return "mem-fault"
	}
	return fmt.Sprintf("Exception(%d)", uint8(e))
}

// Kind represents a micro-op operation.
type Kind uint8

// Micro-op kinds.
const (
	KindUnknown Kind = iota
	KindADD
	KindSUB
	KindAND
	KindOR
	KindXOR
	KindSLL
	KindSRL
	KindADDI
	KindMUL
	KindDIV
	KindLD
	KindST
	KindBR
)

var kindNames = map[Kind]string{
	KindADD:  "add",
	KindSUB:  "sub",
	KindAND:  "and",
	KindOR:   "or",
	KindXOR:  "xor",
	KindSLL:  "sll",
	KindSRL:  "srl",
	KindADDI: "addi",
	KindMUL:  "mul",
	KindDIV:  "div",
	KindLD:   "ld",
	KindST:   "st",
	KindBR:   "b",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindByName maps a trace mnemonic back to its kind.
func KindByName(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// Unit returns the functional-unit class that executes this kind.
func (k Kind) Unit() Unit {
	switch k {
	case KindADD, KindSUB, KindAND, KindOR, KindXOR, KindSLL, KindSRL, KindADDI:
		return UnitALU
	case KindMUL:
		return UnitMUL
	case KindDIV:
		return UnitDIV
	case KindLD, KindST:
		return UnitMEM
	case KindBR:
		return UnitBR
	}
	return UnitNone
}

// MicroOp is one instruction as it appears in a trace.
type MicroOp struct {
	// PC is the program counter of the op (predictor indexing).
	PC uint64
	// Kind is the operation.
	Kind Kind

	// Dest is the destination register; 0 means no destination.
	Dest Reg
	// Src1 is the first source register (base register for ld/st).
	Src1 Reg
	// Src2 is the second source register (store value register for st).
	Src2 Reg

	// Imm is the immediate operand (addi) or address displacement (ld/st).
	Imm int64

	// Taken and Target record the branch outcome supplied by the trace.
	// The model has no wrong-path fetch; a misprediction is charged as a
	// redirect penalty instead.
	Taken  bool
	Target uint64

	// Fault marks a memory op whose write-back raises an exception.
	Fault bool
}

// Unit returns the functional-unit class that executes this op.
func (op *MicroOp) Unit() Unit {
	return op.Kind.Unit()
}

func (op *MicroOp) String() string {
	mnemonic := op.Kind.String()
	if op.Fault {
		mnemonic += "!"
	}

	switch op.Kind {
	case KindADDI:
		return fmt.Sprintf("%s %v, %v, %d", mnemonic, op.Dest, op.Src1, op.Imm)
	case KindLD:
		return fmt.Sprintf("%s %v, %d(%v)", mnemonic, op.Dest, op.Imm, op.Src1)
	case KindST:
		return fmt.Sprintf("%s %v, %d(%v)", mnemonic, op.Src2, op.Imm, op.Src1)
	case KindBR:
		outcome := "ntaken"
		if op.Taken {
			outcome = "taken"
		}
		if op.Src1 == 0 && op.Src2 == 0 {
			return fmt.Sprintf("%s 0x%x %s", mnemonic, op.Target, outcome)
		}
		return fmt.Sprintf("%s %v, %v, 0x%x %s",
			mnemonic, op.Src1, op.Src2, op.Target, outcome)
	}
	return fmt.Sprintf("%s %v, %v, %v", mnemonic, op.Dest, op.Src1, op.Src2)
}
