// Package trace loads instruction traces for the timing model.
//
// A trace is a text file with one micro-op per line:
//
//	# comments and blank lines are skipped
//	0x1000 add  x3, x1, x2
//	0x1004 addi x4, x3, 16
//	0x1008 ld   x5, 8(x2)
//	0x100c st   x5, 16(x2)
//	0x1010 b    x3, x4, 0x1000 taken
//
// A "!" suffix on a load or store mnemonic (ld!, st!) marks the op as
// faulting: its write-back carries a memory-fault exception. Branches end
// with the recorded outcome, "taken" or "ntaken"; the two source registers
// are optional ("b 0x1000 taken" branches unconditionally).
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/o3sim/insts"
)

// Load reads a trace file and returns its micro-ops in program order.
func Load(path string) ([]*insts.MicroOp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ops, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// Parse reads micro-ops from r, one per line, in program order.
func Parse(r io.Reader) ([]*insts.MicroOp, error) {
	var ops []*insts.MicroOp

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		op, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return ops, nil
}

func parseLine(line string) (*insts.MicroOp, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected %q, got %q", "<pc> <mnemonic> <operands>", line)
	}

	pc, err := strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid pc %q: %w", fields[0], err)
	}

	mnemonic := fields[1]
	fault := strings.HasSuffix(mnemonic, "!")
	if fault {
		mnemonic = strings.TrimSuffix(mnemonic, "!")
	}

	kind, ok := insts.KindByName(mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", fields[1])
	}
	if fault && kind != insts.KindLD && kind != insts.KindST {
		return nil, fmt.Errorf("fault marker on non-memory op %q", fields[1])
	}

	op := &insts.MicroOp{PC: pc, Kind: kind, Fault: fault}
	return op, parseOperands(op, fields[2:])
}

func parseOperands(op *insts.MicroOp, args []string) error {
	switch op.Kind {
	case insts.KindADD, insts.KindSUB, insts.KindAND, insts.KindOR,
		insts.KindXOR, insts.KindSLL, insts.KindSRL,
		insts.KindMUL, insts.KindDIV:
		if len(args) != 3 {
			return fmt.Errorf("%v takes 3 register operands, got %d", op.Kind, len(args))
		}
		return collectRegs(args, &op.Dest, &op.Src1, &op.Src2)

	case insts.KindADDI:
		if len(args) != 3 {
			return fmt.Errorf("addi takes %q, got %d operands", "rd, rs, imm", len(args))
		}
		if err := collectRegs(args[:2], &op.Dest, &op.Src1); err != nil {
			return err
		}
		imm, err := strconv.ParseInt(args[2], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid immediate %q: %w", args[2], err)
		}
		op.Imm = imm
		return nil

	case insts.KindLD:
		if len(args) != 2 {
			return fmt.Errorf("ld takes %q, got %d operands", "rd, imm(base)", len(args))
		}
		if err := collectRegs(args[:1], &op.Dest); err != nil {
			return err
		}
		return parseMemOperand(op, args[1])

	case insts.KindST:
		if len(args) != 2 {
			return fmt.Errorf("st takes %q, got %d operands", "rs, imm(base)", len(args))
		}
		if err := collectRegs(args[:1], &op.Src2); err != nil {
			return err
		}
		return parseMemOperand(op, args[1])

	case insts.KindBR:
		return parseBranchOperands(op, args)
	}

	return fmt.Errorf("unhandled kind %v", op.Kind)
}

// parseMemOperand parses an "imm(base)" address expression into op.Imm and
// op.Src1. A bare "(base)" means displacement zero.
func parseMemOperand(op *insts.MicroOp, arg string) error {
	open := strings.IndexByte(arg, '(')
	if open < 0 || !strings.HasSuffix(arg, ")") {
		return fmt.Errorf("invalid memory operand %q, expected imm(base)", arg)
	}

	if immTok := arg[:open]; immTok != "" {
		imm, err := strconv.ParseInt(immTok, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid displacement %q: %w", immTok, err)
		}
		op.Imm = imm
	}

	base, err := parseReg(arg[open+1 : len(arg)-1])
	if err != nil {
		return err
	}
	op.Src1 = base
	return nil
}

// parseBranchOperands parses "rs1, rs2, target, outcome" or the
// unconditional "target, outcome" form.
func parseBranchOperands(op *insts.MicroOp, args []string) error {
	switch len(args) {
	case 2:
		// no source registers
	case 4:
		if err := collectRegs(args[:2], &op.Src1, &op.Src2); err != nil {
			return err
		}
		args = args[2:]
	default:
		return fmt.Errorf("b takes %q or %q, got %d operands",
			"target, outcome", "rs1, rs2, target, outcome", len(args))
	}

	target, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid branch target %q: %w", args[0], err)
	}
	op.Target = target

	switch args[1] {
	case "taken":
		op.Taken = true
	case "ntaken":
		op.Taken = false
	default:
		return fmt.Errorf("invalid branch outcome %q, expected taken or ntaken", args[1])
	}
	return nil
}

func collectRegs(toks []string, dst ...*insts.Reg) error {
	for i, tok := range toks {
		r, err := parseReg(tok)
		if err != nil {
			return err
		}
		*dst[i] = r
	}
	return nil
}

func parseReg(tok string) (insts.Reg, error) {
	if !strings.HasPrefix(tok, "x") {
		return 0, fmt.Errorf("invalid register %q", tok)
	}
	n, err := strconv.ParseUint(tok[1:], 10, 8)
	if err != nil || n >= insts.NumRegs {
		return 0, fmt.Errorf("invalid register %q", tok)
	}
	return insts.Reg(n), nil
}
