package interpreter

import "github.com/wazcore/wazcore/internal/engine/interpreter/ir"

// controlSignal tells the dispatch loop what to do after a control-flow
// kernel runs: keep stepping, jump to a new ip within the same frame, or
// pop the current frame and hand results to the caller. Arithmetic/memory/
// table kernels never need this — only the branch kernels do (spec §4).
type controlSignal struct {
	kind controlKind
	// target is the new ip (controlJump) expressed as an absolute index into
	// the CodeMap's instruction stream.
	target int
}

type controlKind byte

const (
	controlNext controlKind = iota
	controlJump
	controlReturn
)

// --- Branches (spec §4.2) -------------------------------------------------

// execBranch resolves an unconditional branch's IR-word-relative offset
// into an absolute instruction index.
func (e *Engine) execBranch(ip int, instr ir.Instruction) controlSignal {
	return controlSignal{kind: controlJump, target: ip + int(instr.BranchOffset())}
}

func (e *Engine) execBranchEqz(ip int, instr ir.Instruction) controlSignal {
	if u32FromCell(e.window.get(instr.A)) == 0 {
		return controlSignal{kind: controlJump, target: ip + int(instr.BranchOffset())}
	}
	return controlSignal{kind: controlNext}
}

func (e *Engine) execBranchNez(ip int, instr ir.Instruction) controlSignal {
	if u32FromCell(e.window.get(instr.A)) != 0 {
		return controlSignal{kind: controlJump, target: ip + int(instr.BranchOffset())}
	}
	return controlSignal{kind: controlNext}
}

// execBranchTable resolves a BranchTable instruction: instr.A holds the
// index register, instr.Imm references the out-of-line target list via
// CodeMap.BranchTableAt. An index at or beyond the table's length (minus
// the trailing default arm) clamps to the default, matching the source
// this core is grounded on rather than trapping (spec §4.2 edge case).
func (e *Engine) execBranchTable(ip int, instr ir.Instruction) controlSignal {
	targets := e.code.BranchTableAt(instr.Imm)
	idx := u32FromCell(e.window.get(instr.A))
	lastArm := len(targets) - 1 // the default arm
	sel := int(idx)
	if sel >= lastArm || sel < 0 {
		sel = lastArm
	}
	return controlSignal{kind: controlJump, target: ip + int(targets[sel])}
}

// evalFusedCond evaluates a fused compare-and-branch instruction's
// condition for operands a and b without materializing the boolean into a
// register, and reports whether the branch is taken; execFusedBranch picks
// b from register B or the inlined Imm16.
func evalFusedCond(op ir.Opcode, a, b cell) bool {
	switch op {
	case ir.OpBranchI32And, ir.OpBranchI32AndImm:
		return u32FromCell(i32And(a, b)) != 0
	case ir.OpBranchI32Or, ir.OpBranchI32OrImm:
		return u32FromCell(i32Or(a, b)) != 0
	case ir.OpBranchI32Xor, ir.OpBranchI32XorImm:
		return u32FromCell(i32Xor(a, b)) != 0
	case ir.OpBranchI32AndEqz, ir.OpBranchI32AndEqzImm:
		return u32FromCell(i32And(a, b)) == 0
	case ir.OpBranchI32OrEqz, ir.OpBranchI32OrEqzImm:
		return u32FromCell(i32Or(a, b)) == 0
	case ir.OpBranchI32XorEqz, ir.OpBranchI32XorEqzImm:
		return u32FromCell(i32Xor(a, b)) == 0
	case ir.OpBranchI32Eq, ir.OpBranchI32EqImm:
		return u32FromCell(i32Eq(a, b)) != 0
	case ir.OpBranchI32Ne, ir.OpBranchI32NeImm:
		return u32FromCell(i32Ne(a, b)) != 0
	case ir.OpBranchI32LtS, ir.OpBranchI32LtSImm:
		return u32FromCell(i32LtS(a, b)) != 0
	case ir.OpBranchI32LtU, ir.OpBranchI32LtUImm:
		return u32FromCell(i32LtU(a, b)) != 0
	case ir.OpBranchI32LeS, ir.OpBranchI32LeSImm:
		return u32FromCell(i32LeS(a, b)) != 0
	case ir.OpBranchI32LeU, ir.OpBranchI32LeUImm:
		return u32FromCell(i32LeU(a, b)) != 0
	case ir.OpBranchI32GtS, ir.OpBranchI32GtSImm:
		return u32FromCell(i32GtS(a, b)) != 0
	case ir.OpBranchI32GtU, ir.OpBranchI32GtUImm:
		return u32FromCell(i32GtU(a, b)) != 0
	case ir.OpBranchI32GeS, ir.OpBranchI32GeSImm:
		return u32FromCell(i32GeS(a, b)) != 0
	case ir.OpBranchI32GeU, ir.OpBranchI32GeUImm:
		return u32FromCell(i32GeU(a, b)) != 0

	case ir.OpBranchI64Eq, ir.OpBranchI64EqImm:
		return u32FromCell(i64Eq(a, b)) != 0
	case ir.OpBranchI64Ne, ir.OpBranchI64NeImm:
		return u32FromCell(i64Ne(a, b)) != 0
	case ir.OpBranchI64LtS, ir.OpBranchI64LtSImm:
		return u32FromCell(i64LtS(a, b)) != 0
	case ir.OpBranchI64LtU, ir.OpBranchI64LtUImm:
		return u32FromCell(i64LtU(a, b)) != 0
	case ir.OpBranchI64LeS, ir.OpBranchI64LeSImm:
		return u32FromCell(i64LeS(a, b)) != 0
	case ir.OpBranchI64LeU, ir.OpBranchI64LeUImm:
		return u32FromCell(i64LeU(a, b)) != 0
	case ir.OpBranchI64GtS, ir.OpBranchI64GtSImm:
		return u32FromCell(i64GtS(a, b)) != 0
	case ir.OpBranchI64GtU, ir.OpBranchI64GtUImm:
		return u32FromCell(i64GtU(a, b)) != 0
	case ir.OpBranchI64GeS, ir.OpBranchI64GeSImm:
		return u32FromCell(i64GeS(a, b)) != 0
	case ir.OpBranchI64GeU, ir.OpBranchI64GeUImm:
		return u32FromCell(i64GeU(a, b)) != 0

	case ir.OpBranchF32Eq:
		return u32FromCell(f32Eq(a, b)) != 0
	case ir.OpBranchF32Ne:
		return u32FromCell(f32Ne(a, b)) != 0
	case ir.OpBranchF32Lt:
		return u32FromCell(f32Lt(a, b)) != 0
	case ir.OpBranchF32Le:
		return u32FromCell(f32Le(a, b)) != 0
	case ir.OpBranchF32Gt:
		return u32FromCell(f32Gt(a, b)) != 0
	case ir.OpBranchF32Ge:
		return u32FromCell(f32Ge(a, b)) != 0
	case ir.OpBranchF64Eq:
		return u32FromCell(f64Eq(a, b)) != 0
	case ir.OpBranchF64Ne:
		return u32FromCell(f64Ne(a, b)) != 0
	case ir.OpBranchF64Lt:
		return u32FromCell(f64Lt(a, b)) != 0
	case ir.OpBranchF64Le:
		return u32FromCell(f64Le(a, b)) != 0
	case ir.OpBranchF64Gt:
		return u32FromCell(f64Gt(a, b)) != 0
	case ir.OpBranchF64Ge:
		return u32FromCell(f64Ge(a, b)) != 0
	default:
		panic("unreachable: not a fused branch opcode")
	}
}

// fusedBranchHasImm reports whether op's rhs operand is an inlined Imm16
// rather than register B. Float fused branches have no Imm form: constant
// folding a float compare is the translator's job, not the core's.
func fusedBranchHasImm(op ir.Opcode) bool {
	switch op {
	case ir.OpBranchI32AndImm, ir.OpBranchI32OrImm, ir.OpBranchI32XorImm,
		ir.OpBranchI32AndEqzImm, ir.OpBranchI32OrEqzImm, ir.OpBranchI32XorEqzImm,
		ir.OpBranchI32EqImm, ir.OpBranchI32NeImm,
		ir.OpBranchI32LtSImm, ir.OpBranchI32LtUImm, ir.OpBranchI32LeSImm, ir.OpBranchI32LeUImm,
		ir.OpBranchI32GtSImm, ir.OpBranchI32GtUImm, ir.OpBranchI32GeSImm, ir.OpBranchI32GeUImm,
		ir.OpBranchI64EqImm, ir.OpBranchI64NeImm,
		ir.OpBranchI64LtSImm, ir.OpBranchI64LtUImm, ir.OpBranchI64LeSImm, ir.OpBranchI64LeUImm,
		ir.OpBranchI64GtSImm, ir.OpBranchI64GtUImm, ir.OpBranchI64GeSImm, ir.OpBranchI64GeUImm:
		return true
	default:
		return false
	}
}

// execFusedBranch evaluates and, if taken, jumps. instr.A is always the lhs
// register; instr.B (or instr.Imm16 when fusedBranchHasImm) is the rhs; the
// branch offset rides in instr.Imm's low bits for the register form and is
// repacked via PackOffsetImm for the Imm16 form (see SPEC_FULL.md encoding
// notes) so both the immediate and the offset fit in one 64-bit Imm word.
func (e *Engine) execFusedBranch(ip int, instr ir.Instruction) controlSignal {
	a := e.window.get(instr.A)
	var b cell
	var offset int32
	if fusedBranchHasImm(instr.Op) {
		var imm16 int32
		var rawOffset uint32
		rawOffset, imm16 = ir.UnpackOffsetImm(instr.Imm)
		b = cellFromI64(int64(imm16))
		offset = int32(rawOffset)
	} else {
		b = e.window.get(instr.B)
		offset = instr.BranchOffset()
	}
	if evalFusedCond(instr.Op, a, b) {
		return controlSignal{kind: controlJump, target: ip + int(offset)}
	}
	return controlSignal{kind: controlNext}
}

// fallbackCmps indexes the comparison kinds a BranchCmpFallback instruction
// can carry: one entry per {type × cmp-op} pair whose fused arm exists, plus
// i32 And/Or/Xor (branch when nonzero); the AndEqz/OrEqz/XorEqz fused forms
// have no entry. The translator uses it when it couldn't encode the fused form (typically because the
// branch offset didn't fit the fused instruction's Imm packing).
var fallbackCmps = []func(a, b cell) cell{
	i32Eq, i32Ne, i32LtS, i32LtU, i32LeS, i32LeU, i32GtS, i32GtU, i32GeS, i32GeU,
	i64Eq, i64Ne, i64LtS, i64LtU, i64LeS, i64LeU, i64GtS, i64GtU, i64GeS, i64GeU,
	f32Eq, f32Ne, f32Lt, f32Le, f32Gt, f32Ge,
	f64Eq, f64Ne, f64Lt, f64Le, f64Gt, f64Ge,
	i32And, i32Or, i32Xor,
}

// execBranchCmpFallback handles a register-register comparison branch through
// fallbackCmps: the comparison kind (an index into fallbackCmps) rides in the high bits
// of Imm and the branch offset in the low bits, mirroring execFusedBranch's
// Imm16 packing.
func (e *Engine) execBranchCmpFallback(ip int, instr ir.Instruction) controlSignal {
	rawOffset, kind := ir.UnpackOffsetImm(instr.Imm)
	a, b := e.window.get(instr.A), e.window.get(instr.B)
	if u32FromCell(fallbackCmps[kind](a, b)) != 0 {
		return controlSignal{kind: controlJump, target: ip + int(int32(rawOffset))}
	}
	return controlSignal{kind: controlNext}
}

// --- Returns (spec §4.3) --------------------------------------------------

// returnNezTaken reports whether a ReturnNez* instruction's condition
// register is nonzero; instr.A always carries the condition, uniformly
// across every ReturnNez* shape (see decodeReturnValues).
func (e *Engine) returnNezTaken(instr ir.Instruction) bool {
	return u32FromCell(e.window.get(instr.A)) != 0
}

func isNezReturn(op ir.Opcode) bool {
	return op >= ir.OpReturnNez && op <= ir.OpReturnNezMany
}

// decodeReturnValues resolves every Return*/ReturnNez* shape to its result
// cells. The register convention is uniform across both families: when a
// condition is present (Nez) it always occupies instr.A, so the Nez forms
// simply drop the A slot from the value set a non-Nez sibling of the same
// shape would use (Reg2 without a condition reads Result,A; ReturnNezReg2
// reads Result,B instead, since A is taken by the condition). Span/Many
// forms carry their register info in Imm (a count or a RegList reference)
// and so are unaffected by the presence of a condition register.
func (e *Engine) decodeReturnValues(instr ir.Instruction) []cell {
	w := e.window
	switch instr.Op {
	case ir.OpReturn, ir.OpReturnNez:
		return nil
	case ir.OpReturnReg:
		return []cell{w.get(instr.Result)}
	case ir.OpReturnNezReg:
		return []cell{w.get(instr.Result)}
	case ir.OpReturnReg2:
		return []cell{w.get(instr.Result), w.get(instr.A)}
	case ir.OpReturnNezReg2:
		return []cell{w.get(instr.Result), w.get(instr.B)}
	case ir.OpReturnReg3:
		return []cell{w.get(instr.Result), w.get(instr.A), w.get(instr.B)}
	case ir.OpReturnImm32:
		return []cell{cellFromI32(int32(instr.Const32()))}
	case ir.OpReturnNezImm32:
		return []cell{cellFromI32(int32(instr.Const32()))}
	case ir.OpReturnI64Imm32:
		return []cell{cellFromI64(instr.I64FromImm32())}
	case ir.OpReturnNezI64Imm32:
		return []cell{cellFromI64(instr.I64FromImm32())}
	case ir.OpReturnF64Imm32:
		return []cell{cellFromF64(instr.F64FromImm32())}
	case ir.OpReturnNezF64Imm32:
		return []cell{cellFromF64(instr.F64FromImm32())}
	case ir.OpReturnSpan, ir.OpReturnNezSpan:
		count := int(instr.Const32())
		out := make([]cell, count)
		for i := 0; i < count; i++ {
			out[i] = w.get(instr.Result + ir.Reg(i))
		}
		return out
	case ir.OpReturnMany, ir.OpReturnNezMany:
		regs := e.code.RegListAt(instr.Imm)
		out := make([]cell, len(regs))
		for i, r := range regs {
			out[i] = w.get(r)
		}
		return out
	default:
		panic("unreachable: not a return opcode")
	}
}

// stepReturn implements the whole Return*/ReturnNez* family (spec §4.3):
// for Nez variants, a false condition is a no-op (advance); otherwise the
// result cells are computed, the frame is popped, and either the caller's
// window receives them (non-root) or they become the final Result (root).
func (e *Engine) stepReturn(frame *callFrame, instr ir.Instruction) (stepResult, *HostCall, TrapKind, error) {
	if isNezReturn(instr.Op) && !e.returnNezTaken(instr) {
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	}
	values := e.decodeReturnValues(instr)
	e.calls.pop()
	if e.calls.depth() == 0 {
		return stepResult{kind: stepReturn, results: values}, nil, TrapNone, nil
	}
	// frame.resultsBase indexes the *caller's* window: the span the caller's
	// call instruction designated to receive this frame's results.
	caller := e.calls.top()
	for i, v := range values {
		e.stack.values[caller.baseOffset+frame.resultsBase+i] = v
	}
	return stepResult{kind: stepReplaceFrame, frame: caller}, nil, TrapNone, nil
}
