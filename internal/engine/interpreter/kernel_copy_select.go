package interpreter

import (
	"math"

	"github.com/wazcore/wazcore/internal/engine/interpreter/ir"
)

// execCopy implements the Copy family (spec §3 class 9, register-window
// renaming at block-join points: Wasm's implicit "phi" between a branch's
// source values and its target block's parameters). Every variant writes
// into instr.Result; the Imm32 variants materialize a constant instead of
// reading a source register.
func (e *Engine) execCopy(instr ir.Instruction) {
	w := e.window
	switch instr.Op {
	case ir.OpCopy:
		w.set(instr.Result, w.get(instr.A))
	case ir.OpCopy2:
		// Two parallel moves sharing one instruction word: (Result,A) both
		// move into (Result,Result+1) from (A,B). Evaluated as a pair (not
		// sequentially) so Copy2 can swap two registers.
		a, b := w.get(instr.A), w.get(instr.B)
		w.set(instr.Result, a)
		w.set(instr.Result+1, b)
	case ir.OpCopyImm32:
		w.set(instr.Result, cellFromI32(int32(instr.Const32())))
	case ir.OpCopyI64Imm32:
		w.set(instr.Result, cellFromI64(instr.I64FromImm32()))
	case ir.OpCopyF64Imm32:
		w.set(instr.Result, cellFromF64(instr.F64FromImm32()))
	case ir.OpCopySpan, ir.OpCopySpanNonOverlapping:
		count := int(instr.Const32())
		e.copySpan(instr.Result, instr.A, count, instr.Op == ir.OpCopySpanNonOverlapping)
	case ir.OpCopyMany, ir.OpCopyManyNonOverlapping:
		srcs := e.code.RegListAt(instr.Imm)
		e.copyMany(instr.Result, srcs, instr.Op == ir.OpCopyManyNonOverlapping)
	}
}

// copySpan moves count contiguous registers from [src, src+count) to
// [dst, dst+count). The overlapping variant must pick a copy direction (or
// go through a scratch buffer) that's correct regardless of whether the
// ranges overlap; the NonOverlapping variant is a guarantee from the
// translator that lets it skip that care and always copy forward.
func (e *Engine) copySpan(dst, src ir.Reg, count int, nonOverlapping bool) {
	w := e.window
	if nonOverlapping || dst <= src {
		for i := 0; i < count; i++ {
			w.set(dst+ir.Reg(i), w.get(src+ir.Reg(i)))
		}
		return
	}
	for i := count - 1; i >= 0; i-- {
		w.set(dst+ir.Reg(i), w.get(src+ir.Reg(i)))
	}
}

// copyMany moves len(srcs) values into the contiguous range starting at
// dst, reading every source before writing any destination when the ranges
// might overlap (the translator-guaranteed NonOverlapping variant skips the
// staging buffer).
func (e *Engine) copyMany(dst ir.Reg, srcs []ir.Reg, nonOverlapping bool) {
	w := e.window
	if nonOverlapping {
		for i, r := range srcs {
			w.set(dst+ir.Reg(i), w.get(r))
		}
		return
	}
	staged := make([]cell, len(srcs))
	for i, r := range srcs {
		staged[i] = w.get(r)
	}
	for i, v := range staged {
		w.set(dst+ir.Reg(i), v)
	}
}

// selectImmCell widens a select immediate's 32-bit encoding into a full
// cell per the opcode's type: raw i32 bits, sign-extended i64, or an f32
// bit pattern promoted to f64 — the same three rules the CopyImm32 family
// uses.
func selectImmCell(op ir.Opcode, imm int32) cell {
	switch op {
	case ir.OpSelectI64Imm32Rhs, ir.OpSelectI64Imm32Lhs, ir.OpSelectI64Imm32:
		return cellFromI64(int64(imm))
	case ir.OpSelectF64Imm32Rhs, ir.OpSelectF64Imm32Lhs, ir.OpSelectF64Imm32:
		return cellFromF64(float64(math.Float32frombits(uint32(imm))))
	default:
		return cellFromI32(imm)
	}
}

// execSelect implements Wasm's select instruction (spec §3 class 5): choose
// between two values by a boolean condition without branching. Select's
// operands don't fit in one Instruction's three register slots plus a bare
// condition, so the Imm word does double duty via PackOffsetImm, the same
// mechanism the inlined store-immediate variants use:
//
//	Select:      A = lhs reg, B = rhs reg, Imm = cond reg
//	*Rhs:        A = lhs reg, Imm = (cond reg, rhs imm32)
//	*Lhs:        A = rhs reg, Imm = (cond reg, lhs imm32)
//	both-imm32:  A = cond reg, Imm = (lhs imm32 bits, rhs imm32)
func (e *Engine) execSelect(instr ir.Instruction) {
	w := e.window
	var cond, lhs, rhs cell
	switch instr.Op {
	case ir.OpSelect:
		cond = w.get(ir.Reg(instr.Imm))
		lhs, rhs = w.get(instr.A), w.get(instr.B)
	case ir.OpSelectImm32Rhs, ir.OpSelectI64Imm32Rhs, ir.OpSelectF64Imm32Rhs:
		condReg, imm := ir.UnpackOffsetImm(instr.Imm)
		cond = w.get(ir.Reg(condReg))
		lhs, rhs = w.get(instr.A), selectImmCell(instr.Op, imm)
	case ir.OpSelectImm32Lhs, ir.OpSelectI64Imm32Lhs, ir.OpSelectF64Imm32Lhs:
		condReg, imm := ir.UnpackOffsetImm(instr.Imm)
		cond = w.get(ir.Reg(condReg))
		lhs, rhs = selectImmCell(instr.Op, imm), w.get(instr.A)
	case ir.OpSelectImm32, ir.OpSelectI64Imm32, ir.OpSelectF64Imm32:
		lhsBits, rhsImm := ir.UnpackOffsetImm(instr.Imm)
		cond = w.get(instr.A)
		lhs, rhs = selectImmCell(instr.Op, int32(lhsBits)), selectImmCell(instr.Op, rhsImm)
	}
	if u32FromCell(cond) != 0 {
		w.set(instr.Result, lhs)
	} else {
		w.set(instr.Result, rhs)
	}
}
