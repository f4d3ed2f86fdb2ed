package ir

import "math"

// Reg is a signed index into the current frame's register window (spec
// §3). Non-negative indices address locals/temporaries; the translator may
// additionally reserve a sub-range for function-local constants, which the
// core treats as ordinary pre-populated slots established at frame entry.
type Reg int16

// NoReg marks an operand slot an instruction doesn't use.
const NoReg Reg = -1

// Instruction is the flattened instruction word every Opcode variant uses.
// Go has no tagged unions, so a single struct carries the operands for all
// ~480 variants; Op alone says which fields apply to a given word, exactly
// as documented per-field below. This mirrors how wazero's ssa.Instruction
// flattens SSA opcodes in its compiler engine.
//
// Two disjoint interpretations of the operand fields exist:
//   - Register operands (Result, A, B) address the current frame window.
//   - Imm carries whatever immediate payload the opcode needs: a 16- or
//     32-bit constant, a branch offset in IR words, a side-table index, or
//     a packed pair of smaller values (see PackOffsetImm / UnpackOffsetImm).
type Instruction struct {
	Op     Opcode
	Result Reg
	A      Reg
	B      Reg
	Imm    uint64
}

// Const32 returns Imm truncated to its low 32 bits, for parameter words
// that carry a raw 32-bit constant (OpConst32 and friends).
func (i Instruction) Const32() uint32 { return uint32(i.Imm) }

// Imm16 returns Imm reinterpreted as a sign-extended 16-bit immediate, the
// shape used by every *Imm16 arithmetic/compare variant.
func (i Instruction) Imm16() int32 { return int32(int16(uint16(i.Imm))) }

// I64FromImm32 sign-extends a 32-bit encoded immediate into a 64-bit i64
// cell value, per the ReturnI64Imm32 / CopyI64Imm32 semantics.
func (i Instruction) I64FromImm32() int64 { return int64(int32(i.Imm)) }

// F64FromImm32 reconstructs an f64 from its encoded f32 bit pattern,
// per the ReturnF64Imm32 / CopyF64Imm32 semantics: the translator only
// ever encodes f64 constants representable without loss as f32.
func (i Instruction) F64FromImm32() float64 {
	return float64(math.Float32frombits(uint32(i.Imm)))
}

// BranchOffset returns the signed, IR-word-relative branch offset carried
// by unconditional/fused-compare branch instructions.
func (i Instruction) BranchOffset() int32 { return int32(i.Imm) }

// PackOffsetImm packs a 32-bit memory offset/address and a 32-bit signed
// immediate into one Imm word, used by the *Offset16Imm* / *AtImm* store
// variants that inline both an address component and the value to store,
// and reused by every other variant that needs two 32-bit payloads in one
// word (fused-branch Imm16 forms, Select's condition register).
func PackOffsetImm(offset uint32, imm int32) uint64 {
	return uint64(offset) | uint64(uint32(imm))<<32
}

// UnpackOffsetImm is the inverse of PackOffsetImm.
func UnpackOffsetImm(v uint64) (offset uint32, imm int32) {
	return uint32(v), int32(uint32(v >> 32))
}

// packListRef/unpackListRef encode a RegList/BranchTable/Triples side-table
// reference: the low 32 bits hold the index, and unpackListRef ignores the
// high 32 bits, so callers may pack other data there.
func packListRef(index int) uint64 { return uint64(uint32(index)) }

func unpackListRef(v uint64) int { return int(uint32(v)) }

// New builds an Instruction. It exists mainly so call sites (translator
// stand-ins, tests) read as "New(op, result, a, b, imm)" instead of a bare
// struct literal with four positional register fields.
func New(op Opcode, result, a, b Reg, imm uint64) Instruction {
	return Instruction{Op: op, Result: result, A: a, B: b, Imm: imm}
}

// IsParameterWord reports whether this instruction is only ever valid as a
// trailing operand word for a preceding instruction (spec §3 class 1).
func (i Instruction) IsParameterWord() bool { return isParameterWord(i.Op) }
