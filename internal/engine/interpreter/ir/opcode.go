// Package ir defines the register-machine instruction set the interpreter
// core consumes: the Opcode enum, the flattened Instruction word that
// carries operands for every variant, the CodeMap the translator hands to
// the core, and the opcode-prime table used by the runtime signature.
//
// None of this package parses or validates Wasm. It describes the shape of
// already-translated bytecode; the translator (out of scope here) is the
// only producer of values in this package that the core is allowed to
// trust without re-checking.
package ir

// Opcode identifies an IR instruction variant. Go has no tagged unions, so
// every variant shares one flattened Instruction struct (see instruction.go)
// and Opcode alone selects which of its fields are meaningful — the same
// trick ssa.Instruction uses for SSA opcodes.
//
// The enum is deliberately wide: one arm per {type × operation × operand
// encoding} combination, because that is what lets the dispatch loop avoid
// runtime encoding checks on the hot path. A handful of opcodes (the
// "parameter word" group at the top) are never legal dispatch targets; they
// only ever appear as the tail of a preceding instruction.
type Opcode uint16

const (
	opcodeInvalid Opcode = iota

	// --- Parameter words -----------------------------------------------
	// These never execute as instructions. If the dispatch loop's main
	// switch reaches one, the translator produced a bogus branch target or
	// a miscounted argument list, and the loop returns a *FatalError rather
	// than a guest trap.
	OpTableIdx
	OpDataSegmentIdx
	OpElementSegmentIdx
	OpConst32
	OpI64Const32
	OpF64Const32
	OpRegister
	OpRegister2
	OpRegister3
	OpRegisterList
	OpCallIndirectParams
	OpCallIndirectParamsImm16

	// --- Misc ------------------------------------------------------------
	OpTrap
	OpConsumeFuel

	// --- Returns -----------------------------------------------------
	OpReturn
	OpReturnReg
	OpReturnReg2
	OpReturnReg3
	OpReturnImm32
	OpReturnI64Imm32
	OpReturnF64Imm32
	OpReturnSpan
	OpReturnMany
	OpReturnNez
	OpReturnNezReg
	OpReturnNezReg2
	OpReturnNezImm32
	OpReturnNezI64Imm32
	OpReturnNezF64Imm32
	OpReturnNezSpan
	OpReturnNezMany

	// --- Branches ------------------------------------------------------
	OpBranch
	OpBranchEqz
	OpBranchNez
	OpBranchTable

	// Fused compare-and-branch: one arm per {type × comparison × operand
	// shape}. Reading a register's bits for the signature mix happens only
	// for the lhs operand (spec §4.1 step 2, §4.9).
	OpBranchI32And
	OpBranchI32AndImm
	OpBranchI32Or
	OpBranchI32OrImm
	OpBranchI32Xor
	OpBranchI32XorImm
	OpBranchI32AndEqz
	OpBranchI32AndEqzImm
	OpBranchI32OrEqz
	OpBranchI32OrEqzImm
	OpBranchI32XorEqz
	OpBranchI32XorEqzImm
	OpBranchI32Eq
	OpBranchI32EqImm
	OpBranchI32Ne
	OpBranchI32NeImm
	OpBranchI32LtS
	OpBranchI32LtSImm
	OpBranchI32LtU
	OpBranchI32LtUImm
	OpBranchI32LeS
	OpBranchI32LeSImm
	OpBranchI32LeU
	OpBranchI32LeUImm
	OpBranchI32GtS
	OpBranchI32GtSImm
	OpBranchI32GtU
	OpBranchI32GtUImm
	OpBranchI32GeS
	OpBranchI32GeSImm
	OpBranchI32GeU
	OpBranchI32GeUImm
	OpBranchI64Eq
	OpBranchI64EqImm
	OpBranchI64Ne
	OpBranchI64NeImm
	OpBranchI64LtS
	OpBranchI64LtSImm
	OpBranchI64LtU
	OpBranchI64LtUImm
	OpBranchI64LeS
	OpBranchI64LeSImm
	OpBranchI64LeU
	OpBranchI64LeUImm
	OpBranchI64GtS
	OpBranchI64GtSImm
	OpBranchI64GtU
	OpBranchI64GtUImm
	OpBranchI64GeS
	OpBranchI64GeSImm
	OpBranchI64GeU
	OpBranchI64GeUImm
	OpBranchF32Eq
	OpBranchF32Ne
	OpBranchF32Lt
	OpBranchF32Le
	OpBranchF32Gt
	OpBranchF32Ge
	OpBranchF64Eq
	OpBranchF64Ne
	OpBranchF64Lt
	OpBranchF64Le
	OpBranchF64Gt
	OpBranchF64Ge
	// BranchCmpFallback carries a comparison kind and offset in its own Imm
	// word rather than in the opcode itself; its comparisons are ones the
	// fused arms above also cover, for when the fused form can't be encoded.
	OpBranchCmpFallback

	// --- Copies ----------------------------------------------------------
	OpCopy
	OpCopy2
	OpCopyImm32
	OpCopyI64Imm32
	OpCopyF64Imm32
	OpCopySpan
	OpCopySpanNonOverlapping
	OpCopyMany
	OpCopyManyNonOverlapping

	// --- Calls -------------------------------------------------------
	OpReturnCallInternal0
	OpReturnCallInternal
	OpReturnCallImported0
	OpReturnCallImported
	OpReturnCallIndirect0
	OpReturnCallIndirect
	OpCallInternal0
	OpCallInternal
	OpCallImported0
	OpCallImported
	OpCallIndirect0
	OpCallIndirect

	// --- Select ------------------------------------------------------
	// *Rhs/*Lhs inline the false/true operand respectively as a 32-bit
	// immediate; the suffix-less Imm32 forms inline both. I64Imm32/F64Imm32
	// immediates widen the way CopyI64Imm32/CopyF64Imm32 do.
	OpSelect
	OpSelectImm32Rhs
	OpSelectImm32Lhs
	OpSelectImm32
	OpSelectI64Imm32Rhs
	OpSelectI64Imm32Lhs
	OpSelectI64Imm32
	OpSelectF64Imm32Rhs
	OpSelectF64Imm32Lhs
	OpSelectF64Imm32

	// --- Tables / segments ----------------------------------------------
	OpRefFunc
	OpTableGet
	OpTableGetImm
	OpTableSize
	OpTableSet
	OpTableSetAt
	OpTableCopy
	OpTableCopyTo
	OpTableCopyFrom
	OpTableCopyFromTo
	OpTableCopyExact
	OpTableCopyToExact
	OpTableCopyFromExact
	OpTableCopyFromToExact
	OpTableInit
	OpTableInitTo
	OpTableInitFrom
	OpTableInitFromTo
	OpTableInitExact
	OpTableInitToExact
	OpTableInitFromExact
	OpTableInitFromToExact
	OpTableFill
	OpTableFillAt
	OpTableFillExact
	OpTableFillAtExact
	OpTableGrow
	OpTableGrowImm
	OpElemDrop
	OpDataDrop

	// --- Memory ------------------------------------------------------
	OpMemorySize
	OpMemoryGrow
	OpMemoryGrowBy
	OpMemoryCopy
	OpMemoryCopyTo
	OpMemoryCopyFrom
	OpMemoryCopyFromTo
	OpMemoryCopyExact
	OpMemoryCopyToExact
	OpMemoryCopyFromExact
	OpMemoryCopyFromToExact
	OpMemoryFill
	OpMemoryFillAt
	OpMemoryFillImm
	OpMemoryFillExact
	OpMemoryFillAtImm
	OpMemoryFillAtExact
	OpMemoryFillImmExact
	OpMemoryFillAtImmExact
	OpMemoryInit
	OpMemoryInitTo
	OpMemoryInitFrom
	OpMemoryInitFromTo
	OpMemoryInitExact
	OpMemoryInitToExact
	OpMemoryInitFromExact
	OpMemoryInitFromToExact

	// --- Globals -----------------------------------------------------
	OpGlobalGet
	OpGlobalSet
	OpGlobalSetI32Imm16
	OpGlobalSetI64Imm16

	// --- Loads -------------------------------------------------------
	OpI32Load
	OpI32LoadAt
	OpI32LoadOffset16
	OpI64Load
	OpI64LoadAt
	OpI64LoadOffset16
	OpF32Load
	OpF32LoadAt
	OpF32LoadOffset16
	OpF64Load
	OpF64LoadAt
	OpF64LoadOffset16
	OpI32Load8s
	OpI32Load8sAt
	OpI32Load8sOffset16
	OpI32Load8u
	OpI32Load8uAt
	OpI32Load8uOffset16
	OpI32Load16s
	OpI32Load16sAt
	OpI32Load16sOffset16
	OpI32Load16u
	OpI32Load16uAt
	OpI32Load16uOffset16
	OpI64Load8s
	OpI64Load8sAt
	OpI64Load8sOffset16
	OpI64Load8u
	OpI64Load8uAt
	OpI64Load8uOffset16
	OpI64Load16s
	OpI64Load16sAt
	OpI64Load16sOffset16
	OpI64Load16u
	OpI64Load16uAt
	OpI64Load16uOffset16
	OpI64Load32s
	OpI64Load32sAt
	OpI64Load32sOffset16
	OpI64Load32u
	OpI64Load32uAt
	OpI64Load32uOffset16

	// --- Stores ------------------------------------------------------
	OpI32Store
	OpI32StoreOffset16
	OpI32StoreOffset16Imm16
	OpI32StoreAt
	OpI32StoreAtImm16
	OpI32Store8
	OpI32Store8Offset16
	OpI32Store8Offset16Imm
	OpI32Store8At
	OpI32Store8AtImm
	OpI32Store16
	OpI32Store16Offset16
	OpI32Store16Offset16Imm
	OpI32Store16At
	OpI32Store16AtImm
	OpI64Store
	OpI64StoreOffset16
	OpI64StoreOffset16Imm16
	OpI64StoreAt
	OpI64StoreAtImm16
	OpI64Store8
	OpI64Store8Offset16
	OpI64Store8Offset16Imm
	OpI64Store8At
	OpI64Store8AtImm
	OpI64Store16
	OpI64Store16Offset16
	OpI64Store16Offset16Imm
	OpI64Store16At
	OpI64Store16AtImm
	OpI64Store32
	OpI64Store32Offset16
	OpI64Store32Offset16Imm16
	OpI64Store32At
	OpI64Store32AtImm16
	OpF32Store
	OpF32StoreOffset16
	OpF32StoreAt
	OpF64Store
	OpF64StoreOffset16
	OpF64StoreAt

	// --- Integer/float compares ------------------------------------------
	OpI32Eq
	OpI32EqImm16
	OpI64Eq
	OpI64EqImm16
	OpI32Ne
	OpI32NeImm16
	OpI64Ne
	OpI64NeImm16
	OpI32LtS
	OpI32LtU
	OpI32LtSImm16
	OpI32LtUImm16
	OpI64LtS
	OpI64LtU
	OpI64LtSImm16
	OpI64LtUImm16
	OpI32GtS
	OpI32GtU
	OpI32GtSImm16
	OpI32GtUImm16
	OpI64GtS
	OpI64GtU
	OpI64GtSImm16
	OpI64GtUImm16
	OpI32LeS
	OpI32LeU
	OpI32LeSImm16
	OpI32LeUImm16
	OpI64LeS
	OpI64LeU
	OpI64LeSImm16
	OpI64LeUImm16
	OpI32GeS
	OpI32GeU
	OpI32GeSImm16
	OpI32GeUImm16
	OpI64GeS
	OpI64GeU
	OpI64GeSImm16
	OpI64GeUImm16
	OpF32Eq
	OpF64Eq
	OpF32Ne
	OpF64Ne
	OpF32Lt
	OpF64Lt
	OpF32Le
	OpF64Le
	OpF32Gt
	OpF64Gt
	OpF32Ge
	OpF64Ge

	// --- Unary / binary arithmetic ---------------------------------------
	OpI32Clz
	OpI64Clz
	OpI32Ctz
	OpI64Ctz
	OpI32Popcnt
	OpI64Popcnt
	OpI32Add
	OpI64Add
	OpI32AddImm16
	OpI64AddImm16
	OpI32Sub
	OpI64Sub
	OpI32SubImm16
	OpI64SubImm16
	OpI32SubImm16Rev
	OpI64SubImm16Rev
	OpI32Mul
	OpI64Mul
	OpI32MulImm16
	OpI64MulImm16
	OpI32DivS
	OpI64DivS
	OpI32DivSImm16
	OpI64DivSImm16
	OpI32DivSImm16Rev
	OpI64DivSImm16Rev
	OpI32DivU
	OpI64DivU
	OpI32DivUImm16
	OpI64DivUImm16
	OpI32DivUImm16Rev
	OpI64DivUImm16Rev
	OpI32RemS
	OpI64RemS
	OpI32RemSImm16
	OpI64RemSImm16
	OpI32RemSImm16Rev
	OpI64RemSImm16Rev
	OpI32RemU
	OpI64RemU
	OpI32RemUImm16
	OpI64RemUImm16
	OpI32RemUImm16Rev
	OpI64RemUImm16Rev
	OpI32And
	OpI64And
	OpI32AndImm16
	OpI64AndImm16
	OpI32Or
	OpI64Or
	OpI32OrImm16
	OpI64OrImm16
	OpI32Xor
	OpI64Xor
	OpI32XorImm16
	OpI64XorImm16
	// Fused bitwise-op-plus-eqz: the result is 1 when the bitwise result is
	// zero, 0 otherwise. Only the i32 forms exist; the translator never
	// fuses i64 eqz this way.
	OpI32AndEqz
	OpI32AndEqzImm16
	OpI32OrEqz
	OpI32OrEqzImm16
	OpI32XorEqz
	OpI32XorEqzImm16
	OpI32Shl
	OpI64Shl
	OpI32ShlImm
	OpI64ShlImm
	OpI32ShlImm16Rev
	OpI64ShlImm16Rev
	OpI32ShrU
	OpI64ShrU
	OpI32ShrUImm
	OpI64ShrUImm
	OpI32ShrUImm16Rev
	OpI64ShrUImm16Rev
	OpI32ShrS
	OpI64ShrS
	OpI32ShrSImm
	OpI64ShrSImm
	OpI32ShrSImm16Rev
	OpI64ShrSImm16Rev
	OpI32Rotl
	OpI64Rotl
	OpI32RotlImm
	OpI64RotlImm
	OpI32RotlImm16Rev
	OpI64RotlImm16Rev
	OpI32Rotr
	OpI64Rotr
	OpI32RotrImm
	OpI64RotrImm
	OpI32RotrImm16Rev
	OpI64RotrImm16Rev

	// Float unary/binary. Every arm preserves IEEE-754 NaN-bit-pattern
	// behavior per spec §6.3; there is no fast/approximate path.
	OpF32Abs
	OpF64Abs
	OpF32Neg
	OpF64Neg
	OpF32Ceil
	OpF64Ceil
	OpF32Floor
	OpF64Floor
	OpF32Trunc
	OpF64Trunc
	OpF32Nearest
	OpF64Nearest
	OpF32Sqrt
	OpF64Sqrt
	OpF32Add
	OpF64Add
	OpF32Sub
	OpF64Sub
	OpF32Mul
	OpF64Mul
	OpF32Div
	OpF64Div
	OpF32Min
	OpF64Min
	OpF32Max
	OpF64Max
	OpF32Copysign
	OpF64Copysign
	OpF32CopysignImm
	OpF64CopysignImm

	// --- Conversions ---------------------------------------------------
	OpI32WrapI64
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S
	OpF32DemoteF64
	OpF64PromoteF32
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U

	opcodeCount
)

// isParameterWord reports whether op only ever appears as a trailing
// operand word for a preceding instruction. Such opcodes must never reach
// the dispatch loop's top-level switch; reaching one there is a translator
// bug (spec §3 class 1, §4.1).
func isParameterWord(op Opcode) bool {
	switch op {
	case OpTableIdx, OpDataSegmentIdx, OpElementSegmentIdx,
		OpConst32, OpI64Const32, OpF64Const32,
		OpRegister, OpRegister2, OpRegister3, OpRegisterList,
		OpCallIndirectParams, OpCallIndirectParamsImm16:
		return true
	default:
		return false
	}
}
