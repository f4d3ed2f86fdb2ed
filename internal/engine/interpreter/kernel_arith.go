package interpreter

import "github.com/wazcore/wazcore/internal/engine/interpreter/ir"

// This file implements the "Arithmetic/compare" and "Conversions" kernel
// families (spec §3 classes 6 and 10; C7). Every case in execArith mirrors
// one Opcode variant; the actual math lives in value.go (C1) so this file
// stays a dispatch table the way the teacher's wazevo SSA builder keeps
// lowering separate from its opcode table.
//
// Operand convention used throughout: Result is always the destination
// register. For register/register variants A and B hold the two source
// registers. For *Imm16 (rhs-immediate) variants A holds the one source
// register and Imm holds the sign-extended 16-bit constant (the immediate
// is the right-hand operand). For *Imm16Rev (lhs-immediate) variants A
// still holds the one source register but it is the *right*-hand operand;
// Imm is the left-hand constant (spec §9, "the non-Lhs immediate variant
// puts the immediate on the right-hand side; *Lhs puts it on the left").

// execArith dispatches every opcode in spec.md §3 classes 6 and 10. It
// returns TrapNone on success (none of these branch, so the caller advances
// ip by one) or the trap kind raised.
func (e *Engine) execArith(instr ir.Instruction) TrapKind {
	w := e.window
	switch instr.Op {
	case ir.OpI32Add:
		w.set(instr.Result, i32Add(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32AddImm16:
		w.set(instr.Result, i32Add(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32Sub:
		w.set(instr.Result, i32Sub(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32SubImm16:
		w.set(instr.Result, i32Sub(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32SubImm16Rev:
		w.set(instr.Result, i32Sub(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI32Mul:
		w.set(instr.Result, i32Mul(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32MulImm16:
		w.set(instr.Result, i32Mul(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32DivS:
		v, tk := i32DivS(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32DivSImm16:
		v, tk := i32DivS(w.get(instr.A), cellFromI32(instr.Imm16()))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32DivSImm16Rev:
		v, tk := i32DivS(cellFromI32(instr.Imm16()), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32DivU:
		v, tk := i32DivU(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32DivUImm16:
		v, tk := i32DivU(w.get(instr.A), cellFromI32(instr.Imm16()))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32DivUImm16Rev:
		v, tk := i32DivU(cellFromI32(instr.Imm16()), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemS:
		v, tk := i32RemS(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemSImm16:
		v, tk := i32RemS(w.get(instr.A), cellFromI32(instr.Imm16()))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemSImm16Rev:
		v, tk := i32RemS(cellFromI32(instr.Imm16()), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemU:
		v, tk := i32RemU(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemUImm16:
		v, tk := i32RemU(w.get(instr.A), cellFromI32(instr.Imm16()))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32RemUImm16Rev:
		v, tk := i32RemU(cellFromI32(instr.Imm16()), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32And:
		w.set(instr.Result, i32And(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32AndImm16:
		w.set(instr.Result, i32And(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32Or:
		w.set(instr.Result, i32Or(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32OrImm16:
		w.set(instr.Result, i32Or(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32Xor:
		w.set(instr.Result, i32Xor(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32XorImm16:
		w.set(instr.Result, i32Xor(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32AndEqz:
		w.set(instr.Result, i32Eqz(i32And(w.get(instr.A), w.get(instr.B))))
	case ir.OpI32AndEqzImm16:
		w.set(instr.Result, i32Eqz(i32And(w.get(instr.A), cellFromI32(instr.Imm16()))))
	case ir.OpI32OrEqz:
		w.set(instr.Result, i32Eqz(i32Or(w.get(instr.A), w.get(instr.B))))
	case ir.OpI32OrEqzImm16:
		w.set(instr.Result, i32Eqz(i32Or(w.get(instr.A), cellFromI32(instr.Imm16()))))
	case ir.OpI32XorEqz:
		w.set(instr.Result, i32Eqz(i32Xor(w.get(instr.A), w.get(instr.B))))
	case ir.OpI32XorEqzImm16:
		w.set(instr.Result, i32Eqz(i32Xor(w.get(instr.A), cellFromI32(instr.Imm16()))))
	case ir.OpI64Add:
		w.set(instr.Result, i64Add(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64AddImm16:
		w.set(instr.Result, i64Add(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64Sub:
		w.set(instr.Result, i64Sub(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64SubImm16:
		w.set(instr.Result, i64Sub(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64SubImm16Rev:
		w.set(instr.Result, i64Sub(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI64Mul:
		w.set(instr.Result, i64Mul(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64MulImm16:
		w.set(instr.Result, i64Mul(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64DivS:
		v, tk := i64DivS(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64DivSImm16:
		v, tk := i64DivS(w.get(instr.A), cellFromI64(int64(instr.Imm16())))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64DivSImm16Rev:
		v, tk := i64DivS(cellFromI64(int64(instr.Imm16())), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64DivU:
		v, tk := i64DivU(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64DivUImm16:
		v, tk := i64DivU(w.get(instr.A), cellFromI64(int64(instr.Imm16())))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64DivUImm16Rev:
		v, tk := i64DivU(cellFromI64(int64(instr.Imm16())), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemS:
		v, tk := i64RemS(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemSImm16:
		v, tk := i64RemS(w.get(instr.A), cellFromI64(int64(instr.Imm16())))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemSImm16Rev:
		v, tk := i64RemS(cellFromI64(int64(instr.Imm16())), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemU:
		v, tk := i64RemU(w.get(instr.A), w.get(instr.B))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemUImm16:
		v, tk := i64RemU(w.get(instr.A), cellFromI64(int64(instr.Imm16())))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64RemUImm16Rev:
		v, tk := i64RemU(cellFromI64(int64(instr.Imm16())), w.get(instr.A))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64And:
		w.set(instr.Result, i64And(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64AndImm16:
		w.set(instr.Result, i64And(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64Or:
		w.set(instr.Result, i64Or(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64OrImm16:
		w.set(instr.Result, i64Or(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64Xor:
		w.set(instr.Result, i64Xor(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64XorImm16:
		w.set(instr.Result, i64Xor(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI32Shl:
		w.set(instr.Result, i32Shl(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32ShlImm:
		w.set(instr.Result, i32Shl(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32ShlImm16Rev:
		w.set(instr.Result, i32Shl(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI32ShrU:
		w.set(instr.Result, i32ShrU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32ShrUImm:
		w.set(instr.Result, i32ShrU(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32ShrUImm16Rev:
		w.set(instr.Result, i32ShrU(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI32ShrS:
		w.set(instr.Result, i32ShrS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32ShrSImm:
		w.set(instr.Result, i32ShrS(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32ShrSImm16Rev:
		w.set(instr.Result, i32ShrS(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI32Rotl:
		w.set(instr.Result, i32Rotl(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32RotlImm:
		w.set(instr.Result, i32Rotl(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32RotlImm16Rev:
		w.set(instr.Result, i32Rotl(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI32Rotr:
		w.set(instr.Result, i32Rotr(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32RotrImm:
		w.set(instr.Result, i32Rotr(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32RotrImm16Rev:
		w.set(instr.Result, i32Rotr(cellFromI32(instr.Imm16()), w.get(instr.A)))
	case ir.OpI64Shl:
		w.set(instr.Result, i64Shl(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64ShlImm:
		w.set(instr.Result, i64Shl(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64ShlImm16Rev:
		w.set(instr.Result, i64Shl(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI64ShrU:
		w.set(instr.Result, i64ShrU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64ShrUImm:
		w.set(instr.Result, i64ShrU(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64ShrUImm16Rev:
		w.set(instr.Result, i64ShrU(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI64ShrS:
		w.set(instr.Result, i64ShrS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64ShrSImm:
		w.set(instr.Result, i64ShrS(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64ShrSImm16Rev:
		w.set(instr.Result, i64ShrS(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI64Rotl:
		w.set(instr.Result, i64Rotl(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64RotlImm:
		w.set(instr.Result, i64Rotl(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64RotlImm16Rev:
		w.set(instr.Result, i64Rotl(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI64Rotr:
		w.set(instr.Result, i64Rotr(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64RotrImm:
		w.set(instr.Result, i64Rotr(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64RotrImm16Rev:
		w.set(instr.Result, i64Rotr(cellFromI64(int64(instr.Imm16())), w.get(instr.A)))
	case ir.OpI32Eq:
		w.set(instr.Result, i32Eq(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32EqImm16:
		w.set(instr.Result, i32Eq(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32Ne:
		w.set(instr.Result, i32Ne(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32NeImm16:
		w.set(instr.Result, i32Ne(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32LtS:
		w.set(instr.Result, i32LtS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32LtSImm16:
		w.set(instr.Result, i32LtS(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32LtU:
		w.set(instr.Result, i32LtU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32LtUImm16:
		w.set(instr.Result, i32LtU(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32LeS:
		w.set(instr.Result, i32LeS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32LeSImm16:
		w.set(instr.Result, i32LeS(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32LeU:
		w.set(instr.Result, i32LeU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32LeUImm16:
		w.set(instr.Result, i32LeU(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32GtS:
		w.set(instr.Result, i32GtS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32GtSImm16:
		w.set(instr.Result, i32GtS(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32GtU:
		w.set(instr.Result, i32GtU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32GtUImm16:
		w.set(instr.Result, i32GtU(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32GeS:
		w.set(instr.Result, i32GeS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32GeSImm16:
		w.set(instr.Result, i32GeS(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI32GeU:
		w.set(instr.Result, i32GeU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI32GeUImm16:
		w.set(instr.Result, i32GeU(w.get(instr.A), cellFromI32(instr.Imm16())))
	case ir.OpI64Eq:
		w.set(instr.Result, i64Eq(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64EqImm16:
		w.set(instr.Result, i64Eq(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64Ne:
		w.set(instr.Result, i64Ne(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64NeImm16:
		w.set(instr.Result, i64Ne(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64LtS:
		w.set(instr.Result, i64LtS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64LtSImm16:
		w.set(instr.Result, i64LtS(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64LtU:
		w.set(instr.Result, i64LtU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64LtUImm16:
		w.set(instr.Result, i64LtU(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64LeS:
		w.set(instr.Result, i64LeS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64LeSImm16:
		w.set(instr.Result, i64LeS(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64LeU:
		w.set(instr.Result, i64LeU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64LeUImm16:
		w.set(instr.Result, i64LeU(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64GtS:
		w.set(instr.Result, i64GtS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64GtSImm16:
		w.set(instr.Result, i64GtS(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64GtU:
		w.set(instr.Result, i64GtU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64GtUImm16:
		w.set(instr.Result, i64GtU(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64GeS:
		w.set(instr.Result, i64GeS(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64GeSImm16:
		w.set(instr.Result, i64GeS(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpI64GeU:
		w.set(instr.Result, i64GeU(w.get(instr.A), w.get(instr.B)))
	case ir.OpI64GeUImm16:
		w.set(instr.Result, i64GeU(w.get(instr.A), cellFromI64(int64(instr.Imm16()))))
	case ir.OpF32Add:
		w.set(instr.Result, f32Add(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Sub:
		w.set(instr.Result, f32Sub(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Mul:
		w.set(instr.Result, f32Mul(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Div:
		w.set(instr.Result, f32Div(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Min:
		w.set(instr.Result, f32Min(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Max:
		w.set(instr.Result, f32Max(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Copysign:
		w.set(instr.Result, f32Copysign(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32CopysignImm:
		sign := cell(0)
		if instr.Imm != 0 {
			sign = cellFromF32(-1)
		}
		w.set(instr.Result, f32Copysign(w.get(instr.A), sign))
	case ir.OpF32Eq:
		w.set(instr.Result, f32Eq(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Ne:
		w.set(instr.Result, f32Ne(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Lt:
		w.set(instr.Result, f32Lt(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Le:
		w.set(instr.Result, f32Le(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Gt:
		w.set(instr.Result, f32Gt(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Ge:
		w.set(instr.Result, f32Ge(w.get(instr.A), w.get(instr.B)))
	case ir.OpF32Abs:
		w.set(instr.Result, f32Abs(w.get(instr.A)))
	case ir.OpF32Neg:
		w.set(instr.Result, f32Neg(w.get(instr.A)))
	case ir.OpF32Ceil:
		w.set(instr.Result, f32Ceil(w.get(instr.A)))
	case ir.OpF32Floor:
		w.set(instr.Result, f32Floor(w.get(instr.A)))
	case ir.OpF32Trunc:
		w.set(instr.Result, f32Trunc(w.get(instr.A)))
	case ir.OpF32Nearest:
		w.set(instr.Result, f32Nearest(w.get(instr.A)))
	case ir.OpF32Sqrt:
		w.set(instr.Result, f32Sqrt(w.get(instr.A)))
	case ir.OpF64Add:
		w.set(instr.Result, f64Add(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Sub:
		w.set(instr.Result, f64Sub(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Mul:
		w.set(instr.Result, f64Mul(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Div:
		w.set(instr.Result, f64Div(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Min:
		w.set(instr.Result, f64Min(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Max:
		w.set(instr.Result, f64Max(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Copysign:
		w.set(instr.Result, f64Copysign(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64CopysignImm:
		sign := cell(0)
		if instr.Imm != 0 {
			sign = cellFromF64(-1)
		}
		w.set(instr.Result, f64Copysign(w.get(instr.A), sign))
	case ir.OpF64Eq:
		w.set(instr.Result, f64Eq(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Ne:
		w.set(instr.Result, f64Ne(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Lt:
		w.set(instr.Result, f64Lt(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Le:
		w.set(instr.Result, f64Le(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Gt:
		w.set(instr.Result, f64Gt(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Ge:
		w.set(instr.Result, f64Ge(w.get(instr.A), w.get(instr.B)))
	case ir.OpF64Abs:
		w.set(instr.Result, f64Abs(w.get(instr.A)))
	case ir.OpF64Neg:
		w.set(instr.Result, f64Neg(w.get(instr.A)))
	case ir.OpF64Ceil:
		w.set(instr.Result, f64Ceil(w.get(instr.A)))
	case ir.OpF64Floor:
		w.set(instr.Result, f64Floor(w.get(instr.A)))
	case ir.OpF64Trunc:
		w.set(instr.Result, f64Trunc(w.get(instr.A)))
	case ir.OpF64Nearest:
		w.set(instr.Result, f64Nearest(w.get(instr.A)))
	case ir.OpF64Sqrt:
		w.set(instr.Result, f64Sqrt(w.get(instr.A)))
	case ir.OpI32WrapI64:
		w.set(instr.Result, i32WrapI64(w.get(instr.A)))
	case ir.OpI64ExtendI32S:
		w.set(instr.Result, i64ExtendI32S(w.get(instr.A)))
	case ir.OpI64ExtendI32U:
		w.set(instr.Result, i64ExtendI32U(w.get(instr.A)))
	case ir.OpI32Extend8S:
		w.set(instr.Result, i32Extend8S(w.get(instr.A)))
	case ir.OpI32Extend16S:
		w.set(instr.Result, i32Extend16S(w.get(instr.A)))
	case ir.OpI64Extend8S:
		w.set(instr.Result, i64Extend8S(w.get(instr.A)))
	case ir.OpI64Extend16S:
		w.set(instr.Result, i64Extend16S(w.get(instr.A)))
	case ir.OpI64Extend32S:
		w.set(instr.Result, i64Extend32S(w.get(instr.A)))
	case ir.OpF32DemoteF64:
		w.set(instr.Result, f32DemoteF64(w.get(instr.A)))
	case ir.OpF64PromoteF32:
		w.set(instr.Result, f64PromoteF32(w.get(instr.A)))
	case ir.OpF32ConvertI32S:
		w.set(instr.Result, f32ConvertI32S(w.get(instr.A)))
	case ir.OpF32ConvertI32U:
		w.set(instr.Result, f32ConvertI32U(w.get(instr.A)))
	case ir.OpF32ConvertI64S:
		w.set(instr.Result, f32ConvertI64S(w.get(instr.A)))
	case ir.OpF32ConvertI64U:
		w.set(instr.Result, f32ConvertI64U(w.get(instr.A)))
	case ir.OpF64ConvertI32S:
		w.set(instr.Result, f64ConvertI32S(w.get(instr.A)))
	case ir.OpF64ConvertI32U:
		w.set(instr.Result, f64ConvertI32U(w.get(instr.A)))
	case ir.OpF64ConvertI64S:
		w.set(instr.Result, f64ConvertI64S(w.get(instr.A)))
	case ir.OpF64ConvertI64U:
		w.set(instr.Result, f64ConvertI64U(w.get(instr.A)))
	case ir.OpI32TruncF32S:
		v, tk := truncF64ToI32S(float64(f32FromCell(w.get(instr.A))))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32TruncF32U:
		v, tk := truncF64ToI32U(float64(f32FromCell(w.get(instr.A))))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32TruncF64S:
		v, tk := truncF64ToI32S(f64FromCell(w.get(instr.A)))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32TruncF64U:
		v, tk := truncF64ToI32U(f64FromCell(w.get(instr.A)))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64TruncF32S:
		v, tk := truncF64ToI64S(float64(f32FromCell(w.get(instr.A))))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64TruncF32U:
		v, tk := truncF64ToI64U(float64(f32FromCell(w.get(instr.A))))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64TruncF64S:
		v, tk := truncF64ToI64S(f64FromCell(w.get(instr.A)))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI64TruncF64U:
		v, tk := truncF64ToI64U(f64FromCell(w.get(instr.A)))
		if tk != TrapNone {
			return tk
		}
		w.set(instr.Result, v)
	case ir.OpI32TruncSatF32S:
		w.set(instr.Result, truncSatF64ToI32S(float64(f32FromCell(w.get(instr.A)))))
	case ir.OpI32TruncSatF32U:
		w.set(instr.Result, truncSatF64ToI32U(float64(f32FromCell(w.get(instr.A)))))
	case ir.OpI32TruncSatF64S:
		w.set(instr.Result, truncSatF64ToI32S(f64FromCell(w.get(instr.A))))
	case ir.OpI32TruncSatF64U:
		w.set(instr.Result, truncSatF64ToI32U(f64FromCell(w.get(instr.A))))
	case ir.OpI64TruncSatF32S:
		w.set(instr.Result, truncSatF64ToI64S(float64(f32FromCell(w.get(instr.A)))))
	case ir.OpI64TruncSatF32U:
		w.set(instr.Result, truncSatF64ToI64U(float64(f32FromCell(w.get(instr.A)))))
	case ir.OpI64TruncSatF64S:
		w.set(instr.Result, truncSatF64ToI64S(f64FromCell(w.get(instr.A))))
	case ir.OpI64TruncSatF64U:
		w.set(instr.Result, truncSatF64ToI64U(f64FromCell(w.get(instr.A))))
	case ir.OpI32Clz:
		w.set(instr.Result, i32Clz(w.get(instr.A)))
	case ir.OpI32Ctz:
		w.set(instr.Result, i32Ctz(w.get(instr.A)))
	case ir.OpI32Popcnt:
		w.set(instr.Result, i32Popcnt(w.get(instr.A)))
	case ir.OpI64Clz:
		w.set(instr.Result, i64Clz(w.get(instr.A)))
	case ir.OpI64Ctz:
		w.set(instr.Result, i64Ctz(w.get(instr.A)))
	case ir.OpI64Popcnt:
		w.set(instr.Result, i64Popcnt(w.get(instr.A)))
	default:
		return TrapUnreachableCodeReached
	}
	return TrapNone
}
