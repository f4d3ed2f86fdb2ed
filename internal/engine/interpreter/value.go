package interpreter

import "math"

// cell is the untyped 64-bit value every stack slot and register holds at
// rest (spec §3, C1). Type is imposed by whichever kernel reads it; cell
// itself only knows how to move bits around. The functions below give each
// {i32,i64,f32,f64} × operation pair a name instead of inlining bit-twiddling
// at every call site, mirroring UntypedVal in the source this core is
// grounded on.
type cell = uint64

func i32FromCell(c cell) int32     { return int32(uint32(c)) }
func u32FromCell(c cell) uint32    { return uint32(c) }
func i64FromCell(c cell) int64     { return int64(c) }
func u64FromCell(c cell) uint64    { return c }
func f32FromCell(c cell) float32   { return math.Float32frombits(uint32(c)) }
func f64FromCell(c cell) float64   { return math.Float64frombits(c) }

func cellFromI32(v int32) cell   { return cell(uint32(v)) }
func cellFromU32(v uint32) cell  { return cell(v) }
func cellFromI64(v int64) cell   { return cell(v) }
func cellFromU64(v uint64) cell  { return v }
func cellFromF32(v float32) cell { return cell(math.Float32bits(v)) }
func cellFromF64(v float64) cell { return math.Float64bits(v) }
func cellFromBool(b bool) cell {
	if b {
		return 1
	}
	return 0
}

// --- i32 arithmetic --------------------------------------------------------

func i32Add(a, b cell) cell { return cellFromI32(i32FromCell(a) + i32FromCell(b)) }
func i32Sub(a, b cell) cell { return cellFromI32(i32FromCell(a) - i32FromCell(b)) }
func i32Mul(a, b cell) cell { return cellFromI32(i32FromCell(a) * i32FromCell(b)) }

func i32DivS(a, b cell) (cell, TrapKind) {
	x, y := i32FromCell(a), i32FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	if x == math.MinInt32 && y == -1 {
		return 0, TrapIntegerOverflow
	}
	return cellFromI32(x / y), TrapNone
}

func i32DivU(a, b cell) (cell, TrapKind) {
	x, y := u32FromCell(a), u32FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	return cellFromU32(x / y), TrapNone
}

func i32RemS(a, b cell) (cell, TrapKind) {
	x, y := i32FromCell(a), i32FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	if x == math.MinInt32 && y == -1 {
		return 0, TrapNone // rem_s(MIN, -1) == 0, does not overflow
	}
	return cellFromI32(x % y), TrapNone
}

func i32RemU(a, b cell) (cell, TrapKind) {
	x, y := u32FromCell(a), u32FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	return cellFromU32(x % y), TrapNone
}

func i32And(a, b cell) cell { return cellFromU32(u32FromCell(a) & u32FromCell(b)) }
func i32Or(a, b cell) cell  { return cellFromU32(u32FromCell(a) | u32FromCell(b)) }
func i32Xor(a, b cell) cell { return cellFromU32(u32FromCell(a) ^ u32FromCell(b)) }

func i32Shl(a, b cell) cell { return cellFromU32(u32FromCell(a) << (u32FromCell(b) & 31)) }
func i32ShrU(a, b cell) cell {
	return cellFromU32(u32FromCell(a) >> (u32FromCell(b) & 31))
}
func i32ShrS(a, b cell) cell {
	return cellFromI32(i32FromCell(a) >> (u32FromCell(b) & 31))
}
func i32Rotl(a, b cell) cell {
	n := u32FromCell(b) & 31
	x := u32FromCell(a)
	if n == 0 {
		return cellFromU32(x)
	}
	return cellFromU32(x<<n | x>>(32-n))
}
func i32Rotr(a, b cell) cell {
	n := u32FromCell(b) & 31
	x := u32FromCell(a)
	if n == 0 {
		return cellFromU32(x)
	}
	return cellFromU32(x>>n | x<<(32-n))
}

func i32Eq(a, b cell) cell  { return cellFromBool(u32FromCell(a) == u32FromCell(b)) }
func i32Ne(a, b cell) cell  { return cellFromBool(u32FromCell(a) != u32FromCell(b)) }
func i32LtS(a, b cell) cell { return cellFromBool(i32FromCell(a) < i32FromCell(b)) }
func i32LtU(a, b cell) cell { return cellFromBool(u32FromCell(a) < u32FromCell(b)) }
func i32LeS(a, b cell) cell { return cellFromBool(i32FromCell(a) <= i32FromCell(b)) }
func i32LeU(a, b cell) cell { return cellFromBool(u32FromCell(a) <= u32FromCell(b)) }
func i32GtS(a, b cell) cell { return cellFromBool(i32FromCell(a) > i32FromCell(b)) }
func i32GtU(a, b cell) cell { return cellFromBool(u32FromCell(a) > u32FromCell(b)) }
func i32GeS(a, b cell) cell { return cellFromBool(i32FromCell(a) >= i32FromCell(b)) }
func i32GeU(a, b cell) cell { return cellFromBool(u32FromCell(a) >= u32FromCell(b)) }
func i32Eqz(a cell) cell    { return cellFromBool(u32FromCell(a) == 0) }

func i32Clz(a cell) cell {
	x := u32FromCell(a)
	n := 0
	for i := 31; i >= 0; i-- {
		if x&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return cellFromU32(uint32(n))
}
func i32Ctz(a cell) cell {
	x := u32FromCell(a)
	if x == 0 {
		return cellFromU32(32)
	}
	n := 0
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return cellFromU32(uint32(n))
}
func i32Popcnt(a cell) cell {
	x := u32FromCell(a)
	n := uint32(0)
	for x != 0 {
		n += x & 1
		x >>= 1
	}
	return cellFromU32(n)
}

// --- i64 arithmetic (same shapes as i32, widened) --------------------------

func i64Add(a, b cell) cell { return cellFromI64(i64FromCell(a) + i64FromCell(b)) }
func i64Sub(a, b cell) cell { return cellFromI64(i64FromCell(a) - i64FromCell(b)) }
func i64Mul(a, b cell) cell { return cellFromI64(i64FromCell(a) * i64FromCell(b)) }

func i64DivS(a, b cell) (cell, TrapKind) {
	x, y := i64FromCell(a), i64FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	if x == math.MinInt64 && y == -1 {
		return 0, TrapIntegerOverflow
	}
	return cellFromI64(x / y), TrapNone
}

func i64DivU(a, b cell) (cell, TrapKind) {
	x, y := u64FromCell(a), u64FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	return cellFromU64(x / y), TrapNone
}

func i64RemS(a, b cell) (cell, TrapKind) {
	x, y := i64FromCell(a), i64FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	if x == math.MinInt64 && y == -1 {
		return 0, TrapNone
	}
	return cellFromI64(x % y), TrapNone
}

func i64RemU(a, b cell) (cell, TrapKind) {
	x, y := u64FromCell(a), u64FromCell(b)
	if y == 0 {
		return 0, TrapIntegerDivisionByZero
	}
	return cellFromU64(x % y), TrapNone
}

func i64And(a, b cell) cell  { return a & b }
func i64Or(a, b cell) cell   { return a | b }
func i64Xor(a, b cell) cell  { return a ^ b }
func i64Shl(a, b cell) cell  { return cellFromU64(u64FromCell(a) << (u64FromCell(b) & 63)) }
func i64ShrU(a, b cell) cell { return cellFromU64(u64FromCell(a) >> (u64FromCell(b) & 63)) }
func i64ShrS(a, b cell) cell { return cellFromI64(i64FromCell(a) >> (u64FromCell(b) & 63)) }
func i64Rotl(a, b cell) cell {
	n := u64FromCell(b) & 63
	x := u64FromCell(a)
	if n == 0 {
		return cellFromU64(x)
	}
	return cellFromU64(x<<n | x>>(64-n))
}
func i64Rotr(a, b cell) cell {
	n := u64FromCell(b) & 63
	x := u64FromCell(a)
	if n == 0 {
		return cellFromU64(x)
	}
	return cellFromU64(x>>n | x<<(64-n))
}

func i64Eq(a, b cell) cell  { return cellFromBool(a == b) }
func i64Ne(a, b cell) cell  { return cellFromBool(a != b) }
func i64LtS(a, b cell) cell { return cellFromBool(i64FromCell(a) < i64FromCell(b)) }
func i64LtU(a, b cell) cell { return cellFromBool(u64FromCell(a) < u64FromCell(b)) }
func i64LeS(a, b cell) cell { return cellFromBool(i64FromCell(a) <= i64FromCell(b)) }
func i64LeU(a, b cell) cell { return cellFromBool(u64FromCell(a) <= u64FromCell(b)) }
func i64GtS(a, b cell) cell { return cellFromBool(i64FromCell(a) > i64FromCell(b)) }
func i64GtU(a, b cell) cell { return cellFromBool(u64FromCell(a) > u64FromCell(b)) }
func i64GeS(a, b cell) cell { return cellFromBool(i64FromCell(a) >= i64FromCell(b)) }
func i64GeU(a, b cell) cell { return cellFromBool(u64FromCell(a) >= u64FromCell(b)) }
func i64Eqz(a cell) cell    { return cellFromBool(u64FromCell(a) == 0) }

func i64Clz(a cell) cell {
	x := u64FromCell(a)
	n := 0
	for i := 63; i >= 0; i-- {
		if x&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return cellFromU64(uint64(n))
}
func i64Ctz(a cell) cell {
	x := u64FromCell(a)
	if x == 0 {
		return cellFromU64(64)
	}
	n := 0
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return cellFromU64(uint64(n))
}
func i64Popcnt(a cell) cell {
	x := u64FromCell(a)
	n := uint64(0)
	for x != 0 {
		n += x & 1
		x >>= 1
	}
	return cellFromU64(n)
}

// --- f32/f64 arithmetic -----------------------------------------------------
//
// Go's math.Float32/64 operations already follow IEEE-754 NaN-propagation
// and signed-zero rules, so these wrappers exist purely to name the
// {type × op} pair; there is no extra normalization needed beyond min/max
// (which Wasm defines as NaN-propagating, unlike plain float comparison)
// and copysign (which Go's math.Copysign already implements correctly).

func f32Add(a, b cell) cell { return cellFromF32(f32FromCell(a) + f32FromCell(b)) }
func f32Sub(a, b cell) cell { return cellFromF32(f32FromCell(a) - f32FromCell(b)) }
func f32Mul(a, b cell) cell { return cellFromF32(f32FromCell(a) * f32FromCell(b)) }
func f32Div(a, b cell) cell { return cellFromF32(f32FromCell(a) / f32FromCell(b)) }
func f32Min(a, b cell) cell { return cellFromF32(wasmMinF32(f32FromCell(a), f32FromCell(b))) }
func f32Max(a, b cell) cell { return cellFromF32(wasmMaxF32(f32FromCell(a), f32FromCell(b))) }
func f32Copysign(a, b cell) cell {
	return cellFromF32(float32(math.Copysign(float64(f32FromCell(a)), float64(f32FromCell(b)))))
}
func f32Abs(a cell) cell  { return cellFromF32(float32(math.Abs(float64(f32FromCell(a))))) }
func f32Neg(a cell) cell  { return cellFromF32(-f32FromCell(a)) }
func f32Ceil(a cell) cell { return cellFromF32(float32(math.Ceil(float64(f32FromCell(a))))) }
func f32Floor(a cell) cell {
	return cellFromF32(float32(math.Floor(float64(f32FromCell(a)))))
}
func f32Trunc(a cell) cell {
	return cellFromF32(float32(math.Trunc(float64(f32FromCell(a)))))
}
func f32Nearest(a cell) cell {
	return cellFromF32(float32(math.RoundToEven(float64(f32FromCell(a)))))
}
func f32Sqrt(a cell) cell { return cellFromF32(float32(math.Sqrt(float64(f32FromCell(a))))) }

func f32Eq(a, b cell) cell { return cellFromBool(f32FromCell(a) == f32FromCell(b)) }
func f32Ne(a, b cell) cell { return cellFromBool(f32FromCell(a) != f32FromCell(b)) }
func f32Lt(a, b cell) cell { return cellFromBool(f32FromCell(a) < f32FromCell(b)) }
func f32Le(a, b cell) cell { return cellFromBool(f32FromCell(a) <= f32FromCell(b)) }
func f32Gt(a, b cell) cell { return cellFromBool(f32FromCell(a) > f32FromCell(b)) }
func f32Ge(a, b cell) cell { return cellFromBool(f32FromCell(a) >= f32FromCell(b)) }

func f64Add(a, b cell) cell { return cellFromF64(f64FromCell(a) + f64FromCell(b)) }
func f64Sub(a, b cell) cell { return cellFromF64(f64FromCell(a) - f64FromCell(b)) }
func f64Mul(a, b cell) cell { return cellFromF64(f64FromCell(a) * f64FromCell(b)) }
func f64Div(a, b cell) cell { return cellFromF64(f64FromCell(a) / f64FromCell(b)) }
func f64Min(a, b cell) cell { return cellFromF64(wasmMinF64(f64FromCell(a), f64FromCell(b))) }
func f64Max(a, b cell) cell { return cellFromF64(wasmMaxF64(f64FromCell(a), f64FromCell(b))) }
func f64Copysign(a, b cell) cell {
	return cellFromF64(math.Copysign(f64FromCell(a), f64FromCell(b)))
}
func f64Abs(a cell) cell     { return cellFromF64(math.Abs(f64FromCell(a))) }
func f64Neg(a cell) cell     { return cellFromF64(-f64FromCell(a)) }
func f64Ceil(a cell) cell    { return cellFromF64(math.Ceil(f64FromCell(a))) }
func f64Floor(a cell) cell   { return cellFromF64(math.Floor(f64FromCell(a))) }
func f64Trunc(a cell) cell   { return cellFromF64(math.Trunc(f64FromCell(a))) }
func f64Nearest(a cell) cell { return cellFromF64(math.RoundToEven(f64FromCell(a))) }
func f64Sqrt(a cell) cell    { return cellFromF64(math.Sqrt(f64FromCell(a))) }

func f64Eq(a, b cell) cell { return cellFromBool(f64FromCell(a) == f64FromCell(b)) }
func f64Ne(a, b cell) cell { return cellFromBool(f64FromCell(a) != f64FromCell(b)) }
func f64Lt(a, b cell) cell { return cellFromBool(f64FromCell(a) < f64FromCell(b)) }
func f64Le(a, b cell) cell { return cellFromBool(f64FromCell(a) <= f64FromCell(b)) }
func f64Gt(a, b cell) cell { return cellFromBool(f64FromCell(a) > f64FromCell(b)) }
func f64Ge(a, b cell) cell { return cellFromBool(f64FromCell(a) >= f64FromCell(b)) }

// wasmMinF32/wasmMaxF32/wasmMinF64/wasmMaxF64 implement Wasm's NaN-propagating
// min/max: if either operand is NaN the result is NaN; -0 is less than +0.
func wasmMinF32(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func wasmMaxF32(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

func wasmMinF64(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func wasmMaxF64(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

// --- conversions ------------------------------------------------------------

func i32WrapI64(a cell) cell { return cellFromI32(int32(i64FromCell(a))) }

func i64ExtendI32S(a cell) cell { return cellFromI64(int64(i32FromCell(a))) }
func i64ExtendI32U(a cell) cell { return cellFromI64(int64(u32FromCell(a))) }

func i32Extend8S(a cell) cell  { return cellFromI32(int32(int8(u32FromCell(a)))) }
func i32Extend16S(a cell) cell { return cellFromI32(int32(int16(u32FromCell(a)))) }
func i64Extend8S(a cell) cell  { return cellFromI64(int64(int8(u64FromCell(a)))) }
func i64Extend16S(a cell) cell { return cellFromI64(int64(int16(u64FromCell(a)))) }
func i64Extend32S(a cell) cell { return cellFromI64(int64(int32(u64FromCell(a)))) }

func f32DemoteF64(a cell) cell  { return cellFromF32(float32(f64FromCell(a))) }
func f64PromoteF32(a cell) cell { return cellFromF64(float64(f32FromCell(a))) }

func f32ConvertI32S(a cell) cell { return cellFromF32(float32(i32FromCell(a))) }
func f32ConvertI32U(a cell) cell { return cellFromF32(float32(u32FromCell(a))) }
func f32ConvertI64S(a cell) cell { return cellFromF32(float32(i64FromCell(a))) }
func f32ConvertI64U(a cell) cell { return cellFromF32(float32(u64FromCell(a))) }
func f64ConvertI32S(a cell) cell { return cellFromF64(float64(i32FromCell(a))) }
func f64ConvertI32U(a cell) cell { return cellFromF64(float64(u32FromCell(a))) }
func f64ConvertI64S(a cell) cell { return cellFromF64(float64(i64FromCell(a))) }
func f64ConvertI64U(a cell) cell { return cellFromF64(float64(u64FromCell(a))) }

// truncF64ToI{32,64}{S,U} implement the trapping float-to-int conversions:
// NaN traps InvalidConversionToInteger, out-of-range traps IntegerOverflow.
func truncF64ToI32S(f float64) (cell, TrapKind) {
	if math.IsNaN(f) {
		return 0, TrapInvalidConversionToInteger
	}
	// The valid range is open below at MinInt32-1: values in
	// (MinInt32-1, MinInt32] truncate to MinInt32 and must not trap.
	if f <= -2147483649.0 || f >= math.MaxInt32+1 {
		return 0, TrapIntegerOverflow
	}
	return cellFromI32(int32(f)), TrapNone
}

func truncF64ToI32U(f float64) (cell, TrapKind) {
	if math.IsNaN(f) {
		return 0, TrapInvalidConversionToInteger
	}
	if f <= -1 || f >= math.MaxUint32+1 {
		return 0, TrapIntegerOverflow
	}
	return cellFromU32(uint32(f)), TrapNone
}

func truncF64ToI64S(f float64) (cell, TrapKind) {
	if math.IsNaN(f) {
		return 0, TrapInvalidConversionToInteger
	}
	// 2**63 is exactly representable as float64 and is the tight upper
	// bound: anything >= it (or < MinInt64) doesn't fit in an i64.
	if f < math.MinInt64 || f >= 9223372036854775808.0 {
		return 0, TrapIntegerOverflow
	}
	return cellFromI64(int64(f)), TrapNone
}

func truncF64ToI64U(f float64) (cell, TrapKind) {
	if math.IsNaN(f) {
		return 0, TrapInvalidConversionToInteger
	}
	if f <= -1 || f >= 18446744073709551616.0 {
		return 0, TrapIntegerOverflow
	}
	return cellFromU64(uint64(f)), TrapNone
}

// truncSat variants never trap: NaN saturates to 0, out-of-range saturates
// to the representable extreme in the direction of overflow.
func truncSatF64ToI32S(f float64) cell {
	if math.IsNaN(f) {
		return 0
	}
	if f < math.MinInt32 {
		return cellFromI32(math.MinInt32)
	}
	if f >= math.MaxInt32+1 {
		return cellFromI32(math.MaxInt32)
	}
	return cellFromI32(int32(f))
}

func truncSatF64ToI32U(f float64) cell {
	if math.IsNaN(f) || f <= -1 {
		return 0
	}
	if f >= math.MaxUint32+1 {
		return cellFromU32(math.MaxUint32)
	}
	return cellFromU32(uint32(f))
}

func truncSatF64ToI64S(f float64) cell {
	if math.IsNaN(f) {
		return 0
	}
	if f < math.MinInt64 {
		return cellFromI64(math.MinInt64)
	}
	if f >= 9223372036854775808.0 {
		return cellFromI64(math.MaxInt64)
	}
	return cellFromI64(int64(f))
}

func truncSatF64ToI64U(f float64) cell {
	if math.IsNaN(f) || f <= -1 {
		return 0
	}
	if f >= 18446744073709551616.0 {
		return cellFromU64(math.MaxUint64)
	}
	return cellFromU64(uint64(f))
}
