package interpreter

import (
	"encoding/binary"

	"github.com/wazcore/wazcore/internal/engine/interpreter/ir"
)

// Load/store addressing (spec §4.5). Every variant reduces to one effective
// address: eff = ptr + offset, where ptr comes from a register (the
// "ptr+dynamic-offset"/"ptr+static-offset16" families) or is implicitly zero
// (the "absolute-address"/"address+imm-value" "At" families, whose whole
// address lives in the offset). This module folds offset (and, for *Imm*
// store variants, the stored value) into Instruction.Imm directly rather
// than via a trailing Const32 parameter word — see SPEC_FULL.md.
//
// loadShape/storeShape describe one opcode's width and sign-extension
// (whether ptr comes from a register is decided by instr.A != NoReg);
// execLoad/execStore are the two
// generic kernels every Load*/Store* opcode reduces to. This mirrors how a
// register machine interpreter shares one load/store routine parameterized
// by width+signedness rather than writing ~80 nearly-identical bodies.
type loadShape struct {
	size    int
	signed  bool // only meaningful when size < result width
	resultI64 bool
	isFloat bool
}

type storeShape struct {
	size int
}

var loadShapes = map[ir.Opcode]loadShape{
	ir.OpI32Load: {size: 4, resultI64: false}, ir.OpI32LoadAt: {size: 4}, ir.OpI32LoadOffset16: {size: 4},
	ir.OpI64Load: {size: 8, resultI64: true}, ir.OpI64LoadAt: {size: 8, resultI64: true}, ir.OpI64LoadOffset16: {size: 8, resultI64: true},
	ir.OpF32Load: {size: 4, isFloat: true}, ir.OpF32LoadAt: {size: 4, isFloat: true}, ir.OpF32LoadOffset16: {size: 4, isFloat: true},
	ir.OpF64Load: {size: 8, isFloat: true}, ir.OpF64LoadAt: {size: 8, isFloat: true}, ir.OpF64LoadOffset16: {size: 8, isFloat: true},

	ir.OpI32Load8s: {size: 1, signed: true}, ir.OpI32Load8sAt: {size: 1, signed: true}, ir.OpI32Load8sOffset16: {size: 1, signed: true},
	ir.OpI32Load8u: {size: 1}, ir.OpI32Load8uAt: {size: 1}, ir.OpI32Load8uOffset16: {size: 1},
	ir.OpI32Load16s: {size: 2, signed: true}, ir.OpI32Load16sAt: {size: 2, signed: true}, ir.OpI32Load16sOffset16: {size: 2, signed: true},
	ir.OpI32Load16u: {size: 2}, ir.OpI32Load16uAt: {size: 2}, ir.OpI32Load16uOffset16: {size: 2},

	ir.OpI64Load8s: {size: 1, signed: true, resultI64: true}, ir.OpI64Load8sAt: {size: 1, signed: true, resultI64: true}, ir.OpI64Load8sOffset16: {size: 1, signed: true, resultI64: true},
	ir.OpI64Load8u: {size: 1, resultI64: true}, ir.OpI64Load8uAt: {size: 1, resultI64: true}, ir.OpI64Load8uOffset16: {size: 1, resultI64: true},
	ir.OpI64Load16s: {size: 2, signed: true, resultI64: true}, ir.OpI64Load16sAt: {size: 2, signed: true, resultI64: true}, ir.OpI64Load16sOffset16: {size: 2, signed: true, resultI64: true},
	ir.OpI64Load16u: {size: 2, resultI64: true}, ir.OpI64Load16uAt: {size: 2, resultI64: true}, ir.OpI64Load16uOffset16: {size: 2, resultI64: true},
	ir.OpI64Load32s: {size: 4, signed: true, resultI64: true}, ir.OpI64Load32sAt: {size: 4, signed: true, resultI64: true}, ir.OpI64Load32sOffset16: {size: 4, signed: true, resultI64: true},
	ir.OpI64Load32u: {size: 4, resultI64: true}, ir.OpI64Load32uAt: {size: 4, resultI64: true}, ir.OpI64Load32uOffset16: {size: 4, resultI64: true},
}

// The "At" absolute-address variants encode no ptr register: the translator
// emits them with A set to NoReg, and execLoad/execStore treat the missing
// register as an implicit zero so the whole address lives in the offset.

// storeHasImm reports whether op carries an inlined store value (in the
// high bits of Imm, packed with the address via PackOffsetImm) rather than
// reading the value from register B.
func storeHasImm(op ir.Opcode) bool {
	switch op {
	case ir.OpI32StoreOffset16Imm16, ir.OpI32StoreAtImm16,
		ir.OpI32Store8Offset16Imm, ir.OpI32Store8AtImm, ir.OpI32Store16Offset16Imm, ir.OpI32Store16AtImm,
		ir.OpI64StoreOffset16Imm16, ir.OpI64StoreAtImm16,
		ir.OpI64Store8Offset16Imm, ir.OpI64Store8AtImm, ir.OpI64Store16Offset16Imm, ir.OpI64Store16AtImm,
		ir.OpI64Store32Offset16Imm16, ir.OpI64Store32AtImm16:
		return true
	default:
		return false
	}
}

var storeShapes = map[ir.Opcode]storeShape{
	ir.OpI32Store: {4}, ir.OpI32StoreOffset16: {4}, ir.OpI32StoreOffset16Imm16: {4}, ir.OpI32StoreAt: {4}, ir.OpI32StoreAtImm16: {4},
	ir.OpI32Store8: {1}, ir.OpI32Store8Offset16: {1}, ir.OpI32Store8Offset16Imm: {1}, ir.OpI32Store8At: {1}, ir.OpI32Store8AtImm: {1},
	ir.OpI32Store16: {2}, ir.OpI32Store16Offset16: {2}, ir.OpI32Store16Offset16Imm: {2}, ir.OpI32Store16At: {2}, ir.OpI32Store16AtImm: {2},
	ir.OpI64Store: {8}, ir.OpI64StoreOffset16: {8}, ir.OpI64StoreOffset16Imm16: {8}, ir.OpI64StoreAt: {8}, ir.OpI64StoreAtImm16: {8},
	ir.OpI64Store8: {1}, ir.OpI64Store8Offset16: {1}, ir.OpI64Store8Offset16Imm: {1}, ir.OpI64Store8At: {1}, ir.OpI64Store8AtImm: {1},
	ir.OpI64Store16: {2}, ir.OpI64Store16Offset16: {2}, ir.OpI64Store16Offset16Imm: {2}, ir.OpI64Store16At: {2}, ir.OpI64Store16AtImm: {2},
	ir.OpI64Store32: {4}, ir.OpI64Store32Offset16: {4}, ir.OpI64Store32Offset16Imm16: {4}, ir.OpI64Store32At: {4}, ir.OpI64Store32AtImm16: {4},
	ir.OpF32Store: {4}, ir.OpF32StoreOffset16: {4}, ir.OpF32StoreAt: {4},
	ir.OpF64Store: {8}, ir.OpF64StoreOffset16: {8}, ir.OpF64StoreAt: {8},
}

// execLoad reads from the default memory and writes the (possibly
// sign/zero-extended) result into instr.Result. A is the ptr register (or
// NoReg for the absolute-address "At" family); the offset is
// instr.Const32().
func (e *Engine) execLoad(instr ir.Instruction, shape loadShape) TrapKind {
	mem := e.cache.defaultMemory()
	var ptr uint64
	if instr.A != ir.NoReg {
		ptr = uint64(u32FromCell(e.window.get(instr.A)))
	}
	eff := ptr + uint64(instr.Const32())
	if eff+uint64(shape.size) > uint64(len(mem.Data)) {
		return TrapMemoryAccessOutOfBounds
	}
	raw := readLE(mem.Data[eff : eff+uint64(shape.size)])
	var v cell
	switch {
	case shape.isFloat && shape.size == 4:
		v = cell(uint32(raw))
	case shape.isFloat:
		v = raw
	case shape.resultI64:
		v = cellFromI64(extendTo64(raw, shape.size, shape.signed))
	default:
		v = cellFromI32(int32(extendTo64(raw, shape.size, shape.signed)))
	}
	e.window.set(instr.Result, v)
	return TrapNone
}

// execStore writes shape.size-width-truncated bits from either register B
// or an inlined immediate (storeHasImm) to the default memory.
func (e *Engine) execStore(instr ir.Instruction, shape storeShape, hasImm bool) TrapKind {
	mem := e.cache.defaultMemory()
	var ptr uint64
	var offset uint32
	var value cell
	if hasImm {
		var imm int32
		offset, imm = ir.UnpackOffsetImm(instr.Imm)
		value = cellFromI64(int64(imm)) // truncated to shape.size below regardless of source width
		if instr.A != ir.NoReg {
			ptr = uint64(u32FromCell(e.window.get(instr.A)))
		}
	} else {
		offset = instr.Const32()
		value = e.window.get(instr.B)
		if instr.A != ir.NoReg {
			ptr = uint64(u32FromCell(e.window.get(instr.A)))
		}
	}
	eff := ptr + uint64(offset)
	if eff+uint64(shape.size) > uint64(len(mem.Data)) {
		return TrapMemoryAccessOutOfBounds
	}
	writeLE(mem.Data[eff:eff+uint64(shape.size)], uint64(value))
	return TrapNone
}

func readLE(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		panic("unreachable: invalid load size")
	}
}

func writeLE(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		panic("unreachable: invalid store size")
	}
}

// extendTo64 sign- or zero-extends a value of the given byte width (already
// right-justified in raw) out to a full 64-bit quantity.
func extendTo64(raw uint64, size int, signed bool) int64 {
	if !signed {
		return int64(raw)
	}
	switch size {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	case 4:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

// --- Memory bulk operations (spec §4.8) -------------------------------

func (e *Engine) execMemorySize(instr ir.Instruction) TrapKind {
	mem := e.cache.defaultMemory()
	e.window.set(instr.Result, cellFromU32(mem.Size()))
	return TrapNone
}

// execMemoryGrow grows the default memory by delta pages (register or
// inlined immediate, per opcode). Returns u32::MAX without mutating memory
// if the limiter denies growth or the configured maximum would be exceeded.
func (e *Engine) execMemoryGrow(instr ir.Instruction, deltaFromImm bool) TrapKind {
	mem := e.cache.defaultMemory()
	var delta uint32
	if deltaFromImm {
		delta = instr.Const32()
	} else {
		delta = u32FromCell(e.window.get(instr.A))
	}
	current := mem.Size()
	result := current + delta
	if mem.Max != 0 && result > mem.Max {
		e.window.set(instr.Result, cellFromU32(0xffffffff))
		return TrapNone
	}
	if e.store.MemoryGrower != nil && !e.store.MemoryGrower.GrowMemory(e.cache.inst, mem, delta, result) {
		e.window.set(instr.Result, cellFromU32(0xffffffff))
		return TrapNone
	}
	grown := make([]byte, uint64(result)*65536)
	copy(grown, mem.Data)
	mem.Data = grown
	e.window.set(instr.Result, cellFromU32(current))
	return TrapNone
}

func (e *Engine) execMemoryFill(dst, val, length uint32) TrapKind {
	mem := e.cache.defaultMemory()
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(mem.Data)) {
		return TrapMemoryAccessOutOfBounds
	}
	b := byte(val)
	for i := uint32(0); i < length; i++ {
		mem.Data[dst+i] = b
	}
	return TrapNone
}

func (e *Engine) execMemoryCopy(dst, src, length uint32) TrapKind {
	mem := e.cache.defaultMemory()
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(mem.Data)) || uint64(src)+uint64(length) > uint64(len(mem.Data)) {
		return TrapMemoryAccessOutOfBounds
	}
	copy(mem.Data[dst:dst+length], mem.Data[src:src+length])
	return TrapNone
}

func (e *Engine) execMemoryInit(segIdx uint32, dst, src, length uint32) TrapKind {
	mem := e.cache.defaultMemory()
	seg := e.cache.dataSegment(segIdx)
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(mem.Data)) || uint64(src)+uint64(length) > uint64(len(seg.Bytes)) {
		return TrapMemoryAccessOutOfBounds
	}
	copy(mem.Data[dst:dst+length], seg.Bytes[src:src+length])
	return TrapNone
}

func (e *Engine) execDataDrop(segIdx uint32) {
	seg := e.cache.dataSegment(segIdx)
	seg.Bytes = seg.Bytes[:0]
}
