package interpreter

import "github.com/wazcore/wazcore/internal/engine/interpreter/ir"

// bulkMasks maps each specialized bulk memory/table opcode to a 3-bit mask
// describing which of its three logical operands {slot0, slot1, slot2} are
// constant-folded (bit set) vs register-sourced (bit clear). The naming
// convention every "*To"/"*From"/"*At"/"*Imm"/"*Exact" family follows is:
// slot0 (dst) is constant when the opcode contains "To" (Copy/Init
// families) or "At" (Fill family); slot1 (src for Copy/Init, fill value
// for Fill) is constant when the opcode contains "From" (Copy/Init) or
// "Imm" (Fill); slot2 (len) is constant when the opcode contains "Exact".
// This lets one decoder (decodeBulk3) serve every variant instead of one
// hand-written case per combination.
var bulkMasks = map[ir.Opcode]uint8{
	ir.OpTableCopy: 0, ir.OpTableCopyTo: 1, ir.OpTableCopyFrom: 2, ir.OpTableCopyFromTo: 3,
	ir.OpTableCopyExact: 4, ir.OpTableCopyToExact: 5, ir.OpTableCopyFromExact: 6, ir.OpTableCopyFromToExact: 7,

	ir.OpTableInit: 0, ir.OpTableInitTo: 1, ir.OpTableInitFrom: 2, ir.OpTableInitFromTo: 3,
	ir.OpTableInitExact: 4, ir.OpTableInitToExact: 5, ir.OpTableInitFromExact: 6, ir.OpTableInitFromToExact: 7,

	ir.OpTableFill: 0, ir.OpTableFillAt: 1, ir.OpTableFillExact: 4, ir.OpTableFillAtExact: 5,

	ir.OpMemoryCopy: 0, ir.OpMemoryCopyTo: 1, ir.OpMemoryCopyFrom: 2, ir.OpMemoryCopyFromTo: 3,
	ir.OpMemoryCopyExact: 4, ir.OpMemoryCopyToExact: 5, ir.OpMemoryCopyFromExact: 6, ir.OpMemoryCopyFromToExact: 7,

	ir.OpMemoryInit: 0, ir.OpMemoryInitTo: 1, ir.OpMemoryInitFrom: 2, ir.OpMemoryInitFromTo: 3,
	ir.OpMemoryInitExact: 4, ir.OpMemoryInitToExact: 5, ir.OpMemoryInitFromExact: 6, ir.OpMemoryInitFromToExact: 7,

	ir.OpMemoryFill: 0, ir.OpMemoryFillAt: 1, ir.OpMemoryFillImm: 2, ir.OpMemoryFillAtImm: 3,
	ir.OpMemoryFillExact: 4, ir.OpMemoryFillAtExact: 5, ir.OpMemoryFillImmExact: 6, ir.OpMemoryFillAtImmExact: 7,
}

// Bulk table/memory instructions additionally carry one or two small index
// constants (which table(s), which segment) that the translator always
// knows statically — Wasm never makes a table-or-segment index
// register-dynamic. These ride in the high 32 bits of Instruction.Imm,
// alongside the ConstTriples side-table reference in the low 32 bits
// (unpackListRef already only reads the low half, so the two halves never
// collide). bulkIndex16 splits the high half into two 16-bit indices for
// the two-index families (TableCopy's {dst,src} tables, TableInit's
// {table,segment}); bulkIndex32 reads it whole for the one-index families
// (TableFill's table, MemoryInit's segment).
func bulkIndex16(instr ir.Instruction) (hi, lo uint16) {
	packed := uint32(instr.Imm >> 32)
	return uint16(packed >> 16), uint16(packed)
}

func bulkIndex32(instr ir.Instruction) uint32 {
	return uint32(instr.Imm >> 32)
}

// decodeBulk3 resolves a bulk instruction's three logical operands
// (slot0, slot1, slot2) given mask. Register-sourced slots consume
// instr.Result, instr.A, instr.B in that order (no "result register" is
// needed by any of these opcodes, so all three double as plain operand
// slots, the same convention used for ReturnReg3 in kernel_control.go).
func (e *Engine) decodeBulk3(instr ir.Instruction, mask uint8) (slot0, slot1, slot2 uint32) {
	var triple ir.ConstTriples
	if mask != 0 {
		triple = e.code.ConstTripleAt(instr.Imm)
	}
	regs := [3]ir.Reg{instr.Result, instr.A, instr.B}
	ri := 0
	vals := [3]uint32{}
	for i := 0; i < 3; i++ {
		if mask&(1<<uint(i)) != 0 {
			vals[i] = triple[i]
		} else {
			vals[i] = u32FromCell(e.window.get(regs[ri]))
			ri++
		}
	}
	return vals[0], vals[1], vals[2]
}

// --- Globals (spec §4.8) -----------------------------------------------

func (e *Engine) execGlobalGet(instr ir.Instruction) {
	g := e.cache.global(instr.Const32())
	e.window.set(instr.Result, cell(g.Value))
}

func (e *Engine) execGlobalSet(instr ir.Instruction) {
	g := e.cache.global(instr.Const32())
	g.Value = uint64(e.window.get(instr.A))
}

// execGlobalSetImm16 handles both OpGlobalSetI32Imm16 and OpGlobalSetI64Imm16.
// The global index and the sign-extended 16-bit immediate arrive unpacked
// from the instruction's Imm word; the two variants differ only in whether
// the immediate is stored as an i32 cell or widened to i64.
func (e *Engine) execGlobalSetImm16(idx uint32, val int32, i64 bool) {
	g := e.cache.global(idx)
	if i64 {
		g.Value = uint64(cellFromI64(int64(val)))
	} else {
		g.Value = uint64(cellFromI32(val))
	}
}

// --- Tables (spec §4.8) --------------------------------------------------

func (e *Engine) execRefFunc(instr ir.Instruction, funcIdx uint32) {
	// A funcref cell packs the function index directly; null is encoded
	// as -1 to match wasm.Table.Elements' own null convention.
	e.window.set(instr.Result, cellFromI64(int64(funcIdx)))
}

func (e *Engine) execTableGet(instr ir.Instruction, tableIdx, elemIdx uint32) TrapKind {
	t := e.cache.table(tableIdx)
	if elemIdx >= uint32(len(t.Elements)) {
		return TrapTableAccessOutOfBounds
	}
	e.window.set(instr.Result, cellFromI64(int64(t.Elements[elemIdx])))
	return TrapNone
}

func (e *Engine) execTableSet(tableIdx, elemIdx uint32, value int32) TrapKind {
	t := e.cache.table(tableIdx)
	if elemIdx >= uint32(len(t.Elements)) {
		return TrapTableAccessOutOfBounds
	}
	t.Elements[elemIdx] = value
	return TrapNone
}

func (e *Engine) execTableSize(instr ir.Instruction, tableIdx uint32) {
	t := e.cache.table(tableIdx)
	e.window.set(instr.Result, cellFromU32(uint32(len(t.Elements))))
}

func (e *Engine) execTableGrow(instr ir.Instruction, tableIdx uint32, delta uint32, fillValue int32) {
	t := e.cache.table(tableIdx)
	current := uint32(len(t.Elements))
	result := current + delta
	if t.Max != 0 && result > t.Max {
		e.window.set(instr.Result, cellFromU32(0xffffffff))
		return
	}
	if e.store.TableGrower != nil && !e.store.TableGrower.GrowTable(e.cache.inst, t, delta, result) {
		e.window.set(instr.Result, cellFromU32(0xffffffff))
		return
	}
	grown := make([]int32, result)
	copy(grown, t.Elements)
	for i := current; i < result; i++ {
		grown[i] = fillValue
	}
	t.Elements = grown
	e.window.set(instr.Result, cellFromU32(current))
}

func (e *Engine) execTableFill(tableIdx uint32, dst, value, length uint32) TrapKind {
	t := e.cache.table(tableIdx)
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(t.Elements)) {
		return TrapTableAccessOutOfBounds
	}
	v := int32(value)
	for i := uint32(0); i < length; i++ {
		t.Elements[dst+i] = v
	}
	return TrapNone
}

func (e *Engine) execTableCopy(dstTable, srcTable uint32, dst, src, length uint32) TrapKind {
	dt, st := e.cache.table(dstTable), e.cache.table(srcTable)
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(dt.Elements)) || uint64(src)+uint64(length) > uint64(len(st.Elements)) {
		return TrapTableAccessOutOfBounds
	}
	copy(dt.Elements[dst:dst+length], st.Elements[src:src+length])
	return TrapNone
}

func (e *Engine) execTableInit(tableIdx, segIdx uint32, dst, src, length uint32) TrapKind {
	t := e.cache.table(tableIdx)
	seg := e.cache.elementSegment(segIdx)
	if length == 0 {
		return TrapNone
	}
	if uint64(dst)+uint64(length) > uint64(len(t.Elements)) || uint64(src)+uint64(length) > uint64(len(seg.Elements)) {
		return TrapTableAccessOutOfBounds
	}
	copy(t.Elements[dst:dst+length], seg.Elements[src:src+length])
	return TrapNone
}

func (e *Engine) execElemDrop(segIdx uint32) {
	seg := e.cache.elementSegment(segIdx)
	seg.Elements = seg.Elements[:0]
}

// --- Dispatch wiring -------------------------------------------------------

// stepBulk routes one of the TableCopy*/TableInit*/TableFill*/MemoryCopy*/
// MemoryInit*/MemoryFill* families through decodeBulk3 and the matching
// exec* kernel (kernel_table.go for tables, kernel_mem.go for memory).
func (e *Engine) stepBulk(instr ir.Instruction) (stepResult, *HostCall, TrapKind, error) {
	mask := bulkMasks[instr.Op]
	s0, s1, s2 := e.decodeBulk3(instr, mask)

	var k TrapKind
	switch {
	case instr.Op >= ir.OpTableCopy && instr.Op <= ir.OpTableCopyFromToExact:
		dstTable, srcTable := bulkIndex16(instr)
		k = e.execTableCopy(uint32(dstTable), uint32(srcTable), s0, s1, s2)
	case instr.Op >= ir.OpTableInit && instr.Op <= ir.OpTableInitFromToExact:
		tableIdx, segIdx := bulkIndex16(instr)
		k = e.execTableInit(uint32(tableIdx), uint32(segIdx), s0, s1, s2)
	case instr.Op == ir.OpTableFill || instr.Op == ir.OpTableFillAt ||
		instr.Op == ir.OpTableFillExact || instr.Op == ir.OpTableFillAtExact:
		k = e.execTableFill(bulkIndex32(instr), s0, s1, s2)
	case instr.Op >= ir.OpMemoryCopy && instr.Op <= ir.OpMemoryCopyFromToExact:
		k = e.execMemoryCopy(s0, s1, s2)
	case instr.Op >= ir.OpMemoryInit && instr.Op <= ir.OpMemoryInitFromToExact:
		k = e.execMemoryInit(bulkIndex32(instr), s0, s1, s2)
	default: // Memory Fill family
		k = e.execMemoryFill(s0, s1, s2)
	}
	if k != TrapNone {
		return stepResult{}, nil, k, nil
	}
	return stepResult{kind: stepAdvance}, nil, TrapNone, nil
}

// idx16Pair splits a non-bulk instruction's full 64-bit Imm into two
// packed 16-bit table/element indices: these opcodes never reference
// ConstTriples, so (unlike bulkIndex16) the whole word is free to use.
func idx16Pair(instr ir.Instruction) (uint16, uint16) {
	return uint16(instr.Imm), uint16(instr.Imm >> 16)
}

// stepTable routes the non-bulk table opcodes: TableGet/Set (register or
// "At"-immediate element index), TableSize, TableGrow. The table index
// itself always rides in instr.Imm's low bits (TableSize/TableGrow, which
// have no other immediate to share Imm with) or packed alongside the
// element index (TableGetImm/TableSetAt).
func (e *Engine) stepTable(instr ir.Instruction) (stepResult, *HostCall, TrapKind, error) {
	switch instr.Op {
	case ir.OpTableGet:
		tableIdx := instr.Const32()
		elemIdx := u32FromCell(e.window.get(instr.A))
		if k := e.execTableGet(instr, tableIdx, elemIdx); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
	case ir.OpTableGetImm:
		tableIdx, elemIdx := idx16Pair(instr)
		if k := e.execTableGet(instr, uint32(tableIdx), uint32(elemIdx)); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
	case ir.OpTableSize:
		e.execTableSize(instr, instr.Const32())
	case ir.OpTableSet:
		tableIdx := instr.Const32()
		elemIdx := u32FromCell(e.window.get(instr.A))
		value := int32(u32FromCell(e.window.get(instr.B)))
		if k := e.execTableSet(tableIdx, elemIdx, value); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
	case ir.OpTableSetAt:
		tableIdx, elemIdx := idx16Pair(instr)
		value := int32(u32FromCell(e.window.get(instr.A)))
		if k := e.execTableSet(uint32(tableIdx), uint32(elemIdx), value); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
	case ir.OpTableGrow:
		tableIdx := instr.Const32()
		delta := u32FromCell(e.window.get(instr.A))
		fillValue := int32(u32FromCell(e.window.get(instr.B)))
		e.execTableGrow(instr, tableIdx, delta, fillValue)
	case ir.OpTableGrowImm:
		tableIdx, deltaImm := idx16Pair(instr)
		fillValue := int32(u32FromCell(e.window.get(instr.A)))
		e.execTableGrow(instr, uint32(tableIdx), uint32(deltaImm), fillValue)
	}
	return stepResult{kind: stepAdvance}, nil, TrapNone, nil
}
