package ir

import "github.com/wazcore/wazcore/internal/wasm"

// CodeMap is the immutable artifact the translator hands to the core: one
// flat array of IR words for every function body in a module, plus the
// per-function metadata needed to find an entry point and size a frame
// (spec §6.1). The core treats everything here as read-only and never
// re-validates the translator's guarantees.
type CodeMap struct {
	// Instrs holds every function body back to back; FuncMeta.EntryIP
	// indexes into this slice.
	Instrs []Instruction

	// Funcs is indexed by function index (imports first, then internal
	// functions, matching Wasm's own function index space).
	Funcs []wasm.FuncMeta

	// RegLists holds the out-of-line register lists referenced by
	// instructions with variable-length register operands (every call's
	// argument list, the "many" copy/return variants). An instruction's Imm field indexes
	// into this slice with packListRef/unpackListRef.
	//
	// wasmi's own IR chains these as inline trailing parameter words; this
	// port stores them out-of-line instead; see DESIGN.md for the
	// rationale. Dispatch-time behavior (spec §4.1 class 1: parameter
	// words are never top-level dispatch targets) is unaffected, since
	// these lists are never themselves instructions on the Instrs stream.
	RegLists [][]Reg

	// BranchTargets holds the out-of-line branch-table target lists
	// referenced by OpBranchTable. Each entry is a list of signed,
	// IR-word-relative offsets; the last element is the default target
	// used when the table index is out of range (spec §4.2).
	BranchTargets [][]BranchTableOffset

	// Triples holds constant-folded 3-operand sets for specialized bulk
	// memory/table instructions; see ConstTriples/AddConstTriple below.
	Triples []ConstTriples
}

// BranchTableOffset is one arm of a branch table: a direct jump offset
// (spec describes 0/1/2/3/span/many length-specialized tails, but since
// the table is stored out of line here there is no need to distinguish
// those shapes by opcode; the interpreter always does an O(1) indexed
// lookup followed by a branch).
type BranchTableOffset int32

// AddRegList interns a register list and returns the Imm payload an
// instruction should carry to reference it.
func (c *CodeMap) AddRegList(regs []Reg) uint64 {
	idx := len(c.RegLists)
	c.RegLists = append(c.RegLists, regs)
	return packListRef(idx)
}

// RegListAt resolves a RegLists reference back to its register slice.
func (c *CodeMap) RegListAt(imm uint64) []Reg {
	return c.RegLists[unpackListRef(imm)]
}

// AddBranchTable interns a branch table and returns the Imm payload an
// OpBranchTable instruction should carry to reference it.
func (c *CodeMap) AddBranchTable(targets []BranchTableOffset) uint64 {
	idx := len(c.BranchTargets)
	c.BranchTargets = append(c.BranchTargets, targets)
	return packListRef(idx)
}

// BranchTableAt resolves a BranchTargets reference.
func (c *CodeMap) BranchTableAt(imm uint64) []BranchTableOffset {
	return c.BranchTargets[unpackListRef(imm)]
}

// ConstTriples holds the constant-folded {dst, src/val, len} operand sets
// referenced by the specialized "*Exact"/"*To"/"*From" bulk memory/table
// instructions (spec §4.8, §3 class 9) whenever any of the three logical
// operands is constant — one Imm word isn't wide enough to pack
// three 32-bit constants, so these spill out-of-line the same way RegLists
// and BranchTargets do.
type ConstTriples = [3]uint32

// AddConstTriple interns a constant operand triple and returns the Imm
// payload the instruction should carry.
func (c *CodeMap) AddConstTriple(t ConstTriples) uint64 {
	idx := len(c.Triples)
	c.Triples = append(c.Triples, t)
	return packListRef(idx)
}

// ConstTripleAt resolves a Triples reference.
func (c *CodeMap) ConstTripleAt(imm uint64) ConstTriples {
	return c.Triples[unpackListRef(imm)]
}
