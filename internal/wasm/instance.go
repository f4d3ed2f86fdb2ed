package wasm

// PageSize is the Wasm linear memory page size in bytes.
const PageSize = 65536

// FuncKind distinguishes how a function is implemented.
type FuncKind byte

const (
	// FuncKindInternal is a function whose body is IR owned by the same
	// instance; the core calls it by pushing a frame.
	FuncKindInternal FuncKind = iota
	// FuncKindImported is implemented by the embedder; the core suspends
	// and hands control back to the host.
	FuncKindImported
)

// FuncMeta is the per-function metadata the translator attaches to every
// function body it produces. The core relies on, and never re-validates,
// the guarantees in spec §6.1: every register referenced by the function is
// at most MaxRegister, and every branch offset lands on an executable
// instruction within the body.
type FuncMeta struct {
	Kind        FuncKind
	Type        *FuncType
	EntryIP     int
	NumLocals   uint16
	MaxRegister int16
	// Instance is nil for FuncKindImported; set for FuncKindInternal so the
	// core knows which instance's globals/memory/tables are in scope while
	// running the function body.
	Instance *Instance
	// HostFunc is invoked by the embedder, not the core; present only for
	// FuncKindImported. It is opaque to the core beyond its identity.
	HostFunc interface{}
}

// Global is a single mutable or immutable global value cell.
type Global struct {
	Type    ValueType
	Mutable bool
	Value   uint64
}

// Memory is a single linear memory instance.
type Memory struct {
	Data []byte
	Min  uint32 // pages
	Max  uint32 // pages, 0 means unbounded
}

// Size returns the current memory size in pages.
func (m *Memory) Size() uint32 {
	return uint32(len(m.Data) / PageSize)
}

// Table holds function references (FuncMeta index, or -1 for null) and
// other reference-typed elements, addressed by table index.
type Table struct {
	Elements []int32 // index into Instance.Functions, or -1 for null
	Min      uint32
	Max      uint32 // 0 means unbounded
}

// ElementSegment is a passive or active element segment. Dropped segments
// are truncated to zero length rather than removed, matching the ElemDrop
// semantics in spec §4.8.
type ElementSegment struct {
	Elements []int32
}

// DataSegment is a passive or active data segment. Dropped segments are
// truncated to zero length, matching the DataDrop semantics in spec §4.8.
type DataSegment struct {
	Bytes []byte
}

// Instance is a single module instantiation: the entities a running
// function body can reach. Instantiation, import resolution, and segment
// materialization all happen upstream of the core; the core only reads
// these fields (and mutates Memories/Tables/Globals in place for the
// relevant kernels).
type Instance struct {
	Functions       []FuncMeta
	Memories        []*Memory
	Tables          []*Table
	Globals         []*Global
	ElementSegments []*ElementSegment
	DataSegments    []*DataSegment
	Types           *FuncTypeRegistry
}

// DefaultMemory returns the instance's memory 0, or nil if it has none.
func (i *Instance) DefaultMemory() *Memory {
	if len(i.Memories) == 0 {
		return nil
	}
	return i.Memories[0]
}

// DefaultTable returns the instance's table 0, or nil if it has none.
func (i *Instance) DefaultTable() *Table {
	if len(i.Tables) == 0 {
		return nil
	}
	return i.Tables[0]
}

// MemoryGrower decides whether a memory.grow request is permitted. It is
// invoked synchronously from the grow kernels with the instance, the
// requested delta in pages, and the resulting size were the grow to
// succeed; returning false denies growth without mutating memory.
type MemoryGrower interface {
	GrowMemory(instance *Instance, mem *Memory, deltaPages, resultingPages uint32) bool
}

// TableGrower is the table analog of MemoryGrower.
type TableGrower interface {
	GrowTable(instance *Instance, tbl *Table, delta, resultingSize uint32) bool
}

// Store is the root of mutable state shared across all instances active in
// one execution. Module instantiation and host function registration build
// it; the core borrows it mutably for the duration of a dispatch loop and
// hands that borrow to the embedder during host calls.
type Store struct {
	Fuel         int64
	FuelEnabled  bool
	MemoryGrower MemoryGrower
	TableGrower  TableGrower
	// SignatureTracking enables the runtime-signature accumulator described
	// in spec §4.9. It costs a mix operation per retired instruction, so it
	// defaults to off.
	SignatureTracking bool
}
