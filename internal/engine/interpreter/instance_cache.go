package interpreter

import "github.com/wazcore/wazcore/internal/wasm"

// instanceCache is the per-execution snapshot of the active frame's
// instance entities (spec §4, C4): default memory/table, globals, the
// function table, segments, and the type registry. It exists so kernels
// read `cache.memory()` etc. instead of threading an *wasm.Instance through
// every call; refresh is cheap (one pointer assignment) because
// wasm.Instance itself already holds pointers to its Memories/Tables/
// Globals, so there is no independent "re-fetch" step beyond pointing the
// cache at the new instance — Go's pointer semantics mean a mutation like
// memory.grow (which replaces *wasm.Memory.Data, not the *wasm.Memory
// pointer) is visible through the cache without any extra bookkeeping.
//
// Invalidation (spec §4.8 "After memory growth, the cached memory base
// pointer ... is invalidated and re-fetched on next memory access") reduces,
// in this Go port, to simply never caching mem.Data itself across a
// potential grow point: kernel_mem.go always re-reads `mem.Data` from the
// *wasm.Memory the cache points at rather than holding a local byte slice
// across instructions.
type instanceCache struct {
	inst *wasm.Instance
}

// refresh points the cache at a new active instance: spec §4 "Invalidated
// and refreshed on every cross-instance call and on memory growth."
func (c *instanceCache) refresh(inst *wasm.Instance) {
	c.inst = inst
}

func (c *instanceCache) memory(idx uint32) *wasm.Memory {
	if int(idx) >= len(c.inst.Memories) {
		return nil
	}
	return c.inst.Memories[idx]
}

func (c *instanceCache) defaultMemory() *wasm.Memory {
	return c.inst.DefaultMemory()
}

func (c *instanceCache) table(idx uint32) *wasm.Table {
	if int(idx) >= len(c.inst.Tables) {
		return nil
	}
	return c.inst.Tables[idx]
}

func (c *instanceCache) global(idx uint32) *wasm.Global {
	return c.inst.Globals[idx]
}

func (c *instanceCache) funcMeta(idx uint32) *wasm.FuncMeta {
	return &c.inst.Functions[idx]
}

func (c *instanceCache) elementSegment(idx uint32) *wasm.ElementSegment {
	return c.inst.ElementSegments[idx]
}

func (c *instanceCache) dataSegment(idx uint32) *wasm.DataSegment {
	return c.inst.DataSegments[idx]
}
