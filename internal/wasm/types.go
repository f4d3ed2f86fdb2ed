// Package wasm holds the small set of module- and instance-level types that
// the interpreter core treats as an upstream contract: value types, function
// types, and the store/instance shapes produced by instantiation. Parsing,
// validation, translation into IR, and import linking all live outside this
// module; this package only declares the shapes the core reads from.
package wasm

// ValueType is one of the four Wasm number types the core operates on.
type ValueType byte

const (
	ValueTypeI32 ValueType = iota
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
	// ValueTypeFuncref and ValueTypeExternref are reference types; the core
	// treats both as opaque 64-bit cells (a funcref cell holds the function
	// index, or -1 for null).
	ValueTypeFuncref
	ValueTypeExternref
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return "unknown"
	}
}

// FuncType is a function signature, canonicalized by the translator so that
// two functions sharing a signature point at the same *FuncType. The core
// never compares signatures structurally: BadSignature checks use pointer
// identity, matching the "dedup function type" contract in FuncTypeRegistry.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// EqualIdentity reports whether t and other are the same dedup'd signature.
// This is pointer equality, not structural equality: the translator is
// required to have already deduplicated all FuncTypes reachable from a
// module, so two distinct *FuncType values are never equal even if their
// Params/Results happen to match.
func (t *FuncType) EqualIdentity(other *FuncType) bool {
	return t == other
}

// FuncTypeRegistry is the translator's deduplicated signature table. The core
// only ever reads from it; registration happens during translation.
type FuncTypeRegistry struct {
	types []*FuncType
}

// NewFuncTypeRegistry returns an empty registry.
func NewFuncTypeRegistry() *FuncTypeRegistry {
	return &FuncTypeRegistry{}
}

// Register interns ft, returning the canonical (possibly pre-existing)
// *FuncType for the same shape. Callers that already hold a canonical
// pointer may skip this and use it directly.
func (r *FuncTypeRegistry) Register(ft FuncType) *FuncType {
	for _, existing := range r.types {
		if paramsEqual(existing.Params, ft.Params) && paramsEqual(existing.Results, ft.Results) {
			return existing
		}
	}
	dedup := &ft
	r.types = append(r.types, dedup)
	return dedup
}

// TypeAt returns the idx'th registered signature. The translator hands out
// these indices when it emits CallIndirectParams/CallIndirectParamsImm16
// words, so idx is always in range for a well-formed CodeMap.
func (r *FuncTypeRegistry) TypeAt(idx uint32) *FuncType {
	return r.types[idx]
}

func paramsEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
