package interpreter

import (
	"testing"

	"github.com/wazcore/wazcore/internal/engine/interpreter/ir"
	"github.com/wazcore/wazcore/internal/testing/require"
	"github.com/wazcore/wazcore/internal/wasm"
)

// testModule assembles the minimum the core needs to run a hand-written
// instruction stream: one instance, a code map, and a store. Tests play the
// role of the translator, so they are responsible for upholding the §6.1
// guarantees (register bounds, branch targets) by construction.
type testModule struct {
	inst  *wasm.Instance
	code  *ir.CodeMap
	store *wasm.Store
	types *wasm.FuncTypeRegistry
}

func newTestModule() *testModule {
	types := wasm.NewFuncTypeRegistry()
	return &testModule{
		inst:  &wasm.Instance{Types: types},
		code:  &ir.CodeMap{},
		store: &wasm.Store{},
		types: types,
	}
}

// addFunc appends an internal function whose body is instrs, returning its
// function index. MaxRegister is the highest register the body touches.
func (m *testModule) addFunc(ft *wasm.FuncType, maxReg int16, instrs ...ir.Instruction) uint32 {
	entry := len(m.code.Instrs)
	m.code.Instrs = append(m.code.Instrs, instrs...)
	m.inst.Functions = append(m.inst.Functions, wasm.FuncMeta{
		Kind:        wasm.FuncKindInternal,
		Type:        ft,
		EntryIP:     entry,
		MaxRegister: maxReg,
		Instance:    m.inst,
	})
	return uint32(len(m.inst.Functions) - 1)
}

// addHostFunc appends an imported function with no body.
func (m *testModule) addHostFunc(ft *wasm.FuncType) uint32 {
	m.inst.Functions = append(m.inst.Functions, wasm.FuncMeta{
		Kind: wasm.FuncKindImported,
		Type: ft,
	})
	return uint32(len(m.inst.Functions) - 1)
}

// invoke runs function fnIdx to completion, failing the test on a host-call
// suspension (use invokeRaw for those).
func (m *testModule) invoke(t *testing.T, fnIdx uint32, args ...uint64) ([]uint64, error) {
	t.Helper()
	e := NewEngine(m.store, m.code)
	res, susp, err := e.Execute(m.inst, &m.inst.Functions[fnIdx], args)
	if err != nil {
		return nil, err
	}
	require.Nil(t, susp, "unexpected host-call suspension")
	return res.Cells, nil
}

func (m *testModule) ft(params, results []wasm.ValueType) *wasm.FuncType {
	return m.types.Register(wasm.FuncType{Params: params, Results: results})
}

// callImm packs a call instruction's Imm word: the argument RegList
// reference in the low half, the callee function index in the high half.
func callImm(listRef uint64, funcIdx uint32) uint64 {
	return listRef | uint64(funcIdx)<<32
}

var (
	i32 = wasm.ValueTypeI32
	nr  = ir.NoReg
)

func TestExecute_Add(t *testing.T) {
	m := newTestModule()
	ft := m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32})
	add := m.addFunc(ft, 2,
		ir.New(ir.OpI32Add, 2, 0, 1, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)

	res, err := m.invoke(t, add, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)

	// i32 addition wraps.
	res, err = m.invoke(t, add, 0x7fffffff, 1)
	require.NoError(t, err)
	require.Equal(t, int32(-0x80000000), int32(uint32(res[0])))
}

func TestExecute_DivS_Traps(t *testing.T) {
	m := newTestModule()
	ft := m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32})
	divs := m.addFunc(ft, 2,
		ir.New(ir.OpI32DivS, 2, 0, 1, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)

	res, err := m.invoke(t, divs, 7, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, res)

	_, err = m.invoke(t, divs, 1, 0)
	require.EqualError(t, err, "wasm trap: integer divide by zero")

	_, err = m.invoke(t, divs, uint64(uint32(0x80000000)), uint64(uint32(0xffffffff)))
	require.EqualError(t, err, "wasm trap: integer overflow")
}

func TestExecute_MemoryStoreLoad(t *testing.T) {
	m := newTestModule()
	m.inst.Memories = []*wasm.Memory{{Data: make([]byte, wasm.PageSize), Min: 1, Max: 1}}

	store8 := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, nil), 1,
		ir.New(ir.OpI32Store8, nr, 0, 1, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	load8u := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 1,
		ir.New(ir.OpI32Load8u, 1, 0, nr, 0),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)

	_, err := m.invoke(t, store8, 5, 0xAB)
	require.NoError(t, err)

	res, err := m.invoke(t, load8u, 5)
	require.NoError(t, err)
	require.Equal(t, []uint64{0xAB}, res)

	_, err = m.invoke(t, load8u, 65536)
	require.EqualError(t, err, "wasm trap: out of bounds memory access")
}

func TestExecute_LoadStoreWidths(t *testing.T) {
	m := newTestModule()
	m.inst.Memories = []*wasm.Memory{{Data: make([]byte, wasm.PageSize), Min: 1, Max: 1}}

	// store a full i64 then read it back through every narrowing load.
	store64 := m.addFunc(m.ft([]wasm.ValueType{i32, wasm.ValueTypeI64}, nil), 1,
		ir.New(ir.OpI64Store, nr, 0, 1, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err := m.invoke(t, store64, 16, 0x8899aabbccddeeff)
	require.NoError(t, err)

	tests := []struct {
		name     string
		op       ir.Opcode
		expected uint64
	}{
		{"i64.load", ir.OpI64Load, 0x8899aabbccddeeff},
		{"i32.load", ir.OpI32Load, 0xccddeeff},
		{"i32.load8_u", ir.OpI32Load8u, 0xff},
		{"i32.load8_s", ir.OpI32Load8s, 0xffffffff},
		{"i32.load16_u", ir.OpI32Load16u, 0xeeff},
		{"i32.load16_s", ir.OpI32Load16s, 0xffffeeff},
		{"i64.load8_s", ir.OpI64Load8s, 0xffffffffffffffff},
		{"i64.load16_u", ir.OpI64Load16u, 0xeeff},
		{"i64.load32_s", ir.OpI64Load32s, 0xffffffffccddeeff},
		{"i64.load32_u", ir.OpI64Load32u, 0xccddeeff},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 1,
				ir.New(tc.op, 1, 0, nr, 0),
				ir.New(ir.OpReturnReg, 1, nr, nr, 0),
			)
			res, err := m.invoke(t, fn, 16)
			require.NoError(t, err)
			require.Equal(t, tc.expected, res[0])
		})
	}
}

func TestExecute_CallIndirect(t *testing.T) {
	m := newTestModule()
	ftInc := m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}) // type index 0
	ftEntry := m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32})
	ftI64 := m.ft([]wasm.ValueType{wasm.ValueTypeI64}, []wasm.ValueType{wasm.ValueTypeI64}) // type index 2

	args := m.code.AddRegList([]ir.Reg{1})
	// entry(index, x): call_indirect table 0, expected type 0.
	entry := m.addFunc(ftEntry, 2,
		ir.New(ir.OpCallIndirect, 2, nr, nr, args),
		ir.New(ir.OpCallIndirectParams, 0 /* tableIdx */, 0 /* index reg */, nr, 0 /* typeIdx */),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	// same body but expecting the i64 signature: always a type mismatch.
	entryBad := m.addFunc(ftEntry, 2,
		ir.New(ir.OpCallIndirect, 2, nr, nr, args),
		ir.New(ir.OpCallIndirectParams, 0, 0, nr, 2),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	inc := m.addFunc(ftInc, 1,
		ir.New(ir.OpI32AddImm16, 1, 0, nr, 1),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)
	_ = ftI64

	m.inst.Tables = []*wasm.Table{{Elements: []int32{int32(inc), -1}, Min: 2, Max: 2}}

	res, err := m.invoke(t, entry, 0, 41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)

	_, err = m.invoke(t, entry, 1, 41)
	require.EqualError(t, err, "wasm trap: indirect call to null")

	_, err = m.invoke(t, entry, 5, 41)
	require.EqualError(t, err, "wasm trap: out of bounds table access")

	_, err = m.invoke(t, entryBad, 0, 41)
	require.EqualError(t, err, "wasm trap: indirect call type mismatch")
}

func TestExecute_BranchTable(t *testing.T) {
	m := newTestModule()
	targets := m.code.AddBranchTable([]ir.BranchTableOffset{1, 2, 3, 4})
	fn := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpBranchTable, nr, 0, nr, targets),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 10),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 20),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 30),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 40),
	)

	for _, tc := range []struct{ in, out uint64 }{
		{0, 10}, {1, 20}, {2, 30}, {3, 40}, {7, 40},
	} {
		res, err := m.invoke(t, fn, tc.in)
		require.NoError(t, err)
		require.Equal(t, []uint64{tc.out}, res, "input %d", tc.in)
	}
}

func TestExecute_Fuel(t *testing.T) {
	m := newTestModule()
	// 1000-iteration countdown loop consuming 1 fuel per iteration.
	fn := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpCopyImm32, 0, nr, nr, 1000),
		ir.New(ir.OpConsumeFuel, nr, nr, nr, 1),
		ir.New(ir.OpI32SubImm16, 0, 0, nr, 1),
		ir.New(ir.OpBranchNez, nr, 0, nr, uint64(^uint32(1))),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)

	m.store.FuelEnabled = true
	m.store.Fuel = 500
	_, err := m.invoke(t, fn)
	require.EqualError(t, err, "wasm trap: out of fuel")

	m.store.Fuel = 10000
	_, err = m.invoke(t, fn)
	require.NoError(t, err)
	require.Equal(t, int64(9000), m.store.Fuel)
}

func TestExecute_HostCall(t *testing.T) {
	m := newTestModule()
	ft := m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32})
	host := m.addHostFunc(ft)
	args := m.code.AddRegList([]ir.Reg{0})
	entry := m.addFunc(ft, 1,
		ir.New(ir.OpCallImported, 1, nr, nr, callImm(args, host)),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)

	e := NewEngine(m.store, m.code)
	res, susp, err := e.Execute(m.inst, &m.inst.Functions[entry], []uint64{21})
	require.NoError(t, err)
	require.Nil(t, res)
	require.NotNil(t, susp)
	require.Equal(t, &m.inst.Functions[host], susp.Call.Func)
	require.False(t, susp.Call.Tail)
	require.Equal(t, []uint64{21}, e.HostArgs(susp.Call))

	res, susp, err = e.WriteHostResult(susp.Call, []uint64{42})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, []uint64{42}, res.Cells)
}

func TestExecute_HostTailCallFromRoot(t *testing.T) {
	m := newTestModule()
	ft := m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32})
	host := m.addHostFunc(ft)
	args := m.code.AddRegList([]ir.Reg{0})
	entry := m.addFunc(ft, 0,
		ir.New(ir.OpReturnCallImported, nr, nr, nr, callImm(args, host)),
	)

	e := NewEngine(m.store, m.code)
	res, susp, err := e.Execute(m.inst, &m.inst.Functions[entry], []uint64{7})
	require.NoError(t, err)
	require.Nil(t, res)
	require.True(t, susp.Call.Tail)

	res, susp, err = e.WriteHostResult(susp.Call, []uint64{99})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, []uint64{99}, res.Cells)
}

func TestExecute_CallInternal(t *testing.T) {
	m := newTestModule()
	ftInc := m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32})
	ftEntry := m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32})

	arg0 := m.code.AddRegList([]ir.Reg{0})
	arg1 := m.code.AddRegList([]ir.Reg{1})

	// inc has function index 1: entry is added first below.
	entry := m.addFunc(ftEntry, 3,
		ir.New(ir.OpCallInternal, 2, nr, nr, callImm(arg0, 1)),
		ir.New(ir.OpCallInternal, 3, nr, nr, callImm(arg1, 1)),
		ir.New(ir.OpI32Add, 2, 2, 3, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	m.addFunc(ftInc, 1,
		ir.New(ir.OpI32AddImm16, 1, 0, nr, 1),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)

	res, err := m.invoke(t, entry, 5, 6)
	require.NoError(t, err)
	require.Equal(t, []uint64{13}, res)
}

func TestExecute_TailCallInternal(t *testing.T) {
	m := newTestModule()
	ftInc := m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32})

	arg0 := m.code.AddRegList([]ir.Reg{0})
	entry := m.addFunc(ftInc, 0,
		ir.New(ir.OpReturnCallInternal, nr, nr, nr, callImm(arg0, 1)),
	)
	m.addFunc(ftInc, 1,
		ir.New(ir.OpI32AddImm16, 1, 0, nr, 1),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)

	res, err := m.invoke(t, entry, 41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestExecute_StackOverflow(t *testing.T) {
	m := newTestModule()
	ft := m.ft(nil, nil)
	fn := m.addFunc(ft, 0,
		ir.New(ir.OpCallInternal0, 0, nr, nr, callImm(0, 0)),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)

	_, err := m.invoke(t, fn)
	require.EqualError(t, err, "wasm trap: stack overflow")
}

func TestExecute_ParameterWordIsFatal(t *testing.T) {
	m := newTestModule()
	fn := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpRegister, nr, nr, nr, 0),
	)

	_, err := m.invoke(t, fn)
	require.Error(t, err)
	_, isFatal := err.(*FatalError)
	require.True(t, isFatal, "expected a fatal invariant violation, got %v", err)
}

func TestExecute_Globals(t *testing.T) {
	m := newTestModule()
	m.inst.Globals = []*wasm.Global{{Type: i32, Mutable: true, Value: 7}}

	fn := m.addFunc(m.ft(nil, []wasm.ValueType{i32}), 1,
		ir.New(ir.OpGlobalGet, 0, nr, nr, 0),
		ir.New(ir.OpI32AddImm16, 1, 0, nr, 1),
		ir.New(ir.OpGlobalSet, nr, 1, nr, 0),
		ir.New(ir.OpReturnReg, 0, nr, nr, 0),
	)

	res, err := m.invoke(t, fn)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
	require.Equal(t, uint64(8), m.inst.Globals[0].Value)

	set := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpGlobalSetI32Imm16, nr, nr, nr, ir.PackOffsetImm(0, -3)),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, set)
	require.NoError(t, err)
	require.Equal(t, int32(-3), int32(uint32(m.inst.Globals[0].Value)))
}

type denyAllGrowth struct{}

func (denyAllGrowth) GrowMemory(*wasm.Instance, *wasm.Memory, uint32, uint32) bool { return false }
func (denyAllGrowth) GrowTable(*wasm.Instance, *wasm.Table, uint32, uint32) bool   { return false }

func TestExecute_MemoryGrow(t *testing.T) {
	m := newTestModule()
	m.inst.Memories = []*wasm.Memory{{Data: make([]byte, wasm.PageSize), Min: 1, Max: 2}}

	grow := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 1,
		ir.New(ir.OpMemoryGrow, 1, 0, nr, 0),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)
	size := m.addFunc(m.ft(nil, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpMemorySize, 0, nr, nr, 0),
		ir.New(ir.OpReturnReg, 0, nr, nr, 0),
	)

	res, err := m.invoke(t, grow, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res, "grow returns the old size in pages")

	res, err = m.invoke(t, size)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, res)

	// Exceeding the declared maximum fails without mutating memory.
	res, err = m.invoke(t, grow, 5)
	require.NoError(t, err)
	require.Equal(t, []uint64{0xffffffff}, res)
	require.Equal(t, uint32(2), m.inst.Memories[0].Size())

	// A denying resource limiter has the same observable effect.
	m.inst.Memories[0].Max = 10
	m.store.MemoryGrower = denyAllGrowth{}
	res, err = m.invoke(t, grow, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{0xffffffff}, res)
	require.Equal(t, uint32(2), m.inst.Memories[0].Size())
}

func TestExecute_CopySpanAndSelect(t *testing.T) {
	m := newTestModule()

	// Overlapping copy-span: dst > src must copy backwards.
	span := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, []wasm.ValueType{i32, i32, i32}), 3,
		ir.New(ir.OpCopySpan, 1, 0, nr, 3),
		ir.New(ir.OpReturnSpan, 1, nr, nr, 3),
	)
	res, err := m.invoke(t, span, 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, res)

	sel := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, []wasm.ValueType{i32}), 3,
		ir.New(ir.OpSelect, 3, 0, 1, 2), // cond in r2
		ir.New(ir.OpReturnReg, 3, nr, nr, 0),
	)
	res, err = m.invoke(t, sel, 11, 22, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{11}, res)
	res, err = m.invoke(t, sel, 11, 22, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{22}, res)

	selRhs := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}), 2,
		ir.New(ir.OpSelectImm32Rhs, 2, 0, nr, ir.PackOffsetImm(1, 7)), // cond in r1, rhs imm 7
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	res, err = m.invoke(t, selRhs, 5, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)
	res, err = m.invoke(t, selRhs, 5, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)

	selLhs := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}), 2,
		ir.New(ir.OpSelectImm32Lhs, 2, 0, nr, ir.PackOffsetImm(1, 7)), // cond in r1, lhs imm 7
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	res, err = m.invoke(t, selLhs, 5, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)
	res, err = m.invoke(t, selLhs, 5, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)

	selBoth := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 1,
		ir.New(ir.OpSelectImm32, 1, 0, nr, ir.PackOffsetImm(uint32(3), -4)), // cond in r0
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)
	res, err = m.invoke(t, selBoth, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, res)
	res, err = m.invoke(t, selBoth, 0)
	require.NoError(t, err)
	require.Equal(t, int32(-4), int32(uint32(res[0])))

	// I64Imm32 immediates sign-extend into the full cell.
	selI64 := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{wasm.ValueTypeI64}), 1,
		ir.New(ir.OpSelectI64Imm32, 1, 0, nr, ir.PackOffsetImm(^uint32(0), 2)),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)
	res, err = m.invoke(t, selI64, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{0xffffffffffffffff}, res)
	res, err = m.invoke(t, selI64, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, res)
}

func TestExecute_CopyMany(t *testing.T) {
	m := newTestModule()
	srcs := m.code.AddRegList([]ir.Reg{2, 0, 1})
	fn := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, []wasm.ValueType{i32, i32, i32}), 3,
		ir.New(ir.OpCopyMany, 0, nr, nr, srcs),
		ir.New(ir.OpReturnSpan, 0, nr, nr, 3),
	)
	res, err := m.invoke(t, fn, 10, 20, 30)
	require.NoError(t, err)
	require.Equal(t, []uint64{30, 10, 20}, res)
}

func TestExecute_ReturnVariants(t *testing.T) {
	m := newTestModule()

	imm := m.addFunc(m.ft(nil, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpReturnImm32, nr, nr, nr, uint64(^uint32(4))),
	)
	res, err := m.invoke(t, imm)
	require.NoError(t, err)
	require.Equal(t, int32(-5), int32(uint32(res[0])))

	i64imm := m.addFunc(m.ft(nil, []wasm.ValueType{wasm.ValueTypeI64}), 0,
		ir.New(ir.OpReturnI64Imm32, nr, nr, nr, uint64(^uint32(0))),
	)
	res, err = m.invoke(t, i64imm)
	require.NoError(t, err)
	require.Equal(t, uint64(0xffffffffffffffff), res[0], "32-bit immediate sign-extends into the i64 cell")

	reg2 := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32, i32}), 1,
		ir.New(ir.OpReturnReg2, 1, 0, nr, 0),
	)
	res, err = m.invoke(t, reg2, 8, 9)
	require.NoError(t, err)
	require.Equal(t, []uint64{9, 8}, res)

	many := m.code.AddRegList([]ir.Reg{1, 0, 1})
	rmany := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32, i32, i32}), 1,
		ir.New(ir.OpReturnMany, nr, nr, nr, many),
	)
	res, err = m.invoke(t, rmany, 4, 5)
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 4, 5}, res)

	// ReturnNez falls through on a zero condition.
	nez := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpReturnNezImm32, nr, 0, nr, 1),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 2),
	)
	res, err = m.invoke(t, nez, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res)
	res, err = m.invoke(t, nez, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, res)
}

func TestExecute_FusedBranch(t *testing.T) {
	m := newTestModule()
	// abs-diff via fused compare-and-branch: if a < b return b-a else a-b.
	fn := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}), 2,
		ir.New(ir.OpBranchI32LtU, nr, 0, 1, 3),
		ir.New(ir.OpI32Sub, 2, 0, 1, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
		ir.New(ir.OpI32Sub, 2, 1, 0, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	res, err := m.invoke(t, fn, 10, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{6}, res)
	res, err = m.invoke(t, fn, 4, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{6}, res)

	// Imm16 form: branch when r0 == 3; offset and immediate share Imm.
	eqImm := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpBranchI32EqImm, nr, 0, nr, ir.PackOffsetImm(2, 3)),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 0),
		ir.New(ir.OpReturnImm32, nr, nr, nr, 1),
	)
	res, err = m.invoke(t, eqImm, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, res)
	res, err = m.invoke(t, eqImm, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, res)
}

func TestExecute_Trap(t *testing.T) {
	m := newTestModule()
	fn := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpTrap, nr, nr, nr, uint64(TrapUnreachableCodeReached)),
	)
	_, err := m.invoke(t, fn)
	require.EqualError(t, err, "wasm trap: unreachable code reached")
}

func TestExecute_SignatureDeterminism(t *testing.T) {
	m := newTestModule()
	ft := m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32})
	add := m.addFunc(ft, 2,
		ir.New(ir.OpI32Add, 2, 0, 1, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	m.store.SignatureTracking = true

	run := func(a, b uint64) uint64 {
		e := NewEngine(m.store, m.code)
		_, _, err := e.Execute(m.inst, &m.inst.Functions[add], []uint64{a, b})
		require.NoError(t, err)
		return e.Signature()
	}

	sig1 := run(2, 3)
	sig2 := run(2, 3)
	require.Equal(t, sig1, sig2, "identical executions produce identical signatures")
	require.NotEqual(t, uint64(0), sig1)
	require.NotEqual(t, sig1, run(4, 3), "operand bits feed the signature")
}

func TestExecute_BulkMemory(t *testing.T) {
	m := newTestModule()
	m.inst.Memories = []*wasm.Memory{{Data: make([]byte, wasm.PageSize), Min: 1, Max: 1}}
	m.inst.DataSegments = []*wasm.DataSegment{{Bytes: []byte("hello")}}

	// memory.init {dst, src, len} from registers; segment index rides high.
	initFn := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, nil), 2,
		ir.New(ir.OpMemoryInit, 0, 1, 2, uint64(0)<<32),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err := m.invoke(t, initFn, 10, 0, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(m.inst.Memories[0].Data[10:15]))

	// Fully constant-folded fill.
	tripleRef := m.code.AddConstTriple(ir.ConstTriples{20, 0xCC, 4})
	fill := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpMemoryFillAtImmExact, nr, nr, nr, tripleRef),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, fill)
	require.NoError(t, err)
	require.Equal(t, []byte{0xCC, 0xCC, 0xCC, 0xCC}, m.inst.Memories[0].Data[20:24])

	// memory.copy, registers.
	copyFn := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, nil), 2,
		ir.New(ir.OpMemoryCopy, 0, 1, 2, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, copyFn, 30, 10, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(m.inst.Memories[0].Data[30:35]))

	// Out-of-range source traps; zero length never does.
	_, err = m.invoke(t, copyFn, 0, wasm.PageSize-2, 5)
	require.EqualError(t, err, "wasm trap: out of bounds memory access")
	_, err = m.invoke(t, copyFn, wasm.PageSize, wasm.PageSize, 0)
	require.NoError(t, err)

	// data.drop truncates the segment; a later init of len>0 traps.
	drop := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpDataDrop, nr, nr, nr, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, drop)
	require.NoError(t, err)
	_, err = m.invoke(t, initFn, 0, 0, 1)
	require.EqualError(t, err, "wasm trap: out of bounds memory access")
	_, err = m.invoke(t, initFn, 0, 0, 0)
	require.NoError(t, err)
}

func TestExecute_TableOps(t *testing.T) {
	m := newTestModule()
	m.inst.Tables = []*wasm.Table{{Elements: []int32{-1, -1, -1, -1}, Min: 4, Max: 8}}
	m.inst.ElementSegments = []*wasm.ElementSegment{{Elements: []int32{3, 2, 1}}}

	// table.init {dst, src, len} from registers; table|segment indices high.
	initFn := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, nil), 2,
		ir.New(ir.OpTableInit, 0, 1, 2, uint64(0)<<48|uint64(0)<<32),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err := m.invoke(t, initFn, 1, 0, 3)
	require.NoError(t, err)
	require.Equal(t, []int32{-1, 3, 2, 1}, m.inst.Tables[0].Elements)

	get := m.addFunc(m.ft([]wasm.ValueType{i32}, []wasm.ValueType{i32}), 1,
		ir.New(ir.OpTableGet, 1, 0, nr, 0),
		ir.New(ir.OpReturnReg, 1, nr, nr, 0),
	)
	res, err := m.invoke(t, get, 1)
	require.NoError(t, err)
	require.Equal(t, int32(3), int32(uint32(res[0])))
	_, err = m.invoke(t, get, 9)
	require.EqualError(t, err, "wasm trap: out of bounds table access")

	set := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, nil), 1,
		ir.New(ir.OpTableSet, nr, 0, 1, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, set, 0, 7)
	require.NoError(t, err)
	require.Equal(t, int32(7), m.inst.Tables[0].Elements[0])

	size := m.addFunc(m.ft(nil, []wasm.ValueType{i32}), 0,
		ir.New(ir.OpTableSize, 0, nr, nr, 0),
		ir.New(ir.OpReturnReg, 0, nr, nr, 0),
	)
	res, err = m.invoke(t, size)
	require.NoError(t, err)
	require.Equal(t, []uint64{4}, res)

	grow := m.addFunc(m.ft([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}), 2,
		ir.New(ir.OpTableGrow, 2, 0, 1, 0),
		ir.New(ir.OpReturnReg, 2, nr, nr, 0),
	)
	res, err = m.invoke(t, grow, 2, uint64(^uint32(0)))
	require.NoError(t, err)
	require.Equal(t, []uint64{4}, res, "grow returns the old size")
	require.Equal(t, 6, len(m.inst.Tables[0].Elements))
	res, err = m.invoke(t, grow, 100, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{0xffffffff}, res)

	fill := m.addFunc(m.ft([]wasm.ValueType{i32, i32, i32}, nil), 2,
		ir.New(ir.OpTableFill, 0, 1, 2, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, fill, 0, 5, 6)
	require.NoError(t, err)
	require.Equal(t, []int32{5, 5, 5, 5, 5, 5}, m.inst.Tables[0].Elements)

	// elem.drop truncates; re-init of len>0 traps.
	drop := m.addFunc(m.ft(nil, nil), 0,
		ir.New(ir.OpElemDrop, nr, nr, nr, 0),
		ir.New(ir.OpReturn, nr, nr, nr, 0),
	)
	_, err = m.invoke(t, drop)
	require.NoError(t, err)
	_, err = m.invoke(t, initFn, 0, 0, 1)
	require.EqualError(t, err, "wasm trap: out of bounds table access")
}

func TestExecute_RefFunc(t *testing.T) {
	m := newTestModule()
	fn := m.addFunc(m.ft(nil, []wasm.ValueType{wasm.ValueTypeFuncref}), 0,
		ir.New(ir.OpRefFunc, 0, nr, nr, 3),
		ir.New(ir.OpReturnReg, 0, nr, nr, 0),
	)
	res, err := m.invoke(t, fn)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, res)
}

func TestCallStack(t *testing.T) {
	f1, f2 := &callFrame{}, &callFrame{}

	var cs callStack
	require.Zero(t, cs.depth())

	require.NoError(t, cs.push(f1))
	require.Equal(t, f1, cs.top())
	require.Nil(t, cs.parent())

	require.NoError(t, cs.push(f2))
	require.Equal(t, f2, cs.top())
	require.Equal(t, f1, cs.parent())

	f3 := &callFrame{}
	cs.replaceTop(f3)
	require.Equal(t, f3, cs.top())
	require.Equal(t, 2, cs.depth())

	require.Equal(t, f3, cs.pop())
	require.Equal(t, f1, cs.pop())
	require.Zero(t, cs.depth())
}

func TestCallStack_Ceiling(t *testing.T) {
	saved := callStackCeiling
	defer func() { callStackCeiling = saved }()
	callStackCeiling = 2

	var cs callStack
	require.NoError(t, cs.push(&callFrame{}))
	require.NoError(t, cs.push(&callFrame{}))
	err := cs.push(&callFrame{})
	require.EqualError(t, err, "wasm trap: stack overflow")
}
