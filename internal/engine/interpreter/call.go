package interpreter

import (
	"github.com/wazcore/wazcore/internal/engine/interpreter/ir"
	"github.com/wazcore/wazcore/internal/wasm"
)

// HostCall describes a suspension point (spec §4.4, §7): the dispatch loop
// never calls into the embedder directly. It returns a HostCall value from
// Execute, the embedder runs the host function and passes its results to
// WriteHostResult, which stores them at ResultsBase and resumes dispatch. This mirrors the
// cooperative-yield model the source is grounded on rather than a coroutine
// or a callback: the Go call stack never grows across a host call.
type HostCall struct {
	// Func identifies which imported function to run; opaque to the core
	// beyond identity (spec §4.4 "host_func_handle").
	Func *wasm.FuncMeta
	// ArgsBase/ArgsLen locate the staged argument cells and ResultsBase the
	// cells the embedder must fill before resuming; both are absolute value
	// stack indices, so they stay valid across any growth the staging did.
	ArgsBase, ArgsLen int
	ResultsBase       int
	ResultsLen        int
	// Tail reports whether this host call arose from a ReturnCallImported*
	// (spec §4.4 "call_kind ∈ {normal, tail}"); the embedder need not treat
	// this differently, but it's surfaced for instrumentation.
	Tail bool
}

// callFuncIdx extracts the static callee function index every
// CallInternal*/CallImported*/ReturnCall{Internal,Imported}* variant carries
// in the high half of Imm; the low half is the RegList reference for the
// argument list (unused, zero, for the 0-arity fast paths). CallIndirect*
// variants don't use this: their callee comes from the table element.
func callFuncIdx(instr ir.Instruction) uint32 {
	return uint32(instr.Imm >> 32)
}

// callArgs resolves the register-or-list operand shape every Call*/ReturnCall*
// variant uses to name its arguments, returning them as plain cells ready to
// be copied into the callee's base window slots [0, n).
func (e *Engine) callArgs(instr ir.Instruction) []cell {
	switch instr.Op {
	case ir.OpCallInternal0, ir.OpCallImported0, ir.OpCallIndirect0,
		ir.OpReturnCallInternal0, ir.OpReturnCallImported0, ir.OpReturnCallIndirect0:
		return nil
	default:
		// General call forms carry their argument registers via an
		// out-of-line RegList the translator interned; instr.Imm references
		// it for every call form, CallIndirect included.
		return e.resolveRegList(instr.Imm)
	}
}

func (e *Engine) resolveRegList(imm uint64) []cell {
	regs := e.code.RegListAt(imm)
	out := make([]cell, len(regs))
	for i, r := range regs {
		out[i] = e.window.get(r)
	}
	return out
}

// pushCalleeFrame allocates a register window for callee immediately above
// the current stack top, copies args into its base registers, and pushes a
// callFrame pointing at callee's entry point. resultsBase/resultsLen say
// where (in the *caller's* window) the callee's results eventually land.
func (e *Engine) pushCalleeFrame(caller *callFrame, callee *wasm.FuncMeta, args []cell, resultsBase, resultsLen int) (*callFrame, error) {
	base := caller.baseOffset + int(caller.meta.MaxRegister) + 1
	e.stack.reserveFrame(base, int(callee.MaxRegister)+1)
	win := e.stack.frameWindow(base, callee.MaxRegister)
	for i, a := range args {
		win.set(ir.Reg(i), a)
	}
	f := &callFrame{
		instance:    callee.Instance,
		meta:        callee,
		baseOffset:  base,
		ip:          callee.EntryIP,
		resultsBase: resultsBase,
		resultsLen:  resultsLen,
	}
	if err := e.calls.push(f); err != nil {
		return nil, err
	}
	return f, nil
}

// execCallInternal handles OpCallInternal/OpCallInternal0: push a new frame
// for a function owned by the same module graph and resume dispatch there.
// The dispatch loop is responsible for switching its cached window/ip/cache
// to the new frame after this returns.
func (e *Engine) execCallInternal(caller *callFrame, instr ir.Instruction, funcIdx uint32) (*callFrame, TrapKind) {
	callee := e.cache.funcMeta(funcIdx)
	args := e.callArgs(instr)
	f, err := e.pushCalleeFrame(caller, callee, args, int(instr.Result), len(callee.Type.Results))
	if err != nil {
		return nil, TrapStackOverflow
	}
	return f, TrapNone
}

// execReturnCallInternal implements the tail-call variant: the current
// frame is replaced in place rather than a new one pushed (spec §4.4 "Stack
// depth is unchanged"). Arguments land in the *current* base window, and
// the tail-called function inherits the caller's own resultsBase/resultsLen
// since its results are, transitively, the original caller's results.
func (e *Engine) execReturnCallInternal(caller *callFrame, instr ir.Instruction, funcIdx uint32) *callFrame {
	callee := e.cache.funcMeta(funcIdx)
	args := e.callArgs(instr)
	e.stack.reserveFrame(caller.baseOffset, int(callee.MaxRegister)+1)
	win := e.stack.frameWindow(caller.baseOffset, callee.MaxRegister)
	for i, a := range args {
		win.set(ir.Reg(i), a)
	}
	f := &callFrame{
		instance:    callee.Instance,
		meta:        callee,
		baseOffset:  caller.baseOffset,
		ip:          callee.EntryIP,
		resultsBase: caller.resultsBase,
		resultsLen:  caller.resultsLen,
	}
	e.calls.replaceTop(f)
	return f
}

// execCallImported/execReturnCallImported build a HostCall descriptor
// rather than pushing a dispatchable frame: an imported function has no IR
// body to jump into (spec §4.4 "suspend by returning a host-call descriptor
// to the outer driver"). The dispatch loop writes the caller's IP back
// after this returns and before it suspends, per the suspension discipline
// (spec §4 "Suspension points").
func (e *Engine) execCallImported(caller *callFrame, instr ir.Instruction, funcIdx uint32, tail bool) (HostCall, error) {
	callee := e.cache.funcMeta(funcIdx)
	args := e.callArgs(instr)
	base := caller.baseOffset + int(caller.meta.MaxRegister) + 1
	e.stack.reserveFrame(base, len(args))
	for i, a := range args {
		e.stack.values[base+i] = a
	}
	// A normal call's results land at the call instruction's result register
	// in the caller's window. A tail call forwards the caller's own results
	// span, which lives in the *parent's* window — except for a root-frame
	// tail call, whose results have no window to land in and are returned to
	// the embedder straight out of the staging area.
	resultsBase := caller.baseOffset + int(instr.Result)
	if tail {
		if parent := e.calls.parent(); parent != nil {
			resultsBase = parent.baseOffset + caller.resultsBase
		} else {
			resultsBase = base
		}
	}
	return HostCall{
		Func:        callee,
		ArgsBase:    base,
		ArgsLen:     len(args),
		ResultsBase: resultsBase,
		ResultsLen:  len(callee.Type.Results),
		Tail:        tail,
	}, nil
}

// execCallIndirect resolves the table element, validates it, and dispatches
// to the internal/imported path accordingly (spec §4.4 "Indirect call").
func (e *Engine) execCallIndirect(caller *callFrame, instr ir.Instruction, tableIdx, index uint32, expected *wasm.FuncType) (*callFrame, *HostCall, TrapKind) {
	t := e.cache.table(tableIdx)
	if index >= uint32(len(t.Elements)) {
		return nil, nil, TrapTableAccessOutOfBounds
	}
	fnIdx := t.Elements[index]
	if fnIdx < 0 {
		return nil, nil, TrapIndirectCallToNull
	}
	callee := e.cache.funcMeta(uint32(fnIdx))
	if !callee.Type.EqualIdentity(expected) {
		return nil, nil, TrapBadSignature
	}
	args := e.callArgs(instr)
	if callee.Kind == wasm.FuncKindImported {
		base := caller.baseOffset + int(caller.meta.MaxRegister) + 1
		e.stack.reserveFrame(base, len(args))
		for i, a := range args {
			e.stack.values[base+i] = a
		}
		hc := HostCall{
			Func:        callee,
			ArgsBase:    base,
			ArgsLen:     len(args),
			ResultsBase: caller.baseOffset + int(instr.Result),
			ResultsLen:  len(callee.Type.Results),
		}
		return nil, &hc, TrapNone
	}
	f, err := e.pushCalleeFrame(caller, callee, args, int(instr.Result), len(callee.Type.Results))
	if err != nil {
		return nil, nil, TrapStackOverflow
	}
	return f, nil, TrapNone
}

// --- CallIndirect parameter-word decoding ----------------------------------
//
// call_indirect needs more static information (table index, expected
// signature) than the three register/Imm slots on one Instruction can
// carry alongside its argument list, so the translator emits it as a
// trailing CallIndirectParams[Imm16] parameter word (spec §3 class 1) read
// directly off the instruction stream rather than dispatched. Layout:
//
//	CallIndirectParams:       Result = tableIdx, A = index register, Imm = typeIdx
//	CallIndirectParamsImm16:  Result = tableIdx, Imm = typeIdx | (indexImm16 << 32)
type indirectParams struct {
	tableIdx uint32
	index    uint32
	funcType *wasm.FuncType
}

func (e *Engine) decodeIndirectParams(paramWord ir.Instruction, types *wasm.FuncTypeRegistry) indirectParams {
	tableIdx := uint32(paramWord.Result)
	if paramWord.Op == ir.OpCallIndirectParamsImm16 {
		typeIdx := uint32(paramWord.Imm)
		index := uint32(uint16(paramWord.Imm >> 32))
		return indirectParams{tableIdx: tableIdx, index: index, funcType: types.TypeAt(typeIdx)}
	}
	typeIdx := uint32(paramWord.Imm)
	index := u32FromCell(e.window.get(paramWord.A))
	return indirectParams{tableIdx: tableIdx, index: index, funcType: types.TypeAt(typeIdx)}
}

// stepCall routes every Call*/ReturnCall* opcode (spec §4.4): decode the
// callee, push/replace/suspend as appropriate, and tell the dispatch loop
// what changed. CallIndirect* variants additionally consume the
// CallIndirectParams[Imm16] word immediately following instr, so they
// report an extra +1 ip advance wherever the loop would otherwise only
// advance by 1.
func (e *Engine) stepCall(frame *callFrame, instr ir.Instruction) (stepResult, *HostCall, TrapKind, error) {
	switch instr.Op {
	case ir.OpCallInternal0, ir.OpCallInternal:
		f, k := e.execCallInternal(frame, instr, callFuncIdx(instr))
		if k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepNewFrame, frame: f}, nil, TrapNone, nil

	case ir.OpReturnCallInternal0, ir.OpReturnCallInternal:
		f := e.execReturnCallInternal(frame, instr, callFuncIdx(instr))
		return stepResult{kind: stepReplaceFrame, frame: f}, nil, TrapNone, nil

	case ir.OpCallImported0, ir.OpCallImported:
		hc, err := e.execCallImported(frame, instr, callFuncIdx(instr), false)
		if err != nil {
			return stepResult{}, nil, 0, err
		}
		return stepResult{}, &hc, TrapNone, nil

	case ir.OpReturnCallImported0, ir.OpReturnCallImported:
		hc, err := e.execCallImported(frame, instr, callFuncIdx(instr), true)
		if err != nil {
			return stepResult{}, nil, 0, err
		}
		return stepResult{}, &hc, TrapNone, nil

	case ir.OpCallIndirect0, ir.OpCallIndirect:
		paramWord := e.code.Instrs[e.ip+1]
		p := e.decodeIndirectParams(paramWord, frame.instance.Types)
		e.ip++ // consume the parameter word regardless of outcome below
		f, hc, k := e.execCallIndirect(frame, instr, p.tableIdx, p.index, p.funcType)
		if k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		if hc != nil {
			return stepResult{}, hc, TrapNone, nil
		}
		return stepResult{kind: stepNewFrame, frame: f}, nil, TrapNone, nil

	case ir.OpReturnCallIndirect0, ir.OpReturnCallIndirect:
		paramWord := e.code.Instrs[e.ip+1]
		p := e.decodeIndirectParams(paramWord, frame.instance.Types)
		e.ip++ // consume the parameter word regardless of outcome below
		t := e.cache.table(p.tableIdx)
		if p.index >= uint32(len(t.Elements)) {
			return stepResult{}, nil, TrapTableAccessOutOfBounds, nil
		}
		fnIdx := t.Elements[p.index]
		if fnIdx < 0 {
			return stepResult{}, nil, TrapIndirectCallToNull, nil
		}
		callee := e.cache.funcMeta(uint32(fnIdx))
		if !callee.Type.EqualIdentity(p.funcType) {
			return stepResult{}, nil, TrapBadSignature, nil
		}
		if callee.Kind == wasm.FuncKindImported {
			hc, err := e.execCallImported(frame, instr, uint32(fnIdx), true)
			if err != nil {
				return stepResult{}, nil, 0, err
			}
			return stepResult{}, &hc, TrapNone, nil
		}
		f := e.execReturnCallInternal(frame, instr, uint32(fnIdx))
		return stepResult{kind: stepReplaceFrame, frame: f}, nil, TrapNone, nil

	default:
		return stepResult{}, nil, 0, fatalf("unhandled call opcode %v", instr.Op)
	}
}

// popAndReturn pops the frame that issued a tail host call once its results
// are in place, reporting the new top (or nil if the root frame just
// returned). Ordinary returns pop inline in stepReturn instead.
func (e *Engine) popAndReturn() *callFrame {
	e.calls.pop()
	if e.calls.depth() == 0 {
		return nil
	}
	return e.calls.top()
}
