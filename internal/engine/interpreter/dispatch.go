// Package interpreter is a register-machine WebAssembly execution core: an
// already-translated instruction stream in, guest-observable traps and
// results out. It does not parse or validate Wasm binaries and does not
// instantiate modules; it consumes the ir.CodeMap and wasm.Instance/Store
// shapes produced upstream.
package interpreter

import (
	"github.com/wazcore/wazcore/internal/engine/interpreter/ir"
	"github.com/wazcore/wazcore/internal/wasm"
)

// Engine is the single-threaded, cooperative executor (spec §4, C6): it owns
// the value stack, the call stack, a mutable borrow of the store, and the
// innermost frame's cached window/ip for the duration of a dispatch run.
// There is exactly one Engine per concurrent execution; it is not safe to
// share across goroutines, matching the "single owner of mutation" model.
type Engine struct {
	store *wasm.Store
	code  *ir.CodeMap

	stack *ValueStack
	calls callStack
	cache instanceCache

	// window/ip cache the innermost frame's register window and logical
	// instruction pointer; the dispatch loop re-derives them from the top
	// callFrame at every safe point (call entry, host-call resume) rather
	// than trusting stale copies across a stack growth (spec §9).
	window FrameWindow
	ip     int

	// sig accumulates the runtime signature (spec §4.9) when enabled.
	sig uint64
}

// NewEngine constructs an executor bound to one store and code map. A fresh
// Engine is needed per top-level invocation; nothing here is safe to reuse
// concurrently.
func NewEngine(store *wasm.Store, code *ir.CodeMap) *Engine {
	return &Engine{
		store: store,
		code:  code,
		stack: newValueStack(),
	}
}

// Result is what Execute/WriteHostResult return on a normal (non-trapping) return
// from the root frame: the cells the entry function produced, typed by its
// signature (left to the caller to interpret against FuncType.Results).
type Result struct {
	Cells []cell
}

// Suspended is returned instead of Result when the loop hit a host call;
// the embedder must run Call.Func and pass its ResultsLen result cells to
// WriteHostResult, which stores them starting at Call.ResultsBase in the
// engine's value stack and resumes dispatch.
type Suspended struct {
	Call HostCall
}

// Execute runs fn (an internal function; calling an imported function as
// the entry point makes no sense, matching spec §1's "invoking exported
// functions" living outside the core) with the given arguments until it
// returns, traps, or suspends on a host call.
func (e *Engine) Execute(inst *wasm.Instance, fn *wasm.FuncMeta, args []cell) (*Result, *Suspended, error) {
	e.cache.refresh(inst)
	root := &callFrame{
		instance:   inst,
		meta:       fn,
		baseOffset: 0,
		ip:         fn.EntryIP,
	}
	e.stack.reserveFrame(0, int(fn.MaxRegister)+1)
	win := e.stack.frameWindow(0, fn.MaxRegister)
	for i, a := range args {
		win.set(ir.Reg(i), a)
	}
	if err := e.calls.push(root); err != nil {
		return nil, nil, err
	}
	return e.run()
}

// WriteHostResult copies the embedder-produced results of a just-completed
// host call into the value stack at call.ResultsBase (an absolute index, so
// no window pointer is trusted here), then resumes dispatch. This is the
// only re-entry point after a Suspended return.
func (e *Engine) WriteHostResult(call HostCall, results []cell) (*Result, *Suspended, error) {
	for i, v := range results {
		e.stack.values[call.ResultsBase+i] = v
	}
	if call.Tail {
		// The frame that issued the tail call was never covered by a callee
		// frame; popping it now finishes the unwind the tail call began. Its
		// results already sit in the original caller's span (or, for a root
		// tail call, in the staging area we just wrote).
		top := e.popAndReturn()
		if top == nil {
			return &Result{Cells: results}, nil, nil
		}
		return e.run()
	}
	// Normal call: the caller's saved ip already points past the call
	// instruction; run re-derives the window before the next access.
	return e.run()
}

// HostArgs returns the staged argument cells for a pending host call. The
// returned slice aliases the value stack and is only valid until the next
// WriteHostResult.
func (e *Engine) HostArgs(call HostCall) []cell {
	return e.stack.values[call.ArgsBase : call.ArgsBase+call.ArgsLen]
}

// Signature returns the runtime-signature accumulator (spec §4.9). Zero
// unless Store.SignatureTracking was set before Execute.
func (e *Engine) Signature() uint64 { return e.sig }

// loadFrame re-derives the cached window/ip from f, the discipline required
// any time the active frame changes (call entry, return, resume).
func (e *Engine) loadFrame(f *callFrame) {
	e.cache.refresh(f.instance)
	e.window = e.stack.frameWindow(f.baseOffset, f.meta.MaxRegister)
	e.ip = f.ip
}

// run is the dispatch loop: fetch, classify, execute, advance. It returns
// whenever the root frame returns, a host call suspends execution, or a
// kernel raises a trap/fatal error.
func (e *Engine) run() (*Result, *Suspended, error) {
	e.loadFrame(e.calls.top())
	for {
		frame := e.calls.top()
		instr := e.code.Instrs[e.ip]

		if instr.IsParameterWord() {
			return nil, nil, fatalf("parameter word %v reached as a dispatch target at ip=%d", instr.Op, e.ip)
		}

		if e.store.SignatureTracking {
			e.sig = ir.Mix(e.sig, ir.OpcodePrime(instr.Op)^e.sigOperand(instr))
		}

		next, hc, trapKind, err := e.step(frame, instr)
		if err != nil {
			return nil, nil, err
		}
		if trapKind != TrapNone {
			return nil, nil, trap(trapKind)
		}
		if hc != nil {
			frame.ip = e.ip + 1
			return nil, &Suspended{Call: *hc}, nil
		}

		switch next.kind {
		case stepAdvance:
			e.ip++
		case stepJump:
			e.ip = next.target
		case stepNewFrame:
			frame.ip = e.ip + 1
			e.loadFrame(next.frame)
		case stepReplaceFrame:
			e.loadFrame(next.frame)
		case stepReturn:
			// stepReturn is only produced when the root frame just popped
			// (non-root returns re-enter via stepReplaceFrame with the caller).
			return &Result{Cells: next.results}, nil, nil
		}
	}
}

type stepKind byte

const (
	stepAdvance stepKind = iota
	stepJump
	stepNewFrame
	stepReplaceFrame
	stepReturn
)

type stepResult struct {
	kind    stepKind
	target  int
	frame   *callFrame
	results []cell
}

// step executes one instruction and reports what the loop should do next.
// It is split out from run's for-loop body purely so the giant opcode
// switch doesn't bury the loop's control-flow bookkeeping.
func (e *Engine) step(frame *callFrame, instr ir.Instruction) (stepResult, *HostCall, TrapKind, error) {
	switch {
	case instr.Op >= ir.OpI32Eq && instr.Op <= ir.OpF64ConvertI64U:
		if k := e.execArith(instr); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case instr.Op >= ir.OpI32Load && instr.Op <= ir.OpF64LoadOffset16,
		instr.Op >= ir.OpI32Load8s && instr.Op <= ir.OpI64Load32uOffset16:
		shape := loadShapes[instr.Op]
		if k := e.execLoad(instr, shape); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case instr.Op >= ir.OpI32Store && instr.Op <= ir.OpF64StoreAt:
		shape := storeShapes[instr.Op]
		if k := e.execStore(instr, shape, storeHasImm(instr.Op)); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case instr.Op == ir.OpGlobalGet:
		e.execGlobalGet(instr)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpGlobalSet:
		e.execGlobalSet(instr)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpGlobalSetI32Imm16:
		idx, imm := ir.UnpackOffsetImm(instr.Imm)
		e.execGlobalSetImm16(idx, imm, false)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpGlobalSetI64Imm16:
		idx, imm := ir.UnpackOffsetImm(instr.Imm)
		e.execGlobalSetImm16(idx, imm, true)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case instr.Op == ir.OpMemorySize:
		e.execMemorySize(instr)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpMemoryGrow:
		if k := e.execMemoryGrow(instr, false); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpMemoryGrowBy:
		if k := e.execMemoryGrow(instr, true); k != TrapNone {
			return stepResult{}, nil, k, nil
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpElemDrop:
		e.execElemDrop(instr.Const32())
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil
	case instr.Op == ir.OpDataDrop:
		e.execDataDrop(instr.Const32())
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case isBulkTableOrMemory(instr.Op):
		return e.stepBulk(instr)

	case isTableOp(instr.Op):
		return e.stepTable(instr)

	case instr.Op == ir.OpBranch:
		sig := e.execBranch(e.ip, instr)
		return stepResult{kind: stepJump, target: sig.target}, nil, TrapNone, nil
	case instr.Op == ir.OpBranchEqz:
		sig := e.execBranchEqz(e.ip, instr)
		return toStep(sig), nil, TrapNone, nil
	case instr.Op == ir.OpBranchNez:
		sig := e.execBranchNez(e.ip, instr)
		return toStep(sig), nil, TrapNone, nil
	case instr.Op == ir.OpBranchTable:
		sig := e.execBranchTable(e.ip, instr)
		return stepResult{kind: stepJump, target: sig.target}, nil, TrapNone, nil
	case instr.Op == ir.OpBranchCmpFallback:
		sig := e.execBranchCmpFallback(e.ip, instr)
		return toStep(sig), nil, TrapNone, nil
	case isFusedBranch(instr.Op):
		sig := e.execFusedBranch(e.ip, instr)
		return toStep(sig), nil, TrapNone, nil

	case isReturnFamily(instr.Op):
		return e.stepReturn(frame, instr)

	case isCopy(instr.Op):
		e.execCopy(instr)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case isSelect(instr.Op):
		e.execSelect(instr)
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case instr.Op == ir.OpRefFunc:
		e.execRefFunc(instr, instr.Const32())
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	case isCallFamily(instr.Op):
		return e.stepCall(frame, instr)

	case instr.Op == ir.OpTrap:
		// The trap code is baked into the instruction by the translator
		// (unreachable lowers to Trap(UnreachableCodeReached), and so on).
		return stepResult{}, nil, TrapKind(instr.Imm), nil
	case instr.Op == ir.OpConsumeFuel:
		if e.store.FuelEnabled {
			e.store.Fuel -= int64(instr.Imm)
			if e.store.Fuel < 0 {
				return stepResult{}, nil, TrapOutOfFuel, nil
			}
		}
		return stepResult{kind: stepAdvance}, nil, TrapNone, nil

	default:
		return stepResult{}, nil, 0, fatalf("unhandled opcode %v at ip=%d", instr.Op, e.ip)
	}
}

func toStep(sig controlSignal) stepResult {
	if sig.kind == controlJump {
		return stepResult{kind: stepJump, target: sig.target}
	}
	return stepResult{kind: stepAdvance}
}

// sigOperand picks the primary register operand whose 64-bit bit pattern is
// XORed into the opcode prime: the lhs source (A) when the instruction has
// one, otherwise its sole register (Result), otherwise nothing. Operand-less
// instructions contribute the bare prime.
func (e *Engine) sigOperand(instr ir.Instruction) uint64 {
	switch {
	case instr.A >= 0:
		return e.window.get(instr.A)
	case instr.Result >= 0:
		return e.window.get(instr.Result)
	default:
		return 0
	}
}

func isFusedBranch(op ir.Opcode) bool {
	return op >= ir.OpBranchI32And && op <= ir.OpBranchF64Ge
}

func isReturnFamily(op ir.Opcode) bool {
	return op >= ir.OpReturn && op <= ir.OpReturnNezMany
}

func isCopy(op ir.Opcode) bool {
	return op >= ir.OpCopy && op <= ir.OpCopyManyNonOverlapping
}

func isSelect(op ir.Opcode) bool {
	return op >= ir.OpSelect && op <= ir.OpSelectF64Imm32
}

func isCallFamily(op ir.Opcode) bool {
	return op >= ir.OpReturnCallInternal0 && op <= ir.OpCallIndirect
}

func isTableOp(op ir.Opcode) bool {
	switch op {
	case ir.OpTableGet, ir.OpTableGetImm, ir.OpTableSize, ir.OpTableSet, ir.OpTableSetAt,
		ir.OpTableGrow, ir.OpTableGrowImm:
		return true
	default:
		return false
	}
}

func isBulkTableOrMemory(op ir.Opcode) bool {
	_, ok := bulkMasks[op]
	return ok
}
