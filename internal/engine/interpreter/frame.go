package interpreter

import "github.com/wazcore/wazcore/internal/wasm"

// callFrame is one activation record in the call stack (spec §3, C3). It
// owns the saved instruction pointer, the base offset its registers are
// carved out of in the shared value stack, and enough of the caller's
// context to write results back and resume it on return.
type callFrame struct {
	instance *wasm.Instance
	meta     *wasm.FuncMeta

	baseOffset int
	ip         int // index into the Engine's CodeMap.Instrs; see dispatch.go

	// resultsBase/resultsLen describe the contiguous register range in the
	// *caller's* window this frame's results land in (spec §3 "results_span").
	// For the root frame both are unused: its results are returned directly
	// from Execute.
	resultsBase int
	resultsLen  int
}

// callStackCeiling bounds recursion depth; exceeding it is a guest-observable
// StackOverflow trap (spec §4.10), not a fatal error, since a host function
// calling back into the guest in a tight cycle is a thing a real module can
// trigger. Grounded on the teacher's own callStackCeiling convention
// (visible in _examples/other_examples/*interpreter_test.go.go, which tests
// pushFrame's overflow behavior directly).
var callStackCeiling = 2048

// callStack is the LIFO of active frames (spec §3, C3). The innermost frame
// is always frames[len(frames)-1]; the executor additionally caches that
// frame's window+ip outside this type for the duration of a dispatch run
// (spec §9 "frame-window pointer aliasing").
type callStack struct {
	frames []*callFrame
}

func (c *callStack) push(f *callFrame) error {
	if len(c.frames) >= callStackCeiling {
		return trap(TrapStackOverflow)
	}
	c.frames = append(c.frames, f)
	return nil
}

// pop removes and returns the innermost frame. Callers must not call pop on
// an empty stack; depth()==0 is the "root returned" condition the dispatch
// loop checks for first.
func (c *callStack) pop() *callFrame {
	n := len(c.frames) - 1
	f := c.frames[n]
	c.frames = c.frames[:n]
	return f
}

// replaceTop swaps the innermost frame for f without growing the stack,
// used by tail calls (spec §4.4 "Tail call ... replace the current frame
// rather than pushing").
func (c *callStack) replaceTop(f *callFrame) {
	c.frames[len(c.frames)-1] = f
}

func (c *callStack) top() *callFrame {
	return c.frames[len(c.frames)-1]
}

// parent returns the frame directly beneath the innermost one, or nil when
// the innermost frame is the root.
func (c *callStack) parent() *callFrame {
	if len(c.frames) < 2 {
		return nil
	}
	return c.frames[len(c.frames)-2]
}

func (c *callStack) depth() int {
	return len(c.frames)
}
