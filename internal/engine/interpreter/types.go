package interpreter

import "github.com/wazcore/wazcore/internal/engine/interpreter/ir"

// regIndex names ir.Reg at the point of use inside this package: a frame
// window index, not a "register" in the physical-hardware sense.
type regIndex = ir.Reg
