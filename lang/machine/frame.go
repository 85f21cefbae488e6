package machine

// frame records one active user-function call: where to resume the
// caller (returnPC, savedFP) and how many slots this call's locals
// occupy in main, starting at fp.
//
// Call linkage could instead be modeled as saved pc/fp values pushed
// inline onto main itself. This machine keeps an explicit Go call stack
// of frame values instead, the same shape as Thread.callStack in the
// interpreter this one is adapted from — more natural in Go than
// type-asserting saved Addr values back out of a []Value slice on every
// return, and it sidesteps any ambiguity in what "top level" means for
// the halt check (see run's use of len(th.callStack) == 0 in
// machine.go). See DESIGN.md.
type frame struct {
	returnPC int
	savedFP  int
	locals   int
}
