package validate

import "github.com/bvisness/wasm-validate/wasm"

// Env is the per-function validation environment (spec.md §3.4). It is a
// read-only view of the module plus the per-function locals and the LIFO
// stack of enclosing-block jump-types; refs is the one piece of state
// shared (and only ever grown) across an entire module's validation.
type Env struct {
	mod    *wasm.Module
	locals []Typ
	result []Typ // declared result types, reversed to top-first

	blocks [][]Typ // LIFO; blocks[len(blocks)-1] is label 0, the innermost block

	refs map[uint32]struct{}
}

func newEnv(mod *wasm.Module, locals []Typ, result []wasm.ValType, refs map[uint32]struct{}) *Env {
	return &Env{
		mod:    mod,
		locals: locals,
		result: reversed(fromValTypes(result)),
		refs:   refs,
	}
}

func (e *Env) pushBlock(jumpType []Typ) {
	e.blocks = append(e.blocks, jumpType)
}

func (e *Env) popBlock() {
	e.blocks = e.blocks[:len(e.blocks)-1]
}

// label returns the jump-type for a branch to depth i, where 0 names the
// innermost enclosing block (spec.md §3.4, §9).
func (e *Env) label(i uint32) ([]Typ, error) {
	idx := len(e.blocks) - 1 - int(i)
	if idx < 0 || idx >= len(e.blocks) {
		return nil, &ValidationError{Kind: UnknownLabel}
	}
	return e.blocks[idx], nil
}

func (e *Env) isDeclaredRef(idx uint32) bool {
	_, ok := e.refs[idx]
	return ok
}
