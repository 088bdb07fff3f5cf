// Package validate implements the static type-checker for a decoded
// WebAssembly module, per spec.md. It is purely functional: Validate never
// mutates the wasm.Module it is given, and holds no state beyond the
// declared-refs set for the duration of one call.
package validate

import (
	"fmt"

	"github.com/bvisness/wasm-validate/wasm"
)

// Validate checks an entire decoded module, in the order spec.md §4.5
// prescribes: globals, element segments, data segments, then every
// exported function id is added to the declared-refs set, then every
// local function body. The first error encountered is returned; there is
// no partial acceptance (spec.md §7).
func Validate(mod *wasm.Module) error {
	refs := map[uint32]struct{}{}

	if err := validateGlobals(mod, refs); err != nil {
		return err
	}
	if err := validateElems(mod, refs); err != nil {
		return err
	}
	if err := validateData(mod, refs); err != nil {
		return err
	}

	for _, idx := range mod.ExportedFuncs() {
		refs[idx] = struct{}{}
	}

	for i, f := range mod.Funcs {
		if f.Imported {
			continue
		}
		if err := validateFunc(mod, f, refs); err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
	}
	return nil
}

func validateGlobals(mod *wasm.Module, refs map[uint32]struct{}) error {
	for i, g := range mod.Globals {
		if g.Imported {
			continue
		}
		env := newEnv(mod, nil, nil, refs)
		t, err := typecheckConstExpr(env, g.Init)
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		if t != FromValType(g.Type.Type) {
			return fmt.Errorf("global %d: %w", i, typeMismatch("initializer type disagrees with declared type"))
		}
	}
	return nil
}

func validateElems(mod *wasm.Module, refs map[uint32]struct{}) error {
	for i, e := range mod.Elems {
		for _, init := range e.Init {
			env := newEnv(mod, nil, nil, refs)
			t, err := typecheckConstExpr(env, init)
			if err != nil {
				return fmt.Errorf("elem %d: %w", i, err)
			}
			if t.IsRef() && !matchRefType(e.Type.Heap, t.HeapType()) {
				return fmt.Errorf("elem %d: %w", i, typeMismatch("initializer heap type disagrees with declared element type"))
			}
		}

		if e.Mode.Kind == wasm.ElemActive {
			tbl := mod.Tables[e.Mode.TableIdx].Type
			if tbl.Elem != e.Type {
				return fmt.Errorf("elem %d: %w", i, typeMismatch("active segment's table has a different element type"))
			}
			env := newEnv(mod, nil, nil, refs)
			if _, err := typecheckConstExpr(env, e.Mode.Offset); err != nil {
				return fmt.Errorf("elem %d offset: %w", i, err)
			}
		}
	}
	return nil
}

func validateData(mod *wasm.Module, refs map[uint32]struct{}) error {
	for i, d := range mod.Datas {
		if d.Mode.Kind == wasm.DataActive {
			env := newEnv(mod, nil, nil, refs)
			if _, err := typecheckConstExpr(env, d.Mode.Offset); err != nil {
				return fmt.Errorf("data %d offset: %w", i, err)
			}
		}
	}
	return nil
}

func validateFunc(mod *wasm.Module, f wasm.Func, refs map[uint32]struct{}) error {
	ft := mod.Types[f.TypeIdx]

	locals := make([]Typ, 0, len(ft.Params)+len(f.Locals))
	for _, p := range ft.Params {
		locals = append(locals, FromValType(p))
	}
	for _, l := range f.Locals {
		locals = append(locals, FromValType(l))
	}

	env := newEnv(mod, locals, ft.Results, refs)

	// The function body validates as a block of type (∅, result),
	// starting from an empty stack (spec.md §4.5 step 5); the function's
	// own parameters live in locals, not as incoming block params.
	bodyType := wasm.FuncType{Results: ft.Results}
	_, err := typecheckExpr(env, f.Body, false, bodyType, nil)
	return err
}
