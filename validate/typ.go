package validate

import (
	"fmt"

	"github.com/bvisness/wasm-validate/wasm"
)

// typKind tags the four members of the abstract stack-element lattice
// (spec.md §3.1, §4.1).
type typKind uint8

const (
	typNum typKind = iota
	typRef
	typAny       // polymorphic bottom: appears only from unreachable code
	typSomething // universal top: appears from an unconstrained select
)

// Typ is one element of the abstract validation stack. Unlike wasm.ValType,
// nullability is intentionally erased (spec.md §3.1) and two lattice
// markers, Any and Something, are representable alongside concrete types.
type Typ struct {
	kind typKind
	num  wasm.NumType
	ref  wasm.HeapType
}

// NumT builds a numeric stack element.
func NumT(t wasm.NumType) Typ { return Typ{kind: typNum, num: t} }

// RefT builds a reference stack element, erasing nullability.
func RefT(ht wasm.HeapType) Typ { return Typ{kind: typRef, ref: ht} }

// Any is the polymorphic bottom.
var Any = Typ{kind: typAny}

// Something is the universal top.
var Something = Typ{kind: typSomething}

func (t Typ) IsAny() bool       { return t.kind == typAny }
func (t Typ) IsSomething() bool { return t.kind == typSomething }
func (t Typ) IsNum() bool       { return t.kind == typNum }
func (t Typ) IsRef() bool       { return t.kind == typRef }

// HeapType returns the heap type of a reference Typ; meaningless otherwise.
func (t Typ) HeapType() wasm.HeapType { return t.ref }

// NumType returns the number type of a numeric Typ; meaningless otherwise.
func (t Typ) NumType() wasm.NumType { return t.num }

func (t Typ) String() string {
	switch t.kind {
	case typAny:
		return "<bottom>"
	case typSomething:
		return "<top>"
	case typRef:
		return fmt.Sprintf("(ref %s)", t.ref)
	default:
		return t.num.String()
	}
}

// FromValType lifts a module-declared value type onto the abstract stack,
// erasing nullability per spec.md §3.1.
func FromValType(v wasm.ValType) Typ {
	if v.IsRef() {
		return RefT(v.Ref.Heap)
	}
	return NumT(v.Num)
}

func fromValTypes(vs []wasm.ValType) []Typ {
	if len(vs) == 0 {
		return nil
	}
	out := make([]Typ, len(vs))
	for i, v := range vs {
		out[i] = FromValType(v)
	}
	return out
}

// reversed returns a new slice with ts in the opposite order, turning a
// module-declared bottom-first list into the top-first order the stack
// uses, or back again (spec.md §3.2).
func reversed(ts []Typ) []Typ {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Typ, len(ts))
	for i, t := range ts {
		out[len(ts)-1-i] = t
	}
	return out
}

// matchRefType is spec.md §4.1's match_ref_type.
func matchRefType(required, got wasm.HeapType) bool {
	if required == wasm.HeapAny {
		return true
	}
	return required == got
}

// matchTypes is spec.md §4.1's match_types.
func matchTypes(required, got Typ) bool {
	if required.IsSomething() || got.IsSomething() {
		return true
	}
	if required.IsAny() || got.IsAny() {
		return true
	}
	if required.IsNum() && got.IsNum() {
		return required.num == got.num
	}
	if required.IsRef() && got.IsRef() {
		return matchRefType(required.ref, got.ref)
	}
	return false
}

// equal is spec.md §4.2's equal: equality modulo Any, where an Any on
// either side may be split across zero or more elements of the other
// side. The search explores both choices at every Any boundary, as the
// design notes (spec.md §9) require, rather than assuming Any only ever
// appears at the tail.
func equal(a, b []Typ) bool {
	type key struct{ i, j int }
	failed := map[key]bool{}

	var rec func(i, j int) bool
	rec = func(i, j int) bool {
		if i == len(a) {
			return allAny(b[j:])
		}
		if j == len(b) {
			return allAny(a[i:])
		}

		k := key{i, j}
		if failed[k] {
			return false
		}

		aAny := a[i].IsAny()
		bAny := b[j].IsAny()

		var ok bool
		switch {
		case aAny && bAny:
			ok = rec(i+1, j) || rec(i, j+1)
		case aAny:
			ok = rec(i+1, j) || rec(i, j+1)
		case bAny:
			ok = rec(i, j+1) || rec(i+1, j)
		default:
			ok = matchTypes(a[i], b[j]) && rec(i+1, j+1)
		}

		if !ok {
			failed[k] = true
		}
		return ok
	}

	return rec(0, 0)
}

func allAny(ts []Typ) bool {
	for _, t := range ts {
		if !t.IsAny() {
			return false
		}
	}
	return true
}
