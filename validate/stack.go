package validate

import "github.com/bvisness/wasm-validate/wasm"

// push prepends types to the head of stack; types[0] becomes the new top
// (spec.md §4.2).
func push(types, stack []Typ) []Typ {
	if len(types) == 0 {
		return stack
	}
	out := make([]Typ, 0, len(types)+len(stack))
	out = append(out, types...)
	out = append(out, stack...)
	return out
}

// drop is spec.md §4.2's drop.
func drop(stack []Typ) ([]Typ, error) {
	if len(stack) == 0 {
		return nil, typeMismatch("drop")
	}
	if stack[0].IsAny() {
		return []Typ{Any}, nil
	}
	return stack[1:], nil
}

// popRef is spec.md §4.2's pop_ref.
func popRef(stack []Typ) ([]Typ, error) {
	if len(stack) == 0 {
		return nil, typeMismatch("pop_ref")
	}
	top := stack[0]
	switch {
	case top.IsAny():
		return stack, nil // the polymorphic tail is inexhaustible
	case top.IsRef(), top.IsSomething():
		return stack[1:], nil
	default:
		return nil, typeMismatch("pop_ref")
	}
}

// matchPrefix is spec.md §4.2's match_prefix: it consumes prefix from the
// head of stack, tolerating Any on either side, and returns the
// unconsumed tail of stack. Because Any only ever arises as the final
// element of a stack (every other operation appends only on top of it),
// the "matcher may consume it against further prefix elements or leave it
// in place" choice degenerates to a single deterministic pass in
// practice, but the recursive search below makes no such assumption and
// explores both branches explicitly, matching spec.md §9's design note.
func matchPrefix(prefix, stack []Typ) ([]Typ, bool) {
	type key struct{ i, j int }
	failed := map[key]bool{}

	var rec func(i, j int) ([]Typ, bool)
	rec = func(i, j int) ([]Typ, bool) {
		if i == len(prefix) {
			return stack[j:], true
		}
		if j == len(stack) {
			return nil, false
		}

		k := key{i, j}
		if failed[k] {
			return nil, false
		}

		pAny := prefix[i].IsAny()
		sAny := stack[j].IsAny()

		switch {
		case sAny:
			// The stack's Any may absorb this prefix element and remain
			// available for the rest (advance prefix only), or be left
			// in place, which satisfies whatever prefix remains outright.
			if rem, ok := rec(i+1, j); ok {
				return rem, true
			}
			return stack[j:], true
		case pAny:
			if rem, ok := rec(i, j+1); ok {
				return rem, true
			}
			if rem, ok := rec(i+1, j); ok {
				return rem, true
			}
		default:
			if matchTypes(prefix[i], stack[j]) {
				if rem, ok := rec(i+1, j+1); ok {
					return rem, true
				}
			}
		}

		failed[k] = true
		return nil, false
	}

	return rec(0, 0)
}

// pop is spec.md §4.2's pop, surfaced as Ok|Err.
func pop(required, stack []Typ) ([]Typ, error) {
	rem, ok := matchPrefix(required, stack)
	if !ok {
		return nil, typeMismatch("pop")
	}
	return rem, nil
}

// popPush is spec.md §4.2's pop_push: pop a block's parameters (reversed
// to top-first) and push its results (reversed).
func popPush(ft wasm.FuncType, stack []Typ) ([]Typ, error) {
	params := reversed(fromValTypes(ft.Params))
	rem, ok := matchPrefix(params, stack)
	if !ok {
		return nil, typeMismatch("pop_push")
	}
	results := reversed(fromValTypes(ft.Results))
	return push(results, rem), nil
}
