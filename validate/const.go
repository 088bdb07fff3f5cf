package validate

import "github.com/bvisness/wasm-validate/wasm"

// typecheckConstExpr is spec.md §4.4: a constant expression is well-typed
// iff, after processing its instructions, the stack has exactly one
// element.
func typecheckConstExpr(env *Env, instrs []wasm.Instr) (Typ, error) {
	var stack []Typ
	for _, in := range instrs {
		var err error
		stack, err = typecheckConstInstr(env, stack, in)
		if err != nil {
			return Typ{}, err
		}
	}
	if len(stack) != 1 {
		return Typ{}, typeMismatch("const expression must produce exactly one value")
	}
	return stack[0], nil
}

// typecheckConstInstr is spec.md §4.4's typecheck_const_instr: a strict
// subset of the full instruction set, closed under an explicit allowlist
// rather than falling back to typecheckInstr.
func typecheckConstInstr(env *Env, stack []Typ, in wasm.Instr) ([]Typ, error) {
	switch in.Op {
	case wasm.OpNumeric:
		switch in.NumKind {
		case wasm.NumConst:
			return push([]Typ{NumT(in.NumType)}, stack), nil
		case wasm.NumBinop:
			if !in.OperandType.IsInt() {
				return nil, &UnimplementedError{Name: "const expr: non-integer binop"}
			}
			s, err := pop([]Typ{NumT(in.OperandType), NumT(in.OperandType)}, stack)
			if err != nil {
				return nil, err
			}
			return push([]Typ{NumT(in.NumType)}, s), nil
		default:
			return nil, &UnimplementedError{Name: "const expr: numeric op"}
		}

	case wasm.OpRefNull:
		return push([]Typ{RefT(in.HeapType)}, stack), nil

	case wasm.OpRefFunc:
		env.refs[in.Idx] = struct{}{}
		return push([]Typ{RefT(wasm.HeapFunc)}, stack), nil

	case wasm.OpGlobalGet:
		g := env.mod.Globals[in.Idx]
		if !g.Imported {
			return nil, &ValidationError{Kind: UnknownGlobal}
		}
		return push([]Typ{FromValType(g.Type.Type)}, stack), nil

	case wasm.OpRefI31:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{RefT(wasm.HeapI31)}, s), nil

	default:
		return nil, &UnimplementedError{Name: "const expr instruction"}
	}
}
