package validate

import (
	"fmt"

	"github.com/bvisness/wasm-validate/wasm"
)

// checkMem is spec.md §4.3's check_mem.
func checkMem(mod *wasm.Module, width, align uint32) error {
	if !mod.HasMemory() {
		return &ValidationError{Kind: UnknownMemory}
	}
	if align >= width {
		return &ValidationError{Kind: AlignmentTooLarge}
	}
	return nil
}

// typecheckExpr is spec.md §4.3's "Block entry / exit": it validates instrs
// as the body of a block/loop/if-arm with the given signature, starting
// from prevStack, and returns the stack after the whole block has been
// applied to prevStack.
func typecheckExpr(env *Env, instrs []wasm.Instr, isLoop bool, ft wasm.FuncType, prevStack []Typ) ([]Typ, error) {
	pt := reversed(fromValTypes(ft.Params))
	rt := reversed(fromValTypes(ft.Results))

	jumpType := rt
	if isLoop {
		jumpType = pt
	}

	env.pushBlock(jumpType)
	defer env.popBlock()

	stack := append([]Typ(nil), pt...)
	for _, in := range instrs {
		var err error
		stack, err = typecheckInstr(env, stack, in)
		if err != nil {
			return nil, err
		}
	}

	if !equal(stack, rt) {
		return nil, typeMismatch(fmt.Sprintf("block: expected stack %v, got %v", rt, stack))
	}

	remainder, ok := matchPrefix(pt, prevStack)
	if !ok {
		return nil, typeMismatch(fmt.Sprintf("block: incoming stack %v cannot supply params %v", prevStack, pt))
	}
	return push(rt, remainder), nil
}

// typecheckInstr is spec.md §4.3's typecheck_instr.
func typecheckInstr(env *Env, stack []Typ, in wasm.Instr) ([]Typ, error) {
	switch in.Op {
	case wasm.OpUnreachable:
		return []Typ{Any}, nil

	case wasm.OpNop:
		return stack, nil

	case wasm.OpDrop:
		return drop(stack)

	case wasm.OpBlock:
		ft := in.BlockType.Resolve(env.mod)
		return typecheckExpr(env, in.Then, false, ft, stack)

	case wasm.OpLoop:
		ft := in.BlockType.Resolve(env.mod)
		return typecheckExpr(env, in.Then, true, ft, stack)

	case wasm.OpIf:
		popped, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		ft := in.BlockType.Resolve(env.mod)
		thenStack, err := typecheckExpr(env, in.Then, false, ft, popped)
		if err != nil {
			return nil, err
		}
		elseStack, err := typecheckExpr(env, in.Else, false, ft, popped)
		if err != nil {
			return nil, err
		}
		if !equal(thenStack, elseStack) {
			return nil, typeMismatch("if_else: then/else arms disagree")
		}
		return thenStack, nil

	case wasm.OpReturn:
		if _, err := pop(env.result, stack); err != nil {
			return nil, err
		}
		return []Typ{Any}, nil

	case wasm.OpBr:
		jt, err := env.label(in.Idx)
		if err != nil {
			return nil, err
		}
		if _, err := pop(jt, stack); err != nil {
			return nil, err
		}
		return []Typ{Any}, nil

	case wasm.OpBrIf:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		jt, err := env.label(in.Idx)
		if err != nil {
			return nil, err
		}
		rem, err := pop(jt, s)
		if err != nil {
			return nil, err
		}
		return push(jt, rem), nil

	case wasm.OpBrTable:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		defJt, err := env.label(in.Idx)
		if err != nil {
			return nil, err
		}
		rem, err := pop(defJt, s)
		if err != nil {
			return nil, typeMismatch("br_table")
		}
		for _, l := range in.Labels {
			jt, err := env.label(l)
			if err != nil {
				return nil, err
			}
			if len(jt) != len(defJt) {
				return nil, typeMismatch("br_table")
			}
			if _, err := pop(jt, rem); err != nil {
				return nil, typeMismatch("br_table")
			}
		}
		return []Typ{Any}, nil

	case wasm.OpCall:
		f := env.mod.Funcs[in.Idx]
		return popPush(env.mod.Types[f.TypeIdx], stack)

	case wasm.OpCallIndirect:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return popPush(env.mod.Types[in.Idx2], s)

	case wasm.OpCallRef:
		// Result-typing from the declared function type is a known TODO
		// (spec.md §9.4); only the reference operand is checked.
		return popRef(stack)

	case wasm.OpReturnCall:
		f := env.mod.Funcs[in.Idx]
		ft := env.mod.Types[f.TypeIdx]
		if !equal(reversed(fromValTypes(ft.Results)), env.result) {
			return nil, typeMismatch("return_call: result type")
		}
		if _, err := pop(reversed(fromValTypes(ft.Params)), stack); err != nil {
			return nil, err
		}
		return []Typ{Any}, nil

	case wasm.OpReturnCallIndirect:
		ft := env.mod.Types[in.Idx2]
		if !equal(reversed(fromValTypes(ft.Results)), env.result) {
			return nil, typeMismatch("return_call_indirect: result type")
		}
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		if _, err := pop(reversed(fromValTypes(ft.Params)), s); err != nil {
			return nil, err
		}
		return []Typ{Any}, nil

	case wasm.OpReturnCallRef:
		ft := in.BlockType.Resolve(env.mod)
		if !equal(reversed(fromValTypes(ft.Results)), env.result) {
			return nil, typeMismatch("return_call_ref: result type")
		}
		s, err := popRef(stack)
		if err != nil {
			return nil, err
		}
		if _, err := pop(reversed(fromValTypes(ft.Params)), s); err != nil {
			return nil, err
		}
		return []Typ{Any}, nil

	case wasm.OpLocalGet:
		return push([]Typ{env.locals[in.Idx]}, stack), nil

	case wasm.OpLocalSet:
		return pop([]Typ{env.locals[in.Idx]}, stack)

	case wasm.OpLocalTee:
		s, err := pop([]Typ{env.locals[in.Idx]}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{env.locals[in.Idx]}, s), nil

	case wasm.OpGlobalGet:
		gt := env.mod.Globals[in.Idx].Type
		return push([]Typ{FromValType(gt.Type)}, stack), nil

	case wasm.OpGlobalSet:
		// Mutability is a separate validation pass, out of scope here
		// (spec.md §4.3).
		gt := env.mod.Globals[in.Idx].Type
		return pop([]Typ{FromValType(gt.Type)}, stack)

	case wasm.OpLoad:
		if err := checkMem(env.mod, in.Width, in.MemArg.Align); err != nil {
			return nil, err
		}
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(in.NumType)}, s), nil

	case wasm.OpStore:
		if err := checkMem(env.mod, in.Width, in.MemArg.Align); err != nil {
			return nil, err
		}
		s, err := pop([]Typ{NumT(in.NumType)}, stack)
		if err != nil {
			return nil, err
		}
		return pop([]Typ{NumT(wasm.I32)}, s)

	case wasm.OpMemorySize:
		return push([]Typ{NumT(wasm.I32)}, stack), nil

	case wasm.OpMemoryGrow:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.OpMemoryCopy, wasm.OpMemoryFill, wasm.OpMemoryInit:
		return pop([]Typ{NumT(wasm.I32), NumT(wasm.I32), NumT(wasm.I32)}, stack)

	case wasm.OpNumeric:
		return typecheckNumeric(in, stack)

	case wasm.OpRefNull:
		return push([]Typ{RefT(in.HeapType)}, stack), nil

	case wasm.OpRefIsNull:
		s, err := popRef(stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.OpRefFunc:
		if !env.isDeclaredRef(in.Idx) {
			return nil, &ValidationError{Kind: UndeclaredFunctionReference}
		}
		return push([]Typ{RefT(wasm.HeapFunc)}, stack), nil

	case wasm.OpRefI31:
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{RefT(wasm.HeapI31)}, s), nil

	case wasm.OpI31Get:
		s, err := pop([]Typ{RefT(wasm.HeapI31)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.OpTableGet:
		tt := env.mod.Tables[in.Idx].Type
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{RefT(tt.Elem.Heap)}, s), nil

	case wasm.OpTableSet:
		tt := env.mod.Tables[in.Idx].Type
		return pop([]Typ{RefT(tt.Elem.Heap), NumT(wasm.I32)}, stack)

	case wasm.OpTableFill:
		tt := env.mod.Tables[in.Idx].Type
		return pop([]Typ{NumT(wasm.I32), RefT(tt.Elem.Heap), NumT(wasm.I32)}, stack)

	case wasm.OpTableGrow:
		tt := env.mod.Tables[in.Idx].Type
		s, err := pop([]Typ{NumT(wasm.I32), RefT(tt.Elem.Heap)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.OpTableSize:
		return push([]Typ{NumT(wasm.I32)}, stack), nil

	case wasm.OpTableInit:
		tt := env.mod.Tables[in.Idx].Type
		et := env.mod.Elems[in.Idx2].Type
		if !matchRefType(tt.Elem.Heap, et.Heap) {
			return nil, typeMismatch("table_init")
		}
		return pop([]Typ{NumT(wasm.I32), NumT(wasm.I32), NumT(wasm.I32)}, stack)

	case wasm.OpTableCopy:
		dst := env.mod.Tables[in.Idx].Type
		src := env.mod.Tables[in.Idx2].Type
		if dst.Elem != src.Elem {
			return nil, typeMismatch("table_copy")
		}
		return pop([]Typ{NumT(wasm.I32), NumT(wasm.I32), NumT(wasm.I32)}, stack)

	case wasm.OpSelect:
		return typecheckSelect(stack)

	case wasm.OpSelectT:
		t := FromValType(in.SelectTypes[0])
		s, err := pop([]Typ{NumT(wasm.I32)}, stack)
		if err != nil {
			return nil, err
		}
		s, err = pop([]Typ{t, t}, s)
		if err != nil {
			return nil, err
		}
		return push([]Typ{t}, s), nil

	case wasm.OpArrayLen:
		// Placeholder rule (spec.md §4.3, §9.3): pops the universal top
		// rather than requiring a concrete array reference.
		s, err := pop([]Typ{Something}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.OpUnimplemented:
		return nil, &UnimplementedError{Name: in.Name}

	default:
		return nil, &UnimplementedError{Name: fmt.Sprintf("opcode %d", in.Op)}
	}
}

func typecheckNumeric(in wasm.Instr, stack []Typ) ([]Typ, error) {
	switch in.NumKind {
	case wasm.NumConst:
		return push([]Typ{NumT(in.NumType)}, stack), nil

	case wasm.NumUnop:
		s, err := pop([]Typ{NumT(in.OperandType)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(in.NumType)}, s), nil

	case wasm.NumBinop:
		s, err := pop([]Typ{NumT(in.OperandType), NumT(in.OperandType)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(in.NumType)}, s), nil

	case wasm.NumTestop:
		s, err := pop([]Typ{NumT(in.OperandType)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.NumRelop:
		s, err := pop([]Typ{NumT(in.OperandType), NumT(in.OperandType)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(wasm.I32)}, s), nil

	case wasm.NumCvtop:
		s, err := pop([]Typ{NumT(in.OperandType)}, stack)
		if err != nil {
			return nil, err
		}
		return push([]Typ{NumT(in.NumType)}, s), nil

	default:
		return nil, &UnimplementedError{Name: "numeric instruction"}
	}
}

// typecheckSelect is the untyped select rule from spec.md §4.3.
func typecheckSelect(stack []Typ) ([]Typ, error) {
	s, err := pop([]Typ{NumT(wasm.I32)}, stack)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, typeMismatch("select implicit")
	}
	if s[0].IsAny() {
		return []Typ{Something, Any}, nil
	}
	if len(s) >= 2 && s[1].IsAny() {
		return []Typ{s[0], Any}, nil
	}
	if s[0].IsRef() {
		return nil, typeMismatch("select implicit")
	}
	if len(s) < 2 || !matchTypes(s[0], s[1]) {
		return nil, typeMismatch("select implicit")
	}
	return append([]Typ{s[0]}, s[2:]...), nil
}
