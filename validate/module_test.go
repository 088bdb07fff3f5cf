package validate_test

import (
	"testing"

	"github.com/bvisness/wasm-validate/validate"
	"github.com/bvisness/wasm-validate/wasm"
	"github.com/stretchr/testify/require"
)

func constI32(v int32) wasm.Instr {
	return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.I32, ConstI32: v}
}

func constI64(v int64) wasm.Instr {
	return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.I64, ConstI64: v}
}

func i32Add() wasm.Instr {
	return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumBinop, OperandType: wasm.I32, NumType: wasm.I32}
}

func asValidationError(t *testing.T, err error) *validate.ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidate_LocalGetAndAdd(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{
			Params:  []wasm.ValType{wasm.Num(wasm.I32)},
			Results: []wasm.ValType{wasm.Num(wasm.I32)},
		}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				{Op: wasm.OpLocalGet, Idx: 0},
				constI32(1),
				i32Add(),
			},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_WrongResultTypeRejected(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.Num(wasm.I32)}}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body:    []wasm.Instr{constI64(0)},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_UnreachableSatisfiesAnyResult(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.Num(wasm.I32)}}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body:    []wasm.Instr{{Op: wasm.OpUnreachable}},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_BlockResultConsumedByDrop(t *testing.T) {
	i32 := wasm.Num(wasm.I32)
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				{
					Op:        wasm.OpBlock,
					BlockType: wasm.BlockType{Single: &i32},
					Then:      []wasm.Instr{constI32(7)},
				},
				{Op: wasm.OpDrop},
			},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_BrTableArityMismatchRejected(t *testing.T) {
	i32 := wasm.Num(wasm.I32)
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				{
					Op:        wasm.OpBlock, // label 1: arity 0
					BlockType: wasm.BlockType{},
					Then: []wasm.Instr{
						{
							Op:        wasm.OpBlock, // label 0: arity 1
							BlockType: wasm.BlockType{Single: &i32},
							Then: []wasm.Instr{
								constI32(0),
								{Op: wasm.OpBrTable, Idx: 1, Labels: []uint32{0}},
							},
						},
					},
				},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_RefFuncAcceptedWhenDeclaredByGlobalInit(t *testing.T) {
	funcRef := wasm.RefVal(wasm.RefType{Heap: wasm.HeapFunc})
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{
			{TypeIdx: 0, Body: nil},
			{TypeIdx: 0, Body: []wasm.Instr{
				{Op: wasm.OpRefFunc, Idx: 0},
				{Op: wasm.OpDrop},
			}},
		},
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{Type: funcRef},
			Init: []wasm.Instr{{Op: wasm.OpRefFunc, Idx: 0}},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_RefFuncRejectedWhenUndeclared(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{
			{TypeIdx: 0, Body: nil},
			{TypeIdx: 0, Body: []wasm.Instr{
				{Op: wasm.OpRefFunc, Idx: 0},
				{Op: wasm.OpDrop},
			}},
		},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.UndeclaredFunctionReference, verr.Kind)
}

func TestValidate_TableCopyElemTypeMismatchRejected(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Tables: []wasm.Table{
			{Type: wasm.TableType{Elem: wasm.RefType{Nullable: true, Heap: wasm.HeapFunc}}},
			{Type: wasm.TableType{Elem: wasm.RefType{Nullable: true, Heap: wasm.HeapExtern}}},
		},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				constI32(0),
				constI32(0),
				constI32(0),
				{Op: wasm.OpTableCopy, Idx: 0, Idx2: 1},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_UntypedSelectOnRefsRejected(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc},
				{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc},
				constI32(1),
				{Op: wasm.OpSelect},
				{Op: wasm.OpDrop},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_AnnotatedSelectOnRefsAccepted(t *testing.T) {
	funcRef := wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapFunc})
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc},
				{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc},
				constI32(1),
				{Op: wasm.OpSelectT, SelectTypes: []wasm.ValType{funcRef}},
				{Op: wasm.OpDrop},
			},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_GlobalInitializerTypeMismatchRejected(t *testing.T) {
	mod := &wasm.Module{
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{Type: wasm.Num(wasm.I32)},
			Init: []wasm.Instr{constI64(0)},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_ActiveElemWithConstOffsetAccepted(t *testing.T) {
	mod := &wasm.Module{
		Tables: []wasm.Table{{Type: wasm.TableType{Elem: wasm.RefType{Heap: wasm.HeapFunc}}}},
		Elems: []wasm.Elem{{
			Type: wasm.RefType{Heap: wasm.HeapFunc},
			Init: [][]wasm.Instr{{{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc}}},
			Mode: wasm.ElemMode{
				Kind:   wasm.ElemActive,
				Offset: []wasm.Instr{constI32(0)},
			},
		}},
	}
	require.NoError(t, validate.Validate(mod))
}

func TestValidate_ActiveElemTableTypeMismatchRejected(t *testing.T) {
	mod := &wasm.Module{
		Tables: []wasm.Table{{Type: wasm.TableType{Elem: wasm.RefType{Heap: wasm.HeapExtern}}}},
		Elems: []wasm.Elem{{
			Type: wasm.RefType{Heap: wasm.HeapFunc},
			Init: [][]wasm.Instr{{{Op: wasm.OpRefNull, HeapType: wasm.HeapFunc}}},
			Mode: wasm.ElemMode{
				Kind:   wasm.ElemActive,
				Offset: []wasm.Instr{constI32(0)},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.TypeMismatch, verr.Kind)
}

func TestValidate_UnknownMemoryRejected(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				constI32(0),
				{Op: wasm.OpLoad, NumType: wasm.I32, Width: 4, MemArg: wasm.MemArg{Align: 2}},
				{Op: wasm.OpDrop},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.UnknownMemory, verr.Kind)
}

func TestValidate_AlignmentTooLargeRejected(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Mems:  []wasm.Mem{{Type: wasm.MemType{}}},
		Funcs: []wasm.Func{{
			TypeIdx: 0,
			Body: []wasm.Instr{
				constI32(0),
				{Op: wasm.OpLoad, NumType: wasm.I32, Width: 4, MemArg: wasm.MemArg{Align: 4}},
				{Op: wasm.OpDrop},
			},
		}},
	}
	verr := asValidationError(t, validate.Validate(mod))
	require.Equal(t, validate.AlignmentTooLarge, verr.Kind)
}
