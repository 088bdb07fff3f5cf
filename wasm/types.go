// Package wasm is the decoded module data model that the validate package
// consumes. It owns no parsing logic and no typechecking logic: it is pure
// data, the way spec.md §3.3 describes the "module view" the validator reads.
package wasm

import "fmt"

// NumType is one of the four scalar numeric types (spec.md §3.1).
type NumType uint8

const (
	I32 NumType = iota
	I64
	F32
	F64
)

func (t NumType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("numtype(%d)", uint8(t))
	}
}

// Is64 reports whether t is the 64-bit variant of its category.
func (t NumType) Is64() bool {
	return t == I64 || t == F64
}

// IsInt reports whether t is an integer type (as opposed to a float type).
func (t NumType) IsInt() bool {
	return t == I32 || t == I64
}

// HeapType is the "what it points to" half of a reference type. Negative
// codes name one of the closed set of abstract heap types from spec.md
// §3.1; non-negative codes name a concrete type index into Module.Types.
// This mirrors the sign convention isolate/types.go uses for typeCode.
type HeapType int32

const (
	HeapAny HeapType = -1 - iota
	HeapNone
	HeapEq
	HeapI31
	HeapStruct
	HeapArray
	HeapNoFunc
	HeapFunc
	HeapExtern
	HeapNoExtern
)

// IsAbstract reports whether h names one of the built-in heap types rather
// than a concrete type index.
func (h HeapType) IsAbstract() bool {
	return h < 0
}

// TypeIndex returns the concrete type index h names, if any.
func (h HeapType) TypeIndex() (uint32, bool) {
	if h < 0 {
		return 0, false
	}
	return uint32(h), true
}

func (h HeapType) String() string {
	switch h {
	case HeapAny:
		return "any"
	case HeapNone:
		return "none"
	case HeapEq:
		return "eq"
	case HeapI31:
		return "i31"
	case HeapStruct:
		return "struct"
	case HeapArray:
		return "array"
	case HeapNoFunc:
		return "nofunc"
	case HeapFunc:
		return "func"
	case HeapExtern:
		return "extern"
	case HeapNoExtern:
		return "noextern"
	default:
		return fmt.Sprintf("type %d", int32(h))
	}
}

// RefType is a nullable reference to a heap type.
type RefType struct {
	Nullable bool
	Heap     HeapType
}

func (r RefType) String() string {
	if r.Nullable {
		return fmt.Sprintf("(ref null %s)", r.Heap)
	}
	return fmt.Sprintf("(ref %s)", r.Heap)
}

// ValKind distinguishes the two families a ValType can belong to.
type ValKind uint8

const (
	KindNum ValKind = iota
	KindRef
)

// ValType is a module-declared value type: either a number type or a
// reference type. Mirrors isolate/types.go's valType, generalized past
// the isolate-only numOrVecType (we never need the vector type here).
type ValType struct {
	Kind ValKind
	Num  NumType
	Ref  RefType
}

// Num builds a numeric ValType.
func Num(t NumType) ValType { return ValType{Kind: KindNum, Num: t} }

// RefVal builds a reference ValType.
func RefVal(rt RefType) ValType { return ValType{Kind: KindRef, Ref: rt} }

func (v ValType) IsNum() bool { return v.Kind == KindNum }
func (v ValType) IsRef() bool { return v.Kind == KindRef }

func (v ValType) String() string {
	if v.IsRef() {
		return v.Ref.String()
	}
	return v.Num.String()
}

// FuncType is a block signature: a (params, results) pair.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// BlockType is the optional signature annotation on a block/loop/if.
// At most one of Single or HasIdx is set; if neither is set the block
// type is the empty signature.
type BlockType struct {
	Single  *ValType
	HasIdx  bool
	TypeIdx uint32
}

// Resolve returns the (params, results) a block type denotes, looking up
// TypeIdx in mod.Types when present.
func (bt BlockType) Resolve(mod *Module) FuncType {
	switch {
	case bt.HasIdx:
		return mod.Types[bt.TypeIdx]
	case bt.Single != nil:
		return FuncType{Results: []ValType{*bt.Single}}
	default:
		return FuncType{}
	}
}

// Limits are the shared min/max bounds for tables and memories.
type Limits struct {
	Min    uint64
	Max    uint64
	HasMax bool
}

type TableType struct {
	Elem   RefType
	Limits Limits
}

type MemType struct {
	Limits Limits
}

type GlobalType struct {
	Mutable bool
	Type    ValType
}
