package wasm

// Op identifies an instruction's opcode family. Instr carries whichever of
// its fields are meaningful for a given Op; see the comment on each field.
type Op uint16

const (
	OpUnreachable Op = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpCallRef
	OpReturnCall
	OpReturnCallIndirect
	OpReturnCallRef
	OpDrop
	OpSelect  // untyped select
	OpSelectT // select with an explicit value-type annotation
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpLoad
	OpStore
	OpMemorySize
	OpMemoryGrow
	OpMemoryCopy
	OpMemoryFill
	OpMemoryInit
	OpNumeric // const/unop/binop/testop/relop/cvtop; see NumKind
	OpRefNull
	OpRefIsNull
	OpRefFunc
	OpRefI31
	OpI31Get
	OpArrayLen      // placeholder rule per spec.md §9.3: pops Something, pushes i32
	OpUnimplemented // GC/cast instructions spec.md §4.3 and §9.2 leave as stubs
)

// NumKind distinguishes the numeric-instruction families, since they share
// the encoding of operand/result widths but differ in stack arity.
type NumKind uint8

const (
	NumConst NumKind = iota
	NumUnop
	NumBinop
	NumTestop // pops 1, pushes i32
	NumRelop  // pops 2, pushes i32
	NumCvtop  // pops 1 of OperandType, pushes 1 of NumType
)

// MemArg is the static alignment/offset pair on a load or store.
type MemArg struct {
	Align  uint32 // log2 of the claimed alignment, per the binary encoding
	Offset uint32
}

// Instr is a single instruction, with nested bodies for structured control
// flow. This is the AST the decode package builds and the validate package
// walks; spec.md treats the instruction stream as an external input and
// does not mandate a representation, so this one is free to be whatever
// shape typechecking finds convenient.
type Instr struct {
	Op Op

	// Local/global/function/table/element/data index operands. Idx2 is the
	// second index for two-index ops (table.copy dst,src; table.init table,elem).
	Idx  uint32
	Idx2 uint32

	// Numeric instruction fields (Op == OpNumeric).
	NumKind      NumKind
	OperandType  NumType // source width for Cvtop; operand width otherwise
	NumType      NumType // result width
	ConstI32     int32
	ConstI64     int64
	ConstF32     float32
	ConstF64     float64

	// Reference instruction fields.
	HeapType HeapType // RefNull's heap type
	Signed   bool     // I31Get's signedness

	// select t* annotation (OpSelectT); match_types only ever needs one
	// entry in practice but the binary format allows a vector.
	SelectTypes []ValType

	// Memory instruction fields (Load/Store).
	MemArg MemArg
	Width  uint32 // natural access width in bytes: 1, 2, 4, or 8

	// Control flow.
	BlockType BlockType
	Then      []Instr
	Else      []Instr // only set for OpIf
	Labels    []uint32 // OpBrTable's label vector; Idx carries the default label

	// OpUnimplemented carries the opcode mnemonic for the fatal error.
	Name string
}
