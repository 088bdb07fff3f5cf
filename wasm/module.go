package wasm

// ImportDesc names the (module, field) pair an imported entity resolves
// against. Host-import resolution itself is out of scope (spec.md §1).
type ImportDesc struct {
	Module string
	Name   string
}

// Func is a function, either imported (signature only) or local (with a
// body to validate), matching spec.md §3.3's funcs[i] union.
type Func struct {
	TypeIdx  uint32
	Imported bool
	Import   ImportDesc

	// Local-only fields.
	Locals []ValType // declared locals, not including params, in order
	Body   []Instr
}

// Global is a module-level global, imported or locally initialized by a
// constant expression (spec.md §3.3, §4.4, §4.5).
type Global struct {
	Type     GlobalType
	Imported bool
	Import   ImportDesc
	Init     []Instr // local globals only; a constant expression
}

// Table is a module-level table, imported or locally declared.
type Table struct {
	Type     TableType
	Imported bool
	Import   ImportDesc
}

// Mem is a module-level memory, imported or locally declared.
type Mem struct {
	Type     MemType
	Imported bool
	Import   ImportDesc
}

// ElemModeKind is the three ways an element segment can be attached.
type ElemModeKind uint8

const (
	ElemPassive ElemModeKind = iota
	ElemDeclarative
	ElemActive
)

// ElemMode describes how an element segment is attached to the module.
// ElemActive always carries a TableIdx: spec.md §9.5 notes that
// Elem_active(None, _) is unreachable in a correct data model, so rather
// than leave a fatal branch for it, the impossible state is simply
// unrepresentable here.
type ElemMode struct {
	Kind     ElemModeKind
	TableIdx uint32
	Offset   []Instr // valid when Kind == ElemActive; a constant expression
}

// Elem is an element segment: a declared reference type plus one constant
// expression per initialized element.
type Elem struct {
	Type RefType
	Init [][]Instr
	Mode ElemMode
}

// DataModeKind is the two ways a data segment can be attached.
type DataModeKind uint8

const (
	DataPassive DataModeKind = iota
	DataActive
)

type DataMode struct {
	Kind   DataModeKind
	MemIdx uint32
	Offset []Instr // valid when Kind == DataActive; a constant expression
}

// Data is a data segment.
type Data struct {
	Mode  DataMode
	Bytes []byte
}

// ExportKind names which index space an Export refers into.
type ExportKind uint8

const (
	ExportFunc ExportKind = iota
	ExportTable
	ExportMem
	ExportGlobal
)

type Export struct {
	Name string
	Kind ExportKind
	Idx  uint32
}

// Module is the decoded, index-resolved module the validate package reads
// (spec.md §3.3). It owns no behavior beyond small projections like
// ExportedFuncs; decode builds one, validate never mutates one.
type Module struct {
	Types   []FuncType
	Funcs   []Func
	Tables  []Table
	Mems    []Mem
	Globals []Global
	Elems   []Elem
	Datas   []Data
	Exports []Export
}

// ExportedFuncs returns the function indices named by export entries,
// i.e. spec.md §3.3's exports.func.
func (m *Module) ExportedFuncs() []uint32 {
	var out []uint32
	for _, e := range m.Exports {
		if e.Kind == ExportFunc {
			out = append(out, e.Idx)
		}
	}
	return out
}

// HasMemory reports whether the module declares or imports any memory.
func (m *Module) HasMemory() bool {
	return len(m.Mems) > 0
}
