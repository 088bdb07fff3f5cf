package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bvisness/wasm-validate/utils"
	"github.com/bvisness/wasm-validate/wasm"
)

const (
	secCustom = 0
	secType   = 1
	secImport = 2
	secFunc   = 3
	secTable  = 4
	secMemory = 5
	secGlobal = 6
	secExport = 7
	secStart  = 8
	secElem   = 9
	secCode   = 10
	secData   = 11
	secDCount = 12
)

// Decode reads a binary WebAssembly module and builds the wasm.Module data
// model validate.Validate consumes. It rejects only structurally malformed
// input (bad magic, truncated section, malformed LEB128); everything
// semantic is validate's job.
func Decode(r io.Reader) (*wasm.Module, error) {
	p := newReader(r)

	if err := p.Expect("magic number", []byte{0x00, 'a', 's', 'm'}); err != nil {
		return nil, err
	}
	if err := p.Expect("version", []byte{0x01, 0x00, 0x00, 0x00}); err != nil {
		return nil, err
	}

	mod := &wasm.Module{}
	var funcTypeIdxs []uint32
	var codes []rawCode
	numImportedFuncs := 0

	for {
		id, err := p.ReadByte("section id")
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		size, err := p.ReadU32("section size")
		if err != nil {
			return nil, err
		}
		body, err := p.ReadN(fmt.Sprintf("section %d contents", id), int(size))
		if err != nil {
			return nil, err
		}
		sp := newReader(bytes.NewReader(body))

		switch id {
		case secCustom:
			// Ignored: custom sections carry no module semantics.
		case secType:
			mod.Types, err = decodeTypeSection(sp)
		case secImport:
			numImportedFuncs, err = decodeImportSection(sp, mod)
		case secFunc:
			funcTypeIdxs, err = decodeFuncSection(sp)
		case secTable:
			err = decodeTableSection(sp, mod)
		case secMemory:
			err = decodeMemorySection(sp, mod)
		case secGlobal:
			err = decodeGlobalSection(sp, mod)
		case secExport:
			mod.Exports, err = decodeExportSection(sp)
		case secStart:
			// Not part of the validated data model.
		case secElem:
			mod.Elems, err = decodeElemSection(sp)
		case secCode:
			codes, err = decodeCodeSection(sp)
		case secData:
			mod.Datas, err = decodeDataSection(sp)
		case secDCount:
			// Only needed to predeclare data.drop targets during
			// streaming validation, which this decoder doesn't do.
		default:
			err = fmt.Errorf("unknown section id %d", id)
		}
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
	}

	for _, t := range funcTypeIdxs {
		mod.Funcs = append(mod.Funcs, wasm.Func{TypeIdx: t})
	}
	utils.Assert(len(mod.Funcs) == numImportedFuncs+len(funcTypeIdxs), "func table length drifted from imported+declared counts")
	if len(codes) != len(funcTypeIdxs) {
		return nil, fmt.Errorf("code section has %d entries but function section declared %d", len(codes), len(funcTypeIdxs))
	}
	for i, c := range codes {
		mod.Funcs[numImportedFuncs+i].Locals = c.locals
		mod.Funcs[numImportedFuncs+i].Body = c.body
	}

	return mod, nil
}

func decodeTypeSection(p *reader) ([]wasm.FuncType, error) {
	n, err := p.ReadU32("type count")
	if err != nil {
		return nil, err
	}
	types := make([]wasm.FuncType, n)
	for i := range types {
		if err := p.Expect("functype tag", []byte{0x60}); err != nil {
			return nil, err
		}
		types[i].Params, err = readValTypeVec(p, "param type")
		if err != nil {
			return nil, err
		}
		types[i].Results, err = readValTypeVec(p, "result type")
		if err != nil {
			return nil, err
		}
	}
	return types, nil
}

func readValTypeVec(p *reader, thing string) ([]wasm.ValType, error) {
	n, err := p.ReadU32(thing + " count")
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ValType, n)
	for i := range out {
		out[i], err = p.ReadValType(thing)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeImportSection(p *reader, mod *wasm.Module) (int, error) {
	n, err := p.ReadU32("import count")
	if err != nil {
		return 0, err
	}
	numFuncs := 0
	for i := uint32(0); i < n; i++ {
		modName, err := p.ReadName("import module")
		if err != nil {
			return 0, err
		}
		name, err := p.ReadName("import name")
		if err != nil {
			return 0, err
		}
		desc := wasm.ImportDesc{Module: modName, Name: name}

		kind, err := p.ReadByte("import kind")
		if err != nil {
			return 0, err
		}
		switch kind {
		case 0x00:
			t, err := p.ReadU32("import func type")
			if err != nil {
				return 0, err
			}
			mod.Funcs = append(mod.Funcs, wasm.Func{TypeIdx: t, Imported: true, Import: desc})
			numFuncs++
		case 0x01:
			tt, err := p.ReadTableType("import table")
			if err != nil {
				return 0, err
			}
			mod.Tables = append(mod.Tables, wasm.Table{Type: tt, Imported: true, Import: desc})
		case 0x02:
			mt, err := p.ReadMemType("import memory")
			if err != nil {
				return 0, err
			}
			mod.Mems = append(mod.Mems, wasm.Mem{Type: mt, Imported: true, Import: desc})
		case 0x03:
			gt, err := p.ReadGlobalType("import global")
			if err != nil {
				return 0, err
			}
			mod.Globals = append(mod.Globals, wasm.Global{Type: gt, Imported: true, Import: desc})
		default:
			return 0, fmt.Errorf("import %d: unknown import kind %d", i, kind)
		}
	}
	return numFuncs, nil
}

func decodeFuncSection(p *reader) ([]uint32, error) {
	n, err := p.ReadU32("func count")
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i], err = p.ReadU32("func type index")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeTableSection(p *reader, mod *wasm.Module) error {
	n, err := p.ReadU32("table count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tt, err := p.ReadTableType("table")
		if err != nil {
			return err
		}
		mod.Tables = append(mod.Tables, wasm.Table{Type: tt})
	}
	return nil
}

func decodeMemorySection(p *reader, mod *wasm.Module) error {
	n, err := p.ReadU32("memory count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mt, err := p.ReadMemType("memory")
		if err != nil {
			return err
		}
		mod.Mems = append(mod.Mems, wasm.Mem{Type: mt})
	}
	return nil
}

func decodeGlobalSection(p *reader, mod *wasm.Module) error {
	n, err := p.ReadU32("global count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		gt, err := p.ReadGlobalType("global")
		if err != nil {
			return err
		}
		init, err := p.readExpr("global init")
		if err != nil {
			return err
		}
		mod.Globals = append(mod.Globals, wasm.Global{Type: gt, Init: init})
	}
	return nil
}

func decodeExportSection(p *reader) ([]wasm.Export, error) {
	n, err := p.ReadU32("export count")
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Export, n)
	for i := range out {
		name, err := p.ReadName("export name")
		if err != nil {
			return nil, err
		}
		kind, err := p.ReadByte("export kind")
		if err != nil {
			return nil, err
		}
		idx, err := p.ReadU32("export index")
		if err != nil {
			return nil, err
		}
		ek, ok := map[byte]wasm.ExportKind{
			0x00: wasm.ExportFunc,
			0x01: wasm.ExportTable,
			0x02: wasm.ExportMem,
			0x03: wasm.ExportGlobal,
		}[kind]
		if !ok {
			return nil, fmt.Errorf("export %d: unknown export kind %d", i, kind)
		}
		out[i] = wasm.Export{Name: name, Kind: ek, Idx: idx}
	}
	return out, nil
}

func decodeElemSection(p *reader) ([]wasm.Elem, error) {
	n, err := p.ReadU32("elem count")
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Elem, n)
	for i := range out {
		flags, err := p.ReadU32("elem flags")
		if err != nil {
			return nil, err
		}

		active := flags&0b001 == 0
		hasExplicitTable := flags&0b010 != 0
		exprForm := flags&0b100 != 0

		e := wasm.Elem{Type: wasm.RefType{Nullable: true, Heap: wasm.HeapFunc}}

		if active {
			e.Mode.Kind = wasm.ElemActive
			if hasExplicitTable {
				e.Mode.TableIdx, err = p.ReadU32("elem table index")
				if err != nil {
					return nil, err
				}
			}
			e.Mode.Offset, err = p.readExpr("elem offset")
			if err != nil {
				return nil, err
			}
		} else if hasExplicitTable {
			e.Mode.Kind = wasm.ElemDeclarative
		} else {
			e.Mode.Kind = wasm.ElemPassive
		}

		if !active || hasExplicitTable {
			if exprForm {
				e.Type, err = p.ReadRefType("elem type")
			} else {
				_, err = p.ReadByte("elem kind") // 0x00 = funcref, the only kind defined
				e.Type = wasm.RefType{Nullable: true, Heap: wasm.HeapFunc}
			}
			if err != nil {
				return nil, err
			}
		} else if exprForm {
			e.Type, err = p.ReadRefType("elem type")
			if err != nil {
				return nil, err
			}
		}

		count, err := p.ReadU32("elem init count")
		if err != nil {
			return nil, err
		}
		e.Init = make([][]wasm.Instr, count)
		for j := range e.Init {
			if exprForm {
				e.Init[j], err = p.readExpr("elem init expr")
			} else {
				var fn uint32
				fn, err = p.ReadU32("elem init func index")
				if err == nil {
					e.Init[j] = []wasm.Instr{{Op: wasm.OpRefFunc, Idx: fn}}
				}
			}
			if err != nil {
				return nil, err
			}
		}

		out[i] = e
	}
	return out, nil
}

func decodeDataSection(p *reader) ([]wasm.Data, error) {
	n, err := p.ReadU32("data count")
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Data, n)
	for i := range out {
		flags, err := p.ReadU32("data flags")
		if err != nil {
			return nil, err
		}
		d := wasm.Data{}
		switch flags {
		case 0:
			d.Mode.Kind = wasm.DataActive
			d.Mode.Offset, err = p.readExpr("data offset")
		case 1:
			d.Mode.Kind = wasm.DataPassive
		case 2:
			d.Mode.Kind = wasm.DataActive
			d.Mode.MemIdx, err = p.ReadU32("data memory index")
			if err == nil {
				d.Mode.Offset, err = p.readExpr("data offset")
			}
		default:
			err = fmt.Errorf("data %d: unknown data flags %d", i, flags)
		}
		if err != nil {
			return nil, err
		}
		n, err := p.ReadU32("data byte count")
		if err != nil {
			return nil, err
		}
		d.Bytes, err = p.ReadN("data bytes", int(n))
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

type rawCode struct {
	locals []wasm.ValType
	body   []wasm.Instr
}

func decodeCodeSection(p *reader) ([]rawCode, error) {
	n, err := p.ReadU32("code count")
	if err != nil {
		return nil, err
	}
	out := make([]rawCode, n)
	for i := range out {
		size, err := p.ReadU32("code entry size")
		if err != nil {
			return nil, err
		}
		body, err := p.ReadN("code entry body", int(size))
		if err != nil {
			return nil, err
		}
		fp := newReader(bytes.NewReader(body))

		localCount, err := fp.ReadU32("local group count")
		if err != nil {
			return nil, err
		}
		var locals []wasm.ValType
		for g := uint32(0); g < localCount; g++ {
			cnt, err := fp.ReadU32("local group size")
			if err != nil {
				return nil, err
			}
			t, err := fp.ReadValType("local type")
			if err != nil {
				return nil, err
			}
			for k := uint32(0); k < cnt; k++ {
				locals = append(locals, t)
			}
		}
		instrs, err := fp.readExpr("function body")
		if err != nil {
			return nil, err
		}
		out[i] = rawCode{locals: locals, body: instrs}
	}
	return out, nil
}
