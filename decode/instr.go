package decode

import (
	"fmt"

	"github.com/bvisness/wasm-validate/wasm"
)

// numericOp describes one plain (non-prefixed) numeric opcode's shape, so
// the bulk of the 0x45..0xC4 range can be decoded from a single table
// instead of a few hundred near-identical switch cases.
type numericOp struct {
	kind    wasm.NumKind
	operand wasm.NumType
	result  wasm.NumType
}

var numericOps = map[byte]numericOp{
	0x45: {wasm.NumTestop, wasm.I32, wasm.I32}, // i32.eqz
	0x46: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x47: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x48: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x49: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4A: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4B: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4C: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4D: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4E: {wasm.NumRelop, wasm.I32, wasm.I32},
	0x4F: {wasm.NumRelop, wasm.I32, wasm.I32},

	0x50: {wasm.NumTestop, wasm.I64, wasm.I32}, // i64.eqz
	0x51: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x52: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x53: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x54: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x55: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x56: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x57: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x58: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x59: {wasm.NumRelop, wasm.I64, wasm.I32},
	0x5A: {wasm.NumRelop, wasm.I64, wasm.I32},

	0x5B: {wasm.NumRelop, wasm.F32, wasm.I32},
	0x5C: {wasm.NumRelop, wasm.F32, wasm.I32},
	0x5D: {wasm.NumRelop, wasm.F32, wasm.I32},
	0x5E: {wasm.NumRelop, wasm.F32, wasm.I32},
	0x5F: {wasm.NumRelop, wasm.F32, wasm.I32},
	0x60: {wasm.NumRelop, wasm.F32, wasm.I32},

	0x61: {wasm.NumRelop, wasm.F64, wasm.I32},
	0x62: {wasm.NumRelop, wasm.F64, wasm.I32},
	0x63: {wasm.NumRelop, wasm.F64, wasm.I32},
	0x64: {wasm.NumRelop, wasm.F64, wasm.I32},
	0x65: {wasm.NumRelop, wasm.F64, wasm.I32},
	0x66: {wasm.NumRelop, wasm.F64, wasm.I32},

	0x67: {wasm.NumUnop, wasm.I32, wasm.I32}, // clz
	0x68: {wasm.NumUnop, wasm.I32, wasm.I32}, // ctz
	0x69: {wasm.NumUnop, wasm.I32, wasm.I32}, // popcnt
	0x6A: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x6B: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x6C: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x6D: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x6E: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x6F: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x70: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x71: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x72: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x73: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x74: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x75: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x76: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x77: {wasm.NumBinop, wasm.I32, wasm.I32},
	0x78: {wasm.NumBinop, wasm.I32, wasm.I32},

	0x79: {wasm.NumUnop, wasm.I64, wasm.I64},
	0x7A: {wasm.NumUnop, wasm.I64, wasm.I64},
	0x7B: {wasm.NumUnop, wasm.I64, wasm.I64},
	0x7C: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x7D: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x7E: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x7F: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x80: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x81: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x82: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x83: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x84: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x85: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x86: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x87: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x88: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x89: {wasm.NumBinop, wasm.I64, wasm.I64},
	0x8A: {wasm.NumBinop, wasm.I64, wasm.I64},

	0x8B: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x8C: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x8D: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x8E: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x8F: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x90: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x91: {wasm.NumUnop, wasm.F32, wasm.F32},
	0x92: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x93: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x94: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x95: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x96: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x97: {wasm.NumBinop, wasm.F32, wasm.F32},
	0x98: {wasm.NumBinop, wasm.F32, wasm.F32},

	0x99: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9A: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9B: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9C: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9D: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9E: {wasm.NumUnop, wasm.F64, wasm.F64},
	0x9F: {wasm.NumUnop, wasm.F64, wasm.F64},
	0xA0: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA1: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA2: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA3: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA4: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA5: {wasm.NumBinop, wasm.F64, wasm.F64},
	0xA6: {wasm.NumBinop, wasm.F64, wasm.F64},

	0xA7: {wasm.NumCvtop, wasm.I64, wasm.I32}, // wrap
	0xA8: {wasm.NumCvtop, wasm.F32, wasm.I32}, // trunc
	0xA9: {wasm.NumCvtop, wasm.F32, wasm.I32},
	0xAA: {wasm.NumCvtop, wasm.F64, wasm.I32},
	0xAB: {wasm.NumCvtop, wasm.F64, wasm.I32},
	0xAC: {wasm.NumCvtop, wasm.I32, wasm.I64}, // extend
	0xAD: {wasm.NumCvtop, wasm.I32, wasm.I64},
	0xAE: {wasm.NumCvtop, wasm.F32, wasm.I64},
	0xAF: {wasm.NumCvtop, wasm.F32, wasm.I64},
	0xB0: {wasm.NumCvtop, wasm.F64, wasm.I64},
	0xB1: {wasm.NumCvtop, wasm.F64, wasm.I64},
	0xB2: {wasm.NumCvtop, wasm.I32, wasm.F32}, // convert
	0xB3: {wasm.NumCvtop, wasm.I32, wasm.F32},
	0xB4: {wasm.NumCvtop, wasm.I64, wasm.F32},
	0xB5: {wasm.NumCvtop, wasm.I64, wasm.F32},
	0xB6: {wasm.NumCvtop, wasm.F64, wasm.F32}, // demote
	0xB7: {wasm.NumCvtop, wasm.I32, wasm.F64},
	0xB8: {wasm.NumCvtop, wasm.I32, wasm.F64},
	0xB9: {wasm.NumCvtop, wasm.I64, wasm.F64},
	0xBA: {wasm.NumCvtop, wasm.I64, wasm.F64},
	0xBB: {wasm.NumCvtop, wasm.F32, wasm.F64}, // promote
	0xBC: {wasm.NumCvtop, wasm.F32, wasm.I32}, // reinterpret
	0xBD: {wasm.NumCvtop, wasm.F64, wasm.I64},
	0xBE: {wasm.NumCvtop, wasm.I32, wasm.F32},
	0xBF: {wasm.NumCvtop, wasm.I64, wasm.F64},

	0xC0: {wasm.NumUnop, wasm.I32, wasm.I32}, // extend8_s
	0xC1: {wasm.NumUnop, wasm.I32, wasm.I32}, // extend16_s
	0xC2: {wasm.NumUnop, wasm.I64, wasm.I64}, // extend8_s
	0xC3: {wasm.NumUnop, wasm.I64, wasm.I64}, // extend16_s
	0xC4: {wasm.NumUnop, wasm.I64, wasm.I64}, // extend32_s
}

type loadStore struct {
	isLoad bool
	typ    wasm.NumType
	width  uint32
}

var loadStoreOps = map[byte]loadStore{
	0x28: {true, wasm.I32, 4},
	0x29: {true, wasm.I64, 8},
	0x2A: {true, wasm.F32, 4},
	0x2B: {true, wasm.F64, 8},
	0x2C: {true, wasm.I32, 1},
	0x2D: {true, wasm.I32, 1},
	0x2E: {true, wasm.I32, 2},
	0x2F: {true, wasm.I32, 2},
	0x30: {true, wasm.I64, 1},
	0x31: {true, wasm.I64, 1},
	0x32: {true, wasm.I64, 2},
	0x33: {true, wasm.I64, 2},
	0x34: {true, wasm.I64, 4},
	0x35: {true, wasm.I64, 4},
	0x36: {false, wasm.I32, 4},
	0x37: {false, wasm.I64, 8},
	0x38: {false, wasm.F32, 4},
	0x39: {false, wasm.F64, 8},
	0x3A: {false, wasm.I32, 1},
	0x3B: {false, wasm.I32, 2},
	0x3C: {false, wasm.I64, 1},
	0x3D: {false, wasm.I64, 2},
	0x3E: {false, wasm.I64, 4},
}

// readExpr reads instructions until it hits an End (0x0B) terminator,
// which it consumes but does not include in the result.
func (p *reader) readExpr(thing string) ([]wasm.Instr, error) {
	instrs, _, err := p.readInstrsUntil(thing, true)
	return instrs, err
}

// readIfBody reads an if-arm's instructions, stopping at either an Else
// (0x05, consumed, elseFollows=true) or an End (0x0B, consumed).
func (p *reader) readIfBody(thing string) (instrs []wasm.Instr, elseFollows bool, err error) {
	return p.readInstrsUntil(thing, false)
}

func (p *reader) readInstrsUntil(thing string, endOnly bool) ([]wasm.Instr, bool, error) {
	var instrs []wasm.Instr
	for {
		op, err := p.PeekByte(thing)
		if err != nil {
			return nil, false, err
		}
		if op == 0x0B {
			p.ReadByte(thing)
			return instrs, false, nil
		}
		if !endOnly && op == 0x05 {
			p.ReadByte(thing)
			return instrs, true, nil
		}
		in, err := p.readInstr(thing)
		if err != nil {
			return nil, false, err
		}
		instrs = append(instrs, in)
	}
}

func (p *reader) memArg(thing string) (wasm.MemArg, error) {
	align, err := p.ReadU32(thing + " alignment")
	if err != nil {
		return wasm.MemArg{}, err
	}
	offset, err := p.ReadU32(thing + " offset")
	if err != nil {
		return wasm.MemArg{}, err
	}
	return wasm.MemArg{Align: align, Offset: offset}, nil
}

func (p *reader) readInstr(thing string) (wasm.Instr, error) {
	at := p.cur
	op, err := p.ReadByte(thing)
	if err != nil {
		return wasm.Instr{}, err
	}

	switch op {
	case 0x00:
		return wasm.Instr{Op: wasm.OpUnreachable}, nil
	case 0x01:
		return wasm.Instr{Op: wasm.OpNop}, nil

	case 0x02, 0x03:
		bt, err := p.ReadBlockType(thing + " block type")
		if err != nil {
			return wasm.Instr{}, err
		}
		body, err := p.readExpr(thing + " block body")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpBlock
		if op == 0x03 {
			o = wasm.OpLoop
		}
		return wasm.Instr{Op: o, BlockType: bt, Then: body}, nil

	case 0x04:
		bt, err := p.ReadBlockType(thing + " block type")
		if err != nil {
			return wasm.Instr{}, err
		}
		then, hasElse, err := p.readIfBody(thing + " if body")
		if err != nil {
			return wasm.Instr{}, err
		}
		var els []wasm.Instr
		if hasElse {
			els, err = p.readExpr(thing + " else body")
			if err != nil {
				return wasm.Instr{}, err
			}
		}
		return wasm.Instr{Op: wasm.OpIf, BlockType: bt, Then: then, Else: els}, nil

	case 0x0C, 0x0D:
		l, err := p.ReadU32(thing + " label")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpBr
		if op == 0x0D {
			o = wasm.OpBrIf
		}
		return wasm.Instr{Op: o, Idx: l}, nil

	case 0x0E:
		n, err := p.ReadU32(thing + " br_table count")
		if err != nil {
			return wasm.Instr{}, err
		}
		labels := make([]uint32, n)
		for i := range labels {
			labels[i], err = p.ReadU32(thing + " br_table label")
			if err != nil {
				return wasm.Instr{}, err
			}
		}
		def, err := p.ReadU32(thing + " br_table default")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpBrTable, Idx: def, Labels: labels}, nil

	case 0x0F:
		return wasm.Instr{Op: wasm.OpReturn}, nil

	case 0x10:
		x, err := p.ReadU32(thing + " call target")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpCall, Idx: x}, nil

	case 0x11, 0x13:
		typeIdx, err := p.ReadU32(thing + " call_indirect type")
		if err != nil {
			return wasm.Instr{}, err
		}
		tableIdx, err := p.ReadU32(thing + " call_indirect table")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpCallIndirect
		if op == 0x13 {
			o = wasm.OpReturnCallIndirect
		}
		return wasm.Instr{Op: o, Idx: tableIdx, Idx2: typeIdx}, nil

	case 0x12:
		x, err := p.ReadU32(thing + " return_call target")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpReturnCall, Idx: x}, nil

	case 0x14:
		x, err := p.ReadU32(thing + " call_ref type")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpCallRef, Idx: x}, nil

	case 0x15:
		x, err := p.ReadU32(thing + " return_call_ref type")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpReturnCallRef, BlockType: wasm.BlockType{HasIdx: true, TypeIdx: x}}, nil

	case 0x1A:
		return wasm.Instr{Op: wasm.OpDrop}, nil
	case 0x1B:
		return wasm.Instr{Op: wasm.OpSelect}, nil
	case 0x1C:
		n, err := p.ReadU32(thing + " select type count")
		if err != nil {
			return wasm.Instr{}, err
		}
		ts := make([]wasm.ValType, n)
		for i := range ts {
			ts[i], err = p.ReadValType(thing + " select type")
			if err != nil {
				return wasm.Instr{}, err
			}
		}
		return wasm.Instr{Op: wasm.OpSelectT, SelectTypes: ts}, nil

	case 0x20, 0x21, 0x22:
		x, err := p.ReadU32(thing + " local index")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := map[byte]wasm.Op{0x20: wasm.OpLocalGet, 0x21: wasm.OpLocalSet, 0x22: wasm.OpLocalTee}[op]
		return wasm.Instr{Op: o, Idx: x}, nil

	case 0x23, 0x24:
		x, err := p.ReadU32(thing + " global index")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpGlobalGet
		if op == 0x24 {
			o = wasm.OpGlobalSet
		}
		return wasm.Instr{Op: o, Idx: x}, nil

	case 0x25, 0x26:
		x, err := p.ReadU32(thing + " table index")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpTableGet
		if op == 0x26 {
			o = wasm.OpTableSet
		}
		return wasm.Instr{Op: o, Idx: x}, nil

	case 0x3F, 0x40:
		if _, err := p.ReadByte(thing + " reserved"); err != nil {
			return wasm.Instr{}, err
		}
		o := wasm.OpMemorySize
		if op == 0x40 {
			o = wasm.OpMemoryGrow
		}
		return wasm.Instr{Op: o}, nil

	case 0x41:
		v, err := p.ReadS32(thing + " i32 constant")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.I32, ConstI32: v}, nil
	case 0x42:
		v, err := p.ReadS64(thing + " i64 constant")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.I64, ConstI64: v}, nil
	case 0x43:
		v, err := p.ReadF32(thing + " f32 constant")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.F32, ConstF32: v}, nil
	case 0x44:
		v, err := p.ReadF64(thing + " f64 constant")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: wasm.NumConst, NumType: wasm.F64, ConstF64: v}, nil

	case 0xD0:
		ht, err := p.ReadHeapType(thing + " ref.null heap type")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpRefNull, HeapType: ht}, nil
	case 0xD1:
		return wasm.Instr{Op: wasm.OpRefIsNull}, nil
	case 0xD2:
		x, err := p.ReadU32(thing + " ref.func target")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpRefFunc, Idx: x}, nil

	case 0xFB:
		return p.readGCInstr(thing)
	case 0xFC:
		return p.readMiscInstr(thing)
	case 0xFD:
		return wasm.Instr{}, fmt.Errorf("%s at offset %d: SIMD instructions are not supported", thing, at)
	case 0xFE:
		return wasm.Instr{}, fmt.Errorf("%s at offset %d: atomic instructions are not supported", thing, at)
	}

	if n, ok := loadStoreOps[op]; ok {
		ma, err := p.memArg(thing)
		if err != nil {
			return wasm.Instr{}, err
		}
		if n.isLoad {
			return wasm.Instr{Op: wasm.OpLoad, NumType: n.typ, Width: n.width, MemArg: ma}, nil
		}
		return wasm.Instr{Op: wasm.OpStore, NumType: n.typ, Width: n.width, MemArg: ma}, nil
	}

	if n, ok := numericOps[op]; ok {
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: n.kind, OperandType: n.operand, NumType: n.result}, nil
	}

	return wasm.Instr{}, fmt.Errorf("%s at offset %d: unknown opcode 0x%02x", thing, at, op)
}

// readGCInstr decodes the 0xFB-prefixed structural-type extension. Only
// ref.i31/i31.get_s/i31.get_u/array.len are given real typechecking rules
// (spec.md §4.3, §9.3); every other GC instruction decodes structurally
// (so a module using it gets a clean UnimplementedError rather than a
// decode failure) but is otherwise left a stub.
func (p *reader) readGCInstr(thing string) (wasm.Instr, error) {
	sub, err := p.ReadU32(thing + " gc sub-opcode")
	if err != nil {
		return wasm.Instr{}, err
	}

	switch sub {
	case 0x1C:
		return wasm.Instr{Op: wasm.OpRefI31}, nil
	case 0x1D:
		return wasm.Instr{Op: wasm.OpI31Get, Signed: true}, nil
	case 0x1E:
		return wasm.Instr{Op: wasm.OpI31Get, Signed: false}, nil
	case 0x0F:
		return wasm.Instr{Op: wasm.OpArrayLen}, nil
	}

	// Everything else in this range takes one or two type/field indices;
	// skip them so the rest of the body still decodes.
	name := fmt.Sprintf("gc instruction 0xfb 0x%02x", sub)
	operands := gcOperandCounts[sub]
	for i := 0; i < operands; i++ {
		if _, err := p.ReadU32(thing + " gc operand"); err != nil {
			return wasm.Instr{}, err
		}
	}
	return wasm.Instr{Op: wasm.OpUnimplemented, Name: name}, nil
}

// gcOperandCounts is a best-effort map of how many LEB128 index operands
// follow each unmodeled 0xFB sub-opcode, enough to keep the rest of a
// function body's byte stream aligned.
var gcOperandCounts = map[uint32]int{
	0x00: 1, // struct.new
	0x01: 1, // struct.new_default
	0x02: 2, // struct.get
	0x03: 2, // struct.get_s
	0x04: 2, // struct.get_u
	0x05: 2, // struct.set
	0x06: 1, // array.new
	0x07: 1, // array.new_default
	0x08: 2, // array.new_fixed
	0x09: 2, // array.new_data
	0x0A: 2, // array.new_elem
	0x0B: 1, // array.get
	0x0C: 1, // array.get_s
	0x0D: 1, // array.get_u
	0x0E: 1, // array.set
	0x10: 1, // array.fill
	0x11: 2, // array.copy
	0x12: 2, // array.init_data
	0x13: 2, // array.init_elem
	0x14: 1, // ref.test
	0x15: 1, // ref.test null
	0x16: 1, // ref.cast
	0x17: 1, // ref.cast null
	0x1A: 0, // any.convert_extern
	0x1B: 0, // extern.convert_any
}

// readMiscInstr decodes the 0xFC-prefixed bulk-memory/table/saturating-
// conversion extension.
func (p *reader) readMiscInstr(thing string) (wasm.Instr, error) {
	sub, err := p.ReadU32(thing + " misc sub-opcode")
	if err != nil {
		return wasm.Instr{}, err
	}

	satOps := map[uint32]numericOp{
		0: {wasm.NumCvtop, wasm.F32, wasm.I32},
		1: {wasm.NumCvtop, wasm.F32, wasm.I32},
		2: {wasm.NumCvtop, wasm.F64, wasm.I32},
		3: {wasm.NumCvtop, wasm.F64, wasm.I32},
		4: {wasm.NumCvtop, wasm.F32, wasm.I64},
		5: {wasm.NumCvtop, wasm.F32, wasm.I64},
		6: {wasm.NumCvtop, wasm.F64, wasm.I64},
		7: {wasm.NumCvtop, wasm.F64, wasm.I64},
	}
	if n, ok := satOps[sub]; ok {
		return wasm.Instr{Op: wasm.OpNumeric, NumKind: n.kind, OperandType: n.operand, NumType: n.result}, nil
	}

	switch sub {
	case 8: // memory.init dataidx, memidx (reserved)
		dataIdx, err := p.ReadU32(thing + " memory.init data")
		if err != nil {
			return wasm.Instr{}, err
		}
		if _, err := p.ReadByte(thing + " reserved"); err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpMemoryInit, Idx: dataIdx}, nil
	case 9: // data.drop dataidx; stack-inert, not modeled
		if _, err := p.ReadU32(thing + " data.drop target"); err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNop}, nil
	case 10: // memory.copy dst, src (both reserved)
		if _, err := p.ReadByte(thing + " reserved"); err != nil {
			return wasm.Instr{}, err
		}
		if _, err := p.ReadByte(thing + " reserved"); err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpMemoryCopy}, nil
	case 11: // memory.fill (reserved)
		if _, err := p.ReadByte(thing + " reserved"); err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpMemoryFill}, nil
	case 12: // table.init elemidx, tableidx
		elemIdx, err := p.ReadU32(thing + " table.init elem")
		if err != nil {
			return wasm.Instr{}, err
		}
		tableIdx, err := p.ReadU32(thing + " table.init table")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpTableInit, Idx: tableIdx, Idx2: elemIdx}, nil
	case 13: // elem.drop elemidx; stack-inert, not modeled
		if _, err := p.ReadU32(thing + " elem.drop target"); err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpNop}, nil
	case 14: // table.copy dst, src
		dst, err := p.ReadU32(thing + " table.copy dst")
		if err != nil {
			return wasm.Instr{}, err
		}
		src, err := p.ReadU32(thing + " table.copy src")
		if err != nil {
			return wasm.Instr{}, err
		}
		return wasm.Instr{Op: wasm.OpTableCopy, Idx: dst, Idx2: src}, nil
	case 15, 16, 17:
		tableIdx, err := p.ReadU32(thing + " table index")
		if err != nil {
			return wasm.Instr{}, err
		}
		o := map[uint32]wasm.Op{15: wasm.OpTableGrow, 16: wasm.OpTableSize, 17: wasm.OpTableFill}[sub]
		return wasm.Instr{Op: o, Idx: tableIdx}, nil
	}

	return wasm.Instr{}, fmt.Errorf("%s: unknown misc sub-opcode %d", thing, sub)
}
