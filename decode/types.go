package decode

import (
	"fmt"

	"github.com/bvisness/wasm-validate/wasm"
)

// abstractValType maps the single-byte shorthand codes for numeric types
// and abstract reference types, sign-extended per LEB128 (byte - 128), to
// a wasm.ValType. This table is the decode-side mirror of wasm.HeapType's
// own constants.
func abstractValType(code int64) (wasm.ValType, bool) {
	switch code {
	case -1:
		return wasm.Num(wasm.I32), true
	case -2:
		return wasm.Num(wasm.I64), true
	case -3:
		return wasm.Num(wasm.F32), true
	case -4:
		return wasm.Num(wasm.F64), true
	case -13:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapNoFunc}), true
	case -14:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapNoExtern}), true
	case -15:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapNone}), true
	case -16:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapFunc}), true
	case -17:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapExtern}), true
	case -18:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapAny}), true
	case -19:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapEq}), true
	case -20:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapI31}), true
	case -21:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapStruct}), true
	case -22:
		return wasm.RefVal(wasm.RefType{Nullable: true, Heap: wasm.HeapArray}), true
	default:
		return wasm.ValType{}, false
	}
}

// abstractHeapType is abstractValType's reference-only counterpart, for
// contexts that have already consumed a "ref"/"ref null" prefix and are
// reading a bare heap type rather than a full value type.
func abstractHeapType(code int64) (wasm.HeapType, bool) {
	v, ok := abstractValType(code)
	if !ok || !v.IsRef() {
		return 0, false
	}
	return v.Ref.Heap, true
}

const (
	codeRefNonNull int64 = -28 // 0x64: "(ref ht)"
	codeRefNull    int64 = -29 // 0x63: "(ref null ht)"
)

// ReadHeapType reads a bare heap type: either a concrete type index or one
// of the abstract codes.
func (p *reader) ReadHeapType(thing string) (wasm.HeapType, error) {
	at := p.cur
	v, err := p.ReadS64(thing)
	if err != nil {
		return 0, err
	}
	if v >= 0 {
		return wasm.HeapType(v), nil
	}
	ht, ok := abstractHeapType(v)
	if !ok {
		return 0, fmt.Errorf("%s at offset %d: invalid heap type", thing, at)
	}
	return ht, nil
}

// ReadValType reads a full value type: a numeric type, an abstract
// reference shorthand, or an explicit "(ref null? ht)" form.
func (p *reader) ReadValType(thing string) (wasm.ValType, error) {
	at := p.cur
	b, err := p.ReadByte(thing)
	if err != nil {
		return wasm.ValType{}, err
	}
	code := int64(b) - 128

	switch code {
	case codeRefNonNull, codeRefNull:
		ht, err := p.ReadHeapType(thing)
		if err != nil {
			return wasm.ValType{}, err
		}
		return wasm.RefVal(wasm.RefType{Nullable: code == codeRefNull, Heap: ht}), nil
	default:
		if v, ok := abstractValType(code); ok {
			return v, nil
		}
		return wasm.ValType{}, fmt.Errorf("%s at offset %d: invalid value type 0x%02x", thing, at, b)
	}
}

// ReadRefType reads a value type and requires it to be a reference type,
// for contexts (table element types, element segment types) the format
// restricts to references.
func (p *reader) ReadRefType(thing string) (wasm.RefType, error) {
	at := p.cur
	v, err := p.ReadValType(thing)
	if err != nil {
		return wasm.RefType{}, err
	}
	if !v.IsRef() {
		return wasm.RefType{}, fmt.Errorf("%s at offset %d: expected a reference type", thing, at)
	}
	return v.Ref, nil
}

func (p *reader) ReadLimits(thing string) (wasm.Limits, error) {
	flags, err := p.ReadByte(thing + " flags")
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := p.ReadU64(thing + " min")
	if err != nil {
		return wasm.Limits{}, err
	}
	lim := wasm.Limits{Min: min}
	if flags&0b001 != 0 {
		max, err := p.ReadU64(thing + " max")
		if err != nil {
			return wasm.Limits{}, err
		}
		lim.HasMax = true
		lim.Max = max
	}
	if lim.HasMax && !wasm.InBounds(lim.Min, uint64(0), lim.Max) {
		return wasm.Limits{}, fmt.Errorf("%s: min %d exceeds max %d", thing, lim.Min, lim.Max)
	}
	return lim, nil
}

func (p *reader) ReadTableType(thing string) (wasm.TableType, error) {
	elem, err := p.ReadRefType(thing + " element type")
	if err != nil {
		return wasm.TableType{}, err
	}
	lim, err := p.ReadLimits(thing + " limits")
	if err != nil {
		return wasm.TableType{}, err
	}
	return wasm.TableType{Elem: elem, Limits: lim}, nil
}

func (p *reader) ReadMemType(thing string) (wasm.MemType, error) {
	lim, err := p.ReadLimits(thing + " limits")
	if err != nil {
		return wasm.MemType{}, err
	}
	return wasm.MemType{Limits: lim}, nil
}

func (p *reader) ReadGlobalType(thing string) (wasm.GlobalType, error) {
	t, err := p.ReadValType(thing + " type")
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mut, err := p.ReadByte(thing + " mutability")
	if err != nil {
		return wasm.GlobalType{}, err
	}
	return wasm.GlobalType{Mutable: mut == 0x01, Type: t}, nil
}

// ReadBlockType reads a block's optional signature: empty (0x40), a single
// result value type (encoded the same way as a bare value type byte), or a
// type index into the module's type section.
func (p *reader) ReadBlockType(thing string) (wasm.BlockType, error) {
	at := p.cur
	v, err := p.ReadS64(thing)
	if err != nil {
		return wasm.BlockType{}, err
	}
	const codeEmpty int64 = -64 // 0x40
	if v == codeEmpty {
		return wasm.BlockType{}, nil
	}
	if v < 0 {
		vt, ok := abstractValType(v)
		if !ok {
			return wasm.BlockType{}, fmt.Errorf("%s at offset %d: invalid block type", thing, at)
		}
		return wasm.BlockType{Single: &vt}, nil
	}
	return wasm.BlockType{HasIdx: true, TypeIdx: uint32(v)}, nil
}
