package decode_test

import (
	"bytes"
	"testing"

	"github.com/bvisness/wasm-validate/decode"
	"github.com/bvisness/wasm-validate/leb128"
	"github.com/bvisness/wasm-validate/validate"
	"github.com/bvisness/wasm-validate/wasm"
	"github.com/stretchr/testify/require"
)

// section builds a binary section: id, LEB128-encoded size, then body.
func section(id byte, body []byte) []byte {
	var out []byte
	out = append(out, id)
	out = append(out, leb128.EncodeU64(uint64(len(body)))...)
	out = append(out, body...)
	return out
}

func header() []byte {
	return []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
}

func name(s string) []byte {
	var out []byte
	out = append(out, leb128.EncodeU64(uint64(len(s)))...)
	out = append(out, []byte(s)...)
	return out
}

// addOneModule builds the bytes for a module with a single function:
//
//	(func (export "add") (param i32) (result i32)
//	  local.get 0
//	  i32.const 1
//	  i32.add)
func addOneModule(t *testing.T) []byte {
	t.Helper()

	typeSec := section(1, []byte{0x01, 0x60, 0x01, 0x7F, 0x01, 0x7F})
	funcSec := section(3, []byte{0x01, 0x00})

	body := []byte{0x00} // no local declarations
	body = append(body, 0x20, 0x00) // local.get 0
	body = append(body, 0x41)
	body = append(body, leb128.EncodeS64(1)...) // i32.const 1
	body = append(body, 0x6A)                   // i32.add
	body = append(body, 0x0B)                   // end

	codeEntry := append(leb128.EncodeU64(uint64(len(body))), body...)
	codeSec := section(10, append([]byte{0x01}, codeEntry...))

	exportEntry := append(name("add"), 0x00)
	exportEntry = append(exportEntry, 0x00) // func index 0
	exportSec := section(7, append([]byte{0x01}, exportEntry...))

	var out []byte
	out = append(out, header()...)
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

func TestDecode_AddOneEndToEnd(t *testing.T) {
	mod, err := decode.Decode(bytes.NewReader(addOneModule(t)))
	require.NoError(t, err)

	require.Len(t, mod.Types, 1)
	require.Equal(t, []wasm.ValType{wasm.Num(wasm.I32)}, mod.Types[0].Params)
	require.Equal(t, []wasm.ValType{wasm.Num(wasm.I32)}, mod.Types[0].Results)

	require.Len(t, mod.Funcs, 1)
	require.Equal(t, uint32(0), mod.Funcs[0].TypeIdx)
	require.Len(t, mod.Funcs[0].Body, 3) // local.get, i32.const, i32.add (end is consumed, not an Instr)

	require.Equal(t, []uint32{0}, mod.ExportedFuncs())

	require.NoError(t, validate.Validate(mod))
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	bad := append([]byte{0x00, 'a', 's', 'x'}, []byte{0x01, 0x00, 0x00, 0x00}...)
	_, err := decode.Decode(bytes.NewReader(bad))
	require.Error(t, err)
}

func TestDecode_RejectsBadVersion(t *testing.T) {
	bad := append([]byte{0x00, 'a', 's', 'm'}, []byte{0x02, 0x00, 0x00, 0x00}...)
	_, err := decode.Decode(bytes.NewReader(bad))
	require.Error(t, err)
}

func TestDecode_TruncatedSectionIsStructuralError(t *testing.T) {
	buf := append(header(), 0x01, 0x10) // type section claims 16 bytes, has none
	_, err := decode.Decode(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecode_CodeFuncCountMismatchRejected(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(3, []byte{0x01, 0x00}) // one declared function
	codeSec := section(10, []byte{0x00})      // zero code entries

	var buf []byte
	buf = append(buf, header()...)
	buf = append(buf, typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	_, err := decode.Decode(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecode_SemanticMismatchSurfacesFromValidate(t *testing.T) {
	// (func (type 0) (result i32))  -- declares result i32 but body is empty.
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, 0x7F})
	funcSec := section(3, []byte{0x01, 0x00})
	body := []byte{0x00, 0x0B} // no locals, empty body (implicit unreachable end not modeled)
	codeEntry := append(leb128.EncodeU64(uint64(len(body))), body...)
	codeSec := section(10, append([]byte{0x01}, codeEntry...))

	var buf []byte
	buf = append(buf, header()...)
	buf = append(buf, typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mod, err := decode.Decode(bytes.NewReader(buf))
	require.NoError(t, err) // decode never rejects on semantic grounds

	err = validate.Validate(mod)
	require.Error(t, err)
}

func TestDecode_PassiveDataSegment(t *testing.T) {
	dataSec := section(11, append([]byte{0x01, 0x01}, name("hi")...))

	var buf []byte
	buf = append(buf, header()...)
	buf = append(buf, dataSec...)

	mod, err := decode.Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Len(t, mod.Datas, 1)
	require.Equal(t, wasm.DataPassive, mod.Datas[0].Mode.Kind)
	require.Equal(t, []byte("hi"), mod.Datas[0].Bytes)
}
