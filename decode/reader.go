// Package decode turns a binary WebAssembly module into the wasm.Module
// data model the validate package consumes. Decoding is a separate
// concern from typechecking: this package never rejects a module on
// semantic grounds (unknown index, mismatched type), only on structural
// grounds (truncated input, bad magic, malformed LEB128). Everything
// semantic is left for validate.Validate to reject.
package decode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/bvisness/wasm-validate/leb128"
)

// reader is an offset-tracked byte cursor over the module bytes, mirroring
// the isolate package's parser: every read names the "thing" it is
// reading so that a truncation error says what it was looking for.
type reader struct {
	r   *bufio.Reader
	cur int
}

func newReader(r io.Reader) *reader {
	return &reader{r: bufio.NewReader(r)}
}

func (p *reader) ReadN(thing string, n int) ([]byte, error) {
	at := p.cur
	buf := make([]byte, n)
	nRead, err := io.ReadFull(p.r, buf)
	if err != nil {
		return nil, fmt.Errorf("%s at offset %d: %w", thing, at, err)
	}
	p.cur += nRead
	return buf, nil
}

func (p *reader) PeekByte(thing string) (byte, error) {
	at := p.cur
	b, err := p.r.Peek(1)
	if err != nil {
		return 0, fmt.Errorf("%s at offset %d: %w", thing, at, err)
	}
	return b[0], nil
}

func (p *reader) ReadByte(thing string) (byte, error) {
	at := p.cur
	var b [1]byte
	if _, err := io.ReadFull(p.r, b[:]); err != nil {
		return 0, fmt.Errorf("%s at offset %d: %w", thing, at, err)
	}
	p.cur += 1
	return b[0], nil
}

func (p *reader) ReadU32(thing string) (uint32, error) {
	v, err := p.ReadU64(thing)
	return uint32(v), err
}

func (p *reader) ReadU64(thing string) (uint64, error) {
	at := p.cur
	v, n, err := leb128.DecodeU64(p.r)
	if err != nil {
		return 0, fmt.Errorf("%s at offset %d: %w", thing, at, err)
	}
	p.cur += n
	return v, nil
}

func (p *reader) ReadS32(thing string) (int32, error) {
	v, err := p.ReadS64(thing)
	return int32(v), err
}

func (p *reader) ReadS64(thing string) (int64, error) {
	at := p.cur
	v, n, err := leb128.DecodeS64(p.r)
	if err != nil {
		return 0, fmt.Errorf("%s at offset %d: %w", thing, at, err)
	}
	p.cur += n
	return v, nil
}

func (p *reader) ReadF32(thing string) (float32, error) {
	b, err := p.ReadN(thing, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (p *reader) ReadF64(thing string) (float64, error) {
	b, err := p.ReadN(thing, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (p *reader) ReadName(thing string) (string, error) {
	n, err := p.ReadU32(thing)
	if err != nil {
		return "", err
	}
	b, err := p.ReadN(thing, int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *reader) Expect(thing string, want []byte) error {
	at := p.cur
	got, err := p.ReadN(thing, len(want))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("reading %s at offset %d: expected %+v but got %+v", thing, at, want, got)
	}
	return nil
}
