// Package message holds the tagged field codec used to persist navmesh tiles.
// Fields follow the protobuf wire format so any protobuf decoder can inspect a dump.
package message

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrTruncated = errors.New("message: truncated field")

type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Uint32(num protowire.Number, v uint32) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
}

func (w *Writer) Int32(num protowire.Number, v int32) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeZigZag(int64(v)))
}

func (w *Writer) Float32(num protowire.Number, v float32) {
	w.buf = protowire.AppendTag(w.buf, num, protowire.Fixed32Type)
	w.buf = protowire.AppendFixed32(w.buf, math.Float32bits(v))
}

// Float32s writes a packed repeated fixed32 field.
func (w *Writer) Float32s(num protowire.Number, vs []float32) {
	packed := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, packed)
}

// Uint32s writes a packed repeated varint field.
func (w *Writer) Uint32s(num protowire.Number, vs []uint32) {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, packed)
}

// Message writes a nested message produced by fn.
func (w *Writer) Message(num protowire.Number, fn func(w *Writer)) {
	sub := NewWriter()
	fn(sub)
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, sub.buf)
}

// Reader walks the fields of one message. The first decoding error sticks,
// later calls return zero values.
type Reader struct {
	buf []byte
	typ protowire.Type
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(n int) bool {
	if n >= 0 {
		return false
	}
	if r.err == nil {
		r.err = fmt.Errorf("message: %w", protowire.ParseError(n))
	}
	return true
}

func (r *Reader) expect(typ protowire.Type) bool {
	if r.err != nil {
		return false
	}
	if r.typ != typ {
		r.err = fmt.Errorf("message: wire type %d, want %d", r.typ, typ)
		return false
	}
	return true
}

// Next advances to the next field. It returns false at the end of the message
// or on error.
func (r *Reader) Next() (protowire.Number, bool) {
	if r.err != nil || len(r.buf) == 0 {
		return 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.buf)
	if r.fail(n) {
		return 0, false
	}
	r.buf = r.buf[n:]
	r.typ = typ
	return num, true
}

// Skip discards the value of the current field.
func (r *Reader) Skip(num protowire.Number) {
	if r.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(num, r.typ, r.buf)
	if r.fail(n) {
		return
	}
	r.buf = r.buf[n:]
}

func (r *Reader) Uint32() uint32 {
	if !r.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if r.fail(n) {
		return 0
	}
	r.buf = r.buf[n:]
	return uint32(v)
}

func (r *Reader) Int32() int32 {
	if !r.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if r.fail(n) {
		return 0
	}
	r.buf = r.buf[n:]
	return int32(protowire.DecodeZigZag(v))
}

func (r *Reader) Float32() float32 {
	if !r.expect(protowire.Fixed32Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed32(r.buf)
	if r.fail(n) {
		return 0
	}
	r.buf = r.buf[n:]
	return math.Float32frombits(v)
}

func (r *Reader) bytes() []byte {
	if !r.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(r.buf)
	if r.fail(n) {
		return nil
	}
	r.buf = r.buf[n:]
	return v
}

func (r *Reader) Float32s() []float32 {
	packed := r.bytes()
	if len(packed)%4 != 0 {
		if r.err == nil {
			r.err = ErrTruncated
		}
		return nil
	}
	vs := make([]float32, 0, len(packed)/4)
	for len(packed) > 0 {
		v, n := protowire.ConsumeFixed32(packed)
		if r.fail(n) {
			return nil
		}
		vs = append(vs, math.Float32frombits(v))
		packed = packed[n:]
	}
	return vs
}

func (r *Reader) Uint32s() []uint32 {
	packed := r.bytes()
	var vs []uint32
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if r.fail(n) {
			return nil
		}
		vs = append(vs, uint32(v))
		packed = packed[n:]
	}
	return vs
}

// Message decodes the nested message in the current field with fn. An error
// inside the nested message sticks to r as well.
func (r *Reader) Message(fn func(sub *Reader)) {
	data := r.bytes()
	if r.err != nil {
		return
	}
	sub := NewReader(data)
	fn(sub)
	if r.err == nil {
		r.err = sub.err
	}
}
