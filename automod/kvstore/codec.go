package kvstore

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"google.golang.org/protobuf/encoding/protowire"
)

// Converts between typed records and stored value bytes.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// Record which knows its own protobuf wire encoding.
type WireMessage interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

type wireCodec[T any, P interface {
	*T
	WireMessage
}] struct{}

// Codec for any record type whose pointer implements WireMessage.
func WireCodec[T any, P interface {
	*T
	WireMessage
}]() Codec[T] {
	return wireCodec[T, P]{}
}

func (wireCodec[T, P]) Encode(v T) ([]byte, error) {
	return P(&v).MarshalWire(), nil
}

func (wireCodec[T, P]) Decode(b []byte) (T, error) {
	var v T
	if err := P(&v).UnmarshalWire(b); err != nil {
		return v, err
	}
	return v, nil
}

type compressedCodec[T any] struct {
	inner Codec[T]
}

// Wraps a codec with zlib compression.
func Compressed[T any](inner Codec[T]) Codec[T] {
	return compressedCodec[T]{inner: inner}
}

func (c compressedCodec[T]) Encode(v T) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c compressedCodec[T]) Decode(b []byte) (T, error) {
	var zero T
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return zero, fmt.Errorf("decompressing value: %w", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return zero, fmt.Errorf("decompressing value: %w", err)
	}
	return c.inner.Decode(raw)
}

// One decoded field of a protobuf wire message. Varint fields populate Varint; length-delimited fields populate Bytes. Other wire types are skipped by ParseWire.
type WireField struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

func ParseWire(b []byte) ([]WireField, error) {
	var out []WireField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		f := WireField{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Varint = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.Bytes = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func AppendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func AppendBoolField(b []byte, num protowire.Number, v bool) []byte {
	return AppendVarintField(b, num, protowire.EncodeBool(v))
}
