package pkg

// serialize.go is the value-serialization routine spec.md §6 mandates for
// the persisted cache: a length-prefixed, type-tagged encoding covering
// every forced value kind except Lambda and External, which are rejected
// at the boundary since they cannot be meaningfully replayed outside the
// process that produced them.
//
// © 2025 evalhash authors. MIT License.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

// serializeTag discriminates the wire encoding of one value node.
type serializeTag uint8

const (
	serializeTagNull serializeTag = iota
	serializeTagBoolFalse
	serializeTagBoolTrue
	serializeTagInt
	serializeTagFloat
	serializeTagString
	serializeTagPath
	serializeTagRecord
	serializeTagList
)

// ErrUnserializableValue is returned when SerializeValue is asked to
// persist a Lambda, thunk, or External value.
var ErrUnserializableValue = errors.New("evalhash: value cannot be serialized")

// ErrTruncatedData is returned by DeserializeValue when the input ends
// before a complete value has been read.
var ErrTruncatedData = errors.New("evalhash: truncated serialized value")

// ErrTrailingData is returned when extra bytes follow a complete value.
var ErrTrailingData = errors.New("evalhash: trailing data after serialized value")

type serializeBuffer struct {
	buf []byte
}

func (b *serializeBuffer) writeByte(v byte) { b.buf = append(b.buf, v) }

func (b *serializeBuffer) writeTag(t serializeTag) { b.writeByte(byte(t)) }

func (b *serializeBuffer) writeUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *serializeBuffer) writeInt64(v int64) { b.writeUint64(uint64(v)) }

func (b *serializeBuffer) writeFloat64(v float64) { b.writeUint64(canonicalFloatBits(v)) }

func (b *serializeBuffer) writeString(s string) {
	b.writeUint64(uint64(len(s)))
	b.buf = append(b.buf, s...)
}

// SerializeValue encodes a fully-forced value for the persisted cache.
// v must not contain a Lambda, thunk, App, or External anywhere in its
// transitive closure; such a value returns ErrUnserializableValue naming
// the offending kind.
func SerializeValue(v *langvalue.Value, symbols *ast.SymbolTable) ([]byte, error) {
	var b serializeBuffer
	if err := serializeValueImpl(&b, v, symbols); err != nil {
		return nil, err
	}
	return b.buf, nil
}

func serializeValueImpl(b *serializeBuffer, v *langvalue.Value, symbols *ast.SymbolTable) error {
	if v == nil {
		b.writeTag(serializeTagNull)
		return nil
	}
	if v.IsThunk() || v.IsPending() {
		return fmt.Errorf("%w: unforced thunk", ErrUnserializableValue)
	}
	if v.IsFailed() {
		return fmt.Errorf("%w: failed value", ErrUnserializableValue)
	}
	f := v.Forced()
	switch f.Kind {
	case langvalue.KindNull:
		b.writeTag(serializeTagNull)
	case langvalue.KindBool:
		if f.Bool {
			b.writeTag(serializeTagBoolTrue)
		} else {
			b.writeTag(serializeTagBoolFalse)
		}
	case langvalue.KindInt:
		b.writeTag(serializeTagInt)
		b.writeInt64(f.Int)
	case langvalue.KindFloat:
		b.writeTag(serializeTagFloat)
		b.writeFloat64(f.Float)
	case langvalue.KindString:
		b.writeTag(serializeTagString)
		b.writeString(f.Str)
		b.writeUint64(uint64(len(f.Ctx)))
		for _, ce := range f.Ctx {
			b.writeString(ce.Canonical)
		}
	case langvalue.KindPath:
		b.writeTag(serializeTagPath)
		b.writeString(f.Path.Relative)
	case langvalue.KindRecord:
		b.writeTag(serializeTagRecord)
		sorted := sortedAttrs(f.Record)
		b.writeUint64(uint64(len(sorted)))
		for _, a := range sorted {
			b.writeString(a.Name)
			if err := serializeValueImpl(b, a.Value, symbols); err != nil {
				return err
			}
		}
	case langvalue.KindList:
		b.writeTag(serializeTagList)
		b.writeUint64(uint64(len(f.List)))
		for _, el := range f.List {
			if err := serializeValueImpl(b, el, symbols); err != nil {
				return err
			}
		}
	case langvalue.KindLambda:
		return fmt.Errorf("%w: lambda closures reference runtime environments", ErrUnserializableValue)
	case langvalue.KindExternal:
		return fmt.Errorf("%w: external values are opaque", ErrUnserializableValue)
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrUnserializableValue, f.Kind)
	}
	return nil
}

type deserializeBuffer struct {
	data []byte
	pos  int
}

func (b *deserializeBuffer) remaining() int { return len(b.data) - b.pos }

func (b *deserializeBuffer) readByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, ErrTruncatedData
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

func (b *deserializeBuffer) readUint64() (uint64, error) {
	if b.remaining() < 8 {
		return 0, ErrTruncatedData
	}
	v := binary.LittleEndian.Uint64(b.data[b.pos : b.pos+8])
	b.pos += 8
	return v, nil
}

func (b *deserializeBuffer) readInt64() (int64, error) {
	u, err := b.readUint64()
	return int64(u), err
}

func (b *deserializeBuffer) readFloat64() (float64, error) {
	u, err := b.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (b *deserializeBuffer) readString() (string, error) {
	n, err := b.readUint64()
	if err != nil {
		return "", err
	}
	if uint64(b.remaining()) < n {
		return "", ErrTruncatedData
	}
	s := string(b.data[b.pos : b.pos+int(n)])
	b.pos += int(n)
	return s, nil
}

// DeserializeValue decodes a byte slice produced by SerializeValue back
// into a forced Value, with Path values carrying rel (no accessor — the
// caller must fix one up before the path is used, since accessors are
// process-local and never persisted, per spec.md §6's `Portable`-only
// persistence rule).
func DeserializeValue(data []byte) (*langvalue.Value, error) {
	b := &deserializeBuffer{data: data}
	v, err := deserializeValueImpl(b)
	if err != nil {
		return nil, err
	}
	if b.remaining() != 0 {
		return nil, ErrTrailingData
	}
	return v, nil
}

func deserializeValueImpl(b *deserializeBuffer) (*langvalue.Value, error) {
	tagByte, err := b.readByte()
	if err != nil {
		return nil, err
	}
	switch serializeTag(tagByte) {
	case serializeTagNull:
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindNull}), nil
	case serializeTagBoolFalse:
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindBool, Bool: false}), nil
	case serializeTagBoolTrue:
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindBool, Bool: true}), nil
	case serializeTagInt:
		n, err := b.readInt64()
		if err != nil {
			return nil, err
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: n}), nil
	case serializeTagFloat:
		f, err := b.readFloat64()
		if err != nil {
			return nil, err
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindFloat, Float: f}), nil
	case serializeTagString:
		s, err := b.readString()
		if err != nil {
			return nil, err
		}
		n, err := b.readUint64()
		if err != nil {
			return nil, err
		}
		ctx := make([]langvalue.ContextEntry, 0, n)
		for i := uint64(0); i < n; i++ {
			cs, err := b.readString()
			if err != nil {
				return nil, err
			}
			ctx = append(ctx, langvalue.ContextEntry{Canonical: cs})
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindString, Str: s, Ctx: ctx}), nil
	case serializeTagPath:
		rel, err := b.readString()
		if err != nil {
			return nil, err
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindPath, Path: ast.Path{Relative: rel}}), nil
	case serializeTagRecord:
		n, err := b.readUint64()
		if err != nil {
			return nil, err
		}
		rec := make([]langvalue.Attr, 0, n)
		for i := uint64(0); i < n; i++ {
			name, err := b.readString()
			if err != nil {
				return nil, err
			}
			val, err := deserializeValueImpl(b)
			if err != nil {
				return nil, err
			}
			rec = append(rec, langvalue.Attr{Name: name, Value: val})
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindRecord, Record: rec}), nil
	case serializeTagList:
		n, err := b.readUint64()
		if err != nil {
			return nil, err
		}
		list := make([]*langvalue.Value, 0, n)
		for i := uint64(0); i < n; i++ {
			el, err := deserializeValueImpl(b)
			if err != nil {
				return nil, err
			}
			list = append(list, el)
		}
		return langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindList, List: list}), nil
	default:
		return nil, fmt.Errorf("evalhash: unknown serialization tag %d", tagByte)
	}
}

func sortedAttrs(rec []langvalue.Attr) []langvalue.Attr {
	out := make([]langvalue.Attr, len(rec))
	copy(out, rec)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
