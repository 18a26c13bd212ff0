// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package binary implements the storage encoding. An encoded value starts
// with its model, so it can be decoded without schema knowledge.
package binary

import (
	"fmt"
	"math"

	"github.com/karmarun/ixl/codec"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
)

type Type byte

const (
	TypeString      Type = 1
	TypeInt8        Type = 2
	TypeInt16       Type = 3
	TypeInt32       Type = 4
	TypeInt64       Type = 5
	TypeFloat       Type = 6
	TypeBool        Type = 7
	TypeRaw         Type = 8
	TypeArray       Type = 9
	TypeWeightedSet Type = 10
	TypeStruct      Type = 11
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeRaw:
		return "raw"
	case TypeArray:
		return "array"
	case TypeWeightedSet:
		return "weightedset"
	case TypeStruct:
		return "struct"
	}
	return "unknown"
}

const (
	flagCreateIfNonExistent byte = 1 << iota
	flagRemoveIfZero
)

const Name = "binary"

var sharedInstance = Codec{}

func init() {
	codec.Register(Name, func() codec.Interface { return sharedInstance })
}

type Codec struct{}

func (Codec) Decode(data []byte, model mdl.Model) (val.Value, err.Error) {
	return Decode(data, model)
}

func (Codec) Encode(v val.Value) []byte {
	return Encode(v)
}

func Encode(v val.Value) []byte {
	buf := make([]byte, 0, 256)
	buf = encodeModel(v.Model(), buf)
	return encode(v, buf)
}

// Decode reads a value written by Encode. If model is not nil, the embedded
// model must equal it.
func Decode(data []byte, model mdl.Model) (val.Value, err.Error) {
	m, rest, e := decodeModel(data)
	if e.Problem != "" {
		return nil, e.SetOffset(len(data) - len(rest))
	}
	if model != nil && !model.Equals(m) {
		return nil, err.CodecError{
			Name:    Name,
			Problem: fmt.Sprintf("stored model %s does not match expected %s", m, model),
		}
	}
	v, rest, e := decode(m, rest)
	if e.Problem != "" {
		return nil, e.SetOffset(len(data) - len(rest))
	}
	if len(rest) > 0 {
		return nil, err.CodecError{Name: Name, Offset_: len(data) - len(rest), Problem: "trailing data"}
	}
	return v, nil
}

func encodeModel(m mdl.Model, buf []byte) []byte {
	switch m := m.(type) {
	case mdl.String:
		return append(buf, byte(TypeString))
	case mdl.Int8:
		return append(buf, byte(TypeInt8))
	case mdl.Int16:
		return append(buf, byte(TypeInt16))
	case mdl.Int32:
		return append(buf, byte(TypeInt32))
	case mdl.Int64:
		return append(buf, byte(TypeInt64))
	case mdl.Float:
		return append(buf, byte(TypeFloat))
	case mdl.Bool:
		return append(buf, byte(TypeBool))
	case mdl.Raw:
		return append(buf, byte(TypeRaw))
	case mdl.Array:
		buf = append(buf, byte(TypeArray))
		return encodeModel(m.Elements, buf)
	case mdl.WeightedSet:
		flags := byte(0)
		if m.CreateIfNonExistent {
			flags |= flagCreateIfNonExistent
		}
		if m.RemoveIfZero {
			flags |= flagRemoveIfZero
		}
		buf = append(buf, byte(TypeWeightedSet), flags)
		return encodeModel(m.Elements, buf)
	case mdl.Struct:
		buf = append(buf, byte(TypeStruct))
		buf = writeLength(m.Len(), buf)
		m.ForEach(func(k string, w mdl.Model) bool {
			buf = writeString(k, buf)
			buf = encodeModel(w, buf)
			return true
		})
		return buf
	}
	panic(fmt.Sprintf(`unhandled model: %T`, m))
}

// encode writes the payload of v. Type tags live in the model header.
func encode(v val.Value, buf []byte) []byte {
	switch v := v.(type) {

	case val.String:
		return writeString(string(v), buf)

	case val.Raw:
		return append(writeLength(len(v), buf), v...)

	case val.Bool:
		if v {
			return append(buf, 't')
		}
		return append(buf, 'f')

	case val.Float:
		return writeUint64(math.Float64bits(float64(v)), buf)

	case val.Int8:
		return append(buf, byte(v))

	case val.Int16:
		return writeUint16(uint16(v), buf)

	case val.Int32:
		return writeUint32(uint32(v), buf)

	case val.Int64:
		return writeUint64(uint64(v), buf)

	case *val.Array:
		buf = writeLength(v.Len(), buf)
		v.ForEach(func(_ int, w val.Value) bool {
			buf = encode(w, buf)
			return true
		})
		return buf

	case *val.WeightedSet:
		buf = writeLength(v.Len(), buf)
		v.ForEach(func(w val.Value, weight int32) bool {
			buf = encode(w, buf)
			buf = writeUint32(uint32(weight), buf)
			return true
		})
		return buf

	case *val.Struct:
		buf = writeLength(v.Len(), buf)
		v.ForEach(func(k string, w val.Value) bool {
			buf = writeString(k, buf)
			buf = encode(w, buf)
			return true
		})
		return buf
	}

	panic(fmt.Sprintf(`unhandled type: %T`, v))
}

func decodeModel(data []byte) (mdl.Model, []byte, err.CodecError) {
	r, data, e := readBytes(1, data)
	if e.Problem != "" {
		return nil, data, e
	}
	switch t := Type(r[0]); t {
	case TypeString:
		return mdl.String{}, data, noError
	case TypeInt8:
		return mdl.Int8{}, data, noError
	case TypeInt16:
		return mdl.Int16{}, data, noError
	case TypeInt32:
		return mdl.Int32{}, data, noError
	case TypeInt64:
		return mdl.Int64{}, data, noError
	case TypeFloat:
		return mdl.Float{}, data, noError
	case TypeBool:
		return mdl.Bool{}, data, noError
	case TypeRaw:
		return mdl.Raw{}, data, noError
	case TypeArray:
		m, data, e := decodeModel(data)
		if e.Problem != "" {
			return nil, data, e
		}
		return mdl.ArrayOf(m), data, noError
	case TypeWeightedSet:
		f, data, e := readBytes(1, data)
		if e.Problem != "" {
			return nil, data, e
		}
		if f[0]&^(flagCreateIfNonExistent|flagRemoveIfZero) != 0 {
			return nil, data, problem("invalid weighted set flags: %#x", f[0])
		}
		m, data, e := decodeModel(data)
		if e.Problem != "" {
			return nil, data, e
		}
		return mdl.WeightedSetOf(m, f[0]&flagCreateIfNonExistent != 0, f[0]&flagRemoveIfZero != 0), data, noError
	case TypeStruct:
		l, data, e := readLength(data)
		if e.Problem != "" {
			return nil, data, e
		}
		m := mdl.NewStruct(l)
		for i := 0; i < l; i++ {
			k, d, e := readString(data)
			if e.Problem != "" {
				return nil, d, e
			}
			w, d, e := decodeModel(d)
			if e.Problem != "" {
				return nil, d, e
			}
			m.Set(k, w)
			data = d
		}
		return m, data, noError
	}
	return nil, data, problem("invalid type specifier: %d", r[0])
}

func decode(m mdl.Model, data []byte) (val.Value, []byte, err.CodecError) {

	switch m := m.(type) {

	case mdl.String:
		s, data, e := readString(data)
		return val.String(s), data, e

	case mdl.Raw:
		l, data, e := readLength(data)
		if e.Problem != "" {
			return nil, data, e
		}
		r := make(val.Raw, l)
		copy(r, data[:l])
		return r, data[l:], noError

	case mdl.Bool:
		r, data, e := readBytes(1, data)
		if e.Problem != "" {
			return nil, data, e
		}
		switch r[0] {
		case 't':
			return val.Bool(true), data, noError
		case 'f':
			return val.Bool(false), data, noError
		}
		return nil, data, problem("expected 't' or 'f', got: %q", r[0])

	case mdl.Float:
		n, data, e := readUint64(data)
		return val.Float(math.Float64frombits(n)), data, e

	case mdl.Int8:
		r, data, e := readBytes(1, data)
		if e.Problem != "" {
			return nil, data, e
		}
		return val.Int8(int8(r[0])), data, noError

	case mdl.Int16:
		n, data, e := readUint16(data)
		return val.Int16(int16(n)), data, e

	case mdl.Int32:
		n, data, e := readUint32(data)
		return val.Int32(int32(n)), data, e

	case mdl.Int64:
		n, data, e := readUint64(data)
		return val.Int64(int64(n)), data, e

	case mdl.Array:
		l, data, e := readLength(data)
		if e.Problem != "" {
			return nil, data, e
		}
		a := val.NewArray(m)
		for i := 0; i < l; i++ {
			w, d, e := decode(m.Elements, data)
			if e.Problem != "" {
				return nil, d, e
			}
			if ae := a.Append(w); ae != nil {
				return nil, d, problem("array element %d: %s", i, ae.Error())
			}
			data = d
		}
		return a, data, noError

	case mdl.WeightedSet:
		l, data, e := readLength(data)
		if e.Problem != "" {
			return nil, data, e
		}
		s := val.NewWeightedSet(m)
		for i := 0; i < l; i++ {
			w, d, e := decode(m.Elements, data)
			if e.Problem != "" {
				return nil, d, e
			}
			weight, d, e := readUint32(d)
			if e.Problem != "" {
				return nil, d, e
			}
			if s.Contains(w) {
				return nil, d, problem("duplicate weighted set key: %s", val.Format(w))
			}
			if pe := s.Put(w, int32(weight)); pe != nil {
				return nil, d, problem("weighted set entry %d: %s", i, pe.Error())
			}
			data = d
		}
		return s, data, noError

	case mdl.Struct:
		l, data, e := readLength(data)
		if e.Problem != "" {
			return nil, data, e
		}
		if l != m.Len() {
			return nil, data, problem("struct has %d fields, model declares %d", l, m.Len())
		}
		v := val.NewStruct(l)
		for i := 0; i < l; i++ {
			k, d, e := readString(data)
			if e.Problem != "" {
				return nil, d, e
			}
			fm, ok := m.Get(k)
			if !ok {
				return nil, d, problem("undeclared struct field: %q", k)
			}
			w, d, e := decode(fm, d)
			if e.Problem != "" {
				return nil, d, e
			}
			v.Set(k, w)
			data = d
		}
		return v, data, noError
	}

	panic(fmt.Sprintf(`unhandled model: %T`, m))
}

var noError = err.CodecError{}

func problem(format string, args ...interface{}) err.CodecError {
	return err.CodecError{Name: Name, Problem: fmt.Sprintf(format, args...)}
}

func readBytes(n int, data []byte) ([]byte, []byte, err.CodecError) {
	if len(data) < n {
		return nil, data, problem("unexpected EOF")
	}
	return data[:n], data[n:], noError
}

func readLength(data []byte) (int, []byte, err.CodecError) {
	r, data, e := readUint32(data)
	if e.Problem != "" {
		return 0, data, e
	}
	l := int(r)
	if l > len(data) {
		// every element occupies at least one byte
		return 0, data, problem("length exceeds input bounds: %d", l)
	}
	return l, data, noError
}

func readString(data []byte) (string, []byte, err.CodecError) {
	l, data, e := readLength(data)
	if e.Problem != "" {
		return "", data, e
	}
	return string(data[:l]), data[l:], noError
}

func writeString(s string, buf []byte) []byte {
	return append(writeLength(len(s), buf), s...)
}

func writeLength(l int, buf []byte) []byte {
	return writeUint32(uint32(l), buf)
}

func writeUint64(u uint64, buf []byte) []byte {
	return append(buf, byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32), byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

func writeUint32(u uint32, buf []byte) []byte {
	return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

func writeUint16(u uint16, buf []byte) []byte {
	return append(buf, byte(u>>8), byte(u))
}

func readUint64(data []byte) (uint64, []byte, err.CodecError) {
	bs, data, e := readBytes(8, data)
	if e.Problem != "" {
		return 0, data, e
	}
	return uint64(bs[0])<<56 |
		uint64(bs[1])<<48 |
		uint64(bs[2])<<40 |
		uint64(bs[3])<<32 |
		uint64(bs[4])<<24 |
		uint64(bs[5])<<16 |
		uint64(bs[6])<<8 |
		uint64(bs[7]), data, noError
}

func readUint32(data []byte) (uint32, []byte, err.CodecError) {
	bs, data, e := readBytes(4, data)
	if e.Problem != "" {
		return 0, data, e
	}
	return uint32(bs[0])<<24 |
		uint32(bs[1])<<16 |
		uint32(bs[2])<<8 |
		uint32(bs[3]), data, noError
}

func readUint16(data []byte) (uint16, []byte, err.CodecError) {
	bs, data, e := readBytes(2, data)
	if e.Problem != "" {
		return 0, data, e
	}
	return uint16(bs[0])<<8 | uint16(bs[1]), data, noError
}
