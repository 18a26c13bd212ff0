// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package json implements the document interchange encoding. Decoding is
// guided by a model: JSON carries no distinction between the integer
// widths or between arrays and weighted sets.
//
// Weighted sets with string elements are objects mapping keys to weights,
// {"red": 1}. Other weighted sets are arrays of [element, weight] pairs.
package json

import (
	"bytes"
	"encoding/base64"
	ej "encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/karmarun/ixl/codec"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
)

const Name = "json"

func init() {
	codec.Register(Name, func() codec.Interface { return Codec{} })
}

type Codec struct{}

func (Codec) Decode(json []byte, model mdl.Model) (val.Value, err.Error) {
	return Decode(json, model)
}

func (Codec) Encode(v val.Value) []byte {
	return Encode(v)
}

func Encode(v val.Value) []byte {
	return encode(v, make([]byte, 0, 512))
}

func encode(value val.Value, bs []byte) []byte {
	switch v := value.(type) {

	case val.String:
		return appendString(bs, string(v))

	case val.Raw:
		return appendString(bs, base64.StdEncoding.EncodeToString(v))

	case val.Bool:
		return strconv.AppendBool(bs, bool(v))

	case val.Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return append(bs, "null"...)
		}
		return strconv.AppendFloat(bs, f, 'g', -1, 64)

	case val.Int8:
		return strconv.AppendInt(bs, int64(v), 10)

	case val.Int16:
		return strconv.AppendInt(bs, int64(v), 10)

	case val.Int32:
		return strconv.AppendInt(bs, int64(v), 10)

	case val.Int64:
		return strconv.AppendInt(bs, int64(v), 10)

	case *val.Array:
		bs = append(bs, '[')
		v.ForEach(func(i int, w val.Value) bool {
			if i > 0 {
				bs = append(bs, ',')
			}
			bs = encode(w, bs)
			return true
		})
		return append(bs, ']')

	case *val.WeightedSet:
		if _, ok := v.WeightedSetModel().Elements.(mdl.String); ok {
			bs = append(bs, '{')
			first := true
			v.ForEach(func(w val.Value, weight int32) bool {
				if !first {
					bs = append(bs, ',')
				}
				first = false
				bs = appendString(bs, string(w.(val.String)))
				bs = append(bs, ':')
				bs = strconv.AppendInt(bs, int64(weight), 10)
				return true
			})
			return append(bs, '}')
		}
		bs = append(bs, '[')
		first := true
		v.ForEach(func(w val.Value, weight int32) bool {
			if !first {
				bs = append(bs, ',')
			}
			first = false
			bs = append(bs, '[')
			bs = encode(w, bs)
			bs = append(bs, ',')
			bs = strconv.AppendInt(bs, int64(weight), 10)
			bs = append(bs, ']')
			return true
		})
		return append(bs, ']')

	case *val.Struct:
		bs = append(bs, '{')
		first := true
		v.ForEach(func(k string, w val.Value) bool {
			if !first {
				bs = append(bs, ',')
			}
			first = false
			bs = appendString(bs, k)
			bs = append(bs, ':')
			bs = encode(w, bs)
			return true
		})
		return append(bs, '}')
	}

	panic(fmt.Sprintf(`json.Encode: unhandled value type: %T`, value))
}

func appendString(bs []byte, s string) []byte {
	q, _ := ej.Marshal(s) // never fails for strings
	return append(bs, q...)
}

// Decode parses json as a value of model. Struct fields not declared in
// the model are dropped and null fields are treated as absent.
func Decode(json []byte, model mdl.Model) (val.Value, err.Error) {
	if model == nil {
		return nil, err.CodecError{Name: Name, Problem: "json decoding requires a model"}
	}
	dec := ej.NewDecoder(bytes.NewReader(json))
	dec.UseNumber()
	var raw interface{}
	if e := dec.Decode(&raw); e != nil {
		return nil, syntaxError(e)
	}
	if dec.More() {
		return nil, err.CodecError{Name: Name, Offset_: int(dec.InputOffset()), Problem: "trailing data after value"}
	}
	v, e := decode(raw, model)
	if e != nil {
		return nil, err.CodecError{Name: Name, Problem: "document does not match its model", Child_: e}
	}
	return v, nil
}

// DecodeStream calls f for every value in a stream of concatenated or
// newline separated JSON values until f returns false or the stream ends.
func DecodeStream(dec *ej.Decoder, model mdl.Model, f func(val.Value, err.Error) bool) err.Error {
	dec.UseNumber()
	for dec.More() {
		var raw interface{}
		if e := dec.Decode(&raw); e != nil {
			return syntaxError(e)
		}
		v, e := decode(raw, model)
		if e != nil {
			e = err.CodecError{Name: Name, Offset_: int(dec.InputOffset()), Problem: "document does not match its model", Child_: e}
		}
		if !f(v, e) {
			break
		}
	}
	return nil
}

func syntaxError(e error) err.Error {
	if se, ok := e.(*ej.SyntaxError); ok {
		return err.CodecError{Name: Name, Offset_: int(se.Offset), Problem: se.Error()}
	}
	return err.CodecError{Name: Name, Problem: e.Error()}
}

func decode(raw interface{}, model mdl.Model) (val.Value, err.Error) {

	switch m := model.(type) {

	case mdl.String:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(raw, m)
		}
		return val.String(s), nil

	case mdl.Raw:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(raw, m)
		}
		r, e := base64.StdEncoding.DecodeString(s)
		if e != nil {
			return nil, err.ExecutionError{Problem: "raw value is not valid base64"}
		}
		return val.Raw(r), nil

	case mdl.Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, mismatch(raw, m)
		}
		return val.Bool(b), nil

	case mdl.Float:
		n, ok := raw.(ej.Number)
		if !ok {
			return nil, mismatch(raw, m)
		}
		f, e := n.Float64()
		if e != nil {
			return nil, mismatch(raw, m)
		}
		return val.Float(f), nil

	case mdl.Int8:
		i, e := decodeInt(raw, m, 8)
		return val.Int8(i), e

	case mdl.Int16:
		i, e := decodeInt(raw, m, 16)
		return val.Int16(i), e

	case mdl.Int32:
		i, e := decodeInt(raw, m, 32)
		return val.Int32(i), e

	case mdl.Int64:
		i, e := decodeInt(raw, m, 64)
		return val.Int64(i), e

	case mdl.Array:
		es, ok := raw.([]interface{})
		if !ok {
			return nil, mismatch(raw, m)
		}
		a := val.NewArray(m)
		for i, r := range es {
			w, e := decode(r, m.Elements)
			if e != nil {
				return nil, withIndex(e, i)
			}
			if e := a.Append(w); e != nil {
				return nil, withIndex(e, i)
			}
		}
		return a, nil

	case mdl.WeightedSet:
		return decodeWeightedSet(raw, m)

	case mdl.Struct:
		o, ok := raw.(map[string]interface{})
		if !ok {
			return nil, mismatch(raw, m)
		}
		v := val.NewStruct(len(o))
		// model order keeps the output independent of map iteration
		var e err.Error
		m.ForEach(func(k string, fm mdl.Model) bool {
			r, ok := o[k]
			if !ok || r == nil {
				return true
			}
			w, we := decode(r, fm)
			if we != nil {
				e = withField(we, k)
				return false
			}
			v.Set(k, w)
			return true
		})
		if e != nil {
			return nil, e
		}
		return v, nil
	}

	panic(fmt.Sprintf(`json.Decode: unhandled model: %T`, model))
}

func decodeWeightedSet(raw interface{}, m mdl.WeightedSet) (val.Value, err.Error) {
	s := val.NewWeightedSet(m)
	put := func(w val.Value, r interface{}) err.Error {
		weight, e := decodeInt(r, mdl.Int32{}, 32)
		if e != nil {
			return e
		}
		if s.Contains(w) {
			return err.ExecutionError{Problem: fmt.Sprintf("duplicate weighted set key %s", val.Format(w))}
		}
		return s.Put(w, int32(weight))
	}
	switch r := raw.(type) {
	case map[string]interface{}:
		if _, ok := m.Elements.(mdl.String); !ok {
			return nil, mismatch(raw, m)
		}
		// deterministic insertion order
		keys := sortedKeys(r)
		for _, k := range keys {
			if e := put(val.String(k), r[k]); e != nil {
				return nil, withField(e, k)
			}
		}
		return s, nil
	case []interface{}:
		for i, p := range r {
			pair, ok := p.([]interface{})
			if !ok || len(pair) != 2 {
				return nil, withIndex(err.ExecutionError{Problem: "weighted set entries must be [element, weight] pairs"}, i)
			}
			w, e := decode(pair[0], m.Elements)
			if e != nil {
				return nil, withIndex(e, i)
			}
			if e := put(w, pair[1]); e != nil {
				return nil, withIndex(e, i)
			}
		}
		return s, nil
	}
	return nil, mismatch(raw, m)
}

func sortedKeys(o map[string]interface{}) []string {
	ks := make([]string, 0, len(o))
	for k := range o {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func decodeInt(raw interface{}, m mdl.Model, bits int) (int64, err.Error) {
	n, ok := raw.(ej.Number)
	if !ok {
		return 0, mismatch(raw, m)
	}
	i, e := strconv.ParseInt(string(n), 10, bits)
	if e != nil {
		return 0, err.ExecutionError{Problem: fmt.Sprintf("%s is not a valid %s", string(n), m)}
	}
	return i, nil
}

func mismatch(raw interface{}, m mdl.Model) err.Error {
	return err.ExecutionError{Problem: fmt.Sprintf("expected %s, have json %s", m, jsonKind(raw))}
}

func jsonKind(raw interface{}) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case ej.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", raw)
}

func withField(e err.Error, k string) err.Error {
	if p, ok := e.(err.PathedError); ok {
		return p.AppendPath(err.ErrorPathElementField(k))
	}
	return e
}

func withIndex(e err.Error, i int) err.Error {
	if p, ok := e.(err.PathedError); ok {
		return p.AppendPath(err.ErrorPathElementField(strconv.Itoa(i)))
	}
	return e
}
