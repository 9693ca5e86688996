// Package cbor implements a tagged-variant CBOR value model with canonical
// ordering, grounded on the encoding conventions in pkg/mdoc/cbor.go and the
// CWT claim-label mapping in pkg/tokenstatuslist/cwt.go.
package cbor

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// MajorType orders CborValue variants per RFC 8949 §3.1.
type MajorType int

const (
	MajorUnsignedInt MajorType = 0
	MajorNegativeInt MajorType = 1
	MajorBytes       MajorType = 2
	MajorText        MajorType = 3
	MajorArray       MajorType = 4
	MajorMap         MajorType = 5
	MajorTag         MajorType = 6
	MajorSimple      MajorType = 7
)

// Kind discriminates the CborValue variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindBytes
	KindText
	KindArray
	KindMap
	KindTag
)

// Value is a tagged-union CBOR value: Null | Bool | Integer(big.Int) |
// Float(float64) | Bytes | Text | Array | Map | Tag(number, Value).
//
// Integers are carried as *big.Int so both the full unsigned 64-bit CBOR
// range and its negated counterpart fit without loss (mirroring the i128
// carrier in the source this spec was distilled from).
type Value struct {
	kind    Kind
	boolean bool
	integer *big.Int
	float   float64
	bytes   []byte
	text    string
	array   []Value
	m       map[string]Value
	tagNum  uint64
	tagVal  *Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, boolean: b} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, bytes: b} }
func Text(s string) Value        { return Value{kind: KindText, text: s} }
func Float(f float64) Value      { return Value{kind: KindFloat, float: f} }
func Array(items []Value) Value  { return Value{kind: KindArray, array: items} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}
func Tag(num uint64, v Value) Value {
	return Value{kind: KindTag, tagNum: num, tagVal: &v}
}

func Integer(n int64) Value {
	return Value{kind: KindInteger, integer: big.NewInt(n)}
}

func IntegerBig(n *big.Int) Value {
	return Value{kind: KindInteger, integer: new(big.Int).Set(n)}
}

func (v Value) Kind() Kind { return v.kind }

// MajorType returns the RFC 8949 major type governing canonical ordering.
func (v Value) MajorType() MajorType {
	switch v.kind {
	case KindInteger:
		if v.integer.Sign() < 0 {
			return MajorNegativeInt
		}
		return MajorUnsignedInt
	case KindBytes:
		return MajorBytes
	case KindText:
		return MajorText
	case KindArray:
		return MajorArray
	case KindMap:
		return MajorMap
	case KindTag:
		return MajorTag
	default: // Null, Bool, Float
		return MajorSimple
	}
}

// Cmp implements the total order mandated by §3: first by major type, then
// by a type-specific rule (lexicographic for bytes/text, element-wise for
// arrays, (id,value) lexicographic for tags, length-then-element-wise for
// maps).
func (v Value) Cmp(other Value) int {
	mt, mo := v.MajorType(), other.MajorType()
	if mt != mo {
		if mt < mo {
			return -1
		}
		return 1
	}

	switch v.kind {
	case KindInteger:
		return v.integer.Cmp(other.integer)
	case KindBytes:
		return cmpBytes(v.bytes, other.bytes)
	case KindText:
		return cmpBytes([]byte(v.text), []byte(other.text))
	case KindArray:
		for i := 0; i < len(v.array) && i < len(other.array); i++ {
			if c := v.array[i].Cmp(other.array[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(v.array), len(other.array))
	case KindMap:
		if c := cmpInt(len(v.m), len(other.m)); c != 0 {
			return c
		}
		ak, bk := sortedKeys(v.m), sortedKeys(other.m)
		for i := range ak {
			if c := cmpBytes([]byte(ak[i]), []byte(bk[i])); c != 0 {
				return c
			}
			if c := v.m[ak[i]].Cmp(other.m[bk[i]]); c != 0 {
				return c
			}
		}
		return 0
	case KindTag:
		if c := cmpInt(int(v.tagNum), int(other.tagNum)); c != 0 {
			return c
		}
		return v.tagVal.Cmp(*other.tagVal)
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToText renders a value for display. This formatting is informational
// only and is never parsed back.
func (v Value) ToText() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindInteger:
		return v.integer.String()
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindBytes:
		return fmt.Sprintf("h'%x'", v.bytes)
	case KindText:
		return strconv.Quote(v.text)
	case KindArray:
		out := "["
		for i, item := range v.array {
			if i > 0 {
				out += ", "
			}
			out += item.ToText()
		}
		return out + "]"
	case KindMap:
		out := "{"
		first := true
		for _, k := range sortedKeys(v.m) {
			if !first {
				out += ", "
			}
			first = false
			out += strconv.Quote(k) + ": " + v.m[k].ToText()
		}
		return out + "}"
	case KindTag:
		return fmt.Sprintf("%d(%s)", v.tagNum, v.tagVal.ToText())
	default:
		return "?"
	}
}

// FromCBOR decodes CBOR bytes into a Value using the fxamacker/cbor
// package's default decode options.
func FromCBOR(data []byte) (Value, error) {
	var raw any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("cbor: decode: %w", err)
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case []byte:
		return Bytes(t)
	case string:
		return Text(t)
	case uint64:
		return Value{kind: KindInteger, integer: new(big.Int).SetUint64(t)}
	case int64:
		return Integer(t)
	case float64:
		return Float(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = fromAny(item)
		}
		return Array(items)
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, val := range t {
			m[fmt.Sprintf("%v", k)] = fromAny(val)
		}
		return Map(m)
	case cbor.Tag:
		inner := fromAny(t.Content)
		return Tag(t.Number, inner)
	default:
		return Text(fmt.Sprintf("%v", t))
	}
}

// ToCBOR encodes a Value using canonical (deterministic) CBOR per RFC 8949
// §4.2.1, matching pkg/mdoc/cbor.go's EncOptions.
func ToCBOR(v Value) ([]byte, error) {
	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	encMode, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor: build encoder: %w", err)
	}
	return encMode.Marshal(toAny(v))
}

func toAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolean
	case KindInteger:
		if v.integer.IsInt64() {
			return v.integer.Int64()
		}
		return v.integer.Uint64()
	case KindFloat:
		return v.float
	case KindBytes:
		return v.bytes
	case KindText:
		return v.text
	case KindArray:
		out := make([]any, len(v.array))
		for i, item := range v.array {
			out[i] = toAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = toAny(item)
		}
		return out
	case KindTag:
		return cbor.Tag{Number: v.tagNum, Content: toAny(*v.tagVal)}
	default:
		return nil
	}
}
