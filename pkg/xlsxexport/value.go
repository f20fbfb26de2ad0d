// Package xlsxexport streams rows into a single-sheet workbook and styles it
// afterwards from statistics gathered during the write.
package xlsxexport

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind classifies a cell value for column statistics.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindDecimal // fixed or floating point
	KindText
	KindOther // booleans, timestamps and anything else
)

var kindNames = [...]string{"null", "integer", "decimal", "text", "other"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a single typed scalar produced by a row source.
// The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	d    decimal.Decimal
	s    string
	v    interface{}
	// exact marks a decimal that came from a fixed-point column.
	exact bool
}

// Row is one record, one Value per column.
type Row []Value

func Null() Value { return Value{} }

func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

func Float(f float64) Value { return Value{kind: KindDecimal, f: f} }

// Dec wraps an exact fixed-point number.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d, exact: true} }

func Text(s string) Value { return Value{kind: KindText, s: s} }

func Bool(b bool) Value { return Value{kind: KindOther, v: b} }

func Time(t time.Time) Value { return Value{kind: KindOther, v: t} }

// Other wraps a value that does not fit any other kind. A nil v is null.
func Other(v interface{}) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindOther, v: v}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value the way it reads in a cell. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		if v.exact {
			if exp := v.d.Exponent(); exp < 0 {
				return v.d.StringFixed(-exp)
			}
			return v.d.String()
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	}
	switch t := v.v.(type) {
	case time.Time:
		return t.Format(time.DateTime)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Len is the number of characters in the rendered value, 0 for null.
func (v Value) Len() int {
	if v.kind == KindNull {
		return 0
	}
	return utf8.RuneCountInString(v.String())
}

// CellValue converts the value into something the sink stores natively, so
// numbers stay numeric and timestamps stay dates.
func (v Value) CellValue() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindInteger:
		return v.i
	case KindDecimal:
		if v.exact {
			return v.d.InexactFloat64()
		}
		return v.f
	case KindText:
		return v.s
	}
	switch t := v.v.(type) {
	case bool, time.Time:
		return t
	default:
		return v.String()
	}
}
