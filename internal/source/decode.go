package source

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

type typeClass uint8

const (
	classUnknown typeClass = iota
	classInteger
	classFloat
	classDecimal
	classBinary
)

// classify maps a driver type name such as "NUMERIC(10,2)" or "UNSIGNED BIGINT"
// onto the decoding used for raw byte values.
func classify(dbType string) typeClass {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")

	switch t {
	case "DECIMAL", "NUMERIC", "NEWDECIMAL", "MONEY":
		return classDecimal
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "YEAR":
		return classInteger
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		return classFloat
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BYTEA":
		return classBinary
	}
	return classUnknown
}

// decode converts one scanned driver value into a typed cell value.
func decode(raw interface{}, class typeClass) (xlsxexport.Value, error) {
	switch v := raw.(type) {
	case nil:
		return xlsxexport.Null(), nil
	case int64:
		return xlsxexport.Int(v), nil
	case int32:
		return xlsxexport.Int(int64(v)), nil
	case int:
		return xlsxexport.Int(int64(v)), nil
	case uint64:
		if v > 1<<63-1 {
			return xlsxexport.Dec(decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)), nil
		}
		return xlsxexport.Int(int64(v)), nil
	case float64:
		return xlsxexport.Float(v), nil
	case float32:
		return xlsxexport.Float(float64(v)), nil
	case bool:
		return xlsxexport.Bool(v), nil
	case time.Time:
		return xlsxexport.Time(v), nil
	case decimal.Decimal:
		return xlsxexport.Dec(v), nil
	case []byte:
		if class == classBinary {
			return xlsxexport.Other(fmt.Sprintf("%x", v)), nil
		}
		return decodeText(string(v), class)
	case string:
		return decodeText(v, class)
	}
	return xlsxexport.Other(raw), nil
}

func decodeText(s string, class typeClass) (xlsxexport.Value, error) {
	switch class {
	case classInteger:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return xlsxexport.Int(i), nil
		}
		// out of int64 range, keep it exact
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return xlsxexport.Value{}, fmt.Errorf("decode integer %q: invalid syntax", s)
		}
		return xlsxexport.Dec(decimal.NewFromBigInt(bi, 0)), nil
	case classFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return xlsxexport.Value{}, fmt.Errorf("decode float %q: %w", s, err)
		}
		return xlsxexport.Float(f), nil
	case classDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return xlsxexport.Value{}, fmt.Errorf("decode decimal %q: %w", s, err)
		}
		return xlsxexport.Dec(d), nil
	}
	if !utf8.ValidString(s) {
		return xlsxexport.Other(fmt.Sprintf("%x", s)), nil
	}
	return xlsxexport.Text(s), nil
}
