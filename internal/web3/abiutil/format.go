package abiutil

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatValues maps decoded outputs to JSON friendly values.
func FormatValues(values []any) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders integers as decimal strings, byte strings and fixed
// bytes as 0x hex, addresses in checksum form and tuples as objects keyed by
// their ABI field names.
func FormatValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if x == nil {
			return nil
		}
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case string, bool:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()).String()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()).String()
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return hexutil.Encode(raw)
		}
		return formatList(rv)
	case reflect.Slice:
		return formatList(rv)
	case reflect.Struct:
		fields := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Type().Field(i)
			name := f.Tag.Get("json")
			if name == "" || name == "-" {
				name = f.Name
			}
			fields[strings.Split(name, ",")[0]] = FormatValue(rv.Field(i).Interface())
		}
		return fields
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return FormatValue(rv.Elem().Interface())
	}
	return v
}

func formatList(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = FormatValue(rv.Index(i).Interface())
	}
	return out
}
