// Package abiutil converts loosely typed JSON and command line values into the
// Go types expected by the go-ethereum ABI codec, and back into printable
// values.
package abiutil

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	chainerrors "ChainKit/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseABI parses a JSON ABI. A single fragment object is accepted as well as
// the usual array form.
func ParseABI(raw string) (*abi.ABI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, chainerrors.New(chainerrors.CodeInvalidArgument, "abi is empty")
	}
	if strings.HasPrefix(raw, "{") {
		raw = "[" + raw + "]"
	}
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return nil, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err, "parse abi")
	}
	return &parsed, nil
}

// ConvertArgs converts values into arguments for method, one per input.
func ConvertArgs(method abi.Method, values []any) ([]any, error) {
	if len(values) != len(method.Inputs) {
		return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument,
			"%s takes %d arguments, got %d", method.Name, len(method.Inputs), len(values))
	}
	args := make([]any, len(values))
	for i, input := range method.Inputs {
		v, err := ConvertArg(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err,
				fmt.Sprintf("%s argument %s (%s)", method.Name, name, input.Type))
		}
		args[i] = v
	}
	return args, nil
}

// ConvertArg converts v into the Go representation of t. Accepted inputs are
// what encoding/json produces (string, float64, json.Number, bool, []any,
// map[string]any) plus plain strings from the command line.
func ConvertArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case abi.BoolTy:
		return toBool(v)
	case abi.AddressTy:
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	case abi.BytesTy, abi.FunctionTy:
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		return toBytes(s)
	case abi.FixedBytesTy, abi.HashTy:
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		raw, err := toBytes(s)
		if err != nil {
			return nil, err
		}
		if len(raw) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(raw), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return toArray(t, v)
	case abi.TupleTy:
		return toTuple(t, v)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.TrimSpace(x) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf(`bool value must be true or false, got %v`, v)
}

func toBytes(s string) ([]byte, error) {
	if s == "0x" || s == "" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

func toInteger(t abi.Type, v any) (any, error) {
	s, err := scalarString(v)
	if err != nil {
		return nil, err
	}
	n, ok := parseBig(s)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, t)
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows %s", n, t)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("value %s overflows %s", n, t)
		}
	}

	switch {
	case t.T == abi.UintTy && t.Size == 8:
		return uint8(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 16:
		return uint16(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 32:
		return uint32(n.Uint64()), nil
	case t.T == abi.UintTy && t.Size == 64:
		return n.Uint64(), nil
	case t.T == abi.IntTy && t.Size == 8:
		return int8(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 16:
		return int16(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 32:
		return int32(n.Int64()), nil
	case t.T == abi.IntTy && t.Size == 64:
		return n.Int64(), nil
	}
	return n, nil
}

// parseBig accepts decimal and 0x-prefixed hex integers.
func parseBig(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

func toArray(t abi.Type, v any) (any, error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	if t.T == abi.ArrayTy && len(items) != t.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}
	for i, item := range items {
		elem, err := ConvertArg(*t.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

func toTuple(t abi.Type, v any) (any, error) {
	tuple := reflect.New(t.TupleType).Elem()

	switch x := v.(type) {
	case map[string]any:
		for i, name := range t.TupleRawNames {
			raw, ok := x[name]
			if !ok {
				return nil, fmt.Errorf("missing tuple field %q", name)
			}
			if err := setTupleField(tuple, t, i, raw); err != nil {
				return nil, err
			}
		}
	default:
		items, err := asList(v)
		if err != nil {
			return nil, err
		}
		if len(items) != len(t.TupleElems) {
			return nil, fmt.Errorf("expected %d tuple fields, got %d", len(t.TupleElems), len(items))
		}
		for i, raw := range items {
			if err := setTupleField(tuple, t, i, raw); err != nil {
				return nil, err
			}
		}
	}
	return tuple.Interface(), nil
}

func setTupleField(tuple reflect.Value, t abi.Type, i int, raw any) error {
	value, err := ConvertArg(*t.TupleElems[i], raw)
	if err != nil {
		return fmt.Errorf("tuple field %d: %w", i, err)
	}
	tuple.Field(i).Set(reflect.ValueOf(value))
	return nil
}

// asList accepts a decoded JSON array or a JSON array encoded in a string.
func asList(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case string:
		var items []any
		dec := json.NewDecoder(strings.NewReader(x))
		dec.UseNumber()
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("expected a JSON array: %w", err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}
