package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

const maxArgsDepth = 256

var (
	rawMessageType = reflect.TypeFor[json.RawMessage]()
	marshalerType  = reflect.TypeFor[json.Marshaler]()
)

// EncodeArgs validates args and returns their JSON encoding. nil encodes
// as null.
func EncodeArgs(args any) (json.RawMessage, error) {
	if raw, ok := args.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: invalid JSON", ErrInvalidArgs)
		}
		return raw, nil
	}
	if err := validateArgs(reflect.ValueOf(args), "args", 0); err != nil {
		return nil, err
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return data, nil
}

// validateArgs walks v and rejects values without a natural JSON form:
// structs, functions, channels, complex numbers and maps with non-string
// keys. Types implementing json.Marshaler are trusted.
func validateArgs(v reflect.Value, path string, depth int) error {
	if depth > maxArgsDepth {
		return fmt.Errorf("%w: nesting too deep at %s", ErrInvalidArgs, path)
	}
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if t == rawMessageType {
		if v.Len() > 0 && !json.Valid(v.Bytes()) {
			return fmt.Errorf("%w: invalid JSON at %s", ErrInvalidArgs, path)
		}
		return nil
	}
	if t.Implements(marshalerType) && !(v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return nil
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite number at %s", ErrInvalidArgs, path)
		}
		return nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return validateArgs(v.Elem(), path, depth+1)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return nil // []byte encodes as a base64 string
		}
		for i := range v.Len() {
			if err := validateArgs(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map with %s keys at %s", ErrInvalidArgs, t.Key(), path)
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := validateArgs(iter.Value(), path+"."+iter.Key().String(), depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s at %s", ErrInvalidArgs, t, path)
	}
}

// decodeArgs decodes raw keeping numbers as json.Number.
func decodeArgs(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
