package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ArrayFormat selects how slice values are written.
type ArrayFormat int

const (
	// ArrayBracket writes tags=[a b] as tags[]=a&tags[]=b.
	ArrayBracket ArrayFormat = iota
	// ArrayRepeat writes tags=[a b] as tags=a&tags=b.
	ArrayRepeat
)

type queryOptions struct {
	keepNulls   bool
	arrayFormat ArrayFormat
}

// QueryOption tunes ToQueryParams.
type QueryOption func(*queryOptions)

// KeepNulls writes nil values as key=null instead of skipping them.
func KeepNulls() QueryOption {
	return func(o *queryOptions) { o.keepNulls = true }
}

// WithArrayFormat overrides the bracket array format.
func WithArrayFormat(format ArrayFormat) QueryOption {
	return func(o *queryOptions) { o.arrayFormat = format }
}

// ToQueryParams serializes params into a query string without the leading '?'.
// Keys are written in sorted order. Slices become repeated key[]=v entries,
// maps and structs are JSON encoded into a single value, and every component
// is encoded the way encodeURIComponent would encode it.
func ToQueryParams(params map[string]any, opts ...QueryOption) string {
	if len(params) == 0 {
		return ""
	}
	var o queryOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		encodedKey := encodeURIComponent(key)
		value, isNil := deref(params[key])
		if isNil {
			if o.keepNulls {
				parts = append(parts, encodedKey+"=null")
			}
			continue
		}
		switch value.Kind() {
		case reflect.Slice, reflect.Array:
			if value.Kind() == reflect.Slice && value.Type().Elem().Kind() == reflect.Uint8 {
				parts = append(parts, encodedKey+"="+encodeURIComponent(string(value.Bytes())))
				continue
			}
			if value.Len() == 0 && !o.keepNulls {
				continue
			}
			itemKey := encodedKey
			if o.arrayFormat == ArrayBracket {
				itemKey += "[]"
			}
			for i := 0; i < value.Len(); i++ {
				item, itemNil := deref(value.Index(i).Interface())
				if itemNil {
					if o.keepNulls {
						parts = append(parts, itemKey+"=null")
					}
					continue
				}
				parts = append(parts, itemKey+"="+encodeURIComponent(formatValue(item)))
			}
		default:
			parts = append(parts, encodedKey+"="+encodeURIComponent(formatValue(value)))
		}
	}
	return strings.Join(parts, "&")
}

func deref(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, true
		}
		rv = rv.Elem()
	}
	if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return reflect.Value{}, true
	}
	return rv, false
}

func formatValue(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok && v.Kind() != reflect.Struct {
		return s.String()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprint(v.Interface())
		}
		return string(data)
	}
}

// encodeURIComponent leaves A-Z a-z 0-9 - _ . ! ~ * ' ( ) untouched and
// percent-encodes every other UTF-8 byte.
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", ch)
	}
	return b.String()
}

func isUnreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
