package cache

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between dataset key segments.
const KeySeparator = "::"

// MaxKeyLength is the longest key the default serializer emits verbatim.
// Longer argument lists are replaced by an xxhash digest.
const MaxKeyLength = 160

// KeySerializer builds the stable name a paging cache persists its snapshot under.
// Keys must be identical across process restarts for the same dataset.
type KeySerializer interface {
	SerializeKey(dataset string, args ...any) string
}

type defaultKeySerializer struct {
	maxLen int
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{maxLen: MaxKeyLength}
}

// SerializeKey joins dataset and the serialized args with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(dataset string, args ...any) string {
	if len(args) == 0 {
		return dataset
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, s.serializeValue(reflect.ValueOf(arg)))
	}
	suffix := strings.Join(parts, KeySeparator)

	key := dataset + KeySeparator + suffix
	if len(key) <= s.maxLen {
		return key
	}
	return dataset + KeySeparator + "h" + strconv.FormatUint(xxhash.Sum64String(suffix), 16)
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	case reflect.Slice, reflect.Array:
		elems := make([]string, rv.Len())
		for i := range elems {
			elems[i] = s.serializeValue(rv.Index(i))
		}
		return "[" + strings.Join(elems, ",") + "]"
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// Addresses are not stable across restarts; only the type is.
		return rv.Type().String()
	}

	if rv.CanInterface() {
		if data, err := json.Marshal(rv.Interface()); err == nil {
			return string(data)
		}
	}
	return rv.Type().String()
}
