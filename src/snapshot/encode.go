package snapshot

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Coerce lowers v to values encoding/json can represent. Values with no JSON
// form become their string representation; the conversion is one-way.
func Coerce(v any) any {
	switch t := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t
	case float32:
		return coerceFloat(float64(t))
	case float64:
		return coerceFloat(t)
	case time.Time:
		return formatTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return formatTime(*t)
	case []byte:
		return base64.StdEncoding.EncodeToString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Coerce(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Coerce(val)
		}
		return out
	case fmt.Stringer:
		return t.String()
	}
	return coerceReflect(reflect.ValueOf(v))
}

func coerceReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Coerce(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Coerce(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Coerce(iter.Value().Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return coerceFloat(rv.Float())
	}
	return fmt.Sprint(rv.Interface())
}

func coerceFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return floatNumber(f)
}

// floatNumber keeps a float recognisable as one in JSON: integral values get
// a ".0" suffix so they are not read back as integers.
func floatNumber(f float64) json.Number {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s)
}

// formatTime renders t as "2006-01-02 15:04:05[.ffffff]+07:00"; the fraction
// is microseconds and only present when non-zero.
func formatTime(t time.Time) string {
	if us := t.Nanosecond() / 1000; us != 0 {
		return t.Format("2006-01-02 15:04:05") + fmt.Sprintf(".%06d", us) + t.Format("-07:00")
	}
	return t.Format("2006-01-02 15:04:05-07:00")
}

// WriteCollection stores a collection mapping (document id -> body) at path.
func WriteCollection(path string, docs map[string]any) error {
	return writeJSON(path, docs)
}

// ReadCollection loads a collection mapping. Number literals without a
// fraction or exponent come back as int64, every other number as float64.
// The bare NaN, Infinity and -Infinity tokens other writers emit are read as
// the matching float64 values.
func ReadCollection(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(quoteNonFinite(b)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]any, len(raw))
	for id, body := range raw {
		out[id] = fromJSON(body)
	}
	return out, nil
}

func fromJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = fromJSON(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = fromJSON(val)
		}
		return t
	case string:
		if f, ok := nonFiniteMarkers[t]; ok {
			return f
		}
	}
	return v
}

// nonFiniteMarkers maps the strings quoteNonFinite substitutes for bare
// tokens back to their values. The NUL prefix keeps them apart from the
// quoted "NaN" strings this package writes.
var nonFiniteMarkers = map[string]float64{
	"\x00NaN":       math.NaN(),
	"\x00Infinity":  math.Inf(1),
	"\x00-Infinity": math.Inf(-1),
}

var nonFiniteTokens = []string{"-Infinity", "Infinity", "NaN"}

// quoteNonFinite rewrites bare NaN, Infinity and -Infinity tokens outside
// string literals into marker strings encoding/json accepts.
func quoteNonFinite(b []byte) []byte {
	if !bytes.Contains(b, []byte("NaN")) && !bytes.Contains(b, []byte("Infinity")) {
		return b
	}
	out := make([]byte, 0, len(b)+16)
	inString, escaped := false, false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		matched := false
		for _, tok := range nonFiniteTokens {
			if bytes.HasPrefix(b[i:], []byte(tok)) {
				out = append(out, `"\u0000`...)
				out = append(out, tok...)
				out = append(out, '"')
				i += len(tok) - 1
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, c)
		}
	}
	return out
}
