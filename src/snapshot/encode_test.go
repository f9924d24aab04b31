package snapshot_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"docsnap/src/snapshot"
)

type status int

func (s status) String() string { return "status-" + string(rune('0'+int(s))) }

func TestCoerce_NonJSONValuesBecomeStrings(t *testing.T) {
	utc := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	in := map[string]any{
		"when":    utc,
		"precise": utc.Add(123456 * time.Microsecond),
		"blob":    []byte("hi"),
		"nan":     math.NaN(),
		"inf":     math.Inf(-1),
		"state":   status(2),
		"list":    []string{"a", "b"},
		"nested":  map[string]any{"at": utc},
		"count":   int64(3),
		"price":   10.0,
		"ok":      true,
		"none":    nil,
	}
	got := snapshot.Coerce(in).(map[string]any)
	want := map[string]any{
		"when":    "2024-06-01 12:30:00+00:00",
		"precise": "2024-06-01 12:30:00.123456+00:00",
		"blob":    "aGk=",
		"nan":     "NaN",
		"inf":     "-Infinity",
		"state":   "status-2",
		"list":    []any{"a", "b"},
		"nested":  map[string]any{"at": "2024-06-01 12:30:00+00:00"},
		"count":   int64(3),
		"price":   json.Number("10.0"),
		"ok":      true,
		"none":    nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v\nwant %#v", got, want)
	}
}

func TestCollection_ReadKeepsIntegers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	docs := map[string]any{
		"u1": map[string]any{"age": int64(41), "score": 2.5, "tags": []any{int64(1), "x"}},
	}
	if err := snapshot.WriteCollection(path, docs); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := snapshot.ReadCollection(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, docs) {
		t.Fatalf("got %#v want %#v", got, docs)
	}
}

func TestCollection_ReadRejectsNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	mustWrite(t, path, `["not", "a", "mapping"]`)
	if _, err := snapshot.ReadCollection(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCollection_IntegralFloatsStayFloats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	docs := snapshot.Coerce(map[string]any{
		"i1": map[string]any{"price": 10.0, "big": 1e21, "qty": int64(10)},
	}).(map[string]any)
	if err := snapshot.WriteCollection(path, docs); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(b), `"price": 10.0`) {
		t.Fatalf("price not written as a float:\n%s", b)
	}
	got, err := snapshot.ReadCollection(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := map[string]any{
		"i1": map[string]any{"price": 10.0, "big": 1e21, "qty": int64(10)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestCollection_ReadAcceptsBareNonFiniteTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	mustWrite(t, path, `{"m1": {"a": NaN, "b": Infinity, "c": [-Infinity, 1.5], "note": "NaN is fine here", "s": "NaN"}}`)
	got, err := snapshot.ReadCollection(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	m := got["m1"].(map[string]any)
	if f, ok := m["a"].(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("a: got %#v", m["a"])
	}
	if m["b"] != math.Inf(1) {
		t.Fatalf("b: got %#v", m["b"])
	}
	if !reflect.DeepEqual(m["c"], []any{math.Inf(-1), 1.5}) {
		t.Fatalf("c: got %#v", m["c"])
	}
	if m["note"] != "NaN is fine here" || m["s"] != "NaN" {
		t.Fatalf("strings changed: %#v %#v", m["note"], m["s"])
	}
}
