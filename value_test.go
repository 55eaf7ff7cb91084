package docxtemplar

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func mustValue(t *testing.T, src string) Value {
	t.Helper()
	var raw interface{}
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		t.Fatalf("unmarshal %s: %v", src, err)
	}
	return FromInterface(raw)
}

func TestLookup_BasicAndIndex(t *testing.T) {
	root := mustValue(t, `{"a":{"b":{"c":42}},"arr":[{"name":"zero"},{"name":"one"}]}`)

	if v, ok := root.Lookup("a.b.c"); !ok || v.String() != "42" {
		t.Fatalf("lookup a.b.c => %v ok=%v", v, ok)
	}
	// индекс массива
	if v, ok := root.Lookup("arr[1].name"); !ok || v.String() != "one" {
		t.Fatalf("lookup arr[1].name => %v ok=%v", v, ok)
	}
	if _, ok := root.Lookup("arr[2].name"); ok {
		t.Fatalf("lookup arr[2].name must be absent")
	}
}

func TestLookup_BreaksOnNonMapping(t *testing.T) {
	root := mustValue(t, `{"a":{"b":5},"s":"text","arr":[1,2]}`)

	if v, ok := root.Lookup("a.b"); !ok || v.Kind() != KindNumber {
		t.Fatalf("lookup a.b => %v ok=%v", v, ok)
	}
	for _, p := range []string{"a.c", "s.len", "a.b.c", "arr.0", "missing"} {
		if v, ok := root.Lookup(p); ok {
			t.Fatalf("lookup %s must be absent, got %v", p, v)
		}
	}
}

func TestLookup_NullIsFound(t *testing.T) {
	root := mustValue(t, `{"a":null}`)
	v, ok := root.Lookup("a")
	if !ok || !v.IsNull() {
		t.Fatalf("lookup a => %v ok=%v", v, ok)
	}
}

func TestNextSeg(t *testing.T) {
	// имя
	if seg, tail := nextSeg("foo.bar"); seg != "foo" || tail != "bar" {
		t.Fatalf("nextSeg name: seg=%q tail=%q", seg, tail)
	}
	// индекс
	if seg, tail := nextSeg("[10].rest"); seg != "[10]" || tail != "rest" {
		t.Fatalf("nextSeg index: seg=%q tail=%q", seg, tail)
	}
	if seg, tail := nextSeg("items[0]"); seg != "items" || tail != "[0]" {
		t.Fatalf("nextSeg name+index: seg=%q tail=%q", seg, tail)
	}
}

func TestValueString(t *testing.T) {
	cases := map[string]string{
		`5`:           "5",
		`1.5`:         "1.5",
		`true`:        "true",
		`null`:        "",
		`"x"`:         "x",
		`["a","b"]`:   "a, b",
		`[1,"b"]`:     `[1,"b"]`,
		`{"k":"v"}`:   `{"k":"v"}`,
		`12345678901`: "12345678901",
	}
	for src, want := range cases {
		if got := mustValue(t, src).String(); got != want {
			t.Errorf("String(%s) = %q, want %q", src, got, want)
		}
	}
}

func TestMappingIsCopied(t *testing.T) {
	src := map[string]Value{"a": String("x")}
	v := Mapping(src)
	src["a"] = String("y")
	if got, _ := v.Field("a"); got.String() != "x" {
		t.Fatalf("mapping must not share storage, got %q", got.String())
	}
	if keys := v.Keys(); len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestValue_LargeIntegers(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"ts": 1726140000123456789, "id": 9007199254740993, "big": 1e300, "half": 2.5}`))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	root := FromInterface(raw)

	for path, want := range map[string]string{
		"ts":   "1726140000123456789",
		"id":   "9007199254740993",
		"half": "2.5",
	} {
		v, ok := root.Lookup(path)
		if !ok || v.Kind() != KindNumber || v.String() != want {
			t.Errorf("lookup %s => %q kind=%v ok=%v, want %q", path, v.String(), v.Kind(), ok, want)
		}
	}
	if v, _ := root.Lookup("id"); v.Interface() != int64(9007199254740993) {
		t.Errorf("id interface = %#v", v.Interface())
	}
	if v, _ := root.Lookup("big"); v.Kind() != KindNumber {
		t.Errorf("big kind = %v", v.Kind())
	}

	// yaml.v3 отдаёт целые как int, за пределами int64 — как uint64
	var y map[string]interface{}
	if err := yaml.Unmarshal([]byte("ts: 1726140000123456789\nmax: 18446744073709551615\n"), &y); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	yv := FromInterface(y)
	if v, _ := yv.Lookup("ts"); v.String() != "1726140000123456789" {
		t.Errorf("yaml ts = %q", v.String())
	}
	if v, _ := yv.Lookup("max"); v.Kind() != KindNumber {
		t.Errorf("yaml max kind = %v", v.Kind())
	}
}
