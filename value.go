package docxtemplar

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind — тип значения в записи данных.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value — неизменяемое значение из файла данных (null | bool | number | string | sequence | mapping).
// Нулевое значение Value — это null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	i     int64
	isInt bool // целое, точное значение в i
	s     string
	seq   []Value
	m     map[string]Value
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int — целое число без потери точности (наносекундные метки, 64-битные идентификаторы).
func Int(i int64) Value { return Value{kind: KindNumber, i: i, isInt: true, n: float64(i)} }

// Mapping копирует m, чтобы вызывающий код не мог изменить запись после создания.
func Mapping(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMapping, m: cp}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Field возвращает значение ключа, если v — mapping и ключ существует.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.m[key]
	return f, ok
}

// Index возвращает элемент последовательности.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.seq) {
		return Value{}, false
	}
	return v.seq[i], true
}

// Keys возвращает ключи mapping в отсортированном порядке.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromInterface строит Value из дерева, полученного от encoding/json или yaml.v3.
func FromInterface(x interface{}) Value {
	switch vv := x.(type) {
	case nil:
		return Null()
	case Value:
		return vv
	case bool:
		return Bool(vv)
	case string:
		return String(vv)
	case json.Number:
		if i, err := vv.Int64(); err == nil {
			return Int(i)
		}
		if f, err := vv.Float64(); err == nil {
			return Number(f)
		}
		return String(vv.String())
	case float64:
		return Number(vv)
	case float32:
		return Number(float64(vv))
	case int:
		return Int(int64(vv))
	case int8:
		return Int(int64(vv))
	case int16:
		return Int(int64(vv))
	case int32:
		return Int(int64(vv))
	case int64:
		return Int(vv)
	case uint:
		return fromUint(uint64(vv))
	case uint8:
		return Int(int64(vv))
	case uint16:
		return Int(int64(vv))
	case uint32:
		return Int(int64(vv))
	case uint64:
		return fromUint(vv)
	case []interface{}:
		seq := make([]Value, len(vv))
		for i, it := range vv {
			seq[i] = FromInterface(it)
		}
		return Value{kind: KindSequence, seq: seq}
	case map[string]interface{}:
		m := make(map[string]Value, len(vv))
		for k, it := range vv {
			m[k] = FromInterface(it)
		}
		return Value{kind: KindMapping, m: m}
	case map[interface{}]interface{}:
		m := make(map[string]Value, len(vv))
		for k, it := range vv {
			m[fmt.Sprint(k)] = FromInterface(it)
		}
		return Value{kind: KindMapping, m: m}
	default:
		return String(fmt.Sprintf("%v", vv))
	}
}

// fromUint хранит uint64 за пределами int64 в виде float64.
func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Number(float64(u))
	}
	return Int(int64(u))
}

// Interface возвращает обычное Go-дерево (map[string]interface{}, []interface{}, int64, float64, ...)
// для вычисления выражений. Целые числа отдаются как int64, чтобы арифметика expr оставалась точной.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.isInt {
			return v.i
		}
		return v.n
	case KindString:
		return v.s
	case KindSequence:
		out := make([]interface{}, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]interface{}, len(v.m))
		for k, it := range v.m {
			out[k] = it.Interface()
		}
		return out
	default:
		return nil
	}
}

// Lookup проходит по пути вида "a.b[0].c".
// Именованный сегмент спускается только в mapping, индекс [i] — только в sequence.
// Отсутствующий ключ или обрыв пути дают ok=false. Найденный null возвращается с ok=true.
func (v Value) Lookup(path string) (Value, bool) {
	cur := v
	rest := strings.TrimSpace(path)
	if rest == "" {
		return cur, true
	}
	for rest != "" {
		seg, tail := nextSeg(rest)
		if seg == "" {
			return Value{}, false
		}
		if strings.HasPrefix(seg, "[") {
			i, err := strconv.Atoi(strings.Trim(seg, "[]"))
			if err != nil {
				return Value{}, false
			}
			nv, ok := cur.Index(i)
			if !ok {
				return Value{}, false
			}
			cur = nv
		} else {
			nv, ok := cur.Field(seg)
			if !ok {
				return Value{}, false
			}
			cur = nv
		}
		rest = tail
	}
	return cur, true
}

// nextSeg отделяет первый сегмент пути: имя или индекс в квадратных скобках.
func nextSeg(path string) (seg string, tail string) {
	if path == "" {
		return "", ""
	}
	if path[0] == '[' {
		if i := strings.Index(path, "]"); i >= 0 {
			seg = path[:i+1]
			if i+1 < len(path) && path[i+1] == '.' {
				tail = path[i+2:]
			} else {
				tail = path[i+1:]
			}
			return
		}
	}
	i := 0
	for i < len(path) && path[i] != '.' && path[i] != '[' {
		i++
	}
	seg = path[:i]
	if i < len(path) && path[i] == '.' {
		tail = path[i+1:]
	} else {
		tail = path[i:]
	}
	return
}

// String — отображаемая форма значения для ячейки.
func (v Value) String() string {
	return toString(v.Interface())
}

// toString нормализует результат выражения перед записью в ячейку.
func toString(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		return formatFloat(vv)
	case float32:
		return formatFloat(float64(vv))
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case uint64:
		return strconv.FormatUint(vv, 10)
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case []interface{}:
		allStr := true
		strs := make([]string, len(vv))
		for i, it := range vv {
			if s, ok := it.(string); ok {
				strs[i] = s
			} else {
				allStr = false
				break
			}
		}
		if allStr {
			return strings.Join(strs, ", ")
		}
		b, _ := json.Marshal(vv)
		return string(b)
	case map[string]interface{}:
		b, _ := json.Marshal(vv)
		return string(b)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
