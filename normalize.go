package docxtemplar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var errNotMapping = errors.New("верхний уровень не является объектом")

// sanitizeJSONBlock извлекает JSON, обёрнутый в тройные кавычки ``` ... ```.
// Если таких кавычек нет, либо структура неверная, возвращает исходные данные.
var fenceRx = regexp.MustCompile("(?s)```[a-zA-Z]*\\r?\\n(.*?)```")

func sanitizeJSONBlock(b []byte) []byte {
	if !bytes.Contains(b, []byte("```")) {
		return b
	}
	m := fenceRx.FindSubmatch(b)
	if len(m) >= 2 {
		return bytes.TrimSpace(m[1])
	}
	return b
}

// decodeRecord разбирает содержимое файла данных в mapping.
// YAML определяется по расширению, всё остальное читается как JSON с комментариями.
func decodeRecord(name string, data []byte) (Value, error) {
	var raw interface{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Value{}, fmt.Errorf("yaml: %w", err)
		}
	default:
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		data = jsonc.ToJSON(sanitizeJSONBlock(data))
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return Value{}, fmt.Errorf("json: %w", err)
		}
		// после документа допускаются только пробелы
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return Value{}, errors.New("json: лишние данные после документа")
		}
	}
	v := FromInterface(deepNormalize(raw))
	if v.Kind() != KindMapping {
		return Value{}, errNotMapping
	}
	return v, nil
}

// deepNormalize приводит ключи YAML-отображений к строкам.
func deepNormalize(v interface{}) interface{} {
	switch vv := v.(type) {
	case []interface{}:
		for i := range vv {
			vv[i] = deepNormalize(vv[i])
		}
		return vv
	case map[string]interface{}:
		for k, val := range vv {
			vv[k] = deepNormalize(val)
		}
		return vv
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = deepNormalize(val)
		}
		return out
	default:
		return vv
	}
}
