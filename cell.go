package docxtemplar

import (
	"strings"
)

// DefaultSentinels — слова статуса, при которых ячейка подсвечивается.
var DefaultSentinels = []string{"f", "stopped", "failed", "error"}

// IsSentinel сравнивает обрезанный текст со словами без учёта регистра. Совпадение только полное.
func IsSentinel(text string, sentinels []string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	for _, w := range sentinels {
		if strings.EqualFold(t, strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

// CellResult — итог обработки текста одной ячейки.
type CellResult struct {
	Text      string
	Highlight bool
	// Template — в ячейке были маркеры
	Template bool
	// Resolved — маркеры разрешены какой-либо записью
	Resolved bool
	// Changed — итоговый текст отличается от исходного
	Changed bool
}

// TransformCell обрабатывает текст ячейки: обрезает пробелы, разрешает шаблон, проверяет слово статуса.
func (f *Filler) TransformCell(text string, pool Pool) CellResult {
	trimmed := strings.TrimSpace(text)
	out := CellResult{Text: trimmed}
	if HasMarkers(trimmed) {
		out.Template = true
		res := f.resolver.Resolve(trimmed, pool)
		out.Text = strings.TrimSpace(res.Text)
		out.Resolved = res.Matched
	}
	out.Highlight = IsSentinel(out.Text, f.sentinels)
	out.Changed = out.Text != text
	return out
}
