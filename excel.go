package docxtemplar

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook — книга Excel: каждая непустая ячейка каждого листа считается ячейкой таблицы.
type Workbook struct {
	f *excelize.File
	// кэш стилей подсветки: исходный стиль -> стиль с заливкой
	hlStyles map[hlKey]int
}

type hlKey struct {
	style int
	color string
}

// цвета подсветки Word в RGB для заливки ячеек
var highlightRGB = map[string]string{
	"yellow":      "FFFF00",
	"green":       "00FF00",
	"cyan":        "00FFFF",
	"magenta":     "FF00FF",
	"blue":        "0000FF",
	"red":         "FF0000",
	"darkBlue":    "000080",
	"darkCyan":    "008080",
	"darkGreen":   "008000",
	"darkMagenta": "800080",
	"darkRed":     "800000",
	"darkYellow":  "808000",
	"darkGray":    "808080",
	"lightGray":   "C0C0C0",
	"black":       "000000",
	"white":       "FFFFFF",
}

// OpenWorkbook открывает .xlsx.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", path, err)
	}
	return &Workbook{f: f, hlStyles: map[hlKey]int{}}, nil
}

// Cells обходит листы в порядке книги, строки сверху вниз, ячейки слева направо.
func (w *Workbook) Cells(fn func(Cell) error) error {
	for _, sheet := range w.f.GetSheetList() {
		rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("лист %s: %w", sheet, err)
		}
		for rIdx, row := range rows {
			for cIdx, val := range row {
				if strings.TrimSpace(val) == "" {
					continue
				}
				addr, err := excelize.CoordinatesToCellName(cIdx+1, rIdx+1)
				if err != nil {
					return err
				}
				if err := fn(&xlsxCell{wb: w, sheet: sheet, addr: addr, text: val}); err != nil {
					return fmt.Errorf("лист %s, ячейка %s: %w", sheet, addr, err)
				}
			}
		}
	}
	return nil
}

// Save сохраняет книгу
func (w *Workbook) Save(path string) error {
	return writeFileAtomic(path, func(out io.Writer) error {
		_, err := w.f.WriteTo(out)
		return err
	})
}

func (w *Workbook) Close() error { return w.f.Close() }

// highlightStyle возвращает стиль ячейки с добавленной сплошной заливкой.
func (w *Workbook) highlightStyle(sheet, addr, color string) (int, error) {
	base, err := w.f.GetCellStyle(sheet, addr)
	if err != nil {
		return 0, err
	}
	key := hlKey{style: base, color: color}
	if id, ok := w.hlStyles[key]; ok {
		return id, nil
	}
	st, err := w.f.GetStyle(base)
	if err != nil || st == nil {
		st = &excelize.Style{}
	}
	rgb, ok := highlightRGB[color]
	if !ok {
		rgb = strings.TrimPrefix(color, "#")
	}
	st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rgb}}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	w.hlStyles[key] = id
	return id, nil
}

type xlsxCell struct {
	wb    *Workbook
	sheet string
	addr  string
	text  string
}

func (c *xlsxCell) Text() string { return c.text }

// SetText пишет строку только при изменении текста, чтобы числа и формулы оставались как есть.
func (c *xlsxCell) SetText(text, highlight string) error {
	if text != c.text {
		if err := c.wb.f.SetCellStr(c.sheet, c.addr, text); err != nil {
			return err
		}
		c.text = text
	}
	if highlight == "" {
		return nil
	}
	id, err := c.wb.highlightStyle(c.sheet, c.addr, highlight)
	if err != nil {
		return err
	}
	return c.wb.f.SetCellStyle(c.sheet, c.addr, c.addr, id)
}
