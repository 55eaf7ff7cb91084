package docxtemplar

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

const (
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	docxMainPart = "word/document.xml"
)

// ErrNoDocumentPart — в архиве нет основной части документа.
var ErrNoDocumentPart = errors.New("в архиве нет " + docxMainPart)

// Docx — документ Word: архив OPC, в котором правится только word/document.xml.
type Docx struct {
	zr  *zip.ReadCloser
	doc *etree.Document
}

// OpenDocx открывает .docx и разбирает основную часть документа.
func OpenDocx(path string) (*Docx, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", path, err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		zr.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoDocumentPart)
	}
	data, err := readZipFile(part)
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("чтение %s: %w", docxMainPart, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		zr.Close()
		return nil, fmt.Errorf("разбор %s: %w", docxMainPart, err)
	}
	return &Docx{zr: zr, doc: doc}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Cells обходит ячейки всех таблиц, включая вложенные. Ячейка, в которой есть вложенная таблица,
// сама не передаётся: вместо неё обходятся ячейки вложенной таблицы.
func (d *Docx) Cells(fn func(Cell) error) error {
	root := d.doc.Root()
	if root == nil {
		return nil
	}
	var cells []*docxCell
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, ch := range el.ChildElements() {
			if !isW(ch, "tbl") {
				walk(ch)
				continue
			}
			for _, tr := range wChildren(ch, "tr") {
				for _, tc := range wChildren(tr, "tc") {
					if !hasDescendant(tc, "tbl") {
						cells = append(cells, &docxCell{el: tc})
					}
					walk(tc)
				}
			}
		}
	}
	walk(root)

	for _, c := range cells {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// Save записывает архив: word/document.xml заменяется, остальные части копируются без изменений.
func (d *Docx) Save(path string) error {
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", docxMainPart, err)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, f := range d.zr.File {
			if f.Name == docxMainPart {
				fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
				if err != nil {
					return err
				}
				if _, err := fw.Write(data); err != nil {
					return err
				}
				continue
			}
			if err := copyZipEntry(zw, f); err != nil {
				return fmt.Errorf("копирование %s: %w", f.Name, err)
			}
		}
		return zw.Close()
	})
}

func copyZipEntry(zw *zip.Writer, f *zip.File) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method, Modified: f.Modified})
	if err != nil {
		return err
	}
	if strings.HasSuffix(f.Name, "/") {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(fw, rc)
	return err
}

// Close освобождает исходный архив.
func (d *Docx) Close() error { return d.zr.Close() }

// -----------------------------
// Ячейка
// -----------------------------

type docxCell struct {
	el *etree.Element
}

// Text — текст абзацев ячейки через перевод строки.
func (c *docxCell) Text() string {
	var paras []string
	for _, p := range wChildren(c.el, "p") {
		paras = append(paras, paragraphText(p))
	}
	return strings.Join(paras, "\n")
}

func paragraphText(p *etree.Element) string {
	var sb strings.Builder
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, ch := range el.ChildElements() {
			switch {
			case isW(ch, "pPr"), isW(ch, "rPr"):
				continue
			case isW(ch, "t"):
				sb.WriteString(ch.Text())
			case isW(ch, "tab"):
				sb.WriteByte('\t')
			case isW(ch, "br"), isW(ch, "cr"):
				sb.WriteByte('\n')
			default:
				walk(ch)
			}
		}
	}
	walk(p)
	return sb.String()
}

// SetText оставляет свойства ячейки (w:tcPr), а содержимое заменяет одним абзацем с одним прогоном.
// Свойства первого абзаца и первого прогона сохраняются.
func (c *docxCell) SetText(text, highlight string) error {
	var pPr, rPr *etree.Element
	if p := firstW(c.el, "p"); p != nil {
		if e := firstW(p, "pPr"); e != nil {
			pPr = e.Copy()
		}
		if r := firstRun(p); r != nil {
			if e := firstW(r, "rPr"); e != nil {
				rPr = e.Copy()
			}
		}
	}

	for _, ch := range c.el.ChildElements() {
		if isW(ch, "tcPr") {
			continue
		}
		c.el.RemoveChild(ch)
	}

	p := c.el.CreateElement("w:p")
	if pPr != nil {
		p.AddChild(pPr)
	}
	r := p.CreateElement("w:r")
	if rPr != nil {
		for _, hl := range wChildren(rPr, "highlight") {
			rPr.RemoveChild(hl)
		}
	}
	if highlight != "" {
		if rPr == nil {
			rPr = etree.NewElement("w:rPr")
		}
		insertHighlight(rPr, highlight)
	}
	if rPr != nil && len(rPr.ChildElements()) > 0 {
		r.AddChild(rPr)
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.CreateElement("w:br")
		}
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(line)
	}
	return nil
}

// элементы w:rPr, которые по схеме идут после w:highlight
var rPrAfterHighlight = map[string]struct{}{
	"u": {}, "effect": {}, "bdr": {}, "shd": {}, "fitText": {}, "vertAlign": {}, "rtl": {},
	"cs": {}, "em": {}, "lang": {}, "eastAsianLayout": {}, "specVanish": {}, "oMath": {}, "rPrChange": {},
}

func insertHighlight(rPr *etree.Element, color string) {
	hl := etree.NewElement("w:highlight")
	hl.CreateAttr("w:val", color)
	for i, tok := range rPr.Child {
		el, ok := tok.(*etree.Element)
		if !ok || !inW(el) {
			continue
		}
		if _, after := rPrAfterHighlight[el.Tag]; after {
			rPr.InsertChildAt(i, hl)
			return
		}
	}
	rPr.AddChild(hl)
}

// -----------------------------
// Помощники WordprocessingML
// -----------------------------

func isW(el *etree.Element, tag string) bool {
	return el.Tag == tag && inW(el)
}

func inW(el *etree.Element) bool {
	return el.Space == "w" || el.NamespaceURI() == wordNS
}

func wChildren(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, ch := range el.ChildElements() {
		if isW(ch, tag) {
			out = append(out, ch)
		}
	}
	return out
}

func firstW(el *etree.Element, tag string) *etree.Element {
	for _, ch := range el.ChildElements() {
		if isW(ch, tag) {
			return ch
		}
	}
	return nil
}

func hasDescendant(el *etree.Element, tag string) bool {
	for _, ch := range el.ChildElements() {
		if isW(ch, tag) || hasDescendant(ch, tag) {
			return true
		}
	}
	return false
}

// firstRun ищет первый прогон абзаца, в том числе внутри гиперссылок.
func firstRun(p *etree.Element) *etree.Element {
	for _, ch := range p.ChildElements() {
		if isW(ch, "pPr") {
			continue
		}
		if isW(ch, "r") {
			return ch
		}
		if r := firstRun(ch); r != nil {
			return r
		}
	}
	return nil
}
