package docxtemplar_test

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docxtemplar"
)

// TestWorkbook — те же правила для книги Excel: шаблоны, обрезка, подсветка заливкой
func (s *DocxSuite) TestWorkbook() {
	s.data("a.txt", `{"unit": {"code": "U001", "state": "failed"}, "count": 3}`)

	tpl := filepath.Join(s.dir, "template.xlsx")
	f := excelize.NewFile()
	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "Код")
	_ = f.SetCellValue(sheet, "B1", "{{ unit.code }}")
	_ = f.SetCellValue(sheet, "A2", "Состояние")
	_ = f.SetCellValue(sheet, "B2", "{{ unit.state }}")
	_ = f.SetCellValue(sheet, "A3", 42)
	_ = f.SetCellValue(sheet, "B3", "{{ count * 2 }} шт.")
	_ = f.SetCellValue(sheet, "C3", "{{ absent }}")
	s.Require().NoError(f.SaveAs(tpl), "save template")

	out := filepath.Join(s.dir, "out.xlsx")
	rep, err := docxtemplar.Fill(tpl, out, s.dataDir, docxtemplar.Options{Logger: log.New(io.Discard)})
	s.Require().NoError(err)
	s.Assert().Equal(1, rep.Highlighted)
	s.Assert().Equal(1, rep.Unresolved)

	result, err := excelize.OpenFile(out)
	s.Require().NoError(err, "open result")
	defer result.Close()

	for addr, want := range map[string]string{
		"A1": "Код",
		"B1": "U001",
		"B2": "failed",
		"A3": "42",
		"B3": "6 шт.",
		"C3": "{{ absent }}",
	} {
		v, err := result.GetCellValue(sheet, addr)
		s.Require().NoError(err, addr)
		s.Assert().Equal(want, v, addr)
	}

	// число не превратилось в строку
	typ, err := result.GetCellType(sheet, "A3")
	s.Require().NoError(err)
	s.Assert().NotEqual(excelize.CellTypeSharedString, typ)
	s.Assert().NotEqual(excelize.CellTypeInlineString, typ)

	styleID, err := result.GetCellStyle(sheet, "B2")
	s.Require().NoError(err)
	style, err := result.GetStyle(styleID)
	s.Require().NoError(err)
	s.Assert().Equal("pattern", style.Fill.Type)
	s.Require().NotEmpty(style.Fill.Color)
	s.Assert().Contains(style.Fill.Color[0], "FFFF00")

	plainID, err := result.GetCellStyle(sheet, "B1")
	s.Require().NoError(err)
	s.Assert().NotEqual(styleID, plainID)
}

// TestWorkbookMissingFile — открытие несуществующей книги
func (s *DocxSuite) TestWorkbookMissingFile() {
	_, err := docxtemplar.OpenWorkbook(filepath.Join(s.dir, "none.xlsx"))
	s.Require().Error(err)
	_, statErr := os.Stat(filepath.Join(s.dir, "none.xlsx"))
	s.Assert().True(os.IsNotExist(statErr))
}
