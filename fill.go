package docxtemplar

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultHighlightColor — цвет подсветки слов статуса.
const DefaultHighlightColor = "yellow"

// Options настраивает заполнение документа. Нулевые поля заменяются значениями по умолчанию.
type Options struct {
	Extensions     []string
	Sentinels      []string
	HighlightColor string
	WarnUnresolved bool
	Logger         *log.Logger
}

// Filler применяет разрешение шаблонов и подсветку к ячейкам документа.
type Filler struct {
	resolver  *Resolver
	sentinels []string
	color     string
	logger    *log.Logger
}

// NewFiller создаёт Filler из опций.
func NewFiller(opts Options) *Filler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	sentinels := opts.Sentinels
	if sentinels == nil {
		sentinels = DefaultSentinels
	}
	color := opts.HighlightColor
	if color == "" {
		color = DefaultHighlightColor
	}
	return &Filler{
		resolver:  &Resolver{Logger: logger, WarnUnresolved: opts.WarnUnresolved},
		sentinels: sentinels,
		color:     color,
		logger:    logger,
	}
}

// Report — сводка одного запуска.
type Report struct {
	Records     int
	Skipped     int
	Cells       int
	Templates   int
	Resolved    int
	Unresolved  int
	Highlighted int
	Duration    time.Duration
}

// FillDocument обрабатывает все ячейки doc по очереди, используя один и тот же пул.
func (f *Filler) FillDocument(doc Document, pool Pool) (Report, error) {
	var rep Report
	err := doc.Cells(func(c Cell) error {
		rep.Cells++
		res := f.TransformCell(c.Text(), pool)
		if res.Template {
			rep.Templates++
			if res.Resolved {
				rep.Resolved++
			} else {
				rep.Unresolved++
			}
		}
		var hl string
		if res.Highlight {
			hl = f.color
			rep.Highlighted++
		}
		if !res.Changed && hl == "" {
			return nil
		}
		return c.SetText(res.Text, hl)
	})
	return rep, err
}

// Fill загружает записи из dataDir, заполняет шаблон templatePath и сохраняет результат в outputPath.
// Ошибки чтения каталога, открытия шаблона и записи результата возвращаются; вывод при этом не создаётся.
func Fill(templatePath, outputPath, dataDir string, opts Options) (*Report, error) {
	f := NewFiller(opts)
	logger := f.logger

	logger.Info("📊 Начинаем заполнение документа", "template", templatePath, "output", outputPath, "data", dataDir)
	startTime := time.Now()

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	loaded, err := LoadRecords(dataDir, WithExtensions(exts...), WithLoaderLogger(logger))
	if err != nil {
		logger.Error("❌ Ошибка загрузки данных", "err", err)
		return nil, err
	}
	logger.Info("✅ Данные загружены", "records", len(loaded.Records), "skipped", len(loaded.Skipped))

	doc, err := OpenDocument(templatePath)
	if err != nil {
		logger.Error("❌ Ошибка открытия шаблона", "err", err)
		return nil, err
	}
	defer doc.Close()

	logger.Info("🔄 Заполнение таблиц...")
	rep, err := f.FillDocument(doc, loaded.Records)
	if err != nil {
		logger.Error("❌ Ошибка заполнения", "err", err)
		return nil, fmt.Errorf("заполнение %s: %w", templatePath, err)
	}
	rep.Records = len(loaded.Records)
	rep.Skipped = len(loaded.Skipped)

	logger.Info("💾 Сохранение файла...")
	if err := doc.Save(outputPath); err != nil {
		logger.Error("❌ Ошибка сохранения", "err", err)
		return nil, fmt.Errorf("сохранение %s: %w", outputPath, err)
	}

	rep.Duration = time.Since(startTime)
	logger.Info("✅ Документ заполнен",
		"cells", rep.Cells,
		"resolved", rep.Resolved,
		"unresolved", rep.Unresolved,
		"highlighted", rep.Highlighted,
		"duration", rep.Duration,
	)
	return &rep, nil
}
