package docxtemplar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrDirectoryNotFound возвращается, если каталог с данными нельзя прочитать.
var ErrDirectoryNotFound = errors.New("каталог с данными не найден")

// DefaultExtensions — расширения файлов данных по умолчанию (JSON в .txt).
var DefaultExtensions = []string{".txt"}

// Record — один разобранный файл данных.
type Record struct {
	Name string
	Data Value
}

// Pool — упорядоченный набор записей одного запуска. Порядок определяет приоритет при разрешении.
type Pool []Record

// SkippedFile описывает файл, который не удалось разобрать.
type SkippedFile struct {
	Name string
	Err  error
}

// LoadResult — результат загрузки каталога.
type LoadResult struct {
	Records Pool
	Skipped []SkippedFile
}

type loaderConfig struct {
	extensions []string
	logger     *log.Logger
}

// LoaderOption настраивает LoadRecords.
type LoaderOption func(*loaderConfig)

// WithExtensions задаёт расширения файлов данных (регистр не важен, точка необязательна).
func WithExtensions(exts ...string) LoaderOption {
	return func(c *loaderConfig) {
		c.extensions = normalizeExtensions(exts)
	}
}

// WithLoaderLogger задаёт логгер для диагностики пропущенных файлов.
func WithLoaderLogger(l *log.Logger) LoaderOption {
	return func(c *loaderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// LoadRecords читает все файлы данных из dir в лексикографическом порядке имён.
// Некорректные файлы пропускаются с предупреждением и попадают в LoadResult.Skipped.
func LoadRecords(dir string, opts ...LoaderOption) (*LoadResult, error) {
	cfg := loaderConfig{extensions: DefaultExtensions, logger: log.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, dir, err)
	}
	// os.ReadDir уже сортирует по имени, но порядок здесь часть контракта
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	res := &LoadResult{}
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name(), cfg.extensions) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			cfg.logger.Warn("⚠️ Не удалось прочитать файл данных", "file", e.Name(), "err", err)
			res.Skipped = append(res.Skipped, SkippedFile{Name: e.Name(), Err: err})
			continue
		}
		v, err := decodeRecord(e.Name(), data)
		if err != nil {
			cfg.logger.Warn("⚠️ Некорректный файл данных", "file", e.Name(), "err", err)
			res.Skipped = append(res.Skipped, SkippedFile{Name: e.Name(), Err: err})
			continue
		}
		cfg.logger.Debug("запись загружена", "file", e.Name(), "keys", len(v.Keys()))
		res.Records = append(res.Records, Record{Name: e.Name(), Data: v})
	}
	return res, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
