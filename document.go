package docxtemplar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedDocument — расширение документа не поддерживается.
var ErrUnsupportedDocument = errors.New("неподдерживаемый формат документа")

// Cell — ячейка таблицы документа.
type Cell interface {
	Text() string
	// SetText заменяет содержимое ячейки. highlight — имя цвета подсветки или "" без подсветки.
	SetText(text, highlight string) error
}

// Document — документ с таблицами: .docx или .xlsx.
type Document interface {
	// Cells вызывает fn для каждой ячейки каждой таблицы в порядке документа.
	Cells(fn func(Cell) error) error
	Save(path string) error
	Close() error
}

// OpenDocument открывает документ, выбирая реализацию по расширению.
func OpenDocument(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".docm", ".dotx":
		return OpenDocx(path)
	case ".xlsx", ".xlsm":
		return OpenWorkbook(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, path)
	}
}

// writeFileAtomic пишет во временный файл рядом с path и переименовывает его,
// чтобы при ошибке не оставалось частично записанного результата.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
