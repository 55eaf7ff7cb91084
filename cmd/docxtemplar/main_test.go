package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRun_MissingArguments(t *testing.T) {
	for _, argv := range [][]string{nil, {"tpl.docx"}, {"tpl.docx", "out.docx"}} {
		var stdout, stderr bytes.Buffer
		code := run(argv, &stdout, &stderr)
		assert.Equal(t, 1, code, argv)
		assert.Contains(t, stdout.String(), "Usage:", argv)
		assert.Contains(t, stdout.String(), "<template> <output> <data-dir>", argv)
		assert.Contains(t, stderr.String(), "нужно 3 аргумента", argv)
	}
}

func TestRun_FillsWorkbook(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "a.json"), []byte(`{"status": "ok"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "b.txt"), []byte(`{"status": "error"}`), 0o644))

	tpl := filepath.Join(dir, "tpl.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "{{ status }}"))
	require.NoError(t, f.SaveAs(tpl))

	out := filepath.Join(dir, "out.xlsx")
	var stdout, stderr bytes.Buffer
	code := run([]string{tpl, out, dataDir, "--ext", "json", "--log-level", "error"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Saved filled document to: "+out)

	result, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer result.Close()
	v, err := result.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestRun_ConfigAndFailures(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{filepath.Join(dir, "tpl.docx"), filepath.Join(dir, "out.docx"), filepath.Join(dir, "none"), "--config", cfgPath}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.NotContains(t, stdout.String(), "Usage:", "runtime failure prints no usage")
	assert.NoFileExists(t, filepath.Join(dir, "out.docx"))

	stdout.Reset()
	stderr.Reset()
	code = run([]string{"a", "b", "c", "--log-level", "loud"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
