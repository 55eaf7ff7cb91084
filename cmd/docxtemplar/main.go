package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikitaxru/docxtemplar"
)

const (
	cmdName     = "docxtemplar"
	cmdDesc     = `Заполняет таблицы документа значениями из файлов данных.`
	cmdExamples = `  # заполнить отчёт данными из каталога прогона
  docxtemplar report_template.docx report.docx ./data/2025-09-12

  # данные в .json и .txt, предупреждать о неразрешённых ячейках
  docxtemplar tpl.docx out.docx ./data --ext .json --ext .txt --warn-unresolved`
)

type rootArgs struct {
	ConfigPath     string
	Extensions     []string
	Highlight      []string
	HighlightColor string
	WarnUnresolved bool
	LogLevel       string
}

func (ra *rootArgs) addFlags(cmd *cobra.Command) {
	def := docxtemplar.DefaultConfig()
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "YAML-файл настроек")
	cmd.Flags().StringSliceVar(&ra.Extensions, "ext", def.Extensions, "расширения файлов данных")
	cmd.Flags().StringSliceVar(&ra.Highlight, "highlight", def.Highlight, "слова статуса для подсветки")
	cmd.Flags().StringVar(&ra.HighlightColor, "highlight-color", def.HighlightColor, "цвет подсветки")
	cmd.Flags().BoolVar(&ra.WarnUnresolved, "warn-unresolved", false, "предупреждать о ячейках без подходящей записи")
	cmd.Flags().StringVar(&ra.LogLevel, "log-level", def.LogLevel, "уровень логирования: debug, info, warn, error")
}

// config собирает настройки: значения по умолчанию, затем файл, затем явно заданные флаги.
func (ra *rootArgs) config(cmd *cobra.Command) (docxtemplar.Config, error) {
	cfg := docxtemplar.DefaultConfig()
	if ra.ConfigPath != "" {
		var err error
		if cfg, err = docxtemplar.LoadConfig(ra.ConfigPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("ext") {
		cfg.Extensions = ra.Extensions
	}
	if flags.Changed("highlight") {
		cfg.Highlight = ra.Highlight
	}
	if flags.Changed("highlight-color") {
		cfg.HighlightColor = ra.HighlightColor
	}
	if flags.Changed("warn-unresolved") {
		cfg.WarnUnresolved = ra.WarnUnresolved
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = ra.LogLevel
	}
	return cfg, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	args := &rootArgs{}
	cmd := &cobra.Command{
		Use:     cmdName + " <template> <output> <data-dir>",
		Short:   cmdDesc,
		Example: cmdExamples,
		Args: func(_ *cobra.Command, posArgs []string) error {
			if len(posArgs) != 3 {
				return fmt.Errorf("нужно 3 аргумента: <template> <output> <data-dir>, получено %d", len(posArgs))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			cmd.SilenceUsage = true
			cfg, err := args.config(cmd)
			if err != nil {
				return err
			}
			logger, err := docxtemplar.NewLogger(stderr, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log-level: %w", err)
			}
			templatePath, outputPath, dataDir := posArgs[0], posArgs[1], posArgs[2]
			if _, err := docxtemplar.Fill(templatePath, outputPath, dataDir, cfg.Options(logger)); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Saved filled document to: %s\n", outputPath)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	args.addFlags(cmd)
	return cmd
}

func run(argv []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	if argv == nil {
		// cobra подставляет os.Args при nil
		argv = []string{}
	}
	cmd.SetArgs(argv)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
