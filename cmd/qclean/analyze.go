package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/qualion/clean/internal/output"
	"github.com/qualion/clean/internal/pipeline"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"scan"},
		Usage:     "Analyze documents for risks without modifying them",
		ArgsUsage: "[path...]",
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := discoverDocuments(c)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No supported documents found")
		return nil
	}

	log := newLogger(c.Bool("verbose"))
	defer func() { _ = log.Sync() }()
	p := pipeline.New(cfg, log)

	formatter, err := newFormatter(c, c.String("output"))
	if err != nil {
		return err
	}
	defer formatter.Close()

	for _, path := range files {
		data, format, err := readDocument(path)
		if err != nil {
			return err
		}
		analysis, err := p.Analyze(c.Context, data, format, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}

		switch formatter.Format() {
		case output.FormatJSON:
			_, jsonData, _, err := p.AnalyzeReport(analysis)
			if err != nil {
				return err
			}
			if err := formatter.WriteRaw(append(jsonData, '\n')); err != nil {
				return err
			}
			continue
		case output.FormatTOON:
			rep, _, _, err := p.AnalyzeReport(analysis)
			if err != nil {
				return err
			}
			if err := formatter.OutputTOON(rep); err != nil {
				return err
			}
			continue
		}

		if err := printAnalysis(formatter, path, analysis); err != nil {
			return err
		}
	}
	return nil
}
