package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/qualion/clean/internal/output"
	"github.com/qualion/clean/internal/pipeline"
	"github.com/qualion/clean/pkg/config"
	"github.com/qualion/clean/pkg/models"
	"github.com/qualion/clean/pkg/report"
)

func cleanCmd() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "Sanitize documents and package cleaned output with reports",
		ArgsUsage: "[path...]",
		Flags: append(cleanFlags(),
			&cli.BoolFlag{
				Name:  "correct-spelling",
				Usage: "Apply detected spelling corrections to the document text",
			},
		),
		Action: runCleanCmd,
	}
}

func runCleanCmd(c *cli.Context) error {
	return runCleanFlow(c, false)
}

// runCleanFlow drives the clean and rephrase commands; rephrase forces
// spelling correction on.
func runCleanFlow(c *cli.Context, rephrase bool) error {
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

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), "", true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	req := pipeline.CleanRequest{
		Options:          cleanOptions(c, cfg),
		CorrectSpelling:  correctSpelling(c, cfg, rephrase),
		ApprovedSpelling: c.StringSlice("approve"),
		RedactFindingIDs: c.StringSlice("redact"),

		HiddenContentToClean: c.StringSlice("clean-hidden"),
		VisualObjectsToClean: c.StringSlice("clean-visuals"),
		PDFToDocx:            pdfToDocx(c, cfg),
	}

	multi := len(files) > 1
	var entries []report.Entry
	var rows [][]string

	for _, path := range files {
		data, format, err := readDocument(path)
		if err != nil {
			return err
		}
		var result *pipeline.CleanResult
		if rephrase {
			result, err = p.Rephrase(c.Context, data, format, filepath.Base(path), req)
		} else {
			result, err = p.Clean(c.Context, data, format, filepath.Base(path), req)
		}
		if err != nil {
			return fmt.Errorf("clean %s: %w", path, err)
		}

		cleanedName, htmlName, jsonName := report.OutputNames(filepath.Base(path), string(format), multi)
		entries = append(entries,
			report.Entry{Name: cleanedName, Data: result.Cleaned},
			report.Entry{Name: htmlName, Data: result.HTML},
			report.Entry{Name: jsonName, Data: result.JSON},
		)
		if result.ConvertedDOCX != nil {
			base := strings.TrimSuffix(cleanedName, filepath.Ext(cleanedName))
			entries = append(entries, report.Entry{Name: base + ".docx", Data: result.ConvertedDOCX})
		}

		rows = append(rows, []string{
			filepath.Base(path),
			fmt.Sprintf("%d", result.Analysis.Summary.RiskScore),
			fmt.Sprintf("%d", result.ScoreAfter),
			fmt.Sprintf("%d", result.Cleaning.MetadataRemoved),
			fmt.Sprintf("%d", result.Cleaning.CommentsRemoved),
			fmt.Sprintf("%d", result.Cleaning.MacrosRemoved),
			fmt.Sprintf("%d", result.Correction.Applied),
			output.SeverityColor(businessColorKey(worstBusinessLevel(result.Report.BusinessRisk)), result.Report.BusinessRisk.ClientReady),
		})
	}

	outPath := archivePath(c, files)
	archive, err := report.BuildArchive(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, archive, 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", outPath, err)
	}

	if formatter.Format() == output.FormatText {
		table := output.NewTable(
			"Cleaning Summary",
			[]string{"Document", "Score", "After", "Metadata", "Comments", "Macros", "Corrections", "Client Ready"},
			rows,
			nil,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
		formatter.Success("Wrote %s (%d documents)", outPath, len(files))
	}
	return nil
}

func pdfToDocx(c *cli.Context, cfg *config.Config) bool {
	if c.IsSet("pdf-docx") {
		return c.Bool("pdf-docx")
	}
	return cfg.Clean.PDFDocx
}

func correctSpelling(c *cli.Context, cfg *config.Config, rephrase bool) bool {
	if rephrase {
		return true
	}
	if c.IsSet("correct-spelling") {
		return c.Bool("correct-spelling")
	}
	return cfg.Clean.CorrectSpelling
}

// archivePath derives the output archive name: the flag when given,
// otherwise the single document's base name or a generic name.
func archivePath(c *cli.Context, files []string) string {
	if out := c.String("output"); out != "" {
		return out
	}
	if len(files) == 1 {
		base := strings.TrimSuffix(filepath.Base(files[0]), filepath.Ext(files[0]))
		return base + "_cleaned.zip"
	}
	return "qclean_output.zip"
}

func worstBusinessLevel(risk models.BusinessRisk) models.BusinessLevel {
	worst := models.LevelNone
	for _, l := range risk.Levels {
		worst = models.MaxLevel(worst, l)
	}
	return worst
}
