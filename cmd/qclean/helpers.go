package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/qualion/clean/internal/output"
	"github.com/qualion/clean/internal/pipeline"
	"github.com/qualion/clean/internal/scanner"
	"github.com/qualion/clean/pkg/cleaner"
	"github.com/qualion/clean/pkg/config"
	"github.com/qualion/clean/pkg/models"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newFormatter(c *cli.Context, outputPath string) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), outputPath, true)
}

// discoverDocuments expands CLI args into supported document paths.
func discoverDocuments(c *cli.Context) ([]string, error) {
	files, err := scanner.New().ScanPaths(getPaths(c))
	if err != nil {
		return nil, err
	}
	return files, nil
}

// readDocument loads one document and derives its format.
func readDocument(path string) ([]byte, models.Format, error) {
	format, err := models.FormatForPath(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, format, nil
}

// cleanOptions builds cleaner options from config defaults with any
// explicitly set flags overriding them.
func cleanOptions(c *cli.Context, cfg *config.Config) cleaner.Options {
	opts := cleaner.Options{
		RemoveMetadata:        cfg.Clean.RemoveMetadata,
		RemoveComments:        cfg.Clean.RemoveComments,
		AcceptTrackChanges:    cfg.Clean.AcceptTrackChanges,
		RemoveHiddenContent:   cfg.Clean.RemoveHiddenContent,
		RemoveEmbeddedObjects: cfg.Clean.RemoveEmbeddedObjects,
		RemoveMacros:          cfg.Clean.RemoveMacros,
		FormulasToValues:      cfg.Clean.FormulasToValues,
		DrawPolicy:            cfg.Clean.DrawPolicy,
		PDFMode:               cfg.Clean.PDFMode,
	}
	override := func(flag string, dst *bool) {
		if c.IsSet(flag) {
			*dst = c.Bool(flag)
		}
	}
	override("remove-metadata", &opts.RemoveMetadata)
	override("remove-comments", &opts.RemoveComments)
	override("accept-track-changes", &opts.AcceptTrackChanges)
	override("remove-hidden", &opts.RemoveHiddenContent)
	override("remove-embedded", &opts.RemoveEmbeddedObjects)
	override("remove-macros", &opts.RemoveMacros)
	override("formulas-to-values", &opts.FormulasToValues)
	if c.IsSet("draw-policy") {
		opts.DrawPolicy = c.String("draw-policy")
	}
	if c.IsSet("pdf-mode") {
		opts.PDFMode = c.String("pdf-mode")
	}
	return opts
}

// cleanFlags are shared between clean and rephrase.
func cleanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "remove-metadata", Usage: "Remove document properties and custom metadata"},
		&cli.BoolFlag{Name: "remove-comments", Usage: "Remove comments and speaker notes"},
		&cli.BoolFlag{Name: "accept-track-changes", Usage: "Accept all tracked changes"},
		&cli.BoolFlag{Name: "remove-hidden", Usage: "Remove hidden text, sheets and slides"},
		&cli.BoolFlag{Name: "remove-embedded", Usage: "Remove embedded objects and OLE payloads"},
		&cli.BoolFlag{Name: "remove-macros", Usage: "Remove VBA macro storage"},
		&cli.BoolFlag{Name: "formulas-to-values", Usage: "Replace spreadsheet formulas with cached values"},
		&cli.StringFlag{Name: "draw-policy", Usage: "Drawing removal policy: none, auto, all"},
		&cli.StringFlag{Name: "pdf-mode", Usage: "PDF cleaning mode: sanitize, text-only"},
		&cli.BoolFlag{Name: "pdf-docx", Usage: "Also emit the cleaned PDF's text as a DOCX"},
		&cli.StringSliceFlag{Name: "redact", Usage: "Finding IDs of sensitive values to redact"},
		&cli.StringSliceFlag{Name: "approve", Usage: "Spelling issue IDs to apply (default: all)"},
		&cli.StringSliceFlag{Name: "clean-hidden", Usage: "Hidden content finding IDs to clean (default: all parts)"},
		&cli.StringSliceFlag{Name: "clean-visuals", Usage: "Visual object finding IDs whose masking shapes to remove"},
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// findingRows converts findings to table rows with colored severities.
func findingRows(findings []models.Finding) [][]string {
	var rows [][]string
	for _, f := range findings {
		rows = append(rows, []string{
			string(f.Category),
			f.Type,
			output.SeverityColor(string(f.Severity), string(f.Severity)),
			f.Location,
			truncate(f.Value, 50),
		})
	}
	return rows
}

// printAnalysis renders the findings table, business risk and summary
// for one document.
func printAnalysis(formatter *output.Formatter, path string, analysis *pipeline.Analysis) error {
	table := output.NewTable(
		fmt.Sprintf("Findings: %s", filepath.Base(path)),
		[]string{"Category", "Type", "Severity", "Location", "Value"},
		findingRows(analysis.Findings),
		[]string{
			fmt.Sprintf("Total: %d", analysis.Summary.TotalIssues),
			"",
			fmt.Sprintf("Critical: %d High: %d", analysis.Summary.Critical, analysis.Summary.High),
			fmt.Sprintf("Score: %d/100 (%s)", analysis.Summary.RiskScore, analysis.Summary.RiskLevel),
			"",
		},
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if len(analysis.Business.Flags) > 0 {
		var rows [][]string
		for _, flag := range analysis.Business.Flags {
			rows = append(rows, []string{
				string(flag.Category),
				output.SeverityColor(businessColorKey(flag.Level), string(flag.Level)),
				truncate(flag.Reason, 60),
			})
		}
		table := output.NewTable(
			"Business Risk",
			[]string{"Category", "Level", "Reason"},
			rows,
			[]string{
				fmt.Sprintf("Score: %d/100", analysis.Business.Score),
				fmt.Sprintf("Client ready: %s", analysis.Business.ClientReady),
				"",
			},
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	}

	if analysis.Degraded {
		formatter.Warning("Remote proofreading unavailable; spelling results are prefilter-only")
	}
	return nil
}

// businessColorKey maps business risk levels onto severity color names.
func businessColorKey(level models.BusinessLevel) string {
	switch level {
	case models.LevelCritical, models.LevelHigh:
		return "high"
	case models.LevelMedium:
		return "medium"
	default:
		return "low"
	}
}
