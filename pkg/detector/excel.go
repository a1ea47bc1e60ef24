package detector

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/qualion/clean/pkg/container"
	"github.com/qualion/clean/pkg/extract"
	"github.com/qualion/clean/pkg/models"
)

// ExcelHiddenDetector reports hidden sheets, columns and rows in XLSX
// workbooks.
type ExcelHiddenDetector struct{}

func (d *ExcelHiddenDetector) Name() string { return "excelHidden" }

// SheetInfo describes one worksheet entry of xl/workbook.xml.
type SheetInfo struct {
	Name    string
	SheetID string
	RelID   string
	State   string // visible, hidden, veryHidden
}

// ParseSheets reads the workbook sheet list. Exported because the cleaner
// reuses it when removing hidden sheets.
func ParseSheets(ar *container.Archive) ([]SheetInfo, error) {
	data, err := ar.ReadPart("xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []SheetInfo
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: xl/workbook.xml: %v", container.ErrPartParse, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s SheetInfo
		s.State = "visible"
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				s.Name = attr.Value
			case "sheetId":
				s.SheetID = attr.Value
			case "id":
				s.RelID = attr.Value
			case "state":
				s.State = attr.Value
			}
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func (d *ExcelHiddenDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	ar := doc.Archive
	sheets, err := ParseSheets(ar)
	if err != nil {
		return nil, err
	}

	var findings []models.Finding
	for _, s := range sheets {
		if s.State == "hidden" || s.State == "veryHidden" {
			f := newFinding(models.CategoryHiddenSheets, s.State, models.SeverityHigh,
				"xl/workbook.xml", s.Name)
			findings = append(findings, f)
		}
	}

	worksheets := ar.ListParts("xl/worksheets/sheet*.xml")
	container.SortNumeric(worksheets)
	for _, part := range worksheets {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		cols, rows := countHiddenColsRows(data)
		if cols > 0 {
			findings = append(findings, newFinding(models.CategoryHiddenColumns, "hidden_columns",
				models.SeverityMedium, part, fmt.Sprintf("%d hidden columns", cols)))
		}
		if rows > 0 {
			findings = append(findings, newFinding(models.CategoryExcelHiddenData, "hidden_rows",
				models.SeverityMedium, part, fmt.Sprintf("%d hidden rows", rows)))
		}
	}
	return findings, nil
}

func countHiddenColsRows(data []byte) (cols, rows int) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		hidden := false
		for _, attr := range se.Attr {
			if attr.Name.Local == "hidden" && (attr.Value == "1" || attr.Value == "true") {
				hidden = true
			}
		}
		if !hidden {
			continue
		}
		switch se.Name.Local {
		case "col":
			cols++
		case "row":
			rows++
		}
	}
}

// formulaClass is one classification bucket for worksheet formulas.
type formulaClass struct {
	match    func(string) bool
	typ      string
	reason   string
	severity models.Severity
}

var formulaClasses = []formulaClass{
	{
		match:    func(f string) bool { return strings.Contains(f, "[") && strings.Contains(f, "]") },
		typ:      "external_reference",
		reason:   "External file reference",
		severity: models.SeverityHigh,
	},
	{
		match: func(f string) bool {
			u := strings.ToUpper(f)
			return strings.Contains(u, "SQL.") || strings.Contains(u, "SQLREQUEST") || strings.Contains(u, "ODBC")
		},
		typ:      "sql_connection",
		reason:   "SQL/ODBC connection",
		severity: models.SeverityHigh,
	},
	{
		match: func(f string) bool {
			u := strings.ToUpper(f)
			return strings.Contains(u, "WEBSERVICE") || strings.Contains(u, "FILTERXML")
		},
		typ:      "web_call",
		reason:   "Web service call",
		severity: models.SeverityHigh,
	},
	{
		match: func(f string) bool {
			return strings.Contains(f, `C:\`) || strings.Contains(f, "/Users/")
		},
		typ:      "local_path",
		reason:   "Local file path",
		severity: models.SeverityMedium,
	},
	{
		match: func(f string) bool {
			u := strings.ToUpper(f)
			return strings.Contains(u, "INDIRECT(") || strings.Contains(u, "OFFSET(")
		},
		typ:      "dynamic_reference",
		reason:   "Dynamic reference",
		severity: models.SeverityLow,
	},
}

// FormulasDetector classifies worksheet formulas that reach outside the
// workbook or hide their targets.
type FormulasDetector struct{}

func (d *FormulasDetector) Name() string { return "sensitiveFormulas" }

func (d *FormulasDetector) Detect(doc *container.Document, _ *extract.Projection) ([]models.Finding, error) {
	ar := doc.Archive
	var findings []models.Finding

	worksheets := ar.ListParts("xl/worksheets/sheet*.xml")
	container.SortNumeric(worksheets)
	for _, part := range worksheets {
		data, err := ar.ReadPart(part)
		if err != nil {
			continue
		}
		for cell, formula := range cellFormulas(data) {
			for _, class := range formulaClasses {
				if !class.match(formula) {
					continue
				}
				f := newFinding(models.CategorySensitiveFormulas, class.typ, class.severity,
					fmt.Sprintf("%s!%s", part, cell), formula)
				f.Evidence = class.reason
				findings = append(findings, f)
				break
			}
		}
	}
	return findings, nil
}

// cellFormulas maps cell references to their formula text for one worksheet.
func cellFormulas(data []byte) map[string]string {
	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	var cellRef string
	var inFormula bool
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "c":
				for _, attr := range t.Attr {
					if attr.Name.Local == "r" {
						cellRef = attr.Value
					}
				}
			case "f":
				inFormula = true
				text.Reset()
			}
		case xml.CharData:
			if inFormula {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "f" && inFormula {
				inFormula = false
				if formula := text.String(); formula != "" {
					ref := cellRef
					if ref == "" {
						ref = fmt.Sprintf("f%d", len(out)+1)
					}
					out[ref] = formula
				}
			}
		}
	}
}
