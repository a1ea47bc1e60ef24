package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported document container format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// IsOOXML reports whether the format is a ZIP-backed Office Open XML container.
func (f Format) IsOOXML() bool {
	return f == FormatDOCX || f == FormatPPTX || f == FormatXLSX
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormat converts a string or file name to a Format.
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimPrefix(s, "."))
	switch Format(v) {
	case FormatDOCX, FormatPPTX, FormatXLSX, FormatPDF:
		return Format(v), nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// FormatForPath derives the format from a file path's extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}
