package report

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Entry is one file of the output archive.
type Entry struct {
	Name string
	Data []byte
}

// BuildArchive packages cleaned binaries and reports into a single
// deflate ZIP.
func BuildArchive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("archive entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("archive entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// OutputNames returns the archive entry names for one document. Single
// documents use the plain names; multi-document archives prefix each
// entry with the document's base name.
func OutputNames(originalName, ext string, multi bool) (cleaned, htmlName, jsonName string) {
	cleaned = "cleaned." + ext
	htmlName = "report.html"
	jsonName = "report.json"
	if multi {
		base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
		cleaned = base + "_" + cleaned
		htmlName = base + "_" + htmlName
		jsonName = base + "_" + jsonName
	}
	return cleaned, htmlName, jsonName
}
