// Package container opens and rewrites document containers: ZIP-backed
// OOXML archives and the PDF object tree. The part table is owned by the
// adapter; detectors hold read-only views and only the cleaner and applier
// mutate parts through this API.
package container

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qualion/clean/pkg/models"
	"github.com/zeebo/blake3"
)

var (
	// ErrInvalidContainer reports unreadable input: bad magic, truncated
	// archive, or an undecompressable member.
	ErrInvalidContainer = errors.New("invalid container")

	// ErrMissingPart reports a read of a part that does not exist.
	ErrMissingPart = errors.New("missing part")

	// ErrUnsupportedFormat reports a format outside the closed set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrPartParse reports an XML or structure parse failure for a single
	// part. Callers log and skip; the pipeline continues.
	ErrPartParse = errors.New("part parse failure")
)

// Document is an opened container. Exactly one of Archive or PDF is set,
// matching the format. The original bytes are retained for fingerprinting.
type Document struct {
	ID           string
	OriginalName string
	Format       models.Format

	Archive *Archive
	PDF     *PDF

	original []byte
}

// Open parses raw bytes into a Document for the given format.
func Open(data []byte, format models.Format, name string) (*Document, error) {
	doc := &Document{
		ID:           uuid.NewString(),
		OriginalName: name,
		Format:       format,
		original:     data,
	}

	switch format {
	case models.FormatDOCX, models.FormatPPTX, models.FormatXLSX:
		ar, err := OpenArchive(data, format)
		if err != nil {
			return nil, err
		}
		doc.Archive = ar
	case models.FormatPDF:
		p, err := OpenPDF(data)
		if err != nil {
			return nil, err
		}
		doc.PDF = p
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

// Fingerprint returns a stable content hash of the original bytes.
func (d *Document) Fingerprint() string {
	sum := blake3.Sum256(d.original)
	return hex.EncodeToString(sum[:16])
}

// Size returns the original byte length.
func (d *Document) Size() int {
	return len(d.original)
}

// ReadPart reads a named part. For PDF the logical part names are
// "info", "annots" and "embedded-files".
func (d *Document) ReadPart(path string) ([]byte, error) {
	if d.Archive != nil {
		return d.Archive.ReadPart(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, path)
}

// Save materializes the container from the in-memory state. Partial writes
// are impossible: the archive is rebuilt atomically.
func (d *Document) Save() ([]byte, error) {
	if d.Archive != nil {
		return d.Archive.Save()
	}
	if d.PDF != nil {
		return d.PDF.Save()
	}
	return nil, ErrUnsupportedFormat
}
