package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/qualion/clean/pkg/models"
)

// contentTypesPart must exist in every well-formed OOXML archive.
const contentTypesPart = "[Content_Types].xml"

// Archive is the in-memory part table of an OOXML container. All members
// are read eagerly at open so that Save never depends on the input stream.
// Writes are buffered in the table until Save.
type Archive struct {
	Format models.Format

	parts map[string][]byte
	order []string // original member order; new parts appended
}

// OpenArchive parses a ZIP-backed OOXML container.
func OpenArchive(data []byte, format models.Format) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	ar := &Archive{
		Format: format,
		parts:  make(map[string][]byte, len(zr.File)),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrInvalidContainer, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidContainer, f.Name, err)
		}
		if _, dup := ar.parts[f.Name]; !dup {
			ar.order = append(ar.order, f.Name)
		}
		ar.parts[f.Name] = content
	}

	if _, ok := ar.parts[contentTypesPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidContainer, contentTypesPart)
	}
	return ar, nil
}

// HasPart reports whether a part exists.
func (a *Archive) HasPart(name string) bool {
	_, ok := a.parts[name]
	return ok
}

// ReadPart returns the current content of a part.
func (a *Archive) ReadPart(name string) ([]byte, error) {
	content, ok := a.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	return content, nil
}

// WritePart replaces or creates a part. The change is buffered until Save.
func (a *Archive) WritePart(name string, content []byte) {
	if _, ok := a.parts[name]; !ok {
		a.order = append(a.order, name)
	}
	a.parts[name] = content
}

// RemovePart deletes a part. Removing a missing part is a no-op.
func (a *Archive) RemovePart(name string) {
	if _, ok := a.parts[name]; !ok {
		return
	}
	delete(a.parts, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// ListParts returns part names matching a path glob, in archive order.
// The pattern follows path.Match semantics per segment, so "*/embeddings/*"
// matches "word/embeddings/oleObject1.bin".
func (a *Archive) ListParts(pattern string) []string {
	var out []string
	for _, name := range a.order {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			out = append(out, name)
		}
	}
	return out
}

// PartNames returns all part names in archive order.
func (a *Archive) PartNames() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// PartCount returns the number of parts currently in the table.
func (a *Archive) PartCount() int {
	return len(a.parts)
}

// Save rebuilds a deflate ZIP from the part table. Surviving parts keep
// their original order so repeated cleaning produces identical archives
// modulo ZIP metadata.
func (a *Archive) Save() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range a.order {
		content, ok := a.parts[name]
		if !ok {
			continue
		}
		header := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		header.SetMode(0644)
		w, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		if _, err := w.Write(content); err != nil {
			zw.Close()
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SortNumeric orders part names by their trailing numeric suffix, so
// slide2.xml sorts before slide10.xml. Names without a suffix keep
// lexical order.
func SortNumeric(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		bi, ni := splitNumericSuffix(names[i])
		bj, nj := splitNumericSuffix(names[j])
		if bi != bj {
			return bi < bj
		}
		return ni < nj
	})
}

func splitNumericSuffix(name string) (string, int) {
	base := name
	if ext := path.Ext(name); ext != "" {
		base = name[:len(name)-len(ext)]
	}
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return base, 0
	}
	n := 0
	for _, c := range base[i:] {
		n = n*10 + int(c-'0')
	}
	return base[:i], n
}
