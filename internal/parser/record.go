// Package parser turns uploaded plot files into a uniform row-record list
// before they are sent to the ingestion endpoint.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the lower-cased file extension that selects a decoder.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatGeoJSON Format = "geojson"
)

// compressedSuffix marks an upload that must be decompressed before parsing.
const compressedSuffix = ".xz"

// ErrUnsupportedFormat is returned for unknown extensions and for empty or
// unreadable files. Callers must not contact the server when they see it.
var ErrUnsupportedFormat = errors.New("invalid file format or file is empty")

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatXLS, FormatGeoJSON}
}

// UploadRecord is a parsed file ready for submission.
type UploadRecord struct {
	// FileName is the base name up to its first dot ("farms.2024.csv" -> "farms").
	FileName string
	Format   Format

	// Content is what gets uploaded: the original bytes, decompressed if the
	// file arrived as .xz.
	Content []byte

	// Header holds column order for tabular formats; nil for geojson.
	Header []string

	// Rows maps header -> cell for tabular formats. For geojson each row is
	// a decoded top-level object.
	Rows []map[string]any
}

// Table returns tabular rows as arrays with the header first, the layout a
// spreadsheet reader produces. Geojson records have no table form.
func (r *UploadRecord) Table() [][]any {
	if r.Header == nil {
		return nil
	}
	out := make([][]any, 0, len(r.Rows)+1)
	header := make([]any, len(r.Header))
	for i, h := range r.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range r.Rows {
		cells := make([]any, len(r.Header))
		for i, h := range r.Header {
			cells[i] = row[h]
		}
		out = append(out, cells)
	}
	return out
}

// UploadName is the name the file is sent under ("farms.csv").
func (r *UploadRecord) UploadName() string {
	return r.FileName + "." + string(r.Format)
}

// SplitName derives the upload base name and format from a file name.
// compressed reports a trailing .xz, which is not part of the format.
func SplitName(name string) (base string, format Format, compressed bool) {
	name = filepath.Base(name)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, compressedSuffix) {
		compressed = true
		name = name[:len(name)-len(compressedSuffix)]
		lower = lower[:len(lower)-len(compressedSuffix)]
	}

	base, _, _ = strings.Cut(name, ".")
	if i := strings.LastIndex(lower, "."); i >= 0 {
		format = Format(lower[i+1:])
	}
	return base, format, compressed
}

// Supported reports whether a format has a decoder.
func Supported(f Format) bool {
	_, ok := decoders[f]
	return ok
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*UploadRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnsupportedFormat, path, err)
	}
	return Parse(filepath.Base(path), content)
}

// Parse dispatches content to the decoder selected by name's extension.
func Parse(name string, content []byte) (*UploadRecord, error) {
	base, format, compressed := SplitName(name)

	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrUnsupportedFormat, format)
	}

	if compressed {
		var err error
		if content, err = decompress(content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
	}

	if isBlank(content) {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnsupportedFormat, name)
	}

	header, rows, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no records", ErrUnsupportedFormat, name)
	}

	return &UploadRecord{
		FileName: base,
		Format:   format,
		Content:  content,
		Header:   header,
		Rows:     rows,
	}, nil
}

type decoder func(content []byte) (header []string, rows []map[string]any, err error)

var decoders = map[Format]decoder{
	FormatCSV:     decodeCSV,
	FormatXLSX:    decodeXLSX,
	FormatXLS:     decodeXLS,
	FormatGeoJSON: decodeGeoJSON,
}

func isBlank(content []byte) bool {
	for _, b := range content {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
