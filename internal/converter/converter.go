package converter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/datasweeper/internal/types"
)

// Format is one of the two supported serializations.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatCSV, FormatXLSX}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the media type used when the encoded bytes are delivered.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return ContentTypeCSV
	case FormatXLSX:
		return ContentTypeXLSX
	}
	return ""
}

// Label is the human name shown in shells.
func (f Format) Label() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatXLSX:
		return "Excel"
	}
	return string(f)
}

func (f Format) valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// FormatFromFileName determines the format from a file name's extension.
func FormatFromFileName(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// ParseFormat accepts a target format name as typed by a user.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", ".csv":
		return FormatCSV, nil
	case "xlsx", ".xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", &UnsupportedFormatError{Ext: s}
	}
}

// Decode parses raw file bytes into a table, choosing the format by extension.
func Decode(data []byte, fileName string) (*types.Table, error) {
	format, err := FormatFromFileName(fileName)
	if err != nil {
		return nil, err
	}

	var tbl *types.Table
	switch format {
	case FormatCSV:
		tbl, err = decodeCSV(data)
	case FormatXLSX:
		tbl, err = decodeXLSX(data)
	}
	if err != nil {
		return nil, &DecodeError{File: fileName, Format: format, Err: err}
	}

	return tbl, nil
}

// ReadFile reads a file from disk and decodes it.
func ReadFile(filePath string) (*types.Table, error) {
	if _, err := FormatFromFileName(filePath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return Decode(data, filepath.Base(filePath))
}

// Encode serializes a table to the target format. The suggested output name is
// sourceName with its extension replaced.
func Encode(tbl *types.Table, target Format, sourceName string) (*types.ConversionResult, error) {
	if !target.valid() {
		return nil, &UnsupportedFormatError{Ext: string(target)}
	}

	var (
		data []byte
		err  error
	)
	switch target {
	case FormatCSV:
		data, err = encodeCSV(tbl)
	case FormatXLSX:
		data, err = encodeXLSX(tbl)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}

	return &types.ConversionResult{
		InputFile:   sourceName,
		OutputFile:  SuggestedFileName(sourceName, target),
		ContentType: target.ContentType(),
		Columns:     tbl.Names(),
		Rows:        tbl.NumRows(),
		Data:        data,
	}, nil
}

// SuggestedFileName replaces the final extension of name with the target's.
func SuggestedFileName(name string, target Format) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + target.Extension()
}

// parseNumber reports whether s reads as a finite-or-infinite float.
// NaN spellings are rejected so they never enter a numeric column.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) {
		return 0, false
	}

	return val, true
}

// normalizeHeaders fills empty names and suffixes repeats so every name is unique.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for _, h := range raw {
		used[h] = true
	}

	counts := make(map[string]int, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}

		name := h
		if seen[name] {
			// skip suffixes that another column already uses verbatim
			for {
				counts[h]++
				name = fmt.Sprintf("%s.%d", h, counts[h])
				if !seen[name] && !used[name] {
					break
				}
			}
		}

		seen[name] = true
		headers[i] = name
	}

	return headers
}
