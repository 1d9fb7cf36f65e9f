package converter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/nconklindev/datasweeper/internal/types"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// naTokens are the cell spellings read as missing values.
var naTokens = map[string]bool{
	"":         true,
	"NA":       true,
	"N/A":      true,
	"n/a":      true,
	"NaN":      true,
	"nan":      true,
	"-NaN":     true,
	"-nan":     true,
	"null":     true,
	"NULL":     true,
	"None":     true,
	"#N/A":     true,
	"#NA":      true,
	"<NA>":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"#N/A N/A": true,
}

// normalizeEncoding strips a UTF-8 BOM and falls back to Latin-1 when the bytes
// are not valid UTF-8.
func normalizeEncoding(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("latin-1 fallback: %w", err)
	}

	return decoded, nil
}

func decodeCSV(data []byte) (*types.Table, error) {
	data, err := normalizeEncoding(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headers := normalizeHeaders(records[0])
	rows := records[1:]

	for i, row := range rows {
		if len(row) > len(headers) {
			// line numbers are 1-based and include the header
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, len(headers), len(row))
		}
	}

	cells := make([][]types.Cell, len(rows))
	for i := range cells {
		cells[i] = make([]types.Cell, len(headers))
	}

	for colIdx := range headers {
		numeric := isNumericColumn(rows, colIdx)

		for rowIdx, row := range rows {
			if colIdx >= len(row) || naTokens[row[colIdx]] {
				cells[rowIdx][colIdx] = types.Missing()
				continue
			}

			if numeric {
				val, _ := parseNumber(row[colIdx])
				cells[rowIdx][colIdx] = types.Number(val)
			} else {
				cells[rowIdx][colIdx] = types.Text(row[colIdx])
			}
		}
	}

	return types.NewTable(headers, cells)
}

// isNumericColumn checks whether every non-missing value in the column parses as a number.
func isNumericColumn(rows [][]string, colIdx int) bool {
	for _, row := range rows {
		if colIdx >= len(row) || naTokens[row[colIdx]] {
			continue
		}
		if _, ok := parseNumber(row[colIdx]); !ok {
			return false
		}
	}
	return true
}

func encodeCSV(tbl *types.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, record := range tbl.Records() {
		// A lone empty field would be written as a blank line, which readers skip.
		if len(record) == 1 && record[0] == "" {
			writer.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
