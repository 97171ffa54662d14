package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxXLSRows bounds the legacy reader, which trusts the row count in the file.
const maxXLSRows = 100000

func decodeCSV(content []byte) ([]string, []map[string]any, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var table [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: %w", err)
		}
		table = append(table, rec)
	}
	return rowsFromTable(table)
}

// decodeXLSX reads the first sheet of an OOXML workbook.
func decodeXLSX(content []byte) ([]string, []map[string]any, error) {
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, errors.New("xlsx: no worksheet found")
	}

	table, err := file.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("xlsx: %w", err)
	}
	return rowsFromTable(table)
}

// decodeXLS reads the first sheet of a legacy BIFF workbook.
func decodeXLS(content []byte) (header []string, rows []map[string]any, err error) {
	// The BIFF reader panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			header, rows, err = nil, nil, fmt.Errorf("xls: corrupt workbook: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("xls: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, nil, errors.New("xls: no worksheet found")
	}

	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, nil, errors.New("xls: no worksheet found")
	}

	var table [][]string
	for i := 0; i <= int(sheet.MaxRow) && i < maxXLSRows; i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		table = append(table, cells)
	}
	return rowsFromTable(table)
}

// xlsRow returns nil for rows the sheet never stored; the reader itself
// dereferences them unchecked.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// rowsFromTable turns a header-first grid into header -> cell mappings.
// Blank rows are dropped and short rows are padded.
func rowsFromTable(table [][]string) ([]string, []map[string]any, error) {
	start := 0
	for start < len(table) && blankRow(table[start]) {
		start++
	}
	if start == len(table) {
		return nil, nil, errors.New("no header row")
	}

	header := make([]string, len(table[start]))
	for i, h := range table[start] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]any, 0, len(table)-start-1)
	for _, rec := range table[start+1:] {
		if blankRow(rec) {
			continue
		}
		row := make(map[string]any, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			row[h] = cell
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func blankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
