package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns a roster file must provide. Header matching is case-insensitive
// and tolerant of surrounding whitespace and spaces instead of underscores.
const (
	ColumnDegreeType     = "degree_type"
	ColumnMajor          = "major"
	ColumnGraduationDate = "graduation_date"
	ColumnStudentEmail   = "student_email"
)

var requiredColumns = []string{
	ColumnDegreeType,
	ColumnMajor,
	ColumnGraduationDate,
	ColumnStudentEmail,
}

// RosterRow is one data row of an uploaded roster file. Values are raw
// strings; validation happens downstream. Line is the 1-based line number
// in the source file including the header, so the first data row is line 2.
type RosterRow struct {
	Line           int
	DegreeType     string
	Major          string
	GraduationDate string
	StudentEmail   string
}

// ParseRoster reads a roster file and returns its data rows. The format is
// chosen by file extension (.csv or .xlsx).
func ParseRoster(filename string, r io.Reader) ([]RosterRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported roster format %q: expected .csv or .xlsx", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([]RosterRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return rowsFromRecords(records)
}

func parseXLSX(r io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}

	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]RosterRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("roster file is empty")
	}

	columns, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]RosterRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, RosterRow{
			Line:           i + 2, // header is line 1
			DegreeType:     cell(record, columns[ColumnDegreeType]),
			Major:          cell(record, columns[ColumnMajor]),
			GraduationDate: cell(record, columns[ColumnGraduationDate]),
			StudentEmail:   cell(record, columns[ColumnStudentEmail]),
		})
	}

	return rows, nil
}

// mapHeader resolves required column names to their positions in the header row.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		columns[normalizeHeader(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("roster header missing columns: %s", strings.Join(missing, ", "))
	}

	return columns, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

func cell(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
