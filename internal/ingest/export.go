package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportRow is one row of a generated roster workbook.
type ExportRow struct {
	StudentEmail   string
	DegreeType     string
	Major          string
	GraduationDate string
	Status         string
}

// BuildRosterXLSX renders degree records as an xlsx workbook suitable for
// download by university staff.
func BuildRosterXLSX(rows []ExportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Degrees"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	header := []interface{}{"Student Email", "Degree Type", "Major", "Graduation Date", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell reference: %w", err)
		}
		values := []interface{}{row.StudentEmail, row.DegreeType, row.Major, row.GraduationDate, row.Status}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}
