package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"
)

var ErrNoRows = errors.New("failed to generate report, 0 rows were provided")

const (
	maxSheetName = 31
	minColWidth  = 12
	maxColWidth  = 50
)

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// Export renders the table into an Excel workbook.
func (e *Engine) Export(table Table) (*bytes.Buffer, error) {
	timer := prometheus.NewTimer(e.metrics.ReportGeneration.WithLabelValues(table.Kind, "xlsx"))
	defer timer.ObserveDuration()

	return GenerateExcelReport(table)
}

// GenerateExcelReport writes the table to a single sheet named after its title:
// the title and subtitle on top, a styled header row with a filterable table
// below them, and the summary under the last row.
func GenerateExcelReport(table Table) (*bytes.Buffer, error) {
	var err error

	if len(table.Rows) == 0 || len(table.Columns) == 0 {
		return nil, ErrNoRows
	}

	gen := NewGenerator()
	defer gen.file.Close()

	sheetName := truncateSheetName(table.Title)
	if sheetName == "" {
		sheetName = "Report"
	}

	if _, err = gen.file.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
	}

	if err = gen.fillSheet(sheetName, table); err != nil {
		return nil, fmt.Errorf("failed to fill sheet '%s': %w", sheetName, err)
	}

	// setup first sheet as active
	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 && sheetName != "Sheet1" {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// Header row of the data table; rows 1 and 2 hold the title and subtitle.
const headerRow = 4

func (g *Generator) fillSheet(sheetName string, table Table) error {
	var err error

	titleStyle, err := g.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	if err = g.file.SetCellValue(sheetName, "A1", table.Title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return fmt.Errorf("failed to set title style: %w", err)
	}
	if err = g.file.SetCellValue(sheetName, "A2", table.Subtitle); err != nil {
		return fmt.Errorf("failed to set subtitle: %w", err)
	}

	if err = g.setupHeader(sheetName, table.Columns, len(table.Rows)); err != nil {
		return err
	}

	for i, row := range table.Rows {
		if err = g.addRow(sheetName, headerRow+1+i, row, len(table.Columns)); err != nil {
			return fmt.Errorf("failed to add row '%d': %w", headerRow+1+i, err)
		}
	}

	if err = g.setWidths(sheetName, table); err != nil {
		return err
	}

	if table.Summary != "" {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+len(table.Rows)+2) //nolint:mnd // one blank row
		if err = g.file.SetCellValue(sheetName, cell, table.Summary); err != nil {
			return fmt.Errorf("failed to set summary: %w", err)
		}
	}

	return nil
}

// setupHeader writes the styled header row and turns the data range into an Excel table.
func (g *Generator) setupHeader(sheetName string, columns []string, rowCount int) error {
	var err error

	// Style creating
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(columns), headerRow)
	bottom, _ := excelize.CoordinatesToCellName(len(columns), headerRow+rowCount)

	rowHeight := 20
	if err = g.file.SetRowHeight(sheetName, headerRow, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, first, &columns); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, first, last, headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     first + ":" + bottom,
		Name:      tableName(sheetName),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow writes one data row, padding short rows so the table stays rectangular.
func (g *Generator) addRow(sheetName string, rowNum int, row []string, width int) error {
	rowData := make([]any, width)
	for i := range rowData {
		if i < len(row) {
			rowData[i] = row[i]
		} else {
			rowData[i] = ""
		}
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// setWidths sizes every column to its longest value within fixed bounds.
func (g *Generator) setWidths(sheetName string, table Table) error {
	for i, column := range table.Columns {
		width := utf8.RuneCountInString(column)
		for _, row := range table.Rows {
			if i < len(row) {
				width = max(width, utf8.RuneCountInString(row[i]))
			}
		}
		width = min(max(width+2, minColWidth), maxColWidth)

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", i+1, err)
		}
		if err = g.file.SetColWidth(sheetName, name, name, float64(width)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// tableName derives a valid Excel table name from the sheet name.
func tableName(sheetName string) string {
	var b strings.Builder
	b.WriteString("table_")
	for _, r := range sheetName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncateSheetName truncates the given sheet name to a maximum of 31 runes.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetName {
		runes := []rune(name)
		return string(runes[:maxSheetName])
	}
	return name
}
