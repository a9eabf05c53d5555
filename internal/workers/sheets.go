// internal/workers/sheets.go
package workers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// RenderReceipt writes bill as a one-sheet workbook.
func RenderReceipt(bill *domain.Bill) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Receipt")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	addRow(sheet, "Bill", bill.ID.String())
	addRow(sheet, "Customer", bill.CustomerName)
	addRow(sheet, "Date", bill.CreatedAt.UTC().Format(time.RFC3339))
	sheet.AddRow()
	addRow(sheet, "Medicine", "Batch", "Quantity", "Strips", "Tablets", "Amount")

	for _, item := range bill.Items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.MedicineName)
		row.AddCell().SetString(item.BatchNumber)
		row.AddCell().SetInt(item.Quantity)
		row.AddCell().SetInt(item.Strips)
		row.AddCell().SetInt(item.Tablets)
		row.AddCell().SetString(item.Price.StringFixed(domain.CurrencyScale))
	}

	sheet.AddRow()
	total := sheet.AddRow()
	for i := 0; i < 5; i++ {
		total.AddCell()
	}
	total.AddCell().SetString(bill.TotalAmount.StringFixed(domain.CurrencyScale))
	total.GetCell(0).SetString("Total")

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// StockRow is one parsed line of an import sheet. Line is 1-based as shown
// in a spreadsheet program.
type StockRow struct {
	Line   int
	Intake domain.StockIntake
}

// RowError explains why a sheet line was not imported.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

var stockColumns = []string{
	"name", "company", "batch_number", "variant", "manufacture_date", "expiry_date",
	"quantity", "price", "is_strip_based", "tablets_per_strip",
}

var requiredColumns = []string{"name", "company", "batch_number", "quantity", "price"}

// ParseStockSheet reads the first sheet of an xlsx workbook. The first row
// is a header naming the columns (any order, case-insensitive, spaces or
// underscores). Blank rows are skipped.
func ParseStockSheet(data []byte) ([]StockRow, []RowError, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	var (
		rows    []StockRow
		rowErrs []RowError
		columns map[string]int
		line    int
	)

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		line++
		if columns == nil {
			columns = headerIndex(r)
			for _, col := range requiredColumns {
				if _, ok := columns[col]; !ok {
					return fmt.Errorf("missing column %q", col)
				}
			}
			return nil
		}

		row := sheetRow{row: r, columns: columns}
		if row.blank() {
			return nil
		}

		intake, err := row.intake()
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			return nil
		}
		rows = append(rows, StockRow{Line: line, Intake: intake})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if columns == nil {
		return nil, nil, fmt.Errorf("sheet is empty")
	}

	return rows, rowErrs, nil
}

func headerIndex(r *xlsx.Row) map[string]int {
	known := make(map[string]struct{}, len(stockColumns))
	for _, c := range stockColumns {
		known[c] = struct{}{}
	}

	index := make(map[string]int)
	col := 0
	_ = r.ForEachCell(func(c *xlsx.Cell) error {
		name := strings.ToLower(strings.TrimSpace(c.String()))
		name = strings.ReplaceAll(name, " ", "_")
		if _, ok := known[name]; ok {
			index[name] = col
		}
		col++
		return nil
	})
	return index
}

type sheetRow struct {
	row     *xlsx.Row
	columns map[string]int
}

func (s sheetRow) cell(name string) *xlsx.Cell {
	i, ok := s.columns[name]
	if !ok {
		return nil
	}
	return s.row.GetCell(i)
}

func (s sheetRow) text(name string) string {
	c := s.cell(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.String())
}

func (s sheetRow) blank() bool {
	for name := range s.columns {
		if s.text(name) != "" {
			return false
		}
	}
	return true
}

func (s sheetRow) intake() (domain.StockIntake, error) {
	quantity, err := strconv.Atoi(s.text("quantity"))
	if err != nil {
		return domain.StockIntake{}, fmt.Errorf("quantity %q is not a whole number", s.text("quantity"))
	}

	price, err := decimal.NewFromString(strings.TrimPrefix(s.text("price"), "$"))
	if err != nil {
		return domain.StockIntake{}, fmt.Errorf("price %q is not a number", s.text("price"))
	}

	batch := domain.Batch{
		BatchNumber: s.text("batch_number"),
		Variant:     s.text("variant"),
		Quantity:    quantity,
		Price:       price,
	}

	if v := s.text("is_strip_based"); v != "" {
		batch.IsStripBased, err = parseFlag(v)
		if err != nil {
			return domain.StockIntake{}, err
		}
	}
	if v := s.text("tablets_per_strip"); v != "" && batch.IsStripBased {
		batch.TabletsPerStrip, err = strconv.Atoi(v)
		if err != nil {
			return domain.StockIntake{}, fmt.Errorf("tablets_per_strip %q is not a whole number", v)
		}
	}

	if batch.ManufactureDate, err = s.date("manufacture_date"); err != nil {
		return domain.StockIntake{}, err
	}
	if batch.ExpiryDate, err = s.date("expiry_date"); err != nil {
		return domain.StockIntake{}, err
	}

	intake := domain.StockIntake{Name: s.text("name"), Company: s.text("company"), Batch: batch}
	intake.Normalize()
	if err := intake.Validate(); err != nil {
		return domain.StockIntake{}, err
	}
	return intake, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01-02-06", "2006/01/02"}

func (s sheetRow) date(name string) (time.Time, error) {
	c := s.cell(name)
	if c == nil || strings.TrimSpace(c.Value) == "" {
		return time.Time{}, nil
	}
	if c.IsTime() {
		t, err := c.GetTime(false)
		if err == nil {
			return t.UTC(), nil
		}
	}

	v := strings.TrimSpace(c.String())
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s %q is not a date", name, v)
}

func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1", "strip":
		return true, nil
	case "no", "n", "false", "0", "tablet":
		return false, nil
	default:
		return false, fmt.Errorf("is_strip_based %q is not yes/no", v)
	}
}
