// test/benchmarks/helpers.go
package benchmarks

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/test/helpers"
)

// seedCatalog stocks n medicines with one deep batch each so benchmark loops
// never run out.
func seedCatalog(store *helpers.MemStore, owner uuid.UUID, n int) []*domain.Medicine {
	meds := make([]*domain.Medicine, n)
	for i := range meds {
		meds[i] = helpers.CreateTestMedicine(owner, func(m *domain.Medicine) {
			m.Name = fmt.Sprintf("Medicine %03d", i)
			m.Batches = []domain.Batch{helpers.CreateTestBatch(func(b *domain.Batch) {
				b.Quantity = 1 << 30
			})}
		})
	}
	store.Seed(meds...)
	return meds
}

// createStockSheet builds an import workbook with numRows batches.
func createStockSheet(numRows int) []byte {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Stock")
	if err != nil {
		panic(err)
	}

	header := sheet.AddRow()
	for _, h := range []string{"Name", "Company", "Batch Number", "Manufacture Date", "Expiry Date",
		"Quantity", "Price", "Is Strip Based", "Tablets Per Strip"} {
		header.AddCell().SetString(h)
	}

	for i := 0; i < numRows; i++ {
		row := sheet.AddRow()
		for _, v := range []string{
			fmt.Sprintf("Medicine %d", i%50), "Acme Pharma", fmt.Sprintf("B-%05d", i),
			"2026-01-01", "2028-01-01", "100", "50.00", "yes", "10",
		} {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// createLargeBill returns a committed-looking bill with numItems lines.
func createLargeBill(numItems int) *domain.Bill {
	items := make([]domain.BillItem, numItems)
	total := decimal.Zero
	for i := range items {
		items[i] = domain.BillItem{
			MedicineID:   uuid.New(),
			MedicineName: fmt.Sprintf("Medicine %d", i),
			BatchNumber:  fmt.Sprintf("B-%05d", i),
			Quantity:     23,
			Price:        decimal.NewFromInt(115),
			Strips:       2,
			Tablets:      3,
		}
		total = total.Add(items[i].Price)
	}
	return domain.NewBill(uuid.New(), "Benchmark Customer", items, total, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}
