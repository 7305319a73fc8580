package reports

import (
	"fmt"
	"io"

	"github.com/salepilot/salepilot_backend/models"
	"github.com/xuri/excelize/v2"
)

// WriteStatementXLSX renders a customer statement as a spreadsheet.
// One ledger row per line plus a summary block at the bottom.
func WriteStatementXLSX(statement *models.CustomerStatement, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", "Customer")
	f.SetCellValue(sheet, "B1", statement.Customer.Name)
	f.SetCellValue(sheet, "A2", "Generated")
	f.SetCellValue(sheet, "B2", statement.GeneratedAt.Format("2006-01-02 15:04"))

	headerRow := 4
	f.SetCellValue(sheet, "A"+fmt.Sprint(headerRow), "Date")
	f.SetCellValue(sheet, "B"+fmt.Sprint(headerRow), "Description")
	f.SetCellValue(sheet, "C"+fmt.Sprint(headerRow), "Reference")
	f.SetCellValue(sheet, "D"+fmt.Sprint(headerRow), "Amount")
	f.SetCellValue(sheet, "E"+fmt.Sprint(headerRow), "Balance")

	row := headerRow + 1
	for _, line := range statement.Lines {
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), line.Date.Format("2006-01-02"))
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), line.Description)
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), line.Reference)
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), line.Amount.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), line.Balance.InexactFloat64())
		row++
	}

	row++
	f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Total Invoiced")
	f.SetCellValue(sheet, "E"+fmt.Sprint(row), statement.TotalInvoiced.InexactFloat64())
	row++
	f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Total Paid")
	f.SetCellValue(sheet, "E"+fmt.Sprint(row), statement.TotalPaid.InexactFloat64())
	row++
	f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Closing Balance")
	f.SetCellValue(sheet, "E"+fmt.Sprint(row), statement.ClosingBalance.InexactFloat64())

	return f.Write(w)
}
