package reports

import (
	"fmt"
	"io"

	"github.com/salepilot/salepilot_backend/models"
	"github.com/xuri/excelize/v2"
)

// WriteSalesXLSX renders the invoice register as a spreadsheet, one row
// per invoice with its derived balance and status.
func WriteSalesXLSX(invoices []*models.InvoiceView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", "Transaction")
	f.SetCellValue(sheet, "B1", "Customer")
	f.SetCellValue(sheet, "C1", "Date")
	f.SetCellValue(sheet, "D1", "Due Date")
	f.SetCellValue(sheet, "E1", "Total")
	f.SetCellValue(sheet, "F1", "Amount Paid")
	f.SetCellValue(sheet, "G1", "Balance Due")
	f.SetCellValue(sheet, "H1", "Status")

	row := 2
	for _, inv := range invoices {
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), inv.TransactionId)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), inv.CustomerName)
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), inv.SaleDate.Format("2006-01-02"))
		if inv.DueDate != nil {
			f.SetCellValue(sheet, "D"+fmt.Sprint(row), inv.DueDate.Format("2006-01-02"))
		}
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), inv.Total.InexactFloat64())
		f.SetCellValue(sheet, "F"+fmt.Sprint(row), inv.AmountPaid.InexactFloat64())
		f.SetCellValue(sheet, "G"+fmt.Sprint(row), inv.BalanceDue.InexactFloat64())
		f.SetCellValue(sheet, "H"+fmt.Sprint(row), string(inv.Status))
		row++
	}

	return f.Write(w)
}
