package slips

import (
	"bytes"
	"fmt"

	"garment-backend/internal/models"
	"garment-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// Slip is everything printed on a settlement slip
type Slip struct {
	CompanyName string
	Employee    *models.Employee
	Detail      *models.SettlementDetail
	// Token is printed at the foot of the slip when signing is enabled
	Token string
}

// Render produces the A4 payment slip for one settlement.
func Render(slip *Slip) ([]byte, error) {
	d := slip.Detail
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, slip.CompanyName+" - Settlement Slip", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatIST(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Settlement", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Number: %s", d.SettlementNumber), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Date: %s", timeutil.FormatIST(d.SettlementDate, timeutil.DisplayDateLayout)), "RB", 1, "L", false, 0, "")
	name := d.EmployeeName
	phone := ""
	if slip.Employee != nil {
		name = slip.Employee.Name
		phone = slip.Employee.Phone
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Employee: %s", name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", phone), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Production", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(40, 7, "Batch", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Department", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, e := range d.Entries {
		batch := e.BatchNumber
		if batch == "" {
			batch = fmt.Sprintf("#%d", e.BatchID)
		}
		pdf.CellFormat(40, 6, batch, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, truncate(e.Department, 22), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", e.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Rs. "+e.Rate.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "Rs. "+e.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	if len(d.Advances) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Advances Deducted", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, a := range d.Advances {
			pdf.CellFormat(60, 6, timeutil.FormatIST(a.AdvanceDate, timeutil.DisplayDateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(60, 6, string(a.PaymentMode), "1", 0, "C", false, 0, "")
			pdf.CellFormat(70, 6, "Rs. "+a.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 8, "Total Production: Rs. "+d.TotalProductionAmount.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Advances Deducted: Rs. "+d.AdvancesDeducted.StringFixed(2), "1", 1, "C", false, 0, "")

	// Negative net means the employee still owes the advance balance
	netText := "Net Payable: Rs. " + d.NetPayable.StringFixed(2)
	if d.NetPayable.IsNegative() {
		pdf.SetFillColor(255, 200, 200)
		netText = "Balance Owed by Employee: Rs. " + d.NetPayable.Neg().StringFixed(2)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, netText, "1", 1, "C", true, 0, "")

	if d.Remarks != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, "Remarks: "+d.Remarks, "", "L", false)
	}

	if slip.Token != "" {
		pdf.Ln(8)
		pdf.SetFont("Courier", "", 7)
		pdf.MultiCell(190, 3.5, "Verification: "+slip.Token, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
