// Command demodata generates a pair of demo invoice workbooks, one Purchase
// Register and one GSTR-2B, with a known mix of discrepancies. Useful for
// exercising a reconciliation run end to end without real client data.
// Usage: go run ./cmd/demodata
// Output: demo/purchase_register.xlsx, demo/gstr2b.xlsx
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/xuri/excelize/v2"
)

type demoInvoice struct {
	gstin      string
	vendorName string
	invoiceNo  string
	date       string
	taxable    float64
	cgst       float64
	sgst       float64
	igst       float64
}

var header = []string{
	"Vendor GSTIN", "Vendor Name", "Invoice No", "Invoice Date",
	"Taxable Value", "CGST", "SGST", "IGST",
}

// purchaseRegister and gstr2b intentionally disagree:
// INV-2001 matches exactly, INV-2002 has a CGST/SGST entry error on the PR
// side, INV-2003 was booked three days late, INV-2004 carries a typo in the
// GSTR-2B invoice number, INV-2005 never reached GSTR-2B, and INV-2099 was
// reported by the vendor but never booked.
var purchaseRegister = []demoInvoice{
	{"27AAACR5055K1Z7", "Reliance Industries", "INV-2001", "2025-04-05", 100000, 9000, 9000, 0},
	{"27AAACR5055K1Z7", "Reliance Industries", "INV-2002", "2025-04-12", 50000, 4500, 4550, 0},
	{"29AABCI9603R1ZM", "Infosys Ltd", "INV-2003", "2025-04-21", 80000, 0, 0, 14400},
	{"29AABCI9603R1ZM", "Infosys Ltd", "INV-2004", "2025-04-25", 25000, 0, 0, 4500},
	{"24AAACB2894G1Z6", "Bharat Traders", "INV-2005", "2025-04-28", 12000, 1080, 1080, 0},
}

var gstr2b = []demoInvoice{
	{"27AAACR5055K1Z7", "Reliance Industries", "INV-2001", "2025-04-05", 100000, 9000, 9000, 0},
	{"27AAACR5055K1Z7", "Reliance Industries", "INV-2002", "2025-04-12", 50000, 4500, 4500, 0},
	{"29AABCI9603R1ZM", "Infosys Ltd", "INV-2003", "2025-04-18", 80000, 0, 0, 14400},
	{"29AABCI9603R1ZM", "Infosys Ltd", "INV-2OO4", "2025-04-25", 25000, 0, 0, 4500},
	{"24AAACB2894G1Z6", "Bharat Traders", "INV-2099", "2025-04-30", 6000, 540, 540, 0},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := os.MkdirAll("demo", 0o755); err != nil {
		return fmt.Errorf("create demo dir: %w", err)
	}

	if err := writeWorkbook("demo/purchase_register.xlsx", "Purchase Register", purchaseRegister); err != nil {
		return err
	}
	if err := writeWorkbook("demo/gstr2b.xlsx", "GSTR-2B", gstr2b); err != nil {
		return err
	}

	log.Printf("Generated demo workbooks: %d PR rows, %d GSTR-2B rows", len(purchaseRegister), len(gstr2b))
	return nil
}

func writeWorkbook(path, sheetName string, invoices []demoInvoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return err
		}
	}

	for i, inv := range invoices {
		values := []interface{}{
			inv.gstin, inv.vendorName, inv.invoiceNo, inv.date,
			inv.taxable, inv.cgst, inv.sgst, inv.igst,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
