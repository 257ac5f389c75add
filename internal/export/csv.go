// Package export renders transactions as spreadsheet rows.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"spendwise/internal/core"
)

// bom lets spreadsheet apps detect UTF-8 and show Turkish characters.
const bom = "\ufeff"

// Header is the column order of every export.
var Header = []string{"Date", "Title", "Category", "Amount", "Type"}

// DisplayDateLayout is the day-first date format of exported rows.
const DisplayDateLayout = "02.01.2006"

// FileName is the download name of a month export.
func FileName(month string) string {
	return fmt.Sprintf("SpendWise_Transactions_%s.csv", month)
}

// Row renders one transaction in Header order. A missing date falls back
// to the creation day, and "-" when neither is known.
func Row(tx core.Transaction) []string {
	date := "-"
	if d := tx.EffectiveDate(); !d.IsEmpty() {
		date = d.Format(DisplayDateLayout)
	}
	kind := "Expense"
	if tx.IsIncome() {
		kind = "Income"
	}
	return []string{date, tx.Title, tx.CategoryOrDefault(), tx.Amount.String(), kind}
}

// WriteCSV writes a BOM, the header and one CRLF-terminated row per
// transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(Row(tx)); err != nil {
			return fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
