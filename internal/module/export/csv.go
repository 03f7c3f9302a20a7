// Package export serializes a book to CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/report"
	"github.com/kislikjeka/wizmoney/pkg/money"
)

// UnknownAccount labels a side whose account was deleted
const UnknownAccount = "Unknown account"

const bom = "\ufeff"

// Header is the column layout of the export
var Header = []string{"ID", "Date", "Time", "Type", "Amount", "Currency", "Category", "Account", "Note", "Tags"}

// Options controls the export
type Options struct {
	// BOM prefixes the output with a UTF-8 byte order mark so spreadsheet
	// tools detect the encoding.
	BOM bool
	// Filter restricts the exported rows. The summary covers the same rows.
	Filter ledger.Filter
}

// DefaultOptions exports every transaction with a BOM
func DefaultOptions() Options {
	return Options{BOM: true}
}

// FileName returns the download name for an export made at t
func FileName(t time.Time) string {
	return fmt.Sprintf("wizmoney_export_%s.csv", t.Format(ledger.DateLayout))
}

// WriteCSV writes one row per transaction, newest first, followed by a blank
// row and income, expense and net summary rows in the display currency.
func WriteCSV(w io.Writer, snap ledger.Snapshot, opts Options) error {
	if opts.BOM {
		if _, err := io.WriteString(w, bom); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	rows := make([]ledger.Transaction, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		if opts.Filter.Match(tx) {
			rows = append(rows, tx)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range rows {
		if err := cw.Write(record(snap, tx)); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", tx.ID, err)
		}
	}

	summarized := snap
	summarized.Transactions = rows
	totals, err := report.NewService().Totals(summarized, report.Range{Kind: report.RangeAll})
	if err != nil {
		return fmt.Errorf("failed to compute totals: %w", err)
	}

	label := money.Label(totals.Currency)
	summary := [][]string{
		make([]string, len(Header)),
		summaryRow("Total income", totals.Income.String(), label),
		summaryRow("Total expense", totals.Expense.String(), label),
		summaryRow("Net", totals.Net.String(), label),
	}
	if err := cw.WriteAll(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func record(snap ledger.Snapshot, tx ledger.Transaction) []string {
	code := ""
	var account string
	switch p := tx.Posting.(type) {
	case ledger.Expense:
		account, code = accountLabel(snap, p.AccountID)
	case ledger.Income:
		account, code = accountLabel(snap, p.AccountID)
	case ledger.Transfer:
		from, fromCode := accountLabel(snap, p.FromAccountID)
		to, _ := accountLabel(snap, p.ToAccountID)
		account, code = from+" -> "+to, fromCode
	default:
		account = UnknownAccount
	}

	currencyLabel := ""
	if code != "" {
		currencyLabel = money.Label(code)
	}

	return []string{
		tx.ID,
		tx.Date,
		tx.Time,
		tx.Type().Label(),
		tx.Amount.String(),
		currencyLabel,
		tx.Category,
		account,
		tx.Note,
		strings.Join(tx.Tags, ";"),
	}
}

func accountLabel(snap ledger.Snapshot, id string) (name, code string) {
	acc, ok := snap.Account(id)
	if !ok {
		return UnknownAccount, ""
	}
	return acc.Name, acc.Currency
}

func summaryRow(label, amount, currencyLabel string) []string {
	row := make([]string, len(Header))
	row[3] = label
	row[4] = amount
	row[5] = currencyLabel
	return row
}
