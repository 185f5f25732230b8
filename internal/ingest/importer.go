// Package ingest loads ledger CSV exports into the SQLite store. It is
// tooling around the pipeline, not part of it: the signals core never
// writes.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reena96/spendsense-sub001/internal/core"
	logf "github.com/reena96/spendsense-sub001/internal/log"
)

const dateLayout = "2006-01-02"

// defaultBatchSize is used when the importer is built with a
// non-positive batch size.
const defaultBatchSize = 500

// LedgerWriter is the write contract the importer needs from the store.
// Insert methods take whole batches so the store can wrap each one in a
// single transaction.
type LedgerWriter interface {
	UpsertUser(ctx context.Context, id, name string) error
	InsertAccounts(ctx context.Context, accounts []core.Account) error
	InsertTransactions(ctx context.Context, transactions []core.Transaction) error
	InsertLiabilities(ctx context.Context, liabilities []core.Liability) error
}

// Importer reads CSV exports and writes ledger rows in batches of
// batchSize.
type Importer struct {
	writer    LedgerWriter
	batchSize int
}

func NewImporter(writer LedgerWriter, batchSize int) *Importer {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	return &Importer{writer: writer, batchSize: batchSize}
}

// flushBatches writes items in chunks of batchSize. It returns the
// number of items written; batch errors carry the 1-based CSV row range
// (header is row 1).
func flushBatches[T any](ctx context.Context, items []T, batchSize int, write func(context.Context, []T) error) (int, error) {
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		if err := write(ctx, items[start:end]); err != nil {
			return start, fmt.Errorf("rows %d-%d: %w", start+2, end+1, err)
		}
	}
	return len(items), nil
}

// ImportAccounts reads account rows. Expected header:
// account_id,user_id,name,type,subtype,balance. Users referenced by the
// rows are upserted as they appear.
func (im *Importer) ImportAccounts(ctx context.Context, r io.Reader) (int, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return 0, err
	}
	col, err := columnIndex(header, "account_id", "user_id", "name", "type", "subtype", "balance")
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	accounts := make([]core.Account, 0, len(rows))
	for i, row := range rows {
		balance, err := parseAmount(row[col["balance"]])
		if err != nil {
			return 0, fmt.Errorf("row %d: parse balance: %w", i+2, err)
		}
		account := core.Account{
			ID:      row[col["account_id"]],
			UserID:  row[col["user_id"]],
			Name:    row[col["name"]],
			Type:    row[col["type"]],
			Subtype: row[col["subtype"]],
			Balance: balance,
		}
		if account.ID == "" || account.UserID == "" {
			return 0, fmt.Errorf("row %d: missing account_id or user_id", i+2)
		}
		if !seen[account.UserID] {
			if err := im.writer.UpsertUser(ctx, account.UserID, ""); err != nil {
				return 0, fmt.Errorf("row %d: %w", i+2, err)
			}
			seen[account.UserID] = true
		}
		accounts = append(accounts, account)
	}

	imported, err := flushBatches(ctx, accounts, im.batchSize, im.writer.InsertAccounts)
	if err != nil {
		return imported, err
	}

	slog.InfoContext(ctx, "Imported accounts",
		logf.FieldComponent, logf.ComponentIngest,
		logf.FieldRowsImported, imported)
	return imported, nil
}

// ImportTransactions reads transaction rows. Expected header:
// transaction_id,account_id,date,amount,merchant_name,category,
// payment_channel,pending. Amounts are signed: inflows positive, debits
// negative.
func (im *Importer) ImportTransactions(ctx context.Context, r io.Reader) (int, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return 0, err
	}
	col, err := columnIndex(header,
		"transaction_id", "account_id", "date", "amount",
		"merchant_name", "category", "payment_channel", "pending")
	if err != nil {
		return 0, err
	}

	transactions := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		amount, err := parseAmount(row[col["amount"]])
		if err != nil {
			return 0, fmt.Errorf("row %d: parse amount: %w", i+2, err)
		}
		date, err := time.ParseInLocation(dateLayout, row[col["date"]], time.UTC)
		if err != nil {
			return 0, fmt.Errorf("row %d: parse date: %w", i+2, err)
		}
		pending, err := parseBool(row[col["pending"]])
		if err != nil {
			return 0, fmt.Errorf("row %d: parse pending: %w", i+2, err)
		}
		t := core.Transaction{
			ID:             row[col["transaction_id"]],
			AccountID:      row[col["account_id"]],
			Date:           date,
			Amount:         amount,
			MerchantName:   row[col["merchant_name"]],
			Category:       row[col["category"]],
			PaymentChannel: row[col["payment_channel"]],
			Pending:        pending,
		}
		if t.ID == "" || t.AccountID == "" {
			return 0, fmt.Errorf("row %d: missing transaction_id or account_id", i+2)
		}
		transactions = append(transactions, t)
	}

	imported, err := flushBatches(ctx, transactions, im.batchSize, im.writer.InsertTransactions)
	if err != nil {
		return imported, err
	}

	slog.InfoContext(ctx, "Imported transactions",
		logf.FieldComponent, logf.ComponentIngest,
		logf.FieldRowsImported, imported)
	return imported, nil
}

// ImportLiabilities reads liability rows. Expected header:
// account_id,liability_type,apr,is_overdue,last_payment_amount,
// minimum_payment_amount,last_statement_balance,next_payment_due_date.
func (im *Importer) ImportLiabilities(ctx context.Context, r io.Reader) (int, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return 0, err
	}
	col, err := columnIndex(header,
		"account_id", "liability_type", "apr", "is_overdue",
		"last_payment_amount", "minimum_payment_amount",
		"last_statement_balance", "next_payment_due_date")
	if err != nil {
		return 0, err
	}

	liabilities := make([]core.Liability, 0, len(rows))
	for i, row := range rows {
		li := core.Liability{
			AccountID:     row[col["account_id"]],
			LiabilityType: row[col["liability_type"]],
		}
		if li.AccountID == "" {
			return 0, fmt.Errorf("row %d: missing account_id", i+2)
		}
		if li.APR, err = parseAmount(row[col["apr"]]); err != nil {
			return 0, fmt.Errorf("row %d: parse apr: %w", i+2, err)
		}
		if li.IsOverdue, err = parseBool(row[col["is_overdue"]]); err != nil {
			return 0, fmt.Errorf("row %d: parse is_overdue: %w", i+2, err)
		}
		if li.LastPaymentAmount, err = parseAmount(row[col["last_payment_amount"]]); err != nil {
			return 0, fmt.Errorf("row %d: parse last_payment_amount: %w", i+2, err)
		}
		if li.MinimumPaymentAmount, err = parseAmount(row[col["minimum_payment_amount"]]); err != nil {
			return 0, fmt.Errorf("row %d: parse minimum_payment_amount: %w", i+2, err)
		}
		if li.LastStatementBalance, err = parseAmount(row[col["last_statement_balance"]]); err != nil {
			return 0, fmt.Errorf("row %d: parse last_statement_balance: %w", i+2, err)
		}
		if due := row[col["next_payment_due_date"]]; due != "" {
			li.NextPaymentDueDate, err = time.ParseInLocation(dateLayout, due, time.UTC)
			if err != nil {
				return 0, fmt.Errorf("row %d: parse next_payment_due_date: %w", i+2, err)
			}
		}
		liabilities = append(liabilities, li)
	}

	imported, err := flushBatches(ctx, liabilities, im.batchSize, im.writer.InsertLiabilities)
	if err != nil {
		return imported, err
	}

	slog.InfoContext(ctx, "Imported liabilities",
		logf.FieldComponent, logf.ComponentIngest,
		logf.FieldRowsImported, imported)
	return imported, nil
}

func readCSV(r io.Reader) (rows [][]string, header []string, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err = reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	rows, err = reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, header, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return col, nil
}

// parseAmount parses a monetary value exactly and rounds to cents.
// Decimal parsing avoids accumulating float artifacts from the text
// representation before the value ever reaches the store.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Round(2).InexactFloat64(), nil
}

func parseBool(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
