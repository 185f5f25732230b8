// Package storage provides the SQLite-backed ledger store. The signals
// core only ever reads from it; the write paths exist for the
// ledger-import tool.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteLedger stores users, accounts, transactions, and liabilities in
// a single SQLite database. It implements signals.Store.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (creating if needed) the ledger database at
// dbPath and runs pending migrations.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func (l *SQLiteLedger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// AccountsForUser implements signals.Store.
func (l *SQLiteLedger) AccountsForUser(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, subtype, balance
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Subtype, &a.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// TransactionsForAccounts implements signals.Store. Bounds are
// inclusive; dates compare lexicographically because they are stored as
// ISO-8601 strings.
func (l *SQLiteLedger) TransactionsForAccounts(ctx context.Context, accountIDs []string, start, end time.Time) ([]core.Transaction, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(accountIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	args = append(args, start.Format(dateLayout), end.Format(dateLayout))

	query := fmt.Sprintf(
		`SELECT id, account_id, date, amount, merchant_name, category, payment_channel, pending
		 FROM transactions
		 WHERE account_id IN (%s) AND date >= ? AND date <= ?
		 ORDER BY date, id`, placeholders)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date string
		var pending int
		if err := rows.Scan(&t.ID, &t.AccountID, &date, &t.Amount, &t.MerchantName, &t.Category, &t.PaymentChannel, &pending); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		t.Pending = pending != 0
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

// LiabilitiesForUser implements signals.Store.
func (l *SQLiteLedger) LiabilitiesForUser(ctx context.Context, userID string) ([]core.Liability, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT li.account_id, li.liability_type, li.apr, li.is_overdue,
		        li.last_payment_amount, li.minimum_payment_amount,
		        li.last_statement_balance, li.next_payment_due_date
		 FROM liabilities li
		 JOIN accounts a ON a.id = li.account_id
		 WHERE a.user_id = ?
		 ORDER BY li.account_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []core.Liability
	for rows.Next() {
		var li core.Liability
		var overdue int
		var dueDate sql.NullString
		if err := rows.Scan(&li.AccountID, &li.LiabilityType, &li.APR, &overdue,
			&li.LastPaymentAmount, &li.MinimumPaymentAmount,
			&li.LastStatementBalance, &dueDate); err != nil {
			return nil, fmt.Errorf("scan liability: %w", err)
		}
		li.IsOverdue = overdue != 0
		if dueDate.Valid && dueDate.String != "" {
			li.NextPaymentDueDate, err = time.ParseInLocation(dateLayout, dueDate.String, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse due date %q: %w", dueDate.String, err)
			}
		}
		liabilities = append(liabilities, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liabilities: %w", err)
	}
	return liabilities, nil
}

// UpsertUser creates or refreshes a user row. Used by ledger-import.
func (l *SQLiteLedger) UpsertUser(ctx context.Context, id, name string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`, id, name)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// InsertAccounts creates or replaces account rows in one transaction.
// Used by ledger-import.
func (l *SQLiteLedger) InsertAccounts(ctx context.Context, accounts []core.Account) error {
	return l.insertBatch(ctx, "insert accounts",
		`INSERT OR REPLACE INTO accounts (id, user_id, name, type, subtype, balance)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		len(accounts), func(stmt *sql.Stmt, i int) error {
			a := accounts[i]
			_, err := stmt.ExecContext(ctx, a.ID, a.UserID, a.Name, a.Type, a.Subtype, a.Balance)
			return err
		})
}

// InsertTransactions creates or replaces transaction rows in one
// transaction. Used by ledger-import.
func (l *SQLiteLedger) InsertTransactions(ctx context.Context, transactions []core.Transaction) error {
	return l.insertBatch(ctx, "insert transactions",
		`INSERT OR REPLACE INTO transactions
		 (id, account_id, date, amount, merchant_name, category, payment_channel, pending)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(transactions), func(stmt *sql.Stmt, i int) error {
			t := transactions[i]
			pending := 0
			if t.Pending {
				pending = 1
			}
			_, err := stmt.ExecContext(ctx, t.ID, t.AccountID, t.Date.Format(dateLayout),
				t.Amount, t.MerchantName, t.Category, t.PaymentChannel, pending)
			return err
		})
}

// InsertLiabilities creates or replaces liability rows in one
// transaction. Used by ledger-import.
func (l *SQLiteLedger) InsertLiabilities(ctx context.Context, liabilities []core.Liability) error {
	return l.insertBatch(ctx, "insert liabilities",
		`INSERT OR REPLACE INTO liabilities
		 (account_id, liability_type, apr, is_overdue, last_payment_amount,
		  minimum_payment_amount, last_statement_balance, next_payment_due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(liabilities), func(stmt *sql.Stmt, i int) error {
			li := liabilities[i]
			overdue := 0
			if li.IsOverdue {
				overdue = 1
			}
			var dueDate any
			if !li.NextPaymentDueDate.IsZero() {
				dueDate = li.NextPaymentDueDate.Format(dateLayout)
			}
			_, err := stmt.ExecContext(ctx, li.AccountID, li.LiabilityType, li.APR, overdue,
				li.LastPaymentAmount, li.MinimumPaymentAmount, li.LastStatementBalance, dueDate)
			return err
		})
}

// insertBatch runs n executions of query inside a single transaction
// with a shared prepared statement. The whole batch commits or rolls
// back together.
func (l *SQLiteLedger) insertBatch(ctx context.Context, op, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
