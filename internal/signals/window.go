// Package signals converts per-user ledger data into normalized
// behavioral metrics over fixed historical windows (30 and 180 days).
//
// The package is a pure, read-only transformation: it never mutates the
// ledger, never persists its own output, and holds no state between
// invocations. Each detector is total: any user, including one with no
// accounts or no transactions, yields a valid metrics value, never an
// absent result.
package signals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// Store is the read contract the ledger store must provide. All reads
// are scoped to a single call; the store owns connection lifetime.
type Store interface {
	AccountsForUser(ctx context.Context, userID string) ([]core.Account, error)
	TransactionsForAccounts(ctx context.Context, accountIDs []string, start, end time.Time) ([]core.Transaction, error)
	LiabilitiesForUser(ctx context.Context, userID string) ([]core.Liability, error)
}

// Windows is the windowing primitive: it computes window bounds and
// fetches bounded slices of transactions, account balances, and
// liabilities for a user.
type Windows struct {
	store Store
}

// NewWindows returns a window calculator over the given store.
func NewWindows(store Store) *Windows {
	return &Windows{store: store}
}

// TransactionsInWindow returns the user's transactions inside the
// inclusive [reference-windowDays, reference] window, sorted by date.
// A user with no accounts yields an empty, incomplete result rather than
// an error.
func (w *Windows) TransactionsInWindow(ctx context.Context, userID string, reference time.Time, windowDays int) (core.WindowResult, error) {
	if userID == "" {
		return core.WindowResult{}, core.ErrEmptyUserID
	}
	start, end, err := core.WindowBounds(reference, windowDays)
	if err != nil {
		return core.WindowResult{}, err
	}

	accounts, err := w.store.AccountsForUser(ctx, userID)
	if err != nil {
		return core.WindowResult{}, fmt.Errorf("load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return core.NewWindowResult(nil, start, end), nil
	}

	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	records, err := w.store.TransactionsForAccounts(ctx, ids, start, end)
	if err != nil {
		return core.WindowResult{}, fmt.Errorf("load transactions: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return core.NewWindowResult(records, start, end), nil
}

// AccountsSnapshot returns the user's current account balances. The
// ledger keeps no historical balance log, so this is a current-state
// snapshot rather than a point-in-time reconstruction at reference.
func (w *Windows) AccountsSnapshot(ctx context.Context, userID string, reference time.Time) ([]core.Account, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	if err := core.ValidateReference(reference); err != nil {
		return nil, err
	}
	accounts, err := w.store.AccountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	return accounts, nil
}

// LiabilitiesSnapshot returns the user's liability rows joined to their
// accounts.
func (w *Windows) LiabilitiesSnapshot(ctx context.Context, userID string, reference time.Time) ([]core.Liability, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	if err := core.ValidateReference(reference); err != nil {
		return nil, err
	}
	liabilities, err := w.store.LiabilitiesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load liabilities: %w", err)
	}
	return liabilities, nil
}
