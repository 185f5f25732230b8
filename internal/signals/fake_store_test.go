package signals

import (
	"context"
	"errors"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// fakeStore is an in-memory signals.Store for detector tests.
type fakeStore struct {
	accounts     []core.Account
	transactions []core.Transaction
	liabilities  map[string][]core.Liability // keyed by user id
	failReads    bool
}

var errStoreDown = errors.New("store unavailable")

func (s *fakeStore) AccountsForUser(_ context.Context, userID string) ([]core.Account, error) {
	if s.failReads {
		return nil, errStoreDown
	}
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) TransactionsForAccounts(_ context.Context, accountIDs []string, start, end time.Time) ([]core.Transaction, error) {
	if s.failReads {
		return nil, errStoreDown
	}
	ids := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		ids[id] = true
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if !ids[t.AccountID] {
			continue
		}
		day := core.Day(t.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) LiabilitiesForUser(_ context.Context, userID string) ([]core.Liability, error) {
	if s.failReads {
		return nil, errStoreDown
	}
	return s.liabilities[userID], nil
}

// date is shorthand for a UTC midnight date.
func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// charge builds a debit transaction for merchant on the given date.
func charge(id, accountID string, on time.Time, amount float64, merchant string) core.Transaction {
	return core.Transaction{
		ID:           id,
		AccountID:    accountID,
		Date:         on,
		Amount:       -amount,
		MerchantName: merchant,
		Category:     "general",
	}
}

// deposit builds a credit transaction on the given date.
func deposit(id, accountID string, on time.Time, amount float64, category string) core.Transaction {
	return core.Transaction{
		ID:        id,
		AccountID: accountID,
		Date:      on,
		Amount:    amount,
		Category:  category,
	}
}
