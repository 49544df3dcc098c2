package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/ledger"
)

// Store is the in-memory, ordered list of transactions the client renders from.
// Readers always see either the previous or the next complete list.
type Store struct {
	mu           sync.RWMutex
	transactions []ledger.Transaction
}

func New() *Store {
	return &Store{}
}

// ReplaceAll swaps the whole collection. The input slice is copied.
func (s *Store) ReplaceAll(transactions []ledger.Transaction) {
	next := make([]ledger.Transaction, len(transactions))
	copy(next, transactions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = next
}

// Append adds a transaction at the end without touching existing entries.
func (s *Store) Append(tx ledger.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]ledger.Transaction, len(s.transactions), len(s.transactions)+1)
	copy(next, s.transactions)
	s.transactions = append(next, tx)
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// Fetcher loads the authoritative transaction list.
type Fetcher interface {
	FetchTransactions(ctx context.Context) ([]ledger.Transaction, error)
}

// Refresher reloads a Store from a Fetcher.
type Refresher struct {
	Source Fetcher
	Store  *Store
	Logger logrus.FieldLogger
}

// Refresh fetches the list and replaces the store contents. On failure the
// store keeps what it had.
func (r *Refresher) Refresh(ctx context.Context) error {
	transactions, err := r.Source.FetchTransactions(ctx)
	if err != nil {
		if r.Logger != nil {
			r.Logger.WithError(err).Warn("Store.Refresh.Error")
		}
		return err
	}
	r.Store.ReplaceAll(transactions)
	if r.Logger != nil {
		r.Logger.WithField("transactionCount", len(transactions)).Debug("Store.Refresh.Complete")
	}
	return nil
}
