package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-assistant/internal/ledger"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	args := m.Called(ctx)
	txs, _ := args.Get(0).([]ledger.Transaction)
	return txs, args.Error(1)
}

func tx(id string, amount string) ledger.Transaction {
	return ledger.Transaction{
		ID:          id,
		Kind:        ledger.KindExpense,
		Amount:      decimal.RequireFromString(amount),
		Description: "item " + id,
		Category:    "food",
		Date:        "2024-01-03",
	}
}

// -- Store tests --

func TestStore_ReplaceAllThenAppend(t *testing.T) {
	s := New()
	s.ReplaceAll([]ledger.Transaction{tx("1", "5"), tx("2", "10")})
	s.Append(tx("3", "1"))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Equal(t, 3, s.Len())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	input := []ledger.Transaction{tx("1", "5")}
	s := New()
	s.ReplaceAll(input)
	input[0].ID = "mutated"

	snap := s.Snapshot()
	snap[0].Description = "changed"

	again := s.Snapshot()
	assert.Equal(t, "1", again[0].ID)
	assert.Equal(t, "item 1", again[0].Description)
}

func TestStore_LastWriteWins(t *testing.T) {
	s := New()
	s.ReplaceAll([]ledger.Transaction{tx("1", "5"), tx("2", "5")})
	s.ReplaceAll([]ledger.Transaction{tx("9", "1")})

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "9", snap[0].ID)
}

func TestStore_ConcurrentReadersSeeWholeLists(t *testing.T) {
	s := New()
	small := []ledger.Transaction{tx("a", "1")}
	large := []ledger.Transaction{tx("b", "1"), tx("c", "1"), tx("d", "1")}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ReplaceAll(small)
			s.ReplaceAll(large)
		}()
		go func() {
			defer wg.Done()
			n := len(s.Snapshot())
			assert.Contains(t, []int{0, 1, 3}, n)
		}()
	}
	wg.Wait()
}

// -- Refresher tests --

func TestRefresher_Success(t *testing.T) {
	s := New()
	fetcher := new(mockFetcher)
	fetcher.On("FetchTransactions", mock.Anything).
		Return([]ledger.Transaction{tx("1", "5")}, nil)

	r := &Refresher{Source: fetcher, Store: s}
	assert.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, s.Len())
	fetcher.AssertExpectations(t)
}

func TestRefresher_ErrorKeepsContents(t *testing.T) {
	s := New()
	s.ReplaceAll([]ledger.Transaction{tx("1", "5"), tx("2", "5")})
	fetcher := new(mockFetcher)
	fetcher.On("FetchTransactions", mock.Anything).Return(nil, errors.New("offline"))

	r := &Refresher{Source: fetcher, Store: s}
	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, 2, s.Len())
}
