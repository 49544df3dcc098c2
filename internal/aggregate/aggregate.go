// Package aggregate derives totals and chart series from a transaction snapshot.
// Results are recomputed on every call and never cached.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/finance-assistant/internal/ledger"
)

// DefaultWindowDays is the length of the dashboard's daily series.
const DefaultWindowDays = 7

type DayAmount struct {
	Day    string
	Amount decimal.Decimal
}

type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// Snapshot is everything the dashboard and history views display.
type Snapshot struct {
	TotalIncome     decimal.Decimal
	TotalExpense    decimal.Decimal
	Balance         decimal.Decimal
	DailyIncome     []DayAmount
	DailyExpense    []DayAmount
	CategoryExpense []CategoryAmount
}

// TotalByKind sums the amounts of every transaction of the given kind.
func TotalByKind(transactions []ledger.Transaction, kind ledger.Kind) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Kind == kind {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Balance is total income minus total expense.
func Balance(transactions []ledger.Transaction) decimal.Decimal {
	return TotalByKind(transactions, ledger.KindIncome).Sub(TotalByKind(transactions, ledger.KindExpense))
}

// WindowDays lists the windowDays calendar days ending at now, oldest first,
// as YYYY-MM-DD strings in now's location.
func WindowDays(now time.Time, windowDays int) []string {
	if windowDays <= 0 {
		return nil
	}
	days := make([]string, windowDays)
	for i := 0; i < windowDays; i++ {
		days[i] = now.AddDate(0, 0, i-(windowDays-1)).Format(ledger.DateLayout)
	}
	return days
}

// DailySeries sums amounts of kind per day over the window ending at now.
// A transaction belongs to a day when its date starts with that day's ISO string.
// Days without transactions are zero.
func DailySeries(transactions []ledger.Transaction, kind ledger.Kind, now time.Time, windowDays int) []DayAmount {
	days := WindowDays(now, windowDays)
	series := make([]DayAmount, len(days))
	for i, day := range days {
		amount := decimal.Zero
		for _, tx := range transactions {
			if tx.Kind == kind && tx.OnDay(day) {
				amount = amount.Add(tx.Amount)
			}
		}
		series[i] = DayAmount{Day: day, Amount: amount}
	}
	return series
}

// CategoryTotals sums expense amounts per category in the order each
// category first appears.
func CategoryTotals(transactions []ledger.Transaction) []CategoryAmount {
	index := make(map[string]int)
	var totals []CategoryAmount
	for _, tx := range transactions {
		if tx.Kind != ledger.KindExpense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(totals)
			index[tx.Category] = i
			totals = append(totals, CategoryAmount{Category: tx.Category, Amount: decimal.Zero})
		}
		totals[i].Amount = totals[i].Amount.Add(tx.Amount)
	}
	return totals
}

// Summarize builds the full Snapshot with the default window.
func Summarize(transactions []ledger.Transaction, now time.Time) Snapshot {
	income := TotalByKind(transactions, ledger.KindIncome)
	expense := TotalByKind(transactions, ledger.KindExpense)
	return Snapshot{
		TotalIncome:     income,
		TotalExpense:    expense,
		Balance:         income.Sub(expense),
		DailyIncome:     DailySeries(transactions, ledger.KindIncome, now, DefaultWindowDays),
		DailyExpense:    DailySeries(transactions, ledger.KindExpense, now, DefaultWindowDays),
		CategoryExpense: CategoryTotals(transactions),
	}
}
