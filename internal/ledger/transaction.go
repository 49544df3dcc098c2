package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format shared by the API and the aggregation windows.
const DateLayout = "2006-01-02"

var (
	ErrUnknownKind        = errors.New("unknown transaction kind")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrMissingDescription = errors.New("description is required")
	ErrMissingCategory    = errors.New("category is required")
	ErrInvalidDate        = errors.New("date must start with YYYY-MM-DD")
)

// Transaction is a recorded movement of money.
type Transaction struct {
	ID          string
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	// Date is the ISO calendar date the money moved, optionally followed by a time part.
	Date       string
	RecordedAt time.Time
}

// Day returns the calendar date portion of Date.
func (t Transaction) Day() string {
	if len(t.Date) < len(DateLayout) {
		return t.Date
	}
	return t.Date[:len(DateLayout)]
}

// OnDay reports whether the transaction happened on the given YYYY-MM-DD day.
func (t Transaction) OnDay(day string) bool {
	return strings.HasPrefix(t.Date, day)
}

// Draft is a transaction that has not been persisted yet.
type Draft struct {
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	// Date may be empty, in which case the server uses the current day.
	Date string
}

// Validate checks the draft locally before it is sent anywhere.
func (d Draft) Validate() error {
	var errs []error
	if !d.Kind.Valid() {
		errs = append(errs, ErrUnknownKind)
	}
	if d.Amount.IsNegative() {
		errs = append(errs, ErrNegativeAmount)
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, ErrMissingDescription)
	}
	if strings.TrimSpace(d.Category) == "" {
		errs = append(errs, ErrMissingCategory)
	}
	if d.Date != "" {
		if _, err := ParseDate(d.Date); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseDate reads the leading YYYY-MM-DD of an ISO date or date-time string.
func ParseDate(value string) (time.Time, error) {
	if len(value) < len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	day, err := time.Parse(DateLayout, value[:len(DateLayout)])
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}
