package ledger

import (
	"fmt"
	"strings"
)

// Kind classifies a transaction as money coming in or going out.
type Kind int8

const (
	KindIncome Kind = iota
	KindExpense
)

// API labels used by the transactions endpoints.
const (
	labelIncome  = "ingreso"
	labelExpense = "gasto"
)

var kindAliases = map[string]Kind{
	labelIncome:  KindIncome,
	"income":     KindIncome,
	labelExpense: KindExpense,
	"egreso":     KindExpense,
	"expense":    KindExpense,
}

// ParseKind translates an incoming label into a Kind. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseKind(label string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, label)
	}
	return kind, nil
}

// APILabel is the label the server sends and expects on the wire.
func (k Kind) APILabel() string {
	if k == KindIncome {
		return labelIncome
	}
	return labelExpense
}

func (k Kind) String() string {
	switch k {
	case KindIncome:
		return "income"
	case KindExpense:
		return "expense"
	default:
		return fmt.Sprintf("Kind(%d)", int8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}
