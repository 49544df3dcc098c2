package actions

import (
	"context"

	"github.com/carson-networks/finance-assistant/internal/storage"
)

// IAction is a unit of work run by an operator inside a storage Writer.
type IAction interface {
	Perform(ctx context.Context, writer *storage.Writer) error
}
