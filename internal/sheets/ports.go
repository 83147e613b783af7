package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter copies a recorded transaction to an external sheet.
	TransactionExporter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)
