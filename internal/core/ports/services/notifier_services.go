package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
)

// Notifier is the outbound boundary to the notification collaborator. The core
// guarantees events are published only after the ledger transaction committed;
// publish failures are logged, never propagated into the money path.
type Notifier interface {
	PublishBalanceEvent(ctx context.Context, event domain.BalanceEvent) error
}
