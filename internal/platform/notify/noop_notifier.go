package notify

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that drops events. Used when no redis
// endpoint is configured (local development, tests).
func NewNoopNotifier() portssvc.Notifier {
	return noopNotifier{}
}

var _ portssvc.Notifier = noopNotifier{}

func (noopNotifier) PublishBalanceEvent(context.Context, domain.BalanceEvent) error {
	return nil
}
