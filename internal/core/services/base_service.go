package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/middleware"
)

// publishEvents pushes balance events to the notification collaborator after
// the owning database transaction committed. Publish failures are logged and
// swallowed: notification delivery must never unwind a committed movement.
func publishEvents(ctx context.Context, notifier portssvc.Notifier, events ...domain.BalanceEvent) {
	if notifier == nil {
		return
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, ev := range events {
		if err := notifier.PublishBalanceEvent(ctx, ev); err != nil {
			logger.Warn("failed to publish balance event",
				"user_id", ev.UserID,
				"event_type", ev.Type,
				"transaction_id", ev.TransactionID,
				"error", err,
			)
		}
	}
}
