// Package notify publishes post-commit balance events for the notification
// collaborator. The ledger core only guarantees an event is raised after a
// successful commit; delivery and formatting live on the other side of the
// channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
)

// EventChannel is the redis pub/sub channel balance events are published on.
const EventChannel = "wallet.events"

type redisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a Notifier backed by redis pub/sub.
func NewRedisNotifier(client *redis.Client) portssvc.Notifier {
	return &redisNotifier{client: client}
}

var _ portssvc.Notifier = (*redisNotifier)(nil)

func (n *redisNotifier) PublishBalanceEvent(ctx context.Context, event domain.BalanceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal balance event: %w", err)
	}
	if err := n.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish balance event: %w", err)
	}
	return nil
}

// NewRedisClient creates a redis client from a URL, verifying connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
