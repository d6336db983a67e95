package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/platform/notify"
)

func TestRedisNotifier_PublishBalanceEvent(t *testing.T) {
	client, mock := redismock.NewClientMock()
	notifier := notify.NewRedisNotifier(client)

	event := domain.BalanceEvent{
		UserID:        uuid.NewString(),
		Type:          domain.HistoryTransferIn,
		Amount:        4,
		CurrencyCode:  domain.DefaultCurrency,
		Message:       "Transfer from a friend",
		TransactionID: uuid.NewString(),
		OccurredAt:    time.Now().UTC().Truncate(time.Second),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectPublish(notify.EventChannel, payload).SetVal(1)

	err = notifier.PublishBalanceEvent(context.Background(), event)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNotifier_PublishFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	notifier := notify.NewRedisNotifier(client)

	event := domain.BalanceEvent{UserID: uuid.NewString(), Type: domain.HistoryTopup, Amount: 2}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectPublish(notify.EventChannel, payload).SetErr(context.DeadlineExceeded)

	err = notifier.PublishBalanceEvent(context.Background(), event)

	assert.Error(t, err)
}

func TestNoopNotifier(t *testing.T) {
	notifier := notify.NewNoopNotifier()

	err := notifier.PublishBalanceEvent(context.Background(), domain.BalanceEvent{UserID: uuid.NewString()})

	assert.NoError(t, err)
}
