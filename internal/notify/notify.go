package notify

import (
	"context"
	"time"

	"wallet-node-ledger-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event codes emitted by wallet and membership flows.
const (
	EventDepositReceived     = "wallet.deposit_received"
	EventWithdrawalRequested = "wallet.withdrawal_requested"
	EventMembershipActivated = "membership.activated"
)

// Dispatcher is the notification collaborator. Delivery is fire-and-forget
// from the ledger's perspective: a failed dispatch never rolls back a
// completed ledger mutation.
type Dispatcher interface {
	SendEvent(ctx context.Context, userId, eventCode string, payload map[string]string) (*models.DeliveryLog, error)
}

// LogDispatcher records events to the structured log. The real multi-channel
// delivery pipeline lives outside this system.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) SendEvent(_ context.Context, userId, eventCode string, payload map[string]string) (*models.DeliveryLog, error) {
	log := &models.DeliveryLog{
		Id:        uuid.New().String(),
		UserId:    userId,
		EventCode: eventCode,
		Channel:   "log",
		SentAt:    time.Now().UTC(),
	}

	zap.L().Info("Notification event dispatched",
		zap.String("delivery_id", log.Id),
		zap.String("user_id", userId),
		zap.String("event_code", eventCode),
		zap.Any("payload", payload))
	return log, nil
}
