package membership

import (
	"context"

	"wallet-node-ledger-go/internal/database"
	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/notify"
	"wallet-node-ledger-go/internal/store"
)

// Service wraps membership billing on top of the database service, adding
// the notification dispatch that follows a completed activation.
type Service struct {
	db       *database.Service
	notifier notify.Dispatcher
}

func NewService(db *database.Service, notifier notify.Dispatcher) *Service {
	return &Service{db: db, notifier: notifier}
}

// PurchasePlan buys a plan for a user, funded by one wallet account. The
// debit and the membership activation are one atomic unit; see
// database.Service.PurchasePlan.
func (s *Service) PurchasePlan(ctx context.Context, params store.PurchasePlanParams) (*models.UserMembership, error) {
	membership, err := s.db.PurchasePlan(ctx, params)
	if err != nil {
		return nil, err
	}

	s.notifyActivated(ctx, membership)
	return membership, nil
}

// UpgradeMembership moves an existing membership to a permitted target plan.
func (s *Service) UpgradeMembership(ctx context.Context, params store.UpgradePlanParams) (*models.UserMembership, error) {
	membership, err := s.db.UpgradeMembership(ctx, params)
	if err != nil {
		return nil, err
	}

	s.notifyActivated(ctx, membership)
	return membership, nil
}

func (s *Service) notifyActivated(ctx context.Context, membership *models.UserMembership) {
	if s.notifier == nil {
		return
	}
	// Fire and forget: the purchase already committed.
	_, _ = s.notifier.SendEvent(ctx, membership.UserId, notify.EventMembershipActivated, map[string]string{
		"plan_id":    membership.PlanId,
		"expires_at": membership.ExpiresAt.Format("2006-01-02"),
	})
}
