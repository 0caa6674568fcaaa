package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for membership billing.
var (
	ErrPlanNotFound        = errors.New("membership plan not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrUpgradeNotPermitted = errors.New("upgrade not permitted")
	ErrCurrencyMismatch    = errors.New("wallet currency mismatch")
)

// PurchasePlan debits the funding account and activates a membership in one
// atomic scope. The debit, the invoice completion and the membership
// activation commit together or not at all; a failed debit leaves the ledger
// untouched and marks the invoice failed.
func (s *Service) PurchasePlan(ctx context.Context, params store.PurchasePlanParams) (*models.UserMembership, error) {
	plan, err := s.GetPlan(ctx, params.PlanId)
	if err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, params.AccountId)
	if err != nil {
		return nil, err
	}
	if account.UserId != params.UserId {
		return nil, fmt.Errorf("%w: account %s does not belong to user %s", store.ErrAccountNotFound, params.AccountId, params.UserId)
	}
	if account.CurrencyCode != plan.CurrencyCode {
		return nil, fmt.Errorf("%w: account %s, plan priced in %s", ErrCurrencyMismatch, account.CurrencyCode, plan.CurrencyCode)
	}

	invoiceId := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertInvoice,
		invoiceId, params.UserId, plan.Id, plan.CurrencyCode, plan.Amount.String(), models.InvoicePending); err != nil {
		return nil, fmt.Errorf("unable to create invoice: %w", err)
	}

	unlock := s.locks.Lock(account.Id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.applyEntry(ctx, tx, models.DirectionDebit, store.EntryParams{
		AccountId: account.Id,
		Amount:    plan.Amount,
		Reference: "membership:" + invoiceId,
		Metadata:  map[string]string{"type": "membership", "plan_id": plan.Id},
	})
	if err != nil {
		// Release the write transaction before touching the invoice.
		_ = tx.Rollback()
		s.markInvoiceFailed(ctx, invoiceId)
		return nil, fmt.Errorf("membership debit failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryUpdateInvoice, models.InvoiceCompleted, entry.Id, invoiceId); err != nil {
		return nil, fmt.Errorf("unable to complete invoice: %w", err)
	}

	membership := &models.UserMembership{
		Id:                uuid.New().String(),
		UserId:            params.UserId,
		PlanId:            plan.Id,
		Status:            models.MembershipActive,
		LastTransactionId: entry.Id,
		StartedAt:         entry.CreatedAt,
		ExpiresAt:         entry.CreatedAt.AddDate(0, 0, plan.DurationDays),
	}
	if _, err := tx.ExecContext(ctx, queryInsertMembership,
		membership.Id, membership.UserId, membership.PlanId, membership.Status,
		membership.LastTransactionId, membership.StartedAt, membership.ExpiresAt); err != nil {
		return nil, fmt.Errorf("unable to create membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	zap.L().Info("Membership purchased",
		zap.String("membership_id", membership.Id),
		zap.String("user_id", params.UserId),
		zap.String("plan_id", plan.Id),
		zap.String("amount", plan.Amount.String()),
		zap.String("transaction_id", entry.Id))

	return membership, nil
}

// UpgradeMembership moves a membership to a permitted target plan, debiting
// the upgrade cost in the same atomic scope as the plan switch. The cost is
// the upgrade rule's additional cost, falling back to the plan price
// difference; a zero cost switches plans without a ledger entry.
func (s *Service) UpgradeMembership(ctx context.Context, params store.UpgradePlanParams) (*models.UserMembership, error) {
	membership, err := s.getMembership(ctx, params.MembershipId)
	if err != nil {
		return nil, err
	}

	if membership.PlanId == params.TargetPlanId {
		return nil, fmt.Errorf("%w: already on plan %s", ErrUpgradeNotPermitted, params.TargetPlanId)
	}

	currentPlan, err := s.GetPlan(ctx, membership.PlanId)
	if err != nil {
		return nil, err
	}
	targetPlan, err := s.GetPlan(ctx, params.TargetPlanId)
	if err != nil {
		return nil, err
	}

	rule, err := s.getUpgradeRule(ctx, membership.PlanId, params.TargetPlanId)
	if err != nil {
		return nil, err
	}

	account, err := s.GetAccount(ctx, params.AccountId)
	if err != nil {
		return nil, err
	}
	if account.UserId != membership.UserId {
		return nil, fmt.Errorf("%w: account %s does not belong to user %s", store.ErrAccountNotFound, params.AccountId, membership.UserId)
	}
	if account.CurrencyCode != targetPlan.CurrencyCode {
		return nil, fmt.Errorf("%w: account %s, plan priced in %s", ErrCurrencyMismatch, account.CurrencyCode, targetPlan.CurrencyCode)
	}

	cost := rule.AdditionalCost
	if cost.LessThanOrEqual(decimal.Zero) {
		cost = targetPlan.Amount.Sub(currentPlan.Amount)
	}
	if cost.IsNegative() {
		cost = decimal.Zero
	}

	invoiceId := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertInvoice,
		invoiceId, membership.UserId, targetPlan.Id, targetPlan.CurrencyCode, cost.String(), models.InvoicePending); err != nil {
		return nil, fmt.Errorf("unable to create invoice: %w", err)
	}

	unlock := s.locks.Lock(account.Id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lastTransactionId := membership.LastTransactionId
	if cost.IsPositive() {
		entry, err := s.applyEntry(ctx, tx, models.DirectionDebit, store.EntryParams{
			AccountId: account.Id,
			Amount:    cost,
			Reference: "membership-upgrade:" + invoiceId,
			Metadata:  map[string]string{"type": "membership-upgrade", "membership_id": membership.Id},
		})
		if err != nil {
			_ = tx.Rollback()
			s.markInvoiceFailed(ctx, invoiceId)
			return nil, fmt.Errorf("upgrade debit failed: %w", err)
		}
		lastTransactionId = entry.Id
	}

	if _, err := tx.ExecContext(ctx, queryUpdateInvoice, models.InvoiceCompleted, lastTransactionId, invoiceId); err != nil {
		return nil, fmt.Errorf("unable to complete invoice: %w", err)
	}

	expiresAt := time.Now().UTC().AddDate(0, 0, targetPlan.DurationDays)
	if _, err := tx.ExecContext(ctx, queryUpdateMembershipPlan,
		targetPlan.Id, models.MembershipActive, lastTransactionId, expiresAt, membership.Id); err != nil {
		return nil, fmt.Errorf("unable to update membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upgrade: %w", err)
	}

	zap.L().Info("Membership upgraded",
		zap.String("membership_id", membership.Id),
		zap.String("from_plan", currentPlan.Id),
		zap.String("to_plan", targetPlan.Id),
		zap.String("cost", cost.String()))

	return s.getMembership(ctx, membership.Id)
}

// markInvoiceFailed records a rejected purchase outside the atomic scope.
// Best effort: the invoice is bookkeeping, not ledger state.
func (s *Service) markInvoiceFailed(ctx context.Context, invoiceId string) {
	if _, err := s.db.ExecContext(ctx, queryUpdateInvoice, models.InvoiceFailed, "", invoiceId); err != nil {
		zap.L().Error("Failed to mark invoice failed", zap.String("invoice_id", invoiceId), zap.Error(err))
	}
}

func (s *Service) GetPlan(ctx context.Context, planId string) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	var amountStr string
	err := s.db.QueryRowContext(ctx, queryGetPlan, planId).Scan(
		&plan.Id, &plan.Name, &plan.CurrencyCode, &amountStr, &plan.DurationDays, &plan.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query plan: %w", err)
	}

	if plan.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse plan amount '%s': %w", amountStr, err)
	}
	return &plan, nil
}

// SeedPlan inserts a plan if it does not exist yet.
func (s *Service) SeedPlan(ctx context.Context, plan models.MembershipPlan) error {
	_, err := s.db.ExecContext(ctx, queryInsertPlan,
		plan.Id, plan.Name, plan.CurrencyCode, plan.Amount.String(), plan.DurationDays)
	if err != nil {
		return fmt.Errorf("unable to seed plan %s: %w", plan.Id, err)
	}
	return nil
}

// SeedUpgradeRule inserts an upgrade rule if it does not exist yet.
func (s *Service) SeedUpgradeRule(ctx context.Context, rule models.MembershipUpgradeRule) error {
	ruleId := rule.Id
	if ruleId == "" {
		ruleId = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, queryInsertUpgradeRule,
		ruleId, rule.FromPlanId, rule.ToPlanId, rule.AdditionalCost.String())
	if err != nil {
		return fmt.Errorf("unable to seed upgrade rule %s -> %s: %w", rule.FromPlanId, rule.ToPlanId, err)
	}
	return nil
}

func (s *Service) getMembership(ctx context.Context, membershipId string) (*models.UserMembership, error) {
	var membership models.UserMembership
	err := s.db.QueryRowContext(ctx, queryGetMembership, membershipId).Scan(
		&membership.Id, &membership.UserId, &membership.PlanId, &membership.Status,
		&membership.LastTransactionId, &membership.StartedAt, &membership.ExpiresAt,
		&membership.CreatedAt, &membership.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMembershipNotFound, membershipId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}
	return &membership, nil
}

func (s *Service) getUpgradeRule(ctx context.Context, fromPlanId, toPlanId string) (*models.MembershipUpgradeRule, error) {
	var rule models.MembershipUpgradeRule
	var costStr string
	err := s.db.QueryRowContext(ctx, queryGetUpgradeRule, fromPlanId, toPlanId).Scan(
		&rule.Id, &rule.FromPlanId, &rule.ToPlanId, &costStr, &rule.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUpgradeNotPermitted, fromPlanId, toPlanId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query upgrade rule: %w", err)
	}

	if rule.AdditionalCost, err = decimal.NewFromString(costStr); err != nil {
		return nil, fmt.Errorf("failed to parse upgrade cost '%s': %w", costStr, err)
	}
	return &rule, nil
}
