package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaptureBalanceSnapshots copies the current balances of every account into
// the snapshot table and returns the number of snapshots written.
func (s *Service) CaptureBalanceSnapshots(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, queryListAccountIds)
	if err != nil {
		return 0, fmt.Errorf("unable to list accounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accountIds []string
	for rows.Next() {
		var accountId string
		if err := rows.Scan(&accountId); err != nil {
			return 0, fmt.Errorf("unable to scan account id: %w", err)
		}
		accountIds = append(accountIds, accountId)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating account rows: %w", err)
	}

	captured := 0
	for _, accountId := range accountIds {
		if _, err := s.db.ExecContext(ctx, queryInsertBalanceSnapshot, uuid.New().String(), accountId); err != nil {
			zap.L().Error("Failed to capture balance snapshot",
				zap.String("account_id", accountId), zap.Error(err))
			continue
		}
		captured++
	}

	zap.L().Info("Balance snapshots captured", zap.Int("count", captured))
	return captured, nil
}
