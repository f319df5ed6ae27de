package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const rejectionsTable = "order_rejections"

// AddRejection is idempotent per (order, master).
func (s *storageImpl) AddRejection(ctx context.Context, orderID, masterTelegramID int64) error {
	q, args, err := s.stmpBuilder().
		Insert(rejectionsTable).
		Options("OR IGNORE").
		Columns("order_id", "master_telegram_id", "created_at").
		Values(orderID, masterTelegramID, s.now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

func (s *storageImpl) ListRejections(ctx context.Context, orderID int64) ([]int64, error) {
	q, args, err := s.stmpBuilder().
		Select("master_telegram_id").
		From(rejectionsTable).
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}
	return ids, nil
}
