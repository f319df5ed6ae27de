package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"usta-bot/internal/stories/orders"
)

type RegionStats struct {
	Region     string `db:"region"`
	OrderCount int    `db:"order_count"`
}

type StatisticsData struct {
	MastersCount       int
	OrdersByStatus     map[orders.Status]int
	OrdersToday        int
	DeliveredToday     int
	DeliveredThisMonth int
	PayoutToday        int64
	PayoutThisMonth    int64
	WarehouseRows      int
	WarehouseUnits     int
	EmptyWarehouseRows int
	TopRegions         []RegionStats
}

func (s *storageImpl) GetMastersCount(ctx context.Context) (int, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*)").
		From(mastersTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return count, nil
}

func (s *storageImpl) GetOrdersCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*)").
		From(ordersTable).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return count, nil
}

// GetDeliveredBetween returns how many orders were delivered in the period and their total payout.
func (s *storageImpl) GetDeliveredBetween(ctx context.Context, start, end time.Time) (int, int64, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*) AS cnt", "COALESCE(SUM(total_payment), 0) AS total").
		From(ordersTable).
		Where(sq.Eq{"status": string(orders.StatusDelivered)}).
		Where(sq.GtOrEq{"delivered_at": start}).
		Where(sq.Lt{"delivered_at": end}).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build sql query: %w", err)
	}

	var result struct {
		Count int   `db:"cnt"`
		Total int64 `db:"total"`
	}
	if err := s.db.GetContext(ctx, &result, q, args...); err != nil {
		return 0, 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return result.Count, result.Total, nil
}

func (s *storageImpl) GetWarehouseTotals(ctx context.Context) (rows, units, empty int, err error) {
	q, args, err := s.stmpBuilder().
		Select(
			"COUNT(*) AS rows_count",
			"COALESCE(SUM(quantity), 0) AS units",
			"COUNT(CASE WHEN quantity = 0 THEN 1 END) AS empty_rows",
		).
		From(warehouseTable).
		ToSql()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("build sql query: %w", err)
	}

	var result struct {
		Rows  int `db:"rows_count"`
		Units int `db:"units"`
		Empty int `db:"empty_rows"`
	}
	if err := s.db.GetContext(ctx, &result, q, args...); err != nil {
		return 0, 0, 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return result.Rows, result.Units, result.Empty, nil
}

func (s *storageImpl) GetTopRegions(ctx context.Context, limit int) ([]RegionStats, error) {
	q, args, err := s.stmpBuilder().
		Select("region", "COUNT(*) AS order_count").
		From(ordersTable).
		GroupBy("region").
		OrderBy("order_count DESC", "region ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var stats []RegionStats
	if err := s.db.SelectContext(ctx, &stats, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}
	return stats, nil
}

func (s *storageImpl) GetStatistics(ctx context.Context) (*StatisticsData, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	mastersCount, err := s.GetMastersCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get masters count: %w", err)
	}

	byStatus, err := s.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}

	ordersToday, err := s.GetOrdersCreatedBetween(ctx, todayStart, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("get today orders: %w", err)
	}

	deliveredToday, payoutToday, err := s.GetDeliveredBetween(ctx, todayStart, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("get today deliveries: %w", err)
	}

	deliveredMonth, payoutMonth, err := s.GetDeliveredBetween(ctx, monthStart, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("get month deliveries: %w", err)
	}

	rows, units, empty, err := s.GetWarehouseTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get warehouse totals: %w", err)
	}

	topRegions, err := s.GetTopRegions(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("get top regions: %w", err)
	}

	return &StatisticsData{
		MastersCount:       mastersCount,
		OrdersByStatus:     byStatus,
		OrdersToday:        ordersToday,
		DeliveredToday:     deliveredToday,
		DeliveredThisMonth: deliveredMonth,
		PayoutToday:        payoutToday,
		PayoutThisMonth:    payoutMonth,
		WarehouseRows:      rows,
		WarehouseUnits:     units,
		EmptyWarehouseRows: empty,
		TopRegions:         topRegions,
	}, nil
}
