package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"usta-bot/internal/stories/warehouse"
)

const warehouseTable = "warehouse"

var itemRowFields = fields(itemRow{})

type itemRow struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Region      *string   `db:"region"`
	Quantity    int       `db:"quantity"`
	Price       int64     `db:"price"`
	Category    *string   `db:"category"`
	Subcategory *string   `db:"subcategory"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r itemRow) ToModel() *warehouse.Item {
	return &warehouse.Item{
		ID:          r.ID,
		Name:        r.Name,
		Region:      r.Region,
		Quantity:    r.Quantity,
		Price:       r.Price,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// sameRegion matches the region column against a possibly nil region.
func sameRegion(region *string) sq.Sqlizer {
	if region == nil {
		return sq.Eq{"region": nil}
	}
	return sq.Eq{"region": *region}
}

func (s *storageImpl) CreateItem(ctx context.Context, item warehouse.Item) (*warehouse.Item, error) {
	now := s.now()
	params := map[string]interface{}{
		"name":        item.Name,
		"region":      item.Region,
		"quantity":    item.Quantity,
		"price":       item.Price,
		"category":    item.Category,
		"subcategory": item.Subcategory,
		"created_at":  now,
		"updated_at":  now,
	}

	q, args, err := s.stmpBuilder().
		Insert(warehouseTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, warehouse.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.GetItem(ctx, warehouse.GetCriteria{ID: &id})
}

func (s *storageImpl) GetItem(ctx context.Context, criteria warehouse.GetCriteria) (*warehouse.Item, error) {
	query := s.stmpBuilder().
		Select(itemRowFields).
		From(warehouseTable)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}

	q, args, err := query.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	return s.getItem(ctx, s.db, q, args...)
}

// FindItem prefers the regional row and falls back to the region-less one.
func (s *storageImpl) FindItem(ctx context.Context, criteria warehouse.FindCriteria) (*warehouse.Item, error) {
	query := s.stmpBuilder().
		Select(itemRowFields).
		From(warehouseTable).
		Where(sq.Eq{"name": criteria.Name})

	if criteria.Region != nil {
		query = query.
			Where(sq.Or{sq.Eq{"region": *criteria.Region}, sq.Eq{"region": nil}}).
			OrderBy("CASE WHEN region IS NULL THEN 1 ELSE 0 END")
	} else {
		query = query.Where(sq.Eq{"region": nil})
	}

	q, args, err := query.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	return s.getItem(ctx, s.db, q, args...)
}

func (s *storageImpl) ListItems(ctx context.Context, criteria warehouse.ListCriteria) ([]*warehouse.Item, error) {
	query := s.stmpBuilder().
		Select(itemRowFields).
		From(warehouseTable)

	if criteria.Region != nil {
		query = query.
			Where(sq.Or{sq.Eq{"region": *criteria.Region}, sq.Eq{"region": nil}}).
			OrderBy("name ASC", "id ASC")
	} else {
		query = query.OrderBy("IFNULL(region, '') ASC", "name ASC")
	}
	if criteria.Category != nil {
		query = query.Where(sq.Eq{"category": *criteria.Category})
	}
	if criteria.Subcategory != nil {
		query = query.Where(sq.Eq{"subcategory": *criteria.Subcategory})
	}
	if criteria.MinQuantity > 0 {
		query = query.Where(sq.GtOrEq{"quantity": criteria.MinQuantity})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*warehouse.Item, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}
	return result, nil
}

// DecrementItem subtracts qty only while the row holds at least qty units.
func (s *storageImpl) DecrementItem(ctx context.Context, id int64, qty int) error {
	affected, err := s.decrement(ctx, s.db, id, qty)
	if err != nil {
		return err
	}
	if affected == 0 {
		return warehouse.ErrInsufficientStock
	}
	return nil
}

func (s *storageImpl) decrement(ctx context.Context, db sqlx.ExecerContext, id int64, qty int) (int64, error) {
	q, args, err := s.stmpBuilder().
		Update(warehouseTable).
		Set("quantity", sq.Expr("quantity - ?", qty)).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"quantity": qty}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	result, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("result.RowsAffected: %w", err)
	}
	return affected, nil
}

// UpsertImportRow adds the imported quantity to the (name, region) row. Category and
// subcategory are only filled where they were empty.
func (s *storageImpl) UpsertImportRow(ctx context.Context, row warehouse.ImportRow) (warehouse.UpsertOutcome, error) {
	var outcome warehouse.UpsertOutcome

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.lockedItem(ctx, tx, row.Name, row.Region)
		if err != nil {
			return err
		}

		now := s.now()
		if existing == nil {
			outcome = warehouse.UpsertInserted
			return s.insertItem(ctx, tx, map[string]interface{}{
				"name":        row.Name,
				"region":      row.Region,
				"quantity":    row.Quantity,
				"category":    row.Category,
				"subcategory": row.Subcategory,
				"created_at":  now,
				"updated_at":  now,
			})
		}

		outcome = warehouse.UpsertUpdated
		q, args, err := s.stmpBuilder().
			Update(warehouseTable).
			Set("quantity", sq.Expr("quantity + ?", row.Quantity)).
			Set("category", sq.Expr("COALESCE(category, ?)", row.Category)).
			Set("subcategory", sq.Expr("COALESCE(subcategory, ?)", row.Subcategory)).
			Set("updated_at", now).
			Where(sq.Eq{"id": existing.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

// RestockItem adds quantity to the exact (name, region) row and replaces its price.
func (s *storageImpl) RestockItem(ctx context.Context, item warehouse.Item) (*warehouse.Item, warehouse.UpsertOutcome, error) {
	var (
		outcome warehouse.UpsertOutcome
		id      int64
	)

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.lockedItem(ctx, tx, item.Name, item.Region)
		if err != nil {
			return err
		}

		now := s.now()
		if existing == nil {
			outcome = warehouse.UpsertInserted
			return s.insertItemReturningID(ctx, tx, &id, map[string]interface{}{
				"name":        item.Name,
				"region":      item.Region,
				"quantity":    item.Quantity,
				"price":       item.Price,
				"category":    item.Category,
				"subcategory": item.Subcategory,
				"created_at":  now,
				"updated_at":  now,
			})
		}

		outcome = warehouse.UpsertUpdated
		id = existing.ID
		q, args, err := s.stmpBuilder().
			Update(warehouseTable).
			Set("quantity", sq.Expr("quantity + ?", item.Quantity)).
			Set("price", item.Price).
			Set("category", sq.Expr("COALESCE(category, ?)", item.Category)).
			Set("subcategory", sq.Expr("COALESCE(subcategory, ?)", item.Subcategory)).
			Set("updated_at", now).
			Where(sq.Eq{"id": existing.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	updated, err := s.GetItem(ctx, warehouse.GetCriteria{ID: &id})
	if err != nil {
		return nil, 0, err
	}
	return updated, outcome, nil
}

func (s *storageImpl) lockedItem(ctx context.Context, tx *sqlx.Tx, name string, region *string) (*warehouse.Item, error) {
	q, args, err := s.stmpBuilder().
		Select(itemRowFields).
		From(warehouseTable).
		Where(sq.Eq{"name": name}).
		Where(sameRegion(region)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}
	return s.getItem(ctx, tx, q, args...)
}

func (s *storageImpl) insertItem(ctx context.Context, tx *sqlx.Tx, params map[string]interface{}) error {
	var id int64
	return s.insertItemReturningID(ctx, tx, &id, params)
}

func (s *storageImpl) insertItemReturningID(ctx context.Context, tx *sqlx.Tx, id *int64, params map[string]interface{}) error {
	q, args, err := s.stmpBuilder().
		Insert(warehouseTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	result, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return warehouse.ErrAlreadyExists
		}
		return fmt.Errorf("tx.ExecContext: %w", err)
	}

	*id, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId: %w", err)
	}
	return nil
}

func (s *storageImpl) getItem(ctx context.Context, db sqlx.QueryerContext, q string, args ...interface{}) (*warehouse.Item, error) {
	var row itemRow
	if err := sqlx.GetContext(ctx, db, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return row.ToModel(), nil
}
