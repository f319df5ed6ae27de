package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
)

const mastersTable = "masters"

var masterRowFields = fields(masterRow{})

type masterRow struct {
	ID               int64      `db:"id"`
	TelegramID       int64      `db:"telegram_id"`
	Name             string     `db:"name"`
	Phone            string     `db:"phone"`
	Province         string     `db:"province"`
	Region           string     `db:"region"`
	ServiceCenterLat *float64   `db:"service_center_lat"`
	ServiceCenterLng *float64   `db:"service_center_lng"`
	LastLat          *float64   `db:"last_lat"`
	LastLng          *float64   `db:"last_lng"`
	LastLocationAt   *time.Time `db:"last_location_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (r masterRow) ToModel() *masters.Master {
	return &masters.Master{
		ID:             r.ID,
		TelegramID:     r.TelegramID,
		Name:           r.Name,
		Phone:          r.Phone,
		Province:       r.Province,
		Region:         r.Region,
		ServiceCenter:  toPoint(r.ServiceCenterLat, r.ServiceCenterLng),
		LastLocation:   toPoint(r.LastLat, r.LastLng),
		LastLocationAt: r.LastLocationAt,
		CreatedAt:      r.CreatedAt,
	}
}

func toPoint(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lng: *lng}
}

func pointColumns(p *geo.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lng
}

// normalizePhoneVariants returns the number with and without the leading plus.
func normalizePhoneVariants(phone string) []string {
	digits := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	return []string{"+" + digits, digits}
}

func (s *storageImpl) CreateMaster(ctx context.Context, m masters.Master) (*masters.Master, error) {
	scLat, scLng := pointColumns(m.ServiceCenter)
	params := map[string]interface{}{
		"telegram_id":        m.TelegramID,
		"name":               m.Name,
		"phone":              m.Phone,
		"province":           m.Province,
		"region":             m.Region,
		"service_center_lat": scLat,
		"service_center_lng": scLng,
		"created_at":         s.now(),
	}

	q, args, err := s.stmpBuilder().
		Insert(mastersTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, masters.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.GetMaster(ctx, masters.GetCriteria{ID: &id})
}

func (s *storageImpl) GetMaster(ctx context.Context, criteria masters.GetCriteria) (*masters.Master, error) {
	query := s.stmpBuilder().
		Select(masterRowFields).
		From(mastersTable)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}
	if criteria.Phone != nil {
		query = query.Where(sq.Eq{"phone": normalizePhoneVariants(*criteria.Phone)})
	}

	q, args, err := query.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row masterRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

// UpdateMaster returns nil when no master matches the criteria.
func (s *storageImpl) UpdateMaster(ctx context.Context, criteria masters.GetCriteria, params masters.UpdateParams) (*masters.Master, error) {
	set := map[string]interface{}{}
	if params.ServiceCenter != nil {
		set["service_center_lat"] = params.ServiceCenter.Lat
		set["service_center_lng"] = params.ServiceCenter.Lng
	}
	if params.LastLocation != nil {
		set["last_lat"] = params.LastLocation.Lat
		set["last_lng"] = params.LastLocation.Lng
	}
	if params.LastLocationAt != nil {
		set["last_location_at"] = *params.LastLocationAt
	}
	if len(set) == 0 {
		return s.GetMaster(ctx, criteria)
	}

	query := s.stmpBuilder().
		Update(mastersTable).
		SetMap(set)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}

	q, args, err := query.Suffix("RETURNING " + masterRowFields).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row masterRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) ListMasters(ctx context.Context, criteria masters.ListCriteria) ([]*masters.Master, error) {
	query := s.stmpBuilder().
		Select(masterRowFields).
		From(mastersTable).
		OrderBy("id ASC")

	if criteria.Region != nil {
		query = query.Where(sq.Eq{"region": *criteria.Region})
	}
	if len(criteria.ExcludeTelegramIDs) > 0 {
		query = query.Where(sq.NotEq{"telegram_id": criteria.ExcludeTelegramIDs})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []masterRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*masters.Master, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}
	return result, nil
}
