package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/orders"
)

const ordersTable = "orders"

var orderRowFields = fields(orderRow{})

type orderRow struct {
	ID                int64      `db:"id"`
	ClientName        string     `db:"client_name"`
	ClientPhone       string     `db:"client_phone"`
	Address           string     `db:"address"`
	Lat               *float64   `db:"lat"`
	Lng               *float64   `db:"lng"`
	Region            string     `db:"region"`
	Product           string     `db:"product"`
	Quantity          int        `db:"quantity"`
	UnitPrice         int64      `db:"unit_price"`
	ProductDate       *time.Time `db:"product_date"`
	Barcode           *string    `db:"barcode"`
	Status            string     `db:"status"`
	MasterID          *int64     `db:"master_id"`
	MasterTelegramID  *int64     `db:"master_telegram_id"`
	CreatedBy         int64      `db:"created_by"`
	Warranty          string     `db:"warranty"`
	WorkType          *string    `db:"work_type"`
	BeforePhoto       *string    `db:"before_photo"`
	AfterPhoto        *string    `db:"after_photo"`
	SparePartPhoto    *string    `db:"spare_part_photo"`
	SparePartSent     bool       `db:"spare_part_sent"`
	SparePartReceived bool       `db:"spare_part_received"`
	ArrivalLat        *float64   `db:"arrival_lat"`
	ArrivalLng        *float64   `db:"arrival_lng"`
	CompletionLat     *float64   `db:"completion_lat"`
	CompletionLng     *float64   `db:"completion_lng"`
	DistanceKm        float64    `db:"distance_km"`
	DistanceFee       int64      `db:"distance_fee"`
	WorkFee           int64      `db:"work_fee"`
	ProductTotal      int64      `db:"product_total"`
	TotalPayment      int64      `db:"total_payment"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	AcceptedAt        *time.Time `db:"accepted_at"`
	DeliveredAt       *time.Time `db:"delivered_at"`
}

func (r orderRow) ToModel() *orders.Order {
	o := &orders.Order{
		ID:                 r.ID,
		ClientName:         r.ClientName,
		ClientPhone:        r.ClientPhone,
		Address:            r.Address,
		Location:           toPoint(r.Lat, r.Lng),
		Region:             r.Region,
		Product:            r.Product,
		Quantity:           r.Quantity,
		UnitPrice:          r.UnitPrice,
		ProductDate:        r.ProductDate,
		Barcode:            r.Barcode,
		Status:             orders.Status(r.Status),
		MasterID:           r.MasterID,
		MasterTelegramID:   r.MasterTelegramID,
		CreatedBy:          r.CreatedBy,
		Warranty:           orders.Warranty(r.Warranty),
		BeforePhoto:        r.BeforePhoto,
		AfterPhoto:         r.AfterPhoto,
		SparePartPhoto:     r.SparePartPhoto,
		SparePartSent:      r.SparePartSent,
		SparePartReceived:  r.SparePartReceived,
		ArrivalLocation:    toPoint(r.ArrivalLat, r.ArrivalLng),
		CompletionLocation: toPoint(r.CompletionLat, r.CompletionLng),
		DistanceKm:         r.DistanceKm,
		Payout: orders.Payout{
			DistanceFee:  r.DistanceFee,
			WorkFee:      r.WorkFee,
			ProductTotal: r.ProductTotal,
			TotalPayment: r.TotalPayment,
		},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		AcceptedAt:  r.AcceptedAt,
		DeliveredAt: r.DeliveredAt,
	}
	if r.WorkType != nil {
		o.WorkType = lo.ToPtr(geo.WorkType(*r.WorkType))
	}
	return o
}

// CreateOrderWithStock reserves stock and inserts the order atomically.
func (s *storageImpl) CreateOrderWithStock(ctx context.Context, order orders.Order, stockID int64) (*orders.Order, error) {
	var id int64

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		affected, err := s.decrement(ctx, tx, stockID, order.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return orders.ErrInsufficientStock
		}

		now := s.now()
		lat, lng := pointColumns(order.Location)
		status := order.Status
		if status == "" {
			status = orders.StatusNew
		}
		warranty := order.Warranty
		if warranty == "" {
			warranty = orders.WarrantyUnknown
		}
		params := map[string]interface{}{
			"client_name":        order.ClientName,
			"client_phone":       order.ClientPhone,
			"address":            order.Address,
			"lat":                lat,
			"lng":                lng,
			"region":             order.Region,
			"product":            order.Product,
			"quantity":           order.Quantity,
			"unit_price":         order.UnitPrice,
			"product_date":       order.ProductDate,
			"barcode":            order.Barcode,
			"status":             string(status),
			"master_id":          order.MasterID,
			"master_telegram_id": order.MasterTelegramID,
			"created_by":         order.CreatedBy,
			"warranty":           string(warranty),
			"distance_km":        order.DistanceKm,
			"distance_fee":       order.Payout.DistanceFee,
			"work_fee":           order.Payout.WorkFee,
			"product_total":      order.Payout.ProductTotal,
			"total_payment":      order.Payout.TotalPayment,
			"accepted_at":        order.AcceptedAt,
			"created_at":         now,
			"updated_at":         now,
		}

		q, args, err := s.stmpBuilder().
			Insert(ordersTable).
			SetMap(params).
			ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}

		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("result.LastInsertId: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, id)
}

func (s *storageImpl) GetOrder(ctx context.Context, id int64) (*orders.Order, error) {
	q, args, err := s.stmpBuilder().
		Select(orderRowFields).
		From(ordersTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row orderRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return row.ToModel(), nil
}

// UpdateOrder is a compare-and-set on status: the row is written only while its
// status is one of from (and matches params.Basis when set), and the written row is returned.
func (s *storageImpl) UpdateOrder(ctx context.Context, id int64, from []orders.Status, params orders.UpdateParams) (*orders.Order, error) {
	set := orderUpdateMap(params)
	set["updated_at"] = s.now()

	query := s.stmpBuilder().
		Update(ordersTable).
		SetMap(set).
		Where(sq.Eq{"id": id})

	if len(from) > 0 {
		query = query.Where(sq.Eq{"status": lo.Map(from, func(st orders.Status, _ int) string { return string(st) })})
	}
	if b := params.Basis; b != nil {
		var workType interface{}
		if b.WorkType != nil {
			workType = string(*b.WorkType)
		}
		query = query.Where(sq.Eq{"warranty": string(b.Warranty), "work_type": workType})
	}

	q, args, err := query.Suffix("RETURNING " + orderRowFields).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row orderRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return row.ToModel(), nil
}

func orderUpdateMap(p orders.UpdateParams) map[string]interface{} {
	set := map[string]interface{}{}

	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.MasterID != nil {
		set["master_id"] = *p.MasterID
	}
	if p.MasterTelegramID != nil {
		set["master_telegram_id"] = *p.MasterTelegramID
	}
	if p.Warranty != nil {
		set["warranty"] = string(*p.Warranty)
	}
	if p.WorkType != nil {
		set["work_type"] = string(*p.WorkType)
	}
	if p.ClearWorkType {
		set["work_type"] = nil
	}
	if p.BeforePhoto != nil {
		set["before_photo"] = *p.BeforePhoto
	}
	if p.AfterPhoto != nil {
		set["after_photo"] = *p.AfterPhoto
	}
	if p.SparePartPhoto != nil {
		set["spare_part_photo"] = *p.SparePartPhoto
	}
	if p.SparePartSent != nil {
		set["spare_part_sent"] = *p.SparePartSent
	}
	if p.SparePartReceived != nil {
		set["spare_part_received"] = *p.SparePartReceived
	}
	if p.ArrivalLocation != nil {
		set["arrival_lat"] = p.ArrivalLocation.Lat
		set["arrival_lng"] = p.ArrivalLocation.Lng
	}
	if p.CompletionLocation != nil {
		set["completion_lat"] = p.CompletionLocation.Lat
		set["completion_lng"] = p.CompletionLocation.Lng
	}
	if p.DistanceKm != nil {
		set["distance_km"] = *p.DistanceKm
	}
	if p.Payout != nil {
		set["distance_fee"] = p.Payout.DistanceFee
		set["work_fee"] = p.Payout.WorkFee
		set["product_total"] = p.Payout.ProductTotal
		set["total_payment"] = p.Payout.TotalPayment
	}
	if p.AcceptedAt != nil {
		set["accepted_at"] = *p.AcceptedAt
	}
	if p.DeliveredAt != nil {
		set["delivered_at"] = *p.DeliveredAt
	}

	return set
}

// ListOrders returns newest orders first.
func (s *storageImpl) ListOrders(ctx context.Context, criteria orders.ListCriteria) ([]*orders.Order, error) {
	query := s.stmpBuilder().
		Select(orderRowFields).
		From(ordersTable).
		OrderBy("created_at DESC", "id DESC")

	if criteria.MasterTelegramID != nil {
		query = query.Where(sq.Eq{"master_telegram_id": *criteria.MasterTelegramID})
	}
	if len(criteria.Statuses) > 0 {
		query = query.Where(sq.Eq{"status": lo.Map(criteria.Statuses, func(st orders.Status, _ int) string { return string(st) })})
	}
	if criteria.CreatedBefore != nil {
		query = query.Where(sq.Lt{"created_at": *criteria.CreatedBefore})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*orders.Order, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}
	return result, nil
}

func (s *storageImpl) CountOrdersByStatus(ctx context.Context) (map[orders.Status]int, error) {
	q, args, err := s.stmpBuilder().
		Select("status", "COUNT(*) AS cnt").
		From(ordersTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make(map[orders.Status]int, len(rows))
	for _, r := range rows {
		result[orders.Status(r.Status)] = r.Count
	}
	return result, nil
}
