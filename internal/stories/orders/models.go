package orders

import (
	"time"

	"github.com/samber/lo"

	"usta-bot/internal/stories/geo"
)

type Status string

const (
	StatusNew               Status = "new"
	StatusAccepted          Status = "accepted"
	StatusOnWay             Status = "on_way"
	StatusArrived           Status = "arrived"
	StatusFinishOrderReady  Status = "finish_order_ready"
	StatusSparePartPending  Status = "spare_part_pending"
	StatusSparePartReceived Status = "spare_part_received"
	StatusDelivered         Status = "delivered"
)

// Warranty is tri-state until the technician or the product-age heuristic decides it.
type Warranty string

const (
	WarrantyUnknown Warranty = "unknown"
	WarrantyValid   Warranty = "valid"
	WarrantyExpired Warranty = "expired"
)

// Payout holds the persisted money columns of an order.
type Payout struct {
	DistanceFee  int64
	WorkFee      int64
	ProductTotal int64
	TotalPayment int64
}

type Order struct {
	ID          int64
	ClientName  string
	ClientPhone string
	Address     string
	Location    *geo.Point
	Region      string
	Product     string
	Quantity    int
	UnitPrice   int64
	ProductDate *time.Time
	Barcode     *string

	Status           Status
	MasterID         *int64
	MasterTelegramID *int64
	CreatedBy        int64

	Warranty           Warranty
	WorkType           *geo.WorkType
	BeforePhoto        *string
	AfterPhoto         *string
	SparePartPhoto     *string
	SparePartSent      bool
	SparePartReceived  bool
	ArrivalLocation    *geo.Point
	CompletionLocation *geo.Point

	DistanceKm float64
	Payout     Payout

	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	DeliveredAt *time.Time
}

// AssignedTo reports whether the order belongs to the technician with the given chat identity.
func (o *Order) AssignedTo(telegramID int64) bool {
	return o.MasterTelegramID != nil && *o.MasterTelegramID == telegramID
}

func (o *Order) IsDelivered() bool {
	return o.Status == StatusDelivered
}

// UpdateParams lists the columns a transition may write. Nil fields are left untouched.
type UpdateParams struct {
	Status             *Status
	MasterID           *int64
	MasterTelegramID   *int64
	Warranty           *Warranty
	WorkType           *geo.WorkType
	ClearWorkType      bool
	BeforePhoto        *string
	AfterPhoto         *string
	SparePartPhoto     *string
	SparePartSent      *bool
	SparePartReceived  *bool
	ArrivalLocation    *geo.Point
	CompletionLocation *geo.Point
	DistanceKm         *float64
	Payout             *Payout
	AcceptedAt         *time.Time
	DeliveredAt        *time.Time

	// Basis, when set, also requires the row to still hold the warranty and work type
	// the payout was computed from.
	Basis *PayoutBasis
}

// PayoutBasis is the part of an order that changes the work fee after arrival.
type PayoutBasis struct {
	Warranty Warranty
	WorkType *geo.WorkType
}

// BasisOf captures the warranty and work type of o.
func BasisOf(o *Order) *PayoutBasis {
	b := &PayoutBasis{Warranty: o.Warranty}
	if o.WorkType != nil {
		b.WorkType = lo.ToPtr(*o.WorkType)
	}
	return b
}

// Matches reports whether o still has the basis.
func (b PayoutBasis) Matches(o *Order) bool {
	if o.Warranty != b.Warranty {
		return false
	}
	if b.WorkType == nil || o.WorkType == nil {
		return b.WorkType == nil && o.WorkType == nil
	}
	return *b.WorkType == *o.WorkType
}

type ListCriteria struct {
	MasterTelegramID *int64
	Statuses         []Status
	CreatedBefore    *time.Time
	Limit            int
}

// CreateParams is the form collected by the create-order conversation.
type CreateParams struct {
	ClientName  string
	ClientPhone string
	Address     string
	Location    *geo.Point
	Region      string
	Product     string
	Quantity    int
	ProductDate *time.Time
	Barcode     *string
	CreatedBy   int64
}
