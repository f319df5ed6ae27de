package flows

import (
	"time"

	"usta-bot/internal/stories/geo"
)

// CreateOrderFlowData - data for create order
type CreateOrderFlowData struct {
	IsAdmin     bool
	ClientName  string
	ClientPhone string
	Address     string
	Location    *geo.Point
	Province    string
	Region      string
	// Technician picked by the admin; nil for automatic dispatch
	MasterID     *int64
	MasterName   string
	AutoDispatch bool
	ProductPage  int
	ItemID       int64
	Product      string
	Barcode      *string
	// Nil when the date is unknown
	ProductDate *time.Time
}

// AddMasterFlowData - data for add master
type AddMasterFlowData struct {
	Name       string
	Phone      string
	TelegramID int64
	Province   string
}

// AddProductFlowData - data for add product. Restock is the technician variant scoped to Region.
type AddProductFlowData struct {
	Restock  bool
	Region   *string
	Name     string
	Quantity int
	Price    int64
	Category *string
}

// ImportFlowData - data for excel import. Nil Region imports region-less stock.
type ImportFlowData struct {
	Region *string
}

// WorkFlowData - data for order work steps
type WorkFlowData struct {
	OrderID int64
}
