package states

import (
	"slices"
	"strings"
)

type State string

const (
	StateNone State = "none"
)

// co -> create order
// am -> admin add master
// ap -> add product
// ix -> import xlsx
// wk -> order work
// st -> start location

// create order states
const (
	CreateOrderWaitName        State = "co_wt_name"
	CreateOrderWaitPhone       State = "co_wt_phone"
	CreateOrderWaitLocation    State = "co_wt_location"
	CreateOrderWaitRegion      State = "co_wt_region"
	CreateOrderWaitMaster      State = "co_wt_master"
	CreateOrderWaitProduct     State = "co_wt_product"
	CreateOrderWaitBarcode     State = "co_wt_barcode"
	CreateOrderWaitProductDate State = "co_wt_product_date"
	CreateOrderWaitQuantity    State = "co_wt_quantity"
)

// add master states
const (
	AddMasterWaitName       State = "am_wt_name"
	AddMasterWaitPhone      State = "am_wt_phone"
	AddMasterWaitTelegramID State = "am_wt_telegram_id"
	AddMasterWaitRegion     State = "am_wt_region"
)

// add product states
const (
	AddProductWaitName        State = "ap_wt_name"
	AddProductWaitQuantity    State = "ap_wt_quantity"
	AddProductWaitPrice       State = "ap_wt_price"
	AddProductWaitCategory    State = "ap_wt_category"
	AddProductWaitSubcategory State = "ap_wt_subcategory"
)

// import states
const (
	ImportWaitRegion State = "ix_wt_region"
	ImportWaitFile   State = "ix_wt_file"
)

// order work states
const (
	WorkWaitArrivalGPS    State = "wk_wt_arrival_gps"
	WorkWaitBeforePhoto   State = "wk_wt_before_photo"
	WorkWaitAfterPhoto    State = "wk_wt_after_photo"
	WorkWaitCompletionGPS State = "wk_wt_completion_gps"
	WorkWaitWarranty      State = "wk_wt_warranty"
	WorkWaitSparePart     State = "wk_wt_spare_part"
)

// start location states
const (
	StartWaitLocation         State = "st_wt_location"
	ServiceCenterWaitLocation State = "st_wt_service_center"
)

// Flow prefixes used by the router to pick a handler.
const (
	PrefixCreateOrder = "co_"
	PrefixAddMaster   = "am_"
	PrefixAddProduct  = "ap_"
	PrefixImport      = "ix_"
	PrefixWork        = "wk_"
	PrefixStart       = "st_"
)

func (s State) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(s), prefix)
}

// InputKind is the kind of message a user sent.
type InputKind int

const (
	InputText InputKind = iota + 1
	InputContact
	InputLocation
	InputPhoto
	InputDocument
	InputCallback
)

var accepts = map[State][]InputKind{
	CreateOrderWaitName:        {InputText},
	CreateOrderWaitPhone:       {InputText, InputContact},
	CreateOrderWaitLocation:    {InputLocation},
	CreateOrderWaitRegion:      {InputCallback},
	CreateOrderWaitMaster:      {InputCallback},
	CreateOrderWaitProduct:     {InputCallback},
	CreateOrderWaitBarcode:     {InputText},
	CreateOrderWaitProductDate: {InputText},
	CreateOrderWaitQuantity:    {InputText},

	AddMasterWaitName:       {InputText},
	AddMasterWaitPhone:      {InputText, InputContact},
	AddMasterWaitTelegramID: {InputText},
	AddMasterWaitRegion:     {InputCallback},

	AddProductWaitName:        {InputText},
	AddProductWaitQuantity:    {InputText},
	AddProductWaitPrice:       {InputText},
	AddProductWaitCategory:    {InputText},
	AddProductWaitSubcategory: {InputText},

	ImportWaitRegion: {InputText},
	ImportWaitFile:   {InputDocument},

	WorkWaitArrivalGPS:    {InputLocation},
	WorkWaitBeforePhoto:   {InputPhoto},
	WorkWaitAfterPhoto:    {InputPhoto},
	WorkWaitCompletionGPS: {InputLocation},
	WorkWaitWarranty:      {InputCallback},
	WorkWaitSparePart:     {InputPhoto},

	StartWaitLocation:         {InputLocation},
	ServiceCenterWaitLocation: {InputLocation},
}

// Accepts reports whether the step can consume the input. Unknown steps accept nothing.
func Accepts(state State, kind InputKind) bool {
	return slices.Contains(accepts[state], kind)
}
