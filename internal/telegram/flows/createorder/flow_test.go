package createorder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/regions"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

const (
	adminChat  = int64(100)
	masterChat = int64(700)
)

type fakeOrders struct {
	created  []orders.CreateParams
	creators []*masters.Master
	err      error
}

func (f *fakeOrders) Create(_ context.Context, p orders.CreateParams, creator *masters.Master) (*orders.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	f.creators = append(f.creators, creator)
	return &orders.Order{
		ID:       int64(len(f.created)),
		Region:   p.Region,
		Product:  p.Product,
		Quantity: p.Quantity,
		Barcode:  p.Barcode,
	}, nil
}

type fakeDispatcher struct {
	result     dispatch.Result
	dispatched []int64
	offeredTo  []int64
}

func (f *fakeDispatcher) Dispatch(_ context.Context, o *orders.Order) (dispatch.Result, error) {
	f.dispatched = append(f.dispatched, o.ID)
	return f.result, nil
}

func (f *fakeDispatcher) OfferTo(_ context.Context, o *orders.Order, m *masters.Master) (dispatch.Result, error) {
	f.offeredTo = append(f.offeredTo, m.TelegramID)
	return dispatch.Result{Mode: dispatch.ModeOffered}, nil
}

type fakeMasters struct {
	list []*masters.Master
}

func (f *fakeMasters) GetByID(_ context.Context, id int64) (*masters.Master, error) {
	for _, m := range f.list {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, masters.ErrNotFound
}

func (f *fakeMasters) GetByTelegramID(_ context.Context, tg int64) (*masters.Master, error) {
	for _, m := range f.list {
		if m.TelegramID == tg {
			return m, nil
		}
	}
	return nil, masters.ErrNotFound
}

func (f *fakeMasters) ListByRegion(_ context.Context, region string, _ []int64) ([]*masters.Master, error) {
	var out []*masters.Master
	for _, m := range f.list {
		if m.Region == region {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMasters) ListAll(context.Context) ([]*masters.Master, error) {
	return f.list, nil
}

type fakeStock struct {
	items []*warehouse.Item
}

func (f *fakeStock) Get(_ context.Context, id int64) (*warehouse.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, warehouse.ErrNotFound
}

func (f *fakeStock) ListByRegionAndCategory(_ context.Context, region *string, _, _ *string, minQty int) ([]*warehouse.Item, error) {
	var out []*warehouse.Item
	for _, it := range f.items {
		if it.Region != nil && region != nil && *it.Region == *region && it.Quantity >= minQty {
			out = append(out, it)
		}
	}
	return out, nil
}

type fixture struct {
	h     *Handler
	bot   *flows.MockBotApi
	sm    *states.Manager
	ord   *fakeOrders
	disp  *fakeDispatcher
	ms    *fakeMasters
	stock *fakeStock
}

func newFixture(region string) *fixture {
	f := &fixture{
		bot:  &flows.MockBotApi{},
		sm:   states.NewManager(nil),
		ord:  &fakeOrders{},
		disp: &fakeDispatcher{result: dispatch.Result{Mode: dispatch.ModeBroadcast, Notified: 2}},
		ms: &fakeMasters{list: []*masters.Master{
			{ID: 1, TelegramID: masterChat, Name: "Aziz", Region: region},
			{ID: 2, TelegramID: 701, Name: "Bobur", Region: "Termiz"},
		}},
		stock: &fakeStock{items: []*warehouse.Item{
			{ID: 10, Name: "Konditsioner", Region: &region, Quantity: 5},
			{ID: 11, Name: "Muzlatgich", Region: &region, Quantity: 0},
		}},
	}
	f.h = NewHandler(f.bot, f.sm, f.ord, f.disp, f.ms, f.stock, regions.MustCatalog(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *fixture) step(t *testing.T, chatID int64, update any) {
	t.Helper()
	var err error
	switch u := update.(type) {
	case string:
		err = f.h.Handle(context.Background(), flows.TextUpdate(chatID, u), f.sm.GetState(chatID))
	case callback:
		err = f.h.Handle(context.Background(), flows.CallbackUpdate(chatID, string(u)), f.sm.GetState(chatID))
	case location:
		err = f.h.Handle(context.Background(), flows.LocationUpdate(chatID, u[0], u[1]), f.sm.GetState(chatID))
	default:
		t.Fatalf("unsupported update %T", update)
	}
	if err != nil {
		t.Fatalf("Handle(%v): %v", update, err)
	}
}

type (
	callback string
	location [2]float64
)

func TestAdminCreateOrderAutoDispatch(t *testing.T) {
	catalog := regions.MustCatalog()
	province := catalog.Provinces()[0]
	district := catalog.Districts(province)[0]
	f := newFixture(district)

	if err := f.h.StartAdmin(adminChat); err != nil {
		t.Fatalf("StartAdmin: %v", err)
	}
	f.step(t, adminChat, "Dilshod")
	f.step(t, adminChat, "+998 90 111 22 33")
	f.step(t, adminChat, location{41.31, 69.28})
	if f.sm.GetState(adminChat) != states.CreateOrderWaitRegion {
		t.Fatalf("state = %q, want region step", f.sm.GetState(adminChat))
	}
	f.step(t, adminChat, callback(callbacks.Data(callbacks.RegionCat, 0)))
	f.step(t, adminChat, callback(callbacks.Data(callbacks.RegionSub, 0, 0)))
	if got := f.bot.LastText(); got != messages.ChooseMaster {
		t.Errorf("master prompt = %q", got)
	}
	f.step(t, adminChat, callback(callbacks.AutoDispatch))
	if got := f.bot.LastText(); got != messages.ChooseProduct {
		t.Errorf("product prompt = %q", got)
	}
	f.step(t, adminChat, callback(callbacks.Data(callbacks.Product, 10)))
	f.step(t, adminChat, "-")
	if got := f.bot.LastText(); got != messages.AskProductDate {
		t.Errorf("product date prompt = %q", got)
	}
	f.step(t, adminChat, "-")
	f.step(t, adminChat, "2")

	if len(f.ord.created) != 1 {
		t.Fatalf("created %d orders, want 1", len(f.ord.created))
	}
	p := f.ord.created[0]
	if p.ClientPhone != "+998901112233" || p.Region != district || p.Product != "Konditsioner" || p.Quantity != 2 || p.Barcode != nil || p.ProductDate != nil {
		t.Errorf("params = %+v", p)
	}
	if p.Address != messages.AddressFromLocation || p.Location == nil || p.Location.Lat != 41.31 {
		t.Errorf("location = %+v", p.Location)
	}
	if f.ord.creators[0] != nil {
		t.Error("admin orders have no creator technician")
	}
	if len(f.disp.dispatched) != 1 {
		t.Errorf("dispatched = %v", f.disp.dispatched)
	}
	want := messages.OrderCreated(1, "Konditsioner", 2, nil) + "\n\n" + messages.DispatchedBroadcast(district, 2)
	if got := f.bot.LastText(); got != want {
		t.Errorf("final reply = %q, want %q", got, want)
	}
	if f.sm.GetState(adminChat) != states.StateNone {
		t.Errorf("session must be cleared, state = %q", f.sm.GetState(adminChat))
	}
}

func TestAdminSelectedMasterDrivesRegion(t *testing.T) {
	f := newFixture("Termiz")
	f.sm.SetState(adminChat, states.CreateOrderWaitMaster, &flows.CreateOrderFlowData{
		IsAdmin: true, ClientName: "A", ClientPhone: "+998901112233", Region: "Chilonzor",
	})

	f.step(t, adminChat, callback(callbacks.Data(callbacks.SelectMaster, 2)))
	if got := f.bot.LastText(); got != messages.SelectedMaster("Bobur") {
		t.Errorf("reply = %q", got)
	}
	f.step(t, adminChat, callback(callbacks.Data(callbacks.Product, 10)))
	f.step(t, adminChat, "SN-1")
	f.step(t, adminChat, "15.05.2025")
	f.step(t, adminChat, "1")

	if len(f.ord.created) != 1 || f.ord.created[0].Region != "Termiz" {
		t.Fatalf("created = %+v", f.ord.created)
	}
	if b := f.ord.created[0].Barcode; b == nil || *b != "SN-1" {
		t.Errorf("barcode = %v", b)
	}
	want := time.Date(2025, 5, 15, 0, 0, 0, 0, time.Local)
	if d := f.ord.created[0].ProductDate; d == nil || !d.Equal(want) {
		t.Errorf("product date = %v, want %v", d, want)
	}
	if len(f.disp.offeredTo) != 1 || f.disp.offeredTo[0] != 701 || len(f.disp.dispatched) != 0 {
		t.Errorf("offered = %v, dispatched = %v", f.disp.offeredTo, f.disp.dispatched)
	}
}

func TestMasterCreatesOrderInOwnRegion(t *testing.T) {
	f := newFixture("Yunusobod")

	if err := f.h.StartMaster(masterChat, "Yunusobod"); err != nil {
		t.Fatalf("StartMaster: %v", err)
	}
	f.step(t, masterChat, "Dilshod")
	f.step(t, masterChat, "998901112233")
	f.step(t, masterChat, location{41.3, 69.2})
	if f.sm.GetState(masterChat) != states.CreateOrderWaitProduct {
		t.Fatalf("technicians skip region and master steps, state = %q", f.sm.GetState(masterChat))
	}
	f.step(t, masterChat, callback(callbacks.Data(callbacks.Product, 10)))
	if f.sm.GetState(masterChat) != states.CreateOrderWaitQuantity {
		t.Fatalf("technicians skip the barcode step, state = %q", f.sm.GetState(masterChat))
	}
	f.step(t, masterChat, "1")

	if len(f.ord.creators) != 1 || f.ord.creators[0] == nil || f.ord.creators[0].TelegramID != masterChat {
		t.Fatalf("creator = %+v", f.ord.creators)
	}
	if len(f.disp.dispatched)+len(f.disp.offeredTo) != 0 {
		t.Error("technician orders are not dispatched")
	}
	if got := f.bot.LastText(); got != messages.MasterOrderCreated {
		t.Errorf("reply = %q", got)
	}
}

func TestShortageEndsFlow(t *testing.T) {
	f := newFixture("Yunusobod")
	f.ord.err = &orders.ShortageError{Available: 3}
	f.sm.SetState(adminChat, states.CreateOrderWaitQuantity, &flows.CreateOrderFlowData{
		IsAdmin: true, Region: "Yunusobod", Product: "Konditsioner",
	})

	f.step(t, adminChat, "9")

	if got := f.bot.LastText(); got != messages.ShortageReply(3) {
		t.Errorf("reply = %q", got)
	}
	if f.sm.GetState(adminChat) != states.StateNone {
		t.Errorf("state = %q, want cleared", f.sm.GetState(adminChat))
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		state states.State
		text  string
		want  string
	}{
		{name: "short phone", state: states.CreateOrderWaitPhone, text: "123", want: messages.InvalidPhone},
		{name: "zero quantity", state: states.CreateOrderWaitQuantity, text: "0", want: messages.InvalidQuantity},
		{name: "word quantity", state: states.CreateOrderWaitQuantity, text: "ikki", want: messages.InvalidQuantity},
		{name: "unparsable product date", state: states.CreateOrderWaitProductDate, text: "o'tgan yili", want: messages.InvalidProductDate},
		{name: "month out of range", state: states.CreateOrderWaitProductDate, text: "01.13.2025", want: messages.InvalidProductDate},
		{name: "text instead of location", state: states.CreateOrderWaitLocation, text: "Chilonzor 5", want: messages.LocationOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("Yunusobod")
			f.sm.SetState(adminChat, tt.state, &flows.CreateOrderFlowData{IsAdmin: true})

			f.step(t, adminChat, tt.text)

			if got := f.bot.LastText(); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
			if f.sm.GetState(adminChat) != tt.state {
				t.Errorf("state advanced to %q", f.sm.GetState(adminChat))
			}
		})
	}
}

func TestNoProductsInRegion(t *testing.T) {
	f := newFixture("Yunusobod")
	f.sm.SetState(masterChat, states.CreateOrderWaitLocation, &flows.CreateOrderFlowData{Region: "Olmazor"})

	f.step(t, masterChat, location{41.3, 69.2})

	if got := f.bot.LastText(); got != messages.NoProducts {
		t.Errorf("reply = %q", got)
	}
	if f.sm.GetState(masterChat) != states.StateNone {
		t.Errorf("state = %q, want cleared", f.sm.GetState(masterChat))
	}
}

func TestProductPaging(t *testing.T) {
	f := newFixture("Yunusobod")
	f.sm.SetState(adminChat, states.CreateOrderWaitProduct, &flows.CreateOrderFlowData{IsAdmin: true, Region: "Yunusobod"})

	f.step(t, adminChat, callback(callbacks.Data(callbacks.ProductNext, 1)))

	data, err := states.DataAs[flows.CreateOrderFlowData](f.sm, adminChat)
	if err != nil {
		t.Fatalf("DataAs: %v", err)
	}
	if data.ProductPage != 1 {
		t.Errorf("page = %d, want 1", data.ProductPage)
	}
	if len(f.bot.SentMessages) != 1 {
		t.Errorf("paging must edit the keyboard in place, sent %d", len(f.bot.SentMessages))
	}
}
