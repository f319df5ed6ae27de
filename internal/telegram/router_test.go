package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

const (
	adminID  = int64(1)
	masterID = int64(2)
	strayID  = int64(3)
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// recorder собирает вызовы всех фейков в один упорядоченный лог.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) last() string {
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1]
}

type fakeFlow struct {
	name string
	rec  *recorder
}

func (f fakeFlow) Handle(_ context.Context, _ *tgbotapi.Update, state states.State) error {
	return f.rec.add("%s.Handle(%s)", f.name, state)
}

func (f fakeFlow) Reprompt(_ int64, state states.State) error {
	return f.rec.add("%s.Reprompt(%s)", f.name, state)
}

func (f fakeFlow) Start(int64) error { return f.rec.add("%s.Start", f.name) }

func (f fakeFlow) StartAdmin(int64) error { return f.rec.add("%s.StartAdmin", f.name) }

func (f fakeFlow) StartMaster(_ int64, region string) error {
	return f.rec.add("%s.StartMaster(%s)", f.name, region)
}

func (f fakeFlow) StartRestock(_ int64, region string) error {
	return f.rec.add("%s.StartRestock(%s)", f.name, region)
}

type fakeStartLocation struct{ fakeFlow }

func (f fakeStartLocation) Start(_ int64, name string) error {
	return f.rec.add("start.Start(%s)", name)
}

func (f fakeStartLocation) Require(int64) error { return f.rec.add("start.Require") }

func (f fakeStartLocation) StartServiceCenter(int64) error {
	return f.rec.add("start.StartServiceCenter")
}

type fakeWork struct{ fakeFlow }

func (f fakeWork) HandleCallback(_ context.Context, update *tgbotapi.Update) error {
	return f.rec.add("work.HandleCallback(%s)", update.CallbackQuery.Data)
}

type fakeCommands struct{ rec *recorder }

type myOrdersFunc fakeCommands

func (f myOrdersFunc) Execute(_ context.Context, telegramID, _ int64) error {
	return f.rec.add("myorders(%d)", telegramID)
}

type stockFunc fakeCommands

func (f stockFunc) Execute(_ context.Context, _ int64, isAdmin bool, region string) error {
	return f.rec.add("stock(%t,%s)", isAdmin, region)
}

type listFunc struct {
	name string
	rec  *recorder
}

func (f listFunc) Execute(context.Context, int64) error { return f.rec.add("%s", f.name) }

type statsFunc fakeCommands

func (f statsFunc) Execute(context.Context, int64) error { return f.rec.add("stats") }

func (f statsFunc) Refresh(_ context.Context, _ int64, messageID int) error {
	return f.rec.add("stats.Refresh(%d)", messageID)
}

type exportFunc fakeCommands

func (f exportFunc) Execute(_ context.Context, _ int64, isAdmin bool, telegramID int64, masterName string) error {
	return f.rec.add("export(%t,%d,%s)", isAdmin, telegramID, masterName)
}

type fakeAdmins struct{}

func (fakeAdmins) IsAdmin(id int64) bool { return id == adminID }

type fakeMasters struct {
	byID     map[int64]*masters.Master
	recorded []geo.Point
}

func (f *fakeMasters) GetByTelegramID(_ context.Context, id int64) (*masters.Master, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, masters.ErrNotFound
	}
	return m, nil
}

func (f *fakeMasters) RecordLiveLocation(_ context.Context, id int64, p geo.Point) (*masters.Master, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, masters.ErrNotFound
	}
	f.recorded = append(f.recorded, p)
	return m, nil
}

type fakeBroadcasts struct {
	pending map[int64]dispatch.Offer
}

func (f *fakeBroadcasts) HandleBroadcastLocation(_ context.Context, id int64, _ geo.Point) (dispatch.Offer, bool, error) {
	offer, ok := f.pending[id]
	delete(f.pending, id)
	return offer, ok, nil
}

type fixture struct {
	router     *Router
	bot        *flows.MockBotApi
	sm         *states.Manager
	rec        *recorder
	masters    *fakeMasters
	broadcasts *fakeBroadcasts
}

func newFixture(master *masters.Master) *fixture {
	rec := &recorder{}
	bot := &flows.MockBotApi{}
	sm := states.NewManager(func() time.Time { return now })
	ms := &fakeMasters{byID: map[int64]*masters.Master{}}
	if master != nil {
		ms.byID[master.TelegramID] = master
	}
	bc := &fakeBroadcasts{pending: map[int64]dispatch.Offer{}}

	fl := Flows{
		CreateOrder:   fakeFlow{name: "create", rec: rec},
		AddMaster:     fakeFlow{name: "addmaster", rec: rec},
		AddProduct:    fakeFlow{name: "addproduct", rec: rec},
		Import:        fakeFlow{name: "import", rec: rec},
		StartLocation: fakeStartLocation{fakeFlow{name: "start", rec: rec}},
		OrderWork:     fakeWork{fakeFlow{name: "work", rec: rec}},
	}
	c := fakeCommands{rec: rec}
	cmds := Commands{
		MyOrders:     myOrdersFunc(c),
		Stock:        stockFunc(c),
		Masters:      listFunc{name: "masters", rec: rec},
		RecentOrders: listFunc{name: "recent", rec: rec},
		Stats:        statsFunc(c),
		Export:       exportFunc(c),
	}

	r := NewRouter(bot, sm, fakeAdmins{}, ms, bc, fl, cmds, 24*time.Hour, func() time.Time { return now },
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &fixture{router: r, bot: bot, sm: sm, rec: rec, masters: ms, broadcasts: bc}
}

func locatedMaster() *masters.Master {
	at := now.Add(-time.Hour)
	return &masters.Master{
		ID: 10, TelegramID: masterID, Name: "Aziz", Region: "Termiz",
		LastLocation: &geo.Point{Lat: 37.2, Lng: 67.3}, LastLocationAt: &at,
	}
}

func (f *fixture) route(t *testing.T, update *tgbotapi.Update) {
	t.Helper()
	if err := f.router.Route(context.Background(), update); err != nil {
		t.Fatalf("Route: %v", err)
	}
}

func TestRouteMenuButtons(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		text     string
		wantCall string
		wantText string
	}{
		{name: "admin new delivery", userID: adminID, text: messages.ButtonNewDelivery, wantCall: "create.StartAdmin"},
		{name: "admin add master", userID: adminID, text: messages.ButtonAddMaster, wantCall: "addmaster.Start"},
		{name: "admin add product", userID: adminID, text: messages.ButtonAddProduct, wantCall: "addproduct.Start"},
		{name: "admin import", userID: adminID, text: messages.ButtonImport, wantCall: "import.Start"},
		{name: "admin recent orders", userID: adminID, text: messages.ButtonAllOrders, wantCall: "recent"},
		{name: "admin masters", userID: adminID, text: messages.ButtonAllMasters, wantCall: "masters"},
		{name: "admin stock", userID: adminID, text: messages.ButtonAdminStock, wantCall: "stock(true,)"},
		{name: "admin export", userID: adminID, text: messages.ButtonExport, wantCall: "export(true,1,)"},
		{name: "master new delivery", userID: masterID, text: messages.ButtonNewDelivery, wantCall: "create.StartMaster(Termiz)"},
		{name: "master my orders", userID: masterID, text: messages.ButtonMyOrders, wantCall: "myorders(2)"},
		{name: "master stock", userID: masterID, text: messages.ButtonStock, wantCall: "stock(false,Termiz)"},
		{name: "master restock", userID: masterID, text: messages.ButtonRestock, wantCall: "addproduct.StartRestock(Termiz)"},
		{name: "master export", userID: masterID, text: messages.ButtonExport, wantCall: "export(false,2,Aziz)"},
		{name: "master cannot add masters", userID: masterID, text: messages.ButtonAddMaster, wantText: messages.AdminOnly},
		{name: "master cannot import", userID: masterID, text: messages.ButtonImport, wantText: messages.AdminOnly},
		{name: "stranger gets not registered", userID: strayID, text: messages.ButtonMyOrders, wantText: messages.NotRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(locatedMaster())
			f.route(t, flows.TextUpdate(tt.userID, tt.text))

			if f.rec.last() != tt.wantCall {
				t.Errorf("call = %q, want %q", f.rec.last(), tt.wantCall)
			}
			if tt.wantText != "" && f.bot.LastText() != tt.wantText {
				t.Errorf("reply = %q, want %q", f.bot.LastText(), tt.wantText)
			}
		})
	}
}

func TestMenuButtonInterruptsFlow(t *testing.T) {
	f := newFixture(nil)
	f.sm.SetState(adminID, states.CreateOrderWaitName, &flows.CreateOrderFlowData{})

	f.route(t, flows.TextUpdate(adminID, messages.ButtonAllMasters))

	if f.sm.GetState(adminID) != states.StateNone {
		t.Error("menu button must clear the session")
	}
	if f.rec.last() != "masters" {
		t.Errorf("call = %q", f.rec.last())
	}
}

func TestNewDeliveryRequiresLocation(t *testing.T) {
	stale := now.Add(-48 * time.Hour)
	m := &masters.Master{TelegramID: masterID, Name: "Aziz", Region: "Termiz",
		LastLocation: &geo.Point{Lat: 1, Lng: 1}, LastLocationAt: &stale}
	f := newFixture(m)

	f.route(t, flows.TextUpdate(masterID, messages.ButtonNewDelivery))
	if f.rec.last() != "start.Require" {
		t.Fatalf("call = %q, want the location gate", f.rec.last())
	}

	m.ServiceCenter = &geo.Point{Lat: 37, Lng: 67}
	f.route(t, flows.TextUpdate(masterID, messages.ButtonNewDelivery))
	if f.rec.last() != "create.StartMaster(Termiz)" {
		t.Errorf("service center must open the gate, call = %q", f.rec.last())
	}
}

func TestRouteCommands(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		command  string
		wantCall string
		wantText string
	}{
		{name: "admin start", userID: adminID, command: "start", wantText: messages.AdminWelcome},
		{name: "located master start", userID: masterID, command: "start", wantText: messages.MasterMenu("Aziz")},
		{name: "admin addmaster", userID: adminID, command: "addmaster", wantCall: "addmaster.Start"},
		{name: "master addmaster", userID: masterID, command: "addmaster", wantText: messages.AdminOnlyCmd},
		{name: "admin stats", userID: adminID, command: "stats", wantCall: "stats"},
		{name: "master stats", userID: masterID, command: "stats", wantText: messages.AdminOnlyCmd},
		{name: "service center", userID: masterID, command: "service_center", wantCall: "start.StartServiceCenter"},
		{name: "stranger service center", userID: strayID, command: "service_center", wantText: messages.NotRegistered},
		{name: "stranger start", userID: strayID, command: "start", wantText: messages.NotRegistered},
		{name: "cancel", userID: adminID, command: "cancel", wantText: messages.Cancelled},
		{name: "help", userID: masterID, command: "help", wantText: messages.Help},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(locatedMaster())
			f.route(t, flows.CommandUpdate(tt.userID, tt.command))

			if tt.wantCall != "" && f.rec.last() != tt.wantCall {
				t.Errorf("call = %q, want %q", f.rec.last(), tt.wantCall)
			}
			if tt.wantText != "" && f.bot.LastText() != tt.wantText {
				t.Errorf("reply = %q, want %q", f.bot.LastText(), tt.wantText)
			}
		})
	}
}

func TestStartAsksUnlocatedMasterForLocation(t *testing.T) {
	f := newFixture(&masters.Master{TelegramID: masterID, Name: "Aziz", Region: "Termiz"})

	f.route(t, flows.CommandUpdate(masterID, "start"))

	if f.rec.last() != "start.Start(Aziz)" {
		t.Errorf("call = %q", f.rec.last())
	}
}

func TestCommandClearsSession(t *testing.T) {
	f := newFixture(nil)
	f.sm.SetState(adminID, states.AddProductWaitPrice, &flows.AddProductFlowData{})

	f.route(t, flows.CommandUpdate(adminID, "cancel"))

	if f.sm.GetState(adminID) != states.StateNone {
		t.Error("command must clear the session")
	}
}

func TestStepDispatchAndReprompt(t *testing.T) {
	tests := []struct {
		name     string
		state    states.State
		update   *tgbotapi.Update
		wantCall string
	}{
		{name: "create order text", state: states.CreateOrderWaitName, update: flows.TextUpdate(adminID, "Ali"), wantCall: "create.Handle(co_wt_name)"},
		{name: "create order photo rejected", state: states.CreateOrderWaitName, update: flows.PhotoUpdate(adminID, "p"), wantCall: "create.Reprompt(co_wt_name)"},
		{name: "location step rejects text", state: states.CreateOrderWaitLocation, update: flows.TextUpdate(adminID, "Termiz"), wantCall: "create.Reprompt(co_wt_location)"},
		{name: "region step takes callbacks", state: states.CreateOrderWaitRegion, update: flows.CallbackUpdate(adminID, "region_cat:0"), wantCall: "create.Handle(co_wt_region)"},
		{name: "add master", state: states.AddMasterWaitTelegramID, update: flows.TextUpdate(adminID, "55"), wantCall: "addmaster.Handle(am_wt_telegram_id)"},
		{name: "add product", state: states.AddProductWaitPrice, update: flows.TextUpdate(adminID, "100"), wantCall: "addproduct.Handle(ap_wt_price)"},
		{name: "import document", state: states.ImportWaitFile, update: flows.DocumentUpdate(adminID, "f", "a.xlsx"), wantCall: "import.Handle(ix_wt_file)"},
		{name: "import text rejected", state: states.ImportWaitFile, update: flows.TextUpdate(adminID, "file"), wantCall: "import.Reprompt(ix_wt_file)"},
		{name: "work photo", state: states.WorkWaitBeforePhoto, update: flows.PhotoUpdate(masterID, "p"), wantCall: "work.Handle(wk_wt_before_photo)"},
		{name: "work location rejected", state: states.WorkWaitBeforePhoto, update: flows.LocationUpdate(masterID, 1, 1), wantCall: "work.Reprompt(wk_wt_before_photo)"},
		{name: "start location", state: states.StartWaitLocation, update: flows.LocationUpdate(masterID, 1, 1), wantCall: "start.Handle(st_wt_location)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(locatedMaster())
			chatID := flows.ExtractChatID(tt.update)
			f.sm.SetState(chatID, tt.state, &flows.CreateOrderFlowData{})

			f.route(t, tt.update)

			if f.rec.last() != tt.wantCall {
				t.Errorf("call = %q, want %q", f.rec.last(), tt.wantCall)
			}
		})
	}
}

func TestLifecycleCallbacks(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		data     string
		wantCall string
		wantText string
	}{
		{name: "accept goes to order work", userID: masterID, data: callbacks.Data(callbacks.AcceptOrder, 5), wantCall: "work.HandleCallback(accept_order:5)"},
		{name: "work type", userID: masterID, data: callbacks.Data(callbacks.WorkType, 5, "easy"), wantCall: "work.HandleCallback(work_type:5:easy)"},
		{name: "admin confirms spare part", userID: adminID, data: callbacks.Data(callbacks.AcceptSparePart, 5), wantCall: "work.HandleCallback(accept_spare_part:5)"},
		{name: "master cannot confirm spare part", userID: masterID, data: callbacks.Data(callbacks.AcceptSparePart, 5), wantText: messages.AdminOnly},
		{name: "admin stats refresh", userID: adminID, data: callbacks.StatsRefresh, wantCall: "stats.Refresh(1)"},
		{name: "master stats refresh", userID: masterID, data: callbacks.StatsRefresh, wantText: messages.AdminOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(locatedMaster())
			f.route(t, flows.CallbackUpdate(tt.userID, tt.data))

			if f.rec.last() != tt.wantCall {
				t.Errorf("call = %q, want %q", f.rec.last(), tt.wantCall)
			}
			if tt.wantText != "" && f.bot.LastText() != tt.wantText {
				t.Errorf("reply = %q, want %q", f.bot.LastText(), tt.wantText)
			}
			if len(f.bot.Requests) == 0 {
				t.Error("callback must be answered")
			}
		})
	}
}

func TestLifecycleCallbackIgnoresSessionStep(t *testing.T) {
	f := newFixture(locatedMaster())
	f.sm.SetState(masterID, states.AddProductWaitName, &flows.AddProductFlowData{})

	f.route(t, flows.CallbackUpdate(masterID, callbacks.Data(callbacks.OnWay, 8)))

	if f.rec.last() != "work.HandleCallback(on_way:8)" {
		t.Errorf("call = %q", f.rec.last())
	}
}

func TestCancelCallback(t *testing.T) {
	f := newFixture(nil)
	f.sm.SetState(adminID, states.AddMasterWaitPhone, &flows.AddMasterFlowData{})

	f.route(t, flows.CallbackUpdate(adminID, callbacks.Cancel))
	if f.rec.last() != "addmaster.Handle(am_wt_phone)" {
		t.Errorf("flow must handle its own cancel, call = %q", f.rec.last())
	}

	f.sm.Clear(adminID)
	f.route(t, flows.CallbackUpdate(adminID, callbacks.Cancel))
	if f.bot.LastText() != messages.Cancelled {
		t.Errorf("stale cancel reply = %q", f.bot.LastText())
	}
}

func TestIdleLocation(t *testing.T) {
	t.Run("answers a pending broadcast", func(t *testing.T) {
		f := newFixture(locatedMaster())
		f.broadcasts.pending[masterID] = dispatch.Offer{OrderID: 42, Region: "Termiz"}

		f.route(t, flows.LocationUpdate(masterID, 37.1, 67.2))

		if f.bot.LastText() != messages.BroadcastLocationAccepted(42, 37.1, 67.2) {
			t.Errorf("reply = %q", f.bot.LastText())
		}
		if len(f.masters.recorded) != 0 {
			t.Error("broadcast answer records the position itself")
		}
	})

	t.Run("records a live location", func(t *testing.T) {
		f := newFixture(locatedMaster())

		f.route(t, flows.LocationUpdate(masterID, 37.1, 67.2))

		if len(f.masters.recorded) != 1 {
			t.Fatalf("recorded = %v", f.masters.recorded)
		}
		if f.bot.LastText() != messages.LocationAccepted(37.1, 67.2) {
			t.Errorf("reply = %q", f.bot.LastText())
		}
	})

	t.Run("stranger is not registered", func(t *testing.T) {
		f := newFixture(nil)

		f.route(t, flows.LocationUpdate(strayID, 37.1, 67.2))

		if f.bot.LastText() != messages.NotRegistered {
			t.Errorf("reply = %q", f.bot.LastText())
		}
	})
}

func TestAdminCommandsScopedOncePerChat(t *testing.T) {
	f := newFixture(nil)

	f.route(t, flows.TextUpdate(adminID, "salom"))
	f.route(t, flows.TextUpdate(adminID, "salom"))

	scoped := 0
	for _, req := range f.bot.Requests {
		if _, ok := req.(tgbotapi.SetMyCommandsConfig); ok {
			scoped++
		}
	}
	if scoped != 1 {
		t.Errorf("scoped command updates = %d, want 1", scoped)
	}
}
