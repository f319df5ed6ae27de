package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
)

func newOrder(qty int) orders.Order {
	return orders.Order{
		ClientName:  "Alisher",
		ClientPhone: "+998901234567",
		Address:     "Chirchiq, Amir Temur 5",
		Location:    &geo.Point{Lat: 41.47, Lng: 69.58},
		Region:      "Chirchiq",
		Product:     "Konditsioner",
		Quantity:    qty,
		UnitPrice:   1000,
		CreatedBy:   7,
	}
}

func TestCreateOrderWithStockReserves(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 5)

	created, err := s.CreateOrderWithStock(ctx, newOrder(3), item.ID)
	if err != nil {
		t.Fatalf("CreateOrderWithStock: %v", err)
	}
	if created.Status != orders.StatusNew || created.Warranty != orders.WarrantyUnknown {
		t.Errorf("created = %+v", created)
	}
	if created.Location == nil || created.Location.Lat != 41.47 {
		t.Errorf("location = %+v", created.Location)
	}

	got, _ := s.GetItem(ctx, warehouse.GetCriteria{ID: &item.ID})
	if got.Quantity != 2 {
		t.Errorf("stock = %d, want 2", got.Quantity)
	}
}

func TestCreateOrderWithStockShortageLeavesNothing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 2)

	_, err := s.CreateOrderWithStock(ctx, newOrder(3), item.ID)
	if !errors.Is(err, orders.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	got, _ := s.GetItem(ctx, warehouse.GetCriteria{ID: &item.ID})
	if got.Quantity != 2 {
		t.Errorf("stock = %d, want untouched 2", got.Quantity)
	}

	list, err := s.ListOrders(ctx, orders.ListCriteria{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("orders = %d, want 0", len(list))
	}
}

func TestCreateOrderWithStockConcurrent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 3)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateOrderWithStock(ctx, newOrder(1), item.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}
	got, _ := s.GetItem(ctx, warehouse.GetCriteria{ID: &item.ID})
	if got.Quantity != 0 {
		t.Errorf("stock = %d, want 0", got.Quantity)
	}
}

func TestUpdateOrderCompareAndSet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	master := seedMaster(t, s, 100, "+998901111111", "Chirchiq")
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 5)
	created, err := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)
	if err != nil {
		t.Fatal(err)
	}

	accepted := orders.StatusAccepted
	at := testNow
	params := orders.UpdateParams{
		Status:           &accepted,
		MasterID:         &master.ID,
		MasterTelegramID: &master.TelegramID,
		AcceptedAt:       &at,
	}

	first, err := s.UpdateOrder(ctx, created.ID, []orders.Status{orders.StatusNew}, params)
	if err != nil {
		t.Fatalf("first UpdateOrder: %v", err)
	}
	if first == nil || first.Status != orders.StatusAccepted || !first.AssignedTo(100) {
		t.Fatalf("first = %+v", first)
	}

	second, err := s.UpdateOrder(ctx, created.ID, []orders.Status{orders.StatusNew}, params)
	if err != nil {
		t.Fatalf("second UpdateOrder: %v", err)
	}
	if second != nil {
		t.Errorf("second accept must not match, got %+v", second)
	}
}

func TestUpdateOrderWritesEvidenceAndPayout(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 5)
	created, err := s.CreateOrderWithStock(ctx, newOrder(2), item.ID)
	if err != nil {
		t.Fatal(err)
	}

	wt := geo.WorkTypeDifficult
	photo := "file-before"
	sent := true
	km := 2.5
	updated, err := s.UpdateOrder(ctx, created.ID, nil, orders.UpdateParams{
		WorkType:           &wt,
		BeforePhoto:        &photo,
		SparePartSent:      &sent,
		CompletionLocation: &geo.Point{Lat: 41.5, Lng: 69.6},
		DistanceKm:         &km,
		Payout:             &orders.Payout{DistanceFee: 7500, WorkFee: 100000, ProductTotal: 2000, TotalPayment: 109500},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	if updated.WorkType == nil || *updated.WorkType != geo.WorkTypeDifficult {
		t.Errorf("work type = %v", updated.WorkType)
	}
	if updated.BeforePhoto == nil || *updated.BeforePhoto != photo || !updated.SparePartSent {
		t.Errorf("evidence = %+v", updated)
	}
	if updated.CompletionLocation == nil || updated.DistanceKm != 2.5 || updated.Payout.TotalPayment != 109500 {
		t.Errorf("completion = %+v, km %v, payout %+v", updated.CompletionLocation, updated.DistanceKm, updated.Payout)
	}

	cleared, err := s.UpdateOrder(ctx, created.ID, nil, orders.UpdateParams{ClearWorkType: true})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if cleared.WorkType != nil {
		t.Errorf("work type must be cleared, got %v", *cleared.WorkType)
	}
}

func TestUpdateOrderPayoutBasis(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 5)
	created, err := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)
	if err != nil {
		t.Fatal(err)
	}

	easy, difficult := geo.WorkTypeEasy, geo.WorkTypeDifficult
	expired := orders.WarrantyExpired
	if _, err := s.UpdateOrder(ctx, created.ID, nil, orders.UpdateParams{Warranty: &expired, WorkType: &difficult}); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	tests := []struct {
		name    string
		basis   orders.PayoutBasis
		applied bool
	}{
		{name: "stale work type", basis: orders.PayoutBasis{Warranty: orders.WarrantyExpired, WorkType: &easy}, applied: false},
		{name: "work type not chosen yet", basis: orders.PayoutBasis{Warranty: orders.WarrantyExpired}, applied: false},
		{name: "stale warranty", basis: orders.PayoutBasis{Warranty: orders.WarrantyUnknown, WorkType: &difficult}, applied: false},
		{name: "current basis", basis: orders.PayoutBasis{Warranty: orders.WarrantyExpired, WorkType: &difficult}, applied: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis := tt.basis
			updated, err := s.UpdateOrder(ctx, created.ID, nil, orders.UpdateParams{
				Payout: &orders.Payout{WorkFee: geo.DifficultWorkFee},
				Basis:  &basis,
			})
			if err != nil {
				t.Fatalf("UpdateOrder: %v", err)
			}
			if (updated != nil) != tt.applied {
				t.Errorf("applied = %v, want %v", updated != nil, tt.applied)
			}
		})
	}
}

func TestListOrdersFilters(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 10)

	s.now = func() time.Time { return testNow.Add(-3 * time.Hour) }
	old, _ := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)
	s.now = func() time.Time { return testNow }
	fresh, _ := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)

	accepted := orders.StatusAccepted
	tg := int64(100)
	if _, err := s.UpdateOrder(ctx, fresh.ID, nil, orders.UpdateParams{Status: &accepted, MasterTelegramID: &tg}); err != nil {
		t.Fatal(err)
	}

	cutoff := testNow.Add(-time.Hour)
	tests := []struct {
		name     string
		criteria orders.ListCriteria
		wantIDs  []int64
	}{
		{name: "all newest first", criteria: orders.ListCriteria{}, wantIDs: []int64{fresh.ID, old.ID}},
		{name: "by master", criteria: orders.ListCriteria{MasterTelegramID: &tg}, wantIDs: []int64{fresh.ID}},
		{name: "stale new", criteria: orders.ListCriteria{Statuses: []orders.Status{orders.StatusNew}, CreatedBefore: &cutoff}, wantIDs: []int64{old.ID}},
		{name: "limit", criteria: orders.ListCriteria{Limit: 1}, wantIDs: []int64{fresh.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListOrders(ctx, tt.criteria)
			if err != nil {
				t.Fatalf("ListOrders: %v", err)
			}
			if len(list) != len(tt.wantIDs) {
				t.Fatalf("got %d orders, want %d", len(list), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if list[i].ID != id {
					t.Errorf("order[%d] = %d, want %d", i, list[i].ID, id)
				}
			}
		})
	}

	counts, err := s.CountOrdersByStatus(ctx)
	if err != nil {
		t.Fatalf("CountOrdersByStatus: %v", err)
	}
	if counts[orders.StatusNew] != 1 || counts[orders.StatusAccepted] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRejectionsAreIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 1)
	created, _ := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)

	for _, tg := range []int64{5, 6, 5} {
		if err := s.AddRejection(ctx, created.ID, tg); err != nil {
			t.Fatalf("AddRejection: %v", err)
		}
	}

	ids, err := s.ListRejections(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListRejections: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("rejections = %v, want two distinct masters", ids)
	}
}

func TestGetStatistics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	seedMaster(t, s, 100, "+998901111111", "Chirchiq")
	item := seedItem(t, s, "Konditsioner", strPtr("Chirchiq"), 4)
	seedItem(t, s, "Muzlatgich", nil, 0)
	created, _ := s.CreateOrderWithStock(ctx, newOrder(1), item.ID)

	delivered := orders.StatusDelivered
	at := testNow
	if _, err := s.UpdateOrder(ctx, created.ID, nil, orders.UpdateParams{
		Status:      &delivered,
		DeliveredAt: &at,
		Payout:      &orders.Payout{TotalPayment: 60000},
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.MastersCount != 1 || stats.OrdersToday != 1 || stats.DeliveredToday != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PayoutThisMonth != 60000 || stats.WarehouseUnits != 3 || stats.EmptyWarehouseRows != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.TopRegions) != 1 || stats.TopRegions[0].Region != "Chirchiq" {
		t.Errorf("top regions = %+v", stats.TopRegions)
	}
}
