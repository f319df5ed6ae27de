package orders

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/warehouse"
)

type fakeStorage struct {
	mu         sync.Mutex
	nextID     int64
	orders     map[int64]*Order
	stock      map[int64]*warehouse.Item
	rejections map[int64][]int64
	creates    int
	// beforeUpdate runs once inside the next UpdateOrder, standing in for a concurrent writer.
	beforeUpdate func(o *Order)
}

func newFakeStorage(items ...*warehouse.Item) *fakeStorage {
	s := &fakeStorage{
		orders:     map[int64]*Order{},
		stock:      map[int64]*warehouse.Item{},
		rejections: map[int64][]int64{},
	}
	for _, it := range items {
		s.stock[it.ID] = it
	}
	return s
}

func (s *fakeStorage) CreateOrderWithStock(_ context.Context, order Order, stockID int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	item, ok := s.stock[stockID]
	if !ok || item.Quantity < order.Quantity {
		return nil, ErrInsufficientStock
	}
	item.Quantity -= order.Quantity

	s.nextID++
	order.ID = s.nextID
	s.orders[order.ID] = &order
	cp := order
	return &cp, nil
}

func (s *fakeStorage) GetOrder(_ context.Context, id int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStorage) UpdateOrder(_ context.Context, id int64, from []Status, p UpdateParams) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || !slices.Contains(from, o.Status) {
		return nil, nil
	}
	if p.Basis != nil && !p.Basis.Matches(o) {
		return nil, nil
	}
	if s.beforeUpdate != nil {
		hook := s.beforeUpdate
		s.beforeUpdate = nil
		hook(o)
		if p.Basis != nil && !p.Basis.Matches(o) {
			return nil, nil
		}
	}

	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.MasterID != nil {
		o.MasterID = p.MasterID
	}
	if p.MasterTelegramID != nil {
		o.MasterTelegramID = p.MasterTelegramID
	}
	if p.Warranty != nil {
		o.Warranty = *p.Warranty
	}
	if p.ClearWorkType {
		o.WorkType = nil
	}
	if p.WorkType != nil {
		o.WorkType = p.WorkType
	}
	if p.BeforePhoto != nil {
		o.BeforePhoto = p.BeforePhoto
	}
	if p.AfterPhoto != nil {
		o.AfterPhoto = p.AfterPhoto
	}
	if p.SparePartPhoto != nil {
		o.SparePartPhoto = p.SparePartPhoto
	}
	if p.SparePartSent != nil {
		o.SparePartSent = *p.SparePartSent
	}
	if p.SparePartReceived != nil {
		o.SparePartReceived = *p.SparePartReceived
	}
	if p.ArrivalLocation != nil {
		o.ArrivalLocation = p.ArrivalLocation
	}
	if p.CompletionLocation != nil {
		o.CompletionLocation = p.CompletionLocation
	}
	if p.DistanceKm != nil {
		o.DistanceKm = *p.DistanceKm
	}
	if p.Payout != nil {
		o.Payout = *p.Payout
	}
	if p.AcceptedAt != nil {
		o.AcceptedAt = p.AcceptedAt
	}
	if p.DeliveredAt != nil {
		o.DeliveredAt = p.DeliveredAt
	}

	cp := *o
	return &cp, nil
}

func (s *fakeStorage) ListOrders(_ context.Context, c ListCriteria) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Order
	for _, o := range s.orders {
		if c.MasterTelegramID != nil && !o.AssignedTo(*c.MasterTelegramID) {
			continue
		}
		if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, o.Status) {
			continue
		}
		if c.CreatedBefore != nil && !o.CreatedAt.Before(*c.CreatedBefore) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStorage) CountOrdersByStatus(_ context.Context) (map[Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[Status]int{}
	for _, o := range s.orders {
		out[o.Status]++
	}
	return out, nil
}

func (s *fakeStorage) AddRejection(_ context.Context, orderID, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.rejections[orderID], telegramID) {
		s.rejections[orderID] = append(s.rejections[orderID], telegramID)
	}
	return nil
}

func (s *fakeStorage) ListRejections(_ context.Context, orderID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rejections[orderID]), nil
}

// fakeStock answers FindStock from the same rows the fake storage decrements.
type fakeStock struct {
	storage *fakeStorage
}

func (f fakeStock) FindStock(_ context.Context, name string, region *string) (*warehouse.Item, error) {
	f.storage.mu.Lock()
	defer f.storage.mu.Unlock()

	var fallback *warehouse.Item
	for _, it := range f.storage.stock {
		if it.Name != name {
			continue
		}
		if it.Region != nil && region != nil && *it.Region == *region {
			cp := *it
			return &cp, nil
		}
		if it.Region == nil {
			cp := *it
			fallback = &cp
		}
	}
	return fallback, nil
}

type fakeMasters map[int64]*masters.Master

func (f fakeMasters) GetByTelegramID(_ context.Context, telegramID int64) (*masters.Master, error) {
	m, ok := f[telegramID]
	if !ok {
		return nil, masters.ErrNotFound
	}
	return m, nil
}

type sentPhoto struct {
	fileID  string
	caption string
	buttons notify.Buttons
}

type fakeNotifier struct {
	mu          sync.Mutex
	adminTexts  []string
	adminPhotos []sentPhoto
	masterTexts map[int64][]string
}

func (n *fakeNotifier) NotifyAdmins(_ context.Context, text string, _ notify.Buttons) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adminTexts = append(n.adminTexts, text)
	return 1
}

func (n *fakeNotifier) NotifyAdminsPhoto(_ context.Context, fileID, caption string, buttons notify.Buttons) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adminPhotos = append(n.adminPhotos, sentPhoto{fileID: fileID, caption: caption, buttons: buttons})
	return 1
}

func (n *fakeNotifier) NotifyMaster(_ context.Context, chatID int64, text string, _ notify.Buttons) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.masterTexts == nil {
		n.masterTexts = map[int64][]string{}
	}
	n.masterTexts[chatID] = append(n.masterTexts[chatID], text)
	return nil
}

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	storage  *fakeStorage
	notifier *fakeNotifier
	masters  fakeMasters
}

func newFixture(items ...*warehouse.Item) *fixture {
	storage := newFakeStorage(items...)
	notifier := &fakeNotifier{}
	ms := fakeMasters{}

	svc := NewService(
		storage,
		fakeStock{storage: storage},
		ms,
		notifier,
		Config{LocationFreshness: 24 * time.Hour, WarrantyPeriod: 60 * 24 * time.Hour},
		func() time.Time { return testNow },
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &fixture{svc: svc, storage: storage, notifier: notifier, masters: ms}
}

func ptr[T any](v T) *T {
	return &v
}
