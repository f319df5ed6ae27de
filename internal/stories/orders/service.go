package orders

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/callbacks"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usta_orders_created_total",
		Help: "Orders created after a successful stock reservation.",
	})
	shortageRefusals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usta_orders_shortage_refusals_total",
		Help: "Orders refused because the warehouse lacked stock.",
	})
	ordersDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usta_orders_delivered_total",
		Help: "Orders that reached the delivered status.",
	})
)

const (
	masterListLimit = 10
	recentListLimit = 20
)

type Config struct {
	LocationFreshness time.Duration
	WarrantyPeriod    time.Duration
}

// Service drives orders through their lifecycle and emits the admin and technician
// notifications tied to each transition.
type Service struct {
	storage  Storage
	stock    stockFinder
	masters  mastersGetter
	notifier notifier
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(
	storage Storage,
	stock stockFinder,
	masters mastersGetter,
	notifier notifier,
	cfg Config,
	now func() time.Time,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:  storage,
		stock:    stock,
		masters:  masters,
		notifier: notifier,
		cfg:      cfg,
		now:      now,
		logger:   logger,
	}
}

// Create reserves stock and inserts the order in one unit of work. A shortage alerts
// admins and returns *ShortageError without touching the warehouse. When creator is set
// the order is assigned to that technician and starts as accepted.
func (s *Service) Create(ctx context.Context, p CreateParams, creator *masters.Master) (*Order, error) {
	p.ClientName = strings.TrimSpace(p.ClientName)
	p.ClientPhone = strings.TrimSpace(p.ClientPhone)
	p.Product = strings.TrimSpace(p.Product)
	if creator != nil {
		p.Region = creator.Region
	}
	p.Region = strings.TrimSpace(p.Region)

	if p.ClientName == "" || p.ClientPhone == "" || p.Product == "" || p.Region == "" || p.Quantity <= 0 {
		return nil, ErrInvalidInput
	}

	requestedBy := "Admin"
	if creator != nil {
		requestedBy = creator.Name
	}

	item, err := s.stock.FindStock(ctx, p.Product, lo.ToPtr(p.Region))
	if err != nil {
		return nil, errors.Wrap(err, "find stock")
	}
	if item == nil || item.Quantity < p.Quantity {
		available := 0
		if item != nil {
			available = item.Quantity
		}
		return nil, s.refuseShortage(ctx, p, available, requestedBy)
	}

	now := s.now()
	order := Order{
		ClientName:  p.ClientName,
		ClientPhone: p.ClientPhone,
		Address:     strings.TrimSpace(p.Address),
		Location:    p.Location,
		Region:      p.Region,
		Product:     p.Product,
		Quantity:    p.Quantity,
		UnitPrice:   item.Price,
		ProductDate: p.ProductDate,
		Barcode:     p.Barcode,
		Status:      StatusNew,
		CreatedBy:   p.CreatedBy,
		Warranty:    WarrantyUnknown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if creator != nil {
		order.Status = StatusAccepted
		order.MasterID = lo.ToPtr(creator.ID)
		order.MasterTelegramID = lo.ToPtr(creator.TelegramID)
		order.AcceptedAt = lo.ToPtr(now)
		if km, ok := s.distanceFor(&order, creator, nil); ok {
			order.DistanceKm = km
		}
	}
	order.Payout = ComputePayout(order)

	created, err := s.storage.CreateOrderWithStock(ctx, order, item.ID)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			// Another order drained the row between the lookup and the reservation.
			available := 0
			if fresh, ferr := s.stock.FindStock(ctx, p.Product, lo.ToPtr(p.Region)); ferr == nil && fresh != nil {
				available = fresh.Quantity
			}
			return nil, s.refuseShortage(ctx, p, available, requestedBy)
		}
		return nil, errors.Wrap(err, "create order")
	}

	ordersCreated.Inc()
	s.notifier.NotifyAdmins(ctx, createdText(created, creator), nil)

	return created, nil
}

func (s *Service) refuseShortage(ctx context.Context, p CreateParams, available int, requestedBy string) error {
	shortage := &ShortageError{
		Product:   p.Product,
		Region:    p.Region,
		Requested: p.Quantity,
		Available: available,
	}

	shortageRefusals.Inc()
	s.logger.Warn("Order refused on stock shortage",
		slog.String("product", p.Product),
		slog.String("region", p.Region),
		slog.Int("requested", p.Quantity),
		slog.Int("available", available))
	s.notifier.NotifyAdmins(ctx, shortageText(shortage, requestedBy), nil)

	return shortage
}

// Accept assigns a new order to the technician. Only the first conditional write wins;
// every later attempt gets ErrAlreadyTaken.
func (s *Service) Accept(ctx context.Context, orderID, telegramID int64) (*Order, error) {
	master, err := s.master(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusNew {
		return nil, ErrAlreadyTaken
	}

	to, _ := Next(StatusNew, EventAccept)
	now := s.now()
	params := UpdateParams{
		Status:           &to,
		MasterID:         lo.ToPtr(master.ID),
		MasterTelegramID: lo.ToPtr(master.TelegramID),
		AcceptedAt:       lo.ToPtr(now),
	}
	if km, ok := s.distanceFor(order, master, nil); ok {
		order.DistanceKm = km
		params.DistanceKm = lo.ToPtr(km)
	}
	params.Payout = lo.ToPtr(ComputePayout(*order))

	updated, err := s.storage.UpdateOrder(ctx, orderID, []Status{StatusNew}, params)
	if err != nil {
		return nil, errors.Wrap(err, "accept order")
	}
	if updated == nil {
		return nil, ErrAlreadyTaken
	}

	s.notifier.NotifyAdmins(ctx, acceptedText(updated, master), nil)
	return updated, nil
}

// Reject records that the technician declined a new order so dispatch skips them next time.
func (s *Service) Reject(ctx context.Context, orderID, telegramID int64) (*Order, *masters.Master, error) {
	master, err := s.master(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != StatusNew {
		return nil, nil, ErrAlreadyTaken
	}

	if err := s.storage.AddRejection(ctx, orderID, telegramID); err != nil {
		return nil, nil, errors.Wrap(err, "add rejection")
	}

	s.notifier.NotifyAdmins(ctx, rejectedText(order, master), nil)
	return order, master, nil
}

func (s *Service) Rejections(ctx context.Context, orderID int64) ([]int64, error) {
	ids, err := s.storage.ListRejections(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list rejections")
	}
	return ids, nil
}

func (s *Service) Depart(ctx context.Context, orderID, telegramID int64) (*Order, error) {
	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, order, EventDepart, UpdateParams{})
	if err != nil {
		return nil, err
	}

	if master, err := s.master(ctx, telegramID); err == nil {
		s.notifier.NotifyAdmins(ctx, departedText(updated, master), nil)
	}
	return updated, nil
}

// Arrive records the technician's GPS and measures the distance from their reference
// point to the client. Without a reference point the arrival position is used.
func (s *Service) Arrive(ctx context.Context, orderID, telegramID int64, at geo.Point) (*Order, error) {
	master, err := s.master(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}

	params := UpdateParams{ArrivalLocation: lo.ToPtr(at)}
	if km, ok := s.distanceFor(order, master, &at); ok {
		order.DistanceKm = km
		params.DistanceKm = lo.ToPtr(km)
	}
	params.Payout = lo.ToPtr(ComputePayout(*order))

	updated, err := s.apply(ctx, order, EventArrive, params)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(ctx, arrivedText(updated, master), nil)
	return updated, nil
}

func (s *Service) RecordBeforePhoto(ctx context.Context, orderID, telegramID int64, fileID string) (*Order, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, ErrInvalidInput
	}
	return s.attachEvidence(ctx, orderID, telegramID, UpdateParams{BeforePhoto: lo.ToPtr(fileID)})
}

func (s *Service) RecordAfterPhoto(ctx context.Context, orderID, telegramID int64, fileID string) (*Order, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, ErrInvalidInput
	}
	return s.attachEvidence(ctx, orderID, telegramID, UpdateParams{AfterPhoto: lo.ToPtr(fileID)})
}

func (s *Service) RecordCompletionGPS(ctx context.Context, orderID, telegramID int64, at geo.Point) (*Order, error) {
	return s.attachEvidence(ctx, orderID, telegramID, UpdateParams{CompletionLocation: lo.ToPtr(at)})
}

func (s *Service) attachEvidence(ctx context.Context, orderID, telegramID int64, params UpdateParams) (*Order, error) {
	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered() {
		return nil, ErrAlreadyCompleted
	}
	if !canAttachEvidence(order.Status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "evidence in status %s", order.Status)
	}

	updated, err := s.storage.UpdateOrder(ctx, orderID, evidenceStatuses, params)
	if err != nil {
		return nil, errors.Wrap(err, "attach evidence")
	}
	if updated == nil {
		return nil, ErrConcurrentUpdate
	}
	return updated, nil
}

// ClassifyWarranty applies the product-age heuristic. Without a product date the
// technician has to decide.
func (s *Service) ClassifyWarranty(o *Order) Warranty {
	if o.ProductDate == nil {
		return WarrantyUnknown
	}
	if s.now().Sub(*o.ProductDate) < s.cfg.WarrantyPeriod {
		return WarrantyValid
	}
	return WarrantyExpired
}

// DecideWarranty moves an arrived order into the work-type branch (expired) or the
// spare-part branch (valid). A valid warranty clears any work type and zeroes the work fee.
func (s *Service) DecideWarranty(ctx context.Context, orderID, telegramID int64, valid bool) (*Order, error) {
	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}

	event, warranty := EventWarrantyExpired, WarrantyExpired
	if valid {
		event, warranty = EventWarrantyValid, WarrantyValid
	}

	params := UpdateParams{Warranty: lo.ToPtr(warranty), Basis: BasisOf(order)}
	order.Warranty = warranty
	if valid {
		order.WorkType = nil
		params.ClearWorkType = true
	}
	params.Payout = lo.ToPtr(ComputePayout(*order))

	updated, err := s.apply(ctx, order, event, params)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(ctx, warrantyDecidedText(updated), nil)
	return updated, nil
}

// SetWorkType picks the work difficulty for an out-of-warranty order.
func (s *Service) SetWorkType(ctx context.Context, orderID, telegramID int64, wt geo.WorkType) (*Order, error) {
	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered() {
		return nil, ErrAlreadyCompleted
	}
	if order.Warranty == WarrantyValid {
		s.logger.Warn("Work type refused on warranty order",
			slog.Int64("order_id", orderID),
			slog.String("work_type", string(wt)))
		return nil, ErrWorkTypeNotAllowed
	}
	if order.Status != StatusFinishOrderReady {
		return nil, errors.Wrapf(ErrInvalidTransition, "work type in status %s", order.Status)
	}

	basis := BasisOf(order)
	order.WorkType = lo.ToPtr(wt)
	params := UpdateParams{
		WorkType: lo.ToPtr(wt),
		Payout:   lo.ToPtr(ComputePayout(*order)),
		Basis:    basis,
	}

	updated, err := s.storage.UpdateOrder(ctx, orderID, []Status{StatusFinishOrderReady}, params)
	if err != nil {
		return nil, errors.Wrap(err, "set work type")
	}
	if updated == nil {
		return nil, ErrConcurrentUpdate
	}
	return updated, nil
}

// SubmitSparePart stores the photo of the replaced part and asks admins to confirm receipt.
func (s *Service) SubmitSparePart(ctx context.Context, orderID, telegramID int64, fileID string) (*Order, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, ErrInvalidInput
	}

	order, err := s.loadAssigned(ctx, orderID, telegramID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case StatusSparePartPending:
	case StatusSparePartReceived:
		return nil, ErrSparePartAlreadyReceived
	case StatusDelivered:
		return nil, ErrAlreadyCompleted
	default:
		return nil, errors.Wrapf(ErrInvalidTransition, "spare part in status %s", order.Status)
	}

	updated, err := s.storage.UpdateOrder(ctx, orderID, []Status{StatusSparePartPending}, UpdateParams{
		SparePartPhoto: lo.ToPtr(fileID),
		SparePartSent:  lo.ToPtr(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "submit spare part")
	}
	if updated == nil {
		return nil, ErrConcurrentUpdate
	}

	masterName := ""
	if master, err := s.master(ctx, telegramID); err == nil {
		masterName = master.Name
	}
	s.notifier.NotifyAdminsPhoto(ctx, fileID, sparePartCaption(updated, masterName), notify.Buttons{
		notify.Row(notify.Button{Text: "✅ Qabul qilish", Data: callbacks.Data(callbacks.AcceptSparePart, orderID)}),
	})
	return updated, nil
}

// ConfirmSparePart is the admin acknowledgement that unlocks completion of a warranty order.
func (s *Service) ConfirmSparePart(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SparePartReceived || order.Status == StatusSparePartReceived {
		return nil, ErrSparePartAlreadyReceived
	}
	if order.IsDelivered() {
		return nil, ErrAlreadyCompleted
	}
	if !order.SparePartSent {
		return nil, ErrSparePartNotSent
	}

	updated, err := s.apply(ctx, order, EventSparePartConfirmed, UpdateParams{SparePartReceived: lo.ToPtr(true)})
	if err != nil {
		return nil, err
	}

	if updated.MasterTelegramID != nil {
		_ = s.notifier.NotifyMaster(ctx, *updated.MasterTelegramID, sparePartAcceptedText(updated), notify.Buttons{
			notify.Row(notify.Button{Text: "✅ Buyurtmani yakunlash", Data: callbacks.Data(callbacks.FinishOrder, orderID)}),
		})
	}
	return updated, nil
}

// CheckCompletion returns the first unmet precondition for finishing the order.
func CheckCompletion(o *Order) error {
	switch o.Status {
	case StatusDelivered:
		return ErrAlreadyCompleted
	case StatusNew, StatusAccepted, StatusOnWay:
		return errors.Wrapf(ErrInvalidTransition, "finish in status %s", o.Status)
	}

	switch {
	case o.BeforePhoto == nil:
		return ErrMissingBeforePhoto
	case o.AfterPhoto == nil:
		return ErrMissingAfterPhoto
	case o.CompletionLocation == nil:
		return ErrMissingCompletionGPS
	case o.Warranty == WarrantyUnknown || o.Status == StatusArrived:
		return ErrWarrantyUndecided
	case o.Warranty == WarrantyValid && !o.SparePartSent:
		return ErrMissingSparePartPhoto
	case o.Warranty == WarrantyValid && !o.SparePartReceived:
		return ErrSparePartNotReceived
	}
	return nil
}

// Finish closes the order. The payout is recomputed and written together with the
// delivered status, so the returned order carries exactly what was persisted.
func (s *Service) Finish(ctx context.Context, orderID, telegramID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered() {
		return nil, ErrAlreadyCompleted
	}
	if !order.AssignedTo(telegramID) {
		return nil, ErrNotAssigned
	}
	if err := CheckCompletion(order); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, order, EventFinish, UpdateParams{
		Payout:      lo.ToPtr(ComputePayout(*order)),
		DeliveredAt: lo.ToPtr(s.now()),
		Basis:       BasisOf(order),
	})
	if err != nil {
		return nil, err
	}

	ordersDelivered.Inc()

	masterName := ""
	if master, err := s.master(ctx, telegramID); err == nil {
		masterName = master.Name
	}
	s.notifier.NotifyAdmins(ctx, completedText(updated, masterName), nil)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.storage.GetOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

func (s *Service) ListByMaster(ctx context.Context, telegramID int64) ([]*Order, error) {
	return s.storage.ListOrders(ctx, ListCriteria{
		MasterTelegramID: lo.ToPtr(telegramID),
		Limit:            masterListLimit,
	})
}

func (s *Service) ListRecent(ctx context.Context) ([]*Order, error) {
	return s.storage.ListOrders(ctx, ListCriteria{Limit: recentListLimit})
}

// ListForExport returns every order, or only the technician's when masterTelegramID is set.
func (s *Service) ListForExport(ctx context.Context, masterTelegramID *int64) ([]*Order, error) {
	return s.storage.ListOrders(ctx, ListCriteria{MasterTelegramID: masterTelegramID})
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.storage.CountOrdersByStatus(ctx)
}

// ListStaleNew returns orders still waiting for a technician after olderThan.
func (s *Service) ListStaleNew(ctx context.Context, olderThan time.Duration) ([]*Order, error) {
	return s.storage.ListOrders(ctx, ListCriteria{
		Statuses:      []Status{StatusNew},
		CreatedBefore: lo.ToPtr(s.now().Add(-olderThan)),
	})
}

func (s *Service) master(ctx context.Context, telegramID int64) (*masters.Master, error) {
	m, err := s.masters.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, masters.ErrNotFound) {
			return nil, ErrNotMaster
		}
		return nil, errors.Wrap(err, "get master")
	}
	return m, nil
}

func (s *Service) loadAssigned(ctx context.Context, orderID, telegramID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.AssignedTo(telegramID) {
		return nil, ErrNotAssigned
	}
	return order, nil
}

// apply performs event as a conditional update on the order's current status.
func (s *Service) apply(ctx context.Context, order *Order, event Event, params UpdateParams) (*Order, error) {
	to, ok := Next(order.Status, event)
	if !ok {
		if order.IsDelivered() {
			return nil, ErrAlreadyCompleted
		}
		return nil, errors.Wrapf(ErrInvalidTransition, "%s in status %s", event, order.Status)
	}
	params.Status = &to

	updated, err := s.storage.UpdateOrder(ctx, order.ID, []Status{order.Status}, params)
	if err != nil {
		return nil, errors.Wrapf(err, "apply %s", event)
	}
	if updated == nil {
		return nil, ErrConcurrentUpdate
	}

	s.logger.Info("Order transitioned",
		slog.Int64("order_id", order.ID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(to)))
	return updated, nil
}

func (s *Service) distanceFor(o *Order, m *masters.Master, fallback *geo.Point) (float64, bool) {
	if o.Location == nil {
		return 0, false
	}

	ref, _, ok := m.ReferencePoint(s.now(), s.cfg.LocationFreshness)
	if !ok {
		if fallback == nil {
			return 0, false
		}
		ref = *fallback
	}
	return geo.RoundKm(geo.DistanceKm(ref, *o.Location)), true
}
