// Package dispatch offers new orders to the nearest technician of a region and falls
// back to a region-wide broadcast when nobody can be ranked by distance.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/telegram/callbacks"
)

var outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usta_dispatch_outcomes_total",
	Help: "Dispatch rounds by resulting mode.",
}, []string{"mode"})

type Mode string

const (
	ModeOffered   Mode = "offered"
	ModeBroadcast Mode = "broadcast"
	ModeNoTakers  Mode = "no_takers"
)

// Candidate is a technician ranked by distance from their reference point to the order.
type Candidate struct {
	Master     *masters.Master
	DistanceKm float64
	Reference  masters.ReferenceKind
}

type Result struct {
	Mode        Mode
	Candidate   *Candidate
	DistanceFee int64
	Notified    int
}

type Engine struct {
	orders    ordersService
	masters   mastersService
	notifier  notifier
	pending   PendingStore
	freshness time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewEngine(
	orders ordersService,
	masters mastersService,
	notifier notifier,
	pending PendingStore,
	freshness time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		orders:    orders,
		masters:   masters,
		notifier:  notifier,
		pending:   pending,
		freshness: freshness,
		now:       now,
		logger:    logger,
	}
}

// Candidates lists the region's technicians that have a reference point, nearest first.
// Equal distances keep the storage order.
func (e *Engine) Candidates(ctx context.Context, region string, to geo.Point, exclude []int64) ([]Candidate, error) {
	list, err := e.masters.ListByRegion(ctx, region, exclude)
	if err != nil {
		return nil, errors.Wrap(err, "list masters")
	}

	now := e.now()
	out := make([]Candidate, 0, len(list))
	for _, m := range list {
		if slices.Contains(exclude, m.TelegramID) {
			continue
		}
		ref, kind, ok := m.ReferencePoint(now, e.freshness)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Master:     m,
			DistanceKm: geo.RoundKm(geo.DistanceKm(ref, to)),
			Reference:  kind,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out, nil
}

// FindNearest returns the closest candidate. Found is false when nobody qualifies.
func (e *Engine) FindNearest(ctx context.Context, region string, to geo.Point, exclude []int64) (Candidate, bool, error) {
	list, err := e.Candidates(ctx, region, to, exclude)
	if err != nil {
		return Candidate{}, false, err
	}
	if len(list) == 0 {
		return Candidate{}, false, nil
	}
	return list[0], true, nil
}

// Dispatch runs one round for a new order. Technicians who declined it are skipped.
// Candidates are tried nearest first until one is reachable, then the region is broadcast.
func (e *Engine) Dispatch(ctx context.Context, order *orders.Order) (Result, error) {
	exclude, err := e.orders.Rejections(ctx, order.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "load rejections")
	}

	if order.Location != nil {
		candidates, err := e.Candidates(ctx, order.Region, *order.Location, exclude)
		if err != nil {
			return Result{}, err
		}

		for i := range candidates {
			c := candidates[i]
			if err := e.sendOffer(ctx, order, c.Master, c.DistanceKm, true); err != nil {
				e.logger.Warn("Nearest master unreachable, trying next",
					slog.Int64("order_id", order.ID),
					slog.Int64("master_tg", c.Master.TelegramID),
					slog.Any("error", err))
				continue
			}

			fee := geo.DistanceFee(c.DistanceKm)
			e.notifier.NotifyAdmins(ctx, fmt.Sprintf(
				"📍 Eng yaqin usta topildi!\n\n"+
					"📋 Buyurtma ID: #%d\n"+
					"👷 Usta: %s\n"+
					"📏 Masofa: ~%.2f km (%s)\n"+
					"🚗 Masofa to'lovi: %s\n"+
					"📞 Tel: %s\n\n"+
					"Usta tasdiqlashini kutmoqda...",
				order.ID, c.Master.Name, c.DistanceKm, referenceLabel(c.Reference),
				orders.FormatSum(fee), c.Master.Phone,
			), nil)

			outcomes.WithLabelValues(string(ModeOffered)).Inc()
			return Result{Mode: ModeOffered, Candidate: &c, DistanceFee: fee, Notified: 1}, nil
		}
	}

	return e.broadcast(ctx, order, exclude)
}

func (e *Engine) broadcast(ctx context.Context, order *orders.Order, exclude []int64) (Result, error) {
	list, err := e.masters.ListByRegion(ctx, order.Region, exclude)
	if err != nil {
		return Result{}, errors.Wrap(err, "list masters")
	}
	list = lo.Filter(list, func(m *masters.Master, _ int) bool {
		return !slices.Contains(exclude, m.TelegramID)
	})

	// Those still holding this order's broadcast are not asked again
	waiting := 0
	list = lo.Filter(list, func(m *masters.Master, _ int) bool {
		if e.pending.Awaits(m.TelegramID, order.ID) {
			waiting++
			return false
		}
		return true
	})

	notified := 0
	for _, m := range list {
		if err := e.sendOffer(ctx, order, m, 0, false); err != nil {
			e.logger.Warn("Broadcast offer failed",
				slog.Int64("order_id", order.ID),
				slog.Int64("master_tg", m.TelegramID),
				slog.Any("error", err))
			continue
		}

		e.pending.Put(m.TelegramID, Offer{OrderID: order.ID, Region: order.Region, SentAt: e.now()})
		if err := e.notifier.RequestLocation(ctx, m.TelegramID,
			"⚡ Buyurtmani qabul qilish uchun joylashuvingizni yuboring:"); err != nil {
			e.logger.Warn("Location request failed",
				slog.Int64("master_tg", m.TelegramID),
				slog.Any("error", err))
		}
		notified++
	}

	if notified == 0 && waiting > 0 {
		outcomes.WithLabelValues(string(ModeBroadcast)).Inc()
		return Result{Mode: ModeBroadcast, Notified: waiting}, nil
	}

	if notified == 0 {
		e.notifier.NotifyAdmins(ctx, fmt.Sprintf(
			"⚠️ Ustalar topilmadi!\n\n"+
				"📋 Buyurtma ID: #%d\n"+
				"📍 Hudud: %s\n"+
				"Iltimos, buyurtmani qo'lda tayinlang.",
			order.ID, order.Region,
		), nil)
		outcomes.WithLabelValues(string(ModeNoTakers)).Inc()
		return Result{Mode: ModeNoTakers}, nil
	}

	e.notifier.NotifyAdmins(ctx, fmt.Sprintf(
		"⚠️ Hech qanday yaqin usta topilmadi!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"📢 %s hududidagi %d ta ustaga xabar yuborildi.",
		order.ID, order.Region, notified,
	), nil)
	outcomes.WithLabelValues(string(ModeBroadcast)).Inc()
	return Result{Mode: ModeBroadcast, Notified: notified + waiting}, nil
}

// OfferTo sends a direct offer to a technician picked by an admin.
func (e *Engine) OfferTo(ctx context.Context, order *orders.Order, m *masters.Master) (Result, error) {
	c := Candidate{Master: m}
	if order.Location != nil {
		if ref, kind, ok := m.ReferencePoint(e.now(), e.freshness); ok {
			c.DistanceKm = geo.RoundKm(geo.DistanceKm(ref, *order.Location))
			c.Reference = kind
		}
	}

	if err := e.sendOffer(ctx, order, m, c.DistanceKm, c.Reference != ""); err != nil {
		return Result{}, errors.Wrap(err, "send offer")
	}

	outcomes.WithLabelValues(string(ModeOffered)).Inc()
	return Result{Mode: ModeOffered, Candidate: &c, DistanceFee: geo.DistanceFee(c.DistanceKm), Notified: 1}, nil
}

// HandleRejection records the technician's refusal and runs the next dispatch round.
func (e *Engine) HandleRejection(ctx context.Context, orderID, telegramID int64) (Result, error) {
	order, _, err := e.orders.Reject(ctx, orderID, telegramID)
	if err != nil {
		return Result{}, err
	}
	e.pending.Forget(telegramID, orderID)
	return e.Dispatch(ctx, order)
}

// HandleBroadcastLocation consumes a technician's answer to a broadcast location request.
// It reports false when the technician had nothing pending.
func (e *Engine) HandleBroadcastLocation(ctx context.Context, telegramID int64, at geo.Point) (Offer, bool, error) {
	offer, ok := e.pending.Take(telegramID)
	if !ok {
		return Offer{}, false, nil
	}

	m, err := e.masters.RecordLiveLocation(ctx, telegramID, at)
	if err != nil {
		return offer, true, errors.Wrap(err, "record live location")
	}

	e.notifier.NotifyAdmins(ctx, fmt.Sprintf(
		"📍 USTA JOYLASHUVNI YUBORDI!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n"+
			"📍 Koordinatalar: %.6f, %.6f\n"+
			"📍 Hudud: %s",
		offer.OrderID, m.Name, at.Lat, at.Lng, offer.Region,
	), nil)
	return offer, true, nil
}

// ForgetOrder drops broadcast offers once an order has been taken.
func (e *Engine) ForgetOrder(orderID int64) {
	e.pending.DropOrder(orderID)
}

func (e *Engine) sendOffer(ctx context.Context, order *orders.Order, m *masters.Master, km float64, nearest bool) error {
	buttons := notify.Buttons{
		notify.Row(notify.Button{Text: "✅ Qabul qilish", Data: callbacks.Data(callbacks.AcceptOrder, order.ID)}),
		notify.Row(notify.Button{Text: "❌ Rad etish", Data: callbacks.Data(callbacks.RejectOrder, order.ID)}),
	}
	if err := e.notifier.NotifyMaster(ctx, m.TelegramID, orders.OfferText(order, km, nearest), buttons); err != nil {
		return err
	}

	if order.Location != nil {
		if err := e.notifier.SendLocation(ctx, m.TelegramID, *order.Location); err != nil {
			e.logger.Warn("Failed to send order location",
				slog.Int64("order_id", order.ID),
				slog.Int64("master_tg", m.TelegramID),
				slog.Any("error", err))
		}
	}
	return nil
}

func referenceLabel(k masters.ReferenceKind) string {
	if k == masters.ReferenceLive {
		return "joriy joylashuv"
	}
	return "servis markaz"
}
