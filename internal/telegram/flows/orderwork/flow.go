package orderwork

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

// Handler ведет мастера по заказу от принятия до завершения.
// Кнопки жизненного цикла работают вне зависимости от текущего шага сессии.
type Handler struct {
	bot           botApi
	stateManager  stateManager
	ordersService ordersService
	dispatcher    dispatcher
	logger        *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, ordersSvc ordersService, d dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		bot:           bot,
		stateManager:  sm,
		ordersService: ordersSvc,
		dispatcher:    d,
		logger:        logger,
	}
}

// HandleCallback обрабатывает кнопки жизненного цикла заказа
func (h *Handler) HandleCallback(ctx context.Context, update *tgbotapi.Update) error {
	query := update.CallbackQuery
	chatID := flows.ExtractChatID(update)
	userID := flows.ExtractUserID(update)

	command, arg := callbacks.Parse(query.Data)

	if command == callbacks.WorkType {
		id, value, ok := callbacks.IDAndValue(arg)
		wt, valid := geo.ParseWorkType(value)
		if !ok || !valid {
			return h.send(chatID, messages.UseButtons)
		}
		return h.selectWorkType(ctx, chatID, userID, id, wt)
	}

	orderID, ok := callbacks.ID(arg)
	if !ok {
		return h.send(chatID, messages.UseButtons)
	}

	switch command {
	case callbacks.AcceptOrder:
		return h.accept(ctx, chatID, userID, orderID, query.Message)
	case callbacks.RejectOrder:
		return h.reject(ctx, chatID, userID, orderID, query.Message)
	case callbacks.OnWay:
		return h.depart(ctx, chatID, userID, orderID)
	case callbacks.WarrantyExpired:
		return h.decideWarranty(ctx, chatID, userID, orderID, false, "")
	case callbacks.WarrantyValid:
		return h.decideWarranty(ctx, chatID, userID, orderID, true, "")
	case callbacks.AcceptSparePart:
		return h.confirmSparePart(ctx, chatID, orderID)
	case callbacks.FinishOrder:
		return h.finish(ctx, chatID, userID, orderID)
	default:
		return fmt.Errorf("unknown lifecycle command: %s", command)
	}
}

// Handle обрабатывает шаги с геолокацией и фото
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	chatID := flows.ExtractChatID(update)
	userID := flows.ExtractUserID(update)

	data, err := states.DataAs[flows.WorkFlowData](h.stateManager, chatID)
	if err != nil {
		h.logger.Warn("Work flow data missing", slog.Int64("chat_id", chatID), slog.Any("error", err))
		h.stateManager.Clear(chatID)
		return h.send(chatID, messages.Error)
	}
	orderID := data.OrderID

	switch state {
	case states.WorkWaitArrivalGPS, states.WorkWaitCompletionGPS:
		p, ok := flows.LocationOf(update)
		if !ok {
			return h.Reprompt(chatID, state)
		}
		if state == states.WorkWaitArrivalGPS {
			if _, err := h.ordersService.Arrive(ctx, orderID, userID, p); err != nil {
				return h.refused(chatID, orderID, "arrive", err)
			}
			h.stateManager.SetState(chatID, states.WorkWaitBeforePhoto, data)
			return h.sendWithMarkup(chatID, messages.ArrivedAskBefore, tgbotapi.NewRemoveKeyboard(true))
		}
		order, err := h.ordersService.RecordCompletionGPS(ctx, orderID, userID, p)
		if err != nil {
			return h.refused(chatID, orderID, "completion gps", err)
		}
		if order.Status == orders.StatusArrived {
			// Дата покупки известна: гарантию решаем без кнопок
			switch h.ordersService.ClassifyWarranty(order) {
			case orders.WarrantyValid:
				return h.decideWarranty(ctx, chatID, userID, orderID, true, messages.WarrantyByDateValid)
			case orders.WarrantyExpired:
				return h.decideWarranty(ctx, chatID, userID, orderID, false, messages.WarrantyByDateExpired)
			}
		}
		h.stateManager.SetState(chatID, states.WorkWaitWarranty, data)
		return h.sendWithMarkup(chatID, messages.AskWarranty, messages.WarrantyKeyboard(orderID))

	case states.WorkWaitBeforePhoto:
		fileID, ok := flows.LargestPhoto(update)
		if !ok {
			return h.Reprompt(chatID, state)
		}
		if _, err := h.ordersService.RecordBeforePhoto(ctx, orderID, userID, fileID); err != nil {
			return h.refused(chatID, orderID, "before photo", err)
		}
		h.stateManager.SetState(chatID, states.WorkWaitAfterPhoto, data)
		return h.send(chatID, messages.BeforeSavedAskNext)

	case states.WorkWaitAfterPhoto:
		fileID, ok := flows.LargestPhoto(update)
		if !ok {
			return h.Reprompt(chatID, state)
		}
		if _, err := h.ordersService.RecordAfterPhoto(ctx, orderID, userID, fileID); err != nil {
			return h.refused(chatID, orderID, "after photo", err)
		}
		h.stateManager.SetState(chatID, states.WorkWaitCompletionGPS, data)
		return h.sendWithMarkup(chatID, messages.AfterSavedAskGPS, messages.LocationKeyboard(messages.ButtonSendGPS))

	case states.WorkWaitSparePart:
		fileID, ok := flows.LargestPhoto(update)
		if !ok {
			return h.Reprompt(chatID, state)
		}
		if _, err := h.ordersService.SubmitSparePart(ctx, orderID, userID, fileID); err != nil {
			return h.refused(chatID, orderID, "spare part", err)
		}
		h.stateManager.Clear(chatID)
		return h.sendWithMarkup(chatID, messages.SparePartSent, messages.MainMenu())

	case states.WorkWaitWarranty:
		return h.Reprompt(chatID, state)

	default:
		return fmt.Errorf("unknown work state: %s", state)
	}
}

func (h *Handler) Reprompt(chatID int64, state states.State) error {
	switch state {
	case states.WorkWaitArrivalGPS, states.WorkWaitCompletionGPS:
		return h.sendWithMarkup(chatID, messages.AskGPS, messages.LocationKeyboard(messages.ButtonSendGPS))
	case states.WorkWaitBeforePhoto, states.WorkWaitAfterPhoto, states.WorkWaitSparePart:
		return h.send(chatID, messages.PhotoOnly)
	default:
		return h.send(chatID, messages.UseButtons)
	}
}

func (h *Handler) accept(ctx context.Context, chatID, userID, orderID int64, offer *tgbotapi.Message) error {
	order, err := h.ordersService.Accept(ctx, orderID, userID)
	if err != nil {
		return h.refused(chatID, orderID, "accept", err)
	}
	h.dispatcher.ForgetOrder(orderID)
	h.dropButtons(chatID, offer)

	h.logger.Info("Order accepted",
		slog.Int64("order_id", order.ID),
		slog.Int64("master_tg", userID))

	return h.sendWithMarkup(chatID, messages.OrderAccepted(order.ID), messages.OnWayKeyboard(order.ID))
}

func (h *Handler) reject(ctx context.Context, chatID, userID, orderID int64, offer *tgbotapi.Message) error {
	res, err := h.dispatcher.HandleRejection(ctx, orderID, userID)
	if err != nil {
		return h.refused(chatID, orderID, "reject", err)
	}
	h.dropButtons(chatID, offer)

	h.logger.Info("Order rejected",
		slog.Int64("order_id", orderID),
		slog.Int64("master_tg", userID),
		slog.String("next_mode", string(res.Mode)))

	return h.send(chatID, messages.OrderRejected(orderID))
}

func (h *Handler) depart(ctx context.Context, chatID, userID, orderID int64) error {
	if _, err := h.ordersService.Depart(ctx, orderID, userID); err != nil {
		return h.refused(chatID, orderID, "depart", err)
	}

	h.stateManager.SetState(chatID, states.WorkWaitArrivalGPS, &flows.WorkFlowData{OrderID: orderID})
	return h.sendWithMarkup(chatID, messages.AskGPS, messages.LocationKeyboard(messages.ButtonSendGPS))
}

// decideWarranty фиксирует гарантию; note добавляется перед следующим вопросом
func (h *Handler) decideWarranty(ctx context.Context, chatID, userID, orderID int64, valid bool, note string) error {
	if _, err := h.ordersService.DecideWarranty(ctx, orderID, userID, valid); err != nil {
		return h.refused(chatID, orderID, "warranty", err)
	}

	if valid {
		h.stateManager.SetState(chatID, states.WorkWaitSparePart, &flows.WorkFlowData{OrderID: orderID})
		return h.send(chatID, withNote(note, messages.WarrantyValidAsk))
	}

	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, withNote(note, messages.WarrantyExpiredAsk), messages.WorkTypeKeyboard(orderID))
}

func withNote(note, text string) string {
	if note == "" {
		return text
	}
	return note + "\n\n" + text
}

func (h *Handler) selectWorkType(ctx context.Context, chatID, userID, orderID int64, wt geo.WorkType) error {
	order, err := h.ordersService.SetWorkType(ctx, orderID, userID, wt)
	if err != nil {
		return h.refused(chatID, orderID, "work type", err)
	}
	text := messages.WorkTypeSelected(wt == geo.WorkTypeEasy, orders.PayoutLines(order))
	return h.sendWithMarkup(chatID, text, messages.FinishKeyboard(orderID))
}

func (h *Handler) confirmSparePart(ctx context.Context, chatID, orderID int64) error {
	if _, err := h.ordersService.ConfirmSparePart(ctx, orderID); err != nil {
		return h.refused(chatID, orderID, "confirm spare part", err)
	}
	return h.send(chatID, messages.SparePartConfirmed(orderID))
}

func (h *Handler) finish(ctx context.Context, chatID, userID, orderID int64) error {
	order, err := h.ordersService.Finish(ctx, orderID, userID)
	if err != nil {
		return h.refused(chatID, orderID, "finish", err)
	}

	h.logger.Info("Order delivered",
		slog.Int64("order_id", order.ID),
		slog.Int64("master_tg", userID),
		slog.Int64("total", order.Payout.TotalPayment))

	// Очищаем состояние пользователя
	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, messages.OrderFinishedSummary(order.ID, orders.PayoutLines(order)), messages.MainMenu())
}

// refused сообщает о нарушении правила и логирует неожиданные ошибки.
// Сессия сохраняется, мастер может повторить тот же шаг.
func (h *Handler) refused(chatID, orderID int64, op string, err error) error {
	text, known := messages.ErrorText(err)
	if !known {
		h.logger.Error("Order step failed",
			slog.String("op", op),
			slog.Int64("order_id", orderID),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
	}
	return h.send(chatID, text)
}

// dropButtons убирает кнопки принять/отклонить с отвеченного предложения.
func (h *Handler) dropButtons(chatID int64, offer *tgbotapi.Message) {
	if offer == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, offer.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := h.bot.Request(edit); err != nil {
		h.logger.Warn("Failed to remove offer buttons", slog.Any("error", err))
	}
}

func (h *Handler) send(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (h *Handler) sendWithMarkup(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := h.bot.Send(msg)
	return err
}
