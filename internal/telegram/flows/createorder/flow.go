package createorder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

// productDateLayout - формат даты покупки (ДД.ММ.ГГГГ)
const productDateLayout = "02.01.2006"

type Handler struct {
	bot            botApi
	stateManager   stateManager
	ordersService  ordersService
	dispatcher     dispatcher
	mastersService mastersService
	stock          stockService
	catalog        flows.RegionCatalog
	logger         *slog.Logger
}

func NewHandler(
	bot botApi,
	sm stateManager,
	ordersSvc ordersService,
	d dispatcher,
	ms mastersService,
	stock stockService,
	catalog flows.RegionCatalog,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:            bot,
		stateManager:   sm,
		ordersService:  ordersSvc,
		dispatcher:     d,
		mastersService: ms,
		stock:          stock,
		catalog:        catalog,
		logger:         logger,
	}
}

// StartAdmin начинает флоу создания заказа админом
func (h *Handler) StartAdmin(chatID int64) error {
	h.stateManager.SetState(chatID, states.CreateOrderWaitName, &flows.CreateOrderFlowData{IsAdmin: true})
	return h.sendCancelable(chatID, messages.ClientName)
}

// StartMaster начинает флоу создания заказа мастером в его регионе
func (h *Handler) StartMaster(chatID int64, region string) error {
	h.stateManager.SetState(chatID, states.CreateOrderWaitName, &flows.CreateOrderFlowData{Region: region})
	return h.sendCancelable(chatID, messages.ClientName)
}

// Handle обрабатывает текущее состояние
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	chatID := flows.ExtractChatID(update)
	if flows.IsCancel(update) {
		return h.finish(chatID, h.isAdminFlow(chatID), messages.Cancelled)
	}

	// Получаем данные флоу
	data, err := states.DataAs[flows.CreateOrderFlowData](h.stateManager, chatID)
	if err != nil {
		h.logger.Warn("Create order flow data missing", slog.Int64("chat_id", chatID), slog.Any("error", err))
		h.stateManager.Clear(chatID)
		return h.send(chatID, messages.Error)
	}

	switch state {
	case states.CreateOrderWaitName:
		return h.handleName(update, data)
	case states.CreateOrderWaitPhone:
		return h.handlePhone(update, data)
	case states.CreateOrderWaitLocation:
		return h.handleLocation(ctx, update, data)
	case states.CreateOrderWaitRegion:
		return h.handleRegion(ctx, update, data)
	case states.CreateOrderWaitMaster:
		return h.handleMaster(ctx, update, data)
	case states.CreateOrderWaitProduct:
		return h.handleProduct(ctx, update, data)
	case states.CreateOrderWaitBarcode:
		return h.handleBarcode(update, data)
	case states.CreateOrderWaitProductDate:
		return h.handleProductDate(update, data)
	case states.CreateOrderWaitQuantity:
		return h.handleQuantity(ctx, update, data)
	default:
		return fmt.Errorf("unknown create order state: %s", state)
	}
}

// Reprompt повторяет вопрос текущего шага, если пришел неподходящий тип сообщения
func (h *Handler) Reprompt(chatID int64, state states.State) error {
	switch state {
	case states.CreateOrderWaitName:
		return h.send(chatID, messages.ClientName)
	case states.CreateOrderWaitPhone:
		return h.sendWithMarkup(chatID, messages.ClientPhone, messages.ContactKeyboard())
	case states.CreateOrderWaitLocation:
		return h.sendWithMarkup(chatID, messages.LocationOnly, messages.LocationKeyboard(messages.ButtonSendLocation))
	case states.CreateOrderWaitBarcode:
		return h.send(chatID, messages.AskBarcode)
	case states.CreateOrderWaitProductDate:
		return h.send(chatID, messages.AskProductDate)
	case states.CreateOrderWaitQuantity:
		return h.send(chatID, messages.AskOrderQuantity)
	default:
		return h.send(chatID, messages.UseButtons)
	}
}

func (h *Handler) handleName(update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	name := strings.TrimSpace(update.Message.Text)
	if name == "" {
		return h.send(chatID, messages.ClientName)
	}
	data.ClientName = name

	h.stateManager.SetState(chatID, states.CreateOrderWaitPhone, data)
	return h.sendWithMarkup(chatID, messages.ClientPhone, messages.ContactKeyboard())
}

func (h *Handler) handlePhone(update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	raw := update.Message.Text
	if update.Message.Contact != nil {
		raw = update.Message.Contact.PhoneNumber
	}
	phone := flows.NormalizePhone(raw)
	if !flows.IsValidPhoneNumber(phone) {
		return h.sendWithMarkup(chatID, messages.InvalidPhone, messages.ContactKeyboard())
	}
	data.ClientPhone = phone

	h.stateManager.SetState(chatID, states.CreateOrderWaitLocation, data)
	return h.sendWithMarkup(chatID, messages.ClientLocation, messages.LocationKeyboard(messages.ButtonSendLocation))
}

func (h *Handler) handleLocation(ctx context.Context, update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	p, ok := flows.LocationOf(update)
	if !ok {
		return h.Reprompt(chatID, states.CreateOrderWaitLocation)
	}
	data.Location = &p
	data.Address = messages.AddressFromLocation

	if !data.IsAdmin {
		return h.showProducts(ctx, chatID, data, messages.ChooseProduct)
	}

	h.stateManager.SetState(chatID, states.CreateOrderWaitRegion, data)
	_, err := h.bot.Send(flows.ProvincesMessage(chatID, h.catalog))
	return err
}

func (h *Handler) handleRegion(ctx context.Context, update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	pick, ok := flows.PickRegion(h.catalog, update.CallbackQuery.Data)
	if !ok {
		return h.send(chatID, messages.UseButtons)
	}
	if pick.Step != flows.RegionStepChosen {
		_, err := h.bot.Send(flows.RegionPickerEdit(chatID, update.CallbackQuery.Message.MessageID, h.catalog, pick))
		return err
	}

	data.Province = pick.Province
	data.Region = pick.District

	regional, err := h.mastersService.ListByRegion(ctx, data.Region, nil)
	if err != nil {
		return h.fail(chatID, "list region masters", err)
	}

	list, text := regional, messages.ChooseMaster
	if len(regional) == 0 {
		all, err := h.mastersService.ListAll(ctx)
		if err != nil {
			return h.fail(chatID, "list masters", err)
		}
		if len(all) == 0 {
			return h.finish(chatID, true, messages.NoMasters)
		}
		list, text = all, messages.NoMastersInRegion(data.Region)
	}

	h.stateManager.SetState(chatID, states.CreateOrderWaitMaster, data)
	return h.sendWithMarkup(chatID, text, messages.MastersKeyboard(list, len(regional) > 0))
}

func (h *Handler) handleMaster(ctx context.Context, update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	command, arg := callbacks.Parse(update.CallbackQuery.Data)
	switch command {
	case callbacks.AutoDispatch:
		data.AutoDispatch = true
		data.MasterID = nil
		return h.showProducts(ctx, chatID, data, messages.ChooseProduct)

	case callbacks.SelectMaster:
		id, ok := callbacks.ID(arg)
		if !ok {
			return h.send(chatID, messages.UseButtons)
		}
		m, err := h.mastersService.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, masters.ErrNotFound) {
				return h.finish(chatID, true, messages.MasterNotFound)
			}
			return h.fail(chatID, "get master", err)
		}
		data.MasterID = lo.ToPtr(m.ID)
		data.MasterName = m.Name
		data.AutoDispatch = false
		// Заказ уходит в регион выбранного мастера
		data.Region = m.Region
		return h.showProducts(ctx, chatID, data, messages.SelectedMaster(m.Name))
	}

	return h.send(chatID, messages.UseButtons)
}

func (h *Handler) showProducts(ctx context.Context, chatID int64, data *flows.CreateOrderFlowData, header string) error {
	items, err := h.listProducts(ctx, data.Region)
	if err != nil {
		return h.fail(chatID, "list products", err)
	}
	if len(items) == 0 {
		return h.finish(chatID, data.IsAdmin, messages.NoProducts)
	}

	data.ProductPage = 0
	h.stateManager.SetState(chatID, states.CreateOrderWaitProduct, data)
	return h.sendWithMarkup(chatID, header, messages.ProductsKeyboard(items, 0))
}

func (h *Handler) listProducts(ctx context.Context, region string) ([]*warehouse.Item, error) {
	return h.stock.ListByRegionAndCategory(ctx, lo.ToPtr(region), nil, nil, 1)
}

func (h *Handler) handleProduct(ctx context.Context, update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	command, arg := callbacks.Parse(update.CallbackQuery.Data)
	switch command {
	case callbacks.ProductNext:
		page, err := strconv.Atoi(arg)
		if err != nil || page < 0 {
			return h.send(chatID, messages.UseButtons)
		}
		items, err := h.listProducts(ctx, data.Region)
		if err != nil {
			return h.fail(chatID, "list products", err)
		}
		data.ProductPage = page
		h.stateManager.SetState(chatID, states.CreateOrderWaitProduct, data)

		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, update.CallbackQuery.Message.MessageID,
			messages.ProductsKeyboard(items, page))
		_, err = h.bot.Send(edit)
		return err

	case callbacks.Product:
		id, ok := callbacks.ID(arg)
		if !ok {
			return h.send(chatID, messages.UseButtons)
		}
		item, err := h.stock.Get(ctx, id)
		if err != nil {
			if errors.Is(err, warehouse.ErrNotFound) {
				return h.send(chatID, messages.ProductGone)
			}
			return h.fail(chatID, "get product", err)
		}
		data.ItemID = item.ID
		data.Product = item.Name

		if data.IsAdmin {
			h.stateManager.SetState(chatID, states.CreateOrderWaitBarcode, data)
			return h.send(chatID, messages.AskBarcode)
		}
		h.stateManager.SetState(chatID, states.CreateOrderWaitQuantity, data)
		return h.send(chatID, messages.AskOrderQuantity)
	}

	return h.send(chatID, messages.UseButtons)
}

func (h *Handler) handleBarcode(update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	barcode := strings.TrimSpace(update.Message.Text)
	data.Barcode = nil
	if barcode != "" && barcode != messages.SkipMark {
		data.Barcode = lo.ToPtr(barcode)
	}

	h.stateManager.SetState(chatID, states.CreateOrderWaitProductDate, data)
	return h.send(chatID, messages.AskProductDate)
}

// handleProductDate принимает дату покупки для проверки гарантии или "-", если она неизвестна
func (h *Handler) handleProductDate(update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	text := strings.TrimSpace(update.Message.Text)
	data.ProductDate = nil
	if text != messages.SkipMark {
		date, err := time.ParseInLocation(productDateLayout, text, time.Local)
		if err != nil {
			return h.send(chatID, messages.InvalidProductDate)
		}
		data.ProductDate = lo.ToPtr(date)
	}

	h.stateManager.SetState(chatID, states.CreateOrderWaitQuantity, data)
	return h.send(chatID, messages.AskOrderQuantity)
}

func (h *Handler) handleQuantity(ctx context.Context, update *tgbotapi.Update, data *flows.CreateOrderFlowData) error {
	chatID := flows.ExtractChatID(update)

	qty, err := strconv.Atoi(strings.TrimSpace(update.Message.Text))
	if err != nil || qty <= 0 {
		return h.send(chatID, messages.InvalidQuantity)
	}

	params := orders.CreateParams{
		ClientName:  data.ClientName,
		ClientPhone: data.ClientPhone,
		Address:     data.Address,
		Location:    data.Location,
		Region:      data.Region,
		Product:     data.Product,
		Quantity:    qty,
		Barcode:     data.Barcode,
		ProductDate: data.ProductDate,
		CreatedBy:   flows.ExtractUserID(update),
	}

	if data.IsAdmin {
		return h.createAsAdmin(ctx, chatID, data, params)
	}
	return h.createAsMaster(ctx, chatID, params)
}

func (h *Handler) createAsAdmin(ctx context.Context, chatID int64, data *flows.CreateOrderFlowData, params orders.CreateParams) error {
	var selected *masters.Master
	if data.MasterID != nil {
		m, err := h.mastersService.GetByID(ctx, *data.MasterID)
		if err != nil {
			if errors.Is(err, masters.ErrNotFound) {
				return h.finish(chatID, true, messages.MasterNotFound)
			}
			return h.fail(chatID, "get master", err)
		}
		selected = m
	}

	order, err := h.ordersService.Create(ctx, params, nil)
	if err != nil {
		return h.createFailed(chatID, true, err)
	}

	h.logger.Info("Order created by admin",
		slog.Int64("order_id", order.ID),
		slog.Int64("chat_id", chatID),
		slog.String("region", order.Region))

	var (
		res  dispatch.Result
		derr error
	)
	if selected != nil {
		res, derr = h.dispatcher.OfferTo(ctx, order, selected)
	} else {
		res, derr = h.dispatcher.Dispatch(ctx, order)
	}

	text := messages.OrderCreated(order.ID, order.Product, order.Quantity, order.Barcode)
	if derr != nil {
		h.logger.Error("Failed to dispatch order",
			slog.Int64("order_id", order.ID),
			slog.Any("error", derr))
		return h.finish(chatID, true, text+"\n\n"+messages.DispatchNoTakers)
	}
	return h.finish(chatID, true, text+"\n\n"+dispatchLine(order, res, selected))
}

func dispatchLine(order *orders.Order, res dispatch.Result, selected *masters.Master) string {
	switch {
	case selected != nil:
		return messages.DispatchedSelected(selected.Name)
	case res.Mode == dispatch.ModeOffered && res.Candidate != nil:
		return messages.DispatchedNearest(res.Candidate.Master.Name, res.Candidate.DistanceKm)
	case res.Mode == dispatch.ModeBroadcast:
		return messages.DispatchedBroadcast(order.Region, res.Notified)
	default:
		return messages.DispatchNoTakers
	}
}

func (h *Handler) createAsMaster(ctx context.Context, chatID int64, params orders.CreateParams) error {
	creator, err := h.mastersService.GetByTelegramID(ctx, chatID)
	if err != nil {
		if errors.Is(err, masters.ErrNotFound) {
			return h.finish(chatID, false, messages.NotRegistered)
		}
		return h.fail(chatID, "get creator", err)
	}

	order, err := h.ordersService.Create(ctx, params, creator)
	if err != nil {
		return h.createFailed(chatID, false, err)
	}

	h.logger.Info("Order created by master",
		slog.Int64("order_id", order.ID),
		slog.Int64("master_tg", creator.TelegramID))

	// Очищаем состояние пользователя
	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, messages.MasterOrderCreated, messages.OnWayKeyboard(order.ID))
}

// createFailed завершает флоу при отказе по бизнес-правилу и сохраняет его при неожиданной ошибке.
func (h *Handler) createFailed(chatID int64, isAdmin bool, err error) error {
	text, known := messages.ErrorText(err)
	if known {
		return h.finish(chatID, isAdmin, text)
	}
	return h.fail(chatID, "create order", err)
}

func (h *Handler) isAdminFlow(chatID int64) bool {
	data, err := states.DataAs[flows.CreateOrderFlowData](h.stateManager, chatID)
	return err == nil && data.IsAdmin
}

// finish очищает сессию и возвращает пользователя в его меню.
func (h *Handler) finish(chatID int64, isAdmin bool, text string) error {
	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, text, messages.MenuFor(isAdmin))
}

// fail логирует неожиданную ошибку, сессия остается для повтора.
func (h *Handler) fail(chatID int64, op string, err error) error {
	h.logger.Error("Create order step failed",
		slog.String("op", op),
		slog.Int64("chat_id", chatID),
		slog.Any("error", err))
	return h.send(chatID, messages.Error)
}

func (h *Handler) send(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (h *Handler) sendCancelable(chatID int64, text string) error {
	return h.sendWithMarkup(chatID, text, messages.CancelKeyboard())
}

func (h *Handler) sendWithMarkup(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, err := h.bot.Send(msg)
	return err
}
