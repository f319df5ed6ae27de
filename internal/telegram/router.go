package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	stateManager interface {
		GetState(chatID int64) states.State
		Clear(chatID int64)
	}

	adminChecker interface {
		IsAdmin(telegramID int64) bool
	}

	mastersService interface {
		GetByTelegramID(ctx context.Context, telegramID int64) (*masters.Master, error)
		RecordLiveLocation(ctx context.Context, telegramID int64, p geo.Point) (*masters.Master, error)
	}

	broadcastAnswers interface {
		HandleBroadcastLocation(ctx context.Context, telegramID int64, at geo.Point) (dispatch.Offer, bool, error)
	}

	// stepHandler обрабатывает шаги одного флоу
	stepHandler interface {
		Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error
		Reprompt(chatID int64, state states.State) error
	}
)

type (
	createOrderFlow interface {
		stepHandler
		StartAdmin(chatID int64) error
		StartMaster(chatID int64, region string) error
	}

	addMasterFlow interface {
		stepHandler
		Start(chatID int64) error
	}

	addProductFlow interface {
		stepHandler
		Start(chatID int64) error
		StartRestock(chatID int64, region string) error
	}

	importFlow interface {
		stepHandler
		Start(chatID int64) error
	}

	startLocationFlow interface {
		stepHandler
		Start(chatID int64, name string) error
		Require(chatID int64) error
		StartServiceCenter(chatID int64) error
	}

	orderWorkFlow interface {
		stepHandler
		HandleCallback(ctx context.Context, update *tgbotapi.Update) error
	}
)

type (
	myOrdersCommand interface {
		Execute(ctx context.Context, telegramID int64, chatID int64) error
	}

	stockCommand interface {
		Execute(ctx context.Context, chatID int64, isAdmin bool, region string) error
	}

	listCommand interface {
		Execute(ctx context.Context, chatID int64) error
	}

	statsCommand interface {
		Execute(ctx context.Context, chatID int64) error
		Refresh(ctx context.Context, chatID int64, messageID int) error
	}

	exportCommand interface {
		Execute(ctx context.Context, chatID int64, isAdmin bool, telegramID int64, masterName string) error
	}
)

// Flows - обработчики пошаговых сценариев
type Flows struct {
	CreateOrder   createOrderFlow
	AddMaster     addMasterFlow
	AddProduct    addProductFlow
	Import        importFlow
	StartLocation startLocationFlow
	OrderWork     orderWorkFlow
}

// Commands - одношаговые команды меню
type Commands struct {
	MyOrders     myOrdersCommand
	Stock        stockCommand
	Masters      listCommand
	RecentOrders listCommand
	Stats        statsCommand
	Export       exportCommand
}

type Router struct {
	bot          botApi
	stateManager stateManager
	adminChecker adminChecker
	masters      mastersService
	broadcasts   broadcastAnswers
	flows        Flows
	commands     Commands
	freshness    time.Duration
	now          func() time.Time
	logger       *slog.Logger

	// Чаты, для которых уже выставлены команды
	scoped sync.Map
}

func NewRouter(
	bot botApi,
	stateManager stateManager,
	adminChecker adminChecker,
	ms mastersService,
	broadcasts broadcastAnswers,
	fl Flows,
	commands Commands,
	freshness time.Duration,
	now func() time.Time,
	logger *slog.Logger,
) *Router {
	return &Router{
		bot:          bot,
		stateManager: stateManager,
		adminChecker: adminChecker,
		masters:      ms,
		broadcasts:   broadcasts,
		flows:        fl,
		commands:     commands,
		freshness:    freshness,
		now:          now,
		logger:       logger,
	}
}

func (r *Router) Route(ctx context.Context, update *tgbotapi.Update) error {
	userID := flows.ExtractUserID(update)
	chatID := flows.ExtractChatID(update)
	if userID == 0 || chatID == 0 {
		return nil // Некорректный update
	}

	isAdmin := r.adminChecker.IsAdmin(userID)
	r.setupChatCommands(chatID, isAdmin)

	// Отвечаем на callback сразу, чтобы у кнопки пропали часики
	if update.CallbackQuery != nil {
		_, _ = r.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, ""))
	}

	// ПРИОРИТЕТ: команды и кнопки меню отменяют любой флоу
	if update.Message != nil && update.Message.IsCommand() {
		r.stateManager.Clear(chatID)
		return r.handleCommand(ctx, update, userID, chatID, isAdmin)
	}
	if update.Message != nil && isMenuButton(update.Message.Text) {
		r.stateManager.Clear(chatID)
		return r.handleMenu(ctx, update.Message.Text, userID, chatID, isAdmin)
	}

	state := r.stateManager.GetState(chatID)

	if update.CallbackQuery != nil {
		command, _ := callbacks.Parse(update.CallbackQuery.Data)
		switch {
		case callbacks.IsLifecycle(command):
			if command == callbacks.AcceptSparePart && !isAdmin {
				return r.send(chatID, messages.AdminOnly)
			}
			return r.flows.OrderWork.HandleCallback(ctx, update)
		case command == callbacks.StatsRefresh:
			if !isAdmin {
				return r.send(chatID, messages.AdminOnly)
			}
			return r.commands.Stats.Refresh(ctx, chatID, update.CallbackQuery.Message.MessageID)
		case command == callbacks.Cancel:
			if handler, ok := r.cancelableHandler(state); ok {
				return handler.Handle(ctx, update, state)
			}
			r.stateManager.Clear(chatID)
			return r.sendMenu(chatID, messages.Cancelled, isAdmin)
		}
	}

	if state == states.StateNone {
		return r.handleIdle(ctx, update, userID, chatID, isAdmin)
	}

	handler, ok := r.handlerFor(state)
	if !ok {
		r.logger.Warn("No handler for session step", slog.String("state", string(state)), slog.Int64("chat_id", chatID))
		r.stateManager.Clear(chatID)
		return r.sendMenu(chatID, messages.Error, isAdmin)
	}

	// Шаг принимает только свои типы ввода; остальное - повтор вопроса
	if !states.Accepts(state, flows.InputKindOf(update)) {
		return handler.Reprompt(chatID, state)
	}
	return handler.Handle(ctx, update, state)
}

func (r *Router) handlerFor(state states.State) (stepHandler, bool) {
	switch {
	case state.HasPrefix(states.PrefixCreateOrder):
		return r.flows.CreateOrder, true
	case state.HasPrefix(states.PrefixAddMaster):
		return r.flows.AddMaster, true
	case state.HasPrefix(states.PrefixAddProduct):
		return r.flows.AddProduct, true
	case state.HasPrefix(states.PrefixImport):
		return r.flows.Import, true
	case state.HasPrefix(states.PrefixWork):
		return r.flows.OrderWork, true
	case state.HasPrefix(states.PrefixStart):
		return r.flows.StartLocation, true
	default:
		return nil, false
	}
}

// cancelableHandler возвращает флоу, который сам обрабатывает кнопку отмены
func (r *Router) cancelableHandler(state states.State) (stepHandler, bool) {
	if state.HasPrefix(states.PrefixWork) || state.HasPrefix(states.PrefixStart) {
		return nil, false
	}
	return r.handlerFor(state)
}

func (r *Router) handleCommand(ctx context.Context, update *tgbotapi.Update, userID, chatID int64, isAdmin bool) error {
	switch update.Message.Command() {
	case "start":
		return r.sendWelcome(ctx, userID, chatID, isAdmin)
	case "addmaster":
		if !isAdmin {
			return r.send(chatID, messages.AdminOnlyCmd)
		}
		return r.flows.AddMaster.Start(chatID)
	case "service_center":
		if _, ok, err := r.master(ctx, userID, chatID); !ok {
			return err
		}
		return r.flows.StartLocation.StartServiceCenter(chatID)
	case "stats":
		if !isAdmin {
			return r.send(chatID, messages.AdminOnlyCmd)
		}
		return r.commands.Stats.Execute(ctx, chatID)
	case "cancel":
		return r.sendMenu(chatID, messages.Cancelled, isAdmin)
	default:
		return r.sendMenu(chatID, messages.Help, isAdmin)
	}
}

func isMenuButton(text string) bool {
	switch text {
	case messages.ButtonNewDelivery, messages.ButtonAddMaster, messages.ButtonAddProduct,
		messages.ButtonImport, messages.ButtonAllOrders, messages.ButtonAllMasters,
		messages.ButtonAdminStock, messages.ButtonExport, messages.ButtonBack,
		messages.ButtonMyOrders, messages.ButtonStock, messages.ButtonRestock:
		return true
	default:
		return false
	}
}

func (r *Router) handleMenu(ctx context.Context, text string, userID, chatID int64, isAdmin bool) error {
	// Админские кнопки
	switch text {
	case messages.ButtonAddMaster, messages.ButtonAddProduct, messages.ButtonImport,
		messages.ButtonAllOrders, messages.ButtonAllMasters, messages.ButtonAdminStock:
		if !isAdmin {
			return r.send(chatID, messages.AdminOnly)
		}
	}

	switch text {
	case messages.ButtonAddMaster:
		return r.flows.AddMaster.Start(chatID)
	case messages.ButtonAddProduct:
		return r.flows.AddProduct.Start(chatID)
	case messages.ButtonImport:
		return r.flows.Import.Start(chatID)
	case messages.ButtonAllOrders:
		return r.commands.RecentOrders.Execute(ctx, chatID)
	case messages.ButtonAllMasters:
		return r.commands.Masters.Execute(ctx, chatID)
	case messages.ButtonAdminStock:
		return r.commands.Stock.Execute(ctx, chatID, true, "")
	case messages.ButtonBack:
		return r.sendWelcome(ctx, userID, chatID, isAdmin)
	}

	if isAdmin {
		switch text {
		case messages.ButtonNewDelivery:
			return r.flows.CreateOrder.StartAdmin(chatID)
		case messages.ButtonExport:
			return r.commands.Export.Execute(ctx, chatID, true, userID, "")
		}
	}

	m, ok, err := r.master(ctx, userID, chatID)
	if !ok {
		return err
	}

	switch text {
	case messages.ButtonNewDelivery:
		if _, _, located := m.ReferencePoint(r.now(), r.freshness); !located {
			return r.flows.StartLocation.Require(chatID)
		}
		return r.flows.CreateOrder.StartMaster(chatID, m.Region)
	case messages.ButtonMyOrders:
		return r.commands.MyOrders.Execute(ctx, userID, chatID)
	case messages.ButtonStock:
		return r.commands.Stock.Execute(ctx, chatID, false, m.Region)
	case messages.ButtonRestock:
		return r.flows.AddProduct.StartRestock(chatID, m.Region)
	case messages.ButtonExport:
		return r.commands.Export.Execute(ctx, chatID, false, userID, m.Name)
	default:
		return r.sendMenu(chatID, messages.Help, isAdmin)
	}
}

// handleIdle обрабатывает сообщения вне флоу
func (r *Router) handleIdle(ctx context.Context, update *tgbotapi.Update, userID, chatID int64, isAdmin bool) error {
	at, isLocation := flows.LocationOf(update)
	if !isLocation {
		if update.CallbackQuery != nil {
			return r.send(chatID, messages.NothingPending)
		}
		return r.sendMenu(chatID, messages.Help, isAdmin)
	}

	offer, pending, err := r.broadcasts.HandleBroadcastLocation(ctx, userID, at)
	if err != nil {
		_ = r.sendMenu(chatID, messages.Error, isAdmin)
		return errors.Wrap(err, "broadcast location")
	}
	if pending {
		return r.sendMenu(chatID, messages.BroadcastLocationAccepted(offer.OrderID, at.Lat, at.Lng), isAdmin)
	}

	if isAdmin {
		return r.sendMenu(chatID, messages.NothingPending, isAdmin)
	}

	_, err = r.masters.RecordLiveLocation(ctx, userID, at)
	switch {
	case errors.Is(err, masters.ErrNotFound):
		return r.send(chatID, messages.NotRegistered)
	case err != nil:
		_ = r.sendMenu(chatID, messages.Error, isAdmin)
		return errors.Wrap(err, "record live location")
	}
	return r.sendMenu(chatID, messages.LocationAccepted(at.Lat, at.Lng), false)
}

func (r *Router) sendWelcome(ctx context.Context, userID, chatID int64, isAdmin bool) error {
	if isAdmin {
		return r.sendMenu(chatID, messages.AdminWelcome, true)
	}

	m, ok, err := r.master(ctx, userID, chatID)
	if !ok {
		return err
	}
	if _, _, located := m.ReferencePoint(r.now(), r.freshness); located {
		return r.sendMenu(chatID, messages.MasterMenu(m.Name), false)
	}
	return r.flows.StartLocation.Start(chatID, m.Name)
}

// master находит мастера по telegram ID; если его нет, пользователь уже получил ответ
func (r *Router) master(ctx context.Context, userID, chatID int64) (*masters.Master, bool, error) {
	m, err := r.masters.GetByTelegramID(ctx, userID)
	switch {
	case errors.Is(err, masters.ErrNotFound):
		return nil, false, r.send(chatID, messages.NotRegistered)
	case err != nil:
		_ = r.send(chatID, messages.Error)
		return nil, false, errors.Wrap(err, "get master")
	}
	return m, true, nil
}

func (r *Router) send(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Router) sendMenu(chatID int64, text string, isAdmin bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = messages.MenuFor(isAdmin)
	_, err := r.bot.Send(msg)
	return err
}

// SetupBotCommands устанавливает команды по умолчанию для всех чатов
func (r *Router) SetupBotCommands() error {
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Bosh menyu",
		},
		{
			Command:     "service_center",
			Description: "Servis markaz joylashuvi",
		},
		{
			Command:     "cancel",
			Description: "Bekor qilish",
		},
		{
			Command:     "help",
			Description: "Yordam",
		},
	}

	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

// setupChatCommands выставляет админам расширенный список команд один раз на чат
func (r *Router) setupChatCommands(chatID int64, isAdmin bool) {
	if !isAdmin {
		return
	}
	if _, seen := r.scoped.LoadOrStore(chatID, struct{}{}); seen {
		return
	}

	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Bosh menyu",
		},
		{
			Command:     "addmaster",
			Description: "Yangi usta qo'shish",
		},
		{
			Command:     "stats",
			Description: "Statistika",
		},
		{
			Command:     "cancel",
			Description: "Bekor qilish",
		},
		{
			Command:     "help",
			Description: "Yordam",
		},
	}

	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	setCommandsConfig := tgbotapi.SetMyCommandsConfig{
		Commands: commands,
		Scope:    &scope,
	}

	// Игнорируем ошибку, чтобы не блокировать основной поток
	_, _ = r.bot.Request(setCommandsConfig)
}
