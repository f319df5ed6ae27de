package addmaster

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

type Handler struct {
	bot            botApi
	stateManager   stateManager
	mastersService mastersService
	catalog        flows.RegionCatalog
	logger         *slog.Logger
}

func NewHandler(
	bot botApi,
	sm stateManager,
	ms mastersService,
	catalog flows.RegionCatalog,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:            bot,
		stateManager:   sm,
		mastersService: ms,
		catalog:        catalog,
		logger:         logger,
	}
}

// Start начинает флоу добавления мастера (только для админов)
func (h *Handler) Start(chatID int64) error {
	h.stateManager.SetState(chatID, states.AddMasterWaitName, &flows.AddMasterFlowData{})

	msg := tgbotapi.NewMessage(chatID, messages.AddMasterName)
	msg.ReplyMarkup = messages.CancelKeyboard()
	_, err := h.bot.Send(msg)
	return err
}

// Handle обрабатывает текущее состояние
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	if flows.IsCancel(update) {
		return h.handleCancel(update)
	}

	switch state {
	case states.AddMasterWaitName:
		return h.handleName(update)
	case states.AddMasterWaitPhone:
		return h.handlePhone(update)
	case states.AddMasterWaitTelegramID:
		return h.handleTelegramID(update)
	case states.AddMasterWaitRegion:
		return h.handleRegion(ctx, update)
	default:
		return fmt.Errorf("unknown add master state: %s", state)
	}
}

// Reprompt повторяет вопрос текущего шага
func (h *Handler) Reprompt(chatID int64, state states.State) error {
	switch state {
	case states.AddMasterWaitName:
		return h.send(chatID, messages.AddMasterName)
	case states.AddMasterWaitPhone:
		return h.send(chatID, messages.AddMasterPhone)
	case states.AddMasterWaitTelegramID:
		return h.send(chatID, messages.AddMasterTelegramID)
	default:
		return h.send(chatID, messages.UseButtons)
	}
}

func (h *Handler) handleName(update *tgbotapi.Update) error {
	chatID := flows.ExtractChatID(update)

	name := strings.TrimSpace(update.Message.Text)
	if name == "" {
		return h.send(chatID, messages.AddMasterName)
	}

	data, err := states.DataAs[flows.AddMasterFlowData](h.stateManager, chatID)
	if err != nil {
		return h.restart(chatID, err)
	}
	data.Name = name

	h.stateManager.SetState(chatID, states.AddMasterWaitPhone, data)
	return h.send(chatID, messages.AddMasterPhone)
}

func (h *Handler) handlePhone(update *tgbotapi.Update) error {
	chatID := flows.ExtractChatID(update)

	raw := update.Message.Text
	if update.Message.Contact != nil {
		raw = update.Message.Contact.PhoneNumber
	}
	phone := flows.NormalizePhone(raw)
	if !flows.IsValidPhoneNumber(phone) {
		return h.send(chatID, messages.InvalidPhone)
	}

	data, err := states.DataAs[flows.AddMasterFlowData](h.stateManager, chatID)
	if err != nil {
		return h.restart(chatID, err)
	}
	data.Phone = phone

	h.stateManager.SetState(chatID, states.AddMasterWaitTelegramID, data)
	return h.send(chatID, messages.AddMasterTelegramID)
}

func (h *Handler) handleTelegramID(update *tgbotapi.Update) error {
	chatID := flows.ExtractChatID(update)

	telegramID, err := strconv.ParseInt(strings.TrimSpace(update.Message.Text), 10, 64)
	if err != nil || telegramID <= 0 {
		return h.send(chatID, messages.InvalidTelegramID)
	}

	data, err := states.DataAs[flows.AddMasterFlowData](h.stateManager, chatID)
	if err != nil {
		return h.restart(chatID, err)
	}
	data.TelegramID = telegramID

	h.stateManager.SetState(chatID, states.AddMasterWaitRegion, data)
	_, err = h.bot.Send(flows.ProvincesMessage(chatID, h.catalog))
	return err
}

func (h *Handler) handleRegion(ctx context.Context, update *tgbotapi.Update) error {
	chatID := flows.ExtractChatID(update)

	pick, ok := flows.PickRegion(h.catalog, update.CallbackQuery.Data)
	if !ok {
		return h.send(chatID, messages.UseButtons)
	}
	if pick.Step != flows.RegionStepChosen {
		_, err := h.bot.Send(flows.RegionPickerEdit(chatID, update.CallbackQuery.Message.MessageID, h.catalog, pick))
		return err
	}

	data, err := states.DataAs[flows.AddMasterFlowData](h.stateManager, chatID)
	if err != nil {
		return h.restart(chatID, err)
	}

	created, err := h.mastersService.Register(ctx, masters.Master{
		TelegramID: data.TelegramID,
		Name:       data.Name,
		Phone:      data.Phone,
		Province:   pick.Province,
		Region:     pick.District,
	})
	if err != nil {
		text, known := messages.ErrorText(err)
		if !known {
			h.logger.Error("Failed to register master",
				slog.Int64("chat_id", chatID),
				slog.Any("error", err))
			return h.send(chatID, text)
		}
		// Очищаем состояние: повтор с теми же данными даст ту же ошибку
		h.stateManager.Clear(chatID)
		return h.sendMenu(chatID, text)
	}

	h.stateManager.Clear(chatID)
	h.logger.Info("Master registered",
		slog.Int64("master_id", created.ID),
		slog.String("region", created.Region))

	return h.sendMenu(chatID, messages.MasterAdded(created.Name, created.Phone, created.TelegramID, created.Province, created.Region))
}

func (h *Handler) handleCancel(update *tgbotapi.Update) error {
	chatID := flows.ExtractChatID(update)
	h.stateManager.Clear(chatID)
	return h.sendMenu(chatID, messages.Cancelled)
}

// restart сбрасывает флоу, если данные потерялись (например, после очистки по TTL)
func (h *Handler) restart(chatID int64, cause error) error {
	h.logger.Warn("Add master flow data missing", slog.Int64("chat_id", chatID), slog.Any("error", cause))
	h.stateManager.Clear(chatID)
	return h.sendMenu(chatID, messages.Error)
}

func (h *Handler) send(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (h *Handler) sendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = messages.AdminMenu()
	_, err := h.bot.Send(msg)
	return err
}
