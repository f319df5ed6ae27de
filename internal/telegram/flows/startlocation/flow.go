package startlocation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

// Handler собирает живую геолокацию мастера и точку его сервисного центра
type Handler struct {
	bot            botApi
	stateManager   stateManager
	mastersService mastersService
	logger         *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, ms mastersService, logger *slog.Logger) *Handler {
	return &Handler{
		bot:            bot,
		stateManager:   sm,
		mastersService: ms,
		logger:         logger,
	}
}

// Start приветствует мастера и просит геолокацию
func (h *Handler) Start(chatID int64, name string) error {
	h.stateManager.SetState(chatID, states.StartWaitLocation, nil)
	return h.askLocation(chatID, messages.MasterWelcome(name))
}

// Require блокирует меню, пока мастер не отправит свежую геолокацию
func (h *Handler) Require(chatID int64) error {
	h.stateManager.SetState(chatID, states.StartWaitLocation, nil)
	return h.askLocation(chatID, messages.LocationRequired)
}

func (h *Handler) StartServiceCenter(chatID int64) error {
	h.stateManager.SetState(chatID, states.ServiceCenterWaitLocation, nil)
	return h.askLocation(chatID, messages.ServiceCenterAsk)
}

func (h *Handler) Reprompt(chatID int64, _ states.State) error {
	return h.askLocation(chatID, messages.LocationOnly)
}

func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	chatID := flows.ExtractChatID(update)

	p, ok := flows.LocationOf(update)
	if !ok {
		return h.Reprompt(chatID, state)
	}

	var (
		text string
		err  error
	)
	switch state {
	case states.StartWaitLocation:
		_, err = h.mastersService.RecordLiveLocation(ctx, chatID, p)
		text = messages.LocationAccepted(p.Lat, p.Lng)
	case states.ServiceCenterWaitLocation:
		_, err = h.mastersService.SetServiceCenter(ctx, chatID, p)
		text = messages.ServiceCenterSaved(p.Lat, p.Lng)
	default:
		return fmt.Errorf("unknown start location state: %s", state)
	}

	if err != nil {
		if errors.Is(err, masters.ErrNotFound) {
			h.stateManager.Clear(chatID)
			return h.send(chatID, messages.NotRegistered)
		}
		h.logger.Error("Failed to save master location",
			slog.Int64("chat_id", chatID),
			slog.String("state", string(state)),
			slog.Any("error", err))
		return h.send(chatID, messages.Error)
	}

	// Очищаем состояние пользователя
	h.stateManager.Clear(chatID)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = messages.MainMenu()
	_, err = h.bot.Send(msg)
	return err
}

func (h *Handler) askLocation(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = messages.LocationKeyboard(messages.ButtonSendLocation)
	_, err := h.bot.Send(msg)
	return err
}

func (h *Handler) send(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
