package importxlsx

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

type Handler struct {
	bot          botApi
	stateManager stateManager
	downloader   fileDownloader
	importer     stockImporter
	logger       *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, downloader fileDownloader, imp stockImporter, logger *slog.Logger) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		downloader:   downloader,
		importer:     imp,
		logger:       logger,
	}
}

func (h *Handler) Start(chatID int64) error {
	h.stateManager.SetState(chatID, states.ImportWaitRegion, &flows.ImportFlowData{})
	return h.sendWithMarkup(chatID, messages.ImportIntro, messages.CancelKeyboard())
}

func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	chatID := flows.ExtractChatID(update)
	if flows.IsCancel(update) {
		return h.finish(chatID, messages.Cancelled)
	}

	data, err := states.DataAs[flows.ImportFlowData](h.stateManager, chatID)
	if err != nil {
		h.logger.Warn("Import flow data missing", slog.Int64("chat_id", chatID), slog.Any("error", err))
		h.stateManager.Clear(chatID)
		return h.send(chatID, messages.Error)
	}

	switch state {
	case states.ImportWaitRegion:
		return h.handleRegion(update, data)
	case states.ImportWaitFile:
		return h.handleFile(ctx, update, data)
	default:
		return fmt.Errorf("unknown import state: %s", state)
	}
}

func (h *Handler) Reprompt(chatID int64, state states.State) error {
	if state == states.ImportWaitFile {
		return h.send(chatID, messages.ImportOnlyExcel)
	}
	return h.send(chatID, messages.ImportIntro)
}

func (h *Handler) handleRegion(update *tgbotapi.Update, data *flows.ImportFlowData) error {
	chatID := flows.ExtractChatID(update)

	input := strings.TrimSpace(update.Message.Text)
	if input == "" {
		return h.send(chatID, messages.ImportIntro)
	}

	data.Region = nil
	if !strings.EqualFold(input, messages.ImportAllRegions) {
		data.Region = lo.ToPtr(input)
	}

	h.stateManager.SetState(chatID, states.ImportWaitFile, data)
	return h.send(chatID, messages.ImportAskFile(messages.ImportRegionLabel(data.Region)))
}

func (h *Handler) handleFile(ctx context.Context, update *tgbotapi.Update, data *flows.ImportFlowData) error {
	chatID := flows.ExtractChatID(update)

	doc := update.Message.Document
	if doc == nil || !strings.EqualFold(filepath.Ext(doc.FileName), ".xlsx") {
		return h.send(chatID, messages.ImportOnlyExcel)
	}

	if err := h.send(chatID, messages.ImportLoading); err != nil {
		return err
	}

	content, err := h.downloader.DownloadFile(ctx, doc.FileID)
	if err != nil {
		h.logger.Error("Failed to download import file",
			slog.String("file_id", doc.FileID),
			slog.Any("error", err))
		return h.finish(chatID, messages.ImportFailed)
	}

	res, err := h.importer.Import(ctx, content, data.Region)
	if err != nil {
		h.logger.Error("Failed to import workbook",
			slog.String("file_name", doc.FileName),
			slog.Any("error", err))
		return h.finish(chatID, messages.ImportFailed)
	}

	h.logger.Info("Stock imported",
		slog.String("region", messages.ImportRegionLabel(data.Region)),
		slog.Int("imported", res.Imported),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped))

	return h.finish(chatID, messages.ImportSummary(data.Region, res))
}

// Очищаем состояние и возвращаем админское меню
func (h *Handler) finish(chatID int64, text string) error {
	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, text, messages.AdminMenu())
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
