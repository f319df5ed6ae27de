package addproduct

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/flows"
	"usta-bot/internal/telegram/messages"
	"usta-bot/internal/telegram/states"
)

// Handler ведет админа через добавление товара, а мастера через пополнение своего регионального склада
type Handler struct {
	bot          botApi
	stateManager stateManager
	stock        stockService
	logger       *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, stock stockService, logger *slog.Logger) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		stock:        stock,
		logger:       logger,
	}
}

// Start начинает добавление товара без региона
func (h *Handler) Start(chatID int64) error {
	h.stateManager.SetState(chatID, states.AddProductWaitName, &flows.AddProductFlowData{})
	return h.sendWithMarkup(chatID, messages.ProductName, messages.CancelKeyboard())
}

// StartRestock начинает пополнение склада региона мастера
func (h *Handler) StartRestock(chatID int64, region string) error {
	h.stateManager.SetState(chatID, states.AddProductWaitName, &flows.AddProductFlowData{
		Restock: true,
		Region:  lo.ToPtr(region),
	})
	return h.sendWithMarkup(chatID, messages.RestockIntro(region), messages.CancelKeyboard())
}

func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	chatID := flows.ExtractChatID(update)

	data, err := states.DataAs[flows.AddProductFlowData](h.stateManager, chatID)
	if err != nil {
		h.logger.Warn("Add product flow data missing", slog.Int64("chat_id", chatID), slog.Any("error", err))
		h.stateManager.Clear(chatID)
		return h.send(chatID, messages.Error)
	}

	if flows.IsCancel(update) {
		return h.finish(chatID, data, messages.Cancelled)
	}

	text := strings.TrimSpace(update.Message.Text)

	switch state {
	case states.AddProductWaitName:
		if text == "" {
			return h.send(chatID, messages.ProductName)
		}
		data.Name = text
		h.stateManager.SetState(chatID, states.AddProductWaitQuantity, data)
		if data.Restock {
			return h.send(chatID, messages.ProductQuantityPieces)
		}
		return h.send(chatID, messages.ProductQuantity)

	case states.AddProductWaitQuantity:
		qty, err := strconv.Atoi(text)
		if err != nil || qty < 0 {
			return h.send(chatID, messages.InvalidStockQuantity)
		}
		data.Quantity = qty
		h.stateManager.SetState(chatID, states.AddProductWaitPrice, data)
		if data.Restock {
			return h.send(chatID, messages.ProductPriceSum)
		}
		return h.send(chatID, messages.ProductPrice)

	case states.AddProductWaitPrice:
		price, ok := parsePrice(text)
		if !ok {
			return h.send(chatID, messages.InvalidPrice)
		}
		data.Price = price
		h.stateManager.SetState(chatID, states.AddProductWaitCategory, data)
		return h.send(chatID, messages.ProductCategory)

	case states.AddProductWaitCategory:
		data.Category = optional(text)
		if data.Restock {
			return h.restock(ctx, chatID, data)
		}
		h.stateManager.SetState(chatID, states.AddProductWaitSubcategory, data)
		return h.send(chatID, messages.ProductSubcategory)

	case states.AddProductWaitSubcategory:
		return h.add(ctx, chatID, data, optional(text))

	default:
		return fmt.Errorf("unknown add product state: %s", state)
	}
}

// Reprompt повторяет вопрос текущего шага
func (h *Handler) Reprompt(chatID int64, state states.State) error {
	switch state {
	case states.AddProductWaitQuantity:
		return h.send(chatID, messages.InvalidStockQuantity)
	case states.AddProductWaitPrice:
		return h.send(chatID, messages.InvalidPrice)
	case states.AddProductWaitCategory:
		return h.send(chatID, messages.ProductCategory)
	case states.AddProductWaitSubcategory:
		return h.send(chatID, messages.ProductSubcategory)
	default:
		return h.send(chatID, messages.ProductName)
	}
}

func (h *Handler) add(ctx context.Context, chatID int64, data *flows.AddProductFlowData, subcategory *string) error {
	item, err := h.stock.AddProduct(ctx, warehouse.Item{
		Name:        data.Name,
		Quantity:    data.Quantity,
		Price:       data.Price,
		Category:    data.Category,
		Subcategory: subcategory,
	})
	if err != nil {
		return h.storeFailed(chatID, data, err)
	}

	h.logger.Info("Product added",
		slog.Int64("item_id", item.ID),
		slog.String("name", item.Name))

	return h.finish(chatID, data,
		messages.ProductAdded(item.Name, item.Quantity, item.Price, item.Category, item.Subcategory))
}

func (h *Handler) restock(ctx context.Context, chatID int64, data *flows.AddProductFlowData) error {
	item, outcome, err := h.stock.Restock(ctx, warehouse.Item{
		Name:     data.Name,
		Region:   data.Region,
		Quantity: data.Quantity,
		Price:    data.Price,
		Category: data.Category,
	})
	if err != nil {
		return h.storeFailed(chatID, data, err)
	}

	region := lo.FromPtr(data.Region)
	h.logger.Info("Regional stock replenished",
		slog.Int64("item_id", item.ID),
		slog.String("region", region),
		slog.Int("added", data.Quantity))

	if outcome == warehouse.UpsertUpdated {
		return h.finish(chatID, data, messages.ProductRestocked(item.Name, item.Quantity, item.Price, region))
	}
	return h.finish(chatID, data, messages.RegionalProductAdded(item.Name, item.Quantity, item.Price, item.Category, region))
}

func (h *Handler) storeFailed(chatID int64, data *flows.AddProductFlowData, err error) error {
	if text, known := messages.ErrorText(err); known {
		return h.finish(chatID, data, text)
	}
	h.logger.Error("Failed to store product",
		slog.Int64("chat_id", chatID),
		slog.Any("error", err))
	return h.send(chatID, messages.Error)
}

// finish очищает сессию и возвращает пользователя в его меню
func (h *Handler) finish(chatID int64, data *flows.AddProductFlowData, text string) error {
	h.stateManager.Clear(chatID)
	return h.sendWithMarkup(chatID, text, messages.MenuFor(!data.Restock))
}

func parsePrice(text string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, " ", ""), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(math.Round(f)), true
}

func optional(text string) *string {
	if text == "" || text == messages.SkipMark {
		return nil
	}
	return lo.ToPtr(text)
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
