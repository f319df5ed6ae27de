package messages

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/callbacks"
)

func AdminMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonNewDelivery)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAddMaster),
			tgbotapi.NewKeyboardButton(ButtonAddProduct),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonImport),
			tgbotapi.NewKeyboardButton(ButtonAllOrders),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAllMasters),
			tgbotapi.NewKeyboardButton(ButtonAdminStock),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonExport),
			tgbotapi.NewKeyboardButton(ButtonBack),
		),
	)
	kb.ResizeKeyboard = true
	kb.IsPersistent = true
	return kb
}

func MainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonNewDelivery)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonMyOrders),
			tgbotapi.NewKeyboardButton(ButtonStock),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonRestock),
			tgbotapi.NewKeyboardButton(ButtonExport),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonBack)),
	)
	kb.ResizeKeyboard = true
	kb.IsPersistent = true
	return kb
}

// MenuFor возвращает постоянное меню для роли пользователя.
func MenuFor(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	if isAdmin {
		return AdminMenu()
	}
	return MainMenu()
}

func LocationKeyboard(text string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(text)),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func ContactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(ButtonSendContact)),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func CancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonCancel, callbacks.Cancel),
		),
	)
}

// ProvincesKeyboard - по две области в ряд, кнопки несут индекс области.
func ProvincesKeyboard(provinces []string) tgbotapi.InlineKeyboardMarkup {
	buttons := lo.Map(provinces, func(p string, i int) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(p, callbacks.Data(callbacks.RegionCat, i))
	})
	rows := lo.Chunk(buttons, 2)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(ButtonCancel, callbacks.Cancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// DistrictsKeyboard - по два района в ряд, кнопки несут индексы "<область>:<район>".
func DistrictsKeyboard(provinceIdx int, districts []string) tgbotapi.InlineKeyboardMarkup {
	buttons := lo.Map(districts, func(d string, i int) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(d, callbacks.Data(callbacks.RegionSub, provinceIdx, i))
	})
	rows := lo.Chunk(buttons, 2)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(ButtonBack, callbacks.RegionBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func MastersKeyboard(list []*masters.Master, withAuto bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+2)
	if withAuto {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonAutoDispatch, callbacks.AutoDispatch),
		))
	}
	for _, m := range list {
		label := fmt.Sprintf("%s (%s)", m.Name, m.Region)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbacks.Data(callbacks.SelectMaster, m.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(ButtonCancel, callbacks.Cancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ProductsKeyboard показывает страницу склада с пагинацией, кнопки несут id строки склада.
func ProductsKeyboard(items []*warehouse.Item, page int) tgbotapi.InlineKeyboardMarkup {
	slice, current, total := warehouse.Page(items, page)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(slice)+2)
	for _, it := range slice {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%d)", it.Name, it.Quantity),
				callbacks.Data(callbacks.Product, it.ID),
			),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if current > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(ButtonPrevPage, callbacks.Data(callbacks.ProductNext, current-1)))
	}
	if current < total-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(ButtonNextPage, callbacks.Data(callbacks.ProductNext, current+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(ButtonCancel, callbacks.Cancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func OnWayKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonOnWay, callbacks.Data(callbacks.OnWay, orderID)),
		),
	)
}

func WarrantyKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonWarrantyOver, callbacks.Data(callbacks.WarrantyExpired, orderID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonWarrantyValid, callbacks.Data(callbacks.WarrantyValid, orderID)),
		),
	)
}

func WorkTypeKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonWorkEasy, callbacks.Data(callbacks.WorkType, orderID, geo.WorkTypeEasy)),
			tgbotapi.NewInlineKeyboardButtonData(ButtonWorkDifficult, callbacks.Data(callbacks.WorkType, orderID, geo.WorkTypeDifficult)),
		),
	)
}

func FinishKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ButtonFinish, callbacks.Data(callbacks.FinishOrder, orderID)),
		),
	)
}
