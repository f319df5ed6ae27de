package flows

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/messages"
)

type RegionCatalog interface {
	Provinces() []string
	Districts(province string) []string
}

type RegionStep int

const (
	RegionStepProvinces RegionStep = iota + 1
	RegionStepDistricts
	RegionStepChosen
)

// RegionPick is the result of one region picker button.
type RegionPick struct {
	Step        RegionStep
	ProvinceIdx int
	Province    string
	District    string
}

// PickRegion decodes region_cat / region_sub / region_back payloads against the catalog.
// Stale or foreign payloads report false.
func PickRegion(catalog RegionCatalog, data string) (RegionPick, bool) {
	command, arg := callbacks.Parse(data)
	provinces := catalog.Provinces()

	switch command {
	case callbacks.RegionBack:
		return RegionPick{Step: RegionStepProvinces}, true

	case callbacks.RegionCat:
		pi, ok := index(arg, len(provinces))
		if !ok {
			return RegionPick{}, false
		}
		return RegionPick{Step: RegionStepDistricts, ProvinceIdx: pi, Province: provinces[pi]}, true

	case callbacks.RegionSub:
		pRaw, dRaw, found := strings.Cut(arg, ":")
		if !found {
			return RegionPick{}, false
		}
		pi, ok := index(pRaw, len(provinces))
		if !ok {
			return RegionPick{}, false
		}
		districts := catalog.Districts(provinces[pi])
		di, ok := index(dRaw, len(districts))
		if !ok {
			return RegionPick{}, false
		}
		return RegionPick{
			Step:        RegionStepChosen,
			ProvinceIdx: pi,
			Province:    provinces[pi],
			District:    districts[di],
		}, true
	}
	return RegionPick{}, false
}

func index(raw string, n int) (int, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// ProvincesMessage is a fresh province picker.
func ProvincesMessage(chatID int64, catalog RegionCatalog) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, messages.ChooseProvince)
	msg.ReplyMarkup = messages.ProvincesKeyboard(catalog.Provinces())
	return msg
}

// RegionPickerEdit redraws the picker in place for a non-final pick.
func RegionPickerEdit(chatID int64, messageID int, catalog RegionCatalog, pick RegionPick) tgbotapi.EditMessageTextConfig {
	if pick.Step == RegionStepDistricts {
		return tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			messages.ChooseDistrict(pick.Province),
			messages.DistrictsKeyboard(pick.ProvinceIdx, catalog.Districts(pick.Province)))
	}
	return tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		messages.ChooseProvince,
		messages.ProvincesKeyboard(catalog.Provinces()))
}
