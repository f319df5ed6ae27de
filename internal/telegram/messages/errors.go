package messages

import (
	"errors"

	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
)

var errorTexts = []struct {
	err  error
	text string
}{
	{orders.ErrNotFound, "Buyurtma topilmadi"},
	{orders.ErrNotMaster, "Siz usta sifatida ro'yxatdan o'tmagansiz."},
	{orders.ErrAlreadyTaken, "Bu buyurtma allaqachon boshqa usta tomonidan qabul qilingan."},
	{orders.ErrNotAssigned, "⚠️ Bu buyurtma sizga biriktirilmagan."},
	{orders.ErrAlreadyCompleted, "⚠️ Bu buyurtma allaqachon yakunlangan!"},
	{orders.ErrMissingBeforePhoto, "⚠️ Ishdan oldingi rasm yuklanmagan!"},
	{orders.ErrMissingAfterPhoto, "⚠️ Ishdan keyingi rasm yuklanmagan!"},
	{orders.ErrMissingCompletionGPS, "⚠️ Joylashuv yuklanmagan!"},
	{orders.ErrWarrantyUndecided, "⚠️ Kafolat holati belgilanmagan!"},
	{orders.ErrMissingSparePartPhoto, "⚠️ Eski ehtiyot qism rasmi yuklanmagan!"},
	{orders.ErrSparePartNotReceived, "⚠️ Admin ehtiyot qismni qabul qilishini kuting!"},
	{orders.ErrSparePartAlreadyReceived, "⚠️ Bu buyurtma uchun ehtiyot qism allaqachon qabul qilingan!"},
	{orders.ErrSparePartNotSent, "⚠️ Usta hali ehtiyot qism rasmini yubormagan!"},
	{orders.ErrWorkTypeNotAllowed, "⚠️ Kafolatli buyurtmada ish turi tanlanmaydi."},
	{orders.ErrInvalidTransition, "⚠️ Bu amal buyurtmaning hozirgi holatida mumkin emas."},
	{orders.ErrConcurrentUpdate, "⚠️ Buyurtma o'zgardi. Qaytadan urinib ko'ring."},
	{orders.ErrInvalidInput, "⚠️ Ma'lumotlar noto'g'ri."},
	{masters.ErrAlreadyExists, MasterExists},
	{masters.ErrNotFound, NotRegistered},
	{masters.ErrInvalidRegion, "⚠️ Bunday hudud yo'q."},
	{masters.ErrInvalidInput, "⚠️ Ma'lumotlar noto'g'ri."},
	{warehouse.ErrAlreadyExists, ProductExists},
	{warehouse.ErrInvalidInput, "⚠️ Ma'lumotlar noto'g'ri."},
}

// ErrorText возвращает текст для доменной ошибки. false означает
// неожиданную ошибку с общим текстом.
func ErrorText(err error) (string, bool) {
	var shortage *orders.ShortageError
	if errors.As(err, &shortage) {
		return ShortageReply(shortage.Available), true
	}
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return e.text, true
		}
	}
	return Error, false
}
