package messages

import (
	"fmt"
	"strings"

	"usta-bot/internal/stories/importer"
)

// Общие
const (
	Error          = "Xatolik yuz berdi"
	Cancelled      = "❌ Bekor qilindi"
	AdminOnly      = "Bu funksiya faqat admin uchun"
	AdminOnlyCmd   = "Bu buyruq faqat admin uchun"
	NotRegistered  = "Malumotingiz topilmadi. Iltimos adminga aloqaga chiqing!"
	AdminWelcome   = "Admin paneliga xush kelibsiz! 🔧"
	UseButtons     = "Iltimos, tugmalardan foydalaning"
	NothingPending = "Hozircha kutilayotgan amal yo'q. Menyudan foydalaning."
)

// Кнопки меню
const (
	ButtonNewDelivery   = "+ Yangi yetkazish"
	ButtonAddMaster     = "➕ Usta qo'shish"
	ButtonAddProduct    = "➕ Mahsulot qo'shish"
	ButtonImport        = "📥 Excel import"
	ButtonAllOrders     = "📋 Barcha buyurtmalar"
	ButtonAllMasters    = "👥 Barcha ustalar"
	ButtonAdminStock    = "📦 Ombor"
	ButtonExport        = "📊 Excel yuklab olish"
	ButtonBack          = "🔙 Orqaga"
	ButtonMyOrders      = "Mening buyurtmalarim"
	ButtonStock         = "Ombor"
	ButtonRestock       = "📦 Mahsulot qo'shish"
	ButtonCancel        = "❌ Bekor qilish"
	ButtonSendLocation  = "📍 Joylashuvni yuborish"
	ButtonSendGPS       = "📍 GPS joylashuvni yuborish"
	ButtonSendContact   = "📱 Kontaktni yuborish"
	ButtonNextPage      = "➡️ Keyingisi"
	ButtonPrevPage      = "⬅️ Oldingi"
	ButtonAutoDispatch  = "📍 Eng yaqin ustaga yuborish"
	ButtonOnWay         = "Yo'ldaman"
	ButtonFinish        = "✅ Buyurtmani yakunlash"
	ButtonWarrantyOver  = "✅ Ha, kafolat muddati tugagan"
	ButtonWarrantyValid = "❌ Yo'q, kafolat hali amal qilmoqda"
	ButtonWorkEasy      = "🔧 Oson ish"
	ButtonWorkDifficult = "🛠 Qiyin ish"
)

// Технический мастер: старт
const (
	LocationRequired = "⚠️ Avval joylashuvingizni yuboring!\n\n📍 Davom etish uchun joylashuvni yuboring:"
	LocationOnly     = "⚠️ Faqat joylashuv qabul qilinadi. Iltimos, joylashuvni yuboring:"
	ServiceCenterAsk = "🏢 Servis markaz joylashuvini yuboring:"
)

func MasterWelcome(name string) string {
	return fmt.Sprintf("Xush kelibsiz %s!\n\n📍 Davom etish uchun joriy joylashuvingizni yuboring:", name)
}

func MasterMenu(name string) string {
	return fmt.Sprintf("Xush kelibsiz %s!", name)
}

func LocationAccepted(lat, lng float64) string {
	return fmt.Sprintf("✅ Joylashuv qabul qilindi!\n\n📍 Koordinatalar: %.6f, %.6f\n\nEndi botdan foydalanishingiz mumkin.", lat, lng)
}

func ServiceCenterSaved(lat, lng float64) string {
	return fmt.Sprintf("✅ Servis markaz saqlandi!\n\n📍 Koordinatalar: %.6f, %.6f", lat, lng)
}

func BroadcastLocationAccepted(orderID int64, lat, lng float64) string {
	return fmt.Sprintf("✅ Joylashuvingiz qabul qilindi!\n\n"+
		"📋 Buyurtma ID: #%d\n"+
		"📍 Koordinatalar: %.6f, %.6f\n\n"+
		"Admin sizni buyurtmaga tayinlashi mumkin.", orderID, lat, lng)
}

// Регионы
const (
	ChooseProvince = "📍 Viloyatni tanlang:"
)

func ChooseDistrict(province string) string {
	return fmt.Sprintf("📍 Viloyat: %s\n\n🏘 Tumanni tanlang:", province)
}

// Добавление мастера
const (
	AddMasterName       = "Yangi usta ismini kiriting:"
	AddMasterPhone      = "Telefon raqamini kiriting:"
	AddMasterTelegramID = "Telegram ID ni kiriting (foydalanuvchi @userinfobot ga yozsin):"
	InvalidTelegramID   = "Iltimos, to'g'ri Telegram ID kiriting (raqam)"
	InvalidPhone        = "Iltimos, to'g'ri telefon raqamini kiriting (masalan: +998901234567)"
	MasterExists        = "Xatolik: Bu telefon yoki Telegram ID allaqachon mavjud"
)

func MasterAdded(name, phone string, telegramID int64, province, region string) string {
	return fmt.Sprintf("✅ Yangi usta qo'shildi!\n\n"+
		"Ism: %s\n"+
		"Telefon: %s\n"+
		"Telegram ID: %d\n"+
		"Viloyat: %s\n"+
		"Tuman: %s", name, phone, telegramID, province, region)
}

// Добавление товара
const (
	ProductName           = "Mahsulot nomini kiriting:"
	ProductQuantity       = "Miqdorni kiriting:"
	ProductQuantityPieces = "Miqdorni kiriting (dona):"
	InvalidStockQuantity  = "Iltimos, to'g'ri miqdorni kiriting (0 yoki katta)"
	ProductPrice          = "Narxni kiriting:"
	ProductPriceSum       = "Narxni kiriting (so'm):"
	InvalidPrice          = "Iltimos, to'g'ri narxni kiriting"
	ProductCategory       = "Kategoriyani kiriting (ixtiyoriy, o'tkazish uchun \"-\" yozing):"
	ProductSubcategory    = "Subkategoriyani kiriting (ixtiyoriy, o'tkazish uchun \"-\" yozing):"
	ProductExists         = "Xatolik: Bu mahsulot allaqachon mavjud"
	SkipMark              = "-"
)

func optionalText(s *string) string {
	if s == nil {
		return "Yo'q"
	}
	return *s
}

func ProductAdded(name string, quantity int, price int64, category, subcategory *string) string {
	return fmt.Sprintf("✅ Yangi mahsulot qo'shildi!\n\n"+
		"Nomi: %s\n"+
		"Miqdor: %d\n"+
		"Narx: %d so'm\n"+
		"Kategoriya: %s\n"+
		"Subkategoriya: %s", name, quantity, price, optionalText(category), optionalText(subcategory))
}

func RegionalProductAdded(name string, quantity int, price int64, category *string, region string) string {
	return fmt.Sprintf("✅ Yangi mahsulot qo'shildi!\n\n"+
		"Nomi: %s\n"+
		"Miqdor: %d dona\n"+
		"Narx: %d so'm\n"+
		"Kategoriya: %s\n"+
		"Viloyat: %s", name, quantity, price, optionalText(category), region)
}

func ProductRestocked(name string, total int, price int64, region string) string {
	return fmt.Sprintf("✅ Mahsulot yangilandi!\n\n"+
		"Nomi: %s\n"+
		"Yangi miqdor: %d dona\n"+
		"Narx: %d so'm\n"+
		"Viloyat: %s", name, total, price, region)
}

func RestockIntro(region string) string {
	return fmt.Sprintf("📦 O'z viloyatingiz (%s) omboriga mahsulot qo'shish\n\nMahsulot nomini kiriting:", region)
}

// Импорт
const (
	ImportIntro = "📥 Excel import\n\n" +
		"Avval viloyatni tanlang yoki kiriting.\n" +
		"Barcha viloyatlar uchun import qilish uchun \"Hammasi\" deb yozing.\n\n" +
		"📍 Viloyat nomini kiriting:"
	ImportAllRegions = "Hammasi"
	ImportOnlyExcel  = "❌ Faqat Excel fayl (.xlsx) yuborishingiz mumkin!"
	ImportLoading    = "⏳ Fayl yuklanmoqda..."
	ImportFailed     = "❌ Excel faylni o'qishda xatolik yuz berdi"
)

func ImportAskFile(region string) string {
	return fmt.Sprintf("📥 Excel faylni yuklash\n\n"+
		"📍 Tanlangan viloyat: %s\n\n"+
		"Excel faylda quyidagi ustunlar bo'lishi kerak:\n"+
		"• CATEGORY\n"+
		"• SUB CATEGORY\n"+
		"• MODEL\n"+
		"• QUANTITY\n\n"+
		"📎 Iltimos, Excel faylni (.xlsx) yuboring:", region)
}

const ImportAllRegionsLabel = "Barcha viloyatlar"

// ImportRegionLabel называет цель импорта, nil - склад без региона.
func ImportRegionLabel(region *string) string {
	if region == nil {
		return ImportAllRegionsLabel
	}
	return *region
}

func ImportSummary(region *string, res importer.Result) string {
	var b strings.Builder
	b.WriteString("📊 Excel import natijasi:\n\n")
	fmt.Fprintf(&b, "📍 Viloyat: %s\n", ImportRegionLabel(region))
	fmt.Fprintf(&b, "✅ Yangi qo'shildi: %d ta\n", res.Imported)
	fmt.Fprintf(&b, "🔄 Yangilandi: %d ta\n", res.Updated)
	fmt.Fprintf(&b, "📝 Jami qatorlar: %d ta\n", res.Total)

	if res.Skipped > 0 {
		fmt.Fprintf(&b, "\n⚠️ O'tkazib yuborildi: %d ta\n", res.Skipped)
		if len(res.Errors) > 0 {
			b.WriteString("\nXatoliklar:\n")
			for _, e := range res.Errors {
				fmt.Fprintf(&b, "• %s\n", e)
			}
			if res.RemainingErrors > 0 {
				fmt.Fprintf(&b, "... va yana %d ta xatolik", res.RemainingErrors)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Создание заказа
const (
	ClientName          = "Mijoz ismini kiriting:"
	ClientPhone         = "Telefon raqamini yuboring (matn yoki kontakt):"
	ClientLocation      = "📍 Mijoz joylashuvini yuboring:"
	ChooseMaster        = "👷 Usta tanlang:"
	NoMasters           = "❌ Ustalar topilmadi. Avval usta qo'shing."
	ChooseProduct       = "📦 Mahsulotni tanlang:"
	NoProducts          = "❌ Omborda mahsulot yo'q. Iltimos adminga murojaat qiling."
	ProductGone         = "❌ Mahsulot topilmadi. Qaytadan tanlang."
	AskBarcode          = "📊 Mahsulot shtrix kodini kiriting (kafolat tekshirish uchun):"
	AskOrderQuantity    = "Miqdorni kiriting:"
	AskProductDate      = "📅 Mahsulot sotib olingan sanani kiriting (KK.OO.YYYY).\nSana noma'lum bo'lsa \"-\" yuboring:"
	InvalidProductDate  = "Iltimos, sanani KK.OO.YYYY formatida kiriting yoki \"-\" yuboring"
	InvalidQuantity     = "Iltimos, to'g'ri miqdorni kiriting (1 yoki katta)"
	MasterNotFound      = "❌ Usta topilmadi."
	AddressFromLocation = "Joylashuv"
)

func NoMastersInRegion(region string) string {
	return fmt.Sprintf("⚠️ %s hududida usta yo'q. Boshqa ustalardan tanlang:", region)
}

func SelectedMaster(name string) string {
	return fmt.Sprintf("👷 Tanlangan usta: %s\n\n📦 Mahsulotni tanlang:", name)
}

func OrderCreated(id int64, product string, quantity int, barcode *string) string {
	text := fmt.Sprintf("✅ Buyurtma yaratildi!\n\n📋 Buyurtma ID: #%d\n📦 Mahsulot: %s\n📊 Miqdor: %d dona", id, product, quantity)
	if barcode != nil {
		text += fmt.Sprintf("\n📊 Shtrix kod: %s", *barcode)
	}
	return text
}

func DispatchedNearest(name string, km float64) string {
	return fmt.Sprintf("📍 Eng yaqin usta (%s, ~%.2f km) xabardor qilindi!", name, km)
}

func DispatchedSelected(name string) string {
	return fmt.Sprintf("👷 Tanlangan usta (%s) xabardor qilindi!", name)
}

func DispatchedBroadcast(region string, notified int) string {
	return fmt.Sprintf("📍 Barcha %s ustalariga joylashuv so'rovi yuborildi! (%d ta)", region, notified)
}

const DispatchNoTakers = "⚠️ Ustalar topilmadi. Iltimos, buyurtmani qo'lda tayinlang."

const MasterOrderCreated = "✅ Buyurtma yaratildi!\n\nYo'lga chiqsangiz \"Yo'ldaman\" tugmasini bosing."

func ShortageReply(available int) string {
	return fmt.Sprintf("Omborda yetarli emas. Mavjud: %d dona. Adminga xabar yuborildi.", available)
}

// Гарантия определена по дате покупки
const (
	WarrantyByDateExpired = "📍 Joylashuv saqlandi!\n\n📅 Mahsulot sanasiga ko'ra kafolat muddati tugagan."
	WarrantyByDateValid   = "📍 Joylashuv saqlandi!\n\n📅 Mahsulot sanasiga ko'ra kafolat hali amal qiladi."
)

// Работа по заказу
const (
	AskGPS             = "Iltimos, GPS joylashuvingizni yuboring:"
	ArrivedAskBefore   = "📍 Yetib keldingiz! Holat yangilandi.\n\n📸 Ishni boshlashdan OLDINGI rasmni yuboring:"
	BeforeSavedAskNext = "📸 Oldingi rasm saqlandi!\n\nEndi ishdan KEYINGI rasmni yuboring:"
	AfterSavedAskGPS   = "📸 Keyingi rasm saqlandi!\n\n📍 Endi joylashuvingizni yuboring:"
	AskWarranty        = "📍 Joylashuv saqlandi!\n\nMahsulot kafolat muddati tugaganmi?"
	PhotoOnly          = "📸 Iltimos, rasm yuboring:"
	WarrantyExpiredAsk = "Kafolat muddati tugagan deb belgilandi.\n\n🔧 Ish turini tanlang:"
	WarrantyValidAsk   = "⚠️ Kafolat hali amal qilmoqda!\n\n" +
		"Eski ehtiyot qismni yangi bilan almashtirishingiz kerak.\n" +
		"Eski qismni katta omborga yuborishingiz kerak.\n\n" +
		"📸 Iltimos, eski ehtiyot qism rasmini yuboring:"
	SparePartSent = "📸 Ehtiyot qism rasmi yuborildi!\n\n" +
		"⏳ Admin ehtiyot qismni qabul qilishini kuting.\n" +
		"Qabul qilinganda sizga xabar keladi."
	AskFinish     = "Buyurtmani yakunlash uchun tugmani bosing:"
	OrderFinished = "✅ Buyurtma muvaffaqiyatli yakunlandi!"
)

func OrderAccepted(orderID int64) string {
	return fmt.Sprintf("✅ Buyurtma #%d qabul qilindi!\n\nYo'lga chiqsangiz \"Yo'ldaman\" tugmasini bosing.", orderID)
}

func OrderRejected(orderID int64) string {
	return fmt.Sprintf("❌ Buyurtma #%d rad etildi.\n\nKeyingi eng yaqin ustaga xabar yuboriladi.", orderID)
}

func WorkTypeSelected(easy bool, payout string) string {
	label := ButtonWorkDifficult
	if easy {
		label = ButtonWorkEasy
	}
	return fmt.Sprintf("%s tanlandi.\n\n%s\n\n%s", label, payout, AskFinish)
}

func OrderFinishedSummary(orderID int64, payout string) string {
	return fmt.Sprintf("%s\n\n📋 Buyurtma ID: #%d\n%s", OrderFinished, orderID, payout)
}

func SparePartConfirmed(orderID int64) string {
	return fmt.Sprintf("✅ Buyurtma #%d uchun ehtiyot qism qabul qilindi. Usta xabardor qilindi.", orderID)
}

// Списки
const (
	MyOrdersTitle   = "📋 Mening buyurtmalarim:"
	OrdersNotFound  = "Buyurtmalar topilmadi"
	StockTitle      = "📦 Ombor:"
	StockEmpty      = "Omborda mahsulot yo'q"
	MastersTitle    = "👥 Barcha ustalar:"
	MastersNotFound = "Ustalar topilmadi"
	RecentTitle     = "📋 Oxirgi 20 buyurtma:"
	ExportPreparing = "⏳ Excel fayl tayyorlanmoqda..."
	ExportFailed    = "Excel faylni yaratishda xatolik yuz berdi"
	StatsTitle      = "📊 Statistika"
)

const Help = "ℹ️ Yordam\n\n" +
	"/start - botni qayta ishga tushirish\n" +
	"/cancel - joriy amalni bekor qilish\n" +
	"/service_center - servis markaz joylashuvini belgilash\n\n" +
	"Admin uchun:\n" +
	"/addmaster - yangi usta qo'shish\n" +
	"/stats - statistika"
