package orders

import (
	"fmt"
	"strconv"
	"strings"

	"usta-bot/internal/stories/masters"
)

const separator = "━━━━━━━━━━━━━━━━━━━━"

var statusLabels = map[Status]string{
	StatusNew:               "🆕 Yangi",
	StatusAccepted:          "✅ Qabul qilingan",
	StatusOnWay:             "🚗 Yo'lda",
	StatusArrived:           "📍 Yetib keldi",
	StatusFinishOrderReady:  "🔧 Yakunlashga tayyor",
	StatusSparePartPending:  "📦 Ehtiyot qism kutilmoqda",
	StatusSparePartReceived: "📦 Ehtiyot qism qabul qilindi",
	StatusDelivered:         "🏁 Yetkazildi",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

var warrantyLabels = map[Warranty]string{
	WarrantyUnknown: "Noma'lum",
	WarrantyValid:   "Amal qilmoqda",
	WarrantyExpired: "Tugagan",
}

func (w Warranty) Label() string {
	if l, ok := warrantyLabels[w]; ok {
		return l
	}
	return string(w)
}

// FormatSum renders an amount with space-separated thousands, e.g. "150 000 so'm".
func FormatSum(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " so'm"
}

func PayoutLines(o *Order) string {
	return fmt.Sprintf(
		"📏 Masofa: %.2f km\n"+
			"🚗 Masofa to'lovi: %s\n"+
			"🔧 Ish haqi: %s\n"+
			"📦 Mahsulot summasi: %s\n"+
			"💰 Jami: %s",
		o.DistanceKm,
		FormatSum(o.Payout.DistanceFee),
		FormatSum(o.Payout.WorkFee),
		FormatSum(o.Payout.ProductTotal),
		FormatSum(o.Payout.TotalPayment),
	)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Kiritilmagan"
	}
	return s
}

func shortageText(e *ShortageError, requestedBy string) string {
	return fmt.Sprintf(
		"⚠️ OMBORDA MAHSULOT YETISHMAYAPTI!\n\n"+
			"%s\n"+
			"📍 Hudud: %s\n"+
			"👤 So'rovchi: %s\n"+
			"📦 Mahsulot: %s\n"+
			"%s\n\n"+
			"📋 kerak: %d, mavjud: %d, yetishmaydi: %d\n\n"+
			"Iltimos, omborni to'ldiring!",
		separator, orDash(e.Region), orDash(requestedBy), e.Product, separator,
		e.Requested, e.Available, e.Shortfall(),
	)
}

func createdText(o *Order, creator *masters.Master) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 Yangi buyurtma yaratildi:\n\n%s\n", separator)
	fmt.Fprintf(&b, "📋 Buyurtma ID: #%d\n", o.ID)
	fmt.Fprintf(&b, "📅 Sana: %s\n%s\n\n", o.CreatedAt.Format("02.01.2006 15:04"), separator)

	if creator != nil {
		b.WriteString("👷 USTA MA'LUMOTLARI:\n")
		fmt.Fprintf(&b, "   Ism: %s\n   Tel: %s\n   Hudud: %s\n\n", creator.Name, orDash(creator.Phone), orDash(creator.Region))
	}

	b.WriteString("👤 MIJOZ MA'LUMOTLARI:\n")
	fmt.Fprintf(&b, "   Ism: %s\n   Tel: %s\n   Manzil: %s\n", o.ClientName, o.ClientPhone, orDash(o.Address))
	if o.Location != nil {
		fmt.Fprintf(&b, "📍 GPS: %.6f, %.6f\n", o.Location.Lat, o.Location.Lng)
	}

	b.WriteString("\n📦 BUYURTMA:\n")
	fmt.Fprintf(&b, "   Mahsulot: %s\n   Miqdor: %d dona\n   Hudud: %s\n", o.Product, o.Quantity, o.Region)
	if o.Barcode != nil {
		fmt.Fprintf(&b, "   📊 Shtrix kod: %s\n", *o.Barcode)
	}
	return b.String()
}

// OfferText is what a technician sees with an accept/reject offer.
func OfferText(o *Order, distanceKm float64, nearest bool) string {
	title := "🆕 Yangi buyurtma!"
	if nearest {
		title = "🆕 YANGI BUYURTMA (Sizga eng yaqin!)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n", title, separator)
	fmt.Fprintf(&b, "📋 Buyurtma ID: #%d\n", o.ID)
	fmt.Fprintf(&b, "👤 Mijoz: %s\n", o.ClientName)
	fmt.Fprintf(&b, "📦 Mahsulot: %s\n", o.Product)
	fmt.Fprintf(&b, "📍 Manzil: %s\n", orDash(o.Address))
	if nearest {
		fmt.Fprintf(&b, "📏 Masofa: ~%.2f km\n", distanceKm)
	}
	fmt.Fprintf(&b, "%s\n\n", separator)
	if nearest {
		b.WriteString("⚡ Siz bu buyurtmaga eng yaqin ustasiz!\n")
	}
	b.WriteString("Buyurtmani qabul qilasizmi?")
	return b.String()
}

func acceptedText(o *Order, m *masters.Master) string {
	return fmt.Sprintf(
		"✅ BUYURTMA QABUL QILINDI!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n"+
			"⏰ Vaqt: %s\n\n%s",
		o.ID, m.Name, o.UpdatedAt.Format("02.01.2006 15:04"), PayoutLines(o),
	)
}

func rejectedText(o *Order, m *masters.Master) string {
	return fmt.Sprintf(
		"❌ BUYURTMA RAD ETILDI!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n\n"+
			"Keyingi eng yaqin ustaga xabar yuborilmoqda...",
		o.ID, m.Name,
	)
}

func departedText(o *Order, m *masters.Master) string {
	return fmt.Sprintf("🚗 Usta yo'lga chiqdi\n\n📋 Buyurtma ID: #%d\n👷 Usta: %s", o.ID, m.Name)
}

func arrivedText(o *Order, m *masters.Master) string {
	return fmt.Sprintf(
		"📍 USTA YETIB KELDI!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n"+
			"📍 Koordinatalar: %.6f, %.6f\n\n%s",
		o.ID, m.Name, o.ArrivalLocation.Lat, o.ArrivalLocation.Lng, PayoutLines(o),
	)
}

func warrantyDecidedText(o *Order) string {
	return fmt.Sprintf(
		"🛡️ Kafolat holati belgilandi\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"🛡️ Kafolat: %s\n\n%s",
		o.ID, o.Warranty.Label(), PayoutLines(o),
	)
}

func sparePartCaption(o *Order, masterName string) string {
	return fmt.Sprintf(
		"📦 EHTIYOT QISM YUBORILDI!\n\n"+
			"%s\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n"+
			"📍 Hudud: %s\n"+
			"📦 Mahsulot: %s\n"+
			"%s\n\n"+
			"Ehtiyot qismni qabul qilish uchun tugmani bosing:",
		separator, o.ID, masterName, orDash(o.Region), o.Product, separator,
	)
}

func sparePartAcceptedText(o *Order) string {
	return fmt.Sprintf(
		"✅ Ehtiyot qism qabul qilindi!\n\n"+
			"📋 Buyurtma ID: #%d\n"+
			"📦 Mahsulot: %s\n\n"+
			"Endi buyurtmani yakunlashingiz mumkin:",
		o.ID, o.Product,
	)
}

func completedText(o *Order, masterName string) string {
	return fmt.Sprintf(
		"✅ BUYURTMA YAKUNLANDI!\n\n"+
			"%s\n"+
			"📋 Buyurtma ID: #%d\n"+
			"👷 Usta: %s\n"+
			"👤 Mijoz: %s\n"+
			"📦 Mahsulot: %s\n"+
			"🛡️ Kafolat: %s\n"+
			"%s\n\n%s",
		separator, o.ID, masterName, o.ClientName, o.Product, o.Warranty.Label(), separator, PayoutLines(o),
	)
}

// StaleReminderText lists orders nobody has accepted yet.
func StaleReminderText(list []*Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Qabul qilinmagan buyurtmalar: %d ta\n\n", len(list))
	for _, o := range list {
		fmt.Fprintf(&b, "📋 #%d | %s | %s | %s\n", o.ID, o.Region, o.Product, o.CreatedAt.Format("02.01.2006 15:04"))
	}
	b.WriteString("\nIltimos, ustani qo'lda tayinlang.")
	return b.String()
}
