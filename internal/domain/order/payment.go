package order

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shopspring/decimal"
)

// PaymentDetail is the derived payment view attached to order reads. It is
// recomputed on every read and never stored; the JSON field names are the
// contract the mobile client already speaks.
type PaymentDetail struct {
	Method         string          `json:"metode_pembayaran"`
	Total          decimal.Decimal `json:"total_yang_harus_dibayar"`
	TotalFormatted string          `json:"total_yang_harus_dibayar_formatted"`
	Instruction    string          `json:"instruksi"`
	QRImageURL     string          `json:"qr_image_url,omitempty"`
	Note           string          `json:"catatan,omitempty"`
}

// rupiah formats amounts the Indonesian way: "Rp 50.000".
var rupiah = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a money amount as displayed to buyers and jastipers.
// IDR has no sub-unit in practice, so fractions are rounded away.
func FormatRupiah(amount decimal.Decimal) string {
	return rupiah.Sprintf("Rp %d", amount.Round(0).IntPart())
}

// PaymentDetailFor derives the payment view for an order. While the jastiper
// is heading to the customer the view carries collection instructions (show
// the QRIS asset or collect cash) and the reminder that only the buyer's
// confirmation completes the order; at earlier stages it states that payment
// happens on arrival. assetURL resolves a stored asset path to a URL and may
// be nil when no asset host is configured.
func PaymentDetailFor(o *Order, assetURL func(path string) string) PaymentDetail {
	formatted := FormatRupiah(o.TotalAmount)
	d := PaymentDetail{
		Method:         strings.ToUpper(string(o.PaymentMethod)),
		Total:          o.TotalAmount,
		TotalFormatted: formatted,
	}

	if o.Status == StatusHeadingToCustomer {
		if o.PaymentMethod == PaymentQRIS {
			d.Instruction = "Tunjukkan QRIS berikut ke Customer untuk dibayar"
			if o.QRISImage != "" && assetURL != nil {
				d.QRImageURL = assetURL(o.QRISImage)
			}
		} else {
			d.Instruction = "Tagih tunai ke Customer sebesar " + formatted
		}
		d.Note = "Order hanya selesai setelah Customer menekan tombol Terima"
		return d
	}

	if o.PaymentMethod == PaymentQRIS {
		d.Instruction = "Customer akan membayar via QRIS saat pesanan tiba"
	} else {
		d.Instruction = "Customer akan membayar tunai saat pesanan tiba"
	}
	return d
}
