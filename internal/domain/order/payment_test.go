package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 50.000", FormatRupiah(decimal.NewFromInt(50000)))
	assert.Equal(t, "Rp 5.000", FormatRupiah(decimal.RequireFromString("5000.00")))
	assert.Equal(t, "Rp 1.250.000", FormatRupiah(decimal.NewFromInt(1250000)))
	assert.Equal(t, "Rp 0", FormatRupiah(decimal.Zero))
}

func TestPaymentDetail_BeforeTransit(t *testing.T) {
	o := &Order{
		TotalAmount:   decimal.NewFromInt(50000),
		Status:        StatusAccepted,
		PaymentMethod: PaymentCash,
	}
	d := PaymentDetailFor(o, nil)

	assert.Equal(t, "CASH", d.Method)
	assert.Equal(t, "Rp 50.000", d.TotalFormatted)
	assert.Equal(t, "Customer akan membayar tunai saat pesanan tiba", d.Instruction)
	assert.Empty(t, d.Note)
	assert.Empty(t, d.QRImageURL)
}

func TestPaymentDetail_InTransitCash(t *testing.T) {
	o := &Order{
		TotalAmount:   decimal.NewFromInt(25000),
		Status:        StatusHeadingToCustomer,
		PaymentMethod: PaymentCash,
	}
	d := PaymentDetailFor(o, nil)

	assert.Equal(t, "Tagih tunai ke Customer sebesar Rp 25.000", d.Instruction)
	assert.Equal(t, "Order hanya selesai setelah Customer menekan tombol Terima", d.Note)
}

func TestPaymentDetail_InTransitQRIS(t *testing.T) {
	o := &Order{
		TotalAmount:   decimal.NewFromInt(30000),
		Status:        StatusHeadingToCustomer,
		PaymentMethod: PaymentQRIS,
		QRISImage:     QRISAssetPath,
	}
	d := PaymentDetailFor(o, func(path string) string {
		return "https://cdn.example.com/storage/" + path
	})

	assert.Equal(t, "QRIS", d.Method)
	assert.Equal(t, "Tunjukkan QRIS berikut ke Customer untuk dibayar", d.Instruction)
	assert.Equal(t, "https://cdn.example.com/storage/payments/qris_test.jpg", d.QRImageURL)
	assert.NotEmpty(t, d.Note)
}

func TestPaymentDetail_QRISBeforeTransitHasNoQR(t *testing.T) {
	o := &Order{
		TotalAmount:   decimal.NewFromInt(30000),
		Status:        StatusPending,
		PaymentMethod: PaymentQRIS,
		QRISImage:     QRISAssetPath,
	}
	d := PaymentDetailFor(o, func(path string) string { return "x/" + path })

	assert.Equal(t, "Customer akan membayar via QRIS saat pesanan tiba", d.Instruction)
	assert.Empty(t, d.QRImageURL, "QR shown only at handover")
}
