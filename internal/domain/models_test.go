package domain

import "testing"

func TestPaymentMethodValid(t *testing.T) {
	valid := []PaymentMethod{PaymentCash, PaymentMpesa, PaymentCard, PaymentMethodSplit, PaymentCredit}
	for _, m := range valid {
		if !m.Valid() {
			t.Fatalf("%q should be a valid payment method", m)
		}
	}
	for _, m := range []PaymentMethod{"", "cheque", "CASH"} {
		if m.Valid() {
			t.Fatalf("%q should not be a valid payment method", m)
		}
	}
}

func TestSplitSaleCarriesMethodAndParts(t *testing.T) {
	sale := Sale{
		PaymentMethod: PaymentMethodSplit,
		PaymentSplits: []PaymentSplit{
			{Method: PaymentCash, AmountCents: 12000},
			{Method: PaymentMpesa, AmountCents: 8000, Reference: "QX12"},
		},
	}
	if sale.PaymentMethod != PaymentMethodSplit {
		t.Fatalf("payment method: got %q", sale.PaymentMethod)
	}
	if len(sale.PaymentSplits) != 2 {
		t.Fatalf("expected 2 split parts, got %d", len(sale.PaymentSplits))
	}
	if sale.PaymentSplits[1].Reference != "QX12" {
		t.Fatalf("mpesa reference lost: %+v", sale.PaymentSplits[1])
	}
}
