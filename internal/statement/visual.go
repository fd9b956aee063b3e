package statement

import "fizpay/internal/models"

// Visual is the icon/color treatment for one transaction row.
type Visual struct {
	Icon        string `json:"icon"`
	Bubble      string `json:"bubble"`
	AmountColor string `json:"amount_color"`
}

const (
	colorGreen = "#10B981"
	colorRed   = "#EF4444"
	colorGray  = "#6B7280"
)

// VisualFor maps a transaction's category and amount sign to its visual
// treatment. Pix and transfers color by direction; card and purchase rows are
// always red; cashback and refund always green; unknown categories fall back
// to gray with a direction-colored amount.
func VisualFor(tx models.Transaction) Visual {
	in := tx.Inbound()

	sign := colorRed
	if in {
		sign = colorGreen
	}

	switch tx.Category {
	case models.CategoryPix, models.CategoryTransfer:
		icon := "send"
		if in {
			icon = "download"
		}
		return Visual{Icon: icon, Bubble: sign, AmountColor: sign}
	case models.CategoryCard, models.CategoryPurchase:
		return Visual{Icon: "credit-card", Bubble: colorRed, AmountColor: colorRed}
	case models.CategoryCashback:
		return Visual{Icon: "gift", Bubble: colorGreen, AmountColor: colorGreen}
	case models.CategoryRefund:
		return Visual{Icon: "rotate-ccw", Bubble: colorGreen, AmountColor: colorGreen}
	}

	icon := "arrow-down-right"
	if in {
		icon = "arrow-up-right"
	}
	return Visual{Icon: icon, Bubble: colorGray, AmountColor: sign}
}
