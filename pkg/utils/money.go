package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as US dollars with thousands separators, e.g. $1,234.56.
func FormatUSD(amount decimal.Decimal) string {
	fraction := 2
	if cur := money.GetCurrency(money.USD); cur != nil {
		fraction = cur.Fraction
	}
	minor := amount.Shift(int32(fraction)).Round(0).IntPart()
	return money.New(minor, money.USD).Display()
}

func FormatUSDFloat(amount float64) string {
	return FormatUSD(decimal.NewFromFloat(amount))
}
