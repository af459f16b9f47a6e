package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func ZeroMoney(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}

// Mul returns m multiplied by a quantity, keeping the currency.
func (m Money) Mul(quantity int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		Currency: m.Currency,
	}
}

// Add sums amounts and keeps the receiver's currency. Both values must be in
// the same currency; CartState only ever sums lines priced in its own.
func (m Money) Add(other Money) Money {
	return Money{
		Amount:   m.Amount.Add(other.Amount),
		Currency: m.Currency,
	}
}

// String formats the amount with the currency's cash scale, e.g. "15000 IDR"
// or "12.50 USD".
func (m Money) String() string {
	scale, _ := currency.Cash.Rounding(m.Currency)
	return m.Amount.StringFixed(int32(scale)) + " " + m.Currency.String()
}
