package domain

import (
	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// CartLine pairs a product with a positive quantity.
type CartLine struct {
	ID       uuid.UUID
	Product  Product
	Quantity int
}

// CartState is an immutable value: every transition returns a new state and
// never writes through the receiver's Lines slice.
//
// Lines keep insertion order, hold at most one line per product ID and never
// carry a quantity below 1.
type CartState struct {
	Currency currency.Unit
	Lines    []CartLine
}

func EmptyCart(unit currency.Unit) CartState {
	return CartState{Currency: unit}
}

// Total is derived from the lines on every call.
func (s CartState) Total() Money {
	total := ZeroMoney(s.Currency)
	for _, line := range s.Lines {
		total = total.Add(line.Product.Price.Mul(line.Quantity))
	}
	return total
}

// ItemCount sums quantities, not lines.
func (s CartState) ItemCount() int {
	var count int
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

func (s CartState) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Accepts reports whether p is priced in the cart's currency. Every line of a
// cart shares that currency; Total relies on it.
func (s CartState) Accepts(p Product) bool {
	return p.Price.Currency == s.Currency
}

// AddProduct increments the product's line or appends a new one with quantity 1.
// lineID is only used when a new line is appended.
func (s CartState) AddProduct(p Product, lineID uuid.UUID) CartState {
	lines := s.cloneLines()

	if i := s.indexOf(p.ID); i >= 0 {
		lines[i].Quantity++
		return s.with(lines)
	}

	return s.with(append(lines, CartLine{ID: lineID, Product: p, Quantity: 1}))
}

// RemoveProduct drops the product's line. Unknown products are a no-op.
func (s CartState) RemoveProduct(productID string) CartState {
	lines := make([]CartLine, 0, len(s.Lines))
	for _, line := range s.Lines {
		if line.Product.ID != productID {
			lines = append(lines, line)
		}
	}
	return s.with(lines)
}

// SetQuantity overwrites the product's quantity; quantity <= 0 drops the line.
func (s CartState) SetQuantity(productID string, quantity int) CartState {
	if quantity <= 0 {
		return s.RemoveProduct(productID)
	}

	lines := s.cloneLines()
	if i := s.indexOf(productID); i >= 0 {
		lines[i].Quantity = quantity
	}
	return s.with(lines)
}

func (s CartState) Cleared() CartState {
	return s.with(nil)
}

// Loaded replaces the lines wholesale. Duplicate products are merged into the
// first occurrence, non-positive quantities are dropped and so are lines priced
// in another currency than the cart's, so the result holds the same invariants
// as states built through AddProduct.
func (s CartState) Loaded(lines []CartLine) CartState {
	merged := make([]CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 || !s.Accepts(line.Product) {
			continue
		}
		if i, ok := index[line.Product.ID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.Product.ID] = len(merged)
		merged = append(merged, line)
	}

	return s.with(merged)
}

func (s CartState) indexOf(productID string) int {
	for i, line := range s.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s CartState) cloneLines() []CartLine {
	lines := make([]CartLine, len(s.Lines), len(s.Lines)+1)
	copy(lines, s.Lines)
	return lines
}

func (s CartState) with(lines []CartLine) CartState {
	if len(lines) == 0 {
		lines = nil
	}
	return CartState{Currency: s.Currency, Lines: lines}
}
