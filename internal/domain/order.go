package domain

import "time"

const OrderDateLayout = "2006-01-02"

type Contact struct {
	Email string
	Name  string
	Phone string
}

// Order asks the backend to turn the session's remote cart into an invoice.
type Order struct {
	Contact Contact
	Date    time.Time
}

func (o Order) DateString() string {
	return o.Date.UTC().Format(OrderDateLayout)
}

type Invoice struct {
	ID    string
	Name  string
	Email string
	Phone string
	Date  time.Time
	Items int
	Total Money
}
