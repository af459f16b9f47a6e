package domain

// Product is owned by the backend catalog. The cart copies it into lines as is.
type Product struct {
	ID          string
	Name        string
	Price       Money
	Image       string
	Description string
}
