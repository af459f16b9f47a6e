package remote

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// envelope is the backend's response wrapper: {"data": ...}.
type envelope[T any] struct {
	Data T `json:"data"`
}

// wireID accepts both string and numeric identifiers.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = wireID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s is neither string nor number", b)
	}
	*id = wireID(n.String())
	return nil
}

type wireProduct struct {
	ID          wireID      `json:"id"`
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
}

type wireCartLine struct {
	ID       wireID      `json:"id"`
	Product  wireProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

type wireInvoice struct {
	ID            wireID      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	CustomerEmail string      `json:"customerEmail"`
	Phone         string      `json:"phone"`
	Date          string      `json:"date"`
	Items         int         `json:"items"`
	Total         json.Number `json:"total"`
}

type upsertLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Date  string `json:"date"`
}

// translator converts wire records into domain values. It is the only place
// that knows about backend shapes.
type translator struct {
	unit         currency.Unit
	imageRewrite ImageHostRewrite
}

func (tr translator) toProduct(w wireProduct) (domain.Product, error) {
	amount := decimal.Zero
	if w.Price != "" {
		var err error
		amount, err = decimal.NewFromString(w.Price.String())
		if err != nil {
			return domain.Product{}, fmt.Errorf("price[%s] of product[%s] is not valid: %w", w.Price, w.ID, err)
		}
	}
	if amount.IsNegative() {
		return domain.Product{}, fmt.Errorf("price[%s] of product[%s] is negative", w.Price, w.ID)
	}

	return domain.Product{
		ID:          string(w.ID),
		Name:        w.Name,
		Price:       domain.Money{Amount: amount, Currency: tr.unit},
		Image:       tr.imageRewrite.apply(w.Image),
		Description: w.Description,
	}, nil
}

func (tr translator) toRemoteLine(w wireCartLine) (port.RemoteLine, error) {
	p, err := tr.toProduct(w.Product)
	if err != nil {
		return port.RemoteLine{}, fmt.Errorf("toProduct: %w", err)
	}

	return port.RemoteLine{
		RemoteID: string(w.ID),
		Product:  p,
		Quantity: w.Quantity,
	}, nil
}

func (tr translator) toRemoteLines(ws []wireCartLine) ([]port.RemoteLine, error) {
	lines := make([]port.RemoteLine, 0, len(ws))

	for _, w := range ws {
		line, err := tr.toRemoteLine(w)
		if err != nil {
			return nil, fmt.Errorf("toRemoteLine: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func (tr translator) toInvoice(w wireInvoice) (domain.Invoice, error) {
	total := decimal.Zero
	if w.Total != "" {
		var err error
		total, err = decimal.NewFromString(w.Total.String())
		if err != nil {
			return domain.Invoice{}, fmt.Errorf("total[%s] of invoice[%s] is not valid: %w", w.Total, w.ID, err)
		}
	}

	date, err := parseDate(w.Date)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("date[%s] of invoice[%s] is not valid: %w", w.Date, w.ID, err)
	}

	email := w.CustomerEmail
	if email == "" {
		email = w.Email
	}

	return domain.Invoice{
		ID:    string(w.ID),
		Name:  w.Name,
		Email: email,
		Phone: w.Phone,
		Date:  date,
		Items: w.Items,
		Total: domain.Money{Amount: total, Currency: tr.unit},
	}, nil
}

func toCheckoutRequest(o domain.Order) checkoutRequest {
	return checkoutRequest{
		Email: o.Contact.Email,
		Name:  o.Contact.Name,
		Phone: o.Contact.Phone,
		Date:  o.DateString(),
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(domain.OrderDateLayout, s)
}

// ImageHostRewrite replaces a backend-internal image host prefix with a public one.
type ImageHostRewrite struct {
	From string
	To   string
}

func (r ImageHostRewrite) apply(url string) string {
	if r.From == "" || !strings.HasPrefix(url, r.From) {
		return url
	}
	return r.To + strings.TrimPrefix(url, r.From)
}
