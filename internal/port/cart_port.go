package port

import (
	"context"

	"github.com/nikolayk812/cartsession/internal/domain"
)

// RemoteLine is a cart line as the backend reports it. RemoteID lives in the
// backend's namespace and is never reused as a local line ID.
type RemoteLine struct {
	RemoteID string
	Product  domain.Product
	Quantity int
}

type CartRemote interface {
	FetchLines(ctx context.Context) ([]RemoteLine, error)
	UpsertLine(ctx context.Context, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	DeleteLine(ctx context.Context, productID string) error
	DeleteAll(ctx context.Context) error
	CreateOrder(ctx context.Context, order domain.Order) error
}

type Catalog interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}

type CartCache interface {
	Save(ctx context.Context, ownerID string, lines []domain.CartLine) error
	Load(ctx context.Context, ownerID string) ([]domain.CartLine, error)
	Delete(ctx context.Context, ownerID string) error
}
