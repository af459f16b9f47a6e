package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartsession/internal/db"
	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"golang.org/x/text/currency"
)

// cartCacheRepository keeps one snapshot of cart lines per owner. A save
// replaces the whole snapshot.
type cartCacheRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCartCache(pool *pgxpool.Pool) port.CartCache {
	return &cartCacheRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewCartCacheWithTx(tx pgx.Tx) port.CartCache {
	return &cartCacheRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *cartCacheRepository) Save(ctx context.Context, ownerID string, lines []domain.CartLine) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (int, error) {
		if _, err := q.DeleteCartLines(ctx, ownerID); err != nil {
			return 0, fmt.Errorf("q.DeleteCartLines: %w", err)
		}

		for i, line := range lines {
			if err := q.InsertCartLine(ctx, mapDomainToInsertParams(ownerID, i, line)); err != nil {
				return 0, fmt.Errorf("q.InsertCartLine[%s]: %w", line.Product.ID, err)
			}
		}

		return len(lines), nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartCacheRepository) Load(ctx context.Context, ownerID string) ([]domain.CartLine, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID is empty")
	}

	rows, err := r.q.GetCartLines(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("q.GetCartLines: %w", err)
	}

	lines, err := mapGetCartLinesRowsToDomain(rows)
	if err != nil {
		return nil, fmt.Errorf("mapGetCartLinesRowsToDomain: %w", err)
	}

	return lines, nil
}

func (r *cartCacheRepository) Delete(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	if _, err := r.q.DeleteCartLines(ctx, ownerID); err != nil {
		return fmt.Errorf("q.DeleteCartLines: %w", err)
	}

	return nil
}

func mapDomainToInsertParams(ownerID string, position int, line domain.CartLine) db.InsertCartLineParams {
	return db.InsertCartLineParams{
		OwnerID:       ownerID,
		ProductID:     line.Product.ID,
		LineID:        line.ID,
		Position:      int32(position),
		ProductName:   line.Product.Name,
		PriceAmount:   line.Product.Price.Amount,
		PriceCurrency: line.Product.Price.Currency.String(),
		ImageUrl:      line.Product.Image,
		Description:   line.Product.Description,
		Quantity:      int32(line.Quantity),
	}
}

func mapGetCartLinesRowToDomain(row db.GetCartLinesRow) (domain.CartLine, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.CartLine{
		ID: row.LineID,
		Product: domain.Product{
			ID:          row.ProductID,
			Name:        row.ProductName,
			Price:       domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
			Image:       row.ImageUrl,
			Description: row.Description,
		},
		Quantity: int(row.Quantity),
	}, nil
}

func mapGetCartLinesRowsToDomain(rows []db.GetCartLinesRow) ([]domain.CartLine, error) {
	var lines []domain.CartLine

	for _, row := range rows {
		line, err := mapGetCartLinesRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetCartLinesRowToDomain: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}
