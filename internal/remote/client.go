// Package remote talks to the storefront REST backend: the session's cart,
// checkout, the product catalog and invoices.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"golang.org/x/text/currency"
)

var (
	ErrNotFound     = errors.New("remote: not found")
	ErrUnauthorized = errors.New("remote: unauthorized")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	default:
		return false
	}
}

const maxErrorBody = 512

type Config struct {
	BaseURL      string
	Token        string
	Currency     currency.Unit
	ImageRewrite ImageHostRewrite
	Timeout      time.Duration
}

type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	tr      translator
}

var (
	_ port.CartRemote = (*Client)(nil)
	_ port.Catalog    = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		tr: translator{
			unit:         cfg.Currency,
			imageRewrite: cfg.ImageRewrite,
		},
	}, nil
}

func (c *Client) FetchLines(ctx context.Context) ([]port.RemoteLine, error) {
	var resp envelope[[]wireCartLine]
	if err := c.do(ctx, http.MethodGet, "/carts", nil, &resp); err != nil {
		return nil, err
	}

	lines, err := c.tr.toRemoteLines(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("toRemoteLines: %w", err)
	}

	return lines, nil
}

func (c *Client) UpsertLine(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return fmt.Errorf("productID is empty")
	}

	return c.do(ctx, http.MethodPost, "/carts", upsertLineRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *Client) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return fmt.Errorf("productID is empty")
	}

	return c.do(ctx, http.MethodPut, "/carts/"+url.PathEscape(productID), updateQuantityRequest{Quantity: quantity}, nil)
}

func (c *Client) DeleteLine(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("productID is empty")
	}

	return c.do(ctx, http.MethodDelete, "/carts/"+url.PathEscape(productID), nil, nil)
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/carts", nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) error {
	return c.do(ctx, http.MethodPost, "/invoice/checkout", toCheckoutRequest(order), nil)
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if productID == "" {
		return domain.Product{}, fmt.Errorf("productID is empty")
	}

	var resp envelope[wireProduct]
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &resp); err != nil {
		return domain.Product{}, err
	}

	p, err := c.tr.toProduct(resp.Data)
	if err != nil {
		return domain.Product{}, fmt.Errorf("toProduct: %w", err)
	}

	return p, nil
}

func (c *Client) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var resp envelope[[]wireInvoice]
	if err := c.do(ctx, http.MethodGet, "/invoice", nil, &resp); err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(resp.Data))
	for _, w := range resp.Data {
		inv, err := c.tr.toInvoice(w)
		if err != nil {
			return nil, fmt.Errorf("toInvoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}
