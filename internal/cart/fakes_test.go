package cart_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
)

type remoteCall struct {
	Op        string
	ProductID string
	Quantity  int
}

type fakeRemote struct {
	mu sync.Mutex

	lines    []port.RemoteLine
	fetchErr error
	callErr  error
	orderErr error

	calls  []remoteCall
	orders []domain.Order
}

func (f *fakeRemote) record(c remoteCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, c)
	return f.callErr
}

func (f *fakeRemote) FetchLines(_ context.Context) ([]port.RemoteLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, remoteCall{Op: "fetch"})
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return slices.Clone(f.lines), nil
}

func (f *fakeRemote) UpsertLine(_ context.Context, productID string, quantity int) error {
	return f.record(remoteCall{Op: "upsert", ProductID: productID, Quantity: quantity})
}

func (f *fakeRemote) UpdateQuantity(_ context.Context, productID string, quantity int) error {
	return f.record(remoteCall{Op: "update_quantity", ProductID: productID, Quantity: quantity})
}

func (f *fakeRemote) DeleteLine(_ context.Context, productID string) error {
	return f.record(remoteCall{Op: "delete", ProductID: productID})
}

func (f *fakeRemote) DeleteAll(_ context.Context) error {
	return f.record(remoteCall{Op: "delete_all"})
}

func (f *fakeRemote) CreateOrder(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, remoteCall{Op: "create_order"})
	f.orders = append(f.orders, order)
	return f.orderErr
}

// Calls returns recorded calls sorted by op and product, since mirror calls
// run concurrently and arrive in any order.
func (f *fakeRemote) Calls() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := slices.Clone(f.calls)
	slices.SortStableFunc(calls, compareCall)
	return calls
}

func (f *fakeRemote) Orders() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.orders)
}

func compareCall(a, b remoteCall) int {
	ka := fmt.Sprintf("%s/%s/%d", a.Op, a.ProductID, a.Quantity)
	kb := fmt.Sprintf("%s/%s/%d", b.Op, b.ProductID, b.Quantity)
	return strings.Compare(ka, kb)
}

type fakeCache struct {
	mu sync.Mutex

	snapshots map[string][]domain.CartLine
	saveErr   error
	loadErr   error
	saves     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[string][]domain.CartLine)}
}

func (f *fakeCache) Save(_ context.Context, ownerID string, lines []domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[ownerID] = slices.Clone(lines)
	return nil
}

func (f *fakeCache) Load(_ context.Context, ownerID string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return slices.Clone(f.snapshots[ownerID]), nil
}

func (f *fakeCache) Delete(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.snapshots, ownerID)
	return nil
}

func (f *fakeCache) Snapshot(ownerID string) ([]domain.CartLine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, ok := f.snapshots[ownerID]
	return slices.Clone(lines), ok
}

func (f *fakeCache) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.saves
}
