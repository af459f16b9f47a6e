package cart_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/cartsession/internal/cart"
	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"github.com/nikolayk812/cartsession/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/currency"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var signedIn = session.Credential{Token: "token", UserID: "user-1"}

func TestStore_Example(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{}

	s := cart.New(ctx, remote, nil, signedIn)
	defer s.Wait()

	s.Add(ctx, product("p1", 1000))
	s.Add(ctx, product("p1", 1000))
	s.Add(ctx, product("p2", 2500))

	st := s.State()
	require.Len(t, st.Lines, 2)
	assert.Equal(t, 2, st.Lines[0].Quantity)
	assert.Equal(t, 1, st.Lines[1].Quantity)
	assertAmount(t, 4500, st.Total())
	assert.Equal(t, 3, s.ItemCount())

	s.SetQuantity(ctx, "p1", 1)
	assertAmount(t, 3500, s.State().Total())

	s.Remove(ctx, "p2")
	st = s.State()
	require.Len(t, st.Lines, 1)
	assert.Equal(t, "p1", st.Lines[0].Product.ID)
	assert.Equal(t, 1, st.Lines[0].Quantity)
	assertAmount(t, 1000, st.Total())
}

func TestStore_Mirroring(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{}

	s := cart.New(ctx, remote, nil, signedIn)

	s.Add(ctx, product("a", 100))
	s.Add(ctx, product("a", 100))
	s.SetQuantity(ctx, "a", 4)
	s.Remove(ctx, "a")
	s.Clear(ctx)
	s.Wait()

	want := []remoteCall{
		{Op: "delete", ProductID: "a"},
		{Op: "delete_all"},
		{Op: "fetch"},
		{Op: "update_quantity", ProductID: "a", Quantity: 4},
		{Op: "upsert", ProductID: "a", Quantity: 1},
		{Op: "upsert", ProductID: "a", Quantity: 1},
	}
	assert.Equal(t, want, remote.Calls())
}

func TestStore_NoCredential_NoRemoteCalls(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{}

	s := cart.New(ctx, remote, nil, session.Credential{})

	s.Add(ctx, product("a", 100))
	s.SetQuantity(ctx, "a", 3)
	s.Remove(ctx, "a")
	s.Clear(ctx)
	s.Wait()

	assert.Empty(t, remote.Calls())
}

func TestStore_MirrorFailure_Swallowed(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{callErr: errors.New("connection refused")}
	core, logs := observer.New(zap.WarnLevel)

	s := cart.New(ctx, remote, nil, signedIn, cart.WithLogger(zap.New(core)))

	s.Add(ctx, product("a", 100))
	s.Add(ctx, product("b", 300))
	s.Remove(ctx, "b")
	s.Wait()

	st := s.State()
	require.Len(t, st.Lines, 1)
	assert.Equal(t, "a", st.Lines[0].Product.ID)
	assertAmount(t, 100, st.Total())

	failures := logs.FilterMessage("cart mirror failed")
	assert.Equal(t, 3, failures.Len())
	for _, entry := range failures.All() {
		assert.Contains(t, entry.ContextMap(), "op")
		assert.Contains(t, entry.ContextMap(), "product_id")
	}
}

func TestStore_MirrorOutlivesCallerContext(t *testing.T) {
	remote := &fakeRemote{}
	s := cart.New(t.Context(), remote, nil, signedIn)

	ctx, cancel := context.WithCancel(t.Context())
	s.Add(ctx, product("a", 100))
	cancel()
	s.Wait()

	assert.Contains(t, remote.Calls(), remoteCall{Op: "upsert", ProductID: "a", Quantity: 1})
}

func TestStore_Hydration(t *testing.T) {
	ctx := t.Context()
	a := product("a", 100)
	b := product("b", 200)
	remote := &fakeRemote{lines: []port.RemoteLine{
		{RemoteID: "10", Product: a, Quantity: 2},
		{RemoteID: "11", Product: b, Quantity: 1},
	}}

	var ids []uuid.UUID
	newID := func() uuid.UUID {
		id := uuid.New()
		ids = append(ids, id)
		return id
	}

	s := cart.New(ctx, remote, nil, signedIn, cart.WithLineIDs(newID))

	st := s.State()
	require.Len(t, st.Lines, 2)
	assert.Equal(t, ids, []uuid.UUID{st.Lines[0].ID, st.Lines[1].ID})
	assert.Equal(t, 2, st.Lines[0].Quantity)
	assertAmount(t, 400, st.Total())
	assert.Equal(t, []remoteCall{{Op: "fetch"}}, remote.Calls())
}

func TestStore_HydrationFailure_StartsEmpty(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{fetchErr: errors.New("503 service unavailable")}
	core, logs := observer.New(zap.WarnLevel)

	s := cart.New(ctx, remote, nil, signedIn, cart.WithLogger(zap.New(core)))

	assert.Empty(t, s.State().Lines)
	assert.Equal(t, 1, logs.FilterMessage("cart hydration failed, starting empty").Len())
}

func TestStore_NoCredential_SkipsHydration(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{lines: []port.RemoteLine{{Product: product("a", 1), Quantity: 1}}}

	s := cart.New(ctx, remote, nil, session.Credential{})

	assert.Empty(t, s.State().Lines)
	assert.Empty(t, remote.Calls())
}

func TestStore_CacheRestore(t *testing.T) {
	cached := []domain.CartLine{{ID: uuid.New(), Product: product("a", 100), Quantity: 3}}

	tests := []struct {
		name        string
		restore     bool
		loadErr     error
		wantLines   int
		wantWarning string
	}{
		{name: "restore enabled: cached lines loaded", restore: true, wantLines: 1},
		{name: "restore disabled: starts empty", restore: false, wantLines: 0},
		{
			name:        "restore enabled: load error, starts empty",
			restore:     true,
			loadErr:     errors.New("connection reset"),
			wantLines:   0,
			wantWarning: "cart cache restore failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			cache := newFakeCache()
			require.NoError(t, cache.Save(ctx, "anonymous", cached))
			cache.loadErr = tt.loadErr
			core, logs := observer.New(zap.WarnLevel)

			s := cart.New(ctx, nil, cache, session.Credential{},
				cart.WithCacheRestore(tt.restore),
				cart.WithLogger(zap.New(core)))

			assert.Len(t, s.State().Lines, tt.wantLines)
			if tt.wantWarning != "" {
				assert.Equal(t, 1, logs.FilterMessage(tt.wantWarning).Len())
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestStore_CacheRestore_DropsForeignCurrency(t *testing.T) {
	ctx := t.Context()
	cache := newFakeCache()
	foreign := product("b", 5)
	foreign.Price.Currency = currency.USD
	require.NoError(t, cache.Save(ctx, "anonymous", []domain.CartLine{
		{ID: uuid.New(), Product: product("a", 100), Quantity: 1},
		{ID: uuid.New(), Product: foreign, Quantity: 2},
	}))
	core, logs := observer.New(zap.WarnLevel)

	s := cart.New(ctx, nil, cache, session.Credential{},
		cart.WithCacheRestore(true),
		cart.WithLogger(zap.New(core)))

	require.Len(t, s.State().Lines, 1)
	assert.Equal(t, "a", s.State().Lines[0].Product.ID)
	assertAmount(t, 100, s.State().Total())
	assert.Equal(t, 1, logs.FilterMessage("cart lines in another currency dropped").Len())
}

func TestStore_Add_ForeignCurrencyRefused(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{}
	core, logs := observer.New(zap.WarnLevel)
	s := cart.New(ctx, remote, nil, signedIn, cart.WithLogger(zap.New(core)))

	foreign := product("b", 5)
	foreign.Price.Currency = currency.USD
	s.Add(ctx, foreign)
	s.Wait()

	assert.True(t, s.State().IsEmpty())
	assert.Equal(t, []remoteCall{{Op: "fetch"}}, remote.Calls())
	assert.Equal(t, 1, logs.FilterMessage("product in another currency not added").Len())
}

func TestStore_TokenWithoutIdentity_KeepsCacheOffAnonymousKey(t *testing.T) {
	ctx := t.Context()
	cache := newFakeCache()
	anonymousLine := domain.CartLine{ID: uuid.New(), Product: product("guest", 100), Quantity: 1}
	require.NoError(t, cache.Save(ctx, "anonymous", []domain.CartLine{anonymousLine}))

	cred := session.FromToken("opaque-session-token")
	require.True(t, cred.Present())

	signedInStore := cart.New(ctx, &fakeRemote{}, cache, cred)
	signedInStore.Add(ctx, product("secret", 100))
	signedInStore.Wait()

	snapshot, ok := cache.Snapshot(cred.OwnerID())
	require.True(t, ok)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "secret", snapshot[0].Product.ID)

	anonymous := cart.New(ctx, nil, cache, session.Credential{}, cart.WithCacheRestore(true))
	require.Len(t, anonymous.State().Lines, 1)
	assert.Equal(t, "guest", anonymous.State().Lines[0].Product.ID)

	signedInStore.Logout(ctx)

	_, ok = cache.Snapshot("anonymous")
	assert.True(t, ok)
	_, ok = cache.Snapshot(cred.OwnerID())
	assert.False(t, ok)
}

func TestStore_PersistsEveryChange(t *testing.T) {
	ctx := t.Context()
	cache := newFakeCache()

	s := cart.New(ctx, nil, cache, session.Credential{}, cart.WithCacheKey("owner-1"))

	s.Add(ctx, product("a", 100))
	s.Add(ctx, product("b", 100))
	s.SetQuantity(ctx, "a", 5)

	assert.Equal(t, 3, cache.Saves())
	snapshot, ok := cache.Snapshot("owner-1")
	require.True(t, ok)
	assertLines(t, s.State().Lines, snapshot)

	s.Clear(ctx)

	snapshot, ok = cache.Snapshot("owner-1")
	require.True(t, ok)
	assert.Empty(t, snapshot)
}

func TestStore_CacheKeyFromCredential(t *testing.T) {
	ctx := t.Context()
	cache := newFakeCache()

	s := cart.New(ctx, &fakeRemote{}, cache, signedIn)
	s.Add(ctx, product("a", 100))
	s.Wait()

	_, ok := cache.Snapshot(signedIn.UserID)
	assert.True(t, ok)
}

func TestStore_CacheFailure_Swallowed(t *testing.T) {
	ctx := t.Context()
	cache := newFakeCache()
	cache.saveErr = errors.New("disk full")
	core, logs := observer.New(zap.WarnLevel)

	s := cart.New(ctx, nil, cache, session.Credential{}, cart.WithLogger(zap.New(core)))
	s.Add(ctx, product("a", 100))

	assert.Len(t, s.State().Lines, 1)
	assert.Equal(t, 1, logs.FilterMessage("cart cache save failed").Len())
}

func TestStore_Subscribe(t *testing.T) {
	ctx := t.Context()
	s := cart.New(ctx, nil, nil, session.Credential{})

	var counts []int
	unsubscribe := s.Subscribe(func(st domain.CartState) {
		counts = append(counts, st.ItemCount())
	})

	s.Add(ctx, product("a", 100))
	s.Add(ctx, product("a", 100))
	s.Clear(ctx)
	unsubscribe()
	s.Add(ctx, product("a", 100))

	assert.Equal(t, []int{1, 2, 0}, counts)
}

func TestStore_Checkout(t *testing.T) {
	contact := domain.Contact{
		Email: gofakeit.Email(),
		Name:  gofakeit.Name(),
		Phone: gofakeit.Phone(),
	}
	orderErr := errors.New("500 internal server error")
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		cred       session.Credential
		orderErr   error
		wantErr    error
		wantLines  int
		wantOrders int
		wantCalls  []remoteCall
	}{
		{
			name:       "signed in: cart cleared",
			cred:       signedIn,
			wantLines:  0,
			wantOrders: 1,
			wantCalls: []remoteCall{
				{Op: "create_order"},
				{Op: "delete_all"},
				{Op: "fetch"},
				{Op: "upsert", ProductID: "a", Quantity: 1},
				{Op: "upsert", ProductID: "b", Quantity: 1},
			},
		},
		{
			name:       "no credential: auth required",
			cred:       session.Credential{},
			wantErr:    cart.ErrAuthRequired,
			wantLines:  2,
			wantOrders: 0,
		},
		{
			name:       "remote failure: cart untouched",
			cred:       signedIn,
			orderErr:   orderErr,
			wantErr:    cart.ErrCheckoutFailed,
			wantLines:  2,
			wantOrders: 1,
			wantCalls: []remoteCall{
				{Op: "create_order"},
				{Op: "fetch"},
				{Op: "upsert", ProductID: "a", Quantity: 1},
				{Op: "upsert", ProductID: "b", Quantity: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			remote := &fakeRemote{orderErr: tt.orderErr}

			s := cart.New(ctx, remote, nil, tt.cred, cart.WithClock(func() time.Time { return now }))
			s.Add(ctx, product("a", 100))
			s.Add(ctx, product("b", 250))
			before := s.State()

			err := s.Checkout(ctx, contact)
			s.Wait()

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assertLines(t, before.Lines, s.State().Lines)
				assert.True(t, before.Total().Amount.Equal(s.State().Total().Amount))
			} else {
				require.NoError(t, err)
				assert.True(t, s.State().Total().Amount.IsZero())
			}
			assert.Len(t, s.State().Lines, tt.wantLines)

			orders := remote.Orders()
			require.Len(t, orders, tt.wantOrders)
			if tt.wantOrders > 0 {
				assert.Equal(t, contact, orders[0].Contact)
				assert.Equal(t, "2026-03-09", orders[0].DateString())
			}

			if tt.cred.Present() {
				assert.Equal(t, tt.wantCalls, remote.Calls())
			} else {
				assert.Empty(t, remote.Calls())
			}
		})
	}
}

func TestStore_CheckoutError_WrapsCause(t *testing.T) {
	ctx := t.Context()
	cause := errors.New("payment backend down")

	s := cart.New(ctx, &fakeRemote{orderErr: cause}, nil, signedIn)
	err := s.Checkout(ctx, domain.Contact{Email: "a@b.c", Name: "n", Phone: "1"})
	s.Wait()

	require.ErrorIs(t, err, cart.ErrCheckoutFailed)
	require.ErrorIs(t, err, cause)

	var checkoutErr *cart.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, cause, checkoutErr.Err)
}

func TestStore_Logout(t *testing.T) {
	ctx := t.Context()
	remote := &fakeRemote{}
	cache := newFakeCache()

	s := cart.New(ctx, remote, cache, signedIn)
	s.Add(ctx, product("a", 100))
	s.Wait()

	s.Logout(ctx)
	assert.Empty(t, s.State().Lines)
	_, cached := cache.Snapshot(signedIn.UserID)
	assert.False(t, cached)

	s.Add(ctx, product("b", 100))
	s.Wait()

	assert.Len(t, s.State().Lines, 1)
	assert.Equal(t, "b", s.State().Lines[0].Product.ID)
	assert.Equal(t, []remoteCall{
		{Op: "fetch"},
		{Op: "upsert", ProductID: "a", Quantity: 1},
	}, remote.Calls())
	assert.ErrorIs(t, s.Checkout(ctx, domain.Contact{}), cart.ErrAuthRequired)
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  gofakeit.ProductName(),
		Price: domain.Money{Amount: decimal.NewFromInt(price), Currency: currency.IDR},
		Image: gofakeit.URL(),
	}
}

func assertAmount(t *testing.T, want int64, got domain.Money) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got.Amount), "want %d, got %s", want, got.Amount)
}

func assertLines(t *testing.T, expected, actual []domain.CartLine) {
	t.Helper()

	opts := cmp.Options{
		cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) }),
		cmp.Comparer(func(x, y currency.Unit) bool { return x.String() == y.String() }),
		cmpopts.EquateEmpty(),
	}

	assert.Empty(t, cmp.Diff(expected, actual, opts))
}
