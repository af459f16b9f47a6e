// Package cart keeps the session's shopping cart.
//
// Local state is the visible truth: every mutation applies synchronously, is
// saved to the local cache and is then mirrored to the backend cart without
// waiting for the result. Checkout is the only operation that blocks on the
// backend and the only one that reports a remote failure.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"github.com/nikolayk812/cartsession/internal/session"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const anonymousOwner = "anonymous"

type Store struct {
	remote port.CartRemote
	cache  port.CartCache

	logger       *zap.Logger
	now          func() time.Time
	newLineID    func() uuid.UUID
	unit         currency.Unit
	cacheKey     string
	cacheRestore bool

	mirror *mirror

	mu          sync.Mutex
	cred        session.Credential
	state       domain.CartState
	subscribers map[int]func(domain.CartState)
	nextSubID   int
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLineIDs(newLineID func() uuid.UUID) Option {
	return func(s *Store) { s.newLineID = newLineID }
}

func WithCurrency(unit currency.Unit) Option {
	return func(s *Store) { s.unit = unit }
}

// WithCacheKey overrides the cache key derived from the credential.
func WithCacheKey(key string) Option {
	return func(s *Store) { s.cacheKey = key }
}

// WithCacheRestore loads the cached snapshot when the session starts without a
// credential. Signed-in sessions always hydrate from the backend instead.
func WithCacheRestore(enabled bool) Option {
	return func(s *Store) { s.cacheRestore = enabled }
}

// New builds the session store and hydrates it. remote may be nil only for a
// session that never signs in; cache may be nil to skip local persistence.
// Hydration failures never fail construction.
func New(ctx context.Context, remote port.CartRemote, cache port.CartCache, cred session.Credential, opts ...Option) *Store {
	s := &Store{
		remote:      remote,
		cache:       cache,
		logger:      zap.NewNop(),
		now:         time.Now,
		newLineID:   uuid.New,
		unit:        currency.IDR,
		cred:        cred,
		subscribers: make(map[int]func(domain.CartState)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mirror = &mirror{logger: s.logger}
	s.state = domain.EmptyCart(s.unit)

	if s.cacheKey == "" {
		s.cacheKey = cred.OwnerID()
	}
	if s.cacheKey == "" && !cred.Present() {
		s.cacheKey = anonymousOwner
	}

	s.hydrate(ctx)

	return s
}

func (s *Store) hydrate(ctx context.Context) {
	if !s.cred.Present() {
		if s.cacheRestore {
			s.restoreFromCache(ctx)
		}
		return
	}

	remoteLines, err := s.remote.FetchLines(ctx)
	if err != nil {
		s.logger.Warn("cart hydration failed, starting empty", zap.Error(err))
		return
	}

	lines := make([]domain.CartLine, 0, len(remoteLines))
	for _, rl := range remoteLines {
		lines = append(lines, domain.CartLine{
			ID:       s.newLineID(),
			Product:  rl.Product,
			Quantity: rl.Quantity,
		})
	}

	s.warnForeignLines("backend", lines)
	s.apply(ctx, func(st domain.CartState) domain.CartState {
		return st.Loaded(lines)
	})

	s.logger.Debug("cart hydrated", zap.Int("lines", len(lines)))
}

func (s *Store) restoreFromCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	lines, err := s.cache.Load(ctx, s.cacheKey)
	if err != nil {
		s.logger.Warn("cart cache restore failed", zap.String("owner_id", s.cacheKey), zap.Error(err))
		return
	}

	s.warnForeignLines("cache", lines)
	s.mu.Lock()
	s.state = s.state.Loaded(lines)
	s.mu.Unlock()
}

func (s *Store) warnForeignLines(source string, lines []domain.CartLine) {
	var dropped []string
	for _, line := range lines {
		if line.Product.Price.Currency != s.unit {
			dropped = append(dropped, line.Product.ID)
		}
	}
	if len(dropped) > 0 {
		s.logger.Warn("cart lines in another currency dropped",
			zap.String("source", source),
			zap.Stringer("currency", s.unit),
			zap.Strings("product_ids", dropped))
	}
}

// State returns the current cart. The returned value is never mutated by the store.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Store) ItemCount() int {
	return s.State().ItemCount()
}

// Subscribe registers fn to receive every new state right after a local
// transition. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(domain.CartState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Add puts one more unit of p in the cart. A product priced in another
// currency than the cart's is refused with a warning and never mirrored.
func (s *Store) Add(ctx context.Context, p domain.Product) {
	if p.Price.Currency != s.unit {
		s.logger.Warn("product in another currency not added",
			zap.String("product_id", p.ID),
			zap.Stringer("currency", p.Price.Currency),
			zap.Stringer("cart_currency", s.unit))
		return
	}

	lineID := s.newLineID()
	s.apply(ctx, func(st domain.CartState) domain.CartState {
		return st.AddProduct(p, lineID)
	})

	s.mirrorCall(ctx, "upsert", p.ID, func(ctx context.Context) error {
		return s.remote.UpsertLine(ctx, p.ID, 1)
	})
}

func (s *Store) Remove(ctx context.Context, productID string) {
	s.apply(ctx, func(st domain.CartState) domain.CartState {
		return st.RemoveProduct(productID)
	})

	s.mirrorCall(ctx, "delete", productID, func(ctx context.Context) error {
		return s.remote.DeleteLine(ctx, productID)
	})
}

// SetQuantity overwrites the quantity; zero or less removes the line.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	s.apply(ctx, func(st domain.CartState) domain.CartState {
		return st.SetQuantity(productID, quantity)
	})

	s.mirrorCall(ctx, "update_quantity", productID, func(ctx context.Context) error {
		return s.remote.UpdateQuantity(ctx, productID, quantity)
	})
}

func (s *Store) Clear(ctx context.Context) {
	s.apply(ctx, domain.CartState.Cleared)

	s.mirrorCall(ctx, "delete_all", "", func(ctx context.Context) error {
		return s.remote.DeleteAll(ctx)
	})
}

// Checkout turns the backend cart into an order. Contact fields are sent as
// given. The local cart is cleared only after the backend accepted the order.
func (s *Store) Checkout(ctx context.Context, contact domain.Contact) error {
	if !s.credential().Present() {
		return ErrAuthRequired
	}

	order := domain.Order{Contact: contact, Date: s.now()}

	if err := s.remote.CreateOrder(ctx, order); err != nil {
		s.logger.Error("checkout failed", zap.String("email", contact.Email), zap.Error(err))
		return &CheckoutError{Err: err}
	}

	s.logger.Info("checkout succeeded",
		zap.String("email", contact.Email),
		zap.String("date", order.DateString()))

	s.Clear(ctx)

	return nil
}

// Logout ends the session locally: the cart is emptied, its cache snapshot is
// dropped and later operations stop talking to the backend. The backend cart
// is left alone.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.cred = session.Credential{}
	s.state = s.state.Cleared()
	state := s.state
	subs := s.subscriberList()
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cacheKey); err != nil {
			s.logger.Warn("cart cache delete failed", zap.String("owner_id", s.cacheKey), zap.Error(err))
		}
	}

	notify(subs, state)
}

// Wait blocks until every dispatched mirror call has returned.
func (s *Store) Wait() {
	s.mirror.wait()
}

func (s *Store) credential() session.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cred
}

func (s *Store) apply(ctx context.Context, transition func(domain.CartState) domain.CartState) {
	s.mu.Lock()
	s.state = transition(s.state)
	state := s.state
	subs := s.subscriberList()
	s.mu.Unlock()

	s.persist(ctx, state)
	notify(subs, state)
}

func (s *Store) persist(ctx context.Context, state domain.CartState) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Save(ctx, s.cacheKey, state.Lines); err != nil {
		s.logger.Warn("cart cache save failed", zap.String("owner_id", s.cacheKey), zap.Error(err))
	}
}

func (s *Store) mirrorCall(ctx context.Context, op, productID string, call func(ctx context.Context) error) {
	if !s.credential().Present() {
		return
	}

	var fields []zap.Field
	if productID != "" {
		fields = append(fields, zap.String("product_id", productID))
	}

	s.mirror.dispatch(ctx, op, fields, call)
}

func (s *Store) subscriberList() []func(domain.CartState) {
	subs := make([]func(domain.CartState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(domain.CartState), state domain.CartState) {
	for _, fn := range subs {
		fn(state)
	}
}
