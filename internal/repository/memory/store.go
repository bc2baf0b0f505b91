// Package memory implements repository.Store entirely in process. It backs
// the service tests: WithinTx snapshots the data set and restores it when the
// unit of work fails, giving the same all-or-nothing behavior the Postgres
// store gets from sql.Tx.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
)

type data struct {
	users     map[uuid.UUID]*domain.User
	addresses map[uuid.UUID]*domain.Address
	cart      map[uuid.UUID][]domain.CartItem
	products  map[uuid.UUID]*domain.Product
	orders    map[uuid.UUID]*domain.Order
	coupons   map[string]*domain.Coupon
	reviews   map[uuid.UUID]*domain.Review
	walletCfg domain.WalletConfig
	taxRate   decimal.Decimal
}

func newData() *data {
	return &data{
		users:     make(map[uuid.UUID]*domain.User),
		addresses: make(map[uuid.UUID]*domain.Address),
		cart:      make(map[uuid.UUID][]domain.CartItem),
		products:  make(map[uuid.UUID]*domain.Product),
		orders:    make(map[uuid.UUID]*domain.Order),
		coupons:   make(map[string]*domain.Coupon),
		reviews:   make(map[uuid.UUID]*domain.Review),
		walletCfg: domain.WalletConfig{
			RupeesPerPoint:      decimal.NewFromInt(1),
			RewardTierTolerance: decimal.NewFromInt(5),
		},
		taxRate: decimal.NewFromFloat(0.03),
	}
}

// Store is an in-memory repository.Store. A single mutex serializes units of
// work; the data store's transaction isolation is modeled by snapshotting.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{data: newData()}
}

// Repos returns repositories that lock per call
func (s *Store) Repos() *repository.Repositories {
	return newRepositories(s, true)
}

// WithinTx runs fn against the live data set under the store lock. On error
// the pre-transaction snapshot is restored, so no partial state is ever
// observable.
func (s *Store) WithinTx(ctx context.Context, fn func(*repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(newRepositories(s, false)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// lock acquires the store mutex unless the caller already holds it (inside
// WithinTx). Returns the matching unlock.
func (s *Store) lock(locking bool) func() {
	if !locking {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func newRepositories(s *Store, locking bool) *repository.Repositories {
	return &repository.Repositories{
		Users:    &userRepository{store: s, locking: locking},
		Products: &productRepository{store: s, locking: locking},
		Orders:   &orderRepository{store: s, locking: locking},
		Coupons:  &couponRepository{store: s, locking: locking},
		Configs:  &configRepository{store: s, locking: locking},
		Reviews:  &reviewRepository{store: s, locking: locking},
	}
}

func (d *data) clone() *data {
	c := newData()
	for id, u := range d.users {
		uc := *u
		c.users[id] = &uc
	}
	for id, a := range d.addresses {
		ac := *a
		c.addresses[id] = &ac
	}
	for id, items := range d.cart {
		c.cart[id] = append([]domain.CartItem(nil), items...)
	}
	for id, p := range d.products {
		c.products[id] = cloneProduct(p)
	}
	for id, o := range d.orders {
		c.orders[id] = cloneOrder(o)
	}
	for code, cp := range d.coupons {
		cpc := *cp
		c.coupons[code] = &cpc
	}
	for id, rv := range d.reviews {
		rvc := *rv
		c.reviews[id] = &rvc
	}
	c.walletCfg = d.walletCfg
	c.walletCfg.RewardRules = append([]domain.RewardRule(nil), d.walletCfg.RewardRules...)
	c.taxRate = d.taxRate
	return c
}

func cloneProduct(p *domain.Product) *domain.Product {
	pc := *p
	pc.Images = append([]string(nil), p.Images...)
	pc.Variants = append([]domain.Variant(nil), p.Variants...)
	return &pc
}

func cloneOrder(o *domain.Order) *domain.Order {
	oc := *o
	oc.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		oc.ShippingAddress = &addr
	}
	if o.Refund != nil {
		refund := *o.Refund
		oc.Refund = &refund
	}
	if o.Cancellation != nil {
		cancellation := *o.Cancellation
		oc.Cancellation = &cancellation
	}
	return &oc
}
