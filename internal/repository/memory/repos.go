package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type userRepository struct {
	store   *Store
	locking bool
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	defer r.store.lock(r.locking)()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	uc := *user
	r.store.data.users[user.ID] = &uc
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.store.lock(r.locking)()
	user, ok := r.store.data.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	uc := *user
	return &uc, nil
}

func (r *userRepository) GetByAPIToken(ctx context.Context, token string) (*domain.User, error) {
	defer r.store.lock(r.locking)()
	for _, user := range r.store.data.users {
		if !user.IsActive {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.APITokenHash), []byte(token)); err == nil {
			uc := *user
			return &uc, nil
		}
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API token"}
}

func (r *userRepository) AddAddress(ctx context.Context, addr *domain.Address) error {
	defer r.store.lock(r.locking)()
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	hasAny := false
	for _, existing := range r.store.data.addresses {
		if existing.UserID == addr.UserID {
			hasAny = true
			break
		}
	}
	addr.IsDefault = !hasAny
	ac := *addr
	r.store.data.addresses[addr.ID] = &ac
	return nil
}

func (r *userRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	defer r.store.lock(r.locking)()
	var addrs []domain.Address
	for _, addr := range r.store.data.addresses {
		if addr.UserID == userID {
			addrs = append(addrs, *addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].IsDefault && !addrs[j].IsDefault })
	return addrs, nil
}

func (r *userRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	defer r.store.lock(r.locking)()
	addr, ok := r.store.data.addresses[addressID]
	if !ok || addr.UserID != userID {
		return nil, &errors.ErrNotFound{Resource: "address", ID: addressID.String()}
	}
	ac := *addr
	return &ac, nil
}

func (r *userRepository) GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	defer r.store.lock(r.locking)()
	return append([]domain.CartItem(nil), r.store.data.cart[userID]...), nil
}

func (r *userRepository) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	defer r.store.lock(r.locking)()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	items := r.store.data.cart[item.UserID]
	for i := range items {
		if items[i].ProductID == item.ProductID && skuEqual(items[i].VariantSKU, item.VariantSKU) {
			items[i].Quantity += item.Quantity
			return nil
		}
	}
	r.store.data.cart[item.UserID] = append(items, *item)
	return nil
}

func (r *userRepository) UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	defer r.store.lock(r.locking)()
	items := r.store.data.cart[userID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "cart item", ID: itemID.String()}
}

func (r *userRepository) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	defer r.store.lock(r.locking)()
	items := r.store.data.cart[userID]
	for i := range items {
		if items[i].ID == itemID {
			r.store.data.cart[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *userRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	defer r.store.lock(r.locking)()
	delete(r.store.data.cart, userID)
	return nil
}

func (r *userRepository) AdjustWalletPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	defer r.store.lock(r.locking)()
	user, ok := r.store.data.users[userID]
	if !ok {
		return &errors.ErrNotFound{Resource: "user", ID: userID.String()}
	}
	if user.WalletPoints+delta < 0 {
		return &errors.ErrInsufficientWalletBalance{Balance: user.WalletPoints, Requested: -delta}
	}
	user.WalletPoints += delta
	return nil
}

type productRepository struct {
	store   *Store
	locking bool
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	defer r.store.lock(r.locking)()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	if product.MinOrderQty < 1 {
		product.MinOrderQty = 1
	}
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	r.store.data.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	defer r.store.lock(r.locking)()
	product, ok := r.store.data.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return cloneProduct(product), nil
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	defer r.store.lock(r.locking)()
	for _, product := range r.store.data.products {
		if product.Slug == slug {
			return cloneProduct(product), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "product", ID: slug}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	defer r.store.lock(r.locking)()
	var products []domain.Product
	for _, product := range r.store.data.products {
		products = append(products, *cloneProduct(product))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (r *productRepository) ReserveStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error {
	defer r.store.lock(r.locking)()
	product, ok := r.store.data.products[productID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: productID.String()}
	}
	if variantSKU != nil {
		variant := product.FindVariant(*variantSKU)
		if variant == nil || variant.Stock < quantity {
			return &errors.ErrInsufficientStock{ProductName: product.Name, SKU: *variantSKU}
		}
		variant.Stock -= quantity
		return nil
	}
	if product.Stock < quantity {
		return &errors.ErrInsufficientStock{ProductName: product.Name}
	}
	product.Stock -= quantity
	return nil
}

func (r *productRepository) RestoreStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error {
	defer r.store.lock(r.locking)()
	product, ok := r.store.data.products[productID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: productID.String()}
	}
	if variantSKU != nil {
		variant := product.FindVariant(*variantSKU)
		if variant == nil {
			return &errors.ErrNotFound{Resource: "variant", ID: *variantSKU}
		}
		variant.Stock += quantity
		return nil
	}
	product.Stock += quantity
	return nil
}

func (r *productRepository) SetRating(ctx context.Context, productID uuid.UUID, avg float64, count int) error {
	defer r.store.lock(r.locking)()
	product, ok := r.store.data.products[productID]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: productID.String()}
	}
	product.AvgRating = avg
	product.NumRatings = count
	return nil
}

type orderRepository struct {
	store   *Store
	locking bool
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	defer r.store.lock(r.locking)()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	r.store.data.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	defer r.store.lock(r.locking)()
	order, ok := r.store.data.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	defer r.store.lock(r.locking)()
	var orders []domain.Order
	for _, order := range r.store.data.orders {
		if order.UserID == userID {
			orders = append(orders, *cloneOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context, limit int) ([]domain.Order, error) {
	defer r.store.lock(r.locking)()
	var orders []domain.Order
	for _, order := range r.store.data.orders {
		orders = append(orders, *cloneOrder(order))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	defer r.store.lock(r.locking)()
	order, ok := r.store.data.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if order.Status != from {
		return &errors.ErrInvalidStateTransition{From: string(order.Status), To: string(to)}
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return nil
}

func (r *orderRepository) UpdateShipment(ctx context.Context, id uuid.UUID, shipment domain.ShipmentDetails) error {
	defer r.store.lock(r.locking)()
	order, ok := r.store.data.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.Shipment = shipment
	order.UpdatedAt = time.Now()
	return nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancellation domain.CancellationDetails, refund *domain.RefundDetails) error {
	defer r.store.lock(r.locking)()
	order, ok := r.store.data.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if !order.Status.IsCancellable() {
		return &errors.ErrOrderNotCancellable{Status: string(order.Status)}
	}
	order.Status = domain.OrderStatusCancelled
	cc := cancellation
	order.Cancellation = &cc
	if refund != nil {
		rc := *refund
		order.Refund = &rc
	}
	order.UpdatedAt = time.Now()
	return nil
}

type couponRepository struct {
	store   *Store
	locking bool
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	defer r.store.lock(r.locking)()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Code = strings.ToUpper(coupon.Code)
	cc := *coupon
	r.store.data.coupons[coupon.Code] = &cc
	return nil
}

func (r *couponRepository) FindActive(ctx context.Context, code string) (*domain.Coupon, error) {
	defer r.store.lock(r.locking)()
	coupon, ok := r.store.data.coupons[strings.ToUpper(code)]
	if !ok || !coupon.IsActive {
		return nil, nil
	}
	cc := *coupon
	return &cc, nil
}

type configRepository struct {
	store   *Store
	locking bool
}

func (r *configRepository) GetWalletConfig(ctx context.Context) (*domain.WalletConfig, error) {
	defer r.store.lock(r.locking)()
	cfg := r.store.data.walletCfg
	cfg.RewardRules = append([]domain.RewardRule(nil), cfg.RewardRules...)
	return &cfg, nil
}

func (r *configRepository) SaveWalletConfig(ctx context.Context, cfg *domain.WalletConfig) error {
	defer r.store.lock(r.locking)()
	saved := *cfg
	saved.RewardRules = append([]domain.RewardRule(nil), cfg.RewardRules...)
	sort.Slice(saved.RewardRules, func(i, j int) bool {
		return saved.RewardRules[i].MinSpend.GreaterThan(saved.RewardRules[j].MinSpend)
	})
	r.store.data.walletCfg = saved
	return nil
}

func (r *configRepository) GetTaxRate(ctx context.Context) (decimal.Decimal, error) {
	defer r.store.lock(r.locking)()
	return r.store.data.taxRate, nil
}

func (r *configRepository) SetTaxRate(ctx context.Context, rate decimal.Decimal) error {
	defer r.store.lock(r.locking)()
	r.store.data.taxRate = rate
	return nil
}

type reviewRepository struct {
	store   *Store
	locking bool
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	defer r.store.lock(r.locking)()
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	rc := *review
	r.store.data.reviews[review.ID] = &rc
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	defer r.store.lock(r.locking)()
	review, ok := r.store.data.reviews[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "review", ID: id.String()}
	}
	rc := *review
	return &rc, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	defer r.store.lock(r.locking)()
	var reviews []domain.Review
	for _, review := range r.store.data.reviews {
		if review.ProductID == productID {
			reviews = append(reviews, *review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (r *reviewRepository) HasUserReviewed(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	defer r.store.lock(r.locking)()
	for _, review := range r.store.data.reviews {
		if review.ProductID == productID && review.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.store.lock(r.locking)()
	if _, ok := r.store.data.reviews[id]; !ok {
		return &errors.ErrNotFound{Resource: "review", ID: id.String()}
	}
	delete(r.store.data.reviews, id)
	return nil
}

func skuEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
