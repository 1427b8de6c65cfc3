package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"vending-api/internal/models"
)

type memData struct {
	users         map[int]models.User
	products      map[int]models.Product
	nextUserID    int
	nextProductID int
}

func (d *memData) clone() *memData {
	c := &memData{
		users:         make(map[int]models.User, len(d.users)),
		products:      make(map[int]models.Product, len(d.products)),
		nextUserID:    d.nextUserID,
		nextProductID: d.nextProductID,
	}
	for id, u := range d.users {
		c.users[id] = u
	}
	for id, p := range d.products {
		c.products[id] = p
	}
	return c
}

// MemoryStore keeps accounts and products in process memory. InTx works on a
// snapshot that replaces the live data only when the callback succeeds.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memData{
			users:    make(map[int]models.User),
			products: make(map[int]models.Product),
		},
	}
}

func (s *MemoryStore) view() *memView {
	return &memView{data: s.data}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateAccount(ctx, user)
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetAccountByID(ctx, id)
}

func (s *MemoryStore) GetAccountByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetAccountByUsername(ctx, username)
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListAccounts(ctx)
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateAccount(ctx, user)
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteAccount(ctx, id)
}

func (s *MemoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateProduct(ctx, product)
}

func (s *MemoryStore) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetProductByID(ctx, id)
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListProducts(ctx)
}

func (s *MemoryStore) ListProductsBySeller(ctx context.Context, sellerID int) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListProductsBySeller(ctx, sellerID)
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateProduct(ctx, product)
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteProduct(ctx, id)
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memView{data: snapshot}); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// memView operates on memData without locking; the caller holds the lock.
type memView struct {
	data *memData
}

func (v *memView) CreateAccount(_ context.Context, user *models.User) error {
	for _, existing := range v.data.users {
		if existing.Username == user.Username {
			return ErrDuplicate
		}
	}
	v.data.nextUserID++
	now := time.Now().UTC()
	user.ID = v.data.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	v.data.users[user.ID] = *user
	return nil
}

func (v *memView) GetAccountByID(_ context.Context, id int) (*models.User, error) {
	u, ok := v.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (v *memView) GetAccountByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range v.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (v *memView) ListAccounts(_ context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(v.data.users))
	for _, u := range v.data.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (v *memView) UpdateAccount(_ context.Context, user *models.User) error {
	current, ok := v.data.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range v.data.users {
		if id != user.ID && existing.Username == user.Username {
			return ErrDuplicate
		}
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	v.data.users[user.ID] = *user
	return nil
}

func (v *memView) DeleteAccount(_ context.Context, id int) error {
	if _, ok := v.data.users[id]; !ok {
		return ErrNotFound
	}
	delete(v.data.users, id)
	for productID, p := range v.data.products {
		if p.SellerID == id {
			delete(v.data.products, productID)
		}
	}
	return nil
}

func (v *memView) CreateProduct(_ context.Context, product *models.Product) error {
	if _, ok := v.data.users[product.SellerID]; !ok {
		return ErrNotFound
	}
	v.data.nextProductID++
	now := time.Now().UTC()
	product.ID = v.data.nextProductID
	product.CreatedAt = now
	product.UpdatedAt = now
	v.data.products[product.ID] = *product
	return nil
}

func (v *memView) GetProductByID(_ context.Context, id int) (*models.Product, error) {
	p, ok := v.data.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (v *memView) ListProducts(_ context.Context) ([]*models.Product, error) {
	return v.filterProducts(func(models.Product) bool { return true }), nil
}

func (v *memView) ListProductsBySeller(_ context.Context, sellerID int) ([]*models.Product, error) {
	return v.filterProducts(func(p models.Product) bool { return p.SellerID == sellerID }), nil
}

func (v *memView) filterProducts(keep func(models.Product) bool) []*models.Product {
	products := make([]*models.Product, 0, len(v.data.products))
	for _, p := range v.data.products {
		if !keep(p) {
			continue
		}
		p := p
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func (v *memView) UpdateProduct(_ context.Context, product *models.Product) error {
	current, ok := v.data.products[product.ID]
	if !ok {
		return ErrNotFound
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	v.data.products[product.ID] = *product
	return nil
}

func (v *memView) DeleteProduct(_ context.Context, id int) error {
	if _, ok := v.data.products[id]; !ok {
		return ErrNotFound
	}
	delete(v.data.products, id)
	return nil
}

// InTx nests a transaction: fn works on a copy that is merged back only when
// it succeeds.
func (v *memView) InTx(_ context.Context, fn func(Repository) error) error {
	snapshot := v.data.clone()
	if err := fn(&memView{data: snapshot}); err != nil {
		return err
	}
	*v.data = *snapshot
	return nil
}

func (v *memView) Close() error {
	return nil
}
