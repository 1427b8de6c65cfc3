package store

import (
	"context"
	"errors"

	"vending-api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// AccountStore persists accounts. Usernames are unique.
type AccountStore interface {
	CreateAccount(ctx context.Context, user *models.User) error
	GetAccountByID(ctx context.Context, id int) (*models.User, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.User, error)
	ListAccounts(ctx context.Context) ([]*models.User, error)
	UpdateAccount(ctx context.Context, user *models.User) error
	// DeleteAccount removes the account and every product it sells.
	DeleteAccount(ctx context.Context, id int) error
}

// ProductStore persists the catalog.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListProductsBySeller(ctx context.Context, sellerID int) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int) error
}

type Repository interface {
	AccountStore
	ProductStore

	// InTx runs fn against a repository whose writes are committed together
	// when fn returns nil and discarded otherwise. Reads made through it lock
	// the returned rows until the transaction ends. Calling InTx on the
	// transactional repository nests: only the inner writes are discarded.
	InTx(ctx context.Context, fn func(Repository) error) error

	Close() error
}
