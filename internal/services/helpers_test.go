package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
	"vending-api/internal/store"
)

func newTestAuth() *AuthService {
	return NewAuthService("test-secret", time.Hour, zerolog.Nop()).WithHashCost(bcrypt.MinCost)
}

func seedUser(t *testing.T, repo store.Repository, username string, role models.Role, deposit int) *models.User {
	t.Helper()
	hash, err := newTestAuth().HashPassword("passwd1")
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Deposit:      deposit,
	}
	require.NoError(t, repo.CreateAccount(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, repo store.Repository, seller *models.User, name string, cost, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ProductName:     name,
		Cost:            cost,
		AmountAvailable: stock,
		SellerID:        seller.ID,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), product))
	return product
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) *apperrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected apperrors.Error, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
	return appErr
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// interleavingRepo runs between once, at the point where a competing request
// could slip in: right after a read made outside a transaction, or right
// before a transaction starts.
type interleavingRepo struct {
	store.Repository
	between func()
	done    bool
}

func (r *interleavingRepo) interleave() {
	if !r.done {
		r.done = true
		r.between()
	}
}

func (r *interleavingRepo) GetAccountByID(ctx context.Context, id int) (*models.User, error) {
	user, err := r.Repository.GetAccountByID(ctx, id)
	r.interleave()
	return user, err
}

func (r *interleavingRepo) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	product, err := r.Repository.GetProductByID(ctx, id)
	r.interleave()
	return product, err
}

func (r *interleavingRepo) InTx(ctx context.Context, fn func(store.Repository) error) error {
	r.interleave()
	return r.Repository.InTx(ctx, fn)
}
