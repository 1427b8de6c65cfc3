package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vending-api/internal/models"
)

const (
	userColumns    = "id, username, password_hash, role, deposit, is_admin, created_at, updated_at"
	productColumns = "id, product_name, cost, amount_available, seller_id, created_at, updated_at"
)

// SQLStore implements Repository on MySQL or Postgres. Queries are written
// with ? placeholders and rebound for the connected driver.
type SQLStore struct {
	db      *sqlx.DB
	q       sqlx.ExtContext
	locking bool
	depth   int
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

func (s *SQLStore) forUpdate(query string) string {
	if s.locking {
		return query + " FOR UPDATE"
	}
	return query
}

func (s *SQLStore) insert(ctx context.Context, query string, args ...interface{}) (int, error) {
	if s.q.DriverName() == "postgres" {
		var id int
		err := s.q.QueryRowxContext(ctx, s.q.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return int(id), nil
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SQLStore) CreateAccount(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	id, err := s.insert(ctx,
		"INSERT INTO users (username, password_hash, role, deposit, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.Username, user.PasswordHash, string(user.Role), user.Deposit, user.IsAdmin, now, now,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *SQLStore) GetAccountByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	query := s.forUpdate("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := sqlx.GetContext(ctx, s.q, &user, s.q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *SQLStore) GetAccountByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := s.forUpdate("SELECT " + userColumns + " FROM users WHERE username = ?")
	if err := sqlx.GetContext(ctx, s.q, &user, s.q.Rebind(query), username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username '%s': %w", username, err)
	}
	return &user, nil
}

func (s *SQLStore) ListAccounts(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := sqlx.SelectContext(ctx, s.q, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *SQLStore) UpdateAccount(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		"UPDATE users SET username = ?, password_hash = ?, role = ?, deposit = ?, is_admin = ?, updated_at = ? WHERE id = ?",
		user.Username, user.PasswordHash, string(user.Role), user.Deposit, user.IsAdmin, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return nil
}

func (s *SQLStore) DeleteAccount(ctx context.Context, id int) error {
	return s.InTx(ctx, func(r Repository) error {
		tx := r.(*SQLStore)
		if _, err := tx.exec(ctx, "DELETE FROM products WHERE seller_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete products of user %d: %w", id, err)
		}
		n, err := tx.exec(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) CreateProduct(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	id, err := s.insert(ctx,
		"INSERT INTO products (product_name, cost, amount_available, seller_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		product.ProductName, product.Cost, product.AmountAvailable, product.SellerID, now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (s *SQLStore) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	query := s.forUpdate("SELECT " + productColumns + " FROM products WHERE id = ?")
	if err := sqlx.GetContext(ctx, s.q, &product, s.q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

func (s *SQLStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products := []*models.Product{}
	if err := sqlx.SelectContext(ctx, s.q, &products, "SELECT "+productColumns+" FROM products ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *SQLStore) ListProductsBySeller(ctx context.Context, sellerID int) ([]*models.Product, error) {
	products := []*models.Product{}
	query := s.q.Rebind("SELECT " + productColumns + " FROM products WHERE seller_id = ? ORDER BY id")
	if err := sqlx.SelectContext(ctx, s.q, &products, query, sellerID); err != nil {
		return nil, fmt.Errorf("failed to list products of seller %d: %w", sellerID, err)
	}
	return products, nil
}

func (s *SQLStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		"UPDATE products SET product_name = ?, cost = ?, amount_available = ?, updated_at = ? WHERE id = ?",
		product.ProductName, product.Cost, product.AmountAvailable, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	return nil
}

func (s *SQLStore) DeleteProduct(ctx context.Context, id int) error {
	n, err := s.exec(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InTx runs fn in a transaction. Called on a store that is already inside a
// transaction, it opens a savepoint so a failing fn only undoes its own writes.
func (s *SQLStore) InTx(ctx context.Context, fn func(Repository) error) error {
	if s.locking {
		return s.inSavepoint(ctx, fn)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx, locking: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) inSavepoint(ctx context.Context, fn func(Repository) error) error {
	name := fmt.Sprintf("sp_%d", s.depth)
	if _, err := s.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if err := fn(&SQLStore{db: s.db, q: s.q, locking: true, depth: s.depth + 1}); err != nil {
		if _, rbErr := s.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("failed to roll back savepoint: %v: %w", rbErr, err)
		}
		return err
	}

	if _, err := s.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.locking {
		return nil
	}
	return s.db.Close()
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// isForeignKeyViolation reports a reference to a missing row, such as a
// product whose seller was deleted.
func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1452 {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return true
	}
	return false
}
