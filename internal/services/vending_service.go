package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
	"vending-api/internal/store"
)

// VendingService runs the credit-affecting actions of a buyer: deposit, buy
// and reset. Actions on one account are serialised.
type VendingService struct {
	repo   store.Repository
	logger zerolog.Logger
	mu     sync.Map
}

func NewVendingService(repo store.Repository, logger zerolog.Logger) *VendingService {
	return &VendingService{
		repo:   repo,
		logger: logger,
	}
}

func (s *VendingService) getMutex(userID int) *sync.Mutex {
	mu, _ := s.mu.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Deposit adds one coin to the buyer's credit.
func (s *VendingService) Deposit(ctx context.Context, actor *models.Actor, amount int) (*models.DepositResult, error) {
	if err := Authorize(actor, ActionDeposit, Resource{}).Err(); err != nil {
		return nil, err
	}
	if !IsValidDenomination(amount) {
		s.logger.Warn().Int("user_id", actor.ID).Int("amount", amount).Msg("Rejected coin")
		return nil, apperrors.InvalidDenomination(amount)
	}

	mu := s.getMutex(actor.ID)
	mu.Lock()
	defer mu.Unlock()

	var user *models.User
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		var err error
		user, err = loadBuyer(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		user.Deposit += amount
		return tx.UpdateAccount(ctx, user)
	})
	if err != nil {
		return nil, s.fail(err, actor.ID, "Deposit failed")
	}

	s.logger.Info().
		Int("user_id", user.ID).
		Int("amount", amount).
		Int("deposit", user.Deposit).
		Msg("Deposit accepted")

	return &models.DepositResult{
		Detail:   fmt.Sprintf("%d deposited to %s's account", amount, user.Username),
		Username: user.Username,
		Amount:   amount,
		Deposit:  user.Deposit,
	}, nil
}

// Buy sells amount units of a product to the buyer. On success the whole
// remaining credit is returned as change and the buyer's deposit drops to 0.
func (s *VendingService) Buy(ctx context.Context, actor *models.Actor, productID, amount int) (*models.PurchaseResult, error) {
	if err := Authorize(actor, ActionBuy, Resource{}).Err(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Field("amount", fmt.Sprintf("%d is an invalid amount", amount))
	}

	mu := s.getMutex(actor.ID)
	mu.Lock()
	defer mu.Unlock()

	var result *models.PurchaseResult
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		product, err := tx.GetProductByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Product")
		}
		if err != nil {
			return err
		}
		if product.AmountAvailable < amount {
			return apperrors.InsufficientStock(product.AmountAvailable, product.ProductName)
		}

		user, err := loadBuyer(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if product.Cost > 0 && amount > math.MaxInt/product.Cost {
			return apperrors.InsufficientCredit(user.Username)
		}
		total := amount * product.Cost
		if user.Deposit < total {
			return apperrors.InsufficientCredit(user.Username)
		}

		product.AmountAvailable -= amount
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return err
		}

		change := user.Deposit - total
		user.Deposit = 0
		if err := tx.UpdateAccount(ctx, user); err != nil {
			return err
		}

		result = &models.PurchaseResult{
			Product: product.ProductName,
			Total:   total,
			Change:  change,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, actor.ID, "Purchase failed")
	}

	s.logger.Info().
		Int("user_id", actor.ID).
		Int("product_id", productID).
		Int("amount", amount).
		Int("total", result.Total).
		Int("change", result.Change).
		Msg("Purchase completed")

	return result, nil
}

// Reset sets the buyer's deposit to 0.
func (s *VendingService) Reset(ctx context.Context, actor *models.Actor) error {
	if err := Authorize(actor, ActionReset, Resource{}).Err(); err != nil {
		return err
	}

	mu := s.getMutex(actor.ID)
	mu.Lock()
	defer mu.Unlock()

	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		user, err := loadBuyer(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if user.Deposit == 0 {
			return nil
		}
		user.Deposit = 0
		return tx.UpdateAccount(ctx, user)
	})
	if err != nil {
		return s.fail(err, actor.ID, "Reset failed")
	}

	s.logger.Info().Int("user_id", actor.ID).Msg("Deposit reset")
	return nil
}

// loadBuyer reads the account behind the actor inside a transaction. The
// stored role is checked again since it may have changed after the actor was
// resolved.
func loadBuyer(ctx context.Context, tx store.Repository, userID int) (*models.User, error) {
	user, err := tx.GetAccountByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleBuyer {
		return nil, apperrors.Forbidden(ReasonNotBuyer)
	}
	return user, nil
}

// fail logs unexpected errors and wraps them; client errors pass through.
func (s *VendingService) fail(err error, userID int, msg string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	s.logger.Error().Err(err).Int("user_id", userID).Msg(msg)
	return fmt.Errorf("vending: %w", err)
}
