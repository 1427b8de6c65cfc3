package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
	"vending-api/internal/store"
)

const (
	maxProductNameLength = 255
	// cost and amount_available are stored in 32-bit INT columns.
	maxProductQuantity = math.MaxInt32
)

type ProductService struct {
	repo   store.Repository
	logger zerolog.Logger
}

func NewProductService(repo store.Repository, logger zerolog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, actor *models.Actor, req *models.ProductRequest) (*models.Product, error) {
	if err := Authorize(actor, ActionCreateProduct, Resource{}).Err(); err != nil {
		return nil, err
	}

	product := &models.Product{SellerID: actor.ID}
	if err := applyProductRequest(product, req, false); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthenticated("User no longer exists")
		}
		s.logger.Error().Err(err).Int("seller_id", actor.ID).Msg("Error creating product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Int("product_id", product.ID).Int("seller_id", actor.ID).Msg("Product created")
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID int) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Product")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("product_id", productID).Msg("Error fetching product")
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}

// ListProducts returns the whole catalog, or one seller's products when
// sellerID is set.
func (s *ProductService) ListProducts(ctx context.Context, sellerID *int) ([]*models.Product, error) {
	var (
		products []*models.Product
		err      error
	)
	if sellerID != nil {
		products, err = s.repo.ListProductsBySeller(ctx, *sellerID)
	} else {
		products, err = s.repo.ListProducts(ctx)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing products")
		return nil, fmt.Errorf("database error: %w", err)
	}
	return products, nil
}

// UpdateProduct changes a product owned by the acting seller. With partial
// set, omitted fields keep their current value. The product is read and
// written in one transaction so concurrent purchases are not overwritten.
func (s *ProductService) UpdateProduct(ctx context.Context, actor *models.Actor, productID int, req *models.ProductRequest, partial bool) (*models.Product, error) {
	if err := RequireActor(actor); err != nil {
		return nil, err
	}

	var product *models.Product
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		var err error
		product, err = tx.GetProductByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Product")
		}
		if err != nil {
			return err
		}

		if err := Authorize(actor, ActionUpdateProduct, Resource{OwnerID: product.SellerID}).Err(); err != nil {
			return err
		}
		if err := applyProductRequest(product, req, partial); err != nil {
			return err
		}
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Int("product_id", productID).Msg("Error updating product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().Int("product_id", productID).Int("seller_id", actor.ID).Msg("Product updated")
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, actor *models.Actor, productID int) error {
	if err := RequireActor(actor); err != nil {
		return err
	}

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := Authorize(actor, ActionDeleteProduct, Resource{OwnerID: product.SellerID}).Err(); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Product")
		}
		s.logger.Error().Err(err).Int("product_id", productID).Msg("Error deleting product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Int("product_id", productID).Int("seller_id", actor.ID).Msg("Product deleted")
	return nil
}

func applyProductRequest(product *models.Product, req *models.ProductRequest, partial bool) error {
	fields := map[string]string{}

	name := strings.TrimSpace(req.ProductName)
	switch {
	case name == "" && !partial:
		fields["product_name"] = msgRequired
	case len(name) > maxProductNameLength:
		fields["product_name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxProductNameLength)
	case name != "":
		product.ProductName = name
	}

	switch {
	case req.Cost == nil && !partial:
		fields["cost"] = msgRequired
	case req.Cost != nil && *req.Cost <= 0:
		fields["cost"] = "Ensure this value is greater than 0."
	case req.Cost != nil && *req.Cost > maxProductQuantity:
		fields["cost"] = fmt.Sprintf("Ensure this value is less than or equal to %d.", maxProductQuantity)
	case req.Cost != nil:
		product.Cost = *req.Cost
	}

	if req.AmountAvailable != nil {
		switch {
		case *req.AmountAvailable < 0:
			fields["amount_available"] = "Ensure this value is greater than or equal to 0."
		case *req.AmountAvailable > maxProductQuantity:
			fields["amount_available"] = fmt.Sprintf("Ensure this value is less than or equal to %d.", maxProductQuantity)
		default:
			product.AmountAvailable = *req.AmountAvailable
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}
