package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"vending-api/internal/middleware"
	"vending-api/internal/models"
	"vending-api/internal/services"
)

type ProductHandler struct {
	productService *services.ProductService
	logger         zerolog.Logger
}

func NewProductHandler(productService *services.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	var req models.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), actor, &req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	var sellerID *int
	if v := r.URL.Query().Get("seller_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_seller_id", "Invalid seller ID")
			return
		}
		sellerID = &id
	}

	products, err := h.productService.ListProducts(r.Context(), sellerID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid_product_id", "Invalid product ID")
		return
	}

	product, err := h.productService.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct handles PUT (all fields) and PATCH (only given fields).
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid_product_id", "Invalid product ID")
		return
	}

	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	var req models.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	partial := r.Method == http.MethodPatch
	product, err := h.productService.UpdateProduct(r.Context(), actor, productID, &req, partial)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid_product_id", "Invalid product ID")
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), middleware.GetActor(r), productID); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"detail": "Product deleted successfully",
	})
}
