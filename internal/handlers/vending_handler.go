package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"vending-api/internal/apperrors"
	"vending-api/internal/middleware"
	"vending-api/internal/models"
	"vending-api/internal/services"
)

const (
	msgParamRequired = "This parameter is required"
	msgParamInteger  = "A valid integer is required."
)

type VendingHandler struct {
	vendingService *services.VendingService
	logger         zerolog.Logger
}

func NewVendingHandler(vendingService *services.VendingService, logger zerolog.Logger) *VendingHandler {
	return &VendingHandler{
		vendingService: vendingService,
		logger:         logger,
	}
}

func (h *VendingHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	amount, err := strconv.Atoi(mux.Vars(r)["amount"])
	if err != nil {
		respondWithServiceError(w, r, h.logger, apperrors.Field("amount", msgParamInteger))
		return
	}

	result, err := h.vendingService.Deposit(r.Context(), actor, amount)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Buy accepts product_id and amount either as query parameters (GET) or as a
// JSON body. Anonymous callers are turned away before the parameters are
// parsed; the buyer check is made by the vending service.
func (h *VendingHandler) Buy(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	req, err := parseBuyRequest(r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.vendingService.Buy(r.Context(), actor, *req.ProductID, *req.Amount)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *VendingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	if err := h.vendingService.Reset(r.Context(), actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VendingHandler) Coins(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]int{
		"coins": services.Denominations(),
	})
}

func parseBuyRequest(r *http.Request) (*models.BuyRequest, error) {
	var req models.BuyRequest
	fields := map[string]string{}

	if r.Method == http.MethodGet {
		query := r.URL.Query()
		for name, dest := range map[string]**int{"product_id": &req.ProductID, "amount": &req.Amount} {
			raw := query.Get(name)
			if raw == "" {
				continue
			}
			v, err := strconv.Atoi(raw)
			if err != nil {
				fields[name] = msgParamInteger
				continue
			}
			*dest = &v
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	if req.ProductID == nil && fields["product_id"] == "" {
		fields["product_id"] = msgParamRequired
	}
	if req.Amount == nil && fields["amount"] == "" {
		fields["amount"] = msgParamRequired
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}
	return &req, nil
}
