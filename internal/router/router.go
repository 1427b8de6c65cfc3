package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vending-api/internal/config"
	"vending-api/internal/handlers"
	"vending-api/internal/middleware"
	"vending-api/internal/services"
	"vending-api/internal/store"
)

type Services struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Products *services.ProductService
	Vending  *services.VendingService
}

func NewServices(repo store.Repository, cfg config.Config, logger zerolog.Logger) *Services {
	authService := services.NewAuthService(cfg.JWTSecret, cfg.TokenTTL, logger)
	return &Services{
		Auth:     authService,
		Users:    services.NewUserService(repo, authService, logger),
		Products: services.NewProductService(repo, logger),
		Vending:  services.NewVendingService(repo, logger),
	}
}

func SetupRouter(svc *Services, cfg config.Config, logger zerolog.Logger) *mux.Router {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Auth, logger)
	userHandler := handlers.NewUserHandler(svc.Users, logger)
	productHandler := handlers.NewProductHandler(svc.Products, logger)
	vendingHandler := handlers.NewVendingHandler(svc.Vending, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.PerformanceMonitoring(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(rateLimiter.Middleware())

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Authentication(svc.Auth, svc.Users, logger))
	api.Use(middleware.RequestValidation())

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")
	auth.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")

	api.HandleFunc("/users", userHandler.Register).Methods("POST")
	api.HandleFunc("/users", userHandler.GetUsers).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}", userHandler.GetUser).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}", userHandler.UpdateUser).Methods("PUT")
	api.HandleFunc("/users/{id:[0-9]+}", userHandler.DeleteUser).Methods("DELETE")

	api.HandleFunc("/products", productHandler.CreateProduct).Methods("POST")
	api.HandleFunc("/products", productHandler.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", productHandler.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", productHandler.UpdateProduct).Methods("PUT", "PATCH")
	api.HandleFunc("/products/{id:[0-9]+}", productHandler.DeleteProduct).Methods("DELETE")

	api.HandleFunc("/deposit/{amount}", vendingHandler.Deposit).Methods("GET", "POST")
	api.HandleFunc("/buy", vendingHandler.Buy).Methods("GET", "POST")
	api.HandleFunc("/reset", vendingHandler.Reset).Methods("GET", "POST")
	api.HandleFunc("/coins", vendingHandler.Coins).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
