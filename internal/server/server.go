//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type Storage interface {
	GetProducts(ctx context.Context, filter storage.CatalogFilter) (storage.ProductPage, error)
	GetProductByID(ctx context.Context, id string) (*storage.ProductDetail, error)
	GetSizeChart(ctx context.Context, id string) (*storage.SizeChart, error)
	CreateProduct(ctx context.Context, userID string, form storage.ProductForm) (*storage.Product, error)
	UpdateProduct(ctx context.Context, userID, id string, form storage.ProductForm) (*storage.Product, error)
	DeleteProduct(ctx context.Context, userID, id string) error
	ToggleWishlist(ctx context.Context, userID, productID string) (bool, error)
	GetWishlist(ctx context.Context, userID string) ([]storage.WishlistItem, error)
	GetUserProducts(ctx context.Context, userID string) ([]storage.Product, error)
}

type UserRepo interface {
	ValidateUser(ctx context.Context, email, password string) (string, error)
}

type TokenManager interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

type Server struct {
	storage      Storage
	userRepo     UserRepo
	tokens       TokenManager
	logger       *zap.Logger
	corsOrigins  []string
	server       *http.Server
	AuditManager *AuditManager
}

func New(storage Storage, userRepo UserRepo, tokens TokenManager, logger *zap.Logger, corsOrigins []string) *Server {
	return &Server{
		storage:      storage,
		userRepo:     userRepo,
		tokens:       tokens,
		logger:       logger,
		corsOrigins:  corsOrigins,
		AuditManager: NewAuditManager(logger, 2, 5, 500*time.Millisecond),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	s.AuditManager.Start(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("Server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	s.logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	base := alice.New(s.recoverPanic, s.logRequest)
	public := base.Append(s.auditLogMiddleware)
	protected := base.Append(s.requireUser, s.auditLogMiddleware)

	router.Handle("/products", public.ThenFunc(s.handleGetProducts)).Methods(http.MethodGet).Name("GetProducts")
	router.Handle("/products", protected.ThenFunc(s.handleCreateProduct)).Methods(http.MethodPost).Name("CreateProduct")
	router.Handle("/products/{id}", public.ThenFunc(s.handleGetProduct)).Methods(http.MethodGet).Name("GetProduct")
	router.Handle("/products/{id}", protected.ThenFunc(s.handleUpdateProduct)).Methods(http.MethodPut).Name("UpdateProduct")
	router.Handle("/products/{id}", protected.ThenFunc(s.handleDeleteProduct)).Methods(http.MethodDelete).Name("DeleteProduct")
	router.Handle("/products/{id}/size-chart", public.ThenFunc(s.handleSizeChart)).Methods(http.MethodGet).Name("GetSizeChart")
	router.Handle("/products/{id}/wishlist", protected.ThenFunc(s.handleToggleWishlist)).Methods(http.MethodPost).Name("ToggleWishlist")
	router.Handle("/wishlist", protected.ThenFunc(s.handleGetWishlist)).Methods(http.MethodGet).Name("GetWishlist")
	router.Handle("/me/products", protected.ThenFunc(s.handleGetUserProducts)).Methods(http.MethodGet).Name("GetUserProducts")
	router.Handle("/auth/login", public.ThenFunc(s.handleLogin)).Methods(http.MethodPost).Name("Login")
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("Metrics")

	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Connection", "close")
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// requireUser accepts a bearer token and stores its user id in the request
// context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, storage.ErrUnauthorized.Error())
			return
		}

		userID, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.logger.Debug("rejected bearer token", zap.Error(err))
			respondError(w, http.StatusUnauthorized, storage.ErrUnauthorized.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}
