package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/auth"
)

type wishlistState struct {
	InWishlist bool `json:"in_wishlist"`
}

func (s *Server) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := catalogFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.storage.GetProducts(r.Context(), filter)
	if err != nil {
		s.failure(w, "get_products", err, page)
		return
	}
	respondOK(w, http.StatusOK, page)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	product, err := s.storage.GetProductByID(r.Context(), id)
	if err != nil {
		s.failure(w, "get_product", err, nil)
		return
	}
	respondOK(w, http.StatusOK, product)
}

func (s *Server) handleSizeChart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	chart, err := s.storage.GetSizeChart(r.Context(), id)
	if err != nil {
		s.failure(w, "get_size_chart", err, nil)
		return
	}
	respondOK(w, http.StatusOK, chart)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := decodeProductForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := s.storage.CreateProduct(r.Context(), auth.UserIDFromContext(r.Context()), form)
	if err != nil {
		s.failure(w, "create_product", err, nil)
		return
	}
	respondOK(w, http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	form, err := decodeProductForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := s.storage.UpdateProduct(r.Context(), auth.UserIDFromContext(r.Context()), id, form)
	if err != nil {
		s.failure(w, "update_product", err, nil)
		return
	}
	respondOK(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	if err := s.storage.DeleteProduct(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		s.failure(w, "delete_product", err, nil)
		return
	}
	respondOK(w, http.StatusOK, nil)
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	inWishlist, err := s.storage.ToggleWishlist(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		s.failure(w, "toggle_wishlist", err, wishlistState{InWishlist: inWishlist})
		return
	}
	respondOK(w, http.StatusOK, wishlistState{InWishlist: inWishlist})
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.GetWishlist(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		s.failure(w, "get_wishlist", err, nil)
		return
	}
	respondOK(w, http.StatusOK, items)
}

func (s *Server) handleGetUserProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.storage.GetUserProducts(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		s.failure(w, "get_user_products", err, nil)
		return
	}
	respondOK(w, http.StatusOK, products)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	if loginRequest.Email == "" || loginRequest.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing email or password")
		return
	}

	userID, err := s.userRepo.ValidateUser(r.Context(), loginRequest.Email, loginRequest.Password)
	if err != nil {
		s.failure(w, "login", err, nil)
		return
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		s.failure(w, "login", err, nil)
		return
	}

	s.logger.Info("user logged in", zap.String("user_id", userID))
	respondOK(w, http.StatusOK, map[string]string{
		"token":   token,
		"user_id": userID,
	})
}
