// Package controllers translates HTTP requests into service calls and
// service results into JSON envelopes. No business rules live here.
package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/bind"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

// AuthController handles registration, login, password reset, the
// profile and saved addresses.
type AuthController struct {
	accounts *services.AccountService
}

func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{accounts: accounts}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min:3,max:30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min:6"`
}

// Register creates a new customer account.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	user, err := c.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, user)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a token.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	token, user, err := c.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min:6"`
}

// ResetPassword replaces the password for the account with that email.
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	if err := c.accounts.ResetPassword(r.Context(), req.Email, req.Password); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, "Password updated", nil)
}

// Profile returns the caller's account.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	user, err := c.accounts.Profile(r.Context(), id.UserID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, user)
}

// ListAddresses returns the caller's saved addresses.
func (c *AuthController) ListAddresses(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	addrs, err := c.accounts.ListAddresses(r.Context(), id.UserID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, addrs)
}

type addressRequest struct {
	Name     string `json:"name" validate:"required"`
	Mobile   string `json:"mobile" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	District string `json:"district"`
}

func (req *addressRequest) model() models.Address {
	return models.Address{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		District: req.District,
	}
}

// AddAddress saves a new shipping address.
func (c *AuthController) AddAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req addressRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	addr, err := c.accounts.AddAddress(r.Context(), id.UserID, req.model())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, addr)
}

// UpdateAddress replaces a saved shipping address.
func (c *AuthController) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())
	addressID := chi.URLParam(r, "addressId")

	var req addressRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	addr, err := c.accounts.UpdateAddress(r.Context(), id.UserID, addressID, req.model())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, addr)
}

// DeleteAddress removes a saved shipping address.
func (c *AuthController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())
	addressID := chi.URLParam(r, "addressId")

	if err := c.accounts.DeleteAddress(r.Context(), id.UserID, addressID); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, "Address deleted", nil)
}

// Promote grants the admin role to another user. Admin only.
func (c *AuthController) Promote(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := c.accounts.PromoteToAdmin(r.Context(), userID); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, "User promoted to admin", nil)
}
