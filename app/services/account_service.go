package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/auth"
	"github.com/shashiranjanraj/pustak/pkg/cache"
)

const (
	roleCacheTTL    = time.Minute
	roleKeyPrefix   = "role:"
	minPasswordLen  = 6
	invalidCredsMsg = "Invalid credentials"
)

// AccountService owns registration, login, password reset, saved
// addresses and role management.
type AccountService struct {
	users UserStore
}

func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users}
}

// Register creates an account. The role is always "user": admins are
// minted via the CLI or promoted by an existing admin, never
// self-registered.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, apperr.New(apperr.KindValidation, "Username and email are required")
	}
	if len(password) < minPasswordLen {
		return nil, apperr.Newf(apperr.KindValidation, "Password must be at least %d characters", minPasswordLen)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the credentials and returns a signed token. A
// missing user and a wrong password produce the same message.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", nil, apperr.New(apperr.KindInvalidCredentials, invalidCredsMsg)
		}
		return "", nil, err
	}

	if !auth.CheckPassword(user.Password, password) {
		return "", nil, apperr.New(apperr.KindInvalidCredentials, invalidCredsMsg)
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	return token, user, nil
}

// Profile returns the caller's account.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, oid)
}

// ResetPassword replaces the password for the account with the given
// email. The account's existence is required; no further proof of
// ownership is asked for.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperr.Newf(apperr.KindValidation, "Password must be at least %d characters", minPasswordLen)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	return s.users.UpdatePassword(ctx, email, hash)
}

// ListAddresses returns the caller's saved addresses.
func (s *AccountService) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

// AddAddress saves a new address under a freshly minted id.
func (s *AccountService) AddAddress(ctx context.Context, userID string, addr models.Address) (*models.Address, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr.ID = uuid.NewString()
	user.Addresses = append(user.Addresses, addr)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return &addr, nil
}

// UpdateAddress replaces a saved address in place, keeping its id.
func (s *AccountService) UpdateAddress(ctx context.Context, userID, addressID string, addr models.Address) (*models.Address, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := user.AddressByID(addressID)
	if idx < 0 {
		return nil, apperr.New(apperr.KindNotFound, "Address not found")
	}

	addr.ID = addressID
	user.Addresses[idx] = addr

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return &addr, nil
}

// DeleteAddress removes a saved address.
func (s *AccountService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	idx := user.AddressByID(addressID)
	if idx < 0 {
		return apperr.New(apperr.KindNotFound, "Address not found")
	}

	user.Addresses = append(user.Addresses[:idx], user.Addresses[idx+1:]...)
	return s.users.Update(ctx, user)
}

// PromoteToAdmin grants the admin role to another account.
func (s *AccountService) PromoteToAdmin(ctx context.Context, targetUserID string) error {
	oid, err := parseID(targetUserID)
	if err != nil {
		return err
	}

	if err := s.users.SetRole(ctx, oid, models.RoleAdmin); err != nil {
		return err
	}

	cache.Del(roleKeyPrefix + targetUserID)
	return nil
}

// RoleOf resolves the user's current role, consulting a short-lived
// cache first. Token claims are never trusted for authorisation, so
// promotions and demotions bite within roleCacheTTL.
func (s *AccountService) RoleOf(ctx context.Context, userID string) (string, error) {
	var role string
	if cache.Get(roleKeyPrefix+userID, &role) && role != "" {
		return role, nil
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return "", err
	}

	cache.Set(roleKeyPrefix+userID, user.Role, roleCacheTTL)
	return user.Role, nil
}
