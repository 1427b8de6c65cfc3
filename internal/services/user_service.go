package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
	"vending-api/internal/store"
)

const (
	msgRequired       = "This field is required."
	msgUsernameTaken  = "A user with that username already exists."
	minPasswordLength = 6
	maxPasswordLength = 50
	maxUsernameLength = 255
)

type UserService struct {
	repo   store.Repository
	auth   *AuthService
	logger zerolog.Logger
}

func NewUserService(repo store.Repository, auth *AuthService, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		auth:   auth,
		logger: logger,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	fields := map[string]string{}
	username := strings.TrimSpace(req.Username)
	if msg := validateUsername(username); msg != "" {
		fields["username"] = msg
	}
	if msg := validatePassword(req.Password); msg != "" {
		fields["password"] = msg
	}
	role := models.RoleBuyer
	if req.Role != "" {
		role = models.Role(req.Role)
		if !role.Valid() {
			fields["role"] = invalidChoice(req.Role)
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	if _, err := s.repo.GetAccountByUsername(ctx, username); err == nil {
		return nil, apperrors.Field("username", msgUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error().Err(err).Msg("Error checking existing user")
		return nil, fmt.Errorf("database error: %w", err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.CreateAccount(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Field("username", msgUsernameTaken)
		}
		s.logger.Error().Err(err).Msg("Error creating user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("User registered successfully")
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = msgRequired
	}
	if req.Password == "" {
		fields["password"] = msgRequired
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	user, err := s.repo.GetAccountByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Invalid username or password")
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error querying user")
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn().Str("username", req.Username).Msg("Failed authentication attempt")
		return nil, apperrors.Unauthenticated("Invalid username or password")
	}

	s.logger.Info().Int("user_id", user.ID).Msg("User authenticated successfully")
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.repo.GetAccountByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("User")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching user")
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListAccounts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing users")
		return nil, fmt.Errorf("database error: %w", err)
	}
	return users, nil
}

// ResolveActor loads the current state of the account a token was issued for.
func (s *UserService) ResolveActor(ctx context.Context, userID int) (*models.Actor, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Actor(), nil
}

// UpdateUser replaces username, password, role and deposit of an account.
// Only the account itself or an admin may do this, and only admins may
// change the deposit directly. The account is re-read inside the
// transaction so a concurrent deposit or purchase is kept.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.Actor, userID int, req *models.UpdateUserRequest) (*models.User, error) {
	if err := Authorize(actor, ActionUpdateAccount, Resource{AccountID: userID}).Err(); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	username := strings.TrimSpace(req.Username)
	if msg := validateUsername(username); msg != "" {
		fields["username"] = msg
	}
	if msg := validatePassword(req.Password); msg != "" {
		fields["password"] = msg
	}
	if req.Role != nil && !models.Role(*req.Role).Valid() {
		fields["role"] = invalidChoice(*req.Role)
	}
	if req.Deposit != nil && *req.Deposit != 0 && !IsValidDenomination(*req.Deposit) {
		fields["deposit"] = invalidChoice(fmt.Sprint(*req.Deposit))
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.repo.InTx(ctx, func(tx store.Repository) error {
		var err error
		user, err = tx.GetAccountByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		if err != nil {
			return err
		}

		if req.Deposit != nil && *req.Deposit != user.Deposit {
			if !actor.IsAdmin {
				return apperrors.Forbidden("Only admins can set the deposit directly")
			}
			user.Deposit = *req.Deposit
		}
		if req.Role != nil {
			user.Role = models.Role(*req.Role)
		}
		user.Username = username
		user.PasswordHash = hash

		if err := tx.UpdateAccount(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperrors.Field("username", msgUsernameTaken)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error updating user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info().Int("user_id", userID).Int("actor_id", actor.ID).Msg("User updated")
	return user, nil
}

// DeleteUser removes an account together with the products it sells.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.Actor, userID int) error {
	if err := Authorize(actor, ActionDeleteAccount, Resource{AccountID: userID}).Err(); err != nil {
		return err
	}

	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error deleting user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().Int("user_id", userID).Int("actor_id", actor.ID).Msg("User deleted")
	return nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes it when an
// account with that username already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if msg := validatePassword(password); msg != "" {
		return nil, apperrors.Field("password", msg)
	}

	user, err := s.repo.GetAccountByUsername(ctx, username)
	if err == nil {
		if user.IsAdmin {
			return user, nil
		}
		user.IsAdmin = true
		if err := s.repo.UpdateAccount(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		s.logger.Info().Int("user_id", user.ID).Msg("Existing user promoted to admin")
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user = &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleBuyer,
		IsAdmin:      true,
	}
	if err := s.repo.CreateAccount(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Str("username", username).Msg("Admin account created")
	return user, nil
}

func validateUsername(username string) string {
	switch {
	case username == "":
		return msgRequired
	case len(username) > maxUsernameLength:
		return fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength)
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return msgRequired
	case len(password) < minPasswordLength:
		return fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Sprintf("Ensure this field has no more than %d characters.", maxPasswordLength)
	}
	return ""
}

func invalidChoice(value string) string {
	return fmt.Sprintf("\"%s\" is not a valid choice.", value)
}
