package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"taskapi/internal/apperror"
	"taskapi/internal/config"
	"taskapi/internal/models"
	"taskapi/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// DuplicateIdentityReason is the single reason given for a username or email collision,
// so the response never tells which of the two was taken.
const DuplicateIdentityReason = "Username or email is already taken."

// AuthService handles registration, login and account administration.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	identity config.IdentityConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, identity config.IdentityConfig) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		identity: identity,
	}
}

// RegisterUser creates an account with a bcrypt-hashed password. Every rule the
// request breaks is reported in one DomainError; nothing is stored in that case.
func (s *AuthService) RegisterUser(ctx context.Context, req models.RegisterRequest) error {
	reasons := s.validateUsername(req.Username)

	taken, err := s.identityTaken(ctx, req.Username, req.Email)
	if err != nil {
		return apperror.NewInternalError("failed to check existing users", err)
	}
	if taken {
		reasons = append(reasons, DuplicateIdentityReason)
	}
	reasons = append(reasons, s.validatePassword(req.Password)...)
	if len(reasons) > 0 {
		return apperror.NewDomainError(reasons, nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperror.NewDomainError([]string{"Passwords must be at most 72 bytes."}, err)
		}
		return apperror.NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperror.NewDomainError([]string{DuplicateIdentityReason}, err)
		}
		return apperror.NewInternalError("failed to register user", err)
	}
	log.Printf("Registered user %s (ID: %s)", user.Username, user.ID)
	return nil
}

func (s *AuthService) identityTaken(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	if !s.identity.RequireUniqueEmail {
		return false, nil
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	return false, nil
}

func (s *AuthService) validateUsername(username string) []string {
	allowed := s.identity.AllowedUserNameCharacters
	if allowed == "" {
		return nil
	}
	for _, r := range username {
		if !strings.ContainsRune(allowed, r) {
			return []string{fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", username)}
		}
	}
	return nil
}

func (s *AuthService) validatePassword(password string) []string {
	policy := s.identity.Password
	var reasons []string

	if utf8.RuneCountInString(password) < policy.RequiredLength {
		reasons = append(reasons, fmt.Sprintf("Passwords must be at least %d characters.", policy.RequiredLength))
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	distinct := make(map[rune]struct{})
	for _, r := range password {
		distinct[r] = struct{}{}
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			hasOther = true
		}
	}

	if policy.RequireNonAlphanumeric && !hasOther {
		reasons = append(reasons, "Passwords must have at least one non alphanumeric character.")
	}
	if policy.RequireDigit && !hasDigit {
		reasons = append(reasons, "Passwords must have at least one digit ('0'-'9').")
	}
	if policy.RequireLowercase && !hasLower {
		reasons = append(reasons, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if policy.RequireUppercase && !hasUpper {
		reasons = append(reasons, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	if policy.RequiredUniqueChars >= 1 && len(distinct) < policy.RequiredUniqueChars {
		reasons = append(reasons, fmt.Sprintf("Passwords must use at least %d different characters.", policy.RequiredUniqueChars))
	}
	return reasons
}

// LoginUser checks the credentials and returns a fresh token. An unknown username and
// a wrong password produce the same UnauthorizedError. Failed attempts are not
// counted and never lock the account.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.NewUnauthorizedError("invalid credentials", nil)
		}
		return "", apperror.NewInternalError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("invalid credentials", nil)
	}

	token, err := s.tokens.IssueToken(user.Username)
	if err != nil {
		return "", apperror.NewInternalError("failed to issue token", err)
	}
	return token, nil
}

// DeleteUser removes the account with the given ID.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NewNotFoundError(fmt.Sprintf("user %s not found", id))
		}
		return apperror.NewInternalError("failed to look up user", err)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NewNotFoundError(fmt.Sprintf("user %s not found", id))
		}
		return apperror.NewInternalError("failed to delete user", err)
	}
	log.Printf("Deleted user %s", id)
	return nil
}

// ListUsers returns every account projected to its public fields.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, apperror.NewInternalError("failed to list users", err)
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}
