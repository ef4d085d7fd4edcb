package services

import (
	"errors"
	"fmt"
	"time"

	"taskapi/internal/config"

	"github.com/dgrijalva/jwt-go"
)

// AnonymousUsername is the identity reported when a request carries no authenticated user.
const AnonymousUsername = "UsuarioAnónimo"

// nameClaim holds the username in issued tokens.
const nameClaim = "name"

// Principal is the identity read out of a validated token.
type Principal struct {
	Username      string
	Authenticated bool
	ExpiresAt     time.Time
}

// TokenService issues bearer tokens and reads identities out of them.
type TokenService struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService from the JWT settings.
func NewTokenService(cfg config.JwtConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.SecretKey),
		expiration: time.Duration(cfg.ExpirationMinutes) * time.Minute,
		now:        time.Now,
	}
}

// IssueToken returns an HS256 token naming username that expires after the
// configured number of minutes. The caller must have authenticated the user.
func (s *TokenService) IssueToken(username string) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		nameClaim: username,
		"exp":     now.Add(s.expiration).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken checks the signature and expiration of tokenString. Issuer and
// audience are not checked.
func (s *TokenService) ValidateToken(tokenString string) (*Principal, error) {
	// Time claims are checked below against s.now rather than by the parser's wall clock.
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	now := s.now().Unix()
	// jwt-go accepts a token without exp; ours must always expire.
	if !claims.VerifyExpiresAt(now, true) {
		return nil, errors.New("invalid token: missing or past expiration")
	}
	if !claims.VerifyNotBefore(now, false) || !claims.VerifyIssuedAt(now, false) {
		return nil, errors.New("invalid token: used before issued")
	}

	principal := &Principal{Authenticated: true}
	if name, ok := claims[nameClaim].(string); ok {
		principal.Username = name
	}
	if exp, ok := claims["exp"].(float64); ok {
		principal.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return principal, nil
}

// CurrentUsername returns the username of an authenticated principal, or
// AnonymousUsername when there is none.
func (s *TokenService) CurrentUsername(principal *Principal) string {
	if principal == nil || !principal.Authenticated || principal.Username == "" {
		return AnonymousUsername
	}
	return principal.Username
}
