package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenService issues and validates the bearer tokens used by API clients.
// Auth is optional: when no secret is configured the service is not
// constructed and the API runs open.
type TokenService struct {
	secretKey []byte
	expiry    time.Duration
}

// Claims represents the JWT claims
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
}

// NewTokenService creates a new token service
func NewTokenService(secretKey string, expiry time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// Issue generates a signed token for an API client
func (s *TokenService) Issue(clientID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.expiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "swarmdesk",
		},
		ClientID: clientID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signedToken, expiresAt, nil
}

// Validate validates a token and returns the claims
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
