package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/o1egl/paseto"
)

const (
	AccessTokenExpiry = 12 * time.Hour
	symmetricKeySize  = 32
)

var (
	ErrTokenExpired           = errors.New("token expired")
	ErrInsufficientPermission = errors.New("insufficient permissions")
)

// TokenClaims struct represents the data in the token.
type TokenClaims struct {
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	FacilityID string    `json:"facilityId"`
	Expiry     time.Time `json:"expiry"`
}

// TokenMaker issues and validates PASETO v2 local tokens with one symmetric key.
type TokenMaker struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenMaker requires a 32-byte key.
func NewTokenMaker(symmetricKey string, expiry time.Duration) (*TokenMaker, error) {
	if len(symmetricKey) != symmetricKeySize {
		return nil, fmt.Errorf("symmetric key must be %d bytes long, got %d", symmetricKeySize, len(symmetricKey))
	}
	if expiry <= 0 {
		expiry = AccessTokenExpiry
	}
	return &TokenMaker{key: []byte(symmetricKey), expiry: expiry, now: time.Now}, nil
}

// GenerateAccessToken generates an access token for a staff user.
func (m *TokenMaker) GenerateAccessToken(userID, role, facilityID string) (string, time.Time, error) {
	claims := TokenClaims{
		UserID:     userID,
		Role:       role,
		FacilityID: facilityID,
		Expiry:     m.now().Add(m.expiry),
	}
	token, err := paseto.NewV2().Encrypt(m.key, claims, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, claims.Expiry, nil
}

// ValidateToken decrypts the token and checks expiry and, when given,
// that the role is one of requiredRoles.
func (m *TokenMaker) ValidateToken(tokenString string, requiredRoles ...string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := paseto.NewV2().Decrypt(tokenString, m.key, &claims, nil); err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	if m.now().After(claims.Expiry) {
		return nil, ErrTokenExpired
	}

	if len(requiredRoles) == 0 {
		return &claims, nil
	}
	for _, role := range requiredRoles {
		if claims.Role == role {
			return &claims, nil
		}
	}
	return nil, ErrInsufficientPermission
}
