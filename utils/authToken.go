package utils

import (
	"log"
	"os"
	"time"

	"github.com/o1egl/paseto"
	"github.com/pkg/errors"
)

const (
	// Expiry windows for the two token kinds.
	AccessTokenExpiry  = 24 * time.Hour
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// TokenClaims is the payload carried inside a PASETO token.
type TokenClaims struct {
	UserID string    `json:"userId"`
	Role   string    `json:"role"`
	Expiry time.Time `json:"expiry"`
}

// GetSymmetricKey retrieves the symmetric key from the environment variable.
// PASETO v2 local mode requires exactly 32 bytes.
func GetSymmetricKey() []byte {
	key := os.Getenv("SYMMETRIC_KEY")
	if len(key) != 32 {
		log.Fatalf("SYMMETRIC_KEY must be 32 bytes long. Current length: %d", len(key))
	}
	return []byte(key)
}

// GenerateTokens issues a fresh access/refresh token pair for a user.
func GenerateTokens(userID, role string) (accessToken, refreshToken string, err error) {
	accessToken, err = encryptToken(userID, role, AccessTokenExpiry)
	if err != nil {
		return "", "", errors.Wrap(err, "generating access token")
	}

	refreshToken, err = encryptToken(userID, role, RefreshTokenExpiry)
	if err != nil {
		return "", "", errors.Wrap(err, "generating refresh token")
	}

	return accessToken, refreshToken, nil
}

// GenerateAccessToken issues only the short lived access token, used by the
// refresh endpoint.
func GenerateAccessToken(userID, role string) (string, error) {
	token, err := encryptToken(userID, role, AccessTokenExpiry)
	if err != nil {
		return "", errors.Wrap(err, "generating access token")
	}
	return token, nil
}

func encryptToken(userID, role string, expiry time.Duration) (string, error) {
	claims := TokenClaims{
		UserID: userID,
		Role:   role,
		Expiry: time.Now().Add(expiry),
	}

	token, err := paseto.NewV2().Encrypt(GetSymmetricKey(), claims, nil)
	if err != nil {
		return "", errors.Wrap(err, "encrypting token")
	}
	return token, nil
}

// ValidateToken decrypts a token, checks expiry, and optionally enforces
// that the caller holds one of the required roles.
func ValidateToken(tokenString string, requiredRoles ...string) (*TokenClaims, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		log.Printf("Token parsing failed: %v", err)
		return nil, errors.Wrap(err, "failed to parse token")
	}

	if time.Now().After(claims.Expiry) {
		return nil, errors.New("token expired")
	}

	// No role requirement means any valid token passes
	if len(requiredRoles) == 0 {
		return claims, nil
	}

	for _, role := range requiredRoles {
		if claims.Role == role {
			return claims, nil
		}
	}

	log.Printf("Insufficient permissions. Required roles: %v, found role: %v", requiredRoles, claims.Role)
	return nil, errors.New("insufficient permissions")
}

func parseToken(tokenString string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := paseto.NewV2().Decrypt(tokenString, GetSymmetricKey(), &claims, nil); err != nil {
		return nil, errors.Wrap(err, "failed to decrypt token")
	}
	return &claims, nil
}
