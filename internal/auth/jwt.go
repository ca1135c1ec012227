// Package auth provides JWT issuance/verification and password hashing.
package auth

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/olatoyosi/prolink/internal/normalize"
)

// JWTManager signs and validates the JWT tokens used by the API. It holds one
// or more HMAC keys identified by kid so keys can be rotated without
// invalidating previously-issued tokens.
type JWTManager struct {
	keys      map[string]string // kid -> secret
	activeKid string            // kid used for newly-issued tokens
	duration  time.Duration
}

// Claims is the custom JWT payload (user id + email).
type Claims struct {
	UserID               string `json:"user_id"` // ObjectID hex string
	Email                string `json:"email"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, etc.
}

// NewJWTManager returns a manager backed by a single secret.
func NewJWTManager(secretKey string, duration time.Duration) *JWTManager {
	return &JWTManager{
		keys:      map[string]string{"": secretKey},
		activeKid: "",
		duration:  duration,
	}
}

// NewJWTManagerFromKeys returns a manager holding multiple keys. New tokens
// are signed with activeKid; tokens signed with any known kid still verify.
// When activeKid is empty the lexicographically-first kid is used.
func NewJWTManagerFromKeys(keys map[string]string, activeKid string, duration time.Duration) *JWTManager {
	if activeKid == "" {
		kids := make([]string, 0, len(keys))
		for k := range keys {
			kids = append(kids, k)
		}
		sort.Strings(kids)
		if len(kids) > 0 {
			activeKid = kids[0]
		}
	}
	return &JWTManager{keys: keys, activeKid: activeKid, duration: duration}
}

// GenerateToken issues a signed JWT token for a user.
func (m *JWTManager) GenerateToken(userID bson.ObjectID, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.duration)

	claims := &Claims{
		UserID: userID.Hex(),
		Email:  normalize.Email(email),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if m.activeKid != "" {
		token.Header["kid"] = m.activeKid
	}

	secret, ok := m.keys[m.activeKid]
	if !ok {
		return "", time.Time{}, fmt.Errorf("no signing key for kid %q", m.activeKid)
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyToken parses and validates a token and returns its claims.
func (m *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Reject anything not signed with HMAC before touching keys.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Select the key by kid; tokens without a kid fall back to the
		// active key (single-secret deployments).
		kid, _ := token.Header["kid"].(string)
		secret, ok := m.keys[kid]
		if !ok {
			secret, ok = m.keys[m.activeKid]
		}
		if !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// HashPassword returns a bcrypt hash for the provided plaintext.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) error {
	// Timing-safe comparison; nil means match.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
