package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// malformed claims. Callers refuse the connection before any state exists.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified result of the identity-provider handshake.
type Identity struct {
	UserID int
	Role   string
}

// Claims is the token shape issued by the identity provider.
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks identity-provider tokens against the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a raw token, returning the caller's identity.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// TokenFromRequest extracts the credential from the Authorization header or
// the token query parameter. The query form exists for websocket handshakes,
// where custom headers are not always available to browser clients.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}
