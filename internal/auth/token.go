package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer issues and verifies the backend's tokens. The secret, signing
// method and TTLs are fixed at construction and never mutated, so a single
// Signer is safe for concurrent use.
type Signer struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSigner builds a Signer for a named HMAC algorithm (HS256, HS384 or
// HS512). Asymmetric methods are refused: the whole deployment shares one
// symmetric secret.
func NewSigner(secret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("auth: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: algorithm %q is not an HMAC method", algorithm)
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Signer{
		secret:     secret,
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// TTL returns the lifetime used for a token class.
func (s *Signer) TTL(class TokenClass) time.Duration {
	if class == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Issue signs a token for the given identity. The expiration is computed
// from the class TTL; callers never set it directly.
func (s *Signer) Issue(email, username string, roles []Role, class TokenClass) (string, time.Time, error) {
	exp := time.Now().Add(s.TTL(class))

	claims := jwt.MapClaims{
		"email":      email,
		"username":   username,
		"roles":      RoleNames(roles),
		"exp":        exp.Unix(),
		"is_refresh": class == RefreshToken,
		"jti":        uuid.NewString(),
	}

	tok, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	return tok, exp, err
}

// Decode verifies signature and expiry and returns the raw payload. No
// claim is handed back unless both checks passed. Unknown payload fields
// survive in the returned map so the wire format can grow without breaking
// old decoders.
func (s *Signer) Decode(tokenStr string) (jwt.MapClaims, error) {
	keyFunc := func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	}

	tok, err := jwt.Parse(tokenStr, keyFunc, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrInvalidSignature):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// ClaimsFromMap converts a decoded payload into typed Claims. Values of an
// unexpected type degrade to zero values instead of failing: by the time
// this runs the signature already verified, so the payload is ours.
func ClaimsFromMap(m jwt.MapClaims) *Claims {
	getString := func(k string) string {
		if v, ok := m[k].(string); ok {
			return v
		}
		return ""
	}

	var roles []Role
	if arr, ok := m["roles"].([]any); ok {
		for _, a := range arr {
			s, ok := a.(string)
			if !ok {
				continue
			}
			if r, err := ParseRole(s); err == nil {
				roles = append(roles, r)
			}
		}
	}

	var exp int64
	switch v := m["exp"].(type) {
	case float64:
		exp = int64(v)
	case int64:
		exp = v
	case jwt.NumericDate:
		exp = v.Unix()
	}

	refresh, _ := m["is_refresh"].(bool)

	return &Claims{
		Email:     getString("email"),
		Username:  getString("username"),
		Roles:     roles,
		ExpiresAt: exp,
		Refresh:   refresh,
		TokenID:   getString("jti"),
	}
}
