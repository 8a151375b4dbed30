package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tutora/backend/internal/domain"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenManager signs and verifies HS256 session tokens. The token id (jti)
// is the session id tracked in the session store.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth: jwt secret must be at least 32 bytes")
	}
	if issuer == "" {
		issuer = "tutora"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer}, nil
}

func (m *TokenManager) Issue(sess domain.Session) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    m.issuer,
			Subject:   sess.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Email: sess.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry at now and returns the session
// the token describes. It does not consult the session store.
func (m *TokenManager) Parse(token string, now time.Time) (domain.Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Session{}, ErrSessionExpired
		}
		return domain.Session{}, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return domain.Session{}, ErrUnauthenticated
	}

	sess := domain.Session{
		ID:     claims.ID,
		UserID: userID,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	sess.ExpiresAt = claims.ExpiresAt.Time
	return sess, nil
}
