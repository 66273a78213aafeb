package signer

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"swiftpolicy/internal/document/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

const issuer = "swiftpolicy"

// Claims is what a certificate token attests to. The JWT validity window is
// the cover period, so an expired certificate fails verification.
type Claims struct {
	PolicyID domain.PolicyID `json:"policy_id"`
	VRM      domain.VRM      `json:"vrm"`
	Cover    string          `json:"cover"`
	jwt.RegisteredClaims
}

func (c *Claims) DocumentID() domain.DocumentID { return domain.DocumentID(c.ID) }

// Signer produces and checks HS256 certificate tokens.
type Signer struct {
	signingKey []byte
	now        func() time.Time
}

type Option func(*Signer)

// WithClock sets the time used when verifying validity windows.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

func New(signingKey string, opts ...Option) (*Signer, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("certificate signing key must be at least 32 bytes")
	}
	s := &Signer{signingKey: []byte(signingKey), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Signer) Sign(c models.Certificate) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PolicyID: c.PolicyID,
		VRM:      c.VRM,
		Cover:    string(c.Cover),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.DocumentID.String(),
			Issuer:    issuer,
			Subject:   c.OwnerID.String(),
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			NotBefore: jwt.NewNumericDate(c.ValidFrom),
			ExpiresAt: jwt.NewNumericDate(c.ValidTo),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign certificate")
	}
	return signed, nil
}

// Verify checks a certificate token and returns its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, dErrors.New(dErrors.CodeValidation, "certificate has expired")
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, dErrors.New(dErrors.CodeValidation, "certificate is not yet in force")
		}
		return nil, dErrors.New(dErrors.CodeValidation, "invalid certificate token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid certificate token")
	}
	return claims, nil
}
