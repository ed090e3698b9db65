package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// RevocationStore remembers logged-out tokens until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	store  RevocationStore
	now    func() time.Time
	issuer string
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func WithIssuerName(name string) Option {
	return func(i *Issuer) { i.issuer = name }
}

func NewIssuer(secret string, store RevocationStore, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	i := &Issuer{secret: []byte(secret), store: store, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs an HS256 token for the principal that expires after ttl.
func (i *Issuer) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	acc := p.Account()
	now := i.now()
	c := claims{
		Email: acc.Email,
		Role:  p.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID.Hex(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Decode validates signature and expiry. It does not consult the revocation list.
func (i *Issuer) Decode(token string) (*domain.Claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, domain.ErrInvalidToken.Wrap(err)
	}
	if c.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	out := &domain.Claims{
		Subject: c.Subject,
		Email:   c.Email,
		Role:    c.Role,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Authenticate decodes token and rejects it if it has been revoked.
func (i *Issuer) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	c, err := i.Decode(token)
	if err != nil {
		return nil, err
	}
	revoked, err := i.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrRevokedToken
	}
	return c, nil
}

// Revoke records token so it is refused until its own expiry.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	c, err := i.Decode(token)
	if err != nil {
		return err
	}
	if err := i.store.Revoke(ctx, Fingerprint(token), c.ExpiresAt); err != nil {
		return domain.Dependency("Failed to revoke token", err)
	}
	return nil
}

func (i *Issuer) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := i.store.IsRevoked(ctx, Fingerprint(token))
	if err != nil {
		return false, domain.Dependency("Failed to check token revocation", err)
	}
	return revoked, nil
}

// Fingerprint is the stored form of a token: hex SHA-256 of the raw string.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
