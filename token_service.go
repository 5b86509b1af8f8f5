package access

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// CredentialClaims is the JWT payload of a session credential
type CredentialClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// TokenService mints and verifies the bearer credential carried by a
// session. The credential stays opaque to every other component.
type TokenService struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	logger          Logger
}

var _ CredentialMinter = (*TokenService)(nil)

// NewTokenService creates a TokenService. tokenExpiration is in hours.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if tokenExpiration <= 0 {
		tokenExpiration = 24
	}
	return &TokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		logger:          logger,
	}
}

// Mint signs a credential for the actor.
func (ts *TokenService) Mint(actor *Actor) (string, error) {
	if actor == nil {
		return "", errors.New("actor must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &CredentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
			ID:        uuid.NewString(),
		},
		UID:      actor.ID.String(),
		UserRole: actor.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign credential")
	}

	return signed, nil
}

// Verify parses and validates a credential, returning the identity it
// was minted for. Every failure maps to ErrStaleSession: an expired,
// forged, or malformed local credential must not grant access.
func (ts *TokenService) Verify(credential string) (uuid.UUID, Role, error) {
	claims, err := ts.VerifyClaims(credential)
	if err != nil {
		return uuid.Nil, "", err
	}

	id, err := uuid.Parse(claims.UID)
	if err != nil {
		return uuid.Nil, "", ErrStaleSession
	}

	role, ok := ParseRole(claims.UserRole)
	if !ok {
		return uuid.Nil, "", ErrStaleSession
	}

	return id, role, nil
}

// VerifyClaims parses and validates a credential and returns its full
// claim set, including the token ID used by the revocation list.
func (ts *TokenService) VerifyClaims(credential string) (*CredentialClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(credential, &CredentialClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("credential uses unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil || !token.Valid {
		return nil, ErrStaleSession
	}

	claims, ok := token.Claims.(*CredentialClaims)
	if !ok {
		return nil, ErrStaleSession
	}

	return claims, nil
}
