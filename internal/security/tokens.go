package security

import (
	"crypto"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds JWT claims for the session token issued after sign-up or sign-in.
type AccessClaims struct {
	jwt.RegisteredClaims
	ProjectID  string `json:"project_id"`
	PlatformID string `json:"platform_id,omitempty"`
}

// TokenProvider issues and validates session JWTs using RS256, ES256 or EdDSA.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	method     jwt.SigningMethod
	issuer     string
	audience   string
	accessTTL  time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and verifies with publicKey.
// The signing method is derived from the key type.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) (*TokenProvider, error) {
	method := signingMethod(KeyAlg(privateKey.Public()))
	if method == nil || KeyAlg(publicKey) != method.Alg() {
		return nil, ErrInvalidKey
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     method,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
	}, nil
}

// IssueAccess issues a session token for userID scoped to projectID and platformID.
// Returns the token and its expiration time.
func (p *TokenProvider) IssueAccess(userID, projectID, platformID string) (token string, expiresAt time.Time, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ProjectID:  projectID,
		PlatformID: platformID,
	}
	token, err = jwt.NewWithClaims(p.method, claims).SignedString(p.privateKey)
	return token, expiresAt, err
}

// ValidateAccess parses and validates a session token (signature, exp, iss, aud).
func (p *TokenProvider) ValidateAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !slices.Contains(claims.Audience, p.audience) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func signingMethod(alg string) jwt.SigningMethod {
	switch alg {
	case "RS256":
		return jwt.SigningMethodRS256
	case "ES256":
		return jwt.SigningMethodES256
	case "EdDSA":
		return jwt.SigningMethodEdDSA
	default:
		return nil
	}
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
