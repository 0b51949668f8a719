package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

// Issuer and audience of providers returned by NewTestTokenProvider.
const (
	TestIssuer   = "test-issuer"
	TestAudience = "test-audience"
)

// TestKeyPEM generates a key pair for alg (RS256, ES256 or EdDSA) and returns it PEM-encoded
// as PKCS#8 private and PKIX public keys, the formats ParsePrivateKey and ParsePublicKey accept.
// For tests only.
func TestKeyPEM(alg string) (privatePEM, publicPEM string, err error) {
	var (
		priv crypto.Signer
		pub  crypto.PublicKey
	)
	switch alg {
	case "RS256":
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return "", "", err
		}
		priv, pub = k, k.Public()
	case "ES256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return "", "", err
		}
		priv, pub = k, k.Public()
	case "EdDSA":
		p, k, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return "", "", err
		}
		priv, pub = k, p
	default:
		return "", "", fmt.Errorf("security: unsupported test algorithm %q", alg)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", "", err
	}
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privatePEM, publicPEM, nil
}

// NewTestTokenProviderFor returns a TokenProvider signing with a fresh alg key pair,
// loaded through the same PEM parsing as configured keys. For tests only.
func NewTestTokenProviderFor(alg string) (*TokenProvider, error) {
	privPEM, pubPEM, err := TestKeyPEM(alg)
	if err != nil {
		return nil, err
	}
	signer, err := ParsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(signer, pub, TestIssuer, TestAudience, 15*time.Minute)
}

// NewTestTokenProvider returns an ES256 TokenProvider, the algorithm of the ephemeral
// development key. For tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	return NewTestTokenProviderFor("ES256")
}
