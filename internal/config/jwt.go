package config

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT signs player tokens, with an RSA key pair when one is configured and
// with a shared secret otherwise.
type JWT struct {
	signKey       any
	verifyKey     any
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

func loadPrivateKey() (*rsa.PrivateKey, error) {
	privateKeyStr, ok := os.LookupEnv("JWT_PRIVATE_KEY")
	if ok {
		return jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyStr))
	}
	privateKeyPath, ok := os.LookupEnv("JWT_PRIVATE_KEY_FILE")
	if !ok {
		return nil, fmt.Errorf("no JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE env variable set")
	}
	privateKeyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read JWT private key: %w", err)
	}
	return jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
}

func loadPublicKey() (*rsa.PublicKey, error) {
	publicKeyStr, ok := os.LookupEnv("JWT_PUBLIC_KEY")
	if ok {
		return jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyStr))
	}
	publicKeyPath, ok := os.LookupEnv("JWT_PUBLIC_KEY_FILE")
	if !ok {
		return nil, fmt.Errorf("no JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE env variable set")
	}
	publicKeyBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read JWT public key: %w", err)
	}
	return jwt.ParseRSAPublicKeyFromPEM(publicKeyBytes)
}

func hasRSAKeys() bool {
	for _, key := range []string{"JWT_PRIVATE_KEY", "JWT_PRIVATE_KEY_FILE"} {
		if _, ok := os.LookupEnv(key); ok {
			return true
		}
	}
	return false
}

func NewJWT() (*JWT, error) {
	lifetime, err := lookupDuration("JWT_LIFETIME", time.Hour*24*30)
	if err != nil {
		return nil, err
	}

	if hasRSAKeys() {
		privateKey, err := loadPrivateKey()
		if err != nil {
			return nil, err
		}
		publicKey, err := loadPublicKey()
		if err != nil {
			return nil, err
		}
		return &JWT{
			signKey:       privateKey,
			verifyKey:     publicKey,
			signingMethod: jwt.SigningMethodRS256,
			tokenLifetime: lifetime,
		}, nil
	}

	secret, ok := os.LookupEnv("JWT_SECRET")
	if !ok {
		if !Development() {
			return nil, fmt.Errorf("no JWT_PRIVATE_KEY, JWT_PRIVATE_KEY_FILE or JWT_SECRET env variable set")
		}
		// tokens do not survive a restart in development
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = string(buf)
	}
	return NewSecretJWT([]byte(secret), lifetime), nil
}

// NewSecretJWT returns an HS256 signer.
func NewSecretJWT(secret []byte, lifetime time.Duration) *JWT {
	return &JWT{
		signKey:       secret,
		verifyKey:     secret,
		signingMethod: jwt.SigningMethodHS256,
		tokenLifetime: lifetime,
	}
}

func (j *JWT) Lifetime() time.Duration {
	return j.tokenLifetime
}

func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.signKey)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.verifyKey, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
}

type PlayerClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue signs a token identifying username.
func (j *JWT) Issue(username string) (string, error) {
	now := time.Now()
	return j.Sign(&PlayerClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenLifetime)),
		},
	})
}

func (j *JWT) ParsePlayerClaims(tokenString string) (*PlayerClaims, error) {
	token, err := j.ParseWithClaims(tokenString, &PlayerClaims{})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok || claims.Username == "" {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}
