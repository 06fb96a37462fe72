package managers

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"
)

const issuer = "silverrock.app"

// TokenType distinguishes access from refresh tokens, it is carried in the typ claim.
type TokenType string

const (
	AccessTokenType  TokenType = "access"
	RefreshTokenType TokenType = "refresh"
)

// Claims are the claims of every token issued by the JWTManager.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly signed access and refresh token for one user.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type JWTMgr interface {
	GenerateTokenPair(userId int64) (*TokenPair, error)
	ValidateJWT(tokenString string, expected TokenType) (int64, error)
	JWTMiddleware() gin.HandlerFunc
	RawTokenMiddleware() gin.HandlerFunc
}

// JWTManager handles JWT generation, signing, and validation.
type JWTManager struct {
	privateKey      ed25519.PrivateKey
	publicKey       ed25519.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewJWTManager creates a new JWTManager signing with the given key pair.
func NewJWTManager(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, accessTokenTTL, refreshTokenTTL time.Duration) *JWTManager {
	return &JWTManager{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// NewJWTManagerFromFile loads the key pair stored at path. On the first start there is
// no key pair yet, so a new one is generated and persisted there. Any other load error is returned.
func NewJWTManagerFromFile(path string, accessTokenTTL, refreshTokenTTL time.Duration) (JWTMgr, error) {
	log.Info("Initializing JWT manager")

	privateKey, publicKey, err := loadKeyPair(path)
	if err != nil {
		// A broken or unreadable key file must not be replaced, it would invalidate every issued token
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load key pair from %s: %w", path, err)
		}
		log.Info("No key pair found, generating a new one")

		privateKey, publicKey, err = generateKeyPair(path)
		if err != nil {
			return nil, err
		}
	}

	log.Info("Initialized JWT manager")
	return NewJWTManager(privateKey, publicKey, accessTokenTTL, refreshTokenTTL), nil
}

// GenerateTokenPair signs a new access and refresh token for the user.
func (jm *JWTManager) GenerateTokenPair(userId int64) (*TokenPair, error) {
	now := time.Now()
	accessExpiresAt := now.Add(jm.accessTokenTTL)
	refreshExpiresAt := now.Add(jm.refreshTokenTTL)

	accessToken, err := jm.generateJWT(jm.generateClaims(userId, AccessTokenType, now, accessExpiresAt))
	if err != nil {
		return nil, err
	}

	refreshToken, err := jm.generateJWT(jm.generateClaims(userId, RefreshTokenType, now, refreshExpiresAt))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// generateClaims builds the claims of one token. The jti keeps two tokens
// issued in the same second distinguishable.
func (jm *JWTManager) generateClaims(userId int64, tokenType TokenType, issuedAt, expiresAt time.Time) *Claims {
	return &Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userId, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
}

func (jm *JWTManager) generateJWT(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(jm.privateKey)
}

// ValidateJWT verifies signature, algorithm, issuer, expiration and type of the token
// and returns the user id it was issued for. Every failure is reported as ErrInvalidToken.
func (jm *JWTManager) ValidateJWT(tokenString string, expected TokenType) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jm.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	if claims.Type != expected {
		return 0, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, expected, claims.Type)
	}

	userId, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userId <= 0 {
		return 0, fmt.Errorf("%w: malformed subject %q", ErrInvalidToken, claims.Subject)
	}

	return userId, nil
}

// JWTMiddleware only lets requests with a valid access token pass. The caller's id and
// the raw token are stored in the gin context, see utils.CurrentUserId and utils.RawToken.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		userId, err := jm.ValidateJWT(token, AccessTokenType)
		if err != nil {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		c.Set(utils.UserIdKey.String(), userId)
		c.Set(utils.RawTokenKey.String(), token)
		c.Next()
	}
}

// RawTokenMiddleware only requires a bearer token to be present, without verifying it.
// Logout relies on it since it has to work with expired access tokens as well.
func (jm *JWTManager) RawTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		c.Set(utils.RawTokenKey.String(), token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", errors.New("malformed authorization header")
	}

	return token, nil
}

// generateKeyPair generates a new key pair and saves it to a file.
func generateKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	// Save the new key pair to a file for persistence
	err = saveKeyPair(privateKey, publicKey, path)
	if err != nil {
		return nil, nil, err
	}

	return privateKey, publicKey, nil
}

// saveKeyPair saves the key pair to the specified file.
func saveKeyPair(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, path string) error {
	keyPairBytes := make([]byte, 0, len(privateKey)+len(publicKey))
	keyPairBytes = append(keyPairBytes, privateKey...)
	keyPairBytes = append(keyPairBytes, publicKey...)
	return os.WriteFile(path, keyPairBytes, 0600)
}

// loadKeyPair loads the key pair from the specified file.
func loadKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	keyPairBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	// The key pair is the concatenation of private and public keys
	if len(keyPairBytes) != ed25519.PrivateKeySize+ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("invalid key pair format")
	}

	privateKey := ed25519.PrivateKey(keyPairBytes[:ed25519.PrivateKeySize])
	publicKey := ed25519.PublicKey(keyPairBytes[ed25519.PrivateKeySize:])

	return privateKey, publicKey, nil
}
