package managers

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"silverrock/internal/utils"
)

func newTestJWTManager(t *testing.T, accessTTL, refreshTTL time.Duration) *JWTManager {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return NewJWTManager(privateKey, publicKey, accessTTL, refreshTTL)
}

// TestGenerateTokenPair tests that both tokens carry the user and their own type and lifetime
func TestGenerateTokenPair(t *testing.T) {
	jm := newTestJWTManager(t, 30*time.Minute, 24*time.Hour)

	pair, err := jm.GenerateTokenPair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))

	userId, err := jm.ValidateJWT(pair.AccessToken, AccessTokenType)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userId)

	userId, err = jm.ValidateJWT(pair.RefreshToken, RefreshTokenType)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userId)

	_, err = jm.ValidateJWT(pair.RefreshToken, AccessTokenType)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = jm.ValidateJWT(pair.AccessToken, RefreshTokenType)
	assert.ErrorIs(t, err, ErrInvalidToken)

	second, err := jm.GenerateTokenPair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, second.AccessToken)
}

// TestValidateJWTRejectsInvalidTokens tests expired, foreign, malformed and wrongly signed tokens
func TestValidateJWTRejectsInvalidTokens(t *testing.T) {
	jm := newTestJWTManager(t, 30*time.Minute, 24*time.Hour)

	expired := newTestJWTManager(t, -time.Minute, time.Hour)
	expired.privateKey, expired.publicKey = jm.privateKey, jm.publicKey
	expiredPair, err := expired.GenerateTokenPair(42)
	require.NoError(t, err)

	foreign := newTestJWTManager(t, 30*time.Minute, 24*time.Hour)
	foreignPair, err := foreign.GenerateTokenPair(42)
	require.NoError(t, err)

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jm.generateClaims(42, AccessTokenType, time.Now(), time.Now().Add(time.Hour))).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jm.generateJWT(&Claims{
		Type: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	testCases := map[string]string{
		"expired":     expiredPair.AccessToken,
		"foreign key": foreignPair.AccessToken,
		"hmac signed": hmacToken,
		"malformed":   "not.a.token",
		"empty":       "",
		"no subject":  noSubject,
	}

	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := jm.ValidateJWT(token, AccessTokenType)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

// TestNewJWTManagerFromFile tests that the generated key pair is persisted and reused
func TestNewJWTManagerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.bin")

	first, err := NewJWTManagerFromFile(path, time.Minute, time.Hour)
	require.NoError(t, err)
	pair, err := first.GenerateTokenPair(7)
	require.NoError(t, err)

	second, err := NewJWTManagerFromFile(path, time.Minute, time.Hour)
	require.NoError(t, err)
	userId, err := second.ValidateJWT(pair.AccessToken, AccessTokenType)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userId)
}

// TestNewJWTManagerFromFileKeepsBrokenKeyPair tests that an unusable key file is reported instead of being overwritten
func TestNewJWTManagerFromFileKeepsBrokenKeyPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.bin")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0600))

	_, err := NewJWTManagerFromFile(path, time.Minute, time.Hour)
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("too short"), content)
}

// TestJWTMiddleware tests that only requests with a valid access token reach the handler
func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jm := newTestJWTManager(t, 30*time.Minute, 24*time.Hour)
	pair, err := jm.GenerateTokenPair(42)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", jm.JWTMiddleware(), func(c *gin.Context) {
		userId, err := utils.CurrentUserId(c)
		require.NoError(t, err)
		token, err := utils.RawToken(c)
		require.NoError(t, err)
		assert.Equal(t, pair.AccessToken, token)
		c.JSON(http.StatusOK, gin.H{"userId": userId})
	})

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{"Valid access token", "Bearer " + pair.AccessToken, http.StatusOK},
		{"Refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"Missing header", "", http.StatusUnauthorized},
		{"Missing scheme", pair.AccessToken, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"userId":42}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "ERR-014")
			}
		})
	}
}

// TestRawTokenMiddleware tests that expired tokens pass, missing ones do not
func TestRawTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jm := newTestJWTManager(t, -time.Minute, time.Hour)
	pair, err := jm.GenerateTokenPair(42)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/logout", jm.RawTokenMiddleware(), func(c *gin.Context) {
		token, err := utils.RawToken(c)
		require.NoError(t, err)
		assert.Equal(t, pair.AccessToken, token)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
