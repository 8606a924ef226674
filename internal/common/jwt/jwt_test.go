// Package jwt JWT令牌管理单元测试
package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestManager() *Manager {
	return NewManager(&Config{
		Secret:           "test-secret-key-for-jwt-token-signing",
		AccessExpireTime: 15 * time.Minute,
		Issuer:           "test-issuer",
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	manager := setupTestManager()

	tests := []struct {
		name     string
		userID   int64
		userType string
	}{
		{"普通用户", 12345, UserTypeUser},
		{"管理员", 99999, UserTypeAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := manager.GenerateAccessToken(tt.userID, tt.userType)
			require.NoError(t, err)
			assert.Greater(t, expiresAt, time.Now().Unix())

			claims, err := manager.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.userType, claims.UserType)
			assert.Equal(t, "test-issuer", claims.Issuer)
		})
	}
}

func TestManager_ParseToken_Expired(t *testing.T) {
	manager := NewManager(&Config{Secret: "secret", AccessExpireTime: -time.Minute})

	token, _, err := manager.GenerateAccessToken(1, UserTypeUser)
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_ParseToken_Invalid(t *testing.T) {
	manager := setupTestManager()
	other := NewManager(&Config{Secret: "another-secret", AccessExpireTime: time.Minute})

	signedByOther, _, err := other.GenerateAccessToken(1, UserTypeUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"空令牌", "", ErrTokenMalformed},
		{"格式错误", "not.a.jwt", ErrTokenMalformed},
		{"签名不匹配", signedByOther, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ParseToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_ParseToken_NotActive(t *testing.T) {
	manager := setupTestManager()

	claims := &Claims{
		UserID:   1,
		UserType: UserTypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(manager.config.Secret))
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenNotActive)
}

func TestManager_ParseToken_MissingUserID(t *testing.T) {
	manager := setupTestManager()

	token, _, err := manager.GenerateAccessToken(0, UserTypeUser)
	require.NoError(t, err)

	_, err = manager.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
