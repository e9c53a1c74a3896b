package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	code, err := GenerateVerificationCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)

	digitRegex := regexp.MustCompile(`^\d{6}$`)
	assert.True(t, digitRegex.MatchString(code), "code should be 6 digits")
	assert.True(t, code >= "100000" && code <= "999999")
}

func TestGenerateVerificationCode_RandError(t *testing.T) {
	old := randRead
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	defer func() { randRead = old }()

	_, err := GenerateVerificationCode()
	assert.Error(t, err)
}

func TestEmailVerification_IsValid(t *testing.T) {
	now := time.Now()

	// 有效：未使用且未过期
	e := &EmailVerification{Used: false, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, e.IsValid())
	assert.False(t, e.IsExpired())

	// 无效：已使用
	e2 := &EmailVerification{Used: true, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, e2.IsValid())

	// 无效：已过期
	e3 := &EmailVerification{Used: false, ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, e3.IsExpired())
	assert.False(t, e3.IsValid())
}
