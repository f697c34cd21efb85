package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationCodeFormat(t *testing.T) {
	code := GenerateVerificationCode(6)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}

	assert.Len(t, GenerateVerificationCode(0), 6, "non-positive length falls back to 6")
}

func TestCodeSaveVerifyConsume(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	SaveCode("a@example.com", "123456", time.Minute)

	assert.False(t, VerifyAndConsumeCode("a@example.com", "999999"))
	assert.True(t, VerifyAndConsumeCode("a@example.com", "123456"))
	assert.False(t, VerifyAndConsumeCode("a@example.com", "123456"), "codes are single use")
}

func TestCodeExpiry(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	SaveCode("b@example.com", "123456", -time.Second)
	assert.False(t, VerifyAndConsumeCode("b@example.com", "123456"))
}

func TestEmailCooldown(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	assert.True(t, EmailCooldownTrySet("c@example.com", time.Minute))
	assert.False(t, EmailCooldownTrySet("c@example.com", time.Minute))

	assert.True(t, EmailCooldownTrySet("d@example.com", -time.Second))
	assert.True(t, EmailCooldownTrySet("d@example.com", time.Minute), "an expired cooldown clears")
}

func TestEmailCooldownClear(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	assert.True(t, EmailCooldownTrySet("clear@example.com", time.Minute))
	assert.False(t, EmailCooldownTrySet("clear@example.com", time.Minute))

	ClearEmailCooldown("clear@example.com")
	assert.True(t, EmailCooldownTrySet("clear@example.com", time.Minute), "cleared cooldown frees the address")
}
