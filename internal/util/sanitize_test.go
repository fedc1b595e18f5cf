package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", SanitizeInput("<b>bold</b>"))
	assert.Equal(t, "O&#39;Brien", SanitizeInput("O'Brien"))
	assert.Equal(t, "", SanitizeInput("   "))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@example.com"))
	assert.True(t, IsValidEmail(" user@example.com "))
	assert.True(t, IsValidEmail("first.last@sub.example.lk"))

	assert.False(t, IsValidEmail("user@example"))
	assert.False(t, IsValidEmail("user example.com"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail(""))
}

func TestContainsSuspicious(t *testing.T) {
	assert.True(t, ContainsSuspicious("<script>alert(1)</script>"))
	assert.True(t, ContainsSuspicious("onerror=steal()"))
	assert.True(t, ContainsSuspicious("${jndi:ldap://x}"))

	assert.False(t, ContainsSuspicious("a perfectly normal message"))
	assert.False(t, ContainsSuspicious("order #1234 arrived late"))
}
