package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	service := NewTokenService("test-secret", time.Hour)

	token, expiresAt, err := service.Issue("agent-desk")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-desk", claims.ClientID)
	assert.Equal(t, "swarmdesk", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, _, err := issuer.Issue("agent-desk")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	service := NewTokenService("test-secret", -time.Minute)

	token, _, err := service.Issue("agent-desk")
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	service := NewTokenService("test-secret", time.Hour)
	_, err := service.Validate("not-a-token")
	assert.Error(t, err)
}
