package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "gramsuvidha")
	userID := uuid.New()

	tok, err := svc.Generate(userID, domain.RoleSarpanch, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	gotID, gotRole, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, domain.RoleSarpanch, gotRole)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-signing-key", "gramsuvidha")

	tok, err := svc.Generate(uuid.New(), domain.RoleCitizen, -time.Minute)
	require.NoError(t, err)

	_, _, err = svc.Validate(tok)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestValidateWrongKey(t *testing.T) {
	issuer := NewService("key-one", "gramsuvidha")
	verifier := NewService("key-two", "gramsuvidha")

	tok, err := issuer.Generate(uuid.New(), domain.RoleCitizen, time.Hour)
	require.NoError(t, err)

	_, _, err = verifier.Validate(tok)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "gramsuvidha")
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, _, err := svc.Validate(tok)
		require.Error(t, err, "token %q", tok)
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	}
}
