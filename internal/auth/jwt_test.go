// internal/auth/jwt_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise-app/bookwise-server/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager("secret")
	user := &models.User{ID: 9, Email: "a@b.c", Role: models.RoleAdmin}

	token, err := tm.Issue(user)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one").Issue(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-two").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret").Verify("not.a.token")
	assert.Error(t, err)
}
