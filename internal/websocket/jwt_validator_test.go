package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockOrganizationLookup is a test double for OrganizationLookup
type mockOrganizationLookup struct {
	organizationID int32
	err            error
}

func (m *mockOrganizationLookup) GetOrganizationByAuth0ID(auth0ID string) (organizationID int32, err error) {
	return m.organizationID, m.err
}

func TestOrganizationLookup_Interface(t *testing.T) {
	// Verify mockOrganizationLookup implements OrganizationLookup
	var _ OrganizationLookup = (*mockOrganizationLookup)(nil)
}

func TestAuth0JWTValidator_ErrorValues(t *testing.T) {
	// Full JWT validation needs a real Auth0 setup, but the error
	// contracts can be verified directly

	t.Run("ErrOrganizationNotFound is returned correctly", func(t *testing.T) {
		assert.Equal(t, "organization not found", ErrOrganizationNotFound.Error())
	})

	t.Run("ErrInvalidToken is returned correctly", func(t *testing.T) {
		assert.Equal(t, "invalid token", ErrInvalidToken.Error())
	})
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	err := claims.Validate(nil)
	assert.NoError(t, err, "CustomClaims.Validate should return nil")
}

func TestNewAuth0JWTValidator_InvalidDomain(t *testing.T) {
	lookup := &mockOrganizationLookup{organizationID: 1}

	// Test with empty domain - should still work (URL parsing is lenient)
	validator, err := NewAuth0JWTValidator("", "audience", lookup)
	// Empty domain creates https:/// which is technically valid URL
	assert.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	lookup := &mockOrganizationLookup{organizationID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.recorra.app", lookup)
	assert.NoError(t, err)
	assert.NotNil(t, validator)
	assert.NotNil(t, validator.validator)
	assert.Equal(t, lookup, validator.orgLookup)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	lookup := &mockOrganizationLookup{organizationID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.recorra.app", lookup)
	assert.NoError(t, err)

	// Test with invalid token - should return ErrInvalidToken
	organizationID, err := validator.ValidateToken("invalid-token")
	assert.Error(t, err)
	assert.Equal(t, int32(0), organizationID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
