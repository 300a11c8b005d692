// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSignup struct {
	Name     string `validate:"required,min=1,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestValidateStructPasses(t *testing.T) {
	req := testSignup{Name: "Asha", Email: "asha@example.com", Password: "longenough"}
	assert.Nil(t, ValidateStruct(&req))
}

func TestValidateStructCollectsAllFields(t *testing.T) {
	req := testSignup{Email: "not-an-email", Password: "short"}

	verr := ValidateStruct(&req)
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Error(), "Name is required")
	assert.Contains(t, verr.Error(), "Email must be a valid email address")
	assert.Contains(t, verr.Error(), "Password must be at least 8 characters")
}

func TestErrorOmitsValues(t *testing.T) {
	req := testSignup{Name: "x", Email: "secret@internal.example", Password: ""}

	verr := ValidateStruct(&req)
	require.NotNil(t, verr)
	assert.NotContains(t, verr.Error(), "secret@internal.example")
}
