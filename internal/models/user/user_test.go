package user_test

import (
	"testing"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultPasswordChecker тестирует требования к паролю
func TestDefaultPasswordChecker(t *testing.T) {
	checker := user.DefaultPasswordChecker{}

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "success - minimal valid password", password: "Aa1111", valid: true},
		{name: "success - long valid password", password: "Abcdefg123456789", valid: true},
		{name: "error - too short", password: "Aa1", valid: false},
		{name: "error - too long", password: "Aa1Aa1Aa1Aa1Aa1Aa1Aa1", valid: false},
		{name: "error - no uppercase", password: "aa1111", valid: false},
		{name: "error - no lowercase", password: "AA1111", valid: false},
		{name: "error - no digit", password: "Aaaaaa", valid: false},
		{name: "error - empty", password: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, checker.Check(tt.password))
		})
	}
}

// TestUser_Login тестирует вход и повторный вход
func TestUser_Login(t *testing.T) {
	t.Run("success - registration logs the user in", func(t *testing.T) {
		u := user.New("a@x.com", "Aa1111")
		assert.True(t, u.LoggedIn())
	})

	t.Run("error - already logged in", func(t *testing.T) {
		u := user.New("a@x.com", "Aa1111")

		err := u.Login("Aa1111")
		require.Error(t, err)
		assert.Equal(t, errs.CodeAlreadyLoggedIn, errs.CodeOf(err))
	})

	t.Run("error - wrong password", func(t *testing.T) {
		u := user.Rehydrate("a@x.com", "Aa1111")

		err := u.Login("Bb2222")
		require.Error(t, err)
		assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
		assert.False(t, u.LoggedIn())
	})

	t.Run("success - login after rehydrate", func(t *testing.T) {
		u := user.Rehydrate("a@x.com", "Aa1111")
		assert.False(t, u.LoggedIn())

		require.NoError(t, u.Login("Aa1111"))
		assert.True(t, u.LoggedIn())
	})
}

// TestUser_Logout тестирует выход и повторный выход
func TestUser_Logout(t *testing.T) {
	u := user.New("a@x.com", "Aa1111")

	require.NoError(t, u.Logout())
	assert.False(t, u.LoggedIn())

	err := u.Logout()
	require.Error(t, err)
	assert.Equal(t, errs.CodeAlreadyLoggedOut, errs.CodeOf(err))
}
