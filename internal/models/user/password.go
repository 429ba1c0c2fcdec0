package user

import "unicode"

// PasswordChecker проверяет пароль нового пользователя
type PasswordChecker interface {
	Check(password string) bool
}

const minPasswordLength = 6
const maxPasswordLength = 20

// DefaultPasswordChecker требует 6-20 символов, хотя бы одну строчную
// букву, одну заглавную и одну цифру
type DefaultPasswordChecker struct{}

func (DefaultPasswordChecker) Check(password string) bool {
	runes := []rune(password)
	if len(runes) < minPasswordLength || len(runes) > maxPasswordLength {
		return false
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	return hasLower && hasUpper && hasDigit
}
