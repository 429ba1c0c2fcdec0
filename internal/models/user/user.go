package user

import (
	"kanbanTracker/internal/errs"
)

// User - учётная запись в памяти. Email неизменяем, пароль хранится
// как есть (граница хеширования - открытый вопрос исходной системы)
type User struct {
	email    string
	password string
	loggedIn bool
}

// New создаёт пользователя при регистрации: он сразу залогинен
func New(email, password string) *User {
	return &User{
		email:    email,
		password: password,
		loggedIn: true,
	}
}

// Rehydrate восстанавливает пользователя из хранилища: сессии при
// рестарте не переживают, пользователь разлогинен
func Rehydrate(email, password string) *User {
	return &User{
		email:    email,
		password: password,
		loggedIn: false,
	}
}

func (u *User) Email() string  { return u.email }
func (u *User) LoggedIn() bool { return u.loggedIn }

func (u *User) Login(password string) error {
	if u.loggedIn {
		return errs.New(errs.CodeAlreadyLoggedIn,
			"пользователь уже залогинен", errs.ToDetail("email", u.email))
	}
	if password != u.password {
		return errs.NewValidation("password", "неверный пароль")
	}
	u.loggedIn = true
	return nil
}

func (u *User) Logout() error {
	if !u.loggedIn {
		return errs.New(errs.CodeAlreadyLoggedOut,
			"пользователь уже разлогинен", errs.ToDetail("email", u.email))
	}
	u.loggedIn = false
	return nil
}
