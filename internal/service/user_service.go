package service

import (
	"context"
	"strings"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/user"
	"kanbanTracker/internal/repository"

	"go.uber.org/zap"
)

// Register создаёт пользователя и сразу логинит его.
// Пароль: 6-20 символов, строчная и заглавная буквы, цифра
func (r *Registry) Register(ctx context.Context, email, password string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if strings.TrimSpace(email) == "" {
		return errs.NewValidation("email", "email не может быть пустым")
	}
	if _, exists := r.users[email]; exists {
		logger.Warn("Service: Повторная регистрация отклонена", zap.String("email", email))
		return errs.NewValidation("email", "email уже зарегистрирован")
	}
	if !r.passwordChecker.Check(password) {
		return errs.NewValidation("password",
			"пароль должен быть 6-20 символов и содержать строчную букву, заглавную букву и цифру")
	}

	rec := &repository.UserRecord{Email: email, Password: password}
	if err := r.usersRep.Insert(ctx, rec); err != nil {
		logger.Error("Service: Не удалось записать пользователя", err, zap.String("email", email))
		return errs.NewPersistence("register", err)
	}

	r.users[email] = user.New(email, password)
	logger.Info("Service: Пользователь зарегистрирован", zap.String("email", email))
	return nil
}

func (r *Registry) Login(_ context.Context, email, password string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, err := r.requireUser(email)
	if err != nil {
		return err
	}
	if err := u.Login(password); err != nil {
		logger.Warn("Service: Неудачный вход", zap.String("email", email))
		return err
	}

	logger.Info("Service: Пользователь вошёл", zap.String("email", email))
	return nil
}

func (r *Registry) Logout(_ context.Context, email string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, err := r.requireUser(email)
	if err != nil {
		return err
	}
	if err := u.Logout(); err != nil {
		return err
	}

	logger.Info("Service: Пользователь вышел", zap.String("email", email))
	return nil
}

// LoggedIn сообщает, активна ли сессия пользователя
func (r *Registry) LoggedIn(email string) (bool, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	u, err := r.requireUser(email)
	if err != nil {
		return false, err
	}
	return u.LoggedIn(), nil
}
