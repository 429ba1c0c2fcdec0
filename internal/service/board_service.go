package service

import (
	"context"
	"sort"
	"strings"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/board"

	"go.uber.org/zap"
)

// AddBoard создаёт доску и делает пользователя её владельцем и первым
// участником. Имя должно быть уникально среди всех досок пользователя,
// включая чужие, к которым он присоединился
func (r *Registry) AddBoard(ctx context.Context, email, name string) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return 0, err
	}
	if strings.TrimSpace(name) == "" {
		return 0, errs.NewValidation("name", "имя доски не может быть пустым")
	}
	if err := r.checkDuplicateName(email, name); err != nil {
		return 0, err
	}

	b, err := board.New(ctx, r.nextBoardID, name, email, r.boardsRep, r.columnsRep, r.tasksRep)
	if err != nil {
		return 0, err
	}

	r.boards[b.ID()] = b
	r.nextBoardID++
	return b.ID(), nil
}

// checkDuplicateName - проверка уникальности имени среди досок
// пользователя. Вызывается под мьютексом реестра
func (r *Registry) checkDuplicateName(email, name string) error {
	for _, b := range r.boards {
		if b.Name() == name && b.IsUserEnrolled(email) {
			return errs.New(errs.CodeDuplicateBoardName,
				"у пользователя уже есть доска с таким именем",
				errs.ToDetail("name", name))
		}
	}
	return nil
}

// DeleteBoard удаляет доску владельца вместе с её задачами и колонками
func (r *Registry) DeleteBoard(ctx context.Context, email, name string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, name)
	if err != nil {
		return err
	}
	if b.OwnerEmail() != email {
		return errs.New(errs.CodeNotOwner,
			"удалить доску может только её владелец", errs.ToDetail("email", email))
	}

	if err := r.tasksRep.DeleteBoardTasks(ctx, b.ID()); err != nil {
		logger.Error("Service: Не удалось удалить задачи доски", err, zap.Int("board_id", b.ID()))
		return errs.NewPersistence("delete_board", err)
	}
	if err := r.columnsRep.DeleteBoardColumns(ctx, b.ID()); err != nil {
		logger.Error("Service: Не удалось удалить колонки доски", err, zap.Int("board_id", b.ID()))
		return errs.NewPersistence("delete_board", err)
	}
	if err := r.boardsRep.Delete(ctx, b.ID()); err != nil {
		logger.Error("Service: Не удалось удалить доску", err, zap.Int("board_id", b.ID()))
		return errs.NewPersistence("delete_board", err)
	}

	delete(r.boards, b.ID())
	logger.Info("Service: Доска удалена",
		zap.Int("board_id", b.ID()),
		zap.String("name", name))
	return nil
}

// GetAllUserBoards возвращает id всех досок, в которых пользователь
// участвует, по возрастанию
func (r *Registry) GetAllUserBoards(email string) ([]int, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return nil, err
	}

	ids := []int{}
	for id, b := range r.boards {
		if b.IsUserEnrolled(email) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// GetBoard возвращает доску пользователя по имени
func (r *Registry) GetBoard(email, name string) (*board.Board, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return nil, err
	}
	return r.userBoardByName(email, name)
}

// GetBoardName отдаёт имя доски по id. Достаточно существования
// пользователя, вход не требуется
func (r *Registry) GetBoardName(email string, boardID int) (string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireUser(email); err != nil {
		return "", err
	}
	b, err := r.boardByID(boardID)
	if err != nil {
		return "", err
	}
	return b.Name(), nil
}

func (r *Registry) GetColumnLimit(email, name string, ordinal int) (int, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return 0, err
	}
	b, err := r.userBoardByName(email, name)
	if err != nil {
		return 0, err
	}
	return b.GetColumnLimit(ordinal)
}

func (r *Registry) GetColumnName(email, name string, ordinal int) (string, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return "", err
	}
	b, err := r.userBoardByName(email, name)
	if err != nil {
		return "", err
	}
	return b.GetColumnName(ordinal)
}

func (r *Registry) LimitColumn(ctx context.Context, email, name string, ordinal, limit int) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, name)
	if err != nil {
		return err
	}
	return b.LimitColumn(ctx, ordinal, limit)
}

// JoinBoard присоединяет пользователя к чужой доске по id. Имя доски
// не должно совпадать с именами досок, в которых он уже участвует
func (r *Registry) JoinBoard(ctx context.Context, email string, boardID int) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.boardByID(boardID)
	if err != nil {
		return err
	}
	// повторное вступление проверяем до имени: иначе сама целевая
	// доска совпадает по имени и ошибка выходит неверная
	if b.IsUserEnrolled(email) {
		return errs.New(errs.CodeAlreadyMember,
			"пользователь уже участник доски", errs.ToDetail("email", email))
	}
	if err := r.checkDuplicateName(email, b.Name()); err != nil {
		return err
	}
	return b.JoinBoard(ctx, email)
}

func (r *Registry) LeaveBoard(ctx context.Context, email string, boardID int) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.boardByID(boardID)
	if err != nil {
		return err
	}
	return b.LeaveBoard(ctx, email)
}

// TransferBoardOwnership передаёт доску другому участнику. Новому
// владельцу достаточно существовать, вход не требуется
func (r *Registry) TransferBoardOwnership(ctx context.Context, currentOwnerEmail, newOwnerEmail, name string) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(currentOwnerEmail); err != nil {
		return err
	}
	if _, err := r.requireUser(newOwnerEmail); err != nil {
		return err
	}
	b, err := r.userBoardByName(currentOwnerEmail, name)
	if err != nil {
		return err
	}
	return b.TransferOwnership(ctx, currentOwnerEmail, newOwnerEmail)
}
