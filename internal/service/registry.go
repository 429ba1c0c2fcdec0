package service

import (
	"context"
	"strings"
	"sync"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/board"
	"kanbanTracker/internal/models/user"
	"kanbanTracker/internal/repository"

	"go.uber.org/zap"
)

const startingBoardID = 0

// Registry - корень бизнес-слоя: держит всех пользователей и все доски
// в памяти и раздаёт им идентификаторы. Хранилище используется как
// журнал (запись до мутации) и как источник данных при старте.
// Мьютекс реестра защищает только мапы и счётчик; внутри каждой доски
// свой мьютекс
type Registry struct {
	mtx         sync.RWMutex
	users       map[string]*user.User
	boards      map[int]*board.Board
	nextBoardID int

	usersRep   repository.UserRepository
	boardsRep  repository.BoardRepository
	columnsRep repository.ColumnRepository
	tasksRep   repository.TaskRepository

	passwordChecker user.PasswordChecker
}

func NewRegistry(users repository.UserRepository, boards repository.BoardRepository,
	columns repository.ColumnRepository, tasks repository.TaskRepository,
	checker user.PasswordChecker) *Registry {

	return &Registry{
		users:           make(map[string]*user.User),
		boards:          make(map[int]*board.Board),
		nextBoardID:     startingBoardID,
		usersRep:        users,
		boardsRep:       boards,
		columnsRep:      columns,
		tasksRep:        tasks,
		passwordChecker: checker,
	}
}

// LoadData поднимает пользователей и доски из хранилища. Сессии рестарт
// не переживают, все пользователи поднимаются разлогиненными
func (r *Registry) LoadData(ctx context.Context) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	userRecs, err := r.usersRep.LoadAll(ctx)
	if err != nil {
		logger.Error("Registry: Не удалось загрузить пользователей", err)
		return errs.NewPersistence("load_data", err)
	}
	for _, rec := range userRecs {
		r.users[rec.Email] = user.Rehydrate(rec.Email, rec.Password)
	}

	boardRecs, err := r.boardsRep.LoadAll(ctx)
	if err != nil {
		logger.Error("Registry: Не удалось загрузить доски", err)
		return errs.NewPersistence("load_data", err)
	}
	columnRecs, err := r.columnsRep.LoadAll(ctx)
	if err != nil {
		logger.Error("Registry: Не удалось загрузить колонки", err)
		return errs.NewPersistence("load_data", err)
	}
	taskRecs, err := r.tasksRep.LoadAll(ctx)
	if err != nil {
		logger.Error("Registry: Не удалось загрузить задачи", err)
		return errs.NewPersistence("load_data", err)
	}

	columnsByBoard := make(map[int][]*repository.ColumnRecord)
	for _, rec := range columnRecs {
		columnsByBoard[rec.BoardID] = append(columnsByBoard[rec.BoardID], rec)
	}
	tasksByBoard := make(map[int][]*repository.TaskRecord)
	for _, rec := range taskRecs {
		tasksByBoard[rec.BoardID] = append(tasksByBoard[rec.BoardID], rec)
	}

	for _, rec := range boardRecs {
		b := board.FromRecords(rec, columnsByBoard[rec.ID], tasksByBoard[rec.ID],
			r.boardsRep, r.columnsRep, r.tasksRep)
		r.boards[rec.ID] = b
		if rec.ID >= r.nextBoardID {
			r.nextBoardID = rec.ID + 1
		}
	}

	logger.Info("Registry: Данные загружены",
		zap.Int("users", len(r.users)),
		zap.Int("boards", len(r.boards)))
	return nil
}

// DeleteData стирает всё и в хранилище, и в памяти
func (r *Registry) DeleteData(ctx context.Context) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if err := r.tasksRep.DeleteAll(ctx); err != nil {
		return errs.NewPersistence("delete_data", err)
	}
	if err := r.columnsRep.DeleteAll(ctx); err != nil {
		return errs.NewPersistence("delete_data", err)
	}
	if err := r.boardsRep.DeleteAll(ctx); err != nil {
		return errs.NewPersistence("delete_data", err)
	}
	if err := r.usersRep.DeleteAll(ctx); err != nil {
		return errs.NewPersistence("delete_data", err)
	}

	r.users = make(map[string]*user.User)
	r.boards = make(map[int]*board.Board)
	r.nextBoardID = startingBoardID

	logger.Warn("Registry: Все данные удалены")
	return nil
}

// requireUser находит пользователя по email. Вызывается под мьютексом
// реестра
func (r *Registry) requireUser(email string) (*user.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errs.NewValidation("email", "email не может быть пустым")
	}
	u, ok := r.users[email]
	if !ok {
		return nil, errs.New(errs.CodeUserNotFound,
			"пользователь не зарегистрирован", errs.ToDetail("email", email))
	}
	return u, nil
}

// requireLoggedIn - как requireUser, но дополнительно требует активной
// сессии
func (r *Registry) requireLoggedIn(email string) (*user.User, error) {
	u, err := r.requireUser(email)
	if err != nil {
		return nil, err
	}
	if !u.LoggedIn() {
		return nil, errs.New(errs.CodeNotLoggedIn,
			"требуется вход в систему", errs.ToDetail("email", email))
	}
	return u, nil
}

// boardByID находит доску по id. Вызывается под мьютексом реестра
func (r *Registry) boardByID(boardID int) (*board.Board, error) {
	b, ok := r.boards[boardID]
	if !ok {
		return nil, errs.New(errs.CodeInvalidBoardID,
			"доски с таким id нет", errs.ToDetail("board_id", boardID))
	}
	return b, nil
}

// userBoardByName находит доску пользователя по имени среди досок, в
// которых он участвует. Вызывается под мьютексом реестра
func (r *Registry) userBoardByName(email, name string) (*board.Board, error) {
	for _, b := range r.boards {
		if b.Name() == name && b.IsUserEnrolled(email) {
			return b, nil
		}
	}
	return nil, errs.NewNotFound("доска", name)
}
