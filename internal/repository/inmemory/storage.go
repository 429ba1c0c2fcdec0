package inmemory

import (
	"context"
	"sync"

	"kanbanTracker/internal/repository"
)

type taskKey struct {
	boardID int
	taskID  int
}

type columnKey struct {
	boardID int
	ordinal int
}

// Storage - общая память всех репозиториев для разработки и тестов:
// обычные мапы под одним RWMutex
type Storage struct {
	mtx     sync.RWMutex
	users   map[string]*repository.UserRecord
	boards  map[int]*repository.BoardRecord
	columns map[columnKey]*repository.ColumnRecord
	tasks   map[taskKey]*repository.TaskRecord
}

func NewStorage() *Storage {
	return &Storage{
		users:   make(map[string]*repository.UserRecord),
		boards:  make(map[int]*repository.BoardRecord),
		columns: make(map[columnKey]*repository.ColumnRecord),
		tasks:   make(map[taskKey]*repository.TaskRecord),
	}
}

// Users, Boards, Columns и Tasks отдают репозитории поверх общего
// хранилища

func (s *Storage) Users() *UserRepo     { return &UserRepo{storage: s} }
func (s *Storage) Boards() *BoardRepo   { return &BoardRepo{storage: s} }
func (s *Storage) Columns() *ColumnRepo { return &ColumnRepo{storage: s} }
func (s *Storage) Tasks() *TaskRepo     { return &TaskRepo{storage: s} }

// ----- пользователи -----

type UserRepo struct {
	storage *Storage
}

func (r *UserRepo) Insert(_ context.Context, rec *repository.UserRecord) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	clone := *rec
	r.storage.users[rec.Email] = &clone
	return nil
}

func (r *UserRepo) LoadAll(_ context.Context) ([]*repository.UserRecord, error) {
	r.storage.mtx.RLock()
	defer r.storage.mtx.RUnlock()

	records := make([]*repository.UserRecord, 0, len(r.storage.users))
	for _, rec := range r.storage.users {
		clone := *rec
		records = append(records, &clone)
	}
	return records, nil
}

func (r *UserRepo) DeleteAll(_ context.Context) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	r.storage.users = make(map[string]*repository.UserRecord)
	return nil
}

// ----- доски -----

type BoardRepo struct {
	storage *Storage
}

func (r *BoardRepo) Insert(_ context.Context, rec *repository.BoardRecord) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	clone := *rec
	clone.Members = append([]string{}, rec.Members...)
	r.storage.boards[rec.ID] = &clone
	return nil
}

func (r *BoardRepo) AddMember(_ context.Context, boardID int, email string) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	rec, ok := r.storage.boards[boardID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Members = append(rec.Members, email)
	return nil
}

func (r *BoardRepo) RemoveMember(_ context.Context, boardID int, email string) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	rec, ok := r.storage.boards[boardID]
	if !ok {
		return repository.ErrNotFound
	}
	members := rec.Members[:0]
	for _, member := range rec.Members {
		if member != email {
			members = append(members, member)
		}
	}
	rec.Members = members
	return nil
}

func (r *BoardRepo) SetOwner(_ context.Context, boardID int, email string) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	rec, ok := r.storage.boards[boardID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.OwnerEmail = email
	return nil
}

func (r *BoardRepo) Delete(_ context.Context, boardID int) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	if _, ok := r.storage.boards[boardID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.storage.boards, boardID)
	return nil
}

func (r *BoardRepo) LoadAll(_ context.Context) ([]*repository.BoardRecord, error) {
	r.storage.mtx.RLock()
	defer r.storage.mtx.RUnlock()

	records := make([]*repository.BoardRecord, 0, len(r.storage.boards))
	for _, rec := range r.storage.boards {
		clone := *rec
		clone.Members = append([]string{}, rec.Members...)
		records = append(records, &clone)
	}
	return records, nil
}

func (r *BoardRepo) DeleteAll(_ context.Context) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	r.storage.boards = make(map[int]*repository.BoardRecord)
	return nil
}

// ----- колонки -----

type ColumnRepo struct {
	storage *Storage
}

func (r *ColumnRepo) Insert(_ context.Context, rec *repository.ColumnRecord) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	clone := *rec
	r.storage.columns[columnKey{rec.BoardID, rec.Ordinal}] = &clone
	return nil
}

func (r *ColumnRepo) UpdateColumnLimit(_ context.Context, boardID, ordinal, limit int) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	rec, ok := r.storage.columns[columnKey{boardID, ordinal}]
	if !ok {
		return repository.ErrNotFound
	}
	rec.TaskLimit = limit
	return nil
}

func (r *ColumnRepo) DeleteBoardColumns(_ context.Context, boardID int) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	for key := range r.storage.columns {
		if key.boardID == boardID {
			delete(r.storage.columns, key)
		}
	}
	return nil
}

func (r *ColumnRepo) LoadAll(_ context.Context) ([]*repository.ColumnRecord, error) {
	r.storage.mtx.RLock()
	defer r.storage.mtx.RUnlock()

	records := make([]*repository.ColumnRecord, 0, len(r.storage.columns))
	for _, rec := range r.storage.columns {
		clone := *rec
		records = append(records, &clone)
	}
	return records, nil
}

func (r *ColumnRepo) DeleteAll(_ context.Context) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	r.storage.columns = make(map[columnKey]*repository.ColumnRecord)
	return nil
}

// ----- задачи -----

type TaskRepo struct {
	storage *Storage
}

func (r *TaskRepo) Insert(_ context.Context, rec *repository.TaskRecord) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	r.storage.tasks[taskKey{rec.BoardID, rec.ID}] = cloneTask(rec)
	return nil
}

func (r *TaskRepo) UpdateField(_ context.Context, boardID, taskID int, field string, value any) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	rec, ok := r.storage.tasks[taskKey{boardID, taskID}]
	if !ok {
		return repository.ErrNotFound
	}
	return repository.ApplyTaskField(rec, field, value)
}

func (r *TaskRepo) DeleteBoardTasks(_ context.Context, boardID int) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	for key := range r.storage.tasks {
		if key.boardID == boardID {
			delete(r.storage.tasks, key)
		}
	}
	return nil
}

func (r *TaskRepo) LoadAll(_ context.Context) ([]*repository.TaskRecord, error) {
	r.storage.mtx.RLock()
	defer r.storage.mtx.RUnlock()

	records := make([]*repository.TaskRecord, 0, len(r.storage.tasks))
	for _, rec := range r.storage.tasks {
		records = append(records, cloneTask(rec))
	}
	return records, nil
}

func (r *TaskRepo) DeleteAll(_ context.Context) error {
	r.storage.mtx.Lock()
	defer r.storage.mtx.Unlock()

	r.storage.tasks = make(map[taskKey]*repository.TaskRecord)
	return nil
}

func cloneTask(rec *repository.TaskRecord) *repository.TaskRecord {
	clone := *rec
	if rec.Assignee != nil {
		assignee := *rec.Assignee
		clone.Assignee = &assignee
	}
	return &clone
}
