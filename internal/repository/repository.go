package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("запись не найдена")

// записи-зеркала сущностей: бизнес-слой общается с хранилищем только
// через них и через интерфейсы ниже

type UserRecord struct {
	Email    string
	Password string
}

type BoardRecord struct {
	ID         int
	Name       string
	OwnerEmail string
	Members    []string
}

type ColumnRecord struct {
	BoardID   int
	Ordinal   int
	Name      string
	TaskLimit int
}

type TaskRecord struct {
	BoardID      int
	ID           int
	CreationTime time.Time
	DueDate      time.Time
	Title        string
	Description  string
	State        int
	Assignee     *string
}

// ApplyTaskField применяет точечное обновление к записи задачи.
// Имена полей совпадают с колонками таблицы tasks
func ApplyTaskField(rec *TaskRecord, field string, value any) error {
	switch field {
	case "title":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("поле title ожидает строку, получено %T", value)
		}
		rec.Title = v
	case "description":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("поле description ожидает строку, получено %T", value)
		}
		rec.Description = v
	case "due_date":
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("поле due_date ожидает time.Time, получено %T", value)
		}
		rec.DueDate = v
	case "state":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("поле state ожидает int, получено %T", value)
		}
		rec.State = v
	case "assignee":
		v, ok := value.(*string)
		if !ok {
			return fmt.Errorf("поле assignee ожидает *string, получено %T", value)
		}
		rec.Assignee = v
	default:
		return fmt.Errorf("неизвестное поле задачи: %s", field)
	}
	return nil
}

type UserRepository interface {
	Insert(ctx context.Context, rec *UserRecord) error
	LoadAll(ctx context.Context) ([]*UserRecord, error)
	DeleteAll(ctx context.Context) error
}

type BoardRepository interface {
	Insert(ctx context.Context, rec *BoardRecord) error
	AddMember(ctx context.Context, boardID int, email string) error
	RemoveMember(ctx context.Context, boardID int, email string) error
	SetOwner(ctx context.Context, boardID int, email string) error
	Delete(ctx context.Context, boardID int) error
	LoadAll(ctx context.Context) ([]*BoardRecord, error)
	DeleteAll(ctx context.Context) error
}

type ColumnRepository interface {
	Insert(ctx context.Context, rec *ColumnRecord) error
	UpdateColumnLimit(ctx context.Context, boardID, ordinal, limit int) error
	DeleteBoardColumns(ctx context.Context, boardID int) error
	LoadAll(ctx context.Context) ([]*ColumnRecord, error)
	DeleteAll(ctx context.Context) error
}

type TaskRepository interface {
	Insert(ctx context.Context, rec *TaskRecord) error
	UpdateField(ctx context.Context, boardID, taskID int, field string, value any) error
	DeleteBoardTasks(ctx context.Context, boardID int) error
	LoadAll(ctx context.Context) ([]*TaskRecord, error)
	DeleteAll(ctx context.Context) error
}
