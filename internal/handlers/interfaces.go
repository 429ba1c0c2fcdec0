package handlers

import (
	"context"

	"kanbanTracker/internal/models/task"
)

// интерфейсы сервисного слоя, которыми пользуются обработчики.
// Registry реализует все три

type UserService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context, email string) error
}

type BoardService interface {
	AddBoard(ctx context.Context, email, name string) (int, error)
	DeleteBoard(ctx context.Context, email, name string) error
	GetAllUserBoards(email string) ([]int, error)
	GetBoardName(email string, boardID int) (string, error)
	GetColumnLimit(email, name string, ordinal int) (int, error)
	GetColumnName(email, name string, ordinal int) (string, error)
	GetColumn(email, boardName string, ordinal int) ([]*task.Task, error)
	LimitColumn(ctx context.Context, email, name string, ordinal, limit int) error
	JoinBoard(ctx context.Context, email string, boardID int) error
	LeaveBoard(ctx context.Context, email string, boardID int) error
	TransferBoardOwnership(ctx context.Context, currentOwnerEmail, newOwnerEmail, name string) error
}

type TaskService interface {
	AddTask(ctx context.Context, email, boardName, dueDate, title, description string) (*task.Task, error)
	UpdateTaskTitle(ctx context.Context, email, boardName string, taskID int, title string) error
	UpdateTaskDescription(ctx context.Context, email, boardName string, taskID int, description string) error
	UpdateTaskDueDate(ctx context.Context, email, boardName string, taskID int, dueDate string) error
	MoveTaskState(ctx context.Context, email, boardName string, taskID int) error
	AssignTask(ctx context.Context, assignerEmail, boardName string, taskID int, assignee *string) error
	GetAllInProgressByUser(email string) ([]*task.Task, error)
}
