package dto

import (
	"time"

	"kanbanTracker/internal/models/task"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LogoutRequest struct {
	Email string `json:"email"`
}

type CreateBoardRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type DeleteBoardRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type MembershipRequest struct {
	Email string `json:"email"`
}

type TransferOwnershipRequest struct {
	CurrentOwner string `json:"current_owner"`
	NewOwner     string `json:"new_owner"`
	Name         string `json:"name"`
}

type LimitColumnRequest struct {
	Email   string `json:"email"`
	Board   string `json:"board"`
	Ordinal int    `json:"ordinal"`
	Limit   int    `json:"limit"`
}

type CreateTaskRequest struct {
	Email       string `json:"email"`
	Board       string `json:"board"`
	DueDate     string `json:"due_date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Email       string  `json:"email"`
	Board       string  `json:"board"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type MoveTaskRequest struct {
	Email string `json:"email"`
	Board string `json:"board"`
}

type AssignTaskRequest struct {
	Email    string  `json:"email"`
	Board    string  `json:"board"`
	Assignee *string `json:"assignee"`
}

type TaskResponse struct {
	ID           int       `json:"id"`
	BoardID      int       `json:"board_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	State        string    `json:"state"`
	DueDate      time.Time `json:"due_date"`
	CreationTime time.Time `json:"creation_time"`
	Assignee     *string   `json:"assignee,omitempty"`
	IsOverdue    bool      `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID(),
		BoardID:      t.BoardID(),
		Title:        t.Title(),
		Description:  t.Description(),
		State:        t.State().String(),
		DueDate:      t.DueDate(),
		CreationTime: t.CreationTime(),
		Assignee:     t.Assignee(),
		IsOverdue:    t.State() != task.StateDone && t.DueDate().Before(time.Now()),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}
