package service

import (
	"context"
	"time"

	"kanbanTracker/internal/models/task"
)

// AddTask создаёт задачу в первой колонке доски пользователя
func (r *Registry) AddTask(ctx context.Context, email, boardName, dueDate, title, description string) (*task.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return nil, err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return nil, err
	}
	return b.AddTask(ctx, dueDate, title, description)
}

func (r *Registry) UpdateTaskTitle(ctx context.Context, email, boardName string, taskID int, title string) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return err
	}
	return b.UpdateTaskTitle(ctx, email, taskID, title)
}

func (r *Registry) UpdateTaskDescription(ctx context.Context, email, boardName string, taskID int, description string) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return err
	}
	return b.UpdateTaskDescription(ctx, email, taskID, description)
}

func (r *Registry) UpdateTaskDueDate(ctx context.Context, email, boardName string, taskID int, dueDate string) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return err
	}
	return b.UpdateTaskDueDate(ctx, email, taskID, dueDate)
}

// MoveTaskState двигает задачу в следующую колонку; двигать может
// только исполнитель
func (r *Registry) MoveTaskState(ctx context.Context, email, boardName string, taskID int) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return err
	}
	return b.MoveTaskState(ctx, email, taskID)
}

// AssignTask назначает задачу участнику доски. Исполнителю достаточно
// существовать, вход не требуется; nil снимает назначение
func (r *Registry) AssignTask(ctx context.Context, assignerEmail, boardName string, taskID int, assignee *string) error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(assignerEmail); err != nil {
		return err
	}
	if assignee != nil {
		if _, err := r.requireUser(*assignee); err != nil {
			return err
		}
	}
	b, err := r.userBoardByName(assignerEmail, boardName)
	if err != nil {
		return err
	}
	return b.AssignTask(ctx, assignerEmail, taskID, assignee)
}

// GetColumn возвращает задачи колонки доски пользователя
func (r *Registry) GetColumn(email, boardName string, ordinal int) ([]*task.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return nil, err
	}
	b, err := r.userBoardByName(email, boardName)
	if err != nil {
		return nil, err
	}
	return b.GetColumn(ordinal)
}

// GetAllInProgressByUser собирает задачи пользователя в работе со всех
// его досок
func (r *Registry) GetAllInProgressByUser(email string) ([]*task.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if _, err := r.requireLoggedIn(email); err != nil {
		return nil, err
	}

	inProgress := []*task.Task{}
	for _, b := range r.boards {
		if !b.IsUserEnrolled(email) {
			continue
		}
		columnTasks, err := b.GetColumn(int(task.StateInProgress))
		if err != nil {
			return nil, err
		}
		for _, t := range columnTasks {
			if t.Assignee() != nil && *t.Assignee() == email {
				inProgress = append(inProgress, t)
			}
		}
	}
	return inProgress, nil
}

// OverdueTasks возвращает незавершённые задачи с дедлайном раньше now.
// Используется фоновым воркером для напоминаний
func (r *Registry) OverdueTasks(now time.Time) []*task.Task {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	overdue := []*task.Task{}
	for _, b := range r.boards {
		for ordinal := 0; ordinal < int(task.StateDone); ordinal++ {
			columnTasks, err := b.GetColumn(ordinal)
			if err != nil {
				continue
			}
			for _, t := range columnTasks {
				if t.DueDate().Before(now) {
					overdue = append(overdue, t)
				}
			}
		}
	}
	return overdue
}
