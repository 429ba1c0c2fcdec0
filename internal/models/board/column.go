package board

import (
	"context"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/task"

	"go.uber.org/zap"
)

// UnlimitedTasks - сентинел "лимит не задан"
const UnlimitedTasks = -1

// ColumnStore - порт записи лимита колонки
type ColumnStore interface {
	UpdateColumnLimit(ctx context.Context, boardID, ordinal, limit int) error
}

// ColumnTracker считает задачи одной колонки доски и следит,
// чтобы их количество не превышало лимит
type ColumnTracker struct {
	name    string
	state   task.State
	boardID int
	limit   int
	amount  int

	store ColumnStore
}

func newColumnTracker(name string, state task.State, boardID int, store ColumnStore) *ColumnTracker {
	return &ColumnTracker{
		name:    name,
		state:   state,
		boardID: boardID,
		limit:   UnlimitedTasks,
		amount:  0,
		store:   store,
	}
}

func (c *ColumnTracker) Name() string { return c.name }
func (c *ColumnTracker) Limit() int   { return c.limit }
func (c *ColumnTracker) Amount() int  { return c.amount }

// HasCapacity - есть ли место ещё под одну задачу
func (c *ColumnTracker) HasCapacity() bool {
	return c.limit == UnlimitedTasks || c.amount < c.limit
}

// SetLimit меняет лимит колонки. Опустить лимит ниже текущего
// количества задач нельзя
func (c *ColumnTracker) SetLimit(ctx context.Context, newLimit int) error {
	if newLimit < 0 && newLimit != UnlimitedTasks {
		return errs.New(errs.CodeInvalidLimit,
			"лимит задач не может быть отрицательным",
			errs.ToDetail("limit", newLimit))
	}
	if newLimit != UnlimitedTasks && newLimit < c.amount {
		logger.Warn("Column: Лимит ниже текущего количества задач",
			zap.String("column", c.name),
			zap.Int("limit", newLimit),
			zap.Int("amount", c.amount))
		return errs.New(errs.CodeInvalidLimit,
			"в колонке уже больше задач, чем новый лимит",
			errs.ToDetail("limit", newLimit),
			errs.ToDetail("amount", c.amount))
	}

	if err := c.store.UpdateColumnLimit(ctx, c.boardID, int(c.state), newLimit); err != nil {
		logger.Error("Column: Не удалось записать новый лимит", err,
			zap.Int("board_id", c.boardID),
			zap.String("column", c.name))
		return errs.NewPersistence("limit_column", err)
	}

	c.limit = newLimit
	return nil
}

// increment/decrement - защитные проверки; вызывающий обязан заранее
// проверить HasCapacity

func (c *ColumnTracker) increment() error {
	if c.limit != UnlimitedTasks && c.amount+1 > c.limit {
		return errs.New(errs.CodeInvariantViolation,
			"количество задач в колонке превысило бы лимит",
			errs.ToDetail("column", c.name))
	}
	c.amount++
	return nil
}

func (c *ColumnTracker) decrement() error {
	if c.amount-1 < 0 {
		return errs.New(errs.CodeInvariantViolation,
			"количество задач в колонке стало бы отрицательным",
			errs.ToDetail("column", c.name))
	}
	c.amount--
	return nil
}
