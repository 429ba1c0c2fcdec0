package worker

import (
	"context"
	"time"

	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/task"

	"go.uber.org/zap"
)

// TaskSource отдаёт незавершённые задачи с истёкшим дедлайном
type TaskSource interface {
	OverdueTasks(now time.Time) []*task.Task
}

// OverdueWorker периодически проверяет доски и пишет в лог напоминания
// о просроченных задачах. Состояние задач не трогает: колонку меняет
// только исполнитель
type OverdueWorker struct {
	source   TaskSource
	interval time.Duration
}

func NewOverdueWorker(source TaskSource, interval *time.Duration) *OverdueWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	return &OverdueWorker{
		source:   source,
		interval: intervalToSet,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка задач на просроченность", zap.Time("started_at", time.Now()))
			w.Check()
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *OverdueWorker) Check() {
	start := time.Now()

	overdue := w.source.OverdueTasks(start)
	for _, t := range overdue {
		logger.Warn("Worker: Просроченная задача",
			zap.Int("board_id", t.BoardID()),
			zap.Int("task_id", t.ID()),
			zap.String("title", t.Title()),
			zap.Time("due_date", t.DueDate()))
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("overdue", len(overdue)),
	)
}
