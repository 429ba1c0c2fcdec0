package task

import (
	"context"
	"strings"
	"time"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/repository"

	"go.uber.org/zap"
)

// State - порядковый номер колонки, в которой находится задача.
// Задача двигается только вперёд и только на один шаг
type State int

const (
	StateBacklog State = iota
	StateInProgress
	StateDone
)

const stateCount = 3

const MaxTitleLength = 50
const MaxDescriptionLength = 300

func (s State) String() string {
	switch s {
	case StateBacklog:
		return "backlog"
	case StateInProgress:
		return "in progress"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ValidState проверяет, что порядковый номер колонки существует
func ValidState(ordinal int) bool {
	return ordinal >= 0 && ordinal < stateCount
}

// допустимые форматы строки дедлайна
var dueDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func ParseDueDate(value string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errs.NewValidation("due_date", "не удалось разобрать дату '"+value+"'")
}

// Store - узкий порт записи, через который задача фиксирует каждую
// свою мутацию до изменения состояния в памяти
type Store interface {
	UpdateField(ctx context.Context, boardID, taskID int, field string, value any) error
}

type Task struct {
	id           int
	boardID      int
	creationTime time.Time
	dueDate      time.Time
	title        string
	description  string
	state        State
	assignee     *string

	store Store
}

// New валидирует поля и собирает задачу в первой колонке.
// Запись в хранилище делает владеющая доска
func New(id int, dueDate time.Time, title, description string, boardID int, store Store) (*Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	return &Task{
		id:           id,
		boardID:      boardID,
		creationTime: time.Now(),
		dueDate:      dueDate,
		title:        title,
		description:  description,
		state:        StateBacklog,
		assignee:     nil,
		store:        store,
	}, nil
}

// FromRecord восстанавливает задачу из записи хранилища при старте
func FromRecord(rec *repository.TaskRecord, store Store) *Task {
	return &Task{
		id:           rec.ID,
		boardID:      rec.BoardID,
		creationTime: rec.CreationTime,
		dueDate:      rec.DueDate,
		title:        rec.Title,
		description:  rec.Description,
		state:        State(rec.State),
		assignee:     rec.Assignee,
		store:        store,
	}
}

func (t *Task) Record() *repository.TaskRecord {
	return &repository.TaskRecord{
		BoardID:      t.boardID,
		ID:           t.id,
		CreationTime: t.creationTime,
		DueDate:      t.dueDate,
		Title:        t.title,
		Description:  t.description,
		State:        int(t.state),
		Assignee:     t.assignee,
	}
}

func (t *Task) ID() int                 { return t.id }
func (t *Task) BoardID() int            { return t.boardID }
func (t *Task) CreationTime() time.Time { return t.creationTime }
func (t *Task) DueDate() time.Time      { return t.dueDate }
func (t *Task) Title() string           { return t.title }
func (t *Task) Description() string     { return t.description }
func (t *Task) State() State            { return t.state }

// Assignee возвращает email исполнителя или nil, если задача никому
// не назначена
func (t *Task) Assignee() *string { return t.assignee }

func (t *Task) SetTitle(ctx context.Context, actingEmail, newTitle string) error {
	if err := t.requireOpen(); err != nil {
		return err
	}
	if err := t.requireAssignee(actingEmail); err != nil {
		return err
	}
	if err := validateTitle(newTitle); err != nil {
		return err
	}

	if err := t.store.UpdateField(ctx, t.boardID, t.id, "title", newTitle); err != nil {
		logger.Error("Task: Не удалось записать новый заголовок", err, zap.Int("task_id", t.id))
		return errs.NewPersistence("set_title", err)
	}

	t.title = newTitle
	return nil
}

func (t *Task) SetDescription(ctx context.Context, actingEmail, newDescription string) error {
	if err := t.requireOpen(); err != nil {
		return err
	}
	if err := t.requireAssignee(actingEmail); err != nil {
		return err
	}
	if err := validateDescription(newDescription); err != nil {
		return err
	}

	if err := t.store.UpdateField(ctx, t.boardID, t.id, "description", newDescription); err != nil {
		logger.Error("Task: Не удалось записать новое описание", err, zap.Int("task_id", t.id))
		return errs.NewPersistence("set_description", err)
	}

	t.description = newDescription
	return nil
}

// SetDueDate принимает дедлайн строкой, как его отдаёт представление
func (t *Task) SetDueDate(ctx context.Context, actingEmail, value string) error {
	if err := t.requireOpen(); err != nil {
		return err
	}
	if err := t.requireAssignee(actingEmail); err != nil {
		return err
	}

	newDueDate, err := ParseDueDate(value)
	if err != nil {
		return err
	}

	if err := t.store.UpdateField(ctx, t.boardID, t.id, "due_date", newDueDate); err != nil {
		logger.Error("Task: Не удалось записать новый дедлайн", err, zap.Int("task_id", t.id))
		return errs.NewPersistence("set_due_date", err)
	}

	t.dueDate = newDueDate
	return nil
}

// SetAssignee меняет исполнителя. Пока задача никому не назначена,
// назначить может любой участник доски; после - только текущий
// исполнитель. nil снимает назначение.
// Для Done-задач переназначение не блокируется - поведение исходной
// системы сохранено намеренно
func (t *Task) SetAssignee(ctx context.Context, assignerEmail string, newAssignee *string) error {
	if t.assignee != nil && *t.assignee != assignerEmail {
		logger.Warn("Task: Попытка переназначить чужую задачу",
			zap.Int("task_id", t.id),
			zap.String("assigner", assignerEmail))
		return errs.New(errs.CodeNotAssignee, "переназначить задачу может только текущий исполнитель")
	}

	if err := t.store.UpdateField(ctx, t.boardID, t.id, "assignee", newAssignee); err != nil {
		logger.Error("Task: Не удалось записать нового исполнителя", err, zap.Int("task_id", t.id))
		return errs.NewPersistence("set_assignee", err)
	}

	t.assignee = newAssignee
	return nil
}

// NextState возвращает следующую колонку задачи, не двигая её
func (t *Task) NextState() (State, error) {
	if t.state == StateDone {
		return t.state, errs.New(errs.CodeTerminalState,
			"задача уже в последней колонке", errs.ToDetail("task_id", t.id))
	}
	return t.state + 1, nil
}

// Advance переводит задачу в следующую колонку. Проверку вместимости
// колонки-назначения делает доска ДО вызова
func (t *Task) Advance(ctx context.Context) error {
	nextState, err := t.NextState()
	if err != nil {
		return err
	}

	if err := t.store.UpdateField(ctx, t.boardID, t.id, "state", int(nextState)); err != nil {
		logger.Error("Task: Не удалось записать новое состояние", err, zap.Int("task_id", t.id))
		return errs.NewPersistence("advance", err)
	}

	t.state = nextState
	logger.Info("Task: Задача перемещена",
		zap.Int("task_id", t.id),
		zap.String("state", nextState.String()))
	return nil
}

func (t *Task) requireOpen() error {
	if t.state == StateDone {
		return errs.New(errs.CodeTaskClosed,
			"задача завершена и больше не редактируется", errs.ToDetail("task_id", t.id))
	}
	return nil
}

func (t *Task) requireAssignee(email string) error {
	if t.assignee == nil || *t.assignee != email {
		return errs.New(errs.CodeNotAssignee,
			"редактировать задачу может только её исполнитель", errs.ToDetail("task_id", t.id))
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errs.NewValidation("title", "заголовок не может быть пустым")
	}
	if len([]rune(title)) > MaxTitleLength {
		return errs.NewValidation("title", "заголовок длиннее 50 символов")
	}
	return nil
}

func validateDescription(description string) error {
	if len([]rune(description)) > MaxDescriptionLength {
		return errs.NewValidation("description", "описание длиннее 300 символов")
	}
	return nil
}
