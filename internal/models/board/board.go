package board

import (
	"context"
	"sync"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/models/task"
	"kanbanTracker/internal/repository"

	"go.uber.org/zap"
)

const startingTaskID = 0

// первая колонка доски, в неё попадают новые задачи
const firstColumn = task.StateBacklog

// Store - порт записи самой доски (владелец, участники)
type Store interface {
	AddMember(ctx context.Context, boardID int, email string) error
	RemoveMember(ctx context.Context, boardID int, email string) error
	SetOwner(ctx context.Context, boardID int, email string) error
}

// Board - kanban-доска: владеет своими задачами и трекерами колонок,
// следит за участниками, назначениями и владельцем.
// Каждая доска несёт собственный мьютекс, чтобы перемещения задач и
// счётчики колонок оставались атомарными при конкурентных запросах
type Board struct {
	mtx sync.Mutex

	id         int
	name       string
	ownerEmail string
	members    map[string]struct{}
	nextTaskID int
	columns    map[task.State]*ColumnTracker
	tasks      []*task.Task

	store      Store
	columnsRep repository.ColumnRepository
	tasksRep   repository.TaskRepository
}

// New создаёт пустую доску с тремя колонками и записывает её,
// владельца-участника и колонки в хранилище
func New(ctx context.Context, id int, name, ownerEmail string,
	boards repository.BoardRepository, columns repository.ColumnRepository, tasks repository.TaskRepository) (*Board, error) {

	b := &Board{
		id:         id,
		name:       name,
		ownerEmail: ownerEmail,
		members:    map[string]struct{}{ownerEmail: {}},
		nextTaskID: startingTaskID,
		columns:    make(map[task.State]*ColumnTracker),
		tasks:      []*task.Task{},
		store:      boards,
		columnsRep: columns,
		tasksRep:   tasks,
	}

	b.columns[task.StateBacklog] = newColumnTracker("backlog", task.StateBacklog, id, columns)
	b.columns[task.StateInProgress] = newColumnTracker("in progress", task.StateInProgress, id, columns)
	b.columns[task.StateDone] = newColumnTracker("done", task.StateDone, id, columns)

	rec := &repository.BoardRecord{
		ID:         id,
		Name:       name,
		OwnerEmail: ownerEmail,
		Members:    []string{ownerEmail},
	}
	if err := boards.Insert(ctx, rec); err != nil {
		logger.Error("Board: Не удалось записать новую доску", err, zap.Int("board_id", id))
		return nil, errs.NewPersistence("add_board", err)
	}

	for _, tracker := range b.columns {
		colRec := &repository.ColumnRecord{
			BoardID:   id,
			Ordinal:   int(tracker.state),
			Name:      tracker.name,
			TaskLimit: tracker.limit,
		}
		if err := columns.Insert(ctx, colRec); err != nil {
			logger.Error("Board: Не удалось записать колонку", err,
				zap.Int("board_id", id),
				zap.String("column", tracker.name))
			return nil, errs.NewPersistence("add_board", err)
		}
	}

	logger.Info("Board: Доска создана",
		zap.Int("board_id", id),
		zap.String("name", name),
		zap.String("owner", ownerEmail))
	return b, nil
}

// FromRecords восстанавливает доску из записей хранилища при старте.
// Количество задач в колонках и следующий id считаются заново
func FromRecords(rec *repository.BoardRecord, columnRecs []*repository.ColumnRecord, taskRecs []*repository.TaskRecord,
	boards repository.BoardRepository, columns repository.ColumnRepository, tasks repository.TaskRepository) *Board {

	b := &Board{
		id:         rec.ID,
		name:       rec.Name,
		ownerEmail: rec.OwnerEmail,
		members:    make(map[string]struct{}),
		nextTaskID: startingTaskID,
		columns:    make(map[task.State]*ColumnTracker),
		tasks:      []*task.Task{},
		store:      boards,
		columnsRep: columns,
		tasksRep:   tasks,
	}

	for _, member := range rec.Members {
		b.members[member] = struct{}{}
	}
	b.members[rec.OwnerEmail] = struct{}{}

	for _, taskRec := range taskRecs {
		b.tasks = append(b.tasks, task.FromRecord(taskRec, tasks))
		if taskRec.ID >= b.nextTaskID {
			b.nextTaskID = taskRec.ID + 1
		}
	}

	for _, colRec := range columnRecs {
		state := task.State(colRec.Ordinal)
		tracker := newColumnTracker(colRec.Name, state, rec.ID, columns)
		tracker.limit = colRec.TaskLimit
		for _, t := range b.tasks {
			if t.State() == state {
				tracker.amount++
			}
		}
		b.columns[state] = tracker
	}

	return b
}

func (b *Board) ID() int { return b.id }

func (b *Board) Name() string { return b.name }

func (b *Board) OwnerEmail() string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.ownerEmail
}

func (b *Board) Members() []string {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	members := make([]string, 0, len(b.members))
	for member := range b.members {
		members = append(members, member)
	}
	return members
}

// IsUserEnrolled - входит ли пользователь в участники доски
func (b *Board) IsUserEnrolled(email string) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.isEnrolled(email)
}

func (b *Board) isEnrolled(email string) bool {
	_, ok := b.members[email]
	return ok
}

// AddTask создаёт задачу в первой колонке. Вместимость проверяется
// до записи, поэтому при отказе доска не меняется
func (b *Board) AddTask(ctx context.Context, dueDate, title, description string) (*task.Task, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	parsedDueDate, err := task.ParseDueDate(dueDate)
	if err != nil {
		return nil, err
	}

	if !b.columns[firstColumn].HasCapacity() {
		logger.Warn("Board: Первая колонка заполнена",
			zap.Int("board_id", b.id),
			zap.String("board", b.name))
		return nil, errs.New(errs.CodeColumnFull,
			"первая колонка заполнена, задачу добавить нельзя",
			errs.ToDetail("board_id", b.id))
	}

	newTask, err := task.New(b.nextTaskID, parsedDueDate, title, description, b.id, b.tasksRep)
	if err != nil {
		return nil, err
	}

	if err := b.tasksRep.Insert(ctx, newTask.Record()); err != nil {
		logger.Error("Board: Не удалось записать новую задачу", err, zap.Int("board_id", b.id))
		return nil, errs.NewPersistence("add_task", err)
	}

	if err := b.columns[firstColumn].increment(); err != nil {
		return nil, err
	}
	b.tasks = append(b.tasks, newTask)
	b.nextTaskID++

	logger.Info("Board: Задача добавлена",
		zap.Int("board_id", b.id),
		zap.Int("task_id", newTask.ID()))
	return snapshot(newTask), nil
}

// snapshot - отвязанная копия задачи. Живые указатели наружу из-под
// мьютекса доски не выходят, читать их после возврата небезопасно
func snapshot(t *task.Task) *task.Task {
	return task.FromRecord(t.Record(), nil)
}

// GetTask возвращает копию задачи по id
func (b *Board) GetTask(taskID int) (*task.Task, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t, err := b.findTask(taskID)
	if err != nil {
		return nil, err
	}
	return snapshot(t), nil
}

func (b *Board) findTask(taskID int) (*task.Task, error) {
	if taskID < startingTaskID || taskID >= b.nextTaskID {
		return nil, errs.NewNotFound("задача", taskID)
	}
	for _, t := range b.tasks {
		if t.ID() == taskID {
			return t, nil
		}
	}
	return nil, errs.NewNotFound("задача", taskID)
}

// MoveTaskState двигает задачу в следующую колонку. Все проверки -
// исполнитель, терминальное состояние, вместимость колонки-назначения -
// выполняются до какой-либо мутации, так что неудачное перемещение
// оставляет задачу на месте
func (b *Board) MoveTaskState(ctx context.Context, email string, taskID int) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t, err := b.findTask(taskID)
	if err != nil {
		return err
	}

	if t.Assignee() == nil || *t.Assignee() != email {
		logger.Warn("Board: Перемещение чужой задачи отклонено",
			zap.Int("board_id", b.id),
			zap.Int("task_id", taskID),
			zap.String("email", email))
		return errs.New(errs.CodeNotAssignee, "перемещать задачу может только её исполнитель")
	}

	previousState := t.State()
	nextState, err := t.NextState()
	if err != nil {
		return err
	}

	if !b.columns[nextState].HasCapacity() {
		return errs.New(errs.CodeColumnFull,
			"следующая колонка заполнена",
			errs.ToDetail("column", b.columns[nextState].Name()))
	}

	if err := t.Advance(ctx); err != nil {
		return err
	}

	if err := b.columns[previousState].decrement(); err != nil {
		return err
	}
	if err := b.columns[nextState].increment(); err != nil {
		return err
	}

	return nil
}

func (b *Board) column(ordinal int) (*ColumnTracker, error) {
	if !task.ValidState(ordinal) {
		return nil, errs.New(errs.CodeInvalidColumn,
			"колонки с таким порядковым номером нет",
			errs.ToDetail("ordinal", ordinal))
	}
	return b.columns[task.State(ordinal)], nil
}

// GetColumn возвращает копии всех задач указанной колонки
func (b *Board) GetColumn(ordinal int) ([]*task.Task, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if _, err := b.column(ordinal); err != nil {
		return nil, err
	}

	state := task.State(ordinal)
	columnTasks := []*task.Task{}
	for _, t := range b.tasks {
		if t.State() == state {
			columnTasks = append(columnTasks, snapshot(t))
		}
	}
	return columnTasks, nil
}

func (b *Board) GetColumnName(ordinal int) (string, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	tracker, err := b.column(ordinal)
	if err != nil {
		return "", err
	}
	return tracker.Name(), nil
}

func (b *Board) GetColumnLimit(ordinal int) (int, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	tracker, err := b.column(ordinal)
	if err != nil {
		return 0, err
	}
	return tracker.Limit(), nil
}

func (b *Board) LimitColumn(ctx context.Context, ordinal, limit int) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	tracker, err := b.column(ordinal)
	if err != nil {
		return err
	}
	return tracker.SetLimit(ctx, limit)
}

// JoinBoard добавляет участника. Повторное вступление - ошибка
func (b *Board) JoinBoard(ctx context.Context, email string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.isEnrolled(email) {
		return errs.New(errs.CodeAlreadyMember,
			"пользователь уже участник доски", errs.ToDetail("email", email))
	}

	if err := b.store.AddMember(ctx, b.id, email); err != nil {
		logger.Error("Board: Не удалось записать нового участника", err, zap.Int("board_id", b.id))
		return errs.NewPersistence("join_board", err)
	}

	b.members[email] = struct{}{}
	logger.Info("Board: Участник добавлен",
		zap.Int("board_id", b.id),
		zap.String("email", email))
	return nil
}

// LeaveBoard убирает участника. Владелец выйти не может; все
// незавершённые задачи ушедшего остаются без исполнителя
func (b *Board) LeaveBoard(ctx context.Context, email string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if !b.isEnrolled(email) {
		return errs.New(errs.CodeNotMember,
			"пользователь не участник доски", errs.ToDetail("email", email))
	}
	if b.ownerEmail == email {
		return errs.New(errs.CodeOwnerCannotLeave,
			"владелец не может покинуть свою доску", errs.ToDetail("email", email))
	}

	// сначала снимаем назначения, потом пишем выход из участников:
	// при отказе записи пользователь остаётся участником и в памяти,
	// и в хранилище
	for _, t := range b.tasks {
		if t.Assignee() != nil && *t.Assignee() == email && t.State() != task.StateDone {
			if err := t.SetAssignee(ctx, email, nil); err != nil {
				return err
			}
		}
	}

	if err := b.store.RemoveMember(ctx, b.id, email); err != nil {
		logger.Error("Board: Не удалось убрать участника", err, zap.Int("board_id", b.id))
		return errs.NewPersistence("leave_board", err)
	}

	delete(b.members, email)
	logger.Info("Board: Участник вышел",
		zap.Int("board_id", b.id),
		zap.String("email", email))
	return nil
}

// AssignTask назначает задачу участнику доски (nil снимает назначение).
// Право переназначения проверяет сама задача
func (b *Board) AssignTask(ctx context.Context, assignerEmail string, taskID int, newAssignee *string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if newAssignee != nil && !b.isEnrolled(*newAssignee) {
		return errs.New(errs.CodeNotBoardMember,
			"исполнителем может быть только участник доски",
			errs.ToDetail("email", *newAssignee))
	}

	t, err := b.findTask(taskID)
	if err != nil {
		return err
	}
	return t.SetAssignee(ctx, assignerEmail, newAssignee)
}

// UpdateTaskTitle и соседние методы держат мьютекс доски на время
// правки, чтобы правки и перемещения не перемешивались

func (b *Board) UpdateTaskTitle(ctx context.Context, email string, taskID int, title string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t, err := b.findTask(taskID)
	if err != nil {
		return err
	}
	return t.SetTitle(ctx, email, title)
}

func (b *Board) UpdateTaskDescription(ctx context.Context, email string, taskID int, description string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t, err := b.findTask(taskID)
	if err != nil {
		return err
	}
	return t.SetDescription(ctx, email, description)
}

func (b *Board) UpdateTaskDueDate(ctx context.Context, email string, taskID int, dueDate string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t, err := b.findTask(taskID)
	if err != nil {
		return err
	}
	return t.SetDueDate(ctx, email, dueDate)
}

// TransferOwnership передаёт доску участнику. Новому владельцу не
// обязательно быть залогиненным
func (b *Board) TransferOwnership(ctx context.Context, currentOwnerEmail, newOwnerEmail string) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.ownerEmail != currentOwnerEmail {
		return errs.New(errs.CodeNotOwner,
			"передать доску может только её владелец",
			errs.ToDetail("email", currentOwnerEmail))
	}
	if !b.isEnrolled(newOwnerEmail) {
		return errs.New(errs.CodeNotMember,
			"новый владелец должен быть участником доски",
			errs.ToDetail("email", newOwnerEmail))
	}

	if err := b.store.SetOwner(ctx, b.id, newOwnerEmail); err != nil {
		logger.Error("Board: Не удалось записать нового владельца", err, zap.Int("board_id", b.id))
		return errs.NewPersistence("transfer_ownership", err)
	}

	b.ownerEmail = newOwnerEmail
	logger.Info("Board: Владелец сменился",
		zap.Int("board_id", b.id),
		zap.String("new_owner", newOwnerEmail))
	return nil
}
