package board_test

import (
	"context"
	"errors"
	"testing"

	"kanbanTracker/internal/errs"
	"kanbanTracker/internal/models/board"
	"kanbanTracker/internal/models/task"
	"kanbanTracker/internal/repository"
	"kanbanTracker/internal/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner@x.com"
const member = "member@x.com"

func newTestBoard(t *testing.T) (*board.Board, *inmemory.Storage) {
	t.Helper()
	ctx := context.Background()

	storage := inmemory.NewStorage()
	b, err := board.New(ctx, 0, "proj", owner, storage.Boards(), storage.Columns(), storage.Tasks())
	require.NoError(t, err)
	return b, storage
}

func columnAmount(t *testing.T, b *board.Board, ordinal int) int {
	t.Helper()

	tasks, err := b.GetColumn(ordinal)
	require.NoError(t, err)
	return len(tasks)
}

// TestNew тестирует создание доски с тремя колонками
func TestNew(t *testing.T) {
	ctx := context.Background()
	b, storage := newTestBoard(t)

	assert.Equal(t, 0, b.ID())
	assert.Equal(t, "proj", b.Name())
	assert.Equal(t, owner, b.OwnerEmail())
	assert.True(t, b.IsUserEnrolled(owner))

	name, err := b.GetColumnName(0)
	require.NoError(t, err)
	assert.Equal(t, "backlog", name)

	name, err = b.GetColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "in progress", name)

	name, err = b.GetColumnName(2)
	require.NoError(t, err)
	assert.Equal(t, "done", name)

	// доска и колонки записаны в хранилище
	boardRecs, err := storage.Boards().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, boardRecs, 1)
	assert.Contains(t, boardRecs[0].Members, owner)

	columnRecs, err := storage.Columns().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, columnRecs, 3)
}

// TestBoard_AddTask тестирует создание задач и лимит первой колонки
func TestBoard_AddTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - sequential ids starting at zero", func(t *testing.T) {
		b, _ := newTestBoard(t)

		first, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)
		assert.Equal(t, 0, first.ID())
		assert.Equal(t, task.StateBacklog, first.State())

		second, err := b.AddTask(ctx, "2099-01-02", "T2", "D2")
		require.NoError(t, err)
		assert.Equal(t, 1, second.ID())

		assert.Equal(t, 2, columnAmount(t, b, 0))
	})

	t.Run("error - unparseable due date", func(t *testing.T) {
		b, _ := newTestBoard(t)

		_, err := b.AddTask(ctx, "not a date", "T", "D")
		require.Error(t, err)
		assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
	})

	t.Run("error - backlog full", func(t *testing.T) {
		b, _ := newTestBoard(t)

		_, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)

		require.NoError(t, b.LimitColumn(ctx, 0, 1))

		_, err = b.AddTask(ctx, "2099-01-02", "T2", "D2")
		require.Error(t, err)
		assert.Equal(t, errs.CodeColumnFull, errs.CodeOf(err))
		assert.Equal(t, 1, columnAmount(t, b, 0))
	})
}

// TestBoard_GetTask тестирует поиск задачи по id
func TestBoard_GetTask(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t)

	created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)

	found, err := b.GetTask(created.ID())
	require.NoError(t, err)
	assert.Equal(t, "T", found.Title())

	_, err = b.GetTask(42)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))

	_, err = b.GetTask(-1)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

// TestBoard_MoveTaskState тестирует перемещение задач между колонками
func TestBoard_MoveTaskState(t *testing.T) {
	ctx := context.Background()

	t.Run("error - no assignee", func(t *testing.T) {
		b, _ := newTestBoard(t)
		created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)

		err = b.MoveTaskState(ctx, owner, created.ID())
		require.Error(t, err)
		assert.Equal(t, errs.CodeNotAssignee, errs.CodeOf(err))
	})

	t.Run("success - assignee moves forward, counters follow", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)
		require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))

		require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))

		moved, err := b.GetTask(created.ID())
		require.NoError(t, err)
		assert.Equal(t, task.StateInProgress, moved.State())
		assert.Equal(t, 0, columnAmount(t, b, 0))
		assert.Equal(t, 1, columnAmount(t, b, 1))
	})

	t.Run("error - task already done", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)
		require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))

		require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))
		require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))

		done, err := b.GetTask(created.ID())
		require.NoError(t, err)
		assert.Equal(t, task.StateDone, done.State())

		err = b.MoveTaskState(ctx, member, created.ID())
		require.Error(t, err)
		assert.Equal(t, errs.CodeTerminalState, errs.CodeOf(err))
	})

	t.Run("error - destination full keeps task in place", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		first, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)
		second, err := b.AddTask(ctx, "2099-01-02", "T2", "D2")
		require.NoError(t, err)

		require.NoError(t, b.AssignTask(ctx, owner, first.ID(), ptr(member)))
		require.NoError(t, b.AssignTask(ctx, owner, second.ID(), ptr(member)))

		require.NoError(t, b.LimitColumn(ctx, 1, 1))
		require.NoError(t, b.MoveTaskState(ctx, member, first.ID()))

		err = b.MoveTaskState(ctx, member, second.ID())
		require.Error(t, err)
		assert.Equal(t, errs.CodeColumnFull, errs.CodeOf(err))

		kept, err := b.GetTask(second.ID())
		require.NoError(t, err)
		assert.Equal(t, task.StateBacklog, kept.State())
		assert.Equal(t, 1, columnAmount(t, b, 0))
		assert.Equal(t, 1, columnAmount(t, b, 1))
	})
}

// TestBoard_UpdateTask тестирует правки через доску
func TestBoard_UpdateTask(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t)
	require.NoError(t, b.JoinBoard(ctx, member))

	created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)
	require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))

	require.NoError(t, b.UpdateTaskTitle(ctx, member, created.ID(), "New Title"))
	require.NoError(t, b.UpdateTaskDescription(ctx, member, created.ID(), "New Description"))
	require.NoError(t, b.UpdateTaskDueDate(ctx, member, created.ID(), "2099-06-01"))

	updated, err := b.GetTask(created.ID())
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title())
	assert.Equal(t, "New Description", updated.Description())

	// после завершения задача не редактируется
	require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))
	require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))

	err = b.UpdateTaskDescription(ctx, member, created.ID(), "Too late")
	require.Error(t, err)
	assert.Equal(t, errs.CodeTaskClosed, errs.CodeOf(err))
}

// TestBoard_Columns тестирует работу с колонками и лимитами
func TestBoard_Columns(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t)

	_, err := b.GetColumnName(3)
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidColumn, errs.CodeOf(err))

	limit, err := b.GetColumnLimit(0)
	require.NoError(t, err)
	assert.Equal(t, board.UnlimitedTasks, limit)

	err = b.LimitColumn(ctx, 0, -5)
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidLimit, errs.CodeOf(err))

	// лимит нельзя опустить ниже текущего количества задач
	_, err = b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)
	_, err = b.AddTask(ctx, "2099-01-02", "T2", "D2")
	require.NoError(t, err)

	err = b.LimitColumn(ctx, 0, 1)
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidLimit, errs.CodeOf(err))

	require.NoError(t, b.LimitColumn(ctx, 0, 2))
	limit, err = b.GetColumnLimit(0)
	require.NoError(t, err)
	assert.Equal(t, 2, limit)
}

// TestBoard_Membership тестирует вступление и выход из доски
func TestBoard_Membership(t *testing.T) {
	ctx := context.Background()

	t.Run("error - joining twice", func(t *testing.T) {
		b, _ := newTestBoard(t)

		require.NoError(t, b.JoinBoard(ctx, member))
		assert.True(t, b.IsUserEnrolled(member))

		err := b.JoinBoard(ctx, member)
		require.Error(t, err)
		assert.Equal(t, errs.CodeAlreadyMember, errs.CodeOf(err))
	})

	t.Run("error - leaving without membership", func(t *testing.T) {
		b, _ := newTestBoard(t)

		err := b.LeaveBoard(ctx, member)
		require.Error(t, err)
		assert.Equal(t, errs.CodeNotMember, errs.CodeOf(err))
	})

	t.Run("error - owner cannot leave", func(t *testing.T) {
		b, _ := newTestBoard(t)

		err := b.LeaveBoard(ctx, owner)
		require.Error(t, err)
		assert.Equal(t, errs.CodeOwnerCannotLeave, errs.CodeOf(err))
		assert.True(t, b.IsUserEnrolled(owner))
	})

	t.Run("success - leaving unassigns open tasks", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
		require.NoError(t, err)
		require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))

		require.NoError(t, b.LeaveBoard(ctx, member))
		assert.False(t, b.IsUserEnrolled(member))

		unassigned, err := b.GetTask(created.ID())
		require.NoError(t, err)
		assert.Nil(t, unassigned.Assignee())
	})

	t.Run("error - leave stays a member when write fails", func(t *testing.T) {
		storage := inmemory.NewStorage()
		store := &failingMemberStore{BoardRepository: storage.Boards()}
		b, err := board.New(ctx, 0, "proj", owner, store, storage.Columns(), storage.Tasks())
		require.NoError(t, err)
		require.NoError(t, b.JoinBoard(ctx, member))

		store.failRemove = true
		err = b.LeaveBoard(ctx, member)
		require.Error(t, err)
		assert.Equal(t, errs.CodePersistence, errs.CodeOf(err))
		assert.True(t, b.IsUserEnrolled(member))
	})
}

// TestBoard_AssignTask тестирует назначение участникам
func TestBoard_AssignTask(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t)

	created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)

	// исполнителем может быть только участник доски
	err = b.AssignTask(ctx, owner, created.ID(), ptr("stranger@x.com"))
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotBoardMember, errs.CodeOf(err))

	require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(owner)))

	assigned, err := b.GetTask(created.ID())
	require.NoError(t, err)
	require.NotNil(t, assigned.Assignee())
	assert.Equal(t, owner, *assigned.Assignee())
}

// TestBoard_TaskCopies тестирует, что наружу отдаются копии задач,
// не привязанные к внутреннему состоянию доски
func TestBoard_TaskCopies(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t)
	require.NoError(t, b.JoinBoard(ctx, member))

	created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)
	require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))

	fromColumn, err := b.GetColumn(0)
	require.NoError(t, err)
	require.Len(t, fromColumn, 1)

	require.NoError(t, b.UpdateTaskTitle(ctx, member, created.ID(), "New Title"))

	// выданные раньше копии не меняются вместе с доской
	assert.Equal(t, "T", created.Title())
	assert.Equal(t, "T", fromColumn[0].Title())

	current, err := b.GetTask(created.ID())
	require.NoError(t, err)
	assert.Equal(t, "New Title", current.Title())
}

// TestBoard_TransferOwnership тестирует передачу доски
func TestBoard_TransferOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("error - not the owner", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		err := b.TransferOwnership(ctx, member, owner)
		require.Error(t, err)
		assert.Equal(t, errs.CodeNotOwner, errs.CodeOf(err))
	})

	t.Run("error - new owner not a member", func(t *testing.T) {
		b, _ := newTestBoard(t)

		err := b.TransferOwnership(ctx, owner, member)
		require.Error(t, err)
		assert.Equal(t, errs.CodeNotMember, errs.CodeOf(err))
	})

	t.Run("success - ownership swaps, owner stays a member", func(t *testing.T) {
		b, _ := newTestBoard(t)
		require.NoError(t, b.JoinBoard(ctx, member))

		require.NoError(t, b.TransferOwnership(ctx, owner, member))
		assert.Equal(t, member, b.OwnerEmail())
		assert.True(t, b.IsUserEnrolled(owner))
		assert.True(t, b.IsUserEnrolled(member))
	})
}

// TestFromRecords тестирует восстановление доски из хранилища
func TestFromRecords(t *testing.T) {
	ctx := context.Background()
	b, storage := newTestBoard(t)
	require.NoError(t, b.JoinBoard(ctx, member))

	created, err := b.AddTask(ctx, "2099-01-01", "T", "D")
	require.NoError(t, err)
	require.NoError(t, b.AssignTask(ctx, owner, created.ID(), ptr(member)))
	require.NoError(t, b.MoveTaskState(ctx, member, created.ID()))

	boardRecs, err := storage.Boards().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, boardRecs, 1)

	columnRecs, err := storage.Columns().LoadAll(ctx)
	require.NoError(t, err)

	taskRecs, err := storage.Tasks().LoadAll(ctx)
	require.NoError(t, err)

	restored := board.FromRecords(boardRecs[0], columnRecs, taskRecs,
		storage.Boards(), storage.Columns(), storage.Tasks())

	assert.Equal(t, b.ID(), restored.ID())
	assert.Equal(t, owner, restored.OwnerEmail())
	assert.True(t, restored.IsUserEnrolled(member))
	assert.Equal(t, 1, columnAmount(t, restored, 1))

	// счётчик id продолжается с прежнего места
	next, err := restored.AddTask(ctx, "2099-02-01", "T2", "D2")
	require.NoError(t, err)
	assert.Equal(t, 1, next.ID())

	restoredTask, err := restored.GetTask(created.ID())
	require.NoError(t, err)
	assert.Equal(t, task.StateInProgress, restoredTask.State())
	require.NotNil(t, restoredTask.Assignee())
	assert.Equal(t, member, *restoredTask.Assignee())
}

func ptr(s string) *string {
	return &s
}

// failingMemberStore отказывает в записи выхода участника
type failingMemberStore struct {
	repository.BoardRepository
	failRemove bool
}

func (s *failingMemberStore) RemoveMember(ctx context.Context, boardID int, email string) error {
	if s.failRemove {
		return errors.New("хранилище недоступно")
	}
	return s.BoardRepository.RemoveMember(ctx, boardID, email)
}
